package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	storeFlags(fs)
	serveFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(newViper(), flagSet(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "roster.db", cfg.DB)
	assert.True(t, cfg.Mirror)
	assert.Equal(t, 7, cfg.PregenerateDays)
	assert.Equal(t, time.Hour, cfg.SchedulerInterval)
	assert.True(t, decimal.NewFromInt(45).Equal(cfg.Rates[schedule.LevelGold]))
	assert.True(t, decimal.NewFromInt(32).Equal(cfg.Rates[schedule.LevelBronze]))
}

func TestLoad_EnvAndFlagPrecedence(t *testing.T) {
	// GIVEN: ROSTER_PORT and ROSTER_PAY_RATE_SILVER in the environment
	// WHEN: --port is also passed on the command line
	// THEN: The flag wins for port; the env var wins over the silver default
	t.Setenv("ROSTER_PORT", "9000")
	t.Setenv("ROSTER_PAY_RATE_SILVER", "40.5")
	t.Setenv("ROSTER_MIRROR", "false")

	cfg, err := load(newViper(), flagSet(t, "--port=9100"))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.False(t, cfg.Mirror)
	assert.True(t, decimal.RequireFromString("40.5").Equal(cfg.Rates[schedule.LevelSilver]))
}

func TestLoad_RejectsBadRates(t *testing.T) {
	_, err := load(newViper(), flagSet(t, "--pay-rate-gold=lots"))
	assert.Error(t, err)

	_, err = load(newViper(), flagSet(t, "--pay-rate-bronze=-1"))
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveSchedulerInterval(t *testing.T) {
	_, err := load(newViper(), flagSet(t, "--scheduler-interval=0"))
	assert.ErrorContains(t, err, "scheduler-interval")

	t.Setenv("ROSTER_SCHEDULER_INTERVAL", "-1m")
	_, err = load(newViper(), flagSet(t))
	assert.ErrorContains(t, err, "scheduler-interval")
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(config{LogLevel: "debug"})
	assert.NoError(t, err)

	_, err = newLogger(config{LogLevel: "chatty"})
	assert.Error(t, err)

	_, err = newLogger(config{Dev: true})
	assert.NoError(t, err)
}
