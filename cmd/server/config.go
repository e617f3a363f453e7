package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/roster"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// envPrefix namespaces environment overrides: ROSTER_PORT, ROSTER_DB, ...
const envPrefix = "ROSTER"

type config struct {
	Port           int
	DB             string
	Mirror         bool
	LogLevel       string
	Dev            bool
	AllowedOrigins []string
	Rates          roster.PayRates

	PregenerateDays     int
	PregenerateTemplate string
	PregeneratePopulate bool
	SchedulerInterval   time.Duration
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// storeFlags are shared by every sub-command.
func storeFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Optional config file (yaml, json or toml)")
	fs.String("db", "roster.db", `SQLite database path (":memory:" for in-memory)`)
	fs.Bool("mirror", true, "Serve from an in-memory mirror when SQLite fails")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.Bool("dev", false, "Human-readable development logging")
	fs.String("pay-rate-gold", "45", "Hourly rate for GOLD shifts")
	fs.String("pay-rate-silver", "38", "Hourly rate for SILVER shifts")
	fs.String("pay-rate-bronze", "32", "Hourly rate for BRONZE shifts")
}

func serveFlags(fs *pflag.FlagSet) {
	fs.Int("port", 8080, "HTTP server port")
	fs.StringSlice("allowed-origins", nil, "CORS origins (default: local dev servers)")
	fs.Int("pregenerate-days", 7, "Rosters to keep generated ahead, today included (0 disables)")
	fs.String("pregenerate-template", "", "Template for pre-generated rosters (default template when empty)")
	fs.Bool("pregenerate-populate", false, "Round-robin assign staff to pre-generated rosters")
	fs.Duration("scheduler-interval", time.Hour, "How often the pre-generation scheduler runs")
}

// load binds fs into v, reads the optional config file and resolves the
// final configuration. Flags beat env vars beat the config file.
func load(v *viper.Viper, fs *pflag.FlagSet) (config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return config{}, err
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	rates := roster.PayRates{}
	for level, key := range map[schedule.RemunerationLevel]string{
		schedule.LevelGold:   "pay-rate-gold",
		schedule.LevelSilver: "pay-rate-silver",
		schedule.LevelBronze: "pay-rate-bronze",
	} {
		rate, err := decimal.NewFromString(v.GetString(key))
		if err != nil {
			return config{}, fmt.Errorf("%s: %w", key, err)
		}
		if rate.IsNegative() {
			return config{}, fmt.Errorf("%s: must not be negative", key)
		}
		rates[level] = rate
	}

	if interval := v.GetDuration("scheduler-interval"); interval <= 0 {
		return config{}, fmt.Errorf("scheduler-interval: must be positive, got %s", interval)
	}

	return config{
		Port:                v.GetInt("port"),
		DB:                  v.GetString("db"),
		Mirror:              v.GetBool("mirror"),
		LogLevel:            v.GetString("log-level"),
		Dev:                 v.GetBool("dev"),
		AllowedOrigins:      v.GetStringSlice("allowed-origins"),
		Rates:               rates,
		PregenerateDays:     v.GetInt("pregenerate-days"),
		PregenerateTemplate: v.GetString("pregenerate-template"),
		PregeneratePopulate: v.GetBool("pregenerate-populate"),
		SchedulerInterval:   v.GetDuration("scheduler-interval"),
	}, nil
}

// =============================================================================
// LOGGING
// =============================================================================

func newLogger(cfg config) (*zap.Logger, error) {
	if cfg.Dev {
		return zap.NewDevelopment()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
