/*
scheduler.go - Roster pre-generation scheduler

PURPOSE:
  Periodically makes sure a roster exists for each of the next N days so
  managers and bidders always have upcoming shifts to work with.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Uses CreateRoster, which is lookup-or-create, so repeated runs never
    duplicate or overwrite a roster
  - One failing date is logged and does not stop the others

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Days: How many days ahead, today included (default: 7)
  - TemplateID: Template to generate from (default template when empty)
  - Populate: Round-robin assign matching staff
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRosterScheduler(rosters, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - roster/roster.go: CreateRoster
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/roster"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// RosterCreator is the slice of roster.Service the scheduler needs.
type RosterCreator interface {
	CreateRoster(ctx context.Context, in roster.CreateRosterInput) (*schedule.Roster, error)
}

// RosterScheduler generates upcoming rosters ahead of time.
type RosterScheduler struct {
	Rosters       RosterCreator
	CheckInterval time.Duration
	Days          int
	TemplateID    string
	Populate      bool
	Enabled       bool

	log    *zap.Logger
	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRosterScheduler creates a new scheduler.
func NewRosterScheduler(rosters RosterCreator, log *zap.Logger) *RosterScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RosterScheduler{
		Rosters:       rosters,
		CheckInterval: 1 * time.Hour,
		Days:          7,
		Enabled:       true,
		log:           log.Named("scheduler"),
		now:           time.Now,
	}
}

// Start begins the scheduler.
func (rs *RosterScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled || rs.Days <= 0 {
		rs.log.Info("disabled, not starting")
		return
	}
	if rs.CheckInterval <= 0 {
		rs.log.Warn("non-positive interval, not starting", zap.Duration("interval", rs.CheckInterval))
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run()

	rs.log.Info("started", zap.Duration("interval", rs.CheckInterval), zap.Int("days", rs.Days))
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (rs *RosterScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.log.Info("stopped")
	}
}

func (rs *RosterScheduler) run() {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-rs.stop
		cancel()
	}()

	// Run immediately on start
	rs.Generate(ctx)

	for {
		select {
		case <-rs.ticker.C:
			rs.Generate(ctx)
		case <-rs.stop:
			return
		}
	}
}

// Generate ensures a roster exists for each day of the window and returns
// how many dates now have one.
func (rs *RosterScheduler) Generate(ctx context.Context) int {
	today := rs.now()
	ok := 0
	for i := 0; i < rs.Days; i++ {
		if ctx.Err() != nil {
			break
		}
		date := today.AddDate(0, 0, i).Format(schedule.DateLayout)
		_, err := rs.Rosters.CreateRoster(ctx, roster.CreateRosterInput{
			Date:       date,
			TemplateID: rs.TemplateID,
			Populate:   rs.Populate,
		})
		if err != nil {
			rs.log.Warn("roster pre-generation failed", zap.String("date", date), zap.Error(err))
			continue
		}
		ok++
	}
	rs.log.Debug("pre-generation pass done", zap.Int("ready", ok), zap.Int("days", rs.Days))
	return ok
}
