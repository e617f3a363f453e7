/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos. Each scenario loads the demo staff directory and the
	default template, then builds on them.

AVAILABLE SCENARIOS:

	demo-day:        Populated roster for the date
	open-shifts:     Unpopulated roster with pending bids on open shifts
	demo-attendance: Populated roster plus a randomized timesheet

HOW SCENARIOS WORK:
 1. Reset the store (when the handler has a Reset hook)
 2. Save demo employees and the default template
 3. Generate the roster for the date
 4. Add scenario-specific bids or attendance

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "demo-attendance", "date": "2025-03-01", "seed": 7}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - factory/template.go: DefaultTemplate, DemoEmployees
  - roster/timesheet.go: GenerateDemoTimesheet
*/
package api

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/bids"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/factory"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/roster"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const (
	ScenarioDemoDay        = "demo-day"
	ScenarioOpenShifts     = "open-shifts"
	ScenarioDemoAttendance = "demo-attendance"
)

var scenarios = []ScenarioDTO{
	{
		ID:          ScenarioDemoDay,
		Name:        "Demo Day",
		Description: "Default template rostered with the demo staff",
	},
	{
		ID:          ScenarioOpenShifts,
		Name:        "Open Shifts",
		Description: "Unfilled roster with pending bids from each department",
	},
	{
		ID:          ScenarioDemoAttendance,
		Name:        "Demo Attendance",
		Description: "Populated roster with randomized clock-ins, swaps and no-shows",
	},
}

// bidsPerScenario caps how many open shifts receive bids.
const bidsPerScenario = 4

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Load(r.Context(), req); err != nil {
		writeServiceError(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// Load runs a scenario by id. It is also used by the seed command.
func (h *Handler) Load(ctx context.Context, req LoadScenarioRequest) error {
	if req.Date == "" {
		req.Date = time.Now().Format(schedule.DateLayout)
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return err
	}
	if req.Seed == 0 {
		req.Seed = 1
	}

	var load func(context.Context, string, uint64) error
	switch req.ScenarioID {
	case ScenarioDemoDay:
		load = h.loadDemoDay
	case ScenarioOpenShifts:
		load = h.loadOpenShifts
	case ScenarioDemoAttendance:
		load = h.loadDemoAttendance
	default:
		return &schedule.ValidationError{Field: "scenario_id", Message: "unknown scenario " + fmt.Sprintf("%q", req.ScenarioID)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Reset != nil {
		if err := h.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	h.currentScenario = ""

	if err := load(ctx, date, req.Seed); err != nil {
		return err
	}
	h.currentScenario = req.ScenarioID
	h.log.Info("scenario loaded", zap.String("scenario", req.ScenarioID), zap.String("date", date))
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedReferenceData saves the demo directory and the default template.
func (h *Handler) seedReferenceData(ctx context.Context) error {
	for _, e := range factory.DemoEmployees() {
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return fmt.Errorf("employee %s: %w", e.ID, err)
		}
	}
	t := factory.DefaultTemplate()
	t.ID = factory.DefaultTemplateID
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	if err := h.Store.SaveTemplate(ctx, t); err != nil {
		return fmt.Errorf("default template: %w", err)
	}
	return nil
}

func (h *Handler) loadDemoDay(ctx context.Context, date string, _ uint64) error {
	if err := h.seedReferenceData(ctx); err != nil {
		return err
	}
	_, err := h.Rosters.CreateRoster(ctx, roster.CreateRosterInput{
		Date:       date,
		TemplateID: factory.DefaultTemplateID,
		Populate:   true,
	})
	return err
}

func (h *Handler) loadOpenShifts(ctx context.Context, date string, _ uint64) error {
	if err := h.seedReferenceData(ctx); err != nil {
		return err
	}
	if _, err := h.Rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: date, TemplateID: factory.DefaultTemplateID}); err != nil {
		return err
	}

	open, err := h.Rosters.ListOpenShifts(ctx, date)
	if err != nil {
		return err
	}
	for i, ref := range open {
		if i == bidsPerScenario {
			break
		}
		staff, err := h.Store.EmployeesByDepartment(ctx, ref.Group)
		if err != nil {
			return err
		}
		for _, e := range staff {
			if _, err := h.Bids.CreateBid(ctx, bids.NewBidInput{EmployeeID: e.ID, ShiftID: ref.Shift.ID}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Handler) loadDemoAttendance(ctx context.Context, date string, seed uint64) error {
	if err := h.loadDemoDay(ctx, date, seed); err != nil {
		return err
	}
	r, err := h.Rosters.GetRoster(ctx, date)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	ts := roster.GenerateDemoTimesheet(r, rng, h.rates, time.Now().UTC())
	return h.Store.SaveTimesheet(ctx, ts)
}
