package roster

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// TIMESHEETS - Attendance derived from a roster
// =============================================================================
//
// A timesheet is derived the first time its date is accessed: the roster's
// groups are deep-copied and every assigned shift starts in Assigned with no
// actual times. From there only explicit transitions change attendance:
//
//	ClockIn    Assigned|Swapped          sets actualStartTime
//	ClockOut   clocked in, not terminal  sets actualEndTime, → Completed
//	Swap       Assigned|Swapped          new employee, → Swapped, clears actuals
//	Cancel     Assigned|Swapped          → Cancelled, reason in notes
//	NoShow     Assigned|Swapped          → No-Show
//	SetStatus  any                       manual override
//
// Totals are recomputed after every transition from Completed shifts only:
// hours = actual end - actual start - break, pay = hours × rate(level).

// PayRates is the hourly rate for each remuneration level.
type PayRates map[schedule.RemunerationLevel]decimal.Decimal

func DefaultPayRates() PayRates {
	return PayRates{
		schedule.LevelGold:   decimal.NewFromInt(45),
		schedule.LevelSilver: decimal.NewFromInt(38),
		schedule.LevelBronze: decimal.NewFromInt(32),
	}
}

type TimesheetService struct {
	store schedule.Store
	log   *zap.Logger
	rates PayRates
	now   func() time.Time
}

// NewTimesheetService uses DefaultPayRates when rates is nil.
func NewTimesheetService(store schedule.Store, log *zap.Logger, rates PayRates) *TimesheetService {
	if log == nil {
		log = zap.NewNop()
	}
	if rates == nil {
		rates = DefaultPayRates()
	}
	return &TimesheetService{store: store, log: log.Named("timesheet"), rates: rates, now: time.Now}
}

// =============================================================================
// DERIVATION
// =============================================================================

// DeriveTimesheet copies the roster into a fresh timesheet. Assigned shifts
// keep a status already set on the roster and start in Assigned otherwise;
// open shifts carry no status.
func DeriveTimesheet(r *schedule.Roster, now time.Time) *schedule.Timesheet {
	ts := &schedule.Timesheet{
		ID:         uuid.NewString(),
		Date:       r.Date,
		RosterID:   r.ID,
		Groups:     schedule.CloneGroups(r.Groups),
		TotalHours: decimal.Zero,
		TotalPay:   decimal.Zero,
		Status:     schedule.TimesheetPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	schedule.Edit(&ts.Groups, nil).Walk(func(_ *schedule.Group, _ *schedule.SubGroup, sh *schedule.Shift) {
		if sh.IsOpen() {
			sh.Status = ""
			sh.ActualStartTime, sh.ActualEndTime = "", ""
			return
		}
		if !sh.Status.Valid() {
			sh.Status = schedule.ShiftAssigned
		}
		if sh.Status != schedule.ShiftCompleted {
			sh.ActualStartTime, sh.ActualEndTime = "", ""
		}
	})
	return ts
}

var demoStatuses = []schedule.ShiftStatus{
	schedule.ShiftCompleted, schedule.ShiftCompleted, schedule.ShiftCompleted,
	schedule.ShiftAssigned, schedule.ShiftAssigned,
	schedule.ShiftSwapped,
	schedule.ShiftCancelled,
	schedule.ShiftNoShow,
}

// GenerateDemoTimesheet derives a timesheet with randomized attendance for
// demonstration data. Completed and Swapped shifts get actual times within
// ±5 minutes of the schedule. Pass a seeded rng for repeatable output.
func GenerateDemoTimesheet(r *schedule.Roster, rng *rand.Rand, rates PayRates, now time.Time) *schedule.Timesheet {
	if rates == nil {
		rates = DefaultPayRates()
	}
	ts := DeriveTimesheet(r, now)
	schedule.Edit(&ts.Groups, nil).Walk(func(_ *schedule.Group, _ *schedule.SubGroup, sh *schedule.Shift) {
		if sh.IsOpen() {
			return
		}
		sh.Status = demoStatuses[rng.IntN(len(demoStatuses))]
		if sh.Status != schedule.ShiftCompleted && sh.Status != schedule.ShiftSwapped {
			return
		}
		start, err1 := schedule.ParseTime(sh.StartTime)
		end, err2 := schedule.ParseTime(sh.EndTime)
		if err1 != nil || err2 != nil {
			return
		}
		sh.ActualStartTime = schedule.AddMinutes(start.Hour, start.Minute, rng.IntN(11)-5).String()
		sh.ActualEndTime = schedule.AddMinutes(end.Hour, end.Minute, rng.IntN(11)-5).String()
	})
	Recompute(ts, rates)
	return ts
}

// Recompute refreshes the totals and overall status of ts.
func Recompute(ts *schedule.Timesheet, rates PayRates) {
	sixty := decimal.NewFromInt(60)
	hours, pay := decimal.Zero, decimal.Zero
	assigned, terminal := 0, 0

	schedule.Edit(&ts.Groups, nil).Walk(func(_ *schedule.Group, _ *schedule.SubGroup, sh *schedule.Shift) {
		if sh.IsOpen() {
			return
		}
		assigned++
		if sh.Status.IsTerminal() {
			terminal++
		}
		if sh.Status != schedule.ShiftCompleted || sh.ActualStartTime == "" || sh.ActualEndTime == "" {
			return
		}
		mins, err := schedule.WorkedMinutes(sh.ActualStartTime, sh.ActualEndTime, sh.BreakMinutes)
		if err != nil {
			return
		}
		h := decimal.NewFromInt(int64(mins)).Div(sixty)
		hours = hours.Add(h)
		pay = pay.Add(h.Mul(rates[sh.RemunerationLevel]))
	})

	ts.TotalHours = hours.Round(2)
	ts.TotalPay = pay.Round(2)
	if assigned > 0 && assigned == terminal {
		ts.Status = schedule.TimesheetResolved
	} else {
		ts.Status = schedule.TimesheetPending
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// GetTimesheet returns the timesheet for date, deriving it from the roster
// on first access.
func (s *TimesheetService) GetTimesheet(ctx context.Context, date string) (*schedule.Timesheet, error) {
	var out *schedule.Timesheet
	err := s.store.WithTx(ctx, func(tx schedule.Store) error {
		var err error
		out, err = s.load(ctx, tx, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TimesheetService) load(ctx context.Context, tx schedule.Store, date string) (*schedule.Timesheet, error) {
	d, err := schedule.ParseDate(date)
	if err != nil {
		return nil, err
	}
	ts, err := tx.GetTimesheetByDate(ctx, d)
	if err != nil || ts != nil {
		return ts, err
	}

	r, err := tx.GetRosterByDate(ctx, d)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &schedule.NotFoundError{Kind: "roster", ID: d}
	}
	ts = DeriveTimesheet(r, s.now().UTC())
	Recompute(ts, s.rates)
	if err := tx.SaveTimesheet(ctx, ts); err != nil {
		return nil, err
	}
	s.log.Info("timesheet derived", zap.String("date", d), zap.String("roster_id", r.ID))
	return ts, nil
}

func (s *TimesheetService) ListTimesheets(ctx context.Context) ([]schedule.Timesheet, error) {
	return s.store.ListTimesheets(ctx)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func (s *TimesheetService) ClockIn(ctx context.Context, date string, path schedule.ShiftPath, at string) (*schedule.Timesheet, error) {
	c, err := schedule.ParseTime(at)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, date, path, "clock in", func(_ schedule.Store, sh *schedule.Shift) error {
		if !sh.Status.IsActive() {
			return denied(sh, "clock in")
		}
		sh.ActualStartTime = c.String()
		return nil
	})
}

func (s *TimesheetService) ClockOut(ctx context.Context, date string, path schedule.ShiftPath, at string) (*schedule.Timesheet, error) {
	c, err := schedule.ParseTime(at)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, date, path, "clock out", func(_ schedule.Store, sh *schedule.Shift) error {
		if sh.ActualStartTime == "" || sh.Status.IsTerminal() || sh.IsOpen() {
			return denied(sh, "clock out")
		}
		sh.ActualEndTime = c.String()
		sh.Status = schedule.ShiftCompleted
		return nil
	})
}

// SwapShift hands the shift to another employee. Recorded attendance
// belonged to the previous employee, so it is cleared.
func (s *TimesheetService) SwapShift(ctx context.Context, date string, path schedule.ShiftPath, employeeID string) (*schedule.Timesheet, error) {
	return s.transition(ctx, date, path, "swap", func(tx schedule.Store, sh *schedule.Shift) error {
		if !sh.Status.IsActive() {
			return denied(sh, "swap")
		}
		e, err := tx.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		if e == nil {
			return &schedule.NotFoundError{Kind: "employee", ID: employeeID}
		}
		sh.EmployeeID = e.ID
		sh.Status = schedule.ShiftSwapped
		sh.ActualStartTime, sh.ActualEndTime = "", ""
		return nil
	})
}

func (s *TimesheetService) CancelShift(ctx context.Context, date string, path schedule.ShiftPath, reason string) (*schedule.Timesheet, error) {
	return s.transition(ctx, date, path, "cancel", func(_ schedule.Store, sh *schedule.Shift) error {
		if !sh.Status.IsActive() {
			return denied(sh, "cancel")
		}
		sh.Status = schedule.ShiftCancelled
		if reason != "" {
			sh.Notes = reason
		}
		return nil
	})
}

func (s *TimesheetService) MarkNoShow(ctx context.Context, date string, path schedule.ShiftPath) (*schedule.Timesheet, error) {
	return s.transition(ctx, date, path, "mark no-show", func(_ schedule.Store, sh *schedule.Shift) error {
		if !sh.Status.IsActive() {
			return denied(sh, "mark no-show")
		}
		sh.Status = schedule.ShiftNoShow
		return nil
	})
}

// UpdateShiftStatus overrides the status for manual corrections. It has no
// precondition.
func (s *TimesheetService) UpdateShiftStatus(ctx context.Context, date string, path schedule.ShiftPath, status schedule.ShiftStatus) (*schedule.Timesheet, error) {
	if !status.Valid() {
		return nil, &schedule.ValidationError{Field: "status", Message: "unknown status " + string(status)}
	}
	return s.transition(ctx, date, path, "set status", func(_ schedule.Store, sh *schedule.Shift) error {
		sh.Status = status
		return nil
	})
}

func denied(sh *schedule.Shift, op string) error {
	return &schedule.TransitionError{ID: sh.ID, From: string(sh.Status), Op: op}
}

// transition applies fn to a copy of the addressed shift and persists the
// whole timesheet with refreshed totals.
func (s *TimesheetService) transition(ctx context.Context, date string, path schedule.ShiftPath, op string, fn func(tx schedule.Store, sh *schedule.Shift) error) (*schedule.Timesheet, error) {
	var out *schedule.Timesheet
	err := s.store.WithTx(ctx, func(tx schedule.Store) error {
		current, err := s.load(ctx, tx, date)
		if err != nil {
			return err
		}
		cp := current.Clone()
		sh, err := schedule.Edit(&cp.Groups, nil).Shift(path)
		if err != nil {
			return err
		}
		if err := fn(tx, sh); err != nil {
			return err
		}
		Recompute(cp, s.rates)
		cp.UpdatedAt = s.now().UTC()
		if err := tx.SaveTimesheet(ctx, cp); err != nil {
			return err
		}
		out = cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("shift "+op,
		zap.String("date", out.Date),
		zap.String("shift_id", path.ShiftID),
		zap.String("timesheet_status", string(out.Status)),
	)
	return out, nil
}
