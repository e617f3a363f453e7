package roster_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/factory"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/roster"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule/store"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/templates"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type env struct {
	store      *store.Memory
	templates  *templates.Service
	rosters    *roster.Service
	timesheets *roster.TimesheetService
}

func newEnv(t *testing.T) env {
	st := store.NewMemory()
	log := zaptest.NewLogger(t)
	return env{
		store:      st,
		templates:  templates.NewService(st, log),
		rosters:    roster.NewService(st, log),
		timesheets: roster.NewTimesheetService(st, log, nil),
	}
}

// conventionTemplate is Convention Centre / AM Base / TM2 06:30-14:00 GOLD.
func conventionTemplate(t *testing.T, e env) *schedule.Template {
	t.Helper()
	ctx := context.Background()
	tpl, err := e.templates.CreateTemplate(ctx, templates.NewTemplateInput{Name: "T"})
	require.NoError(t, err)
	tpl, err = e.templates.AddGroup(ctx, tpl.ID, schedule.NewGroupInput{Name: "Convention Centre"})
	require.NoError(t, err)
	tpl, err = e.templates.AddSubGroup(ctx, tpl.ID, 1, schedule.NewSubGroupInput{Name: "AM Base"})
	require.NoError(t, err)
	tpl, err = e.templates.AddShift(ctx, tpl.ID, 1, 1, schedule.NewShiftInput{
		Role: "TM2", StartTime: "06:30", EndTime: "14:00", RemunerationLevel: schedule.LevelGold,
	})
	require.NoError(t, err)
	return tpl
}

func onlyShift(t *testing.T, groups []schedule.Group) schedule.Shift {
	t.Helper()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].SubGroups, 1)
	require.Len(t, groups[0].SubGroups[0].Shifts, 1)
	return groups[0].SubGroups[0].Shifts[0]
}

// =============================================================================
// END-TO-END
// =============================================================================

func TestEndToEnd_TemplateToCompletedShift(t *testing.T) {
	// GIVEN: Template T with one TM2 GOLD shift and matching employee E
	// WHEN: A populated roster is generated for 2025-03-01 and E clocks in/out
	// THEN: The shift is assigned to E, then Completed with both actual times
	ctx := context.Background()
	e := newEnv(t)
	tpl := conventionTemplate(t, e)
	emp := schedule.Employee{ID: "E", Name: "E", Department: "Convention Centre", Role: "TM2", Tier: schedule.LevelGold, Level: 3}
	require.NoError(t, e.store.SaveEmployee(ctx, emp))

	r, err := e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-01", TemplateID: tpl.ID, Populate: true})
	require.NoError(t, err)
	sh := onlyShift(t, r.Groups)
	assert.Equal(t, "E", sh.EmployeeID)
	assert.Equal(t, schedule.ShiftAssigned, sh.Status)

	path := schedule.ShiftPath{GroupID: 1, SubGroupID: 1, ShiftID: sh.ID}
	_, err = e.timesheets.ClockIn(ctx, "2025-03-01", path, "06:32")
	require.NoError(t, err)
	ts, err := e.timesheets.ClockOut(ctx, "2025-03-01", path, "14:05")
	require.NoError(t, err)

	got := onlyShift(t, ts.Groups)
	assert.Equal(t, schedule.ShiftCompleted, got.Status)
	assert.Equal(t, "06:32", got.ActualStartTime)
	assert.Equal(t, "14:05", got.ActualEndTime)

	// 453 minutes at the GOLD rate
	assert.True(t, decimal.RequireFromString("7.55").Equal(ts.TotalHours), ts.TotalHours.String())
	assert.True(t, decimal.RequireFromString("339.75").Equal(ts.TotalPay), ts.TotalPay.String())
	assert.Equal(t, schedule.TimesheetResolved, ts.Status)

	// Roster and template are untouched by timesheet edits
	r, _ = e.rosters.GetRoster(ctx, "2025-03-01")
	assert.Empty(t, onlyShift(t, r.Groups).ActualStartTime)
	tpl, _ = e.templates.GetTemplate(ctx, tpl.ID)
	assert.True(t, onlyShift(t, tpl.Groups).IsOpen())
}

// =============================================================================
// GENERATION
// =============================================================================

func TestCreateRoster_SingleRosterPerDate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	tpl := conventionTemplate(t, e)

	first, err := e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-01", TemplateID: tpl.ID})
	require.NoError(t, err)
	second, err := e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-01", TemplateID: "other"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, tpl.ID, second.TemplateID)
	all, _ := e.rosters.ListRosters(ctx)
	assert.Len(t, all, 1)
}

func TestCreateRoster_UnknownTemplateFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	r, err := e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-02", TemplateID: "nope"})
	require.NoError(t, err)
	assert.Equal(t, factory.DefaultTemplateID, r.TemplateID)
	assert.Equal(t, schedule.RosterDraft, r.Status)
	assert.Len(t, r.Groups, len(factory.DefaultTemplate().Groups))
}

func TestCreateRoster_RejectsBadDate(t *testing.T) {
	e := newEnv(t)
	_, err := e.rosters.CreateRoster(context.Background(), roster.CreateRosterInput{Date: "03/01/2025"})
	assert.ErrorIs(t, err, schedule.ErrValidation)
}

func TestCreateRoster_ShiftIDsUniqueAcrossRosters(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	tpl := conventionTemplate(t, e)

	a, err := e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-01", TemplateID: tpl.ID})
	require.NoError(t, err)
	b, err := e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-02", TemplateID: tpl.ID})
	require.NoError(t, err)

	assert.NotEqual(t, onlyShift(t, a.Groups).ID, onlyShift(t, b.Groups).ID)

	ref, err := e.rosters.LocateShift(ctx, onlyShift(t, b.Groups).ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", ref.Date)
	assert.Equal(t, "Convention Centre", ref.Group)
	assert.Equal(t, "AM Base", ref.SubGroup)
}

func TestRoster_IndependentFromTemplate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	tpl := conventionTemplate(t, e)

	r, err := e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-01", TemplateID: tpl.ID})
	require.NoError(t, err)
	_, err = e.rosters.DeleteGroup(ctx, r.Date, 1)
	require.NoError(t, err)

	tpl, err = e.templates.GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Len(t, tpl.Groups, 1)
}

// =============================================================================
// ROSTER OPERATIONS
// =============================================================================

func TestOpenShiftsAndAssign(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	tpl := conventionTemplate(t, e)
	require.NoError(t, e.store.SaveEmployee(ctx, schedule.Employee{ID: "e-9", Department: "Theatre", Role: "TM1", Tier: schedule.LevelBronze}))

	r, err := e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-01", TemplateID: tpl.ID})
	require.NoError(t, err)

	open, err := e.rosters.ListOpenShifts(ctx, r.Date)
	require.NoError(t, err)
	require.Len(t, open, 1)

	r, err = e.rosters.AssignShift(ctx, open[0].Shift.ID, "e-9")
	require.NoError(t, err)
	assert.Equal(t, "e-9", onlyShift(t, r.Groups).EmployeeID)
	assert.Equal(t, schedule.ShiftAssigned, onlyShift(t, r.Groups).Status)

	open, _ = e.rosters.ListOpenShifts(ctx, r.Date)
	assert.Empty(t, open)

	_, err = e.rosters.AssignShift(ctx, "missing", "e-9")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
	_, err = e.rosters.AssignShift(ctx, onlyShift(t, r.Groups).ID, "ghost")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestPublishRoster(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.rosters.PublishRoster(ctx, "2025-03-01")
	assert.ErrorIs(t, err, schedule.ErrNotFound)

	_, err = e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-01"})
	require.NoError(t, err)
	r, err := e.rosters.PublishRoster(ctx, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, schedule.RosterPublished, r.Status)
}

func TestRosterAddShift_UsesUniqueIDs(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	tpl := conventionTemplate(t, e)
	_, err := e.rosters.CreateRoster(ctx, roster.CreateRosterInput{Date: "2025-03-01", TemplateID: tpl.ID})
	require.NoError(t, err)

	r, err := e.rosters.AddShift(ctx, "2025-03-01", 1, 1, schedule.NewShiftInput{
		Role: "TM1", StartTime: "22:00", DurationHours: 4, RemunerationLevel: schedule.LevelBronze, EmployeeID: "e-1",
	})
	require.NoError(t, err)
	shifts := r.Groups[0].SubGroups[0].Shifts
	require.Len(t, shifts, 2)
	assert.NotEqual(t, shifts[0].ID, shifts[1].ID)
	assert.Len(t, shifts[1].ID, 36, "uuid")
	assert.Equal(t, "02:00", shifts[1].EndTime)
	assert.Equal(t, schedule.ShiftAssigned, shifts[1].Status)
}
