package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testGroups() []schedule.Group {
	return []schedule.Group{{
		ID: 1, Name: "Convention Centre", Color: schedule.ColorGreen,
		SubGroups: []schedule.SubGroup{{
			ID: 1, Name: "AM Base",
			Shifts: []schedule.Shift{{
				ID: "s-1", Role: "TM2", StartTime: "06:30", EndTime: "14:00",
				BreakMinutes: 30, RemunerationLevel: schedule.LevelGold,
			}},
		}},
	}}
}

func TestStore_TemplateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tpl := &schedule.Template{ID: "t-1", Name: "Weekday", Groups: testGroups(), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.SaveTemplate(ctx, tpl))

	got, err := s.GetTemplate(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tpl.Groups, got.Groups)
	assert.True(t, now.Equal(got.CreatedAt))

	require.NoError(t, s.DeleteTemplate(ctx, "t-1"))
	got, err = s.GetTemplate(ctx, "t-1")
	assert.NoError(t, err)
	assert.Nil(t, got, "missing record is nil, nil")
}

func TestStore_OneRosterPerDate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := &schedule.Roster{ID: "r-1", Date: "2025-03-01", Status: schedule.RosterDraft, Groups: testGroups()}
	require.NoError(t, s.SaveRoster(ctx, r))

	r.Status = schedule.RosterPublished
	require.NoError(t, s.SaveRoster(ctx, r), "same id updates in place")

	err := s.SaveRoster(ctx, &schedule.Roster{ID: "r-2", Date: "2025-03-01", Status: schedule.RosterDraft})
	assert.ErrorIs(t, err, schedule.ErrDuplicateDate)

	got, err := s.GetRosterByDate(ctx, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, "r-1", got.ID)
	assert.Equal(t, schedule.RosterPublished, got.Status)
}

func TestStore_TimesheetTotals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts := &schedule.Timesheet{
		ID: "ts-1", Date: "2025-03-01", RosterID: "r-1", Groups: testGroups(),
		TotalHours: decimal.RequireFromString("7.05"),
		TotalPay:   decimal.RequireFromString("317.25"),
		Status:     schedule.TimesheetPending,
	}
	require.NoError(t, s.SaveTimesheet(ctx, ts))

	got, err := s.GetTimesheetByDate(ctx, "2025-03-01")
	require.NoError(t, err)
	assert.True(t, ts.TotalHours.Equal(got.TotalHours))
	assert.True(t, ts.TotalPay.Equal(got.TotalPay))

	err = s.SaveTimesheet(ctx, &schedule.Timesheet{ID: "ts-2", Date: "2025-03-01"})
	assert.ErrorIs(t, err, schedule.ErrDuplicateDate)
}

func TestStore_BidsFilterAndReject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, b := range []schedule.Bid{
		{ID: "b-1", ShiftID: "s-1", EmployeeID: "e-1", Status: schedule.BidApproved},
		{ID: "b-2", ShiftID: "s-1", EmployeeID: "e-2", Status: schedule.BidPending},
		{ID: "b-3", ShiftID: "s-2", EmployeeID: "e-2", Status: schedule.BidPending},
	} {
		b.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		b.UpdatedAt = b.CreatedAt
		require.NoError(t, s.SaveBid(ctx, &b))
	}

	byEmployee, err := s.ListBids(ctx, schedule.BidFilter{EmployeeID: "e-2"})
	require.NoError(t, err)
	require.Len(t, byEmployee, 2)
	assert.Equal(t, "b-2", byEmployee[0].ID)

	n, err := s.RejectCompetingBids(ctx, "s-1", "b-1", "Shift offered to another employee")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b2, _ := s.GetBid(ctx, "b-2")
	assert.Equal(t, schedule.BidRejected, b2.Status)
	assert.Equal(t, "Shift offered to another employee", b2.Notes)

	require.NoError(t, s.DeleteBid(ctx, "b-3"))
	b3, err := s.GetBid(ctx, "b-3")
	assert.NoError(t, err)
	assert.Nil(t, b3)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx schedule.Store) error {
		require.NoError(t, tx.SaveRoster(ctx, &schedule.Roster{ID: "r-1", Date: "2025-03-02", Status: schedule.RosterDraft}))
		got, err := tx.GetRosterByDate(ctx, "2025-03-02")
		require.NoError(t, err)
		assert.NotNil(t, got)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetRosterByDate(ctx, "2025-03-02")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_EmployeesAndReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveEmployee(ctx, schedule.Employee{ID: "e-2", Name: "Bo", Department: "Theatre", Role: "TM1", Tier: schedule.LevelBronze, Level: 2}))
	require.NoError(t, s.SaveEmployee(ctx, schedule.Employee{ID: "e-1", Name: "Al", Department: "Theatre", Role: "TM1", Tier: schedule.LevelBronze, Level: 5}))

	got, err := s.EmployeesByDepartment(ctx, "Theatre")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e-2", got[0].ID, "insertion order is rotation order")

	e, err := s.GetEmployee(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, 5, e.Level)

	require.NoError(t, s.Reset(ctx))
	all, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
