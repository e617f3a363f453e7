package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

func TestRosterClone_IsIndependent(t *testing.T) {
	orig := &schedule.Roster{
		ID:   "r-1",
		Date: "2025-03-01",
		Groups: []schedule.Group{{
			ID: 1, Name: "Theatre",
			SubGroups: []schedule.SubGroup{{
				ID: 1, Name: "Ushers",
				Shifts: []schedule.Shift{{ID: "a", Role: "TM1", StartTime: "18:00", EndTime: "23:00"}},
			}},
		}},
	}

	cp := orig.Clone()
	cp.Groups[0].Name = "Event Services"
	cp.Groups[0].SubGroups[0].Shifts[0].EmployeeID = "emp-1"
	cp.Groups[0].SubGroups = append(cp.Groups[0].SubGroups, schedule.SubGroup{ID: 2})

	assert.Equal(t, "Theatre", orig.Groups[0].Name)
	assert.Empty(t, orig.Groups[0].SubGroups[0].Shifts[0].EmployeeID)
	assert.Len(t, orig.Groups[0].SubGroups, 1)
}

func TestClone_NilSafe(t *testing.T) {
	var r *schedule.Roster
	var ts *schedule.Timesheet
	var tpl *schedule.Template
	assert.Nil(t, r.Clone())
	assert.Nil(t, ts.Clone())
	assert.Nil(t, tpl.Clone())
}

func TestSubGroupClone_EmptyShiftsNotNil(t *testing.T) {
	sg := schedule.SubGroup{ID: 1, Name: "AM"}
	assert.NotNil(t, sg.Clone().Shifts, "serializes as [] rather than null")
}
