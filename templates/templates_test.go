package templates_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule/store"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/templates"
)

func newService(t *testing.T) (*templates.Service, *store.Memory) {
	st := store.NewMemory()
	return templates.NewService(st, zaptest.NewLogger(t)), st
}

// seed builds Convention Centre / AM Base / one TM2 shift.
func seed(t *testing.T, svc *templates.Service) *schedule.Template {
	t.Helper()
	ctx := context.Background()

	tpl, err := svc.CreateTemplate(ctx, templates.NewTemplateInput{Name: "Weekday"})
	require.NoError(t, err)
	tpl, err = svc.AddGroup(ctx, tpl.ID, schedule.NewGroupInput{Name: "Convention Centre"})
	require.NoError(t, err)
	tpl, err = svc.AddSubGroup(ctx, tpl.ID, 1, schedule.NewSubGroupInput{Name: "AM Base"})
	require.NoError(t, err)
	tpl, err = svc.AddShift(ctx, tpl.ID, 1, 1, schedule.NewShiftInput{
		Role: "TM2", StartTime: "06:30", EndTime: "14:00", RemunerationLevel: schedule.LevelGold,
	})
	require.NoError(t, err)
	return tpl
}

func TestMutation_ReturnsWholeTemplate(t *testing.T) {
	svc, _ := newService(t)
	tpl := seed(t, svc)

	require.Len(t, tpl.Groups, 1)
	require.Len(t, tpl.Groups[0].SubGroups, 1)
	require.Len(t, tpl.Groups[0].SubGroups[0].Shifts, 1)
	assert.Equal(t, "1", tpl.Groups[0].SubGroups[0].Shifts[0].ID)
}

func TestMutation_FailureLeavesStoredTemplateUntouched(t *testing.T) {
	// GIVEN: A stored template
	// WHEN: A mutation fails partway down the id chain
	// THEN: NotFound is returned and the stored template is unchanged
	ctx := context.Background()
	svc, _ := newService(t)
	tpl := seed(t, svc)

	_, err := svc.AddShift(ctx, tpl.ID, 1, 42, schedule.NewShiftInput{
		Role: "TM1", StartTime: "09:00", EndTime: "17:00", RemunerationLevel: schedule.LevelBronze,
	})
	assert.ErrorIs(t, err, schedule.ErrNotFound)

	got, err := svc.GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.Groups, got.Groups)
}

func TestGetTemplate_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.GetTemplate(context.Background(), "missing")

	var nf *schedule.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "template", nf.Kind)
}

func TestCreateTemplate_RequiresName(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreateTemplate(context.Background(), templates.NewTemplateInput{Name: "  "})
	assert.ErrorIs(t, err, schedule.ErrValidation)
}

func TestTemplates_RejectAssignments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	tpl := seed(t, svc)

	_, err := svc.AddShift(ctx, tpl.ID, 1, 1, schedule.NewShiftInput{
		Role: "TM2", StartTime: "06:30", EndTime: "14:00", RemunerationLevel: schedule.LevelGold, EmployeeID: "e-1",
	})
	assert.ErrorIs(t, err, schedule.ErrValidation)
}

func TestCloneGroup_RegeneratesDescendantIDs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	tpl := seed(t, svc)

	tpl, err := svc.CloneGroup(ctx, tpl.ID, 1)
	require.NoError(t, err)
	require.Len(t, tpl.Groups, 2)

	clone := tpl.Groups[1]
	assert.Equal(t, 2, clone.ID)
	assert.Equal(t, "Convention Centre (Copy)", clone.Name)
	assert.Equal(t, 1, clone.SubGroups[0].ID, "sub-group ids renumbered within the new group")
}

func TestCloneTemplate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	tpl := seed(t, svc)

	cp, err := svc.CloneTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.NotEqual(t, tpl.ID, cp.ID)
	assert.Equal(t, "Weekday (Copy)", cp.Name)
	assert.Equal(t, tpl.Groups, cp.Groups)

	// Editing the copy leaves the source alone
	_, err = svc.DeleteGroup(ctx, cp.ID, 1)
	require.NoError(t, err)
	src, _ := svc.GetTemplate(ctx, tpl.ID)
	assert.Len(t, src.Groups, 1)

	all, _ := svc.ListTemplates(ctx)
	assert.Len(t, all, 2)
}

func TestUpdateAndDeleteTemplate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	tpl := seed(t, svc)

	name := "Weekend"
	got, err := svc.UpdateTemplate(ctx, tpl.ID, templates.TemplatePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Weekend", got.Name)
	assert.Len(t, got.Groups, 1, "hierarchy untouched by metadata update")

	require.NoError(t, svc.DeleteTemplate(ctx, tpl.ID))
	assert.ErrorIs(t, svc.DeleteTemplate(ctx, tpl.ID), schedule.ErrNotFound)
}

func TestShiftOperations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	tpl := seed(t, svc)
	path := schedule.ShiftPath{GroupID: 1, SubGroupID: 1, ShiftID: "1"}

	brk := 45
	tpl, err := svc.UpdateShift(ctx, tpl.ID, path, schedule.ShiftPatch{BreakMinutes: &brk})
	require.NoError(t, err)
	assert.Equal(t, 45, tpl.Groups[0].SubGroups[0].Shifts[0].BreakMinutes)

	tpl, err = svc.CloneShift(ctx, tpl.ID, path)
	require.NoError(t, err)
	assert.Len(t, tpl.Groups[0].SubGroups[0].Shifts, 2)

	tpl, err = svc.DeleteShift(ctx, tpl.ID, path)
	require.NoError(t, err)
	require.Len(t, tpl.Groups[0].SubGroups[0].Shifts, 1)
	assert.Equal(t, "2", tpl.Groups[0].SubGroups[0].Shifts[0].ID)
}

func TestSubGroupOperations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	tpl := seed(t, svc)

	name := "PM Base"
	tpl, err := svc.UpdateSubGroup(ctx, tpl.ID, 1, 1, schedule.SubGroupPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "PM Base", tpl.Groups[0].SubGroups[0].Name)

	tpl, err = svc.CloneSubGroup(ctx, tpl.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "PM Base (Copy)", tpl.Groups[0].SubGroups[1].Name)

	tpl, err = svc.DeleteSubGroup(ctx, tpl.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, tpl.Groups[0].SubGroups, 1)
	assert.Equal(t, 2, tpl.Groups[0].SubGroups[0].ID)

	color := schedule.ColorTeal
	tpl, err = svc.UpdateGroup(ctx, tpl.ID, 1, schedule.GroupPatch{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, schedule.ColorTeal, tpl.Groups[0].Color)
}
