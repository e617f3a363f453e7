/*
Package roster turns Templates into dated Rosters and Rosters into Timesheets.

PURPOSE:
  A Roster is the schedule for one calendar date. It is created from a
  Template by deep copy, optionally auto-populated with employees, then
  edited shift by shift. A Timesheet is derived lazily from the Roster the
  first time its date is accessed and records actual attendance.

KEY CONCEPTS:
  - Lookup-or-create: CreateRoster for a date that already has a roster
    returns that roster; there is never a second one.
  - Lenient template: an unknown template id falls back to the built-in
    default template instead of failing.
  - Roster shift ids are UUIDs, unique across every roster, so a bid can
    address a shift by id alone (LocateShift).
  - Copy-then-persist: every mutation edits a deep copy inside one store
    transaction and returns the whole updated Roster.

SEE ALSO:
  - populate.go: round-robin assignment
  - timesheet.go: derivation and clock-in/out transitions
  - schedule/hierarchy.go: the mutation engine
*/
package roster

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/factory"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

type Service struct {
	store schedule.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store schedule.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log.Named("roster"), now: time.Now}
}

// =============================================================================
// GENERATION
// =============================================================================

type CreateRosterInput struct {
	Date       string `json:"date"`
	TemplateID string `json:"template_id"`
	Populate   bool   `json:"populate"`
}

// CreateRoster returns the roster for in.Date, generating it from the
// template when the date has none yet.
func (s *Service) CreateRoster(ctx context.Context, in CreateRosterInput) (*schedule.Roster, error) {
	date, err := schedule.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	var (
		out     *schedule.Roster
		created bool
		filled  int
	)
	err = s.store.WithTx(ctx, func(tx schedule.Store) error {
		existing, err := tx.GetRosterByDate(ctx, date)
		if err != nil {
			return err
		}
		if existing != nil {
			out = existing
			return nil
		}

		r, err := s.generate(ctx, tx, date, in.TemplateID)
		if err != nil {
			return err
		}
		if in.Populate {
			if filled, err = Populate(ctx, tx, r.Groups); err != nil {
				return err
			}
		}
		if err := tx.SaveRoster(ctx, r); err != nil {
			return err
		}
		out, created = r, true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.log.Info("roster generated",
			zap.String("date", date),
			zap.String("roster_id", out.ID),
			zap.String("template_id", out.TemplateID),
			zap.Int("assigned", filled),
		)
	}
	return out, nil
}

func (s *Service) generate(ctx context.Context, tx schedule.Store, date, templateID string) (*schedule.Roster, error) {
	var tpl *schedule.Template
	if templateID != "" {
		var err error
		if tpl, err = tx.GetTemplate(ctx, templateID); err != nil {
			return nil, err
		}
	}
	if tpl == nil {
		s.log.Debug("template not found, using default", zap.String("template_id", templateID))
		tpl = factory.DefaultTemplate()
	}

	now := s.now().UTC()
	r := &schedule.Roster{
		ID:         uuid.NewString(),
		Date:       date,
		TemplateID: tpl.ID,
		Status:     schedule.RosterDraft,
		Groups:     schedule.CloneGroups(tpl.Groups),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	h := schedule.Edit(&r.Groups, schedule.UniqueShiftIDs)
	h.Walk(func(_ *schedule.Group, _ *schedule.SubGroup, sh *schedule.Shift) {
		sh.ID = uuid.NewString()
	})
	return r, nil
}

// =============================================================================
// QUERIES
// =============================================================================

func (s *Service) GetRoster(ctx context.Context, date string) (*schedule.Roster, error) {
	return getRoster(ctx, s.store, date)
}

func getRoster(ctx context.Context, st schedule.Store, date string) (*schedule.Roster, error) {
	d, err := schedule.ParseDate(date)
	if err != nil {
		return nil, err
	}
	r, err := st.GetRosterByDate(ctx, d)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &schedule.NotFoundError{Kind: "roster", ID: d}
	}
	return r, nil
}

func (s *Service) ListRosters(ctx context.Context) ([]schedule.Roster, error) {
	return s.store.ListRosters(ctx)
}

// ListOpenShifts returns the unassigned shifts of the roster for date.
func (s *Service) ListOpenShifts(ctx context.Context, date string) ([]schedule.ShiftRef, error) {
	r, err := s.GetRoster(ctx, date)
	if err != nil {
		return nil, err
	}
	out := []schedule.ShiftRef{}
	schedule.Edit(&r.Groups, nil).Walk(func(g *schedule.Group, sg *schedule.SubGroup, sh *schedule.Shift) {
		if sh.IsOpen() {
			out = append(out, ref(r.Date, g, sg, sh))
		}
	})
	return out, nil
}

// LocateShift finds the roster shift with the given id across every date.
func (s *Service) LocateShift(ctx context.Context, shiftID string) (*schedule.ShiftRef, error) {
	return locate(ctx, s.store, shiftID)
}

func locate(ctx context.Context, st schedule.Store, shiftID string) (*schedule.ShiftRef, error) {
	rosters, err := st.ListRosters(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rosters {
		r := &rosters[i]
		var found *schedule.ShiftRef
		schedule.Edit(&r.Groups, nil).Walk(func(g *schedule.Group, sg *schedule.SubGroup, sh *schedule.Shift) {
			if found == nil && sh.ID == shiftID {
				x := ref(r.Date, g, sg, sh)
				found = &x
			}
		})
		if found != nil {
			return found, nil
		}
	}
	return nil, &schedule.NotFoundError{Kind: "shift", ID: shiftID}
}

func ref(date string, g *schedule.Group, sg *schedule.SubGroup, sh *schedule.Shift) schedule.ShiftRef {
	return schedule.ShiftRef{
		Date:     date,
		Path:     schedule.ShiftPath{GroupID: g.ID, SubGroupID: sg.ID, ShiftID: sh.ID},
		Group:    g.Name,
		SubGroup: sg.Name,
		Shift:    *sh,
	}
}

// =============================================================================
// ROSTER-LEVEL MUTATIONS
// =============================================================================

func (s *Service) PublishRoster(ctx context.Context, date string) (*schedule.Roster, error) {
	r, err := s.edit(ctx, date, func(_ schedule.Store, r *schedule.Roster) error {
		r.Status = schedule.RosterPublished
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("roster published", zap.String("date", r.Date), zap.String("roster_id", r.ID))
	return r, nil
}

// AssignShift gives the roster shift identified by shiftID to employeeID.
func (s *Service) AssignShift(ctx context.Context, shiftID, employeeID string) (*schedule.Roster, error) {
	var out *schedule.Roster
	err := s.store.WithTx(ctx, func(tx schedule.Store) error {
		e, err := tx.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		if e == nil {
			return &schedule.NotFoundError{Kind: "employee", ID: employeeID}
		}
		at, err := locate(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		out, err = s.editTx(ctx, tx, at.Date, func(_ schedule.Store, r *schedule.Roster) error {
			_, err := schedule.Edit(&r.Groups, nil).UpdateShift(at.Path, schedule.ShiftPatch{EmployeeID: &employeeID})
			return err
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("shift assigned", zap.String("shift_id", shiftID), zap.String("employee_id", employeeID))
	return out, nil
}

// =============================================================================
// COPY-THEN-PERSIST
// =============================================================================

func (s *Service) edit(ctx context.Context, date string, fn func(tx schedule.Store, r *schedule.Roster) error) (*schedule.Roster, error) {
	var out *schedule.Roster
	err := s.store.WithTx(ctx, func(tx schedule.Store) error {
		var err error
		out, err = s.editTx(ctx, tx, date, fn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) editTx(ctx context.Context, tx schedule.Store, date string, fn func(tx schedule.Store, r *schedule.Roster) error) (*schedule.Roster, error) {
	current, err := getRoster(ctx, tx, date)
	if err != nil {
		return nil, err
	}
	cp := current.Clone()
	if err := fn(tx, cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = s.now().UTC()
	if err := tx.SaveRoster(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

func (s *Service) mutate(ctx context.Context, date, op string, fn func(h *schedule.Hierarchy) error) (*schedule.Roster, error) {
	r, err := s.edit(ctx, date, func(_ schedule.Store, r *schedule.Roster) error {
		return fn(schedule.Edit(&r.Groups, schedule.UniqueShiftIDs))
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("roster hierarchy changed", zap.String("date", r.Date), zap.String("op", op))
	return r, nil
}

// =============================================================================
// HIERARCHY MUTATIONS
// =============================================================================

// --- groups ---

func (s *Service) AddGroup(ctx context.Context, date string, in schedule.NewGroupInput) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "add_group", func(h *schedule.Hierarchy) error {
		_, err := h.AddGroup(in)
		return err
	})
}

func (s *Service) UpdateGroup(ctx context.Context, date string, groupID int, p schedule.GroupPatch) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "update_group", func(h *schedule.Hierarchy) error {
		_, err := h.UpdateGroup(groupID, p)
		return err
	})
}

func (s *Service) DeleteGroup(ctx context.Context, date string, groupID int) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "delete_group", func(h *schedule.Hierarchy) error {
		return h.DeleteGroup(groupID)
	})
}

func (s *Service) CloneGroup(ctx context.Context, date string, groupID int) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "clone_group", func(h *schedule.Hierarchy) error {
		_, err := h.CloneGroup(groupID)
		return err
	})
}

// --- sub-groups ---

func (s *Service) AddSubGroup(ctx context.Context, date string, groupID int, in schedule.NewSubGroupInput) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "add_subgroup", func(h *schedule.Hierarchy) error {
		_, err := h.AddSubGroup(groupID, in)
		return err
	})
}

func (s *Service) UpdateSubGroup(ctx context.Context, date string, groupID, subGroupID int, p schedule.SubGroupPatch) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "update_subgroup", func(h *schedule.Hierarchy) error {
		_, err := h.UpdateSubGroup(groupID, subGroupID, p)
		return err
	})
}

func (s *Service) DeleteSubGroup(ctx context.Context, date string, groupID, subGroupID int) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "delete_subgroup", func(h *schedule.Hierarchy) error {
		return h.DeleteSubGroup(groupID, subGroupID)
	})
}

func (s *Service) CloneSubGroup(ctx context.Context, date string, groupID, subGroupID int) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "clone_subgroup", func(h *schedule.Hierarchy) error {
		_, err := h.CloneSubGroup(groupID, subGroupID)
		return err
	})
}

// --- shifts ---

func (s *Service) AddShift(ctx context.Context, date string, groupID, subGroupID int, in schedule.NewShiftInput) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "add_shift", func(h *schedule.Hierarchy) error {
		_, err := h.AddShift(groupID, subGroupID, in)
		return err
	})
}

func (s *Service) UpdateShift(ctx context.Context, date string, path schedule.ShiftPath, p schedule.ShiftPatch) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "update_shift", func(h *schedule.Hierarchy) error {
		_, err := h.UpdateShift(path, p)
		return err
	})
}

func (s *Service) DeleteShift(ctx context.Context, date string, path schedule.ShiftPath) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "delete_shift", func(h *schedule.Hierarchy) error {
		return h.DeleteShift(path)
	})
}

func (s *Service) CloneShift(ctx context.Context, date string, path schedule.ShiftPath) (*schedule.Roster, error) {
	return s.mutate(ctx, date, "clone_shift", func(h *schedule.Hierarchy) error {
		_, err := h.CloneShift(path)
		return err
	})
}
