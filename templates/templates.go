/*
Package templates manages reusable, employee-agnostic shift patterns.

PURPOSE:
  CRUD on Templates plus the twelve hierarchy mutations (add / update /
  delete / clone on Group, SubGroup and Shift). Every hierarchy mutation
  follows copy-then-persist and returns the whole updated Template, so the
  caller can re-render without a second fetch.

ID RULES:
  Template ids are UUIDs. Inside a template, shift ids are numbered like
  groups and sub-groups (schedule.SequentialShiftIDs); rosters re-key them
  when they are generated.

ASSIGNMENTS:
  Templates never carry employee assignments. Shift inputs that name an
  employee are rejected.

SEE ALSO:
  - schedule/hierarchy.go: the mutation engine
  - roster/roster.go: instantiates a Template for a date
*/
package templates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

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
	return &Service{store: store, log: log.Named("templates"), now: time.Now}
}

// =============================================================================
// INPUTS
// =============================================================================

type NewTemplateInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Groups      []schedule.Group `json:"groups,omitempty"`
}

func (in NewTemplateInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &schedule.ValidationError{Field: "name", Message: "is required"}
	}
	return validateGroups(in.Groups)
}

// TemplatePatch updates template metadata. The hierarchy is edited through
// the group/sub-group/shift operations.
type TemplatePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p TemplatePatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &schedule.ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}

// validateGroups checks an imported hierarchy against the same rules the
// mutation engine applies one node at a time.
func validateGroups(groups []schedule.Group) error {
	gids := map[int]bool{}
	for _, g := range groups {
		if gids[g.ID] {
			return &schedule.ValidationError{Field: "groups", Message: "duplicate group id"}
		}
		gids[g.ID] = true
		if err := (schedule.NewGroupInput{Name: g.Name, Color: g.Color}).Validate(); err != nil {
			return err
		}
		sids := map[int]bool{}
		for _, sg := range g.SubGroups {
			if sids[sg.ID] {
				return &schedule.ValidationError{Field: "subGroups", Message: "duplicate sub-group id in " + g.Name}
			}
			sids[sg.ID] = true
			if err := (schedule.NewSubGroupInput{Name: sg.Name}).Validate(); err != nil {
				return err
			}
			shids := map[string]bool{}
			for _, sh := range sg.Shifts {
				if sh.ID == "" || shids[sh.ID] {
					return &schedule.ValidationError{Field: "shifts", Message: "missing or duplicate shift id in " + sg.Name}
				}
				shids[sh.ID] = true
				if err := shiftInput(sh).Validate(); err != nil {
					return err
				}
				if sh.EmployeeID != "" {
					return errAssigned
				}
			}
		}
	}
	return nil
}

func shiftInput(sh schedule.Shift) schedule.NewShiftInput {
	return schedule.NewShiftInput{
		Role:              sh.Role,
		StartTime:         sh.StartTime,
		EndTime:           sh.EndTime,
		BreakMinutes:      sh.BreakMinutes,
		RemunerationLevel: sh.RemunerationLevel,
		EmployeeID:        sh.EmployeeID,
	}
}

var errAssigned = &schedule.ValidationError{Field: "employeeId", Message: "templates never carry employee assignments"}

// =============================================================================
// TEMPLATE CRUD
// =============================================================================

func (s *Service) CreateTemplate(ctx context.Context, in NewTemplateInput) (*schedule.Template, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &schedule.Template{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Groups:      schedule.CloneGroups(in.Groups),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveTemplate(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info("template created", zap.String("template_id", t.ID), zap.String("name", t.Name))
	return t, nil
}

func (s *Service) GetTemplate(ctx context.Context, id string) (*schedule.Template, error) {
	return getTemplate(ctx, s.store, id)
}

func getTemplate(ctx context.Context, st schedule.Store, id string) (*schedule.Template, error) {
	t, err := st.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &schedule.NotFoundError{Kind: "template", ID: id}
	}
	return t, nil
}

func (s *Service) ListTemplates(ctx context.Context) ([]schedule.Template, error) {
	return s.store.ListTemplates(ctx)
}

func (s *Service) UpdateTemplate(ctx context.Context, id string, p TemplatePatch) (*schedule.Template, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.edit(ctx, id, func(t *schedule.Template) error {
		if p.Name != nil {
			t.Name = *p.Name
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		return nil
	})
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx schedule.Store) error {
		if _, err := getTemplate(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.DeleteTemplate(ctx, id); err != nil {
			return err
		}
		s.log.Info("template deleted", zap.String("template_id", id))
		return nil
	})
}

// CloneTemplate copies a template under a fresh id. Ids inside the
// hierarchy are scoped to their container, so they are kept as-is.
func (s *Service) CloneTemplate(ctx context.Context, id string) (*schedule.Template, error) {
	var out *schedule.Template
	err := s.store.WithTx(ctx, func(tx schedule.Store) error {
		src, err := getTemplate(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		cp := src.Clone()
		cp.ID = uuid.NewString()
		cp.Name += " (Copy)"
		cp.CreatedAt, cp.UpdatedAt = now, now
		if err := tx.SaveTemplate(ctx, cp); err != nil {
			return err
		}
		out = cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("template cloned", zap.String("source_id", id), zap.String("template_id", out.ID))
	return out, nil
}

// =============================================================================
// COPY-THEN-PERSIST
// =============================================================================

// edit fetches the template, applies fn to a deep copy and persists the copy.
// If fn fails the stored template is untouched.
func (s *Service) edit(ctx context.Context, id string, fn func(t *schedule.Template) error) (*schedule.Template, error) {
	var out *schedule.Template
	err := s.store.WithTx(ctx, func(tx schedule.Store) error {
		current, err := getTemplate(ctx, tx, id)
		if err != nil {
			return err
		}
		cp := current.Clone()
		if err := fn(cp); err != nil {
			return err
		}
		cp.UpdatedAt = s.now().UTC()
		if err := tx.SaveTemplate(ctx, cp); err != nil {
			return err
		}
		out = cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) mutate(ctx context.Context, id, op string, fn func(h *schedule.Hierarchy) error) (*schedule.Template, error) {
	t, err := s.edit(ctx, id, func(t *schedule.Template) error {
		return fn(schedule.Edit(&t.Groups, schedule.SequentialShiftIDs))
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("template hierarchy changed", zap.String("template_id", id), zap.String("op", op))
	return t, nil
}

// =============================================================================
// HIERARCHY MUTATIONS
// =============================================================================

// --- groups ---

func (s *Service) AddGroup(ctx context.Context, id string, in schedule.NewGroupInput) (*schedule.Template, error) {
	return s.mutate(ctx, id, "add_group", func(h *schedule.Hierarchy) error {
		_, err := h.AddGroup(in)
		return err
	})
}

func (s *Service) UpdateGroup(ctx context.Context, id string, groupID int, p schedule.GroupPatch) (*schedule.Template, error) {
	return s.mutate(ctx, id, "update_group", func(h *schedule.Hierarchy) error {
		_, err := h.UpdateGroup(groupID, p)
		return err
	})
}

func (s *Service) DeleteGroup(ctx context.Context, id string, groupID int) (*schedule.Template, error) {
	return s.mutate(ctx, id, "delete_group", func(h *schedule.Hierarchy) error {
		return h.DeleteGroup(groupID)
	})
}

func (s *Service) CloneGroup(ctx context.Context, id string, groupID int) (*schedule.Template, error) {
	return s.mutate(ctx, id, "clone_group", func(h *schedule.Hierarchy) error {
		_, err := h.CloneGroup(groupID)
		return err
	})
}

// --- sub-groups ---

func (s *Service) AddSubGroup(ctx context.Context, id string, groupID int, in schedule.NewSubGroupInput) (*schedule.Template, error) {
	return s.mutate(ctx, id, "add_subgroup", func(h *schedule.Hierarchy) error {
		_, err := h.AddSubGroup(groupID, in)
		return err
	})
}

func (s *Service) UpdateSubGroup(ctx context.Context, id string, groupID, subGroupID int, p schedule.SubGroupPatch) (*schedule.Template, error) {
	return s.mutate(ctx, id, "update_subgroup", func(h *schedule.Hierarchy) error {
		_, err := h.UpdateSubGroup(groupID, subGroupID, p)
		return err
	})
}

func (s *Service) DeleteSubGroup(ctx context.Context, id string, groupID, subGroupID int) (*schedule.Template, error) {
	return s.mutate(ctx, id, "delete_subgroup", func(h *schedule.Hierarchy) error {
		return h.DeleteSubGroup(groupID, subGroupID)
	})
}

func (s *Service) CloneSubGroup(ctx context.Context, id string, groupID, subGroupID int) (*schedule.Template, error) {
	return s.mutate(ctx, id, "clone_subgroup", func(h *schedule.Hierarchy) error {
		_, err := h.CloneSubGroup(groupID, subGroupID)
		return err
	})
}

// --- shifts ---

func (s *Service) AddShift(ctx context.Context, id string, groupID, subGroupID int, in schedule.NewShiftInput) (*schedule.Template, error) {
	if in.EmployeeID != "" {
		return nil, errAssigned
	}
	return s.mutate(ctx, id, "add_shift", func(h *schedule.Hierarchy) error {
		_, err := h.AddShift(groupID, subGroupID, in)
		return err
	})
}

func (s *Service) UpdateShift(ctx context.Context, id string, path schedule.ShiftPath, p schedule.ShiftPatch) (*schedule.Template, error) {
	if (p.EmployeeID != nil && *p.EmployeeID != "") || (p.Status != nil && *p.Status != "") {
		return nil, errAssigned
	}
	return s.mutate(ctx, id, "update_shift", func(h *schedule.Hierarchy) error {
		_, err := h.UpdateShift(path, p)
		return err
	})
}

func (s *Service) DeleteShift(ctx context.Context, id string, path schedule.ShiftPath) (*schedule.Template, error) {
	return s.mutate(ctx, id, "delete_shift", func(h *schedule.Hierarchy) error {
		return h.DeleteShift(path)
	})
}

func (s *Service) CloneShift(ctx context.Context, id string, path schedule.ShiftPath) (*schedule.Template, error) {
	return s.mutate(ctx, id, "clone_shift", func(h *schedule.Hierarchy) error {
		_, err := h.CloneShift(path)
		return err
	})
}
