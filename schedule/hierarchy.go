/*
hierarchy.go - Add/update/delete/clone on the Group → SubGroup → Shift tree

PURPOSE:
  One mutation engine shared by Templates, Rosters and Timesheets. Services
  never edit a stored tree directly; they follow copy-then-persist:

    1. fetch the current aggregate
    2. deep copy it (clone.go)
    3. Edit(&copy.Groups, ...) and locate the target by id chain
    4. mutate the copy
    5. persist the copy and return it

  A failure anywhere in steps 3-4 leaves the stored original untouched.

ID RULES:
  Group and SubGroup ids are integers: max(existing ids, 0) + 1.
  Shift ids are strings minted by a ShiftIDFunc: templates number them like
  the other levels (SequentialShiftIDs), rosters use UUIDs (UniqueShiftIDs)
  so a bid can address a roster shift without knowing its path.

CLONE:
  Cloning a Group or SubGroup re-assigns every descendant id, not only the
  top-level one, so the copy never shares an id with its source. Cloned
  shifts come out unassigned.
*/
package schedule

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// ID GENERATION
// =============================================================================

// ShiftIDFunc mints the id for a shift appended after existing.
type ShiftIDFunc func(existing []Shift) string

// SequentialShiftIDs numbers shifts like groups: highest numeric id + 1.
// Non-numeric ids are ignored when looking for the maximum.
func SequentialShiftIDs(existing []Shift) string {
	max := 0
	for _, s := range existing {
		if n, err := strconv.Atoi(s.ID); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// UniqueShiftIDs mints a random UUID, unique across every roster.
func UniqueShiftIDs(_ []Shift) string { return uuid.NewString() }

func nextGroupID(groups []Group) int {
	max := 0
	for _, g := range groups {
		if g.ID > max {
			max = g.ID
		}
	}
	return max + 1
}

func nextSubGroupID(subs []SubGroup) int {
	max := 0
	for _, sg := range subs {
		if sg.ID > max {
			max = sg.ID
		}
	}
	return max + 1
}

// =============================================================================
// INPUT PAYLOADS
// =============================================================================

type NewGroupInput struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

func (in NewGroupInput) Validate() error {
	if !IsDepartment(in.Name) {
		return &ValidationError{Field: "name", Message: "unknown department " + quote(in.Name)}
	}
	if in.Color != "" && !in.Color.Valid() {
		return &ValidationError{Field: "color", Message: "unknown color " + quote(string(in.Color))}
	}
	return nil
}

// GroupPatch is merged shallowly; nil fields are left alone.
type GroupPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *Color  `json:"color,omitempty"`
}

func (p GroupPatch) Validate() error {
	if p.Name != nil && !IsDepartment(*p.Name) {
		return &ValidationError{Field: "name", Message: "unknown department " + quote(*p.Name)}
	}
	if p.Color != nil && !p.Color.Valid() {
		return &ValidationError{Field: "color", Message: "unknown color " + quote(string(*p.Color))}
	}
	return nil
}

type NewSubGroupInput struct {
	Name string `json:"name"`
}

func (in NewSubGroupInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}

type SubGroupPatch struct {
	Name *string `json:"name,omitempty"`
}

func (p SubGroupPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}

// NewShiftInput describes a shift to append. EndTime may be left empty when
// DurationHours is set; it is then derived from StartTime.
type NewShiftInput struct {
	Role              string            `json:"role"`
	StartTime         string            `json:"startTime"`
	EndTime           string            `json:"endTime"`
	DurationHours     float64           `json:"durationHours,omitempty"`
	BreakMinutes      int               `json:"breakDuration"`
	RemunerationLevel RemunerationLevel `json:"remunerationLevel"`
	EmployeeID        string            `json:"employeeId,omitempty"`
	Notes             string            `json:"notes,omitempty"`
}

func (in NewShiftInput) Validate() error {
	if strings.TrimSpace(in.Role) == "" {
		return &ValidationError{Field: "role", Message: "is required"}
	}
	if _, err := ParseTime(in.StartTime); err != nil {
		return err
	}
	if in.EndTime == "" && in.DurationHours <= 0 {
		return &ValidationError{Field: "endTime", Message: "endTime or durationHours is required"}
	}
	if in.EndTime != "" {
		if _, err := ParseTime(in.EndTime); err != nil {
			return err
		}
	}
	if in.BreakMinutes < 0 {
		return &ValidationError{Field: "breakDuration", Message: "must not be negative"}
	}
	if !in.RemunerationLevel.Valid() {
		return &ValidationError{Field: "remunerationLevel", Message: "unknown level " + quote(string(in.RemunerationLevel))}
	}
	return nil
}

func (in NewShiftInput) toShift(id string) Shift {
	end := in.EndTime
	if end == "" {
		end = ComputeEndTime(in.StartTime, in.DurationHours)
	}
	sh := Shift{
		ID:                id,
		Role:              in.Role,
		StartTime:         in.StartTime,
		EndTime:           end,
		BreakMinutes:      in.BreakMinutes,
		RemunerationLevel: in.RemunerationLevel,
		EmployeeID:        in.EmployeeID,
		Notes:             in.Notes,
	}
	if sh.EmployeeID != "" {
		sh.Status = ShiftAssigned
	}
	return sh
}

// ShiftPatch is merged shallowly onto an existing shift.
type ShiftPatch struct {
	Role              *string            `json:"role,omitempty"`
	StartTime         *string            `json:"startTime,omitempty"`
	EndTime           *string            `json:"endTime,omitempty"`
	BreakMinutes      *int               `json:"breakDuration,omitempty"`
	RemunerationLevel *RemunerationLevel `json:"remunerationLevel,omitempty"`
	EmployeeID        *string            `json:"employeeId,omitempty"`
	Status            *ShiftStatus       `json:"status,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
}

func (p ShiftPatch) Validate() error {
	if p.Role != nil && strings.TrimSpace(*p.Role) == "" {
		return &ValidationError{Field: "role", Message: "is required"}
	}
	for _, t := range []*string{p.StartTime, p.EndTime} {
		if t != nil {
			if _, err := ParseTime(*t); err != nil {
				return err
			}
		}
	}
	if p.BreakMinutes != nil && *p.BreakMinutes < 0 {
		return &ValidationError{Field: "breakDuration", Message: "must not be negative"}
	}
	if p.RemunerationLevel != nil && !p.RemunerationLevel.Valid() {
		return &ValidationError{Field: "remunerationLevel", Message: "unknown level " + quote(string(*p.RemunerationLevel))}
	}
	if p.Status != nil && *p.Status != "" && !p.Status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown status " + quote(string(*p.Status))}
	}
	return nil
}

func (p ShiftPatch) apply(sh *Shift) {
	if p.Role != nil {
		sh.Role = *p.Role
	}
	if p.StartTime != nil {
		sh.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		sh.EndTime = *p.EndTime
	}
	if p.BreakMinutes != nil {
		sh.BreakMinutes = *p.BreakMinutes
	}
	if p.RemunerationLevel != nil {
		sh.RemunerationLevel = *p.RemunerationLevel
	}
	if p.EmployeeID != nil {
		sh.EmployeeID = *p.EmployeeID
		if sh.EmployeeID == "" {
			sh.Status = ""
		} else if sh.Status == "" {
			sh.Status = ShiftAssigned
		}
	}
	if p.Status != nil {
		sh.Status = *p.Status
	}
	if p.Notes != nil {
		sh.Notes = *p.Notes
	}
}

// =============================================================================
// HIERARCHY - Mutation engine over a (copied) tree
// =============================================================================

// Hierarchy edits a tree in place. Callers hand it a tree they own,
// normally a fresh Clone of the stored aggregate.
type Hierarchy struct {
	groups  *[]Group
	shiftID ShiftIDFunc
}

func Edit(groups *[]Group, shiftID ShiftIDFunc) *Hierarchy {
	if shiftID == nil {
		shiftID = UniqueShiftIDs
	}
	return &Hierarchy{groups: groups, shiftID: shiftID}
}

// ShiftPath addresses a shift by its id chain.
type ShiftPath struct {
	GroupID    int    `json:"groupId"`
	SubGroupID int    `json:"subGroupId"`
	ShiftID    string `json:"shiftId"`
}

// ShiftRef is a roster shift resolved from its id alone.
type ShiftRef struct {
	Date     string    `json:"date"`
	Path     ShiftPath `json:"path"`
	Group    string    `json:"group"`
	SubGroup string    `json:"subGroup"`
	Shift    Shift     `json:"shift"`
}

// --- lookup ---

func (h *Hierarchy) Group(id int) (*Group, error) {
	groups := *h.groups
	for i := range groups {
		if groups[i].ID == id {
			return &groups[i], nil
		}
	}
	return nil, notFound("group", id)
}

func (h *Hierarchy) SubGroup(groupID, subGroupID int) (*SubGroup, error) {
	g, err := h.Group(groupID)
	if err != nil {
		return nil, err
	}
	for i := range g.SubGroups {
		if g.SubGroups[i].ID == subGroupID {
			return &g.SubGroups[i], nil
		}
	}
	return nil, notFound("subgroup", subGroupID)
}

func (h *Hierarchy) Shift(p ShiftPath) (*Shift, error) {
	sg, err := h.SubGroup(p.GroupID, p.SubGroupID)
	if err != nil {
		return nil, err
	}
	for i := range sg.Shifts {
		if sg.Shifts[i].ID == p.ShiftID {
			return &sg.Shifts[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "shift", ID: p.ShiftID}
}

// FindShift searches the whole tree for a shift id.
func (h *Hierarchy) FindShift(shiftID string) (ShiftPath, *Shift, bool) {
	groups := *h.groups
	for gi := range groups {
		for si := range groups[gi].SubGroups {
			sg := &groups[gi].SubGroups[si]
			for i := range sg.Shifts {
				if sg.Shifts[i].ID == shiftID {
					return ShiftPath{GroupID: groups[gi].ID, SubGroupID: sg.ID, ShiftID: shiftID}, &sg.Shifts[i], true
				}
			}
		}
	}
	return ShiftPath{}, nil, false
}

// Walk visits every shift in display order.
func (h *Hierarchy) Walk(fn func(g *Group, sg *SubGroup, sh *Shift)) {
	groups := *h.groups
	for gi := range groups {
		for si := range groups[gi].SubGroups {
			sg := &groups[gi].SubGroups[si]
			for i := range sg.Shifts {
				fn(&groups[gi], sg, &sg.Shifts[i])
			}
		}
	}
}

// --- groups ---

func (h *Hierarchy) AddGroup(in NewGroupInput) (Group, error) {
	if err := in.Validate(); err != nil {
		return Group{}, err
	}
	color := in.Color
	if color == "" {
		color = ColorBlue
	}
	g := Group{ID: nextGroupID(*h.groups), Name: in.Name, Color: color, SubGroups: []SubGroup{}}
	*h.groups = append(*h.groups, g)
	return g, nil
}

func (h *Hierarchy) UpdateGroup(id int, p GroupPatch) (Group, error) {
	if err := p.Validate(); err != nil {
		return Group{}, err
	}
	g, err := h.Group(id)
	if err != nil {
		return Group{}, err
	}
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Color != nil {
		g.Color = *p.Color
	}
	return g.Clone(), nil
}

// DeleteGroup removes the group with everything it owns.
func (h *Hierarchy) DeleteGroup(id int) error {
	groups := *h.groups
	for i := range groups {
		if groups[i].ID == id {
			*h.groups = append(groups[:i:i], groups[i+1:]...)
			return nil
		}
	}
	return notFound("group", id)
}

func (h *Hierarchy) CloneGroup(id int) (Group, error) {
	src, err := h.Group(id)
	if err != nil {
		return Group{}, err
	}
	g := src.Clone()
	g.ID = nextGroupID(*h.groups)
	g.Name += " (Copy)"
	for i := range g.SubGroups {
		g.SubGroups[i].ID = i + 1
		h.rekeyShifts(&g.SubGroups[i])
	}
	*h.groups = append(*h.groups, g)
	return g.Clone(), nil
}

// --- sub-groups ---

func (h *Hierarchy) AddSubGroup(groupID int, in NewSubGroupInput) (SubGroup, error) {
	if err := in.Validate(); err != nil {
		return SubGroup{}, err
	}
	g, err := h.Group(groupID)
	if err != nil {
		return SubGroup{}, err
	}
	sg := SubGroup{ID: nextSubGroupID(g.SubGroups), Name: in.Name, Shifts: []Shift{}}
	g.SubGroups = append(g.SubGroups, sg)
	return sg, nil
}

func (h *Hierarchy) UpdateSubGroup(groupID, subGroupID int, p SubGroupPatch) (SubGroup, error) {
	if err := p.Validate(); err != nil {
		return SubGroup{}, err
	}
	sg, err := h.SubGroup(groupID, subGroupID)
	if err != nil {
		return SubGroup{}, err
	}
	if p.Name != nil {
		sg.Name = *p.Name
	}
	return sg.Clone(), nil
}

func (h *Hierarchy) DeleteSubGroup(groupID, subGroupID int) error {
	g, err := h.Group(groupID)
	if err != nil {
		return err
	}
	for i := range g.SubGroups {
		if g.SubGroups[i].ID == subGroupID {
			g.SubGroups = append(g.SubGroups[:i:i], g.SubGroups[i+1:]...)
			return nil
		}
	}
	return notFound("subgroup", subGroupID)
}

func (h *Hierarchy) CloneSubGroup(groupID, subGroupID int) (SubGroup, error) {
	g, err := h.Group(groupID)
	if err != nil {
		return SubGroup{}, err
	}
	src, err := h.SubGroup(groupID, subGroupID)
	if err != nil {
		return SubGroup{}, err
	}
	sg := src.Clone()
	sg.ID = nextSubGroupID(g.SubGroups)
	sg.Name += " (Copy)"
	h.rekeyShifts(&sg)
	g.SubGroups = append(g.SubGroups, sg)
	return sg.Clone(), nil
}

// --- shifts ---

func (h *Hierarchy) AddShift(groupID, subGroupID int, in NewShiftInput) (Shift, error) {
	if err := in.Validate(); err != nil {
		return Shift{}, err
	}
	sg, err := h.SubGroup(groupID, subGroupID)
	if err != nil {
		return Shift{}, err
	}
	sh := in.toShift(h.shiftID(sg.Shifts))
	sg.Shifts = append(sg.Shifts, sh)
	return sh, nil
}

func (h *Hierarchy) UpdateShift(p ShiftPath, patch ShiftPatch) (Shift, error) {
	if err := patch.Validate(); err != nil {
		return Shift{}, err
	}
	sh, err := h.Shift(p)
	if err != nil {
		return Shift{}, err
	}
	patch.apply(sh)
	return *sh, nil
}

func (h *Hierarchy) DeleteShift(p ShiftPath) error {
	sg, err := h.SubGroup(p.GroupID, p.SubGroupID)
	if err != nil {
		return err
	}
	for i := range sg.Shifts {
		if sg.Shifts[i].ID == p.ShiftID {
			sg.Shifts = append(sg.Shifts[:i:i], sg.Shifts[i+1:]...)
			return nil
		}
	}
	return &NotFoundError{Kind: "shift", ID: p.ShiftID}
}

// CloneShift appends an unassigned copy of the shift as its sibling.
// Shifts carry no name, so there is nothing to suffix.
func (h *Hierarchy) CloneShift(p ShiftPath) (Shift, error) {
	src, err := h.Shift(p)
	if err != nil {
		return Shift{}, err
	}
	sh := Shift{
		Role:              src.Role,
		StartTime:         src.StartTime,
		EndTime:           src.EndTime,
		BreakMinutes:      src.BreakMinutes,
		RemunerationLevel: src.RemunerationLevel,
		Notes:             src.Notes,
	}
	sg, _ := h.SubGroup(p.GroupID, p.SubGroupID)
	sh.ID = h.shiftID(sg.Shifts)
	sg.Shifts = append(sg.Shifts, sh)
	return sh, nil
}

// rekeyShifts gives every shift of a freshly cloned sub-group a new id and
// drops its assignment, so a clone never double-books an employee.
func (h *Hierarchy) rekeyShifts(sg *SubGroup) {
	for i := range sg.Shifts {
		sh := &sg.Shifts[i]
		sh.ID = h.shiftID(sg.Shifts[:i])
		sh.EmployeeID = ""
		sh.Status = ""
		sh.ActualStartTime = ""
		sh.ActualEndTime = ""
	}
}
