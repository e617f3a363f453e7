/*
Package schedule provides the core scheduling hierarchy for the rostering engine.

PURPOSE:
  Models work schedules as a tree of departments, sub-teams and individual
  shifts. The same tree shape is shared by three aggregates:

    Template  - reusable, employee-agnostic shift pattern
    Roster    - dated instantiation of a Template, one per calendar date
    Timesheet - dated attendance record derived from a Roster

  Each aggregate owns its own copy of the tree. Copies are taken with the
  explicit Clone methods in clone.go, never by sharing slices, so editing a
  Roster can never leak back into the Template it came from.

HIERARCHY:
  Template/Roster/Timesheet
    └── Group     (department, id unique within the aggregate)
          └── SubGroup  (sub-team, id unique within the Group)
                └── Shift     (staffing slot, id unique within the SubGroup)

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: reference data, looked up by id, never owned by a Shift
  - Shift / SubGroup / Group: the tree nodes
  - Template / Roster / Timesheet: the aggregates
  - Bid: an employee's interest in an open shift

SEE ALSO:
  - hierarchy.go: add/update/delete/clone on the tree
  - clock.go: "HH:MM" parsing and arithmetic
  - store.go: persistence contract
*/
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// RemunerationLevel is the pay tier of a shift and the tier of an employee.
type RemunerationLevel string

const (
	LevelGold   RemunerationLevel = "GOLD"
	LevelSilver RemunerationLevel = "SILVER"
	LevelBronze RemunerationLevel = "BRONZE"
)

func (l RemunerationLevel) Valid() bool {
	switch l {
	case LevelGold, LevelSilver, LevelBronze:
		return true
	}
	return false
}

// Departments is the fixed set of names a Group may carry.
var Departments = []string{
	"Convention Centre",
	"Exhibition Centre",
	"Theatre",
	"Event Services",
	"Food & Beverage",
}

// IsDepartment reports whether name is one of Departments.
func IsDepartment(name string) bool {
	for _, d := range Departments {
		if d == name {
			return true
		}
	}
	return false
}

// Color is presentation only.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorPurple Color = "purple"
	ColorOrange Color = "orange"
	ColorTeal   Color = "teal"
)

func (c Color) Valid() bool {
	switch c {
	case ColorBlue, ColorGreen, ColorRed, ColorPurple, ColorOrange, ColorTeal:
		return true
	}
	return false
}

// ShiftStatus is the lifecycle state of an assigned shift.
//
//	Assigned ⇄ Swapped → Completed
//	Assigned|Swapped → Cancelled
//	Assigned|Swapped → No-Show
type ShiftStatus string

const (
	ShiftAssigned  ShiftStatus = "Assigned"
	ShiftCompleted ShiftStatus = "Completed"
	ShiftCancelled ShiftStatus = "Cancelled"
	ShiftSwapped   ShiftStatus = "Swapped"
	ShiftNoShow    ShiftStatus = "No-Show"
)

func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftAssigned, ShiftCompleted, ShiftCancelled, ShiftSwapped, ShiftNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no transition out of s is exposed.
func (s ShiftStatus) IsTerminal() bool {
	return s == ShiftCompleted || s == ShiftCancelled || s == ShiftNoShow
}

// IsActive reports whether s still allows attendance transitions.
func (s ShiftStatus) IsActive() bool {
	return s == ShiftAssigned || s == ShiftSwapped
}

type RosterStatus string

const (
	RosterDraft     RosterStatus = "draft"
	RosterPublished RosterStatus = "published"
)

type TimesheetStatus string

const (
	TimesheetPending  TimesheetStatus = "pending"
	TimesheetResolved TimesheetStatus = "resolved"
)

type BidStatus string

const (
	BidPending   BidStatus = "Pending"
	BidApproved  BidStatus = "Approved"
	BidRejected  BidStatus = "Rejected"
	BidConfirmed BidStatus = "Confirmed"
)

func (s BidStatus) Valid() bool {
	switch s {
	case BidPending, BidApproved, BidRejected, BidConfirmed:
		return true
	}
	return false
}

// HoldsShift reports whether a bid in this status occupies its shift.
func (s BidStatus) HoldsShift() bool {
	return s == BidApproved || s == BidConfirmed
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// Employee is immutable reference data for scheduling.
type Employee struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Department string            `json:"department"`
	Role       string            `json:"role"`
	Tier       RemunerationLevel `json:"tier"`

	// Level is the 1-5 qualification level used when ranking bidders.
	Level int `json:"level"`
}

// =============================================================================
// HIERARCHY NODES
// =============================================================================

// Shift is a single staffing slot. Times are "HH:MM" strings.
// Empty EmployeeID means the shift is open; empty Status means it has
// not been assigned yet.
type Shift struct {
	ID                string            `json:"id"`
	Role              string            `json:"role"`
	StartTime         string            `json:"startTime"`
	EndTime           string            `json:"endTime"`
	BreakMinutes      int               `json:"breakDuration"`
	RemunerationLevel RemunerationLevel `json:"remunerationLevel"`
	EmployeeID        string            `json:"employeeId,omitempty"`
	Status            ShiftStatus       `json:"status,omitempty"`
	ActualStartTime   string            `json:"actualStartTime,omitempty"`
	ActualEndTime     string            `json:"actualEndTime,omitempty"`
	Notes             string            `json:"notes,omitempty"`
}

// IsOpen reports whether nobody is assigned to the shift.
func (s Shift) IsOpen() bool { return s.EmployeeID == "" }

type SubGroup struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Shifts []Shift `json:"shifts"`
}

type Group struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Color     Color      `json:"color"`
	SubGroups []SubGroup `json:"subGroups"`
}

// =============================================================================
// AGGREGATES
// =============================================================================

// Template never carries employee assignments.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Groups      []Group   `json:"groups"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Roster is the schedule for one calendar date. Date is "YYYY-MM-DD".
type Roster struct {
	ID         string       `json:"id"`
	Date       string       `json:"date"`
	TemplateID string       `json:"templateId"`
	Status     RosterStatus `json:"status"`
	Groups     []Group      `json:"groups"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Timesheet records actual attendance for one date.
type Timesheet struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"`
	RosterID   string          `json:"rosterId"`
	Groups     []Group         `json:"groups"`
	TotalHours decimal.Decimal `json:"totalHours"`
	TotalPay   decimal.Decimal `json:"totalPay"`
	Status     TimesheetStatus `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// =============================================================================
// BIDS
// =============================================================================

type Bid struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	ShiftID    string    `json:"shiftId"`
	Status     BidStatus `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BidFilter selects bids. Zero fields match everything.
type BidFilter struct {
	ShiftID    string
	EmployeeID string
	Status     BidStatus
}

func (f BidFilter) Match(b Bid) bool {
	if f.ShiftID != "" && b.ShiftID != f.ShiftID {
		return false
	}
	if f.EmployeeID != "" && b.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

// =============================================================================
// DATES
// =============================================================================

// DateLayout is the canonical calendar-date key for rosters and timesheets.
const DateLayout = "2006-01-02"

// ParseDate validates and normalizes a calendar date.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", &ValidationError{Field: "date", Message: "expected YYYY-MM-DD, got " + quote(s)}
	}
	return t.Format(DateLayout), nil
}
