/*
store.go - Persistence contract for the scheduling engine

PURPOSE:
  Defines the interface between the services and whatever holds the
  records. The engine treats the backend as a keyed record store; it never
  relies on storage constraints for its invariants.

KEY INTERFACES:
  Store:     templates, rosters, timesheets, bids, employees + WithTx
  Directory: read-only employee lookups used by roster population and bids

CONVENTIONS:
  - Get* returns (nil, nil) when the record does not exist. Services turn
    that into a *NotFoundError.
  - Save* is an upsert keyed by ID. SaveRoster/SaveTimesheet reject a second
    record for a date that already has one (ErrDuplicateDate).
  - Stores hand out copies. Mutating a returned value never changes the
    stored one; only Save* does.

IMPLEMENTATIONS:
  - schedule/store/memory.go: in-memory (tests, local mirror)
  - store/sqlite/sqlite.go:   SQLite
  - store/mirror/mirror.go:   remote + local fallback pair
*/
package schedule

import "context"

// =============================================================================
// STORE - Record persistence
// =============================================================================

type Store interface {
	Directory

	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, id string) (*Template, error)
	SaveTemplate(ctx context.Context, t *Template) error
	DeleteTemplate(ctx context.Context, id string) error

	ListRosters(ctx context.Context) ([]Roster, error)
	GetRoster(ctx context.Context, id string) (*Roster, error)
	GetRosterByDate(ctx context.Context, date string) (*Roster, error)
	SaveRoster(ctx context.Context, r *Roster) error

	ListTimesheets(ctx context.Context) ([]Timesheet, error)
	GetTimesheetByDate(ctx context.Context, date string) (*Timesheet, error)
	SaveTimesheet(ctx context.Context, ts *Timesheet) error

	ListBids(ctx context.Context, filter BidFilter) ([]Bid, error)
	GetBid(ctx context.Context, id string) (*Bid, error)
	SaveBid(ctx context.Context, b *Bid) error
	DeleteBid(ctx context.Context, id string) error

	// RejectCompetingBids moves every Pending bid on shiftID other than
	// keepID to Rejected with the given note. Returns how many changed.
	RejectCompetingBids(ctx context.Context, shiftID, keepID, note string) (int, error)

	SaveEmployee(ctx context.Context, e Employee) error

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the passed Store is
	// rolled back. If fn returns nil, they are committed together.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Directory is the employee lookup consumed by roster population and bids.
type Directory interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	EmployeesByDepartment(ctx context.Context, department string) ([]Employee, error)
}
