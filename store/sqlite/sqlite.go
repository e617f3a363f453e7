/*
Package sqlite provides a SQLite-backed implementation of schedule.Store.

PURPOSE:
  Durable "remote" backend for the rostering engine. Aggregates are stored
  one row each, with the Group → SubGroup → Shift tree serialized as a JSON
  column; the engine always rewrites the whole tree (copy-then-persist), so
  the tree never needs to be queried relationally.

KEY TABLES:
  templates:  reusable shift patterns
  rosters:    one row per calendar date (date UNIQUE)
  timesheets: one row per calendar date (date UNIQUE)
  bids:       employee applications for roster shifts
  employees:  staff directory

INDEXES:
  - idx_bids_shift:    competing-bid lookups during approval (hot path)
  - idx_bids_employee: applicant conflict checks
  - idx_employees_department: roster population

CONCURRENCY:
  database/sql is limited to a single open connection, so every statement
  and every transaction is serialized by the pool. This also keeps a
  ":memory:" database alive for the lifetime of the Store.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/roster.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - schedule/store.go: Interface definition
  - schedule/store/memory.go: In-memory implementation for testing
  - store/mirror/mirror.go: Pairs this store with a local fallback
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements schedule.Store using SQLite.
type Store struct {
	queries
	db *sql.DB
}

var _ schedule.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{queries: queries{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		groups_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One roster per calendar date
	CREATE TABLE IF NOT EXISTS rosters (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		template_id TEXT,
		status TEXT NOT NULL,
		groups_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One timesheet per calendar date
	CREATE TABLE IF NOT EXISTS timesheets (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		roster_id TEXT,
		status TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		total_pay TEXT NOT NULL,
		groups_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bids (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		shift_id TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bids_shift
		ON bids(shift_id, status);
	CREATE INDEX IF NOT EXISTS idx_bids_employee
		ON bids(employee_id, status);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		department TEXT NOT NULL,
		role TEXT NOT NULL,
		tier TEXT NOT NULL,
		level INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_employees_department
		ON employees(department);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store schedule.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{queries: queries{q: sqlTx}}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	queries
}

// WithTx inside a transaction joins the outer one.
func (ts *txStore) WithTx(_ context.Context, fn func(store schedule.Store) error) error {
	return fn(ts)
}

// =============================================================================
// QUERIES - Shared by Store and txStore
// =============================================================================

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	q querier
}

// --- templates ---

const templateColumns = `id, name, description, groups_json, created_at, updated_at`

func (s queries) ListTemplates(ctx context.Context) ([]schedule.Template, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+templateColumns+" FROM templates ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var out []schedule.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s queries) GetTemplate(ctx context.Context, id string) (*schedule.Template, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+templateColumns+" FROM templates WHERE id = ?", id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (s queries) SaveTemplate(ctx context.Context, t *schedule.Template) error {
	groups, err := json.Marshal(t.Groups)
	if err != nil {
		return fmt.Errorf("failed to encode template groups: %w", err)
	}

	query := `
		INSERT INTO templates (` + templateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			groups_json = excluded.groups_json,
			updated_at = excluded.updated_at
	`
	_, err = s.q.ExecContext(ctx, query,
		t.ID, t.Name, nullString(t.Description), string(groups),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

func (s queries) DeleteTemplate(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	return err
}

func scanTemplate(sc scanner) (*schedule.Template, error) {
	var (
		t                    schedule.Template
		description          sql.NullString
		groups               string
		createdAt, updatedAt string
	)
	if err := sc.Scan(&t.ID, &t.Name, &description, &groups, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Description = description.String
	if err := json.Unmarshal([]byte(groups), &t.Groups); err != nil {
		return nil, fmt.Errorf("template %s: corrupt groups: %w", t.ID, err)
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// --- rosters ---

const rosterColumns = `id, date, template_id, status, groups_json, created_at, updated_at`

func (s queries) ListRosters(ctx context.Context) ([]schedule.Roster, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+rosterColumns+" FROM rosters ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("failed to query rosters: %w", err)
	}
	defer rows.Close()

	var out []schedule.Roster
	for rows.Next() {
		r, err := scanRoster(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s queries) GetRoster(ctx context.Context, id string) (*schedule.Roster, error) {
	return s.getRoster(ctx, "id", id)
}

func (s queries) GetRosterByDate(ctx context.Context, date string) (*schedule.Roster, error) {
	return s.getRoster(ctx, "date", date)
}

func (s queries) getRoster(ctx context.Context, column, value string) (*schedule.Roster, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+rosterColumns+" FROM rosters WHERE "+column+" = ?", value)
	r, err := scanRoster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s queries) SaveRoster(ctx context.Context, r *schedule.Roster) error {
	groups, err := json.Marshal(r.Groups)
	if err != nil {
		return fmt.Errorf("failed to encode roster groups: %w", err)
	}

	query := `
		INSERT INTO rosters (` + rosterColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			template_id = excluded.template_id,
			status = excluded.status,
			groups_json = excluded.groups_json,
			updated_at = excluded.updated_at
	`
	_, err = s.q.ExecContext(ctx, query,
		r.ID, r.Date, nullString(r.TemplateID), r.Status, string(groups),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("roster for %s: %w", r.Date, schedule.ErrDuplicateDate)
		}
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

func scanRoster(sc scanner) (*schedule.Roster, error) {
	var (
		r                    schedule.Roster
		templateID           sql.NullString
		groups               string
		createdAt, updatedAt string
	)
	if err := sc.Scan(&r.ID, &r.Date, &templateID, &r.Status, &groups, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.TemplateID = templateID.String
	if err := json.Unmarshal([]byte(groups), &r.Groups); err != nil {
		return nil, fmt.Errorf("roster %s: corrupt groups: %w", r.ID, err)
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// --- timesheets ---

const timesheetColumns = `id, date, roster_id, status, total_hours, total_pay, groups_json, created_at, updated_at`

func (s queries) ListTimesheets(ctx context.Context) ([]schedule.Timesheet, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+timesheetColumns+" FROM timesheets ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheets: %w", err)
	}
	defer rows.Close()

	var out []schedule.Timesheet
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ts)
	}
	return out, rows.Err()
}

func (s queries) GetTimesheetByDate(ctx context.Context, date string) (*schedule.Timesheet, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+timesheetColumns+" FROM timesheets WHERE date = ?", date)
	ts, err := scanTimesheet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ts, err
}

func (s queries) SaveTimesheet(ctx context.Context, ts *schedule.Timesheet) error {
	groups, err := json.Marshal(ts.Groups)
	if err != nil {
		return fmt.Errorf("failed to encode timesheet groups: %w", err)
	}

	query := `
		INSERT INTO timesheets (` + timesheetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			roster_id = excluded.roster_id,
			status = excluded.status,
			total_hours = excluded.total_hours,
			total_pay = excluded.total_pay,
			groups_json = excluded.groups_json,
			updated_at = excluded.updated_at
	`
	_, err = s.q.ExecContext(ctx, query,
		ts.ID, ts.Date, nullString(ts.RosterID), ts.Status,
		ts.TotalHours.String(), ts.TotalPay.String(), string(groups),
		formatTime(ts.CreatedAt), formatTime(ts.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("timesheet for %s: %w", ts.Date, schedule.ErrDuplicateDate)
		}
		return fmt.Errorf("failed to save timesheet: %w", err)
	}
	return nil
}

func scanTimesheet(sc scanner) (*schedule.Timesheet, error) {
	var (
		ts                   schedule.Timesheet
		rosterID             sql.NullString
		hours, pay           string
		groups               string
		createdAt, updatedAt string
	)
	err := sc.Scan(&ts.ID, &ts.Date, &rosterID, &ts.Status, &hours, &pay, &groups, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	ts.RosterID = rosterID.String
	ts.TotalHours = parseDecimal(hours)
	ts.TotalPay = parseDecimal(pay)
	if err := json.Unmarshal([]byte(groups), &ts.Groups); err != nil {
		return nil, fmt.Errorf("timesheet %s: corrupt groups: %w", ts.ID, err)
	}
	ts.CreatedAt = parseTime(createdAt)
	ts.UpdatedAt = parseTime(updatedAt)
	return &ts, nil
}

// --- bids ---

const bidColumns = `id, employee_id, shift_id, status, notes, created_at, updated_at`

func (s queries) ListBids(ctx context.Context, f schedule.BidFilter) ([]schedule.Bid, error) {
	query := "SELECT " + bidColumns + " FROM bids WHERE 1 = 1"
	var args []any
	if f.ShiftID != "" {
		query += " AND shift_id = ?"
		args = append(args, f.ShiftID)
	}
	if f.EmployeeID != "" {
		query += " AND employee_id = ?"
		args = append(args, f.EmployeeID)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY created_at, rowid"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var out []schedule.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s queries) GetBid(ctx context.Context, id string) (*schedule.Bid, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+bidColumns+" FROM bids WHERE id = ?", id)
	b, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (s queries) SaveBid(ctx context.Context, b *schedule.Bid) error {
	query := `
		INSERT INTO bids (` + bidColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	_, err := s.q.ExecContext(ctx, query,
		b.ID, b.EmployeeID, b.ShiftID, b.Status, nullString(b.Notes),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save bid: %w", err)
	}
	return nil
}

func (s queries) DeleteBid(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM bids WHERE id = ?", id)
	return err
}

func (s queries) RejectCompetingBids(ctx context.Context, shiftID, keepID, note string) (int, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE bids SET status = ?, notes = ?, updated_at = ?
		WHERE shift_id = ? AND id <> ? AND status = ?`,
		schedule.BidRejected, note, formatTime(time.Now()),
		shiftID, keepID, schedule.BidPending,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reject competing bids: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanBid(sc scanner) (*schedule.Bid, error) {
	var (
		b                    schedule.Bid
		notes                sql.NullString
		createdAt, updatedAt string
	)
	if err := sc.Scan(&b.ID, &b.EmployeeID, &b.ShiftID, &b.Status, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.Notes = notes.String
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

// --- employees ---

const employeeColumns = `id, name, department, role, tier, level`

// SaveEmployee saves an employee.
func (s queries) SaveEmployee(ctx context.Context, e schedule.Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			department = excluded.department,
			role = excluded.role,
			tier = excluded.tier,
			level = excluded.level
	`
	_, err := s.q.ExecContext(ctx, query, e.ID, e.Name, e.Department, e.Role, e.Tier, e.Level)
	return err
}

// GetEmployee retrieves an employee by ID.
func (s queries) GetEmployee(ctx context.Context, id string) (*schedule.Employee, error) {
	var e schedule.Employee
	err := s.q.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = ?", id,
	).Scan(&e.ID, &e.Name, &e.Department, &e.Role, &e.Tier, &e.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns all employees in insertion order.
func (s queries) ListEmployees(ctx context.Context) ([]schedule.Employee, error) {
	return s.queryEmployees(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY rowid")
}

// EmployeesByDepartment returns the department's staff in insertion order,
// which is the rotation order used by roster population.
func (s queries) EmployeesByDepartment(ctx context.Context, department string) ([]schedule.Employee, error) {
	return s.queryEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE department = ? ORDER BY rowid", department)
}

func (s queries) queryEmployees(ctx context.Context, query string, args ...any) ([]schedule.Employee, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []schedule.Employee
	for rows.Next() {
		var e schedule.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Department, &e.Role, &e.Tier, &e.Level); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"bids", "timesheets", "rosters", "templates", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
