// Package store provides in-process schedule.Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (tests, local fallback mirror)
// =============================================================================

// Memory keeps every record in process memory. Values go in and come out as
// deep copies, so no caller ever holds a reference into the stored trees.
// Construct one per process (or per test) and Reset it between tests.
type Memory struct {
	mu sync.RWMutex
	st state
}

var _ schedule.Store = (*Memory)(nil)

type state struct {
	templates  []schedule.Template
	rosters    map[string]schedule.Roster // by id
	rosterDate map[string]string          // date -> roster id
	timesheets map[string]schedule.Timesheet
	bids       []schedule.Bid
	employees  []schedule.Employee
}

func newState() state {
	return state{
		rosters:    make(map[string]schedule.Roster),
		rosterDate: make(map[string]string),
		timesheets: make(map[string]schedule.Timesheet),
	}
}

func NewMemory() *Memory {
	return &Memory{st: newState()}
}

// Reset drops every record.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = newState()
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(schedule.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.snapshot()
	if err := fn(&txView{st: &m.st}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

func (s *state) snapshot() state {
	out := newState()
	for _, t := range s.templates {
		out.templates = append(out.templates, *t.Clone())
	}
	for id, r := range s.rosters {
		out.rosters[id] = *r.Clone()
	}
	for d, id := range s.rosterDate {
		out.rosterDate[d] = id
	}
	for d, ts := range s.timesheets {
		out.timesheets[d] = *ts.Clone()
	}
	out.bids = append([]schedule.Bid(nil), s.bids...)
	out.employees = append([]schedule.Employee(nil), s.employees...)
	return out
}

// --- locked wrappers ---

func (m *Memory) ListTemplates(_ context.Context) ([]schedule.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.listTemplates(), nil
}

func (m *Memory) GetTemplate(_ context.Context, id string) (*schedule.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getTemplate(id), nil
}

func (m *Memory) SaveTemplate(_ context.Context, t *schedule.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.saveTemplate(t)
	return nil
}

func (m *Memory) DeleteTemplate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.deleteTemplate(id)
	return nil
}

func (m *Memory) ListRosters(_ context.Context) ([]schedule.Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.listRosters(), nil
}

func (m *Memory) GetRoster(_ context.Context, id string) (*schedule.Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getRoster(id), nil
}

func (m *Memory) GetRosterByDate(_ context.Context, date string) (*schedule.Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getRoster(m.st.rosterDate[date]), nil
}

func (m *Memory) SaveRoster(_ context.Context, r *schedule.Roster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.saveRoster(r)
}

func (m *Memory) ListTimesheets(_ context.Context) ([]schedule.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.listTimesheets(), nil
}

func (m *Memory) GetTimesheetByDate(_ context.Context, date string) (*schedule.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getTimesheet(date), nil
}

func (m *Memory) SaveTimesheet(_ context.Context, ts *schedule.Timesheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.saveTimesheet(ts)
}

func (m *Memory) ListBids(_ context.Context, f schedule.BidFilter) ([]schedule.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.listBids(f), nil
}

func (m *Memory) GetBid(_ context.Context, id string) (*schedule.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getBid(id), nil
}

func (m *Memory) SaveBid(_ context.Context, b *schedule.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.saveBid(b)
	return nil
}

func (m *Memory) DeleteBid(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.deleteBid(id)
	return nil
}

func (m *Memory) RejectCompetingBids(_ context.Context, shiftID, keepID, note string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.rejectCompeting(shiftID, keepID, note), nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]schedule.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]schedule.Employee(nil), m.st.employees...), nil
}

func (m *Memory) GetEmployee(_ context.Context, id string) (*schedule.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getEmployee(id), nil
}

func (m *Memory) EmployeesByDepartment(_ context.Context, department string) ([]schedule.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.employeesByDepartment(department), nil
}

func (m *Memory) SaveEmployee(_ context.Context, e schedule.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.saveEmployee(e)
	return nil
}

// =============================================================================
// STATE - Unlocked operations shared by Memory and txView
// =============================================================================

func (s *state) listTemplates() []schedule.Template {
	out := make([]schedule.Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, *t.Clone())
	}
	return out
}

func (s *state) getTemplate(id string) *schedule.Template {
	for i := range s.templates {
		if s.templates[i].ID == id {
			return s.templates[i].Clone()
		}
	}
	return nil
}

func (s *state) saveTemplate(t *schedule.Template) {
	for i := range s.templates {
		if s.templates[i].ID == t.ID {
			s.templates[i] = *t.Clone()
			return
		}
	}
	s.templates = append(s.templates, *t.Clone())
}

func (s *state) deleteTemplate(id string) {
	for i := range s.templates {
		if s.templates[i].ID == id {
			s.templates = append(s.templates[:i:i], s.templates[i+1:]...)
			return
		}
	}
}

func (s *state) listRosters() []schedule.Roster {
	out := make([]schedule.Roster, 0, len(s.rosters))
	for _, r := range s.rosters {
		out = append(out, *r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (s *state) getRoster(id string) *schedule.Roster {
	r, ok := s.rosters[id]
	if !ok {
		return nil
	}
	return r.Clone()
}

func (s *state) saveRoster(r *schedule.Roster) error {
	if existing, ok := s.rosterDate[r.Date]; ok && existing != r.ID {
		return fmt.Errorf("roster for %s: %w", r.Date, schedule.ErrDuplicateDate)
	}
	if prev, ok := s.rosters[r.ID]; ok && prev.Date != r.Date {
		delete(s.rosterDate, prev.Date)
	}
	s.rosters[r.ID] = *r.Clone()
	s.rosterDate[r.Date] = r.ID
	return nil
}

func (s *state) listTimesheets() []schedule.Timesheet {
	out := make([]schedule.Timesheet, 0, len(s.timesheets))
	for _, ts := range s.timesheets {
		out = append(out, *ts.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (s *state) getTimesheet(date string) *schedule.Timesheet {
	ts, ok := s.timesheets[date]
	if !ok {
		return nil
	}
	return ts.Clone()
}

func (s *state) saveTimesheet(ts *schedule.Timesheet) error {
	if existing, ok := s.timesheets[ts.Date]; ok && existing.ID != ts.ID {
		return fmt.Errorf("timesheet for %s: %w", ts.Date, schedule.ErrDuplicateDate)
	}
	s.timesheets[ts.Date] = *ts.Clone()
	return nil
}

func (s *state) listBids(f schedule.BidFilter) []schedule.Bid {
	var out []schedule.Bid
	for _, b := range s.bids {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *state) getBid(id string) *schedule.Bid {
	for i := range s.bids {
		if s.bids[i].ID == id {
			return s.bids[i].Clone()
		}
	}
	return nil
}

func (s *state) saveBid(b *schedule.Bid) {
	for i := range s.bids {
		if s.bids[i].ID == b.ID {
			s.bids[i] = *b
			return
		}
	}
	s.bids = append(s.bids, *b)
}

func (s *state) deleteBid(id string) {
	for i := range s.bids {
		if s.bids[i].ID == id {
			s.bids = append(s.bids[:i:i], s.bids[i+1:]...)
			return
		}
	}
}

func (s *state) rejectCompeting(shiftID, keepID, note string) int {
	n := 0
	for i := range s.bids {
		b := &s.bids[i]
		if b.ShiftID == shiftID && b.ID != keepID && b.Status == schedule.BidPending {
			b.Status = schedule.BidRejected
			b.Notes = note
			b.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n
}

func (s *state) getEmployee(id string) *schedule.Employee {
	for i := range s.employees {
		if s.employees[i].ID == id {
			e := s.employees[i]
			return &e
		}
	}
	return nil
}

func (s *state) employeesByDepartment(department string) []schedule.Employee {
	var out []schedule.Employee
	for _, e := range s.employees {
		if e.Department == department {
			out = append(out, e)
		}
	}
	return out
}

func (s *state) saveEmployee(e schedule.Employee) {
	for i := range s.employees {
		if s.employees[i].ID == e.ID {
			s.employees[i] = e
			return
		}
	}
	s.employees = append(s.employees, e)
}

// =============================================================================
// TRANSACTIONAL VIEW
// =============================================================================

// txView runs against the state while Memory.WithTx holds the lock.
type txView struct {
	st *state
}

func (tv *txView) ListTemplates(context.Context) ([]schedule.Template, error) {
	return tv.st.listTemplates(), nil
}

func (tv *txView) GetTemplate(_ context.Context, id string) (*schedule.Template, error) {
	return tv.st.getTemplate(id), nil
}

func (tv *txView) SaveTemplate(_ context.Context, t *schedule.Template) error {
	tv.st.saveTemplate(t)
	return nil
}

func (tv *txView) DeleteTemplate(_ context.Context, id string) error {
	tv.st.deleteTemplate(id)
	return nil
}

func (tv *txView) ListRosters(context.Context) ([]schedule.Roster, error) {
	return tv.st.listRosters(), nil
}

func (tv *txView) GetRoster(_ context.Context, id string) (*schedule.Roster, error) {
	return tv.st.getRoster(id), nil
}

func (tv *txView) GetRosterByDate(_ context.Context, date string) (*schedule.Roster, error) {
	return tv.st.getRoster(tv.st.rosterDate[date]), nil
}

func (tv *txView) SaveRoster(_ context.Context, r *schedule.Roster) error {
	return tv.st.saveRoster(r)
}

func (tv *txView) ListTimesheets(context.Context) ([]schedule.Timesheet, error) {
	return tv.st.listTimesheets(), nil
}

func (tv *txView) GetTimesheetByDate(_ context.Context, date string) (*schedule.Timesheet, error) {
	return tv.st.getTimesheet(date), nil
}

func (tv *txView) SaveTimesheet(_ context.Context, ts *schedule.Timesheet) error {
	return tv.st.saveTimesheet(ts)
}

func (tv *txView) ListBids(_ context.Context, f schedule.BidFilter) ([]schedule.Bid, error) {
	return tv.st.listBids(f), nil
}

func (tv *txView) GetBid(_ context.Context, id string) (*schedule.Bid, error) {
	return tv.st.getBid(id), nil
}

func (tv *txView) SaveBid(_ context.Context, b *schedule.Bid) error {
	tv.st.saveBid(b)
	return nil
}

func (tv *txView) DeleteBid(_ context.Context, id string) error {
	tv.st.deleteBid(id)
	return nil
}

func (tv *txView) RejectCompetingBids(_ context.Context, shiftID, keepID, note string) (int, error) {
	return tv.st.rejectCompeting(shiftID, keepID, note), nil
}

func (tv *txView) ListEmployees(context.Context) ([]schedule.Employee, error) {
	return append([]schedule.Employee(nil), tv.st.employees...), nil
}

func (tv *txView) GetEmployee(_ context.Context, id string) (*schedule.Employee, error) {
	return tv.st.getEmployee(id), nil
}

func (tv *txView) EmployeesByDepartment(_ context.Context, department string) ([]schedule.Employee, error) {
	return tv.st.employeesByDepartment(department), nil
}

func (tv *txView) SaveEmployee(_ context.Context, e schedule.Employee) error {
	tv.st.saveEmployee(e)
	return nil
}

// WithTx inside a transaction joins the outer one.
func (tv *txView) WithTx(_ context.Context, fn func(schedule.Store) error) error {
	return fn(tv)
}
