/*
Package mirror pairs a remote schedule.Store with a local fallback.

PURPOSE:
  The remote backend (SQLite in production) is authoritative. When it is
  unreachable the engine keeps working against a local in-memory mirror
  instead of failing the request.

BEHAVIOUR:
  Reads:  remote first; a backend error is logged, counted and the same
          read is served from local.
  Writes: remote first; on success the same write is applied to local so
          the mirror stays warm; on a backend error the write goes to local
          only.
  WithTx: runs on remote while recording every write. On commit the
          recorded writes are replayed on local inside one local
          transaction. If the remote transaction fails with a backend
          error, fn runs against local instead.

  Client errors (not found, validation, transition, duplicate date) are
  answers, not outages. They never trigger a fallback.

  There is no automatic retry and no reconciliation of local-only writes
  back to remote once it recovers.

METRICS:
  roster_backend_fallbacks_total{op}  remote failed, local served
  roster_mirror_writes_total{op}      write copied to local after remote success
*/
package mirror

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// METRICS
// =============================================================================

type Metrics struct {
	Fallbacks    *prometheus.CounterVec
	MirrorWrites *prometheus.CounterVec
}

// NewMetrics builds the counters and registers them with reg when it is
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_backend_fallbacks_total",
			Help: "Operations served by the local mirror because the remote backend failed.",
		}, []string{"op"}),
		MirrorWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_mirror_writes_total",
			Help: "Writes copied to the local mirror after the remote backend accepted them.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.Fallbacks, m.MirrorWrites)
	}
	return m
}

// =============================================================================
// STORE
// =============================================================================

type Store struct {
	remote  schedule.Store
	local   schedule.Store
	log     *zap.Logger
	metrics *Metrics
}

var _ schedule.Store = (*Store)(nil)

// New pairs remote with local. A nil logger or metrics is replaced with a
// no-op / unregistered one.
func New(remote, local schedule.Store, log *zap.Logger, metrics *Metrics) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Store{remote: remote, local: local, log: log.Named("mirror"), metrics: metrics}
}

// Warm copies every remote record into the local mirror. Called once at
// startup so the first fallback already has data to serve.
func (s *Store) Warm(ctx context.Context) error {
	templates, err := s.remote.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("warm templates: %w", err)
	}
	rosters, err := s.remote.ListRosters(ctx)
	if err != nil {
		return fmt.Errorf("warm rosters: %w", err)
	}
	timesheets, err := s.remote.ListTimesheets(ctx)
	if err != nil {
		return fmt.Errorf("warm timesheets: %w", err)
	}
	bids, err := s.remote.ListBids(ctx, schedule.BidFilter{})
	if err != nil {
		return fmt.Errorf("warm bids: %w", err)
	}
	employees, err := s.remote.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("warm employees: %w", err)
	}

	err = s.local.WithTx(ctx, func(tx schedule.Store) error {
		for i := range templates {
			if err := tx.SaveTemplate(ctx, &templates[i]); err != nil {
				return err
			}
		}
		for i := range rosters {
			if err := tx.SaveRoster(ctx, &rosters[i]); err != nil {
				return err
			}
		}
		for i := range timesheets {
			if err := tx.SaveTimesheet(ctx, &timesheets[i]); err != nil {
				return err
			}
		}
		for i := range bids {
			if err := tx.SaveBid(ctx, &bids[i]); err != nil {
				return err
			}
		}
		for _, e := range employees {
			if err := tx.SaveEmployee(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("warm local mirror: %w", err)
	}

	s.log.Info("local mirror warmed",
		zap.Int("templates", len(templates)),
		zap.Int("rosters", len(rosters)),
		zap.Int("timesheets", len(timesheets)),
		zap.Int("bids", len(bids)),
		zap.Int("employees", len(employees)),
	)
	return nil
}

// --- fallback plumbing ---

func (s *Store) shouldFallBack(ctx context.Context, err error) bool {
	return err != nil && !schedule.IsClientError(err) && ctx.Err() == nil
}

func (s *Store) fellBack(op string, err error) {
	s.metrics.Fallbacks.WithLabelValues(op).Inc()
	s.log.Warn("remote backend failed, using local mirror", zap.String("op", op), zap.Error(err))
}

func read[T any](ctx context.Context, s *Store, op string, fn func(schedule.Store) (T, error)) (T, error) {
	out, err := fn(s.remote)
	if !s.shouldFallBack(ctx, err) {
		return out, err
	}
	s.fellBack(op, err)
	out, lerr := fn(s.local)
	if lerr != nil {
		var zero T
		return zero, unavailable(err, lerr)
	}
	return out, nil
}

func (s *Store) write(ctx context.Context, op string, fn func(schedule.Store) error) error {
	err := fn(s.remote)
	if err == nil {
		if lerr := fn(s.local); lerr != nil {
			s.log.Warn("local mirror write failed", zap.String("op", op), zap.Error(lerr))
		} else {
			s.metrics.MirrorWrites.WithLabelValues(op).Inc()
		}
		return nil
	}
	if !s.shouldFallBack(ctx, err) {
		return err
	}
	s.fellBack(op, err)
	if lerr := fn(s.local); lerr != nil {
		return unavailable(err, lerr)
	}
	return nil
}

// unavailable keeps client errors from the local store visible to callers.
func unavailable(remoteErr, localErr error) error {
	if schedule.IsClientError(localErr) {
		return localErr
	}
	return fmt.Errorf("%w: remote: %v; local: %w", schedule.ErrBackendUnavailable, remoteErr, localErr)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *Store) WithTx(ctx context.Context, fn func(schedule.Store) error) error {
	var rec *recorder
	err := s.remote.WithTx(ctx, func(tx schedule.Store) error {
		rec = &recorder{Store: tx}
		return fn(rec)
	})
	if err == nil {
		if rec != nil && len(rec.ops) > 0 {
			s.replay(ctx, rec.ops)
		}
		return nil
	}
	if !s.shouldFallBack(ctx, err) {
		return err
	}
	s.fellBack("tx", err)
	if lerr := s.local.WithTx(ctx, fn); lerr != nil {
		return unavailable(err, lerr)
	}
	return nil
}

func (s *Store) replay(ctx context.Context, ops []func(schedule.Store) error) {
	err := s.local.WithTx(ctx, func(tx schedule.Store) error {
		for _, op := range ops {
			if err := op(tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("local mirror replay failed", zap.Int("writes", len(ops)), zap.Error(err))
		return
	}
	s.metrics.MirrorWrites.WithLabelValues("tx").Inc()
}

// recorder passes everything to the remote transaction and remembers each
// write so it can be replayed on local after commit. Values are copied at
// record time; fn may keep mutating its own pointers afterwards.
type recorder struct {
	schedule.Store
	ops []func(schedule.Store) error
}

func (r *recorder) record(op func(schedule.Store) error) {
	r.ops = append(r.ops, op)
}

func (r *recorder) SaveTemplate(ctx context.Context, t *schedule.Template) error {
	if err := r.Store.SaveTemplate(ctx, t); err != nil {
		return err
	}
	cp := t.Clone()
	r.record(func(st schedule.Store) error { return st.SaveTemplate(ctx, cp) })
	return nil
}

func (r *recorder) DeleteTemplate(ctx context.Context, id string) error {
	if err := r.Store.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	r.record(func(st schedule.Store) error { return st.DeleteTemplate(ctx, id) })
	return nil
}

func (r *recorder) SaveRoster(ctx context.Context, ro *schedule.Roster) error {
	if err := r.Store.SaveRoster(ctx, ro); err != nil {
		return err
	}
	cp := ro.Clone()
	r.record(func(st schedule.Store) error { return st.SaveRoster(ctx, cp) })
	return nil
}

func (r *recorder) SaveTimesheet(ctx context.Context, ts *schedule.Timesheet) error {
	if err := r.Store.SaveTimesheet(ctx, ts); err != nil {
		return err
	}
	cp := ts.Clone()
	r.record(func(st schedule.Store) error { return st.SaveTimesheet(ctx, cp) })
	return nil
}

func (r *recorder) SaveBid(ctx context.Context, b *schedule.Bid) error {
	if err := r.Store.SaveBid(ctx, b); err != nil {
		return err
	}
	cp := b.Clone()
	r.record(func(st schedule.Store) error { return st.SaveBid(ctx, cp) })
	return nil
}

func (r *recorder) DeleteBid(ctx context.Context, id string) error {
	if err := r.Store.DeleteBid(ctx, id); err != nil {
		return err
	}
	r.record(func(st schedule.Store) error { return st.DeleteBid(ctx, id) })
	return nil
}

func (r *recorder) RejectCompetingBids(ctx context.Context, shiftID, keepID, note string) (int, error) {
	n, err := r.Store.RejectCompetingBids(ctx, shiftID, keepID, note)
	if err != nil {
		return n, err
	}
	r.record(func(st schedule.Store) error {
		_, err := st.RejectCompetingBids(ctx, shiftID, keepID, note)
		return err
	})
	return n, nil
}

func (r *recorder) SaveEmployee(ctx context.Context, e schedule.Employee) error {
	if err := r.Store.SaveEmployee(ctx, e); err != nil {
		return err
	}
	r.record(func(st schedule.Store) error { return st.SaveEmployee(ctx, e) })
	return nil
}

// WithTx inside a transaction joins the outer one.
func (r *recorder) WithTx(_ context.Context, fn func(schedule.Store) error) error {
	return fn(r)
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) ListTemplates(ctx context.Context) ([]schedule.Template, error) {
	return read(ctx, s, "list_templates", func(st schedule.Store) ([]schedule.Template, error) {
		return st.ListTemplates(ctx)
	})
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*schedule.Template, error) {
	return read(ctx, s, "get_template", func(st schedule.Store) (*schedule.Template, error) {
		return st.GetTemplate(ctx, id)
	})
}

func (s *Store) ListRosters(ctx context.Context) ([]schedule.Roster, error) {
	return read(ctx, s, "list_rosters", func(st schedule.Store) ([]schedule.Roster, error) {
		return st.ListRosters(ctx)
	})
}

func (s *Store) GetRoster(ctx context.Context, id string) (*schedule.Roster, error) {
	return read(ctx, s, "get_roster", func(st schedule.Store) (*schedule.Roster, error) {
		return st.GetRoster(ctx, id)
	})
}

func (s *Store) GetRosterByDate(ctx context.Context, date string) (*schedule.Roster, error) {
	return read(ctx, s, "get_roster_by_date", func(st schedule.Store) (*schedule.Roster, error) {
		return st.GetRosterByDate(ctx, date)
	})
}

func (s *Store) ListTimesheets(ctx context.Context) ([]schedule.Timesheet, error) {
	return read(ctx, s, "list_timesheets", func(st schedule.Store) ([]schedule.Timesheet, error) {
		return st.ListTimesheets(ctx)
	})
}

func (s *Store) GetTimesheetByDate(ctx context.Context, date string) (*schedule.Timesheet, error) {
	return read(ctx, s, "get_timesheet_by_date", func(st schedule.Store) (*schedule.Timesheet, error) {
		return st.GetTimesheetByDate(ctx, date)
	})
}

func (s *Store) ListBids(ctx context.Context, f schedule.BidFilter) ([]schedule.Bid, error) {
	return read(ctx, s, "list_bids", func(st schedule.Store) ([]schedule.Bid, error) {
		return st.ListBids(ctx, f)
	})
}

func (s *Store) GetBid(ctx context.Context, id string) (*schedule.Bid, error) {
	return read(ctx, s, "get_bid", func(st schedule.Store) (*schedule.Bid, error) {
		return st.GetBid(ctx, id)
	})
}

func (s *Store) ListEmployees(ctx context.Context) ([]schedule.Employee, error) {
	return read(ctx, s, "list_employees", func(st schedule.Store) ([]schedule.Employee, error) {
		return st.ListEmployees(ctx)
	})
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*schedule.Employee, error) {
	return read(ctx, s, "get_employee", func(st schedule.Store) (*schedule.Employee, error) {
		return st.GetEmployee(ctx, id)
	})
}

func (s *Store) EmployeesByDepartment(ctx context.Context, department string) ([]schedule.Employee, error) {
	return read(ctx, s, "employees_by_department", func(st schedule.Store) ([]schedule.Employee, error) {
		return st.EmployeesByDepartment(ctx, department)
	})
}

// =============================================================================
// WRITES
// =============================================================================

func (s *Store) SaveTemplate(ctx context.Context, t *schedule.Template) error {
	return s.write(ctx, "save_template", func(st schedule.Store) error { return st.SaveTemplate(ctx, t) })
}

func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	return s.write(ctx, "delete_template", func(st schedule.Store) error { return st.DeleteTemplate(ctx, id) })
}

func (s *Store) SaveRoster(ctx context.Context, r *schedule.Roster) error {
	return s.write(ctx, "save_roster", func(st schedule.Store) error { return st.SaveRoster(ctx, r) })
}

func (s *Store) SaveTimesheet(ctx context.Context, ts *schedule.Timesheet) error {
	return s.write(ctx, "save_timesheet", func(st schedule.Store) error { return st.SaveTimesheet(ctx, ts) })
}

func (s *Store) SaveBid(ctx context.Context, b *schedule.Bid) error {
	return s.write(ctx, "save_bid", func(st schedule.Store) error { return st.SaveBid(ctx, b) })
}

func (s *Store) DeleteBid(ctx context.Context, id string) error {
	return s.write(ctx, "delete_bid", func(st schedule.Store) error { return st.DeleteBid(ctx, id) })
}

func (s *Store) RejectCompetingBids(ctx context.Context, shiftID, keepID, note string) (int, error) {
	// The count comes from whichever store answered first.
	var (
		n       int
		counted bool
	)
	err := s.write(ctx, "reject_competing_bids", func(st schedule.Store) error {
		got, err := st.RejectCompetingBids(ctx, shiftID, keepID, note)
		if err == nil && !counted {
			n, counted = got, true
		}
		return err
	})
	return n, err
}

func (s *Store) SaveEmployee(ctx context.Context, e schedule.Employee) error {
	return s.write(ctx, "save_employee", func(st schedule.Store) error { return st.SaveEmployee(ctx, e) })
}
