/*
Package bids resolves employee applications for open roster shifts.

PURPOSE:
  Employees bid on shifts; managers approve one bid per shift. The engine
  enforces mutual exclusion and gives managers advisory signals (time
  conflicts, applicant tags) without ever blocking an approval on them.

LIFECYCLE:
  Pending ──► Approved ──► Confirmed
     │            │
     └──► Rejected ◄┘

  Withdrawing a bid deletes it; it is not a status.

MUTUAL EXCLUSION:
  At most one bid per shift is Approved or Confirmed. Approving a bid
  while another holds the shift fails with ErrShiftAlreadyOffered.
  Approving one runs in a single store transaction that:
    1. saves the approved bid
    2. rejects every other Pending bid on the shift with
       "Shift offered to another employee"
  Either both writes land or neither does.

CONFIRMATION:
  Confirming a bid assigns the roster shift to the bidder. That runs after
  the bid transaction commits and is best effort: a failure is logged and
  the confirmation stands.

SEE ALSO:
  - conflicts.go: applicant conflict detection and tags
  - roster/roster.go: LocateShift and AssignShift
*/
package bids

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// RejectionNote is recorded on bids rejected by another bid's approval.
const RejectionNote = "Shift offered to another employee"

// ShiftLocator resolves a roster shift from its id.
type ShiftLocator interface {
	LocateShift(ctx context.Context, shiftID string) (*schedule.ShiftRef, error)
}

// Assigner puts an employee on a roster shift.
type Assigner interface {
	AssignShift(ctx context.Context, shiftID, employeeID string) (*schedule.Roster, error)
}

type Service struct {
	store    schedule.Store
	shifts   ShiftLocator
	assigner Assigner
	log      *zap.Logger
	now      func() time.Time
}

// NewService wires the bid engine. assigner may be nil, in which case
// confirmation does not touch the roster.
func NewService(store schedule.Store, shifts ShiftLocator, assigner Assigner, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, shifts: shifts, assigner: assigner, log: log.Named("bids"), now: time.Now}
}

// =============================================================================
// CREATE / READ / WITHDRAW
// =============================================================================

type NewBidInput struct {
	EmployeeID string `json:"employeeId"`
	ShiftID    string `json:"shiftId"`
	Notes      string `json:"notes,omitempty"`
}

func (in NewBidInput) Validate() error {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return &schedule.ValidationError{Field: "employeeId", Message: "is required"}
	}
	if strings.TrimSpace(in.ShiftID) == "" {
		return &schedule.ValidationError{Field: "shiftId", Message: "is required"}
	}
	return nil
}

// CreateBid records a Pending bid. The same employee may bid on the same
// shift more than once.
func (s *Service) CreateBid(ctx context.Context, in NewBidInput) (*schedule.Bid, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	b := &schedule.Bid{
		ID:         uuid.NewString(),
		EmployeeID: in.EmployeeID,
		ShiftID:    in.ShiftID,
		Status:     schedule.BidPending,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.SaveBid(ctx, b); err != nil {
		return nil, err
	}
	s.log.Debug("bid created", zap.String("bid_id", b.ID), zap.String("shift_id", b.ShiftID), zap.String("employee_id", b.EmployeeID))
	return b, nil
}

func (s *Service) GetBid(ctx context.Context, id string) (*schedule.Bid, error) {
	return getBid(ctx, s.store, id)
}

func getBid(ctx context.Context, st schedule.Store, id string) (*schedule.Bid, error) {
	b, err := st.GetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &schedule.NotFoundError{Kind: "bid", ID: id}
	}
	return b, nil
}

func (s *Service) ListBids(ctx context.Context, f schedule.BidFilter) ([]schedule.Bid, error) {
	return s.store.ListBids(ctx, f)
}

// WithdrawBid deletes the bid.
func (s *Service) WithdrawBid(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(tx schedule.Store) error {
		if _, err := getBid(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteBid(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("bid withdrawn", zap.String("bid_id", id))
	return nil
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

var allowed = map[schedule.BidStatus][]schedule.BidStatus{
	schedule.BidPending:  {schedule.BidApproved, schedule.BidRejected},
	schedule.BidApproved: {schedule.BidConfirmed, schedule.BidRejected},
}

func canMove(from, to schedule.BidStatus) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateBidStatus moves a bid to status. Setting the current status again
// is a no-op. Approving rejects every other Pending bid on the same shift
// in the same transaction.
func (s *Service) UpdateBidStatus(ctx context.Context, id string, status schedule.BidStatus) (*schedule.Bid, error) {
	if !status.Valid() {
		return nil, &schedule.ValidationError{Field: "status", Message: "unknown status " + string(status)}
	}

	var (
		out      *schedule.Bid
		changed  bool
		rejected int
	)
	err := s.store.WithTx(ctx, func(tx schedule.Store) error {
		b, err := getBid(ctx, tx, id)
		if err != nil {
			return err
		}
		if b.Status == status {
			out = b
			return nil
		}
		if !canMove(b.Status, status) {
			return &schedule.TransitionError{ID: b.ID, From: string(b.Status), Op: "move bid to " + string(status)}
		}

		if status == schedule.BidApproved {
			if err := ensureShiftFree(ctx, tx, b); err != nil {
				return err
			}
		}

		b.Status = status
		b.UpdatedAt = s.now().UTC()
		if err := tx.SaveBid(ctx, b); err != nil {
			return err
		}
		if status == schedule.BidApproved {
			if rejected, err = tx.RejectCompetingBids(ctx, b.ShiftID, b.ID, RejectionNote); err != nil {
				return err
			}
		}
		out, changed = b, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return out, nil
	}

	s.log.Info("bid status changed",
		zap.String("bid_id", out.ID),
		zap.String("shift_id", out.ShiftID),
		zap.String("status", string(out.Status)),
		zap.Int("rejected", rejected),
	)
	if out.Status == schedule.BidConfirmed {
		s.assign(ctx, out)
	}
	return out, nil
}

func ensureShiftFree(ctx context.Context, tx schedule.Store, b *schedule.Bid) error {
	others, err := tx.ListBids(ctx, schedule.BidFilter{ShiftID: b.ShiftID})
	if err != nil {
		return err
	}
	for _, o := range others {
		if o.ID != b.ID && o.Status.HoldsShift() {
			return schedule.ErrShiftAlreadyOffered
		}
	}
	return nil
}

func (s *Service) assign(ctx context.Context, b *schedule.Bid) {
	if s.assigner == nil {
		return
	}
	if _, err := s.assigner.AssignShift(ctx, b.ShiftID, b.EmployeeID); err != nil {
		s.log.Warn("confirmed bid not assigned to roster",
			zap.String("bid_id", b.ID),
			zap.String("shift_id", b.ShiftID),
			zap.Error(err),
		)
	}
}
