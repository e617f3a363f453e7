package bids

import (
	"context"
	"fmt"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// CONFLICT DETECTION
// =============================================================================
//
// A bid conflicts when the same employee already holds (Approved or
// Confirmed) another shift on the same date whose interval overlaps. The
// result is advisory: approval is never blocked on it.

type Conflict struct {
	HasConflict bool   `json:"hasConflict"`
	Reason      string `json:"reason,omitempty"`
}

// DetectConflict compares target against the shifts an employee already
// holds. Shifts on other dates never conflict; touching intervals do not
// overlap.
func DetectConflict(target schedule.ShiftRef, held []schedule.ShiftRef) (Conflict, error) {
	span, err := schedule.SpanOf(target.Shift.StartTime, target.Shift.EndTime)
	if err != nil {
		return Conflict{}, err
	}
	for _, h := range held {
		if h.Date != target.Date || h.Shift.ID == target.Shift.ID {
			continue
		}
		other, err := schedule.SpanOf(h.Shift.StartTime, h.Shift.EndTime)
		if err != nil {
			return Conflict{}, err
		}
		if span.Overlaps(other) {
			return Conflict{
				HasConflict: true,
				Reason: fmt.Sprintf("Overlaps with %s %s-%s (%s / %s) on %s",
					h.Shift.Role, h.Shift.StartTime, h.Shift.EndTime, h.Group, h.SubGroup, h.Date),
			}, nil
		}
	}
	return Conflict{}, nil
}

// CheckApplicantConflicts reports whether approving b would double-book its
// employee. A bid whose shift no longer exists has nothing to conflict with.
func (s *Service) CheckApplicantConflicts(ctx context.Context, b *schedule.Bid) (Conflict, error) {
	all, err := s.store.ListBids(ctx, schedule.BidFilter{EmployeeID: b.EmployeeID})
	if err != nil {
		return Conflict{}, err
	}
	return s.conflictFor(ctx, newLocatorCache(s.shifts), b, all)
}

func (s *Service) conflictFor(ctx context.Context, lc *locatorCache, b *schedule.Bid, employeeBids []schedule.Bid) (Conflict, error) {
	target, err := lc.locate(ctx, b.ShiftID)
	if err != nil || target == nil {
		return Conflict{}, err
	}

	var held []schedule.ShiftRef
	for _, o := range employeeBids {
		if o.ID == b.ID || o.EmployeeID != b.EmployeeID || !o.Status.HoldsShift() {
			continue
		}
		ref, err := lc.locate(ctx, o.ShiftID)
		if err != nil {
			return Conflict{}, err
		}
		if ref != nil {
			held = append(held, *ref)
		}
	}
	return DetectConflict(*target, held)
}

// locatorCache memoizes shift lookups for one request. Missing shifts are
// cached as nil.
type locatorCache struct {
	shifts ShiftLocator
	seen   map[string]*schedule.ShiftRef
}

func newLocatorCache(shifts ShiftLocator) *locatorCache {
	return &locatorCache{shifts: shifts, seen: make(map[string]*schedule.ShiftRef)}
}

func (lc *locatorCache) locate(ctx context.Context, shiftID string) (*schedule.ShiftRef, error) {
	if ref, ok := lc.seen[shiftID]; ok {
		return ref, nil
	}
	ref, err := lc.shifts.LocateShift(ctx, shiftID)
	if err != nil && !schedule.IsNotFound(err) {
		return nil, err
	}
	lc.seen[shiftID] = ref
	return ref, nil
}

// =============================================================================
// APPLICANT TAGS
// =============================================================================

type Tag string

const (
	TagNone            Tag = ""
	TagHighlyQualified Tag = "Highly Qualified"
	TagFirstToApply    Tag = "First to Apply"
	TagHasOtherOffers  Tag = "Has Other Offers"
)

// HighlyQualifiedLevel is the employee level from which an applicant is
// tagged Highly Qualified.
const HighlyQualifiedLevel = 4

// ApplicantTag picks the single advisory label for b. Qualification beats
// recency, recency beats holding another offer.
func ApplicantTag(e *schedule.Employee, b schedule.Bid, all []schedule.Bid) Tag {
	if e != nil && e.Level >= HighlyQualifiedLevel {
		return TagHighlyQualified
	}

	first := true
	for _, o := range all {
		if o.ID != b.ID && o.ShiftID == b.ShiftID && o.CreatedAt.Before(b.CreatedAt) {
			first = false
			break
		}
	}
	if first {
		return TagFirstToApply
	}

	for _, o := range all {
		if o.ID != b.ID && o.EmployeeID == b.EmployeeID && o.ShiftID != b.ShiftID && o.Status == schedule.BidApproved {
			return TagHasOtherOffers
		}
	}
	return TagNone
}

func (s *Service) GetApplicantTag(ctx context.Context, b *schedule.Bid) (Tag, error) {
	e, err := s.store.GetEmployee(ctx, b.EmployeeID)
	if err != nil {
		return TagNone, err
	}
	all, err := s.store.ListBids(ctx, schedule.BidFilter{})
	if err != nil {
		return TagNone, err
	}
	return ApplicantTag(e, *b, all), nil
}

// =============================================================================
// APPLICANTS VIEW
// =============================================================================

// Applicant is one bid on a shift with the signals a manager sees.
type Applicant struct {
	Bid      schedule.Bid       `json:"bid"`
	Employee *schedule.Employee `json:"employee,omitempty"`
	Conflict Conflict           `json:"conflict"`
	Tag      Tag                `json:"tag,omitempty"`
}

// ApplicantsForShift lists every bid on shiftID in application order.
func (s *Service) ApplicantsForShift(ctx context.Context, shiftID string) ([]Applicant, error) {
	all, err := s.store.ListBids(ctx, schedule.BidFilter{})
	if err != nil {
		return nil, err
	}
	lc := newLocatorCache(s.shifts)

	out := []Applicant{}
	for _, b := range all {
		if b.ShiftID != shiftID {
			continue
		}
		e, err := s.store.GetEmployee(ctx, b.EmployeeID)
		if err != nil {
			return nil, err
		}
		conflict, err := s.conflictFor(ctx, lc, &b, all)
		if err != nil {
			return nil, err
		}
		out = append(out, Applicant{
			Bid:      b,
			Employee: e,
			Conflict: conflict,
			Tag:      ApplicantTag(e, b, all),
		})
	}
	return out, nil
}
