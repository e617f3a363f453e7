package bids_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/bids"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule/store"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/store/mirror"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/store/sqlite"
)

// =============================================================================
// APPROVAL THROUGH THE MIRROR
// =============================================================================

type mirrorEnv struct {
	env
	remote *sqlite.Store
	local  *store.Memory
}

func newMirrorEnv(t *testing.T) mirrorEnv {
	t.Helper()
	remote, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { remote.Close() })

	local := store.NewMemory()
	m := mirror.New(remote, local, zaptest.NewLogger(t), mirror.NewMetrics(prometheus.NewRegistry()))
	return mirrorEnv{env: envOver(t, m), remote: remote, local: local}
}

func assertBid(t *testing.T, st schedule.Store, id string, status schedule.BidStatus, notes string) {
	t.Helper()
	b, err := st.GetBid(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b, id)
	assert.Equal(t, status, b.Status, id)
	assert.Equal(t, notes, b.Notes, id)
}

func TestApprove_MirroredToLocalStore(t *testing.T) {
	// GIVEN: Pending bids B1, B2, B3 on one shift, stored in SQLite behind the mirror
	// WHEN: B1 is approved
	// THEN: SQLite and the local mirror both hold Approved/Rejected/Rejected
	ctx := context.Background()
	e := newMirrorEnv(t)
	employees(t, e.env, "e1", "e2", "e3")
	s := openShifts(t, e.env, "2025-03-01", [2]string{"09:00", "17:00"})[0]

	b1, b2, b3 := bid(t, e.env, "e1", s), bid(t, e.env, "e2", s), bid(t, e.env, "e3", s)

	_, err := e.bids.UpdateBidStatus(ctx, b1.ID, schedule.BidApproved)
	require.NoError(t, err)

	for _, st := range []schedule.Store{e.remote, e.local} {
		assertBid(t, st, b1.ID, schedule.BidApproved, "")
		assertBid(t, st, b2.ID, schedule.BidRejected, bids.RejectionNote)
		assertBid(t, st, b3.ID, schedule.BidRejected, bids.RejectionNote)
	}

	_, err = e.bids.UpdateBidStatus(ctx, b2.ID, schedule.BidApproved)
	assert.ErrorIs(t, err, schedule.ErrInvalidTransition)
}

func TestApprove_RemoteDownFallsBackToLocal(t *testing.T) {
	// GIVEN: Pending bids B1, B2, B3 mirrored locally, then SQLite goes away
	// WHEN: B1 is approved
	// THEN: The approval and both rejections land on the local mirror
	ctx := context.Background()
	e := newMirrorEnv(t)
	employees(t, e.env, "e1", "e2", "e3")
	s := openShifts(t, e.env, "2025-03-01", [2]string{"09:00", "17:00"})[0]

	b1, b2, b3 := bid(t, e.env, "e1", s), bid(t, e.env, "e2", s), bid(t, e.env, "e3", s)
	require.NoError(t, e.remote.Close())

	got, err := e.bids.UpdateBidStatus(ctx, b1.ID, schedule.BidApproved)
	require.NoError(t, err)
	assert.Equal(t, schedule.BidApproved, got.Status)

	assertBid(t, e.local, b1.ID, schedule.BidApproved, "")
	assertBid(t, e.local, b2.ID, schedule.BidRejected, bids.RejectionNote)
	assertBid(t, e.local, b3.ID, schedule.BidRejected, bids.RejectionNote)

	b, err := e.bids.GetBid(ctx, b3.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.BidRejected, b.Status, "reads are served from the mirror")
}
