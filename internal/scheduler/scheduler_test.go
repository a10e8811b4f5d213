package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	engine "zecbay-auction/internal/auctionEngine"
	model "zecbay-auction/internal/models"
	"zecbay-auction/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// recordingBroadcaster captures snapshots published by the scheduler.
type recordingBroadcaster struct {
	mu    sync.Mutex
	snaps []engine.Snapshot
}

func (r *recordingBroadcaster) Broadcast(auctionID string, snap engine.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recordingBroadcaster) all() []engine.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Snapshot(nil), r.snaps...)
}

func setup(t *testing.T) (*engine.AuctionEngine, *repository.MemoryStore, *recordingBroadcaster, *Scheduler) {
	t.Helper()
	store := repository.NewMemoryStore()
	eng := engine.NewAuctionEngine(store, engine.DefaultThresholds())
	rec := &recordingBroadcaster{}
	sched := NewScheduler(eng, store, rec, time.Second)
	return eng, store, rec, sched
}

func createAuction(t *testing.T, eng *engine.AuctionEngine, startsAt time.Time, rounds int, roundSeconds int64) model.Auction {
	t.Helper()
	a, err := eng.CreateAuction(engine.CreateAuctionParams{
		Title:                "Premium Cotton Textiles",
		SellerID:             "seller-123",
		InitialPrice:         decimal.RequireFromString("12.50"),
		Unit:                 "kg",
		Quantity:             1000,
		MOQ:                  100,
		TotalRounds:          rounds,
		RoundDurationSeconds: roundSeconds,
		StartsAt:             startsAt,
	})
	require.NoError(t, err)
	return a
}

// A sweep starts auctions whose scheduled time has passed and leaves
// future auctions untouched.
func TestScheduler_Sweep_StartsDueAuctions(t *testing.T) {
	eng, store, _, sched := setup(t)

	due := createAuction(t, eng, time.Now().UTC().Add(-time.Minute), 3, 60)
	future := createAuction(t, eng, time.Now().UTC().Add(time.Hour), 3, 60)

	sched.Sweep()

	got, err := store.GetAuction(due.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, got.Status)

	got, err = store.GetAuction(future.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusUpcoming, got.Status)
}

// Sweeps drive the countdown to zero and end the auction exactly once.
func TestScheduler_Sweep_TicksToCompletion(t *testing.T) {
	eng, store, rec, sched := setup(t)
	a := createAuction(t, eng, time.Now().UTC().Add(-time.Minute), 1, 2)

	_, err := eng.StartAuction(a.ID)
	require.NoError(t, err)
	_, err = eng.RegisterBidder(a.ID, "exp-a")
	require.NoError(t, err)
	_, err = eng.SubmitBid(a.ID, "exp-a", decimal.RequireFromString("12.00"))
	require.NoError(t, err)

	// countdown is 2 seconds; two sweeps end it, further sweeps are no-ops
	for i := 0; i < 4; i++ {
		sched.Sweep()
	}

	got, err := store.GetAuction(a.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusEnded, got.Status)
	require.Equal(t, int64(0), got.TimeRemainingSeconds)
	require.NotNil(t, got.Winner)
	require.Equal(t, "exp-a", got.Winner.BidderID)

	snaps := rec.all()
	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	require.Equal(t, model.StatusEnded, last.Status)
	require.Equal(t, "Auction ended", last.TimeLeft)

	// the ended auction is no longer swept
	before := len(snaps)
	sched.Sweep()
	require.Len(t, rec.all(), before)
}

// Every published snapshot carries the authoritative countdown value.
func TestScheduler_Sweep_PublishesSnapshots(t *testing.T) {
	eng, _, rec, sched := setup(t)
	a := createAuction(t, eng, time.Now().UTC().Add(-time.Minute), 1, 10)
	_, err := eng.StartAuction(a.ID)
	require.NoError(t, err)

	sched.Sweep()
	sched.Sweep()

	snaps := rec.all()
	require.Len(t, snaps, 2)
	require.Equal(t, a.ID, snaps[0].AuctionID)
	require.Equal(t, int64(9), snaps[0].TimeRemainingSeconds)
	require.Equal(t, int64(8), snaps[1].TimeRemainingSeconds)
}

// Run stops promptly when the context is cancelled.
func TestScheduler_Run_StopsOnCancel(t *testing.T) {
	_, _, _, sched := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
