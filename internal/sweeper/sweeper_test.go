package sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	auction "position-auction/internal/auctionService"
	"position-auction/internal/ledger"
	model "position-auction/internal/models"
	"position-auction/internal/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func TestSweeper_FinalizesExpiredPositions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := repository.NewMemoryStore()
	ledg := ledger.NewMemoryLedger()
	ledg.Credit("bidder1", decimal.NewFromInt(10_000))

	svc := auction.NewAuctionService(store, ledg, nil, auction.Config{}, auction.WithClock(clock.Now))

	pos, err := svc.CreatePosition(ctx, "homepage-banner", "owner1", clock.Now(), time.Hour, decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = svc.ActivatePosition(ctx, pos.PositionID)
	require.NoError(t, err)
	_, err = svc.PlaceBid(ctx, pos.PositionID, "bidder1", decimal.NewFromInt(500))
	require.NoError(t, err)

	sw := New(store, svc, time.Second, WithClock(clock.Now))

	// Window still open: nothing to do.
	sw.Sweep(ctx)
	got, err := store.GetPosition(pos.PositionID)
	require.NoError(t, err)
	require.Equal(t, model.PositionActive, got.Status)

	clock.Advance(2 * time.Hour)
	sw.Sweep(ctx)

	got, err = store.GetPosition(pos.PositionID)
	require.NoError(t, err)
	require.Equal(t, model.PositionCompleted, got.Status)
	require.NotEmpty(t, got.WinningBidID)

	// Already completed: a second pass is a no-op.
	sw.Sweep(ctx)
	again, err := store.GetPosition(pos.PositionID)
	require.NoError(t, err)
	require.Equal(t, got.WinningBidID, again.WinningBidID)
}

func TestSweeper_RunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	store := repository.NewMemoryStore()
	ledg := ledger.NewMemoryLedger()
	svc := auction.NewAuctionService(store, ledg, nil, auction.Config{})
	sw := New(store, svc, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
