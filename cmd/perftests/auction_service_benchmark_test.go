package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	auction "position-auction/internal/auctionService"
	"position-auction/internal/ledger"
	"position-auction/internal/repository"
)

func setupService(numPositions int) (*repository.MemoryStore, *ledger.MemoryLedger, *auction.AuctionService) {
	store := repository.NewMemoryStore()
	ledg := ledger.NewMemoryLedger(ledger.WithDefaultBalance(decimal.NewFromInt(100_000_000)))
	svc := auction.NewAuctionService(store, ledg, nil, auction.Config{MinIncrement: decimal.NewFromInt(1)})

	ctx := context.Background()
	for i := 0; i < numPositions; i++ {
		pos, err := svc.CreatePosition(ctx, fmt.Sprintf("slot_%d", i), "owner", time.Now(), 24*time.Hour, decimal.NewFromInt(100))
		if err != nil {
			panic(err)
		}
		if _, err := svc.ActivatePosition(ctx, pos.PositionID); err != nil {
			panic(err)
		}
	}
	return store, ledg, svc
}

func positionIDs(store *repository.MemoryStore, n int) []string {
	ids, err := store.ExpiredActive(time.Now().Add(48 * time.Hour))
	if err != nil || len(ids) != n {
		panic(fmt.Sprintf("expected %d positions, got %d (%v)", n, len(ids), err))
	}
	return ids
}

// Benchmark 1: PlaceBid - Isolated Positions (Low Contention - Micro Benchmark)
func Benchmark_PlaceBid_Isolated(b *testing.B) {
	store, _, svc := setupService(b.N)
	ids := positionIDs(store, b.N)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		bidderID := fmt.Sprintf("bidder_%d", i)
		amount := decimal.NewFromInt(int64(100 + rand.Intn(100)))
		if _, err := svc.PlaceBid(ctx, ids[i], bidderID, amount); err != nil {
			b.Fatalf("failed to place bid: %v", err)
		}
	}
}

// Benchmark 2: PlaceBid - Shared Position (High Contention - Concurrency Benchmark)
func Benchmark_PlaceBid_ConcurrentSharedPosition(b *testing.B) {
	store, _, svc := setupService(1)
	positionID := positionIDs(store, 1)[0]
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 100

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			bidderID := fmt.Sprintf("bidder_parallel_%d", rnd.Int())

			nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
			_, _ = svc.PlaceBid(ctx, positionID, bidderID, decimal.NewFromInt(nextBid))
		}
	})
}

// Benchmark 3: Snapshot - Single-Threaded (Low Contention)
func Benchmark_Snapshot_SingleThreaded(b *testing.B) {
	store, _, svc := setupService(1)
	positionID := positionIDs(store, 1)[0]
	ctx := context.Background()

	for j := 0; j < 10; j++ {
		bidderID := fmt.Sprintf("bidder_%d", j)
		_, _ = svc.PlaceBid(ctx, positionID, bidderID, decimal.NewFromInt(int64(100+j*10)))
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Snapshot(positionID); err != nil {
			b.Fatalf("snapshot failed: %v", err)
		}
	}
}

// Benchmark 4: Chat history reads against a populated room are exercised in
// the load test; finalize throughput matters more here because the sweeper
// calls it in bulk.
func Benchmark_Finalize_ExpiredPositions(b *testing.B) {
	store := repository.NewMemoryStore()
	ledg := ledger.NewMemoryLedger(ledger.WithDefaultBalance(decimal.NewFromInt(100_000_000)))

	var offset atomic.Int64
	now := func() time.Time { return time.Now().Add(time.Duration(offset.Load())) }
	svc := auction.NewAuctionService(store, ledg, nil,
		auction.Config{MinIncrement: decimal.NewFromInt(1)}, auction.WithClock(now))
	ctx := context.Background()

	start := time.Now()
	ids := make([]string, b.N)
	for i := 0; i < b.N; i++ {
		pos, err := svc.CreatePosition(ctx, fmt.Sprintf("slot_%d", i), "owner", start, time.Hour, decimal.NewFromInt(100))
		if err != nil {
			b.Fatalf("create: %v", err)
		}
		if _, err := svc.ActivatePosition(ctx, pos.PositionID); err != nil {
			b.Fatalf("activate: %v", err)
		}
		if _, err := svc.PlaceBid(ctx, pos.PositionID, fmt.Sprintf("bidder_%d", i), decimal.NewFromInt(500)); err != nil {
			b.Fatalf("bid: %v", err)
		}
		ids[i] = pos.PositionID
	}

	// Jump past every bidding window before timing the finalize loop.
	offset.Store(int64(2 * time.Hour))

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Finalize(ctx, ids[i]); err != nil {
			b.Fatalf("finalize failed: %v", err)
		}
	}
}
