// Package sweeper guarantees finalize progress when no client is connected at
// expiry: it periodically scans for expired active positions and invokes the
// idempotent finalize operation on each.
package sweeper

import (
	"context"
	"errors"
	"time"

	auction "position-auction/internal/auctionService"
	"position-auction/internal/auctionerrors"
	"position-auction/utils"
)

// Store lists positions due for finalization.
type Store interface {
	ExpiredActive(now time.Time) ([]string, error)
}

// Finalizer elects winners; calls are safe under redundancy.
type Finalizer interface {
	Finalize(ctx context.Context, positionID string) (auction.FinalizeResult, error)
}

// Sweeper runs the periodic expiry scan.
type Sweeper struct {
	store     Store
	finalizer Finalizer
	interval  time.Duration
	now       func() time.Time
}

// Option customizes construction.
type Option func(*Sweeper)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// New creates a sweeper scanning every interval.
func New(store Store, finalizer Finalizer, interval time.Duration, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s := &Sweeper{store: store, finalizer: finalizer, interval: interval, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loops until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one scan-and-finalize pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	ids, err := s.store.ExpiredActive(s.now())
	if err != nil {
		utils.Error("sweeper: expiry scan failed", map[string]any{"error": err.Error()})
		return
	}

	for _, id := range ids {
		res, err := s.finalizer.Finalize(ctx, id)
		switch {
		case err == nil:
			if !res.AlreadyFinalized {
				utils.Info("sweeper: position finalized", map[string]any{
					"position_id":    id,
					"winning_bid_id": res.Position.WinningBidID,
				})
			}
		// Lost the race against a client-triggered finalize, or the window
		// moved; both resolve on their own.
		case errors.Is(err, auctionerrors.ErrNotYetExpired),
			errors.Is(err, auctionerrors.ErrPositionClosed),
			errors.Is(err, auctionerrors.ErrConflict):
		default:
			utils.Error("sweeper: finalize failed", map[string]any{
				"position_id": id,
				"error":       err.Error(),
			})
		}
	}
}
