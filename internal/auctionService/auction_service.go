package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"position-auction/internal/auctionerrors"
	"position-auction/internal/events"
	"position-auction/internal/ledger"
	"position-auction/internal/locks"
	model "position-auction/internal/models"
	"position-auction/internal/notify"
	"position-auction/utils"
)

// maxCommitAttempts bounds the internal retry on store conflicts before the
// conflict surfaces to the caller.
const maxCommitAttempts = 3

// Config carries the tunables of the bidding rules.
type Config struct {
	// MinIncrement is the amount a new bid must exceed the current highest by.
	// It is an explicit input rather than a constant so deployments can tune it.
	MinIncrement decimal.Decimal
	// LedgerTimeout bounds every hold/release/capture call so a ledger outage
	// cannot pin the per-position lock.
	LedgerTimeout time.Duration
	// RecentBidsLimit caps the bid list embedded in position snapshots.
	RecentBidsLimit int
}

// AuctionService implements bid acceptance and exactly-once finalization for
// positions. All mutations on one position are serialized through a per-key
// lock; different positions proceed in parallel.
type AuctionService struct {
	store    Store
	ledger   ledger.Ledger
	notifier notify.Notifier
	locks    *locks.KeyLock
	cfg      Config
	now      func() time.Time
}

// Store is the slice of the repository the auction service needs.
type Store interface {
	CreatePosition(p model.Position) error
	GetPosition(positionID string) (model.Position, error)
	ActivatePosition(positionID string) error
	CancelPosition(positionID string) error
	GetBid(bidID string) (model.Bid, error)
	ActiveBid(positionID string) (model.Bid, error)
	BidsForPosition(positionID string, limit int) ([]model.Bid, error)
	HoldForBid(bidID string) (model.Hold, error)
	CommitBid(bid model.Bid, hold model.Hold, prevBidID string) error
	FinalizePosition(positionID, winningBidID string) (model.Position, error)
}

// Option customizes service construction.
type Option func(*AuctionService)

// WithClock overrides the time source, used by tests to move through a
// position's bidding window.
func WithClock(now func() time.Time) Option {
	return func(s *AuctionService) { s.now = now }
}

// NewAuctionService creates a new AuctionService instance.
func NewAuctionService(store Store, ledg ledger.Ledger, notifier notify.Notifier, cfg Config, opts ...Option) *AuctionService {
	if cfg.MinIncrement.IsZero() {
		cfg.MinIncrement = decimal.NewFromInt(50)
	}
	if cfg.LedgerTimeout <= 0 {
		cfg.LedgerTimeout = 3 * time.Second
	}
	if cfg.RecentBidsLimit <= 0 {
		cfg.RecentBidsLimit = 10
	}
	s := &AuctionService{
		store:    store,
		ledger:   ledg,
		notifier: notifier,
		locks:    locks.NewKeyLock(),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinIncrement exposes the configured increment for error reporting layers.
func (s *AuctionService) MinIncrement() decimal.Decimal {
	return s.cfg.MinIncrement
}

// PlaceBid validates and commits a bid against the position, escrowing the
// amount in the ledger. On success exactly one hold was created for the new
// bid and the superseded bid's hold was released.
func (s *AuctionService) PlaceBid(ctx context.Context, positionID, bidderID string, amount decimal.Decimal) (model.Bid, error) {
	if positionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing positionID or bidderID", auctionerrors.ErrValidation)
	}
	if !amount.IsPositive() {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrValidation)
	}

	unlock := s.locks.Lock(positionID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		bid, err := s.tryPlaceBid(ctx, positionID, bidderID, amount)
		if err == nil {
			return bid, nil
		}
		if !errors.Is(err, auctionerrors.ErrConflict) {
			return model.Bid{}, err
		}
		lastErr = err
	}
	return model.Bid{}, fmt.Errorf("service: place bid on position %s exhausted retries: %w", positionID, lastErr)
}

func (s *AuctionService) tryPlaceBid(ctx context.Context, positionID, bidderID string, amount decimal.Decimal) (model.Bid, error) {
	pos, err := s.store.GetPosition(positionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: %w", err)
	}

	now := s.now()
	if pos.Status != model.PositionActive || !now.Before(pos.EndTime) {
		return model.Bid{}, fmt.Errorf("service: position %s (status %s): %w", positionID, pos.Status, auctionerrors.ErrPositionClosed)
	}

	currentHighest := decimal.Zero
	prevBidID := ""
	var prevHold model.Hold
	prev, err := s.store.ActiveBid(positionID)
	switch {
	case err == nil:
		currentHighest = prev.Amount
		prevBidID = prev.BidID
		prevHold, err = s.store.HoldForBid(prev.BidID)
		if err != nil {
			return model.Bid{}, fmt.Errorf("service: %w", err)
		}
	case errors.Is(err, auctionerrors.ErrNoActiveBid):
	default:
		return model.Bid{}, fmt.Errorf("service: %w", err)
	}

	if amount.LessThan(currentHighest.Add(s.cfg.MinIncrement)) {
		return model.Bid{}, &auctionerrors.StaleBidError{
			CurrentHighest: currentHighest,
			MinIncrement:   s.cfg.MinIncrement,
		}
	}

	holdCtx, cancel := context.WithTimeout(ctx, s.cfg.LedgerTimeout)
	holdID, err := s.ledger.Hold(holdCtx, bidderID, amount)
	cancel()
	if err != nil {
		if errors.Is(err, auctionerrors.ErrInsufficientFunds) {
			return model.Bid{}, fmt.Errorf("service: bid by %s: %w", bidderID, err)
		}
		return model.Bid{}, fmt.Errorf("service: ledger hold for %s: %w: %v", bidderID, auctionerrors.ErrLedgerUnavailable, err)
	}

	bid := model.Bid{
		BidID:      utils.GenerateID(),
		PositionID: positionID,
		BidderID:   bidderID,
		Amount:     amount,
		Status:     model.BidActive,
		PlacedAt:   now,
	}
	hold := model.Hold{
		HoldID:  holdID,
		BidID:   bid.BidID,
		Account: bidderID,
		Amount:  amount,
		Status:  model.HoldHeld,
	}

	if err := s.store.CommitBid(bid, hold, prevBidID); err != nil {
		// Undo the fresh hold before reporting; the ledger release is
		// idempotent so a duplicate undo is harmless.
		s.releaseHold(ctx, holdID, bid.BidID)
		return model.Bid{}, fmt.Errorf("service: commit bid: %w", err)
	}

	if prevBidID != "" {
		s.releaseHold(ctx, prevHold.HoldID, prevBidID)
	}

	s.publish(ctx, events.PositionTopic(positionID), events.Envelope{
		Kind: events.KindBidAccepted,
		Data: events.BidAccepted{
			PositionID:     positionID,
			BidID:          bid.BidID,
			BidderID:       bid.BidderID,
			Amount:         bid.Amount,
			PlacedAt:       bid.PlacedAt,
			EndTime:        pos.EndTime,
			PositionStatus: string(pos.Status),
		},
	})
	return bid, nil
}

// releaseHold returns escrowed funds, logging instead of failing the caller:
// the store already records the hold as released and the ledger call is
// idempotent, so a missed release is retried by the next operator sweep.
func (s *AuctionService) releaseHold(ctx context.Context, holdID, bidID string) {
	relCtx, cancel := context.WithTimeout(ctx, s.cfg.LedgerTimeout)
	defer cancel()
	if err := s.ledger.Release(relCtx, holdID); err != nil {
		utils.Error("ledger release failed", map[string]any{
			"hold_id": holdID,
			"bid_id":  bidID,
			"error":   err.Error(),
		})
	}
}

// FinalizeResult is the tagged outcome of a finalize call, so redundant
// callers can tell a fresh election from an already-recorded one.
type FinalizeResult struct {
	Position         model.Position
	WinningBid       *model.Bid
	AlreadyFinalized bool
}

// Finalize elects the winner of an expired position exactly once. It is safe
// to call concurrently and repeatedly; every caller after the first observes
// the same terminal result.
func (s *AuctionService) Finalize(ctx context.Context, positionID string) (FinalizeResult, error) {
	if positionID == "" {
		return FinalizeResult{}, fmt.Errorf("service: %w - empty position ID", auctionerrors.ErrValidation)
	}

	unlock := s.locks.Lock(positionID)
	defer unlock()

	pos, err := s.store.GetPosition(positionID)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("service: %w", err)
	}

	switch pos.Status {
	case model.PositionCompleted:
		res := FinalizeResult{Position: pos, AlreadyFinalized: true}
		if pos.WinningBidID != "" {
			bid, err := s.store.GetBid(pos.WinningBidID)
			if err != nil {
				return FinalizeResult{}, fmt.Errorf("service: %w", err)
			}
			res.WinningBid = &bid
		}
		return res, nil
	case model.PositionPending, model.PositionCancelled:
		return FinalizeResult{}, fmt.Errorf("service: position %s (status %s): %w", positionID, pos.Status, auctionerrors.ErrPositionClosed)
	}

	if s.now().Before(pos.EndTime) {
		return FinalizeResult{}, fmt.Errorf("service: position %s ends at %s: %w", positionID, pos.EndTime.Format(time.RFC3339), auctionerrors.ErrNotYetExpired)
	}

	winningBidID := ""
	var winner model.Bid
	hasWinner := false
	winnerBid, err := s.store.ActiveBid(positionID)
	switch {
	case err == nil:
		winner = winnerBid
		winningBidID = winnerBid.BidID
		hasWinner = true
	case errors.Is(err, auctionerrors.ErrNoActiveBid):
	default:
		return FinalizeResult{}, fmt.Errorf("service: %w", err)
	}

	if hasWinner {
		hold, err := s.store.HoldForBid(winningBidID)
		if err != nil {
			return FinalizeResult{}, fmt.Errorf("service: %w", err)
		}
		// Capture before commit: if capture fails the position stays active
		// and the retry repeats the capture, which is idempotent.
		capCtx, cancel := context.WithTimeout(ctx, s.cfg.LedgerTimeout)
		err = s.ledger.Capture(capCtx, hold.HoldID)
		cancel()
		if err != nil {
			return FinalizeResult{}, fmt.Errorf("service: capture hold %s: %w: %v", hold.HoldID, auctionerrors.ErrLedgerUnavailable, err)
		}
	}

	updated, err := s.store.FinalizePosition(positionID, winningBidID)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("service: finalize position: %w", err)
	}

	finalized := events.PositionFinalized{
		PositionID:  positionID,
		Status:      string(updated.Status),
		FinalizedAt: s.now(),
	}
	res := FinalizeResult{Position: updated}
	if hasWinner {
		winner.Status = model.BidCompleted
		res.WinningBid = &winner
		finalized.WinningBidID = winner.BidID
		finalized.WinnerID = winner.BidderID
		amount := winner.Amount
		finalized.WinningAmount = &amount
	}
	s.publish(ctx, events.PositionTopic(positionID), events.Envelope{
		Kind: events.KindPositionFinalized,
		Data: finalized,
	})
	return res, nil
}

// Snapshot is the authoritative position state pushed to subscribers and
// served on reads; clients derive their countdown from it.
type Snapshot struct {
	Position   model.Position `json:"position"`
	HighestBid *model.Bid     `json:"highest_bid,omitempty"`
	RecentBids []model.Bid    `json:"recent_bids"`
	Remaining  time.Duration  `json:"remaining"`
}

// Snapshot returns the current state of a position.
func (s *AuctionService) Snapshot(positionID string) (Snapshot, error) {
	if positionID == "" {
		return Snapshot{}, fmt.Errorf("service: %w - empty position ID", auctionerrors.ErrValidation)
	}

	pos, err := s.store.GetPosition(positionID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("service: %w", err)
	}

	snap := Snapshot{
		Position:  pos,
		Remaining: model.Remaining(s.now(), pos.StartTime, pos.EndTime.Sub(pos.StartTime)),
	}

	highest, err := s.store.ActiveBid(positionID)
	switch {
	case err == nil:
		snap.HighestBid = &highest
	case errors.Is(err, auctionerrors.ErrNoActiveBid):
	default:
		return Snapshot{}, fmt.Errorf("service: %w", err)
	}

	bids, err := s.store.BidsForPosition(positionID, s.cfg.RecentBidsLimit)
	if err != nil {
		return Snapshot{}, fmt.Errorf("service: %w", err)
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	snap.RecentBids = bids
	return snap, nil
}

// BidsForPosition returns the bid history, newest first.
func (s *AuctionService) BidsForPosition(positionID string) ([]model.Bid, error) {
	if positionID == "" {
		return nil, fmt.Errorf("service: %w - empty position ID", auctionerrors.ErrValidation)
	}
	bids, err := s.store.BidsForPosition(positionID, 0)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return bids, nil
}

// CreatePosition registers a pending position owned by ownerID. The start
// trigger and schedule come from the scheduling collaborator; this engine
// only records them.
func (s *AuctionService) CreatePosition(ctx context.Context, category, ownerID string, startTime time.Time, duration time.Duration, startPrice decimal.Decimal) (model.Position, error) {
	if category == "" || ownerID == "" {
		return model.Position{}, fmt.Errorf("service: %w - missing category or ownerID", auctionerrors.ErrValidation)
	}
	if duration <= 0 {
		return model.Position{}, fmt.Errorf("service: %w - non-positive duration", auctionerrors.ErrValidation)
	}
	if startPrice.IsNegative() {
		return model.Position{}, fmt.Errorf("service: %w - negative start price", auctionerrors.ErrValidation)
	}

	pos := model.Position{
		PositionID: utils.GenerateID(),
		Category:   category,
		OwnerID:    ownerID,
		StartTime:  startTime,
		EndTime:    startTime.Add(duration),
		Status:     model.PositionPending,
		StartPrice: startPrice,
	}
	if err := s.store.CreatePosition(pos); err != nil {
		return model.Position{}, fmt.Errorf("service: create position: %w", err)
	}
	return pos, nil
}

// ActivatePosition starts the bidding window of a pending position.
func (s *AuctionService) ActivatePosition(ctx context.Context, positionID string) (model.Position, error) {
	unlock := s.locks.Lock(positionID)
	defer unlock()

	if err := s.store.ActivatePosition(positionID); err != nil {
		return model.Position{}, fmt.Errorf("service: %w", err)
	}
	pos, err := s.store.GetPosition(positionID)
	if err != nil {
		return model.Position{}, fmt.Errorf("service: %w", err)
	}
	s.publish(ctx, events.PositionTopic(positionID), events.Envelope{
		Kind: events.KindPositionActivated,
		Data: events.PositionStatusChanged{
			PositionID: positionID,
			Status:     string(pos.Status),
			StartTime:  pos.StartTime,
			EndTime:    pos.EndTime,
		},
	})
	return pos, nil
}

// CancelPosition withdraws a pending position before its window opens.
func (s *AuctionService) CancelPosition(ctx context.Context, positionID string) (model.Position, error) {
	unlock := s.locks.Lock(positionID)
	defer unlock()

	if err := s.store.CancelPosition(positionID); err != nil {
		return model.Position{}, fmt.Errorf("service: %w", err)
	}
	pos, err := s.store.GetPosition(positionID)
	if err != nil {
		return model.Position{}, fmt.Errorf("service: %w", err)
	}
	s.publish(ctx, events.PositionTopic(positionID), events.Envelope{
		Kind: events.KindPositionCancelled,
		Data: events.PositionStatusChanged{
			PositionID: positionID,
			Status:     string(pos.Status),
			StartTime:  pos.StartTime,
			EndTime:    pos.EndTime,
		},
	})
	return pos, nil
}

// publish emits an event after commit. A broken transport must not fail the
// committed operation, so failures are only logged.
func (s *AuctionService) publish(ctx context.Context, topic string, env events.Envelope) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, topic, env); err != nil {
		utils.Warn("event publish failed", map[string]any{
			"topic": topic,
			"kind":  env.Kind,
			"error": err.Error(),
		})
	}
}
