package helpers

import "github.com/shopspring/decimal"

// Request/Response DTOs
type CreatePositionRequest struct {
	Category   string          `json:"category" binding:"required"`
	StartTime  string          `json:"start_time" binding:"required"`
	DurationMS int64           `json:"duration_ms" binding:"required,gt=0"`
	StartPrice decimal.Decimal `json:"start_price"`
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type PositionResponse struct {
	PositionID   string `json:"position_id"`
	Category     string `json:"category"`
	OwnerID      string `json:"owner_id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Status       string `json:"status"`
	WinningBidID string `json:"winning_bid_id,omitempty"`
	StartPrice   string `json:"start_price"`
}

type BidResponse struct {
	BidID      string `json:"bid_id"`
	PositionID string `json:"position_id"`
	BidderID   string `json:"bidder_id"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
	PlacedAt   string `json:"placed_at"`
}

type SnapshotResponse struct {
	Position    PositionResponse `json:"position"`
	HighestBid  *BidResponse     `json:"highest_bid,omitempty"`
	RecentBids  []BidResponse    `json:"recent_bids"`
	RemainingMS int64            `json:"remaining_ms"`
}

type FinalizeResponse struct {
	Position         PositionResponse `json:"position"`
	WinningBid       *BidResponse     `json:"winning_bid,omitempty"`
	AlreadyFinalized bool             `json:"already_finalized"`
}

// StaleBidDetails is attached to rejected-bid responses so the caller can
// correct and resubmit without another round trip.
type StaleBidDetails struct {
	CurrentHighest string `json:"current_highest"`
	MinIncrement   string `json:"min_increment"`
}
