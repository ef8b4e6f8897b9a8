package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of an auctioned position.
type PositionStatus string

const (
	PositionPending   PositionStatus = "pending"
	PositionActive    PositionStatus = "active"
	PositionCompleted PositionStatus = "completed"
	PositionCancelled PositionStatus = "cancelled"
)

// BidStatus is the lifecycle state of a single bid.
type BidStatus string

const (
	BidActive    BidStatus = "active"
	BidOutbid    BidStatus = "outbid"
	BidCompleted BidStatus = "completed"
	BidRejected  BidStatus = "rejected"
)

// HoldStatus is the state of an escrow hold in the ledger.
type HoldStatus string

const (
	HoldHeld     HoldStatus = "held"
	HoldReleased HoldStatus = "released"
	HoldCaptured HoldStatus = "captured"
)

// Position represents a time-boxed advertising slot being auctioned
type Position struct {
	PositionID   string          `json:"position_id"`
	Category     string          `json:"category"`
	OwnerID      string          `json:"owner_id"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	Status       PositionStatus  `json:"status"`
	WinningBidID string          `json:"winning_bid_id,omitempty"`
	Version      int64           `json:"-"`
	StartPrice   decimal.Decimal `json:"start_price"`
}

// Bid represents a seller's offer for a position, backed by an escrow hold
type Bid struct {
	BidID      string          `json:"bid_id"`
	PositionID string          `json:"position_id"`
	BidderID   string          `json:"bidder_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     BidStatus       `json:"status"`
	PlacedAt   time.Time       `json:"placed_at"`
}

// Hold represents a reservation of funds tied 1:1 to a bid
type Hold struct {
	HoldID  string          `json:"hold_id"`
	BidID   string          `json:"bid_id"`
	Account string          `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
	Status  HoldStatus      `json:"status"`
}

// ChatRoom is the per-position messaging channel
type ChatRoom struct {
	RoomID    string    `json:"room_id"` // same as the position id
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is a single immutable message within a room
type ChatMessage struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Sequence  int64     `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}
