package events

import (
	"time"

	"github.com/shopspring/decimal"

	model "position-auction/internal/models"
)

// Event kinds carried on position and room topics.
const (
	KindBidAccepted       = "bid.accepted"
	KindPositionActivated = "position.activated"
	KindPositionCancelled = "position.cancelled"
	KindPositionFinalized = "position.finalized"

	KindChatMessage = "chat.message"
	KindPresence    = "chat.presence"
	KindTyping      = "chat.typing"
)

// PositionTopic is the fan-out topic for one position's bid/lifecycle stream.
func PositionTopic(positionID string) string {
	return "position:" + positionID
}

// RoomTopic is the fan-out topic for one chat room's stream.
func RoomTopic(roomID string) string {
	return "room:" + roomID
}

// Envelope wraps every published payload with its kind so subscribers on a
// mixed topic can dispatch without sniffing fields.
type Envelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// BidAccepted carries the new highest bid plus enough of the position snapshot
// for clients to recompute their countdown.
type BidAccepted struct {
	PositionID     string          `json:"position_id"`
	BidID          string          `json:"bid_id"`
	BidderID       string          `json:"bidder_id"`
	Amount         decimal.Decimal `json:"amount"`
	PlacedAt       time.Time       `json:"placed_at"`
	EndTime        time.Time       `json:"end_time"`
	PositionStatus string          `json:"position_status"`
}

// PositionFinalized announces the terminal auction result.
type PositionFinalized struct {
	PositionID    string           `json:"position_id"`
	Status        string           `json:"status"`
	WinningBidID  string           `json:"winning_bid_id,omitempty"`
	WinnerID      string           `json:"winner_id,omitempty"`
	WinningAmount *decimal.Decimal `json:"winning_amount,omitempty"`
	FinalizedAt   time.Time        `json:"finalized_at"`
}

// PositionStatusChanged covers the non-terminal status transitions.
type PositionStatusChanged struct {
	PositionID string    `json:"position_id"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// ChatMessagePosted broadcasts a committed room message.
type ChatMessagePosted struct {
	Message model.ChatMessage `json:"message"`
}

// Presence announces a participant joining or leaving a room.
type Presence struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Action string `json:"action"` // "joined" or "left"
}

// Typing is the ephemeral typing indicator; it is never persisted.
type Typing struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Typing bool   `json:"typing"`
}
