package repository

import (
	"time"

	model "position-auction/internal/models"
)

// AuctionStore defines the durable state for positions, bids and holds. It is
// the only writer of the current highest bid. Multi-entity mutations
// (CommitBid, FinalizePosition) are atomic: they either apply fully or leave
// the store untouched.
type AuctionStore interface {
	CreatePosition(p model.Position) error
	GetPosition(positionID string) (model.Position, error)
	// ActivatePosition moves pending -> active; any other source status is an
	// invalid transition.
	ActivatePosition(positionID string) error
	// CancelPosition moves pending -> cancelled. Active and terminal positions
	// cannot be cancelled through this path.
	CancelPosition(positionID string) error

	GetBid(bidID string) (model.Bid, error)
	// ActiveBid returns the single active bid for a position, or ErrNoActiveBid.
	ActiveBid(positionID string) (model.Bid, error)
	// BidsForPosition returns bids newest-first, at most limit (0 = all).
	BidsForPosition(positionID string, limit int) ([]model.Bid, error)
	HoldForBid(bidID string) (model.Hold, error)
	// Bidders returns the distinct bidder ids seen on a position.
	Bidders(positionID string) ([]string, error)

	// CommitBid atomically inserts the new active bid with its hold, and marks
	// the superseded bid outbid and its hold released. prevBidID is the bid the
	// caller validated against ("" for a first bid); if the current active bid
	// has changed in the meantime the commit fails with ErrConflict and nothing
	// is applied.
	CommitBid(bid model.Bid, hold model.Hold, prevBidID string) error

	// FinalizePosition atomically completes an active position. With a
	// winningBidID it marks that bid completed and its hold captured; with ""
	// the position completes without a winner. Returns the updated position.
	FinalizePosition(positionID, winningBidID string) (model.Position, error)

	// ExpiredActive lists active positions whose end time is not after now.
	ExpiredActive(now time.Time) ([]string, error)
}

// ChatStore defines the durable state for rooms and messages. AppendMessage
// assigns the room's next sequence number atomically, so sequences are gapless
// and strictly increasing per room.
type ChatStore interface {
	EnsureRoom(roomID string, now time.Time) (model.ChatRoom, error)
	AppendMessage(msg model.ChatMessage) (model.ChatMessage, error)
	// Messages returns up to limit messages with sequence < beforeSeq in
	// ascending sequence order. beforeSeq <= 0 means "from the latest".
	Messages(roomID string, beforeSeq int64, limit int) ([]model.ChatMessage, error)
	JoinRoom(roomID, userID string) error
	LeaveRoom(roomID, userID string) error
	// JoinedUsers returns the users who explicitly joined the room.
	JoinedUsers(roomID string) ([]string, error)
}
