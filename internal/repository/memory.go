package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"position-auction/internal/auctionerrors"
	model "position-auction/internal/models"
)

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore
// and ChatStore. Each exported method is individually atomic; per-position
// serialization of bid/finalize flows is the caller's job.
type MemoryStore struct {
	mu        sync.RWMutex
	positions map[string]model.Position
	bids      map[string]model.Bid      // key: bidID
	posBids   map[string][]string       // key: positionID -> bid ids, placement order
	activeBid map[string]string         // key: positionID -> active bidID
	holds     map[string]model.Hold     // key: bidID (holds are 1:1 with bids)
	bidders   map[string]map[string]struct{} // key: positionID -> distinct bidder ids

	chatMu   sync.RWMutex
	rooms    map[string]model.ChatRoom
	roomSeq  map[string]int64                 // key: roomID -> last assigned sequence
	messages map[string][]model.ChatMessage   // key: roomID, ascending sequence
	joined   map[string]map[string]struct{}   // key: roomID -> explicitly joined users
}

// NewMemoryStore creates a new in-memory store instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		positions: make(map[string]model.Position),
		bids:      make(map[string]model.Bid),
		posBids:   make(map[string][]string),
		activeBid: make(map[string]string),
		holds:     make(map[string]model.Hold),
		bidders:   make(map[string]map[string]struct{}),
		rooms:     make(map[string]model.ChatRoom),
		roomSeq:   make(map[string]int64),
		messages:  make(map[string][]model.ChatMessage),
		joined:    make(map[string]map[string]struct{}),
	}
}

// CreatePosition registers a new position; duplicate ids are rejected.
func (s *MemoryStore) CreatePosition(p model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[p.PositionID]; ok {
		return fmt.Errorf("create position %s: %w", p.PositionID, auctionerrors.ErrConflict)
	}
	if p.Status == "" {
		p.Status = model.PositionPending
	}
	s.positions[p.PositionID] = p
	return nil
}

// GetPosition returns a position by id.
func (s *MemoryStore) GetPosition(positionID string) (model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[positionID]
	if !ok {
		return model.Position{}, fmt.Errorf("get position %s: %w", positionID, auctionerrors.ErrPositionNotFound)
	}
	return p, nil
}

// ActivatePosition moves a pending position to active.
func (s *MemoryStore) ActivatePosition(positionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[positionID]
	if !ok {
		return fmt.Errorf("activate position %s: %w", positionID, auctionerrors.ErrPositionNotFound)
	}
	if p.Status != model.PositionPending {
		return fmt.Errorf("activate position %s from %s: %w", positionID, p.Status, auctionerrors.ErrInvalidTransition)
	}
	p.Status = model.PositionActive
	p.Version++
	s.positions[positionID] = p
	return nil
}

// CancelPosition moves a pending position to cancelled.
func (s *MemoryStore) CancelPosition(positionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[positionID]
	if !ok {
		return fmt.Errorf("cancel position %s: %w", positionID, auctionerrors.ErrPositionNotFound)
	}
	if p.Status != model.PositionPending {
		return fmt.Errorf("cancel position %s from %s: %w", positionID, p.Status, auctionerrors.ErrInvalidTransition)
	}
	p.Status = model.PositionCancelled
	p.Version++
	s.positions[positionID] = p
	return nil
}

// GetBid returns a bid by id.
func (s *MemoryStore) GetBid(bidID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bids[bidID]
	if !ok {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	return b, nil
}

// ActiveBid returns the single active bid for a position.
func (s *MemoryStore) ActiveBid(positionID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bidID, ok := s.activeBid[positionID]
	if !ok {
		return model.Bid{}, fmt.Errorf("active bid for position %s: %w", positionID, auctionerrors.ErrNoActiveBid)
	}
	return s.bids[bidID], nil
}

// BidsForPosition returns bids newest-first, at most limit (0 = all).
func (s *MemoryStore) BidsForPosition(positionID string, limit int) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.positions[positionID]; !ok {
		return nil, fmt.Errorf("bids for position %s: %w", positionID, auctionerrors.ErrPositionNotFound)
	}

	ids := s.posBids[positionID]
	out := make([]model.Bid, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, s.bids[ids[i]])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// HoldForBid returns the escrow hold tied to a bid.
func (s *MemoryStore) HoldForBid(bidID string) (model.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.holds[bidID]
	if !ok {
		return model.Hold{}, fmt.Errorf("hold for bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	return h, nil
}

// Bidders returns the distinct bidder ids seen on a position, sorted.
func (s *MemoryStore) Bidders(positionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.bidders[positionID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// CommitBid atomically installs a new active bid and supersedes the previous one.
func (s *MemoryStore) CommitBid(bid model.Bid, hold model.Hold, prevBidID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[bid.PositionID]
	if !ok {
		return fmt.Errorf("commit bid for position %s: %w", bid.PositionID, auctionerrors.ErrPositionNotFound)
	}

	// Check-and-set keyed on the previous active bid id: a concurrent commit
	// since the caller's read invalidates this one.
	if current := s.activeBid[bid.PositionID]; current != prevBidID {
		return fmt.Errorf("commit bid %s for position %s: %w", bid.BidID, bid.PositionID, auctionerrors.ErrConflict)
	}

	bid.Status = model.BidActive
	hold.Status = model.HoldHeld
	hold.BidID = bid.BidID

	s.bids[bid.BidID] = bid
	s.posBids[bid.PositionID] = append(s.posBids[bid.PositionID], bid.BidID)
	s.holds[bid.BidID] = hold
	s.activeBid[bid.PositionID] = bid.BidID

	if prevBidID != "" {
		prev := s.bids[prevBidID]
		prev.Status = model.BidOutbid
		s.bids[prevBidID] = prev

		prevHold := s.holds[prevBidID]
		prevHold.Status = model.HoldReleased
		s.holds[prevBidID] = prevHold
	}

	if s.bidders[bid.PositionID] == nil {
		s.bidders[bid.PositionID] = make(map[string]struct{})
	}
	s.bidders[bid.PositionID][bid.BidderID] = struct{}{}

	p.Version++
	s.positions[bid.PositionID] = p
	return nil
}

// FinalizePosition atomically completes an active position.
func (s *MemoryStore) FinalizePosition(positionID, winningBidID string) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[positionID]
	if !ok {
		return model.Position{}, fmt.Errorf("finalize position %s: %w", positionID, auctionerrors.ErrPositionNotFound)
	}
	if p.Status != model.PositionActive {
		return model.Position{}, fmt.Errorf("finalize position %s in status %s: %w", positionID, p.Status, auctionerrors.ErrConflict)
	}

	if winningBidID != "" {
		bid, ok := s.bids[winningBidID]
		if !ok || bid.PositionID != positionID {
			return model.Position{}, fmt.Errorf("finalize position %s with bid %s: %w", positionID, winningBidID, auctionerrors.ErrBidNotFound)
		}
		if s.activeBid[positionID] != winningBidID {
			return model.Position{}, fmt.Errorf("finalize position %s: bid %s is no longer active: %w", positionID, winningBidID, auctionerrors.ErrConflict)
		}

		bid.Status = model.BidCompleted
		s.bids[winningBidID] = bid

		hold := s.holds[winningBidID]
		hold.Status = model.HoldCaptured
		s.holds[winningBidID] = hold

		p.WinningBidID = winningBidID
	}

	delete(s.activeBid, positionID)
	p.Status = model.PositionCompleted
	p.Version++
	s.positions[positionID] = p
	return p, nil
}

// ExpiredActive lists active positions whose end time is not after now.
func (s *MemoryStore) ExpiredActive(now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for id, p := range s.positions {
		if p.Status == model.PositionActive && !p.EndTime.After(now) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// EnsureRoom creates the room on first use.
func (s *MemoryStore) EnsureRoom(roomID string, now time.Time) (model.ChatRoom, error) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	if room, ok := s.rooms[roomID]; ok {
		return room, nil
	}
	room := model.ChatRoom{RoomID: roomID, CreatedAt: now}
	s.rooms[roomID] = room
	return room, nil
}

// AppendMessage assigns the next sequence for the room and stores the message.
func (s *MemoryStore) AppendMessage(msg model.ChatMessage) (model.ChatMessage, error) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	if _, ok := s.rooms[msg.RoomID]; !ok {
		return model.ChatMessage{}, fmt.Errorf("append message to room %s: %w", msg.RoomID, auctionerrors.ErrRoomNotFound)
	}

	s.roomSeq[msg.RoomID]++
	msg.Sequence = s.roomSeq[msg.RoomID]
	s.messages[msg.RoomID] = append(s.messages[msg.RoomID], msg)
	return msg, nil
}

// Messages returns up to limit messages with sequence < beforeSeq, ascending.
func (s *MemoryStore) Messages(roomID string, beforeSeq int64, limit int) ([]model.ChatMessage, error) {
	s.chatMu.RLock()
	defer s.chatMu.RUnlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil, fmt.Errorf("messages for room %s: %w", roomID, auctionerrors.ErrRoomNotFound)
	}

	msgs := s.messages[roomID]
	end := len(msgs)
	if beforeSeq > 0 {
		// Messages are stored in ascending sequence order with sequence == index+1.
		if beforeSeq-1 < int64(end) {
			end = int(beforeSeq - 1)
		}
	}
	start := 0
	if limit > 0 && end-limit > 0 {
		start = end - limit
	}
	return append([]model.ChatMessage(nil), msgs[start:end]...), nil
}

// JoinRoom records an explicit join.
func (s *MemoryStore) JoinRoom(roomID, userID string) error {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return fmt.Errorf("join room %s: %w", roomID, auctionerrors.ErrRoomNotFound)
	}
	if s.joined[roomID] == nil {
		s.joined[roomID] = make(map[string]struct{})
	}
	s.joined[roomID][userID] = struct{}{}
	return nil
}

// LeaveRoom removes an explicit join; bidders remain participants regardless.
func (s *MemoryStore) LeaveRoom(roomID, userID string) error {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return fmt.Errorf("leave room %s: %w", roomID, auctionerrors.ErrRoomNotFound)
	}
	delete(s.joined[roomID], userID)
	return nil
}

// JoinedUsers returns the users who explicitly joined, sorted.
func (s *MemoryStore) JoinedUsers(roomID string) ([]string, error) {
	s.chatMu.RLock()
	defer s.chatMu.RUnlock()

	set := s.joined[roomID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
