// Package chat implements the per-position messaging channel. Its data path
// is independent of bidding: a message send never waits on a bid commit, only
// on its own room's sequence assignment.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"position-auction/internal/auctionerrors"
	"position-auction/internal/events"
	"position-auction/internal/locks"
	model "position-auction/internal/models"
	"position-auction/internal/notify"
	"position-auction/internal/repository"
	"position-auction/utils"
)

const (
	maxContentLength    = 2000
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	defaultTypingTTL    = 6 * time.Second
)

// AuctionReader is the read-only slice of the auction store the chat needs to
// gate rooms on position existence and derive participants from bid history.
type AuctionReader interface {
	GetPosition(positionID string) (model.Position, error)
	Bidders(positionID string) ([]string, error)
}

// ChatService manages rooms, ordered messages, presence and typing state.
type ChatService struct {
	rooms    repository.ChatStore
	auctions AuctionReader
	notifier notify.Notifier
	locks    *locks.KeyLock
	now      func() time.Time

	typingMu  sync.Mutex
	typing    map[string]map[string]time.Time // roomID -> userID -> expiry
	typingTTL time.Duration
}

// Option customizes service construction.
type Option func(*ChatService)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

// WithTypingTTL overrides how long a typing indicator stays live without a
// refresh.
func WithTypingTTL(ttl time.Duration) Option {
	return func(s *ChatService) { s.typingTTL = ttl }
}

// NewChatService creates a new ChatService instance.
func NewChatService(rooms repository.ChatStore, auctions AuctionReader, notifier notify.Notifier, opts ...Option) *ChatService {
	s := &ChatService{
		rooms:     rooms,
		auctions:  auctions,
		notifier:  notifier,
		locks:     locks.NewKeyLock(),
		now:       time.Now,
		typing:    make(map[string]map[string]time.Time),
		typingTTL: defaultTypingTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Join adds a user to the room, creating it lazily, and broadcasts presence.
func (s *ChatService) Join(ctx context.Context, roomID, userID string) error {
	if roomID == "" || userID == "" {
		return fmt.Errorf("chat: %w - missing roomID or userID", auctionerrors.ErrValidation)
	}
	if _, err := s.auctions.GetPosition(roomID); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	if _, err := s.rooms.EnsureRoom(roomID, s.now()); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := s.rooms.JoinRoom(roomID, userID); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	s.publish(ctx, roomID, events.Envelope{
		Kind: events.KindPresence,
		Data: events.Presence{RoomID: roomID, UserID: userID, Action: "joined"},
	})
	return nil
}

// Leave removes an explicit join and broadcasts presence. A user who has bid
// remains a participant regardless of leaving the socket.
func (s *ChatService) Leave(ctx context.Context, roomID, userID string) error {
	if roomID == "" || userID == "" {
		return fmt.Errorf("chat: %w - missing roomID or userID", auctionerrors.ErrValidation)
	}
	if err := s.rooms.LeaveRoom(roomID, userID); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	s.clearTyping(roomID, userID)
	s.publish(ctx, roomID, events.Envelope{
		Kind: events.KindPresence,
		Data: events.Presence{RoomID: roomID, UserID: userID, Action: "left"},
	})
	return nil
}

// SendMessage stores a message with the room's next sequence number and
// broadcasts it. Sends are serialized per room so subscribers observe a single
// total order matching the sequence numbers.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID, content string) (model.ChatMessage, error) {
	if roomID == "" || senderID == "" {
		return model.ChatMessage{}, fmt.Errorf("chat: %w - missing roomID or senderID", auctionerrors.ErrValidation)
	}
	if content == "" {
		return model.ChatMessage{}, fmt.Errorf("chat: %w - empty message content", auctionerrors.ErrValidation)
	}
	if len(content) > maxContentLength {
		return model.ChatMessage{}, fmt.Errorf("chat: %w - message exceeds %d bytes", auctionerrors.ErrValidation, maxContentLength)
	}

	participant, err := s.isParticipant(roomID, senderID)
	if err != nil {
		return model.ChatMessage{}, err
	}
	if !participant {
		return model.ChatMessage{}, fmt.Errorf("chat: user %s in room %s: %w", senderID, roomID, auctionerrors.ErrNotParticipant)
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	if _, err := s.rooms.EnsureRoom(roomID, s.now()); err != nil {
		return model.ChatMessage{}, fmt.Errorf("chat: %w", err)
	}

	msg, err := s.rooms.AppendMessage(model.ChatMessage{
		MessageID: utils.GenerateID(),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.now(),
	})
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("chat: %w", err)
	}

	s.clearTyping(roomID, senderID)
	// Publish while still holding the room lock so broadcast order matches
	// sequence order.
	s.publish(ctx, roomID, events.Envelope{
		Kind: events.KindChatMessage,
		Data: events.ChatMessagePosted{Message: msg},
	})
	return msg, nil
}

// History returns up to limit messages before the sequence cursor, oldest
// first. A reconnecting client pages from its last known sequence.
func (s *ChatService) History(roomID string, beforeSeq int64, limit int) ([]model.ChatMessage, error) {
	if roomID == "" {
		return nil, fmt.Errorf("chat: %w - empty room ID", auctionerrors.ErrValidation)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	msgs, err := s.rooms.Messages(roomID, beforeSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return msgs, nil
}

// Participants returns the room's participant set: everyone who joined, every
// distinct bidder on the position, and the position owner.
func (s *ChatService) Participants(roomID string) ([]string, error) {
	if roomID == "" {
		return nil, fmt.Errorf("chat: %w - empty room ID", auctionerrors.ErrValidation)
	}

	pos, err := s.auctions.GetPosition(roomID)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	set := map[string]struct{}{pos.OwnerID: {}}

	bidders, err := s.auctions.Bidders(roomID)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	for _, id := range bidders {
		set[id] = struct{}{}
	}

	joined, err := s.rooms.JoinedUsers(roomID)
	if err != nil && !errors.Is(err, auctionerrors.ErrRoomNotFound) {
		return nil, fmt.Errorf("chat: %w", err)
	}
	for _, id := range joined {
		set[id] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Typing marks the user as typing; the indicator expires on its own if not
// refreshed. Nothing is persisted.
func (s *ChatService) Typing(ctx context.Context, roomID, userID string) error {
	return s.setTyping(ctx, roomID, userID, true)
}

// StopTyping clears the user's typing indicator.
func (s *ChatService) StopTyping(ctx context.Context, roomID, userID string) error {
	return s.setTyping(ctx, roomID, userID, false)
}

func (s *ChatService) setTyping(ctx context.Context, roomID, userID string, typing bool) error {
	if roomID == "" || userID == "" {
		return fmt.Errorf("chat: %w - missing roomID or userID", auctionerrors.ErrValidation)
	}
	if _, err := s.auctions.GetPosition(roomID); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	s.typingMu.Lock()
	if typing {
		if s.typing[roomID] == nil {
			s.typing[roomID] = make(map[string]time.Time)
		}
		s.typing[roomID][userID] = s.now().Add(s.typingTTL)
	} else {
		delete(s.typing[roomID], userID)
	}
	s.typingMu.Unlock()

	s.publish(ctx, roomID, events.Envelope{
		Kind: events.KindTyping,
		Data: events.Typing{RoomID: roomID, UserID: userID, Typing: typing},
	})
	return nil
}

// TypingUsers returns the users currently typing in a room, expired
// indicators pruned.
func (s *ChatService) TypingUsers(roomID string) []string {
	now := s.now()

	s.typingMu.Lock()
	defer s.typingMu.Unlock()

	var out []string
	for userID, expiry := range s.typing[roomID] {
		if expiry.After(now) {
			out = append(out, userID)
		} else {
			delete(s.typing[roomID], userID)
		}
	}
	sort.Strings(out)
	return out
}

func (s *ChatService) clearTyping(roomID, userID string) {
	s.typingMu.Lock()
	delete(s.typing[roomID], userID)
	s.typingMu.Unlock()
}

func (s *ChatService) isParticipant(roomID, userID string) (bool, error) {
	participants, err := s.Participants(roomID)
	if err != nil {
		return false, err
	}
	for _, id := range participants {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// publish emits a room event; transport failures are logged, not surfaced.
func (s *ChatService) publish(ctx context.Context, roomID string, env events.Envelope) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, events.RoomTopic(roomID), env); err != nil {
		utils.Warn("room event publish failed", map[string]any{
			"room_id": roomID,
			"kind":    env.Kind,
			"error":   err.Error(),
		})
	}
}
