package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"position-auction/internal/auctionerrors"
	model "position-auction/internal/models"
)

// GORM row types. Amounts are stored as numeric strings to keep decimal
// precision across drivers.
type positionRow struct {
	PositionID   string    `gorm:"primaryKey"`
	Category     string    `gorm:"not null;index"`
	OwnerID      string    `gorm:"not null"`
	StartTime    time.Time `gorm:"not null"`
	EndTime      time.Time `gorm:"not null;index"`
	Status       string    `gorm:"not null;index"`
	WinningBidID string
	Version      int64  `gorm:"not null;default:0"`
	StartPrice   string `gorm:"not null"`
}

type bidRow struct {
	BidID      string    `gorm:"primaryKey"`
	PositionID string    `gorm:"not null;index:idx_bids_position_placed"`
	BidderID   string    `gorm:"not null;index"`
	Amount     string    `gorm:"not null"`
	Status     string    `gorm:"not null;index"`
	PlacedAt   time.Time `gorm:"not null;index:idx_bids_position_placed"`
}

type holdRow struct {
	BidID   string `gorm:"primaryKey"`
	HoldID  string `gorm:"not null;uniqueIndex"`
	Account string `gorm:"not null"`
	Amount  string `gorm:"not null"`
	Status  string `gorm:"not null"`
}

type chatRoomRow struct {
	RoomID       string    `gorm:"primaryKey"`
	LastSequence int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
}

type chatMessageRow struct {
	MessageID string    `gorm:"primaryKey"`
	RoomID    string    `gorm:"not null;index:idx_messages_room_seq,unique"`
	SenderID  string    `gorm:"not null"`
	Content   string    `gorm:"not null"`
	Sequence  int64     `gorm:"not null;index:idx_messages_room_seq,unique"`
	CreatedAt time.Time `gorm:"not null"`
}

type roomMemberRow struct {
	RoomID string `gorm:"primaryKey"`
	UserID string `gorm:"primaryKey"`
}

// GormStore implements AuctionStore and ChatStore on Postgres. Per-position
// mutations lock the position row (SELECT ... FOR UPDATE) so concurrent
// writers from other instances serialize at the database; the optimistic
// prev-bid check still applies on top of that.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&positionRow{}, &bidRow{}, &holdRow{}, &chatRoomRow{}, &chatMessageRow{}, &roomMemberRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func positionToRow(p model.Position) positionRow {
	return positionRow{
		PositionID:   p.PositionID,
		Category:     p.Category,
		OwnerID:      p.OwnerID,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		Status:       string(p.Status),
		WinningBidID: p.WinningBidID,
		Version:      p.Version,
		StartPrice:   p.StartPrice.String(),
	}
}

func positionFromRow(r positionRow) (model.Position, error) {
	price, err := decimal.NewFromString(r.StartPrice)
	if err != nil {
		return model.Position{}, fmt.Errorf("parse start price for position %s: %w", r.PositionID, err)
	}
	return model.Position{
		PositionID:   r.PositionID,
		Category:     r.Category,
		OwnerID:      r.OwnerID,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Status:       model.PositionStatus(r.Status),
		WinningBidID: r.WinningBidID,
		Version:      r.Version,
		StartPrice:   price,
	}, nil
}

func bidFromRow(r bidRow) (model.Bid, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return model.Bid{}, fmt.Errorf("parse amount for bid %s: %w", r.BidID, err)
	}
	return model.Bid{
		BidID:      r.BidID,
		PositionID: r.PositionID,
		BidderID:   r.BidderID,
		Amount:     amount,
		Status:     model.BidStatus(r.Status),
		PlacedAt:   r.PlacedAt,
	}, nil
}

func holdFromRow(r holdRow) (model.Hold, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return model.Hold{}, fmt.Errorf("parse amount for hold %s: %w", r.HoldID, err)
	}
	return model.Hold{
		HoldID:  r.HoldID,
		BidID:   r.BidID,
		Account: r.Account,
		Amount:  amount,
		Status:  model.HoldStatus(r.Status),
	}, nil
}

// CreatePosition registers a new position; duplicate ids are rejected.
func (s *GormStore) CreatePosition(p model.Position) error {
	if p.Status == "" {
		p.Status = model.PositionPending
	}
	row := positionToRow(p)
	err := s.db.Create(&row).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("create position %s: %w", p.PositionID, auctionerrors.ErrConflict)
	}
	return err
}

// GetPosition returns a position by id.
func (s *GormStore) GetPosition(positionID string) (model.Position, error) {
	var row positionRow
	if err := s.db.First(&row, "position_id = ?", positionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Position{}, fmt.Errorf("get position %s: %w", positionID, auctionerrors.ErrPositionNotFound)
		}
		return model.Position{}, err
	}
	return positionFromRow(row)
}

func (s *GormStore) transition(positionID string, from, to model.PositionStatus) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var row positionRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "position_id = ?", positionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("position %s: %w", positionID, auctionerrors.ErrPositionNotFound)
			}
			return err
		}
		if model.PositionStatus(row.Status) != from {
			return fmt.Errorf("position %s from %s to %s: %w", positionID, row.Status, to, auctionerrors.ErrInvalidTransition)
		}
		return tx.Model(&positionRow{}).
			Where("position_id = ?", positionID).
			Updates(map[string]any{"status": string(to), "version": row.Version + 1}).Error
	})
}

// ActivatePosition moves a pending position to active.
func (s *GormStore) ActivatePosition(positionID string) error {
	return s.transition(positionID, model.PositionPending, model.PositionActive)
}

// CancelPosition moves a pending position to cancelled.
func (s *GormStore) CancelPosition(positionID string) error {
	return s.transition(positionID, model.PositionPending, model.PositionCancelled)
}

// GetBid returns a bid by id.
func (s *GormStore) GetBid(bidID string) (model.Bid, error) {
	var row bidRow
	if err := s.db.First(&row, "bid_id = ?", bidID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
		}
		return model.Bid{}, err
	}
	return bidFromRow(row)
}

// ActiveBid returns the single active bid for a position.
func (s *GormStore) ActiveBid(positionID string) (model.Bid, error) {
	var row bidRow
	err := s.db.Where("position_id = ? AND status = ?", positionID, string(model.BidActive)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Bid{}, fmt.Errorf("active bid for position %s: %w", positionID, auctionerrors.ErrNoActiveBid)
		}
		return model.Bid{}, err
	}
	return bidFromRow(row)
}

// BidsForPosition returns bids newest-first, at most limit (0 = all).
func (s *GormStore) BidsForPosition(positionID string, limit int) ([]model.Bid, error) {
	if _, err := s.GetPosition(positionID); err != nil {
		return nil, err
	}
	q := s.db.Where("position_id = ?", positionID).Order("placed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []bidRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Bid, 0, len(rows))
	for _, r := range rows {
		b, err := bidFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// HoldForBid returns the escrow hold tied to a bid.
func (s *GormStore) HoldForBid(bidID string) (model.Hold, error) {
	var row holdRow
	if err := s.db.First(&row, "bid_id = ?", bidID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Hold{}, fmt.Errorf("hold for bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
		}
		return model.Hold{}, err
	}
	return holdFromRow(row)
}

// Bidders returns the distinct bidder ids seen on a position, sorted.
func (s *GormStore) Bidders(positionID string) ([]string, error) {
	var out []string
	err := s.db.Model(&bidRow{}).
		Distinct("bidder_id").
		Where("position_id = ?", positionID).
		Order("bidder_id ASC").
		Pluck("bidder_id", &out).Error
	return out, err
}

// CommitBid atomically installs a new active bid and supersedes the previous one.
func (s *GormStore) CommitBid(bid model.Bid, hold model.Hold, prevBidID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var pos positionRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&pos, "position_id = ?", bid.PositionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("commit bid for position %s: %w", bid.PositionID, auctionerrors.ErrPositionNotFound)
			}
			return err
		}

		var current bidRow
		currentID := ""
		err := tx.Where("position_id = ? AND status = ?", bid.PositionID, string(model.BidActive)).First(&current).Error
		switch {
		case err == nil:
			currentID = current.BidID
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}
		if currentID != prevBidID {
			return fmt.Errorf("commit bid %s for position %s: %w", bid.BidID, bid.PositionID, auctionerrors.ErrConflict)
		}

		newBid := bidRow{
			BidID:      bid.BidID,
			PositionID: bid.PositionID,
			BidderID:   bid.BidderID,
			Amount:     bid.Amount.String(),
			Status:     string(model.BidActive),
			PlacedAt:   bid.PlacedAt,
		}
		if err := tx.Create(&newBid).Error; err != nil {
			return err
		}
		newHold := holdRow{
			BidID:   bid.BidID,
			HoldID:  hold.HoldID,
			Account: hold.Account,
			Amount:  hold.Amount.String(),
			Status:  string(model.HoldHeld),
		}
		if err := tx.Create(&newHold).Error; err != nil {
			return err
		}

		if prevBidID != "" {
			if err := tx.Model(&bidRow{}).Where("bid_id = ?", prevBidID).
				Update("status", string(model.BidOutbid)).Error; err != nil {
				return err
			}
			if err := tx.Model(&holdRow{}).Where("bid_id = ?", prevBidID).
				Update("status", string(model.HoldReleased)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&positionRow{}).Where("position_id = ?", bid.PositionID).
			Update("version", pos.Version+1).Error
	})
}

// FinalizePosition atomically completes an active position.
func (s *GormStore) FinalizePosition(positionID, winningBidID string) (model.Position, error) {
	var out model.Position
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var pos positionRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&pos, "position_id = ?", positionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("finalize position %s: %w", positionID, auctionerrors.ErrPositionNotFound)
			}
			return err
		}
		if model.PositionStatus(pos.Status) != model.PositionActive {
			return fmt.Errorf("finalize position %s in status %s: %w", positionID, pos.Status, auctionerrors.ErrConflict)
		}

		if winningBidID != "" {
			res := tx.Model(&bidRow{}).
				Where("bid_id = ? AND position_id = ? AND status = ?", winningBidID, positionID, string(model.BidActive)).
				Update("status", string(model.BidCompleted))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("finalize position %s: bid %s is no longer active: %w", positionID, winningBidID, auctionerrors.ErrConflict)
			}
			if err := tx.Model(&holdRow{}).Where("bid_id = ?", winningBidID).
				Update("status", string(model.HoldCaptured)).Error; err != nil {
				return err
			}
		}

		updates := map[string]any{
			"status":  string(model.PositionCompleted),
			"version": pos.Version + 1,
		}
		if winningBidID != "" {
			updates["winning_bid_id"] = winningBidID
		}
		if err := tx.Model(&positionRow{}).Where("position_id = ?", positionID).Updates(updates).Error; err != nil {
			return err
		}

		pos.Status = string(model.PositionCompleted)
		pos.WinningBidID = winningBidID
		pos.Version++
		var convErr error
		out, convErr = positionFromRow(pos)
		return convErr
	})
	if err != nil {
		return model.Position{}, err
	}
	return out, nil
}

// ExpiredActive lists active positions whose end time is not after now.
func (s *GormStore) ExpiredActive(now time.Time) ([]string, error) {
	var out []string
	err := s.db.Model(&positionRow{}).
		Where("status = ? AND end_time <= ?", string(model.PositionActive), now).
		Order("position_id ASC").
		Pluck("position_id", &out).Error
	return out, err
}

// EnsureRoom creates the room on first use.
func (s *GormStore) EnsureRoom(roomID string, now time.Time) (model.ChatRoom, error) {
	row := chatRoomRow{RoomID: roomID, CreatedAt: now}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return model.ChatRoom{}, err
	}
	var got chatRoomRow
	if err := s.db.First(&got, "room_id = ?", roomID).Error; err != nil {
		return model.ChatRoom{}, err
	}
	return model.ChatRoom{RoomID: got.RoomID, CreatedAt: got.CreatedAt}, nil
}

// AppendMessage assigns the next sequence under the room row lock.
func (s *GormStore) AppendMessage(msg model.ChatMessage) (model.ChatMessage, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var room chatRoomRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, "room_id = ?", msg.RoomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("append message to room %s: %w", msg.RoomID, auctionerrors.ErrRoomNotFound)
			}
			return err
		}

		msg.Sequence = room.LastSequence + 1
		row := chatMessageRow{
			MessageID: msg.MessageID,
			RoomID:    msg.RoomID,
			SenderID:  msg.SenderID,
			Content:   msg.Content,
			Sequence:  msg.Sequence,
			CreatedAt: msg.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&chatRoomRow{}).Where("room_id = ?", msg.RoomID).
			Update("last_sequence", msg.Sequence).Error
	})
	if err != nil {
		return model.ChatMessage{}, err
	}
	return msg, nil
}

// Messages returns up to limit messages with sequence < beforeSeq, ascending.
func (s *GormStore) Messages(roomID string, beforeSeq int64, limit int) ([]model.ChatMessage, error) {
	var room chatRoomRow
	if err := s.db.First(&room, "room_id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("messages for room %s: %w", roomID, auctionerrors.ErrRoomNotFound)
		}
		return nil, err
	}

	q := s.db.Where("room_id = ?", roomID)
	if beforeSeq > 0 {
		q = q.Where("sequence < ?", beforeSeq)
	}
	// Page from the cursor backwards, then flip to ascending order.
	q = q.Order("sequence DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []chatMessageRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.ChatMessage, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = model.ChatMessage{
			MessageID: r.MessageID,
			RoomID:    r.RoomID,
			SenderID:  r.SenderID,
			Content:   r.Content,
			Sequence:  r.Sequence,
			CreatedAt: r.CreatedAt,
		}
	}
	return out, nil
}

// JoinRoom records an explicit join.
func (s *GormStore) JoinRoom(roomID, userID string) error {
	var room chatRoomRow
	if err := s.db.First(&room, "room_id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("join room %s: %w", roomID, auctionerrors.ErrRoomNotFound)
		}
		return err
	}
	row := roomMemberRow{RoomID: roomID, UserID: userID}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// LeaveRoom removes an explicit join.
func (s *GormStore) LeaveRoom(roomID, userID string) error {
	var room chatRoomRow
	if err := s.db.First(&room, "room_id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("leave room %s: %w", roomID, auctionerrors.ErrRoomNotFound)
		}
		return err
	}
	return s.db.Delete(&roomMemberRow{}, "room_id = ? AND user_id = ?", roomID, userID).Error
}

// JoinedUsers returns the users who explicitly joined, sorted.
func (s *GormStore) JoinedUsers(roomID string) ([]string, error) {
	var out []string
	err := s.db.Model(&roomMemberRow{}).
		Where("room_id = ?", roomID).
		Order("user_id ASC").
		Pluck("user_id", &out).Error
	return out, err
}
