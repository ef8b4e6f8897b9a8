package auctionerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrPositionNotFound  = errors.New("position not found")
	ErrBidNotFound       = errors.New("bid not found")
	ErrRoomNotFound      = errors.New("chat room not found")
	ErrHoldNotFound      = errors.New("hold not found")
	ErrNoActiveBid       = errors.New("no active bid for position")
	ErrConflict          = errors.New("concurrent update conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Business logic errors
var (
	ErrValidation        = errors.New("invalid input")
	ErrPositionClosed    = errors.New("position is not open for bidding")
	ErrNotYetExpired     = errors.New("position has not reached its end time")
	ErrInsufficientFunds = errors.New("insufficient funds for hold")
	ErrStaleBid          = errors.New("bid below required minimum")
	ErrNotParticipant    = errors.New("user is not a room participant")
)

// Dependency errors
var (
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)

// StaleBidError reports the floor a rejected bidder must clear on retry.
type StaleBidError struct {
	CurrentHighest decimal.Decimal
	MinIncrement   decimal.Decimal
}

func (e *StaleBidError) Error() string {
	return fmt.Sprintf("%v: current highest is %s, minimum increment is %s",
		ErrStaleBid, e.CurrentHighest.String(), e.MinIncrement.String())
}

// Unwrap lets callers match with errors.Is(err, ErrStaleBid).
func (e *StaleBidError) Unwrap() error {
	return ErrStaleBid
}
