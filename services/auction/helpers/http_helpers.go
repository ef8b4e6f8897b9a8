package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"position-auction/internal/auctionerrors"
	model "position-auction/internal/models"
	"position-auction/utils"

	"github.com/gin-gonic/gin"
)

// CallerHeader carries the authenticated user identity, set by the edge proxy.
const CallerHeader = "X-User-ID"

// CallerID extracts the caller identity; a missing header is rejected with 401.
func CallerID(c *gin.Context) (string, bool) {
	id := c.GetHeader(CallerHeader)
	if id == "" {
		utils.JSONError(c, http.StatusUnauthorized, errors.New("missing "+CallerHeader+" header"), "caller identity required")
		return "", false
	}
	return id, true
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrPositionNotFound):
		return http.StatusNotFound, "position not found"
	case errors.Is(err, auctionerrors.ErrBidNotFound):
		return http.StatusNotFound, "bid not found"
	case errors.Is(err, auctionerrors.ErrRoomNotFound):
		return http.StatusNotFound, "room not found"
	case errors.Is(err, auctionerrors.ErrValidation):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, auctionerrors.ErrStaleBid):
		return http.StatusConflict, "bid below required minimum"
	case errors.Is(err, auctionerrors.ErrPositionClosed):
		return http.StatusGone, "position not open for this operation"
	case errors.Is(err, auctionerrors.ErrNotYetExpired):
		return http.StatusTooEarly, "bidding window still open"
	case errors.Is(err, auctionerrors.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient funds"
	case errors.Is(err, auctionerrors.ErrNotParticipant):
		return http.StatusForbidden, "not a participant of this room"
	case errors.Is(err, auctionerrors.ErrInvalidTransition):
		return http.StatusConflict, "invalid status transition"
	case errors.Is(err, auctionerrors.ErrConflict):
		return http.StatusConflict, "concurrent update conflict, retry"
	case errors.Is(err, auctionerrors.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable, "escrow service unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// PositionToResponse converts a position model into its wire shape.
func PositionToResponse(pos model.Position) PositionResponse {
	return PositionResponse{
		PositionID:   pos.PositionID,
		Category:     pos.Category,
		OwnerID:      pos.OwnerID,
		StartTime:    pos.StartTime.UTC().Format(time.RFC3339),
		EndTime:      pos.EndTime.UTC().Format(time.RFC3339),
		Status:       string(pos.Status),
		WinningBidID: pos.WinningBidID,
		StartPrice:   pos.StartPrice.String(),
	}
}

// BidToResponse converts a bid model into its wire shape.
func BidToResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:      bid.BidID,
		PositionID: bid.PositionID,
		BidderID:   bid.BidderID,
		Amount:     bid.Amount.String(),
		Status:     string(bid.Status),
		PlacedAt:   bid.PlacedAt.UTC().Format(time.RFC3339),
	}
}

// BidsToResponse converts a bid slice, never returning nil.
func BidsToResponse(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, BidToResponse(b))
	}
	return out
}
