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

// MapErrorToHTTP maps chat service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrPositionNotFound):
		return http.StatusNotFound, "position not found"
	case errors.Is(err, auctionerrors.ErrRoomNotFound):
		return http.StatusNotFound, "room not found"
	case errors.Is(err, auctionerrors.ErrValidation):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, auctionerrors.ErrNotParticipant):
		return http.StatusForbidden, "not a participant of this room"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// MessageToResponse converts a chat message model into its wire shape.
func MessageToResponse(msg model.ChatMessage) MessageResponse {
	return MessageResponse{
		MessageID: msg.MessageID,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		Sequence:  msg.Sequence,
		CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// MessagesToResponse converts a message slice, never returning nil.
func MessagesToResponse(msgs []model.ChatMessage) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageToResponse(m))
	}
	return out
}
