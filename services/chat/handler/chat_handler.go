package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"position-auction/internal/events"
	model "position-auction/internal/models"
	"position-auction/internal/notify"
	"position-auction/services/chat/helpers"
	"position-auction/utils"

	"github.com/gin-gonic/gin"
)

type ChatServiceInterface interface {
	Join(ctx context.Context, roomID, userID string) error
	Leave(ctx context.Context, roomID, userID string) error
	SendMessage(ctx context.Context, roomID, senderID, content string) (model.ChatMessage, error)
	History(roomID string, beforeSeq int64, limit int) ([]model.ChatMessage, error)
	Participants(roomID string) ([]string, error)
	Typing(ctx context.Context, roomID, userID string) error
	StopTyping(ctx context.Context, roomID, userID string) error
	TypingUsers(roomID string) []string
}

type ChatHandler struct {
	service ChatServiceInterface
	hub     *notify.Hub
}

func NewChatHandler(service ChatServiceInterface, hub *notify.Hub) *ChatHandler {
	return &ChatHandler{service: service, hub: hub}
}

// JoinRoomHandler handles POST /rooms/:position_id/join
func (h *ChatHandler) JoinRoomHandler(c *gin.Context) {
	userID, ok := helpers.CallerID(c)
	if !ok {
		return
	}
	roomID := c.Param("position_id")

	if err := h.service.Join(c.Request.Context(), roomID, userID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("JoinRoomHandler: join failed", map[string]any{"room_id": roomID, "user_id": userID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"room_id": roomID, "user_id": userID}, "joined room successfully")
	helpers.LogSuccess("JoinRoomHandler", "joined room successfully", map[string]any{"room_id": roomID, "user_id": userID})
}

// LeaveRoomHandler handles POST /rooms/:position_id/leave
func (h *ChatHandler) LeaveRoomHandler(c *gin.Context) {
	userID, ok := helpers.CallerID(c)
	if !ok {
		return
	}
	roomID := c.Param("position_id")

	if err := h.service.Leave(c.Request.Context(), roomID, userID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("LeaveRoomHandler: leave failed", map[string]any{"room_id": roomID, "user_id": userID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"room_id": roomID, "user_id": userID}, "left room successfully")
	helpers.LogSuccess("LeaveRoomHandler", "left room successfully", map[string]any{"room_id": roomID, "user_id": userID})
}

// SendMessageHandler handles POST /rooms/:position_id/messages
func (h *ChatHandler) SendMessageHandler(c *gin.Context) {
	senderID, ok := helpers.CallerID(c)
	if !ok {
		return
	}
	roomID := c.Param("position_id")

	var req helpers.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SendMessageHandler", err)
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), roomID, senderID, req.Content)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("SendMessageHandler: send failed", map[string]any{
			"room_id":   roomID,
			"sender_id": senderID,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.MessageToResponse(msg), "message sent successfully")
	helpers.LogSuccess("SendMessageHandler", "message sent successfully", map[string]any{
		"room_id":    roomID,
		"sender_id":  senderID,
		"message_id": msg.MessageID,
		"sequence":   msg.Sequence,
	})
}

// GetHistoryHandler handles GET /rooms/:position_id/messages?before=&limit=
func (h *ChatHandler) GetHistoryHandler(c *gin.Context) {
	if _, ok := helpers.CallerID(c); !ok {
		return
	}
	roomID := c.Param("position_id")

	var before int64
	if raw := c.Query("before"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			helpers.HandleBindError(c, "GetHistoryHandler", fmt.Errorf("invalid before cursor %q", raw))
			return
		}
		before = parsed
	}
	var limit int
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			helpers.HandleBindError(c, "GetHistoryHandler", fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	msgs, err := h.service.History(roomID, before, limit)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetHistoryHandler: history failed", map[string]any{"room_id": roomID, "error": err.Error()})
		return
	}

	resp := helpers.HistoryResponse{Messages: helpers.MessagesToResponse(msgs)}
	if len(msgs) > 0 && msgs[0].Sequence > 1 {
		resp.NextBefore = msgs[0].Sequence
	}

	utils.JSONResponse(c, http.StatusOK, resp, "history retrieved successfully")
}

// GetParticipantsHandler handles GET /rooms/:position_id/participants
func (h *ChatHandler) GetParticipantsHandler(c *gin.Context) {
	roomID := c.Param("position_id")

	participants, err := h.service.Participants(roomID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetParticipantsHandler: lookup failed", map[string]any{"room_id": roomID, "error": err.Error()})
		return
	}
	if participants == nil {
		participants = []string{}
	}
	typing := h.service.TypingUsers(roomID)
	if typing == nil {
		typing = []string{}
	}

	resp := helpers.ParticipantsResponse{Participants: participants, Typing: typing}
	utils.JSONResponse(c, http.StatusOK, resp, "participants retrieved successfully")
}

// TypingHandler handles POST /rooms/:position_id/typing
func (h *ChatHandler) TypingHandler(c *gin.Context) {
	userID, ok := helpers.CallerID(c)
	if !ok {
		return
	}
	roomID := c.Param("position_id")

	if err := h.service.Typing(c.Request.Context(), roomID, userID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"room_id": roomID, "user_id": userID}, "typing indicator set")
}

// StopTypingHandler handles POST /rooms/:position_id/stop-typing
func (h *ChatHandler) StopTypingHandler(c *gin.Context) {
	userID, ok := helpers.CallerID(c)
	if !ok {
		return
	}
	roomID := c.Param("position_id")

	if err := h.service.StopTyping(c.Request.Context(), roomID, userID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"room_id": roomID, "user_id": userID}, "typing indicator cleared")
}

// StreamRoomHandler handles GET /rooms/:position_id/events (SSE)
func (h *ChatHandler) StreamRoomHandler(c *gin.Context) {
	userID, ok := helpers.CallerID(c)
	if !ok {
		return
	}
	roomID := c.Param("position_id")

	if err := h.service.Join(c.Request.Context(), roomID, userID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	ch, cancel := h.hub.Subscribe(events.RoomTopic(roomID))
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-ch:
			if !open {
				return false
			}
			if env, isEnv := ev.Payload.(events.Envelope); isEnv {
				c.SSEvent(env.Kind, env.Data)
			} else {
				c.SSEvent("message", ev.Payload)
			}
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
