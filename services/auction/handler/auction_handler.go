package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"position-auction/internal/auctionerrors"
	auction "position-auction/internal/auctionService"
	"position-auction/internal/events"
	model "position-auction/internal/models"
	"position-auction/internal/notify"
	"position-auction/services/auction/helpers"
	"position-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	CreatePosition(ctx context.Context, category, ownerID string, startTime time.Time, duration time.Duration, startPrice decimal.Decimal) (model.Position, error)
	ActivatePosition(ctx context.Context, positionID string) (model.Position, error)
	CancelPosition(ctx context.Context, positionID string) (model.Position, error)
	PlaceBid(ctx context.Context, positionID, bidderID string, amount decimal.Decimal) (model.Bid, error)
	Finalize(ctx context.Context, positionID string) (auction.FinalizeResult, error)
	Snapshot(positionID string) (auction.Snapshot, error)
	BidsForPosition(positionID string) ([]model.Bid, error)
	MinIncrement() decimal.Decimal
}

type AuctionHandler struct {
	service AuctionServiceInterface
	hub     *notify.Hub
}

func NewAuctionHandler(service AuctionServiceInterface, hub *notify.Hub) *AuctionHandler {
	return &AuctionHandler{service: service, hub: hub}
}

// CreatePositionHandler handles POST /positions
func (h *AuctionHandler) CreatePositionHandler(c *gin.Context) {
	ownerID, ok := helpers.CallerID(c)
	if !ok {
		return
	}

	var req helpers.CreatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreatePositionHandler", err)
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		helpers.HandleBindError(c, "CreatePositionHandler", fmt.Errorf("start_time: %w", err))
		return
	}

	pos, err := h.service.CreatePosition(c.Request.Context(), req.Category, ownerID, startTime,
		time.Duration(req.DurationMS)*time.Millisecond, req.StartPrice)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreatePositionHandler: failed to create position", map[string]any{
			"handler":  "CreatePositionHandler",
			"owner_id": ownerID,
			"category": req.Category,
			"error":    err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.PositionToResponse(pos), "position created successfully")
	helpers.LogSuccess("CreatePositionHandler", "position created successfully", map[string]any{
		"position_id": pos.PositionID,
		"owner_id":    ownerID,
		"category":    pos.Category,
	})
}

// ActivatePositionHandler handles POST /positions/:position_id/activate
func (h *AuctionHandler) ActivatePositionHandler(c *gin.Context) {
	if _, ok := helpers.CallerID(c); !ok {
		return
	}
	positionID := c.Param("position_id")

	pos, err := h.service.ActivatePosition(c.Request.Context(), positionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ActivatePositionHandler: activation failed", map[string]any{"position_id": positionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.PositionToResponse(pos), "position activated successfully")
	helpers.LogSuccess("ActivatePositionHandler", "position activated successfully", map[string]any{"position_id": positionID})
}

// CancelPositionHandler handles POST /positions/:position_id/cancel
func (h *AuctionHandler) CancelPositionHandler(c *gin.Context) {
	if _, ok := helpers.CallerID(c); !ok {
		return
	}
	positionID := c.Param("position_id")

	pos, err := h.service.CancelPosition(c.Request.Context(), positionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CancelPositionHandler: cancellation failed", map[string]any{"position_id": positionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.PositionToResponse(pos), "position cancelled successfully")
	helpers.LogSuccess("CancelPositionHandler", "position cancelled successfully", map[string]any{"position_id": positionID})
}

// PlaceBidHandler handles POST /positions/:position_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	bidderID, ok := helpers.CallerID(c)
	if !ok {
		return
	}
	positionID := c.Param("position_id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), positionID, bidderID, req.Amount)
	if err != nil {
		var stale *auctionerrors.StaleBidError
		if errors.As(err, &stale) {
			// Return the moving floor so the caller can rebid without a
			// second round trip.
			c.JSON(http.StatusConflict, gin.H{
				"status":  http.StatusConflict,
				"message": "bid below required minimum",
				"error":   stale.Error(),
				"data": helpers.StaleBidDetails{
					CurrentHighest: stale.CurrentHighest.String(),
					MinIncrement:   stale.MinIncrement.String(),
				},
			})
			utils.Info("PlaceBidHandler: bid rejected as stale", map[string]any{
				"position_id":     positionID,
				"bidder_id":       bidderID,
				"amount":          req.Amount.String(),
				"current_highest": stale.CurrentHighest.String(),
			})
			return
		}

		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"handler":     "PlaceBidHandler",
			"position_id": positionID,
			"bidder_id":   bidderID,
			"error":       err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.BidToResponse(bid), "bid accepted successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted successfully", map[string]any{
		"bid_id":      bid.BidID,
		"position_id": positionID,
		"bidder_id":   bidderID,
		"amount":      bid.Amount.String(),
	})
}

// FinalizeHandler handles POST /positions/:position_id/finalize
func (h *AuctionHandler) FinalizeHandler(c *gin.Context) {
	if _, ok := helpers.CallerID(c); !ok {
		return
	}
	positionID := c.Param("position_id")

	res, err := h.service.Finalize(c.Request.Context(), positionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("FinalizeHandler: finalize failed", map[string]any{"position_id": positionID, "error": err.Error()})
		return
	}

	resp := helpers.FinalizeResponse{
		Position:         helpers.PositionToResponse(res.Position),
		AlreadyFinalized: res.AlreadyFinalized,
	}
	if res.WinningBid != nil {
		wb := helpers.BidToResponse(*res.WinningBid)
		resp.WinningBid = &wb
	}

	utils.JSONResponse(c, http.StatusOK, resp, "position finalized successfully")
	helpers.LogSuccess("FinalizeHandler", "position finalized successfully", map[string]any{
		"position_id":       positionID,
		"winning_bid_id":    res.Position.WinningBidID,
		"already_finalized": res.AlreadyFinalized,
	})
}

// GetPositionHandler handles GET /positions/:position_id
func (h *AuctionHandler) GetPositionHandler(c *gin.Context) {
	positionID := c.Param("position_id")

	snap, err := h.service.Snapshot(positionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetPositionHandler: snapshot failed", map[string]any{"position_id": positionID, "error": err.Error()})
		return
	}

	resp := helpers.SnapshotResponse{
		Position:    helpers.PositionToResponse(snap.Position),
		RecentBids:  helpers.BidsToResponse(snap.RecentBids),
		RemainingMS: snap.Remaining.Milliseconds(),
	}
	if snap.HighestBid != nil {
		hb := helpers.BidToResponse(*snap.HighestBid)
		resp.HighestBid = &hb
	}

	utils.JSONResponse(c, http.StatusOK, resp, "position retrieved successfully")
}

// GetBidsHandler handles GET /positions/:position_id/bids
func (h *AuctionHandler) GetBidsHandler(c *gin.Context) {
	positionID := c.Param("position_id")

	bids, err := h.service.BidsForPosition(positionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBidsHandler: error retrieving bids", map[string]any{"position_id": positionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.BidsToResponse(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsHandler", "bids retrieved successfully", map[string]any{
		"position_id": positionID,
		"count":       len(bids),
	})
}

// StreamPositionHandler handles GET /positions/:position_id/events (SSE)
func (h *AuctionHandler) StreamPositionHandler(c *gin.Context) {
	positionID := c.Param("position_id")

	if _, err := h.service.Snapshot(positionID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	ch, cancel := h.hub.Subscribe(events.PositionTopic(positionID))
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
