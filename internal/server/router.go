package server

import (
	auction "position-auction/internal/auctionService"
	"position-auction/internal/chat"
	"position-auction/internal/notify"
	auctionhandler "position-auction/services/auction/handler"
	chathandler "position-auction/services/chat/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService *auction.AuctionService, chatService *chat.ChatService, hub *notify.Hub) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := auctionhandler.NewAuctionHandler(auctionService, hub)
	chatHandler := chathandler.NewChatHandler(chatService, hub)

	positions := router.Group("/positions")
	{
		positions.POST("", auctionHandler.CreatePositionHandler)
		positions.GET("/:position_id", auctionHandler.GetPositionHandler)
		positions.GET("/:position_id/bids", auctionHandler.GetBidsHandler)
		positions.GET("/:position_id/events", auctionHandler.StreamPositionHandler)
		positions.POST("/:position_id/activate", auctionHandler.ActivatePositionHandler)
		positions.POST("/:position_id/cancel", auctionHandler.CancelPositionHandler)
		positions.POST("/:position_id/bids", auctionHandler.PlaceBidHandler)
		positions.POST("/:position_id/finalize", auctionHandler.FinalizeHandler)
	}

	rooms := router.Group("/rooms")
	{
		rooms.POST("/:position_id/join", chatHandler.JoinRoomHandler)
		rooms.POST("/:position_id/leave", chatHandler.LeaveRoomHandler)
		rooms.POST("/:position_id/messages", chatHandler.SendMessageHandler)
		rooms.GET("/:position_id/messages", chatHandler.GetHistoryHandler)
		rooms.GET("/:position_id/participants", chatHandler.GetParticipantsHandler)
		rooms.GET("/:position_id/events", chatHandler.StreamRoomHandler)
		rooms.POST("/:position_id/typing", chatHandler.TypingHandler)
		rooms.POST("/:position_id/stop-typing", chatHandler.StopTypingHandler)
	}

	return router
}
