package server

import (
	"zecbay-auction/internal/stream"
	handler "zecbay-auction/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(service handler.AuctionServiceInterface, hub *stream.Hub) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(service, hub)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/register", auctionHandler.RegisterBidderHandler)
		auctions.POST("/:auction_id/start", auctionHandler.StartAuctionHandler)
		auctions.POST("/:auction_id/end", auctionHandler.ForceEndHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.SubmitBidHandler)
		auctions.PUT("/:auction_id/bids/:bid_id", auctionHandler.EditBidHandler)
		auctions.DELETE("/:auction_id/bids/:bid_id", auctionHandler.DeleteBidHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetBidsHandler)
		auctions.GET("/:auction_id/winner", auctionHandler.GetWinnerHandler)
		auctions.POST("/:auction_id/quote", auctionHandler.QuoteTicketHandler)
		auctions.GET("/:auction_id/stream", auctionHandler.StreamHandler)
	}

	return router
}
