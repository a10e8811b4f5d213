package handler

import (
	"fmt"
	"net/http"

	engine "zecbay-auction/internal/auctionEngine"
	model "zecbay-auction/internal/models"
	"zecbay-auction/internal/repository"
	"zecbay-auction/internal/stream"
	"zecbay-auction/services/auction/helpers"
	"zecbay-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	CreateAuction(p engine.CreateAuctionParams) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctions(filter repository.ListFilter) ([]model.Auction, error)
	RegisterBidder(auctionID, bidderID string) (model.Auction, error)
	StartAuction(auctionID string) (model.Auction, error)
	ForceEnd(auctionID string) (model.Auction, error)
	SubmitBid(auctionID, bidderID string, price decimal.Decimal) (model.Bid, error)
	EditBid(auctionID, bidID, bidderID string, newPrice decimal.Decimal) (model.Bid, error)
	DeleteBid(auctionID, bidID, bidderID string) error
	GetBids(auctionID string) ([]model.Bid, error)
	GetWinner(auctionID string) (model.Bid, error)
	QuoteTicket(auctionID string, ticketSize, quantity int64) (engine.TicketQuote, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
	hub     *stream.Hub
}

// NewAuctionHandler creates a handler over the engine service. hub may be
// nil when the websocket stream is not wired (tests).
func NewAuctionHandler(service AuctionServiceInterface, hub *stream.Hub) *AuctionHandler {
	return &AuctionHandler{service: service, hub: hub}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	a, err := h.service.CreateAuction(engine.CreateAuctionParams{
		Title:                req.Title,
		Category:             req.Category,
		Description:          req.Description,
		SellerID:             req.SellerID,
		InitialPrice:         req.InitialPrice,
		Unit:                 req.Unit,
		Quantity:             req.Quantity,
		MOQ:                  req.MOQ,
		TotalRounds:          req.TotalRounds,
		RoundDurationSeconds: req.RoundDurationSeconds,
		StartsAt:             req.StartsAt,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"seller_id": req.SellerID,
			"title":     req.Title,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(a), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": a.ID,
		"seller_id":  a.SellerID,
	})
}

// ListAuctionsHandler handles GET /auctions
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	filter := repository.ListFilter{
		Category: c.Query("category"),
		Status:   model.AuctionStatus(c.Query("status")),
	}
	if raw := c.Query("min_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("invalid min_price: %w", err), "invalid min_price")
			return
		}
		filter.MinPrice = &p
	}
	if raw := c.Query("max_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("invalid max_price: %w", err), "invalid max_price")
			return
		}
		filter.MaxPrice = &p
	}

	auctions, err := h.service.ListAuctions(filter)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListAuctionsHandler: error listing auctions", map[string]any{"error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.NewAuctionResponse(a))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction retrieved successfully")
}

// RegisterBidderHandler handles POST /auctions/:auction_id/register
func (h *AuctionHandler) RegisterBidderHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.RegisterBidderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterBidderHandler", err)
		return
	}

	a, err := h.service.RegisterBidder(auctionID, req.BidderID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("RegisterBidderHandler: registration failed", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "registered for auction successfully")
	helpers.LogSuccess("RegisterBidderHandler", "registered for auction successfully", map[string]any{
		"auction_id": auctionID,
		"bidder_id":  req.BidderID,
	})
}

// StartAuctionHandler handles POST /auctions/:auction_id/start
func (h *AuctionHandler) StartAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.service.StartAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("StartAuctionHandler: start failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction started successfully")
	helpers.LogSuccess("StartAuctionHandler", "auction started successfully", map[string]any{"auction_id": auctionID})
}

// ForceEndHandler handles POST /auctions/:auction_id/end
func (h *AuctionHandler) ForceEndHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.service.ForceEnd(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ForceEndHandler: force end failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction ended successfully")
	helpers.LogSuccess("ForceEndHandler", "auction ended successfully", map[string]any{"auction_id": auctionID})
}

// SubmitBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) SubmitBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SubmitBidHandler", err)
		return
	}

	bid, err := h.service.SubmitBid(auctionID, req.BidderID, req.Price)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("SubmitBidHandler: failed to record bid", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"price":      req.Price.String(),
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("SubmitBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"bidder_id":  req.BidderID,
		"price":      bid.Price.String(),
	})
}

// EditBidHandler handles PUT /auctions/:auction_id/bids/:bid_id
func (h *AuctionHandler) EditBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bidID := c.Param("bid_id")
	var req helpers.EditBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "EditBidHandler", err)
		return
	}

	bid, err := h.service.EditBid(auctionID, bidID, req.BidderID, req.Price)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("EditBidHandler: failed to edit bid", map[string]any{
			"auction_id": auctionID,
			"bid_id":     bidID,
			"bidder_id":  req.BidderID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "bid updated successfully")
	helpers.LogSuccess("EditBidHandler", "bid updated successfully", map[string]any{
		"bid_id":     bidID,
		"auction_id": auctionID,
		"price":      bid.Price.String(),
	})
}

// DeleteBidHandler handles DELETE /auctions/:auction_id/bids/:bid_id
func (h *AuctionHandler) DeleteBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bidID := c.Param("bid_id")
	bidderID := c.Query("bidder_id")
	if bidderID == "" {
		utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("missing bidder_id query parameter"), "missing bidder_id")
		return
	}

	if err := h.service.DeleteBid(auctionID, bidID, bidderID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("DeleteBidHandler: failed to delete bid", map[string]any{
			"auction_id": auctionID,
			"bid_id":     bidID,
			"bidder_id":  bidderID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "bid deleted successfully")
	helpers.LogSuccess("DeleteBidHandler", "bid deleted successfully", map[string]any{
		"bid_id":     bidID,
		"auction_id": auctionID,
	})
}

// GetBidsHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBids(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBidsHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
}

// GetWinnerHandler handles GET /auctions/:auction_id/winner
func (h *AuctionHandler) GetWinnerHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetWinner(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Info("GetWinnerHandler: no winner available", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinnerHandler", "winning bid retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"bid_id":     bid.BidID,
		"bidder_id":  bid.BidderID,
		"price":      bid.Price.String(),
	})
}

// QuoteTicketHandler handles POST /auctions/:auction_id/quote
func (h *AuctionHandler) QuoteTicketHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.QuoteTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "QuoteTicketHandler", err)
		return
	}

	quote, err := h.service.QuoteTicket(auctionID, req.TicketSize, req.Quantity)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("QuoteTicketHandler: quote failed", map[string]any{
			"auction_id":  auctionID,
			"ticket_size": req.TicketSize,
			"error":       err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, quote, "quote computed successfully")
}

// StreamHandler handles GET /auctions/:auction_id/stream, upgrading to a
// websocket subscription fed by the scheduler's tick loop.
func (h *AuctionHandler) StreamHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}
	if h.hub == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, fmt.Errorf("stream unavailable"), "stream unavailable")
		return
	}

	h.hub.ServeWS(c.Writer, c.Request, auctionID, engine.NewSnapshot(a))
}
