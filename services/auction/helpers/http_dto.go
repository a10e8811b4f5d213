package helpers

import (
	"time"

	engine "zecbay-auction/internal/auctionEngine"
	model "zecbay-auction/internal/models"

	"github.com/shopspring/decimal"
)

// Request DTOs
type CreateAuctionRequest struct {
	Title                string          `json:"title" binding:"required"`
	Category             string          `json:"category"`
	Description          string          `json:"description"`
	SellerID             string          `json:"seller_id" binding:"required"`
	InitialPrice         decimal.Decimal `json:"initial_price" binding:"required"`
	Unit                 string          `json:"unit" binding:"required"`
	Quantity             int64           `json:"quantity" binding:"required,gt=0"`
	MOQ                  int64           `json:"moq" binding:"gte=0"`
	TotalRounds          int             `json:"total_rounds" binding:"required,gt=0"`
	RoundDurationSeconds int64           `json:"round_duration_seconds" binding:"required,gt=0"`
	StartsAt             time.Time       `json:"starts_at"`
}

type RegisterBidderRequest struct {
	BidderID string `json:"bidder_id" binding:"required"`
}

type SubmitBidRequest struct {
	BidderID string          `json:"bidder_id" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
}

type EditBidRequest struct {
	BidderID string          `json:"bidder_id" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
}

type QuoteTicketRequest struct {
	TicketSize int64 `json:"ticket_size" binding:"required,gt=0"`
	Quantity   int64 `json:"quantity" binding:"gte=0"`
}

// Response DTOs
type BidResponse struct {
	BidID          string `json:"bid_id"`
	AuctionID      string `json:"auction_id"`
	BidderID       string `json:"bidder_id"`
	Price          string `json:"price"`
	CreatedAt      string `json:"created_at"`
	LastModifiedAt string `json:"last_modified_at"`
}

type AuctionResponse struct {
	ID                   string       `json:"id"`
	Title                string       `json:"title"`
	Category             string       `json:"category"`
	Description          string       `json:"description"`
	SellerID             string       `json:"seller_id"`
	InitialPrice         string       `json:"initial_price"`
	CurrentBestPrice     string       `json:"current_best_price"`
	Unit                 string       `json:"unit"`
	Quantity             int64        `json:"quantity"`
	MOQ                  int64        `json:"moq"`
	CurrentRound         int          `json:"current_round"`
	TotalRounds          int          `json:"total_rounds"`
	TimeRemainingSeconds int64        `json:"time_remaining_seconds"`
	TimeLeft             string       `json:"time_left"`
	Status               string       `json:"status"`
	StartsAt             string       `json:"starts_at"`
	CreatedAt            string       `json:"created_at"`
	RegisteredBidders    []string     `json:"registered_bidders"`
	BidCount             int          `json:"bid_count"`
	Winner               *BidResponse `json:"winner,omitempty"`
}

// NewBidResponse maps a domain bid to its response DTO.
func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:          b.BidID,
		AuctionID:      b.AuctionID,
		BidderID:       b.BidderID,
		Price:          b.Price.String(),
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
		LastModifiedAt: b.LastModifiedAt.UTC().Format(time.RFC3339),
	}
}

// NewAuctionResponse maps a domain auction to its response DTO, including
// the server-computed countdown so clients never derive it themselves.
func NewAuctionResponse(a model.Auction) AuctionResponse {
	resp := AuctionResponse{
		ID:                   a.ID,
		Title:                a.Title,
		Category:             a.Category,
		Description:          a.Description,
		SellerID:             a.SellerID,
		InitialPrice:         a.InitialPrice.String(),
		CurrentBestPrice:     a.CurrentBestPrice().String(),
		Unit:                 a.Unit,
		Quantity:             a.Quantity,
		MOQ:                  a.MOQ,
		CurrentRound:         a.CurrentRound,
		TotalRounds:          a.TotalRounds,
		TimeRemainingSeconds: a.TimeRemainingSeconds,
		TimeLeft:             engine.FormatTimeLeft(a),
		Status:               string(a.Status),
		StartsAt:             a.StartsAt.UTC().Format(time.RFC3339),
		CreatedAt:            a.CreatedAt.UTC().Format(time.RFC3339),
		RegisteredBidders:    a.RegisteredBidders,
		BidCount:             len(a.Bids),
	}
	if a.Winner != nil {
		w := NewBidResponse(*a.Winner)
		resp.Winner = &w
	}
	return resp
}
