package engine

import (
	"fmt"

	"zecbay-auction/internal/auctionerrors"
	model "zecbay-auction/internal/models"

	"github.com/shopspring/decimal"
)

// ticketFactor is the per-ticket markup applied in the ceiling quote.
var ticketFactor = decimal.NewFromFloat(0.2)

// PriceCeiling computes the quoting ceiling for a given ticket size:
//
//	ceiling = initialPrice * 0.2 * ticketSize + initialPrice
//
// This is a presentational quoting aid shown to bidders, not an admission
// rule enforced on submitted bids.
func PriceCeiling(initialPrice decimal.Decimal, ticketSize int64) decimal.Decimal {
	return initialPrice.Mul(ticketFactor).Mul(decimal.NewFromInt(ticketSize)).Add(initialPrice)
}

// TicketQuote is the result of a ticket-size quoting request.
type TicketQuote struct {
	AuctionID    string          `json:"auction_id"`
	TicketSize   int64           `json:"ticket_size"`
	Quantity     int64           `json:"quantity"`
	Unit         string          `json:"unit"`
	PriceCeiling decimal.Decimal `json:"price_ceiling"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// QuoteTicket computes the price ceiling and total order value a bidder
// would be shown for the given ticket size and quantity.
func (e *AuctionEngine) QuoteTicket(auctionID string, ticketSize, quantity int64) (TicketQuote, error) {
	if ticketSize <= 0 {
		return TicketQuote{}, fmt.Errorf("engine: %w - ticket size must be positive", auctionerrors.ErrInvalidInput)
	}
	a, err := e.GetAuction(auctionID)
	if err != nil {
		return TicketQuote{}, err
	}
	if quantity <= 0 {
		quantity = a.MOQ
	}
	if quantity < a.MOQ {
		return TicketQuote{}, fmt.Errorf("engine: %w - quantity below minimum order quantity %d", auctionerrors.ErrInvalidInput, a.MOQ)
	}

	ceiling := PriceCeiling(a.InitialPrice, ticketSize)
	return TicketQuote{
		AuctionID:    auctionID,
		TicketSize:   ticketSize,
		Quantity:     quantity,
		Unit:         a.Unit,
		PriceCeiling: ceiling,
		TotalValue:   ceiling.Mul(decimal.NewFromInt(quantity)),
	}, nil
}

// Snapshot is the authoritative view of an auction pushed to clients so
// they render server state instead of computing countdowns locally.
type Snapshot struct {
	AuctionID            string              `json:"auction_id"`
	Status               model.AuctionStatus `json:"status"`
	CurrentRound         int                 `json:"current_round"`
	TotalRounds          int                 `json:"total_rounds"`
	TimeRemainingSeconds int64               `json:"time_remaining_seconds"`
	TimeLeft             string              `json:"time_left"`
	CurrentBestPrice     decimal.Decimal     `json:"current_best_price"`
	BidCount             int                 `json:"bid_count"`
	Winner               *model.Bid          `json:"winner,omitempty"`
}

// NewSnapshot builds the client-facing view of an auction's current state.
func NewSnapshot(a model.Auction) Snapshot {
	return Snapshot{
		AuctionID:            a.ID,
		Status:               a.Status,
		CurrentRound:         a.CurrentRound,
		TotalRounds:          a.TotalRounds,
		TimeRemainingSeconds: a.TimeRemainingSeconds,
		TimeLeft:             FormatTimeLeft(a),
		CurrentBestPrice:     a.CurrentBestPrice(),
		BidCount:             len(a.Bids),
		Winner:               a.Winner,
	}
}

// FormatTimeLeft renders the countdown as HH:MM:SS, or a terminal label
// once the auction has ended.
func FormatTimeLeft(a model.Auction) string {
	if a.Status == model.StatusEnded {
		return "Auction ended"
	}
	secs := a.TimeRemainingSeconds
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
