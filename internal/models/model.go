package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction.
// Transitions are linear: upcoming -> active -> ended.
type AuctionStatus string

const (
	StatusUpcoming AuctionStatus = "upcoming"
	StatusActive   AuctionStatus = "active"
	StatusEnded    AuctionStatus = "ended"
)

// User represents a participant on the platform (importer or exporter)
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Auction represents a reverse-auction listing created by an importer.
// Registered exporters bid the price downward; the lowest accepted price
// wins once the countdown reaches zero.
type Auction struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	SellerID     string          `json:"seller_id"`
	InitialPrice decimal.Decimal `json:"initial_price"`
	Unit         string          `json:"unit"`
	Quantity     int64           `json:"quantity"`
	MOQ          int64           `json:"moq"`

	TotalRounds          int   `json:"total_rounds"`
	CurrentRound         int   `json:"current_round"`
	RoundDurationSeconds int64 `json:"round_duration_seconds"`
	TimeRemainingSeconds int64 `json:"time_remaining_seconds"`

	Status    AuctionStatus `json:"status"`
	StartsAt  time.Time     `json:"starts_at"`
	CreatedAt time.Time     `json:"created_at"`

	RegisteredBidders []string `json:"registered_bidders"`
	Bids              []Bid    `json:"bids"`
	Winner            *Bid     `json:"winner,omitempty"`
}

// Bid represents an exporter's price offer on an auction
type Bid struct {
	BidID          string          `json:"bid_id"`
	AuctionID      string          `json:"auction_id"`
	BidderID       string          `json:"bidder_id"`
	Price          decimal.Decimal `json:"price"`
	CreatedAt      time.Time       `json:"created_at"`
	LastModifiedAt time.Time       `json:"last_modified_at"`
}

// IsRegistered reports whether bidderID is a member of the auction's bidder set.
func (a *Auction) IsRegistered(bidderID string) bool {
	for _, id := range a.RegisteredBidders {
		if id == bidderID {
			return true
		}
	}
	return false
}

// CurrentBestPrice returns the lowest accepted bid price, or the initial
// price when no bids have been placed yet.
func (a *Auction) CurrentBestPrice() decimal.Decimal {
	best := a.InitialPrice
	for _, b := range a.Bids {
		if b.Price.LessThan(best) {
			best = b.Price
		}
	}
	return best
}

// LastBid returns the most recently submitted bid, or nil if none exist.
func (a *Auction) LastBid() *Bid {
	if len(a.Bids) == 0 {
		return nil
	}
	return &a.Bids[len(a.Bids)-1]
}

// LastBidBy returns bidderID's most recent bid, or nil if they have none.
func (a *Auction) LastBidBy(bidderID string) *Bid {
	for i := len(a.Bids) - 1; i >= 0; i-- {
		if a.Bids[i].BidderID == bidderID {
			return &a.Bids[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the auction so callers can mutate it
// without aliasing the stored aggregate.
func (a *Auction) Clone() Auction {
	out := *a
	out.RegisteredBidders = append([]string(nil), a.RegisteredBidders...)
	out.Bids = append([]Bid(nil), a.Bids...)
	if a.Winner != nil {
		w := *a.Winner
		out.Winner = &w
	}
	return out
}
