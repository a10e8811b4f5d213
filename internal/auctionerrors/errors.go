package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBidNotFound     = errors.New("bid not found")
)

// business rule errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrAuctionNotActive  = errors.New("auction is not active")
	ErrNotRegistered     = errors.New("bidder is not registered for this auction")
	ErrAlreadyRegistered = errors.New("bidder is already registered for this auction")
	ErrPriceNotLower     = errors.New("bid price does not improve on the current best price")
	ErrPriceNotPositive  = errors.New("bid price must be positive")
	ErrConsecutiveBid    = errors.New("cannot place two bids in a row; wait for another bidder")
	ErrRebidTooSoon      = errors.New("rebid cooldown has not elapsed")
	ErrBidLocked         = errors.New("bid is locked for edit or delete")
	ErrNotBidOwner       = errors.New("bid belongs to a different bidder")
	ErrAlreadyStarted    = errors.New("auction has already started")
)
