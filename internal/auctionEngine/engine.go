package engine

import (
	"fmt"
	"sync"
	"time"

	"zecbay-auction/internal/auctionerrors"
	model "zecbay-auction/internal/models"
	"zecbay-auction/internal/repository"
	"zecbay-auction/utils"

	"github.com/shopspring/decimal"
)

// Thresholds holds the two timing windows of the bid lifecycle. They are
// distinct rules on distinct operations: EditLockWindow bounds how long a
// bid's owner may still edit or delete it, RebidCooldown bounds how soon a
// bidder may place another bid after their own previous one.
type Thresholds struct {
	EditLockWindow time.Duration
	RebidCooldown  time.Duration
}

// DefaultThresholds returns the platform's standard bid timing windows.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EditLockWindow: 115 * time.Minute,
		RebidCooldown:  5 * time.Minute,
	}
}

// AuctionEngine owns the reverse-auction state machine: the per-second
// countdown, bid admission rules, the edit/delete lock window and the
// terminal winner determination. All operations on one auction are
// serialized through a per-auction mutex, so a tick that ends the auction
// and a racing bid submission resolve deterministically.
type AuctionEngine struct {
	store      repository.AuctionStore
	thresholds Thresholds
	clock      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex // key: auctionID -> per-auction operation lock
}

// NewAuctionEngine creates a new AuctionEngine instance backed by the given store
func NewAuctionEngine(store repository.AuctionStore, thresholds Thresholds) *AuctionEngine {
	return &AuctionEngine{
		store:      store,
		thresholds: thresholds,
		clock:      time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing all operations on auctionID.
func (e *AuctionEngine) lockFor(auctionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[auctionID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[auctionID] = l
	}
	return l
}

// CreateAuctionParams carries the importer-supplied fields of a new listing.
type CreateAuctionParams struct {
	Title                string
	Category             string
	Description          string
	SellerID             string
	InitialPrice         decimal.Decimal
	Unit                 string
	Quantity             int64
	MOQ                  int64
	TotalRounds          int
	RoundDurationSeconds int64
	StartsAt             time.Time
}

// CreateAuction validates and stores a new auction listing in the upcoming state
func (e *AuctionEngine) CreateAuction(p CreateAuctionParams) (model.Auction, error) {
	if p.Title == "" || p.SellerID == "" {
		return model.Auction{}, fmt.Errorf("engine: %w - missing title or seller id", auctionerrors.ErrInvalidInput)
	}
	if p.InitialPrice.Sign() <= 0 {
		return model.Auction{}, fmt.Errorf("engine: %w - initial price must be positive", auctionerrors.ErrInvalidInput)
	}
	if p.Quantity <= 0 || p.TotalRounds <= 0 || p.RoundDurationSeconds <= 0 {
		return model.Auction{}, fmt.Errorf("engine: %w - quantity, rounds and round duration must be positive", auctionerrors.ErrInvalidInput)
	}

	now := e.clock().UTC()
	a := model.Auction{
		ID:                   utils.GenerateID(),
		Title:                p.Title,
		Category:             p.Category,
		Description:          p.Description,
		SellerID:             p.SellerID,
		InitialPrice:         p.InitialPrice,
		Unit:                 p.Unit,
		Quantity:             p.Quantity,
		MOQ:                  p.MOQ,
		TotalRounds:          p.TotalRounds,
		CurrentRound:         0,
		RoundDurationSeconds: p.RoundDurationSeconds,
		TimeRemainingSeconds: int64(p.TotalRounds) * p.RoundDurationSeconds,
		Status:               model.StatusUpcoming,
		StartsAt:             p.StartsAt,
		CreatedAt:            now,
		RegisteredBidders:    []string{},
		Bids:                 []model.Bid{},
	}

	if err := e.store.CreateAuction(a); err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to create auction: %w", err)
	}
	return a, nil
}

// GetAuction returns the current state of an auction
func (e *AuctionEngine) GetAuction(auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("engine: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	a, err := e.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to get auction %s: %w", auctionID, err)
	}
	return a, nil
}

// ListAuctions returns all auctions matching the filter
func (e *AuctionEngine) ListAuctions(filter repository.ListFilter) ([]model.Auction, error) {
	auctions, err := e.store.ListAuctions(filter)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// RegisterBidder adds an exporter to the auction's bidder set. Membership is
// required before any bid is accepted.
func (e *AuctionEngine) RegisterBidder(auctionID, bidderID string) (model.Auction, error) {
	if auctionID == "" || bidderID == "" {
		return model.Auction{}, fmt.Errorf("engine: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}

	lock := e.lockFor(auctionID)
	lock.Lock()
	defer lock.Unlock()

	a, err := e.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to get auction %s: %w", auctionID, err)
	}
	if a.Status == model.StatusEnded {
		return model.Auction{}, fmt.Errorf("engine: %w - cannot register on an ended auction", auctionerrors.ErrAuctionNotActive)
	}
	if a.IsRegistered(bidderID) {
		return model.Auction{}, fmt.Errorf("engine: %w - bidder %s", auctionerrors.ErrAlreadyRegistered, bidderID)
	}

	a.RegisteredBidders = append(a.RegisteredBidders, bidderID)
	if err := e.store.SaveAuction(a); err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to save auction %s: %w", auctionID, err)
	}
	return a, nil
}

// StartAuction transitions an upcoming auction to active and arms the
// countdown. The scheduler calls this when StartsAt passes; it can also be
// fired directly as an external trigger.
func (e *AuctionEngine) StartAuction(auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("engine: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	lock := e.lockFor(auctionID)
	lock.Lock()
	defer lock.Unlock()

	a, err := e.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to get auction %s: %w", auctionID, err)
	}
	switch a.Status {
	case model.StatusActive:
		return model.Auction{}, fmt.Errorf("engine: %w - auction %s", auctionerrors.ErrAlreadyStarted, auctionID)
	case model.StatusEnded:
		return model.Auction{}, fmt.Errorf("engine: %w - auction %s has ended", auctionerrors.ErrAuctionNotActive, auctionID)
	}

	a.Status = model.StatusActive
	a.CurrentRound = 1
	a.TimeRemainingSeconds = int64(a.TotalRounds) * a.RoundDurationSeconds
	if err := e.store.SaveAuction(a); err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to save auction %s: %w", auctionID, err)
	}
	return a, nil
}

// Tick advances the authoritative countdown of an active auction by one
// second. When the countdown reaches zero the auction ends and the winner
// is determined. Ticking an ended or upcoming auction is a no-op, so the
// operation is idempotent at the boundary.
func (e *AuctionEngine) Tick(auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("engine: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	lock := e.lockFor(auctionID)
	lock.Lock()
	defer lock.Unlock()

	a, err := e.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to get auction %s: %w", auctionID, err)
	}
	if a.Status != model.StatusActive {
		return a, nil
	}

	if a.TimeRemainingSeconds > 0 {
		a.TimeRemainingSeconds--
	}
	a.CurrentRound = currentRound(&a)
	if a.TimeRemainingSeconds == 0 {
		finalize(&a)
	}

	if err := e.store.SaveAuction(a); err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to save auction %s: %w", auctionID, err)
	}
	return a, nil
}

// ForceEnd administratively ends an auction, finalizing the winner exactly
// as the countdown reaching zero would. Ending an already-ended auction is
// a no-op.
func (e *AuctionEngine) ForceEnd(auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("engine: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	lock := e.lockFor(auctionID)
	lock.Lock()
	defer lock.Unlock()

	a, err := e.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to get auction %s: %w", auctionID, err)
	}
	if a.Status == model.StatusEnded {
		return a, nil
	}

	a.TimeRemainingSeconds = 0
	finalize(&a)
	if err := e.store.SaveAuction(a); err != nil {
		return model.Auction{}, fmt.Errorf("engine: failed to save auction %s: %w", auctionID, err)
	}
	return a, nil
}

// SubmitBid validates and records an exporter's bid. Admission rules are
// checked in order: auction active, bidder registered, price strictly
// below the current best (or the initial price when there are no bids),
// price positive, no back-to-back bid from the same bidder, and the
// bidder's own rebid cooldown has elapsed.
func (e *AuctionEngine) SubmitBid(auctionID, bidderID string, price decimal.Decimal) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("engine: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}

	lock := e.lockFor(auctionID)
	lock.Lock()
	defer lock.Unlock()

	a, err := e.store.GetAuction(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("engine: failed to get auction %s: %w", auctionID, err)
	}
	now := e.clock().UTC()

	if a.Status != model.StatusActive {
		return model.Bid{}, fmt.Errorf("engine: %w - auction %s is %s", auctionerrors.ErrAuctionNotActive, auctionID, a.Status)
	}
	if !a.IsRegistered(bidderID) {
		return model.Bid{}, fmt.Errorf("engine: %w - bidder %s", auctionerrors.ErrNotRegistered, bidderID)
	}
	best := a.CurrentBestPrice()
	if !price.LessThan(best) {
		return model.Bid{}, fmt.Errorf("engine: %w - current best price is %s", auctionerrors.ErrPriceNotLower, best.String())
	}
	if price.Sign() <= 0 {
		return model.Bid{}, fmt.Errorf("engine: %w - got %s", auctionerrors.ErrPriceNotPositive, price.String())
	}
	if last := a.LastBid(); last != nil && last.BidderID == bidderID {
		return model.Bid{}, fmt.Errorf("engine: %w", auctionerrors.ErrConsecutiveBid)
	}
	if own := a.LastBidBy(bidderID); own != nil && now.Sub(own.CreatedAt) < e.thresholds.RebidCooldown {
		return model.Bid{}, fmt.Errorf("engine: %w - wait %s between your own bids", auctionerrors.ErrRebidTooSoon, e.thresholds.RebidCooldown)
	}

	bid := model.Bid{
		BidID:          utils.GenerateID(),
		AuctionID:      auctionID,
		BidderID:       bidderID,
		Price:          price,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	a.Bids = append(a.Bids, bid)

	if err := e.store.SaveAuction(a); err != nil {
		return model.Bid{}, fmt.Errorf("engine: failed to record bid on auction %s by bidder %s: %w", auctionID, bidderID, err)
	}
	return bid, nil
}

// EditBid revises the price of an existing bid. Only the owner may edit,
// only while the auction is active and only within the edit-lock window
// after the bid was created. The new price is re-validated as if it were a
// fresh submission, minus the consecutive-bid rule since it is the
// bidder's own slot being revised.
func (e *AuctionEngine) EditBid(auctionID, bidID, bidderID string, newPrice decimal.Decimal) (model.Bid, error) {
	if auctionID == "" || bidID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("engine: %w - missing auctionID, bidID or bidderID", auctionerrors.ErrInvalidInput)
	}

	lock := e.lockFor(auctionID)
	lock.Lock()
	defer lock.Unlock()

	a, err := e.store.GetAuction(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("engine: failed to get auction %s: %w", auctionID, err)
	}
	now := e.clock().UTC()

	if a.Status != model.StatusActive {
		return model.Bid{}, fmt.Errorf("engine: %w - auction %s is %s", auctionerrors.ErrAuctionNotActive, auctionID, a.Status)
	}
	idx := findBid(&a, bidID)
	if idx < 0 {
		return model.Bid{}, fmt.Errorf("engine: %w - bid %s on auction %s", auctionerrors.ErrBidNotFound, bidID, auctionID)
	}
	if a.Bids[idx].BidderID != bidderID {
		return model.Bid{}, fmt.Errorf("engine: %w - bid %s", auctionerrors.ErrNotBidOwner, bidID)
	}
	if now.Sub(a.Bids[idx].CreatedAt) > e.thresholds.EditLockWindow {
		return model.Bid{}, fmt.Errorf("engine: %w - edit window of %s has elapsed", auctionerrors.ErrBidLocked, e.thresholds.EditLockWindow)
	}
	best := a.CurrentBestPrice()
	if !newPrice.LessThan(best) {
		return model.Bid{}, fmt.Errorf("engine: %w - current best price is %s", auctionerrors.ErrPriceNotLower, best.String())
	}
	if newPrice.Sign() <= 0 {
		return model.Bid{}, fmt.Errorf("engine: %w - got %s", auctionerrors.ErrPriceNotPositive, newPrice.String())
	}

	a.Bids[idx].Price = newPrice
	a.Bids[idx].LastModifiedAt = now
	updated := a.Bids[idx]

	if err := e.store.SaveAuction(a); err != nil {
		return model.Bid{}, fmt.Errorf("engine: failed to save edited bid %s: %w", bidID, err)
	}
	return updated, nil
}

// DeleteBid removes a bid. Same preconditions as EditBid: owner only,
// auction still active, edit-lock window not yet elapsed.
func (e *AuctionEngine) DeleteBid(auctionID, bidID, bidderID string) error {
	if auctionID == "" || bidID == "" || bidderID == "" {
		return fmt.Errorf("engine: %w - missing auctionID, bidID or bidderID", auctionerrors.ErrInvalidInput)
	}

	lock := e.lockFor(auctionID)
	lock.Lock()
	defer lock.Unlock()

	a, err := e.store.GetAuction(auctionID)
	if err != nil {
		return fmt.Errorf("engine: failed to get auction %s: %w", auctionID, err)
	}
	now := e.clock().UTC()

	if a.Status != model.StatusActive {
		return fmt.Errorf("engine: %w - auction %s is %s", auctionerrors.ErrAuctionNotActive, auctionID, a.Status)
	}
	idx := findBid(&a, bidID)
	if idx < 0 {
		return fmt.Errorf("engine: %w - bid %s on auction %s", auctionerrors.ErrBidNotFound, bidID, auctionID)
	}
	if a.Bids[idx].BidderID != bidderID {
		return fmt.Errorf("engine: %w - bid %s", auctionerrors.ErrNotBidOwner, bidID)
	}
	if now.Sub(a.Bids[idx].CreatedAt) > e.thresholds.EditLockWindow {
		return fmt.Errorf("engine: %w - edit window of %s has elapsed", auctionerrors.ErrBidLocked, e.thresholds.EditLockWindow)
	}

	a.Bids = append(a.Bids[:idx], a.Bids[idx+1:]...)
	if err := e.store.SaveAuction(a); err != nil {
		return fmt.Errorf("engine: failed to save auction %s after deleting bid %s: %w", auctionID, bidID, err)
	}
	return nil
}

// GetBids returns the bid history of an auction in submission order
func (e *AuctionEngine) GetBids(auctionID string) ([]model.Bid, error) {
	a, err := e.GetAuction(auctionID)
	if err != nil {
		return nil, err
	}
	return a.Bids, nil
}

// GetWinner returns the winning bid of an ended auction. It fails with
// ErrBidNotFound while the auction is still running or when it ended with
// no bids.
func (e *AuctionEngine) GetWinner(auctionID string) (model.Bid, error) {
	a, err := e.GetAuction(auctionID)
	if err != nil {
		return model.Bid{}, err
	}
	if a.Status != model.StatusEnded || a.Winner == nil {
		return model.Bid{}, fmt.Errorf("engine: %w - no winner for auction %s", auctionerrors.ErrBidNotFound, auctionID)
	}
	return *a.Winner, nil
}

// findBid returns the index of bidID in the auction's bid list, or -1.
func findBid(a *model.Auction, bidID string) int {
	for i := range a.Bids {
		if a.Bids[i].BidID == bidID {
			return i
		}
	}
	return -1
}

// currentRound derives the display round counter from elapsed time.
// Termination is tied solely to the countdown; the round number is
// informational.
func currentRound(a *model.Auction) int {
	if a.RoundDurationSeconds <= 0 {
		return a.CurrentRound
	}
	total := int64(a.TotalRounds) * a.RoundDurationSeconds
	elapsed := total - a.TimeRemainingSeconds
	round := int(elapsed/a.RoundDurationSeconds) + 1
	if round > a.TotalRounds {
		round = a.TotalRounds
	}
	return round
}

// finalize transitions the auction to ended and selects the winner: the
// bid with the lowest price, ties broken by earliest creation time. An
// auction that ends with no bids has no winner.
func finalize(a *model.Auction) {
	a.Status = model.StatusEnded
	if len(a.Bids) == 0 {
		return
	}
	winner := a.Bids[0]
	for _, b := range a.Bids[1:] {
		if b.Price.LessThan(winner.Price) ||
			(b.Price.Equal(winner.Price) && b.CreatedAt.Before(winner.CreatedAt)) {
			winner = b
		}
	}
	a.Winner = &winner
}
