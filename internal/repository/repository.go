package repository

import (
	"fmt"
	"sort"
	"sync"

	"zecbay-auction/internal/auctionerrors"
	model "zecbay-auction/internal/models"

	"github.com/shopspring/decimal"
)

// ListFilter narrows the result of ListAuctions. Zero values mean "no filter".
type ListFilter struct {
	Category string
	Status   model.AuctionStatus
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// AuctionStore defines the auction aggregate storage interface. An auction
// owns its bid list, so every state transition is persisted by saving the
// whole aggregate.
type AuctionStore interface {
	CreateAuction(a model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	SaveAuction(a model.Auction) error
	ListAuctions(filter ListFilter) ([]model.Auction, error)
	ListAuctionIDsByStatus(status model.AuctionStatus) ([]string, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID -> value: auction aggregate
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
	}
}

// CreateAuction stores a new auction aggregate
func (s *MemoryStore) CreateAuction(a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.ID]; ok {
		return fmt.Errorf("create auction %s: %w - id already exists", a.ID, auctionerrors.ErrInvalidInput)
	}
	s.auctions[a.ID] = a.Clone()
	return nil
}

// GetAuction returns a deep copy of the auction aggregate
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a.Clone(), nil
}

// SaveAuction persists a state transition produced by the engine
func (s *MemoryStore) SaveAuction(a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.ID]; !ok {
		return fmt.Errorf("save auction %s: %w", a.ID, auctionerrors.ErrAuctionNotFound)
	}
	s.auctions[a.ID] = a.Clone()
	return nil
}

// ListAuctions returns all auctions matching the filter, ordered by creation time
func (s *MemoryStore) ListAuctions(filter ListFilter) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		if filter.Category != "" && filter.Category != a.Category {
			continue
		}
		if filter.Status != "" && filter.Status != a.Status {
			continue
		}
		best := a.CurrentBestPrice()
		if filter.MinPrice != nil && best.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && best.GreaterThan(*filter.MaxPrice) {
			continue
		}
		out = append(out, a.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListAuctionIDsByStatus returns the IDs of all auctions in the given status.
// The scheduler uses it to sweep active and upcoming auctions each tick.
func (s *MemoryStore) ListAuctionIDsByStatus(status model.AuctionStatus) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, a := range s.auctions {
		if a.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
