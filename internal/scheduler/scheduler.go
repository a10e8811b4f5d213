package scheduler

import (
	"context"
	"errors"
	"time"

	engine "zecbay-auction/internal/auctionEngine"
	"zecbay-auction/internal/auctionerrors"
	model "zecbay-auction/internal/models"
	"zecbay-auction/internal/repository"
	"zecbay-auction/utils"
)

// Broadcaster receives the authoritative snapshot produced by each tick so
// it can be pushed to connected clients.
type Broadcaster interface {
	Broadcast(auctionID string, snap engine.Snapshot)
}

// Scheduler is the single authoritative countdown driver: one goroutine
// sweeps every active auction once per interval and ticks it through the
// engine. Clients never compute auction end locally; they render the
// snapshots this loop publishes.
type Scheduler struct {
	engine      *engine.AuctionEngine
	store       repository.AuctionStore
	broadcaster Broadcaster
	interval    time.Duration
	now         func() time.Time
}

// NewScheduler creates a scheduler sweeping at the given interval.
// broadcaster may be nil when no push channel is wired.
func NewScheduler(eng *engine.AuctionEngine, store repository.AuctionStore, broadcaster Broadcaster, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		engine:      eng,
		store:       store,
		broadcaster: broadcaster,
		interval:    interval,
		now:         time.Now,
	}
}

// Run blocks, sweeping auctions every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	utils.Info("scheduler started", map[string]any{"interval": s.interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.Info("scheduler stopped", map[string]any{"reason": ctx.Err().Error()})
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one scheduler pass: start upcoming auctions whose start time
// has passed, then tick every active auction and publish its snapshot.
func (s *Scheduler) Sweep() {
	s.startDue()
	s.tickActive()
}

// startDue fires the upcoming->active transition for auctions whose
// scheduled start time has passed.
func (s *Scheduler) startDue() {
	ids, err := s.store.ListAuctionIDsByStatus(model.StatusUpcoming)
	if err != nil {
		utils.Error("scheduler: failed to list upcoming auctions", map[string]any{"error": err.Error()})
		return
	}

	now := s.now().UTC()
	for _, id := range ids {
		a, err := s.store.GetAuction(id)
		if err != nil || a.StartsAt.After(now) {
			continue
		}
		started, err := s.engine.StartAuction(id)
		if err != nil {
			// Lost the race against an explicit start trigger; nothing to do.
			if errors.Is(err, auctionerrors.ErrAlreadyStarted) {
				continue
			}
			utils.Error("scheduler: failed to start auction", map[string]any{"auction_id": id, "error": err.Error()})
			continue
		}
		utils.Info("scheduler: auction started", map[string]any{
			"auction_id":   id,
			"total_rounds": started.TotalRounds,
			"time_left":    started.TimeRemainingSeconds,
		})
		s.publish(started)
	}
}

// tickActive decrements every active auction's countdown by one second.
func (s *Scheduler) tickActive() {
	ids, err := s.store.ListAuctionIDsByStatus(model.StatusActive)
	if err != nil {
		utils.Error("scheduler: failed to list active auctions", map[string]any{"error": err.Error()})
		return
	}

	for _, id := range ids {
		a, err := s.engine.Tick(id)
		if err != nil {
			utils.Error("scheduler: tick failed", map[string]any{"auction_id": id, "error": err.Error()})
			continue
		}
		if a.Status == model.StatusEnded {
			fields := map[string]any{"auction_id": id, "bids": len(a.Bids)}
			if a.Winner != nil {
				fields["winner_bid_id"] = a.Winner.BidID
				fields["winner_bidder_id"] = a.Winner.BidderID
				fields["winning_price"] = a.Winner.Price.String()
			}
			utils.Info("scheduler: auction ended", fields)
		}
		s.publish(a)
	}
}

// publish pushes the snapshot outside the engine's locked region.
func (s *Scheduler) publish(a model.Auction) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(a.ID, engine.NewSnapshot(a))
}
