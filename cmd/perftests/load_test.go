package perftests

import (
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	engine "zecbay-auction/internal/auctionEngine"
	"zecbay-auction/internal/repository"

	"github.com/shopspring/decimal"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name        string
	NumBidders  int
	NumAuctions int
	ReadRatio   int
	MaxDiscount int
	Burst       bool // if true, no delay between ops
}

// OperationMetrics collects latencies safely
type OperationMetrics struct {
	latencies atomic.Value // stores []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	v := om.latencies.Load()
	var l []time.Duration
	if v != nil {
		l = v.([]time.Duration)
	}
	l = append(l, d)
	om.latencies.Store(l)
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	v := om.latencies.Load()
	if v == nil {
		return
	}
	latencies := v.([]time.Duration)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)))]
	p99 = latencies[int(0.99*float64(len(latencies)))]
	return
}

const loadInitialPrice = 1_000_000

// setupLoadEngine creates an engine with active auctions and a registered bidder pool
func setupLoadEngine(b *testing.B, numAuctions, numBidders int) (*engine.AuctionEngine, []string) {
	b.Helper()
	store := repository.NewMemoryStore()
	eng := engine.NewAuctionEngine(store, engine.Thresholds{
		EditLockWindow: engine.DefaultThresholds().EditLockWindow,
		RebidCooldown:  0,
	})

	auctionIDs := make([]string, numAuctions)
	for i := 0; i < numAuctions; i++ {
		a, err := eng.CreateAuction(engine.CreateAuctionParams{
			Title:                fmt.Sprintf("lot_%d", i),
			SellerID:             "seller-1",
			InitialPrice:         decimal.NewFromInt(loadInitialPrice),
			Unit:                 "kg",
			Quantity:             1000,
			MOQ:                  100,
			TotalRounds:          1,
			RoundDurationSeconds: 1 << 30,
		})
		if err != nil {
			b.Fatalf("failed to create auction: %v", err)
		}
		for u := 0; u < numBidders; u++ {
			if _, err := eng.RegisterBidder(a.ID, fmt.Sprintf("exp_%d", u)); err != nil {
				b.Fatalf("failed to register bidder: %v", err)
			}
		}
		if _, err := eng.StartAuction(a.ID); err != nil {
			b.Fatalf("failed to start auction: %v", err)
		}
		auctionIDs[i] = a.ID
	}
	return eng, auctionIDs
}

// Benchmark_Load_AuctionEngine runs multiple scenarios
func Benchmark_Load_AuctionEngine(b *testing.B) {
	scenarios := []LoadScenario{
		{"Low-Contention-WriteHeavy", 200, 200, 0, 500, false},
		{"High-Contention-WriteHeavy", 500, 10, 0, 200, false},
		{"Mixed-Workload", 300, 50, 7, 300, false},
		{"ReadHeavy", 200, 50, 9, 200, false},
		{"Edge-Case-SingleAuction", 100, 1, 5, 100, false},
		{"Peak-Burst", 500, 50, 0, 200, true},
	}

	for _, s := range scenarios {
		b.Run(s.Name, func(b *testing.B) {
			runParallelScenario(b, s)
		})
	}
}

func runParallelScenario(b *testing.B, s LoadScenario) {
	b.ReportAllocs()

	eng, auctionIDs := setupLoadEngine(b, s.NumAuctions, s.NumBidders)

	var totalOps, acceptedBids, rejectedBids, totalReads int64
	auctionAccepted := make([]int64, s.NumAuctions)
	metrics := &OperationMetrics{}
	// each accepted bid must undercut the running best, so bids race
	// down from the initial price as the counter climbs
	var discount int64

	start := time.Now()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(time.Now().Nanosecond())))

		for pb.Next() {
			auctionIndex := rnd.Intn(s.NumAuctions)
			auctionID := auctionIDs[auctionIndex]
			opType := rnd.Intn(10)

			opStart := time.Now()
			if opType < s.ReadRatio {
				if _, err := eng.GetBids(auctionID); err != nil {
					b.Logf("ignored read error: %v", err)
				}
				atomic.AddInt64(&totalReads, 1)
			} else {
				d := atomic.AddInt64(&discount, int64(1+rnd.Intn(s.MaxDiscount)))
				price := decimal.NewFromInt(loadInitialPrice - d%loadInitialPrice)
				bidderID := fmt.Sprintf("exp_%d", rnd.Intn(s.NumBidders))
				if _, err := eng.SubmitBid(auctionID, bidderID, price); err != nil {
					atomic.AddInt64(&rejectedBids, 1)
				} else {
					atomic.AddInt64(&acceptedBids, 1)
					atomic.AddInt64(&auctionAccepted[auctionIndex], 1)
				}
			}

			metrics.Record(time.Since(opStart))
			atomic.AddInt64(&totalOps, 1)

			if !s.Burst {
				time.Sleep(time.Millisecond)
			}
		}
	})

	elapsed := time.Since(start)
	throughput := float64(totalOps) / elapsed.Seconds()
	min, max, avg, p95, p99 := metrics.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	b.Logf(
		"Scenario: %s | Auctions: %d | Total Ops: %d | Accepted Bids: %d | Rejected Bids: %d | Reads: %d | Elapsed: %s | Throughput: %.2f ops/sec | Latency(us) min: %.2f avg: %.2f max: %.2f p95: %.2f p99: %.2f | Memory Alloc: %.2f MB",
		s.Name, s.NumAuctions, totalOps, acceptedBids, rejectedBids, totalReads, elapsed,
		throughput,
		float64(min.Microseconds()), float64(avg.Microseconds()), float64(max.Microseconds()),
		float64(p95.Microseconds()), float64(p99.Microseconds()),
		float64(mem.Alloc)/1024/1024,
	)

	for i, v := range auctionAccepted {
		if v > 0 {
			b.Logf("Auction %d accepted bids: %d", i, v)
		}
	}
}
