package perftests

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name           string
	UsersPerRound  int
	NumAuctions    int
	ReadRatio      int // out of 10
	MaxPledgeRange int
	Burst          bool // if true, no delay between ops
}

// OperationMetrics collects latencies safely
type OperationMetrics struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	om.mu.Lock()
	om.latencies = append(om.latencies, d)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.latencies...)
	om.mu.Unlock()
	if len(latencies) == 0 {
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)-1))]
	p99 = latencies[int(0.99*float64(len(latencies)-1))]
	return
}

// Benchmark_Load_BiddingSystem runs multiple scenarios
func Benchmark_Load_BiddingSystem(b *testing.B) {
	scenarios := []LoadScenario{
		{"Low-Contention-WriteHeavy", 10, 200, 0, 50, false},
		{"High-Contention-WriteHeavy", 200, 5, 0, 20, false},
		{"Mixed-Workload", 50, 50, 7, 30, false},
		{"ReadHeavy", 50, 50, 9, 20, false},
		{"Edge-Case-SingleRound", 100, 1, 5, 10, false},
		{"Peak-Burst", 100, 50, 0, 20, true},
	}

	for _, s := range scenarios {
		s := s
		b.Run(s.Name, func(b *testing.B) {
			runParallelScenario(b, s)
		})
	}
}

func runParallelScenario(b *testing.B, s LoadScenario) {
	f := setupFixture(b, s.NumAuctions, s.UsersPerRound)
	ctx := context.Background()

	var totalOps, acceptedBids, rejectedBids, totalReads int64
	roundAccepted := make([]int64, s.NumAuctions)
	metrics := &OperationMetrics{}

	b.ReportAllocs()
	b.ResetTimer()
	start := time.Now()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		for pb.Next() {
			idx := rnd.Intn(s.NumAuctions)
			user := f.users[idx][rnd.Intn(s.UsersPerRound)]
			opType := rnd.Intn(10)

			opStart := time.Now()
			if opType < s.ReadRatio {
				if _, err := f.svc.Leaderboard(ctx, f.auctions[idx], user); err != nil {
					b.Logf("ignored read error: %v", err)
				}
				atomic.AddInt64(&totalReads, 1)
			} else {
				pledge := decimal.NewFromInt(int64(100 + rnd.Intn(s.MaxPledgeRange)))
				if _, err := f.svc.Submit(ctx, f.rounds[idx], user, pledge); err != nil {
					b.Logf("ignored bid error: %v", err)
					atomic.AddInt64(&rejectedBids, 1)
				} else {
					atomic.AddInt64(&acceptedBids, 1)
					atomic.AddInt64(&roundAccepted[idx], 1)
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

	// every accepted bid must still be visible in its round's ranking
	for i, accepted := range roundAccepted {
		if accepted == 0 {
			continue
		}
		ranked, err := f.svc.RankedBids(ctx, f.auctions[i])
		if err != nil {
			b.Fatalf("rank round %d: %v", i, err)
		}
		if int64(ranked.TotalCount) > accepted || ranked.TotalCount == 0 {
			b.Fatalf("round %d: ranking has %d entries for %d accepted bids", i, ranked.TotalCount, accepted)
		}
	}
}
