package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	bidding "bidding-engine/internal/biddingService"
	"bidding-engine/internal/events"
	model "bidding-engine/internal/models"
	"bidding-engine/internal/orders"
	"bidding-engine/internal/participation"
	"bidding-engine/internal/ranking"
	repository "bidding-engine/internal/repository"
	"bidding-engine/internal/rounds"

	"github.com/shopspring/decimal"
)

// fixture is a memory ledger with active auctions whose first rounds already
// have paying participants.
type fixture struct {
	repo     *repository.MemoryRepo
	svc      *bidding.BiddingService
	auctions []string
	rounds   []string
	users    [][]string // users[i] joined rounds[i]
}

func setupFixture(tb testing.TB, numAuctions, usersPerRound int) *fixture {
	tb.Helper()
	ctx := context.Background()

	repo := repository.NewMemoryRepo()
	manager := rounds.NewManager(repo, events.NewBus(nil))
	joins := participation.NewService(repo)
	f := &fixture{repo: repo, svc: bidding.NewBiddingService(repo)}

	for i := 0; i < numAuctions; i++ {
		a, err := manager.CreateAuction(ctx, model.Auction{
			Title:            fmt.Sprintf("item_%d", i),
			ProductType:      model.ProductAuction,
			BasePrice:        decimal.NewFromInt(100),
			ParticipationFee: decimal.NewFromInt(10),
			MinPledge:        decimal.NewFromInt(100),
			StockQuantity:    1,
		})
		if err != nil {
			tb.Fatalf("create auction: %v", err)
		}
		_, rd, err := manager.Activate(ctx, a.ID)
		if err != nil || rd == nil {
			tb.Fatalf("activate auction: %v", err)
		}

		users := make([]string, usersPerRound)
		for u := range users {
			users[u] = fmt.Sprintf("user_%d_%d", i, u)
			if _, err := joins.Join(ctx, participation.JoinRequest{RoundID: rd.ID, UserID: users[u]}); err != nil {
				tb.Fatalf("join round: %v", err)
			}
		}

		f.auctions = append(f.auctions, a.ID)
		f.rounds = append(f.rounds, rd.ID)
		f.users = append(f.users, users)
	}
	return f
}

// seedBids places n bids spread over the users of round i
func (f *fixture) seedBids(tb testing.TB, i, n int) {
	tb.Helper()
	for k := 0; k < n; k++ {
		user := f.users[i][k%len(f.users[i])]
		pledge := decimal.NewFromInt(int64(100 + k%1000))
		if _, err := f.svc.Submit(context.Background(), f.rounds[i], user, pledge); err != nil {
			tb.Fatalf("seed bid: %v", err)
		}
	}
}

// Benchmark 1: Submit - Isolated Rounds (Low Contention - Micro Benchmark)
func Benchmark_Submit_Isolated(b *testing.B) {
	f := setupFixture(b, 256, 1)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		idx := i % len(f.rounds)
		pledge := decimal.NewFromInt(int64(100 + rand.Intn(100)))
		if _, err := f.svc.Submit(ctx, f.rounds[idx], f.users[idx][0], pledge); err != nil {
			b.Fatalf("failed to submit bid: %v", err)
		}
	}
}

// Benchmark 2: Submit - Shared Round (High Contention - Concurrency Benchmark)
func Benchmark_Submit_ConcurrentSharedRound(b *testing.B) {
	f := setupFixture(b, 1, 512)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	var lastPledge int64 = 100

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			user := f.users[0][rnd.Intn(len(f.users[0]))]
			next := atomic.AddInt64(&lastPledge, int64(rnd.Intn(5)+1))
			_, _ = f.svc.Submit(ctx, f.rounds[0], user, decimal.NewFromInt(next))
		}
	})
}

// Benchmark 3: RankedBids - growing rounds
func Benchmark_RankedBids(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		n := n
		b.Run(fmt.Sprintf("bids_%d", n), func(b *testing.B) {
			f := setupFixture(b, 1, 200)
			f.seedBids(b, 0, n)
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := f.svc.RankedBids(ctx, f.auctions[0]); err != nil {
					b.Fatalf("failed to rank: %v", err)
				}
			}
		})
	}
}

// Benchmark 4: Leaderboard - Concurrent readers while bids arrive
func Benchmark_Leaderboard_ConcurrentWithWrites(b *testing.B) {
	f := setupFixture(b, 1, 200)
	f.seedBids(b, 0, 1000)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	var ops int64
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			user := f.users[0][rnd.Intn(len(f.users[0]))]
			// one write for every nine reads
			if atomic.AddInt64(&ops, 1)%10 == 0 {
				_, _ = f.svc.Submit(ctx, f.rounds[0], user, decimal.NewFromInt(int64(100+rnd.Intn(2000))))
				continue
			}
			if _, err := f.svc.Leaderboard(ctx, f.auctions[0], user); err != nil {
				b.Errorf("leaderboard: %v", err)
			}
		}
	})
}

// Benchmark 5: pure ranking without the ledger
func Benchmark_Rank_Pure(b *testing.B) {
	base := time.Now()
	bids := make([]model.Bid, 5000)
	for i := range bids {
		bids[i] = model.Bid{
			ID:           fmt.Sprintf("bid_%05d", i),
			UserID:       fmt.Sprintf("user_%d", i%1500),
			PledgeAmount: decimal.NewFromInt(int64(50 + i%700)),
			SubmittedAt:  base.Add(time.Duration(i) * time.Millisecond),
			IsValid:      true,
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if r := ranking.Rank(bids); r.Len() == 0 {
			b.Fatal("empty ranking")
		}
	}
}

// Benchmark 6: Checkout - many buyers on one product
func Benchmark_Checkout_ConcurrentSharedProduct(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	manager := rounds.NewManager(repo, events.NewBus(nil))
	svc := orders.NewService(repo, events.NewBus(nil))

	a, err := manager.CreateAuction(ctx, model.Auction{
		Title:         "kettle",
		ProductType:   model.ProductBuyNow,
		BasePrice:     decimal.NewFromInt(2500),
		BuyNowPrice:   decimal.NewNullDecimal(decimal.NewFromInt(2500)),
		StockQuantity: 1 << 30,
	})
	if err != nil {
		b.Fatalf("create product: %v", err)
	}
	if _, _, err := manager.Activate(ctx, a.ID); err != nil {
		b.Fatalf("activate product: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var n int64
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			id := atomic.AddInt64(&n, 1)
			_, err := svc.Checkout(ctx, orders.CheckoutRequest{
				CustomerID: fmt.Sprintf("customer_%d", id%97),
				Lines:      []orders.CheckoutLine{{AuctionID: a.ID, Quantity: 1}},
				Shipping: model.Shipping{
					Name:    "Jane",
					Phone:   "0712345678",
					Address: "1 Moi Ave",
					City:    "Nairobi",
				},
			})
			if err != nil {
				b.Errorf("checkout: %v", err)
			}
		}
	})
}
