package ranking

import (
	"math/rand"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"bidding-engine/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func bid(id, user string, amount int64, at time.Duration) models.Bid {
	return models.Bid{
		ID:           id,
		RoundID:      "round1",
		UserID:       user,
		PledgeAmount: decimal.NewFromInt(amount),
		SubmittedAt:  t0.Add(at),
		IsValid:      true,
	}
}

func users(r *Ranking) []string {
	out := make([]string, 0, r.Len())
	for _, e := range r.Entries {
		out = append(out, e.UserID)
	}
	return out
}

func TestRank_WorkedExample(t *testing.T) {
	bids := []models.Bid{
		bid("b1", "userA", 1200, 1*time.Second),
		bid("b2", "userB", 1500, 2*time.Second),
		bid("b3", "userC", 1500, 3*time.Second),
	}

	r := Rank(bids)

	check.Equal(t, []string{"userB", "userC", "userA"}, users(r))
	check.Equal(t, 1, r.PositionOf("userB"))
	check.Equal(t, 2, r.PositionOf("userC"))
	check.Equal(t, 3, r.PositionOf("userA"))
	check.Equal(t, 2, r.TiedAtTop())

	w, ok := r.Winner()
	check.True(t, ok)
	check.Equal(t, "b2", w.ID)
}

func TestRank_HigherPledgeWinsRegardlessOfOrder(t *testing.T) {
	early := bid("b1", "userA", 500, time.Second)
	late := bid("b2", "userB", 700, 2*time.Second)

	for _, input := range [][]models.Bid{{early, late}, {late, early}} {
		r := Rank(input)
		check.Equal(t, []string{"userB", "userA"}, users(r))
	}
}

func TestRank_BestBidPerUser(t *testing.T) {
	bids := []models.Bid{
		bid("b1", "userA", 1000, 1*time.Second),
		bid("b2", "userB", 1100, 2*time.Second),
		bid("b3", "userA", 1300, 3*time.Second),
		bid("b4", "userA", 1300, 4*time.Second), // repeat of the same pledge, later
	}

	r := Rank(bids)

	check.Equal(t, 2, r.Len())
	check.Equal(t, []string{"userA", "userB"}, users(r))
	e, ok := r.Entry("userA")
	check.True(t, ok)
	check.Equal(t, "b3", e.ID)
}

func TestRank_SkipsInvalidBids(t *testing.T) {
	invalid := bid("b1", "userA", 9000, time.Second)
	invalid.IsValid = false
	bids := []models.Bid{invalid, bid("b2", "userB", 1000, 2*time.Second)}

	r := Rank(bids)

	check.Equal(t, []string{"userB"}, users(r))
	check.Equal(t, 0, r.PositionOf("userA"))
	_, ok := r.Entry("userA")
	check.False(t, ok)
}

func TestRank_EqualTimestampsFallBackToID(t *testing.T) {
	bids := []models.Bid{
		bid("b9", "userA", 1000, time.Second),
		bid("b1", "userB", 1000, time.Second),
	}

	r := Rank(bids)

	check.Equal(t, []string{"userB", "userA"}, users(r))
}

func TestRank_Empty(t *testing.T) {
	r := Rank(nil)

	check.NotNil(t, r)
	check.Equal(t, 0, r.Len())
	check.Equal(t, 0, r.TiedAtTop())
	check.Equal(t, 0, len(r.Top(10)))
	_, ok := r.Winner()
	check.False(t, ok)
}

func TestRank_DeterministicUnderShuffle(t *testing.T) {
	var bids []models.Bid
	for i := 0; i < 40; i++ {
		user := string(rune('a' + i%13))
		bids = append(bids, bid(string(rune('A'+i)), user, int64(1000+(i*37)%200), time.Duration(i%7)*time.Second))
	}

	want := Rank(bids)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.Bid(nil), bids...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Rank(shuffled)
		check.Equal(t, len(want.Entries), len(got.Entries))
		for j := range want.Entries {
			check.Equal(t, want.Entries[j].ID, got.Entries[j].ID)
			check.Equal(t, j+1, got.Entries[j].Position)
		}
	}

	// strict total order: no two adjacent entries compare equal
	for j := 1; j < len(want.Entries); j++ {
		check.True(t, Less(want.Entries[j-1].Bid, want.Entries[j].Bid))
	}
}

func TestRank_Top(t *testing.T) {
	var bids []models.Bid
	for i := 0; i < 15; i++ {
		bids = append(bids, bid(string(rune('A'+i)), string(rune('a'+i)), int64(100+i), 0))
	}

	r := Rank(bids)

	check.Equal(t, 10, len(r.Top(10)))
	check.Equal(t, "o", r.Top(1)[0].UserID)
	check.Equal(t, 15, len(r.Top(50)))
}
