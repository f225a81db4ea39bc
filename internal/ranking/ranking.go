// Package ranking orders the pledges of a round. It is pure: the result
// depends only on the stored bid fields, never on slice or insertion order.
package ranking

import (
	"sort"

	"bidding-engine/internal/models"
)

// Less reports whether a ranks ahead of b: higher pledge first, then the
// earlier submission, then the lower bid id so equal timestamps still order.
func Less(a, b models.Bid) bool {
	if c := a.PledgeAmount.Cmp(b.PledgeAmount); c != 0 {
		return c > 0
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.ID < b.ID
}

// Ranking is the deduplicated total order over a round's valid bids.
type Ranking struct {
	Entries   []models.RankedBid
	positions map[string]int // user id -> position
}

// Rank keeps each user's best valid bid and assigns 1-based positions.
// The input slice is not modified.
func Rank(bids []models.Bid) *Ranking {
	valid := make([]models.Bid, 0, len(bids))
	for _, b := range bids {
		if b.IsValid {
			valid = append(valid, b)
		}
	}

	sort.Slice(valid, func(i, j int) bool { return Less(valid[i], valid[j]) })

	r := &Ranking{
		Entries:   make([]models.RankedBid, 0, len(valid)),
		positions: make(map[string]int, len(valid)),
	}
	for _, b := range valid {
		if _, seen := r.positions[b.UserID]; seen {
			continue
		}
		pos := len(r.Entries) + 1
		r.positions[b.UserID] = pos
		r.Entries = append(r.Entries, models.RankedBid{Bid: b, Position: pos})
	}
	return r
}

// Len returns the number of ranked users.
func (r *Ranking) Len() int { return len(r.Entries) }

// Winner returns the top entry, if any.
func (r *Ranking) Winner() (models.RankedBid, bool) {
	if len(r.Entries) == 0 {
		return models.RankedBid{}, false
	}
	return r.Entries[0], true
}

// Top returns at most n leading entries.
func (r *Ranking) Top(n int) []models.RankedBid {
	if n > len(r.Entries) {
		n = len(r.Entries)
	}
	return r.Entries[:n]
}

// PositionOf returns the user's position, or 0 when the user is unranked.
func (r *Ranking) PositionOf(userID string) int {
	return r.positions[userID]
}

// Entry returns the user's ranked bid.
func (r *Ranking) Entry(userID string) (models.RankedBid, bool) {
	pos := r.positions[userID]
	if pos == 0 {
		return models.RankedBid{}, false
	}
	return r.Entries[pos-1], true
}

// TiedAtTop counts entries sharing the highest pledge.
func (r *Ranking) TiedAtTop() int {
	if len(r.Entries) == 0 {
		return 0
	}
	top := r.Entries[0].PledgeAmount
	n := 0
	for _, e := range r.Entries {
		if !e.PledgeAmount.Equal(top) {
			break
		}
		n++
	}
	return n
}
