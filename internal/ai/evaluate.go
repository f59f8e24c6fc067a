// internal/ai/evaluate.go
package ai

import "github.com/rani-sader/fourhundred/internal/models"

// Bid bounds: every round contract is between 2 and 13 tricks.
const (
	MinBid = 2
	MaxBid = 13
)

// trumpRankBonus is the per-trump-card evaluation bonus by rank.
func trumpRankBonus(r models.Rank) float64 {
	switch r {
	case models.RankAce:
		return 6.0
	case models.RankKing:
		return 4.5
	case models.RankQueen:
		return 3.5
	case models.RankJack:
		return 2.5
	default:
		return 1.2
	}
}

// HandStrength scores a 13-card hand for bidding purposes. It rewards trump
// length, trump honors, off-suit honors, and short suits (which open ruffing
// chances since hearts are always trump).
func HandStrength(hand []models.Card) float64 {
	var strength float64
	suitCounts := map[models.Suit]int{}
	trumps := 0
	for _, c := range hand {
		suitCounts[c.Suit]++
		if c.IsTrump() {
			trumps++
			strength += trumpRankBonus(c.Rank)
		} else if c.Rank >= models.RankJack {
			strength += 2.0
		}
	}
	strength += float64(trumps) * 4.5
	for _, suit := range models.Suits {
		if suitCounts[suit] <= 2 {
			strength += 2.0
		}
	}
	return strength
}

// CalculateBid converts a hand evaluation into a contract in [MinBid, MaxBid].
func CalculateBid(hand []models.Card) int {
	strength := HandStrength(hand)
	bid := int(strength / 4)
	if strength > 26 {
		bid++
	}
	if strength > 32 {
		bid++
	}
	if bid < MinBid {
		bid = MinBid
	}
	if bid > MaxBid {
		bid = MaxBid
	}
	return bid
}
