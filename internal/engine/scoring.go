// internal/engine/scoring.go
package engine

// Capot scoring constants: a fulfilled 13 bid sweeps the round, a failed one
// costs a full deck's worth of points.
const (
	capotBid     = 13
	capotReward  = 400
	capotPenalty = -52
)

// highBid is the threshold from which contracts score double.
const highBid = 7

// RoundPoints computes the signed score delta for one player at round
// scoring, given the player's contract and the tricks actually won.
func RoundPoints(bid, tricksWon int) int {
	if bid == capotBid {
		if tricksWon == capotBid {
			return capotReward
		}
		return capotPenalty
	}
	if tricksWon >= bid {
		if bid >= highBid {
			return 2 * bid
		}
		return bid
	}
	if bid >= highBid {
		return -2 * bid
	}
	return -bid
}
