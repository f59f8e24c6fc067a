// internal/ai/weighted.go
package ai

import (
	"math/rand"

	"github.com/rani-sader/fourhundred/internal/models"
)

// Factor weights for the weighted chooser. They sum to 1.
const (
	weightMonteCarlo = 0.35
	weightTactical   = 0.20
	weightPressure   = 0.15
	weightPartner    = 0.10
	weightStage      = 0.10
	weightMemory     = 0.10
)

const (
	monteCarloTrials    = 20
	monteCarloThreshold = 0.6
)

// Weighted is the default AI difficulty tier. Each legal candidate gets a
// weighted sum of six factors; the highest-scoring candidate is played, with
// ties broken by hand order so outcomes are reproducible for a fixed rng.
type Weighted struct {
	rng *rand.Rand
}

// NewWeighted builds a weighted strategy around the given random source.
func NewWeighted(rng *rand.Rand) *Weighted {
	return &Weighted{rng: rng}
}

func (w *Weighted) CalculateBid(hand []models.Card) int {
	return CalculateBid(hand)
}

func (w *Weighted) ChooseCard(turn TurnState, mem *Memory) models.Card {
	legal := turn.Legal()
	best := legal[0]
	bestScore := w.scoreCandidate(best, turn, mem)
	for _, c := range legal[1:] {
		if s := w.scoreCandidate(c, turn, mem); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

func (w *Weighted) scoreCandidate(c models.Card, turn TurnState, mem *Memory) float64 {
	return weightMonteCarlo*w.monteCarloFactor(c, turn, mem) +
		weightTactical*tacticalFactor(c, turn) +
		weightPressure*pressureFactor(turn) +
		weightPartner*partnerFactor(turn) +
		weightStage*stageFactor(turn) +
		weightMemory*memoryFactor(c, mem)
}

// monteCarloFactor estimates the chance the candidate survives the trick.
// Each trial perturbs the base win probability by a uniform factor in
// [0.8, 1.2] and counts a win when the perturbed value clears the threshold.
func (w *Weighted) monteCarloFactor(c models.Card, turn TurnState, mem *Memory) float64 {
	unseen := mem.Unseen(turn.Hand)
	if len(unseen) == 0 {
		return 1.0
	}
	beats := 0
	for _, u := range unseen {
		if u.Suit == c.Suit && u.Strength() > c.Strength() {
			beats++
		} else if !c.IsTrump() && u.IsTrump() {
			beats++
		}
	}
	winProbability := 1.0 - float64(beats)/float64(len(unseen))

	wins := 0
	for i := 0; i < monteCarloTrials; i++ {
		perturb := 0.8 + w.rng.Float64()*0.4
		if winProbability*perturb > monteCarloThreshold {
			wins++
		}
	}
	return float64(wins) / monteCarloTrials
}

func tacticalFactor(c models.Card, turn TurnState) float64 {
	score := float64(c.Rank) / 14.0
	if c.IsTrump() {
		score += 1.0
	}
	if turn.TricksWon < turn.Bid {
		score += 0.7
	} else {
		score -= 0.5
	}
	return score
}

func pressureFactor(turn TurnState) float64 {
	needed := turn.Bid - turn.TricksWon
	remaining := models.HandSize - turn.TrickNumber
	switch {
	case needed >= remaining:
		return 1.0
	case float64(needed) > float64(remaining)/2:
		return 0.7
	default:
		return 0.3
	}
}

func partnerFactor(turn TurnState) float64 {
	best, ok := turn.ProvisionalWinner()
	if !ok {
		return 0
	}
	if best.TeamID == turn.TeamID {
		return -0.6
	}
	return 0.5
}

func stageFactor(turn TurnState) float64 {
	switch {
	case turn.TrickNumber < 4:
		return 0.3
	case turn.TrickNumber < 9:
		return 0.7
	default:
		return 1.1
	}
}

// memoryFactor is the fraction of the candidate's suit already seen; playing
// into a nearly exhausted suit is safer.
func memoryFactor(c models.Card, mem *Memory) float64 {
	return float64(mem.SuitSeen(c.Suit)) / float64(models.HandSize)
}
