// internal/ai/greedy.go
package ai

import "github.com/rani-sader/fourhundred/internal/models"

// Greedy is the rule-based difficulty tier: no weighting, no sampling. On
// lead it cashes a card only when nothing unseen can beat it; when following
// it wins as cheaply as possible or sheds its lowest card, holding trumps
// back unless they are needed to win.
type Greedy struct{}

// NewGreedy returns the rule-based strategy.
func NewGreedy() *Greedy {
	return &Greedy{}
}

func (g *Greedy) CalculateBid(hand []models.Card) int {
	return CalculateBid(hand)
}

func (g *Greedy) ChooseCard(turn TurnState, mem *Memory) models.Card {
	legal := turn.Legal()
	if len(legal) == 1 {
		return legal[0]
	}
	if len(turn.Trick) == 0 {
		return g.lead(legal, turn, mem)
	}
	return g.follow(legal, turn)
}

// lead plays the strongest card when no unseen card can take it, otherwise
// keeps honors back and leads low.
func (g *Greedy) lead(legal []models.Card, turn TurnState, mem *Memory) models.Card {
	hi := highest(legal)
	unbeatable := true
	for _, u := range mem.Unseen(turn.Hand) {
		if u.Suit == hi.Suit && u.Strength() > hi.Strength() {
			unbeatable = false
			break
		}
		if !hi.IsTrump() && u.IsTrump() {
			unbeatable = false
			break
		}
	}
	if unbeatable {
		return hi
	}
	return lowest(legal)
}

// follow wins the trick with the cheapest winning card when possible,
// otherwise discards the lowest legal card, preferring non-trumps.
func (g *Greedy) follow(legal []models.Card, turn TurnState) models.Card {
	var winners []models.Card
	for _, c := range legal {
		if turn.wouldWin(c) {
			winners = append(winners, c)
		}
	}
	if len(winners) > 0 {
		return lowest(winners)
	}
	var offTrump []models.Card
	for _, c := range legal {
		if !c.IsTrump() {
			offTrump = append(offTrump, c)
		}
	}
	if len(offTrump) > 0 {
		return lowest(offTrump)
	}
	return lowest(legal)
}

func highest(cards []models.Card) models.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Strength() > best.Strength() {
			best = c
		}
	}
	return best
}

func lowest(cards []models.Card) models.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Strength() < best.Strength() {
			best = c
		}
	}
	return best
}
