// internal/models/deck.go
package models

import (
	"math/rand"
	"time"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// HandSize is the number of cards dealt to each of the four seats, and
// equally the number of tricks in a round.
const HandSize = 13

// Deck is a shuffled stack of the 52 distinct cards with sequential draw.
// A Deck is round-scoped: Reset rebuilds and reshuffles it for a new deal.
type Deck struct {
	cards []Card
}

// NewDeck builds a full deck shuffled with the given seed. A seed <= 0
// produces a time-seeded shuffle; a positive seed gives a reproducible deal.
func NewDeck(seed int64) *Deck {
	d := &Deck{}
	d.Reset(seed)
	return d
}

// Reset rebuilds the full 52-card deck and reshuffles it.
func (d *Deck) Reset(seed int64) {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for r := RankTwo; r <= RankAce; r++ {
			cards = append(cards, Card{Suit: suit, Rank: r})
		}
	}
	if seed <= 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	d.cards = cards
}

// Draw removes and returns the top card. The second return is false once the
// deck is exhausted.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, true
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
