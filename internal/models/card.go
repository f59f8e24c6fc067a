// internal/models/card.go
package models

import (
	"fmt"
	"sort"
)

// Suit is one of the four French suits, encoded as a single letter.
type Suit string

const (
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
	SuitSpades   Suit = "S"
)

// Suits lists every suit in deck order.
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// TrumpSuit is fixed: hearts always trump in 400.
const TrumpSuit = SuitHearts

// Rank is the numeric rank of a card, 2..14 with Ace high.
type Rank int

const (
	RankTwo Rank = iota + 2
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
)

// trumpBonus is added to a trump card's strength so that any trump outranks
// any non-trump at trick resolution.
const trumpBonus = 20

func (r Rank) String() string {
	switch r {
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	case RankAce:
		return "A"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// Card is an immutable (suit, rank) pair. Cards are value-equal and may be
// used as map keys.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// IsTrump reports whether the card belongs to the fixed trump suit.
func (c Card) IsTrump() bool {
	return c.Suit == TrumpSuit
}

// Strength is the cross-suit comparison value used at trick resolution:
// the rank value, plus a flat bonus for trump cards.
func (c Card) Strength() int {
	s := int(c.Rank)
	if c.IsTrump() {
		s += trumpBonus
	}
	return s
}

func (c Card) String() string {
	return c.Rank.String() + string(c.Suit)
}

// SortHand orders a hand for display and deterministic iteration:
// trump first, then suit groups, then descending strength within a suit.
func SortHand(hand []Card) {
	sort.SliceStable(hand, func(i, j int) bool {
		a, b := hand[i], hand[j]
		if a.IsTrump() != b.IsTrump() {
			return a.IsTrump()
		}
		if a.Suit != b.Suit {
			return a.Suit < b.Suit
		}
		return a.Strength() > b.Strength()
	})
}
