// internal/ai/strategy.go
package ai

import (
	"github.com/google/uuid"

	"github.com/rani-sader/fourhundred/internal/models"
)

// TrickCard is one card already on the table in the current trick, tagged
// with the seat's team so strategies can reason about partnerships.
type TrickCard struct {
	PlayerID uuid.UUID
	Seat     int
	TeamID   int
	Card     models.Card
}

// TurnState is everything a strategy may look at when choosing a card. It is
// a pure read of engine state; strategies never mutate it.
type TurnState struct {
	Hand        []models.Card
	Trick       []TrickCard
	TrickNumber int // completed tricks this round, 0..12
	Bid         int
	TricksWon   int
	TeamID      int
}

// Strategy chooses bids and cards for an AI seat. Implementations never fail:
// ChooseCard always returns a member of the legal candidate set, which is
// non-empty by construction whenever a decision is requested.
type Strategy interface {
	CalculateBid(hand []models.Card) int
	ChooseCard(turn TurnState, mem *Memory) models.Card
}

// LeadSuit returns the suit of the first card in the trick, or false if the
// trick is empty.
func (t TurnState) LeadSuit() (models.Suit, bool) {
	if len(t.Trick) == 0 {
		return "", false
	}
	return t.Trick[0].Card.Suit, true
}

// Legal returns the candidate set under the follow-suit rule: all of the hand
// when leading or when void in the lead suit, otherwise only lead-suit cards.
func (t TurnState) Legal() []models.Card {
	lead, ok := t.LeadSuit()
	if !ok {
		return t.Hand
	}
	var follow []models.Card
	for _, c := range t.Hand {
		if c.Suit == lead {
			follow = append(follow, c)
		}
	}
	if len(follow) == 0 {
		return t.Hand
	}
	return follow
}

// ProvisionalWinner returns the trick entry currently winning, applying the
// trump-then-lead-suit comparison to the partial trick. ok is false when the
// trick is empty.
func (t TurnState) ProvisionalWinner() (TrickCard, bool) {
	if len(t.Trick) == 0 {
		return TrickCard{}, false
	}
	lead := t.Trick[0].Card.Suit
	best := t.Trick[0]
	for _, tc := range t.Trick[1:] {
		if beatsCard(tc.Card, best.Card, lead) {
			best = tc
		}
	}
	return best, true
}

// beatsCard reports whether a beats b given the lead suit, under the
// trump-then-lead-suit rule.
func beatsCard(a, b models.Card, lead models.Suit) bool {
	if a.IsTrump() != b.IsTrump() {
		return a.IsTrump()
	}
	if a.IsTrump() {
		return a.Strength() > b.Strength()
	}
	if a.Suit == b.Suit {
		return a.Strength() > b.Strength()
	}
	// Off-suit non-trump cards never beat the lead suit.
	return a.Suit == lead && b.Suit != lead
}

// wouldWin reports whether playing c now would take the trick from the
// current provisional winner.
func (t TurnState) wouldWin(c models.Card) bool {
	best, ok := t.ProvisionalWinner()
	if !ok {
		return true
	}
	return beatsCard(c, best.Card, t.Trick[0].Card.Suit)
}
