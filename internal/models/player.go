// internal/models/player.go
package models

import "github.com/google/uuid"

// Player is one of the four seats at the table. The Player persists across
// rounds (cumulative Score carries over); Hand, Bid and TricksWon are reset
// at the start of every round.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Seat int       `json:"seat"`

	Hand []Card `json:"hand"`

	// Score is the cumulative signed score across rounds.
	Score int `json:"score"`

	// Bid is the contracted trick count for the current round; 0 before the
	// player has bid, otherwise 2..13.
	Bid       int `json:"bid"`
	TricksWon int `json:"tricksWon"`

	// TeamID groups the two partnerships: seats 0 and 2 are team 0,
	// seats 1 and 3 are team 1.
	TeamID int `json:"teamId"`

	// IsLocal marks a human-controlled seat; AI seats are driven by the host.
	IsLocal   bool `json:"isLocal"`
	Connected bool `json:"connected"`
}

// HasCard reports whether the card is currently in the player's hand.
func (p *Player) HasCard(c Card) bool {
	for _, h := range p.Hand {
		if h == c {
			return true
		}
	}
	return false
}

// RemoveCard deletes the first occurrence of c from the hand, preserving
// order. It returns false if the card was not held.
func (p *Player) RemoveCard(c Card) bool {
	for i, h := range p.Hand {
		if h == c {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// HoldsSuit reports whether the player holds at least one card of the suit.
func (p *Player) HoldsSuit(s Suit) bool {
	for _, h := range p.Hand {
		if h.Suit == s {
			return true
		}
	}
	return false
}

// ResetForRound clears the player's round-scoped state ahead of a new deal.
func (p *Player) ResetForRound() {
	p.Hand = nil
	p.Bid = 0
	p.TricksWon = 0
}
