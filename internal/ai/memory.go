// internal/ai/memory.go
package ai

import (
	"github.com/google/uuid"

	"github.com/rani-sader/fourhundred/internal/models"
)

// Memory is the round-scoped record of every card seen on the table: the set
// of all played cards plus, per player, the ordered sequence that player has
// produced. A Memory is owned by the match instance and passed explicitly to
// the strategies; it must be reset exactly once per round start.
type Memory struct {
	played   map[models.Card]struct{}
	byPlayer map[uuid.UUID][]models.Card
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	m := &Memory{}
	m.Reset()
	return m
}

// Reset clears all observations ahead of a new round.
func (m *Memory) Reset() {
	m.played = make(map[models.Card]struct{})
	m.byPlayer = make(map[uuid.UUID][]models.Card)
}

// Observe records that playerID has played c.
func (m *Memory) Observe(playerID uuid.UUID, c models.Card) {
	m.played[c] = struct{}{}
	m.byPlayer[playerID] = append(m.byPlayer[playerID], c)
}

// Seen reports whether c has been played this round.
func (m *Memory) Seen(c models.Card) bool {
	_, ok := m.played[c]
	return ok
}

// Count returns how many distinct cards have been observed.
func (m *Memory) Count() int {
	return len(m.played)
}

// SuitSeen returns how many cards of the suit have been observed.
func (m *Memory) SuitSeen(s models.Suit) int {
	n := 0
	for c := range m.played {
		if c.Suit == s {
			n++
		}
	}
	return n
}

// PlayedBy returns the ordered sequence of cards a player has produced.
func (m *Memory) PlayedBy(playerID uuid.UUID) []models.Card {
	return m.byPlayer[playerID]
}

// Unseen returns every card not yet observed and not in the given hand, i.e.
// the cards that could still be held by the other three seats.
func (m *Memory) Unseen(hand []models.Card) []models.Card {
	own := make(map[models.Card]struct{}, len(hand))
	for _, c := range hand {
		own[c] = struct{}{}
	}
	var out []models.Card
	for _, suit := range models.Suits {
		for r := models.RankTwo; r <= models.RankAce; r++ {
			c := models.Card{Suit: suit, Rank: r}
			if _, held := own[c]; held {
				continue
			}
			if m.Seen(c) {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}
