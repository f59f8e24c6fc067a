// internal/ai/strategy_test.go
package ai

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rani-sader/fourhundred/internal/models"
)

func TestLegalFollowsSuit(t *testing.T) {
	hand := []models.Card{
		c(models.SuitSpades, models.RankAce),
		c(models.SuitSpades, models.RankTwo),
		c(models.SuitHearts, models.RankKing),
		c(models.SuitClubs, models.RankNine),
	}

	// Leading: the whole hand is legal.
	turn := TurnState{Hand: hand}
	assert.Equal(t, hand, turn.Legal())

	// Following with lead-suit cards in hand: only those are legal.
	turn.Trick = []TrickCard{{Seat: 3, Card: c(models.SuitSpades, models.RankFive)}}
	legal := turn.Legal()
	require.Len(t, legal, 2)
	for _, card := range legal {
		assert.Equal(t, models.SuitSpades, card.Suit)
	}

	// Void in the lead suit: the whole hand is legal again.
	turn.Trick = []TrickCard{{Seat: 3, Card: c(models.SuitDiamonds, models.RankFive)}}
	assert.Equal(t, hand, turn.Legal())
}

func TestProvisionalWinner(t *testing.T) {
	turn := TurnState{Trick: []TrickCard{
		{Seat: 0, TeamID: 0, Card: c(models.SuitSpades, models.RankAce)},
		{Seat: 1, TeamID: 1, Card: c(models.SuitSpades, models.RankKing)},
	}}
	best, ok := turn.ProvisionalWinner()
	require.True(t, ok)
	assert.Equal(t, 0, best.Seat)

	// A trump takes over regardless of rank.
	turn.Trick = append(turn.Trick, TrickCard{Seat: 2, TeamID: 0, Card: c(models.SuitHearts, models.RankTwo)})
	best, ok = turn.ProvisionalWinner()
	require.True(t, ok)
	assert.Equal(t, 2, best.Seat)

	// An off-suit non-trump never wins.
	turn.Trick = []TrickCard{
		{Seat: 0, Card: c(models.SuitSpades, models.RankTwo)},
		{Seat: 1, Card: c(models.SuitClubs, models.RankAce)},
	}
	best, _ = turn.ProvisionalWinner()
	assert.Equal(t, 0, best.Seat)

	_, ok = TurnState{}.ProvisionalWinner()
	assert.False(t, ok)
}

// contains reports membership in a candidate slice.
func contains(cards []models.Card, target models.Card) bool {
	for _, card := range cards {
		if card == target {
			return true
		}
	}
	return false
}

// randomTurn deals a fresh hand and a partial trick out of the same deck so
// no card appears twice.
func randomTurn(t *testing.T, rng *rand.Rand, handSize int) (TurnState, *Memory) {
	deck := models.NewDeck(rng.Int63n(1 << 30) + 1)
	mem := NewMemory()

	hand := make([]models.Card, 0, handSize)
	for i := 0; i < handSize; i++ {
		card, ok := deck.Draw()
		require.True(t, ok)
		hand = append(hand, card)
	}

	trickLen := rng.Intn(4)
	trick := make([]TrickCard, 0, trickLen)
	for i := 0; i < trickLen; i++ {
		card, ok := deck.Draw()
		require.True(t, ok)
		mem.Observe(uuid.New(), card)
		trick = append(trick, TrickCard{Seat: i, TeamID: i % 2, Card: card})
	}

	return TurnState{
		Hand:        hand,
		Trick:       trick,
		TrickNumber: models.HandSize - handSize,
		Bid:         2 + rng.Intn(12),
		TricksWon:   rng.Intn(models.HandSize - handSize + 1),
		TeamID:      rng.Intn(2),
	}, mem
}

func TestChooseCardAlwaysLegal(t *testing.T) {
	strategies := map[string]Strategy{
		"weighted": NewWeighted(rand.New(rand.NewSource(1))),
		"greedy":   NewGreedy(),
	}
	rng := rand.New(rand.NewSource(2))

	for name, strat := range strategies {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 500; i++ {
				turn, mem := randomTurn(t, rng, 1+rng.Intn(models.HandSize))
				chosen := strat.ChooseCard(turn, mem)
				assert.Truef(t, contains(turn.Legal(), chosen),
					"%s chose %s outside the candidate set", name, chosen)
			}
		})
	}
}

func TestWeightedIsDeterministicForFixedSource(t *testing.T) {
	turnRng := rand.New(rand.NewSource(5))
	turn, mem := randomTurn(t, turnRng, 8)

	a := NewWeighted(rand.New(rand.NewSource(9))).ChooseCard(turn, mem)
	b := NewWeighted(rand.New(rand.NewSource(9))).ChooseCard(turn, mem)
	assert.Equal(t, a, b)
}

func TestGreedyWinsAsCheaplyAsPossible(t *testing.T) {
	g := NewGreedy()
	turn := TurnState{
		Hand: []models.Card{
			c(models.SuitSpades, models.RankAce),
			c(models.SuitSpades, models.RankNine),
			c(models.SuitSpades, models.RankTwo),
		},
		Trick: []TrickCard{{Seat: 0, Card: c(models.SuitSpades, models.RankFive)}},
	}
	chosen := g.ChooseCard(turn, NewMemory())
	assert.Equal(t, c(models.SuitSpades, models.RankNine), chosen,
		"the cheapest winning card takes the trick")
}

func TestGreedyShedsLowestNonTrumpWhenBeaten(t *testing.T) {
	g := NewGreedy()
	turn := TurnState{
		Hand: []models.Card{
			c(models.SuitClubs, models.RankThree),
			c(models.SuitDiamonds, models.RankNine),
		},
		Trick: []TrickCard{{Seat: 0, Card: c(models.SuitHearts, models.RankAce)}},
	}
	chosen := g.ChooseCard(turn, NewMemory())
	assert.Equal(t, c(models.SuitClubs, models.RankThree), chosen)
}

func TestGreedyRuffsWhenVoid(t *testing.T) {
	g := NewGreedy()
	turn := TurnState{
		Hand: []models.Card{
			c(models.SuitHearts, models.RankTwo),
			c(models.SuitClubs, models.RankKing),
		},
		Trick: []TrickCard{{Seat: 0, Card: c(models.SuitSpades, models.RankAce)}},
	}
	chosen := g.ChooseCard(turn, NewMemory())
	assert.Equal(t, c(models.SuitHearts, models.RankTwo), chosen,
		"a low trump beats the ace when void in the lead suit")
}

func TestGreedyCashesUnbeatableLead(t *testing.T) {
	g := NewGreedy()
	mem := NewMemory()

	// Mark every heart and every spade above the ten as seen, leaving the
	// ten of spades unbeatable on lead.
	for r := models.RankTwo; r <= models.RankAce; r++ {
		mem.Observe(uuid.New(), c(models.SuitHearts, r))
	}
	for r := models.RankJack; r <= models.RankAce; r++ {
		mem.Observe(uuid.New(), c(models.SuitSpades, r))
	}

	turn := TurnState{Hand: []models.Card{
		c(models.SuitSpades, models.RankTen),
		c(models.SuitSpades, models.RankTwo),
	}}
	assert.Equal(t, c(models.SuitSpades, models.RankTen), g.ChooseCard(turn, mem))

	// With a higher spade still out, the lead stays low.
	fresh := NewMemory()
	for r := models.RankTwo; r <= models.RankAce; r++ {
		fresh.Observe(uuid.New(), c(models.SuitHearts, r))
	}
	assert.Equal(t, c(models.SuitSpades, models.RankTwo), g.ChooseCard(turn, fresh))
}
