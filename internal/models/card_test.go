// internal/models/card_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardStrength(t *testing.T) {
	assert.Equal(t, 14, Card{Suit: SuitSpades, Rank: RankAce}.Strength())
	assert.Equal(t, 22, Card{Suit: SuitHearts, Rank: RankTwo}.Strength(),
		"any trump outranks any non-trump")
	assert.True(t, Card{Suit: SuitHearts, Rank: RankTwo}.Strength() >
		Card{Suit: SuitSpades, Rank: RankAce}.Strength())
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "AH", Card{Suit: SuitHearts, Rank: RankAce}.String())
	assert.Equal(t, "10C", Card{Suit: SuitClubs, Rank: RankTen}.String())
	assert.Equal(t, "2S", Card{Suit: SuitSpades, Rank: RankTwo}.String())
}

func TestSortHandTrumpFirst(t *testing.T) {
	hand := []Card{
		{Suit: SuitSpades, Rank: RankTwo},
		{Suit: SuitHearts, Rank: RankThree},
		{Suit: SuitClubs, Rank: RankAce},
		{Suit: SuitHearts, Rank: RankKing},
	}
	SortHand(hand)

	assert.Equal(t, Card{Suit: SuitHearts, Rank: RankKing}, hand[0])
	assert.Equal(t, Card{Suit: SuitHearts, Rank: RankThree}, hand[1])
	for _, c := range hand[2:] {
		assert.False(t, c.IsTrump())
	}
}

func TestDeckDealAndDeterminism(t *testing.T) {
	d1 := NewDeck(7)
	d2 := NewDeck(7)
	require.Equal(t, DeckSize, d1.Remaining())

	seen := make(map[Card]struct{}, DeckSize)
	for i := 0; i < DeckSize; i++ {
		c1, ok := d1.Draw()
		require.True(t, ok)
		c2, ok := d2.Draw()
		require.True(t, ok)
		assert.Equal(t, c1, c2, "equal seeds give equal deals")
		seen[c1] = struct{}{}
	}
	assert.Len(t, seen, DeckSize, "every card is distinct")

	_, ok := d1.Draw()
	assert.False(t, ok, "an exhausted deck stops dealing")

	d1.Reset(8)
	assert.Equal(t, DeckSize, d1.Remaining())
}

func TestPlayerHand(t *testing.T) {
	p := &Player{Hand: []Card{
		{Suit: SuitSpades, Rank: RankAce},
		{Suit: SuitClubs, Rank: RankTwo},
	}}

	assert.True(t, p.HasCard(Card{Suit: SuitSpades, Rank: RankAce}))
	assert.False(t, p.HasCard(Card{Suit: SuitSpades, Rank: RankKing}))
	assert.True(t, p.HoldsSuit(SuitClubs))
	assert.False(t, p.HoldsSuit(SuitHearts))

	assert.True(t, p.RemoveCard(Card{Suit: SuitSpades, Rank: RankAce}))
	assert.Len(t, p.Hand, 1)
	assert.False(t, p.RemoveCard(Card{Suit: SuitSpades, Rank: RankAce}), "a card can only be removed once")

	p.Bid, p.TricksWon, p.Score = 5, 3, 12
	p.ResetForRound()
	assert.Nil(t, p.Hand)
	assert.Zero(t, p.Bid)
	assert.Zero(t, p.TricksWon)
	assert.Equal(t, 12, p.Score, "cumulative score survives the round reset")
}
