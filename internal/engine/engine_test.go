// internal/engine/engine_test.go
package engine

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rani-sader/fourhundred/internal/ai"
	"github.com/rani-sader/fourhundred/internal/models"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []Event
	playerEvents map[uuid.UUID][]Event
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{playerEvents: make(map[uuid.UUID][]Event)}
}

func (mb *mockBroadcaster) broadcastFn(ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(playerID uuid.UUID, ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = nil
	mb.playerEvents = make(map[uuid.UUID][]Event)
}

func (mb *mockBroadcaster) lastEvent() *Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.allEvents) == 0 {
		return nil
	}
	return &mb.allEvents[len(mb.allEvents)-1]
}

func (mb *mockBroadcaster) eventsOfType(et EventType) []Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []Event
	for _, ev := range mb.allEvents {
		if ev.Type == et {
			out = append(out, ev)
		}
	}
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

// setupGame seats four humans and deals a reproducible round.
func setupGame(t *testing.T, seed int64) (*Game, []*models.Player, *mockBroadcaster) {
	g := NewGame(DefaultRules(), quietLogger())
	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn
	g.BroadcastToPlayerFn = mb.broadcastToPlayerFn

	players := make([]*models.Player, NumSeats)
	for i := 0; i < NumSeats; i++ {
		p := &models.Player{ID: uuid.New(), Name: "p", IsLocal: true, Connected: true}
		require.NoError(t, g.AddPlayer(p))
		players[i] = p
	}

	require.NoError(t, g.StartNewRound(seed))
	require.Equal(t, PhaseBidding, g.Phase)
	return g, players, mb
}

// bidAll places a legal bid for every seat in turn order.
func bidAll(t *testing.T, g *Game, bid int) {
	for g.Phase == PhaseBidding {
		p := g.Players[g.CurrentSeat]
		require.NoError(t, g.PlaceBid(p.ID, bid))
	}
	require.Equal(t, PhasePlaying, g.Phase)
}

// setHands overwrites the dealt hands for a scripted scenario. The game must
// already be in the playing phase.
func setHands(g *Game, hands [NumSeats][]models.Card) {
	for i, h := range hands {
		g.Players[i].Hand = append([]models.Card(nil), h...)
	}
	g.Trick = nil
}

func card(s models.Suit, r models.Rank) models.Card {
	return models.Card{Suit: s, Rank: r}
}

func TestAddPlayerTableFull(t *testing.T) {
	g := NewGame(DefaultRules(), quietLogger())
	for i := 0; i < NumSeats; i++ {
		require.NoError(t, g.AddPlayer(&models.Player{ID: uuid.New()}))
	}
	err := g.AddPlayer(&models.Player{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrTableFull)
	assert.Len(t, g.Players, NumSeats)
}

func TestTeamAssignmentBySeatParity(t *testing.T) {
	g, players, _ := setupGame(t, 7)
	assert.Equal(t, 0, players[0].TeamID)
	assert.Equal(t, 1, players[1].TeamID)
	assert.Equal(t, 0, players[2].TeamID)
	assert.Equal(t, 1, players[3].TeamID)
	assert.Equal(t, players[0].TeamID, players[2].TeamID, "seats 0 and 2 are partners")
	_ = g
}

func TestDealConservesDeck(t *testing.T) {
	g, players, _ := setupGame(t, 7)

	seen := make(map[models.Card]int)
	total := 0
	for _, p := range players {
		require.Len(t, p.Hand, models.HandSize)
		for _, c := range p.Hand {
			seen[c]++
			total++
		}
	}
	total += g.deck.Remaining()

	assert.Equal(t, models.DeckSize, total, "hands plus deck must cover the full deck")
	assert.Equal(t, 0, g.deck.Remaining(), "a four-seat deal exhausts the deck")
	for c, n := range seen {
		assert.Equalf(t, 1, n, "card %s dealt %d times", c, n)
	}
}

func TestDealIsReproducible(t *testing.T) {
	g1, p1, _ := setupGame(t, 99)
	g2, p2, _ := setupGame(t, 99)
	for i := range p1 {
		assert.Equal(t, p1[i].Hand, p2[i].Hand)
	}
	_, _ = g1, g2
}

func TestStartRoundRequiresAwaitingBid(t *testing.T) {
	g, _, _ := setupGame(t, 7)
	err := g.StartNewRound(7)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestBiddingFlow(t *testing.T) {
	g, players, mb := setupGame(t, 7)
	require.Equal(t, 0, g.CurrentSeat, "round one bidding opens at seat 0")

	// Out-of-turn bid is rejected without effect.
	err := g.PlaceBid(players[1].ID, 5)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, 0, players[1].Bid)

	// Out-of-range bids are rejected without effect.
	assert.ErrorIs(t, g.PlaceBid(players[0].ID, 1), ErrBidOutOfRange)
	assert.ErrorIs(t, g.PlaceBid(players[0].ID, 14), ErrBidOutOfRange)
	assert.Equal(t, 0, players[0].Bid)
	assert.Equal(t, PhaseBidding, g.Phase)

	// Unknown ids are rejected.
	assert.ErrorIs(t, g.PlaceBid(uuid.New(), 5), ErrUnknownPlayer)

	mb.clear()
	require.NoError(t, g.PlaceBid(players[0].ID, 4))
	assert.Equal(t, 4, players[0].Bid)
	assert.Equal(t, 1, g.CurrentSeat, "bidding rotates in seat order")

	bids := mb.eventsOfType(EventBidPlaced)
	require.Len(t, bids, 1)
	assert.Equal(t, 0, bids[0].Seat)

	require.NoError(t, g.PlaceBid(players[1].ID, 3))
	require.NoError(t, g.PlaceBid(players[2].ID, 2))
	require.NoError(t, g.PlaceBid(players[3].ID, 13))

	assert.Equal(t, PhasePlaying, g.Phase, "play opens once every seat has bid")
	assert.Equal(t, g.LeaderSeat, g.CurrentSeat, "the leader plays first")

	// A late bid is rejected: bidding is over.
	assert.ErrorIs(t, g.PlaceBid(players[0].ID, 5), ErrWrongPhase)
}

func TestPlayCardLegality(t *testing.T) {
	g, players, _ := setupGame(t, 7)
	bidAll(t, g, 3)

	setHands(g, [NumSeats][]models.Card{
		{card(models.SuitSpades, models.RankAce), card(models.SuitHearts, models.RankTwo)},
		{card(models.SuitSpades, models.RankThree), card(models.SuitClubs, models.RankKing)},
		{card(models.SuitSpades, models.RankFour), card(models.SuitDiamonds, models.RankNine)},
		{card(models.SuitSpades, models.RankFive), card(models.SuitClubs, models.RankTwo)},
	})
	g.CurrentSeat = 0
	g.LeaderSeat = 0

	// Playing before it's your turn never mutates state.
	err := g.PlayCard(players[1].ID, card(models.SuitSpades, models.RankThree))
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Empty(t, g.Trick)
	assert.Len(t, players[1].Hand, 2)

	// Playing a card you don't hold never mutates state.
	err = g.PlayCard(players[0].ID, card(models.SuitClubs, models.RankAce))
	assert.ErrorIs(t, err, ErrCardNotHeld)
	assert.Empty(t, g.Trick)
	assert.Len(t, players[0].Hand, 2)

	require.NoError(t, g.PlayCard(players[0].ID, card(models.SuitSpades, models.RankAce)))
	require.Len(t, g.Trick, 1)

	// Seat 1 holds the lead suit and must follow it.
	err = g.PlayCard(players[1].ID, card(models.SuitClubs, models.RankKing))
	assert.ErrorIs(t, err, ErrSuitViolation)
	assert.Len(t, g.Trick, 1, "rejected play leaves the trick unchanged")
	assert.Len(t, players[1].Hand, 2, "rejected play leaves the hand unchanged")

	require.NoError(t, g.PlayCard(players[1].ID, card(models.SuitSpades, models.RankThree)))
	assert.Len(t, g.Trick, 2)
}

func TestTrickWonByHighestLeadSuit(t *testing.T) {
	g, players, mb := setupGame(t, 7)
	bidAll(t, g, 3)

	setHands(g, [NumSeats][]models.Card{
		{card(models.SuitSpades, models.RankKing)},
		{card(models.SuitSpades, models.RankAce)},
		{card(models.SuitClubs, models.RankTwo)}, // void in spades
		{card(models.SuitSpades, models.RankFour)},
	})
	g.CurrentSeat = 0
	g.LeaderSeat = 0
	mb.clear()

	require.NoError(t, g.PlayCard(players[0].ID, card(models.SuitSpades, models.RankKing)))
	require.NoError(t, g.PlayCard(players[1].ID, card(models.SuitSpades, models.RankAce)))
	require.NoError(t, g.PlayCard(players[2].ID, card(models.SuitClubs, models.RankTwo)))
	require.NoError(t, g.PlayCard(players[3].ID, card(models.SuitSpades, models.RankFour)))

	assert.Equal(t, 1, players[1].TricksWon, "ace of the lead suit takes the trick")
	assert.Equal(t, 1, g.LeaderSeat, "winner leads the next trick")
	assert.Equal(t, 1, g.CurrentSeat)
	assert.Equal(t, 1, g.TrickNumber)
	assert.Empty(t, g.Trick, "trick is cleared after resolution")

	resolved := mb.eventsOfType(EventTrickResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, 1, resolved[0].Seat)
	assert.Len(t, resolved[0].Trick, NumSeats)
}

func TestTrickWonByTrump(t *testing.T) {
	g, players, _ := setupGame(t, 7)
	bidAll(t, g, 3)

	setHands(g, [NumSeats][]models.Card{
		{card(models.SuitSpades, models.RankAce)},
		{card(models.SuitSpades, models.RankKing)},
		{card(models.SuitHearts, models.RankTwo)}, // void in spades, ruffs
		{card(models.SuitSpades, models.RankQueen)},
	})
	g.CurrentSeat = 0
	g.LeaderSeat = 0

	require.NoError(t, g.PlayCard(players[0].ID, card(models.SuitSpades, models.RankAce)))
	require.NoError(t, g.PlayCard(players[1].ID, card(models.SuitSpades, models.RankKing)))
	require.NoError(t, g.PlayCard(players[2].ID, card(models.SuitHearts, models.RankTwo)))
	require.NoError(t, g.PlayCard(players[3].ID, card(models.SuitSpades, models.RankQueen)))

	assert.Equal(t, 1, players[2].TricksWon, "the lone trump beats even the ace of the lead suit")
	assert.Equal(t, 2, g.LeaderSeat)
}

func TestHigherTrumpWins(t *testing.T) {
	g, players, _ := setupGame(t, 7)
	bidAll(t, g, 3)

	setHands(g, [NumSeats][]models.Card{
		{card(models.SuitHearts, models.RankThree)},
		{card(models.SuitHearts, models.RankJack)},
		{card(models.SuitHearts, models.RankFive)},
		{card(models.SuitClubs, models.RankAce)}, // void in hearts
	})
	g.CurrentSeat = 0
	g.LeaderSeat = 0

	require.NoError(t, g.PlayCard(players[0].ID, card(models.SuitHearts, models.RankThree)))
	require.NoError(t, g.PlayCard(players[1].ID, card(models.SuitHearts, models.RankJack)))
	require.NoError(t, g.PlayCard(players[2].ID, card(models.SuitHearts, models.RankFive)))
	require.NoError(t, g.PlayCard(players[3].ID, card(models.SuitClubs, models.RankAce)))

	assert.Equal(t, 1, players[1].TricksWon)
}

// playFinalTrick scripts the thirteenth trick with seat 0 winning it.
func playFinalTrick(t *testing.T, g *Game, players []*models.Player) {
	setHands(g, [NumSeats][]models.Card{
		{card(models.SuitSpades, models.RankAce)},
		{card(models.SuitSpades, models.RankTwo)},
		{card(models.SuitSpades, models.RankThree)},
		{card(models.SuitSpades, models.RankFour)},
	})
	g.TrickNumber = models.HandSize - 1
	g.CurrentSeat = 0
	g.LeaderSeat = 0

	require.NoError(t, g.PlayCard(players[0].ID, card(models.SuitSpades, models.RankAce)))
	require.NoError(t, g.PlayCard(players[1].ID, card(models.SuitSpades, models.RankTwo)))
	require.NoError(t, g.PlayCard(players[2].ID, card(models.SuitSpades, models.RankThree)))
	require.NoError(t, g.PlayCard(players[3].ID, card(models.SuitSpades, models.RankFour)))
}

func TestRoundScoring(t *testing.T) {
	g, players, mb := setupGame(t, 7)
	bidAll(t, g, 3)

	// Bids and trick counts going into the final trick; seat 0 takes it.
	players[0].Bid, players[0].TricksWon = 3, 3 // ends 4 >= 3, +3
	players[1].Bid, players[1].TricksWon = 7, 2 // failed high bid, -14
	players[2].Bid, players[2].TricksWon = 13, 0 // failed capot, -52
	players[3].Bid, players[3].TricksWon = 2, 7 // overtricks, +2
	mb.clear()

	playFinalTrick(t, g, players)

	assert.Equal(t, 3, players[0].Score)
	assert.Equal(t, -14, players[1].Score)
	assert.Equal(t, -52, players[2].Score)
	assert.Equal(t, 2, players[3].Score)

	assert.Equal(t, PhaseAwaitingBid, g.Phase, "no winner yet, next deal awaited")
	results := mb.eventsOfType(EventRoundResult)
	require.Len(t, results, 1, "round is scored exactly once")

	// The final trick's winner leads the next round.
	require.NoError(t, g.StartNewRound(8))
	assert.Equal(t, 0, g.LeaderSeat)
	assert.Equal(t, 2, g.RoundNumber)
}

func TestCapotSweepReward(t *testing.T) {
	g, players, _ := setupGame(t, 7)
	bidAll(t, g, 3)

	players[0].Bid, players[0].TricksWon = 13, 12 // wins the last for 13/13
	players[1].Bid, players[1].TricksWon = 2, 0
	players[2].Bid, players[2].TricksWon = 2, 2 // partner stays positive
	players[3].Bid, players[3].TricksWon = 2, 0

	playFinalTrick(t, g, players)

	assert.Equal(t, 400, players[0].Score)
	assert.Equal(t, PhaseGameOver, g.Phase)
}

func TestGameOverRequiresPositivePartner(t *testing.T) {
	g, players, _ := setupGame(t, 7)
	bidAll(t, g, 3)

	// Seat 0 crosses the threshold but its partner (seat 2) stays negative.
	players[0].Score, players[0].Bid, players[0].TricksWon = 39, 2, 1 // ends 2/2, +2 => 41
	players[1].Score, players[1].Bid, players[1].TricksWon = 0, 2, 0
	players[2].Score, players[2].Bid, players[2].TricksWon = -5, 2, 0 // -2 => -7
	players[3].Score, players[3].Bid, players[3].TricksWon = 0, 2, 0

	playFinalTrick(t, g, players)

	assert.GreaterOrEqual(t, players[0].Score, g.Rules.WinScore)
	assert.Equal(t, PhaseAwaitingBid, g.Phase, "a non-positive partner blocks the win")
	assert.Equal(t, -1, g.WinnerSeat)
}

func TestGameOverWithPositivePartner(t *testing.T) {
	g, players, _ := setupGame(t, 7)
	bidAll(t, g, 3)

	var endedSeat int
	var endedScores map[uuid.UUID]int
	g.OnGameEnd = func(winnerSeat int, scores map[uuid.UUID]int) {
		endedSeat = winnerSeat
		endedScores = scores
	}

	players[0].Score, players[0].Bid, players[0].TricksWon = 39, 2, 1
	players[1].Score, players[1].Bid, players[1].TricksWon = 0, 2, 0
	players[2].Score, players[2].Bid, players[2].TricksWon = 5, 2, 2 // +2 => 7
	players[3].Score, players[3].Bid, players[3].TricksWon = 0, 2, 0

	playFinalTrick(t, g, players)

	assert.Equal(t, PhaseGameOver, g.Phase)
	assert.Equal(t, 0, g.WinnerSeat)
	assert.Equal(t, 0, endedSeat)
	assert.Equal(t, 41, endedScores[players[0].ID])

	// A finished match rejects further input.
	assert.ErrorIs(t, g.PlayCard(players[0].ID, card(models.SuitSpades, models.RankAce)), ErrRoundInactive)
	assert.ErrorIs(t, g.StartNewRound(9), ErrWrongPhase)
}

func TestAdvanceAIPlaysFullRound(t *testing.T) {
	g := NewGame(DefaultRules(), quietLogger())
	g.FillWithAI(func(seat int) ai.Strategy {
		return ai.NewWeighted(NewAIRand(int64(seat + 1)))
	})
	require.Equal(t, NumSeats, len(g.Players))

	require.NoError(t, g.StartNewRound(42))
	assert.Equal(t, PhasePlaying, g.Phase, "an all-AI table skips straight to play")
	for _, p := range g.Players {
		assert.GreaterOrEqual(t, p.Bid, ai.MinBid)
		assert.LessOrEqual(t, p.Bid, ai.MaxBid)
	}

	require.NoError(t, g.AdvanceAI())

	totalTricks := 0
	for _, p := range g.Players {
		assert.Empty(t, p.Hand, "every card gets played")
		totalTricks += p.TricksWon
	}
	assert.Equal(t, models.HandSize, totalTricks)
	assert.Contains(t, []Phase{PhaseAwaitingBid, PhaseGameOver}, g.Phase)
}
