// internal/engine/engine.go
package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rani-sader/fourhundred/internal/ai"
	"github.com/rani-sader/fourhundred/internal/models"
)

// NumSeats is the fixed number of players in a 400 match.
const NumSeats = 4

// Phase is the state of the authoritative rules machine.
type Phase string

const (
	// PhaseAwaitingBid: between rounds, waiting for the next deal.
	PhaseAwaitingBid Phase = "awaiting_bid"
	// PhaseBidding: hands dealt, human seats declaring contracts in order.
	PhaseBidding Phase = "bidding"
	// PhasePlaying: tricks in progress.
	PhasePlaying Phase = "playing"
	// PhaseRoundScoring is transient: scores applied, then either a new
	// round is awaited or the game is over.
	PhaseRoundScoring Phase = "round_scoring"
	// PhaseGameOver is terminal.
	PhaseGameOver Phase = "game_over"
)

// TableRules is the per-match configuration.
type TableRules struct {
	// WinScore is the cumulative score a player must reach to win,
	// provided their partner's score is strictly positive.
	WinScore int `json:"winScore"`

	// EnforceBidFloor, when set, rejects human bids below the evaluated
	// strength of the hand (the assisted minimum-bid variant).
	EnforceBidFloor bool `json:"enforceBidFloor"`
}

// DefaultRules returns the canonical rule set.
func DefaultRules() TableRules {
	return TableRules{WinScore: 41}
}

// TrickPlay is one (player, card) entry in the trick in play order.
type TrickPlay struct {
	PlayerID uuid.UUID   `json:"playerId"`
	Seat     int         `json:"seat"`
	Card     models.Card `json:"card"`
}

// OnGameEndFunc receives the final outcome once the match reaches GameOver.
type OnGameEndFunc func(winnerSeat int, scores map[uuid.UUID]int)

// Game holds the entire authoritative state for a single match. All
// mutations go through PlaceBid/PlayCard (and the round lifecycle methods),
// which serialize on the game mutex so no two calls interleave.
type Game struct {
	ID    uuid.UUID
	Rules TableRules

	Players []*models.Player

	Phase       Phase
	RoundNumber int
	TrickNumber int
	LeaderSeat  int
	CurrentSeat int
	WinnerSeat  int

	Trick []TrickPlay

	deck            *models.Deck
	lastTrickWinner int

	// memory is the AI's round-scoped view of played cards. It is owned by
	// the match so concurrent matches never share state, and is reset
	// exactly once per StartNewRound.
	memory     *ai.Memory
	strategies map[int]ai.Strategy

	moveIndex int

	Mu  sync.Mutex
	log *logrus.Entry

	// BroadcastFn pushes events to all players. If nil, no broadcast is done.
	BroadcastFn func(ev Event)

	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev Event)

	// OnGameEnd is invoked once when the match terminates.
	OnGameEnd OnGameEndFunc

	// OnMove receives every applied move, e.g. for the historian queue.
	OnMove func(rec MoveRecord)
}

// NewGame builds an empty match with the given rules.
func NewGame(rules TableRules, logger *logrus.Logger) *Game {
	if rules.WinScore <= 0 {
		rules.WinScore = DefaultRules().WinScore
	}
	if logger == nil {
		logger = logrus.New()
	}
	id := uuid.New()
	return &Game{
		ID:         id,
		Rules:      rules,
		Phase:      PhaseAwaitingBid,
		WinnerSeat: -1,
		deck:       models.NewDeck(0),
		memory:     ai.NewMemory(),
		strategies: make(map[int]ai.Strategy),
		log:        logger.WithField("game", id),
	}
}

// AddPlayer seats a player at the next free seat. Team assignment is by
// seat parity: seats 0 and 2 against seats 1 and 3.
func (g *Game) AddPlayer(p *models.Player) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if len(g.Players) >= NumSeats {
		return ErrTableFull
	}
	p.Seat = len(g.Players)
	p.TeamID = p.Seat % 2
	g.Players = append(g.Players, p)
	g.log.WithFields(logrus.Fields{"player": p.ID, "seat": p.Seat, "ai": !p.IsLocal}).Info("player seated")
	return nil
}

// SetStrategy assigns the decision strategy driving an AI seat.
func (g *Game) SetStrategy(seat int, s ai.Strategy) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.strategies[seat] = s
}

// FillWithAI seats AI players on every remaining seat using the given
// strategy constructor (called once per seat).
func (g *Game) FillWithAI(makeStrategy func(seat int) ai.Strategy) {
	g.Mu.Lock()
	n := len(g.Players)
	g.Mu.Unlock()
	for seat := n; seat < NumSeats; seat++ {
		p := &models.Player{
			ID:        uuid.New(),
			Name:      fmt.Sprintf("Bot %d", seat+1),
			Connected: true,
		}
		if err := g.AddPlayer(p); err != nil {
			return
		}
		g.SetStrategy(seat, makeStrategy(seat))
	}
}

// PlayerBySeat returns the player at a seat, or nil when out of range.
func (g *Game) PlayerBySeat(seat int) *models.Player {
	if seat < 0 || seat >= len(g.Players) {
		return nil
	}
	return g.Players[seat]
}

// PlayerByID returns the seated player with the given id, or nil.
func (g *Game) PlayerByID(playerID uuid.UUID) *models.Player {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// SetConnected flips a seat's connection flag, e.g. on transport failure.
func (g *Game) SetConnected(playerID uuid.UUID, connected bool) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	for _, p := range g.Players {
		if p.ID == playerID {
			p.Connected = connected
			return
		}
	}
}

// Position returns the current round and trick counters for freshness
// checks on inbound messages.
func (g *Game) Position() (round, trick int) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.RoundNumber, g.TrickNumber
}

// SeatCount returns how many seats are filled.
func (g *Game) SeatCount() int {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return len(g.Players)
}

func (g *Game) seatOf(playerID uuid.UUID) int {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p.Seat
		}
	}
	return -1
}

// StartNewRound deals a fresh round: deck reset (seed <= 0 draws a fresh
// shuffle, a positive seed reproduces a deal), 13 sorted cards per seat, AI
// memory cleared, AI contracts computed, and bidding opened at the first
// human seat. With no human seats pending the match moves straight to play.
func (g *Game) StartNewRound(seed int64) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseAwaitingBid {
		return fmt.Errorf("start round: %w", ErrWrongPhase)
	}
	if len(g.Players) != NumSeats {
		return fmt.Errorf("start round: need %d players, have %d", NumSeats, len(g.Players))
	}

	g.RoundNumber++
	g.TrickNumber = 0
	g.Trick = nil
	if g.RoundNumber == 1 {
		g.LeaderSeat = 0
	} else {
		g.LeaderSeat = g.lastTrickWinner
	}

	g.deck.Reset(seed)
	for _, p := range g.Players {
		p.ResetForRound()
		hand := make([]models.Card, 0, models.HandSize)
		for i := 0; i < models.HandSize; i++ {
			c, ok := g.deck.Draw()
			if !ok {
				return fmt.Errorf("start round: deck exhausted mid-deal")
			}
			hand = append(hand, c)
		}
		models.SortHand(hand)
		p.Hand = hand
	}

	// One reset per round: the memory contract with the AI component.
	g.memory.Reset()

	for seat, strat := range g.strategies {
		p := g.Players[seat]
		p.Bid = strat.CalculateBid(p.Hand)
	}

	g.Phase = PhaseBidding
	g.logMove(uuid.Nil, "round_started", map[string]interface{}{"round": g.RoundNumber})
	g.fireEvent(Event{Type: EventRoundStarted, Seat: g.LeaderSeat, Payload: map[string]interface{}{
		"round":  g.RoundNumber,
		"leader": g.LeaderSeat,
	}})

	if !g.advanceBidder(g.LeaderSeat) {
		g.beginPlay()
	}
	return nil
}

// advanceBidder sets CurrentSeat to the first seat from `from` (inclusive,
// in play order) still missing a bid. Returns false when every seat has bid.
func (g *Game) advanceBidder(from int) bool {
	for i := 0; i < NumSeats; i++ {
		seat := (from + i) % NumSeats
		if g.Players[seat].Bid == 0 {
			g.CurrentSeat = seat
			g.fireEvent(Event{Type: EventPlayerTurn, Seat: seat, PlayerID: g.Players[seat].ID, Payload: map[string]interface{}{
				"phase": string(PhaseBidding),
			}})
			return true
		}
	}
	return false
}

func (g *Game) beginPlay() {
	g.Phase = PhasePlaying
	g.CurrentSeat = g.LeaderSeat
	g.fireEvent(Event{Type: EventPlayerTurn, Seat: g.CurrentSeat, PlayerID: g.Players[g.CurrentSeat].ID, Payload: map[string]interface{}{
		"phase": string(PhasePlaying),
		"trick": g.TrickNumber,
	}})
}

// PlaceBid records the designated bidder's contract. An illegal bid never
// mutates state and reports a distinct legality failure.
func (g *Game) PlaceBid(playerID uuid.UUID, bid int) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.placeBidLocked(playerID, bid)
}

func (g *Game) placeBidLocked(playerID uuid.UUID, bid int) error {
	if g.Phase != PhaseBidding {
		return fmt.Errorf("place bid: %w", ErrWrongPhase)
	}
	seat := g.seatOf(playerID)
	if seat == -1 {
		return ErrUnknownPlayer
	}
	if seat != g.CurrentSeat {
		return ErrNotYourTurn
	}
	if bid < ai.MinBid || bid > ai.MaxBid {
		return fmt.Errorf("bid %d: %w", bid, ErrBidOutOfRange)
	}
	if g.Rules.EnforceBidFloor {
		if floor := ai.CalculateBid(g.Players[seat].Hand); bid < floor {
			return fmt.Errorf("bid %d below computed floor %d: %w", bid, floor, ErrBidOutOfRange)
		}
	}

	g.Players[seat].Bid = bid
	g.logMove(playerID, "bid_placed", map[string]interface{}{"bid": bid})
	g.fireEvent(Event{Type: EventBidPlaced, Seat: seat, PlayerID: playerID, Payload: map[string]interface{}{"bid": bid}})

	if !g.advanceBidder((seat + 1) % NumSeats) {
		g.beginPlay()
	}
	return nil
}

// PlayCard applies the current player's card to the trick, resolving the
// trick (and round, and game) as needed. Illegal plays never mutate state.
func (g *Game) PlayCard(playerID uuid.UUID, card models.Card) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.playCardLocked(playerID, card)
}

func (g *Game) playCardLocked(playerID uuid.UUID, card models.Card) error {
	if g.Phase != PhasePlaying {
		return fmt.Errorf("play card: %w", ErrRoundInactive)
	}
	seat := g.seatOf(playerID)
	if seat == -1 {
		return ErrUnknownPlayer
	}
	if seat != g.CurrentSeat {
		return ErrNotYourTurn
	}
	p := g.Players[seat]
	if !p.HasCard(card) {
		return fmt.Errorf("%s: %w", card, ErrCardNotHeld)
	}
	if len(g.Trick) > 0 {
		lead := g.Trick[0].Card.Suit
		if card.Suit != lead && p.HoldsSuit(lead) {
			return fmt.Errorf("%s on %s lead: %w", card, lead, ErrSuitViolation)
		}
	}

	p.RemoveCard(card)
	g.Trick = append(g.Trick, TrickPlay{PlayerID: playerID, Seat: seat, Card: card})
	g.memory.Observe(playerID, card)
	g.logMove(playerID, "card_played", map[string]interface{}{"card": card.String()})
	c := card
	g.fireEvent(Event{Type: EventCardPlayed, Seat: seat, PlayerID: playerID, Card: &c, Payload: map[string]interface{}{
		"trick": g.TrickNumber,
	}})

	if len(g.Trick) == NumSeats {
		g.resolveTrick()
		return nil
	}

	g.CurrentSeat = (seat + 1) % NumSeats
	g.fireEvent(Event{Type: EventPlayerTurn, Seat: g.CurrentSeat, PlayerID: g.Players[g.CurrentSeat].ID, Payload: map[string]interface{}{
		"phase": string(PhasePlaying),
		"trick": g.TrickNumber,
	}})
	return nil
}

// resolveTrick picks the winner of a full trick: the highest trump if any
// trump was played, otherwise the highest card of the lead suit.
// Assumes lock is held.
func (g *Game) resolveTrick() {
	lead := g.Trick[0].Card.Suit
	best := g.Trick[0]
	for _, tp := range g.Trick[1:] {
		bc, cc := best.Card, tp.Card
		switch {
		case cc.IsTrump() && !bc.IsTrump():
			best = tp
		case cc.IsTrump() == bc.IsTrump() && cc.Suit == bc.Suit && cc.Strength() > bc.Strength():
			best = tp
		case !cc.IsTrump() && !bc.IsTrump() && bc.Suit != lead && cc.Suit == lead:
			best = tp
		}
	}

	winner := g.Players[best.Seat]
	winner.TricksWon++
	g.lastTrickWinner = best.Seat
	g.LeaderSeat = best.Seat
	g.TrickNumber++

	resolved := make([]TrickPlay, len(g.Trick))
	copy(resolved, g.Trick)
	g.Trick = nil

	g.log.WithFields(logrus.Fields{"trick": g.TrickNumber, "winner": best.Seat}).Debug("trick resolved")
	g.fireEvent(Event{Type: EventTrickResolved, Seat: best.Seat, PlayerID: winner.ID, Trick: resolved, Payload: map[string]interface{}{
		"trick": g.TrickNumber,
	}})

	if g.TrickNumber == models.HandSize {
		g.scoreRound()
		return
	}

	g.CurrentSeat = best.Seat
	g.fireEvent(Event{Type: EventPlayerTurn, Seat: g.CurrentSeat, PlayerID: winner.ID, Payload: map[string]interface{}{
		"phase": string(PhasePlaying),
		"trick": g.TrickNumber,
	}})
}

// scoreRound applies the round score to every player exactly once, then
// either closes the match or awaits the next deal. Assumes lock is held.
func (g *Game) scoreRound() {
	g.Phase = PhaseRoundScoring

	results := make([]RoundResult, 0, NumSeats)
	for _, p := range g.Players {
		pts := RoundPoints(p.Bid, p.TricksWon)
		p.Score += pts
		results = append(results, RoundResult{
			PlayerID:  p.ID,
			Seat:      p.Seat,
			Bid:       p.Bid,
			TricksWon: p.TricksWon,
			Points:    pts,
			Score:     p.Score,
		})
	}
	g.logMove(uuid.Nil, "round_scored", map[string]interface{}{"round": g.RoundNumber})
	g.fireEvent(Event{Type: EventRoundResult, Payload: map[string]interface{}{
		"round":   g.RoundNumber,
		"results": results,
	}})

	if seat := g.winnerSeat(); seat >= 0 {
		g.Phase = PhaseGameOver
		g.WinnerSeat = seat
		winner := g.Players[seat]
		g.log.WithFields(logrus.Fields{"winner": seat, "score": winner.Score}).Info("game over")
		g.fireEvent(Event{Type: EventGameEnd, Seat: seat, PlayerID: winner.ID, Payload: map[string]interface{}{
			"score": winner.Score,
		}})
		if g.OnGameEnd != nil {
			scores := make(map[uuid.UUID]int, NumSeats)
			for _, p := range g.Players {
				scores[p.ID] = p.Score
			}
			g.OnGameEnd(seat, scores)
		}
		return
	}

	g.Phase = PhaseAwaitingBid
}

// winnerSeat returns the winning seat, or -1 while the match continues. A
// seat wins by crossing the score threshold while its partner is strictly
// positive; a negative partner blocks the win even at match point.
func (g *Game) winnerSeat() int {
	best := -1
	for _, p := range g.Players {
		if p.Score < g.Rules.WinScore {
			continue
		}
		partner := g.Players[(p.Seat+2)%NumSeats]
		if partner.Score <= 0 {
			continue
		}
		if best == -1 || p.Score > g.Players[best].Score {
			best = p.Seat
		}
	}
	return best
}

// AdvanceAI plays every consecutive AI seat through the same serialized
// entry point as human moves. The loop is explicitly bounded so a table of
// four AI seats cannot recurse or spin.
func (g *Game) AdvanceAI() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	for i := 0; i < NumSeats*models.HandSize; i++ {
		if g.Phase != PhasePlaying {
			return nil
		}
		strat, ok := g.strategies[g.CurrentSeat]
		if !ok {
			return nil
		}
		p := g.Players[g.CurrentSeat]
		turn := ai.TurnState{
			Hand:        p.Hand,
			Trick:       g.aiTrick(),
			TrickNumber: g.TrickNumber,
			Bid:         p.Bid,
			TricksWon:   p.TricksWon,
			TeamID:      p.TeamID,
		}
		card := strat.ChooseCard(turn, g.memory)
		if err := g.playCardLocked(p.ID, card); err != nil {
			// Strategies only return legal candidates; a failure here is a
			// bug worth surfacing rather than looping on.
			return fmt.Errorf("ai move for seat %d: %w", p.Seat, err)
		}
	}
	return nil
}

func (g *Game) aiTrick() []ai.TrickCard {
	out := make([]ai.TrickCard, 0, len(g.Trick))
	for _, tp := range g.Trick {
		out = append(out, ai.TrickCard{
			PlayerID: tp.PlayerID,
			Seat:     tp.Seat,
			TeamID:   tp.Seat % 2,
			Card:     tp.Card,
		})
	}
	return out
}

// NewAIRand returns a seeded random source for AI strategies; seed <= 0
// falls back to the clock.
func NewAIRand(seed int64) *rand.Rand {
	if seed <= 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// fireEvent broadcasts an event to all connected players.
// Assumes lock is held.
func (g *Game) fireEvent(ev Event) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends an event only to a specific player.
// Assumes lock is held.
func (g *Game) fireEventToPlayer(playerID uuid.UUID, ev Event) {
	if g.BroadcastToPlayerFn != nil {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// logMove feeds the historian hook. Assumes lock is held.
func (g *Game) logMove(playerID uuid.UUID, action string, payload map[string]interface{}) {
	g.moveIndex++
	if g.OnMove != nil {
		g.OnMove(MoveRecord{
			GameID:    g.ID,
			MoveIndex: g.moveIndex,
			PlayerID:  playerID,
			Action:    action,
			Payload:   payload,
		})
	}
}
