// internal/engine/view.go
package engine

import (
	"github.com/google/uuid"

	"github.com/rani-sader/fourhundred/internal/models"
)

// PlayerState is one seat as seen in a snapshot. Hand is populated only for
// the viewing player (or in the host's unredacted persistence snapshot);
// every other seat exposes its hand size alone.
type PlayerState struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Seat          int           `json:"seat"`
	TeamID        int           `json:"teamId"`
	HandSize      int           `json:"handSize"`
	Hand          []models.Card `json:"hand,omitempty"`
	Score         int           `json:"score"`
	Bid           int           `json:"bid"`
	TricksWon     int           `json:"tricksWon"`
	IsLocal       bool          `json:"isLocal"`
	Connected     bool          `json:"connected"`
	IsCurrentTurn bool          `json:"isCurrentTurn"`
}

// State is a serializable snapshot of the match. StateFor produces the
// redacted per-viewer form sent over the wire; Snapshot produces the full
// form for the persistence collaborator.
type State struct {
	GameID        uuid.UUID     `json:"gameId"`
	Phase         Phase         `json:"phase"`
	RoundNumber   int           `json:"roundNumber"`
	TrickNumber   int           `json:"trickNumber"`
	LeaderSeat    int           `json:"leaderSeat"`
	CurrentSeat   int           `json:"currentSeat"`
	Trick         []TrickPlay   `json:"trick"`
	DeckRemaining int           `json:"deckRemaining"`
	Players       []PlayerState `json:"players"`
	TeamScores    [2]int        `json:"teamScores"`
	WinnerSeat    int           `json:"winnerSeat"`
	WinnerID      *uuid.UUID    `json:"winnerId,omitempty"`
}

// StateFor generates the snapshot of the match for the given viewer. Every
// other player's hand is redacted to a count; only the viewer's own cards
// cross the wire.
func (g *Game) StateFor(viewer uuid.UUID) State {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.stateLocked(viewer, false)
}

// Snapshot generates the full, unredacted snapshot of the match for the
// persistence collaborator. It must never be sent to a client.
func (g *Game) Snapshot() State {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.stateLocked(uuid.Nil, true)
}

func (g *Game) stateLocked(viewer uuid.UUID, full bool) State {
	st := State{
		GameID:      g.ID,
		Phase:       g.Phase,
		RoundNumber: g.RoundNumber,
		TrickNumber: g.TrickNumber,
		LeaderSeat:  g.LeaderSeat,
		CurrentSeat: g.CurrentSeat,
		WinnerSeat:  g.WinnerSeat,
	}
	st.Trick = make([]TrickPlay, len(g.Trick))
	copy(st.Trick, g.Trick)
	st.DeckRemaining = g.deck.Remaining()

	for _, p := range g.Players {
		ps := PlayerState{
			ID:            p.ID,
			Name:          p.Name,
			Seat:          p.Seat,
			TeamID:        p.TeamID,
			HandSize:      len(p.Hand),
			Score:         p.Score,
			Bid:           p.Bid,
			TricksWon:     p.TricksWon,
			IsLocal:       p.IsLocal,
			Connected:     p.Connected,
			IsCurrentTurn: p.Seat == g.CurrentSeat && (g.Phase == PhaseBidding || g.Phase == PhasePlaying),
		}
		if full || p.ID == viewer {
			ps.Hand = make([]models.Card, len(p.Hand))
			copy(ps.Hand, p.Hand)
		}
		st.Players = append(st.Players, ps)
		st.TeamScores[p.TeamID] += p.Score
	}

	if g.WinnerSeat >= 0 {
		id := g.Players[g.WinnerSeat].ID
		st.WinnerID = &id
	}
	return st
}

// Projection is the read-only view consumed by a UI collaborator. The UI
// issues exactly two write intents back: a bid and a card.
type Projection struct {
	Phase              Phase         `json:"phase"`
	Players            []PlayerState `json:"players"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	CurrentTrick       []TrickPlay   `json:"currentTrick"`
	TeamScores         [2]int        `json:"teamScores"`
	WinnerID           *uuid.UUID    `json:"winnerId,omitempty"`
}

// Projection builds the UI view from the given viewer's perspective.
func (g *Game) Projection(viewer uuid.UUID) Projection {
	st := g.StateFor(viewer)
	return Projection{
		Phase:              st.Phase,
		Players:            st.Players,
		CurrentPlayerIndex: st.CurrentSeat,
		CurrentTrick:       st.Trick,
		TeamScores:         st.TeamScores,
		WinnerID:           st.WinnerID,
	}
}
