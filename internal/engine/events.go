// internal/engine/events.go
package engine

import (
	"github.com/google/uuid"

	"github.com/rani-sader/fourhundred/internal/models"
)

// EventType is an enum-like type for broadcasting game happenings to the
// transport layer.
type EventType string

const (
	EventRoundStarted  EventType = "round_started"
	EventPlayerTurn    EventType = "player_turn"
	EventBidPlaced     EventType = "bid_placed"
	EventCardPlayed    EventType = "card_played"
	EventTrickResolved EventType = "trick_resolved"
	EventRoundResult   EventType = "round_result"
	EventGameEnd       EventType = "game_end"
)

// Event is a state-change notification pushed through the broadcast hooks.
// The network layer maps events onto protocol messages; the engine itself is
// transport-agnostic.
type Event struct {
	Type     EventType              `json:"type"`
	PlayerID uuid.UUID              `json:"playerId,omitempty"`
	Seat     int                    `json:"seat"`
	Card     *models.Card           `json:"card,omitempty"`
	Trick    []TrickPlay            `json:"trick,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// RoundResult is one player's line in the round scoring report.
type RoundResult struct {
	PlayerID  uuid.UUID `json:"playerId"`
	Seat      int       `json:"seat"`
	Bid       int       `json:"bid"`
	TricksWon int       `json:"tricksWon"`
	Points    int       `json:"points"`
	Score     int       `json:"score"`
}

// MoveRecord captures one applied move for the out-of-process historian.
type MoveRecord struct {
	GameID    uuid.UUID              `json:"game_id"`
	MoveIndex int                    `json:"move_index"`
	PlayerID  uuid.UUID              `json:"player_id"`
	Action    string                 `json:"action"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}
