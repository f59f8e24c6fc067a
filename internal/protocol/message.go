// internal/protocol/message.go

// Package protocol defines the wire schema shared by the host and every
// client replica. The schema is the contract: any ordered, reliable,
// bidirectional byte stream can carry these messages, and the reference
// transport (websocket) adds nothing beyond framing.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GameType tags every message so mixed-game transports can demultiplex.
const GameType = "four_hundred"

// Action identifies the purpose of a message.
type Action string

const (
	ActionJoin          Action = "JOIN"
	ActionLeave         Action = "LEAVE"
	ActionReady         Action = "READY"
	ActionStartGame     Action = "START_GAME"
	ActionStartRound    Action = "START_ROUND"
	ActionPlayCard      Action = "PLAY_CARD"
	ActionPlaceBid      Action = "PLACE_BID"
	ActionRequestPlay   Action = "REQUEST_PLAY"
	ActionSyncState     Action = "SYNC_STATE"
	ActionRequestSync   Action = "REQUEST_SYNC"
	ActionTriggerAIMove Action = "TRIGGER_AI_MOVE"
	ActionRoundResult   Action = "ROUND_RESULT"
	ActionGameOver      Action = "GAME_OVER"
	ActionMessage       Action = "MESSAGE"
	ActionPing          Action = "PING"
	ActionPong          Action = "PONG"
	ActionError         Action = "ERROR"
)

// Message is the single envelope exchanged between host and clients.
// Payload is action-specific and opaque to the envelope: a state snapshot, a
// card, a bid, chat text, or an error description.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"senderId"`
	SenderName string    `json:"senderName,omitempty"`
	GameType   string    `json:"gameType"`
	Action     Action    `json:"action"`

	Payload json.RawMessage `json:"payload,omitempty"`

	// TargetPlayerID routes a unicast message; zero means broadcast.
	TargetPlayerID uuid.UUID `json:"targetPlayerId,omitempty"`

	// RoundNumber and TrickNumber support freshness checks: a message older
	// than the receiver's current position is discarded without effect.
	RoundNumber int `json:"roundNumber,omitempty"`
	TrickNumber int `json:"trickNumber,omitempty"`

	IsHost    bool  `json:"isHost"`
	Timestamp int64 `json:"timestamp"`
}

// New builds a message envelope with a fresh id and timestamp.
func New(sender uuid.UUID, action Action) Message {
	return Message{
		ID:        uuid.New(),
		SenderID:  sender,
		GameType:  GameType,
		Action:    action,
		Timestamp: time.Now().UnixMilli(),
	}
}

// WithPayload marshals v into the message payload.
func (m Message) WithPayload(v interface{}) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return m, fmt.Errorf("marshal %s payload: %w", m.Action, err)
	}
	m.Payload = data
	return m, nil
}

// DecodePayload unmarshals the opaque payload into v.
func (m Message) DecodePayload(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", m.Action)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Action, err)
	}
	return nil
}

// StaleFor reports whether the message is older than the receiver's current
// position and must be dropped: an earlier round, or an earlier trick within
// the current round. Messages without freshness fields (both zero) pass.
func (m Message) StaleFor(currentRound, currentTrick int) bool {
	if m.RoundNumber == 0 && m.TrickNumber == 0 {
		return false
	}
	if m.RoundNumber != 0 && m.RoundNumber < currentRound {
		return true
	}
	if m.RoundNumber != 0 && m.RoundNumber > currentRound {
		return false
	}
	return m.TrickNumber < currentTrick
}
