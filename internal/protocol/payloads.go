// internal/protocol/payloads.go
package protocol

import (
	"github.com/rani-sader/fourhundred/internal/engine"
	"github.com/rani-sader/fourhundred/internal/models"
)

// JoinPayload accompanies JOIN: the display name the player wants and,
// on reconnect, the seat token issued on the first join.
type JoinPayload struct {
	Name      string `json:"name"`
	SeatToken string `json:"seatToken,omitempty"`
	JoinCode  string `json:"joinCode,omitempty"`
}

// WelcomePayload is the host's unicast reply to a successful JOIN.
type WelcomePayload struct {
	Seat      int    `json:"seat"`
	SeatToken string `json:"seatToken"`
}

// CardPayload carries a single card for PLAY_CARD.
type CardPayload struct {
	Card models.Card `json:"card"`
}

// BidPayload carries the contract for PLACE_BID.
type BidPayload struct {
	Bid int `json:"bid"`
}

// StatePayload carries the per-viewer redacted snapshot for SYNC_STATE.
type StatePayload struct {
	State engine.State `json:"state"`
}

// RoundResultPayload carries the scoring lines for ROUND_RESULT.
type RoundResultPayload struct {
	Round   int                  `json:"round"`
	Results []engine.RoundResult `json:"results"`
}

// GameOverPayload carries the final outcome for GAME_OVER.
type GameOverPayload struct {
	WinnerSeat int            `json:"winnerSeat"`
	Scores     map[string]int `json:"scores"`
}

// ChatPayload carries free-form text for MESSAGE.
type ChatPayload struct {
	Text string `json:"text"`
}

// ErrorPayload carries a rejection for ERROR. Code is the legality class
// (e.g. "not_your_turn", "suit_violation", "protocol_error").
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
