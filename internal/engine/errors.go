// internal/engine/errors.go
package engine

import "errors"

// Legality failures. Every rejected bid or play returns one of these
// sentinels (possibly wrapped with context) and leaves all state unchanged;
// the caller is expected to re-prompt, never to retry automatically.
var (
	// ErrWrongPhase rejects an operation issued outside its phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")

	// ErrRoundInactive rejects a play while no round is in progress.
	ErrRoundInactive = errors.New("round is not active")

	// ErrNotYourTurn rejects a bid or play from any seat but the current one.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrCardNotHeld rejects a play of a card the player does not hold.
	ErrCardNotHeld = errors.New("card not held")

	// ErrSuitViolation rejects an off-suit play while the player can follow.
	ErrSuitViolation = errors.New("must follow lead suit")

	// ErrBidOutOfRange rejects a bid outside the allowed range.
	ErrBidOutOfRange = errors.New("bid out of range")

	// ErrUnknownPlayer rejects input from an id not seated at the table.
	ErrUnknownPlayer = errors.New("player not in game")

	// ErrTableFull rejects a fifth seat.
	ErrTableFull = errors.New("table is full")
)
