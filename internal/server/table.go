// internal/server/table.go
package server

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rani-sader/fourhundred/internal/ai"
	"github.com/rani-sader/fourhundred/internal/cache"
	"github.com/rani-sader/fourhundred/internal/database"
	"github.com/rani-sader/fourhundred/internal/engine"
	"github.com/rani-sader/fourhundred/internal/models"
	"github.com/rani-sader/fourhundred/internal/protocol"
)

// Table is one hosted match: the authoritative engine plus the roster of
// connected replicas. The table mutex guards the roster and ready states
// only; engine state has its own lock. Handlers never call into the engine
// while holding the table mutex, and engine event callbacks never call back
// into the engine, which keeps the two locks un-nested in one direction.
type Table struct {
	ID   uuid.UUID
	Game *engine.Game

	// JoinCodeHash gates a private table; empty means public.
	JoinCodeHash string

	mu      sync.Mutex
	remotes map[uuid.UUID]*Remote
	ready   map[uuid.UUID]bool
	ownerID uuid.UUID
	started bool

	// aiSeed seeds the AI random source; 0 means time-seeded. Fixed seeds
	// make hosted matches reproducible for debugging.
	aiSeed int64

	log    *logrus.Entry
	logger *logrus.Logger

	// OnEmpty is called once the last remote leaves, typically wired to the
	// store's delete.
	OnEmpty func(tableID uuid.UUID)
}

// NewTable creates a hosted match with the given rules and wires the engine
// hooks: events out to the roster, moves out to the historian queue,
// snapshots out to the persistence collaborator.
func NewTable(rules engine.TableRules, logger *logrus.Logger) *Table {
	if logger == nil {
		logger = logrus.New()
	}
	g := engine.NewGame(rules, logger)
	t := &Table{
		ID:      g.ID,
		Game:    g,
		remotes: make(map[uuid.UUID]*Remote),
		ready:   make(map[uuid.UUID]bool),
		log:     logger.WithField("table", g.ID),
		logger:  logger,
	}

	g.BroadcastFn = t.handleEngineEvent
	g.OnMove = func(rec engine.MoveRecord) {
		go func() {
			if err := cache.PublishMove(context.Background(), rec); err != nil {
				t.log.Warnf("historian publish failed: %v", err)
			}
		}()
	}
	g.OnGameEnd = func(winnerSeat int, scores map[uuid.UUID]int) {
		payload := protocol.GameOverPayload{
			WinnerSeat: winnerSeat,
			Scores:     make(map[string]int, len(scores)),
		}
		for id, s := range scores {
			payload.Scores[id.String()] = s
		}
		msg, err := t.hostMessage(protocol.ActionGameOver).WithPayload(payload)
		if err != nil {
			t.log.Errorf("encode GAME_OVER: %v", err)
			return
		}
		t.broadcast(msg)
		go func() {
			if err := database.DeleteSnapshot(context.Background(), t.ID); err != nil {
				t.log.Warnf("delete snapshot: %v", err)
			}
		}()
	}
	return t
}

// SetAISeed fixes the seed for AI strategies created on this table.
func (t *Table) SetAISeed(seed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aiSeed = seed
}

// hostMessage builds a host-originated envelope.
func (t *Table) hostMessage(action protocol.Action) protocol.Message {
	m := protocol.New(t.ID, action)
	m.IsHost = true
	return m
}

// handleEngineEvent runs while the engine lock is held: it only translates
// events into outbound messages and must never call back into the engine.
func (t *Table) handleEngineEvent(ev engine.Event) {
	switch ev.Type {
	case engine.EventRoundResult:
		round, _ := ev.Payload["round"].(int)
		results, _ := ev.Payload["results"].([]engine.RoundResult)
		msg, err := t.hostMessage(protocol.ActionRoundResult).WithPayload(protocol.RoundResultPayload{
			Round:   round,
			Results: results,
		})
		if err != nil {
			t.log.Errorf("encode ROUND_RESULT: %v", err)
			return
		}
		t.broadcast(msg)
	case engine.EventPlayerTurn:
		// Prompt the seat to act; only human seats have a remote to prompt.
		msg := t.hostMessage(protocol.ActionRequestPlay)
		msg.TargetPlayerID = ev.PlayerID
		msg.Payload = nil
		t.sendTo(ev.PlayerID, msg)
	}
}

// Join seats a new player (or re-attaches a reconnecting one) and registers
// its remote. The first joiner owns the table.
func (t *Table) Join(r *Remote, reconnect bool) error {
	if reconnect {
		p := t.Game.PlayerByID(r.PlayerID)
		if p == nil {
			return engine.ErrUnknownPlayer
		}
		t.Game.SetConnected(r.PlayerID, true)
	} else {
		p := &models.Player{
			ID:        r.PlayerID,
			Name:      r.Name,
			IsLocal:   true,
			Connected: true,
		}
		if err := t.Game.AddPlayer(p); err != nil {
			return err
		}
	}

	t.mu.Lock()
	if old, ok := t.remotes[r.PlayerID]; ok && old != r {
		old.Cancel()
	}
	t.remotes[r.PlayerID] = r
	if t.ownerID == uuid.Nil {
		t.ownerID = r.PlayerID
	}
	t.mu.Unlock()

	join := t.hostMessage(protocol.ActionJoin)
	join.SenderID = r.PlayerID
	join.SenderName = r.Name
	t.broadcastExcept(r.PlayerID, join)
	t.syncPlayer(r.PlayerID)
	return nil
}

// IsOwner reports whether the player is the table owner.
func (t *Table) IsOwner(playerID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ownerID == playerID
}

// HandleMessage validates and applies one inbound client message. It runs on
// the sender's read loop with no locks held.
func (t *Table) HandleMessage(sender uuid.UUID, msg protocol.Message) {
	if msg.GameType != "" && msg.GameType != protocol.GameType {
		t.sendError(sender, "protocol_error", "unrecognized game type")
		return
	}
	round, trick := t.Game.Position()
	if msg.StaleFor(round, trick) {
		t.log.WithFields(logrus.Fields{"from": sender, "action": msg.Action}).Debug("dropping stale message")
		return
	}

	switch msg.Action {
	case protocol.ActionReady:
		t.handleReady(sender)
	case protocol.ActionStartGame:
		t.handleStartGame(sender)
	case protocol.ActionStartRound:
		t.handleStartRound(sender)
	case protocol.ActionPlaceBid:
		var p protocol.BidPayload
		if err := msg.DecodePayload(&p); err != nil {
			t.sendError(sender, "protocol_error", err.Error())
			return
		}
		if err := t.Game.PlaceBid(sender, p.Bid); err != nil {
			t.sendError(sender, legalityCode(err), err.Error())
			return
		}
		t.afterMove()
	case protocol.ActionPlayCard:
		var p protocol.CardPayload
		if err := msg.DecodePayload(&p); err != nil {
			t.sendError(sender, "protocol_error", err.Error())
			return
		}
		if err := t.Game.PlayCard(sender, p.Card); err != nil {
			t.sendError(sender, legalityCode(err), err.Error())
			return
		}
		t.afterMove()
	case protocol.ActionTriggerAIMove:
		if !t.IsOwner(sender) {
			t.sendError(sender, "protocol_error", "only the table owner can trigger AI moves")
			return
		}
		t.afterMove()
	case protocol.ActionRequestSync:
		t.syncPlayer(sender)
	case protocol.ActionMessage:
		relay := t.hostMessage(protocol.ActionMessage)
		relay.SenderID = sender
		relay.SenderName = msg.SenderName
		relay.Payload = msg.Payload
		t.broadcast(relay)
	case protocol.ActionPing:
		pong := t.hostMessage(protocol.ActionPong)
		pong.TargetPlayerID = sender
		t.sendTo(sender, pong)
	case protocol.ActionLeave:
		t.Disconnect(sender, "client left")
	default:
		t.sendError(sender, "protocol_error", "unrecognized action "+string(msg.Action))
	}
}

// handleReady records a ready state and starts play once the roster is full
// of ready humans.
func (t *Table) handleReady(sender uuid.UUID) {
	t.mu.Lock()
	t.ready[sender] = true
	allReady := len(t.remotes) > 0
	for id := range t.remotes {
		if !t.ready[id] {
			allReady = false
			break
		}
	}
	full := len(t.remotes) == engine.NumSeats
	alreadyStarted := t.started
	t.mu.Unlock()

	if alreadyStarted || !allReady || !full {
		return
	}
	t.startMatch()
}

// handleStartGame lets the owner start early; empty seats are filled with AI.
func (t *Table) handleStartGame(sender uuid.UUID) {
	if !t.IsOwner(sender) {
		t.sendError(sender, "protocol_error", "only the table owner can start the game")
		return
	}
	t.mu.Lock()
	alreadyStarted := t.started
	t.mu.Unlock()
	if alreadyStarted {
		t.sendError(sender, "protocol_error", "game already started")
		return
	}
	t.startMatch()
}

// handleStartRound deals the next round between rounds.
func (t *Table) handleStartRound(sender uuid.UUID) {
	if !t.IsOwner(sender) {
		t.sendError(sender, "protocol_error", "only the table owner can start a round")
		return
	}
	if err := t.startRound(); err != nil {
		t.sendError(sender, legalityCode(err), err.Error())
	}
}

// startMatch fills empty seats with AI and deals the first round.
func (t *Table) startMatch() {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	seed := t.aiSeed
	t.mu.Unlock()

	t.Game.FillWithAI(func(seat int) ai.Strategy {
		var s int64
		if seed > 0 {
			s = seed + int64(seat)
		}
		return ai.NewWeighted(engine.NewAIRand(s))
	})
	if err := t.startRound(); err != nil {
		t.log.Errorf("start match: %v", err)
	}
}

func (t *Table) startRound() error {
	t.mu.Lock()
	seed := t.aiSeed
	t.mu.Unlock()
	if seed > 0 {
		// Distinct (but still reproducible) deal per round.
		round, _ := t.Game.Position()
		seed += int64(round)
	}
	if err := t.Game.StartNewRound(seed); err != nil {
		return err
	}
	start := t.hostMessage(protocol.ActionStartRound)
	round, _ := t.Game.Position()
	start.RoundNumber = round
	t.broadcast(start)
	t.afterMove()
	return nil
}

// afterMove drives pending AI turns, persists a snapshot, and fans the
// resulting state out to every replica.
func (t *Table) afterMove() {
	if err := t.Game.AdvanceAI(); err != nil {
		t.log.Errorf("advance AI: %v", err)
	}
	snapshot := t.Game.Snapshot()
	go func() {
		if err := database.UpsertSnapshot(context.Background(), snapshot); err != nil {
			t.log.Warnf("persist snapshot: %v", err)
		}
	}()
	t.syncAll()
}

// syncAll sends every connected replica its own redacted view. A play is
// only reflected on a client once it comes back inside one of these
// snapshots, which gives all replicas the same total order of moves.
func (t *Table) syncAll() {
	t.mu.Lock()
	ids := make([]uuid.UUID, 0, len(t.remotes))
	for id := range t.remotes {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	for _, id := range ids {
		t.syncPlayer(id)
	}
}

// syncPlayer sends one replica its redacted SYNC_STATE.
func (t *Table) syncPlayer(playerID uuid.UUID) {
	st := t.Game.StateFor(playerID)
	msg, err := t.hostMessage(protocol.ActionSyncState).WithPayload(protocol.StatePayload{State: st})
	if err != nil {
		t.log.Errorf("encode SYNC_STATE: %v", err)
		return
	}
	msg.TargetPlayerID = playerID
	msg.RoundNumber = st.RoundNumber
	msg.TrickNumber = st.TrickNumber
	t.sendTo(playerID, msg)
}

// sendError sends a targeted legality or protocol rejection.
func (t *Table) sendError(playerID uuid.UUID, code, detail string) {
	msg, err := t.hostMessage(protocol.ActionError).WithPayload(protocol.ErrorPayload{
		Code:    code,
		Message: detail,
	})
	if err != nil {
		t.log.Errorf("encode ERROR: %v", err)
		return
	}
	msg.TargetPlayerID = playerID
	t.sendTo(playerID, msg)
}

// broadcast fans a message out to every remote. Remotes whose queue is full
// are disconnected rather than waited on.
func (t *Table) broadcast(msg protocol.Message) {
	t.broadcastExcept(uuid.Nil, msg)
}

func (t *Table) broadcastExcept(skip uuid.UUID, msg protocol.Message) {
	t.mu.Lock()
	var dead []uuid.UUID
	for id, r := range t.remotes {
		if id == skip {
			continue
		}
		if !r.TrySend(msg) {
			dead = append(dead, id)
		}
	}
	t.mu.Unlock()
	for _, id := range dead {
		t.Disconnect(id, "send queue overflow")
	}
}

// sendTo delivers a unicast message, disconnecting the peer when its queue
// is full.
func (t *Table) sendTo(playerID uuid.UUID, msg protocol.Message) {
	t.mu.Lock()
	r, ok := t.remotes[playerID]
	t.mu.Unlock()
	if !ok {
		return
	}
	if !r.TrySend(msg) {
		t.Disconnect(playerID, "send queue overflow")
	}
}

// Disconnect removes a remote from the roster, cancels its connection, and
// notifies the remaining peers. Safe to call from any goroutine, including
// broadcast paths running under the engine lock: the engine-side cleanup is
// deferred to a fresh goroutine.
func (t *Table) Disconnect(playerID uuid.UUID, reason string) {
	t.mu.Lock()
	r, ok := t.remotes[playerID]
	if ok {
		delete(t.remotes, playerID)
		delete(t.ready, playerID)
	}
	empty := len(t.remotes) == 0
	t.mu.Unlock()
	if !ok {
		return
	}

	t.log.WithFields(logrus.Fields{"player": playerID, "reason": reason}).Info("disconnecting remote")
	r.Cancel()

	go func() {
		t.Game.SetConnected(playerID, false)
		leave := t.hostMessage(protocol.ActionLeave)
		leave.SenderID = playerID
		t.broadcast(leave)
		if empty && t.OnEmpty != nil {
			t.OnEmpty(t.ID)
		}
	}()
}

// legalityCode maps an engine rejection onto a wire error code. A client
// move inconsistent with the authoritative copy always resolves in the
// host's favor and surfaces as a plain invalid move.
func legalityCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, engine.ErrCardNotHeld):
		return "card_not_held"
	case errors.Is(err, engine.ErrSuitViolation):
		return "suit_violation"
	case errors.Is(err, engine.ErrBidOutOfRange):
		return "bid_out_of_range"
	case errors.Is(err, engine.ErrRoundInactive):
		return "round_inactive"
	case errors.Is(err, engine.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, engine.ErrUnknownPlayer):
		return "unknown_player"
	default:
		return "invalid_move"
	}
}
