// internal/client/client.go

// Package client implements the replica side of the sync protocol: a
// read-only mirror of the host's authoritative state plus input submission.
// A client never applies its own input locally; a move shows up in the
// mirror only once the host echoes it back inside a SYNC_STATE, so every
// replica observes the same total order of moves.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rani-sader/fourhundred/internal/engine"
	"github.com/rani-sader/fourhundred/internal/models"
	"github.com/rani-sader/fourhundred/internal/protocol"
)

const writeTimeout = 5 * time.Second

// Options configures a connection to a hosted table.
type Options struct {
	// Name is the display name requested on JOIN.
	Name string
	// SeatToken re-attaches to a previous seat after a disconnect.
	SeatToken string
	// JoinCode unlocks a private table.
	JoinCode string
	Logger   *logrus.Logger
}

// Client is one remote replica of a hosted match.
type Client struct {
	conn *websocket.Conn
	log  *logrus.Logger

	playerID  uuid.UUID
	seat      int
	seatToken string

	writeMu sync.Mutex

	mu    sync.Mutex
	state *engine.State
	round int
	trick int

	// OnState is invoked with each adopted snapshot.
	OnState func(engine.State)
	// OnRequestPlay is invoked when the host prompts this seat to act.
	OnRequestPlay func()
	// OnError is invoked with host rejections of this client's input.
	OnError func(protocol.ErrorPayload)
	// OnChat is invoked for relayed MESSAGE traffic.
	OnChat func(senderName, text string)
	// OnRoundResult is invoked with round scoring lines.
	OnRoundResult func(protocol.RoundResultPayload)
	// OnGameOver is invoked once with the final outcome.
	OnGameOver func(protocol.GameOverPayload)

	cancel context.CancelFunc
	done   chan struct{}
}

// Dial connects to a table's websocket endpoint, performs the JOIN
// handshake, and starts the read loop. Assign callbacks on the returned
// client immediately; messages that arrive before a callback is set invoke
// nothing.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"fourhundred"},
	})
	if err != nil {
		return nil, fmt.Errorf("dial table: %w", err)
	}

	c := &Client{
		conn: conn,
		log:  opts.Logger,
		done: make(chan struct{}),
	}

	join, err := protocol.New(uuid.Nil, protocol.ActionJoin).WithPayload(protocol.JoinPayload{
		Name:      opts.Name,
		SeatToken: opts.SeatToken,
		JoinCode:  opts.JoinCode,
	})
	if err != nil {
		conn.Close(websocket.StatusInternalError, "encode JOIN")
		return nil, err
	}
	if err := c.write(ctx, join); err != nil {
		conn.Close(websocket.StatusInternalError, "send JOIN")
		return nil, fmt.Errorf("send JOIN: %w", err)
	}

	ack, err := c.readMessage(ctx)
	if err != nil {
		conn.Close(websocket.StatusProtocolError, "no JOIN ack")
		return nil, fmt.Errorf("read JOIN ack: %w", err)
	}
	if ack.Action != protocol.ActionJoin {
		conn.Close(websocket.StatusProtocolError, "unexpected handshake reply")
		return nil, fmt.Errorf("expected JOIN ack, got %s", ack.Action)
	}
	var welcome protocol.WelcomePayload
	if err := ack.DecodePayload(&welcome); err != nil {
		conn.Close(websocket.StatusProtocolError, "bad JOIN ack")
		return nil, err
	}
	c.playerID = ack.TargetPlayerID
	c.seat = welcome.Seat
	c.seatToken = welcome.SeatToken

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.readLoop(loopCtx)
	return c, nil
}

// PlayerID returns the identity the host assigned to this replica.
func (c *Client) PlayerID() uuid.UUID { return c.playerID }

// Seat returns the seat index assigned on JOIN.
func (c *Client) Seat() int { return c.seat }

// SeatToken returns the reconnect credential issued on JOIN.
func (c *Client) SeatToken() string { return c.seatToken }

// State returns the latest adopted snapshot of the match; ok is false until
// the first SYNC_STATE arrives.
func (c *Client) State() (engine.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return engine.State{}, false
	}
	return *c.state, true
}

// Ready reports this seat ready to start.
func (c *Client) Ready(ctx context.Context) error {
	return c.send(ctx, protocol.New(c.playerID, protocol.ActionReady))
}

// StartGame asks the host to start, filling empty seats with AI (owner only).
func (c *Client) StartGame(ctx context.Context) error {
	return c.send(ctx, protocol.New(c.playerID, protocol.ActionStartGame))
}

// StartRound asks the host to deal the next round (owner only).
func (c *Client) StartRound(ctx context.Context) error {
	return c.send(ctx, protocol.New(c.playerID, protocol.ActionStartRound))
}

// SubmitBid sends this seat's contract. The bid is not applied locally; the
// mirror updates when the host's SYNC_STATE echoes it.
func (c *Client) SubmitBid(ctx context.Context, bid int) error {
	msg, err := protocol.New(c.playerID, protocol.ActionPlaceBid).WithPayload(protocol.BidPayload{Bid: bid})
	if err != nil {
		return err
	}
	return c.send(ctx, c.stamp(msg))
}

// SubmitCard sends this seat's card for the current trick.
func (c *Client) SubmitCard(ctx context.Context, card models.Card) error {
	msg, err := protocol.New(c.playerID, protocol.ActionPlayCard).WithPayload(protocol.CardPayload{Card: card})
	if err != nil {
		return err
	}
	return c.send(ctx, c.stamp(msg))
}

// RequestSync asks the host for a fresh snapshot.
func (c *Client) RequestSync(ctx context.Context) error {
	return c.send(ctx, protocol.New(c.playerID, protocol.ActionRequestSync))
}

// Chat relays a text message through the host.
func (c *Client) Chat(ctx context.Context, text string) error {
	msg, err := protocol.New(c.playerID, protocol.ActionMessage).WithPayload(protocol.ChatPayload{Text: text})
	if err != nil {
		return err
	}
	return c.send(ctx, msg)
}

// Ping checks liveness; the host answers with PONG.
func (c *Client) Ping(ctx context.Context) error {
	return c.send(ctx, protocol.New(c.playerID, protocol.ActionPing))
}

// Close tears the connection down.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Done is closed once the read loop has exited.
func (c *Client) Done() <-chan struct{} { return c.done }

// stamp attaches the mirror's current round/trick to an outbound message so
// the host can discard it if it arrives late.
func (c *Client) stamp(msg protocol.Message) protocol.Message {
	c.mu.Lock()
	msg.RoundNumber = c.round
	msg.TrickNumber = c.trick
	c.mu.Unlock()
	return msg
}

func (c *Client) send(ctx context.Context, msg protocol.Message) error {
	return c.write(ctx, msg)
}

// write is the connection's single serialized writer.
func (c *Client) write(ctx context.Context, msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Action, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

func (c *Client) readMessage(ctx context.Context) (protocol.Message, error) {
	var msg protocol.Message
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// readLoop applies host messages to the mirror until the connection ends.
func (c *Client) readLoop(ctx context.Context) {
	defer close(c.done)
	for {
		msg, err := c.readMessage(ctx)
		if err != nil {
			c.log.Debugf("client %s read loop exiting: %v", c.playerID, err)
			return
		}

		c.mu.Lock()
		round, trick := c.round, c.trick
		c.mu.Unlock()
		if msg.StaleFor(round, trick) {
			continue
		}

		switch msg.Action {
		case protocol.ActionSyncState:
			var sp protocol.StatePayload
			if err := msg.DecodePayload(&sp); err != nil {
				c.log.Warnf("bad SYNC_STATE: %v", err)
				continue
			}
			// The mirror is replaced wholesale, never patched.
			st := sp.State
			c.mu.Lock()
			c.state = &st
			c.round = st.RoundNumber
			c.trick = st.TrickNumber
			c.mu.Unlock()
			if c.OnState != nil {
				c.OnState(st)
			}
		case protocol.ActionRequestPlay:
			if c.OnRequestPlay != nil {
				c.OnRequestPlay()
			}
		case protocol.ActionRoundResult:
			var rp protocol.RoundResultPayload
			if err := msg.DecodePayload(&rp); err == nil && c.OnRoundResult != nil {
				c.OnRoundResult(rp)
			}
		case protocol.ActionGameOver:
			var gp protocol.GameOverPayload
			if err := msg.DecodePayload(&gp); err == nil && c.OnGameOver != nil {
				c.OnGameOver(gp)
			}
		case protocol.ActionMessage:
			var cp protocol.ChatPayload
			if err := msg.DecodePayload(&cp); err == nil && c.OnChat != nil {
				c.OnChat(msg.SenderName, cp.Text)
			}
		case protocol.ActionError:
			var ep protocol.ErrorPayload
			if err := msg.DecodePayload(&ep); err == nil && c.OnError != nil {
				c.OnError(ep)
			}
		case protocol.ActionPing:
			pong := protocol.New(c.playerID, protocol.ActionPong)
			if err := c.write(ctx, pong); err != nil {
				c.log.Debugf("pong failed: %v", err)
			}
		case protocol.ActionJoin, protocol.ActionLeave, protocol.ActionStartRound, protocol.ActionPong:
			// Roster and liveness traffic; the next SYNC_STATE carries any
			// state change these imply.
		default:
			c.log.Debugf("ignoring unexpected action %s", msg.Action)
		}
	}
}
