// internal/server/conn.go
package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rani-sader/fourhundred/internal/protocol"
)

// outQueueSize bounds the per-connection send queue. A client that cannot
// drain this many pending messages is treated as dead and disconnected, so a
// slow receiver never stalls the fan-out to the rest of the table.
const outQueueSize = 32

// writeTimeout caps a single websocket write.
const writeTimeout = 5 * time.Second

// Remote is one connected client's presence at a table: its identity plus
// the single serialized outbound writer feeding its socket.
type Remote struct {
	PlayerID uuid.UUID
	Name     string

	// Out is the bounded outbound queue drained by writePump. All sends go
	// through TrySend; nothing writes the socket directly.
	Out chan protocol.Message

	// Cancel tears down the connection's read loop and write pump.
	Cancel context.CancelFunc
}

// NewRemote builds the queue-backed presence for a connection.
func NewRemote(playerID uuid.UUID, name string, cancel context.CancelFunc) *Remote {
	return &Remote{
		PlayerID: playerID,
		Name:     name,
		Out:      make(chan protocol.Message, outQueueSize),
		Cancel:   cancel,
	}
}

// TrySend enqueues a message without blocking. It reports false when the
// queue is full, which the caller must treat as a dead connection.
func (r *Remote) TrySend(msg protocol.Message) bool {
	select {
	case r.Out <- msg:
		return true
	default:
		return false
	}
}

// writePump drains the remote's queue onto the websocket, one message at a
// time, until the context ends or a write fails. It is the connection's only
// writer, so frames are never interleaved.
func writePump(ctx context.Context, c *websocket.Conn, r *Remote, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-r.Out:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Errorf("marshal outbound %s for player %s: %v", msg.Action, r.PlayerID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("write to player %s failed: %v", r.PlayerID, err)
				r.Cancel()
				return
			}
		}
	}
}
