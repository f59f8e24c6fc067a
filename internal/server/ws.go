// internal/server/ws.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rani-sader/fourhundred/internal/auth"
	"github.com/rani-sader/fourhundred/internal/middleware"
	"github.com/rani-sader/fourhundred/internal/protocol"
)

// joinTimeout is how long a fresh connection has to send its JOIN message.
const joinTimeout = 10 * time.Second

// WSHandler upgrades the HTTP connection to WebSocket for a specific table.
// The first client message must be JOIN; it carries the display name, the
// join code for private tables, and the seat token on reconnect. After the
// handshake the handler runs the connection's read loop until it exits.
func WSHandler(logger *logrus.Logger, store *TableStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableIDStr := strings.TrimPrefix(r.URL.Path, "/table/ws/")
		tableID, err := uuid.Parse(strings.Trim(tableIDStr, "/"))
		if err != nil {
			http.Error(w, "Invalid table_id format", http.StatusBadRequest)
			return
		}

		t, ok := store.GetTable(tableID)
		if !ok {
			http.Error(w, "Table not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"fourhundred"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for table %s: %v", tableID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "fourhundred" {
			c.Close(websocket.StatusPolicyViolation, "Client must use the 'fourhundred' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		remote, err := handshake(ctx, c, t, cancel)
		if err != nil {
			logger.Warnf("JOIN handshake failed for table %s: %v", tableID, err)
			c.Close(websocket.StatusPolicyViolation, err.Error())
			return
		}

		go writePump(ctx, c, remote, logger)

		readLoop(ctx, c, t, remote.PlayerID, logger)

		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
		t.Disconnect(remote.PlayerID, "connection closed")
	}
}

// handshake reads and validates the initial JOIN, authenticates or issues a
// seat token, seats the player, and acknowledges with the token and seat.
func handshake(ctx context.Context, c *websocket.Conn, t *Table, cancel context.CancelFunc) (*Remote, error) {
	readCtx, readCancel := context.WithTimeout(ctx, joinTimeout)
	defer readCancel()
	_, data, err := c.Read(readCtx)
	if err != nil {
		return nil, fmt.Errorf("read JOIN: %w", err)
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode JOIN: %w", err)
	}
	if msg.Action != protocol.ActionJoin {
		return nil, fmt.Errorf("expected JOIN, got %s", msg.Action)
	}
	var jp protocol.JoinPayload
	if err := msg.DecodePayload(&jp); err != nil {
		return nil, err
	}

	if t.JoinCodeHash != "" {
		ok, err := auth.VerifyJoinCode(jp.JoinCode, t.JoinCodeHash)
		if err != nil || !ok {
			return nil, fmt.Errorf("join code rejected")
		}
	}

	var playerID uuid.UUID
	reconnect := false
	if jp.SeatToken != "" {
		pid, tid, err := auth.VerifySeatToken(jp.SeatToken)
		if err != nil {
			return nil, fmt.Errorf("seat token rejected: %w", err)
		}
		if tid != t.ID {
			return nil, fmt.Errorf("seat token is for another table")
		}
		playerID = pid
		reconnect = true
	} else {
		playerID = uuid.New()
	}

	remote := NewRemote(playerID, jp.Name, cancel)
	if err := t.Join(remote, reconnect); err != nil {
		return nil, err
	}

	token := jp.SeatToken
	if !reconnect {
		token, err = auth.CreateSeatToken(playerID, t.ID)
		if err != nil {
			return nil, fmt.Errorf("issue seat token: %w", err)
		}
	}
	p := t.Game.PlayerByID(playerID)
	ack, err := t.hostMessage(protocol.ActionJoin).WithPayload(protocol.WelcomePayload{
		Seat:      p.Seat,
		SeatToken: token,
	})
	if err != nil {
		return nil, err
	}
	ack.TargetPlayerID = playerID

	// The ack goes straight onto the socket: the write pump has not started
	// yet, and the queue already holds the initial SYNC_STATE, which must
	// arrive after the ack.
	data, err = json.Marshal(ack)
	if err != nil {
		return nil, err
	}
	writeCtx, writeCancel := context.WithTimeout(ctx, writeTimeout)
	defer writeCancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		return nil, fmt.Errorf("send JOIN ack: %w", err)
	}
	return remote, nil
}

// readLoop continuously reads messages from a client connection and routes
// them through the table's handler. It exits on error, closure, or context
// cancellation.
func readLoop(ctx context.Context, c *websocket.Conn, t *Table, playerID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %s on table %s.", playerID, t.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %s on table %s.", playerID, t.ID)
			} else {
				logger.Warnf("Error reading from player %s on table %s: %v", playerID, t.ID, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			logger.Warnf("Non-text message from player %s on table %s. Ignoring.", playerID, t.ID)
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON from player %s on table %s: %v", playerID, t.ID, err)
			t.sendError(playerID, "protocol_error", "invalid JSON")
			continue
		}
		// The socket identifies the sender; a forged sender id in the
		// envelope is ignored.
		t.HandleMessage(playerID, msg)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
