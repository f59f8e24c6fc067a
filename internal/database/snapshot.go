// internal/database/snapshot.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rani-sader/fourhundred/internal/engine"
)

// Schema:
//
//	CREATE TABLE IF NOT EXISTS game_snapshots (
//	    game_id    UUID PRIMARY KEY,
//	    snapshot   JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);

// UpsertSnapshot stores the full (unredacted) state of a match, replacing
// any previous snapshot for the same game.
func UpsertSnapshot(ctx context.Context, st engine.State) error {
	if Pool == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal snapshot for game %s: %w", st.GameID, err)
	}
	_, err = Pool.Exec(ctx, `
		INSERT INTO game_snapshots (game_id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (game_id)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`, st.GameID, data)
	if err != nil {
		return fmt.Errorf("upsert snapshot for game %s: %w", st.GameID, err)
	}
	return nil
}

// LoadSnapshot retrieves the last stored state of a match. The second return
// is false when no snapshot exists (or persistence is disabled).
func LoadSnapshot(ctx context.Context, gameID uuid.UUID) (engine.State, bool, error) {
	var st engine.State
	if Pool == nil {
		return st, false, nil
	}
	var data []byte
	err := Pool.QueryRow(ctx,
		`SELECT snapshot FROM game_snapshots WHERE game_id = $1`, gameID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return st, false, nil
		}
		return st, false, fmt.Errorf("load snapshot for game %s: %w", gameID, err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, false, fmt.Errorf("decode snapshot for game %s: %w", gameID, err)
	}
	return st, true, nil
}

// DeleteSnapshot removes a finished match's snapshot.
func DeleteSnapshot(ctx context.Context, gameID uuid.UUID) error {
	if Pool == nil {
		return nil
	}
	if _, err := Pool.Exec(ctx,
		`DELETE FROM game_snapshots WHERE game_id = $1`, gameID,
	); err != nil {
		return fmt.Errorf("delete snapshot for game %s: %w", gameID, err)
	}
	return nil
}
