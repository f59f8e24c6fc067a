// internal/server/http.go
package server

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/rani-sader/fourhundred/internal/auth"
	"github.com/rani-sader/fourhundred/internal/engine"
)

// createTableRequest is the body for POST /table/create.
type createTableRequest struct {
	Rules    engine.TableRules `json:"rules"`
	JoinCode string            `json:"joinCode,omitempty"`
	AISeed   int64             `json:"aiSeed,omitempty"`
}

type createTableResponse struct {
	TableID string `json:"tableId"`
}

// CreateTableHandler creates a table and returns its id. A non-empty join
// code makes the table private; the code itself is only stored hashed.
func CreateTableHandler(logger *logrus.Logger, store *TableStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req createTableRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		t := NewTable(req.Rules, logger)
		if req.JoinCode != "" {
			hash, err := auth.HashJoinCode(req.JoinCode)
			if err != nil {
				logger.Errorf("hash join code: %v", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			t.JoinCodeHash = hash
		}
		if req.AISeed != 0 {
			t.SetAISeed(req.AISeed)
		}
		store.AddTable(t)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createTableResponse{TableID: t.ID.String()})
	}
}

type tableSummary struct {
	TableID string `json:"tableId"`
	Seated  int    `json:"seated"`
	Private bool   `json:"private"`
}

// ListTablesHandler returns a summary of live tables.
func ListTablesHandler(store *TableStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tables := store.ListTables()
		out := make([]tableSummary, 0, len(tables))
		for _, t := range tables {
			out = append(out, tableSummary{
				TableID: t.ID.String(),
				Seated:  t.Game.SeatCount(),
				Private: t.JoinCodeHash != "",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}
