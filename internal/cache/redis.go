// internal/cache/redis.go

// Package cache is the producer side of the move-history pipeline: every
// applied move is pushed onto a Redis list, where an out-of-process
// historian drains it into long-term storage.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rani-sader/fourhundred/internal/engine"
)

// Rdb is the global Redis client. Connect it once at host startup; when nil
// the move log is simply disabled.
var Rdb *redis.Client

// DefaultQueueName is the Redis list name for move records.
var DefaultQueueName = "fourhundred_moves"

// moveEnvelope is the queued form of an engine move record.
type moveEnvelope struct {
	engine.MoveRecord
	Timestamp int64 `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client with environment
// variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishMove serializes the move record and pushes it onto the queue. The
// push is a single quick network send; the historian consumes asynchronously.
func PublishMove(ctx context.Context, rec engine.MoveRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(moveEnvelope{MoveRecord: rec, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to marshal move record: %w", err)
	}
	queueName := getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
