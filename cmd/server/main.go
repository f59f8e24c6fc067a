// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/rani-sader/fourhundred/internal/auth"
	"github.com/rani-sader/fourhundred/internal/cache"
	"github.com/rani-sader/fourhundred/internal/database"
	"github.com/rani-sader/fourhundred/internal/middleware"
	"github.com/rani-sader/fourhundred/internal/server"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init: %v", err)
	}

	// Postgres and redis are optional; without them the host runs purely
	// in-memory with no snapshots and no move history.
	if err := database.Connect(context.Background()); err != nil {
		logger.Warnf("postgres unavailable, snapshots disabled: %v", err)
	}
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, move history disabled: %v", err)
	}

	store := server.NewTableStore()

	mux := http.NewServeMux()

	// table endpoints
	mux.Handle("/table/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		server.CreateTableHandler(logger, store),
	)))
	mux.Handle("/table/list", middleware.LogMiddleware(logger)(http.HandlerFunc(
		server.ListTablesHandler(store),
	)))

	// table websocket
	mux.Handle("/table/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		server.WSHandler(logger, store),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
