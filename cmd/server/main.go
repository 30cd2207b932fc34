package main

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kmehta7/player-auction-backend/internal/config"
	"github.com/kmehta7/player-auction-backend/internal/finalize"
	"github.com/kmehta7/player-auction-backend/internal/httpapi"
	"github.com/kmehta7/player-auction-backend/internal/hub"
	"github.com/kmehta7/player-auction-backend/internal/session"
	"github.com/kmehta7/player-auction-backend/internal/store"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()
	clock := clockwork.NewRealClock()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to open database", zap.Error(err))
		}
		st = pg
	} else {
		log.Warn("DATABASE_URL not set, results held in memory only")
		st = store.NewMemory()
	}

	fin := finalize.New(st, clock, log)
	sessions := session.NewManager(clock, cfg.SessionTTL)

	ctx := context.Background()
	h := hub.NewHub(ctx, clock, fin.Run, log)

	api := httpapi.NewAPI(h, sessions, cfg, log)
	handler := httpapi.SetupRoutes(api)

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
