package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the deployment surface. Documented fallbacks only; the engine
// itself assumes nothing beyond min-teams 2 and squad cap 25.
type Config struct {
	Addr          string
	DatabaseURL   string // empty means in-memory store
	TimerSec      int
	InitialBudget int64
	MinTeams      int
	MaxSquad      int
	SessionTTL    time.Duration
}

// Load reads .env if present, then the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getString("ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		TimerSec:      getInt("TURN_TIMER_SEC", 30),
		InitialBudget: int64(getInt("INITIAL_BUDGET", 1000)),
		MinTeams:      getInt("MIN_TEAMS", 2),
		MaxSquad:      getInt("MAX_SQUAD", 25),
		SessionTTL:    time.Duration(getInt("SESSION_TTL_SEC", 45)) * time.Second,
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
