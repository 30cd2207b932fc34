package store

import (
	"context"
	"time"
)

// RoomRecord is the closed-auction row; its presence marks a room as
// finalized, which is what makes SaveResult idempotent.
type RoomRecord struct {
	Code        string `gorm:"primaryKey"`
	Status      string
	HostID      string
	CreatedAt   time.Time
	CompletedAt time.Time
}

type PlayerPurchase struct {
	ID         uint   `gorm:"primaryKey"`
	RoomCode   string `gorm:"index"`
	PlayerID   string
	PlayerName string
	TeamID     string
	BasePrice  int64
	SoldPrice  int64
	BuyerName  string
}

type LeaderboardEntry struct {
	RoomCode   string `gorm:"primaryKey"`
	TeamID     string `gorm:"primaryKey"`
	TeamName   string
	OwnerID    string
	OwnerName  string
	Rank       int
	Rating     float64
	Spend      int64
	BudgetLeft int64
}

// UserStats is the lifetime aggregate per participant identity.
type UserStats struct {
	ParticipantID  string `gorm:"primaryKey"`
	Name           string
	AuctionsPlayed int
	Wins           int
	TopThree       int
	AvgRating      float64
	BestRating     float64
	BestTeamName   string
	RecentRooms    []string `gorm:"serializer:json"` // newest first, capped at 10
}

// Result is everything the finalizer persists for one completed room.
type Result struct {
	Room      RoomRecord
	Purchases []PlayerPurchase
	Entries   []LeaderboardEntry
}

// Store persists closed auctions. SaveResult reports created=false when the
// room was already finalized, in which case nothing is written: invoking the
// finalizer twice yields one leaderboard entry per team, not two.
type Store interface {
	SaveResult(ctx context.Context, res Result) (created bool, err error)
	GetUserStats(ctx context.Context, participantID string) (UserStats, bool, error)
	PutUserStats(ctx context.Context, stats UserStats) error
}
