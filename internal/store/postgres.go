package store

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres is the gorm-backed Store.
type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&RoomRecord{}, &PlayerPurchase{}, &LeaderboardEntry{}, &UserStats{}); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) SaveResult(ctx context.Context, res Result) (bool, error) {
	created := false
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing RoomRecord
		err := tx.First(&existing, "code = ?", res.Room.Code).Error
		if err == nil {
			return nil // already finalized; no-op
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&res.Room).Error; err != nil {
			return err
		}
		if len(res.Purchases) > 0 {
			if err := tx.Create(&res.Purchases).Error; err != nil {
				return err
			}
		}
		if len(res.Entries) > 0 {
			if err := tx.Create(&res.Entries).Error; err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	return created, err
}

func (p *Postgres) GetUserStats(ctx context.Context, participantID string) (UserStats, bool, error) {
	var stats UserStats
	err := p.db.WithContext(ctx).First(&stats, "participant_id = ?", participantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UserStats{}, false, nil
	}
	if err != nil {
		return UserStats{}, false, err
	}
	return stats, true, nil
}

func (p *Postgres) PutUserStats(ctx context.Context, stats UserStats) error {
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_id"}},
			UpdateAll: true,
		}).
		Create(&stats).Error
}
