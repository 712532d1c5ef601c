// Package archive persists the outcome of finished games to Postgres.
// It is best-effort: a failed insert is logged and the game goes on.
package archive

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ludojam/ludo-backend/internal/engine"
)

type Result struct {
	ID         uint   `gorm:"primaryKey"`
	RoomID     string `gorm:"index"`
	WinnerUID  string
	WinnerName string
	Players    int
	FinishedAt time.Time
}

type Archive struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(dsn string, log *zap.Logger) (*Archive, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Result{}); err != nil {
		return nil, err
	}
	return &Archive{db: db, log: log}, nil
}

// Record stores the winner of a completed game.
func (a *Archive) Record(ctx context.Context, final engine.State) {
	winner := final.Players[final.Winner]
	row := Result{
		RoomID:     final.RoomID,
		WinnerUID:  winner.UID,
		WinnerName: winner.Name,
		Players:    len(final.Players),
		FinishedAt: time.Now().UTC(),
	}
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		a.log.Warn("archive game result",
			zap.String("room", final.RoomID), zap.Error(err))
	}
}
