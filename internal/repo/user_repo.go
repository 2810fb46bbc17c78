// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file maintains the per-user thanks aggregate.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kakakulog/kakaku-backend/internal/domain"
)

// AddThanksReceived bumps userID's thanksReceived counter by one, creating
// the aggregate row on first thanks. The increment is a server-side
// expression so concurrent thanks never lose updates.
func AddThanksReceived(db *gorm.DB, userID string) error {
	now := time.Now().UTC()
	row := domain.User{
		UserID:         userID,
		ThanksReceived: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"thanks_received": gorm.Expr("thanks_received + 1"),
			"updated_at":      now,
		}),
	}).Create(&row).Error
}

// GetUser fetches the aggregate row for userID, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, userID string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
