// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Entry
// model: creation inside the reconciliation transaction, the read queries
// behind search/recent listings, and the atomic thanks counter update.
//
// All functions accept a *gorm.DB handle so they compose with transactions.
// Not-found conditions surface as ErrNotFound; other DB errors propagate raw.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kakakulog/kakaku-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateEntry inserts a new entry row. The id is generated here; thanksCount
// starts at zero and timestamps are server-assigned.
func CreateEntry(db *gorm.DB, e *domain.Entry) error {
	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.ThanksCount = 0
	e.CreatedAt = now
	e.UpdatedAt = now
	return db.Create(e).Error
}

// SearchEntries returns active entries whose normalized name matches exactly,
// optionally scoped to one store, newest first, capped at limit.
func SearchEntries(ctx context.Context, db *gorm.DB, normalizedName, storeID string, limit int) ([]domain.Entry, error) {
	q := db.WithContext(ctx).
		Where("normalized_name = ?", normalizedName).
		Where("status = ?", domain.EntryStatusActive)
	if storeID != "" {
		q = q.Where("store_id = ?", storeID)
	}
	var out []domain.Entry
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// RecentEntries returns the newest active entries, regardless of name.
func RecentEntries(ctx context.Context, db *gorm.DB, limit int) ([]domain.Entry, error) {
	var out []domain.Entry
	err := db.WithContext(ctx).
		Where("status = ?", domain.EntryStatusActive).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetEntry fetches an entry by id, or ErrNotFound.
func GetEntry(ctx context.Context, db *gorm.DB, id string) (*domain.Entry, error) {
	var e domain.Entry
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// IncrementThanks bumps an entry's thanks counter by one with a server-side
// expression (never read-modify-write) and touches updated_at. It returns the
// number of rows affected: zero means the entry does not exist.
func IncrementThanks(db *gorm.DB, entryID string) (int64, error) {
	res := db.Model(&domain.Entry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"thanks_count": gorm.Expr("thanks_count + 1"),
			"updated_at":   time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
