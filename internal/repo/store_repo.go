// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the merge-upsert used for Store rows and
// the store listing query.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kakakulog/kakaku-backend/internal/domain"
)

// StoreFields carries the fields of one store write. Nil pointers mean
// "absent": on an existing row the column keeps its current value, so a
// re-registration merges rather than blanking out what it does not mention.
type StoreFields struct {
	Name    *string
	PlaceID *string
	Region  *string
	Lat     *float64
	Lng     *float64
}

// UpsertStore creates the store row at storeID or overlays the present
// fields onto the existing one. CreatedAt is set only on first insert;
// UpdatedAt is touched on every call.
func UpsertStore(db *gorm.DB, storeID string, f StoreFields) error {
	now := time.Now().UTC()

	row := domain.Store{StoreID: storeID, CreatedAt: now, UpdatedAt: now}
	updates := map[string]interface{}{"updated_at": now}
	if f.Name != nil {
		row.Name = *f.Name
		updates["name"] = *f.Name
	}
	if f.PlaceID != nil {
		row.PlaceID = *f.PlaceID
		updates["place_id"] = *f.PlaceID
	}
	if f.Region != nil {
		row.Region = *f.Region
		updates["region"] = *f.Region
	}
	if f.Lat != nil {
		row.Lat = f.Lat
		updates["lat"] = *f.Lat
	}
	if f.Lng != nil {
		row.Lng = f.Lng
		updates["lng"] = *f.Lng
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&row).Error
}

// ListStores returns every store ordered by name ascending.
func ListStores(ctx context.Context, db *gorm.DB) ([]domain.Store, error) {
	var out []domain.Store
	err := db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

// GetStore fetches a store by id, or ErrNotFound.
func GetStore(ctx context.Context, db *gorm.DB, storeID string) (*domain.Store, error) {
	var s domain.Store
	if err := db.WithContext(ctx).Where("store_id = ?", storeID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
