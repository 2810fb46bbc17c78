// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for RawImport
// provenance records.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kakakulog/kakaku-backend/internal/domain"
)

// CreateRawImport inserts a provenance record in draft state and returns it.
func CreateRawImport(ctx context.Context, db *gorm.DB, imp *domain.RawImport) (*domain.RawImport, error) {
	now := time.Now().UTC()
	imp.ID = uuid.NewString()
	imp.Status = domain.ImportStatusDraft
	imp.CreatedAt = now
	imp.UpdatedAt = now
	if err := db.WithContext(ctx).Create(imp).Error; err != nil {
		return nil, err
	}
	return imp, nil
}

// UpdateRawImportStatus sets the status field and touches updated_at. It
// returns the rows affected: zero means the import does not exist. Legal
// transition ordering is deliberately not enforced here.
func UpdateRawImportStatus(ctx context.Context, db *gorm.DB, id, status string) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.RawImport{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// SetRawImportImagePath records the storage path of the receipt image after
// upload. Returns the rows affected: zero means the import does not exist.
func SetRawImportImagePath(ctx context.Context, db *gorm.DB, id, path string) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.RawImport{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"receipt_image_path": path,
			"updated_at":         time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// GetRawImport fetches a provenance record by id, or ErrNotFound.
func GetRawImport(ctx context.Context, db *gorm.DB, id string) (*domain.RawImport, error) {
	var imp domain.RawImport
	if err := db.WithContext(ctx).Where("id = ?", id).First(&imp).Error; err != nil {
		return nil, err
	}
	return &imp, nil
}
