// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the keyed first-or-create used to
// resolve products inside the reconciliation transaction.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kakakulog/kakaku-backend/internal/domain"
)

// EnsureProduct resolves the canonical product for normalizedName, creating
// it on first sight. The primary key is deterministic (ProductKey), so two
// writers racing on a brand-new name both target the same row and the insert
// conflict is simply ignored: the dedup invariant cannot be violated.
//
// Existing products are never updated here; only the insert path runs.
func EnsureProduct(db *gorm.DB, normalizedName string) (string, error) {
	now := time.Now().UTC()
	p := domain.Product{
		ID:             domain.ProductKey(normalizedName),
		NormalizedName: normalizedName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// GetProductByName fetches a product by its normalized name, or ErrNotFound.
func GetProductByName(ctx context.Context, db *gorm.DB, normalizedName string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Where("id = ?", domain.ProductKey(normalizedName)).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountProducts returns the number of product rows matching normalizedName.
// Used by tests to assert the dedup invariant.
func CountProducts(ctx context.Context, db *gorm.DB, normalizedName string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Product{}).
		Where("normalized_name = ?", normalizedName).
		Count(&n).Error
	return n, err
}
