// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries over active
// entries, used by the price-stats endpoint.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/kakakulog/kakaku-backend/internal/domain"
)

// PriceStats summarizes the active observations for one normalized name
// (optionally at one store).
type PriceStats struct {
	Count       int64 `json:"count"`
	MinPrice    int64 `json:"min_price"`
	MaxPrice    int64 `json:"max_price"`
	LatestPrice int64 `json:"latest_price"`
}

// EntryPriceStats returns count/min/max over active entries matching
// normalizedName (and storeID when non-empty), plus the most recent price.
// A zero Count means no observations; the other fields are then zero too.
func EntryPriceStats(ctx context.Context, db *gorm.DB, normalizedName, storeID string) (PriceStats, error) {
	var out PriceStats

	q := db.WithContext(ctx).Model(&domain.Entry{}).
		Where("normalized_name = ?", normalizedName).
		Where("status = ?", domain.EntryStatusActive)
	if storeID != "" {
		q = q.Where("store_id = ?", storeID)
	}

	if err := q.Count(&out.Count).Error; err != nil {
		return PriceStats{}, err
	}
	if out.Count == 0 {
		return out, nil
	}

	var agg struct {
		Min int64
		Max int64
	}
	if err := q.Select("MIN(price) AS min, MAX(price) AS max").Scan(&agg).Error; err != nil {
		return PriceStats{}, err
	}
	out.MinPrice, out.MaxPrice = agg.Min, agg.Max

	var latest struct {
		Price int64
	}
	if err := q.Select("price").Order("created_at DESC, id DESC").Limit(1).Scan(&latest).Error; err != nil {
		return PriceStats{}, err
	}
	out.LatestPrice = latest.Price
	return out, nil
}
