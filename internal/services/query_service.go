// Package services – QueryService
//
// Read-only search and listing operations over entries and stores. These
// degrade gracefully by contract: on a backend failure they log the error and
// return an empty result instead of propagating, so an empty list is
// ambiguous between "no data" and "query failed". Writes never get this
// treatment.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kakakulog/kakaku-backend/internal/domain"
	"github.com/kakakulog/kakaku-backend/internal/repo"
	"github.com/kakakulog/kakaku-backend/internal/utils"
)

const (
	// searchCap bounds every name search result.
	searchCap = 50
	// defaultRecentLimit applies when the caller asks for no particular count.
	defaultRecentLimit = 10
)

// QueryService provides the read side of the catalog.
type QueryService struct {
	// DB is the GORM handle used for all reads.
	DB *gorm.DB
}

// NewQueryService constructs a QueryService.
func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{DB: db}
}

// Search returns active entries matching normalizedName exactly (no fuzzy or
// partial matching), optionally scoped to storeID, newest first, capped at 50.
func (s *QueryService) Search(ctx context.Context, normalizedName, storeID string) []domain.Entry {
	out, err := repo.SearchEntries(ctx, s.DB, normalizedName, storeID, searchCap)
	if err != nil {
		log.Error().Err(err).Str("normalized_name", normalizedName).Msg("searchEntries failed")
		return []domain.Entry{}
	}
	if out == nil {
		out = []domain.Entry{}
	}
	return out
}

// Recent returns the newest active entries. A non-positive limit selects the
// default of 10; requests beyond the search cap are clamped to it.
func (s *QueryService) Recent(ctx context.Context, limit int) []domain.Entry {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	limit = utils.ClampInt(limit, 1, searchCap)
	out, err := repo.RecentEntries(ctx, s.DB, limit)
	if err != nil {
		log.Error().Err(err).Msg("getRecentEntries failed")
		return []domain.Entry{}
	}
	if out == nil {
		out = []domain.Entry{}
	}
	return out
}

// Stores returns every registered store ordered by name ascending.
func (s *QueryService) Stores(ctx context.Context) []domain.Store {
	out, err := repo.ListStores(ctx, s.DB)
	if err != nil {
		log.Error().Err(err).Msg("getAllStores failed")
		return []domain.Store{}
	}
	if out == nil {
		out = []domain.Store{}
	}
	return out
}

// PriceStats summarizes active observations for one normalized name,
// optionally at one store. Failures degrade to the zero summary.
func (s *QueryService) PriceStats(ctx context.Context, normalizedName, storeID string) repo.PriceStats {
	stats, err := repo.EntryPriceStats(ctx, s.DB, normalizedName, storeID)
	if err != nil {
		log.Error().Err(err).Str("normalized_name", normalizedName).Msg("priceStats failed")
		return repo.PriceStats{}
	}
	return stats
}
