// Package services – StoreService
//
// Explicit store registration, used to pre-populate the store catalog so that
// later entry submissions can reference a known store instead of free text.
// Registration keys stores by their external place identifier and merges on
// repeat: fields present in a call overwrite, absent fields are preserved.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kakakulog/kakaku-backend/internal/repo"
)

// StoreService owns explicit store registration.
type StoreService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewStoreService constructs a StoreService.
func NewStoreService(db *gorm.DB) *StoreService {
	return &StoreService{DB: db}
}

// Register upserts the store keyed by placeID with merge semantics. Name and
// placeID are required; region is stored when present. Re-registering the
// same place merges rather than duplicating.
func (s *StoreService) Register(ctx context.Context, name, placeID, region string) error {
	if name == "" {
		return ErrStoreNameRequired
	}
	if placeID == "" {
		return ErrPlaceIDRequired
	}

	fields := repo.StoreFields{Name: &name, PlaceID: &placeID}
	if region != "" {
		fields.Region = &region
	}
	if err := repo.UpsertStore(s.DB.WithContext(ctx), placeID, fields); err != nil {
		log.Error().Err(err).Str("place_id", placeID).Msg("registerStore failed")
		return ErrSaveFailed
	}
	return nil
}
