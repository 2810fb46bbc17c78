// Package services – EntryService
//
// This file implements the reconciliation pipeline: the sequence that takes a
// raw (AI-extracted or manually entered) price observation and durably merges
// it into the normalized catalog of stores, products, and dated entries.
// Product resolution, the store merge-upsert, and the entry insert run inside
// one database transaction, so a failed pipeline never leaves an entry
// pointing at a half-created product.
//
// Observability: AddEntry is OpenTelemetry-instrumented; spans carry the
// normalized name and resolved store key.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kakakulog/kakaku-backend/internal/repo"
)

// EntryService owns the write path for price observations.
type EntryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewEntryService constructs an EntryService.
func NewEntryService(db *gorm.DB) *EntryService {
	return &EntryService{DB: db}
}

// AddEntry normalizes raw, resolves or creates the backing product and store,
// and persists the entry, returning its id.
//
// Steps, in order:
//  1. Normalize the input (pure, total).
//  2. In one transaction: ensure the product row at its deterministic key,
//     merge-upsert the store at placeId || storeId || "unknown", insert the
//     entry with thanksCount 0 and server timestamps.
//
// Any failure aborts the whole transaction and returns ErrSaveFailed; the
// underlying cause is logged, never surfaced. The operation is not retried.
func (s *EntryService) AddEntry(ctx context.Context, raw RawEntry) (string, error) {
	entry := NormalizeEntry(raw)

	storeKey := entry.PlaceID
	if storeKey == "" {
		storeKey = entry.StoreID
	}
	if storeKey == "" {
		storeKey = unknownStoreID
	}

	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "AddEntry",
		trace.WithAttributes(
			attribute.String("entry.normalized_name", entry.NormalizedName),
			attribute.String("entry.store_key", storeKey),
		),
	)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productID, err := repo.EnsureProduct(tx, entry.NormalizedName)
		if err != nil {
			return err
		}

		// Store fields follow merge semantics: only what the caller actually
		// supplied overwrites; the normalization placeholders stay out so a
		// registered store is not renamed to "unknown" by a bare submission.
		var fields repo.StoreFields
		if raw.StoreName != "" {
			fields.Name = &raw.StoreName
		}
		if entry.PlaceID != "" {
			fields.PlaceID = &entry.PlaceID
		}
		if entry.Region != "" {
			fields.Region = &entry.Region
		}
		if err := repo.UpsertStore(tx, storeKey, fields); err != nil {
			return err
		}

		entry.StoreID = storeKey
		entry.ProductID = productID
		return repo.CreateEntry(tx, &entry)
	})
	if err != nil {
		log.Error().Err(err).
			Str("normalized_name", entry.NormalizedName).
			Str("store_key", storeKey).
			Msg("addEntry failed")
		return "", ErrSaveFailed
	}
	entriesCreated.WithLabelValues(entry.Source).Inc()
	return entry.ID, nil
}
