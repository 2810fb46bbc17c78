// Package services – ImportService
//
// Lifecycle of AI-assisted receipt submissions. A RawImport is created in
// draft state as soon as an image starts processing; once the user confirms
// the extracted line items, each becomes an entry through the reconciliation
// pipeline and the import flips to confirmed (or failed if any line cannot be
// persisted). The raw extraction payload is kept verbatim for provenance.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kakakulog/kakaku-backend/internal/domain"
	"github.com/kakakulog/kakaku-backend/internal/repo"
)

// ImportService tracks provenance of AI-assisted submissions.
type ImportService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Entries is the pipeline that persists confirmed line items.
	Entries *EntryService
}

// NewImportService constructs an ImportService.
func NewImportService(db *gorm.DB, entries *EntryService) *ImportService {
	return &ImportService{DB: db, Entries: entries}
}

// CreateImportInput is the payload for starting an import.
type CreateImportInput struct {
	UserID           string
	StoreID          string
	StoreName        string
	PlaceID          string
	ReceiptImagePath string
	ExtractedText    string
	RawItems         []domain.RawItem
	AIModel          string
	AIConfidence     *float64
}

// Create records a draft RawImport and returns it.
func (s *ImportService) Create(ctx context.Context, in CreateImportInput) (*domain.RawImport, error) {
	if in.UserID == "" {
		return nil, ErrUserRequired
	}
	if in.RawItems == nil {
		// Keeps raw_items serializing as [] rather than null.
		in.RawItems = []domain.RawItem{}
	}
	imp := &domain.RawImport{
		UserID:           in.UserID,
		StoreID:          in.StoreID,
		StoreName:        in.StoreName,
		PlaceID:          in.PlaceID,
		ReceiptImagePath: in.ReceiptImagePath,
		ExtractedText:    in.ExtractedText,
		RawItems:         in.RawItems,
		AIModel:          in.AIModel,
		AIConfidence:     in.AIConfidence,
	}
	imp, err := repo.CreateRawImport(ctx, s.DB, imp)
	if err != nil {
		log.Error().Err(err).Str("user_id", in.UserID).Msg("createRawImport failed")
		return nil, ErrSaveFailed
	}
	return imp, nil
}

// UpdateStatus moves an import to status. Only the value set is validated
// (draft, confirmed, failed); any order of transitions is allowed.
func (s *ImportService) UpdateStatus(ctx context.Context, id, status string) error {
	switch status {
	case domain.ImportStatusDraft, domain.ImportStatusConfirmed, domain.ImportStatusFailed:
	default:
		return ErrInvalidStatus
	}
	rows, err := repo.UpdateRawImportStatus(ctx, s.DB, id, status)
	if err != nil {
		log.Error().Err(err).Str("import_id", id).Msg("updateRawImportStatus failed")
		return ErrSaveFailed
	}
	if rows == 0 {
		return ErrImportNotFound
	}
	return nil
}

// AttachImage records the storage path of the uploaded receipt image on an
// existing import.
func (s *ImportService) AttachImage(ctx context.Context, id, path string) error {
	rows, err := repo.SetRawImportImagePath(ctx, s.DB, id, path)
	if err != nil {
		log.Error().Err(err).Str("import_id", id).Msg("setRawImportImagePath failed")
		return ErrSaveFailed
	}
	if rows == 0 {
		return ErrImportNotFound
	}
	return nil
}

// Get returns the provenance record for id.
func (s *ImportService) Get(ctx context.Context, id string) (*domain.RawImport, error) {
	imp, err := repo.GetRawImport(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrImportNotFound
		}
		return nil, err
	}
	return imp, nil
}

// Confirm persists each confirmed line item through the reconciliation
// pipeline and marks the import confirmed. Line items inherit the import's
// user and store hints unless they carry their own, and are stamped with
// source "receipt" and the import id.
//
// Each item is its own transaction, matching the per-line submission flow:
// on the first failure the import is marked failed and the error returned,
// but items persisted before that point remain. The ids of all persisted
// entries are returned either way.
func (s *ImportService) Confirm(ctx context.Context, importID string, items []RawEntry) ([]string, error) {
	imp, err := s.Get(ctx, importID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		item.ImportID = importID
		item.Source = domain.SourceReceipt
		if item.UserID == "" {
			item.UserID = imp.UserID
		}
		if item.StoreID == "" {
			item.StoreID = imp.StoreID
		}
		if item.StoreName == "" {
			item.StoreName = imp.StoreName
		}
		if item.PlaceID == "" {
			item.PlaceID = imp.PlaceID
		}

		id, err := s.Entries.AddEntry(ctx, item)
		if err != nil {
			if uerr := s.UpdateStatus(ctx, importID, domain.ImportStatusFailed); uerr != nil {
				log.Error().Err(uerr).Str("import_id", importID).Msg("failed to mark import failed")
			}
			return ids, err
		}
		ids = append(ids, id)
	}

	if err := s.UpdateStatus(ctx, importID, domain.ImportStatusConfirmed); err != nil {
		return ids, err
	}
	return ids, nil
}
