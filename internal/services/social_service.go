// Package services – SocialService
//
// The "thanks" interaction: one tap increments the target entry's counter and
// the owning user's received-total, atomically. Both sides are server-side
// counter expressions, so concurrent thanks from many users never lose an
// increment, and a failure rolls both back together.
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

// SocialService owns the thanks interaction.
type SocialService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewSocialService constructs a SocialService.
func NewSocialService(db *gorm.DB) *SocialService {
	return &SocialService{DB: db}
}

// GiveThanks increments entryID's thanksCount by exactly 1 and ownerUserID's
// thanksReceived by the same amount, inside one transaction. The user
// aggregate row is created on first thanks.
//
// Returns ErrEntryNotFound when the entry does not exist, ErrThanksFailed on
// any other failure; in both cases nothing was persisted.
func (s *SocialService) GiveThanks(ctx context.Context, entryID, ownerUserID string) error {
	if entryID == "" || ownerUserID == "" {
		return ErrEntryNotFound
	}

	tr := otel.Tracer("services/SocialService")
	ctx, span := tr.Start(ctx, "GiveThanks",
		trace.WithAttributes(attribute.String("entry.id", entryID)),
	)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := repo.IncrementThanks(tx, entryID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrEntryNotFound
		}
		return repo.AddThanksReceived(tx, ownerUserID)
	})
	if err == ErrEntryNotFound {
		return err
	}
	if err != nil {
		log.Error().Err(err).Str("entry_id", entryID).Msg("giveThanks failed")
		return ErrThanksFailed
	}
	thanksGiven.Inc()
	return nil
}
