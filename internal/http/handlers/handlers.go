// Handler wiring.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses. Services are consumed
// through interfaces so tests can substitute fakes.
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/kakakulog/kakaku-backend/internal/ai"
	"github.com/kakakulog/kakaku-backend/internal/domain"
	"github.com/kakakulog/kakaku-backend/internal/repo"
	"github.com/kakakulog/kakaku-backend/internal/services"
	"github.com/kakakulog/kakaku-backend/internal/storage"
)

//
// Service contracts (context-aware)
//

// EntryService is the write path for price observations.
type EntryService interface {
	// AddEntry normalizes and persists one raw observation, returning its id.
	AddEntry(ctx context.Context, raw services.RawEntry) (string, error)
}

// QueryService is the read path. Reads degrade to empty results on storage
// failure, so these methods never error.
type QueryService interface {
	Search(ctx context.Context, normalizedName, storeID string) []domain.Entry
	Recent(ctx context.Context, limit int) []domain.Entry
	Stores(ctx context.Context) []domain.Store
	PriceStats(ctx context.Context, normalizedName, storeID string) repo.PriceStats
}

// SocialService records thanks against entries.
type SocialService interface {
	GiveThanks(ctx context.Context, entryID, ownerUserID string) error
}

// StoreService registers stores picked from place search.
type StoreService interface {
	Register(ctx context.Context, name, placeID, region string) error
}

// ImportService tracks AI-assisted receipt imports.
type ImportService interface {
	Create(ctx context.Context, in services.CreateImportInput) (*domain.RawImport, error)
	AttachImage(ctx context.Context, id, path string) error
	UpdateStatus(ctx context.Context, id, status string) error
	Get(ctx context.Context, id string) (*domain.RawImport, error)
	Confirm(ctx context.Context, importID string, items []services.RawEntry) ([]string, error)
}

// AIClient extracts and normalizes receipt line items.
type AIClient interface {
	ExtractRawItems(ctx context.Context, imageBase64 string) (*ai.ExtractResult, error)
	NormalizeItems(ctx context.Context, rawItems []domain.RawItem, storeCtx ai.StoreContext) *ai.NormalizeResult
}

// AppConfig is the subset of configuration the handlers expose to clients.
type AppConfig struct {
	Environment  string
	AIConfigured bool
	GeminiModel  string
	MapsAPIKey   string
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for entries, stores, imports, receipts,
// and app bootstrap.
type Handlers struct {
	entrySvc  EntryService
	querySvc  QueryService
	socialSvc SocialService
	storeSvc  StoreService
	importSvc ImportService
	aiClient  AIClient // nil when AI is not configured
	images    storage.Store
	appCfg    AppConfig

	validate *validator.Validate
}

// New constructs a Handlers instance bound to the given collaborators.
// aiClient may be nil when no API key is configured.
func New(
	entrySvc EntryService,
	querySvc QueryService,
	socialSvc SocialService,
	storeSvc StoreService,
	importSvc ImportService,
	aiClient AIClient,
	images storage.Store,
	appCfg AppConfig,
) *Handlers {
	return &Handlers{
		entrySvc:  entrySvc,
		querySvc:  querySvc,
		socialSvc: socialSvc,
		storeSvc:  storeSvc,
		importSvc: importSvc,
		aiClient:  aiClient,
		images:    images,
		appCfg:    appCfg,
		validate:  validator.New(),
	}
}

// userID extracts the caller identity from the Gin context (set by the
// identity middleware), falling back to the X-User-ID header. Returns ""
// when the request carries no identity; write endpoints reject that with
// 401 auth_required.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}
