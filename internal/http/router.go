// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: copy X-User-ID into context
//  4. Logger: structured access logs
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Rate limiter (per user/IP)
//  9. CORS and security headers
package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/kakakulog/kakaku-backend/internal/ai"
	"github.com/kakakulog/kakaku-backend/internal/config"
	"github.com/kakakulog/kakaku-backend/internal/http/handlers"
	"github.com/kakakulog/kakaku-backend/internal/http/middleware"
	"github.com/kakakulog/kakaku-backend/internal/services"
	"github.com/kakakulog/kakaku-backend/internal/storage"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. aiClient may be nil (no key configured); images may be nil when no
// storage is configured.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, images storage.Store, aiClient *ai.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Caller identity from X-User-ID
	r.Use(middleware.Identity())

	// 4) Structured access logging
	r.Use(middleware.Logger())

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit; generous because receipt photos ride along
	r.Use(limitBody(10 << 20))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db
	entrySvc := services.NewEntryService(db)
	querySvc := services.NewQueryService(db)
	socialSvc := services.NewSocialService(db)
	storeSvc := services.NewStoreService(db)
	importSvc := services.NewImportService(db, entrySvc)

	var aiIface handlers.AIClient
	if aiClient != nil {
		aiIface = aiClient
	}
	h := handlers.New(entrySvc, querySvc, socialSvc, storeSvc, importSvc, aiIface, images, handlers.AppConfig{
		Environment:  cfg.AppEnv,
		AIConfigured: cfg.AIConfigured(),
		GeminiModel:  cfg.AI.GeminiModel,
		MapsAPIKey:   cfg.AI.MapsAPIKey,
	})

	// App bootstrap endpoints live at a fixed path regardless of APIBasePath;
	// old clients hardcode them.
	appAPI := r.Group("/api")
	{
		appAPI.GET("/config", h.GetAppConfig)
		appAPI.POST("/extract", h.LegacyExtract)
	}

	// Public API (gzip: JSON lists compress well)
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// Entries
		api.POST("/entries", h.CreateEntry)
		api.GET("/entries/search", h.SearchEntries)
		api.GET("/entries/recent", h.RecentEntries)
		api.GET("/entries/stats", h.EntryStats)
		api.POST("/entries/:id/thanks", h.GiveThanks)

		// Stores
		api.POST("/stores", h.RegisterStore)
		api.GET("/stores", h.ListStores)

		// Imports
		api.POST("/imports", h.CreateImport)
		api.GET("/imports/:id", h.GetImport)
		api.PATCH("/imports/:id/status", h.UpdateImportStatus)
		api.POST("/imports/:id/confirm", h.ConfirmImport)

		// Receipts
		api.POST("/receipts/analyze", h.AnalyzeReceipt)
	}

	// Static SPA fallback in production, JSON 404 otherwise.
	registerNoRoute(r, cfg)
}

// registerNoRoute serves the built frontend for non-API paths in production
// and a JSON 404 for everything else.
func registerNoRoute(r *gin.Engine, cfg config.Config) {
	staticIndex := filepath.Join(cfg.StaticDir, "index.html")
	serveSPA := cfg.IsProduction() && fileExists(staticIndex)

	if serveSPA {
		r.Static("/assets", filepath.Join(cfg.StaticDir, "assets"))
	}

	r.NoRoute(func(c *gin.Context) {
		if serveSPA &&
			c.Request.Method == http.MethodGet &&
			!strings.HasPrefix(c.Request.URL.Path, "/api") &&
			!strings.HasPrefix(c.Request.URL.Path, "/metrics") {
			c.File(staticIndex)
			return
		}
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
}

// limitBody caps the request body size using http.MaxBytesReader; reads past
// the cap error downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
