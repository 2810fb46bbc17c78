// App bootstrap handlers.
//
//   - GET  /api/config   (client bootstrap blob)
//   - POST /api/extract  (legacy stub; extraction moved client-side)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppConfigResponse is the bootstrap blob the frontend fetches on startup.
// It never carries the raw AI key, only whether one is configured.
type AppConfigResponse struct {
	Environment  string `json:"environment" example:"production"`
	AIConfigured bool   `json:"aiConfigured"`
	GeminiModel  string `json:"geminiModel,omitempty" example:"gemini-3-flash-preview"`
	MapsAPIKey   string `json:"mapsApiKey,omitempty"`
}

// GetAppConfig godoc
// @ID          getAppConfig
// @Summary     Client bootstrap configuration
// @Description Returns the environment name, whether server-side AI is configured, and the maps key for place search.
// @Tags        App
// @Produce     json
//
// @Success     200  {object}  handlers.AppConfigResponse
// @Router      /config [get]
func (h *Handlers) GetAppConfig(c *gin.Context) {
	ok(c, http.StatusOK, AppConfigResponse{
		Environment:  h.appCfg.Environment,
		AIConfigured: h.appCfg.AIConfigured,
		GeminiModel:  h.appCfg.GeminiModel,
		MapsAPIKey:   h.appCfg.MapsAPIKey,
	})
}

// LegacyExtract godoc
// @ID          legacyExtract
// @Summary     Legacy extraction endpoint
// @Description Receipt extraction happens client-side; this endpoint is kept only so old clients get a clear error.
// @Tags        App
// @Produce     json
//
// @Failure     501  {object}  handlers.ErrorResponse  "Not implemented"
// @Router      /extract [post]
func (h *Handlers) LegacyExtract(c *gin.Context) {
	fail(c, http.StatusNotImplemented, ErrCodeNotImplemented, "use client-side call")
}
