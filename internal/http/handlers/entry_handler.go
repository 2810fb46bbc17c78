// Entry HTTP handlers.
//
// This file exposes REST endpoints for price entries:
//   - POST /entries               (submit one observation)
//   - GET  /entries/search        (exact-name search, newest first)
//   - GET  /entries/recent        (recent feed)
//   - GET  /entries/stats         (price stats for a product)
//   - POST /entries/:id/thanks    (thank the submitter)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kakakulog/kakaku-backend/internal/services"
	"github.com/kakakulog/kakaku-backend/internal/utils"
)

// CreateEntryResponse returns the id of the persisted entry.
type CreateEntryResponse struct {
	ID string `json:"id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// GiveThanksRequest names the entry owner whose received-total increments.
type GiveThanksRequest struct {
	// ToUserID is the submitter of the entry being thanked.
	ToUserID string `json:"toUserId" binding:"required" example:"user123"`
}

// CreateEntry godoc
// @ID          createEntry
// @Summary     Submit a price observation
// @Description Normalizes one raw observation and persists it, creating the backing product and store as needed.
// @Tags        Entries
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       body       body    services.RawEntry  true  "Raw observation"
//
// @Success     201  {object}  handlers.CreateEntryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse  "Save failed"
// @Router      /entries [post]
func (h *Handlers) CreateEntry(c *gin.Context) {
	var raw services.RawEntry
	if err := c.ShouldBindJSON(&raw); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(raw.NormalizedName) == "" && strings.TrimSpace(raw.RawProductName) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "normalizedName or rawProductName required")
		return
	}
	if raw.UserID == "" {
		raw.UserID = userID(c)
	}
	if raw.UserID == "" {
		fail(c, http.StatusUnauthorized, ErrCodeAuthRequired, "user id is required")
		return
	}

	id, err := h.entrySvc.AddEntry(c.Request.Context(), raw)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, "could not save entry")
		return
	}
	ok(c, http.StatusCreated, CreateEntryResponse{ID: id})
}

// SearchEntries godoc
// @ID          searchEntries
// @Summary     Search entries by product name
// @Description Exact match on the normalized product name, newest first, capped at 50. Optional store scoping.
// @Tags        Entries
// @Produce     json
//
// @Param       name     query  string  true  "Normalized product name"  example(キャベツ)
// @Param       storeId  query  string  false "Restrict to one store"
//
// @Success     200  {array}   domain.Entry
// @Failure     400  {object}  handlers.ErrorResponse  "Missing name"
// @Router      /entries/search [get]
func (h *Handlers) SearchEntries(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name query parameter required")
		return
	}
	entries := h.querySvc.Search(c.Request.Context(), name, c.Query("storeId"))
	ok(c, http.StatusOK, entries)
}

// RecentEntries godoc
// @ID          recentEntries
// @Summary     Recent entries feed
// @Description Returns the most recent active entries, newest first.
// @Tags        Entries
// @Produce     json
//
// @Param       limit  query  int  false "Max entries"  minimum(1) maximum(50) default(10)
//
// @Success     200  {array}  domain.Entry
// @Router      /entries/recent [get]
func (h *Handlers) RecentEntries(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	entries := h.querySvc.Recent(c.Request.Context(), limit)
	ok(c, http.StatusOK, entries)
}

// EntryStats godoc
// @ID          entryStats
// @Summary     Price statistics for a product
// @Description Count, min, max, and latest price among active entries for a product name, optionally scoped to a store.
// @Tags        Entries
// @Produce     json
//
// @Param       name     query  string  true  "Normalized product name"  example(キャベツ)
// @Param       storeId  query  string  false "Restrict to one store"
//
// @Success     200  {object}  repo.PriceStats
// @Failure     400  {object}  handlers.ErrorResponse  "Missing name"
// @Router      /entries/stats [get]
func (h *Handlers) EntryStats(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name query parameter required")
		return
	}
	stats := h.querySvc.PriceStats(c.Request.Context(), name, c.Query("storeId"))
	ok(c, http.StatusOK, stats)
}

// GiveThanks godoc
// @ID          giveThanks
// @Summary     Thank an entry's submitter
// @Description Atomically increments the entry's thanks count and the submitter's received total.
// @Tags        Entries
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Entry ID (UUID)"  format(uuid)
// @Param       body  body  handlers.GiveThanksRequest  true  "Entry owner"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Entry not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Thanks failed"
// @Router      /entries/{id}/thanks [post]
func (h *Handlers) GiveThanks(c *gin.Context) {
	entryID := c.Param("id")

	var req GiveThanksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "toUserId required")
		return
	}

	err := h.socialSvc.GiveThanks(c.Request.Context(), entryID, req.ToUserID)
	switch {
	case errors.Is(err, services.ErrEntryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeThanksFailed, "could not record thanks")
	default:
		noContent(c)
	}
}
