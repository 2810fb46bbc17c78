// Store HTTP handlers.
//
//   - POST /stores  (register a store picked from place search)
//   - GET  /stores  (list all stores, name ascending)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kakakulog/kakaku-backend/internal/services"
)

// RegisterStoreRequest is the JSON payload for registering a store. The
// placeId keys the store, so repeated registrations merge.
type RegisterStoreRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=255" example:"Aスーパー 駅前店"`
	PlaceID string `json:"placeId" validate:"required,min=1,max=128" example:"ChIJ51cu8IcbXWAR"`
	Region  string `json:"region" validate:"max=64" example:"東京都"`
}

// RegisterStore godoc
// @ID          registerStore
// @Summary     Register a store
// @Description Upserts a store keyed by its place ID; repeated registrations merge fields.
// @Tags        Stores
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterStoreRequest  true  "Store payload"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Save failed"
// @Router      /stores [post]
func (h *Handlers) RegisterStore(c *gin.Context) {
	var req RegisterStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.PlaceID = strings.TrimSpace(req.PlaceID)
	if err := h.validate.Struct(req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and placeId are required")
		return
	}

	err := h.storeSvc.Register(c.Request.Context(), req.Name, req.PlaceID, req.Region)
	switch {
	case errors.Is(err, services.ErrStoreNameRequired), errors.Is(err, services.ErrPlaceIDRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, "could not save store")
	default:
		noContent(c)
	}
}

// ListStores godoc
// @ID          listStores
// @Summary     List stores
// @Description Returns all known stores ordered by name.
// @Tags        Stores
// @Produce     json
//
// @Success     200  {array}  domain.Store
// @Router      /stores [get]
func (h *Handlers) ListStores(c *gin.Context) {
	stores := h.querySvc.Stores(c.Request.Context())
	ok(c, http.StatusOK, stores)
}
