// Import HTTP handlers.
//
// Receipt imports track the provenance of AI-assisted submissions:
//   - POST  /imports              (store image, create draft import)
//   - GET   /imports/:id          (fetch one import, with image URL)
//   - PATCH /imports/:id/status   (draft | confirmed | failed)
//   - POST  /imports/:id/confirm  (persist confirmed line items as entries)
package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kakakulog/kakaku-backend/internal/domain"
	"github.com/kakakulog/kakaku-backend/internal/http/middleware"
	"github.com/kakakulog/kakaku-backend/internal/services"
)

// maxReceiptImageBytes caps uploaded receipt photos.
const maxReceiptImageBytes = 8 << 20

// CreateImportRequest is the JSON payload for starting an import. The image
// travels base64-encoded; multipart uploads use the "image" form file
// instead.
type CreateImportRequest struct {
	StoreID       string           `json:"storeId"`
	StoreName     string           `json:"storeName"`
	PlaceID       string           `json:"placeId"`
	ImageBase64   string           `json:"imageBase64"`
	ExtractedText string           `json:"extractedText"`
	RawItems      []domain.RawItem `json:"rawItems"`
	AIModel       string           `json:"aiModel"`
	AIConfidence  *float64         `json:"aiConfidence"`
}

// UpdateImportStatusRequest carries the new lifecycle status.
type UpdateImportStatusRequest struct {
	Status string `json:"status" binding:"required" example:"confirmed"`
}

// ConfirmImportRequest lists the user-confirmed line items to persist.
type ConfirmImportRequest struct {
	Items []services.RawEntry `json:"items" binding:"required"`
}

// ConfirmImportResponse returns the ids of the persisted entries.
type ConfirmImportResponse struct {
	EntryIDs []string `json:"entryIds"`
}

// ImportResponse decorates a RawImport with a resolved image URL.
type ImportResponse struct {
	domain.RawImport
	ImageURL string `json:"imageUrl,omitempty"`
}

// CreateImport godoc
// @ID          createImport
// @Summary     Start a receipt import
// @Description Stores the receipt image (when provided) and records a draft import with the raw extraction results.
// @Tags        Imports
// @Accept      json
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       body       body    handlers.CreateImportRequest  true  "Import payload"
//
// @Success     201  {object}  domain.RawImport
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse  "Save failed"
// @Router      /imports [post]
func (h *Handlers) CreateImport(c *gin.Context) {
	uid := userID(c)

	var req CreateImportRequest
	var imageData []byte

	if isMultipart(c) {
		if err := bindMultipartImport(c, &req, &imageData); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
		if req.ImageBase64 != "" {
			data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
			if err != nil {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "imageBase64 is not valid base64")
				return
			}
			imageData = data
		}
	}

	in := services.CreateImportInput{
		UserID:        uid,
		StoreID:       req.StoreID,
		StoreName:     req.StoreName,
		PlaceID:       req.PlaceID,
		ExtractedText: req.ExtractedText,
		RawItems:      req.RawItems,
		AIModel:       req.AIModel,
		AIConfidence:  req.AIConfidence,
	}

	imp, err := h.importSvc.Create(c.Request.Context(), in)
	if errors.Is(err, services.ErrUserRequired) {
		fail(c, http.StatusUnauthorized, ErrCodeAuthRequired, "X-User-ID header required")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, "could not create import")
		return
	}

	// Image upload happens after the draft exists so the path carries the
	// import id. A failed upload downgrades to a log line, not a 5xx: the
	// import itself is already durable.
	if len(imageData) > 0 && h.images != nil {
		path, err := h.images.SaveReceiptImage(c.Request.Context(), uid, imp.ID, imageData)
		if err != nil {
			middleware.LoggerFrom(c).Error().Err(err).
				Str("import_id", imp.ID).
				Msg("receipt image upload failed")
		} else if aerr := h.importSvc.AttachImage(c.Request.Context(), imp.ID, path); aerr != nil {
			middleware.LoggerFrom(c).Error().Err(aerr).
				Str("import_id", imp.ID).
				Msg("could not record receipt image path")
		} else {
			imp.ReceiptImagePath = path
		}
	}

	ok(c, http.StatusCreated, imp)
}

// GetImport godoc
// @ID          getImport
// @Summary     Fetch one import
// @Description Returns the import record with a resolved image URL when an image was stored.
// @Tags        Imports
// @Produce     json
//
// @Param       id  path  string  true  "Import ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ImportResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Import not found"
// @Router      /imports/{id} [get]
func (h *Handlers) GetImport(c *gin.Context) {
	imp, err := h.importSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "import not found")
		return
	}

	resp := ImportResponse{RawImport: *imp}
	if imp.ReceiptImagePath != "" && h.images != nil {
		if url, err := h.images.ImageURL(c.Request.Context(), imp.ReceiptImagePath); err == nil {
			resp.ImageURL = url
		}
	}
	ok(c, http.StatusOK, resp)
}

// UpdateImportStatus godoc
// @ID          updateImportStatus
// @Summary     Update import lifecycle status
// @Tags        Imports
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Import ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateImportStatusRequest  true  "New status"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid status"
// @Failure     404  {object}  handlers.ErrorResponse  "Import not found"
// @Router      /imports/{id}/status [patch]
func (h *Handlers) UpdateImportStatus(c *gin.Context) {
	var req UpdateImportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	err := h.importSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	switch {
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "status must be draft, confirmed, or failed")
	case errors.Is(err, services.ErrImportNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "import not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, "could not update import")
	default:
		noContent(c)
	}
}

// ConfirmImport godoc
// @ID          confirmImport
// @Summary     Confirm an import's line items
// @Description Persists each confirmed line item through the entry pipeline and marks the import confirmed.
// @Tags        Imports
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Import ID (UUID)"  format(uuid)
// @Param       body  body  handlers.ConfirmImportRequest  true  "Confirmed line items"
//
// @Success     201  {object}  handlers.ConfirmImportResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Import not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Save failed"
// @Router      /imports/{id}/confirm [post]
func (h *Handlers) ConfirmImport(c *gin.Context) {
	var req ConfirmImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "items required")
		return
	}

	ids, err := h.importSvc.Confirm(c.Request.Context(), c.Param("id"), req.Items)
	switch {
	case errors.Is(err, services.ErrImportNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "import not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, "could not persist all items")
	default:
		ok(c, http.StatusCreated, ConfirmImportResponse{EntryIDs: ids})
	}
}

func isMultipart(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == "multipart/form-data"
}

// bindMultipartImport reads the "image" form file plus the scalar form
// fields into req.
func bindMultipartImport(c *gin.Context, req *CreateImportRequest, imageData *[]byte) error {
	req.StoreID = c.PostForm("storeId")
	req.StoreName = c.PostForm("storeName")
	req.PlaceID = c.PostForm("placeId")
	req.ExtractedText = c.PostForm("extractedText")
	req.AIModel = c.PostForm("aiModel")

	file, err := c.FormFile("image")
	if err != nil {
		// Image is optional; a metadata-only multipart post is fine.
		return nil
	}
	if file.Size > maxReceiptImageBytes {
		return errors.New("image exceeds the 8 MiB limit")
	}
	f, err := file.Open()
	if err != nil {
		return errors.New("could not read image upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxReceiptImageBytes+1))
	if err != nil {
		return errors.New("could not read image upload")
	}
	*imageData = data
	return nil
}
