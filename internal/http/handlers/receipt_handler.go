// Receipt analysis handler.
//
//   - POST /receipts/analyze  (server-side extraction + normalization)
//
// Clients without their own AI key can let the server run both passes in one
// round trip; the result is draft material for a subsequent import.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kakakulog/kakaku-backend/internal/ai"
	"github.com/kakakulog/kakaku-backend/internal/domain"
	"github.com/kakakulog/kakaku-backend/internal/sysutil"
)

// AnalyzeReceiptRequest carries the receipt photo and optional store hints.
type AnalyzeReceiptRequest struct {
	ImageBase64 string `json:"imageBase64" binding:"required"`
	StoreName   string `json:"storeName"`
	Region      string `json:"region"`
}

// AnalyzeReceiptResponse pairs the raw extraction with its normalization.
type AnalyzeReceiptResponse struct {
	StoreName       string              `json:"storeName,omitempty"`
	Items           []ai.ExtractedItem  `json:"items"`
	NormalizedItems []ai.NormalizedItem `json:"normalizedItems"`
	Model           string              `json:"model"`
}

// AnalyzeReceipt godoc
// @ID          analyzeReceipt
// @Summary     Extract and normalize a receipt server-side
// @Description Runs the extraction and normalization passes over a base64 JPEG. Requires a configured server-side AI key.
// @Tags        Receipts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.AnalyzeReceiptRequest  true  "Receipt photo"
//
// @Success     200  {object}  handlers.AnalyzeReceiptResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "AI not configured"
// @Failure     502  {object}  handlers.ErrorResponse  "Extraction failed"
// @Router      /receipts/analyze [post]
func (h *Handlers) AnalyzeReceipt(c *gin.Context) {
	if h.aiClient == nil {
		fail(c, http.StatusUnauthorized, ErrCodeAuthRequired, "server-side AI is not configured")
		return
	}

	var req AnalyzeReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "imageBase64 required")
		return
	}

	extract, err := h.aiClient.ExtractRawItems(c.Request.Context(), req.ImageBase64)
	if err != nil {
		if errors.Is(err, ai.ErrAuthRequired) {
			fail(c, http.StatusUnauthorized, ErrCodeAuthRequired, "AI credentials rejected")
			return
		}
		if errors.Is(err, ai.ErrRateLimited) {
			fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "AI rate limit exceeded, try again later")
			return
		}
		fail(c, http.StatusBadGateway, ErrCodeInternal, "receipt extraction failed")
		return
	}

	rawItems := make([]domain.RawItem, 0, len(extract.Items))
	for _, it := range extract.Items {
		rawItems = append(rawItems, domain.RawItem{
			RawLine:        it.RawLine,
			RawProductName: it.RawProductName,
			RawPrice:       it.RawPrice,
			RawQty:         it.RawQty,
		})
	}

	normalized := h.aiClient.NormalizeItems(c.Request.Context(), rawItems, ai.StoreContext{
		StoreName: sysutil.FirstNonEmpty(req.StoreName, extract.StoreName),
		Region:    req.Region,
	})

	ok(c, http.StatusOK, AnalyzeReceiptResponse{
		StoreName:       extract.StoreName,
		Items:           extract.Items,
		NormalizedItems: normalized.NormalizedItems,
		Model:           h.appCfg.GeminiModel,
	})
}
