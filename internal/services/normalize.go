// Package services – entry normalization
//
// This file implements the pure normalization step of the ingestion pipeline:
// a total mapping from an arbitrary partial observation to a fully populated
// candidate entry. Every field is independently defaulted, so any subset of
// input fields (including none) produces a valid value. The function performs
// no I/O and never fails; canonical-name inference is explicitly not done
// here (that is the upstream AI normalizer's job).
package services

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/kakakulog/kakaku-backend/internal/domain"
)

// unknownStoreID keys observations that carry no store identity at all.
const unknownStoreID = "unknown"

// unknownStoreName is the display placeholder for such observations.
const unknownStoreName = "不明な店舗"

// PriceValue is an int64 that coerces on unmarshal the way the pipeline
// requires: JSON numbers and numeric strings parse, anything else (including
// null and garbage like "abc") becomes 0. It never produces an unmarshal
// error, keeping normalization total.
type PriceValue int64

// UnmarshalJSON implements json.Unmarshaler.
func (p *PriceValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	var quoted string
	if err := json.Unmarshal(data, &quoted); err == nil {
		s = strings.TrimSpace(quoted)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*p = PriceValue(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*p = PriceValue(int64(f))
		return nil
	}
	*p = 0
	return nil
}

// RawEntry is one raw price observation as submitted by a client: either a
// manual form post or a confirmed line item from an AI-assisted receipt
// import. Every field is optional; NormalizeEntry fills the gaps.
type RawEntry struct {
	StoreID        string            `json:"storeId"`
	StoreName      string            `json:"storeName"`
	PlaceID        string            `json:"placeId"`
	RawProductName string            `json:"rawProductName"`
	NormalizedName string            `json:"normalizedName"`
	Attributes     domain.StringList `json:"attributes"`
	Price          PriceValue        `json:"price"`
	TaxIncluded    *bool             `json:"taxIncluded"`
	Date           string            `json:"date"`
	Region         string            `json:"region"`
	UserID         string            `json:"userId"`
	Status         string            `json:"status"`
	Source         string            `json:"source"`
	ImportID       string            `json:"importId"`
}

// NormalizeEntry maps a raw observation to a fully populated candidate entry.
// Server-assigned fields (id, productId, thanksCount, timestamps) are left
// zero; the reconciliation pipeline fills them.
//
// Defaults, each applied independently:
//   - storeId "unknown", storeName placeholder, placeId passed through
//   - rawProductName falls back to normalizedName, then ""
//   - attributes pass through in order (single values were already wrapped
//     into one-element lists at decode time)
//   - price is the coerced value (0 when unparseable; negative values are
//     stored as given)
//   - currency is always JPY regardless of input
//   - taxIncluded defaults true, date defaults to today (UTC, YYYY-MM-DD)
//   - status defaults active, source defaults user
func NormalizeEntry(raw RawEntry) domain.Entry {
	e := domain.Entry{
		StoreID:        raw.StoreID,
		StoreName:      raw.StoreName,
		PlaceID:        raw.PlaceID,
		RawProductName: raw.RawProductName,
		NormalizedName: raw.NormalizedName,
		Attributes:     raw.Attributes,
		Price:          int64(raw.Price),
		Currency:       domain.CurrencyJPY,
		TaxIncluded:    true,
		Date:           raw.Date,
		Region:         raw.Region,
		UserID:         raw.UserID,
		Status:         raw.Status,
		Source:         raw.Source,
		ImportID:       raw.ImportID,
	}

	if e.StoreID == "" {
		e.StoreID = unknownStoreID
	}
	if e.StoreName == "" {
		e.StoreName = unknownStoreName
	}
	if e.RawProductName == "" {
		e.RawProductName = raw.NormalizedName
	}
	// Light cleanup only: fold half-width katakana, a receipt-printer staple
	// (ﾎｳﾚﾝｿｳ → ホウレンソウ). Canonical naming stays upstream.
	e.RawProductName = width.Fold.String(e.RawProductName)
	if e.Attributes == nil {
		e.Attributes = domain.StringList{}
	}
	if raw.TaxIncluded != nil {
		e.TaxIncluded = *raw.TaxIncluded
	}
	if e.Date == "" {
		e.Date = time.Now().UTC().Format("2006-01-02")
	}
	if e.Status == "" {
		e.Status = domain.EntryStatusActive
	}
	if e.Source == "" {
		e.Source = domain.SourceUser
	}
	return e
}
