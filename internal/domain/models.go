// Package domain defines the persistence models for price entries, stores,
// products, raw receipt imports, and users. These types are mapped with GORM
// and form the core data layer of the price-sharing application.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entry statuses.
const (
	EntryStatusActive = "active"
	EntryStatusHidden = "hidden"
)

// Entry sources.
const (
	SourceUser    = "user"
	SourceReceipt = "receipt"
	SourceAdmin   = "admin"
)

// CurrencyJPY is the only currency the catalog supports.
const CurrencyJPY = "JPY"

// Entry is one observed price of one product at one store on one date.
//
// StoreName is a point-in-time snapshot: the store may be renamed later
// without retroactively altering past entries. ThanksCount is the only field
// mutated after creation; entries are never hard-deleted, only hidden via
// Status.
type Entry struct {
	ID             string     `json:"id"                  gorm:"type:char(36);primaryKey"`
	StoreID        string     `json:"store_id"            gorm:"type:varchar(128);not null;index"`
	StoreName      string     `json:"store_name"          gorm:"type:varchar(255);not null"`
	PlaceID        string     `json:"place_id,omitempty"  gorm:"type:varchar(128)"`
	ProductID      string     `json:"product_id"          gorm:"type:char(64);not null;index"`
	RawProductName string     `json:"raw_product_name"    gorm:"type:varchar(255)"`
	NormalizedName string     `json:"normalized_name"     gorm:"type:varchar(255);not null;index:idx_entries_name_status,priority:1"`
	Attributes     StringList `json:"attributes"          gorm:"serializer:json"`
	Price          int64      `json:"price"               gorm:"not null;default:0"`
	Currency       string     `json:"currency"            gorm:"type:char(3);not null;default:'JPY'"`
	TaxIncluded    bool       `json:"tax_included"        gorm:"not null;default:true"`
	Date           string     `json:"date"                gorm:"type:char(10);not null"` // "YYYY-MM-DD"
	Region         string     `json:"region,omitempty"    gorm:"type:varchar(128)"`
	UserID         string     `json:"user_id"             gorm:"type:varchar(64);index"`
	ThanksCount    int64      `json:"thanks_count"        gorm:"not null;default:0"`
	Status         string     `json:"status"              gorm:"type:varchar(16);not null;default:'active';index:idx_entries_name_status,priority:2;check:status IN ('active','hidden')"`
	Source         string     `json:"source"              gorm:"type:varchar(16);not null;default:'user';check:source IN ('user','receipt','admin')"`
	ImportID       string     `json:"import_id,omitempty" gorm:"type:char(36);index"`
	CreatedAt      time.Time  `json:"created_at"          gorm:"index"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Entry.
func (Entry) TableName() string { return "entries" }

// Store is a physical retail location. The primary key equals the external
// place identifier when one is known, otherwise a fallback id ("unknown" for
// free-text submissions). Upserts merge: fields absent from an update are
// preserved on the existing row.
type Store struct {
	StoreID   string    `json:"store_id"           gorm:"type:varchar(128);primaryKey"`
	Name      string    `json:"name"               gorm:"type:varchar(255);not null"`
	PlaceID   string    `json:"place_id,omitempty" gorm:"type:varchar(128)"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Region    string    `json:"region,omitempty"   gorm:"type:varchar(128)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Store.
func (Store) TableName() string { return "stores" }

// Product is a canonical product identity, disambiguated only by its
// normalized name. The primary key is ProductKey(normalizedName), so the
// at-most-one-product-per-name invariant holds by construction and the
// existence check becomes a keyed lookup usable inside the entry transaction.
type Product struct {
	ID             string     `json:"id"                gorm:"type:char(64);primaryKey"`
	NormalizedName string     `json:"normalized_name"   gorm:"type:varchar(255);not null;uniqueIndex"`
	Aliases        StringList `json:"aliases,omitempty" gorm:"serializer:json"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// ProductKey derives the deterministic primary key for a normalized product
// name: the lowercase hex SHA-256 digest of the name's bytes.
func ProductKey(normalizedName string) string {
	sum := sha256.Sum256([]byte(normalizedName))
	return hex.EncodeToString(sum[:])
}

// Import statuses. Any status may follow any status; only the value set is
// validated, at the service layer.
const (
	ImportStatusDraft     = "draft"
	ImportStatusConfirmed = "confirmed"
	ImportStatusFailed    = "failed"
)

// RawItem is one line-level extraction result from a receipt image.
type RawItem struct {
	RawLine        string            `json:"rawLine"`
	RawProductName string            `json:"rawProductName,omitempty"`
	RawPrice       *int64            `json:"rawPrice,omitempty"`
	RawQty         string            `json:"rawQty,omitempty"`
	RawMeta        map[string]string `json:"rawMeta,omitempty"`
}

// RawImport is the provenance record for an AI-assisted receipt submission.
// It is created in draft state as soon as processing begins and moves to
// confirmed once all derived entries are persisted, or to failed otherwise.
// One import typically yields one entry per extracted line item.
type RawImport struct {
	ID               string    `json:"id"                        gorm:"type:char(36);primaryKey"`
	UserID           string    `json:"user_id"                   gorm:"type:varchar(64);not null;index"`
	StoreID          string    `json:"store_id,omitempty"        gorm:"type:varchar(128)"`
	StoreName        string    `json:"store_name,omitempty"      gorm:"type:varchar(255)"`
	PlaceID          string    `json:"place_id,omitempty"        gorm:"type:varchar(128)"`
	ReceiptImagePath string    `json:"receipt_image_path"        gorm:"type:varchar(512)"`
	ExtractedText    string    `json:"extracted_text,omitempty"  gorm:"type:text"`
	RawItems         []RawItem `json:"raw_items"                 gorm:"serializer:json"`
	AIModel          string    `json:"ai_model,omitempty"        gorm:"type:varchar(64)"`
	AIConfidence     *float64  `json:"ai_confidence,omitempty"`
	Status           string    `json:"status"                    gorm:"type:varchar(16);not null;default:'draft';check:status IN ('draft','confirmed','failed')"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for RawImport.
func (RawImport) TableName() string { return "raw_imports" }

// User is the minimal per-user aggregate: an opaque id and the running count
// of thanks received across all of that user's entries. The row is created
// lazily by the first thanks.
type User struct {
	UserID         string    `json:"user_id"         gorm:"type:varchar(64);primaryKey"`
	ThanksReceived int64     `json:"thanks_received" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
