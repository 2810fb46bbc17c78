package services

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/kakakulog/kakaku-backend/internal/domain"
)

func TestNormalizeEntry_EmptyInputIsTotal(t *testing.T) {
	e := NormalizeEntry(RawEntry{})

	if e.StoreID != "unknown" {
		t.Fatalf("storeId = %q, want unknown", e.StoreID)
	}
	if e.StoreName != "不明な店舗" {
		t.Fatalf("storeName = %q, want placeholder", e.StoreName)
	}
	if e.RawProductName != "" || e.NormalizedName != "" {
		t.Fatalf("names = %q/%q, want empty", e.RawProductName, e.NormalizedName)
	}
	if e.Attributes == nil || len(e.Attributes) != 0 {
		t.Fatalf("attributes = %v, want empty list", e.Attributes)
	}
	if e.Price != 0 {
		t.Fatalf("price = %d, want 0", e.Price)
	}
	if e.Currency != domain.CurrencyJPY {
		t.Fatalf("currency = %q, want JPY", e.Currency)
	}
	if !e.TaxIncluded {
		t.Fatal("taxIncluded must default true")
	}
	if e.Date != time.Now().UTC().Format("2006-01-02") {
		t.Fatalf("date = %q, want today", e.Date)
	}
	if e.Status != domain.EntryStatusActive {
		t.Fatalf("status = %q, want active", e.Status)
	}
	if e.Source != domain.SourceUser {
		t.Fatalf("source = %q, want user", e.Source)
	}
}

func TestNormalizeEntry_IdempotentOnOwnOutput(t *testing.T) {
	taxed := false
	first := NormalizeEntry(RawEntry{
		StoreID:        "s1",
		StoreName:      "Aスーパー",
		NormalizedName: "キャベツ",
		Attributes:     domain.StringList{"群馬県産"},
		Price:          150,
		TaxIncluded:    &taxed,
		Date:           "2026-08-01",
		Region:         "東京都",
		UserID:         "u1",
	})

	second := NormalizeEntry(RawEntry{
		StoreID:        first.StoreID,
		StoreName:      first.StoreName,
		PlaceID:        first.PlaceID,
		RawProductName: first.RawProductName,
		NormalizedName: first.NormalizedName,
		Attributes:     first.Attributes,
		Price:          PriceValue(first.Price),
		TaxIncluded:    &first.TaxIncluded,
		Date:           first.Date,
		Region:         first.Region,
		UserID:         first.UserID,
		Status:         first.Status,
		Source:         first.Source,
		ImportID:       first.ImportID,
	})

	if len(second.Attributes) != len(first.Attributes) || second.Attributes[0] != first.Attributes[0] {
		t.Fatalf("attributes changed: %v vs %v", first.Attributes, second.Attributes)
	}
	first.Attributes, second.Attributes = nil, nil
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent:\n first = %+v\nsecond = %+v", first, second)
	}
}

func TestNormalizeEntry_RawNameFallsBackToNormalized(t *testing.T) {
	e := NormalizeEntry(RawEntry{NormalizedName: "牛乳"})
	if e.RawProductName != "牛乳" {
		t.Fatalf("rawProductName = %q, want fallback to normalizedName", e.RawProductName)
	}
}

func TestNormalizeEntry_HalfWidthKatakanaFolded(t *testing.T) {
	e := NormalizeEntry(RawEntry{RawProductName: "ﾎｳﾚﾝｿｳ"})
	if e.RawProductName != "ホウレンソウ" {
		t.Fatalf("rawProductName = %q, want folded ホウレンソウ", e.RawProductName)
	}
}

func TestNormalizeEntry_CurrencyInputIgnored(t *testing.T) {
	// Currency is not even accepted as input; verify the constant applies.
	e := NormalizeEntry(RawEntry{Price: 100})
	if e.Currency != "JPY" {
		t.Fatalf("currency = %q, want JPY", e.Currency)
	}
}

func TestNormalizeEntry_NegativePricePasses(t *testing.T) {
	e := NormalizeEntry(RawEntry{Price: -50})
	if e.Price != -50 {
		t.Fatalf("price = %d, want -50 (no rejection at this layer)", e.Price)
	}
}

func TestPriceValue_Coercion(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int64
	}{
		{"number", `150`, 150},
		{"numeric string", `"150"`, 150},
		{"float truncates", `149.9`, 149},
		{"garbage", `"abc"`, 0},
		{"empty string", `""`, 0},
		{"null", `null`, 0},
		{"negative", `-10`, -10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p PriceValue
			if err := json.Unmarshal([]byte(tc.in), &p); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.in, err)
			}
			if int64(p) != tc.want {
				t.Fatalf("price(%s) = %d, want %d", tc.in, p, tc.want)
			}
		})
	}
}

func TestRawEntry_DecodesLooseJSON(t *testing.T) {
	// Single attribute value and string price, as real clients send them.
	payload := `{"normalizedName":"キャベツ","price":"150","attributes":"群馬県産","storeId":"store-1"}`
	var raw RawEntry
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	e := NormalizeEntry(raw)
	if e.Price != 150 {
		t.Fatalf("price = %d, want 150", e.Price)
	}
	if len(e.Attributes) != 1 || e.Attributes[0] != "群馬県産" {
		t.Fatalf("attributes = %v, want single wrapped value", e.Attributes)
	}
}
