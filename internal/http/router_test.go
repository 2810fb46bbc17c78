package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kakakulog/kakaku-backend/internal/config"
	"github.com/kakakulog/kakaku-backend/internal/repo"
	"github.com/kakakulog/kakaku-backend/internal/storage"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	images, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, images, nil, cfg)
	return r
}

func TestRouter_Health(t *testing.T) {
	r := newTestServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Error("missing http_requests_total in metrics exposition")
	}
}

func TestRouter_JSON404(t *testing.T) {
	r := newTestServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not JSON: %q", w.Body.String())
	}
	if resp["code"] != "not_found" {
		t.Errorf("code = %v", resp["code"])
	}
}

func TestRouter_AppConfigEndpoint(t *testing.T) {
	r := newTestServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// No key configured in the test environment.
	if resp["aiConfigured"] != false {
		t.Errorf("aiConfigured = %v", resp["aiConfigured"])
	}
}

func TestRouter_EndToEndEntryFlow(t *testing.T) {
	r := newTestServer(t)

	body := strings.NewReader(`{"normalizedName":"キャベツ","price":"150","storeId":"store-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	sw := httptest.NewRecorder()
	r.ServeHTTP(sw, httptest.NewRequest(http.MethodGet, "/api/v1/entries/search?name=キャベツ", nil))
	if sw.Code != http.StatusOK {
		t.Fatalf("search status = %d", sw.Code)
	}
	var entries []map[string]any
	if err := json.Unmarshal(sw.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode search: %v (%s)", err, sw.Body.String())
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0]["price"] != float64(150) {
		t.Errorf("price = %v", entries[0]["price"])
	}
}

func TestRouter_WritesRequireUser(t *testing.T) {
	r := newTestServer(t)

	for _, path := range []string{"/api/v1/entries", "/api/v1/imports"} {
		body := strings.NewReader(`{"normalizedName":"キャベツ"}`)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("POST %s status = %d, body = %s", path, w.Code, w.Body.String())
		}
		var resp map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["code"] != "auth_required" {
			t.Errorf("POST %s code = %v", path, resp["code"])
		}
	}
}
