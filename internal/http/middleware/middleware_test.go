package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	r := newEngine()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing generated X-Request-ID")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-123")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "rid-123" {
		t.Errorf("X-Request-ID = %q, want propagated rid-123", got)
	}
}

func TestIdentity_SetsContextUserID(t *testing.T) {
	r := newEngine()
	r.Use(Identity())
	r.GET("/", func(c *gin.Context) {
		uid, _ := c.Get("userID")
		c.String(http.StatusOK, "%v", uid)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, " u1 ")
	r.ServeHTTP(w, req)
	if w.Body.String() != "u1" {
		t.Errorf("userID = %q, want u1", w.Body.String())
	}
}

func TestRecovery_ConvertsPanicToJSON500(t *testing.T) {
	r := newEngine()
	r.Use(RequestID(), Logger(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "internal_error") {
		t.Errorf("body = %q, want internal_error envelope", body)
	}
}

func TestRateLimiter_Enforces429(t *testing.T) {
	r := newEngine()
	rl := NewRateLimiter(0, 2, KeyByUserOrIP())
	r.Use(RequestID(), rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Burst of 2 allowed, third rejected (rps=0 so no refill).
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_SeparateBucketsPerUser(t *testing.T) {
	r := newEngine()
	rl := NewRateLimiter(0, 1, KeyByUserOrIP())
	r.Use(Identity(), rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(uid string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserID, uid)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if got := do("u1"); got != http.StatusOK {
		t.Fatalf("u1 first: %d", got)
	}
	if got := do("u1"); got != http.StatusTooManyRequests {
		t.Fatalf("u1 second: %d, want 429", got)
	}
	// A different user still has a full bucket.
	if got := do("u2"); got != http.StatusOK {
		t.Fatalf("u2 first: %d", got)
	}
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := newEngine()
	r.Use(SecurityHeaders(SecurityOptions{EnablePolicy: true}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set for plain HTTP request")
	}
}
