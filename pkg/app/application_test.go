package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reservo/pkg/client"
	"reservo/pkg/config"
	"reservo/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type routesFunc func(*httprouter.Router)

func (f routesFunc) RegisterRoutes(r *httprouter.Router) { f(r) }

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	cfg := &config.Config{
		Port:              "0",
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1024,
		ShutdownTimeout:   time.Second,
		Log:               logger.Discard(),
		Client:            client.NewClient(),
	}

	health := routesFunc(func(r *httprouter.Router) {
		r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		})
	})
	api := routesFunc(func(r *httprouter.Router) {
		r.POST("/api/v1/slots/:slot_id/reservations", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusCreated)
		})
	})

	a := NewApplication(cfg)
	a.SetApp(health, api)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a
}

func post(h http.Handler, contentType, user string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/slots/s1/reservations", strings.NewReader(`{"date":"2026-10-20"}`))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-User-ID", user)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestApplication_Routing(t *testing.T) {
	h := newTestApplication(t).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("/health missing request id")
	}

	if got := post(h, "application/json", "alice"); got != http.StatusCreated {
		t.Errorf("POST status = %d, want 201", got)
	}
	if got := post(h, "text/plain", "alice"); got != http.StatusUnsupportedMediaType {
		t.Errorf("POST text/plain status = %d, want 415", got)
	}
}

func TestApplication_RateLimitPerUser(t *testing.T) {
	h := newTestApplication(t).Handler()

	for i := 0; i < 2; i++ {
		if got := post(h, "application/json", "alice"); got != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, got)
		}
	}
	if got := post(h, "application/json", "alice"); got != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", got)
	}
	if got := post(h, "application/json", "bob"); got != http.StatusCreated {
		t.Errorf("other user status = %d, want 201", got)
	}
}
