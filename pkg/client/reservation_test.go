package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reservo/pkg/logger"
	"reservo/pkg/model"
)

func TestReservationClient_Create(t *testing.T) {
	var gotPath, gotUser, gotKey, gotContentType string
	var gotBody model.CreateReservationBody

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser = r.Header.Get(HeaderUserID)
		gotKey = r.Header.Get(HeaderIdempotencyKey)
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"r-1","slot_id":"A 1","user_id":"u-7","date":"2026-11-02","status":"pending"}}`))
	}))
	defer server.Close()

	c := NewReservationClient(server.URL, time.Second, logger.Discard())
	res, err := c.Create(context.Background(), "A 1", "u-7", "2026-11-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/v1/slots/A 1/reservations" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUser != "u-7" {
		t.Errorf("user header = %q", gotUser)
	}
	if gotKey == "" {
		t.Errorf("expected an idempotency key")
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotBody.Date != "2026-11-02" {
		t.Errorf("body date = %q", gotBody.Date)
	}
	if res.ID != "r-1" || res.Date != "2026-11-02" {
		t.Errorf("unexpected reservation %+v", res)
	}
}

func TestReservationClient_Create_SuccessWithoutWrapper(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "201 empty body", status: http.StatusCreated},
		{name: "204 no content", status: http.StatusNoContent},
		{name: "200 plain text", status: http.StatusOK, body: "accepted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			}))
			defer server.Close()

			c := NewReservationClient(server.URL, time.Second, logger.Discard())
			res, err := c.Create(context.Background(), "A1", "u-7", "2026-11-02")
			if err != nil {
				t.Fatalf("Create() error = %v, want success", err)
			}
			if res == nil || res.SlotID != "A1" || res.Date != "2026-11-02" {
				t.Errorf("unexpected reservation %+v", res)
			}
		})
	}
}

func TestReservationClient_Create_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"Invalid request body"}`, message: "Invalid request body"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"missing user"}`, message: "missing user"},
		{name: "conflict", status: http.StatusConflict, body: `{"message":"duplicate"}`, message: "duplicate"},
		{name: "plain text", status: http.StatusBadGateway, body: "upstream down", message: "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewReservationClient(server.URL, time.Second, logger.Discard())
			_, err := c.Create(context.Background(), "A1", "u-1", "2026-11-02")

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %T: %v", err, err)
			}
			if statusErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", statusErr.StatusCode, tt.status)
			}
			if statusErr.Message != tt.message {
				t.Errorf("message = %q, want %q", statusErr.Message, tt.message)
			}
			if code, ok := StatusCode(err); !ok || code != tt.status {
				t.Errorf("StatusCode() = %d, %v", code, ok)
			}
		})
	}
}

func TestReservationClient_Create_Cancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c := NewReservationClient(server.URL, 5*time.Second, logger.Discard())
	_, err := c.Create(ctx, "A1", "u-1", "2026-11-02")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, ok := StatusCode(err); ok {
		t.Errorf("a cancelled request carries no status")
	}
}

func TestReservationClient_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderUserID) != "u-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("limit") != "5" || r.URL.Query().Get("offset") != "10" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"r-1","slot_id":"A1","date":"2026-11-02"},{"id":"r-2","slot_id":"B2","date":"2026-11-03"}],"total_count":12,"limit":5,"offset":10}`))
	}))
	defer server.Close()

	c := NewReservationClient(server.URL, time.Second, logger.Discard())
	list, meta, err := c.List(context.Background(), "u-1", 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[1].SlotID != "B2" {
		t.Errorf("unexpected list %+v", list)
	}
	if meta.TotalCount != 12 || meta.Limit != 5 || meta.Offset != 10 {
		t.Errorf("unexpected metadata %+v", meta)
	}

	_, _, err = c.List(context.Background(), "someone-else", 5, 10)
	if code, _ := StatusCode(err); code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHttpClient_WaitForHealthy(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewHttpClient(server.URL+"/", time.Second)
	if err := c.WaitForHealthy(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHttpClient_WaitForHealthy_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewHttpClient(server.URL, time.Second)
	err := c.WaitForHealthy(context.Background(), 100*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "did not become healthy") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestStatusError_Error(t *testing.T) {
	if got := (&StatusError{StatusCode: 409}).Error(); got != "booking API responded with status 409" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&StatusError{StatusCode: 400, Message: "bad"}).Error(); got != "booking API responded with status 400: bad" {
		t.Errorf("Error() = %q", got)
	}
}
