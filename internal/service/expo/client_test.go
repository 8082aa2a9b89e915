package expo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"NotifyInvest/internal/domain/models"
	domrepo "NotifyInvest/internal/domain/repository"
	"NotifyInvest/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestPushSendsExpoPayload(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"status": "ok"}})
	}))
	defer srv.Close()

	c := NewClient(testLogger(t), WithURL(srv.URL))
	n := &models.PushNotification{
		Title: "BUY PETR4",
		Body:  "alta de 8%",
		Data:  models.SignalData{URL: "https://example.com/n/1", SourceType: models.SourceFato},
	}
	if err := c.Push(context.Background(), "ExponentPushToken[abc]", n); err != nil {
		t.Fatalf("push: %v", err)
	}

	if got.To != "ExponentPushToken[abc]" {
		t.Fatalf("unexpected to: %s", got.To)
	}
	if got.Sound != "default" {
		t.Fatalf("expected default sound, got %q", got.Sound)
	}
	if got.Title != "BUY PETR4" || got.Data.URL != "https://example.com/n/1" {
		t.Fatalf("payload mismatch: %+v", got)
	}
}

func TestPushMockTokenSkipsGateway(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(testLogger(t), WithURL(srv.URL))
	err := c.Push(context.Background(), MockToken, &models.PushNotification{Title: "t"})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if called {
		t.Fatalf("mock token must not reach the gateway")
	}
}

func TestPushDeviceNotRegistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"status":  "error",
			"message": "device gone",
			"details": map[string]any{"error": "DeviceNotRegistered"},
		}})
	}))
	defer srv.Close()

	c := NewClient(testLogger(t), WithURL(srv.URL))
	err := c.Push(context.Background(), "ExponentPushToken[gone]", &models.PushNotification{Title: "t"})
	if !errors.Is(err, domrepo.ErrTokenGone) {
		t.Fatalf("expected ErrTokenGone, got %v", err)
	}
}

func TestPushTicketError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"status":  "error",
			"message": "message too big",
		}})
	}))
	defer srv.Close()

	c := NewClient(testLogger(t), WithURL(srv.URL))
	err := c.Push(context.Background(), "ExponentPushToken[abc]", &models.PushNotification{Title: "t"})
	if err == nil || errors.Is(err, domrepo.ErrTokenGone) {
		t.Fatalf("expected generic ticket error, got %v", err)
	}
}
