package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "NotifyInvest/internal/domain/models"
	"NotifyInvest/internal/repository"
	"NotifyInvest/internal/usecase"
	xlogger "NotifyInvest/pkg/logger"

	"github.com/labstack/echo/v4"
)

type okPusher struct{}

func (okPusher) Push(ctx context.Context, token string, n *models.PushNotification) error {
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordDelivery(string)         {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) RecordActiveDevices(int)       {}

type fixture struct {
	e          *echo.Echo
	handler    *NotifyHandler
	dispatcher *usecase.Dispatcher
	registry   *repository.MemoryRegistry
	prefs      *repository.MemoryPrefs
	ledger     *repository.MemoryLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	registry := repository.NewMemoryRegistry()
	prefs := repository.NewMemoryPrefs()
	ledger := repository.NewMemoryLedger()
	dispatcher := usecase.NewDispatcher(registry, prefs, ledger, okPusher{}, nopMetrics{}, log)
	handler := NewNotifyHandler(log, registry, prefs, ledger, usecase.NewDirectIngestor(dispatcher), dispatcher)

	e := echo.New()
	handler.RegisterRoutes(e)
	return &fixture{e: e, handler: handler, dispatcher: dispatcher, registry: registry, prefs: prefs, ledger: ledger}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestRegisterCreatesDeviceWithDefaults(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/register", `{"token":"tok-a"}`)
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusCreated || env.Status != http.StatusCreated {
		t.Fatalf("expected 201 on the wire and in envelope, got %d/%d", rec.Code, env.Status)
	}

	dev, err := f.registry.Get(context.Background(), "tok-a")
	if err != nil || dev == nil {
		t.Fatalf("device not stored: %v", err)
	}
	pref, _ := f.prefs.Get(context.Background(), "tok-a")
	if pref.MinBuyPct != 0 || len(pref.Whitelist) != 0 {
		t.Fatalf("expected default preference, got %+v", pref)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	f := newFixture(t)

	_ = f.do(t, http.MethodPost, "/register", `{"token":"tok-a"}`)
	rec := f.do(t, http.MethodPost, "/register", `{"token":"tok-a"}`)
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("re-register should report 200, got %d", env.Status)
	}

	devices, _ := f.registry.List(context.Background())
	if len(devices) != 1 {
		t.Fatalf("expected one device, got %d", len(devices))
	}
}

func TestRegisterRejectsMissingToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/register", `{}`)
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusBadRequest || env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 on the wire and in envelope, got %d/%d", rec.Code, env.Status)
	}
}

type failingPrefs struct {
	*repository.MemoryPrefs
}

func (failingPrefs) Save(ctx context.Context, token string, pref models.Preference) error {
	return errors.New("store unavailable")
}

func TestRegisterSurvivesPreferenceSeedFailure(t *testing.T) {
	f := newFixture(t)
	handler := NewNotifyHandler(f.handler.logger, f.registry, failingPrefs{f.prefs}, f.ledger,
		usecase.NewDirectIngestor(f.dispatcher), f.dispatcher)
	e := echo.New()
	handler.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"token":"tok-a"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("registration must survive a failed seed, got %d: %s", rec.Code, rec.Body.String())
	}
	dev, err := f.registry.Get(context.Background(), "tok-a")
	if err != nil || dev == nil {
		t.Fatalf("device not stored: %v", err)
	}
	pref, err := failingPrefs{f.prefs}.Get(context.Background(), "tok-a")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if pref.Whitelist == nil || pref.Blacklist == nil {
		t.Fatalf("reads must fall back to defaults, got %+v", pref)
	}
}

func TestSignalsFeedOldestFirstWithLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, _ = f.ledger.Append(ctx, &models.Signal{
			Title:     "BUY PETR4",
			Body:      "sinal",
			Timestamp: time.Now().Unix(),
		})
	}

	rec := f.do(t, http.MethodGet, "/signals?limit=3", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", env.Status)
	}
	var feed struct {
		Signals []models.Signal `json:"signals"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &feed); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if feed.Count != 3 || len(feed.Signals) != 3 {
		t.Fatalf("expected 3 signals, got %+v", feed)
	}
}

func TestSignalsRejectsOversizedLimit(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/signals?limit=501", "")
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusBadRequest || env.Status != http.StatusBadRequest {
		t.Fatalf("limit above 500 must be rejected with 400, got %d/%d", rec.Code, env.Status)
	}
}

func TestSignalsSearchFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.ledger.Append(ctx, &models.Signal{Title: "BUY PETR4", Body: "alta", Timestamp: 1})
	_, _ = f.ledger.Append(ctx, &models.Signal{Title: "SELL VALE3", Body: "queda", Timestamp: 2})

	rec := f.do(t, http.MethodGet, "/signals?search=vale", "")
	env := decodeEnvelope(t, rec)
	var feed struct {
		Signals []models.Signal `json:"signals"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &feed); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if feed.Count != 1 || feed.Signals[0].Title != "SELL VALE3" {
		t.Fatalf("expected only VALE3 signal, got %+v", feed)
	}
}

func TestPreferencesDefaultsForUnknownToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/preferences?token=never-seen", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", env.Status)
	}
	var pref models.PreferenceResponse
	if err := json.Unmarshal(env.Data, &pref); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pref.MinBuy != 0 || pref.Whitelist == nil || pref.Blacklist == nil {
		t.Fatalf("expected defaults with non-nil lists, got %+v", pref)
	}
}

func TestSavePreferencesNormalizes(t *testing.T) {
	f := newFixture(t)

	body := `{"token":"tok-a","min_buy":-2,"min_sell":4,"whitelist":["petr4","PETR4"],"blacklist":["petr4","VALE3"]}`
	rec := f.do(t, http.MethodPost, "/preferences", body)
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", env.Status, rec.Body.String())
	}
	var pref models.PreferenceResponse
	if err := json.Unmarshal(env.Data, &pref); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pref.MinBuy != 0 {
		t.Fatalf("negative threshold must clamp, got %d", pref.MinBuy)
	}
	if len(pref.Whitelist) != 1 || pref.Whitelist[0] != "PETR4" {
		t.Fatalf("whitelist not normalized: %v", pref.Whitelist)
	}
	if len(pref.Blacklist) != 1 || pref.Blacklist[0] != "VALE3" {
		t.Fatalf("conflict must resolve to whitelist: %v", pref.Blacklist)
	}
}

func TestIngestAppendsToLedger(t *testing.T) {
	f := newFixture(t)

	body := `{"title":"BUY PETR4","body":"alta de 8%","timestamp":1738000000}`
	rec := f.do(t, http.MethodPost, "/ingest", body)
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusCreated || env.Status != http.StatusCreated {
		t.Fatalf("expected 201 on the wire and in envelope, got %d/%d: %s", rec.Code, env.Status, rec.Body.String())
	}
	f.dispatcher.Wait()

	signals, _ := f.ledger.Query(context.Background(), 10, "")
	if len(signals) != 1 {
		t.Fatalf("signal not in ledger")
	}
}

func TestIngestRejectsMissingFields(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/ingest", `{"body":"sem título"}`)
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusBadRequest || env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 on the wire and in envelope, got %d/%d", rec.Code, env.Status)
	}
}

type failingLedger struct {
	*repository.MemoryLedger
}

func (failingLedger) Append(ctx context.Context, s *models.Signal) (uint64, error) {
	return 0, errors.New("ledger unavailable")
}

func TestIngestLedgerFailureIsServerError(t *testing.T) {
	f := newFixture(t)
	log := f.handler.logger
	ledger := failingLedger{f.ledger}
	dispatcher := usecase.NewDispatcher(f.registry, f.prefs, ledger, okPusher{}, nopMetrics{}, log)
	handler := NewNotifyHandler(log, f.registry, f.prefs, ledger,
		usecase.NewDirectIngestor(dispatcher), dispatcher)
	e := echo.New()
	handler.RegisterRoutes(e)

	body := `{"title":"BUY PETR4","body":"alta de 8%","timestamp":1738000000}`
	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("append failure must surface as 500, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "online" || body["service"] != "NotifyInvest API" {
		t.Fatalf("unexpected status payload: %v", body)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
