package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"NotifyInvest/internal/domain/models"
	domrepo "NotifyInvest/internal/domain/repository"
	"NotifyInvest/internal/repository"
	"NotifyInvest/pkg/logger"
)

type fakePusher struct {
	mu     sync.Mutex
	pushed []string
	fail   map[string]error
}

func (p *fakePusher) Push(ctx context.Context, token string, n *models.PushNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.fail[token]; ok {
		return err
	}
	p.pushed = append(p.pushed, token)
	return nil
}

func (p *fakePusher) tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.pushed))
	copy(out, p.pushed)
	return out
}

type nopMetrics struct{}

func (nopMetrics) RecordDelivery(string)         {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) RecordActiveDevices(int)       {}

func newTestDispatcher(t *testing.T, pusher domrepo.Pusher) (*Dispatcher, domrepo.DeviceRegistry, domrepo.PreferenceStore, domrepo.SignalLedger) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	registry := repository.NewMemoryRegistry()
	prefs := repository.NewMemoryPrefs()
	ledger := repository.NewMemoryLedger()
	d := NewDispatcher(registry, prefs, ledger, pusher, nopMetrics{}, log,
		WithWorkers(4), WithPrefCacheTTL(0))
	return d, registry, prefs, ledger
}

func TestIngestAppendsAndDelivers(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{}
	d, registry, prefs, ledger := newTestDispatcher(t, pusher)

	_, _ = registry.Register(ctx, "tok-a")
	_ = prefs.Save(ctx, "tok-a", models.Preference{MinBuyPct: 5})

	err := d.Ingest(ctx, &models.Signal{
		Title:     "BUY PETR4",
		Body:      "alta de 8% esperada",
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	d.Wait()

	if got := pusher.tokens(); len(got) != 1 || got[0] != "tok-a" {
		t.Fatalf("expected delivery to tok-a, got %v", got)
	}
	signals, _ := ledger.Query(ctx, 10, "")
	if len(signals) != 1 {
		t.Fatalf("signal must be in the ledger")
	}
}

func TestIngestBelowThresholdStillLedgered(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{}
	d, registry, prefs, ledger := newTestDispatcher(t, pusher)

	_, _ = registry.Register(ctx, "tok-a")
	_ = prefs.Save(ctx, "tok-a", models.Preference{MinBuyPct: 5})

	err := d.Ingest(ctx, &models.Signal{
		Title:     "BUY PETR4",
		Body:      "alta de 3%",
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	d.Wait()

	if got := pusher.tokens(); len(got) != 0 {
		t.Fatalf("3%% below 5%% threshold must not deliver, got %v", got)
	}
	signals, _ := ledger.Query(ctx, 10, "")
	if len(signals) != 1 {
		t.Fatalf("skipped signals still land in the ledger")
	}
}

func TestIngestBlacklistedTickerNeverDelivered(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{}
	d, registry, prefs, _ := newTestDispatcher(t, pusher)

	_, _ = registry.Register(ctx, "tok-a")
	_ = prefs.Save(ctx, "tok-a", models.Preference{Blacklist: []string{"VALE3"}})

	err := d.Ingest(ctx, &models.Signal{
		Title:     "SELL VALE3",
		Body:      "queda de 20%",
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	d.Wait()

	if got := pusher.tokens(); len(got) != 0 {
		t.Fatalf("blacklisted ticker must never deliver, got %v", got)
	}
}

func TestIngestRejectsInvalidSignal(t *testing.T) {
	pusher := &fakePusher{}
	d, _, _, ledger := newTestDispatcher(t, pusher)

	if err := d.Ingest(context.Background(), &models.Signal{Body: "sem título", Timestamp: 1}); err == nil {
		t.Fatalf("missing title should be rejected")
	}
	if err := d.Ingest(context.Background(), &models.Signal{Title: "ok"}); err == nil {
		t.Fatalf("missing timestamp should be rejected")
	}
	signals, _ := ledger.Query(context.Background(), 10, "")
	if len(signals) != 0 {
		t.Fatalf("rejected signals must not reach the ledger")
	}
}

func TestPushFailureIsolatedPerDevice(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{fail: map[string]error{"tok-bad": context.DeadlineExceeded}}
	d, registry, _, _ := newTestDispatcher(t, pusher)

	_, _ = registry.Register(ctx, "tok-bad")
	_, _ = registry.Register(ctx, "tok-good")

	err := d.Ingest(ctx, &models.Signal{Title: "BUY PETR4", Body: "alta de 8%", Timestamp: time.Now().Unix()})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	d.Wait()

	if got := pusher.tokens(); len(got) != 1 || got[0] != "tok-good" {
		t.Fatalf("healthy device must still receive, got %v", got)
	}
}

func TestTokenGoneMarksInactive(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{fail: map[string]error{"tok-gone": domrepo.ErrTokenGone}}
	d, registry, _, _ := newTestDispatcher(t, pusher)

	_, _ = registry.Register(ctx, "tok-gone")

	err := d.Ingest(ctx, &models.Signal{Title: "BUY PETR4", Body: "alta de 8%", Timestamp: time.Now().Unix()})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	d.Wait()

	dev, err := registry.Get(ctx, "tok-gone")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dev.Active {
		t.Fatalf("gone token should be deactivated")
	}
}

func TestInactiveDeviceSkipped(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{}
	d, registry, _, _ := newTestDispatcher(t, pusher)

	_, _ = registry.Register(ctx, "tok-a")
	_ = registry.MarkInactive(ctx, "tok-a")

	err := d.Ingest(ctx, &models.Signal{Title: "BUY PETR4", Body: "alta de 8%", Timestamp: time.Now().Unix()})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	d.Wait()

	if got := pusher.tokens(); len(got) != 0 {
		t.Fatalf("inactive devices must be skipped, got %v", got)
	}
}
