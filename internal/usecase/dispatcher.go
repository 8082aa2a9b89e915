package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"NotifyInvest/internal/domain/models"
	domrepo "NotifyInvest/internal/domain/repository"
	"NotifyInvest/internal/service/cache"
	"NotifyInvest/pkg/logger"
)

const dispatchTimeout = 2 * time.Minute

// Dispatcher is the matching and fan-out engine. Ingest persists a signal
// to the ledger and then evaluates it against every registered device in
// the background.
type Dispatcher struct {
	registry domrepo.DeviceRegistry
	prefs    domrepo.PreferenceStore
	ledger   domrepo.SignalLedger
	pusher   domrepo.Pusher
	metrics  domrepo.Metrics
	log      *logger.Logger

	workers   int
	prefCache *cache.TTLCache
	prefTTL   time.Duration

	wg sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

// WithWorkers bounds the number of concurrent push deliveries per signal.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithPrefCacheTTL caches preference reads on the dispatch hot path.
func WithPrefCacheTTL(ttl time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.prefTTL = ttl
	}
}

func NewDispatcher(
	registry domrepo.DeviceRegistry,
	prefs domrepo.PreferenceStore,
	ledger domrepo.SignalLedger,
	pusher domrepo.Pusher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		prefs:     prefs,
		ledger:    ledger,
		pusher:    pusher,
		metrics:   metrics,
		log:       log,
		workers:   8,
		prefCache: cache.NewTTLCache(),
		prefTTL:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Ingest validates and persists a signal, then fans it out asynchronously.
// The ledger append is the durability boundary: if it fails the signal is
// rejected and no device sees it. Once Ingest returns nil the signal is
// queryable via the ledger regardless of delivery outcomes.
func (d *Dispatcher) Ingest(ctx context.Context, s *models.Signal) error {
	if s == nil || s.Title == "" {
		return fmt.Errorf("signal title is required")
	}
	if s.Timestamp <= 0 {
		return fmt.Errorf("signal timestamp is required")
	}

	start := time.Now()
	seq, err := d.ledger.Append(ctx, s)
	if err != nil {
		d.metrics.RecordError("ledger_append")
		return fmt.Errorf("append signal: %w", err)
	}
	d.metrics.RecordLatency("ledger_append", time.Since(start).Seconds())

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		bg, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		d.Dispatch(bg, s)
	}()

	d.log.Info("signal ingested",
		logger.Int64("seq", int64(seq)),
		logger.String("title", s.Title))
	return nil
}

// Dispatch evaluates one signal against all registered devices and pushes
// to the ones whose preferences match. Devices are isolated from each
// other: one failing push never blocks or fails the rest.
func (d *Dispatcher) Dispatch(ctx context.Context, s *models.Signal) {
	dir := ParseDirection(s.Title)
	impact, impactKnown := ParseImpact(s.Body)
	tickers := ExtractTickers(s)

	devices, err := d.registry.List(ctx)
	if err != nil {
		d.metrics.RecordError("registry_list")
		d.log.Error("list devices", logger.Error(err))
		return
	}

	active := 0
	for _, dev := range devices {
		if dev.Active {
			active++
		}
	}
	d.metrics.RecordActiveDevices(active)

	notification := s.NotificationFor()
	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup
	for _, dev := range devices {
		if !dev.Active {
			continue
		}
		dev := dev
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			outcome := d.deliver(ctx, dev.Token, notification, dir, impact, impactKnown, tickers)
			d.metrics.RecordDelivery(outcome)
		}()
	}
	wg.Wait()

	d.log.Info("signal dispatched",
		logger.String("direction", dir.String()),
		logger.Strings("tickers", tickers),
		logger.Int("devices", active))
}

func (d *Dispatcher) deliver(ctx context.Context, token string, n *models.PushNotification, dir models.Direction, impact int, impactKnown bool, tickers []string) string {
	pref, err := d.preference(ctx, token)
	if err != nil {
		d.metrics.RecordError("pref_get")
		d.log.Error("load preference", logger.String("token", token), logger.Error(err))
		return ReasonFailed
	}

	decision := Evaluate(pref, dir, impact, impactKnown, tickers)
	if !decision.Deliver {
		return decision.Reason
	}

	start := time.Now()
	err = d.pusher.Push(ctx, token, n)
	d.metrics.RecordLatency("push", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, domrepo.ErrTokenGone) {
			if markErr := d.registry.MarkInactive(ctx, token); markErr != nil {
				d.log.Error("mark inactive", logger.String("token", token), logger.Error(markErr))
			} else {
				d.log.Info("device deactivated", logger.String("token", token))
			}
			return ReasonFailed
		}
		d.metrics.RecordError("push")
		d.log.Error("push", logger.String("token", token), logger.Error(err))
		return ReasonFailed
	}
	return ReasonDeliver
}

func (d *Dispatcher) preference(ctx context.Context, token string) (models.Preference, error) {
	if d.prefTTL > 0 {
		if v, ok := d.prefCache.Get(token); ok {
			if pref, ok := v.(models.Preference); ok {
				return pref, nil
			}
		}
	}
	pref, err := d.prefs.Get(ctx, token)
	if err != nil {
		return models.Preference{}, err
	}
	if d.prefTTL > 0 {
		d.prefCache.Set(token, pref, d.prefTTL)
	}
	return pref, nil
}

// InvalidatePreference drops a cached preference after a save so the next
// dispatch sees the new filters immediately.
func (d *Dispatcher) InvalidatePreference(token string) {
	d.prefCache.Delete(token)
}

// Wait blocks until in-flight dispatches finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
