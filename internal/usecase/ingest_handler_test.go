package usecase

import (
	"context"
	"testing"

	domrepo "NotifyInvest/internal/domain/repository"
	"NotifyInvest/pkg/logger"
)

func newTestSignalHandler(t *testing.T) (*SignalHandler, *Dispatcher, domrepo.SignalLedger) {
	t.Helper()
	d, _, _, ledger := newTestDispatcher(t, &fakePusher{})
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewSignalHandler("signals", d, log), d, ledger
}

func TestSignalHandlerConvertsMillisecondTimestamps(t *testing.T) {
	ctx := context.Background()
	h, d, ledger := newTestSignalHandler(t)

	payload := []byte(`{"title":"BUY PETR4","body":"alta de 8%","timestamp":1738000000123}`)
	if err := h.Handle(ctx, payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	d.Wait()

	signals, err := ledger.Query(ctx, 10, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("expected one ledgered signal, got %d", len(signals))
	}
	if got := signals[0].Timestamp; got != 1738000000 {
		t.Fatalf("millisecond epoch must land as seconds, got %d", got)
	}
}

func TestSignalHandlerKeepsSecondTimestamps(t *testing.T) {
	ctx := context.Background()
	h, d, ledger := newTestSignalHandler(t)

	payload := []byte(`{"title":"SELL VALE3","body":"queda","timestamp":1738000000}`)
	if err := h.Handle(ctx, payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	d.Wait()

	signals, _ := ledger.Query(ctx, 10, "")
	if len(signals) != 1 || signals[0].Timestamp != 1738000000 {
		t.Fatalf("second epoch must pass through unchanged, got %+v", signals)
	}
}

func TestSignalHandlerReturnsDecodeError(t *testing.T) {
	ctx := context.Background()
	h, _, ledger := newTestSignalHandler(t)

	if err := h.Handle(ctx, []byte(`{not json`)); err == nil {
		t.Fatal("malformed payload must return an error for the consumer to retry")
	}
	signals, _ := ledger.Query(ctx, 10, "")
	if len(signals) != 0 {
		t.Fatalf("malformed payload must not reach the ledger, got %d", len(signals))
	}
}

func TestSignalHandlerRejectsInvalidSignal(t *testing.T) {
	ctx := context.Background()
	h, _, ledger := newTestSignalHandler(t)

	if err := h.Handle(ctx, []byte(`{"body":"sem título","timestamp":1738000000}`)); err == nil {
		t.Fatal("signal without a title must be rejected")
	}
	signals, _ := ledger.Query(ctx, 10, "")
	if len(signals) != 0 {
		t.Fatalf("invalid signal must not reach the ledger, got %d", len(signals))
	}
}
