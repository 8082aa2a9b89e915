package repository

import (
	"context"
	"errors"

	"NotifyInvest/internal/domain/models"
)

// ErrTokenGone is returned by a Pusher when the gateway reports the token
// as permanently invalid (e.g. Expo DeviceNotRegistered).
var ErrTokenGone = errors.New("push token no longer valid")

// DeviceRegistry stores push targets keyed by opaque token.
type DeviceRegistry interface {
	// Register upserts a token. Idempotent: re-registering bumps last-seen
	// and reactivates the device. Returns true when the token is new.
	Register(ctx context.Context, token string) (bool, error)
	Get(ctx context.Context, token string) (*models.Device, error)
	List(ctx context.Context) ([]*models.Device, error)
	MarkInactive(ctx context.Context, token string) error
	Health(ctx context.Context) error
	Close() error
}

// PreferenceStore keeps per-token delivery filters.
type PreferenceStore interface {
	// Get returns the stored preference or defaults when none exists.
	Get(ctx context.Context, token string) (models.Preference, error)
	// Save replaces the whole record after normalizing it. Atomic per token.
	Save(ctx context.Context, token string, pref models.Preference) error
}

// SignalLedger is the append-only signal log.
type SignalLedger interface {
	Init(ctx context.Context) error
	// Append assigns the next sequence number and returns it.
	Append(ctx context.Context, s *models.Signal) (uint64, error)
	// Query returns the most recent limit signals matching search,
	// oldest-first. Empty search matches everything.
	Query(ctx context.Context, limit int, search string) ([]*models.Signal, error)
	Health(ctx context.Context) error
	Close() error
}

// Pusher delivers one notification to one device token.
type Pusher interface {
	Push(ctx context.Context, token string, n *models.PushNotification) error
}

// Ingestor accepts a signal into the system. The direct implementation
// appends and dispatches inline; the kafka implementation publishes to the
// ingest topic for the consumer to pick up.
type Ingestor interface {
	Ingest(ctx context.Context, s *models.Signal) error
}

type Metrics interface {
	RecordDelivery(outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordActiveDevices(n int)
}
