package repository

import (
	"context"
	"sync"
	"time"

	"NotifyInvest/internal/domain/models"
	"NotifyInvest/pkg/util"
)

// MemoryRegistry implements DeviceRegistry in process memory. Used for
// tests and as the 'memory' store backend.
type MemoryRegistry struct {
	mu      sync.RWMutex
	devices map[string]*models.Device
	now     func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		devices: make(map[string]*models.Device),
		now:     time.Now,
	}
}

func (s *MemoryRegistry) Register(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	if d, ok := s.devices[token]; ok {
		d.LastSeen = now
		d.Active = true
		return false, nil
	}
	s.devices[token] = &models.Device{
		Token:        token,
		RegisteredAt: now,
		LastSeen:     now,
		Active:       true,
	}
	return true, nil
}

func (s *MemoryRegistry) Get(_ context.Context, token string) (*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[token]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryRegistry) List(_ context.Context) ([]*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Device, 0, len(s.devices))
	for _, d := range s.devices {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryRegistry) MarkInactive(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.devices[token]; ok {
		d.Active = false
	}
	return nil
}

func (s *MemoryRegistry) Health(context.Context) error { return nil }
func (s *MemoryRegistry) Close() error                 { return nil }

// MemoryPrefs implements PreferenceStore in process memory.
type MemoryPrefs struct {
	mu    sync.RWMutex
	prefs map[string]models.Preference
}

func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{prefs: make(map[string]models.Preference)}
}

func (s *MemoryPrefs) Get(_ context.Context, token string) (models.Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.prefs[token]; ok {
		return p, nil
	}
	return models.DefaultPreference(), nil
}

func (s *MemoryPrefs) Save(_ context.Context, token string, pref models.Preference) error {
	pref.Normalize()
	s.mu.Lock()
	s.prefs[token] = pref
	s.mu.Unlock()
	return nil
}

// MemoryLedger implements SignalLedger over a slice. Sequence assignment is
// serialized by the ledger mutex.
type MemoryLedger struct {
	mu      sync.RWMutex
	signals []*models.Signal
	seq     uint64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Init(context.Context) error { return nil }

func (l *MemoryLedger) Append(_ context.Context, sig *models.Signal) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	cp := *sig
	cp.Seq = l.seq
	l.signals = append(l.signals, &cp)
	return cp.Seq, nil
}

func (l *MemoryLedger) Query(_ context.Context, limit int, search string) ([]*models.Signal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := l.signals
	if search != "" {
		matched = make([]*models.Signal, 0, len(l.signals))
		for _, s := range l.signals {
			if util.ContainsFold(s.Title, search) || util.ContainsFold(s.Body, search) {
				matched = append(matched, s)
			}
		}
	}

	// Most recent limit entries, kept oldest-first.
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	out := make([]*models.Signal, len(matched))
	for i, s := range matched {
		cp := *s
		out[i] = &cp
	}
	return out, nil
}

func (l *MemoryLedger) Health(context.Context) error { return nil }
func (l *MemoryLedger) Close() error                 { return nil }
