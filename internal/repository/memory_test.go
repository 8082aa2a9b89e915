package repository

import (
	"context"
	"fmt"
	"testing"

	"NotifyInvest/internal/domain/models"
)

func TestRegisterIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	created, err := reg.Register(ctx, "tok-a")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !created {
		t.Fatalf("first register should create")
	}

	created, err = reg.Register(ctx, "tok-a")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if created {
		t.Fatalf("re-register should not create")
	}

	devices, err := reg.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected one device, got %d", len(devices))
	}
}

func TestRegisterReactivates(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	if _, err := reg.Register(ctx, "tok-a"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.MarkInactive(ctx, "tok-a"); err != nil {
		t.Fatalf("mark inactive: %v", err)
	}
	d, err := reg.Get(ctx, "tok-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Active {
		t.Fatalf("expected inactive")
	}

	if _, err := reg.Register(ctx, "tok-a"); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	d, _ = reg.Get(ctx, "tok-a")
	if !d.Active {
		t.Fatalf("re-register should reactivate")
	}
}

func TestPreferenceDefaults(t *testing.T) {
	prefs := NewMemoryPrefs()

	p, err := prefs.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.MinBuyPct != 0 || p.MinSellPct != 0 {
		t.Fatalf("expected zero thresholds, got %d/%d", p.MinBuyPct, p.MinSellPct)
	}
	if len(p.Whitelist) != 0 || len(p.Blacklist) != 0 {
		t.Fatalf("expected empty lists")
	}
	if p.Whitelist == nil || p.Blacklist == nil {
		t.Fatalf("lists must be non-nil for JSON encoding")
	}
}

func TestPreferenceSaveNormalizes(t *testing.T) {
	ctx := context.Background()
	prefs := NewMemoryPrefs()

	err := prefs.Save(ctx, "tok-a", models.Preference{
		MinBuyPct:  -3,
		MinSellPct: 10,
		Whitelist:  []string{"petr4", "PETR4", "VALE3"},
		Blacklist:  []string{"vale3", "MGLU3"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	p, err := prefs.Get(ctx, "tok-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.MinBuyPct != 0 {
		t.Fatalf("negative threshold should clamp to 0, got %d", p.MinBuyPct)
	}
	if len(p.Whitelist) != 2 {
		t.Fatalf("whitelist should dedupe, got %v", p.Whitelist)
	}
	for _, banned := range p.Blacklist {
		for _, allowed := range p.Whitelist {
			if banned == allowed {
				t.Fatalf("ticker %s present in both lists", banned)
			}
		}
	}
	if len(p.Blacklist) != 1 || p.Blacklist[0] != "MGLU3" {
		t.Fatalf("conflicting ticker should stay whitelisted only, got %v", p.Blacklist)
	}
}

func TestPreferenceSaveFullReplace(t *testing.T) {
	ctx := context.Background()
	prefs := NewMemoryPrefs()

	_ = prefs.Save(ctx, "tok-a", models.Preference{MinBuyPct: 5, Whitelist: []string{"PETR4"}})
	_ = prefs.Save(ctx, "tok-a", models.Preference{MinSellPct: 2})

	p, _ := prefs.Get(ctx, "tok-a")
	if p.MinBuyPct != 0 || len(p.Whitelist) != 0 {
		t.Fatalf("save must replace, not merge: %+v", p)
	}
	if p.MinSellPct != 2 {
		t.Fatalf("unexpected min_sell %d", p.MinSellPct)
	}
}

func TestLedgerAppendOrder(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	for i := 1; i <= 5; i++ {
		sig := &models.Signal{Title: fmt.Sprintf("BUY TICK%d", i), Timestamp: int64(1700000000 + i)}
		seq, err := ledger.Append(ctx, sig)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if seq != uint64(i) {
			t.Fatalf("expected seq %d, got %d", i, seq)
		}
	}

	got, err := ledger.Query(ctx, 5, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 signals, got %d", len(got))
	}
	for i, s := range got {
		if s.Seq != uint64(i+1) {
			t.Fatalf("expected oldest-first order, got seq %d at index %d", s.Seq, i)
		}
	}
}

func TestLedgerLimitKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	for i := 1; i <= 10; i++ {
		_, _ = ledger.Append(ctx, &models.Signal{Title: fmt.Sprintf("signal %d", i), Timestamp: int64(i)})
	}

	got, err := ledger.Query(ctx, 3, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 signals, got %d", len(got))
	}
	if got[0].Seq != 8 || got[2].Seq != 10 {
		t.Fatalf("expected seqs 8..10 oldest-first, got %d..%d", got[0].Seq, got[2].Seq)
	}
}

func TestLedgerSearchCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	_, _ = ledger.Append(ctx, &models.Signal{Title: "SELL VALE3", Body: "queda esperada", Timestamp: 1})
	_, _ = ledger.Append(ctx, &models.Signal{Title: "Mercado", Body: "PETR4 subiu", Timestamp: 2})

	got, err := ledger.Query(ctx, 10, "petr4")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Body != "PETR4 subiu" {
		t.Fatalf("expected body match, got %v", got)
	}

	got, _ = ledger.Query(ctx, 10, "vale")
	if len(got) != 1 || got[0].Title != "SELL VALE3" {
		t.Fatalf("expected title match, got %v", got)
	}
}
