package usecase

import (
	"reflect"
	"testing"

	"NotifyInvest/internal/domain/models"
)

func TestParseDirection(t *testing.T) {
	cases := []struct {
		title string
		want  models.Direction
	}{
		{"BUY PETR4 - alta esperada", models.DirectionBuy},
		{"SELL VALE3", models.DirectionSell},
		{"BUY antes de SELL", models.DirectionBuy},
		{"Mercado fecha estável", models.DirectionNeutral},
		{"buy em minúsculas não conta", models.DirectionNeutral},
	}
	for _, tc := range cases {
		if got := ParseDirection(tc.title); got != tc.want {
			t.Errorf("ParseDirection(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}

func TestParseImpact(t *testing.T) {
	impact, ok := ParseImpact("alta de 8% esperada para o pregão")
	if !ok || impact != 8 {
		t.Fatalf("got %d/%v, want 8/true", impact, ok)
	}

	impact, ok = ParseImpact("queda entre 12% e 15%")
	if !ok || impact != 12 {
		t.Fatalf("first percentage wins: got %d", impact)
	}

	if _, ok := ParseImpact("sem percentual no texto"); ok {
		t.Fatalf("expected no impact")
	}

	if impact, ok := ParseImpact("ruído de 1234567890123456789012345% no corpo"); ok {
		t.Fatalf("out-of-range percentage must read as no impact, got %d", impact)
	}
}

func TestExtractTickersStructuredFieldWins(t *testing.T) {
	s := &models.Signal{
		Title:   "Mercado reage a VALE3",
		Body:    "texto menciona PETR4",
		Tickers: []string{" mglu3 ", "MGLU3", "WEGE3"},
	}
	got := ExtractTickers(s)
	want := []string{"MGLU3", "WEGE3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractTickersScansText(t *testing.T) {
	s := &models.Signal{
		Title: "BUY PETR4",
		Body:  "Petrobras sobe junto com VALE3. XXXX9 não é catálogo.",
	}
	got := ExtractTickers(s)
	if !reflect.DeepEqual(got, []string{"PETR4", "VALE3"}) {
		t.Fatalf("got %v", got)
	}
}

func TestScanTickersKeywordFallback(t *testing.T) {
	got := ScanTickers("Magazine Luiza anuncia resultados acima do esperado")
	if !reflect.DeepEqual(got, []string{"MGLU3"}) {
		t.Fatalf("got %v", got)
	}
}

func TestEvaluateThresholds(t *testing.T) {
	pref := models.Preference{MinBuyPct: 5, MinSellPct: 3}

	d := Evaluate(pref, models.DirectionBuy, 8, true, nil)
	if !d.Deliver {
		t.Fatalf("8%% >= 5%% should deliver, got %s", d.Reason)
	}

	d = Evaluate(pref, models.DirectionBuy, 3, true, nil)
	if d.Deliver || d.Reason != ReasonThreshold {
		t.Fatalf("3%% < 5%% should skip on threshold, got %+v", d)
	}

	// Neutral signals ignore both thresholds.
	d = Evaluate(pref, models.DirectionNeutral, 1, true, nil)
	if !d.Deliver {
		t.Fatalf("neutral signal should deliver, got %s", d.Reason)
	}

	// No percentage in the body means thresholds do not apply.
	d = Evaluate(pref, models.DirectionBuy, 0, false, nil)
	if !d.Deliver {
		t.Fatalf("unknown impact should deliver, got %s", d.Reason)
	}
}

func TestEvaluateLists(t *testing.T) {
	pref := models.Preference{Blacklist: []string{"VALE3"}}
	d := Evaluate(pref, models.DirectionBuy, 10, true, []string{"PETR4", "VALE3"})
	if d.Deliver || d.Reason != ReasonBlacklist {
		t.Fatalf("any blacklisted ticker vetoes, got %+v", d)
	}

	pref = models.Preference{Whitelist: []string{"PETR4"}}
	d = Evaluate(pref, models.DirectionBuy, 10, true, []string{"MGLU3"})
	if d.Deliver || d.Reason != ReasonWhitelist {
		t.Fatalf("whitelist miss should skip, got %+v", d)
	}
	d = Evaluate(pref, models.DirectionBuy, 10, true, []string{"MGLU3", "PETR4"})
	if !d.Deliver {
		t.Fatalf("one whitelisted ticker suffices, got %s", d.Reason)
	}

	// Signals without a recognizable ticker bypass both lists.
	d = Evaluate(pref, models.DirectionNeutral, 0, false, nil)
	if !d.Deliver {
		t.Fatalf("no-ticker signal should bypass lists, got %s", d.Reason)
	}
}

func TestEvaluateListsRunBeforeThresholds(t *testing.T) {
	pref := models.Preference{MinBuyPct: 5, Blacklist: []string{"PETR4"}}
	d := Evaluate(pref, models.DirectionBuy, 2, true, []string{"PETR4"})
	if d.Reason != ReasonBlacklist {
		t.Fatalf("blacklist should win over threshold, got %s", d.Reason)
	}
}
