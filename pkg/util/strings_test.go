package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 50); got != 50 {
		t.Fatalf("empty: got %d", got)
	}
	if got := ParseIntDefault("abc", 7); got != 7 {
		t.Fatalf("invalid: got %d", got)
	}
	if got := ParseIntDefault("120", 50); got != 120 {
		t.Fatalf("valid: got %d", got)
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("PETR4 subiu forte", "petr4") {
		t.Fatalf("expected match")
	}
	if ContainsFold("VALE3 caiu", "petr4") {
		t.Fatalf("unexpected match")
	}
	if !ContainsFold("anything", "") {
		t.Fatalf("empty substring should match")
	}
}
