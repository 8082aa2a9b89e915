package models

import "strings"

// Preference holds per-device delivery filters. Thresholds are whole
// percent; whitelist and blacklist are mutually exclusive ticker sets.
type Preference struct {
	MinBuyPct  int      `json:"min_buy"`
	MinSellPct int      `json:"min_sell"`
	Whitelist  []string `json:"whitelist"`
	Blacklist  []string `json:"blacklist"`
}

// DefaultPreference is what an unregistered or fresh token gets.
func DefaultPreference() Preference {
	return Preference{Whitelist: []string{}, Blacklist: []string{}}
}

// Normalize enforces the Preference invariants in place: negative
// thresholds clamp to 0, tickers are uppercased and deduplicated, and a
// ticker present in both lists stays in the whitelist only.
func (p *Preference) Normalize() {
	if p.MinBuyPct < 0 {
		p.MinBuyPct = 0
	}
	if p.MinSellPct < 0 {
		p.MinSellPct = 0
	}
	p.Whitelist = cleanTickers(p.Whitelist, nil)
	p.Blacklist = cleanTickers(p.Blacklist, p.Whitelist)
}

// HasWhitelisted reports whether any of the tickers is whitelisted.
func (p *Preference) HasWhitelisted(tickers []string) bool {
	return containsAny(p.Whitelist, tickers)
}

// HasBlacklisted reports whether any of the tickers is blacklisted.
func (p *Preference) HasBlacklisted(tickers []string) bool {
	return containsAny(p.Blacklist, tickers)
}

func cleanTickers(in, exclude []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		if contains(exclude, t) {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(list, candidates []string) bool {
	for _, c := range candidates {
		if contains(list, c) {
			return true
		}
	}
	return false
}
