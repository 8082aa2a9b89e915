package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"NotifyInvest/internal/domain/models"
)

// Delivery outcome reasons, also used as metric labels.
const (
	ReasonDeliver   = "delivered"
	ReasonBlacklist = "skipped_blacklist"
	ReasonWhitelist = "skipped_whitelist"
	ReasonThreshold = "skipped_threshold"
	ReasonFailed    = "failed"
)

// impactPattern captures the first integer percentage in a signal body,
// e.g. "alta de 8% esperada" -> 8.
var impactPattern = regexp.MustCompile(`(\d+)%`)

// ParseDirection classifies a signal by its title. BUY is checked before
// SELL, so a title carrying both reads as a buy. Matching is
// case-sensitive: "BUY" is a convention of the upstream feed, not prose.
func ParseDirection(title string) models.Direction {
	if strings.Contains(title, "BUY") {
		return models.DirectionBuy
	}
	if strings.Contains(title, "SELL") {
		return models.DirectionSell
	}
	return models.DirectionNeutral
}

// ParseImpact extracts the expected move percentage from the body. The
// second return reports whether a percentage was present at all; signals
// without one skip threshold checks entirely.
func ParseImpact(body string) (int, bool) {
	m := impactPattern.FindStringSubmatch(body)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExtractTickers resolves the tickers a signal refers to. A structured
// tickers field from the feed wins; otherwise title and body are scanned
// against the B3 catalogue.
func ExtractTickers(s *models.Signal) []string {
	if len(s.Tickers) > 0 {
		var out []string
		seen := make(map[string]struct{})
		for _, t := range s.Tickers {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
		return out
	}
	return ScanTickers(s.Title + "\n" + s.Body)
}

// Decision is the outcome of evaluating one signal against one device's
// preferences.
type Decision struct {
	Deliver bool
	Reason  string
}

// Evaluate applies a device's preferences to an analyzed signal.
//
// List filters run first: any blacklisted ticker vetoes delivery, and a
// non-empty whitelist requires at least one whitelisted ticker. Signals
// with no recognizable ticker bypass both lists. Threshold filters apply
// only when an impact percentage was parsed, against the threshold for
// the signal's direction.
func Evaluate(pref models.Preference, dir models.Direction, impact int, impactKnown bool, tickers []string) Decision {
	if len(tickers) > 0 {
		if pref.HasBlacklisted(tickers) {
			return Decision{Reason: ReasonBlacklist}
		}
		if len(pref.Whitelist) > 0 && !pref.HasWhitelisted(tickers) {
			return Decision{Reason: ReasonWhitelist}
		}
	}

	if impactKnown {
		switch dir {
		case models.DirectionBuy:
			if impact < pref.MinBuyPct {
				return Decision{Reason: ReasonThreshold}
			}
		case models.DirectionSell:
			if impact < pref.MinSellPct {
				return Decision{Reason: ReasonThreshold}
			}
		}
	}

	return Decision{Deliver: true, Reason: ReasonDeliver}
}
