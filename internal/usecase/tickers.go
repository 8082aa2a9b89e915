package usecase

import (
	"regexp"
	"strings"
)

// b3Tickers is a static catalogue of the major B3 listings (IBOVESPA plus
// a handful of liquid names). A static list avoids scraping failures and
// API keys while covering the bulk of trading volume and news interest.
var b3Tickers = []string{
	"ABEV3", "ALPA4", "ALSO3", "ARZZ3", "ASAI3", "AZUL4", "B3SA3", "BBAS3", "BBDC3", "BBDC4",
	"BBSE3", "BEEF3", "BPAC11", "BPAN4", "BRAP4", "BRFS3", "BRKM5", "BROT3", "CASH3", "CCRO3",
	"CIEL3", "CMIG4", "CMIN3", "COGN3", "CPFE3", "CPLE6", "CRFB3", "CSAN3", "CSNA3", "CVCB3",
	"CYRE3", "DXCO3", "ECOR3", "EGIE3", "ELET3", "ELET6", "EMBR3", "ENBR3", "ENEV3", "ENGI11",
	"EQTL3", "EZTC3", "FLRY3", "GGBR4", "GOAU4", "GOLL4", "HAPV3", "HYPE3", "IGTI11", "IRBR3",
	"ITSA4", "ITUB4", "JBSS3", "KLBN11", "LREN3", "LWSA3", "MGLU3", "MRFG3", "MRVE3", "MULT3",
	"NTCO3", "PCAR3", "PETR3", "PETR4", "PETZ3", "POSI3", "PRIO3", "QUAL3", "RADL3", "RAIL3",
	"RAIZ4", "RDOR3", "RENT3", "RRRP3", "SANB11", "SBSP3", "SLCE3", "SMTO3", "SOMA3", "SUZB3",
	"TAEE11", "TIMS3", "TOTS3", "UGPA3", "USIM5", "VALE3", "VBBR3", "VIIA3", "VIVT3", "WEGE3",
	"YDUQ3",
}

// tickerKeywords maps tickers to common company names used in headlines,
// so "Petrobras anuncia dividendos" still resolves to PETR4 when the text
// never spells out the ticker.
var tickerKeywords = map[string][]string{
	"PETR4": {"Petrobras"},
	"VALE3": {"Vale"},
	"ITUB4": {"Itaú", "Itau Unibanco"},
	"BBDC4": {"Bradesco"},
	"ABEV3": {"Ambev"},
	"BBAS3": {"Banco do Brasil"},
	"WEGE3": {"WEG"},
	"MGLU3": {"Magalu", "Magazine Luiza"},
	"VIIA3": {"Casas Bahia"},
	"JBSS3": {"JBS"},
	"SUZB3": {"Suzano"},
	"GGBR4": {"Gerdau"},
	"CSNA3": {"Siderúrgica Nacional", "CSN"},
	"ITSA4": {"Itaúsa"},
	"HAPV3": {"Hapvida"},
	"EQTL3": {"Equatorial"},
	"RENT3": {"Localiza"},
	"RDOR3": {"Rede D'Or"},
	"LREN3": {"Lojas Renner"},
}

var b3Set = func() map[string]struct{} {
	set := make(map[string]struct{}, len(b3Tickers))
	for _, t := range b3Tickers {
		set[t] = struct{}{}
	}
	return set
}()

// tickerPattern matches B3 ticker symbols: four letters and a one or two
// digit class suffix (PETR4, ENGI11).
var tickerPattern = regexp.MustCompile(`\b[A-Z]{4}\d{1,2}\b`)

// KnownTicker reports whether t is in the B3 catalogue.
func KnownTicker(t string) bool {
	_, ok := b3Set[strings.ToUpper(strings.TrimSpace(t))]
	return ok
}

// ScanTickers extracts catalogue tickers mentioned in free text, either as
// literal symbols or as company-name keywords. Results are deduplicated and
// keep first-occurrence order for symbols, with keyword hits appended.
func ScanTickers(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	for _, match := range tickerPattern.FindAllString(text, -1) {
		if _, ok := b3Set[match]; !ok {
			continue
		}
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}
		out = append(out, match)
	}

	lower := strings.ToLower(text)
	for _, ticker := range b3Tickers {
		if _, dup := seen[ticker]; dup {
			continue
		}
		for _, kw := range tickerKeywords[ticker] {
			if strings.Contains(lower, strings.ToLower(kw)) {
				seen[ticker] = struct{}{}
				out = append(out, ticker)
				break
			}
		}
	}

	return out
}
