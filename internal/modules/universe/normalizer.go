package universe

import "strings"

// tickerAliases maps short-hand symbols to their exchange-qualified form.
// Unmapped tickers pass through unchanged.
var tickerAliases = map[string]string{
	"WCH":  "WCH.DE",
	"LVMH": "MC.PA",
}

// NormalizeTicker trims, upper-cases and alias-expands a single raw ticker
func NormalizeTicker(raw string) string {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if alias, ok := tickerAliases[ticker]; ok {
		return alias
	}
	return ticker
}

// ParseTickers splits a comma-separated ticker list into normalized tickers.
// Empties are dropped; duplicates and input order are preserved. Market
// existence is not validated here, unresolved tickers surface as fetch
// failures downstream.
func ParseTickers(raw string) []string {
	var tickers []string
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		tickers = append(tickers, NormalizeTicker(part))
	}
	return tickers
}

// LooksLikeWKN reports whether an identifier has the shape of a German WKN
// (six alphanumeric characters, no exchange suffix). WKNs are not resolvable
// by the market-data provider and are rejected at the input boundary.
func LooksLikeWKN(identifier string) bool {
	if len(identifier) != 6 || strings.Contains(identifier, ".") {
		return false
	}
	return isAlphanumeric(identifier)
}

// LooksLikeISIN reports whether an identifier has the shape of an ISIN
// (two-letter country code followed by ten alphanumeric characters).
func LooksLikeISIN(identifier string) bool {
	if len(identifier) != 12 {
		return false
	}
	for _, r := range identifier[:2] {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return isAlphanumeric(identifier[2:])
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return len(s) > 0
}
