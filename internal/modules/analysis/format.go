package analysis

import (
	"fmt"
	"math"
	"strings"
)

// NotAvailable marks a missing value in rendered output
const NotAvailable = "N/A"

// flatThreshold is the magnitude below which a change renders as the
// canonical flat value, avoiding near-zero sign flicker.
const flatThreshold = 0.05

// DisplayRecord is the rendered form of a ResolvedRecord
type DisplayRecord struct {
	Name      string `json:"name"`
	Symbol    string `json:"ticker"`
	Price     string `json:"price"`
	Dividend  string `json:"dividend"`
	Yield     string `json:"yield"`
	Changes   string `json:"changes"` // "day/week/month/year"
	Timestamp string `json:"timestamp"`
	Override  bool   `json:"override"`
}

// Display renders a record for presentation in the given target currency
func (r ResolvedRecord) Display(targetCurrency string) DisplayRecord {
	return DisplayRecord{
		Name:      r.Name,
		Symbol:    r.Symbol,
		Price:     FormatAmount(targetCurrency, r.Price),
		Dividend:  FormatAmount(targetCurrency, r.Dividend),
		Yield:     FormatYield(r.YieldPct),
		Changes:   FormatChanges(r.Changes),
		Timestamp: r.Timestamp,
		Override:  r.Override,
	}
}

// FormatChange renders one percentage change: decimal comma, one decimal
// place, no "+" prefix, magnitudes under 0.05 normalized to "0,0".
func FormatChange(pct *float64) string {
	if pct == nil {
		return NotAvailable
	}
	if math.Abs(*pct) < flatThreshold {
		return "0,0"
	}
	return strings.ReplaceAll(fmt.Sprintf("%.1f", *pct), ".", ",")
}

// FormatChanges renders the four horizon changes slash-joined
func FormatChanges(changes [4]*float64) string {
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = FormatChange(c)
	}
	return strings.Join(parts, "/")
}

// FormatAmount renders a currency-prefixed amount with two decimals and
// thousands grouping, e.g. "€ 1,234.56".
func FormatAmount(currency string, v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return currencySymbol(currency) + " " + groupThousands(*v)
}

// FormatYield renders a yield percentage with two decimals
func FormatYield(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func currencySymbol(code string) string {
	switch code {
	case "EUR":
		return "€"
	case "USD":
		return "$"
	case "GBP":
		return "£"
	default:
		return code
	}
}

// groupThousands formats with two decimals and comma thousands separators
func groupThousands(v float64) string {
	s := fmt.Sprintf("%.2f", v)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	return sign + b.String() + "." + fracPart
}
