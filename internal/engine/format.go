package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol prefixes formatted amounts. The app reports in
// Indian rupees; FormatCurrencyWith accepts any symbol.
const DefaultCurrencySymbol = "₹"

// FormatCurrency renders a P&L amount for display: sign prefix (+ or -,
// none for zero), currency symbol, Indian-style digit grouping, and at
// most two fraction digits with trailing zeros trimmed.
//
//	+₹1,00,000   -₹2,500.5   ₹0
func FormatCurrency(v decimal.Decimal) string {
	return FormatCurrencyWith(v, DefaultCurrencySymbol)
}

// FormatCurrencyWith is FormatCurrency with an explicit symbol.
func FormatCurrencyWith(v decimal.Decimal, symbol string) string {
	sign := ""
	switch v.Sign() {
	case 1:
		sign = "+"
	case -1:
		sign = "-"
	}

	abs := v.Abs().Round(2)
	intPart := abs.Floor()
	frac := abs.Sub(intPart)

	out := sign + symbol + groupIndian(intPart.String())
	if frac.Sign() > 0 {
		// "0.50" -> ".5", "0.25" -> ".25"
		fracStr := strings.TrimRight(frac.StringFixed(2), "0")
		out += fracStr[1:]
	}
	return out
}

// groupIndian inserts commas in the Indian numbering style: the last
// three digits form one group, everything before that groups by two.
// 1234567 -> 12,34,567.
func groupIndian(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := digits[:n-3]
	// Leading group of one or two digits, then pairs.
	lead := len(head) % 2
	if lead == 0 {
		lead = 2
	}
	b.WriteString(head[:lead])
	for i := lead; i < len(head); i += 2 {
		b.WriteByte(',')
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(digits[n-3:])
	return b.String()
}
