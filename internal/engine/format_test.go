package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "₹0"},
		{"100", "+₹100"},
		{"1000", "+₹1,000"},
		{"100000", "+₹1,00,000"},
		{"1234567", "+₹12,34,567"},
		{"12345678", "+₹1,23,45,678"},
		{"-2500.5", "-₹2,500.5"},
		{"2500.25", "+₹2,500.25"},
		{"2500.256", "+₹2,500.26"},
		{"-100000", "-₹1,00,000"},
		{"999.999", "+₹1,000"},
	}
	for _, c := range cases {
		v, err := decimal.NewFromString(c.in)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", c.in, err)
		}
		if got := FormatCurrency(v); got != c.want {
			t.Fatalf("in=%s got=%s want=%s", c.in, got, c.want)
		}
	}
}

func TestFormatCurrencyWith_CustomSymbol(t *testing.T) {
	if got := FormatCurrencyWith(decimal.NewFromInt(-100000), "$"); got != "-$1,00,000" {
		t.Fatalf("got=%s want=-$1,00,000", got)
	}
}
