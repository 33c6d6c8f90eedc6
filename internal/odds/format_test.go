package odds

import (
	"math"
	"testing"
)

func TestFormatAmericanOdds(t *testing.T) {
	tests := []struct {
		odds AmericanOdds
		want string
	}{
		{130, "+130"},
		{100, "+100"},
		{-110, "-110"},
		{-100, "-100"},
		{0, Placeholder},
		{50, Placeholder},
		{-99, Placeholder},
	}

	for _, tt := range tests {
		if got := FormatAmericanOdds(tt.odds); got != tt.want {
			t.Errorf("FormatAmericanOdds(%d) = %q, want %q", tt.odds, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(52.380952); got != "52.38%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(math.NaN()); got != Placeholder {
		t.Errorf("FormatPercent(NaN) = %q", got)
	}
}

func TestFormatDecimalOdds(t *testing.T) {
	if got := FormatDecimalOdds(1.909090); got != "1.91" {
		t.Errorf("FormatDecimalOdds = %q", got)
	}
	if got := FormatDecimalOdds(1.0); got != Placeholder {
		t.Errorf("FormatDecimalOdds(1.0) = %q", got)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{50.368, "$50.37"},
		{0, "$0.00"},
		{1234.5, "$1234.50"},
		{-1.2, "-$1.20"},
		{math.Inf(1), Placeholder},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.amount); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
