package odds

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Placeholder is rendered in place of a value that cannot be displayed.
const Placeholder = "—"

// FormatAmericanOdds renders a price with an explicit sign for underdogs.
// Invalid prices render as Placeholder instead of failing, since this runs on
// display paths.
func FormatAmericanOdds(a AmericanOdds) string {
	if !a.Valid() {
		return Placeholder
	}
	if a > 0 {
		return fmt.Sprintf("+%d", int(a))
	}
	return fmt.Sprintf("%d", int(a))
}

// FormatDecimalOdds renders decimal odds with two places.
func FormatDecimalOdds(d DecimalOdds) string {
	if !d.Valid() {
		return Placeholder
	}
	return fmt.Sprintf("%.2f", float64(d))
}

// FormatPercent renders a 0-100 percentage with two places ("52.38%").
func FormatPercent(pct float64) string {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return Placeholder
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatMoney renders a dollar amount rounded half away from zero to cents ("$50.37", "-$1.20").
func FormatMoney(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Placeholder
	}
	d := decimal.NewFromFloat(amount).Round(2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
