package orders

import "github.com/shopspring/decimal"

// DefaultTaxRate is the fixed jurisdiction sales tax applied to the
// discounted subtotal. Kept as a decimal to avoid float drift in totals.
var DefaultTaxRate = decimal.NewFromFloat(0.08)

// MoneyFromFloat converts dollars to a two-decimal amount, rounding to the
// nearest cent. Adapters use it at the JSON/DB boundary only; domain code
// works with decimal.Decimal end to end.
func MoneyFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// PercentOf computes pct% of amount truncated to two decimal places.
// Truncation (round toward zero) keeps percentage discounts deterministic;
// bankers' rounding would make equal-looking discounts compare unequal.
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100)).Truncate(2)
}
