package orders

import "github.com/shopspring/decimal"

// DiscountResult is the outcome of evaluating one discount policy against an
// order. It is a proposal: the orchestrator decides whether to attach it.
type DiscountResult struct {
	Amount     decimal.Decimal
	Applicable bool
	Policy     string // originating policy name
	Reason     string // human-readable explanation
}

// NoDiscount returns the zero-amount, non-applicable result used whenever no
// policy matched (or none is configured).
func NoDiscount(reason string) DiscountResult {
	return DiscountResult{Amount: decimal.Zero, Applicable: false, Reason: reason}
}
