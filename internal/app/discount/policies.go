package discount

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
)

// PercentagePolicy takes a percentage off the subtotal, optionally gated by a
// minimum subtotal and capped at a maximum amount. The computed amount is
// truncated to two decimals.
type PercentagePolicy struct {
	PolicyName  string
	Percent     decimal.Decimal
	MinSubtotal decimal.Decimal
	MaxAmount   decimal.Decimal // zero means uncapped
}

func (p *PercentagePolicy) Name() string { return p.PolicyName }

func (p *PercentagePolicy) Evaluate(_ context.Context, o *orders.Order, _ ports.CustomerContext) (orders.DiscountResult, error) {
	if o.Subtotal.LessThan(p.MinSubtotal) {
		return orders.NoDiscount(fmt.Sprintf("subtotal below %s minimum", p.MinSubtotal.StringFixed(2))), nil
	}

	amount := orders.PercentOf(o.Subtotal, p.Percent)
	if p.MaxAmount.IsPositive() && amount.GreaterThan(p.MaxAmount) {
		amount = p.MaxAmount
	}

	return orders.DiscountResult{
		Amount:     amount,
		Applicable: true,
		Reason:     fmt.Sprintf("%s%% off", p.Percent.String()),
	}, nil
}

// FlatAmountPolicy takes a fixed amount off, clamped to the subtotal so an
// order can never go negative.
type FlatAmountPolicy struct {
	PolicyName  string
	Amount      decimal.Decimal
	MinSubtotal decimal.Decimal
}

func (p *FlatAmountPolicy) Name() string { return p.PolicyName }

func (p *FlatAmountPolicy) Evaluate(_ context.Context, o *orders.Order, _ ports.CustomerContext) (orders.DiscountResult, error) {
	if o.Subtotal.LessThan(p.MinSubtotal) {
		return orders.NoDiscount(fmt.Sprintf("subtotal below %s minimum", p.MinSubtotal.StringFixed(2))), nil
	}

	amount := p.Amount
	if amount.GreaterThan(o.Subtotal) {
		amount = o.Subtotal
	}

	return orders.DiscountResult{
		Amount:     amount,
		Applicable: true,
		Reason:     fmt.Sprintf("%s off", p.Amount.StringFixed(2)),
	}, nil
}

// HappyHourPolicy gives a percentage off inside a daily time window. Windows
// may wrap midnight (22:00 - 06:00). The window is checked against the
// evaluation clock in the customer context so the policy stays pure.
type HappyHourPolicy struct {
	PolicyName string
	Percent    decimal.Decimal
	StartHour  int // inclusive, 0..23
	EndHour    int // exclusive, 0..23
}

func (p *HappyHourPolicy) Name() string { return p.PolicyName }

func (p *HappyHourPolicy) Evaluate(_ context.Context, o *orders.Order, customer ports.CustomerContext) (orders.DiscountResult, error) {
	hour := customer.Now.Hour()

	inWindow := false
	if p.StartHour <= p.EndHour {
		inWindow = hour >= p.StartHour && hour < p.EndHour
	} else {
		inWindow = hour >= p.StartHour || hour < p.EndHour
	}
	if !inWindow {
		return orders.NoDiscount("outside happy hour"), nil
	}

	return orders.DiscountResult{
		Amount:     orders.PercentOf(o.Subtotal, p.Percent),
		Applicable: true,
		Reason:     fmt.Sprintf("happy hour %s%% off", p.Percent.String()),
	}, nil
}

// LoyaltyTierPolicy maps a customer's loyalty tier to a percentage off.
// Customers without a matching tier get nothing.
type LoyaltyTierPolicy struct {
	PolicyName string
	Tiers      map[string]decimal.Decimal // tier (lowercase) -> percent
}

func (p *LoyaltyTierPolicy) Name() string { return p.PolicyName }

func (p *LoyaltyTierPolicy) Evaluate(_ context.Context, o *orders.Order, customer ports.CustomerContext) (orders.DiscountResult, error) {
	tier := strings.ToLower(strings.TrimSpace(customer.LoyaltyTier))
	pct, ok := p.Tiers[tier]
	if !ok || !pct.IsPositive() {
		return orders.NoDiscount(fmt.Sprintf("no discount for tier %q", tier)), nil
	}

	return orders.DiscountResult{
		Amount:     orders.PercentOf(o.Subtotal, pct),
		Applicable: true,
		Reason:     fmt.Sprintf("%s tier %s%% off", tier, pct.String()),
	}, nil
}

// BuyOneGetOnePolicy discounts every second unit of the target items by the
// given percentage (100 = free).
type BuyOneGetOnePolicy struct {
	PolicyName  string
	TargetItems []string
	Percent     decimal.Decimal
}

func (p *BuyOneGetOnePolicy) Name() string { return p.PolicyName }

func (p *BuyOneGetOnePolicy) Evaluate(_ context.Context, o *orders.Order, _ ports.CustomerContext) (orders.DiscountResult, error) {
	targets := make(map[string]bool, len(p.TargetItems))
	for _, name := range p.TargetItems {
		targets[name] = true
	}

	total := decimal.Zero
	for _, item := range o.Items {
		if !targets[item.Name] || item.Quantity < 2 {
			continue
		}
		freeUnits := int64(item.Quantity / 2)
		total = total.Add(orders.PercentOf(item.UnitPrice.Mul(decimal.NewFromInt(freeUnits)), p.Percent))
	}

	if total.IsZero() {
		return orders.NoDiscount("no qualifying item pairs"), nil
	}

	return orders.DiscountResult{
		Amount:     total,
		Applicable: true,
		Reason:     fmt.Sprintf("buy one get one %s%% off", p.Percent.String()),
	}, nil
}
