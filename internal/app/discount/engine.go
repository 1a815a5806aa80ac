package discount

import (
	"context"
	"fmt"
	"sync"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/logger"
)

// Engine evaluates every registered discount policy against an order and
// picks the single best result. Registration order is preserved: on exact
// ties the first-registered policy wins, keeping selection deterministic.
type Engine struct {
	mu       sync.RWMutex
	policies []ports.DiscountPolicy
	seen     map[ports.DiscountPolicy]struct{}
	logger   *logger.Logger
}

// NewEngine creates an engine with no policies. Evaluate on an empty engine
// yields the zero non-applicable result, never an error.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{
		seen:   make(map[ports.DiscountPolicy]struct{}),
		logger: log,
	}
}

// Register adds a policy to the evaluation set. Set semantics: registering
// the same policy instance twice evaluates it once per call.
func (engine *Engine) Register(policy ports.DiscountPolicy) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if _, dup := engine.seen[policy]; dup {
		return
	}
	engine.seen[policy] = struct{}{}
	engine.policies = append(engine.policies, policy)
}

// Evaluate runs all policies and returns the result with the strictly
// greatest amount. A policy that errors or panics is discarded as
// non-applicable and the rest still run; Evaluate itself never fails.
func (engine *Engine) Evaluate(ctx context.Context, order *orders.Order, customer ports.CustomerContext) orders.DiscountResult {
	engine.mu.RLock()
	policies := make([]ports.DiscountPolicy, len(engine.policies))
	copy(policies, engine.policies)
	engine.mu.RUnlock()

	if len(policies) == 0 {
		return orders.NoDiscount("no discount policies configured")
	}

	best := orders.NoDiscount("no applicable discount")
	for _, policy := range policies {
		result, err := engine.evaluateOne(ctx, policy, order, customer)
		if err != nil {
			if engine.logger != nil {
				engine.logger.Error(ctx, "discount_policy_failed",
					fmt.Sprintf("Policy %q failed; result discarded", policy.Name()), err)
			}
			continue
		}
		if !result.Applicable || result.Amount.IsNegative() {
			continue
		}
		result.Policy = policy.Name()
		// strictly greater: equal amounts keep the earlier registration
		if !best.Applicable || result.Amount.GreaterThan(best.Amount) {
			best = result
		}
	}
	return best
}

// evaluateOne isolates a single policy run, converting panics to errors.
func (engine *Engine) evaluateOne(ctx context.Context, policy ports.DiscountPolicy, order *orders.Order, customer ports.CustomerContext) (result orders.DiscountResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("policy %q panicked: %v", policy.Name(), r)
		}
	}()
	return policy.Evaluate(ctx, order, customer)
}
