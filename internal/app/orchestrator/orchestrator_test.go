package orchestrator

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.platform.alem.school/amibragim/quickserve/internal/app/discount"
	"git.platform.alem.school/amibragim/quickserve/internal/app/factory"
	"git.platform.alem.school/amibragim/quickserve/internal/app/notify"
	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/logger"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/memory"
)

func testLogger() *logger.Logger {
	return logger.NewLoggerWithWriter("test", io.Discard, logger.LevelError)
}

// eventRecorder collects every event the hub delivers.
type eventRecorder struct {
	mu     sync.Mutex
	events []orders.Event
}

func (r *eventRecorder) Name() string { return "recorder" }

func (r *eventRecorder) Active() bool { return true }

func (r *eventRecorder) Notify(_ context.Context, ev orders.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) all() []orders.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]orders.Event, len(r.events))
	copy(out, r.events)
	return out
}

type fixture struct {
	orc      *Orchestrator
	repo     *memory.OrdersRepo
	recorder *eventRecorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	repo := memory.NewOrdersRepo()
	recorder := &eventRecorder{}
	hub := notify.NewHub(time.Second, testLogger())
	hub.Subscribe(recorder)

	registry := factory.NewDefaultRegistry(factory.NewTableAllocator(5), factory.NewLaneAllocator(2))

	all := append([]Option{WithHub(hub)}, opts...)
	return &fixture{
		orc:      New(registry, repo, testLogger(), all...),
		repo:     repo,
		recorder: recorder,
	}
}

func takeoutCmd(price string) ports.CreateOrderCommand {
	return ports.CreateOrderCommand{
		Channel:    orders.ChannelTakeout,
		CustomerID: "cust-1",
		Items: []ports.ItemInput{
			{Name: "Burger", Quantity: 1, UnitPrice: decimal.RequireFromString(price)},
		},
	}
}

func TestCreateOrder_PersistsAndPublishes(t *testing.T) {
	fix := newFixture(t)

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	stored, err := fix.repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCreated, stored.Status)

	events := fix.recorder.all()
	require.Len(t, events, 1)
	assert.Equal(t, orders.EventOrderCreated, events[0].Kind)
	assert.Equal(t, order.ID, events[0].OrderID)
	assert.Equal(t, "created", events[0].Payload["status"])
}

func TestCreateOrder_UnknownChannel(t *testing.T) {
	fix := newFixture(t)

	_, err := fix.orc.CreateOrder(context.Background(), ports.CreateOrderCommand{Channel: "pigeon"})

	var unknown *orders.UnknownChannelError
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, fix.recorder.all())
}

func TestCreateOrder_AppliesBestDiscount(t *testing.T) {
	engine := discount.NewEngine(testLogger())
	engine.Register(&discount.PercentagePolicy{PolicyName: "ten-percent", Percent: decimal.NewFromInt(10)})
	engine.Register(&discount.FlatAmountPolicy{PolicyName: "fifty-cents", Amount: decimal.RequireFromString("0.50")})

	fix := newFixture(t, WithDiscountEngine(engine))

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	require.NotNil(t, order.Discount)
	assert.Equal(t, "ten-percent", order.Discount.Policy)
	assert.Equal(t, "9.72", order.Total.StringFixed(2))

	events := fix.recorder.all()
	require.Len(t, events, 1)
	assert.Equal(t, "ten-percent", events[0].Payload["discount_policy"])
	assert.Equal(t, "1.00", events[0].Payload["discount_amount"])
}

func TestAdvance_FullLifecycle(t *testing.T) {
	fix := newFixture(t)

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	for _, target := range []orders.Status{orders.StatusConfirmed, orders.StatusPreparing, orders.StatusReady, orders.StatusCompleted} {
		updated, err := fix.orc.Advance(context.Background(), order.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target, updated.Status)
	}

	kinds := make([]orders.EventKind, 0)
	for _, ev := range fix.recorder.all() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []orders.EventKind{
		orders.EventOrderCreated,
		orders.EventOrderConfirmed,
		orders.EventOrderPreparing,
		orders.EventOrderReady,
		orders.EventOrderCompleted,
	}, kinds)

	history, err := fix.repo.ListHistory(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestAdvance_InvalidTransitionLeavesOrderUnchanged(t *testing.T) {
	fix := newFixture(t)

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	_, err = fix.orc.Advance(context.Background(), order.ID, orders.StatusReady)

	var invalid *orders.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, orders.StatusCreated, invalid.From)

	stored, err := fix.repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCreated, stored.Status)

	// only the creation event went out
	assert.Len(t, fix.recorder.all(), 1)
}

func TestAdvance_UnknownOrder(t *testing.T) {
	fix := newFixture(t)

	_, err := fix.orc.Advance(context.Background(), "missing", orders.StatusConfirmed)

	var notFound *orders.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.OrderID)
}

func TestCancel_CarriesReason(t *testing.T) {
	fix := newFixture(t)

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	cancelled, err := fix.orc.Cancel(context.Background(), order.ID, "out of buns")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CompletedAt)

	events := fix.recorder.all()
	require.Len(t, events, 2)
	assert.Equal(t, orders.EventOrderCancelled, events[1].Kind)
	assert.Equal(t, "out of buns", events[1].Payload["reason"])
}

func TestCancel_CompletedOrderFails(t *testing.T) {
	fix := newFixture(t)

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)
	for _, target := range []orders.Status{orders.StatusConfirmed, orders.StatusPreparing, orders.StatusReady, orders.StatusCompleted} {
		_, err = fix.orc.Advance(context.Background(), order.ID, target)
		require.NoError(t, err)
	}

	_, err = fix.orc.Cancel(context.Background(), order.ID, "too late")

	var invalid *orders.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, orders.StatusCompleted, invalid.From)
}

type stubPayment struct {
	err   error
	calls atomic.Int64
}

func (p *stubPayment) ProcessPayment(context.Context, *orders.Order) error {
	p.calls.Add(1)
	return p.err
}

func TestConfirm_PaymentFailureDoesNotRollBack(t *testing.T) {
	fix := newFixture(t)

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	payment := &stubPayment{err: errors.New("card declined")}
	confirmed, err := fix.orc.Confirm(context.Background(), order.ID, payment)

	require.Error(t, err)
	require.NotNil(t, confirmed)
	assert.Equal(t, orders.StatusConfirmed, confirmed.Status)
	assert.Equal(t, int64(1), payment.calls.Load())

	stored, err := fix.repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, stored.Status)
}

func TestConfirm_WithoutProcessor(t *testing.T) {
	fix := newFixture(t)

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	confirmed, err := fix.orc.Confirm(context.Background(), order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, confirmed.Status)
}

func TestAdvance_ConcurrentTransitionsSerialized(t *testing.T) {
	fix := newFixture(t)

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	// two racers both try created -> confirmed; exactly one may win
	var wg sync.WaitGroup
	var wins, losses atomic.Int64
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fix.orc.Advance(context.Background(), order.ID, orders.StatusConfirmed)
			if err != nil {
				losses.Add(1)
			} else {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
	assert.Equal(t, int64(1), losses.Load())

	// exactly one ORDER_CONFIRMED event regardless of the race
	confirmedEvents := 0
	for _, ev := range fix.recorder.all() {
		if ev.Kind == orders.EventOrderConfirmed {
			confirmedEvents++
		}
	}
	assert.Equal(t, 1, confirmedEvents)
}

type stubCustomerProvider struct {
	cc  ports.CustomerContext
	err error
}

func (p *stubCustomerProvider) CustomerContext(context.Context, string) (ports.CustomerContext, error) {
	return p.cc, p.err
}

func TestCreateOrder_LoyaltyContextFeedsDiscounts(t *testing.T) {
	engine := discount.NewEngine(testLogger())
	engine.Register(&discount.LoyaltyTierPolicy{
		PolicyName: "loyalty",
		Tiers:      map[string]decimal.Decimal{"gold": decimal.NewFromInt(12)},
	})

	provider := &stubCustomerProvider{cc: ports.CustomerContext{CustomerID: "cust-1", LoyaltyTier: "gold"}}
	fix := newFixture(t, WithDiscountEngine(engine), WithCustomerProvider(provider))

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	require.NotNil(t, order.Discount)
	assert.Equal(t, "loyalty", order.Discount.Policy)
	assert.Equal(t, "1.20", order.DiscountAmount().StringFixed(2))
}

func TestCreateOrder_FailingProviderDegradesGracefully(t *testing.T) {
	engine := discount.NewEngine(testLogger())
	engine.Register(&discount.LoyaltyTierPolicy{
		PolicyName: "loyalty",
		Tiers:      map[string]decimal.Decimal{"gold": decimal.NewFromInt(12)},
	})

	provider := &stubCustomerProvider{err: errors.New("crm down")}
	fix := newFixture(t, WithDiscountEngine(engine), WithCustomerProvider(provider))

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)
	assert.True(t, order.DiscountAmount().IsZero())
}

func TestAdvance_UsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fix := newFixture(t, withClock(func() time.Time { return fixed }))

	order, err := fix.orc.CreateOrder(context.Background(), takeoutCmd("10.00"))
	require.NoError(t, err)

	updated, err := fix.orc.Cancel(context.Background(), order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, fixed, updated.UpdatedAt)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, fixed, *updated.CompletedAt)
}

func TestKeyedLocks_ReleaseCleansUp(t *testing.T) {
	locks := newKeyedLocks()

	release := locks.acquire("ord-1")
	release()

	locks.mu.Lock()
	assert.Empty(t, locks.locks)
	locks.mu.Unlock()
}
