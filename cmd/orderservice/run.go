package orderservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"git.platform.alem.school/amibragim/quickserve/internal/app/discount"
	"git.platform.alem.school/amibragim/quickserve/internal/app/factory"
	"git.platform.alem.school/amibragim/quickserve/internal/app/notify"
	"git.platform.alem.school/amibragim/quickserve/internal/app/orchestrator"
	service "git.platform.alem.school/amibragim/quickserve/internal/app/orderservice"
	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/config"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/logger"
	pg "git.platform.alem.school/amibragim/quickserve/internal/shared/postgres"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/rabbitmq"
)

// Run wires the order service and blocks until ctx is cancelled. It returns
// the first terminal error (server or startup failure).
func Run(ctx context.Context, port, maxConcurrent int, configPath string) error {
	log := logger.NewLogger("order-service")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}

	// the jurisdiction rate is process-wide; set once before serving
	orders.DefaultTaxRate = decimal.NewFromFloat(cfg.Restaurant.TaxRate)

	pool, err := pg.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err)
		return err
	}
	defer pool.Close()

	if err := pg.EnsureSchema(ctx, pool); err != nil {
		log.Error(ctx, "db_schema_failed", "Failed to ensure database schema", err)
		return err
	}
	repo := pg.NewOrdersRepo(pool)

	rmq, err := rabbitmq.Connect(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err)
		return err
	}
	defer rmq.Close()

	// creation registry over the shared floor resources
	tables := factory.NewTableAllocator(cfg.Restaurant.Tables)
	lanes := factory.NewLaneAllocator(cfg.Restaurant.Lanes)
	registry := factory.NewDefaultRegistry(tables, lanes)

	// pricing: loyalty tiers plus an afternoon happy hour
	engine := discount.NewEngine(log)
	engine.Register(&discount.LoyaltyTierPolicy{
		PolicyName: "loyalty-tiers",
		Tiers: map[string]decimal.Decimal{
			"bronze":   decimal.NewFromInt(5),
			"silver":   decimal.NewFromInt(8),
			"gold":     decimal.NewFromInt(12),
			"platinum": decimal.NewFromInt(15),
		},
	})
	engine.Register(&discount.HappyHourPolicy{
		PolicyName: "happy-hour",
		Percent:    decimal.NewFromInt(15),
		StartHour:  14,
		EndHour:    17,
	})

	// notification fan-out: kitchen screen, analytics, broker bridge
	hub := notify.NewHub(time.Duration(cfg.Restaurant.NotifyTimeoutMS)*time.Millisecond, log)
	hub.Subscribe(notify.NewKitchenDisplay("main"))
	hub.Subscribe(notify.NewAnalytics())
	hub.Subscribe(rabbitmq.NewEventPublisher(rmq))

	orc := orchestrator.New(registry, repo, log,
		orchestrator.WithDiscountEngine(engine),
		orchestrator.WithHub(hub),
	)

	h := service.NewHandler(orc, repo, log)
	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Concurrency limiter (global) - blocks when capacity is full.
	handler := withConcurrencyLimit(maxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Order Service started on port %d", port),
		map[string]any{"port": port, "max_concurrent": maxConcurrent},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		// graceful HTTP shutdown (drain keep-alives / in-flight requests)
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It blocks until capacity is available, which provides natural backpressure.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sem <- struct{}{}        // acquire
		defer func() { <-sem }() // release
		next.ServeHTTP(w, r)
	})
}
