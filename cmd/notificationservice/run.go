package notificationservice

import (
	"context"
	"fmt"
	"sync"

	service "git.platform.alem.school/amibragim/quickserve/internal/app/notificationservice"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/config"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/logger"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/rabbitmq"
)

// Run wires the notification subscriber and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string) error {
	log := logger.NewLogger("notification-subscriber")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}

	rmq, err := rabbitmq.Connect(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err)
		return err
	}
	defer rmq.Close()

	log.Info(ctx, "service_started", "Notification subscriber started", nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		service.ConsumeForever(ctx, rmq, log)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		// normal shutdown path
	case <-done:
		return fmt.Errorf("notification consumer exited unexpectedly")
	}

	log.Info(logger.WithRequestID(context.Background(), "shutdown-001"), "graceful_shutdown", "Shutting down notification subscriber", nil)

	wg.Wait()
	return nil
}
