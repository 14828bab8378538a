package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-leaveflow/internal/events"
	"go-leaveflow/internal/messaging/kafka/consumer"
	"go-leaveflow/internal/notification"
	"go-leaveflow/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer feeds leave decision events into the notification store
// until interrupted.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	notificationRepo := notification.NewRepository(gormDB)
	notificationService := notification.NewService(notificationRepo)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.LeaveDecidedTopic,
		GroupID:        "go-leaveflow-notifications",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeLeaveDecisions(ctx, reader, notificationService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
