package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice/src/adapters/kafka/consumers"
	"backoffice/src/domain"
	"backoffice/src/helper/env"
	"backoffice/src/helper/logging"
	"backoffice/src/infra/debezium"
	"backoffice/src/infra/kafka"
	"backoffice/src/infra/redis"
	"backoffice/src/repositories"
	"backoffice/src/services/events"

	"go.uber.org/fx"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting CDC Transformer with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newKafkaClient,
			newRedisClient,
			newCacheInvalidator,
			newCDCClient,
			newCDCTransformer,
			newDomainEventPublisher,
			newCDCConsumer,
		),

		// Invocations
		fx.Invoke(startConsumer),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start CDC transformer application: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down CDC transformer...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}

	log.Println("CDC transformer shutdown complete")
}

func newLogger() *slog.Logger {
	return logging.NewLogger(env.GetString("LOG_LEVEL", "info"))
}

func newKafkaClient(logger *slog.Logger) (*kafka.KafkaClient, error) {
	brokers := env.MustGetString("KAFKA_BROKERS")
	groupID := env.MustGetString("KAFKA_CDC_CONSUMER_GROUP_ID")
	batchSize := env.GetInt("KAFKA_BATCH_SIZE", 500)

	return kafka.NewKafkaClient(logger, brokers, groupID, batchSize)
}

func newRedisClient() *redis.RedisClient {
	hosts := env.MustGetString("REDIS_HOSTS")
	poolSize := env.GetInt("REDIS_POOL_SIZE", 10)
	ttl := time.Duration(env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 300)) * time.Second

	return redis.NewRedisClient(hosts, poolSize, ttl)
}

// O transformer só invalida o cache; a fonte nunca é lida aqui.
func newCacheInvalidator(logger *slog.Logger, redisClient *redis.RedisClient) *repositories.CachedRecordRepository {
	return repositories.NewCachedRecordRepository(nil, redisClient, logger)
}

func newCDCClient(logger *slog.Logger, kafkaClient *kafka.KafkaClient) *debezium.CDCClient {
	topic := env.MustGetString("KAFKA_CDC_TOPIC")
	serializer := &debezium.CDCSerializer{
		IncludeTables: env.GetStrings("KAFKA_CDC_TABLES", domain.TableHierarchyRecords),
		SkipSnapshots: env.GetBool("KAFKA_CDC_SKIP_SNAPSHOTS", true),
	}

	return debezium.NewCDCClient(logger, topic, kafkaClient, serializer)
}

func newCDCTransformer(logger *slog.Logger) *events.CDCTransformer {
	return events.NewCDCTransformer(logger)
}

func newDomainEventPublisher(
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
) *events.DomainEventPublisher {
	topic := env.MustGetString("KAFKA_DOMAIN_EVENTS_TOPIC")
	return events.NewDomainEventPublisher(logger, kafkaClient, topic)
}

func newCDCConsumer(
	logger *slog.Logger,
	cdcClient *debezium.CDCClient,
	transformer *events.CDCTransformer,
	eventPublisher *events.DomainEventPublisher,
	invalidator *repositories.CachedRecordRepository,
) *consumers.CDCConsumer {
	return consumers.NewCDCConsumer(logger, cdcClient, transformer, eventPublisher, invalidator)
}

func startConsumer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	cdcConsumer *consumers.CDCConsumer,
	redisClient *redis.RedisClient,
) {
	consumeCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting CDC transformer")

			go func() {
				if err := cdcConsumer.Start(consumeCtx); err != nil {
					logger.Error("CDC consumer failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()

			logger.Info("Shutting down CDC consumer...")
			if err := cdcConsumer.Close(); err != nil {
				logger.Error("Failed to close CDC consumer", "error", err)
				return err
			}
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis client", "error", err)
			}
			logger.Info("CDC consumer shut down gracefully")
			return nil
		},
	})
}
