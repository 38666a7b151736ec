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
	"backoffice/src/helper/env"
	"backoffice/src/helper/logging"
	"backoffice/src/infra/kafka"
	"backoffice/src/infra/postgres"
	"backoffice/src/infra/redis"
	"backoffice/src/repositories"
	"backoffice/src/services/hierarchy"

	"go.uber.org/fx"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting record changes consumer with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newReadWriteClient,
			newRedisClient,
			newKafkaClient,
			newCachedRecordRepository,
			newRecordWriteRepository,
			newHierarchyService,
			newRecordChangesConsumer,
		),

		// Invocations
		fx.Invoke(startConsumer),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start consumer application: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down record changes consumer...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}

	log.Println("Record changes consumer shutdown complete")
}

func newLogger() *slog.Logger {
	return logging.NewLogger(env.GetString("LOG_LEVEL", "info"))
}

func newReadWriteClient() (*postgres.ReadWriteClient, error) {
	read := postgres.Config{
		Host:            env.MustGetString("DB_READ_HOST"),
		Port:            env.GetString("DB_READ_PORT", "5432"),
		Database:        env.MustGetString("DB_NAME"),
		User:            env.MustGetString("DB_USER"),
		Password:        env.MustGetString("DB_PASSWORD"),
		MaxConnections:  env.GetInt("DB_MAX_POOL_CONNECTIONS", 10),
		ApplicationName: "hierarchy-record-changes-consumer",
	}

	write := read
	write.Host = env.MustGetString("DB_WRITE_HOST")
	write.Port = env.GetString("DB_WRITE_PORT", "5432")

	return postgres.NewReadWriteClient(read, write)
}

func newRedisClient() *redis.RedisClient {
	hosts := env.MustGetString("REDIS_HOSTS")
	poolSize := env.GetInt("REDIS_POOL_SIZE", 10)
	ttl := time.Duration(env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 300)) * time.Second

	return redis.NewRedisClient(hosts, poolSize, ttl)
}

func newKafkaClient(logger *slog.Logger) (*kafka.KafkaClient, error) {
	brokers := env.MustGetString("KAFKA_BROKERS")
	groupID := env.MustGetString("KAFKA_RECORD_CHANGES_GROUP_ID")
	batchSize := env.GetInt("KAFKA_BATCH_SIZE", 500)

	return kafka.NewKafkaClient(logger, brokers, groupID, batchSize)
}

func newCachedRecordRepository(
	logger *slog.Logger,
	client *postgres.ReadWriteClient,
	redisClient *redis.RedisClient,
) *repositories.CachedRecordRepository {
	return repositories.NewCachedRecordRepository(repositories.NewRecordQueryRepository(client.GetReadPool()), redisClient, logger)
}

func newRecordWriteRepository(
	logger *slog.Logger,
	client *postgres.ReadWriteClient,
	cachedRepository *repositories.CachedRecordRepository,
) *repositories.RecordWriteRepository {
	return repositories.NewRecordWriteRepository(client.GetWritePool(), cachedRepository, logger)
}

func newHierarchyService(
	logger *slog.Logger,
	cachedRepository *repositories.CachedRecordRepository,
	writeRepository *repositories.RecordWriteRepository,
) *hierarchy.HierarchyService {
	return hierarchy.NewHierarchyService(cachedRepository, writeRepository, logger)
}

func newRecordChangesConsumer(
	logger *slog.Logger,
	hierarchyService *hierarchy.HierarchyService,
) *consumers.RecordChangesConsumer {
	return consumers.NewRecordChangesConsumer(logger, hierarchyService)
}

func startConsumer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	readWriteClient *postgres.ReadWriteClient,
	redisClient *redis.RedisClient,
	recordConsumer *consumers.RecordChangesConsumer,
) {
	consumeCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			topic := env.MustGetString("KAFKA_RECORD_CHANGES_TOPIC")

			go func() {
				if err := recordConsumer.Start(consumeCtx, kafkaClient, topic); err != nil {
					logger.Error("Consumer failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()

			logger.Info("Shutting down Kafka client...")
			if err := kafkaClient.Close(); err != nil {
				logger.Error("Failed to close Kafka client", "error", err)
				return err
			}

			readWriteClient.Close()
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis client", "error", err)
			}

			logger.Info("Record changes consumer shut down gracefully")
			return nil
		},
	})
}
