package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	httpadapter "backoffice/src/adapters/http"
	"backoffice/src/helper/env"
	"backoffice/src/helper/logging"
	"backoffice/src/infra/postgres"
	"backoffice/src/infra/redis"
	"backoffice/src/repositories"
	"backoffice/src/services/hierarchy"

	"go.uber.org/fx"
	"golang.org/x/text/language"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting hierarchy API server with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newSQLClient,
			newRedisClient,
			newRecordQueryRepository,
			newCachedRecordRepository,
			newRecordWriteRepository,
			newHierarchyService,
			newServer,
		),

		// Invocations
		fx.Invoke(registerServerHooks),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}
}

func newLogger() *slog.Logger {
	return logging.NewLogger(env.GetString("LOG_LEVEL", "info"))
}

// newSQLClient abre os pools de leitura (réplica) e escrita
func newSQLClient(lc fx.Lifecycle) (*postgres.ReadWriteClient, error) {
	read := postgres.Config{
		Host:            env.MustGetString("DB_READ_HOST"),
		Port:            env.GetString("DB_READ_PORT", "5432"),
		Database:        env.MustGetString("DB_NAME"),
		User:            env.MustGetString("DB_USER"),
		Password:        env.MustGetString("DB_PASSWORD"),
		MaxConnections:  env.GetInt("DB_MAX_POOL_CONNECTIONS", 25),
		ApplicationName: "hierarchy-api",
	}

	write := read
	write.Host = env.MustGetString("DB_WRITE_HOST")
	write.Port = env.GetString("DB_WRITE_PORT", "5432")

	client, err := postgres.NewReadWriteClient(read, write)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})

	return client, nil
}

func newRedisClient(lc fx.Lifecycle) *redis.RedisClient {
	hosts := env.MustGetString("REDIS_HOSTS")
	poolSize := env.GetInt("REDIS_POOL_SIZE", 50)
	ttl := time.Duration(env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 300)) * time.Second

	client := redis.NewRedisClient(hosts, poolSize, ttl)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

func newRecordQueryRepository(client *postgres.ReadWriteClient) *repositories.RecordQueryRepository {
	return repositories.NewRecordQueryRepository(client.GetReadPool())
}

func newCachedRecordRepository(
	logger *slog.Logger,
	queryRepository *repositories.RecordQueryRepository,
	redisClient *redis.RedisClient,
) *repositories.CachedRecordRepository {
	return repositories.NewCachedRecordRepository(queryRepository, redisClient, logger)
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
) (*hierarchy.HierarchyService, error) {
	tag, err := language.Parse(env.GetString("COLLATION_LANGUAGE", "pt-BR"))
	if err != nil {
		return nil, err
	}

	return hierarchy.NewHierarchyService(cachedRepository, writeRepository, logger, hierarchy.WithLanguage(tag)), nil
}

func newServer(
	logger *slog.Logger,
	hierarchyService *hierarchy.HierarchyService,
) *httpadapter.Server {
	port := env.GetInt("SERVER_ADDR", 8888)

	return httpadapter.NewServer(logger, port, hierarchyService)
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, logger *slog.Logger, srv *httpadapter.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					logger.Error("Server failed", "error", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", "error", err)
				return err
			}
			logger.Info("Server exited gracefully")
			return nil
		},
	})
}
