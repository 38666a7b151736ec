package repositories

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

type recordSource interface {
	ListRecords(ctx context.Context, scope domain.Scope, filters ...domain.PropertyFilter) ([]entities.Record, error)
	GetRecordBySerialID(ctx context.Context, scope domain.Scope, serialID string) (entities.Record, error)
}

type cacheStore interface {
	GetKey(ctx context.Context, key string) (string, bool, error)
	SetWithRegistry(ctx context.Context, cacheKey string, cacheValue string, registryKeys []string) error
	GetMultipleSetMembers(ctx context.Context, keys []string) (map[string][]string, error)
	DeleteKeys(ctx context.Context, keys []string) error
}

// CachedRecordRepository guarda no Redis a lista de registros de cada escopo.
// Cada chave é registrada no set do escopo para que uma escrita invalide todas as variações de filtro.
type CachedRecordRepository struct {
	source  recordSource
	cache   cacheStore
	logger  *slog.Logger
	pending chan struct{}
}

func NewCachedRecordRepository(source recordSource, cache cacheStore, logger *slog.Logger) *CachedRecordRepository {
	return &CachedRecordRepository{
		source:  source,
		cache:   cache,
		logger:  logger,
		pending: make(chan struct{}, 64),
	}
}

func (r *CachedRecordRepository) ListRecords(ctx context.Context, scope domain.Scope, filters ...domain.PropertyFilter) ([]entities.Record, error) {
	cacheKey := generateCacheKey(scope, filters)

	cached, found, err := r.getFromCache(ctx, cacheKey)
	if found && err == nil {
		r.logger.Debug("cache HIT", "key", cacheKey)
		return cached, nil
	}

	if err != nil {
		// Erro de cache não derruba a leitura, seguimos no Postgres
		r.logger.Warn("cache error", "key", cacheKey, "error", err)
	}

	r.logger.Debug("cache MISS", "key", cacheKey)

	records, err := r.source.ListRecords(ctx, scope, filters...)
	if err != nil {
		return nil, fmt.Errorf("postgres query failed: %w", err)
	}

	dataJSON, err := json.Marshal(records)
	if err != nil {
		r.logger.Error("failed to marshal cache data", "key", cacheKey, "error", err)
		return records, nil
	}

	select {
	case r.pending <- struct{}{}:
		go func() {
			defer func() { <-r.pending }()

			// Timeout de 30 segundos para operação de cache
			ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			r.setInCache(ctxWithTimeout, cacheKey, scope, string(dataJSON))
		}()
	default:
		r.logger.Warn("too many pending cache writes, skipping", "key", cacheKey)
	}

	return records, nil
}

// GetRecordBySerialID vai direto ao Postgres: leitura pontual, usada antes de escritas.
func (r *CachedRecordRepository) GetRecordBySerialID(ctx context.Context, scope domain.Scope, serialID string) (entities.Record, error) {
	return r.source.GetRecordBySerialID(ctx, scope, serialID)
}

// InvalidateScopes apaga todas as chaves registradas para os escopos.
func (r *CachedRecordRepository) InvalidateScopes(ctx context.Context, scopes []domain.Scope) error {
	if len(scopes) == 0 {
		return nil
	}

	registryKeys := make([]string, 0, len(scopes))
	seen := make(map[string]bool, len(scopes))
	for _, scope := range scopes {
		key := registryKey(scope)
		if !seen[key] {
			seen[key] = true
			registryKeys = append(registryKeys, key)
		}
	}

	registryResults, err := r.cache.GetMultipleSetMembers(ctx, registryKeys)
	if err != nil {
		return fmt.Errorf("failed to get registry data: %w", err)
	}

	keysToDelete := make([]string, 0)
	for _, registry := range registryKeys {
		keysToDelete = append(keysToDelete, registry)
		keysToDelete = append(keysToDelete, registryResults[registry]...)
	}

	r.logger.Debug("invalidating cache keys", "keys", len(keysToDelete), "scopes", len(registryKeys))
	return r.cache.DeleteKeys(ctx, keysToDelete)
}

func generateCacheKey(scope domain.Scope, filters []domain.PropertyFilter) string {
	filterJSON, _ := json.Marshal(filters)
	keyData := fmt.Sprintf("records:%d:%s:filters:%s", scope.AccountID, scope.Kind, filterJSON)

	hash := md5.Sum([]byte(keyData))
	return fmt.Sprintf("hierarchy:records:%x", hash)
}

func registryKey(scope domain.Scope) string {
	return fmt.Sprintf("registry:scope:%d:%s", scope.AccountID, scope.Kind)
}

func (r *CachedRecordRepository) getFromCache(ctx context.Context, cacheKey string) ([]entities.Record, bool, error) {
	cachedJSON, found, err := r.cache.GetKey(ctx, cacheKey)
	if !found || err != nil {
		return nil, found, err
	}

	var records []entities.Record
	if err := json.Unmarshal([]byte(cachedJSON), &records); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	return records, true, nil
}

func (r *CachedRecordRepository) setInCache(ctx context.Context, cacheKey string, scope domain.Scope, data string) {
	if err := r.cache.SetWithRegistry(ctx, cacheKey, data, []string{registryKey(scope)}); err != nil {
		r.logger.Error("failed to set cache with registry", "key", cacheKey, "error", err)
		return
	}

	r.logger.Debug("cache SET with registry", "key", cacheKey)
}
