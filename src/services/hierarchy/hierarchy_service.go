package hierarchy

import (
	"context"
	"log/slog"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

type RecordQueryRepository interface {
	ListRecords(ctx context.Context, scope domain.Scope, filters ...domain.PropertyFilter) ([]entities.Record, error)
	GetRecordBySerialID(ctx context.Context, scope domain.Scope, serialID string) (entities.Record, error)
}

// RecordWriteRepository também lê: ListRecords aqui vem do primário, sem cache,
// e alimenta as validações de escrita.
type RecordWriteRepository interface {
	ListRecords(ctx context.Context, scope domain.Scope, filters ...domain.PropertyFilter) ([]entities.Record, error)
	InsertRecord(ctx context.Context, input domain.RecordInput) (entities.Record, error)
	UpdateRecord(ctx context.Context, originalSerialID string, input domain.RecordInput) (entities.Record, error)
	DeleteRecord(ctx context.Context, scope domain.Scope, serialID string) error
	SyncRecords(ctx context.Context, request domain.SyncRecordsRequest) error
}

type HierarchyService struct {
	queryRepository RecordQueryRepository
	writeRepository RecordWriteRepository
	logger          *slog.Logger
	opts            []Option
}

func NewHierarchyService(
	queryRepository RecordQueryRepository,
	writeRepository RecordWriteRepository,
	logger *slog.Logger,
	opts ...Option,
) *HierarchyService {
	return &HierarchyService{
		queryRepository: queryRepository,
		writeRepository: writeRepository,
		logger:          logger,
		opts:            opts,
	}
}

// loadSnapshot carrega todos os registros do escopo e monta a árvore completa.
func (s *HierarchyService) loadSnapshot(ctx context.Context, scope domain.Scope, filters ...domain.PropertyFilter) (*Snapshot, error) {
	records, err := s.queryRepository.ListRecords(ctx, scope, filters...)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(records, s.opts...), nil
}

// loadFreshSnapshot carrega o escopo pelo repositório de escrita.
func (s *HierarchyService) loadFreshSnapshot(ctx context.Context, scope domain.Scope) (*Snapshot, error) {
	records, err := s.writeRepository.ListRecords(ctx, scope)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(records, s.opts...), nil
}
