package fakes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

// RecordStore é um repositório em memória para specs que não precisam de Postgres.
type RecordStore struct {
	mu      sync.Mutex
	nextID  int64
	records []entities.Record

	// Err, quando definido, é devolvido por todas as operações.
	Err error

	ListCalls int
	Synced    []domain.SyncRecordsRequest
}

func NewRecordStore(records ...entities.Record) *RecordStore {
	store := &RecordStore{}
	store.Seed(records...)
	return store
}

func (s *RecordStore) Seed(records ...entities.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		s.nextID++
		if record.ID == 0 {
			record.ID = s.nextID
		}
		s.records = append(s.records, record.Clone())
	}
}

func (s *RecordStore) All() []entities.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.Record, len(s.records))
	for i, record := range s.records {
		out[i] = record.Clone()
	}
	return out
}

func (s *RecordStore) ListRecords(_ context.Context, scope domain.Scope, filters ...domain.PropertyFilter) ([]entities.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ListCalls++
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]entities.Record, 0)
	for _, record := range s.records {
		if inScope(record, scope) && matchesFilters(record, filters) {
			out = append(out, record.Clone())
		}
	}
	return out, nil
}

func (s *RecordStore) GetRecordBySerialID(_ context.Context, scope domain.Scope, serialID string) (entities.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return entities.Record{}, s.Err
	}

	if i := s.indexOf(scope, serialID); i >= 0 {
		return s.records[i].Clone(), nil
	}
	return entities.Record{}, domain.ErrRecordNotFound
}

func (s *RecordStore) InsertRecord(_ context.Context, input domain.RecordInput) (entities.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return entities.Record{}, s.Err
	}
	if s.indexOf(input.Scope, input.SerialID) >= 0 {
		return entities.Record{}, domain.ErrDuplicateSerialID
	}

	now := time.Now().UTC()
	s.nextID++
	record := entities.Record{
		ID:             s.nextID,
		AccountID:      input.AccountID,
		Kind:           input.Kind,
		SerialID:       input.SerialID,
		ParentSerialID: input.ParentSerialID,
		Name:           input.Name,
		TypeName:       input.TypeName,
		Properties:     input.Properties,
		CreatedAt:      now,
		UpdatedAt:      now,
	}.Clone()
	s.records = append(s.records, record)

	return record.Clone(), nil
}

func (s *RecordStore) UpdateRecord(_ context.Context, originalSerialID string, input domain.RecordInput) (entities.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return entities.Record{}, s.Err
	}

	i := s.indexOf(input.Scope, originalSerialID)
	if i < 0 {
		return entities.Record{}, domain.ErrRecordNotFound
	}

	record := &s.records[i]
	record.SerialID = input.SerialID
	record.ParentSerialID = input.ParentSerialID
	record.Name = input.Name
	record.TypeName = input.TypeName
	record.Properties = input.Properties
	record.UpdatedAt = time.Now().UTC()
	*record = record.Clone()

	if input.SerialID != originalSerialID {
		for j := range s.records {
			if inScope(s.records[j], input.Scope) && s.records[j].ParentKey() == originalSerialID {
				renamed := input.SerialID
				s.records[j].ParentSerialID = &renamed
			}
		}
	}

	return record.Clone(), nil
}

func (s *RecordStore) DeleteRecord(_ context.Context, scope domain.Scope, serialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	i := s.indexOf(scope, serialID)
	if i < 0 {
		return domain.ErrRecordNotFound
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}

func (s *RecordStore) SyncRecords(_ context.Context, request domain.SyncRecordsRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	s.Synced = append(s.Synced, request)

	for _, dto := range request.Records {
		i := s.indexOf(dto.Scope(), dto.SerialID)

		if dto.Deleted {
			if i >= 0 {
				s.records = append(s.records[:i], s.records[i+1:]...)
			}
			continue
		}

		now := time.Now().UTC()
		record := entities.Record{
			AccountID:      dto.AccountID,
			Kind:           dto.Kind,
			SerialID:       dto.SerialID,
			ParentSerialID: dto.ParentSerialID,
			Name:           dto.Name,
			TypeName:       dto.TypeName,
			Properties:     dto.Properties,
			CreatedAt:      now,
			UpdatedAt:      now,
		}.Clone()

		if i >= 0 {
			record.ID = s.records[i].ID
			record.CreatedAt = s.records[i].CreatedAt
			s.records[i] = record
			continue
		}

		s.nextID++
		record.ID = s.nextID
		s.records = append(s.records, record)
	}

	return nil
}

func (s *RecordStore) indexOf(scope domain.Scope, serialID string) int {
	for i, record := range s.records {
		if inScope(record, scope) && record.SerialID == serialID {
			return i
		}
	}
	return -1
}

func inScope(record entities.Record, scope domain.Scope) bool {
	return record.AccountID == scope.AccountID && record.Kind == scope.Kind
}

// matchesFilters imita o operador @> do Postgres para filtros escalares.
func matchesFilters(record entities.Record, filters []domain.PropertyFilter) bool {
	if len(filters) == 0 {
		return true
	}

	var properties map[string]any
	if err := json.Unmarshal(record.Properties, &properties); err != nil {
		return false
	}

	for _, filter := range filters {
		var current any = properties
		for _, key := range strings.Split(filter.Path, ".") {
			object, ok := current.(map[string]any)
			if !ok {
				return false
			}
			current = object[key]
		}

		expected, _ := json.Marshal(filter.Value)
		actual, _ := json.Marshal(current)
		if string(expected) != string(actual) {
			return false
		}
	}
	return true
}

// String ajuda nas mensagens de falha do gomega.
func (s *RecordStore) String() string {
	return fmt.Sprintf("RecordStore(%d records)", len(s.All()))
}
