package hierarchy

import (
	"context"
	"fmt"
	"strings"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

// atualiza registros em lote vindos da ingestão.
func (s *HierarchyService) SyncRecords(ctx context.Context, request domain.SyncRecordsRequest) error {
	if len(request.Records) == 0 {
		return fmt.Errorf("HierarchyService.SyncRecords - %w: sync request must contain at least one record", domain.ErrInvalidRecord)
	}

	byScope := make(map[domain.Scope][]domain.SyncRecordDTO)
	var scopes []domain.Scope
	for i, record := range request.Records {
		if !record.Kind.Valid() {
			return fmt.Errorf("HierarchyService.SyncRecords - %w: record %d has unknown kind %q", domain.ErrInvalidRecord, i, record.Kind)
		}
		if strings.TrimSpace(record.SerialID) == "" {
			return fmt.Errorf("HierarchyService.SyncRecords - %w: record %d has no serial id", domain.ErrInvalidRecord, i)
		}
		if !record.Deleted && strings.TrimSpace(record.Name) == "" {
			return fmt.Errorf("HierarchyService.SyncRecords - %w: record %s has no name", domain.ErrInvalidRecord, record.SerialID)
		}

		if _, seen := byScope[record.Scope()]; !seen {
			scopes = append(scopes, record.Scope())
		}
		byScope[record.Scope()] = append(byScope[record.Scope()], record)
	}

	for _, scope := range scopes {
		current, err := s.writeRepository.ListRecords(ctx, scope)
		if err != nil {
			return fmt.Errorf("HierarchyService.SyncRecords - failed to load records: %w", err)
		}

		if err := checkBatchCycles(current, byScope[scope]); err != nil {
			return fmt.Errorf("HierarchyService.SyncRecords - %w", err)
		}
	}

	if err := s.writeRepository.SyncRecords(ctx, request); err != nil {
		return fmt.Errorf("HierarchyService.SyncRecords - %w", err)
	}

	return nil
}

// checkBatchCycles aplica o lote sobre os registros atuais (última ocorrência vence)
// e recusa qualquer registro do lote que acabe pendurado na própria subárvore.
func checkBatchCycles(current []entities.Record, batch []domain.SyncRecordDTO) error {
	merged := make(map[string]entities.Record, len(current)+len(batch))
	for _, record := range current {
		merged[record.SerialID] = record
	}

	touched := make([]string, 0, len(batch))
	for _, dto := range batch {
		if dto.Deleted {
			delete(merged, dto.SerialID)
			continue
		}
		merged[dto.SerialID] = entities.Record{
			AccountID:      dto.AccountID,
			Kind:           dto.Kind,
			SerialID:       dto.SerialID,
			ParentSerialID: dto.ParentSerialID,
			Name:           dto.Name,
		}
		touched = append(touched, dto.SerialID)
	}

	all := make([]entities.Record, 0, len(merged))
	for _, record := range merged {
		all = append(all, record)
	}

	for _, serialID := range touched {
		record, ok := merged[serialID]
		if !ok || !record.HasParent() {
			continue
		}

		parent := record.ParentKey()
		if parent == serialID {
			return fmt.Errorf("parent %s of %s: %w", parent, serialID, domain.ErrCycleDetected)
		}
		if _, below := DescendantSerialIDs(serialID, all)[parent]; below {
			return fmt.Errorf("parent %s of %s: %w", parent, serialID, domain.ErrCycleDetected)
		}
	}

	return nil
}
