package hierarchy

import (
	"context"
	"fmt"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

// CreateRecord insere um novo registro. O pai, quando informado, precisa existir no escopo.
func (s *HierarchyService) CreateRecord(ctx context.Context, input domain.RecordInput) (entities.Record, error) {
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return entities.Record{}, err
	}

	snapshot, err := s.loadFreshSnapshot(ctx, input.Scope)
	if err != nil {
		return entities.Record{}, fmt.Errorf("HierarchyService.CreateRecord - failed to load records: %w", err)
	}

	if _, exists := snapshot.Find(input.SerialID); exists {
		return entities.Record{}, fmt.Errorf("HierarchyService.CreateRecord - serial %s: %w", input.SerialID, domain.ErrDuplicateSerialID)
	}

	if input.ParentSerialID != nil {
		if _, exists := snapshot.Find(*input.ParentSerialID); !exists {
			return entities.Record{}, fmt.Errorf("HierarchyService.CreateRecord - parent %s: %w", *input.ParentSerialID, domain.ErrParentNotFound)
		}
	}

	record, err := s.writeRepository.InsertRecord(ctx, input)
	if err != nil {
		return entities.Record{}, fmt.Errorf("HierarchyService.CreateRecord - %w", err)
	}

	s.logger.Info("record created", "account_id", input.AccountID, "kind", input.Kind, "serial_id", record.SerialID)

	return record, nil
}

// UpdateRecord altera o registro identificado por originalSerialID.
// O serial pode mudar: os filhos passam a apontar para o novo serial.
// O novo pai precisa estar entre os pais legais, senão o resultado seria um ciclo.
func (s *HierarchyService) UpdateRecord(ctx context.Context, originalSerialID string, input domain.RecordInput) (entities.Record, error) {
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return entities.Record{}, err
	}

	snapshot, err := s.loadFreshSnapshot(ctx, input.Scope)
	if err != nil {
		return entities.Record{}, fmt.Errorf("HierarchyService.UpdateRecord - failed to load records: %w", err)
	}

	target, found := snapshot.Find(originalSerialID)
	if !found {
		return entities.Record{}, fmt.Errorf("HierarchyService.UpdateRecord - serial %s: %w", originalSerialID, domain.ErrRecordNotFound)
	}

	if input.SerialID != originalSerialID {
		if _, exists := snapshot.Find(input.SerialID); exists {
			return entities.Record{}, fmt.Errorf("HierarchyService.UpdateRecord - serial %s: %w", input.SerialID, domain.ErrDuplicateSerialID)
		}
	}

	if input.ParentSerialID != nil {
		if err := s.checkParent(snapshot, target, *input.ParentSerialID); err != nil {
			return entities.Record{}, fmt.Errorf("HierarchyService.UpdateRecord - %w", err)
		}
	}

	record, err := s.writeRepository.UpdateRecord(ctx, originalSerialID, input)
	if err != nil {
		return entities.Record{}, fmt.Errorf("HierarchyService.UpdateRecord - %w", err)
	}

	s.logger.Info("record updated",
		"account_id", input.AccountID,
		"kind", input.Kind,
		"original_serial_id", originalSerialID,
		"serial_id", record.SerialID,
	)

	return record, nil
}

func (s *HierarchyService) checkParent(snapshot *Snapshot, target entities.Record, parentSerialID string) error {
	if _, exists := snapshot.Find(parentSerialID); !exists {
		return fmt.Errorf("parent %s: %w", parentSerialID, domain.ErrParentNotFound)
	}

	for _, candidate := range LegalParents(&target, snapshot.Records()) {
		if candidate.SerialID == parentSerialID {
			return nil
		}
	}

	return fmt.Errorf("parent %s of %s: %w", parentSerialID, target.SerialID, domain.ErrCycleDetected)
}
