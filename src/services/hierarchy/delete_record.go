package hierarchy

import (
	"context"
	"fmt"

	"backoffice/src/domain"
)

// DeleteRecord remove um registro folha. Registros com filhos são recusados.
func (s *HierarchyService) DeleteRecord(ctx context.Context, scope domain.Scope, serialID string) error {
	snapshot, err := s.loadFreshSnapshot(ctx, scope)
	if err != nil {
		return fmt.Errorf("HierarchyService.DeleteRecord - failed to load records: %w", err)
	}

	if _, found := snapshot.Find(serialID); !found {
		return fmt.Errorf("HierarchyService.DeleteRecord - serial %s: %w", serialID, domain.ErrRecordNotFound)
	}

	for _, record := range snapshot.Records() {
		if record.ParentKey() == serialID && record.SerialID != serialID {
			return fmt.Errorf("HierarchyService.DeleteRecord - serial %s: %w", serialID, domain.ErrRecordHasChildren)
		}
	}

	if err := s.writeRepository.DeleteRecord(ctx, scope, serialID); err != nil {
		return fmt.Errorf("HierarchyService.DeleteRecord - %w", err)
	}

	s.logger.Info("record deleted", "account_id", scope.AccountID, "kind", scope.Kind, "serial_id", serialID)

	return nil
}
