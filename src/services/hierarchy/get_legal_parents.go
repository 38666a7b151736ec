package hierarchy

import (
	"context"
	"fmt"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

// GetLegalParents lista os pais possíveis para serialID. Vazio significa um registro novo.
func (s *HierarchyService) GetLegalParents(ctx context.Context, scope domain.Scope, serialID string) ([]entities.Record, error) {
	snapshot, err := s.loadSnapshot(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("HierarchyService.GetLegalParents - failed to load records: %w", err)
	}

	if serialID == "" {
		return LegalParents(nil, snapshot.Records()), nil
	}

	target, found := snapshot.Find(serialID)
	if !found {
		return nil, fmt.Errorf("HierarchyService.GetLegalParents - serial %s: %w", serialID, domain.ErrRecordNotFound)
	}

	return LegalParents(&target, snapshot.Records()), nil
}
