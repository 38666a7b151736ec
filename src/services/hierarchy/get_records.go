package hierarchy

import (
	"context"
	"fmt"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

func (s *HierarchyService) GetRecord(ctx context.Context, scope domain.Scope, serialID string) (entities.Record, error) {
	record, err := s.queryRepository.GetRecordBySerialID(ctx, scope, serialID)
	if err != nil {
		return entities.Record{}, fmt.Errorf("HierarchyService.GetRecord - serial %s: %w", serialID, err)
	}
	return record, nil
}

// GetRoots returns the top level of the assembled forest, in display order.
func (s *HierarchyService) GetRoots(ctx context.Context, scope domain.Scope) ([]entities.Record, error) {
	snapshot, err := s.loadSnapshot(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("HierarchyService.GetRoots - failed to load records: %w", err)
	}

	return recordsOf(snapshot.Full().Forest), nil
}

// GetChildren returns the direct children of parentSerialID, in display order.
func (s *HierarchyService) GetChildren(ctx context.Context, scope domain.Scope, parentSerialID string) ([]entities.Record, error) {
	snapshot, err := s.loadSnapshot(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("HierarchyService.GetChildren - failed to load records: %w", err)
	}

	for _, node := range snapshot.Full().Flat {
		if node.SerialID == parentSerialID {
			return recordsOf(node.Children), nil
		}
	}

	return nil, fmt.Errorf("HierarchyService.GetChildren - serial %s: %w", parentSerialID, domain.ErrRecordNotFound)
}

func recordsOf(nodes []*domain.Node) []entities.Record {
	records := make([]entities.Record, len(nodes))
	for i, node := range nodes {
		records[i] = node.Record.Clone()
	}
	return records
}
