package hierarchy

import (
	"context"
	"fmt"

	"backoffice/src/domain"
)

// GetTree devolve a árvore do escopo. Os filtros de properties são aplicados na carga.
func (s *HierarchyService) GetTree(ctx context.Context, scope domain.Scope, term string, filters ...domain.PropertyFilter) (domain.Assembly, error) {
	snapshot, err := s.loadSnapshot(ctx, scope, filters...)
	if err != nil {
		return domain.Assembly{}, fmt.Errorf("HierarchyService.GetTree - failed to load records: %w", err)
	}

	assembly := snapshot.Search(term)

	s.logger.Debug("tree assembled",
		"account_id", scope.AccountID,
		"kind", scope.Kind,
		"term", term,
		"roots", len(assembly.Forest),
		"nodes", len(assembly.Flat),
	)

	return assembly, nil
}
