package hierarchy

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"

	"golang.org/x/text/collate"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

// SearchRecords feeds paginated pickers: direct matches only (no ancestors), sorted by name.
// page is zero based. A blank term lists every record.
func (s *HierarchyService) SearchRecords(ctx context.Context, scope domain.Scope, term string, page int, limit int) (domain.RecordPage, error) {
	records, err := s.queryRepository.ListRecords(ctx, scope)
	if err != nil {
		return domain.RecordPage{}, fmt.Errorf("HierarchyService.SearchRecords - failed to load records: %w", err)
	}

	if limit <= 0 {
		limit = defaultPageLimit
	}
	limit = min(limit, maxPageLimit)
	page = max(page, 0)

	matches := slices.Clone(records)
	if strings.TrimSpace(term) != "" {
		match := MatchTerm(term)
		matches = make([]entities.Record, 0)
		for _, record := range records {
			if match(record) {
				matches = append(matches, record)
			}
		}
	}

	collator := collate.New(newOptions(s.opts).lang)
	slices.SortStableFunc(matches, func(a, b entities.Record) int {
		if c := collator.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.SerialID, b.SerialID)
	})

	start := min(page*limit, len(matches))
	end := min(start+limit, len(matches))

	list := make([]entities.Record, 0, end-start)
	for _, record := range matches[start:end] {
		list = append(list, record.Clone())
	}

	return domain.RecordPage{List: list, Count: len(matches)}, nil
}
