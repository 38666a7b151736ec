package hierarchy

import (
	"strings"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"

	"golang.org/x/text/cases"
)

type Predicate func(record entities.Record) bool

// MatchTerm busca em name, serialId e typeName ignorando maiúsculas. Termo vazio não casa com nada.
func MatchTerm(term string) Predicate {
	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(term))

	if needle == "" {
		return func(entities.Record) bool { return false }
	}

	return func(record entities.Record) bool {
		for _, field := range []string{record.Name, record.SerialID, record.TypeName} {
			if field != "" && strings.Contains(folder.String(field), needle) {
				return true
			}
		}
		return false
	}
}

// Filter devolve os registros encontrados e todos os seus ancestrais, na ordem de entrada.
func Filter(records []entities.Record, match Predicate) []entities.Record {
	result := make([]entities.Record, 0)
	if len(records) == 0 || match == nil {
		return result
	}

	bySerial := make(map[string]entities.Record, len(records))
	for _, record := range records {
		bySerial[record.SerialID] = record
	}

	keep := make(map[string]bool)
	for _, record := range records {
		if !match(record) {
			continue
		}

		// Sobe pela cadeia de pais até um root, um pai desconhecido ou um serial já visitado
		current, ok := record, true
		for ok && !keep[current.SerialID] {
			keep[current.SerialID] = true
			if !current.HasParent() {
				break
			}
			current, ok = bySerial[current.ParentKey()]
		}
	}

	if len(keep) == 0 {
		return result
	}

	for _, record := range records {
		if keep[record.SerialID] {
			result = append(result, record.Clone())
		}
	}
	return result
}

func FilterToForest(records []entities.Record, match Predicate, opts ...Option) domain.Assembly {
	return Assemble(Filter(records, match), opts...)
}
