package hierarchy

import (
	"strings"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

// Snapshot guarda os registros carregados e a árvore completa deles.
type Snapshot struct {
	records []entities.Record
	full    domain.Assembly
	opts    []Option
}

func NewSnapshot(records []entities.Record, opts ...Option) *Snapshot {
	owned := make([]entities.Record, len(records))
	for i, record := range records {
		owned[i] = record.Clone()
	}

	return &Snapshot{
		records: owned,
		full:    Assemble(owned, opts...),
		opts:    opts,
	}
}

func (s *Snapshot) Full() domain.Assembly {
	return s.full
}

// Search com termo vazio devolve a árvore completa.
func (s *Snapshot) Search(term string) domain.Assembly {
	if strings.TrimSpace(term) == "" {
		return s.full
	}
	return FilterToForest(s.records, MatchTerm(term), s.opts...)
}

func (s *Snapshot) SearchWith(match Predicate) domain.Assembly {
	if match == nil {
		return s.full
	}
	return FilterToForest(s.records, match, s.opts...)
}

func (s *Snapshot) Records() []entities.Record {
	out := make([]entities.Record, len(s.records))
	for i, record := range s.records {
		out[i] = record.Clone()
	}
	return out
}

// Find: o último registro com o serial vence, como na montagem.
func (s *Snapshot) Find(serialID string) (entities.Record, bool) {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].SerialID == serialID {
			return s.records[i].Clone(), true
		}
	}
	return entities.Record{}, false
}
