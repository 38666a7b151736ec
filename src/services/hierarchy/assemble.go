package hierarchy

import (
	"slices"
	"strings"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type options struct {
	lang language.Tag
}

// Option configura a montagem.
type Option func(*options)

func WithLanguage(tag language.Tag) Option {
	return func(o *options) {
		o.lang = tag
	}
}

func newOptions(opts []Option) options {
	o := options{lang: language.Und}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Assemble monta a floresta e a lista plana a partir dos registros.
// Pai desconhecido ou ligação que fecharia um ciclo: o registro vira root.
func Assemble(records []entities.Record, opts ...Option) domain.Assembly {
	o := newOptions(opts)

	if len(records) == 0 {
		return domain.Assembly{Forest: []*domain.Node{}, Flat: []*domain.Node{}}
	}

	// Lookup por serialId (o último registro com o mesmo serial vence)
	lookup := make(map[string]*domain.Node, len(records))
	for _, record := range records {
		lookup[record.SerialID] = &domain.Node{
			Record:   record.Clone(),
			Children: make([]*domain.Node, 0),
		}
	}

	forest := make([]*domain.Node, 0)
	parentOf := make(map[*domain.Node]*domain.Node, len(lookup))
	placed := make(map[*domain.Node]bool, len(lookup))

	// Conectar filhos aos pais na ordem de entrada
	for _, record := range records {
		node := lookup[record.SerialID]
		if placed[node] {
			continue
		}
		placed[node] = true

		parent, ok := lookup[node.ParentKey()]
		if !node.HasParent() || !ok || closesCycle(node, parent, parentOf) {
			forest = append(forest, node)
			continue
		}

		parent.Children = append(parent.Children, node)
		parentOf[node] = parent
	}

	sortSiblings(forest, collate.New(o.lang))

	flat := make([]*domain.Node, 0, len(lookup))
	for _, root := range forest {
		flat = stamp(root, 0, flat)
	}

	return domain.Assembly{Forest: forest, Flat: flat}
}

func closesCycle(node *domain.Node, parent *domain.Node, parentOf map[*domain.Node]*domain.Node) bool {
	for current := parent; current != nil; current = parentOf[current] {
		if current == node {
			return true
		}
	}
	return false
}

func sortSiblings(nodes []*domain.Node, collator *collate.Collator) {
	slices.SortStableFunc(nodes, func(a, b *domain.Node) int {
		if c := collator.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.SerialID, b.SerialID)
	})

	for _, node := range nodes {
		sortSiblings(node.Children, collator)
	}
}

// stamp percorre a árvore em pre-order gravando level e expandable.
func stamp(node *domain.Node, level int, flat []*domain.Node) []*domain.Node {
	node.Level = level
	node.Expandable = len(node.Children) > 0
	flat = append(flat, node)

	for _, child := range node.Children {
		flat = stamp(child, level+1, flat)
	}
	return flat
}
