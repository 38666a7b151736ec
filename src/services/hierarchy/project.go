package hierarchy

import "backoffice/src/domain"

// Project achata uma floresta já montada (pre-order).
func Project(forest []*domain.Node) []*domain.Node {
	flat := make([]*domain.Node, 0, len(forest))

	var walk func(nodes []*domain.Node)
	walk = func(nodes []*domain.Node) {
		for _, node := range nodes {
			flat = append(flat, node)
			walk(node.Children)
		}
	}
	walk(forest)

	return flat
}
