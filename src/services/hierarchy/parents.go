package hierarchy

import "backoffice/src/domain/entities"

// LegalParents devolve os pais possíveis do target: todos menos ele e seus descendentes.
func LegalParents(target *entities.Record, all []entities.Record) []entities.Record {
	candidates := make([]entities.Record, 0, len(all))

	if target == nil {
		for _, record := range all {
			candidates = append(candidates, record.Clone())
		}
		return candidates
	}

	excluded := DescendantSerialIDs(target.SerialID, all)
	excluded[target.SerialID] = struct{}{}

	for _, record := range all {
		if _, skip := excluded[record.SerialID]; skip {
			continue
		}
		candidates = append(candidates, record.Clone())
	}
	return candidates
}

func DescendantSerialIDs(serialID string, all []entities.Record) map[string]struct{} {
	childrenOf := make(map[string][]string, len(all))
	for _, record := range all {
		if record.HasParent() {
			childrenOf[record.ParentKey()] = append(childrenOf[record.ParentKey()], record.SerialID)
		}
	}

	descendants := make(map[string]struct{})
	queue := []string{serialID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range childrenOf[current] {
			if _, seen := descendants[child]; seen {
				continue
			}
			descendants[child] = struct{}{}
			queue = append(queue, child)
		}
	}

	return descendants
}
