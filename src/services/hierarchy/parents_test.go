package hierarchy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"backoffice/src/domain/entities"
	"backoffice/src/services/hierarchy"
	"backoffice/src/test_artefacts/stubs"
)

var _ = Describe("LegalParents", func() {
	Context("when there is no target", func() {
		It("returns every record", func() {
			// ACT
			candidates := hierarchy.LegalParents(nil, opsTree())

			// ASSERT
			Expect(recordSerials(candidates)).To(Equal([]string{"A", "B", "C"}))
		})
	})

	Context("when editing an inner node", func() {
		It("excludes the node and its descendants", func() {
			// ARRANGE
			records := opsTree()
			target := records[1]

			// ACT
			candidates := hierarchy.LegalParents(&target, records)

			// ASSERT
			Expect(recordSerials(candidates)).To(Equal([]string{"A"}))
		})
	})

	Context("when editing a root of a wide tree", func() {
		It("keeps unrelated branches in input order", func() {
			// ARRANGE
			records := []entities.Record{
				stubs.Record("F", "", "Finance"),
				stubs.Record("A", "", "Ops"),
				stubs.Record("B", "A", "IT"),
				stubs.Record("F1", "F", "Treasury"),
				stubs.Record("C", "B", "Help Desk"),
				stubs.Record("D", "A", "Facilities"),
			}
			target := records[1]

			// ACT
			candidates := hierarchy.LegalParents(&target, records)

			// ASSERT
			Expect(recordSerials(candidates)).To(Equal([]string{"F", "F1"}))
		})
	})

	Context("when checking exclusion over random forests", func() {
		It("removes exactly the target and its BFS descendants", func() {
			// ARRANGE
			records := randomRecords(100)
			target := records[3]

			excluded := map[string]bool{target.SerialID: true}
			for changed := true; changed; {
				changed = false
				for _, record := range records {
					if record.HasParent() && excluded[record.ParentKey()] && !excluded[record.SerialID] {
						excluded[record.SerialID] = true
						changed = true
					}
				}
			}

			// ACT
			candidates := hierarchy.LegalParents(&target, records)

			// ASSERT
			Expect(candidates).To(HaveLen(len(records) - len(excluded)))
			for _, candidate := range candidates {
				Expect(excluded).NotTo(HaveKey(candidate.SerialID))
			}
		})
	})
})

var _ = Describe("DescendantSerialIDs", func() {
	It("terminates on cyclic data", func() {
		records := []entities.Record{
			stubs.Record("A", "B", "Ops"),
			stubs.Record("B", "A", "IT"),
		}

		Expect(hierarchy.DescendantSerialIDs("A", records)).To(HaveLen(2))
	})
})
