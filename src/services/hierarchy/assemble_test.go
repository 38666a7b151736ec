package hierarchy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/services/hierarchy"
	"backoffice/src/test_artefacts/comparer"
	"backoffice/src/test_artefacts/stubs"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var _ = Describe("Assemble", func() {
	Context("when the input is empty", func() {
		It("returns an empty forest and flat view", func() {
			// ACT
			assembly := hierarchy.Assemble(nil)

			// ASSERT
			Expect(assembly.Forest).To(BeEmpty())
			Expect(assembly.Flat).To(BeEmpty())
			Expect(assembly.IsEmpty()).To(BeTrue())
		})
	})

	Context("when records form a single chain", func() {
		It("nests Ops > IT > Help Desk with levels and expandable flags", func() {
			// ACT
			assembly := hierarchy.Assemble(opsTree())

			// ASSERT
			Expect(assembly.Forest).To(HaveLen(1))

			ops := assembly.Forest[0]
			Expect(ops.SerialID).To(Equal("A"))
			Expect(ops.Level).To(Equal(0))
			Expect(ops.Expandable).To(BeTrue())

			it := ops.Children[0]
			Expect(it.SerialID).To(Equal("B"))
			Expect(it.Level).To(Equal(1))
			Expect(it.Expandable).To(BeTrue())

			helpDesk := it.Children[0]
			Expect(helpDesk.SerialID).To(Equal("C"))
			Expect(helpDesk.Level).To(Equal(2))
			Expect(helpDesk.Expandable).To(BeFalse())
			Expect(helpDesk.Children).To(BeEmpty())

			Expect(serialsOf(assembly.Flat)).To(Equal([]string{"A", "B", "C"}))
		})
	})

	Context("when the input order does not follow the hierarchy", func() {
		It("links children that appear before their parents", func() {
			// ARRANGE
			records := []entities.Record{
				stubs.Record("C", "B", "Help Desk"),
				stubs.Record("B", "A", "IT"),
				stubs.Record("A", "", "Ops"),
			}

			// ACT
			assembly := hierarchy.Assemble(records)

			// ASSERT
			Expect(serialsOf(assembly.Flat)).To(Equal([]string{"A", "B", "C"}))
		})
	})

	Context("when a parent serial id does not resolve", func() {
		It("places the record as a root", func() {
			// ARRANGE
			records := []entities.Record{
				stubs.Record("A", "", "Ops"),
				stubs.Record("X", "MISSING", "Orphan"),
			}

			// ACT
			assembly := hierarchy.Assemble(records)

			// ASSERT
			Expect(serialsOf(assembly.Forest)).To(Equal([]string{"A", "X"}))
			Expect(assembly.Forest[1].Level).To(Equal(0))
		})
	})

	Context("when siblings are out of order", func() {
		It("sorts every sibling list by name with locale aware collation", func() {
			// ARRANGE
			records := []entities.Record{
				stubs.Record("R1", "", "zulu"),
				stubs.Record("R2", "", "Ämter"),
				stubs.Record("R3", "", "beta"),
				stubs.Record("R4", "", "Alpha"),
				stubs.Record("C1", "R3", "Treasury"),
				stubs.Record("C2", "R3", "accounting"),
			}

			// ACT
			assembly := hierarchy.Assemble(records)

			// ASSERT
			Expect(serialsOf(assembly.Forest)).To(Equal([]string{"R4", "R2", "R3", "R1"}))
			Expect(serialsOf(assembly.Forest[2].Children)).To(Equal([]string{"C2", "C1"}))
		})

		It("breaks name ties by serial id", func() {
			// ARRANGE
			records := []entities.Record{
				stubs.Record("S2", "", "Sales"),
				stubs.Record("S1", "", "Sales"),
			}

			// ACT
			assembly := hierarchy.Assemble(records)

			// ASSERT
			Expect(serialsOf(assembly.Forest)).To(Equal([]string{"S1", "S2"}))
		})

		It("uses the configured language", func() {
			// ARRANGE
			records := []entities.Record{
				stubs.Record("1", "", "Öl"),
				stubs.Record("2", "", "Ozean"),
			}

			// ACT
			swedish := hierarchy.Assemble(records, hierarchy.WithLanguage(language.Swedish))
			german := hierarchy.Assemble(records, hierarchy.WithLanguage(language.German))

			// ASSERT
			Expect(serialsOf(swedish.Forest)).To(Equal([]string{"2", "1"}))
			Expect(serialsOf(german.Forest)).To(Equal([]string{"1", "2"}))
		})
	})

	Context("when serial ids repeat", func() {
		It("keeps the last record and places it once", func() {
			// ARRANGE
			records := []entities.Record{
				stubs.Record("A", "", "Ops"),
				stubs.Record("B", "A", "Old IT"),
				stubs.Record("B", "A", "IT"),
				stubs.Record("C", "B", "Help Desk"),
			}

			// ACT
			assembly := hierarchy.Assemble(records)

			// ASSERT
			Expect(serialsOf(assembly.Flat)).To(Equal([]string{"A", "B", "C"}))
			Expect(assembly.Flat[1].Name).To(Equal("IT"))
		})
	})

	Context("when the stored parents form a cycle", func() {
		It("breaks the cycle and still emits every record once", func() {
			// ARRANGE
			records := []entities.Record{
				stubs.Record("A", "C", "Ops"),
				stubs.Record("B", "A", "IT"),
				stubs.Record("C", "B", "Help Desk"),
				stubs.Record("D", "", "Finance"),
			}

			// ACT
			assembly := hierarchy.Assemble(records)

			// ASSERT
			Expect(assembly.Flat).To(HaveLen(4))
			Expect(serialsOf(assembly.Flat)).To(ConsistOf("A", "B", "C", "D"))
			Expect(serialsOf(assembly.Forest)).To(ConsistOf("C", "D"))
		})

		It("turns a self parented record into a root", func() {
			// ARRANGE
			records := []entities.Record{stubs.Record("A", "A", "Ops")}

			// ACT
			assembly := hierarchy.Assemble(records)

			// ASSERT
			Expect(serialsOf(assembly.Forest)).To(Equal([]string{"A"}))
			Expect(assembly.Forest[0].Children).To(BeEmpty())
		})
	})

	Context("when the caller owns the input", func() {
		It("does not mutate or alias the records", func() {
			// ARRANGE
			records := opsTree()
			before := opsTreeCopy(records)

			// ACT
			assembly := hierarchy.Assemble(records)
			*assembly.Flat[1].ParentSerialID = "CHANGED"
			assembly.Flat[0].Name = "CHANGED"

			// ASSERT
			Expect(records).To(BeComparableTo(before, comparer.JSONRawMessage()))
		})
	})

	Context("when checking invariants over random forests", func() {
		var records []entities.Record

		BeforeEach(func() {
			records = randomRecords(120)
		})

		It("is idempotent", func() {
			first := hierarchy.Assemble(records)
			second := hierarchy.Assemble(records)

			Expect(second.Forest).To(BeComparableTo(first.Forest, comparer.JSONRawMessage()))
			Expect(serialsOf(second.Flat)).To(Equal(serialsOf(first.Flat)))
		})

		It("stamps level as the distance to the root", func() {
			assembly := hierarchy.Assemble(records)

			walk(assembly.Forest, func(node *domain.Node, depth int) {
				Expect(node.Level).To(Equal(depth), node.SerialID)
			}, 0)
			Expect(assembly.Flat).To(HaveLen(len(records)))
		})

		It("marks exactly the nodes with children as expandable", func() {
			assembly := hierarchy.Assemble(records)

			for _, node := range assembly.Flat {
				Expect(node.Expandable).To(Equal(len(node.Children) > 0), node.SerialID)
			}
		})

		It("keeps every sibling list sorted by name", func() {
			assembly := hierarchy.Assemble(records)
			collator := collate.New(language.Und)

			check := func(siblings []*domain.Node) {
				for i := 1; i < len(siblings); i++ {
					Expect(collator.CompareString(siblings[i-1].Name, siblings[i].Name)).To(BeNumerically("<=", 0))
				}
			}

			check(assembly.Forest)
			for _, node := range assembly.Flat {
				check(node.Children)
			}
		})

		It("produces a flat view equal to the projection of the forest", func() {
			assembly := hierarchy.Assemble(records)

			Expect(hierarchy.Project(assembly.Forest)).To(Equal(assembly.Flat))
		})
	})
})

func opsTreeCopy(records []entities.Record) []entities.Record {
	out := make([]entities.Record, len(records))
	for i, record := range records {
		out[i] = record.Clone()
	}
	return out
}
