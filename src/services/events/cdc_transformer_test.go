package events_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/infra/debezium"
	"backoffice/src/services/events"
)

func row(serial string, parent interface{}, name string) map[string]interface{} {
	return map[string]interface{}{
		"id":               float64(7),
		"account_id":       float64(42),
		"kind":             "department",
		"serial_id":        serial,
		"parent_serial_id": parent,
		"name":             name,
		"type_name":        "",
		"properties":       `{"description": "first floor"}`,
		"updated_at":       "2025-01-01T00:00:00Z",
	}
}

func cdcEvent(op string, before, after map[string]interface{}) *debezium.CDCEvent {
	return &debezium.CDCEvent{
		Operation: op,
		Before:    before,
		After:     after,
		TsMs:      1700000000000,
		Source:    debezium.CDCSource{Table: domain.TableHierarchyRecords},
	}
}

var _ = Describe("CDCTransformer", func() {
	var (
		transformer *events.CDCTransformer
		ctx         context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		transformer = events.NewCDCTransformer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	Context("when a record is inserted", func() {
		It("emits a created event for the record's scope", func() {
			// ACT
			event, err := transformer.TransformCDCEvent(ctx, cdcEvent("c", nil, row("B", "A", "IT")))

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(event.EventType).To(Equal(domain.EventRecordCreated))
			Expect(event.Scope).To(Equal(domain.Scope{AccountID: 42, Kind: entities.KindDepartment}))
			Expect(event.SerialID).To(Equal("B"))
			Expect(event.EventID).NotTo(BeEmpty())
			Expect(event.OccurredAt).To(Equal(time.UnixMilli(1700000000000).UTC()))
			Expect(event.FieldsChanged).To(Equal([]string{"serial_id", "parent_serial_id", "name", "type_name", "properties"}))
			Expect(event.After).To(MatchJSON(`{
				"id": 7, "account_id": 42, "kind": "department", "serial_id": "B", "parent_serial_id": "A",
				"name": "IT", "type_name": "", "properties": {"description": "first floor"}, "updated_at": "2025-01-01T00:00:00Z"
			}`))
			Expect(event.Before).To(BeNil())
		})
	})

	Context("when a record is renamed", func() {
		It("emits an updated event listing the changed fields", func() {
			// ACT
			event, err := transformer.TransformCDCEvent(ctx, cdcEvent("u", row("B", "A", "IT"), row("B", "A", "Technology")))

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(event.EventType).To(Equal(domain.EventRecordUpdated))
			Expect(event.FieldsChanged).To(Equal([]string{"name"}))
		})
	})

	Context("when a record changes parent", func() {
		It("emits a moved event", func() {
			// ACT
			event, err := transformer.TransformCDCEvent(ctx, cdcEvent("u", row("B", "A", "IT"), row("B", nil, "IT")))

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(event.EventType).To(Equal(domain.EventRecordMoved))
			Expect(event.FieldsChanged).To(Equal([]string{"parent_serial_id"}))
		})
	})

	Context("when only untracked columns change", func() {
		It("emits nothing", func() {
			// ARRANGE
			after := row("B", "A", "IT")
			after["updated_at"] = "2025-02-01T00:00:00Z"
			after["properties"] = `{"description":"first floor"}`

			// ACT
			event, err := transformer.TransformCDCEvent(ctx, cdcEvent("u", row("B", "A", "IT"), after))

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(event).To(BeNil())
		})
	})

	Context("when a record is deleted", func() {
		It("emits a deleted event from the before image", func() {
			// ACT
			event, err := transformer.TransformCDCEvent(ctx, cdcEvent("d", row("C", "B", "Help Desk"), nil))

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(event.EventType).To(Equal(domain.EventRecordDeleted))
			Expect(event.SerialID).To(Equal("C"))
			Expect(event.After).To(BeNil())
		})
	})

	Context("when the event comes from another table", func() {
		It("is ignored", func() {
			// ARRANGE
			event := cdcEvent("c", nil, row("B", "A", "IT"))
			event.Source.Table = "audit_log"

			// ACT
			result, err := transformer.TransformCDCEvent(ctx, event)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeNil())
		})
	})

	Context("when the row cannot be identified", func() {
		It("returns an error", func() {
			// ARRANGE
			broken := row("B", "A", "IT")
			delete(broken, "account_id")

			// ACT
			_, err := transformer.TransformCDCEvent(ctx, cdcEvent("c", nil, broken))

			// ASSERT
			Expect(err).To(MatchError(ContainSubstring("missing account_id")))
		})
	})
})
