package consumers

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/infra/debezium"
	"backoffice/src/services/events"
)

var _ = Describe("CDCConsumer", func() {
	var (
		source      *fakeCDCSource
		publisher   *spyPublisher
		invalidator *spyInvalidator
		consumer    *CDCConsumer
	)

	row := func(accountID float64, serial, name string) map[string]interface{} {
		return map[string]interface{}{
			"account_id":       accountID,
			"kind":             "department",
			"serial_id":        serial,
			"parent_serial_id": nil,
			"name":             name,
			"type_name":        "",
			"properties":       `{}`,
		}
	}

	change := func(op string, before, after map[string]interface{}) *debezium.CDCEvent {
		return &debezium.CDCEvent{
			Operation: op,
			Before:    before,
			After:     after,
			TsMs:      1700000000000,
			Source:    debezium.CDCSource{Table: domain.TableHierarchyRecords},
		}
	}

	BeforeEach(func() {
		source = &fakeCDCSource{}
		publisher = &spyPublisher{}
		invalidator = &spyInvalidator{}
		consumer = NewCDCConsumer(discardLogger(), source, events.NewCDCTransformer(discardLogger()), publisher, invalidator)
	})

	It("publishes one domain event per relevant change and invalidates the touched scopes", func() {
		// ARRANGE
		source.events = []*debezium.CDCEvent{
			change("c", nil, row(1, "A", "Ops")),
			change("u", row(1, "A", "Ops"), row(1, "A", "Ops")),
			change("d", row(2, "B", "IT"), nil),
			{Operation: "c", After: row(1, "X", "Other"), Source: debezium.CDCSource{Table: "audit_log"}},
		}

		// ACT
		err := consumer.Start(context.Background())

		// ASSERT
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher.published).To(HaveLen(2))
		Expect(publisher.published[0].EventType).To(Equal(domain.EventRecordCreated))
		Expect(publisher.published[1].EventType).To(Equal(domain.EventRecordDeleted))
		Expect(invalidator.scopes).To(Equal([]domain.Scope{
			{AccountID: 1, Kind: entities.KindDepartment},
			{AccountID: 2, Kind: entities.KindDepartment},
		}))
	})

	It("skips events that cannot be transformed", func() {
		source.events = []*debezium.CDCEvent{
			change("t", nil, row(1, "A", "Ops")),
			change("c", nil, row(1, "B", "IT")),
		}

		Expect(consumer.Start(context.Background())).To(Succeed())

		Expect(publisher.published).To(HaveLen(1))
		Expect(publisher.published[0].SerialID).To(Equal("B"))
	})

	It("still publishes when the cache is unavailable", func() {
		invalidator.err = errors.New("redis timeout")
		source.events = []*debezium.CDCEvent{change("c", nil, row(1, "A", "Ops"))}

		Expect(consumer.Start(context.Background())).To(Succeed())

		Expect(publisher.published).To(HaveLen(1))
	})

	It("fails the batch when publishing fails", func() {
		publisher.err = errors.New("broker unavailable")
		source.events = []*debezium.CDCEvent{change("c", nil, row(1, "A", "Ops"))}

		err := consumer.Start(context.Background())

		Expect(err).To(MatchError(ContainSubstring("broker unavailable")))
	})

	It("closes the underlying client", func() {
		Expect(consumer.Close()).To(Succeed())
		Expect(source.closed).To(BeTrue())
	})
})
