package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/infra/kafka"
	"backoffice/src/services/events"
)

type recordingProducer struct {
	topic    string
	messages []kafka.Message
	err      error
}

func (p *recordingProducer) Producer(messages []kafka.Message, topic string) error {
	p.topic = topic
	p.messages = append(p.messages, messages...)
	return p.err
}

var _ = Describe("DomainEventPublisher", func() {
	var (
		producer  *recordingProducer
		publisher *events.DomainEventPublisher
		event     domain.DomainEvent
	)

	BeforeEach(func() {
		producer = &recordingProducer{}
		publisher = events.NewDomainEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)), producer, "hierarchy-events")
		event = domain.DomainEvent{
			EventID:       "evt-1",
			EventType:     domain.EventRecordMoved,
			SchemaVersion: "v1",
			Scope:         domain.Scope{AccountID: 42, Kind: entities.KindFinancialAccount},
			SerialID:      "1.01",
			FieldsChanged: []string{"parent_serial_id", "name"},
		}
	})

	It("keys messages by scope and sets the filtering headers", func() {
		// ACT
		err := publisher.PublishDomainEvents(context.Background(), []domain.DomainEvent{event})

		// ASSERT
		Expect(err).NotTo(HaveOccurred())
		Expect(producer.topic).To(Equal("hierarchy-events"))
		Expect(producer.messages).To(HaveLen(1))

		message := producer.messages[0]
		Expect(message.Key).To(Equal("42:financial_account"))
		Expect(message.Headers).To(Equal(map[string]string{
			"event_type":     domain.EventRecordMoved,
			"source_service": "hierarchy-api",
			"schema_version": "v1",
			"event_id":       "evt-1",
			"kind":           "financial_account",
			"account_id":     "42",
			"fields_changed": "parent_serial_id,name",
		}))
		Expect(message.Value).To(MatchJSON(`{
			"event_id": "evt-1", "event_type": "hierarchy.record.moved", "schema_version": "v1",
			"occurred_at": "0001-01-01T00:00:00Z", "scope": {"account_id": 42, "kind": "financial_account"},
			"serial_id": "1.01", "fields_changed": ["parent_serial_id", "name"]
		}`))
	})

	It("skips empty batches", func() {
		Expect(publisher.PublishDomainEvents(context.Background(), nil)).To(Succeed())
		Expect(producer.messages).To(BeEmpty())
	})

	It("wraps producer failures", func() {
		producer.err = errors.New("broker down")

		err := publisher.PublishDomainEvents(context.Background(), []domain.DomainEvent{event})

		Expect(err).To(MatchError(ContainSubstring("topic hierarchy-events")))
	})
})
