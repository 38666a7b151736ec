package consumers

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/infra/kafka"
)

var _ = Describe("RecordChangesConsumer", func() {
	var (
		syncer    *spySyncer
		consumer  *RecordChangesConsumer
		kafkaFake *fakeKafkaConsumer
	)

	message := func(value string) kafka.Message {
		return kafka.Message{Key: "1:department", Value: []byte(value)}
	}

	BeforeEach(func() {
		syncer = &spySyncer{}
		consumer = NewRecordChangesConsumer(discardLogger(), syncer)
		kafkaFake = &fakeKafkaConsumer{}
	})

	Context("when the batch is valid", func() {
		It("syncs every record in a single request", func() {
			// ARRANGE
			kafkaFake.batch = []kafka.Message{
				message(`{"account_id": 1, "kind": "department", "serial_id": "A", "name": "Ops"}`),
				message(`{"account_id": 1, "kind": "financial-accounts", "serial_id": "1.01", "parent_serial_id": "1", "name": "Cash", "type_name": "Asset", "properties": {"is_active": true}}`),
				message(`{"account_id": 1, "kind": "department", "serial_id": "OLD", "deleted": true}`),
			}

			// ACT
			err := consumer.Start(context.Background(), kafkaFake, "record-changes")

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(kafkaFake.topic).To(Equal("record-changes"))
			Expect(kafkaFake.handlerErr).NotTo(HaveOccurred())
			Expect(syncer.requests).To(HaveLen(1))

			records := syncer.requests[0].Records
			Expect(records).To(HaveLen(3))
			Expect(records[1].Kind).To(Equal(entities.KindFinancialAccount))
			Expect(*records[1].ParentSerialID).To(Equal("1"))
			Expect(records[1].Properties).To(MatchJSON(`{"is_active": true}`))
			Expect(records[2].Deleted).To(BeTrue())
		})
	})

	Context("when some messages are invalid", func() {
		It("skips them and syncs the rest", func() {
			// ARRANGE
			kafkaFake.batch = []kafka.Message{
				message(`not json`),
				message(`{"account_id": 1, "kind": "projects", "serial_id": "X", "name": "Unknown"}`),
				message(`{"account_id": 1, "kind": "department", "serial_id": "  ", "name": "Blank"}`),
				message(`{"account_id": 1, "kind": "department", "serial_id": "N"}`),
				message(`{"account_id": 1, "kind": "department", "serial_id": "A", "name": "Ops"}`),
			}

			// ACT
			Expect(consumer.Start(context.Background(), kafkaFake, "record-changes")).To(Succeed())

			// ASSERT
			Expect(kafkaFake.handlerErr).NotTo(HaveOccurred())
			Expect(syncer.requests).To(HaveLen(1))
			Expect(syncer.requests[0].Records).To(ConsistOf(
				HaveField("SerialID", "A"),
			))
		})

		It("does not call sync when nothing is left", func() {
			kafkaFake.batch = []kafka.Message{message(`{}`)}

			Expect(consumer.Start(context.Background(), kafkaFake, "record-changes")).To(Succeed())

			Expect(kafkaFake.handlerErr).NotTo(HaveOccurred())
			Expect(syncer.requests).To(BeEmpty())
		})
	})

	Context("when the sync fails", func() {
		It("returns the error so the batch is not committed", func() {
			// ARRANGE
			syncer.err = errors.New("database is down")
			kafkaFake.batch = []kafka.Message{
				message(`{"account_id": 1, "kind": "department", "serial_id": "A", "name": "Ops"}`),
			}

			// ACT
			Expect(consumer.Start(context.Background(), kafkaFake, "record-changes")).To(Succeed())

			// ASSERT
			Expect(kafkaFake.handlerErr).To(MatchError(ContainSubstring("database is down")))
		})
	})

	Context("when the batch is rejected", func() {
		It("syncs the records one by one and drops the rejected ones", func() {
			// ARRANGE
			syncer.rejects = "B"
			kafkaFake.batch = []kafka.Message{
				message(`{"account_id": 1, "kind": "department", "serial_id": "A", "name": "Ops"}`),
				message(`{"account_id": 1, "kind": "department", "serial_id": "B", "parent_serial_id": "B", "name": "Loop"}`),
				message(`{"account_id": 1, "kind": "department", "serial_id": "C", "name": "Finance"}`),
			}

			// ACT
			Expect(consumer.Start(context.Background(), kafkaFake, "record-changes")).To(Succeed())

			// ASSERT
			Expect(kafkaFake.handlerErr).NotTo(HaveOccurred())
			Expect(syncer.requests).To(HaveLen(4))
			Expect(syncer.requests[1].Records).To(ConsistOf(HaveField("SerialID", "A")))
			Expect(syncer.requests[3].Records).To(ConsistOf(HaveField("SerialID", "C")))
		})

		It("still returns infrastructure errors from the single-record retries", func() {
			syncer.rejects = "B"
			syncer.err = errors.New("database is down")
			kafkaFake.batch = []kafka.Message{
				message(`{"account_id": 1, "kind": "department", "serial_id": "B", "parent_serial_id": "B", "name": "Loop"}`),
				message(`{"account_id": 1, "kind": "department", "serial_id": "A", "name": "Ops"}`),
			}

			Expect(consumer.Start(context.Background(), kafkaFake, "record-changes")).To(Succeed())

			Expect(kafkaFake.handlerErr).To(MatchError(ContainSubstring("database is down")))
		})
	})

	It("keeps the scope of each message", func() {
		record, err := KafkaRecordMessage{AccountID: 9, Kind: "departments", SerialID: " A ", Name: "Ops"}.toSyncRecord()

		Expect(err).NotTo(HaveOccurred())
		Expect(record.Scope()).To(Equal(domain.Scope{AccountID: 9, Kind: entities.KindDepartment}))
		Expect(record.SerialID).To(Equal("A"))
	})
})
