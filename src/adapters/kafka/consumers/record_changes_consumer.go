package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/infra/kafka"
)

// KafkaRecordMessage representa o schema da mensagem de ingestão
type KafkaRecordMessage struct {
	AccountID      int64           `json:"account_id"`
	Kind           string          `json:"kind"`
	SerialID       string          `json:"serial_id"`
	ParentSerialID *string         `json:"parent_serial_id"`
	Name           string          `json:"name"`
	TypeName       string          `json:"type_name"`
	Properties     json.RawMessage `json:"properties"`
	Deleted        bool            `json:"deleted"`
}

type recordSyncer interface {
	SyncRecords(ctx context.Context, request domain.SyncRecordsRequest) error
}

type messageConsumer interface {
	Consumer(ctx context.Context, handler kafka.Handler, topic string) error
}

type RecordChangesConsumer struct {
	logger *slog.Logger
	syncer recordSyncer
}

func NewRecordChangesConsumer(logger *slog.Logger, syncer recordSyncer) *RecordChangesConsumer {
	return &RecordChangesConsumer{
		logger: logger,
		syncer: syncer,
	}
}

func (c *RecordChangesConsumer) Start(ctx context.Context, kafkaClient messageConsumer, topic string) error {
	c.logger.Info("Starting record changes consumer", "topic", topic)

	handler := func(messages []kafka.Message) error {
		return c.handleMessages(ctx, messages)
	}

	return kafkaClient.Consumer(ctx, handler, topic)
}

// handleMessages converte o lote em um único SyncRecords.
// Mensagens inválidas são descartadas para não travar a partição.
func (c *RecordChangesConsumer) handleMessages(ctx context.Context, messages []kafka.Message) error {
	if len(messages) == 0 {
		return nil
	}

	c.logger.Info("Processing messages batch", "count", len(messages))

	records := make([]domain.SyncRecordDTO, 0, len(messages))
	skipped := 0

	for _, msg := range messages {
		var message KafkaRecordMessage
		if err := json.Unmarshal(msg.Value, &message); err != nil {
			c.logger.Error("Failed to unmarshal message",
				"error", err,
				"key", msg.Key,
				"value", string(msg.Value))
			skipped++
			continue
		}

		record, err := message.toSyncRecord()
		if err != nil {
			c.logger.Error("Invalid message", "key", msg.Key, "error", err)
			skipped++
			continue
		}

		records = append(records, record)
	}

	if len(records) == 0 {
		c.logger.Warn("No valid records in batch", "skipped", skipped)
		return nil
	}

	err := c.syncer.SyncRecords(ctx, domain.SyncRecordsRequest{Records: records})
	if isRejection(err) {
		c.logger.Warn("Batch rejected, syncing records one by one", "error", err, "recordsCount", len(records))
		rejected, err := c.syncOneByOne(ctx, records)
		if err != nil {
			return err
		}
		skipped += rejected
	} else if err != nil {
		c.logger.Error("Failed to sync records",
			"error", err,
			"recordsCount", len(records))
		return fmt.Errorf("failed to sync records: %w", err)
	}

	c.logger.Info("Successfully processed messages batch",
		"count", len(messages),
		"recordsCount", len(records),
		"skipped", skipped)

	return nil
}

// syncOneByOne aplica os registros na ordem de chegada e descarta os recusados.
// Erros de infraestrutura continuam devolvendo o lote para reprocessamento.
func (c *RecordChangesConsumer) syncOneByOne(ctx context.Context, records []domain.SyncRecordDTO) (int, error) {
	rejected := 0
	for _, record := range records {
		err := c.syncer.SyncRecords(ctx, domain.SyncRecordsRequest{Records: []domain.SyncRecordDTO{record}})
		if isRejection(err) {
			c.logger.Error("Record rejected", "account_id", record.AccountID, "kind", record.Kind, "serial_id", record.SerialID, "error", err)
			rejected++
			continue
		}
		if err != nil {
			return rejected, fmt.Errorf("failed to sync record %s: %w", record.SerialID, err)
		}
	}
	return rejected, nil
}

func isRejection(err error) bool {
	return errors.Is(err, domain.ErrCycleDetected) || errors.Is(err, domain.ErrInvalidRecord)
}

func (m KafkaRecordMessage) toSyncRecord() (domain.SyncRecordDTO, error) {
	if m.AccountID <= 0 {
		return domain.SyncRecordDTO{}, fmt.Errorf("account_id is required")
	}

	kind, err := entities.ParseKind(m.Kind)
	if err != nil {
		return domain.SyncRecordDTO{}, err
	}

	serialID := strings.TrimSpace(m.SerialID)
	if serialID == "" {
		return domain.SyncRecordDTO{}, fmt.Errorf("serial_id is required")
	}

	if !m.Deleted && strings.TrimSpace(m.Name) == "" {
		return domain.SyncRecordDTO{}, fmt.Errorf("name is required for record %s", serialID)
	}

	return domain.SyncRecordDTO{
		AccountID:      m.AccountID,
		Kind:           kind,
		SerialID:       serialID,
		ParentSerialID: m.ParentSerialID,
		Name:           strings.TrimSpace(m.Name),
		TypeName:       m.TypeName,
		Properties:     m.Properties,
		Deleted:        m.Deleted,
	}, nil
}
