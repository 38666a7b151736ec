package debezium

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"backoffice/src/infra/kafka"
)

// CDCBatchEventHandler is the function signature for handling batches of CDC events
type CDCBatchEventHandler func(ctx context.Context, events []*CDCEvent) error

type messageConsumer interface {
	Consumer(ctx context.Context, handler kafka.Handler, topic string) error
	Close() error
}

// CDCClient implements CDC event consumption using Kafka
type CDCClient struct {
	logger     *slog.Logger
	consumer   messageConsumer
	serializer *CDCSerializer
	topic      string
}

func NewCDCClient(logger *slog.Logger, topic string, consumer messageConsumer, serializer *CDCSerializer) *CDCClient {
	return &CDCClient{
		logger:     logger,
		consumer:   consumer,
		serializer: serializer,
		topic:      topic,
	}
}

// ConsumeCDCEventsBatch starts consuming CDC events and calls handler for batches of valid events
func (c *CDCClient) ConsumeCDCEventsBatch(ctx context.Context, handler CDCBatchEventHandler) error {
	c.logger.Info("starting CDC batch event consumption", "topic", c.topic)

	kafkaHandler := func(messages []kafka.Message) error {
		return c.processCDCMessagesBatch(ctx, messages, handler)
	}

	return c.consumer.Consumer(ctx, kafkaHandler, c.topic)
}

// processCDCMessagesBatch parses the batch and calls handler once with every valid event.
// Unparseable messages are logged and skipped so a poison message does not block the partition.
func (c *CDCClient) processCDCMessagesBatch(ctx context.Context, messages []kafka.Message, handler CDCBatchEventHandler) error {
	if len(messages) == 0 {
		return nil
	}

	var validEvents []*CDCEvent
	skippedCount := 0
	errorCount := 0

	for _, msg := range messages {
		cdcEvent, err := c.serializer.ParseCDCEvent(msg.Value)
		if errors.Is(err, ErrTombstone) {
			skippedCount++
			continue
		}
		if err != nil {
			c.logger.Error("failed to parse CDC message",
				"error", err,
				"key", msg.Key,
				"value_length", len(msg.Value))
			errorCount++
			continue
		}

		if !c.serializer.ShouldProcessEvent(cdcEvent) {
			skippedCount++
			continue
		}

		validEvents = append(validEvents, cdcEvent)
	}

	if len(validEvents) > 0 {
		if err := handler(ctx, validEvents); err != nil {
			return fmt.Errorf("failed to handle CDC events batch: %w", err)
		}
	}

	c.logger.Info("completed CDC messages batch processing",
		"total", len(messages),
		"processed", len(validEvents),
		"skipped", skippedCount,
		"errors", errorCount)

	if errorCount > 0 && errorCount == len(messages) {
		return fmt.Errorf("failed to process any CDC messages in batch")
	}

	return nil
}

func (c *CDCClient) Close() error {
	c.logger.Info("closing CDC client")
	return c.consumer.Close()
}
