package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"backoffice/src/domain"
	"backoffice/src/infra/kafka"
)

const sourceService = "hierarchy-api"

type messageProducer interface {
	Producer(messages []kafka.Message, topic string) error
}

type DomainEventPublisher struct {
	logger   *slog.Logger
	producer messageProducer
	topic    string
}

func NewDomainEventPublisher(
	logger *slog.Logger,
	producer messageProducer,
	topic string,
) *DomainEventPublisher {
	return &DomainEventPublisher{
		logger:   logger,
		producer: producer,
		topic:    topic,
	}
}

// PublishDomainEvents publica o lote. A chave é o escopo, o que mantém a ordem dos eventos de uma mesma hierarquia.
func (p *DomainEventPublisher) PublishDomainEvents(ctx context.Context, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	kafkaMessages := make([]kafka.Message, 0, len(events))

	for _, event := range events {
		eventBytes, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("failed to marshal domain event", "error", err, "event_id", event.EventID)
			continue
		}

		kafkaMessages = append(kafkaMessages, kafka.Message{
			Key:     ScopeKey(event.Scope),
			Value:   eventBytes,
			Headers: createEventHeaders(event),
		})
	}

	if err := p.producer.Producer(kafkaMessages, p.topic); err != nil {
		return fmt.Errorf("failed to publish domain events to topic %s: %w", p.topic, err)
	}

	p.logger.Info("published domain events", "topic", p.topic, "events_count", len(kafkaMessages))

	return nil
}

// ScopeKey é a chave de partição de um escopo.
func ScopeKey(scope domain.Scope) string {
	return fmt.Sprintf("%d:%s", scope.AccountID, scope.Kind)
}

// createEventHeaders monta os headers usados pelos consumidores para filtrar sem desserializar o corpo.
func createEventHeaders(event domain.DomainEvent) map[string]string {
	headers := map[string]string{
		"event_type":     event.EventType,
		"source_service": sourceService,
		"schema_version": event.SchemaVersion,
		"event_id":       event.EventID,
		"kind":           string(event.Scope.Kind),
		"account_id":     strconv.FormatInt(event.Scope.AccountID, 10),
	}

	if len(event.FieldsChanged) > 0 {
		headers["fields_changed"] = strings.Join(event.FieldsChanged, ",")
	}

	return headers
}
