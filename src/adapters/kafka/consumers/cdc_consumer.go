package consumers

import (
	"context"
	"fmt"
	"log/slog"

	"backoffice/src/domain"
	"backoffice/src/infra/debezium"
	"backoffice/src/services/events"
)

type cdcEventSource interface {
	ConsumeCDCEventsBatch(ctx context.Context, handler debezium.CDCBatchEventHandler) error
	Close() error
}

type domainEventPublisher interface {
	PublishDomainEvents(ctx context.Context, events []domain.DomainEvent) error
}

type scopeInvalidator interface {
	InvalidateScopes(ctx context.Context, scopes []domain.Scope) error
}

// CDCConsumer transforma as mudanças da tabela em eventos de domínio e limpa o cache dos escopos tocados.
type CDCConsumer struct {
	logger         *slog.Logger
	cdcClient      cdcEventSource
	transformer    *events.CDCTransformer
	eventPublisher domainEventPublisher
	invalidator    scopeInvalidator
}

func NewCDCConsumer(
	logger *slog.Logger,
	cdcClient cdcEventSource,
	transformer *events.CDCTransformer,
	eventPublisher domainEventPublisher,
	invalidator scopeInvalidator,
) *CDCConsumer {
	return &CDCConsumer{
		logger:         logger,
		cdcClient:      cdcClient,
		transformer:    transformer,
		eventPublisher: eventPublisher,
		invalidator:    invalidator,
	}
}

func (c *CDCConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting CDC consumer")

	batchHandler := func(ctx context.Context, cdcEvents []*debezium.CDCEvent) error {
		return c.handleCDCEventsBatch(ctx, cdcEvents)
	}

	return c.cdcClient.ConsumeCDCEventsBatch(ctx, batchHandler)
}

func (c *CDCConsumer) handleCDCEventsBatch(ctx context.Context, cdcEvents []*debezium.CDCEvent) error {
	if len(cdcEvents) == 0 {
		return nil
	}

	c.logger.Debug("Processing CDC events batch", "count", len(cdcEvents))

	var domainEvents []domain.DomainEvent
	var scopes []domain.Scope
	errorCount := 0

	for _, cdcEvent := range cdcEvents {
		domainEvent, err := c.transformer.TransformCDCEvent(ctx, cdcEvent)
		if err != nil {
			c.logger.Error("Failed to transform CDC event",
				"error", err,
				"table", cdcEvent.Source.Table,
				"operation", cdcEvent.Operation)
			errorCount++
			continue
		}

		// nil: update sem mudança relevante
		if domainEvent == nil {
			continue
		}

		domainEvents = append(domainEvents, *domainEvent)
		scopes = append(scopes, domainEvent.Scope)
	}

	// Invalida antes de publicar
	if c.invalidator != nil && len(scopes) > 0 {
		if err := c.invalidator.InvalidateScopes(ctx, scopes); err != nil {
			c.logger.Error("Failed to invalidate cache", "error", err, "scopes", len(scopes))
		}
	}

	if len(domainEvents) > 0 {
		if err := c.eventPublisher.PublishDomainEvents(ctx, domainEvents); err != nil {
			c.logger.Error("Failed to publish domain events batch",
				"error", err,
				"events_count", len(domainEvents))
			return fmt.Errorf("failed to publish domain events batch: %w", err)
		}

		c.logger.Info("Successfully published domain events batch",
			"cdc_events", len(cdcEvents),
			"domain_events_published", len(domainEvents))
	}

	if errorCount > 0 {
		c.logger.Warn("Some CDC events failed to transform",
			"failed", errorCount,
			"successful", len(cdcEvents)-errorCount)
	}

	return nil
}

// Close gracefully shuts down the CDC consumer
func (c *CDCConsumer) Close() error {
	c.logger.Info("Closing CDC consumer")
	return c.cdcClient.Close()
}
