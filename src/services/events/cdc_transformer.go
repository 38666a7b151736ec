package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/infra/debezium"

	"github.com/google/uuid"
)

const schemaVersion = "v1"

// Colunas de hierarchy_records que interessam aos consumidores. updated_at fica de fora.
var trackedColumns = []string{"serial_id", "parent_serial_id", "name", "type_name", "properties"}

type CDCTransformer struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewCDCTransformer(logger *slog.Logger) *CDCTransformer {
	return &CDCTransformer{
		logger: logger,
		now:    time.Now,
	}
}

// TransformCDCEvent converts a hierarchy_records change into a domain event.
// It returns nil for other tables and for updates that touch no tracked column.
func (t *CDCTransformer) TransformCDCEvent(ctx context.Context, cdcEvent *debezium.CDCEvent) (*domain.DomainEvent, error) {
	if cdcEvent.Source.Table != domain.TableHierarchyRecords {
		t.logger.Debug("ignoring CDC event from unknown table", "table", cdcEvent.Source.Table)
		return nil, nil
	}

	before := normalizeRow(cdcEvent.Before)
	after := normalizeRow(cdcEvent.After)

	row := after
	if row == nil {
		row = before
	}

	scope, serialID, err := identify(row)
	if err != nil {
		return nil, err
	}

	event := &domain.DomainEvent{
		EventID:       uuid.NewString(),
		SchemaVersion: schemaVersion,
		OccurredAt:    t.occurredAt(cdcEvent),
		Scope:         scope,
		SerialID:      serialID,
	}

	switch debezium.MapCDCOperation(cdcEvent.Operation) {
	case domain.OperationInsert:
		event.EventType = domain.EventRecordCreated
		event.FieldsChanged = presentColumns(after)

	case domain.OperationUpdate:
		if before == nil {
			// REPLICA IDENTITY DEFAULT: sem before não dá para saber o que mudou
			event.EventType = domain.EventRecordUpdated
			break
		}

		event.FieldsChanged = findChangedFields(before, after)
		if len(event.FieldsChanged) == 0 {
			return nil, nil
		}

		event.EventType = domain.EventRecordUpdated
		if slices.Contains(event.FieldsChanged, "parent_serial_id") {
			event.EventType = domain.EventRecordMoved
		}

	case domain.OperationDelete:
		event.EventType = domain.EventRecordDeleted

	default:
		return nil, fmt.Errorf("unsupported CDC operation %q", cdcEvent.Operation)
	}

	if event.Before, err = marshalRow(before); err != nil {
		return nil, err
	}
	if event.After, err = marshalRow(after); err != nil {
		return nil, err
	}

	t.logger.Debug("transformed CDC event",
		"event_type", event.EventType,
		"account_id", scope.AccountID,
		"kind", scope.Kind,
		"serial_id", serialID,
		"fields_changed", event.FieldsChanged)

	return event, nil
}

func (t *CDCTransformer) occurredAt(cdcEvent *debezium.CDCEvent) time.Time {
	if cdcEvent.TsMs > 0 {
		return time.UnixMilli(cdcEvent.TsMs).UTC()
	}
	return t.now().UTC()
}

func identify(row map[string]interface{}) (domain.Scope, string, error) {
	accountID, ok := toInt64(row["account_id"])
	if !ok {
		return domain.Scope{}, "", fmt.Errorf("missing account_id in CDC event")
	}

	kind, err := entities.ParseKind(fmt.Sprint(row["kind"]))
	if err != nil {
		return domain.Scope{}, "", fmt.Errorf("invalid kind in CDC event: %w", err)
	}

	serialID, _ := row["serial_id"].(string)
	if serialID == "" {
		return domain.Scope{}, "", fmt.Errorf("missing serial_id in CDC event")
	}

	return domain.Scope{AccountID: accountID, Kind: kind}, serialID, nil
}

// normalizeRow decodifica properties, que o Debezium entrega como string JSON.
func normalizeRow(row map[string]interface{}) map[string]interface{} {
	if row == nil {
		return nil
	}

	out := make(map[string]interface{}, len(row))
	for column, value := range row {
		out[column] = value
	}

	if raw, ok := out["properties"].(string); ok {
		var decoded interface{}
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			out["properties"] = decoded
		}
	}

	return out
}

func marshalRow(row map[string]interface{}) (json.RawMessage, error) {
	if row == nil {
		return nil, nil
	}
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal CDC row: %w", err)
	}
	return data, nil
}

func presentColumns(row map[string]interface{}) []string {
	var fields []string
	for _, column := range trackedColumns {
		if value, exists := row[column]; exists && value != nil {
			fields = append(fields, column)
		}
	}
	return fields
}

func findChangedFields(before, after map[string]interface{}) []string {
	var changed []string
	for _, column := range trackedColumns {
		if !compareValues(before[column], after[column]) {
			changed = append(changed, column)
		}
	}
	return changed
}

func compareValues(a, b interface{}) bool {
	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)
	return string(aJSON) == string(bJSON)
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
