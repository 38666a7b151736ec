package debezium

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrTombstone marca a mensagem vazia que o Debezium emite depois de um delete.
var ErrTombstone = errors.New("tombstone message")

// CDCSerializer handles parsing and validation of CDC messages
type CDCSerializer struct {
	IncludeTables []string
	SkipSnapshots bool
}

// IsTableMonitored checks if table should be processed.
// An entry ending in * matches by prefix (partitioned tables).
func (s *CDCSerializer) IsTableMonitored(tableName string) bool {
	for _, included := range s.IncludeTables {
		if tableName == included {
			return true
		}
		if prefix, ok := strings.CutSuffix(included, "*"); ok && strings.HasPrefix(tableName, prefix) {
			return true
		}
	}
	return false
}

// ParseCDCEvent deserializes a Kafka message value to a CDC event.
// Both the bare payload and the schema envelope are accepted.
func (s *CDCSerializer) ParseCDCEvent(messageValue []byte) (*CDCEvent, error) {
	trimmed := bytes.TrimSpace(messageValue)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrTombstone
	}

	var envelope cdcEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CDC event: %w", err)
	}

	cdcEvent := envelope.Payload
	if cdcEvent == nil {
		cdcEvent = &CDCEvent{}
		if err := json.Unmarshal(trimmed, cdcEvent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal CDC event: %w", err)
		}
	}

	if err := s.validateCDCEvent(cdcEvent); err != nil {
		return nil, fmt.Errorf("invalid CDC event: %w", err)
	}

	return cdcEvent, nil
}

func (s *CDCSerializer) validateCDCEvent(event *CDCEvent) error {
	if event.Source.Table == "" {
		return fmt.Errorf("missing source table")
	}

	switch event.Operation {
	case "":
		return fmt.Errorf("missing operation")
	case "c", "u", "r":
		// update sem before acontece com REPLICA IDENTITY DEFAULT; o transformer trata
		if event.After == nil {
			return fmt.Errorf("missing 'after' data for operation %s", event.Operation)
		}
	case "d":
		if event.Before == nil {
			return fmt.Errorf("missing 'before' data for delete operation")
		}
	default:
		return fmt.Errorf("invalid operation: %s", event.Operation)
	}

	return nil
}

// ShouldProcessEvent checks if CDC event should be processed based on filtering rules
func (s *CDCSerializer) ShouldProcessEvent(event *CDCEvent) bool {
	if !s.IsTableMonitored(event.Source.Table) {
		return false
	}

	if s.SkipSnapshots && event.Operation == "r" {
		return false
	}

	return true
}

// MapCDCOperation converts CDC operation code to domain operation
func MapCDCOperation(cdcOp string) string {
	switch cdcOp {
	case "c", "r":
		return "INSERT"
	case "u":
		return "UPDATE"
	case "d":
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}
