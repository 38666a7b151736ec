package hierarchy

import (
	"fmt"
	"strings"

	"backoffice/src/domain"
)

func validateInput(input domain.RecordInput) error {
	if !input.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidRecord, input.Kind)
	}

	if strings.TrimSpace(input.SerialID) == "" {
		return fmt.Errorf("%w: serial id is required", domain.ErrInvalidRecord)
	}

	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidRecord)
	}

	if input.ParentSerialID != nil && *input.ParentSerialID == input.SerialID {
		return fmt.Errorf("%w: record %s cannot be its own parent", domain.ErrCycleDetected, input.SerialID)
	}

	return nil
}

// normalizeInput remove espaços e trata parent vazio como root.
func normalizeInput(input domain.RecordInput) domain.RecordInput {
	input.SerialID = strings.TrimSpace(input.SerialID)
	input.Name = strings.TrimSpace(input.Name)
	input.TypeName = strings.TrimSpace(input.TypeName)

	if input.ParentSerialID != nil {
		parent := strings.TrimSpace(*input.ParentSerialID)
		if parent == "" {
			input.ParentSerialID = nil
		} else {
			input.ParentSerialID = &parent
		}
	}

	return input
}
