package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"backoffice/src/domain/entities"
)

type recordsFile struct {
	Records []entities.Record `json:"records"`
}

// LoadRecords lê um export: um array de registros ou um objeto com "records".
func LoadRecords(path string) ([]entities.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []entities.Record{}, nil
	}

	if data[0] == '[' {
		var records []entities.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return records, nil
	}

	var file recordsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if file.Records == nil {
		return []entities.Record{}, nil
	}
	return file.Records, nil
}
