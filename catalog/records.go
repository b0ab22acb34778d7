package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadRecords loads a JSON array of video records from path.
func ReadRecords(path string) ([]VideoRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	var records []VideoRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// WriteRecords writes records to path as an indented JSON array.
func WriteRecords(path string, records []VideoRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}
