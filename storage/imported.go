package storage

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"clipshelf/catalog"
)

const importedLockTimeout = 5 * time.Second

// importedData is the top-level JSON structure of the imported-records file.
type importedData struct {
	UpdatedAt time.Time             `json:"updated_at"`
	Records   []catalog.VideoRecord `json:"records"`
}

// ImportedStore persists catalog records created by playlist imports so
// they can be re-hydrated on the next run. Unlike the enrichment cache
// this data has no TTL; imported records are permanent.
type ImportedStore struct {
	path string
	mu   sync.Mutex
}

// NewImportedStore creates an imported-records store at path.
func NewImportedStore(path string) *ImportedStore {
	return &ImportedStore{path: path}
}

// Load returns all previously imported records. A missing file yields
// an empty list; a corrupt file is a real error since silently dropping
// imported records would lose user data.
func (s *ImportedStore) Load() ([]catalog.VideoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &StorageError{Op: "read", Entity: "imported", Err: err}
	}

	var stored importedData
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, &StorageError{Op: "read", Entity: "imported", Err: ErrStorageCorrupt}
	}

	return stored.Records, nil
}

// Append adds records to the stored list and persists the result
// atomically. Records whose LocalID is already present are skipped, so
// re-importing the same playlist stays idempotent.
func (s *ImportedStore) Append(records []catalog.VideoRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lock := NewFileLock(s.path)
	if err := lock.Lock(importedLockTimeout); err != nil {
		return &StorageError{Op: "lock", Entity: "imported", Err: err}
	}
	defer lock.Unlock()

	existing := importedData{}
	if data, err := os.ReadFile(s.path); err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return &StorageError{Op: "read", Entity: "imported", Err: ErrStorageCorrupt}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Op: "read", Entity: "imported", Err: err}
	}

	seen := make(map[string]bool, len(existing.Records))
	for _, r := range existing.Records {
		seen[r.LocalID] = true
	}
	for _, r := range records {
		if seen[r.LocalID] {
			continue
		}
		existing.Records = append(existing.Records, r)
		seen[r.LocalID] = true
	}
	existing.UpdatedAt = time.Now()

	writer, err := NewAtomicWriter(s.path)
	if err != nil {
		return &StorageError{Op: "write", Entity: "imported", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&existing); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Entity: "imported", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "imported", Err: err}
	}

	return nil
}
