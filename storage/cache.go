package storage

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"clipshelf/catalog"
)

const (
	// DefaultCacheTTL bounds how long a cache entry is trusted.
	DefaultCacheTTL = 24 * time.Hour

	cacheLockTimeout = 5 * time.Second
)

// CacheEntry is the persisted enrichment cache blob: one timestamp for
// the whole entry plus the enrichment payload per local video ID.
type CacheEntry struct {
	FetchedAt time.Time                     `json:"fetched_at"`
	Data      map[string]catalog.Enrichment `json:"data"`
}

// CacheStore is a TTL-bounded file cache of enrichment results keyed by
// LocalID. Reads fail soft: a missing, corrupt or expired file is
// reported as absent, never as an error, so a broken cache can only
// cost a refetch, not a failed run.
type CacheStore struct {
	path string
	ttl  time.Duration
	mu   sync.Mutex

	now func() time.Time // overridable in tests
}

// NewCacheStore creates a cache store at path. A non-positive ttl falls
// back to DefaultCacheTTL.
func NewCacheStore(path string, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheStore{path: path, ttl: ttl, now: time.Now}
}

// Read returns the cache entry if present and still within its TTL.
// Stale or structurally invalid entries are treated as absent.
func (s *CacheStore) Read() (*CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("storage: cache read failed, treating as absent: %v", err)
		}
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Printf("storage: cache corrupt, treating as absent: %v", err)
		return nil, false
	}
	if entry.Data == nil {
		return nil, false
	}

	if s.now().Sub(entry.FetchedAt) >= s.ttl {
		return nil, false
	}

	return &entry, true
}

// Write replaces the whole cache entry with data, stamped with the
// current time. Callers merge in memory before writing; no partial
// merge happens here.
func (s *CacheStore) Write(data map[string]catalog.Enrichment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := NewFileLock(s.path)
	if err := lock.Lock(cacheLockTimeout); err != nil {
		return &StorageError{Op: "lock", Entity: "cache", Err: err}
	}
	defer lock.Unlock()

	entry := CacheEntry{FetchedAt: s.now(), Data: data}

	writer, err := NewAtomicWriter(s.path)
	if err != nil {
		return &StorageError{Op: "write", Entity: "cache", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&entry); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Entity: "cache", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "cache", Err: err}
	}

	return nil
}
