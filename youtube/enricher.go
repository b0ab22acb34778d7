package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"google.golang.org/api/googleapi"

	"clipshelf/auth"
	"clipshelf/catalog"
	"clipshelf/storage"
)

const (
	// DefaultBatchSize is how many videos are enriched concurrently
	// before the pipeline pauses.
	DefaultBatchSize = 10
	// DefaultBatchPause is the idle time between consecutive batches.
	DefaultBatchPause = 100 * time.Millisecond
)

// Enricher decorates video records with live platform metadata. Records
// are processed in fixed-size concurrent batches with a pause between
// batches; each record either gains a complete Enrichment or none at
// all.
type Enricher struct {
	api        VideoAPI
	cache      *storage.CacheStore
	BatchSize  int
	BatchPause time.Duration
}

// NewEnricher creates an enricher. cache may be nil, in which case
// every record goes to the network.
func NewEnricher(api VideoAPI, cache *storage.CacheStore) *Enricher {
	return &Enricher{
		api:        api,
		cache:      cache,
		BatchSize:  DefaultBatchSize,
		BatchPause: DefaultBatchPause,
	}
}

// Enrich returns the input records in the same order, each with its
// Enrichment attached when lookup succeeded. A failed lookup leaves the
// record untouched and the run continues; only a missing API adapter,
// context cancellation, exhausted quota or an expired token abort the
// run. Fresh lookups are flushed to the cache in one write at the end.
func (e *Enricher) Enrich(ctx context.Context, records []catalog.VideoRecord) ([]catalog.VideoRecord, error) {
	if e.api == nil {
		return records, ErrAPIKeyMissing
	}

	out := make([]catalog.VideoRecord, len(records))
	copy(out, records)

	cached := e.cachedEnrichments()
	fresh := make(map[string]catalog.Enrichment)

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	// mu guards fresh and abort across the per-batch goroutines.
	var mu sync.Mutex
	var abort error
	for start := 0; start < len(out) && abort == nil; start += batchSize {
		end := start + batchSize
		if end > len(out) {
			end = len(out)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			if hit, ok := cached[out[i].LocalID]; ok {
				enrichment := hit
				out[i].Enrichment = &enrichment
				continue
			}

			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				enrichment, err := e.lookup(ctx, out[i])
				if err != nil {
					if fatal := fatalEnrichError(err); fatal != nil {
						mu.Lock()
						abort = fatal
						mu.Unlock()
						return
					}
					log.Printf("youtube: enrich %q: %v", out[i].Title, err)
					return
				}
				out[i].Enrichment = enrichment
				mu.Lock()
				fresh[out[i].LocalID] = *enrichment
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		if abort != nil || end == len(out) {
			break
		}
		select {
		case <-ctx.Done():
			abort = ctx.Err()
		case <-time.After(e.BatchPause):
		}
	}

	e.flushCache(cached, fresh)

	if abort != nil {
		return out, fmt.Errorf("enrichment aborted: %w", abort)
	}
	return out, nil
}

// lookup resolves one record to a full Enrichment: search by title and
// author, then fetch statistics and duration for the matched video.
func (e *Enricher) lookup(ctx context.Context, record catalog.VideoRecord) (*catalog.Enrichment, error) {
	query := record.Title
	if record.Author != "" {
		query += " " + record.Author
	}

	videoID, err := e.api.SearchVideo(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	details, err := e.api.VideoDetails(ctx, []string{videoID})
	if err != nil {
		return nil, fmt.Errorf("details %s: %w", videoID, err)
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("details %s: %w", videoID, ErrNoResults)
	}

	return enrichmentFromDetail(details[0]), nil
}

// enrichmentFromDetail converts an API detail into a complete
// Enrichment.
func enrichmentFromDetail(d VideoDetail) *catalog.Enrichment {
	seconds := ParseISODuration(d.DurationISO)
	return &catalog.Enrichment{
		VideoID:         d.ID,
		URL:             WatchURL(d.ID),
		Thumbnail:       d.Thumbnail,
		DurationSeconds: seconds,
		DurationDisplay: FormatDuration(seconds),
		DurationMinutes: DurationMinutes(seconds),
		Likes:           d.Likes,
		Views:           d.Views,
	}
}

// cachedEnrichments loads the valid cache entry, or an empty map.
func (e *Enricher) cachedEnrichments() map[string]catalog.Enrichment {
	if e.cache == nil {
		return map[string]catalog.Enrichment{}
	}
	entry, ok := e.cache.Read()
	if !ok {
		return map[string]catalog.Enrichment{}
	}
	return entry.Data
}

// flushCache writes cache hits and fresh lookups back in one entry.
// A write failure only costs the next run a re-fetch, so it is logged
// and swallowed.
func (e *Enricher) flushCache(cached, fresh map[string]catalog.Enrichment) {
	if e.cache == nil || len(fresh) == 0 {
		return
	}
	merged := make(map[string]catalog.Enrichment, len(cached)+len(fresh))
	for id, enr := range cached {
		merged[id] = enr
	}
	for id, enr := range fresh {
		merged[id] = enr
	}
	if err := e.cache.Write(merged); err != nil {
		log.Printf("youtube: cache write failed: %v", err)
	}
}

// fatalEnrichError reports whether an item failure must abort the whole
// run instead of being swallowed. Quota exhaustion, permission
// failures, token expiry and cancellation affect every remaining item
// the same way, so continuing would only burn requests.
func fatalEnrichError(err error) error {
	switch {
	case errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrForbidden),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) &&
		(apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	return nil
}
