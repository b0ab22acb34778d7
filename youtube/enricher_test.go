package youtube

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"net/http"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"clipshelf/catalog"
	"clipshelf/storage"
)

// fakeVideoAPI resolves searches and details from canned maps, tracking
// how many lookups run at once.
type fakeVideoAPI struct {
	searchIDs map[string]string      // query -> video ID
	details   map[string]VideoDetail // video ID -> detail
	searchErr map[string]error       // query -> error

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	searchCount int
	settled     int
	// settledAtStart[i] is how many calls had fully settled when the
	// i-th call (in start order) began.
	settledAtStart []int
}

func (f *fakeVideoAPI) SearchVideo(_ context.Context, query string) (string, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.searchCount++
	f.settledAtStart = append(f.settledAtStart, f.settled)
	f.mu.Unlock()

	// Hold the slot briefly so batch-mates overlap measurably.
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.settled++
	f.mu.Unlock()

	if err, ok := f.searchErr[query]; ok {
		return "", err
	}
	id, ok := f.searchIDs[query]
	if !ok {
		return "", ErrNoResults
	}
	return id, nil
}

func (f *fakeVideoAPI) VideoDetails(_ context.Context, ids []string) ([]VideoDetail, error) {
	var out []VideoDetail
	for _, id := range ids {
		if d, ok := f.details[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func testRecords(n int) []catalog.VideoRecord {
	records := make([]catalog.VideoRecord, n)
	for i := range records {
		records[i] = catalog.VideoRecord{
			LocalID: fmt.Sprintf("local-%d", i),
			Title:   fmt.Sprintf("video %d", i),
			Author:  "author",
		}
	}
	return records
}

// fullFake serves every record from testRecords(n).
func fullFake(n int) *fakeVideoAPI {
	api := &fakeVideoAPI{
		searchIDs: map[string]string{},
		details:   map[string]VideoDetail{},
	}
	for i := 0; i < n; i++ {
		query := fmt.Sprintf("video %d author", i)
		id := fmt.Sprintf("yt-%d", i)
		api.searchIDs[query] = id
		api.details[id] = VideoDetail{
			ID:          id,
			DurationISO: "PT4M5S",
			Likes:       int64(i * 10),
			Views:       int64(i * 100),
		}
	}
	return api
}

func TestEnrichAllRecords(t *testing.T) {
	api := fullFake(3)
	enricher := NewEnricher(api, nil)

	got, err := enricher.Enrich(context.Background(), testRecords(3))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i, record := range got {
		if !record.Enriched() {
			t.Fatalf("record %d not enriched", i)
		}
		if record.Enrichment.VideoID != fmt.Sprintf("yt-%d", i) {
			t.Errorf("record %d video = %q", i, record.Enrichment.VideoID)
		}
		if record.Enrichment.DurationSeconds != 245 {
			t.Errorf("record %d duration = %d, want 245", i, record.Enrichment.DurationSeconds)
		}
		if record.Enrichment.DurationDisplay != "4:05" {
			t.Errorf("record %d display = %q, want 4:05", i, record.Enrichment.DurationDisplay)
		}
		if record.Enrichment.URL != WatchURL(record.Enrichment.VideoID) {
			t.Errorf("record %d url = %q", i, record.Enrichment.URL)
		}
	}
}

// Concurrency never exceeds the batch size: the batch boundary is a
// hard sync point.
func TestEnrichBatchBoundary(t *testing.T) {
	api := fullFake(25)
	enricher := NewEnricher(api, nil)
	enricher.BatchPause = time.Millisecond

	got, err := enricher.Enrich(context.Background(), testRecords(25))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	for i, record := range got {
		if !record.Enriched() {
			t.Fatalf("record %d not enriched", i)
		}
	}
	if api.maxInFlight > DefaultBatchSize {
		t.Errorf("max in-flight = %d, want <= %d", api.maxInFlight, DefaultBatchSize)
	}
	if api.searchCount != 25 {
		t.Errorf("searches = %d, want 25", api.searchCount)
	}

	// No call of batch k may start before every call of the earlier
	// batches has settled.
	for i, settled := range api.settledAtStart {
		batch := i / DefaultBatchSize
		if settled < batch*DefaultBatchSize {
			t.Errorf("call %d (batch %d) started with only %d settled, want >= %d",
				i, batch, settled, batch*DefaultBatchSize)
		}
	}
}

// A record that cannot be matched stays exactly as it was; the others
// still get enriched.
func TestEnrichFailureLeavesRecordUntouched(t *testing.T) {
	api := fullFake(3)
	api.searchErr = map[string]error{"video 1 author": errors.New("transient glitch")}
	enricher := NewEnricher(api, nil)

	got, err := enricher.Enrich(context.Background(), testRecords(3))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got[1].Enriched() {
		t.Error("record 1 should not be enriched")
	}
	if !got[0].Enriched() || !got[2].Enriched() {
		t.Error("records 0 and 2 should be enriched")
	}
}

func TestEnrichQuotaAborts(t *testing.T) {
	api := fullFake(3)
	api.searchErr = map[string]error{
		"video 0 author": fmt.Errorf("%w: daily limit", ErrQuotaExceeded),
	}
	enricher := NewEnricher(api, nil)

	_, err := enricher.Enrich(context.Background(), testRecords(3))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
}

// A forbidden response means every remaining lookup would fail the same
// way: the run must abort and surface the permission failure instead of
// finishing "successfully" with nothing enriched.
func TestEnrichForbiddenAborts(t *testing.T) {
	api := fullFake(15)
	forbidden := &googleapi.Error{
		Code:   http.StatusForbidden,
		Errors: []googleapi.ErrorItem{{Reason: "forbidden"}},
	}
	api.searchErr = map[string]error{}
	for i := 0; i < 15; i++ {
		api.searchErr[fmt.Sprintf("video %d author", i)] = forbidden
	}
	enricher := NewEnricher(api, nil)
	enricher.BatchPause = time.Millisecond

	_, err := enricher.Enrich(context.Background(), testRecords(15))
	if err == nil {
		t.Fatal("expected the run to abort")
	}
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want it to wrap ErrForbidden", err)
	}
	// The second batch must never start.
	if api.searchCount > DefaultBatchSize {
		t.Errorf("searches = %d, want <= %d (run aborted after first batch)",
			api.searchCount, DefaultBatchSize)
	}
}

func TestEnrichMissingAPI(t *testing.T) {
	enricher := NewEnricher(nil, nil)
	_, err := enricher.Enrich(context.Background(), testRecords(1))
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("err = %v, want ErrAPIKeyMissing", err)
	}
}

// Cached records skip the network entirely, and fresh lookups land in
// the cache for the next run.
func TestEnrichUsesAndFillsCache(t *testing.T) {
	dir := t.TempDir()
	cache := storage.NewCacheStore(filepath.Join(dir, "cache.json"), 0)

	seeded := catalog.Enrichment{VideoID: "cached-id", DurationSeconds: 60, DurationDisplay: "1:00"}
	if err := cache.Write(map[string]catalog.Enrichment{"local-0": seeded}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	api := fullFake(2)
	enricher := NewEnricher(api, cache)

	got, err := enricher.Enrich(context.Background(), testRecords(2))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if got[0].Enrichment == nil || got[0].Enrichment.VideoID != "cached-id" {
		t.Fatalf("record 0 = %+v, want the cached enrichment", got[0].Enrichment)
	}
	if api.searchCount != 1 {
		t.Errorf("searches = %d, want 1 (cache hit skips network)", api.searchCount)
	}

	entry, ok := cache.Read()
	if !ok {
		t.Fatal("cache entry missing after enrich")
	}
	if _, ok := entry.Data["local-1"]; !ok {
		t.Error("fresh lookup not written to cache")
	}
	if cachedStill, ok := entry.Data["local-0"]; !ok || cachedStill.VideoID != "cached-id" {
		t.Error("cache hit dropped from the rewritten entry")
	}
}

// Output preserves input order and length even with concurrency in
// play.
func TestEnrichPreservesOrder(t *testing.T) {
	api := fullFake(12)
	enricher := NewEnricher(api, nil)
	enricher.BatchPause = time.Millisecond

	in := testRecords(12)
	got, err := enricher.Enrich(context.Background(), in)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d records, want %d", len(got), len(in))
	}
	for i := range got {
		if got[i].LocalID != in[i].LocalID {
			t.Errorf("record %d = %q, want %q", i, got[i].LocalID, in[i].LocalID)
		}
	}
}
