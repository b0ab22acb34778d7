package youtube

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"clipshelf/catalog"
	"clipshelf/storage"
)

// importVideoAPI is a VideoAPI fake for import runs: details only, with
// the chunk sizes recorded.
type importVideoAPI struct {
	details    map[string]VideoDetail
	chunkSizes []int
	detailsErr error
}

func (f *importVideoAPI) SearchVideo(context.Context, string) (string, error) {
	return "", ErrNoResults
}

func (f *importVideoAPI) VideoDetails(_ context.Context, ids []string) ([]VideoDetail, error) {
	f.chunkSizes = append(f.chunkSizes, len(ids))
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	var out []VideoDetail
	for _, id := range ids {
		if d, ok := f.details[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func importFixture(itemCount int) (*fakePlaylistAPI, *importVideoAPI) {
	items := make([]catalog.VideoStub, itemCount)
	details := make(map[string]VideoDetail, itemCount)
	for i := range items {
		id := fmt.Sprintf("vid-%d", i)
		items[i] = catalog.VideoStub{
			VideoID: id,
			Title:   fmt.Sprintf("stub title %d", i),
			Owner:   "stub owner",
		}
		details[id] = VideoDetail{
			ID:           id,
			Title:        fmt.Sprintf("detail title %d", i),
			ChannelTitle: "detail owner",
			Description:  fmt.Sprintf("description %d", i),
			DurationISO:  "PT2M",
		}
	}

	playlistAPI := &fakePlaylistAPI{itemPages: map[string]*PlaylistItemsPage{
		"": {Items: items},
	}}
	return playlistAPI, &importVideoAPI{details: details}
}

func newTestImporter(playlistAPI PlaylistAPI, videoAPI VideoAPI, imported *storage.ImportedStore) *Importer {
	im := NewImporter(newTestFetcher(playlistAPI), videoAPI, imported)
	im.RetryConfig = fastRetry()
	return im
}

var testPlaylist = catalog.PlaylistSummary{ID: "PLx", Title: "watch later"}

func TestImportPlaylist(t *testing.T) {
	playlistAPI, videoAPI := importFixture(3)
	im := newTestImporter(playlistAPI, videoAPI, nil)

	records, err := im.ImportPlaylist(context.Background(), testPlaylist, 7)
	if err != nil {
		t.Fatalf("ImportPlaylist: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	seen := map[string]bool{}
	for i, record := range records {
		if record.LocalID == "" || seen[record.LocalID] {
			t.Errorf("record %d has missing or duplicate local ID %q", i, record.LocalID)
		}
		seen[record.LocalID] = true

		if record.Title != fmt.Sprintf("detail title %d", i) {
			t.Errorf("record %d title = %q", i, record.Title)
		}
		if record.Author != "detail owner" {
			t.Errorf("record %d author = %q", i, record.Author)
		}
		if record.CategoryID != 7 {
			t.Errorf("record %d category = %d", i, record.CategoryID)
		}
		if !record.Imported {
			t.Errorf("record %d not marked imported", i)
		}
		if record.SourcePlaylist != "watch later" {
			t.Errorf("record %d source = %q", i, record.SourcePlaylist)
		}
		if !record.Enriched() {
			t.Errorf("record %d not enriched", i)
		}
		if record.Enrichment.DurationSeconds != 120 {
			t.Errorf("record %d duration = %d, want 120", i, record.Enrichment.DurationSeconds)
		}
	}
}

// A video the details call does not return (deleted, private) is still
// imported from its stub, unenriched.
func TestImportPlaylistMissingDetail(t *testing.T) {
	playlistAPI, videoAPI := importFixture(3)
	delete(videoAPI.details, "vid-1")
	im := newTestImporter(playlistAPI, videoAPI, nil)

	records, err := im.ImportPlaylist(context.Background(), testPlaylist, 7)
	if err != nil {
		t.Fatalf("ImportPlaylist: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	missing := records[1]
	if missing.Enriched() {
		t.Error("record without detail should not be enriched")
	}
	if missing.Title != "stub title 1" || missing.Author != "stub owner" {
		t.Errorf("record without detail = %+v, want stub data kept", missing)
	}
	if !missing.Imported {
		t.Error("record without detail must still be marked imported")
	}
}

func TestImportPlaylistChunksDetails(t *testing.T) {
	playlistAPI, videoAPI := importFixture(120)
	im := newTestImporter(playlistAPI, videoAPI, nil)

	records, err := im.ImportPlaylist(context.Background(), testPlaylist, 7)
	if err != nil {
		t.Fatalf("ImportPlaylist: %v", err)
	}
	if len(records) != 120 {
		t.Fatalf("got %d records, want 120", len(records))
	}

	want := []int{50, 50, 20}
	if len(videoAPI.chunkSizes) != len(want) {
		t.Fatalf("chunks = %v, want %v", videoAPI.chunkSizes, want)
	}
	for i, size := range want {
		if videoAPI.chunkSizes[i] != size {
			t.Errorf("chunk %d = %d, want %d", i, videoAPI.chunkSizes[i], size)
		}
	}
}

func TestImportPlaylistTruncatesSummary(t *testing.T) {
	playlistAPI, videoAPI := importFixture(1)
	long := strings.Repeat("é", 600)
	d := videoAPI.details["vid-0"]
	d.Description = long
	videoAPI.details["vid-0"] = d
	im := newTestImporter(playlistAPI, videoAPI, nil)

	records, err := im.ImportPlaylist(context.Background(), testPlaylist, 7)
	if err != nil {
		t.Fatalf("ImportPlaylist: %v", err)
	}
	if got := len([]rune(records[0].Summary)); got != 500 {
		t.Errorf("summary length = %d runes, want 500", got)
	}
}

func TestImportPlaylistDetailsErrorIsFatal(t *testing.T) {
	playlistAPI, videoAPI := importFixture(2)
	videoAPI.detailsErr = fmt.Errorf("%w: over quota", ErrQuotaExceeded)
	im := newTestImporter(playlistAPI, videoAPI, nil)

	_, err := im.ImportPlaylist(context.Background(), testPlaylist, 7)
	if err == nil {
		t.Fatal("expected an error")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("err = %T, want *FetchError", err)
	}
	if fetchErr.Stage != "video-details" {
		t.Errorf("Stage = %q, want %q", fetchErr.Stage, "video-details")
	}
}

func TestImportPlaylistPersistsRecords(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewImportedStore(filepath.Join(dir, "imported.json"))

	playlistAPI, videoAPI := importFixture(2)
	im := newTestImporter(playlistAPI, videoAPI, store)

	records, err := im.ImportPlaylist(context.Background(), testPlaylist, 7)
	if err != nil {
		t.Fatalf("ImportPlaylist: %v", err)
	}

	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(persisted) != len(records) {
		t.Fatalf("persisted %d records, want %d", len(persisted), len(records))
	}
}

func TestImportEmptyPlaylist(t *testing.T) {
	playlistAPI := &fakePlaylistAPI{itemPages: map[string]*PlaylistItemsPage{
		"": {},
	}}
	im := newTestImporter(playlistAPI, &importVideoAPI{}, nil)

	records, err := im.ImportPlaylist(context.Background(), testPlaylist, 7)
	if err != nil {
		t.Fatalf("ImportPlaylist: %v", err)
	}
	if records != nil {
		t.Errorf("got %d records, want none", len(records))
	}
}
