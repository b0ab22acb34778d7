package youtube

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"clipshelf/catalog"
	"clipshelf/retry"
	"clipshelf/storage"
)

const (
	// detailsChunkSize is the videos.list ID limit per request.
	detailsChunkSize = 50
	// summaryRuneLimit caps the imported summary length.
	summaryRuneLimit = 500
)

// Importer turns a playlist into fully-formed catalog records: it
// fetches the playlist's items, bulk-fetches their details in API-sized
// chunks and zips the two by video ID. Items whose details the API does
// not return are imported anyway, unenriched.
type Importer struct {
	fetcher     *Fetcher
	api         VideoAPI
	imported    *storage.ImportedStore
	RetryConfig retry.Config
}

// NewImporter creates an importer. imported may be nil to skip
// persisting the results.
func NewImporter(fetcher *Fetcher, api VideoAPI, imported *storage.ImportedStore) *Importer {
	return &Importer{
		fetcher:     fetcher,
		api:         api,
		imported:    imported,
		RetryConfig: retry.DefaultConfig(),
	}
}

// ImportPlaylist imports every item of a playlist as a VideoRecord with
// the given category. One record per playlist item, in playlist order.
func (im *Importer) ImportPlaylist(ctx context.Context, playlist catalog.PlaylistSummary, categoryID int) ([]catalog.VideoRecord, error) {
	stubs, err := im.fetcher.PlaylistItems(ctx, playlist.ID)
	if err != nil {
		return nil, err
	}
	if len(stubs) == 0 {
		return nil, nil
	}

	details, err := im.detailsByID(ctx, stubs)
	if err != nil {
		return nil, &FetchError{Stage: "video-details", Playlist: playlist.ID, Err: err}
	}

	records := make([]catalog.VideoRecord, 0, len(stubs))
	for _, stub := range stubs {
		records = append(records, buildRecord(stub, details, playlist, categoryID))
	}

	if im.imported != nil {
		if err := im.imported.Append(records); err != nil {
			log.Printf("youtube: persisting imported records failed: %v", err)
		}
	}
	return records, nil
}

// detailsByID bulk-fetches details for the stubs' video IDs, chunked to
// the API limit, and indexes them by video ID.
func (im *Importer) detailsByID(ctx context.Context, stubs []catalog.VideoStub) (map[string]VideoDetail, error) {
	ids := make([]string, 0, len(stubs))
	for _, stub := range stubs {
		if stub.VideoID != "" {
			ids = append(ids, stub.VideoID)
		}
	}

	byID := make(map[string]VideoDetail, len(ids))
	for start := 0; start < len(ids); start += detailsChunkSize {
		end := start + detailsChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		var chunk []VideoDetail
		err := retry.Do(ctx, im.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
			var err error
			chunk, err = im.api.VideoDetails(ctx, ids[start:end])
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("chunk %d-%d: %w", start, end, err)
		}
		for _, detail := range chunk {
			byID[detail.ID] = detail
		}
	}
	return byID, nil
}

// buildRecord zips one playlist stub with its detail, if present.
func buildRecord(stub catalog.VideoStub, details map[string]VideoDetail, playlist catalog.PlaylistSummary, categoryID int) catalog.VideoRecord {
	record := catalog.VideoRecord{
		LocalID:        uuid.NewString(),
		Title:          stub.Title,
		Author:         stub.Owner,
		CategoryID:     categoryID,
		Imported:       true,
		SourcePlaylist: playlist.Title,
	}

	detail, ok := details[stub.VideoID]
	if !ok {
		// Deleted or private video; keep the stub data, no enrichment.
		return record
	}

	if detail.Title != "" {
		record.Title = detail.Title
	}
	if detail.ChannelTitle != "" {
		record.Author = detail.ChannelTitle
	}
	record.Summary = truncateRunes(detail.Description, summaryRuneLimit)
	record.Enrichment = enrichmentFromDetail(detail)
	return record
}

// truncateRunes cuts s to at most limit runes.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
