// Package catalog defines the video catalog data model shared by the
// enrichment and import pipelines.
package catalog

// Enrichment holds the live metadata fetched for a video from the
// external catalog API. A record is either fully enriched (all fields
// populated) or not enriched at all; partially filled Enrichment values
// are never produced.
type Enrichment struct {
	// VideoID is the platform video ID (e.g., "dQw4w9WgXcQ").
	VideoID string `json:"video_id"`
	// URL is the canonical watch URL for the video.
	URL string `json:"url"`
	// Thumbnail is the URL of the medium-size thumbnail image.
	Thumbnail string `json:"thumbnail,omitempty"`
	// DurationSeconds is the total video length in seconds.
	DurationSeconds int `json:"duration_seconds"`
	// DurationDisplay is the human-readable duration ("1:02:03" or "4:05").
	DurationDisplay string `json:"duration_display"`
	// DurationMinutes is the length rounded to whole minutes.
	DurationMinutes int `json:"duration_minutes"`
	// Likes is the like count at fetch time.
	Likes int64 `json:"likes"`
	// Views is the view count at fetch time.
	Views int64 `json:"views"`
}

// VideoRecord is one entry of the local catalog. The seed list supplies
// LocalID, Title, Author and CategoryID; the enrichment pipeline fills
// Enrichment; the import pipeline creates records with Imported set.
type VideoRecord struct {
	// LocalID is the stable local identifier, assigned at seed or import time.
	LocalID string `json:"local_id"`
	// Title is the video title as locally known.
	Title string `json:"title"`
	// Author is the creator/channel name as locally known.
	Author string `json:"author"`
	// CategoryID is the catalog category this video belongs to.
	CategoryID int `json:"category_id"`
	// Summary is a short description. For imported videos it is derived
	// from the source description.
	Summary string `json:"summary,omitempty"`

	// Enrichment is nil until the record has been enriched. A non-nil
	// value is always fully populated.
	Enrichment *Enrichment `json:"enrichment,omitempty"`

	// Imported marks records created by a playlist import. Once set it
	// is never cleared.
	Imported bool `json:"imported,omitempty"`
	// SourcePlaylist is the title of the playlist an imported record
	// came from.
	SourcePlaylist string `json:"source_playlist,omitempty"`
}

// Enriched reports whether the record carries enrichment data.
func (v VideoRecord) Enriched() bool { return v.Enrichment != nil }

// PlaylistSummary describes one playlist available for import.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	ItemCount   int64  `json:"item_count"`
	// Special marks pseudo-playlists such as the account's liked videos,
	// whose item count is not reported by the API.
	Special bool `json:"special,omitempty"`
}

// VideoStub is a playlist item before its details have been fetched.
type VideoStub struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Owner     string `json:"owner,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}
