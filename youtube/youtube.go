// Package youtube implements the enrichment and import pipelines against
// the YouTube Data API v3: channel resolution, paginated playlist
// fetching, batched video enrichment, and playlist import.
package youtube

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline operations.
var (
	// ErrChannelNotFound indicates every resolution strategy was exhausted.
	ErrChannelNotFound = errors.New("youtube: channel not found")
	// ErrPlaylistNotFound indicates the playlist does not exist or is private.
	ErrPlaylistNotFound = errors.New("youtube: playlist not found")
	// ErrNoResults indicates a lookup returned an empty result set.
	ErrNoResults = errors.New("youtube: no results")
	// ErrQuotaExceeded indicates the API rejected the request for quota
	// or rate reasons. The upstream detail is attached via wrapping.
	ErrQuotaExceeded = errors.New("youtube: quota exceeded")
	// ErrForbidden indicates the API refused the request outright
	// (revoked key, missing permission). The upstream detail is attached
	// via wrapping.
	ErrForbidden = errors.New("youtube: access forbidden")
	// ErrAPIKeyMissing indicates no API key was configured.
	ErrAPIKeyMissing = errors.New("youtube: api key missing")
)

// FetchError wraps fetch errors with context about what failed.
// Use errors.As() to extract it:
//
//	var fetchErr *youtube.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("Fetching %s for %s failed: %v\n", fetchErr.Stage, fetchErr.Playlist, fetchErr.Err)
//	}
type FetchError struct {
	// Stage indicates which fetch failed ("playlists", "items", "details").
	Stage string
	// Playlist is the playlist or channel ID involved, if any.
	Playlist string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the fetch error.
func (e *FetchError) Error() string {
	if e.Playlist != "" {
		return fmt.Sprintf("youtube: fetch %s %s: %v", e.Stage, e.Playlist, e.Err)
	}
	return fmt.Sprintf("youtube: fetch %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *FetchError) Unwrap() error { return e.Err }

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
