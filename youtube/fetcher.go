package youtube

import (
	"context"
	"fmt"
	"log"

	"clipshelf/catalog"
	"clipshelf/retry"
)

// LikedPlaylistTitle is the display title of the synthetic liked-videos
// entry prepended to the authenticated account's playlist listing.
const LikedPlaylistTitle = "Liked videos"

// Fetcher retrieves playlist listings and playlist contents, following
// page tokens until the listing is exhausted. A page failure aborts the
// whole listing; partial results are never returned.
type Fetcher struct {
	api         PlaylistAPI
	RetryConfig retry.Config
}

// NewFetcher creates a fetcher over the given API adapter.
func NewFetcher(api PlaylistAPI) *Fetcher {
	return &Fetcher{api: api, RetryConfig: retry.DefaultConfig()}
}

// PlaylistsForChannel fetches every playlist owned by a channel.
func (f *Fetcher) PlaylistsForChannel(ctx context.Context, channelID string) ([]catalog.PlaylistSummary, error) {
	playlists, err := f.collectPlaylists(ctx, func(ctx context.Context, token string) (*PlaylistPage, error) {
		return f.api.PlaylistsPage(ctx, channelID, token)
	})
	if err != nil {
		return nil, &FetchError{Stage: "playlists", Err: err}
	}
	return playlists, nil
}

// MyPlaylists fetches every playlist owned by the authenticated
// account, with the liked-videos pseudo-playlist prepended. Failure to
// look up the liked-videos ID only drops that entry; the real playlists
// are returned regardless.
func (f *Fetcher) MyPlaylists(ctx context.Context) ([]catalog.PlaylistSummary, error) {
	playlists, err := f.collectPlaylists(ctx, f.api.MyPlaylistsPage)
	if err != nil {
		return nil, &FetchError{Stage: "my-playlists", Err: err}
	}

	likedID, err := f.likedPlaylistID(ctx)
	if err != nil {
		log.Printf("youtube: liked-videos lookup failed, listing without it: %v", err)
		return playlists, nil
	}

	liked := catalog.PlaylistSummary{
		ID:      likedID,
		Title:   LikedPlaylistTitle,
		Special: true,
	}
	return append([]catalog.PlaylistSummary{liked}, playlists...), nil
}

// PlaylistByID fetches a single playlist's summary.
func (f *Fetcher) PlaylistByID(ctx context.Context, playlistID string) (*catalog.PlaylistSummary, error) {
	var summary *catalog.PlaylistSummary
	err := retry.Do(ctx, f.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
		var err error
		summary, err = f.api.PlaylistByID(ctx, playlistID)
		return err
	})
	return summary, err
}

// PlaylistItems fetches every item of a playlist in playlist order.
func (f *Fetcher) PlaylistItems(ctx context.Context, playlistID string) ([]catalog.VideoStub, error) {
	var items []catalog.VideoStub
	token := ""
	for {
		var page *PlaylistItemsPage
		err := retry.Do(ctx, f.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
			var err error
			page, err = f.api.PlaylistItemsPage(ctx, playlistID, token)
			return err
		})
		if err != nil {
			return nil, &FetchError{Stage: "playlist-items", Playlist: playlistID, Err: err}
		}

		items = append(items, page.Items...)
		if page.NextPageToken == "" {
			return items, nil
		}
		token = page.NextPageToken
	}
}

// collectPlaylists drains a paged playlist listing.
func (f *Fetcher) collectPlaylists(ctx context.Context, fetch func(ctx context.Context, token string) (*PlaylistPage, error)) ([]catalog.PlaylistSummary, error) {
	var playlists []catalog.PlaylistSummary
	token := ""
	for {
		var page *PlaylistPage
		err := retry.Do(ctx, f.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
			var err error
			page, err = fetch(ctx, token)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("page %q: %w", token, err)
		}

		playlists = append(playlists, page.Playlists...)
		if page.NextPageToken == "" {
			return playlists, nil
		}
		token = page.NextPageToken
	}
}

func (f *Fetcher) likedPlaylistID(ctx context.Context) (string, error) {
	var id string
	err := retry.Do(ctx, f.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
		var err error
		id, err = f.api.LikedPlaylistID(ctx)
		return err
	})
	return id, err
}
