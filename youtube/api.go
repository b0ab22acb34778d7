package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	gtransport "google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"clipshelf/auth"
	"clipshelf/catalog"
	"clipshelf/ratelimit"
)

const (
	pageSize       = 50
	requestTimeout = 30 * time.Second
)

// VideoAPI is the slice of the Data API the enrichment pipeline needs.
type VideoAPI interface {
	// SearchVideo returns the first video ID matching the query, or
	// ErrNoResults.
	SearchVideo(ctx context.Context, query string) (string, error)
	// VideoDetails fetches statistics and content details for up to 50
	// video IDs. IDs the API does not know are simply absent from the
	// result.
	VideoDetails(ctx context.Context, ids []string) ([]VideoDetail, error)
}

// ChannelAPI is the slice of the Data API channel resolution needs.
type ChannelAPI interface {
	// ChannelByHandle resolves an @handle to a channel ID, or ErrNoResults.
	ChannelByHandle(ctx context.Context, handle string) (string, error)
	// SearchChannel returns the first channel ID matching a free-text
	// query, or ErrNoResults.
	SearchChannel(ctx context.Context, query string) (string, error)
}

// PlaylistAPI is the slice of the Data API playlist fetching needs.
type PlaylistAPI interface {
	// PlaylistsPage fetches one page of a channel's playlists.
	PlaylistsPage(ctx context.Context, channelID, pageToken string) (*PlaylistPage, error)
	// MyPlaylistsPage fetches one page of the authenticated account's
	// playlists.
	MyPlaylistsPage(ctx context.Context, pageToken string) (*PlaylistPage, error)
	// PlaylistByID fetches a single playlist's summary, or
	// ErrPlaylistNotFound when it does not exist or is not visible to
	// this client.
	PlaylistByID(ctx context.Context, playlistID string) (*catalog.PlaylistSummary, error)
	// PlaylistItemsPage fetches one page of a playlist's items.
	PlaylistItemsPage(ctx context.Context, playlistID, pageToken string) (*PlaylistItemsPage, error)
	// LikedPlaylistID returns the authenticated account's liked-videos
	// pseudo-playlist ID, or ErrNoResults.
	LikedPlaylistID(ctx context.Context) (string, error)
}

// VideoDetail is one item of a videos.list response.
type VideoDetail struct {
	ID           string
	Title        string
	ChannelTitle string
	Description  string
	Thumbnail    string
	DurationISO  string
	Likes        int64
	Views        int64
	PublishedAt  string
}

// PlaylistPage is one page of a playlists.list response.
type PlaylistPage struct {
	Playlists     []catalog.PlaylistSummary
	NextPageToken string
}

// PlaylistItemsPage is one page of a playlistItems.list response.
type PlaylistItemsPage struct {
	Items         []catalog.VideoStub
	NextPageToken string
}

// DataAPI implements VideoAPI, ChannelAPI and PlaylistAPI over the
// real YouTube Data API v3 client.
type DataAPI struct {
	service *yt.Service
	tokens  *auth.Manager // nil for key-scoped clients
}

// NewDataAPI creates a key-scoped API adapter for enrichment and public
// lookups. All requests pass through the rate-limiting transport.
func NewDataAPI(ctx context.Context, apiKey string, limiter *ratelimit.Limiter) (*DataAPI, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	client := &http.Client{
		Timeout: requestTimeout,
		Transport: &gtransport.APIKey{
			Key:       apiKey,
			Transport: ratelimit.NewTransport(nil, limiter),
		},
	}

	service, err := yt.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &DataAPI{service: service}, nil
}

// NewAuthorizedAPI creates a bearer-token API adapter for "mine" calls.
// An unauthorized response marks the token manager Expired.
func NewAuthorizedAPI(ctx context.Context, tokens *auth.Manager, limiter *ratelimit.Limiter) (*DataAPI, error) {
	source, err := tokens.TokenSource()
	if err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: requestTimeout,
		Transport: &oauth2.Transport{
			Source: source,
			Base:   ratelimit.NewTransport(nil, limiter),
		},
	}

	service, err := yt.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &DataAPI{service: service, tokens: tokens}, nil
}

// SearchVideo implements VideoAPI.
func (a *DataAPI) SearchVideo(ctx context.Context, query string) (string, error) {
	resp, err := a.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", a.classify(err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.VideoId == "" {
		return "", ErrNoResults
	}
	return resp.Items[0].Id.VideoId, nil
}

// VideoDetails implements VideoAPI.
func (a *DataAPI) VideoDetails(ctx context.Context, ids []string) ([]VideoDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	resp, err := a.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, a.classify(err)
	}

	details := make([]VideoDetail, 0, len(resp.Items))
	for _, item := range resp.Items {
		detail := VideoDetail{ID: item.Id}
		if item.Snippet != nil {
			detail.Title = item.Snippet.Title
			detail.ChannelTitle = item.Snippet.ChannelTitle
			detail.Description = item.Snippet.Description
			detail.Thumbnail = bestThumbnail(item.Snippet.Thumbnails)
			detail.PublishedAt = item.Snippet.PublishedAt
		}
		if item.ContentDetails != nil {
			detail.DurationISO = item.ContentDetails.Duration
		}
		if item.Statistics != nil {
			detail.Likes = int64(item.Statistics.LikeCount)
			detail.Views = int64(item.Statistics.ViewCount)
		}
		details = append(details, detail)
	}
	return details, nil
}

// ChannelByHandle implements ChannelAPI.
func (a *DataAPI) ChannelByHandle(ctx context.Context, handle string) (string, error) {
	resp, err := a.service.Channels.List([]string{"id"}).
		ForHandle(handle).
		Context(ctx).
		Do()
	if err != nil {
		return "", a.classify(err)
	}

	if len(resp.Items) == 0 {
		return "", ErrNoResults
	}
	return resp.Items[0].Id, nil
}

// SearchChannel implements ChannelAPI.
func (a *DataAPI) SearchChannel(ctx context.Context, query string) (string, error) {
	resp, err := a.service.Search.List([]string{"id"}).
		Q(query).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", a.classify(err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.ChannelId == "" {
		return "", ErrNoResults
	}
	return resp.Items[0].Id.ChannelId, nil
}

// PlaylistsPage implements PlaylistAPI.
func (a *DataAPI) PlaylistsPage(ctx context.Context, channelID, pageToken string) (*PlaylistPage, error) {
	call := a.service.Playlists.List([]string{"snippet", "contentDetails"}).
		ChannelId(channelID).
		MaxResults(pageSize).
		PageToken(pageToken).
		Context(ctx)
	return a.playlistsPage(call)
}

// MyPlaylistsPage implements PlaylistAPI.
func (a *DataAPI) MyPlaylistsPage(ctx context.Context, pageToken string) (*PlaylistPage, error) {
	call := a.service.Playlists.List([]string{"snippet", "contentDetails"}).
		Mine(true).
		MaxResults(pageSize).
		PageToken(pageToken).
		Context(ctx)
	return a.playlistsPage(call)
}

// PlaylistByID implements PlaylistAPI.
func (a *DataAPI) PlaylistByID(ctx context.Context, playlistID string) (*catalog.PlaylistSummary, error) {
	call := a.service.Playlists.List([]string{"snippet", "contentDetails"}).
		Id(playlistID).
		Context(ctx)
	page, err := a.playlistsPage(call)
	if err != nil {
		return nil, err
	}
	if len(page.Playlists) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPlaylistNotFound, playlistID)
	}
	return &page.Playlists[0], nil
}

func (a *DataAPI) playlistsPage(call *yt.PlaylistsListCall) (*PlaylistPage, error) {
	resp, err := call.Do()
	if err != nil {
		return nil, a.classify(err)
	}

	page := &PlaylistPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		summary := catalog.PlaylistSummary{ID: item.Id}
		if item.Snippet != nil {
			summary.Title = item.Snippet.Title
			summary.Description = item.Snippet.Description
			summary.Thumbnail = bestThumbnail(item.Snippet.Thumbnails)
		}
		if item.ContentDetails != nil {
			summary.ItemCount = item.ContentDetails.ItemCount
		}
		page.Playlists = append(page.Playlists, summary)
	}
	return page, nil
}

// PlaylistItemsPage implements PlaylistAPI.
func (a *DataAPI) PlaylistItemsPage(ctx context.Context, playlistID, pageToken string) (*PlaylistItemsPage, error) {
	resp, err := a.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(pageSize).
		PageToken(pageToken).
		Context(ctx).
		Do()
	if err != nil {
		err = a.classify(err)
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrPlaylistNotFound, playlistID)
		}
		return nil, err
	}

	page := &PlaylistItemsPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		stub := catalog.VideoStub{}
		if item.ContentDetails != nil {
			stub.VideoID = item.ContentDetails.VideoId
		}
		if item.Snippet != nil {
			stub.Title = item.Snippet.Title
			stub.Owner = item.Snippet.VideoOwnerChannelTitle
			stub.Thumbnail = bestThumbnail(item.Snippet.Thumbnails)
			if stub.VideoID == "" && item.Snippet.ResourceId != nil {
				stub.VideoID = item.Snippet.ResourceId.VideoId
			}
		}
		page.Items = append(page.Items, stub)
	}
	return page, nil
}

// LikedPlaylistID implements PlaylistAPI.
func (a *DataAPI) LikedPlaylistID(ctx context.Context) (string, error) {
	resp, err := a.service.Channels.List([]string{"contentDetails"}).
		Mine(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", a.classify(err)
	}

	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil ||
		resp.Items[0].ContentDetails.RelatedPlaylists == nil {
		return "", ErrNoResults
	}
	liked := resp.Items[0].ContentDetails.RelatedPlaylists.Likes
	if liked == "" {
		return "", ErrNoResults
	}
	return liked, nil
}

// classify maps API errors onto the pipeline error taxonomy. An
// unauthorized response additionally marks the token manager Expired.
func (a *DataAPI) classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case http.StatusUnauthorized:
		if a.tokens != nil {
			a.tokens.MarkExpired()
		}
		return fmt.Errorf("%w: %v", auth.ErrTokenExpired, err)
	case http.StatusForbidden, http.StatusTooManyRequests:
		for _, detail := range apiErr.Errors {
			if detail.Reason == "quotaExceeded" || detail.Reason == "rateLimitExceeded" ||
				detail.Reason == "dailyLimitExceeded" {
				return fmt.Errorf("%w: %s", ErrQuotaExceeded, detail.Message)
			}
		}
		// A forbidden response without a quota reason is a permission
		// failure (revoked key, API not enabled), not throttling.
		if apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		}
		return err
	default:
		return err
	}
}

// bestThumbnail prefers the medium thumbnail, falling back to default
// then high.
func bestThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	switch {
	case t.Medium != nil:
		return t.Medium.Url
	case t.Default != nil:
		return t.Default.Url
	case t.High != nil:
		return t.High.Url
	default:
		return ""
	}
}

// apiErrorClassifier determines if an API error is retryable.
func apiErrorClassifier(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrNoResults),
		errors.Is(err, ErrChannelNotFound),
		errors.Is(err, ErrPlaylistNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrNotAuthenticated):
		return false
	case errors.Is(err, ErrQuotaExceeded):
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		// Client errors other than rate limiting are permanent.
		if apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return false
		}
	}

	return true
}
