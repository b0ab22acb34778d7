// Package clipshelf provides YouTube metadata enrichment and playlist
// import for locally curated video collections.
//
// # Overview
//
// clipshelf covers two pipelines:
//
//   - Enrichment: decorate saved video records with live platform
//     metadata (duration, view and like counts, thumbnail, canonical
//     URL), in concurrent batches backed by a TTL cache.
//   - Import: authorize read-only account access, browse playlists and
//     turn a playlist's items into fully-formed video records.
//
// # Quick Start
//
// Enrich saved records:
//
//	api, err := youtube.NewDataAPI(ctx, apiKey, ratelimit.New(ratelimit.DefaultConfig()))
//	if err != nil {
//		log.Fatal(err)
//	}
//	cache := storage.NewCacheStore(cachePath, 24*time.Hour)
//	enriched, err := youtube.NewEnricher(api, cache).Enrich(ctx, records)
//
// Resolve a channel and list its playlists:
//
//	ref, err := youtube.NewResolver(api).Resolve(ctx, "@somechannel")
//	if err != nil {
//		log.Fatal(err)
//	}
//	playlists, err := youtube.NewFetcher(api).PlaylistsForChannel(ctx, ref.ID)
//
// # Configuration
//
// clipshelf loads settings from multiple sources:
//
//  1. Environment variables (highest priority)
//  2. Config file (clipshelf.json or ~/.config/clipshelf/clipshelf.json)
//  3. Default values (lowest priority)
//
// Environment variables:
//
//   - CLIPSHELF_API_KEY: Data API key for key-scoped requests
//   - CLIPSHELF_OAUTH_CLIENT_ID: OAuth application ID
//   - CLIPSHELF_OAUTH_CLIENT_SECRET: OAuth application secret
//   - CLIPSHELF_CACHE_PATH: Enrichment cache location
//   - CLIPSHELF_CACHE_TTL: Cache entry lifetime
//   - CLIPSHELF_BATCH_SIZE: Concurrent enrichment lookups per batch
//   - CLIPSHELF_BATCH_PAUSE: Pause between enrichment batches
//   - CLIPSHELF_MAX_RETRIES: Maximum retry attempts
//
// # Error Handling
//
// All operations return errors that support the standard patterns:
//
//	if errors.Is(err, clipshelf.ErrChannelNotFound) {
//		fmt.Println("channel not found")
//	}
//
//	var fetchErr *clipshelf.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("fetching %s failed: %v\n", fetchErr.Stage, fetchErr.Err)
//	}
//
// # Packages
//
//   - catalog: video record and playlist data model
//   - youtube: channel resolution, playlist fetching, enrichment, import
//   - auth: OAuth token lifecycle with session-scoped storage
//   - storage: TTL cache and imported-record persistence
//   - ratelimit: request throttling under the API client
//   - retry: exponential backoff retry logic
//   - config: configuration management
package clipshelf
