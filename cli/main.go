package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"clipshelf/auth"
	"clipshelf/catalog"
	"clipshelf/config"
	"clipshelf/ratelimit"
	"clipshelf/storage"
	"clipshelf/youtube"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "resolve":
		cmdResolve(args)
	case "playlists":
		cmdPlaylists(args)
	case "enrich":
		cmdEnrich(args)
	case "import":
		cmdImport(args)
	case "auth":
		cmdAuth(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `clipshelf - YouTube metadata enrichment and playlist import

Usage:
  clipshelf resolve <channel>              Resolve a channel reference to its ID
  clipshelf playlists [flags] <channel>    List a channel's playlists
  clipshelf enrich [flags] <records.json>  Enrich saved video records
  clipshelf import [flags] <playlist-id>   Import a playlist's videos
  clipshelf auth                           Authorize account access
  clipshelf help                           Show this help message

Examples:
  clipshelf resolve @rickastley                     # Handle lookup
  clipshelf playlists UCuAXFkgsw1L7xaCfnd5JJOw      # Playlists by channel ID
  clipshelf playlists --mine                        # Your playlists (needs auth)
  clipshelf enrich records.json                     # Attach durations, views, likes
  clipshelf import PLxxxx --category 3              # Import into category 3

For help on specific command: clipshelf <command> -h
`)
}

func cmdResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipshelf resolve <channel>\n\nAccepts a channel ID, @handle, channel URL or free-text name.\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing channel reference\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg, api := mustKeyAPI()

	resolver := youtube.NewResolver(api)
	resolver.RetryConfig = cfg.RetryConfig()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ref, err := resolver.Resolve(ctx, argv[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving channel: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Channel ID: %s\n", ref.ID)
	fmt.Printf("Strategy:   %s\n", ref.Strategy)
}

func cmdPlaylists(args []string) {
	fs := flag.NewFlagSet("playlists", flag.ExitOnError)
	mine := fs.Bool("mine", false, "List the authorized account's playlists")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipshelf playlists [flags] <channel>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if !*mine && len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing channel reference (or use --mine)\n")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var playlists []catalog.PlaylistSummary
	if *mine {
		cfg, api := mustAuthorizedAPI(ctx)
		fetcher := youtube.NewFetcher(api)
		fetcher.RetryConfig = cfg.RetryConfig()

		var err error
		playlists, err = fetcher.MyPlaylists(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching playlists: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, api := mustKeyAPI()

		resolver := youtube.NewResolver(api)
		resolver.RetryConfig = cfg.RetryConfig()
		ref, err := resolver.Resolve(ctx, argv[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving channel: %v\n", err)
			os.Exit(1)
		}

		fetcher := youtube.NewFetcher(api)
		fetcher.RetryConfig = cfg.RetryConfig()
		playlists, err = fetcher.PlaylistsForChannel(ctx, ref.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching playlists: %v\n", err)
			os.Exit(1)
		}
	}

	if len(playlists) == 0 {
		fmt.Println("No playlists found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYLIST ID\tTITLE\tITEMS")
	for _, p := range playlists {
		title := p.Title
		if p.Special {
			title += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", p.ID, truncate(title, 50), p.ItemCount)
	}
	w.Flush()

	fmt.Fprintf(os.Stderr, "\nTotal: %d playlists\n", len(playlists))
}

func cmdEnrich(args []string) {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	output := fs.String("out", "", "Write enriched records to this file (default: overwrite input)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipshelf enrich [flags] <records.json>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing records file\n")
		fs.Usage()
		os.Exit(1)
	}

	inputPath := argv[0]
	records, err := catalog.ReadRecords(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading records: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No records to enrich.")
		return
	}

	cfg, api := mustKeyAPI()

	cache := storage.NewCacheStore(cfg.CachePath, cfg.CacheTTL)
	enricher := youtube.NewEnricher(api, cache)
	enricher.BatchSize = cfg.BatchSize
	enricher.BatchPause = cfg.BatchPause

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Enriching %d records...\n", len(records))
	enriched, err := enricher.Enrich(ctx, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error enriching records: %v\n", err)
		os.Exit(1)
	}

	outPath := *output
	if outPath == "" {
		outPath = inputPath
	}
	if err := catalog.WriteRecords(outPath, enriched); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing records: %v\n", err)
		os.Exit(1)
	}

	done := 0
	for _, r := range enriched {
		if r.Enriched() {
			done++
		}
	}
	fmt.Fprintf(os.Stderr, "Enriched %d/%d records -> %s\n", done, len(enriched), outPath)
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	category := fs.Int("category", 0, "Category ID to file imported videos under")
	output := fs.String("out", "", "Also write the imported records to this file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipshelf import [flags] <playlist-id>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing playlist-id\n")
		fs.Usage()
		os.Exit(1)
	}

	playlistID := argv[0]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	limiter := ratelimit.New(cfg.RateLimitConfig())

	// Public playlists need only the API key; the bearer client is the
	// fallback for private and owned playlists.
	var apis []*youtube.DataAPI
	if api, err := youtube.NewDataAPI(ctx, cfg.APIKey, limiter); err == nil {
		apis = append(apis, api)
	}
	if api, err := youtube.NewAuthorizedAPI(ctx, newTokenManager(cfg), limiter); err == nil {
		apis = append(apis, api)
	}
	if len(apis) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no API key configured and no session token held.\n")
		fmt.Fprintf(os.Stderr, "Set CLIPSHELF_API_KEY or run 'clipshelf auth'.\n")
		os.Exit(1)
	}

	store := storage.NewImportedStore(cfg.ImportedPath)

	fmt.Fprintf(os.Stderr, "Importing playlist %s...\n", playlistID)

	var records []catalog.VideoRecord
	var playlist catalog.PlaylistSummary
	var importErr error
	for _, api := range apis {
		fetcher := youtube.NewFetcher(api)
		fetcher.RetryConfig = cfg.RetryConfig()

		// Pick up the playlist title for SourcePlaylist attribution.
		playlist = catalog.PlaylistSummary{ID: playlistID}
		if summary, err := fetcher.PlaylistByID(ctx, playlistID); err == nil {
			playlist = *summary
		}

		importer := youtube.NewImporter(fetcher, api, store)
		importer.RetryConfig = cfg.RetryConfig()

		records, importErr = importer.ImportPlaylist(ctx, playlist, *category)
		if importErr == nil {
			break
		}
		// A playlist this client cannot see may still be visible to the
		// next one.
		if !errors.Is(importErr, youtube.ErrPlaylistNotFound) {
			break
		}
	}
	if importErr != nil {
		fmt.Fprintf(os.Stderr, "Error importing playlist: %v\n", importErr)
		os.Exit(1)
	}

	if *output != "" {
		if err := catalog.WriteRecords(*output, records); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing records: %v\n", err)
			os.Exit(1)
		}
	}

	enriched := 0
	for _, r := range records {
		if r.Enriched() {
			enriched++
		}
	}
	fmt.Fprintf(os.Stderr, "Imported %d videos (%d enriched) from %q\n",
		len(records), enriched, playlist.Title)
}

func cmdAuth(args []string) {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	forget := fs.Bool("clear", false, "Forget the current session token")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipshelf auth [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	manager := newTokenManager(cfg)

	if *forget {
		manager.MarkExpired()
		fmt.Println("Session token cleared.")
		return
	}

	if manager.State() == auth.Authenticated {
		fmt.Println("Already authorized for this session.")
		return
	}

	url, result, err := manager.BeginConsent(randomStateToken())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting authorization: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Open this URL in your browser and approve access:")
	fmt.Println()
	fmt.Printf("  %s\n", url)
	fmt.Println()
	fmt.Print("Paste the code here: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading code: %v\n", err)
		os.Exit(1)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		fmt.Fprintf(os.Stderr, "Error: empty code\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := manager.CompleteConsent(ctx, code); err != nil {
		fmt.Fprintf(os.Stderr, "Error exchanging code: %v\n", err)
		os.Exit(1)
	}
	<-result

	fmt.Println("Authorized. The token lasts for this session only.")
}

// mustKeyAPI loads config and builds the key-scoped API adapter, exiting
// on failure.
func mustKeyAPI() (*config.Config, *youtube.DataAPI) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(cfg.RateLimitConfig())
	api, err := youtube.NewDataAPI(context.Background(), cfg.APIKey, limiter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating API client: %v\n", err)
		fmt.Fprintf(os.Stderr, "Set CLIPSHELF_API_KEY or api_key in clipshelf.json.\n")
		os.Exit(1)
	}
	return cfg, api
}

// mustAuthorizedAPI loads config and builds the bearer-token API
// adapter, exiting when no session token is available.
func mustAuthorizedAPI(ctx context.Context) (*config.Config, *youtube.DataAPI) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	manager := newTokenManager(cfg)
	limiter := ratelimit.New(cfg.RateLimitConfig())

	api, err := youtube.NewAuthorizedAPI(ctx, manager, limiter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'clipshelf auth' first.\n")
		os.Exit(1)
	}
	return cfg, api
}

func newTokenManager(cfg *config.Config) *auth.Manager {
	store := auth.NewFileSessionStore("")
	return auth.NewManager(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURL, store)
}

// randomStateToken generates the CSRF state for the consent URL.
func randomStateToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(b[:])
}

// truncate shortens s for display without ever splitting a rune.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
