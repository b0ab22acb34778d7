package youtube

import (
	"context"
	"errors"
	"log"
	"net/url"
	"regexp"
	"strings"

	"clipshelf/retry"
)

// channelIDRe matches the canonical channel-ID shape: a fixed 24-char
// token with the "UC" prefix.
var channelIDRe = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

// InputKind tags how a user-supplied channel reference was recognized.
type InputKind int

const (
	// KindDirectID is a canonical channel ID used as-is.
	KindDirectID InputKind = iota
	// KindHandle is an @handle.
	KindHandle
	// KindChannelURL is a /channel/<ID> URL; the ID is extracted structurally.
	KindChannelURL
	// KindHandleURL is a URL containing an @handle path segment.
	KindHandleURL
	// KindLegacyUser is a legacy /user/<name> or /c/<name> URL.
	KindLegacyUser
	// KindFreeText is anything else, resolved by channel search.
	KindFreeText
)

func (k InputKind) String() string {
	switch k {
	case KindDirectID:
		return "direct-id"
	case KindHandle:
		return "handle"
	case KindChannelURL:
		return "channel-url"
	case KindHandleURL:
		return "handle-url"
	case KindLegacyUser:
		return "legacy-user"
	default:
		return "free-text"
	}
}

// ParsedInput is the tagged result of scanning a channel reference.
// Parsing is pure string work; no network is involved until dispatch.
type ParsedInput struct {
	Kind InputKind
	// Value is the payload the strategy needs: the ID for KindDirectID
	// and KindChannelURL, the bare handle for the handle kinds, the
	// name for KindLegacyUser, the whole input for KindFreeText.
	Value string
}

// ParseChannelInput recognizes a free-form channel reference. Checks run
// in precision order, so an ID-shaped string never reaches handle or
// search resolution.
func ParseChannelInput(input string) ParsedInput {
	trimmed := strings.TrimSpace(input)

	if channelIDRe.MatchString(trimmed) {
		return ParsedInput{Kind: KindDirectID, Value: trimmed}
	}

	if strings.HasPrefix(trimmed, "@") {
		return ParsedInput{Kind: KindHandle, Value: strings.TrimPrefix(trimmed, "@")}
	}

	if id := extractChannelIDFromURL(trimmed); id != "" {
		return ParsedInput{Kind: KindChannelURL, Value: id}
	}

	if handle := extractHandleFromURL(trimmed); handle != "" {
		return ParsedInput{Kind: KindHandleURL, Value: handle}
	}

	if name := extractLegacyNameFromURL(trimmed); name != "" {
		return ParsedInput{Kind: KindLegacyUser, Value: name}
	}

	return ParsedInput{Kind: KindFreeText, Value: trimmed}
}

// extractChannelIDFromURL extracts a valid channel ID from a
// /channel/<ID> URL, or "".
func extractChannelIDFromURL(input string) string {
	idx := strings.Index(input, "/channel/")
	if idx == -1 {
		return ""
	}
	id := input[idx+len("/channel/"):]
	id = strings.SplitN(id, "/", 2)[0]
	id = strings.SplitN(id, "?", 2)[0]
	if channelIDRe.MatchString(id) {
		return id
	}
	return ""
}

// extractHandleFromURL extracts the handle from a URL path like
// youtube.com/@name, or "".
func extractHandleFromURL(input string) string {
	u, err := url.Parse(input)
	if err != nil {
		return ""
	}
	for _, segment := range strings.Split(u.Path, "/") {
		if strings.HasPrefix(segment, "@") && len(segment) > 1 {
			return strings.TrimPrefix(segment, "@")
		}
	}
	return ""
}

// extractLegacyNameFromURL extracts the name from legacy /user/<name>
// or /c/<name> URLs, or "".
func extractLegacyNameFromURL(input string) string {
	for _, prefix := range []string{"/user/", "/c/"} {
		idx := strings.Index(input, prefix)
		if idx == -1 {
			continue
		}
		name := input[idx+len(prefix):]
		name = strings.SplitN(name, "/", 2)[0]
		name = strings.SplitN(name, "?", 2)[0]
		if name != "" {
			return name
		}
	}
	return ""
}

// ChannelRef is a resolved channel reference. Created per import
// session, never persisted.
type ChannelRef struct {
	// ID is the canonical channel ID.
	ID string
	// Strategy names the resolution strategy that produced the ID.
	Strategy string
}

// Resolver converts free-form channel references into canonical channel
// IDs using an ordered strategy chain: structural matches first, fuzzy
// search last.
type Resolver struct {
	api         ChannelAPI
	RetryConfig retry.Config
}

// NewResolver creates a resolver over the given API adapter.
func NewResolver(api ChannelAPI) *Resolver {
	return &Resolver{api: api, RetryConfig: retry.DefaultConfig()}
}

// Resolve maps input to a canonical channel ID. A handle lookup that
// finds nothing falls back to channel search before the chain gives up;
// ErrChannelNotFound means every strategy was exhausted.
func (r *Resolver) Resolve(ctx context.Context, input string) (*ChannelRef, error) {
	parsed := ParseChannelInput(input)

	switch parsed.Kind {
	case KindDirectID, KindChannelURL:
		return &ChannelRef{ID: parsed.Value, Strategy: parsed.Kind.String()}, nil

	case KindHandle, KindHandleURL:
		id, err := r.byHandle(ctx, parsed.Value)
		if err == nil {
			return &ChannelRef{ID: id, Strategy: parsed.Kind.String()}, nil
		}
		if !errors.Is(err, ErrNoResults) {
			return nil, err
		}
		// Handle unknown to the platform; fall through to search.
		log.Printf("youtube: handle %q not found, falling back to search", parsed.Value)
		return r.bySearch(ctx, parsed.Value, "search")

	case KindLegacyUser:
		return r.bySearch(ctx, parsed.Value, parsed.Kind.String())

	default:
		return r.bySearch(ctx, parsed.Value, parsed.Kind.String())
	}
}

func (r *Resolver) byHandle(ctx context.Context, handle string) (string, error) {
	var id string
	err := retry.Do(ctx, r.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
		var err error
		id, err = r.api.ChannelByHandle(ctx, handle)
		return err
	})
	return id, err
}

func (r *Resolver) bySearch(ctx context.Context, query, strategy string) (*ChannelRef, error) {
	var id string
	err := retry.Do(ctx, r.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
		var err error
		id, err = r.api.SearchChannel(ctx, query)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}
	return &ChannelRef{ID: id, Strategy: strategy}, nil
}
