// Package auth manages the OAuth access-token lifecycle for the video
// platform: consent, session-scoped persistence, expiry detection, and
// invalidation. It authenticates against the platform only; the
// application itself has no user accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/oauth2"
)

// Sentinel errors for token lifecycle conditions.
var (
	// ErrNotAuthenticated indicates no consent has been granted yet.
	ErrNotAuthenticated = errors.New("auth: not authenticated")
	// ErrTokenExpired indicates the platform rejected the token; a new
	// consent round is required.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrConsentPending indicates a consent round is already in flight.
	ErrConsentPending = errors.New("auth: consent already pending")
)

// ReadOnlyScope is the only scope ever requested.
const ReadOnlyScope = "https://www.googleapis.com/auth/youtube.readonly"

// Endpoint is the platform's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// State is the token lifecycle state.
type State int

const (
	// Unauthenticated means no token is held and no consent is pending.
	Unauthenticated State = iota
	// Authenticating means consent has been requested but not completed.
	Authenticating
	// Authenticated means a token is held. It is validated lazily by the
	// first real API call, not by an eager ping.
	Authenticated
	// Expired means the platform rejected the token. The caller must
	// run a fresh consent round; there is no silent refresh.
	Expired
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ConsentResult is the outcome of one consent round, delivered exactly
// once on the channel returned by BeginConsent.
type ConsentResult struct {
	Token string
	Err   error
}

// Manager owns the access token for one session. All methods are safe
// for concurrent use.
type Manager struct {
	config *oauth2.Config
	store  SessionStore

	mu      sync.Mutex
	state   State
	token   string
	pending chan ConsentResult
}

// NewManager creates a token manager. If the session store already
// holds a token it is optimistically trusted; the first real API call
// validates it.
func NewManager(clientID, clientSecret, redirectURL string, store SessionStore) *Manager {
	if store == nil {
		store = &MemoryStore{}
	}

	m := &Manager{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{ReadOnlyScope},
			Endpoint:     Endpoint,
		},
		store: store,
		state: Unauthenticated,
	}

	if token, ok := store.Load(); ok {
		m.token = token
		m.state = Authenticated
		log.Printf("auth: restored session token, will validate lazily")
	}

	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BeginConsent starts a consent round. It returns the URL the user must
// visit and a single-fire channel that delivers the outcome once
// CompleteConsent runs. Calling it while a round is pending fails with
// ErrConsentPending.
func (m *Manager) BeginConsent(stateToken string) (string, <-chan ConsentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Authenticating {
		return "", nil, ErrConsentPending
	}

	m.state = Authenticating
	m.pending = make(chan ConsentResult, 1)

	url := m.config.AuthCodeURL(stateToken, oauth2.AccessTypeOnline)
	return url, m.pending, nil
}

// CompleteConsent exchanges the authorization code for a token. On
// success the manager becomes Authenticated and the token is persisted
// to the session store; on failure it returns to Unauthenticated and
// the error is surfaced both here and on the pending channel.
func (m *Manager) CompleteConsent(ctx context.Context, code string) error {
	m.mu.Lock()
	if m.state != Authenticating {
		m.mu.Unlock()
		return fmt.Errorf("auth: no consent pending (state %s)", m.state)
	}
	pending := m.pending
	config := m.config
	m.mu.Unlock()

	// Exchange outside the lock; it is a network call.
	token, err := config.Exchange(ctx, code)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.state = Unauthenticated
		m.pending = nil
		if pending != nil {
			pending <- ConsentResult{Err: err}
		}
		return fmt.Errorf("auth: consent exchange: %w", err)
	}

	m.token = token.AccessToken
	m.state = Authenticated
	m.pending = nil
	if err := m.store.Save(m.token); err != nil {
		log.Printf("auth: failed to persist session token: %v", err)
	}
	if pending != nil {
		pending <- ConsentResult{Token: m.token}
	}
	return nil
}

// Token returns the access token if the manager is Authenticated. In
// Expired or Unauthenticated it fails immediately without any network
// activity.
func (m *Manager) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case Authenticated:
		return m.token, nil
	case Expired:
		return "", ErrTokenExpired
	default:
		return "", ErrNotAuthenticated
	}
}

// TokenSource returns an oauth2.TokenSource for wiring into the API
// client. The source consults the manager on every request, so a token
// rejected mid-run fails the next call immediately without going over
// the network. It does not refresh; expiry is handled by MarkExpired
// and a fresh consent round.
func (m *Manager) TokenSource() (oauth2.TokenSource, error) {
	if _, err := m.Token(); err != nil {
		return nil, err
	}
	return managerSource{m}, nil
}

// managerSource derives each token from the manager's current state.
type managerSource struct {
	m *Manager
}

func (s managerSource) Token() (*oauth2.Token, error) {
	token, err := s.m.Token()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: token}, nil
}

// MarkExpired records that the platform rejected the token. The session
// store is cleared so a restart does not resurrect the dead token.
func (m *Manager) MarkExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Expired {
		return
	}
	m.state = Expired
	m.token = ""
	if err := m.store.Clear(); err != nil {
		log.Printf("auth: failed to clear session token: %v", err)
	}
	log.Printf("auth: token rejected by platform, consent required")
}
