package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/consoleauth/internal/console/domain"
	"github.com/aussiebroadwan/consoleauth/internal/console/store"
	"github.com/aussiebroadwan/consoleauth/pkg/cryptox"
)

// SessionKey is the storage key of the persisted credential pair.
const SessionKey = "auth"

var sessionAAD = []byte(SessionKey)

var errCorruptSession = errors.New("persisted session is unreadable")

// SessionStore owns the credential pair. It is the only shared mutable
// session state: the flow controller writes it, everything else reads it.
// Every mutation is sealed and written to the backing store.
type SessionStore struct {
	Store  store.Store
	Sealer *cryptox.Sealer
	Clock  Clock
	Logger *slog.Logger

	mu            sync.RWMutex
	pair          domain.CredentialPair
	authenticated bool
	subscribers   []func(domain.CredentialPair)
}

func NewSessionStore(st store.Store, sealer *cryptox.Sealer, clock Clock, logger *slog.Logger) *SessionStore {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{Store: st, Sealer: sealer, Clock: clock, Logger: logger}
}

type persistedPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Realm        string `json:"realm,omitempty"`
}

// SetCredentials replaces the pair and marks the session authenticated,
// keeping the realm of the pair it replaces.
func (s *SessionStore) SetCredentials(ctx context.Context, access, refresh string) (domain.CredentialPair, error) {
	return s.SetCredentialsForRealm(ctx, s.Credentials().Realm, access, refresh)
}

// SetCredentialsForRealm replaces the pair, recording the realm that issued
// it. The in-memory pair is replaced even when persisting fails; the error
// is returned so the caller can report it.
func (s *SessionStore) SetCredentialsForRealm(ctx context.Context, realm, access, refresh string) (domain.CredentialPair, error) {
	pair := domain.NewCredentialPair(access, refresh)
	pair.Realm = realm

	s.mu.Lock()
	s.pair = pair
	s.authenticated = true
	subs := append([]func(domain.CredentialPair){}, s.subscribers...)
	s.mu.Unlock()

	err := s.persist(ctx, pair)
	for _, fn := range subs {
		fn(pair)
	}
	return pair, err
}

// Clear resets to the unauthenticated empty state and removes the persisted
// entry.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.pair = domain.CredentialPair{}
	s.authenticated = false
	subs := append([]func(domain.CredentialPair){}, s.subscribers...)
	s.mu.Unlock()

	err := s.Store.Delete(ctx, SessionKey)
	for _, fn := range subs {
		fn(domain.CredentialPair{})
	}
	if err != nil {
		return fmt.Errorf("failed to delete persisted session: %w", err)
	}
	return nil
}

// Load reads the persisted pair into memory. A pair is considered
// authenticated when it still has a refresh token or an unexpired access
// token. An unreadable entry (wrong key, corrupted) is removed.
func (s *SessionStore) Load(ctx context.Context) (domain.CredentialPair, bool, error) {
	pair, found, err := s.read(ctx)
	if errors.Is(err, errCorruptSession) {
		s.Logger.Warn("discarding unreadable persisted session", "error", err)
		_ = s.Store.Delete(ctx, SessionKey)
		found = false
	} else if err != nil {
		return domain.CredentialPair{}, false, err
	}
	if !found {
		s.mu.Lock()
		s.pair = domain.CredentialPair{}
		s.authenticated = false
		s.mu.Unlock()
		return domain.CredentialPair{}, false, nil
	}

	usable := pair.RefreshToken != "" || !pair.IsExpired(s.Clock.Now(), 0)

	s.mu.Lock()
	s.pair = pair
	s.authenticated = usable
	s.mu.Unlock()

	return pair, usable, nil
}

// Peek reads the persisted pair without touching the in-memory state.
func (s *SessionStore) Peek(ctx context.Context) (domain.CredentialPair, bool, error) {
	return s.read(ctx)
}

// Adopt replaces the in-memory pair without persisting it. It is used when
// another process already wrote the pair to the shared store.
func (s *SessionStore) Adopt(pair domain.CredentialPair) {
	s.mu.Lock()
	s.pair = pair
	s.authenticated = true
	subs := append([]func(domain.CredentialPair){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(pair)
	}
}

// Subscribe registers fn to be called after every mutation. fn must not
// call back into the store's mutators.
func (s *SessionStore) Subscribe(fn func(domain.CredentialPair)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// IsExpired reports whether the access token is within skew of expiring.
// An unknown expiry counts as expired.
func (s *SessionStore) IsExpired(skew time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.IsExpired(s.Clock.Now(), skew)
}

func (s *SessionStore) Credentials() domain.CredentialPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

func (s *SessionStore) AccessToken() string   { return s.Credentials().AccessToken }
func (s *SessionStore) RefreshToken() string  { return s.Credentials().RefreshToken }
func (s *SessionStore) ExpiresAt() *time.Time { return s.Credentials().ExpiresAt }

func (s *SessionStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *SessionStore) persist(ctx context.Context, pair domain.CredentialPair) error {
	plaintext, err := json.Marshal(persistedPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Realm:        pair.Realm,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	sealed, err := s.Sealer.Seal(plaintext, sessionAAD)
	if err != nil {
		return fmt.Errorf("failed to seal session: %w", err)
	}

	if err := s.Store.Put(ctx, SessionKey, sealed); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *SessionStore) read(ctx context.Context) (domain.CredentialPair, bool, error) {
	sealed, err := s.Store.Get(ctx, SessionKey)
	if errors.Is(err, store.ErrNotFound) {
		return domain.CredentialPair{}, false, nil
	}
	if err != nil {
		return domain.CredentialPair{}, false, fmt.Errorf("failed to read persisted session: %w", err)
	}

	plaintext, err := s.Sealer.Open(sealed, sessionAAD)
	if err != nil {
		return domain.CredentialPair{}, false, fmt.Errorf("%w: %w", errCorruptSession, err)
	}

	var p persistedPair
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return domain.CredentialPair{}, false, fmt.Errorf("%w: %w", errCorruptSession, err)
	}
	if p.AccessToken == "" && p.RefreshToken == "" {
		return domain.CredentialPair{}, false, nil
	}

	pair := domain.NewCredentialPair(p.AccessToken, p.RefreshToken)
	pair.Realm = p.Realm
	return pair, true, nil
}
