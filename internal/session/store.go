// Package session holds the authenticated identity of the client and
// persists it between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"docportal/internal/gateway"
	"docportal/internal/model"
)

// Storage keys.
const (
	KeyToken = "auth_token"
	KeyUser  = "current_user"
)

// LoginRoute is passed to the Navigator on logout and by the guard.
const LoginRoute = "/login"

var ErrNotAuthenticated = errors.New("not authenticated")

// Navigator moves the presentation layer to route.
type Navigator func(route string)

type Option func(*Store)

func WithNavigator(n Navigator) Option {
	return func(s *Store) { s.navigate = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store is the process-wide session context. Construct one with New,
// call Hydrate at startup and pass it to its consumers.
type Store struct {
	auth     gateway.AuthGateway
	storage  Storage
	navigate Navigator
	log      zerolog.Logger

	mu      sync.RWMutex
	current *model.Session

	subMu  sync.Mutex
	subs   map[int]chan *model.Session
	nextID int
}

func New(auth gateway.AuthGateway, storage Storage, opts ...Option) *Store {
	s := &Store{
		auth:     auth,
		storage:  storage,
		navigate: func(string) {},
		log:      zerolog.Nop(),
		subs:     map[int]chan *model.Session{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate restores the session persisted by a previous run. A snapshot
// without a token, or one that cannot be decoded, is discarded.
func (s *Store) Hydrate() error {
	raw, ok, err := s.storage.Get(KeyUser)
	if err != nil {
		return fmt.Errorf("hydrate session: %w", err)
	}
	token, hasToken, err := s.storage.Get(KeyToken)
	if err != nil {
		return fmt.Errorf("hydrate session: %w", err)
	}
	if !ok || !hasToken || token == "" {
		s.set(nil)
		return nil
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.log.Warn().Err(err).Msg("session_snapshot_corrupt")
		s.set(nil)
		return s.storage.Delete(KeyToken, KeyUser)
	}
	sess.Token = token
	s.set(&sess)
	s.log.Debug().Str("username", sess.Username).Msg("session_hydrated")
	return nil
}

// Login authenticates and persists the resulting session.
// Failures carry the server's message and are not retried.
func (s *Store) Login(ctx context.Context, req model.LoginRequest) (*model.Session, error) {
	sess, err := s.auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.establish(sess); err != nil {
		return nil, err
	}
	s.log.Info().Str("username", sess.Username).Msg("login")
	return clone(sess), nil
}

// Register creates an account and signs in as it.
func (s *Store) Register(ctx context.Context, req model.RegisterRequest) (*model.Session, error) {
	sess, err := s.auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.establish(sess); err != nil {
		return nil, err
	}
	s.log.Info().Str("username", sess.Username).Msg("register")
	return clone(sess), nil
}

func (s *Store) establish(sess *model.Session) error {
	snapshot, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.storage.Set(KeyToken, sess.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.storage.Set(KeyUser, string(snapshot)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.set(clone(sess))
	return nil
}

// Logout clears both storage keys, emits the absent session and navigates
// to the login route. The in-memory session is cleared even when storage fails.
func (s *Store) Logout() error {
	err := s.storage.Delete(KeyToken, KeyUser)
	if err != nil {
		s.log.Error().Err(err).Msg("logout_storage_failed")
		err = fmt.Errorf("clear session: %w", err)
	}
	s.set(nil)
	s.navigate(LoginRoute)
	return err
}

// Current returns a copy of the session, or nil.
func (s *Store) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (s *Store) HasRole(role model.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.Role == role
}

// Token implements gateway.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Subscribe returns a channel that already holds the current session.
// Later changes replace any value not yet received. The returned func
// stops delivery and closes the channel.
func (s *Store) Subscribe() (<-chan *model.Session, func()) {
	ch := make(chan *model.Session, 1)

	s.subMu.Lock()
	ch <- s.Current()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) set(sess *model.Session) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	for _, ch := range s.subs {
		// Drop a stale pending value so the latest one always fits.
		select {
		case <-ch:
		default:
		}
		ch <- clone(sess)
	}
}

// RequireSession guards routes that need a signed-in user.
func RequireSession(s *Store) (*model.Session, error) {
	sess := s.Current()
	if sess == nil {
		s.navigate(LoginRoute)
		return nil, ErrNotAuthenticated
	}
	return sess, nil
}

func clone(sess *model.Session) *model.Session {
	if sess == nil {
		return nil
	}
	c := *sess
	return &c
}
