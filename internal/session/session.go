package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/internal/storage"
	"github.com/Salisuili/rest-frontend/pkg/validator"
)

// AuthClient is the subset of the API the session store calls.
type AuthClient interface {
	Login(ctx context.Context, in api.Credentials) (*api.AuthResult, error)
	Register(ctx context.Context, in api.Registration) (*api.AuthResult, error)
	Profile(ctx context.Context) (*domain.Identity, error)
}

// Observer is notified after every identity change.
type Observer func(domain.Session)

// Store owns the current session and the persisted credential. It is
// Anonymous and loading until Restore returns.
type Store struct {
	auth   AuthClient
	state  storage.Store
	logger *slog.Logger

	mu        sync.RWMutex
	session   domain.Session
	token     string
	loading   bool
	observers []Observer

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a session store. Call Restore once before rendering any
// identity-dependent view.
func New(auth AuthClient, state storage.Store, logger *slog.Logger) *Store {
	return &Store{
		auth:    auth,
		state:   state,
		logger:  logger,
		session: domain.Anonymous{},
		loading: true,
		ready:   make(chan struct{}),
	}
}

// Restore re-establishes the session from the persisted credential. A
// missing credential yields Anonymous. A credential the backend rejects is
// discarded. Restore never retries and never fails.
func (s *Store) Restore(ctx context.Context) {
	defer s.markReady()

	raw, err := s.state.Get(ctx, storage.TokenKey)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.WarnContext(ctx, "failed to read persisted credential", slog.String("error", err.Error()))
		}
		s.set(domain.Anonymous{}, "")
		return
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		s.set(domain.Anonymous{}, "")
		return
	}
	if tokenExpired(token, time.Now()) {
		s.logger.InfoContext(ctx, "persisted credential expired, signing out")
		s.forgetToken(ctx)
		s.set(domain.Anonymous{}, "")
		return
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	identity, err := s.auth.Profile(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "persisted credential rejected, signing out",
			slog.String("error", err.Error()),
		)
		s.forgetToken(ctx)
		s.set(domain.Anonymous{}, "")
		return
	}

	s.logger.InfoContext(ctx, "session restored", slog.String("identity_id", identity.ID.String()))
	s.set(domain.Authenticated{Identity: *identity}, token)
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// The signature is not checked. Tokens that are not JWTs are left to the
// backend to judge.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		close(s.ready)
	})
}

// Ready is closed once Restore has returned.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Loading reports whether Restore is still in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Login validates the credentials locally, then authenticates against the
// backend. On failure the previous session and credential are kept.
func (s *Store) Login(ctx context.Context, in api.Credentials) (domain.Identity, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validator.Input(in); err != nil {
		return domain.Identity{}, err
	}

	res, err := s.auth.Login(ctx, in)
	if err != nil {
		s.logger.InfoContext(ctx, "login failed", slog.String("email", in.Email), slog.String("error", err.Error()))
		return domain.Identity{}, err
	}
	s.establish(ctx, res)
	return res.User, nil
}

// Register creates a backend user and signs it in.
func (s *Store) Register(ctx context.Context, in api.Registration) (domain.Identity, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validator.Input(in); err != nil {
		return domain.Identity{}, err
	}

	res, err := s.auth.Register(ctx, in)
	if err != nil {
		s.logger.InfoContext(ctx, "registration failed", slog.String("email", in.Email), slog.String("error", err.Error()))
		return domain.Identity{}, err
	}
	s.establish(ctx, res)
	return res.User, nil
}

func (s *Store) establish(ctx context.Context, res *api.AuthResult) {
	if err := s.state.Set(ctx, storage.TokenKey, []byte(res.Token)); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist credential", slog.String("error", err.Error()))
	}
	s.logger.InfoContext(ctx, "signed in", slog.String("identity_id", res.User.ID.String()))
	s.set(domain.Authenticated{Identity: res.User}, res.Token)
}

// Logout clears the session and the persisted credential. It never fails.
func (s *Store) Logout(ctx context.Context) {
	s.forgetToken(ctx)
	s.set(domain.Anonymous{}, "")
	s.logger.InfoContext(ctx, "signed out")
}

func (s *Store) forgetToken(ctx context.Context) {
	if err := s.state.Delete(ctx, storage.TokenKey); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete persisted credential", slog.String("error", err.Error()))
	}
}

func (s *Store) set(sess domain.Session, token string) {
	s.mu.Lock()
	s.session = sess
	s.token = token
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(sess)
	}
}

// Current returns the current session.
func (s *Store) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Identity returns the signed-in identity, if any.
func (s *Store) Identity() (domain.Identity, bool) {
	return domain.IdentityOf(s.Current())
}

// IsAuthenticated reports whether an identity is signed in.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Identity()
	return ok
}

// IsAdmin reports whether the signed-in identity is an admin.
func (s *Store) IsAdmin() bool {
	id, ok := s.Identity()
	return ok && id.IsAdmin()
}

// Token returns the bearer credential, or "" when anonymous. It implements
// api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subscribe registers fn to be called after every identity change.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}
