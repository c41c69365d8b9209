package session

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/internal/storage"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// --- Mock Auth Client ---

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(ctx context.Context, in api.Credentials) (*api.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.AuthResult), args.Error(1)
}

func (m *mockAuth) Register(ctx context.Context, in api.Registration) (*api.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.AuthResult), args.Error(1)
}

func (m *mockAuth) Profile(ctx context.Context) (*domain.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var (
	ada = domain.Identity{ID: "1", Email: "ada@example.com", FullName: "Ada", Role: domain.RoleCustomer}
	bo  = domain.Identity{ID: "2", Email: "bo@example.com", Role: domain.RoleAdmin}
)

func newTestStore() (*Store, *mockAuth, *storage.MemoryStore) {
	auth := &mockAuth{}
	mem := storage.NewMemoryStore()
	return New(auth, mem, newTestLogger()), auth, mem
}

func persistedToken(t *testing.T, mem *storage.MemoryStore) (string, bool) {
	t.Helper()
	v, err := mem.Get(context.Background(), storage.TokenKey)
	if err != nil {
		return "", false
	}
	return string(v), true
}

// --- Restore ---

func TestRestore_NoCredentialIsAnonymous(t *testing.T) {
	s, auth, _ := newTestStore()
	assert.True(t, s.Loading())

	s.Restore(context.Background())

	assert.False(t, s.Loading())
	assert.IsType(t, domain.Anonymous{}, s.Current())
	select {
	case <-s.Ready():
	default:
		t.Fatal("ready channel not closed")
	}
	auth.AssertNotCalled(t, "Profile", mock.Anything)
}

func TestRestore_ValidCredential(t *testing.T) {
	s, auth, mem := newTestStore()
	require.NoError(t, mem.Set(context.Background(), storage.TokenKey, []byte("tok-1")))

	auth.On("Profile", mock.Anything).Run(func(mock.Arguments) {
		assert.Equal(t, "tok-1", s.Token())
	}).Return(&ada, nil).Once()

	s.Restore(context.Background())

	id, ok := s.Identity()
	require.True(t, ok)
	assert.Equal(t, ada, id)
	assert.Equal(t, "tok-1", s.Token())
	auth.AssertExpectations(t)
}

func TestRestore_RejectedCredentialIsDiscarded(t *testing.T) {
	s, auth, mem := newTestStore()
	require.NoError(t, mem.Set(context.Background(), storage.TokenKey, []byte("stale")))
	auth.On("Profile", mock.Anything).Return(nil, apperrors.Unauthorized("Token expired")).Once()

	s.Restore(context.Background())

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	_, ok := persistedToken(t, mem)
	assert.False(t, ok)
	assert.False(t, s.Loading())
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return tok
}

func TestRestore_ExpiredJWTIsDiscardedWithoutCall(t *testing.T) {
	s, auth, mem := newTestStore()
	require.NoError(t, mem.Set(context.Background(), storage.TokenKey, []byte(signedToken(t, time.Now().Add(-time.Hour)))))

	s.Restore(context.Background())

	assert.False(t, s.IsAuthenticated())
	_, ok := persistedToken(t, mem)
	assert.False(t, ok)
	auth.AssertNotCalled(t, "Profile", mock.Anything)
}

func TestRestore_UnexpiredJWTIsChecked(t *testing.T) {
	s, auth, mem := newTestStore()
	tok := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, mem.Set(context.Background(), storage.TokenKey, []byte(tok)))
	auth.On("Profile", mock.Anything).Return(&ada, nil).Once()

	s.Restore(context.Background())

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, tok, s.Token())
	auth.AssertExpectations(t)
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, tokenExpired(signedToken(t, now.Add(-time.Minute)), now))
	assert.False(t, tokenExpired(signedToken(t, now.Add(time.Minute)), now))
	assert.False(t, tokenExpired("opaque-token", now))
}

// --- Login / Register ---

func TestLogin_InvalidInputMakesNoCall(t *testing.T) {
	s, auth, _ := newTestStore()

	_, err := s.Login(context.Background(), api.Credentials{Email: "not-an-email"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "password")
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestLogin_SuccessPersistsAndNotifies(t *testing.T) {
	s, auth, mem := newTestStore()
	auth.On("Login", mock.Anything, api.Credentials{Email: "ada@example.com", Password: "pw"}).
		Return(&api.AuthResult{Token: "tok-1", User: ada}, nil).Once()

	var seen []domain.Session
	s.Subscribe(func(sess domain.Session) { seen = append(seen, sess) })

	id, err := s.Login(context.Background(), api.Credentials{Email: " ada@example.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, ada, id)
	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.IsAdmin())

	tok, ok := persistedToken(t, mem)
	require.True(t, ok)
	assert.Equal(t, "tok-1", tok)
	require.Len(t, seen, 1)
	assert.Equal(t, domain.Authenticated{Identity: ada}, seen[0])
}

func TestLogin_FailureKeepsPreviousSession(t *testing.T) {
	s, auth, mem := newTestStore()
	auth.On("Login", mock.Anything, api.Credentials{Email: "ada@example.com", Password: "pw"}).
		Return(&api.AuthResult{Token: "tok-a", User: ada}, nil).Once()
	auth.On("Login", mock.Anything, api.Credentials{Email: "bo@example.com", Password: "bad"}).
		Return(nil, apperrors.Unauthorized("Invalid credentials")).Once()

	_, err := s.Login(context.Background(), api.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = s.Login(context.Background(), api.Credentials{Email: "bo@example.com", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", apperrors.UserMessage(err, ""))

	id, ok := s.Identity()
	require.True(t, ok)
	assert.Equal(t, ada, id)
	assert.Equal(t, "tok-a", s.Token())
	tok, _ := persistedToken(t, mem)
	assert.Equal(t, "tok-a", tok)
}

func TestRegister_Success(t *testing.T) {
	s, auth, _ := newTestStore()
	in := api.Registration{FullName: "Bo", Email: "bo@example.com", Password: "secret1"}
	auth.On("Register", mock.Anything, in).Return(&api.AuthResult{Token: "tok-b", User: bo}, nil).Once()

	id, err := s.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, bo, id)
	assert.True(t, s.IsAdmin())
}

func TestRegister_ShortPasswordRejectedLocally(t *testing.T) {
	s, auth, _ := newTestStore()

	_, err := s.Register(context.Background(), api.Registration{FullName: "Bo", Email: "bo@example.com", Password: "123"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

// --- Logout ---

func TestLogout_ClearsEverything(t *testing.T) {
	s, auth, mem := newTestStore()
	auth.On("Login", mock.Anything, mock.Anything).Return(&api.AuthResult{Token: "tok-1", User: ada}, nil).Once()
	_, err := s.Login(context.Background(), api.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	var last domain.Session
	s.Subscribe(func(sess domain.Session) { last = sess })

	s.Logout(context.Background())

	assert.IsType(t, domain.Anonymous{}, s.Current())
	assert.IsType(t, domain.Anonymous{}, last)
	assert.Empty(t, s.Token())
	_, ok := persistedToken(t, mem)
	assert.False(t, ok)
}

func TestStore_ImplementsTokenSource(t *testing.T) {
	var _ api.TokenSource = (*Store)(nil)
}
