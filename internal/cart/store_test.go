package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/internal/event"
	"github.com/Salisuili/rest-frontend/internal/storage"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// --- Mocks ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) CartUpdated(ctx context.Context, cart domain.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *mockPublisher) CartCleared(ctx context.Context, ownerID domain.ID) error {
	return m.Called(ctx, ownerID).Error(0)
}

func (m *mockPublisher) OrderPlaced(ctx context.Context, order domain.Order, method domain.PaymentMethod) error {
	return m.Called(ctx, order, method).Error(0)
}

func (m *mockPublisher) CheckoutFailed(ctx context.Context, ownerID domain.ID, reason string) error {
	return m.Called(ctx, ownerID, reason).Error(0)
}

type failingStore struct {
	*storage.MemoryStore
	setErr error
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value)
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var (
	jollof = domain.MenuItem{ID: "7", Name: "Jollof Rice", Price: 1500, IsAvailable: true}
	suya   = domain.MenuItem{ID: "8", Name: "Suya", Price: 2000, IsAvailable: true}
	ada    = domain.Authenticated{Identity: domain.Identity{ID: "1", Email: "ada@example.com", Role: domain.RoleCustomer}}
	bo     = domain.Authenticated{Identity: domain.Identity{ID: "2", Email: "bo@example.com", Role: domain.RoleCustomer}}
)

func persistedLines(t *testing.T, s storage.Store, owner domain.ID) ([]domain.LineItem, bool) {
	t.Helper()
	var lines []domain.LineItem
	err := storage.GetJSON(context.Background(), s, storage.CartKey(owner), &lines)
	if storage.IsNotFound(err) {
		return nil, false
	}
	require.NoError(t, err)
	return lines, true
}

// --- Tests ---

func TestStore_AnonymousCartIsNotPersisted(t *testing.T) {
	mem := storage.NewMemoryStore()
	s := New(mem, nil, newTestLogger())

	require.NoError(t, s.AddItem(context.Background(), jollof))

	assert.Equal(t, 1, s.Count())
	assert.Empty(t, mem.Keys())
}

func TestStore_AddSetQuantityPersistsEveryStep(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	s := New(mem, event.Noop{}, newTestLogger())
	require.NoError(t, s.Attach(ctx, ada))

	require.NoError(t, s.AddItem(ctx, jollof))
	require.NoError(t, s.AddItem(ctx, jollof))
	lines, ok := persistedLines(t, mem, "1")
	require.True(t, ok)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	require.NoError(t, s.SetQuantity(ctx, "7", 3))
	assert.Equal(t, domain.Amount(4500), s.Total())
	lines, _ = persistedLines(t, mem, "1")
	assert.Equal(t, 3, lines[0].Quantity)

	require.NoError(t, s.SetQuantity(ctx, "7", 0))
	assert.True(t, s.IsEmpty())
	lines, ok = persistedLines(t, mem, "1")
	assert.True(t, ok)
	assert.Empty(t, lines)
}

func TestStore_AttachLoadsPersistedCart(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, "cart_1", []byte(`[{"id":7,"name":"Jollof Rice","price":"1500","quantity":2},{"id":9,"quantity":0}]`)))

	s := New(mem, nil, newTestLogger())
	require.NoError(t, s.Attach(ctx, ada))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.ID("7"), lines[0].ItemID)
	assert.Equal(t, domain.Amount(3000), s.Total())
}

func TestStore_CartsAreKeyedPerIdentity(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	s := New(mem, nil, newTestLogger())

	require.NoError(t, s.Attach(ctx, ada))
	require.NoError(t, s.AddItem(ctx, jollof))

	require.NoError(t, s.Attach(ctx, bo))
	assert.True(t, s.IsEmpty())
	require.NoError(t, s.AddItem(ctx, suya))

	require.NoError(t, s.Attach(ctx, domain.Anonymous{}))
	assert.True(t, s.IsEmpty())

	require.NoError(t, s.Attach(ctx, ada))
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.ID("7"), lines[0].ItemID)
}

func TestStore_ClearDeletesPersistedCart(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	pub := &mockPublisher{}
	pub.On("CartUpdated", mock.Anything, mock.Anything).Return(nil)
	pub.On("CartCleared", mock.Anything, domain.ID("1")).Return(nil).Once()

	s := New(mem, pub, newTestLogger())
	require.NoError(t, s.Attach(ctx, ada))
	require.NoError(t, s.AddItem(ctx, jollof))

	require.NoError(t, s.Clear(ctx))

	assert.True(t, s.IsEmpty())
	_, ok := persistedLines(t, mem, "1")
	assert.False(t, ok)
	pub.AssertExpectations(t)
}

func TestStore_PersistFailureLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{MemoryStore: storage.NewMemoryStore()}
	s := New(fs, nil, newTestLogger())
	require.NoError(t, s.Attach(ctx, ada))
	require.NoError(t, s.AddItem(ctx, jollof))

	fs.setErr = errors.New("disk full")
	err := s.AddItem(ctx, suya)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist cart")
	assert.Len(t, s.Lines(), 1)
}

func TestStore_AddItemIgnoresAvailability(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStore(), nil, newTestLogger())
	require.NoError(t, s.AddItem(ctx, jollof))
	require.NoError(t, s.AddItem(ctx, jollof))

	soldOut := jollof
	soldOut.IsAvailable = false
	require.NoError(t, s.AddItem(ctx, soldOut))

	line, ok := s.Snapshot().Find(jollof.ID)
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, 4500.0, s.Total().Float())
}

func TestStore_AddItemDecodedWithoutAvailabilityField(t *testing.T) {
	var item domain.MenuItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"name":"Jollof","price":1500}`), &item))
	s := New(storage.NewMemoryStore(), nil, newTestLogger())

	require.NoError(t, s.AddItem(context.Background(), item))

	assert.Equal(t, 1, s.Count())
}

func TestStore_CorruptPersistedCartStartsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, "cart_1", []byte("{{nope")))
	s := New(mem, nil, newTestLogger())

	err := s.Attach(ctx, ada)

	assert.Error(t, err)
	assert.True(t, s.IsEmpty())
	require.NoError(t, s.AddItem(ctx, jollof))
	lines, ok := persistedLines(t, mem, "1")
	require.True(t, ok)
	assert.Len(t, lines, 1)
}

func TestStore_PublishesUpdatesForSignedInCarts(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	pub.On("CartUpdated", mock.Anything, mock.MatchedBy(func(c domain.Cart) bool {
		return c.OwnerID == "1" && c.Count() == 1
	})).Return(errors.New("broker down")).Once()

	s := New(storage.NewMemoryStore(), pub, newTestLogger())
	require.NoError(t, s.Attach(ctx, ada))

	assert.NoError(t, s.AddItem(ctx, jollof))
	pub.AssertExpectations(t)
}

func TestStore_SetInstructions(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStore(), nil, newTestLogger())
	require.NoError(t, s.AddItem(ctx, jollof))

	require.NoError(t, s.SetInstructions(ctx, "7", "no onions"))
	line, _ := s.Snapshot().Find("7")
	assert.Equal(t, "no onions", line.SpecialInstructions)

	assert.ErrorIs(t, s.SetInstructions(ctx, "99", "x"), apperrors.ErrNotFound)
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStore(), nil, newTestLogger())
	require.NoError(t, s.AddItem(ctx, jollof))

	require.NoError(t, s.RemoveItem(ctx, "99"))
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.RemoveItem(ctx, "7"))
	assert.True(t, s.IsEmpty())
}
