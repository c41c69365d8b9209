package admin

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/pkg/pagination"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type note struct {
	Level   Level
	Message string
}

type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) Notify(_ context.Context, level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{Level: level, Message: message})
}

func (r *recorder) last() note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return note{}
	}
	return r.notes[len(r.notes)-1]
}

// --- Orders ---

type mockOrdersAPI struct {
	mock.Mock
}

func (m *mockOrdersAPI) All(ctx context.Context, params pagination.Params) ([]domain.Order, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrdersAPI) Get(ctx context.Context, id domain.ID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrdersAPI) UpdateStatus(ctx context.Context, id domain.ID, status domain.OrderStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

// --- Users ---

type mockUsersAPI struct {
	mock.Mock
}

func (m *mockUsersAPI) All(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUsersAPI) UpdateRole(ctx context.Context, id domain.ID, role domain.Role) (*domain.User, error) {
	args := m.Called(ctx, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUsersAPI) Delete(ctx context.Context, id domain.ID) error {
	return m.Called(ctx, id).Error(0)
}

type fixedIdentity struct {
	id domain.Identity
}

func (f fixedIdentity) Identity() (domain.Identity, bool) { return f.id, f.id.ID != "" }

// --- Categories ---

type mockCategoriesAPI struct {
	mock.Mock
}

func (m *mockCategoriesAPI) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoriesAPI) Create(ctx context.Context, in api.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoriesAPI) Update(ctx context.Context, id domain.ID, in api.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoriesAPI) Delete(ctx context.Context, id domain.ID) error {
	return m.Called(ctx, id).Error(0)
}

// --- Menu items ---

type mockMenuItemsAPI struct {
	mock.Mock
}

func (m *mockMenuItemsAPI) List(ctx context.Context) ([]domain.MenuItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MenuItem), args.Error(1)
}

func (m *mockMenuItemsAPI) Get(ctx context.Context, id domain.ID) (*domain.MenuItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MenuItem), args.Error(1)
}

func (m *mockMenuItemsAPI) Create(ctx context.Context, in api.MenuItemInput) (*domain.MenuItem, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MenuItem), args.Error(1)
}

func (m *mockMenuItemsAPI) Update(ctx context.Context, id domain.ID, in api.MenuItemInput) (*domain.MenuItem, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MenuItem), args.Error(1)
}

func (m *mockMenuItemsAPI) SetAvailability(ctx context.Context, id domain.ID, available bool) error {
	return m.Called(ctx, id, available).Error(0)
}

func (m *mockMenuItemsAPI) Delete(ctx context.Context, id domain.ID) error {
	return m.Called(ctx, id).Error(0)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) MenuItemImage(ctx context.Context, img api.Image) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}
