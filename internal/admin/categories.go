package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/domain"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
	"github.com/Salisuili/rest-frontend/pkg/validator"
)

// CategoriesAPI is the admin categories API.
type CategoriesAPI interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, in api.CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id domain.ID, in api.CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id domain.ID) error
}

// CategoryManager is the category administration screen.
type CategoryManager struct {
	api    CategoriesAPI
	notify Notifier
	logger *slog.Logger

	mu         sync.RWMutex
	categories []domain.Category
}

// NewCategoryManager creates the category manager.
func NewCategoryManager(api CategoriesAPI, notify Notifier, logger *slog.Logger) *CategoryManager {
	return &CategoryManager{api: api, notify: notify, logger: logger}
}

// Load fetches all categories.
func (m *CategoryManager) Load(ctx context.Context) error {
	cats, err := m.api.List(ctx)
	if err != nil {
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to load categories."))
		return err
	}
	m.mu.Lock()
	m.categories = cats
	m.mu.Unlock()
	return nil
}

// Categories returns the loaded categories.
func (m *CategoryManager) Categories() []domain.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Category(nil), m.categories...)
}

func normalizeCategory(in api.CategoryInput) (api.CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in, validator.Input(in)
}

// Create adds a category.
func (m *CategoryManager) Create(ctx context.Context, in api.CategoryInput) (*domain.Category, error) {
	in, err := normalizeCategory(in)
	if err != nil {
		return nil, err
	}
	cat, err := m.api.Create(ctx, in)
	if err != nil {
		m.fail(ctx, "create", err, "Failed to add category.")
		return nil, err
	}
	m.mu.Lock()
	m.categories = append(m.categories, *cat)
	m.mu.Unlock()
	m.notify.Notify(ctx, LevelSuccess, "Category added successfully!")
	return cat, nil
}

// Update edits category id.
func (m *CategoryManager) Update(ctx context.Context, id domain.ID, in api.CategoryInput) (*domain.Category, error) {
	in, err := normalizeCategory(in)
	if err != nil {
		return nil, err
	}
	cat, err := m.api.Update(ctx, id, in)
	if err != nil {
		m.fail(ctx, "update", err, "Failed to update category.")
		return nil, err
	}
	m.mu.Lock()
	for i := range m.categories {
		if m.categories[i].ID == id {
			m.categories[i] = *cat
		}
	}
	m.mu.Unlock()
	m.notify.Notify(ctx, LevelSuccess, "Category updated successfully!")
	return cat, nil
}

// Delete removes category id.
func (m *CategoryManager) Delete(ctx context.Context, id domain.ID) error {
	if err := m.api.Delete(ctx, id); err != nil {
		m.fail(ctx, "delete", err, "Failed to delete category.")
		return err
	}
	m.mu.Lock()
	name := id.String()
	out := m.categories[:0]
	for _, c := range m.categories {
		if c.ID == id {
			name = c.Name
			continue
		}
		out = append(out, c)
	}
	m.categories = out
	m.mu.Unlock()
	m.notify.Notify(ctx, LevelSuccess, fmt.Sprintf("%q deleted successfully.", name))
	return nil
}

func (m *CategoryManager) fail(ctx context.Context, op string, err error, fallback string) {
	m.logger.WarnContext(ctx, "category "+op+" failed", slog.String("error", err.Error()))
	m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, fallback))
}
