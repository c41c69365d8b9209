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

// MenuItemsAPI is the admin menu items API.
type MenuItemsAPI interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	Get(ctx context.Context, id domain.ID) (*domain.MenuItem, error)
	Create(ctx context.Context, in api.MenuItemInput) (*domain.MenuItem, error)
	Update(ctx context.Context, id domain.ID, in api.MenuItemInput) (*domain.MenuItem, error)
	SetAvailability(ctx context.Context, id domain.ID, available bool) error
	Delete(ctx context.Context, id domain.ID) error
}

// Uploader stores a menu item image and returns its reference URL.
type Uploader interface {
	MenuItemImage(ctx context.Context, img api.Image) (string, error)
}

// MenuManager is the menu item administration screen.
type MenuManager struct {
	api      MenuItemsAPI
	uploader Uploader
	notify   Notifier
	logger   *slog.Logger

	mu    sync.RWMutex
	items []domain.MenuItem
}

// NewMenuManager creates the menu manager.
func NewMenuManager(api MenuItemsAPI, uploader Uploader, notify Notifier, logger *slog.Logger) *MenuManager {
	return &MenuManager{api: api, uploader: uploader, notify: notify, logger: logger}
}

// Load fetches all menu items, including unavailable ones.
func (m *MenuManager) Load(ctx context.Context) error {
	items, err := m.api.List(ctx)
	if err != nil {
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to load menu items."))
		return err
	}
	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
	return nil
}

// Items returns the loaded menu items.
func (m *MenuManager) Items() []domain.MenuItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.MenuItem(nil), m.items...)
}

// Get fetches one item for editing.
func (m *MenuManager) Get(ctx context.Context, id domain.ID) (*domain.MenuItem, error) {
	item, err := m.api.Get(ctx, id)
	if err != nil {
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to load menu item."))
		return nil, err
	}
	return item, nil
}

// Save creates the item when id is empty and updates it otherwise. When img
// is set it is uploaded first and the item is saved only after the upload
// succeeds. A failed upload aborts the save.
func (m *MenuManager) Save(ctx context.Context, id domain.ID, in api.MenuItemInput, img *api.Image) (*domain.MenuItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := validator.Input(in); err != nil {
		return nil, err
	}

	if img != nil {
		url, err := m.uploader.MenuItemImage(ctx, *img)
		if err != nil {
			m.logger.WarnContext(ctx, "image upload failed", slog.String("filename", img.Filename), slog.String("error", err.Error()))
			m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to upload image."))
			return nil, err
		}
		in.ImageURL = url
		m.notify.Notify(ctx, LevelSuccess, "Image uploaded successfully!")
	}

	var (
		item *domain.MenuItem
		err  error
	)
	if id == "" {
		item, err = m.api.Create(ctx, in)
	} else {
		item, err = m.api.Update(ctx, id, in)
	}
	if err != nil {
		m.logger.WarnContext(ctx, "menu item save failed", slog.String("error", err.Error()))
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to save menu item."))
		return nil, err
	}

	m.mu.Lock()
	if id == "" {
		m.items = append(m.items, *item)
	} else {
		m.replace(*item)
	}
	m.mu.Unlock()

	if id == "" {
		m.notify.Notify(ctx, LevelSuccess, "Menu item added successfully!")
	} else {
		m.notify.Notify(ctx, LevelSuccess, "Menu item updated successfully!")
	}
	return item, nil
}

// replace must be called with mu held.
func (m *MenuManager) replace(item domain.MenuItem) {
	for i := range m.items {
		if m.items[i].ID == item.ID {
			m.items[i] = item
			return
		}
	}
}

// SetAvailability toggles whether item id can be ordered.
func (m *MenuManager) SetAvailability(ctx context.Context, id domain.ID, available bool) error {
	if err := m.api.SetAvailability(ctx, id, available); err != nil {
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to update item availability."))
		return err
	}
	m.mu.Lock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].IsAvailable = available
		}
	}
	m.mu.Unlock()
	label := "Unavailable"
	if available {
		label = "Available"
	}
	m.notify.Notify(ctx, LevelSuccess, fmt.Sprintf("Item status updated to %s.", label))
	return nil
}

// Delete removes item id.
func (m *MenuManager) Delete(ctx context.Context, id domain.ID) error {
	if err := m.api.Delete(ctx, id); err != nil {
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to delete menu item."))
		return err
	}
	m.mu.Lock()
	name := id.String()
	out := m.items[:0]
	for _, it := range m.items {
		if it.ID == id {
			name = it.Name
			continue
		}
		out = append(out, it)
	}
	m.items = out
	m.mu.Unlock()
	m.notify.Notify(ctx, LevelSuccess, fmt.Sprintf("%q deleted successfully.", name))
	return nil
}
