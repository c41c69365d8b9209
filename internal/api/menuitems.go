package api

import (
	"context"
	"net/http"

	"github.com/Salisuili/rest-frontend/internal/domain"
)

// MenuItemInput is the admin menu item form.
type MenuItemInput struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description"`
	Price       float64   `json:"price" validate:"gt=0"`
	CategoryID  domain.ID `json:"category_id" validate:"required"`
	ImageURL    string    `json:"image_url"`
	IsAvailable bool      `json:"is_available"`
}

// MenuItemsAPI covers the admin /api/menu-items endpoints.
type MenuItemsAPI struct{ c *Client }

// List returns all menu items, including unavailable ones.
func (a *MenuItemsAPI) List(ctx context.Context) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	err := a.c.do(ctx, call{
		group: "menu_items", op: "list",
		method: http.MethodGet, path: "/menu-items",
		out: &out, fallback: "Failed to fetch menu items.",
	})
	return out, err
}

// Get fetches one menu item.
func (a *MenuItemsAPI) Get(ctx context.Context, id domain.ID) (*domain.MenuItem, error) {
	var out domain.MenuItem
	err := a.c.do(ctx, call{
		group: "menu_items", op: "get",
		method: http.MethodGet, path: "/menu-items/" + escape(id),
		out: &out, fallback: "Failed to fetch menu item.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create adds a menu item.
func (a *MenuItemsAPI) Create(ctx context.Context, in MenuItemInput) (*domain.MenuItem, error) {
	var out domain.MenuItem
	err := a.c.do(ctx, call{
		group: "menu_items", op: "create",
		method: http.MethodPost, path: "/menu-items",
		body: in, out: &out, fallback: "Failed to create menu item.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a menu item.
func (a *MenuItemsAPI) Update(ctx context.Context, id domain.ID, in MenuItemInput) (*domain.MenuItem, error) {
	var out domain.MenuItem
	err := a.c.do(ctx, call{
		group: "menu_items", op: "update",
		method: http.MethodPut, path: "/menu-items/" + escape(id),
		body: in, out: &out, fallback: "Failed to update menu item.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetAvailability toggles whether an item can be ordered.
func (a *MenuItemsAPI) SetAvailability(ctx context.Context, id domain.ID, available bool) error {
	return a.c.do(ctx, call{
		group: "menu_items", op: "set_availability",
		method: http.MethodPatch, path: "/menu-items/" + escape(id) + "/availability",
		body:     map[string]bool{"is_available": available},
		fallback: "Failed to update item availability.",
	})
}

// Delete removes a menu item.
func (a *MenuItemsAPI) Delete(ctx context.Context, id domain.ID) error {
	return a.c.do(ctx, call{
		group: "menu_items", op: "delete",
		method: http.MethodDelete, path: "/menu-items/" + escape(id),
		fallback: "Failed to delete menu item.",
	})
}
