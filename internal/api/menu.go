package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Salisuili/rest-frontend/internal/domain"
)

// MenuAPI covers the public /api/menu endpoints.
type MenuAPI struct{ c *Client }

// Categories lists the public menu categories.
func (m *MenuAPI) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := m.c.do(ctx, call{
		group: "menu", op: "categories",
		method: http.MethodGet, path: "/menu/categories",
		out: &out, fallback: "Failed to fetch categories.",
	})
	return out, err
}

// Items lists menu items, optionally filtered by category and search text.
func (m *MenuAPI) Items(ctx context.Context, categoryID domain.ID, search string) ([]domain.MenuItem, error) {
	q := url.Values{}
	if categoryID != "" {
		q.Set("categoryId", categoryID.String())
	}
	if search != "" {
		q.Set("search", search)
	}
	var out []domain.MenuItem
	err := m.c.do(ctx, call{
		group: "menu", op: "items",
		method: http.MethodGet, path: "/menu/items", query: q,
		out: &out, fallback: "Failed to fetch menu items.",
	})
	return out, err
}

// Item fetches one public menu item.
func (m *MenuAPI) Item(ctx context.Context, id domain.ID) (*domain.MenuItem, error) {
	var out domain.MenuItem
	err := m.c.do(ctx, call{
		group: "menu", op: "item",
		method: http.MethodGet, path: "/menu/items/" + escape(id),
		out: &out, fallback: "Failed to fetch menu item.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
