package api

import (
	"context"
	"net/http"

	"github.com/Salisuili/rest-frontend/internal/domain"
)

// CategoryInput is the admin category form.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// CategoriesAPI covers the admin /api/categories endpoints.
type CategoriesAPI struct{ c *Client }

// List returns all categories.
func (a *CategoriesAPI) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := a.c.do(ctx, call{
		group: "categories", op: "list",
		method: http.MethodGet, path: "/categories",
		out: &out, fallback: "Failed to fetch categories.",
	})
	return out, err
}

// Create adds a category.
func (a *CategoriesAPI) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	var out domain.Category
	err := a.c.do(ctx, call{
		group: "categories", op: "create",
		method: http.MethodPost, path: "/categories",
		body: in, out: &out, fallback: "Failed to add category.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a category.
func (a *CategoriesAPI) Update(ctx context.Context, id domain.ID, in CategoryInput) (*domain.Category, error) {
	var out domain.Category
	err := a.c.do(ctx, call{
		group: "categories", op: "update",
		method: http.MethodPut, path: "/categories/" + escape(id),
		body: in, out: &out, fallback: "Failed to update category.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a category.
func (a *CategoriesAPI) Delete(ctx context.Context, id domain.ID) error {
	return a.c.do(ctx, call{
		group: "categories", op: "delete",
		method: http.MethodDelete, path: "/categories/" + escape(id),
		fallback: "Failed to delete category.",
	})
}
