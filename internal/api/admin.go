package api

import (
	"context"
	"net/http"

	"github.com/Salisuili/rest-frontend/internal/domain"
)

// AdminAPI covers /api/admin.
type AdminAPI struct{ c *Client }

// Dashboard returns headline stats and recent orders.
func (a *AdminAPI) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	var out domain.Dashboard
	err := a.c.do(ctx, call{
		group: "admin", op: "dashboard",
		method: http.MethodGet, path: "/admin/dashboard",
		out: &out, fallback: "Failed to fetch dashboard data.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
