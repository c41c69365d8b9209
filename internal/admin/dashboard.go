package admin

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Salisuili/rest-frontend/internal/domain"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// DashboardAPI fetches the dashboard aggregate.
type DashboardAPI interface {
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
}

// Dashboard is the back-office overview screen.
type Dashboard struct {
	api    DashboardAPI
	notify Notifier
	logger *slog.Logger

	mu   sync.RWMutex
	data *domain.Dashboard
}

// NewDashboard creates the dashboard screen.
func NewDashboard(api DashboardAPI, notify Notifier, logger *slog.Logger) *Dashboard {
	return &Dashboard{api: api, notify: notify, logger: logger}
}

// Load fetches the stats and recent orders.
func (d *Dashboard) Load(ctx context.Context) (*domain.Dashboard, error) {
	data, err := d.api.Dashboard(ctx)
	if err != nil {
		d.logger.WarnContext(ctx, "failed to load dashboard", slog.String("error", err.Error()))
		d.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to load dashboard data."))
		return nil, err
	}
	d.mu.Lock()
	d.data = data
	d.mu.Unlock()
	return data, nil
}

// Data returns the last loaded dashboard, or nil.
func (d *Dashboard) Data() *domain.Dashboard {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data
}
