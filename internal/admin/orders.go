package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Salisuili/rest-frontend/internal/domain"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
	"github.com/Salisuili/rest-frontend/pkg/pagination"
)

// OrdersAPI is the subset of the orders API the back-office calls.
type OrdersAPI interface {
	All(ctx context.Context, params pagination.Params) ([]domain.Order, error)
	Get(ctx context.Context, id domain.ID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id domain.ID, status domain.OrderStatus) error
}

// ParseStatusFilter accepts "all" (or empty) for no filter, otherwise a
// member of the order status set.
func ParseStatusFilter(s string) (domain.OrderStatus, error) {
	if t := strings.ToLower(strings.TrimSpace(s)); t == "" || t == "all" {
		return "", nil
	}
	st, ok := domain.ParseOrderStatus(s)
	if !ok {
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", s))
	}
	return st, nil
}

func validStatus(s domain.OrderStatus) error {
	if !s.IsValid() {
		return apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", s))
	}
	return nil
}

// OrderBoard is the all-orders screen. Status edits are applied to the row
// immediately and reverted if the backend rejects them.
type OrderBoard struct {
	api    OrdersAPI
	notify Notifier
	logger *slog.Logger

	mu     sync.RWMutex
	orders []domain.Order
	filter domain.OrderStatus
	params pagination.Params
	paged  bool
}

// NewOrderBoard creates the order board on the first page.
func NewOrderBoard(api OrdersAPI, notify Notifier, logger *slog.Logger) *OrderBoard {
	return &OrderBoard{api: api, notify: notify, logger: logger, params: pagination.DefaultParams()}
}

// Load fetches one page of orders. Backends that ignore the page
// parameters return every order; the board then pages locally. A later
// page no longer than the page size is taken as already paged.
func (b *OrderBoard) Load(ctx context.Context, page, limit int) error {
	params := pagination.New(page, limit)
	orders, err := b.api.All(ctx, params)
	if err != nil {
		b.logger.WarnContext(ctx, "failed to load orders", slog.String("error", err.Error()))
		b.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to load orders."))
		return err
	}
	b.mu.Lock()
	b.orders = orders
	b.params = params
	b.paged = len(orders) <= params.PerPage && params.Page > 1
	b.mu.Unlock()
	return nil
}

// Filter restricts the board to one status; "all" clears the filter.
func (b *OrderBoard) Filter(status string) error {
	st, err := ParseStatusFilter(status)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.filter = st
	b.mu.Unlock()
	return nil
}

// Page returns the visible orders after filtering.
func (b *OrderBoard) Page() pagination.Result[domain.Order] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	visible := domain.FilterOrders(b.orders, b.filter)
	if b.paged {
		res := pagination.NewResult(append([]domain.Order(nil), visible...), b.params.Offset()+len(visible), b.params)
		res.HasNext = len(b.orders) == b.params.PerPage
		return res
	}
	return pagination.Slice(visible, b.params)
}

// Status returns the active filter; empty means all.
func (b *OrderBoard) Status() domain.OrderStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// Order returns the loaded order with the given id.
func (b *OrderBoard) Order(id domain.ID) (domain.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// UpdateStatus sets the status of order id. The row shows the new status
// at once and reverts to its prior status if the call fails.
func (b *OrderBoard) UpdateStatus(ctx context.Context, id domain.ID, status domain.OrderStatus) error {
	if err := validStatus(status); err != nil {
		return err
	}

	b.mu.Lock()
	idx := -1
	for i := range b.orders {
		if b.orders[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return apperrors.NotFound("order", id.String())
	}
	prev := b.orders[idx].Status
	b.orders[idx].Status = status
	b.mu.Unlock()

	if err := b.api.UpdateStatus(ctx, id, status); err != nil {
		b.mu.Lock()
		for i := range b.orders {
			if b.orders[i].ID == id && b.orders[i].Status == status {
				b.orders[i].Status = prev
			}
		}
		b.mu.Unlock()
		b.logger.WarnContext(ctx, "order status update rejected",
			slog.String("order_id", id.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		b.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to update order status."))
		return err
	}

	b.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id.String()),
		slog.String("from", string(prev)),
		slog.String("to", string(status)),
	)
	b.notify.Notify(ctx, LevelSuccess, fmt.Sprintf("Order %s... status updated to %s!", id.Short(), status))
	return nil
}

// OrderDetail is the single-order screen.
type OrderDetail struct {
	api    OrdersAPI
	notify Notifier
	logger *slog.Logger

	mu    sync.RWMutex
	order *domain.Order
}

// NewOrderDetail creates the order detail screen.
func NewOrderDetail(api OrdersAPI, notify Notifier, logger *slog.Logger) *OrderDetail {
	return &OrderDetail{api: api, notify: notify, logger: logger}
}

// Load fetches order id.
func (d *OrderDetail) Load(ctx context.Context, id domain.ID) (*domain.Order, error) {
	order, err := d.api.Get(ctx, id)
	if err != nil {
		d.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to load order details."))
		return nil, err
	}
	d.mu.Lock()
	d.order = order
	d.mu.Unlock()
	return d.Order(), nil
}

// Order returns a copy of the loaded order, or nil.
func (d *OrderDetail) Order() *domain.Order {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.order == nil {
		return nil
	}
	o := *d.order
	return &o
}

// UpdateStatus changes the status of the loaded order optimistically.
func (d *OrderDetail) UpdateStatus(ctx context.Context, status domain.OrderStatus) error {
	if err := validStatus(status); err != nil {
		return err
	}

	d.mu.Lock()
	if d.order == nil {
		d.mu.Unlock()
		return apperrors.InvalidInput("no order loaded")
	}
	id, prev := d.order.ID, d.order.Status
	d.order.Status = status
	d.mu.Unlock()

	if err := d.api.UpdateStatus(ctx, id, status); err != nil {
		d.mu.Lock()
		if d.order != nil && d.order.ID == id && d.order.Status == status {
			d.order.Status = prev
		}
		d.mu.Unlock()
		d.logger.WarnContext(ctx, "order status update rejected",
			slog.String("order_id", id.String()),
			slog.String("error", err.Error()),
		)
		d.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to update order status."))
		return err
	}
	d.notify.Notify(ctx, LevelSuccess, fmt.Sprintf("Order status updated to %q!", string(status)))
	return nil
}
