package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/pkg/pagination"
)

// OrderLine is one cart line as submitted to the backend. The backend
// re-prices every line; price is informational.
type OrderLine struct {
	ID                  domain.ID `json:"id"`
	Price               float64   `json:"price"`
	Quantity            int       `json:"quantity"`
	SpecialInstructions *string   `json:"special_instructions"`
}

// OrderRequest is the checkout submission. AddressID is nil for pickup.
type OrderRequest struct {
	Items         []OrderLine          `json:"items"`
	AddressID     *domain.ID           `json:"address_id"`
	DeliveryNotes string               `json:"delivery_notes"`
	IsPickup      bool                 `json:"is_pickup"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

// PaymentInit is returned when a gateway payment is started.
type PaymentInit struct {
	AuthorizationURL string `json:"authorization_url" validate:"required,url"`
	AccessCode       string `json:"access_code,omitempty"`
	Reference        string `json:"reference,omitempty"`
}

// PaymentVerification is the outcome of verifying a gateway reference.
type PaymentVerification struct {
	Status        string               `json:"status"`
	Message       string               `json:"message"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Order         *domain.Order        `json:"order,omitempty"`
}

// Paid reports whether the backend confirmed the payment.
func (v PaymentVerification) Paid() bool {
	if v.PaymentStatus == domain.PaymentStatusPaid {
		return true
	}
	if v.Order != nil && v.Order.PaymentStatus == domain.PaymentStatusPaid {
		return true
	}
	return v.Status == "success" || v.Status == "paid"
}

// OrdersAPI covers /api/orders.
type OrdersAPI struct{ c *Client }

// Create places an order and returns it as created by the backend.
func (o *OrdersAPI) Create(ctx context.Context, in OrderRequest) (*domain.Order, error) {
	var out domain.Order
	err := o.c.do(ctx, call{
		group: "orders", op: "create",
		method: http.MethodPost, path: "/orders",
		body: in, out: &out, fallback: "Failed to create order.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InitiatePayment starts a gateway payment for the order.
func (o *OrdersAPI) InitiatePayment(ctx context.Context, id domain.ID, email string) (*PaymentInit, error) {
	var out PaymentInit
	err := o.c.do(ctx, call{
		group: "orders", op: "initiate_payment",
		method: http.MethodPost, path: "/orders/" + escape(id) + "/initiate-payment",
		body: map[string]string{"email": email}, out: &out,
		fallback: "Failed to initiate payment.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Mine lists the orders of the current identity.
func (o *OrdersAPI) Mine(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := o.c.do(ctx, call{
		group: "orders", op: "mine",
		method: http.MethodGet, path: "/orders/my-orders",
		out: &out, fallback: "Failed to fetch your orders.",
	})
	return out, err
}

// Get fetches one order.
func (o *OrdersAPI) Get(ctx context.Context, id domain.ID) (*domain.Order, error) {
	var out domain.Order
	err := o.c.do(ctx, call{
		group: "orders", op: "get",
		method: http.MethodGet, path: "/orders/" + escape(id),
		out: &out, fallback: "Failed to fetch order details.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// All lists every order for the back-office. The page parameters are sent
// as query values; backends that ignore them return the full list.
func (o *OrdersAPI) All(ctx context.Context, params pagination.Params) ([]domain.Order, error) {
	var out []domain.Order
	err := o.c.do(ctx, call{
		group: "orders", op: "all",
		method: http.MethodGet, path: "/orders", query: params.Values(),
		out: &out, fallback: "Failed to fetch all orders for admin.",
	})
	return out, err
}

// UpdateStatus sets the lifecycle status of an order.
func (o *OrdersAPI) UpdateStatus(ctx context.Context, id domain.ID, status domain.OrderStatus) error {
	return o.c.do(ctx, call{
		group: "orders", op: "update_status",
		method: http.MethodPut, path: "/orders/" + escape(id) + "/status",
		body:     map[string]domain.OrderStatus{"status": status},
		fallback: "Failed to update order status.",
	})
}

// VerifyPayment asks the backend to confirm a gateway reference.
func (o *OrdersAPI) VerifyPayment(ctx context.Context, id domain.ID, reference string) (*PaymentVerification, error) {
	var out PaymentVerification
	err := o.c.do(ctx, call{
		group: "orders", op: "verify_payment",
		method: http.MethodGet, path: "/orders/" + escape(id) + "/verify-payment",
		query: url.Values{"reference": {reference}},
		out:   &out, fallback: "Failed to verify payment.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
