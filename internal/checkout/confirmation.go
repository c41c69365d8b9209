package checkout

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/domain"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// Confirmation is the order-confirmation screen state.
type Confirmation struct {
	Order        *domain.Order
	Verification *api.PaymentVerification
}

// Paid reports whether the order is known to be paid.
func (c Confirmation) Paid() bool {
	if c.Verification != nil && c.Verification.Paid() {
		return true
	}
	return c.Order != nil && c.Order.PaymentStatus == domain.PaymentStatusPaid
}

// Confirmer loads the order a customer returns to after checkout or after
// the payment gateway redirects back.
type Confirmer struct {
	orders Orders
	cart   Cart
	logger *slog.Logger
}

// NewConfirmer creates a confirmer.
func NewConfirmer(orders Orders, cart Cart, logger *slog.Logger) *Confirmer {
	return &Confirmer{orders: orders, cart: cart, logger: logger}
}

// Load fetches order id. With a gateway reference the payment is verified
// first, and a verified payment clears the cart. A failed verification is
// logged and the order is still fetched.
func (c *Confirmer) Load(ctx context.Context, id domain.ID, reference string) (*Confirmation, error) {
	if strings.TrimSpace(id.String()) == "" {
		return nil, apperrors.InvalidInput("No order ID provided.")
	}

	var out Confirmation
	if ref := strings.TrimSpace(reference); ref != "" {
		v, err := c.orders.VerifyPayment(ctx, id, ref)
		if err != nil {
			c.logger.WarnContext(ctx, "payment verification failed",
				slog.String("order_id", id.String()),
				slog.String("reference", ref),
				slog.String("error", err.Error()),
			)
		} else {
			out.Verification = v
			if v.Paid() {
				if err := c.cart.Clear(ctx); err != nil {
					c.logger.ErrorContext(ctx, "failed to clear cart after payment", slog.String("error", err.Error()))
				}
			}
		}
	}

	order, err := c.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out.Order = order
	return &out, nil
}
