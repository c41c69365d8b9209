package domain

import (
	"strings"
	"time"
)

// OrderStatus is the backend-owned lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusProcessing         OrderStatus = "processing"
	OrderStatusShipped            OrderStatus = "shipped"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusCancelled          OrderStatus = "cancelled"
	OrderStatusRefunded           OrderStatus = "refunded"
	OrderStatusPaymentPending     OrderStatus = "payment_pending"
	OrderStatusPaymentFailed      OrderStatus = "payment_failed"
	OrderStatusPaymentDiscrepancy OrderStatus = "payment_discrepancy"
	OrderStatusPaymentReversed    OrderStatus = "payment_reversed"
)

// AllOrderStatuses returns every status an admin may request, in display
// order.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRefunded,
		OrderStatusPaymentPending,
		OrderStatusPaymentFailed,
		OrderStatusPaymentDiscrepancy,
		OrderStatusPaymentReversed,
	}
}

// IsValid reports whether s is a member of the closed status set.
func (s OrderStatus) IsValid() bool {
	for _, v := range AllOrderStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// ParseOrderStatus normalizes user input ("Payment Pending", "shipped") to a
// status. ok is false for values outside the closed set.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")
	st := OrderStatus(norm)
	return st, st.IsValid()
}

// Label renders the status for display.
func (s OrderStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// PaymentStatus is the gateway-facing payment state reported by the backend.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Label renders the payment status for display.
func (s PaymentStatus) Label() string {
	if s == "" {
		return "N/A"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

// DeliveryOption selects between delivery to an address and pickup.
type DeliveryOption string

const (
	DeliveryOptionDelivery DeliveryOption = "delivery"
	DeliveryOptionPickup   DeliveryOption = "pickup"
)

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	// PaymentMethodPaystack hands the customer to the hosted gateway checkout.
	PaymentMethodPaystack PaymentMethod = "paystack"
	// PaymentMethodCash settles on delivery or pickup.
	PaymentMethodCash PaymentMethod = "cash"
)

// IsGateway reports whether the method requires a payment redirect.
func (m PaymentMethod) IsGateway() bool {
	return m == PaymentMethodPaystack
}

// OrderItem is a line of a placed order, priced at order time.
type OrderItem struct {
	ID                  ID     `json:"id"`
	MenuItemID          ID     `json:"menu_item_id"`
	Quantity            int    `json:"quantity" validate:"gte=0"`
	PriceAtOrder        Amount `json:"price_at_order"`
	SpecialInstructions string `json:"special_instructions"`
	MenuItem            *struct {
		Name string `json:"name"`
	} `json:"menu_items,omitempty"`
}

// Name returns the menu item name, when the backend embedded it.
func (i OrderItem) Name() string {
	if i.MenuItem != nil && i.MenuItem.Name != "" {
		return i.MenuItem.Name
	}
	return "item " + i.MenuItemID.String()
}

// Subtotal is the order-time price multiplied by the quantity.
func (i OrderItem) Subtotal() Amount {
	return i.PriceAtOrder * Amount(i.Quantity)
}

// Customer is the ordering user embedded in admin order views.
type Customer struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Order is created by the backend from a checkout submission. The client
// never changes its fields locally.
type Order struct {
	ID            ID            `json:"id" validate:"required"`
	OrderNumber   string        `json:"order_number"`
	Items         []OrderItem   `json:"order_items" validate:"dive"`
	Subtotal      Amount        `json:"subtotal"`
	DeliveryFee   Amount        `json:"delivery_fee"`
	TotalAmount   Amount        `json:"total_amount"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	AddressID     *ID           `json:"address_id"`
	IsPickup      bool          `json:"is_pickup"`
	DeliveryNotes string        `json:"delivery_notes"`
	CreatedAt     time.Time     `json:"created_at"`
	Address       *Address      `json:"user_addresses,omitempty" validate:"-"`
	Customer      *Customer     `json:"users,omitempty" validate:"-"`
}

// Reference returns the order number, falling back to the short ID.
func (o Order) Reference() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID.Short()
}

// ItemCount is the number of lines on the order.
func (o Order) ItemCount() int {
	return len(o.Items)
}

// FilterOrders returns the orders with the given status. An empty status
// matches all orders.
func FilterOrders(orders []Order, status OrderStatus) []Order {
	if status == "" {
		return orders
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
