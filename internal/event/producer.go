package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Salisuili/rest-frontend/internal/domain"
	pkgkafka "github.com/Salisuili/rest-frontend/pkg/kafka"
	"github.com/Salisuili/rest-frontend/pkg/logger"
)

// Storefront analytics topics.
var (
	TopicCartUpdated    = pkgkafka.Topic("cart", "updated")
	TopicCartCleared    = pkgkafka.Topic("cart", "cleared")
	TopicOrderPlaced    = pkgkafka.Topic("order", "placed")
	TopicCheckoutFailed = pkgkafka.Topic("checkout", "failed")
)

// Aggregate types.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceStorefront identifies events emitted by this client.
const SourceStorefront = "storefront-client"

// Publisher emits analytics events. Publishing is best effort: callers log
// errors and carry on.
type Publisher interface {
	CartUpdated(ctx context.Context, cart domain.Cart) error
	CartCleared(ctx context.Context, ownerID domain.ID) error
	OrderPlaced(ctx context.Context, order domain.Order, method domain.PaymentMethod) error
	CheckoutFailed(ctx context.Context, ownerID domain.ID, reason string) error
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	OwnerID     string         `json:"owner_id"`
	Items       []CartLineData `json:"items"`
	ItemCount   int            `json:"item_count"`
	TotalAmount float64        `json:"total_amount"`
}

// CartLineData is the line payload within cart events.
type CartLineData struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	OwnerID string `json:"owner_id"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID       string  `json:"order_id"`
	OrderNumber   string  `json:"order_number,omitempty"`
	TotalAmount   float64 `json:"total_amount"`
	DeliveryFee   float64 `json:"delivery_fee"`
	IsPickup      bool    `json:"is_pickup"`
	PaymentMethod string  `json:"payment_method"`
	ItemCount     int     `json:"item_count"`
}

// CheckoutFailedData is the payload for a checkout.failed event.
type CheckoutFailedData struct {
	OwnerID string `json:"owner_id"`
	Reason  string `json:"reason"`
}

// Producer publishes storefront events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a Kafka-backed publisher.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if id := logger.IdentityIDFromContext(ctx); id != "" {
		event.WithMetadata("identity_id", id)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// CartUpdated publishes a cart.updated event.
func (p *Producer) CartUpdated(ctx context.Context, cart domain.Cart) error {
	items := make([]CartLineData, len(cart.Lines))
	for i, l := range cart.Lines {
		items[i] = CartLineData{
			ItemID:   l.ItemID.String(),
			Name:     l.Name,
			Price:    l.UnitPrice.Float(),
			Quantity: l.Quantity,
		}
	}
	data := CartUpdatedData{
		OwnerID:     cart.OwnerID.String(),
		Items:       items,
		ItemCount:   cart.Count(),
		TotalAmount: cart.Total().Float(),
	}
	return p.publish(ctx, TopicCartUpdated, cart.OwnerID.String(), AggregateTypeCart, data)
}

// CartCleared publishes a cart.cleared event.
func (p *Producer) CartCleared(ctx context.Context, ownerID domain.ID) error {
	return p.publish(ctx, TopicCartCleared, ownerID.String(), AggregateTypeCart, CartClearedData{OwnerID: ownerID.String()})
}

// OrderPlaced publishes an order.placed event.
func (p *Producer) OrderPlaced(ctx context.Context, order domain.Order, method domain.PaymentMethod) error {
	data := OrderPlacedData{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		TotalAmount:   order.TotalAmount.Float(),
		DeliveryFee:   order.DeliveryFee.Float(),
		IsPickup:      order.IsPickup,
		PaymentMethod: string(method),
		ItemCount:     order.ItemCount(),
	}
	return p.publish(ctx, TopicOrderPlaced, order.ID.String(), AggregateTypeOrder, data)
}

// CheckoutFailed publishes a checkout.failed event.
func (p *Producer) CheckoutFailed(ctx context.Context, ownerID domain.ID, reason string) error {
	data := CheckoutFailedData{OwnerID: ownerID.String(), Reason: reason}
	return p.publish(ctx, TopicCheckoutFailed, ownerID.String(), AggregateTypeOrder, data)
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.kafka.Close()
}

// Noop discards every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) CartUpdated(context.Context, domain.Cart) error                        { return nil }
func (Noop) CartCleared(context.Context, domain.ID) error                          { return nil }
func (Noop) OrderPlaced(context.Context, domain.Order, domain.PaymentMethod) error { return nil }
func (Noop) CheckoutFailed(context.Context, domain.ID, string) error               { return nil }
