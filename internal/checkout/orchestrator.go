package checkout

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/delivery"
	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/internal/event"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
	"github.com/Salisuili/rest-frontend/pkg/validator"
)

// State is a step of the checkout form.
type State string

const (
	StateLoadingAddresses State = "loading-addresses"
	StateReady            State = "ready"
	StateSubmitting       State = "submitting"
	StateRedirecting      State = "redirecting-to-payment"
	StateConfirmed        State = "confirmed"
	StateFailed           State = "failed"
)

// Route is a screen the checkout sends the user to.
type Route string

const (
	RouteNone  Route = ""
	RouteLogin Route = "/login"
	RouteMenu  Route = "/menu"
)

// ConfirmationRoute is the screen shown after an order is placed.
func ConfirmationRoute(id domain.ID) Route {
	return Route("/order-confirmation/" + id.String())
}

// Messages shown for local validation failures.
const (
	MsgEmptyCart       = "Your cart is empty. Please add items to proceed to checkout."
	MsgAddressRequired = "Please select a delivery address or add a new one."
	MsgSignInRequired  = "Please log in to place an order."
	MsgSubmitting      = "Your order is already being placed."
	msgCheckoutFailed  = "An error occurred during checkout"
)

// Orders is the subset of the orders API used by checkout.
type Orders interface {
	Create(ctx context.Context, in api.OrderRequest) (*domain.Order, error)
	InitiatePayment(ctx context.Context, id domain.ID, email string) (*api.PaymentInit, error)
	Get(ctx context.Context, id domain.ID) (*domain.Order, error)
	VerifyPayment(ctx context.Context, id domain.ID, reference string) (*api.PaymentVerification, error)
}

// Addresses is the subset of the users API used by checkout.
type Addresses interface {
	Addresses(ctx context.Context) ([]domain.Address, error)
	AddAddress(ctx context.Context, in api.AddressInput) (*domain.Address, error)
}

// Sessions exposes the current session.
type Sessions interface {
	Current() domain.Session
}

// Cart is the subset of the cart store used by checkout.
type Cart interface {
	Snapshot() domain.Cart
	Clear(ctx context.Context) error
}

// Navigator moves the user between screens. Redirect leaves the
// application for an external URL.
type Navigator interface {
	Navigate(route Route)
	Redirect(url string) error
}

// Draft is the user-entered part of the checkout form.
type Draft struct {
	Option        domain.DeliveryOption
	AddressID     domain.ID
	Notes         string
	PaymentMethod domain.PaymentMethod
}

// Outcome is the result of a successful submit.
type Outcome struct {
	Order       *domain.Order
	RedirectURL string
	Route       Route
}

// Orchestrator sequences address selection, fee quoting, order creation and
// the payment hand-off for one checkout screen.
type Orchestrator struct {
	orders    Orders
	addresses Addresses
	sessions  Sessions
	cart      Cart
	nav       Navigator
	policy    delivery.Policy
	events    event.Publisher
	logger    *slog.Logger
	onChange  func(from, to State)

	mu          sync.Mutex
	state       State
	draft       Draft
	addrs       []domain.Address
	addressForm bool
	lastErr     string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTransitionHook registers fn to observe every state change. fn runs
// with the orchestrator locked and must not call back into it.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(o *Orchestrator) { o.onChange = fn }
}

// WithEvents publishes order placed and checkout failed events.
func WithEvents(p event.Publisher) Option {
	return func(o *Orchestrator) { o.events = p }
}

// New creates an orchestrator in the loading-addresses state with delivery
// and gateway payment preselected.
func New(orders Orders, addresses Addresses, sessions Sessions, cart Cart, nav Navigator, policy delivery.Policy, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		orders:    orders,
		addresses: addresses,
		sessions:  sessions,
		cart:      cart,
		nav:       nav,
		policy:    policy,
		events:    event.Noop{},
		logger:    logger,
		state:     StateLoadingAddresses,
		draft: Draft{
			Option:        domain.DeliveryOptionDelivery,
			PaymentMethod: domain.PaymentMethodPaystack,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Guard returns the route to leave for when checkout cannot be shown, or
// RouteNone. Call it before every render.
func (o *Orchestrator) Guard() Route {
	switch o.sessions.Current().(type) {
	case domain.Anonymous:
		return RouteLogin
	case domain.Authenticated:
	}
	if o.cart.Snapshot().IsEmpty() {
		return RouteMenu
	}
	return RouteNone
}

// Load fetches the saved addresses and selects the default one. With no
// saved addresses the new-address form is opened. A failed fetch is
// returned but the form stays usable.
func (o *Orchestrator) Load(ctx context.Context) error {
	o.mu.Lock()
	o.transition(StateLoadingAddresses)
	o.mu.Unlock()

	addrs, err := o.addresses.Addresses(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.transition(StateReady)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to load delivery addresses", slog.String("error", err.Error()))
		o.lastErr = apperrors.UserMessage(err, "Failed to load delivery addresses.")
		o.addressForm = len(o.addrs) == 0
		return err
	}
	o.addrs = addrs
	if def, ok := domain.DefaultAddress(addrs); ok {
		if _, selected := domain.FindAddress(addrs, o.draft.AddressID); !selected {
			o.draft.AddressID = def.ID
		}
		o.addressForm = false
	} else {
		o.addressForm = true
	}
	return nil
}

// AddAddress saves a new address and selects it. The first address a user
// saves becomes their default.
func (o *Orchestrator) AddAddress(ctx context.Context, in api.AddressInput) (*domain.Address, error) {
	in.StreetAddress = strings.TrimSpace(in.StreetAddress)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Country = strings.TrimSpace(in.Country)
	if in.Country == "" {
		in.Country = domain.DefaultCountry
	}

	o.mu.Lock()
	in.IsDefault = len(o.addrs) == 0
	o.mu.Unlock()

	if err := validator.Input(in); err != nil {
		return nil, err
	}

	addr, err := o.addresses.AddAddress(ctx, in)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to add address", slog.String("error", err.Error()))
		return nil, err
	}

	o.mu.Lock()
	o.addrs = append(o.addrs, *addr)
	o.draft.AddressID = addr.ID
	o.addressForm = false
	o.mu.Unlock()
	return addr, nil
}

// OpenAddressForm shows the inline new-address form.
func (o *Orchestrator) OpenAddressForm() {
	o.mu.Lock()
	o.addressForm = true
	o.mu.Unlock()
}

// CloseAddressForm hides the inline new-address form.
func (o *Orchestrator) CloseAddressForm() {
	o.mu.Lock()
	o.addressForm = false
	o.mu.Unlock()
}

// SetDeliveryOption switches between delivery and pickup.
func (o *Orchestrator) SetDeliveryOption(opt domain.DeliveryOption) error {
	if opt != domain.DeliveryOptionDelivery && opt != domain.DeliveryOptionPickup {
		return apperrors.InvalidInput("unknown delivery option " + string(opt))
	}
	o.mu.Lock()
	o.draft.Option = opt
	o.mu.Unlock()
	return nil
}

// SelectAddress selects one of the loaded addresses.
func (o *Orchestrator) SelectAddress(id domain.ID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := domain.FindAddress(o.addrs, id); !ok {
		return apperrors.NotFound("address", id.String())
	}
	o.draft.AddressID = id
	return nil
}

// SetNotes sets the delivery notes.
func (o *Orchestrator) SetNotes(notes string) {
	o.mu.Lock()
	o.draft.Notes = strings.TrimSpace(notes)
	o.mu.Unlock()
}

// SetPaymentMethod selects gateway or cash payment.
func (o *Orchestrator) SetPaymentMethod(m domain.PaymentMethod) error {
	if m != domain.PaymentMethodPaystack && m != domain.PaymentMethodCash {
		return apperrors.InvalidInput("unknown payment method " + string(m))
	}
	o.mu.Lock()
	o.draft.PaymentMethod = m
	o.mu.Unlock()
	return nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Draft returns the user-entered form values.
func (o *Orchestrator) Draft() Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

// Addresses returns the loaded addresses.
func (o *Orchestrator) Addresses() []domain.Address {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.Address, len(o.addrs))
	copy(out, o.addrs)
	return out
}

// AddressFormOpen reports whether the new-address form is shown.
func (o *Orchestrator) AddressFormOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.addressForm
}

// LastError returns the message of the most recent failure.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Quote prices the current cart with the advisory delivery fee.
func (o *Orchestrator) Quote() delivery.Quote {
	o.mu.Lock()
	opt, city := o.draft.Option, o.selectedCity()
	o.mu.Unlock()
	return o.policy.Quote(opt, city, o.cart.Snapshot().Total())
}

func (o *Orchestrator) selectedCity() string {
	if a, ok := domain.FindAddress(o.addrs, o.draft.AddressID); ok {
		return a.City
	}
	return ""
}

// Submit places the order. Local validation failures issue no request. A
// gateway payment ends in a redirect; any other method clears the cart and
// navigates to the confirmation screen. On failure the draft is kept and
// the form returns to ready.
func (o *Orchestrator) Submit(ctx context.Context) (*Outcome, error) {
	o.mu.Lock()
	if o.state == StateSubmitting {
		o.mu.Unlock()
		return nil, apperrors.Busy(MsgSubmitting)
	}
	identity, ok := domain.IdentityOf(o.sessions.Current())
	if !ok {
		o.mu.Unlock()
		return nil, apperrors.Unauthorized(MsgSignInRequired)
	}
	cart := o.cart.Snapshot()
	draft := o.draft
	req, err := o.buildRequest(cart, draft)
	if err != nil {
		o.lastErr = apperrors.UserMessage(err, msgCheckoutFailed)
		o.mu.Unlock()
		return nil, err
	}
	quote := o.policy.Quote(draft.Option, o.selectedCity(), cart.Total())
	o.lastErr = ""
	o.transition(StateSubmitting)
	o.mu.Unlock()

	order, err := o.orders.Create(ctx, req)
	if err != nil {
		return nil, o.fail(ctx, identity.ID, "create order", err)
	}

	o.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID.String()),
		slog.String("payment_method", string(draft.PaymentMethod)),
		slog.Float64("total_amount", order.TotalAmount.Float()),
	)
	if order.DeliveryFee != quote.Fee {
		o.logger.WarnContext(ctx, "delivery fee differs from backend",
			slog.String("order_id", order.ID.String()),
			slog.Float64("quoted_fee", quote.Fee.Float()),
			slog.Float64("backend_fee", order.DeliveryFee.Float()),
		)
	}
	if err := o.events.OrderPlaced(ctx, *order, draft.PaymentMethod); err != nil {
		o.logger.WarnContext(ctx, "failed to publish order placed event", slog.String("error", err.Error()))
	}

	if draft.PaymentMethod.IsGateway() {
		pay, err := o.orders.InitiatePayment(ctx, order.ID, identity.Email)
		if err != nil {
			return nil, o.fail(ctx, identity.ID, "initiate payment", err)
		}
		o.mu.Lock()
		o.transition(StateRedirecting)
		o.mu.Unlock()
		if err := o.nav.Redirect(pay.AuthorizationURL); err != nil {
			o.logger.WarnContext(ctx, "failed to open payment page",
				slog.String("url", pay.AuthorizationURL),
				slog.String("error", err.Error()),
			)
		}
		return &Outcome{Order: order, RedirectURL: pay.AuthorizationURL}, nil
	}

	if err := o.cart.Clear(ctx); err != nil {
		o.logger.ErrorContext(ctx, "failed to clear cart after order", slog.String("error", err.Error()))
	}
	o.mu.Lock()
	o.transition(StateConfirmed)
	o.mu.Unlock()
	route := ConfirmationRoute(order.ID)
	o.nav.Navigate(route)
	return &Outcome{Order: order, Route: route}, nil
}

func (o *Orchestrator) buildRequest(cart domain.Cart, draft Draft) (api.OrderRequest, error) {
	if cart.IsEmpty() {
		return api.OrderRequest{}, apperrors.InvalidInput(MsgEmptyCart)
	}
	req := api.OrderRequest{
		Items:         make([]api.OrderLine, 0, len(cart.Lines)),
		DeliveryNotes: draft.Notes,
		IsPickup:      draft.Option == domain.DeliveryOptionPickup,
		PaymentMethod: draft.PaymentMethod,
	}
	if !req.IsPickup {
		if draft.AddressID == "" {
			return api.OrderRequest{}, apperrors.InvalidInput(MsgAddressRequired)
		}
		if _, ok := domain.FindAddress(o.addrs, draft.AddressID); !ok {
			return api.OrderRequest{}, apperrors.InvalidInput(MsgAddressRequired)
		}
		id := draft.AddressID
		req.AddressID = &id
	}
	for _, l := range cart.Lines {
		line := api.OrderLine{ID: l.ItemID, Price: l.UnitPrice.Float(), Quantity: l.Quantity}
		if l.SpecialInstructions != "" {
			text := l.SpecialInstructions
			line.SpecialInstructions = &text
		}
		req.Items = append(req.Items, line)
	}
	return req, nil
}

func (o *Orchestrator) fail(ctx context.Context, owner domain.ID, step string, err error) error {
	msg := apperrors.UserMessage(err, msgCheckoutFailed)
	o.logger.WarnContext(ctx, "checkout failed",
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
	if perr := o.events.CheckoutFailed(ctx, owner, msg); perr != nil {
		o.logger.WarnContext(ctx, "failed to publish checkout failed event", slog.String("error", perr.Error()))
	}

	o.mu.Lock()
	o.lastErr = msg
	o.transition(StateFailed)
	o.transition(StateReady)
	o.mu.Unlock()
	return err
}

// transition must be called with mu held.
func (o *Orchestrator) transition(to State) {
	from := o.state
	o.state = to
	if o.onChange != nil && from != to {
		o.onChange(from, to)
	}
}
