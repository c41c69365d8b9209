package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/cart"
	"github.com/Salisuili/rest-frontend/internal/delivery"
	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/internal/storage"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
	"github.com/Salisuili/rest-frontend/pkg/httpclient"
)

// --- Mocks ---

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) Create(ctx context.Context, in api.OrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrders) InitiatePayment(ctx context.Context, id domain.ID, email string) (*api.PaymentInit, error) {
	args := m.Called(ctx, id, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.PaymentInit), args.Error(1)
}

func (m *mockOrders) Get(ctx context.Context, id domain.ID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrders) VerifyPayment(ctx context.Context, id domain.ID, reference string) (*api.PaymentVerification, error) {
	args := m.Called(ctx, id, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.PaymentVerification), args.Error(1)
}

type mockAddresses struct {
	mock.Mock
}

func (m *mockAddresses) Addresses(ctx context.Context) ([]domain.Address, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *mockAddresses) AddAddress(ctx context.Context, in api.AddressInput) (*domain.Address, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

type fixedSession struct {
	sess domain.Session
}

func (f *fixedSession) Current() domain.Session { return f.sess }

type recordingNav struct {
	routes    []Route
	redirects []string
}

func (n *recordingNav) Navigate(r Route) { n.routes = append(n.routes, r) }

func (n *recordingNav) Redirect(url string) error {
	n.redirects = append(n.redirects, url)
	return nil
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var (
	ada    = domain.Identity{ID: "1", Email: "ada@example.com", Role: domain.RoleCustomer}
	jollof = domain.MenuItem{ID: "7", Name: "Jollof Rice", Price: 1500, IsAvailable: true}
	home   = domain.Address{ID: "a1", StreetAddress: "1 Marina", City: "Lagos", Country: "Nigeria"}
	office = domain.Address{ID: "a2", StreetAddress: "2 Garki", City: "Abuja", Country: "Nigeria", IsDefault: true}
)

type fixture struct {
	orders    *mockOrders
	addresses *mockAddresses
	sessions  *fixedSession
	cart      *cart.Store
	nav       *recordingNav
	states    []State
	o         *Orchestrator
}

func newFixture(t *testing.T, quantity int) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		orders:    &mockOrders{},
		addresses: &mockAddresses{},
		sessions:  &fixedSession{sess: domain.Authenticated{Identity: ada}},
		cart:      cart.New(storage.NewMemoryStore(), nil, newTestLogger()),
		nav:       &recordingNav{},
	}
	require.NoError(t, f.cart.Attach(ctx, f.sessions.sess))
	for i := 0; i < quantity; i++ {
		require.NoError(t, f.cart.AddItem(ctx, jollof))
	}
	f.o = New(f.orders, f.addresses, f.sessions, f.cart, f.nav, delivery.DefaultPolicy(), newTestLogger(),
		WithTransitionHook(func(_, to State) { f.states = append(f.states, to) }),
	)
	return f
}

func (f *fixture) load(t *testing.T, addrs ...domain.Address) {
	t.Helper()
	f.addresses.On("Addresses", mock.Anything).Return(addrs, nil).Once()
	require.NoError(t, f.o.Load(context.Background()))
}

// --- Guard ---

func TestGuard(t *testing.T) {
	f := newFixture(t, 1)
	assert.Equal(t, RouteNone, f.o.Guard())

	require.NoError(t, f.cart.SetQuantity(context.Background(), "7", 0))
	assert.Equal(t, RouteMenu, f.o.Guard())

	f.sessions.sess = domain.Anonymous{}
	assert.Equal(t, RouteLogin, f.o.Guard())
}

// --- Load ---

func TestLoad_SelectsDefaultAddress(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t, home, office)

	assert.Equal(t, domain.ID("a2"), f.o.Draft().AddressID)
	assert.False(t, f.o.AddressFormOpen())
	assert.Equal(t, StateReady, f.o.State())
}

func TestLoad_SelectsFirstWithoutDefault(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t, home)

	assert.Equal(t, domain.ID("a1"), f.o.Draft().AddressID)
}

func TestLoad_NoAddressesOpensForm(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t)

	assert.True(t, f.o.AddressFormOpen())
	assert.Empty(t, f.o.Draft().AddressID)
}

func TestLoad_FailureLeavesFormUsable(t *testing.T) {
	f := newFixture(t, 1)
	f.addresses.On("Addresses", mock.Anything).
		Return(nil, apperrors.Network("Failed to fetch user addresses.", errors.New("refused"))).Once()

	err := f.o.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateReady, f.o.State())
	assert.True(t, f.o.AddressFormOpen())
	assert.Equal(t, "Failed to fetch user addresses.", f.o.LastError())
}

// --- AddAddress ---

func TestAddAddress_FirstBecomesDefaultAndSelected(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t)
	f.addresses.On("AddAddress", mock.Anything, api.AddressInput{
		StreetAddress: "1 Marina", City: "Lagos", Country: "Nigeria", IsDefault: true,
	}).Return(&home, nil).Once()

	addr, err := f.o.AddAddress(context.Background(), api.AddressInput{StreetAddress: " 1 Marina ", City: "Lagos"})

	require.NoError(t, err)
	assert.Equal(t, domain.ID("a1"), addr.ID)
	assert.Equal(t, domain.ID("a1"), f.o.Draft().AddressID)
	assert.False(t, f.o.AddressFormOpen())
	assert.Len(t, f.o.Addresses(), 1)
	f.addresses.AssertExpectations(t)
}

func TestAddAddress_LaterAddressIsNotDefault(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t, office)
	f.addresses.On("AddAddress", mock.Anything, mock.MatchedBy(func(in api.AddressInput) bool {
		return !in.IsDefault
	})).Return(&home, nil).Once()

	_, err := f.o.AddAddress(context.Background(), api.AddressInput{StreetAddress: "1 Marina", City: "Lagos", Country: "Nigeria"})

	require.NoError(t, err)
	f.addresses.AssertExpectations(t)
}

func TestAddAddress_MissingCityRejectedLocally(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t)

	_, err := f.o.AddAddress(context.Background(), api.AddressInput{StreetAddress: "1 Marina"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.addresses.AssertNotCalled(t, "AddAddress", mock.Anything, mock.Anything)
}

// --- Quote ---

func TestQuote_FollowsSelection(t *testing.T) {
	f := newFixture(t, 2)
	f.load(t, home, office)

	q := f.o.Quote()
	assert.Equal(t, delivery.Quote{Subtotal: 3000, Fee: 1000, Total: 4000}, q)

	require.NoError(t, f.o.SelectAddress("a1"))
	assert.Equal(t, domain.Amount(500), f.o.Quote().Fee)

	require.NoError(t, f.o.SetDeliveryOption(domain.DeliveryOptionPickup))
	assert.Equal(t, domain.Amount(0), f.o.Quote().Fee)
}

func TestSelectAddress_Unknown(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t, home)

	assert.ErrorIs(t, f.o.SelectAddress("zzz"), apperrors.ErrNotFound)
	assert.Equal(t, domain.ID("a1"), f.o.Draft().AddressID)
}

func TestSetters_RejectUnknownValues(t *testing.T) {
	f := newFixture(t, 1)

	assert.Error(t, f.o.SetDeliveryOption("drone"))
	assert.Error(t, f.o.SetPaymentMethod("barter"))
	assert.Equal(t, domain.DeliveryOptionDelivery, f.o.Draft().Option)
	assert.Equal(t, domain.PaymentMethodPaystack, f.o.Draft().PaymentMethod)
}

// --- Submit ---

func TestSubmit_DeliveryWithoutAddressRejectedLocally(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t)

	_, err := f.o.Submit(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, MsgAddressRequired, apperrors.UserMessage(err, ""))
	assert.Equal(t, MsgAddressRequired, f.o.LastError())
	assert.Equal(t, StateReady, f.o.State())
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_PickupSendsNullAddress(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t)
	require.NoError(t, f.o.SetDeliveryOption(domain.DeliveryOptionPickup))
	require.NoError(t, f.o.SetPaymentMethod(domain.PaymentMethodCash))

	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(in api.OrderRequest) bool {
		return in.AddressID == nil && in.IsPickup && len(in.Items) == 1
	})).Return(&domain.Order{ID: "o-1"}, nil).Once()

	out, err := f.o.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ConfirmationRoute("o-1"), out.Route)
	f.orders.AssertExpectations(t)
}

func TestSubmit_CashClearsCartAndConfirms(t *testing.T) {
	f := newFixture(t, 2)
	f.load(t, home)
	require.NoError(t, f.o.SetPaymentMethod(domain.PaymentMethodCash))
	require.NoError(t, f.cart.SetInstructions(context.Background(), "7", "extra pepper"))
	f.o.SetNotes(" ring twice ")

	var sent api.OrderRequest
	f.orders.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(api.OrderRequest) }).
		Return(&domain.Order{ID: "o-9", DeliveryFee: 500, TotalAmount: 3500}, nil).Once()

	out, err := f.o.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "o-9", out.Order.ID.String())
	assert.Equal(t, StateConfirmed, f.o.State())
	assert.Equal(t, []State{StateReady, StateSubmitting, StateConfirmed}, f.states)
	assert.True(t, f.cart.IsEmpty())
	assert.Equal(t, []Route{"/order-confirmation/o-9"}, f.nav.routes)
	assert.Empty(t, f.nav.redirects)

	require.NotNil(t, sent.AddressID)
	assert.Equal(t, domain.ID("a1"), *sent.AddressID)
	assert.Equal(t, "ring twice", sent.DeliveryNotes)
	assert.Equal(t, domain.PaymentMethodCash, sent.PaymentMethod)
	require.Len(t, sent.Items, 1)
	assert.Equal(t, 2, sent.Items[0].Quantity)
	assert.Equal(t, 1500.0, sent.Items[0].Price)
	require.NotNil(t, sent.Items[0].SpecialInstructions)
	assert.Equal(t, "extra pepper", *sent.Items[0].SpecialInstructions)
}

func TestSubmit_GatewayRedirectsAndKeepsCart(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t, home)

	f.orders.On("Create", mock.Anything, mock.Anything).Return(&domain.Order{ID: "o-2"}, nil).Once()
	f.orders.On("InitiatePayment", mock.Anything, domain.ID("o-2"), "ada@example.com").
		Return(&api.PaymentInit{AuthorizationURL: "https://checkout.paystack.com/abc"}, nil).Once()

	out, err := f.o.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", out.RedirectURL)
	assert.Equal(t, StateRedirecting, f.o.State())
	assert.Equal(t, []string{"https://checkout.paystack.com/abc"}, f.nav.redirects)
	assert.Empty(t, f.nav.routes)
	assert.False(t, f.cart.IsEmpty())
	f.orders.AssertExpectations(t)
}

func TestSubmit_ServerRejectionKeepsDraft(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t, home, office)
	require.NoError(t, f.o.SelectAddress("a1"))
	f.o.SetNotes("gate code 42")

	f.orders.On("Create", mock.Anything, mock.Anything).
		Return(nil, apperrors.FromStatus(http.StatusBadRequest, "", "Item 7 is out of stock")).Once()

	_, err := f.o.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Item 7 is out of stock", f.o.LastError())
	assert.Equal(t, StateReady, f.o.State())
	assert.Equal(t, []State{StateReady, StateSubmitting, StateFailed, StateReady}, f.states)
	assert.Equal(t, Draft{
		Option:        domain.DeliveryOptionDelivery,
		AddressID:     "a1",
		Notes:         "gate code 42",
		PaymentMethod: domain.PaymentMethodPaystack,
	}, f.o.Draft())
	assert.False(t, f.cart.IsEmpty())
}

func TestSubmit_PaymentInitFailureReturnsToReady(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t, home)

	f.orders.On("Create", mock.Anything, mock.Anything).Return(&domain.Order{ID: "o-3"}, nil).Once()
	f.orders.On("InitiatePayment", mock.Anything, domain.ID("o-3"), mock.Anything).
		Return(nil, apperrors.Network("Failed to initiate payment.", errors.New("timeout"))).Once()

	_, err := f.o.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateReady, f.o.State())
	assert.Equal(t, "Failed to initiate payment.", f.o.LastError())
	assert.Empty(t, f.nav.redirects)
	assert.False(t, f.cart.IsEmpty())
}

func TestSubmit_RejectedWhileInFlight(t *testing.T) {
	f := newFixture(t, 1)
	f.load(t, home)
	require.NoError(t, f.o.SetPaymentMethod(domain.PaymentMethodCash))

	entered := make(chan struct{})
	release := make(chan struct{})
	f.orders.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&domain.Order{ID: "o-4"}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.o.Submit(context.Background())
		done <- err
	}()
	<-entered

	_, err := f.o.Submit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	f.orders.AssertNumberOfCalls(t, "Create", 1)
}

func TestSubmit_AnonymousRejected(t *testing.T) {
	f := newFixture(t, 1)
	f.sessions.sess = domain.Anonymous{}

	_, err := f.o.Submit(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_EmptyCartRejected(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.o.SetDeliveryOption(domain.DeliveryOptionPickup))

	_, err := f.o.Submit(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, MsgEmptyCart, f.o.LastError())
}

// --- Client and backend fee agreement ---

// backendFee mirrors the order service's fee rule for its documented
// configuration: Lagos, free from 5000, 500 below it, 1000 elsewhere.
func backendFee(isPickup bool, city string, subtotal float64) float64 {
	switch {
	case isPickup:
		return 0
	case strings.EqualFold(strings.TrimSpace(city), "lagos") && subtotal >= 5000:
		return 0
	case strings.EqualFold(strings.TrimSpace(city), "lagos"):
		return 500
	default:
		return 1000
	}
}

func newFakeBackend(t *testing.T, addrs []domain.Address) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/users/me/addresses", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(addrs)
	})
	r.Post("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		var in api.OrderRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&in))

		var subtotal float64
		for _, it := range in.Items {
			subtotal += it.Price * float64(it.Quantity)
		}
		city := ""
		if in.AddressID != nil {
			if a, ok := domain.FindAddress(addrs, *in.AddressID); ok {
				city = a.City
			}
		}
		fee := backendFee(in.IsPickup, city, subtotal)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           "o-fee",
			"subtotal":     subtotal,
			"delivery_fee": fee,
			"total_amount": subtotal + fee,
			"status":       "pending",
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmit_FeeAgreesWithBackend(t *testing.T) {
	addrs := []domain.Address{
		{ID: "lag", StreetAddress: "1 Marina", City: "Lagos"},
		{ID: "abj", StreetAddress: "2 Garki", City: "Abuja"},
	}
	srv := newFakeBackend(t, addrs)
	client := api.New(srv.URL, httpclient.New(httpclient.DefaultConfig()), newTestLogger())

	tests := []struct {
		name     string
		option   domain.DeliveryOption
		address  domain.ID
		quantity int
		want     domain.Amount
	}{
		{"elsewhere", domain.DeliveryOptionDelivery, "abj", 2, 1000},
		{"low-fee city above threshold", domain.DeliveryOptionDelivery, "lag", 4, 0},
		{"low-fee city below threshold", domain.DeliveryOptionDelivery, "lag", 1, 500},
		{"pickup", domain.DeliveryOptionPickup, "", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sessions := &fixedSession{sess: domain.Authenticated{Identity: ada}}
			c := cart.New(storage.NewMemoryStore(), nil, newTestLogger())
			require.NoError(t, c.Attach(ctx, sessions.sess))
			for i := 0; i < tt.quantity; i++ {
				require.NoError(t, c.AddItem(ctx, jollof))
			}

			o := New(client.Orders, client.Users, sessions, c, &recordingNav{}, delivery.DefaultPolicy(), newTestLogger())
			require.NoError(t, o.Load(ctx))
			require.NoError(t, o.SetDeliveryOption(tt.option))
			if tt.address != "" {
				require.NoError(t, o.SelectAddress(tt.address))
			}
			require.NoError(t, o.SetPaymentMethod(domain.PaymentMethodCash))
			quoted := o.Quote().Fee

			out, err := o.Submit(ctx)
			require.NoError(t, err)

			assert.Equal(t, tt.want, quoted)
			assert.Equal(t, quoted, out.Order.DeliveryFee)
		})
	}
}
