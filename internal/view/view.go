// Package view is the storefront's text front end. Screens are addressed by
// route, like the pages of the web storefront, and rendered to a writer.
// Commands map onto store and controller operations and then show the
// screen that reflects their outcome.
package view

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Salisuili/rest-frontend/internal/admin"
	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/cart"
	"github.com/Salisuili/rest-frontend/internal/checkout"
	"github.com/Salisuili/rest-frontend/internal/delivery"
	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/internal/event"
	"github.com/Salisuili/rest-frontend/internal/menu"
	"github.com/Salisuili/rest-frontend/internal/session"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

const maxRedirects = 5

// Deps are the long-lived stores and clients the view renders from.
type Deps struct {
	Session        *session.Store
	Cart           *cart.Store
	API            *api.Client
	Policy         delivery.Policy
	Events         event.Publisher
	SearchDebounce time.Duration
	Out            io.Writer
	Logger         *slog.Logger
}

// View renders screens and runs commands against one set of stores.
type View struct {
	deps    Deps
	session *session.Store
	cart    *cart.Store
	api     *api.Client
	out     io.Writer
	logger  *slog.Logger
	router  chi.Router
	notify  admin.Notifier
	browser *menu.Browser

	mu          sync.Mutex
	ctl         *controllers
	next        checkout.Route
	interactive bool
}

// controllers hold per-identity screen state and are rebuilt whenever the
// session changes.
type controllers struct {
	checkout   *checkout.Orchestrator
	confirmer  *checkout.Confirmer
	dashboard  *admin.Dashboard
	orders     *admin.OrderBoard
	order      *admin.OrderDetail
	users      *admin.UserManager
	categories *admin.CategoryManager
	items      *admin.MenuManager
}

// New creates a view. Events may be nil.
func New(d Deps) *View {
	if d.Events == nil {
		d.Events = event.Noop{}
	}
	v := &View{
		deps:    d,
		session: d.Session,
		cart:    d.Cart,
		api:     d.API,
		out:     &syncWriter{w: d.Out},
		logger:  d.Logger,
	}
	v.notify = admin.NotifierFunc(v.toast)
	v.browser = menu.NewBrowser(d.API.Menu, d.SearchDebounce, d.Logger, v.onResults)
	v.ctl = v.newControllers()
	v.router = v.routes()
	d.Session.Subscribe(func(domain.Session) { v.resetControllers() })
	return v
}

func (v *View) resetControllers() {
	ctl := v.newControllers()
	v.mu.Lock()
	v.ctl = ctl
	v.mu.Unlock()
}

func (v *View) newControllers() *controllers {
	d := v.deps
	return &controllers{
		checkout: checkout.New(d.API.Orders, d.API.Users, d.Session, d.Cart, v, d.Policy, d.Logger,
			checkout.WithEvents(d.Events),
			checkout.WithTransitionHook(v.onTransition),
		),
		confirmer:  checkout.NewConfirmer(d.API.Orders, d.Cart, d.Logger),
		dashboard:  admin.NewDashboard(d.API.Admin, v.notify, d.Logger),
		orders:     admin.NewOrderBoard(d.API.Orders, v.notify, d.Logger),
		order:      admin.NewOrderDetail(d.API.Orders, v.notify, d.Logger),
		users:      admin.NewUserManager(d.API.Users, d.Session, v.notify, d.Logger),
		categories: admin.NewCategoryManager(d.API.Categories, v.notify, d.Logger),
		items:      admin.NewMenuManager(d.API.MenuItems, d.API.Upload, v.notify, d.Logger),
	}
}

func (v *View) current() *controllers {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctl
}

// Close stops pending background work.
func (v *View) Close() {
	v.browser.Close()
}

// Show renders the screen at path, following guard redirects.
func (v *View) Show(ctx context.Context, path string) error {
	for hop := 0; hop < maxRedirects; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return apperrors.InvalidInput(fmt.Sprintf("invalid route %q", path))
		}
		sw := &screenWriter{out: v.out, header: http.Header{}}
		v.router.ServeHTTP(sw, req)
		if sw.err != nil {
			return sw.err
		}
		if sw.status == http.StatusSeeOther {
			path = sw.header.Get("Location")
			v.logger.DebugContext(ctx, "screen redirected", slog.String("to", path))
			continue
		}
		return nil
	}
	return apperrors.Internal(fmt.Errorf("too many redirects rendering %s", path))
}

// Navigate records the route checkout moved to. It is shown once the
// submitting command returns.
func (v *View) Navigate(r checkout.Route) {
	v.mu.Lock()
	v.next = r
	v.mu.Unlock()
}

// Redirect hands the customer to the payment page.
func (v *View) Redirect(url string) error {
	_, err := fmt.Fprintf(v.out, "Continue to payment: %s\n", url)
	return err
}

func (v *View) takeNext() checkout.Route {
	v.mu.Lock()
	defer v.mu.Unlock()
	r := v.next
	v.next = checkout.RouteNone
	return r
}

func (v *View) setInteractive(on bool) {
	v.mu.Lock()
	v.interactive = on
	v.mu.Unlock()
}

func (v *View) isInteractive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.interactive
}

// toast prints success and info notifications. Errors reach the operator
// through the failing command's returned error.
func (v *View) toast(ctx context.Context, level admin.Level, msg string) {
	switch level {
	case admin.LevelError:
		v.logger.DebugContext(ctx, "admin notification", slog.String("level", string(level)), slog.String("message", msg))
	default:
		fmt.Fprintf(v.out, "[%s] %s\n", level, msg)
	}
}

func (v *View) onTransition(from, to checkout.State) {
	v.logger.Debug("checkout state changed", slog.String("from", string(from)), slog.String("to", string(to)))
}

// onResults prints debounced search results as they arrive.
func (v *View) onResults(r menu.Results) {
	if !r.Debounced {
		return
	}
	if r.Err != nil {
		fmt.Fprintf(v.out, "error: %s\n", apperrors.UserMessage(r.Err, "Failed to search the menu."))
		return
	}
	fmt.Fprintf(v.out, "Results for %q:\n", r.Search)
	RenderItems(v.out, r.Items)
}

// screenWriter adapts the text output to http.ResponseWriter so screens can
// be served by the router.
type screenWriter struct {
	out    io.Writer
	header http.Header
	status int
	err    error
}

func (s *screenWriter) Header() http.Header { return s.header }

func (s *screenWriter) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.out.Write(b)
}

func (s *screenWriter) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}
