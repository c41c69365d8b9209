package view

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Salisuili/rest-frontend/internal/checkout"
	"github.com/Salisuili/rest-frontend/internal/domain"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// Routes.
const (
	RouteHome         = "/"
	RouteMenu         = "/menu"
	RouteCart         = "/cart"
	RouteCheckout     = "/checkout"
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteMyOrders     = "/my-orders"
	RouteAccount      = "/account"
	RouteAddresses    = "/addresses"
	RouteAdmin        = "/admin"
	RouteAdminOrders  = "/admin/orders"
	RouteAdminMenu    = "/admin/menu"
	RouteAdminMenuNew = "/admin/menu/new"
	RouteAdminCats    = "/admin/categories"
	RouteAdminUsers   = "/admin/users"
)

type screenFunc func(w io.Writer, r *http.Request) error

func (v *View) routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(v.screen(v.notFound))
	r.MethodNotAllowed(v.screen(v.notFound))

	r.Get(RouteHome, v.screen(v.home))
	r.Get(RouteMenu, v.screen(v.menuScreen))
	r.Get(RouteMenu+"/{id}", v.screen(v.itemScreen))
	r.Get(RouteLogin, v.screen(v.loginScreen))
	r.Get(RouteRegister, v.screen(v.registerScreen))

	r.Group(func(r chi.Router) {
		r.Use(v.waitRestore)
		r.Get(RouteCart, v.screen(v.cartScreen))

		r.Group(func(r chi.Router) {
			r.Use(v.requireAuth)
			r.Get(RouteCheckout, v.screen(v.checkoutScreen))
			r.Get(RouteMyOrders, v.screen(v.myOrders))
			r.Get("/order-confirmation/{id}", v.screen(v.confirmation))
			r.Get(RouteAccount, v.screen(v.account))
			r.Get(RouteAddresses, v.screen(v.addresses))
		})
	})

	r.Route(RouteAdmin, func(r chi.Router) {
		r.Use(v.waitRestore)
		r.Use(v.requireAdmin)
		r.Get("/", v.screen(v.adminDashboard))
		r.Get("/orders", v.screen(v.adminOrders))
		r.Get("/orders/{id}", v.screen(v.adminOrder))
		r.Get("/menu", v.screen(v.adminMenu))
		r.Get("/menu/new", v.screen(v.adminMenuNew))
		r.Get("/categories", v.screen(v.adminCategories))
		r.Get("/users", v.screen(v.adminUsers))
	})
	return r
}

func (v *View) screen(fn screenFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			fail(w, err)
		}
	}
}

func fail(w http.ResponseWriter, err error) {
	if sw, ok := w.(*screenWriter); ok {
		sw.err = err
	}
	w.WriteHeader(apperrors.HTTPStatus(err))
}

// redirect sends the viewer to another route. A screen may print a notice
// before redirecting.
func redirect(w http.ResponseWriter, to string) {
	w.Header().Set("Location", to)
	if sw, ok := w.(*screenWriter); ok {
		sw.status = http.StatusSeeOther
		return
	}
	w.WriteHeader(http.StatusSeeOther)
}

// ---- Guards ----

// waitRestore holds identity-dependent screens until the persisted session
// has been restored.
func (v *View) waitRestore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-v.session.Ready():
		case <-r.Context().Done():
			fail(w, apperrors.Network("Request cancelled.", r.Context().Err()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (v *View) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !v.session.IsAuthenticated() {
			fmt.Fprintln(w, "Please log in to continue.")
			redirect(w, RouteLogin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (v *View) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case !v.session.IsAuthenticated():
			fmt.Fprintln(w, "Please log in to continue.")
			redirect(w, RouteLogin)
		case !v.session.IsAdmin():
			fail(w, apperrors.Forbidden("You do not have access to the admin area."))
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// ---- Public screens ----

func (v *View) home(w io.Writer, r *http.Request) error {
	cats, err := v.api.Menu.Categories(r.Context())
	if err != nil {
		v.logger.WarnContext(r.Context(), "failed to load categories", slog.String("error", err.Error()))
	}
	RenderHome(w, cats, v.api.BaseURL())
	return nil
}

func (v *View) menuScreen(w io.Writer, r *http.Request) error {
	ctx := r.Context()
	q := r.URL.Query()
	category, search := domain.ID(q.Get("category")), q.Get("q")

	if !v.browser.Loaded() {
		if err := v.browser.Load(ctx); err != nil {
			return err
		}
	}
	if curCat, curSearch := v.browser.Filter(); curCat != category || curSearch != search {
		if err := v.browser.Apply(ctx, category, search); err != nil {
			return err
		}
	}
	category, search = v.browser.Filter()
	RenderMenu(w, v.browser.Categories(), v.browser.Items(), category, search)
	return nil
}

func (v *View) itemScreen(w io.Writer, r *http.Request) error {
	item, err := v.browser.Item(r.Context(), domain.ID(chi.URLParam(r, "id")))
	if err != nil {
		return err
	}
	RenderItem(w, *item, v.api.BaseURL())
	return nil
}

func (v *View) loginScreen(w io.Writer, _ *http.Request) error {
	if id, ok := v.session.Identity(); ok {
		fmt.Fprintf(w, "Signed in as %s.\n", id.DisplayName())
		return nil
	}
	heading(w, "Log In")
	fmt.Fprintln(w, "login <email> <password>")
	fmt.Fprintln(w, "No account yet? register <email> <password> <full name>")
	return nil
}

func (v *View) registerScreen(w io.Writer, _ *http.Request) error {
	heading(w, "Create an Account")
	fmt.Fprintln(w, "register [--phone <phone>] <email> <password> <full name>")
	return nil
}

func (v *View) cartScreen(w io.Writer, _ *http.Request) error {
	c := v.cart.Snapshot()
	RenderCart(w, c)
	if !c.IsEmpty() {
		if v.session.IsAuthenticated() {
			fmt.Fprintln(w, "\nProceed with: checkout")
		} else {
			fmt.Fprintln(w, "\nLog in to check out. Your cart is not saved until you do.")
		}
	}
	return nil
}

func (v *View) notFound(w io.Writer, r *http.Request) error {
	RenderNotFound(w, r.URL.Path)
	return apperrors.NotFound("page", r.URL.Path)
}

// ---- Customer screens ----

func (v *View) checkoutScreen(w io.Writer, r *http.Request) error {
	if route := v.current().checkout.Guard(); route != checkout.RouteNone {
		if route == checkout.RouteMenu {
			fmt.Fprintln(w, "Your cart is empty.")
		}
		redirect(w, string(route))
		return nil
	}
	if v.current().checkout.State() == checkout.StateLoadingAddresses {
		if err := v.current().checkout.Load(r.Context()); err != nil {
			fmt.Fprintf(w, "error: %s\n\n", apperrors.UserMessage(err, "Failed to load addresses."))
		}
	}
	RenderCheckout(w, v.current().checkout, v.cart.Snapshot())
	return nil
}

func (v *View) myOrders(w io.Writer, r *http.Request) error {
	orders, err := v.api.Orders.Mine(r.Context())
	if err != nil {
		return err
	}
	RenderOrders(w, "My Orders", orders)
	return nil
}

func (v *View) confirmation(w io.Writer, r *http.Request) error {
	ref := r.URL.Query().Get("reference")
	if ref == "" {
		ref = r.URL.Query().Get("trxref")
	}
	c, err := v.current().confirmer.Load(r.Context(), domain.ID(chi.URLParam(r, "id")), ref)
	if err != nil {
		return err
	}
	RenderConfirmation(w, *c)
	return nil
}

func (v *View) account(w io.Writer, _ *http.Request) error {
	id, _ := v.session.Identity()
	heading(w, "Account")
	RenderIdentity(w, id)
	return nil
}

func (v *View) addresses(w io.Writer, r *http.Request) error {
	addrs, err := v.api.Users.Addresses(r.Context())
	if err != nil {
		return err
	}
	RenderAddresses(w, addrs)
	return nil
}

// ---- Admin screens ----

func (v *View) adminDashboard(w io.Writer, r *http.Request) error {
	d, err := v.current().dashboard.Load(r.Context())
	if err != nil {
		return err
	}
	RenderDashboard(w, *d)
	return nil
}

func (v *View) adminOrders(w io.Writer, r *http.Request) error {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if err := v.current().orders.Filter(q.Get("status")); err != nil {
		return err
	}
	if err := v.current().orders.Load(r.Context(), page, limit); err != nil {
		return err
	}
	RenderOrderBoard(w, v.current().orders.Page(), v.current().orders.Status())
	return nil
}

func (v *View) adminOrder(w io.Writer, r *http.Request) error {
	o, err := v.current().order.Load(r.Context(), domain.ID(chi.URLParam(r, "id")))
	if err != nil {
		return err
	}
	heading(w, "Order Details")
	RenderOrder(w, *o)
	fmt.Fprintf(w, "\nChange the status with: admin status %s <status>\n", o.ID)
	return nil
}

func (v *View) adminMenu(w io.Writer, r *http.Request) error {
	if err := v.current().items.Load(r.Context()); err != nil {
		return err
	}
	heading(w, "Menu Items")
	RenderItems(w, v.current().items.Items())
	return nil
}

func (v *View) adminMenuNew(w io.Writer, r *http.Request) error {
	if err := v.current().categories.Load(r.Context()); err != nil {
		return err
	}
	RenderMenuForm(w, v.current().categories.Categories())
	return nil
}

func (v *View) adminCategories(w io.Writer, r *http.Request) error {
	if err := v.current().categories.Load(r.Context()); err != nil {
		return err
	}
	RenderCategories(w, v.current().categories.Categories())
	return nil
}

func (v *View) adminUsers(w io.Writer, r *http.Request) error {
	if err := v.current().users.Load(r.Context()); err != nil {
		return err
	}
	RenderUsers(w, v.current().users.Users(), v.current().users.CanModify)
	return nil
}
