package view

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/checkout"
	"github.com/Salisuili/rest-frontend/internal/domain"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
	"github.com/Salisuili/rest-frontend/pkg/logger"
)

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

func (v *View) commands() map[string]command {
	return map[string]command{
		"open":      {"open <route>", v.cmdOpen},
		"login":     {"login <email> <password>", v.cmdLogin},
		"register":  {"register [--phone <phone>] <email> <password> <full name>", v.cmdRegister},
		"logout":    {"logout", v.cmdLogout},
		"whoami":    {"whoami", v.cmdWhoami},
		"menu":      {"menu [--category <id>] [--search <text>]", v.cmdMenu},
		"search":    {"search <text>", v.cmdSearch},
		"item":      {"item <id>", v.cmdItem},
		"cart":      {"cart [add <id> [qty] | remove <id> | set <id> <qty> | note <id> <text> | clear]", v.cmdCart},
		"addresses": {"addresses [add --street <street> --city <city> [--state <state>] [--postal <code>] [--country <country>]]", v.cmdAddresses},
		"checkout":  {"checkout [submit] [--pickup | --delivery] [--address <id>] [--method paystack|cash] [--notes <text>]", v.cmdCheckout},
		"orders":    {"orders", v.cmdOrders},
		"order":     {"order <id> [--reference <ref>]", v.cmdOrder},
		"admin":     {"admin <dashboard|orders|order|status|users|role|delete-user|categories|category-add|category-update|category-delete|items|item-new|item-save|availability|item-delete>", v.cmdAdmin},
		"help":      {"help", v.cmdHelp},
	}
}

// Run executes one command line, already split into words.
func (v *View) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return v.Show(ctx, RouteHome)
	}
	cmd, ok := v.commands()[args[0]]
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("unknown command %q, try: help", args[0]))
	}
	if id, ok := v.session.Identity(); ok {
		ctx = logger.WithIdentityID(ctx, id.ID.String())
	}
	return cmd.run(ctx, args[1:])
}

// Usage writes the command summary.
func (v *View) Usage(w io.Writer) {
	cmds := v.commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", cmds[name].usage)
	}
}

// parseFlags parses fs from args, allowing flags and positional arguments
// to be interleaved. The positional arguments are returned in order.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func need(pos []string, n int, usage string) error {
	if len(pos) < n {
		return apperrors.InvalidInput("usage: " + usage)
	}
	return nil
}

// ---- Session ----

func (v *View) cmdOpen(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return v.Show(ctx, RouteHome)
	}
	return v.Show(ctx, args[0])
}

func (v *View) cmdLogin(ctx context.Context, args []string) error {
	if err := need(args, 2, "login <email> <password>"); err != nil {
		return err
	}
	id, err := v.session.Login(ctx, api.Credentials{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(v.out, "Welcome back, %s!\n", id.DisplayName())
	return nil
}

func (v *View) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	phone := fs.String("phone", "", "phone number")
	pos, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := need(pos, 3, "register [--phone <phone>] <email> <password> <full name>"); err != nil {
		return err
	}
	id, err := v.session.Register(ctx, api.Registration{
		Email:    pos[0],
		Password: pos[1],
		FullName: strings.Join(pos[2:], " "),
		Phone:    *phone,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(v.out, "Welcome, %s! Your account has been created.\n", id.DisplayName())
	return nil
}

func (v *View) cmdLogout(ctx context.Context, _ []string) error {
	v.session.Logout(ctx)
	fmt.Fprintln(v.out, "Signed out.")
	return nil
}

func (v *View) cmdWhoami(ctx context.Context, _ []string) error {
	return v.Show(ctx, RouteAccount)
}

// ---- Menu ----

func (v *View) cmdMenu(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	category := fs.String("category", "", "category id")
	search := fs.String("search", "", "search text")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	q := url.Values{}
	if *category != "" {
		q.Set("category", *category)
	}
	if *search != "" {
		q.Set("q", *search)
	}
	path := RouteMenu
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return v.Show(ctx, path)
}

// cmdSearch debounces in the interactive shell, where results are printed
// when they arrive. Elsewhere it searches at once.
func (v *View) cmdSearch(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if !v.isInteractive() {
		return v.cmdMenu(ctx, []string{"--search", text})
	}
	if !v.browser.Loaded() {
		if err := v.browser.Load(ctx); err != nil {
			return err
		}
	}
	v.browser.Search(ctx, text)
	return nil
}

func (v *View) cmdItem(ctx context.Context, args []string) error {
	if err := need(args, 1, "item <id>"); err != nil {
		return err
	}
	return v.Show(ctx, RouteMenu+"/"+url.PathEscape(args[0]))
}

// awaitSession blocks until the session has been restored or ctx ends.
func (v *View) awaitSession(ctx context.Context) error {
	select {
	case <-v.session.Ready():
		return nil
	case <-ctx.Done():
		return apperrors.Network("Request cancelled.", ctx.Err())
	}
}

// ---- Cart ----

func (v *View) cmdCart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return v.Show(ctx, RouteCart)
	}
	if err := v.awaitSession(ctx); err != nil {
		return err
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "add":
		if err := need(rest, 1, "cart add <id> [qty]"); err != nil {
			return err
		}
		qty := 1
		if len(rest) > 1 {
			n, err := strconv.Atoi(rest[1])
			if err != nil || n < 1 {
				return apperrors.InvalidInput("quantity must be a positive number")
			}
			qty = n
		}
		item, err := v.browser.Item(ctx, domain.ID(rest[0]))
		if err != nil {
			return err
		}
		if _, inCart := v.cart.Snapshot().Find(item.ID); !inCart && !item.IsAvailable {
			return apperrors.InvalidInput(item.Name + " is currently unavailable")
		}
		if err := v.cart.AddItem(ctx, *item); err != nil {
			return err
		}
		if qty > 1 {
			line, _ := v.cart.Snapshot().Find(item.ID)
			if err := v.cart.SetQuantity(ctx, item.ID, line.Quantity+qty-1); err != nil {
				return err
			}
		}
		fmt.Fprintf(v.out, "Added %s to your cart.\n", item.Name)
	case "remove":
		if err := need(rest, 1, "cart remove <id>"); err != nil {
			return err
		}
		if err := v.cart.RemoveItem(ctx, domain.ID(rest[0])); err != nil {
			return err
		}
	case "set":
		if err := need(rest, 2, "cart set <id> <qty>"); err != nil {
			return err
		}
		n, err := strconv.Atoi(rest[1])
		if err != nil {
			return apperrors.InvalidInput("quantity must be a number")
		}
		if err := v.cart.SetQuantity(ctx, domain.ID(rest[0]), n); err != nil {
			return err
		}
	case "note":
		if err := need(rest, 1, "cart note <id> <text>"); err != nil {
			return err
		}
		if err := v.cart.SetInstructions(ctx, domain.ID(rest[0]), strings.Join(rest[1:], " ")); err != nil {
			return err
		}
	case "clear":
		if err := v.cart.Clear(ctx); err != nil {
			return err
		}
	default:
		return apperrors.InvalidInput(fmt.Sprintf("unknown cart command %q", sub))
	}
	return v.Show(ctx, RouteCart)
}

// ---- Checkout ----

// loadedCheckout returns the checkout flow with addresses loaded. A failed
// address fetch is reported but does not stop the flow.
func (v *View) loadedCheckout(ctx context.Context) *checkout.Orchestrator {
	co := v.current().checkout
	if co.State() == checkout.StateLoadingAddresses {
		if err := co.Load(ctx); err != nil {
			fmt.Fprintf(v.out, "error: %s\n", apperrors.UserMessage(err, "Failed to load addresses."))
		}
	}
	return co
}

func (v *View) cmdAddresses(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "add" {
		return v.Show(ctx, RouteAddresses)
	}
	if err := v.awaitSession(ctx); err != nil {
		return err
	}
	if !v.session.IsAuthenticated() {
		return apperrors.Unauthorized(checkout.MsgSignInRequired)
	}

	fs := flag.NewFlagSet("addresses add", flag.ContinueOnError)
	var in api.AddressInput
	fs.StringVar(&in.StreetAddress, "street", "", "street address")
	fs.StringVar(&in.City, "city", "", "city")
	fs.StringVar(&in.State, "state", "", "state")
	fs.StringVar(&in.PostalCode, "postal", "", "postal code")
	fs.StringVar(&in.Country, "country", "", "country")
	if _, err := parseFlags(fs, args[1:]); err != nil {
		return err
	}

	addr, err := v.loadedCheckout(ctx).AddAddress(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(v.out, "Address saved: %s\n", addr.Line())
	return nil
}

func (v *View) cmdCheckout(ctx context.Context, args []string) error {
	submit := len(args) > 0 && args[0] == "submit"
	if submit {
		args = args[1:]
	}

	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	pickup := fs.Bool("pickup", false, "collect the order")
	deliver := fs.Bool("delivery", false, "deliver the order")
	address := fs.String("address", "", "delivery address id")
	method := fs.String("method", "", "payment method")
	notes := fs.String("notes", "", "delivery notes")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := v.awaitSession(ctx); err != nil {
		return err
	}
	co := v.current().checkout
	if route := co.Guard(); route != checkout.RouteNone {
		return v.Show(ctx, RouteCheckout)
	}
	co = v.loadedCheckout(ctx)

	switch {
	case *pickup:
		if err := co.SetDeliveryOption(domain.DeliveryOptionPickup); err != nil {
			return err
		}
	case *deliver:
		if err := co.SetDeliveryOption(domain.DeliveryOptionDelivery); err != nil {
			return err
		}
	}
	if *address != "" {
		if err := co.SelectAddress(domain.ID(*address)); err != nil {
			return err
		}
	}
	if *method != "" {
		if err := co.SetPaymentMethod(domain.PaymentMethod(strings.ToLower(*method))); err != nil {
			return err
		}
	}
	if *notes != "" {
		co.SetNotes(*notes)
	}

	if !submit {
		return v.Show(ctx, RouteCheckout)
	}

	out, err := co.Submit(ctx)
	if err != nil {
		return err
	}
	// The next checkout starts from a fresh form.
	v.resetControllers()
	if next := v.takeNext(); next != checkout.RouteNone {
		return v.Show(ctx, string(next))
	}
	if out.RedirectURL != "" {
		fmt.Fprintf(v.out, "After paying, confirm with: order %s --reference <reference>\n", out.Order.ID)
	}
	return nil
}

// ---- Orders ----

func (v *View) cmdOrders(ctx context.Context, _ []string) error {
	return v.Show(ctx, RouteMyOrders)
}

func (v *View) cmdOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	ref := fs.String("reference", "", "payment reference")
	pos, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := need(pos, 1, "order <id> [--reference <ref>]"); err != nil {
		return err
	}
	path := "/order-confirmation/" + url.PathEscape(pos[0])
	if *ref != "" {
		path += "?" + url.Values{"reference": {*ref}}.Encode()
	}
	return v.Show(ctx, path)
}

// ---- Admin ----

// requireAdmin mirrors the admin screen guard for mutating commands.
func (v *View) requireAdmin(ctx context.Context) error {
	if err := v.awaitSession(ctx); err != nil {
		return err
	}
	if !v.session.IsAuthenticated() {
		return apperrors.Unauthorized("Please log in to continue.")
	}
	if !v.session.IsAdmin() {
		return apperrors.Forbidden("You do not have access to the admin area.")
	}
	return nil
}

func (v *View) cmdAdmin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return v.Show(ctx, RouteAdmin)
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "dashboard":
		return v.Show(ctx, RouteAdmin)
	case "orders":
		return v.adminOrdersCmd(ctx, rest)
	case "order":
		if err := need(rest, 1, "admin order <id>"); err != nil {
			return err
		}
		return v.Show(ctx, RouteAdminOrders+"/"+url.PathEscape(rest[0]))
	case "users":
		return v.Show(ctx, RouteAdminUsers)
	case "categories":
		return v.Show(ctx, RouteAdminCats)
	case "items":
		return v.Show(ctx, RouteAdminMenu)
	case "item-new":
		return v.Show(ctx, RouteAdminMenuNew)
	}

	if err := v.requireAdmin(ctx); err != nil {
		return err
	}
	ctl := v.current()
	switch sub {
	case "status":
		return v.adminStatusCmd(ctx, ctl, rest)
	case "role":
		if err := need(rest, 2, "admin role <user id> <customer|admin>"); err != nil {
			return err
		}
		if err := v.ensureUsers(ctx, ctl); err != nil {
			return err
		}
		role := domain.Role(strings.ToLower(strings.TrimSpace(rest[1])))
		if err := ctl.users.UpdateRole(ctx, domain.ID(rest[0]), role); err != nil {
			return err
		}
		return v.Show(ctx, RouteAdminUsers)
	case "delete-user":
		if err := need(rest, 1, "admin delete-user <user id>"); err != nil {
			return err
		}
		if err := v.ensureUsers(ctx, ctl); err != nil {
			return err
		}
		return ctl.users.Delete(ctx, domain.ID(rest[0]))
	case "category-add":
		in, pos, err := parseCategory("category-add", rest)
		if err != nil {
			return err
		}
		if len(pos) > 0 {
			in.Name = strings.Join(pos, " ")
		}
		_, err = ctl.categories.Create(ctx, in)
		return err
	case "category-update":
		in, pos, err := parseCategory("category-update", rest)
		if err != nil {
			return err
		}
		if err := need(pos, 2, "admin category-update <id> <name> [--description <text>]"); err != nil {
			return err
		}
		in.Name = strings.Join(pos[1:], " ")
		_, err = ctl.categories.Update(ctx, domain.ID(pos[0]), in)
		return err
	case "category-delete":
		if err := need(rest, 1, "admin category-delete <id>"); err != nil {
			return err
		}
		return ctl.categories.Delete(ctx, domain.ID(rest[0]))
	case "item-save":
		return v.adminItemSaveCmd(ctx, ctl, rest)
	case "availability":
		if err := need(rest, 2, "admin availability <id> <true|false>"); err != nil {
			return err
		}
		on, err := strconv.ParseBool(rest[1])
		if err != nil {
			return apperrors.InvalidInput("availability must be true or false")
		}
		return ctl.items.SetAvailability(ctx, domain.ID(rest[0]), on)
	case "item-delete":
		if err := need(rest, 1, "admin item-delete <id>"); err != nil {
			return err
		}
		return ctl.items.Delete(ctx, domain.ID(rest[0]))
	default:
		return apperrors.InvalidInput(fmt.Sprintf("unknown admin command %q", sub))
	}
}

func (v *View) adminOrdersCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("admin orders", flag.ContinueOnError)
	status := fs.String("status", "all", "status filter")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 0, "page size")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	q := url.Values{}
	q.Set("status", *status)
	q.Set("page", strconv.Itoa(*page))
	if *limit > 0 {
		q.Set("limit", strconv.Itoa(*limit))
	}
	return v.Show(ctx, RouteAdminOrders+"?"+q.Encode())
}

// adminStatusCmd updates an order's status through the board when the
// order is listed there, otherwise through the detail screen.
func (v *View) adminStatusCmd(ctx context.Context, ctl *controllers, args []string) error {
	if err := need(args, 2, "admin status <order id> <status>"); err != nil {
		return err
	}
	id := domain.ID(args[0])
	status, ok := domain.ParseOrderStatus(strings.Join(args[1:], " "))
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", strings.Join(args[1:], " ")))
	}
	if _, listed := ctl.orders.Order(id); listed {
		return ctl.orders.UpdateStatus(ctx, id, status)
	}
	if o := ctl.order.Order(); o == nil || o.ID != id {
		if _, err := ctl.order.Load(ctx, id); err != nil {
			return err
		}
	}
	return ctl.order.UpdateStatus(ctx, status)
}

func (v *View) ensureUsers(ctx context.Context, ctl *controllers) error {
	if len(ctl.users.Users()) > 0 {
		return nil
	}
	return ctl.users.Load(ctx)
}

func parseCategory(name string, args []string) (api.CategoryInput, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var in api.CategoryInput
	fs.StringVar(&in.Description, "description", "", "description")
	fs.StringVar(&in.ImageURL, "image-url", "", "image URL")
	pos, err := parseFlags(fs, args)
	return in, pos, err
}

func (v *View) adminItemSaveCmd(ctx context.Context, ctl *controllers, args []string) error {
	fs := flag.NewFlagSet("admin item-save", flag.ContinueOnError)
	var (
		in       api.MenuItemInput
		id       string
		category string
		image    string
	)
	fs.StringVar(&id, "id", "", "item id; empty creates a new item")
	fs.StringVar(&in.Name, "name", "", "name")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.Float64Var(&in.Price, "price", 0, "price")
	fs.StringVar(&category, "category", "", "category id")
	fs.StringVar(&in.ImageURL, "image-url", "", "existing image URL")
	fs.StringVar(&image, "image", "", "image file to upload")
	fs.BoolVar(&in.IsAvailable, "available", true, "whether the item can be ordered")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	in.CategoryID = domain.ID(category)

	if id != "" && in.ImageURL == "" && image == "" {
		existing, err := ctl.items.Get(ctx, domain.ID(id))
		if err != nil {
			return err
		}
		in.ImageURL = existing.ImageURL
	}

	var img *api.Image
	if image != "" {
		f, err := os.Open(image)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return apperrors.InvalidInput(fmt.Sprintf("image file %s not found", image))
			}
			return apperrors.Internal(fmt.Errorf("open image: %w", err))
		}
		defer f.Close()
		img = &api.Image{Filename: image, Content: f}
	}

	item, err := ctl.items.Save(ctx, domain.ID(id), in, img)
	if err != nil {
		return err
	}
	fmt.Fprintln(v.out)
	RenderItem(v.out, *item, v.api.BaseURL())
	return nil
}

func (v *View) cmdHelp(_ context.Context, _ []string) error {
	v.Usage(v.out)
	return nil
}
