package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Salisuili/rest-frontend/internal/checkout"
	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/pkg/pagination"
)

const dateLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

// RenderHome writes the landing screen with the category list.
func RenderHome(w io.Writer, cats []domain.Category, base string) {
	heading(w, "Welcome to Our Restaurant")
	fmt.Fprintln(w, "Delicious food delivered to your doorstep")
	fmt.Fprintln(w)
	if len(cats) == 0 {
		fmt.Fprintln(w, "Browse the full menu with: menu")
		return
	}
	fmt.Fprintln(w, "Explore our categories:")
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCATEGORY\tDESCRIPTION\tIMAGE")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Description, c.ImageRef(base))
	}
	tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Filter the menu with: menu --category <id>")
}

// RenderMenu writes the menu with the active filter.
func RenderMenu(w io.Writer, cats []domain.Category, items []domain.MenuItem, category domain.ID, search string) {
	heading(w, "Our Menu")
	filter := "All"
	if c, ok := domain.FindCategory(cats, category); ok {
		filter = c.Name
	}
	fmt.Fprintf(w, "Category: %s", filter)
	if search != "" {
		fmt.Fprintf(w, "  Search: %q", search)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	RenderItems(w, items)
}

// RenderItems writes a menu item table.
func RenderItems(w io.Writer, items []domain.MenuItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No menu items found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tSTATUS")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Price.Naira(), it.CategoryName, availability(it.IsAvailable))
	}
	tw.Flush()
}

// RenderItem writes one menu item.
func RenderItem(w io.Writer, it domain.MenuItem, base string) {
	heading(w, it.Name)
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%s\n", it.ID)
	fmt.Fprintf(tw, "Price\t%s\n", it.Price.Naira())
	if it.CategoryName != "" {
		fmt.Fprintf(tw, "Category\t%s\n", it.CategoryName)
	}
	fmt.Fprintf(tw, "Status\t%s\n", availability(it.IsAvailable))
	if ref := it.ImageRef(base); ref != "" {
		fmt.Fprintf(tw, "Image\t%s\n", ref)
	}
	tw.Flush()
	if it.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, it.Description)
	}
}

// RenderCart writes the cart lines and totals.
func RenderCart(w io.Writer, c domain.Cart) {
	heading(w, "Your Cart")
	if c.IsEmpty() {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tITEM\tPRICE\tQTY\tSUBTOTAL\tNOTES")
	for _, l := range c.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", l.ItemID, l.Name, l.UnitPrice.Naira(), l.Quantity, l.Subtotal().Naira(), l.SpecialInstructions)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nItems: %d\nTotal: %s\n", c.Count(), c.Total().Naira())
}

// RenderCheckout writes the checkout form state and quote.
func RenderCheckout(w io.Writer, o *checkout.Orchestrator, c domain.Cart) {
	heading(w, "Checkout")
	draft := o.Draft()

	fmt.Fprintln(w, "Order summary:")
	tw := newTable(w)
	for _, l := range c.Lines {
		fmt.Fprintf(tw, "  %s x%d\t%s\n", l.Name, l.Quantity, l.Subtotal().Naira())
	}
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Delivery option: %s\n", draft.Option)
	if draft.Option == domain.DeliveryOptionDelivery {
		addrs := o.Addresses()
		if len(addrs) == 0 {
			fmt.Fprintln(w, "No saved addresses.")
		} else {
			fmt.Fprintln(w, "Addresses:")
			tw = newTable(w)
			for _, a := range addrs {
				mark := " "
				if a.ID == draft.AddressID {
					mark = "*"
				}
				def := ""
				if a.IsDefault {
					def = "(default)"
				}
				fmt.Fprintf(tw, "  %s %s\t%s\t%s\n", mark, a.ID, a.Line(), def)
			}
			tw.Flush()
		}
		if o.AddressFormOpen() {
			fmt.Fprintln(w, "Add a delivery address with: addresses add --street <street> --city <city>")
		}
	}
	fmt.Fprintf(w, "Payment method: %s\n", draft.PaymentMethod)
	if draft.Notes != "" {
		fmt.Fprintf(w, "Notes: %s\n", draft.Notes)
	}

	q := o.Quote()
	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintf(tw, "Subtotal\t%s\n", q.Subtotal.Naira())
	fee := q.Fee.Naira()
	if q.Fee == 0 {
		fee = "Free"
	}
	fmt.Fprintf(tw, "Delivery fee\t%s\n", fee)
	fmt.Fprintf(tw, "Total\t%s\n", q.Total.Naira())
	tw.Flush()

	if msg := o.LastError(); msg != "" {
		fmt.Fprintf(w, "\nerror: %s\n", msg)
	}
	fmt.Fprintf(w, "\nState: %s\n", o.State())
}

// RenderOrders writes an order list.
func RenderOrders(w io.Writer, title string, orders []domain.Order) {
	heading(w, title)
	if len(orders) == 0 {
		fmt.Fprintln(w, "You haven't placed any orders yet. Browse our menu with: menu")
		return
	}
	renderOrderTable(w, orders, false)
}

func renderOrderTable(w io.Writer, orders []domain.Order, withCustomer bool) {
	tw := newTable(w)
	if withCustomer {
		fmt.Fprintln(tw, "ID\tORDER\tCUSTOMER\tDATE\tITEMS\tTOTAL\tSTATUS\tPAYMENT")
	} else {
		fmt.Fprintln(tw, "ID\tORDER\tDATE\tITEMS\tTOTAL\tSTATUS\tPAYMENT")
	}
	for _, o := range orders {
		date := ""
		if !o.CreatedAt.IsZero() {
			date = o.CreatedAt.Format(dateLayout)
		}
		if withCustomer {
			customer := "N/A"
			if o.Customer != nil {
				customer = o.Customer.FullName
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n", o.ID, o.Reference(), customer, date, o.ItemCount(), o.TotalAmount.Naira(), o.Status.Label(), o.PaymentStatus.Label())
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n", o.ID, o.Reference(), date, o.ItemCount(), o.TotalAmount.Naira(), o.Status.Label(), o.PaymentStatus.Label())
	}
	tw.Flush()
}

// RenderOrder writes one order in full.
func RenderOrder(w io.Writer, o domain.Order) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Order\t%s\n", o.Reference())
	if !o.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "Placed\t%s\n", o.CreatedAt.Format(dateLayout))
	}
	fmt.Fprintf(tw, "Status\t%s\n", o.Status.Label())
	fmt.Fprintf(tw, "Payment\t%s\n", o.PaymentStatus.Label())
	if o.Customer != nil {
		fmt.Fprintf(tw, "Customer\t%s <%s>\n", o.Customer.FullName, o.Customer.Email)
	}
	switch {
	case o.IsPickup:
		fmt.Fprintf(tw, "Delivery\tpickup\n")
	case o.Address != nil:
		fmt.Fprintf(tw, "Delivery\t%s\n", o.Address.Line())
	}
	if o.DeliveryNotes != "" {
		fmt.Fprintf(tw, "Special instructions\t%s\n", o.DeliveryNotes)
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = newTable(w)
	fmt.Fprintln(tw, "ITEM\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range o.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", it.Name(), it.Quantity, it.PriceAtOrder.Naira(), it.Subtotal().Naira())
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = newTable(w)
	fmt.Fprintf(tw, "Subtotal\t%s\n", o.Subtotal.Naira())
	fmt.Fprintf(tw, "Delivery fee\t%s\n", o.DeliveryFee.Naira())
	fmt.Fprintf(tw, "Total\t%s\n", o.TotalAmount.Naira())
	tw.Flush()
}

// RenderConfirmation writes the order confirmation screen.
func RenderConfirmation(w io.Writer, c checkout.Confirmation) {
	heading(w, "Order Confirmed!")
	fmt.Fprintln(w, "Thank you for your order. We've received it and it's being processed.")
	if v := c.Verification; v != nil {
		if c.Paid() {
			fmt.Fprintln(w, "Payment verified.")
		} else if v.Message != "" {
			fmt.Fprintf(w, "Payment not confirmed: %s\n", v.Message)
		}
	}
	fmt.Fprintln(w)
	if c.Order != nil {
		RenderOrder(w, *c.Order)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "View all your orders with: orders    Continue shopping with: menu")
}

// RenderIdentity writes the signed-in identity.
func RenderIdentity(w io.Writer, id domain.Identity) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Name\t%s\n", id.DisplayName())
	fmt.Fprintf(tw, "Email\t%s\n", id.Email)
	fmt.Fprintf(tw, "Role\t%s\n", id.Role)
	if id.Phone != "" {
		fmt.Fprintf(tw, "Phone\t%s\n", id.Phone)
	}
	tw.Flush()
}

// RenderAddresses writes the saved addresses.
func RenderAddresses(w io.Writer, addrs []domain.Address) {
	heading(w, "Addresses")
	if len(addrs) == 0 {
		fmt.Fprintln(w, "No saved addresses.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tADDRESS\tDEFAULT")
	for _, a := range addrs {
		def := ""
		if a.IsDefault {
			def = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, a.Line(), def)
	}
	tw.Flush()
}

// RenderDashboard writes the admin overview.
func RenderDashboard(w io.Writer, d domain.Dashboard) {
	heading(w, "Admin Dashboard")
	tw := newTable(w)
	for _, title := range []string{domain.StatTotalOrders, domain.StatTotalRevenue, domain.StatPendingOrders, domain.StatMenuItems} {
		if s, ok := d.Stat(title); ok {
			fmt.Fprintf(tw, "%s\t%v\n", title, s.Value)
		}
	}
	tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recent orders:")
	if len(d.RecentOrders) == 0 {
		fmt.Fprintln(w, "No recent orders.")
		return
	}
	renderOrderTable(w, d.RecentOrders, true)
}

// RenderOrderBoard writes one page of the admin order list.
func RenderOrderBoard(w io.Writer, page pagination.Result[domain.Order], status domain.OrderStatus) {
	heading(w, "Orders")
	filter := "all"
	if status != "" {
		filter = status.Label()
	}
	fmt.Fprintf(w, "Status: %s\n\n", filter)
	if len(page.Data) == 0 {
		fmt.Fprintln(w, "No orders found.")
	} else {
		renderOrderTable(w, page.Data, true)
	}
	fmt.Fprintf(w, "\nPage %d", page.Page)
	if page.TotalPages > 0 {
		fmt.Fprintf(w, " of %d", page.TotalPages)
	}
	if page.HasNext {
		fmt.Fprint(w, " (more)")
	}
	fmt.Fprintln(w)
}

// RenderUsers writes the user manager table. canModify decides whether a
// row's actions are offered.
func RenderUsers(w io.Writer, users []domain.User, canModify func(domain.User) (bool, string)) {
	heading(w, "Users")
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tJOINED\tACTIONS")
	for _, u := range users {
		joined := ""
		if !u.CreatedAt.IsZero() {
			joined = u.CreatedAt.Format("2006-01-02")
		}
		actions := "role, delete"
		if ok, reason := canModify(u); !ok {
			actions = "locked: " + reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.FullName, u.Email, u.Role, joined, actions)
	}
	tw.Flush()
}

// RenderCategories writes the admin category table.
func RenderCategories(w io.Writer, cats []domain.Category) {
	heading(w, "Categories")
	if len(cats) == 0 {
		fmt.Fprintln(w, "No categories found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Description)
	}
	tw.Flush()
}

// RenderMenuForm writes the usage of the admin item form.
func RenderMenuForm(w io.Writer, cats []domain.Category) {
	heading(w, "Add Menu Item")
	fmt.Fprintln(w, "admin item-save --name <name> --price <amount> --category <id> [--description <text>] [--image <file>] [--available=false]")
	if len(cats) > 0 {
		fmt.Fprintln(w)
		RenderCategories(w, cats)
	}
}

// RenderNotFound writes the unknown-route screen.
func RenderNotFound(w io.Writer, path string) {
	heading(w, "404 Page Not Found")
	fmt.Fprintf(w, "Nothing lives at %s. Go home with: open /\n", path)
}
