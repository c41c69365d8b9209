package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_DecodesStringsAndNumbers(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"abc","b":42,"c":null}`), &v))
	assert.Equal(t, ID("abc"), v.A)
	assert.Equal(t, ID("42"), v.B)
	assert.Equal(t, ID(""), v.C)
}

func TestID_RejectsObjects(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &id))
}

func TestID_Short(t *testing.T) {
	assert.Equal(t, "0f8fad5b", ID("0f8fad5b-d9cb-469f-a165-70867728950e").Short())
	assert.Equal(t, "12", ID("12").Short())
}

func TestAmount_DecodesNumericStrings(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"4500.50","b":12,"c":""}`), &v))
	assert.Equal(t, Amount(4500.5), v.A)
	assert.Equal(t, Amount(12), v.B)
	assert.Equal(t, Amount(0), v.C)

	var bad Amount
	assert.Error(t, json.Unmarshal([]byte(`"ten"`), &bad))
}

func TestAmount_Naira(t *testing.T) {
	assert.Equal(t, "₦4,500.00", Amount(4500).Naira())
	assert.Equal(t, "₦0.00", Amount(0).Naira())
	assert.Equal(t, "₦1,234,567.89", Amount(1234567.89).Naira())
	assert.Equal(t, "₦999.50", Amount(999.5).Naira())
}

func TestParseOrderStatus(t *testing.T) {
	st, ok := ParseOrderStatus("Payment Pending")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusPaymentPending, st)

	_, ok = ParseOrderStatus("completed")
	assert.False(t, ok)
}

func TestOrderStatus_Label(t *testing.T) {
	assert.Equal(t, "payment discrepancy", OrderStatusPaymentDiscrepancy.Label())
	assert.Len(t, AllOrderStatuses(), 10)
}

func TestOrder_DecodesBackendShape(t *testing.T) {
	body := `{
		"id": 31, "order_number": "ORD-31", "subtotal": "4500", "delivery_fee": 0,
		"total_amount": "4500.00", "status": "completed", "payment_status": "paid",
		"address_id": null, "is_pickup": true, "created_at": "2024-05-01T10:00:00Z",
		"order_items": [{"id": 1, "menu_item_id": 7, "quantity": 3, "price_at_order": "1500",
			"menu_items": {"name": "Jollof Rice"}}],
		"users": {"full_name": "Ada", "email": "ada@example.com"}
	}`
	var o Order
	require.NoError(t, json.Unmarshal([]byte(body), &o))
	assert.Equal(t, ID("31"), o.ID)
	assert.Equal(t, Amount(4500), o.TotalAmount)
	assert.Equal(t, OrderStatus("completed"), o.Status)
	assert.False(t, o.Status.IsValid())
	assert.Nil(t, o.AddressID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Jollof Rice", o.Items[0].Name())
	assert.Equal(t, Amount(4500), o.Items[0].Subtotal())
	assert.Equal(t, "Ada", o.Customer.FullName)
	assert.Equal(t, "ORD-31", o.Reference())
}

func TestFilterOrders(t *testing.T) {
	orders := []Order{
		{ID: "1", Status: OrderStatusPending},
		{ID: "2", Status: OrderStatusDelivered},
		{ID: "3", Status: OrderStatusPending},
	}
	assert.Len(t, FilterOrders(orders, ""), 3)
	got := FilterOrders(orders, OrderStatusPending)
	require.Len(t, got, 2)
	assert.Equal(t, ID("3"), got[1].ID)
}

func TestDefaultAddress(t *testing.T) {
	_, ok := DefaultAddress(nil)
	assert.False(t, ok)

	addrs := []Address{{ID: "1"}, {ID: "2", IsDefault: true}}
	a, ok := DefaultAddress(addrs)
	assert.True(t, ok)
	assert.Equal(t, ID("2"), a.ID)

	a, _ = DefaultAddress([]Address{{ID: "5"}, {ID: "6"}})
	assert.Equal(t, ID("5"), a.ID)
}

func TestAddress_Line(t *testing.T) {
	a := Address{StreetAddress: "1 Marina", City: "Lagos", Country: "Nigeria"}
	assert.Equal(t, "1 Marina, Lagos, Nigeria", a.Line())
}

func TestResolveImageURL(t *testing.T) {
	base := "http://localhost:5000/"
	assert.Equal(t, "http://localhost:5000/uploads/a.png", ResolveImageURL(base, "/uploads/a.png"))
	assert.Equal(t, "http://localhost:5000/uploads/a.png", ResolveImageURL(base, "uploads/a.png"))
	assert.Equal(t, "https://cdn/x.png", ResolveImageURL(base, "https://cdn/x.png"))
	assert.Equal(t, "", ResolveImageURL(base, ""))
}

func TestSession_IdentityOf(t *testing.T) {
	_, ok := IdentityOf(Anonymous{})
	assert.False(t, ok)

	id, ok := IdentityOf(Authenticated{Identity: Identity{ID: "1", Role: RoleAdmin}})
	assert.True(t, ok)
	assert.True(t, id.IsAdmin())
}

func TestIdentity_DisplayName(t *testing.T) {
	assert.Equal(t, "a@b.c", Identity{Email: "a@b.c"}.DisplayName())
	assert.Equal(t, "Ada", Identity{Email: "a@b.c", FullName: "Ada"}.DisplayName())
}

func TestDashboard_StatByTitleOrPosition(t *testing.T) {
	d := Dashboard{Stats: []DashboardStat{{Title: StatTotalOrders, Value: 12.0}}}
	s, ok := d.Stat(StatTotalOrders)
	require.True(t, ok)
	assert.Equal(t, 12.0, s.Value)

	d = Dashboard{Stats: []DashboardStat{{Value: 1.0}, {Value: "₦10"}}}
	s, ok = d.Stat(StatTotalRevenue)
	require.True(t, ok)
	assert.Equal(t, "₦10", s.Value)

	_, ok = d.Stat(StatMenuItems)
	assert.False(t, ok)
}

func TestCategory_ImageRef(t *testing.T) {
	base := "http://localhost:5000"
	assert.Equal(t, "http://localhost:5000/uploads/rice.png", Category{ImageURL: "rice.png"}.ImageRef(base))
	assert.Equal(t, "http://localhost:5000/uploads/rice.png", Category{ImageURL: "/uploads/rice.png"}.ImageRef(base))
	assert.Equal(t, "", Category{}.ImageRef(base))
}
