package domain

// Dashboard stat titles, in the order the backend reports them.
const (
	StatTotalOrders   = "Total Orders"
	StatTotalRevenue  = "Total Revenue"
	StatPendingOrders = "Pending Orders"
	StatMenuItems     = "Menu Items"
)

// DashboardStat is one headline figure. Value is preformatted by the backend
// and may be a number or a string.
type DashboardStat struct {
	Title string `json:"title"`
	Value any    `json:"value"`
}

// Dashboard is the admin overview.
type Dashboard struct {
	Stats        []DashboardStat `json:"stats"`
	RecentOrders []Order         `json:"recentOrders"`
}

// Stat returns the stat with the given title. Untitled stats are matched by
// position in the standard order.
func (d Dashboard) Stat(title string) (DashboardStat, bool) {
	for _, s := range d.Stats {
		if s.Title == title {
			return s, true
		}
	}
	for i, t := range []string{StatTotalOrders, StatTotalRevenue, StatPendingOrders, StatMenuItems} {
		if t == title && i < len(d.Stats) && d.Stats[i].Title == "" {
			s := d.Stats[i]
			s.Title = title
			return s, true
		}
	}
	return DashboardStat{}, false
}
