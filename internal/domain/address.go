package domain

// DefaultCountry is applied to new addresses that do not name a country.
const DefaultCountry = "Nigeria"

// Address is a saved delivery address of the current identity.
type Address struct {
	ID            ID     `json:"id"`
	StreetAddress string `json:"street_address" validate:"required"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
	IsDefault     bool   `json:"is_default"`
}

// Line renders the address on one line.
func (a Address) Line() string {
	out := a.StreetAddress
	for _, part := range []string{a.City, a.State, a.Country} {
		if part != "" {
			out += ", " + part
		}
	}
	return out
}

// DefaultAddress returns the address flagged as default, otherwise the
// first one. ok is false when addrs is empty.
func DefaultAddress(addrs []Address) (Address, bool) {
	if len(addrs) == 0 {
		return Address{}, false
	}
	for _, a := range addrs {
		if a.IsDefault {
			return a, true
		}
	}
	return addrs[0], true
}

// FindAddress returns the address with the given id.
func FindAddress(addrs []Address, id ID) (Address, bool) {
	for _, a := range addrs {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}
