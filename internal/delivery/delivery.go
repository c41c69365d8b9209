// Package delivery computes the delivery fee for a checkout. It is the only
// implementation of the fee rule in the client; the backend computes the
// authoritative value from the same configuration.
package delivery

import (
	"strings"

	"github.com/Salisuili/rest-frontend/internal/config"
	"github.com/Salisuili/rest-frontend/internal/domain"
)

// Policy holds the fee tiers.
type Policy struct {
	// LowFeeCity gets free delivery above the threshold and a reduced fee
	// below it.
	LowFeeCity            string
	FreeDeliveryThreshold domain.Amount
	ReducedFee            domain.Amount
	StandardFee           domain.Amount
}

// DefaultPolicy returns the tiers the backend ships with.
func DefaultPolicy() Policy {
	return Policy{
		LowFeeCity:            "Lagos",
		FreeDeliveryThreshold: 5000,
		ReducedFee:            500,
		StandardFee:           1000,
	}
}

// FromConfig builds the policy from the DELIVERY_* settings.
func FromConfig(cfg *config.Config) Policy {
	return Policy{
		LowFeeCity:            cfg.DeliveryLowFeeCity,
		FreeDeliveryThreshold: domain.Amount(cfg.DeliveryFreeOver),
		ReducedFee:            domain.Amount(cfg.DeliveryReducedFee),
		StandardFee:           domain.Amount(cfg.DeliveryStandardFee),
	}
}

// Fee returns the delivery fee for an order of cartTotal delivered to city.
// Pickup is always free.
func (p Policy) Fee(option domain.DeliveryOption, city string, cartTotal domain.Amount) domain.Amount {
	if option == domain.DeliveryOptionPickup {
		return 0
	}
	if p.isLowFeeCity(city) {
		if cartTotal >= p.FreeDeliveryThreshold {
			return 0
		}
		return p.ReducedFee
	}
	return p.StandardFee
}

func (p Policy) isLowFeeCity(city string) bool {
	want := normalizeCity(p.LowFeeCity)
	return want != "" && normalizeCity(city) == want
}

func normalizeCity(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Quote is the advisory price breakdown shown before an order is placed.
type Quote struct {
	Subtotal domain.Amount
	Fee      domain.Amount
	Total    domain.Amount
}

// Quote prices cartTotal with the fee for option and city.
func (p Policy) Quote(option domain.DeliveryOption, city string, cartTotal domain.Amount) Quote {
	fee := p.Fee(option, city, cartTotal)
	return Quote{Subtotal: cartTotal, Fee: fee, Total: cartTotal + fee}
}
