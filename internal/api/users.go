package api

import (
	"context"
	"net/http"

	"github.com/Salisuili/rest-frontend/internal/domain"
)

// AddressInput is the new-address form.
type AddressInput struct {
	StreetAddress string `json:"street_address" validate:"required"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country" validate:"required"`
	IsDefault     bool   `json:"is_default"`
}

type roleResponse struct {
	User domain.User `json:"user" validate:"required"`
}

// UsersAPI covers /api/users.
type UsersAPI struct{ c *Client }

// Addresses lists the saved addresses of the current identity.
func (u *UsersAPI) Addresses(ctx context.Context) ([]domain.Address, error) {
	var out []domain.Address
	err := u.c.do(ctx, call{
		group: "users", op: "addresses",
		method: http.MethodGet, path: "/users/me/addresses",
		out: &out, fallback: "Failed to fetch user addresses.",
	})
	return out, err
}

// AddAddress saves a new address for the current identity.
func (u *UsersAPI) AddAddress(ctx context.Context, in AddressInput) (*domain.Address, error) {
	var out domain.Address
	err := u.c.do(ctx, call{
		group: "users", op: "add_address",
		method: http.MethodPost, path: "/users/me/addresses",
		body: in, out: &out, fallback: "Failed to add new address.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// All lists every user for the back-office.
func (u *UsersAPI) All(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := u.c.do(ctx, call{
		group: "users", op: "all",
		method: http.MethodGet, path: "/users",
		out: &out, fallback: "Failed to fetch all users.",
	})
	return out, err
}

// Delete removes a user.
func (u *UsersAPI) Delete(ctx context.Context, id domain.ID) error {
	return u.c.do(ctx, call{
		group: "users", op: "delete",
		method: http.MethodDelete, path: "/users/" + escape(id),
		fallback: "Failed to delete user.",
	})
}

// UpdateRole changes a user's role and returns the updated user.
func (u *UsersAPI) UpdateRole(ctx context.Context, id domain.ID, role domain.Role) (*domain.User, error) {
	var out roleResponse
	err := u.c.do(ctx, call{
		group: "users", op: "update_role",
		method: http.MethodPut, path: "/users/" + escape(id) + "/role",
		body: map[string]domain.Role{"role": role}, out: &out,
		fallback: "Failed to update user role.",
	})
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}
