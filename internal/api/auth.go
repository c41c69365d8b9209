package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Salisuili/rest-frontend/internal/domain"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration are the register form fields.
type Registration struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone,omitempty"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string          `json:"token" validate:"required"`
	User  domain.Identity `json:"user" validate:"required"`
}

// AuthAPI covers /api/auth.
type AuthAPI struct{ c *Client }

// Login exchanges credentials for a token and identity.
func (a *AuthAPI) Login(ctx context.Context, in Credentials) (*AuthResult, error) {
	var out AuthResult
	err := a.c.do(ctx, call{
		group: "auth", op: "login",
		method: http.MethodPost, path: "/auth/login",
		body: in, out: &out,
		fallback: "Login failed due to network or server error.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a backend user and signs it in.
func (a *AuthAPI) Register(ctx context.Context, in Registration) (*AuthResult, error) {
	var out AuthResult
	err := a.c.do(ctx, call{
		group: "auth", op: "register",
		method: http.MethodPost, path: "/auth/register",
		body: in, out: &out,
		fallback: "Registration failed due to network or server error.",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the identity of the current token. Backends without
// /auth/me are asked for /users/profile instead.
func (a *AuthAPI) Profile(ctx context.Context) (*domain.Identity, error) {
	const fallback = "Failed to fetch user profile."
	var out domain.Identity
	err := a.c.do(ctx, call{
		group: "auth", op: "profile",
		method: http.MethodGet, path: "/auth/me",
		out: &out, fallback: fallback,
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		out = domain.Identity{}
		err = a.c.do(ctx, call{
			group: "users", op: "profile",
			method: http.MethodGet, path: "/users/profile",
			out: &out, fallback: fallback,
		})
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
