package admin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Salisuili/rest-frontend/internal/domain"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// Reasons a user row cannot be modified.
const (
	ReasonSelf      = "You cannot change or delete your own account."
	ReasonLastAdmin = "The last remaining admin account cannot be changed or deleted."
)

// UsersAPI is the subset of the users API the back-office calls.
type UsersAPI interface {
	All(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, id domain.ID, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, id domain.ID) error
}

// Sessions exposes the signed-in identity.
type Sessions interface {
	Identity() (domain.Identity, bool)
}

// UserManager is the user administration screen. The self and last-admin
// guards run before any request is made.
type UserManager struct {
	api      UsersAPI
	sessions Sessions
	notify   Notifier
	logger   *slog.Logger

	mu    sync.RWMutex
	users []domain.User
}

// NewUserManager creates the user manager.
func NewUserManager(api UsersAPI, sessions Sessions, notify Notifier, logger *slog.Logger) *UserManager {
	return &UserManager{api: api, sessions: sessions, notify: notify, logger: logger}
}

// Load fetches all users.
func (m *UserManager) Load(ctx context.Context) error {
	users, err := m.api.All(ctx)
	if err != nil {
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to load users."))
		return err
	}
	m.mu.Lock()
	m.users = users
	m.mu.Unlock()
	return nil
}

// Users returns the loaded users.
func (m *UserManager) Users() []domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.User(nil), m.users...)
}

// CanModify reports whether the role of target may be changed or target
// deleted, with the reason when it may not.
func (m *UserManager) CanModify(target domain.User) (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.canModify(target)
}

func (m *UserManager) canModify(target domain.User) (bool, string) {
	if self, ok := m.sessions.Identity(); ok && self.ID == target.ID {
		return false, ReasonSelf
	}
	if target.IsAdmin() && m.adminCount() <= 1 {
		return false, ReasonLastAdmin
	}
	return true, ""
}

func (m *UserManager) adminCount() int {
	n := 0
	for _, u := range m.users {
		if u.IsAdmin() {
			n++
		}
	}
	return n
}

func (m *UserManager) find(id domain.ID) (domain.User, int) {
	for i, u := range m.users {
		if u.ID == id {
			return u, i
		}
	}
	return domain.User{}, -1
}

func (m *UserManager) guard(id domain.ID) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	target, idx := m.find(id)
	if idx < 0 {
		return domain.User{}, apperrors.NotFound("user", id.String())
	}
	if ok, reason := m.canModify(target); !ok {
		return domain.User{}, apperrors.Forbidden(reason)
	}
	return target, nil
}

// UpdateRole changes the role of user id. The row is replaced with the
// user the backend returns.
func (m *UserManager) UpdateRole(ctx context.Context, id domain.ID, role domain.Role) error {
	if !role.IsValid() {
		return apperrors.InvalidInput(fmt.Sprintf("unknown role %q", role))
	}
	target, err := m.guard(id)
	if err != nil {
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to update user role."))
		return err
	}

	updated, err := m.api.UpdateRole(ctx, id, role)
	if err != nil {
		m.logger.WarnContext(ctx, "role update rejected",
			slog.String("user_id", id.String()),
			slog.String("error", err.Error()),
		)
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to update user role."))
		return err
	}

	m.mu.Lock()
	if _, idx := m.find(id); idx >= 0 {
		m.users[idx] = *updated
	}
	m.mu.Unlock()
	m.notify.Notify(ctx, LevelSuccess, fmt.Sprintf("Role for %q updated to %s!", target.DisplayName(), updated.Role))
	return nil
}

// Delete removes user id.
func (m *UserManager) Delete(ctx context.Context, id domain.ID) error {
	target, err := m.guard(id)
	if err != nil {
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to delete user."))
		return err
	}

	if err := m.api.Delete(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "user delete rejected",
			slog.String("user_id", id.String()),
			slog.String("error", err.Error()),
		)
		m.notify.Notify(ctx, LevelError, apperrors.UserMessage(err, "Failed to delete user."))
		return err
	}

	m.mu.Lock()
	if _, idx := m.find(id); idx >= 0 {
		m.users = append(m.users[:idx], m.users[idx+1:]...)
	}
	m.mu.Unlock()
	m.notify.Notify(ctx, LevelSuccess, fmt.Sprintf("User %q deleted successfully!", target.DisplayName()))
	return nil
}
