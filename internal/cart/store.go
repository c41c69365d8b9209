package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/internal/event"
	"github.com/Salisuili/rest-frontend/internal/storage"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// Store holds the cart of the current identity. While authenticated every
// mutation is persisted under cart_<id> before it becomes visible; while
// anonymous the cart lives in memory only.
type Store struct {
	state  storage.Store
	events event.Publisher
	logger *slog.Logger

	mu      sync.RWMutex
	cart    domain.Cart
	persist bool
}

// New creates a cart store holding an empty anonymous cart.
func New(state storage.Store, events event.Publisher, logger *slog.Logger) *Store {
	if events == nil {
		events = event.Noop{}
	}
	return &Store{
		state:  state,
		events: events,
		logger: logger,
		cart:   domain.NewCart(""),
	}
}

// Attach swaps in the cart of the given session. An authenticated identity
// gets its persisted cart, or an empty one. Anonymous gets a fresh
// in-memory cart.
func (s *Store) Attach(ctx context.Context, sess domain.Session) error {
	switch v := sess.(type) {
	case domain.Authenticated:
		loaded, err := s.load(ctx, v.Identity.ID)
		s.mu.Lock()
		s.cart = loaded
		s.persist = true
		s.mu.Unlock()
		return err
	case domain.Anonymous:
		s.mu.Lock()
		s.cart = domain.NewCart("")
		s.persist = false
		s.mu.Unlock()
		return nil
	default:
		return apperrors.Internal(fmt.Errorf("unknown session type %T", sess))
	}
}

func (s *Store) load(ctx context.Context, owner domain.ID) (domain.Cart, error) {
	var lines []domain.LineItem
	err := storage.GetJSON(ctx, s.state, storage.CartKey(owner), &lines)
	switch {
	case err == nil:
		return domain.Cart{OwnerID: owner, Lines: lines}.Sanitize(), nil
	case storage.IsNotFound(err):
		return domain.NewCart(owner), nil
	default:
		s.logger.WarnContext(ctx, "failed to load persisted cart, starting empty",
			slog.String("owner_id", owner.String()),
			slog.String("error", err.Error()),
		)
		return domain.NewCart(owner), err
	}
}

// AddItem adds one unit of item, inserting a new line when it is absent.
func (s *Store) AddItem(ctx context.Context, item domain.MenuItem) error {
	return s.apply(ctx, func(c domain.Cart) domain.Cart { return c.Add(item) })
}

// RemoveItem deletes the line for id. Absent ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id domain.ID) error {
	return s.apply(ctx, func(c domain.Cart) domain.Cart { return c.Remove(id) })
}

// SetQuantity overwrites the quantity of id; n <= 0 removes the line.
func (s *Store) SetQuantity(ctx context.Context, id domain.ID, n int) error {
	return s.apply(ctx, func(c domain.Cart) domain.Cart { return c.SetQuantity(id, n) })
}

// SetInstructions attaches kitchen instructions to the line for id.
func (s *Store) SetInstructions(ctx context.Context, id domain.ID, text string) error {
	if _, ok := s.Snapshot().Find(id); !ok {
		return apperrors.NotFound("cart line", id.String())
	}
	return s.apply(ctx, func(c domain.Cart) domain.Cart { return c.SetInstructions(id, text) })
}

// Clear empties the cart and deletes its persisted copy.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	owner, persist := s.cart.OwnerID, s.persist
	if persist {
		if err := s.state.Delete(ctx, storage.CartKey(owner)); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("delete persisted cart: %w", err)
		}
	}
	s.cart = domain.NewCart(owner)
	s.mu.Unlock()

	if persist {
		if err := s.events.CartCleared(ctx, owner); err != nil {
			s.logger.WarnContext(ctx, "failed to publish cart cleared event", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, transition func(domain.Cart) domain.Cart) error {
	s.mu.Lock()
	next := transition(s.cart)
	if s.persist {
		if err := storage.SetJSON(ctx, s.state, storage.CartKey(next.OwnerID), next.Lines); err != nil {
			s.mu.Unlock()
			s.logger.ErrorContext(ctx, "failed to persist cart", slog.String("error", err.Error()))
			return fmt.Errorf("persist cart: %w", err)
		}
	}
	s.cart = next
	persist := s.persist
	s.mu.Unlock()

	if persist {
		if err := s.events.CartUpdated(ctx, next); err != nil {
			s.logger.WarnContext(ctx, "failed to publish cart updated event", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]domain.LineItem, len(s.cart.Lines))
	copy(lines, s.cart.Lines)
	return domain.Cart{OwnerID: s.cart.OwnerID, Lines: lines}
}

// Lines returns the cart lines in insertion order.
func (s *Store) Lines() []domain.LineItem {
	return s.Snapshot().Lines
}

// Total is the cart total.
func (s *Store) Total() domain.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Total()
}

// Count is the number of units in the cart.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Count()
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.IsEmpty()
}
