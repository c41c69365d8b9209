// Package menu drives the public menu screen: category and item listing,
// category filtering, and debounced text search.
package menu

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Salisuili/rest-frontend/internal/domain"
)

// Catalog is the subset of the public menu API the browser calls.
type Catalog interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Items(ctx context.Context, categoryID domain.ID, search string) ([]domain.MenuItem, error)
	Item(ctx context.Context, id domain.ID) (*domain.MenuItem, error)
}

// Results is one completed item fetch. Debounced is set for results of
// Search, which arrive asynchronously.
type Results struct {
	Category  domain.ID
	Search    string
	Items     []domain.MenuItem
	Err       error
	Debounced bool
}

// Browser holds the menu screen state. Fetches that complete after a newer
// one was started are discarded.
type Browser struct {
	catalog   Catalog
	logger    *slog.Logger
	debouncer *Debouncer
	onResults func(Results)

	mu         sync.RWMutex
	categories []domain.Category
	items      []domain.MenuItem
	category   domain.ID
	search     string
	loaded     bool
	seq        uint64
}

// NewBrowser creates a browser whose searches wait for debounce of idle
// input. onResults, when set, receives every fetch that is not superseded.
func NewBrowser(catalog Catalog, debounce time.Duration, logger *slog.Logger, onResults func(Results)) *Browser {
	return &Browser{
		catalog:   catalog,
		logger:    logger,
		debouncer: NewDebouncer(debounce),
		onResults: onResults,
	}
}

// Load fetches categories and the unfiltered item list concurrently.
func (b *Browser) Load(ctx context.Context) error {
	var (
		cats  []domain.Category
		items []domain.MenuItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cats, err = b.catalog.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = b.catalog.Items(gctx, "", "")
		return err
	})
	if err := g.Wait(); err != nil {
		b.logger.WarnContext(ctx, "failed to load menu", slog.String("error", err.Error()))
		return err
	}

	b.mu.Lock()
	b.categories = cats
	b.items = items
	b.category = ""
	b.search = ""
	b.loaded = true
	b.seq++
	b.mu.Unlock()
	return nil
}

// Loaded reports whether Load has succeeded at least once.
func (b *Browser) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// Apply sets both filters and fetches immediately, dropping any pending
// search.
func (b *Browser) Apply(ctx context.Context, category domain.ID, search string) error {
	b.debouncer.Stop()
	search = strings.TrimSpace(search)
	b.mu.Lock()
	b.category = category
	b.search = search
	b.mu.Unlock()
	return b.fetch(ctx, category, search, false)
}

// SelectCategory filters by category immediately. An empty id shows all
// categories.
func (b *Browser) SelectCategory(ctx context.Context, id domain.ID) error {
	b.debouncer.Stop()
	b.mu.Lock()
	b.category = id
	search := b.search
	b.mu.Unlock()
	return b.fetch(ctx, id, search, false)
}

// Search sets the search text. The fetch is issued once input has been idle
// for the debounce interval and its result goes to the results callback.
func (b *Browser) Search(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	b.mu.Lock()
	b.search = text
	category := b.category
	b.mu.Unlock()

	b.debouncer.Do(func() {
		_ = b.fetch(ctx, category, text, true)
	})
}

func (b *Browser) fetch(ctx context.Context, category domain.ID, search string, debounced bool) error {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	items, err := b.catalog.Items(ctx, category, search)

	b.mu.Lock()
	if seq != b.seq {
		b.mu.Unlock()
		b.logger.DebugContext(ctx, "discarding superseded menu results", slog.String("search", search))
		return err
	}
	if err == nil {
		b.items = items
	}
	b.mu.Unlock()

	if err != nil {
		b.logger.WarnContext(ctx, "failed to filter menu items",
			slog.String("category_id", category.String()),
			slog.String("search", search),
			slog.String("error", err.Error()),
		)
	}
	if b.onResults != nil {
		b.onResults(Results{Category: category, Search: search, Items: items, Err: err, Debounced: debounced})
	}
	return err
}

// Item fetches one item, for the detail view and for adding to the cart.
func (b *Browser) Item(ctx context.Context, id domain.ID) (*domain.MenuItem, error) {
	return b.catalog.Item(ctx, id)
}

// Categories returns the loaded categories.
func (b *Browser) Categories() []domain.Category {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.Category(nil), b.categories...)
}

// Items returns the currently listed items.
func (b *Browser) Items() []domain.MenuItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.MenuItem(nil), b.items...)
}

// Filter returns the selected category and search text.
func (b *Browser) Filter() (domain.ID, string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.category, b.search
}

// Close drops any pending search.
func (b *Browser) Close() {
	b.debouncer.Stop()
}
