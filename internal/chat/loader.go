package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/pvictorino/leadline/internal/api"
	"go.uber.org/zap"
)

// TopThresholdRows is how close to the top of the message list the scroll
// position must be before the next older page is requested.
const TopThresholdRows = 3

// MessageLister is the read side of the messages API consumed by the loader.
type MessageLister interface {
	ListMessages(ctx context.Context, scope api.Scope, cursor string) (*api.MessagePage, error)
}

// Loader fetches reverse-chronological message pages for one thread and
// feeds them to the in-memory store in display order. The server returns
// pages newest-first; the loader re-reverses each page before merging since
// the store displays oldest-at-top.
type Loader struct {
	lister MessageLister
	scope  api.Scope
	store  *Store
	logger *zap.Logger
	onPage func(msgs []api.Message)

	mu        sync.Mutex
	next      string
	loaded    bool
	exhausted bool
	inFlight  bool
}

// NewLoader creates a loader for a thread scope.
func NewLoader(lister MessageLister, scope api.Scope, store *Store, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		lister: lister,
		scope:  scope,
		store:  store,
		logger: logger,
	}
}

// SetOnPage registers a callback invoked with each successfully fetched
// page, oldest first, after it has been merged into the store. Used to
// mirror history pages into the durable cache.
func (l *Loader) SetOnPage(fn func(msgs []api.Message)) {
	l.onPage = fn
}

// LoadInitial fetches the newest page and appends it to the store. A failed
// fetch leaves the store untouched and the loader retryable.
func (l *Loader) LoadInitial(ctx context.Context) error {
	l.mu.Lock()
	if l.inFlight {
		l.mu.Unlock()
		return nil
	}
	l.inFlight = true
	l.mu.Unlock()
	defer l.clearInFlight()

	page, err := l.lister.ListMessages(ctx, l.scope, "")
	if err != nil {
		return fmt.Errorf("load initial page: %w", err)
	}

	l.mu.Lock()
	l.loaded = true
	l.next, l.exhausted = cursorState(page.Next)
	l.mu.Unlock()

	fetched := reversed(page.Results)
	added := l.store.Merge(fetched, AppendUnique)
	if l.onPage != nil && len(fetched) > 0 {
		l.onPage(fetched)
	}
	l.logger.Debug("initial page loaded",
		zap.Stringer("scope", l.scope),
		zap.Int("added", added))
	return nil
}

// LoadMore fetches the next older page and prepends it to the store.
// Returns false without a request when the history is exhausted, the initial
// page has not loaded yet, or another load is already in flight.
func (l *Loader) LoadMore(ctx context.Context) (bool, error) {
	l.mu.Lock()
	if !l.loaded || l.exhausted || l.inFlight {
		l.mu.Unlock()
		return false, nil
	}
	cursor := l.next
	l.inFlight = true
	l.mu.Unlock()
	defer l.clearInFlight()

	page, err := l.lister.ListMessages(ctx, l.scope, cursor)
	if err != nil {
		// Cursor is kept so the fetch can be retried.
		return false, fmt.Errorf("load older page: %w", err)
	}

	l.mu.Lock()
	l.next, l.exhausted = cursorState(page.Next)
	l.mu.Unlock()

	fetched := reversed(page.Results)
	added := l.store.Merge(fetched, Prepend)
	if l.onPage != nil && len(fetched) > 0 {
		l.onPage(fetched)
	}
	l.logger.Debug("older page loaded",
		zap.Stringer("scope", l.scope),
		zap.Int("added", added))
	return true, nil
}

// HasMore reports whether older history remains to be fetched.
func (l *Loader) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded && !l.exhausted
}

func (l *Loader) clearInFlight() {
	l.mu.Lock()
	l.inFlight = false
	l.mu.Unlock()
}

func cursorState(next *string) (cursor string, exhausted bool) {
	if next == nil || *next == "" {
		return "", true
	}
	return *next, false
}

// reversed returns a newest-first page in oldest-first order.
func reversed(msgs []api.Message) []api.Message {
	out := make([]api.Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
