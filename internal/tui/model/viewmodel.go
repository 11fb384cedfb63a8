package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/bus"
	"github.com/pvictorino/leadline/internal/chat"
	"github.com/pvictorino/leadline/internal/composer"
	"github.com/pvictorino/leadline/internal/ingest"
	"github.com/pvictorino/leadline/internal/store"
	"github.com/pvictorino/leadline/internal/timeline"
	"github.com/pvictorino/leadline/internal/tui/ui"
	"github.com/pvictorino/leadline/internal/ws"
	"go.uber.org/zap"
)

// ViewModel holds the UI-facing state: the mockup list, the active thread
// and its loader, and the timeline of the inspected mockup. Views render
// snapshots of it; mutation happens off the UI goroutine and a refresh is
// signalled afterwards.
type ViewModel struct {
	mu sync.RWMutex

	api       *api.Client
	comp      *composer.Composer
	sock      *ws.Client
	db        *store.DB
	bus       *bus.Bus
	attachDir string
	logger    *zap.Logger

	mockups []api.Mockup

	activeScope api.Scope
	thread      *chat.Store
	loader      *chat.Loader
	handle      *ws.Handle

	tl       timeline.Timeline
	sel      timeline.Selection
	tlMockup *api.Mockup

	Draft *composer.Draft
	Flash *ui.FlashModel

	refreshCh chan struct{}
}

// NewViewModel creates a view model on top of the API client and the rest
// of the messaging stack.
func NewViewModel(c *api.Client, comp *composer.Composer, sock *ws.Client, db *store.DB, b *bus.Bus, attachDir string, logger *zap.Logger) *ViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewModel{
		api:       c,
		comp:      comp,
		sock:      sock,
		db:        db,
		bus:       b,
		attachDir: attachDir,
		logger:    logger,
		Draft:     &composer.Draft{},
		Flash:     ui.NewFlashModel(),
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// LoadMockups fetches the full mockup list, following pagination.
func (vm *ViewModel) LoadMockups(ctx context.Context) error {
	var all []api.Mockup
	cursor := ""
	for {
		page, err := vm.api.ListMockups(ctx, cursor)
		if err != nil {
			return err
		}
		all = append(all, page.Results...)
		if page.Next == nil || *page.Next == "" {
			break
		}
		cursor = *page.Next
	}
	vm.mu.Lock()
	vm.mockups = all
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// Mockups returns a snapshot of the mockup list.
func (vm *ViewModel) Mockups() []api.Mockup {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.mockups
}

// seedLimit caps how many cached messages pre-populate a thread view
// before the network page arrives.
const seedLimit = 50

// OpenThread loads the newest page of a thread and attaches the live
// socket. Any previously open thread is torn down first. The view is
// seeded from the local cache, so a thread stays readable when the
// initial network fetch fails; merge dedup drops the overlap once the
// live page lands.
func (vm *ViewModel) OpenThread(ctx context.Context, scope api.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	vm.CloseThread()

	thread := chat.NewStore()
	vm.seedFromCache(scope, thread)

	loader := chat.NewLoader(vm.api, scope, thread, vm.logger)
	loader.SetOnPage(func(msgs []api.Message) {
		vm.bus.Publish(bus.Event{
			Kind:      "ws.history_batch",
			Timestamp: time.Now(),
			Payload:   ingest.Batch{Scope: scope, Messages: msgs},
		})
	})
	if err := loader.LoadInitial(ctx); err != nil {
		if thread.Len() == 0 {
			return err
		}
		vm.logger.Warn("initial page fetch failed, serving cached thread",
			zap.Stringer("scope", scope),
			zap.Int("cached", thread.Len()),
			zap.Error(err))
	}

	socketURL, err := vm.api.SocketURL(scope)
	if err != nil {
		return err
	}
	handle := vm.sock.Connect(socketURL, func(msg api.Message) {
		if thread.Merge([]api.Message{msg}, chat.AppendUnique) > 0 {
			vm.bus.Publish(bus.Event{
				Kind:      "ws.message",
				Timestamp: time.Now(),
				Payload:   ingest.Inbound{Scope: scope, Message: msg},
			})
			vm.signalRefresh()
		}
	})

	vm.mu.Lock()
	vm.activeScope = scope
	vm.thread = thread
	vm.loader = loader
	vm.handle = handle
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// seedFromCache pre-populates a fresh thread store with the newest cached
// messages, oldest first. Cache misses are non-fatal; the thread just
// starts empty.
func (vm *ViewModel) seedFromCache(scope api.Scope, thread *chat.Store) {
	cached, err := vm.db.ListMessages(scope.Kind(), scope.ID(), 0, seedLimit)
	if err != nil {
		vm.logger.Warn("cache read failed", zap.Stringer("scope", scope), zap.Error(err))
		return
	}
	// ListMessages returns newest first; the store displays oldest-at-top.
	msgs := make([]api.Message, 0, len(cached))
	for i := len(cached) - 1; i >= 0; i-- {
		msgs = append(msgs, vm.fromCached(scope, cached[i]))
	}
	if added := thread.Merge(msgs, chat.AppendUnique); added > 0 {
		vm.logger.Debug("thread seeded from cache",
			zap.Stringer("scope", scope),
			zap.Int("messages", added))
	}
}

// fromCached rebuilds the API message shape from a cache row.
func (vm *ViewModel) fromCached(scope api.Scope, m store.Message) api.Message {
	msg := api.Message{
		ID:        m.ServerID,
		Text:      m.Body,
		SenderID:  m.SenderID,
		CreatedAt: time.UnixMilli(m.SentAt),
	}
	if scope.Kind() == "modification" {
		id := scope.ID()
		msg.ModificationID = &id
	} else {
		id := scope.ID()
		msg.MockupID = &id
	}
	imgs, err := vm.db.ListImages(m.ID)
	if err != nil {
		vm.logger.Warn("cache image read failed", zap.Int64("message_id", m.ID), zap.Error(err))
		return msg
	}
	for _, img := range imgs {
		msg.Images = append(msg.Images, api.Image{ID: img.ServerID, URL: img.URL})
	}
	return msg
}

// CloseThread tears down the live socket of the active thread, if any.
func (vm *ViewModel) CloseThread() {
	vm.mu.Lock()
	handle := vm.handle
	vm.handle = nil
	vm.thread = nil
	vm.loader = nil
	vm.activeScope = api.Scope{}
	vm.mu.Unlock()
	if handle != nil {
		handle.Close()
	}
}

// ActiveScope returns the scope of the open thread, zero when none.
func (vm *ViewModel) ActiveScope() api.Scope {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.activeScope
}

// Groups returns the open thread grouped by calendar day, oldest first.
func (vm *ViewModel) Groups() []chat.DayGroup {
	vm.mu.RLock()
	thread := vm.thread
	vm.mu.RUnlock()
	if thread == nil {
		return nil
	}
	return thread.GroupedByDay()
}

// HasOlder reports whether the open thread has more history to fetch.
func (vm *ViewModel) HasOlder() bool {
	vm.mu.RLock()
	loader := vm.loader
	vm.mu.RUnlock()
	return loader != nil && loader.HasMore()
}

// LoadOlder fetches the next older history page of the open thread.
func (vm *ViewModel) LoadOlder(ctx context.Context) (bool, error) {
	vm.mu.RLock()
	loader := vm.loader
	vm.mu.RUnlock()
	if loader == nil {
		return false, nil
	}
	loaded, err := loader.LoadMore(ctx)
	if loaded {
		vm.signalRefresh()
	}
	return loaded, err
}

// OpenTimeline fetches a mockup and its modifications and linearizes them.
func (vm *ViewModel) OpenTimeline(ctx context.Context, mockupID int64) error {
	mockup, err := vm.api.GetMockup(ctx, mockupID)
	if err != nil {
		return err
	}
	mods, err := vm.api.ListModifications(ctx, mockupID)
	if err != nil {
		return err
	}

	tl := timeline.Build(mockup, mods)
	vm.mu.Lock()
	vm.tlMockup = mockup
	vm.tl = tl
	vm.sel = timeline.NewSelection(tl)
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// Timeline returns the current timeline and a copy of its selection.
func (vm *ViewModel) Timeline() (timeline.Timeline, timeline.Selection) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.tl, vm.sel
}

// ToggleEntry opens an accordion entry, collapsing whichever was open.
func (vm *ViewModel) ToggleEntry(id int64) {
	vm.mu.Lock()
	vm.sel.Toggle(id)
	vm.mu.Unlock()
	vm.signalRefresh()
}

// TimelineMockup returns the mockup the timeline was built for.
func (vm *ViewModel) TimelineMockup() *api.Mockup {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.tlMockup
}

// Send submits the current draft to the open thread. The returned message
// is merged into the thread immediately rather than waiting for the socket
// echo.
func (vm *ViewModel) Send(ctx context.Context) error {
	vm.mu.RLock()
	scope := vm.activeScope
	thread := vm.thread
	vm.mu.RUnlock()
	if thread == nil {
		return fmt.Errorf("no open thread")
	}

	msg, err := vm.comp.Submit(ctx, scope, vm.Draft)
	if err != nil {
		return err
	}
	if msg != nil {
		thread.Merge([]api.Message{*msg}, chat.AppendUnique)
	}
	vm.signalRefresh()
	return nil
}

// AttachFile stages a local file on the draft.
func (vm *ViewModel) AttachFile(path string) error {
	a, err := composer.NewFileAttachment(path)
	if err != nil {
		return err
	}
	vm.Draft.Attach(a)
	vm.signalRefresh()
	return nil
}

// QueueDraft persists the current draft to the durable outbox, to be sent
// by the background sender. Attachments are staged to disk so they survive
// a restart.
func (vm *ViewModel) QueueDraft() error {
	vm.mu.RLock()
	scope := vm.activeScope
	vm.mu.RUnlock()
	if err := scope.Validate(); err != nil {
		return fmt.Errorf("no open thread")
	}
	if vm.Draft.Empty() {
		return nil
	}

	clientID := uuid.New().String()
	var paths []string
	for i, a := range vm.Draft.Attachments() {
		staged := filepath.Join(vm.attachDir, fmt.Sprintf("%s-%d-%s", clientID, i, a.Name))
		if err := os.WriteFile(staged, a.Data, 0o600); err != nil {
			return fmt.Errorf("stage attachment: %w", err)
		}
		paths = append(paths, staged)
	}

	err := vm.db.QueueOutbox(&store.OutboxEntry{
		ClientMsgID: clientID,
		ScopeKind:   scope.Kind(),
		ScopeID:     scope.ID(),
		Body:        vm.Draft.Text(),
		Attachments: paths,
	})
	if err != nil {
		return err
	}
	vm.Draft.Clear()
	vm.signalRefresh()
	return nil
}

// RetryFailed requeues every failed outbox entry.
func (vm *ViewModel) RetryFailed() (int, error) {
	return vm.db.RequeueAllFailed()
}

// OutboxCounts reports queued and failed outbox entries for the status bar.
func (vm *ViewModel) OutboxCounts() (queued, failed int) {
	queued, failed, err := vm.db.OutboxCounts()
	if err != nil {
		vm.logger.Error("failed to count outbox", zap.Error(err))
		return 0, 0
	}
	return queued, failed
}
