package chat

import (
	"sync"

	"github.com/pvictorino/leadline/internal/api"
)

// MergeMode selects where incoming messages land relative to the current
// collection.
type MergeMode int

const (
	// AppendUnique adds messages after the current newest entry, in the
	// order received. Used for the initial page and live socket deliveries.
	AppendUnique MergeMode = iota
	// Prepend inserts messages before the current oldest entry, in the
	// order given. Used for older history pages.
	Prepend
)

// Store holds the ordered, deduplicated message collection for one chat
// thread. Display order is oldest-at-top; the store never re-sorts, it
// trusts merge order (the feed is monotonic from the server).
//
// The collection lives only as long as the mounted thread view. It is not
// the durable cache; see the store package for that.
type Store struct {
	mu   sync.RWMutex
	msgs []api.Message
	seen map[int64]struct{}
}

// NewStore creates an empty message store.
func NewStore() *Store {
	return &Store{seen: make(map[int64]struct{})}
}

// Merge adds incoming messages, dropping any whose server id is already
// present. Returns the number actually added. The dedup filter applies to
// every source: history pages, live pushes and optimistic echoes alike.
func (s *Store) Merge(incoming []api.Message, mode MergeMode) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]api.Message, 0, len(incoming))
	for _, m := range incoming {
		if _, dup := s.seen[m.ID]; dup {
			continue
		}
		s.seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return 0
	}

	switch mode {
	case Prepend:
		s.msgs = append(fresh, s.msgs...)
	default:
		s.msgs = append(s.msgs, fresh...)
	}
	return len(fresh)
}

// Messages returns a snapshot of the current collection, oldest first.
func (s *Store) Messages() []api.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}

// DayGroup is the run of consecutive messages sharing a calendar day,
// keyed by a human-readable month+day label for the date separator.
type DayGroup struct {
	Label    string
	Messages []api.Message
}

// GroupedByDay partitions the collection into calendar-day runs in local
// time, preserving display order.
func (s *Store) GroupedByDay() []DayGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []DayGroup
	for _, m := range s.msgs {
		label := m.CreatedAt.Local().Format("January 2")
		if len(groups) == 0 || groups[len(groups)-1].Label != label {
			groups = append(groups, DayGroup{Label: label})
		}
		last := &groups[len(groups)-1]
		last.Messages = append(last.Messages, m)
	}
	return groups
}
