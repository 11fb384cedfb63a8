package timeline

import (
	"sort"
	"time"

	"github.com/pvictorino/leadline/internal/api"
)

// EntryKind distinguishes the root mockup from modification entries.
type EntryKind int

const (
	KindMockup EntryKind = iota
	KindModification
)

// Entry is one row of the linearized timeline. Exactly one of Mockup /
// Modification is set, matching Kind.
type Entry struct {
	Kind         EntryKind
	Mockup       *api.Mockup
	Modification *api.Modification
}

// ID returns the server id of the underlying record.
func (e Entry) ID() int64 {
	if e.Kind == KindMockup {
		return e.Mockup.ID
	}
	return e.Modification.ID
}

// Status returns the request status of the underlying record.
func (e Entry) Status() api.RequestStatus {
	if e.Kind == KindMockup {
		return e.Mockup.RequestStatus
	}
	return e.Modification.RequestStatus
}

// RequestedAt returns when the underlying record was requested.
func (e Entry) RequestedAt() time.Time {
	if e.Kind == KindMockup {
		return e.Mockup.RequestedAt
	}
	return e.Modification.RequestedAt
}

// Timeline is the linearized revision history of one mockup, newest entry
// first, the mockup itself always last.
type Timeline struct {
	Entries []Entry
}

// Build linearizes a mockup and its modifications. Rather than trusting
// fetch order, it walks the parent links backwards from the newest head, so
// a chain returned out of request-time order still renders its true
// lineage. Modifications orphaned from the chain (missing parent) are
// appended after the walked chain, newest-first, before the mockup.
func Build(mockup *api.Mockup, mods []api.Modification) Timeline {
	entries := make([]Entry, 0, len(mods)+1)

	byID := make(map[int64]*api.Modification, len(mods))
	referenced := make(map[int64]bool, len(mods))
	for i := range mods {
		byID[mods[i].ID] = &mods[i]
		if mods[i].ParentID != nil {
			referenced[*mods[i].ParentID] = true
		}
	}

	// Head candidates: modifications no other modification points at.
	var head *api.Modification
	for i := range mods {
		m := &mods[i]
		if referenced[m.ID] {
			continue
		}
		if head == nil || m.RequestedAt.After(head.RequestedAt) {
			head = m
		}
	}

	visited := make(map[int64]bool, len(mods))
	for cur := head; cur != nil; {
		if visited[cur.ID] {
			// Defend against a cyclic parent link in server data.
			break
		}
		visited[cur.ID] = true
		entries = append(entries, Entry{Kind: KindModification, Modification: cur})
		if cur.ParentID == nil {
			break
		}
		cur = byID[*cur.ParentID]
	}

	// Anything the walk missed still gets rendered, newest-first.
	var orphans []*api.Modification
	for i := range mods {
		if !visited[mods[i].ID] {
			orphans = append(orphans, &mods[i])
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].RequestedAt.After(orphans[j].RequestedAt)
	})
	for _, m := range orphans {
		entries = append(entries, Entry{Kind: KindModification, Modification: m})
	}

	// The mockup is definitionally the root, last regardless of timestamps.
	entries = append(entries, Entry{Kind: KindMockup, Mockup: mockup})

	return Timeline{Entries: entries}
}

// Head returns the most recent entry: the latest modification, or the
// mockup when no modifications exist.
func (t Timeline) Head() Entry {
	return t.Entries[0]
}

// DisplayStatus is the aggregate status shown for the whole chain: the
// status of the head entry.
func (t Timeline) DisplayStatus() api.RequestStatus {
	return t.Head().Status()
}

// CanRequestModification reports whether the "request modification" action
// is offered: only when the head entry has been returned by the graphics
// team. A new modification then enters the chain at SENT.
func (t Timeline) CanRequestModification() bool {
	return t.Head().Status() == api.StatusReturned
}
