package timeline

import (
	"testing"
	"time"

	"github.com/pvictorino/leadline/internal/api"
)

func i64(v int64) *int64 { return &v }

func mod(id int64, parent *int64, status api.RequestStatus, requestedAt time.Time) api.Modification {
	return api.Modification{
		ID:            id,
		ParentID:      parent,
		MockupID:      1,
		RequestStatus: status,
		RequestedAt:   requestedAt,
	}
}

func entryIDs(t Timeline) []int64 {
	out := make([]int64, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = e.ID()
	}
	return out
}

func assertOrder(t *testing.T, tl Timeline, want ...int64) {
	t.Helper()
	got := entryIDs(tl)
	if len(got) != len(want) {
		t.Fatalf("entry ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry ids = %v, want %v", got, want)
		}
	}
}

var base = time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)

func TestBuildNewestFirstMockupLast(t *testing.T) {
	mockup := &api.Mockup{ID: 100, RequestStatus: api.StatusConverted, RequestedAt: base}
	mods := []api.Modification{
		mod(3, i64(2), api.StatusSent, base.Add(3*time.Hour)),
		mod(2, i64(1), api.StatusReturned, base.Add(2*time.Hour)),
		mod(1, nil, api.StatusReturned, base.Add(time.Hour)),
	}

	tl := Build(mockup, mods)
	assertOrder(t, tl, 3, 2, 1, 100)
	if tl.Entries[3].Kind != KindMockup {
		t.Error("last entry is not the mockup")
	}
}

func TestBuildNoModifications(t *testing.T) {
	mockup := &api.Mockup{ID: 100, RequestStatus: api.StatusReturned, RequestedAt: base}
	tl := Build(mockup, nil)
	assertOrder(t, tl, 100)
	if tl.DisplayStatus() != api.StatusReturned {
		t.Errorf("DisplayStatus = %s, want RETURNED", tl.DisplayStatus())
	}
	if !tl.CanRequestModification() {
		t.Error("CanRequestModification = false for returned mockup")
	}
}

// Fetch order is not trusted: the chain is walked via parent links, so a
// server page returned out of request-time order still linearizes by
// lineage.
func TestBuildWalksParentChainNotFetchOrder(t *testing.T) {
	mockup := &api.Mockup{ID: 100, RequestedAt: base}
	// Shuffled fetch order: oldest first, head in the middle.
	mods := []api.Modification{
		mod(1, nil, api.StatusReturned, base.Add(time.Hour)),
		mod(3, i64(2), api.StatusStarted, base.Add(3*time.Hour)),
		mod(2, i64(1), api.StatusReturned, base.Add(2*time.Hour)),
	}

	tl := Build(mockup, mods)
	assertOrder(t, tl, 3, 2, 1, 100)
}

func TestBuildOrphanedModifications(t *testing.T) {
	mockup := &api.Mockup{ID: 100, RequestedAt: base}
	// Modification 5 references a parent that was never returned.
	mods := []api.Modification{
		mod(2, i64(1), api.StatusSent, base.Add(2*time.Hour)),
		mod(5, i64(99), api.StatusReturned, base.Add(90*time.Minute)),
		mod(1, nil, api.StatusReturned, base.Add(time.Hour)),
	}

	tl := Build(mockup, mods)
	// Chain head is 2 (newest unreferenced with a live lineage); 5 cannot
	// reach the root and is appended after the walked chain.
	assertOrder(t, tl, 2, 1, 5, 100)
}

func TestBuildCyclicParentLinks(t *testing.T) {
	mockup := &api.Mockup{ID: 100, RequestedAt: base}
	mods := []api.Modification{
		mod(2, i64(1), api.StatusSent, base.Add(2*time.Hour)),
		mod(1, i64(2), api.StatusReturned, base.Add(time.Hour)),
	}

	// Both are referenced, so there is no head; both come out as orphans,
	// newest first, and Build must not loop forever.
	tl := Build(mockup, mods)
	assertOrder(t, tl, 2, 1, 100)
}

func TestDisplayStatusFromHead(t *testing.T) {
	mockup := &api.Mockup{ID: 100, RequestStatus: api.StatusConverted, RequestedAt: base}
	mods := []api.Modification{
		mod(2, i64(1), api.StatusStarted, base.Add(2*time.Hour)),
		mod(1, nil, api.StatusReturned, base.Add(time.Hour)),
	}
	tl := Build(mockup, mods)
	if got := tl.DisplayStatus(); got != api.StatusStarted {
		t.Errorf("DisplayStatus = %s, want STARTED (head wins over mockup)", got)
	}
}

func TestCanRequestModification(t *testing.T) {
	tests := []struct {
		name   string
		status api.RequestStatus
		want   bool
	}{
		{"returned head", api.StatusReturned, true},
		{"sent head", api.StatusSent, false},
		{"started head", api.StatusStarted, false},
		{"converted head", api.StatusConverted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockup := &api.Mockup{ID: 100, RequestStatus: api.StatusConverted, RequestedAt: base}
			mods := []api.Modification{
				mod(3, i64(2), tt.status, base.Add(3*time.Hour)),
				mod(2, i64(1), api.StatusReturned, base.Add(2*time.Hour)),
				mod(1, nil, api.StatusReturned, base.Add(time.Hour)),
			}
			tl := Build(mockup, mods)
			if got := tl.CanRequestModification(); got != tt.want {
				t.Errorf("CanRequestModification() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectionDefaultsToHead(t *testing.T) {
	mockup := &api.Mockup{ID: 100, RequestedAt: base}
	mods := []api.Modification{mod(1, nil, api.StatusSent, base.Add(time.Hour))}
	tl := Build(mockup, mods)

	sel := NewSelection(tl)
	if !sel.IsOpen(1) {
		t.Error("head entry not open by default")
	}
	if sel.IsOpen(100) {
		t.Error("non-head entry open by default")
	}
}

func TestSelectionSingleOpen(t *testing.T) {
	mockup := &api.Mockup{ID: 100, RequestedAt: base}
	mods := []api.Modification{
		mod(2, i64(1), api.StatusSent, base.Add(2*time.Hour)),
		mod(1, nil, api.StatusReturned, base.Add(time.Hour)),
	}
	sel := NewSelection(Build(mockup, mods))

	sel.Toggle(100)
	if sel.IsOpen(2) {
		t.Error("previous entry still open after opening another")
	}
	if !sel.IsOpen(100) {
		t.Error("toggled entry not open")
	}

	// Toggling the open entry collapses it.
	sel.Toggle(100)
	if sel.IsOpen(100) {
		t.Error("entry still open after second toggle")
	}
}

// After a new modification is created and the timeline refetched, the new
// head is selected; no stale selection survives.
func TestSelectionResetOnRebuild(t *testing.T) {
	mockup := &api.Mockup{ID: 100, RequestedAt: base}
	mods := []api.Modification{mod(1, nil, api.StatusReturned, base.Add(time.Hour))}
	tl := Build(mockup, mods)
	sel := NewSelection(tl)
	sel.Toggle(100)

	mods = append([]api.Modification{mod(2, i64(1), api.StatusSent, base.Add(2*time.Hour))}, mods...)
	tl = Build(mockup, mods)
	sel.Reset(tl)

	if !sel.IsOpen(2) {
		t.Error("new head not selected after rebuild")
	}
	if sel.IsOpen(100) {
		t.Error("stale selection survived rebuild")
	}
}
