package chat

import (
	"testing"
	"time"

	"github.com/pvictorino/leadline/internal/api"
)

func msg(id int64, text string, at time.Time) api.Message {
	return api.Message{ID: id, Text: text, CreatedAt: at}
}

func ids(msgs []api.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestMergeAppendUnique(t *testing.T) {
	s := NewStore()
	now := time.Now()

	added := s.Merge([]api.Message{msg(1, "a", now), msg(2, "b", now)}, AppendUnique)
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}

	// Duplicate id must be dropped regardless of source.
	added = s.Merge([]api.Message{msg(2, "dup", now), msg(3, "c", now)}, AppendUnique)
	if added != 1 {
		t.Errorf("added = %d, want 1 (id 2 is a duplicate)", added)
	}

	got := ids(s.Messages())
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids = %v, want %v", got, want)
			break
		}
	}
}

func TestMergePrepend(t *testing.T) {
	s := NewStore()
	now := time.Now()

	s.Merge([]api.Message{msg(5, "e", now), msg(6, "f", now)}, AppendUnique)
	s.Merge([]api.Message{msg(3, "c", now), msg(4, "d", now)}, Prepend)

	got := ids(s.Messages())
	want := []int64{3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

// Any interleaving of prepend and append-unique merges with repeated ids
// must leave each id stored exactly once.
func TestDedupInvariantAcrossModes(t *testing.T) {
	s := NewStore()
	now := time.Now()

	s.Merge([]api.Message{msg(10, "", now), msg(11, "", now)}, AppendUnique)
	s.Merge([]api.Message{msg(9, "", now), msg(10, "", now)}, Prepend)
	s.Merge([]api.Message{msg(11, "", now), msg(12, "", now)}, AppendUnique)
	s.Merge([]api.Message{msg(9, "", now), msg(12, "", now)}, Prepend)

	counts := make(map[int64]int)
	for _, id := range ids(s.Messages()) {
		counts[id]++
	}
	for id, n := range counts {
		if n != 1 {
			t.Errorf("id %d stored %d times, want exactly once", id, n)
		}
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

// A live push with a lower id than already-loaded history still lands
// without duplicates; display order stays arrival order for appends.
func TestOutOfOrderLivePush(t *testing.T) {
	s := NewStore()
	now := time.Now()

	s.Merge([]api.Message{msg(100, "", now), msg(101, "", now)}, AppendUnique)
	added := s.Merge([]api.Message{msg(50, "late echo", now)}, AppendUnique)
	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}

	got := ids(s.Messages())
	want := []int64{100, 101, 50}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v (arrival order)", got, want)
		}
	}
}

func TestGroupedByDay(t *testing.T) {
	s := NewStore()
	day1 := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.Local)
	day2 := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.Local)

	s.Merge([]api.Message{
		msg(1, "a", day1),
		msg(2, "b", day1.Add(2 * time.Hour)),
		msg(3, "c", day2),
	}, AppendUnique)

	groups := s.GroupedByDay()
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Label != "March 3" {
		t.Errorf("first label = %q, want %q", groups[0].Label, "March 3")
	}
	if len(groups[0].Messages) != 2 {
		t.Errorf("first group has %d messages, want 2", len(groups[0].Messages))
	}
	if groups[1].Label != "March 4" {
		t.Errorf("second label = %q, want %q", groups[1].Label, "March 4")
	}
}

func TestGroupedByDayEmpty(t *testing.T) {
	s := NewStore()
	if groups := s.GroupedByDay(); len(groups) != 0 {
		t.Errorf("got %d groups for empty store, want 0", len(groups))
	}
}
