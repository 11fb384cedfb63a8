package timeline

// Selection tracks which single timeline entry is expanded. Exactly one
// entry may be open at a time; toggling the open entry collapses it.
type Selection struct {
	openID  int64
	hasOpen bool
}

// NewSelection returns a selection with the timeline head expanded.
func NewSelection(t Timeline) Selection {
	return Selection{openID: t.Head().ID(), hasOpen: true}
}

// Toggle opens the given entry, or collapses it if it was already open.
// Opening one entry closes whichever other entry was open.
func (s *Selection) Toggle(id int64) {
	if s.hasOpen && s.openID == id {
		s.hasOpen = false
		return
	}
	s.openID = id
	s.hasOpen = true
}

// IsOpen reports whether the given entry is expanded.
func (s *Selection) IsOpen(id int64) bool {
	return s.hasOpen && s.openID == id
}

// Reset re-selects the head of a rebuilt timeline, discarding any stale
// selection pointing at superseded data.
func (s *Selection) Reset(t Timeline) {
	s.openID = t.Head().ID()
	s.hasOpen = true
}
