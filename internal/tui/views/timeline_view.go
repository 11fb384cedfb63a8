package views

import (
	"fmt"

	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/timeline"
	"github.com/rivo/tview"
)

// TimelineView renders the revision history of one mockup as an accordion
// table: newest modification first, the mockup itself last, one entry
// expanded at a time.
type TimelineView struct {
	*tview.Table
	rowToID map[int]int64
}

// NewTimelineView creates a new timeline accordion.
func NewTimelineView() *TimelineView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Timeline ")

	return &TimelineView{
		Table:   table,
		rowToID: make(map[int]int64),
	}
}

// Update re-renders the accordion from a timeline and its selection.
func (tv *TimelineView) Update(t timeline.Timeline, sel timeline.Selection) {
	tv.Clear()
	tv.rowToID = make(map[int]int64)

	title := " Timeline "
	if len(t.Entries) > 0 {
		title = fmt.Sprintf(" Timeline · %s ", t.DisplayStatus())
		if t.CanRequestModification() {
			title += "· changes open "
		}
	}
	tv.SetTitle(title)

	row := 0
	for _, e := range t.Entries {
		open := sel.IsOpen(e.ID())
		tv.renderHeader(row, e, open)
		tv.rowToID[row] = e.ID()
		row++
		if open {
			for _, line := range detailLines(e) {
				tv.SetCell(row, 0, tview.NewTableCell("    "+line).SetSelectable(false).SetExpansion(1))
				tv.rowToID[row] = e.ID()
				row++
			}
		}
	}
}

func (tv *TimelineView) renderHeader(row int, e timeline.Entry, open bool) {
	marker := "▸"
	if open {
		marker = "▾"
	}

	var label string
	switch e.Kind {
	case timeline.KindMockup:
		label = fmt.Sprintf("%s Mockup #%d", marker, e.ID())
	default:
		kind := "Revision"
		if e.Modification.IsEdit {
			kind = "Edit"
		}
		label = fmt.Sprintf("%s %s #%d", marker, kind, e.ID())
	}

	tv.SetCell(row, 0, tview.NewTableCell(" "+label).SetExpansion(2))
	tv.SetCell(row, 1, tview.NewTableCell(" "+string(e.Status())).SetMaxWidth(12).SetExpansion(1))
	tv.SetCell(row, 2, tview.NewTableCell(" "+formatTimestamp(e.RequestedAt())).SetMaxWidth(12))
}

// SelectedEntry returns the entry id under the cursor.
func (tv *TimelineView) SelectedEntry() (int64, bool) {
	row, _ := tv.GetSelection()
	id, ok := tv.rowToID[row]
	return id, ok
}

func detailLines(e timeline.Entry) []string {
	var lines []string

	switch e.Kind {
	case timeline.KindMockup:
		m := e.Mockup
		lines = append(lines, fmt.Sprintf("Lead: %s", sanitizeForTerminal(m.LeadName)))
		lines = append(lines, fmt.Sprintf("Price: %s", formatPrice(m.PriceCents)))
		if m.FirstResponseAt != nil {
			lines = append(lines, fmt.Sprintf("First response: %s", m.FirstResponseAt.Local().Format("2006-01-02 15:04")))
		}
		lines = append(lines, imageLines(m.Images)...)
	default:
		mod := e.Modification
		lines = append(lines, fmt.Sprintf("Price: %s", formatPrice(mod.PriceCents)))
		if mod.StartedAt != nil {
			lines = append(lines, fmt.Sprintf("Started: %s", mod.StartedAt.Local().Format("2006-01-02 15:04")))
		}
		if mod.RespondedAt != nil {
			lines = append(lines, fmt.Sprintf("Responded: %s", mod.RespondedAt.Local().Format("2006-01-02 15:04")))
		}
		for _, b := range mod.BOMLines {
			lines = append(lines, fmt.Sprintf("BOM: %s %.2f %s", sanitizeForTerminal(b.Name), b.Quantity, b.Unit))
		}
		lines = append(lines, imageLines(mod.Images)...)
	}

	return lines
}

func imageLines(imgs []api.Image) []string {
	var lines []string
	for _, img := range imgs {
		lines = append(lines, fmt.Sprintf("[image] %s", img.URL))
	}
	return lines
}
