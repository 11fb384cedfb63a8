package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/pvictorino/leadline/internal/api"
	"github.com/rivo/tview"
)

// MockupList is the main mockup table.
type MockupList struct {
	*tview.Table
	mockups  []api.Mockup
	filtered []api.Mockup
	filter   string
}

// NewMockupList creates a new mockup list table.
func NewMockupList() *MockupList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Mockups ")

	return &MockupList{Table: table}
}

// Update refreshes the table with new data, keeping the active filter.
func (ml *MockupList) Update(mockups []api.Mockup) {
	ml.mockups = mockups
	ml.render()
}

// SetFilter narrows the table to leads whose name contains the query.
func (ml *MockupList) SetFilter(query string) {
	ml.filter = strings.ToLower(strings.TrimSpace(query))
	ml.render()
}

func (ml *MockupList) render() {
	ml.Clear()

	ml.filtered = ml.filtered[:0]
	for _, m := range ml.mockups {
		if ml.filter != "" && !strings.Contains(strings.ToLower(m.LeadName), ml.filter) {
			continue
		}
		ml.filtered = append(ml.filtered, m)
	}

	headers := []string{" Lead", " Status", " Price", " Requested"}
	for col, h := range headers {
		ml.SetCell(0, col, tview.NewTableCell(h).SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	}

	for i, m := range ml.filtered {
		row := i + 1
		name := m.LeadName
		if name == "" {
			name = fmt.Sprintf("#%d", m.ID)
		}
		ml.SetCell(row, 0, tview.NewTableCell(" "+sanitizeForTerminal(name)).SetMaxWidth(30).SetExpansion(2))
		ml.SetCell(row, 1, tview.NewTableCell(" "+string(m.RequestStatus)).SetMaxWidth(12).SetExpansion(1))
		ml.SetCell(row, 2, tview.NewTableCell(" "+formatPrice(m.PriceCents)).SetMaxWidth(12))
		ml.SetCell(row, 3, tview.NewTableCell(" "+formatTimestamp(m.RequestedAt)).SetMaxWidth(12))
	}

	if ml.filter == "" {
		ml.SetTitle(fmt.Sprintf(" Mockups (%d) ", len(ml.filtered)))
	} else {
		ml.SetTitle(fmt.Sprintf(" Mockups (%d/%d) /%s ", len(ml.filtered), len(ml.mockups), ml.filter))
	}
}

// Selected returns the mockup under the cursor, nil when the table is empty.
func (ml *MockupList) Selected() *api.Mockup {
	row, _ := ml.GetSelection()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(ml.filtered) {
		m := ml.filtered[idx]
		return &m
	}
	return nil
}

func formatPrice(cents *int64) string {
	if cents == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", float64(*cents)/100)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	local := t.Local()
	now := time.Now()
	if local.Year() == now.Year() && local.YearDay() == now.YearDay() {
		return local.Format("15:04")
	}
	return local.Format("01/02")
}
