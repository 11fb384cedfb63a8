package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// MenuHint is one keyboard shortcut shown in the menu column.
type MenuHint struct {
	Key         string
	Description string
}

// Menu lists the shortcuts available on the current view, one per line.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu returns an empty menu column.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)
	return &Menu{TextView: tv, theme: theme}
}

// Update replaces the displayed hints. Keys are padded so descriptions
// line up in a column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()

	width := 0
	for _, h := range hints {
		if len(h.Key) > width {
			width = len(h.Key)
		}
	}
	kc := hexColor(m.theme.MenuKeyColor)
	for _, h := range hints {
		_, _ = fmt.Fprintf(m, "[%s::b]<%s>[-:-:-]%*s %s\n",
			kc, h.Key, width-len(h.Key), "", h.Description)
	}
}
