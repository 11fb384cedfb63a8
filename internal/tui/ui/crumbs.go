package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Crumbs renders the navigation stack as a breadcrumb trail, highlighting
// the page currently on top.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

// NewCrumbs returns an empty breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Crumbs{TextView: tv, theme: theme}
}

// Update re-renders the trail from the page stack, bottom first.
func (c *Crumbs) Update(stack []string) {
	c.Clear()
	for i, name := range stack {
		fg, bg := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg
		attr := ""
		if i == len(stack)-1 {
			fg, bg = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg
			attr = "b"
		}
		if i > 0 {
			_, _ = fmt.Fprint(c, " > ")
		}
		_, _ = fmt.Fprintf(c, "[%s:%s:%s] %s [-:-:-]", hexColor(fg), hexColor(bg), attr, name)
	}
}

// hexColor formats a color as a tview #rrggbb tag value.
func hexColor(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
