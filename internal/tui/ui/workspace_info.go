package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// WorkspaceData holds workspace information for display.
type WorkspaceData struct {
	Workspace string
	Host      string
	Conn      string
	Mockups   int
	Queued    int
	Uptime    time.Duration
}

// WorkspaceInfo displays workspace metadata in the header.
type WorkspaceInfo struct {
	*tview.TextView
	theme *Theme
}

// NewWorkspaceInfo creates a new workspace info panel.
func NewWorkspaceInfo(theme *Theme) *WorkspaceInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &WorkspaceInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the workspace info.
func (wi *WorkspaceInfo) Update(data *WorkspaceData) {
	wi.Clear()
	if data == nil {
		return
	}

	fgColor := hexColor(wi.theme.FgColor)
	counterColor := hexColor(wi.theme.CounterColor)

	host := data.Host
	if host == "" {
		host = "-"
	}

	text := fmt.Sprintf(
		"[%s::b]Workspace:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Host:[-:-:-]      [%s]%s[-]\n"+
			"[%s::b]Conn:[-:-:-]      [%s]%s[-]\n"+
			"[%s::b]Mockups:[-:-:-]   [%s]%d[-]\n"+
			"[%s::b]Queued:[-:-:-]    [%s]%d[-]\n"+
			"[%s::b]Uptime:[-:-:-]    [%s]%s[-]",
		fgColor, counterColor, data.Workspace,
		fgColor, counterColor, host,
		fgColor, counterColor, data.Conn,
		fgColor, counterColor, data.Mockups,
		fgColor, counterColor, data.Queued,
		fgColor, counterColor, formatDuration(data.Uptime),
	)

	_, _ = fmt.Fprint(wi, text)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
