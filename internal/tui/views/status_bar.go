package views

import (
	"fmt"
	"time"

	"github.com/pvictorino/leadline/internal/status"
	"github.com/rivo/tview"
)

// StatusBar displays the workspace, the socket connection state and the
// outbox backlog.
type StatusBar struct {
	*tview.TextView
	workspace string
	conn      status.State
	queued    int
	failed    int
	flash     string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, conn: status.Idle}
}

// SetWorkspace updates the workspace name display.
func (sb *StatusBar) SetWorkspace(name string) {
	sb.workspace = name
	sb.render()
}

// SetConn updates the connection state display.
func (sb *StatusBar) SetConn(s status.State) {
	sb.conn = s
	sb.render()
}

// SetOutbox updates the outbox backlog counters.
func (sb *StatusBar) SetOutbox(queued, failed int) {
	sb.queued = queued
	sb.failed = failed
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s", sb.workspace, sb.connLabel(), time.Now().Format("15:04"))
	if sb.queued > 0 {
		line += fmt.Sprintf(" | [aqua]%d queued[-]", sb.queued)
	}
	if sb.failed > 0 {
		line += fmt.Sprintf(" | [orangered]%d failed[-]", sb.failed)
	}
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}

func (sb *StatusBar) connLabel() string {
	switch sb.conn {
	case status.Connected:
		return "[green]connected[-]"
	case status.Connecting:
		return "[yellow]connecting…[-]"
	case status.Reconnecting:
		return "[yellow]reconnecting…[-]"
	case status.Closed:
		return "[::d]offline[-]"
	default:
		return "[::d]idle[-]"
	}
}
