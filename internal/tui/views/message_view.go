package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/chat"
	"github.com/rivo/tview"
)

// MessageView displays one thread, oldest at the top, grouped by calendar
// day. Scrolling near the top asks the app for an older history page.
type MessageView struct {
	*tview.TextView
	selfID       int64
	onNearTop    func()
	atTopAlready bool
}

// NewMessageView creates a new thread view.
func NewMessageView(selfID int64) *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Thread ")

	mv := &MessageView{TextView: tv, selfID: selfID}

	tv.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyPgUp, tcell.KeyHome:
			mv.maybeRequestOlder()
		}
		return event
	})

	return mv
}

// SetOnNearTop sets the callback fired when the view is scrolled within a
// few rows of the top.
func (mv *MessageView) SetOnNearTop(fn func()) {
	mv.onNearTop = fn
}

func (mv *MessageView) maybeRequestOlder() {
	row, _ := mv.GetScrollOffset()
	if row > chat.TopThresholdRows {
		mv.atTopAlready = false
		return
	}
	// Fire once per visit to the top, not on every key repeat.
	if mv.atTopAlready {
		return
	}
	mv.atTopAlready = true
	if mv.onNearTop != nil {
		mv.onNearTop()
	}
}

// ResetTopLatch re-arms the near-top trigger. Called when an older-page
// fetch fails so the next key press at the top retries it immediately.
func (mv *MessageView) ResetTopLatch() {
	mv.atTopAlready = false
}

// SetThreadTitle updates the border title.
func (mv *MessageView) SetThreadTitle(title string) {
	mv.SetTitle(fmt.Sprintf(" %s ", title))
}

// Update re-renders the thread from day groups.
func (mv *MessageView) Update(groups []chat.DayGroup) {
	// Keep the viewport anchored when older pages are prepended: only jump
	// to the end if the user was already at (or near) the bottom.
	row, _ := mv.GetScrollOffset()
	wasScrolledUp := row > 0 && !mv.atBottom()

	mv.Clear()
	for _, g := range groups {
		_, _ = fmt.Fprintf(mv, "[::d]── %s ──[-:-:-]\n\n", g.Label)
		for _, m := range g.Messages {
			mv.writeMessage(m)
		}
	}

	if !wasScrolledUp {
		mv.ScrollToEnd()
	}
}

func (mv *MessageView) writeMessage(m api.Message) {
	sender := fmt.Sprintf("user %d", m.SenderID)
	if m.SenderID == mv.selfID {
		sender = "You"
	}
	ts := m.CreatedAt.Local().Format("15:04")
	_, _ = fmt.Fprintf(mv, "[::b]%s[-:-:-] [::d]%s[-:-:-]\n", sender, ts)
	if m.Text != "" {
		_, _ = fmt.Fprintf(mv, "%s\n", sanitizeForTerminal(m.Text))
	}
	for _, img := range m.Images {
		_, _ = fmt.Fprintf(mv, "[::d][image] %s[-:-:-]\n", img.URL)
	}
	_, _ = fmt.Fprint(mv, "\n")
}

func (mv *MessageView) atBottom() bool {
	row, _ := mv.GetScrollOffset()
	_, _, _, height := mv.GetInnerRect()
	return row+height >= mv.GetOriginalLineCount()
}
