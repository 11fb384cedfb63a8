package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel grades a notification.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// Flash display durations by level. Errors linger longest.
const (
	flashInfoTTL = 5 * time.Second
	flashWarnTTL = 8 * time.Second
	flashErrTTL  = 10 * time.Second
)

// FlashMessage is one transient notification.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the latest notification. Messages replace each other;
// an expired message reads back as absent. Safe for concurrent use, since
// both UI goroutines and bus watchers post flashes.
type FlashModel struct {
	mu      sync.Mutex
	current FlashMessage
}

// NewFlashModel returns an empty flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{}
}

// Info posts an informational message.
func (f *FlashModel) Info(text string) {
	f.post(text, FlashInfo, flashInfoTTL)
}

// Warn posts a warning.
func (f *FlashModel) Warn(text string) {
	f.post(text, FlashWarn, flashWarnTTL)
}

// Err posts an error.
func (f *FlashModel) Err(err error) {
	f.post(err.Error(), FlashErr, flashErrTTL)
}

func (f *FlashModel) post(text string, level FlashLevel, ttl time.Duration) {
	f.mu.Lock()
	f.current = FlashMessage{Text: text, Level: level, Expires: time.Now().Add(ttl)}
	f.mu.Unlock()
}

// Get returns the live message text, or "" once it has expired.
func (f *FlashModel) Get() string {
	if m := f.GetMessage(); m != nil {
		return m.Text
	}
	return ""
}

// GetMessage returns the live message, or nil once it has expired.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// FlashBar renders the flash model's current message.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar returns an empty flash bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &FlashBar{TextView: tv, theme: theme}
}

// Update redraws the bar for the given message, clearing it on nil.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}
	color := fb.theme.FlashInfoColor
	switch msg.Level {
	case FlashWarn:
		color = fb.theme.FlashWarnColor
	case FlashErr:
		color = fb.theme.FlashErrColor
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", hexColor(color), msg.Text)
}
