package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode selects what the prompt input is collecting.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

var promptLabels = map[PromptMode]struct {
	label string
	title string
}{
	PromptCommand: {":", " Command "},
	PromptFilter:  {"/", " Filter "},
}

// Prompt is the single-line input bar used for commands and list filters.
// Enter submits non-empty text along with the active mode; Escape cancels.
type Prompt struct {
	*tview.InputField
	mode     PromptMode
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt returns a prompt styled after the theme.
func NewPrompt(theme *Theme) *Prompt {
	in := tview.NewInputField()
	in.SetBorder(true)
	in.SetBorderColor(theme.PromptBorderColor)
	in.SetBackgroundColor(theme.BgColor)
	in.SetFieldBackgroundColor(theme.BgColor)
	in.SetFieldTextColor(theme.FgColor)
	in.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{InputField: in}
	in.SetDoneFunc(func(key tcell.Key) {
		text := p.GetText()
		p.SetText("")
		switch key {
		case tcell.KeyEnter:
			if text != "" && p.onSubmit != nil {
				p.onSubmit(p.mode, text)
			}
		case tcell.KeyEscape:
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})
	return p
}

// SetOnSubmit registers the Enter handler.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel registers the Escape handler.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate clears the input and switches the prompt to the given mode.
func (p *Prompt) Activate(mode PromptMode) {
	p.mode = mode
	p.SetText("")
	l := promptLabels[mode]
	p.SetLabel(l.label)
	p.SetTitle(l.title)
}
