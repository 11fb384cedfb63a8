package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ComposerBar is the text input for drafting messages. Attachment count is
// shown in the label since staged images have no inline preview.
type ComposerBar struct {
	*tview.InputField
	onSend func(text string)
}

// NewComposerBar creates a new draft input.
func NewComposerBar() *ComposerBar {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)

	c := &ComposerBar{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && c.onSend != nil {
			c.onSend(c.GetText())
			c.SetText("")
		}
	})

	return c
}

// SetOnSend sets the callback when the draft is submitted.
func (c *ComposerBar) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetAttachmentCount updates the label with the staged attachment count.
func (c *ComposerBar) SetAttachmentCount(n int) {
	if n == 0 {
		c.SetLabel(" > ")
		return
	}
	c.SetLabel(fmt.Sprintf(" [%d img] > ", n))
}
