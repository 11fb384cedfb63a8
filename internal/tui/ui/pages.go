package ui

import "github.com/rivo/tview"

// Pages layers tview pages as a navigation stack: Push descends into a
// view, Pop returns to the one beneath. Observers learn about stack
// changes through the OnChange callback.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

// NewPages returns an empty navigation stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange registers the callback fired after every stack mutation.
// It receives a copy of the stack, bottom first.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push makes the named page the top of the stack and brings it on screen.
func (p *Pages) Push(name string) {
	if n := len(p.stack); n > 0 {
		p.HidePage(p.stack[n-1])
	}
	p.stack = append(p.stack, name)
	p.raise(name)
	p.changed()
}

// Pop hides the top page and reveals the one beneath it, returning the
// popped name. Popping an empty stack returns "".
func (p *Pages) Pop() string {
	n := len(p.stack)
	if n == 0 {
		return ""
	}
	top := p.stack[n-1]
	p.HidePage(top)
	p.stack = p.stack[:n-1]
	if n > 1 {
		p.raise(p.stack[n-2])
	}
	p.changed()
	return top
}

// Reset discards the whole stack and shows only the named page.
func (p *Pages) Reset(name string) {
	for _, it := range p.stack {
		p.HidePage(it)
	}
	p.stack = append(p.stack[:0], name)
	p.raise(name)
	p.changed()
}

// Current returns the top page name, or "" for an empty stack.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Depth returns how many pages are stacked.
func (p *Pages) Depth() int {
	return len(p.stack)
}

func (p *Pages) raise(name string) {
	p.ShowPage(name)
	p.SendToFront(name)
}

func (p *Pages) changed() {
	if p.onChange == nil {
		return
	}
	snapshot := make([]string, len(p.stack))
	copy(snapshot, p.stack)
	p.onChange(snapshot)
}
