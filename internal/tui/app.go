package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/bus"
	"github.com/pvictorino/leadline/internal/composer"
	"github.com/pvictorino/leadline/internal/status"
	"github.com/pvictorino/leadline/internal/timeline"
	"github.com/pvictorino/leadline/internal/tui/keys"
	"github.com/pvictorino/leadline/internal/tui/model"
	"github.com/pvictorino/leadline/internal/tui/ui"
	"github.com/pvictorino/leadline/internal/tui/views"
	"github.com/rivo/tview"
)

// App is the main TUI application shell: a k9s-style frame (logo, info
// panel, menu, crumbs, flash, status bar) around a page stack of the
// mockup list, one thread and one timeline.
type App struct {
	app    *tview.Application
	pages  *ui.Pages
	theme  *ui.Theme
	crumbs *ui.Crumbs
	menu   *ui.Menu
	info   *ui.WorkspaceInfo
	flash  *ui.FlashBar
	prompt *ui.Prompt
	root   *tview.Flex

	vm        *model.ViewModel
	bus       *bus.Bus
	registry  *keys.Registry
	statusBar *views.StatusBar

	mockupList *views.MockupList
	msgView    *views.MessageView
	compBar    *views.ComposerBar
	timelineV  *views.TimelineView
	helpV      *views.HelpView

	workspace    string
	host         string
	started      time.Time
	activeMockup *api.Mockup
	machine      *status.Machine

	onQuit func()
	ctx    context.Context
	cancel context.CancelFunc
}

// Params bundles the dependencies of the TUI shell.
type Params struct {
	VM        *model.ViewModel
	Bus       *bus.Bus
	Machine   *status.Machine
	Workspace string
	Host      string
	SenderID  int64
}

// NewApp creates the TUI application.
func NewApp(p Params) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:        tview.NewApplication(),
		pages:      ui.NewPages(),
		theme:      theme,
		crumbs:     ui.NewCrumbs(theme),
		menu:       ui.NewMenu(theme),
		info:       ui.NewWorkspaceInfo(theme),
		flash:      ui.NewFlashBar(theme),
		prompt:     ui.NewPrompt(theme),
		vm:         p.VM,
		bus:        p.Bus,
		registry:   keys.NewRegistry(),
		statusBar:  views.NewStatusBar(),
		mockupList: views.NewMockupList(),
		msgView:    views.NewMessageView(p.SenderID),
		compBar:    views.NewComposerBar(),
		timelineV:  views.NewTimelineView(),
		helpV:      views.NewHelpView(theme),
		workspace:  p.Workspace,
		host:       p.Host,
		started:    time.Now(),
		machine:    p.Machine,
		ctx:        ctx,
		cancel:     cancel,
	}

	a.statusBar.SetWorkspace(p.Workspace)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

// SetOnQuit registers a callback invoked once when the TUI exits.
func (a *App) SetOnQuit(fn func()) {
	a.onQuit = fn
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "Quit",
		Handler: func() { a.Stop() },
	})
	a.registry.AddGlobal("help", &keys.Action{
		Rune: '?', Key: tcell.KeyRune,
		Description: "Help",
		Handler: func() { a.pages.Push("help") },
	})
	a.registry.AddView("mockups", "reload", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "Reload",
		Handler: func() { go a.reloadMockups() },
	})
	a.registry.AddView("mockups", "timeline", &keys.Action{
		Rune: 't', Key: tcell.KeyRune,
		Description: "Timeline",
		Handler: func() {
			if m := a.mockupList.Selected(); m != nil {
				a.openTimeline(m.ID)
			}
		},
	})
	a.registry.AddView("thread", "timeline", &keys.Action{
		Rune: 't', Key: tcell.KeyRune,
		Description: "Timeline",
		Handler: func() {
			if a.activeMockup != nil {
				a.openTimeline(a.activeMockup.ID)
			}
		},
	})
	a.registry.AddView("timeline", "chat", &keys.Action{
		Rune: 'c', Key: tcell.KeyRune,
		Description: "Open thread",
		Handler: func() { a.openSelectedEntryThread() },
	})
}

func (a *App) setupCallbacks() {
	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		a.menu.Update(a.hintsFor(a.pages.Current()))
	})

	a.mockupList.SetSelectedFunc(func(row, col int) {
		if m := a.mockupList.Selected(); m != nil {
			a.openMockupThread(m)
		}
	})

	a.timelineV.SetSelectedFunc(func(row, col int) {
		if id, ok := a.timelineV.SelectedEntry(); ok {
			a.vm.ToggleEntry(id)
		}
	})

	a.msgView.SetOnNearTop(func() {
		if !a.vm.HasOlder() {
			return
		}
		go func() {
			loaded, err := a.vm.LoadOlder(a.ctx)
			if err != nil {
				a.vm.Flash.Err(err)
				// Re-arm the near-top trigger so the fetch can be retried
				// without scrolling away first.
				a.app.QueueUpdateDraw(a.msgView.ResetTopLatch)
			}
			if loaded || err != nil {
				a.redraw()
			}
		}()
	})

	a.compBar.SetOnSend(func(text string) {
		a.vm.Draft.SetText(text)
		go func() {
			err := a.vm.Send(a.ctx)
			switch {
			case err == nil:
				// Silent no-op sends (empty draft) also land here.
			case errors.Is(err, composer.ErrTimedOut):
				a.vm.Flash.Warn("Send timed out, draft kept. :queue to send in background")
			default:
				a.vm.Flash.Err(fmt.Errorf("send failed: %w", err))
			}
			if err != nil {
				// Restore the unsent text into the input.
				a.app.QueueUpdateDraw(func() {
					a.compBar.SetText(a.vm.Draft.Text())
				})
			}
			a.redraw()
		}()
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		case ui.PromptFilter:
			a.mockupList.SetFilter(text)
		}
	})
	a.prompt.SetOnCancel(func() { a.hidePrompt() })
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.NewLogo(a.theme), 16, 0, false).
		AddItem(a.info, 0, 1, false).
		AddItem(a.menu, 0, 1, false)

	threadFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.compBar, 1, 0, false)

	a.pages.AddPage("mockups", a.mockupList, true, false)
	a.pages.AddPage("thread", threadFlex, true, false)
	a.pages.AddPage("timeline", a.timelineV, true, false)
	a.pages.AddPage("help", a.helpV, true, false)
	a.pages.Reset("mockups")

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 5, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flash, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)
	a.app.SetFocus(a.mockupList)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	focused := a.app.GetFocus()
	current := a.pages.Current()

	// Text inputs own their keys, except Esc leaving the composer.
	if _, ok := focused.(*tview.InputField); ok {
		if focused == a.compBar.InputField && event.Key() == tcell.KeyEscape {
			a.app.SetFocus(a.msgView)
			return nil
		}
		return event
	}

	if event.Key() == tcell.KeyEscape {
		if a.pages.Depth() > 1 {
			left := a.pages.Pop()
			if left == "thread" {
				a.leaveThread()
			}
			a.focusCurrent()
			return nil
		}
		return event
	}

	if event.Key() == tcell.KeyRune {
		switch event.Rune() {
		case ':':
			a.showPrompt(ui.PromptCommand)
			return nil
		case '/':
			if current == "mockups" {
				a.showPrompt(ui.PromptFilter)
				return nil
			}
		case 'i':
			if current == "thread" {
				a.app.SetFocus(a.compBar.InputField)
				return nil
			}
		}
	}

	if a.registry.HandleEvent(current, event) {
		return nil
	}
	return event
}

func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case "mockups":
		a.app.SetFocus(a.mockupList)
	case "thread":
		a.app.SetFocus(a.msgView)
	case "timeline":
		a.app.SetFocus(a.timelineV)
	case "help":
		a.app.SetFocus(a.helpV)
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusCurrent()
}

func (a *App) openMockupThread(m *api.Mockup) {
	a.activeMockup = m
	a.openThread(api.MockupScope(m.ID), fmt.Sprintf("%s · mockup #%d", m.LeadName, m.ID))
}

func (a *App) openThread(scope api.Scope, title string) {
	go func() {
		if err := a.vm.OpenThread(a.ctx, scope); err != nil {
			a.vm.Flash.Err(fmt.Errorf("open thread: %w", err))
			a.redraw()
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.msgView.SetThreadTitle(title)
			a.msgView.Update(a.vm.Groups())
			a.compBar.SetAttachmentCount(len(a.vm.Draft.Attachments()))
			if a.pages.Current() != "thread" {
				a.pages.Push("thread")
			}
			a.app.SetFocus(a.msgView)
		})
	}()
}

func (a *App) leaveThread() {
	a.vm.CloseThread()
	a.activeMockup = nil
}

func (a *App) openTimeline(mockupID int64) {
	go func() {
		if err := a.vm.OpenTimeline(a.ctx, mockupID); err != nil {
			a.vm.Flash.Err(fmt.Errorf("load timeline: %w", err))
			a.redraw()
			return
		}
		a.app.QueueUpdateDraw(func() {
			tl, sel := a.vm.Timeline()
			a.timelineV.Update(tl, sel)
			if a.pages.Current() != "timeline" {
				a.pages.Push("timeline")
			}
			a.app.SetFocus(a.timelineV)
		})
	}()
}

// openSelectedEntryThread jumps from a timeline entry to its chat thread.
func (a *App) openSelectedEntryThread() {
	id, ok := a.timelineV.SelectedEntry()
	if !ok {
		return
	}
	tl, _ := a.vm.Timeline()
	for _, e := range tl.Entries {
		if e.ID() != id {
			continue
		}
		if e.Kind == timeline.KindMockup {
			a.activeMockup = e.Mockup
			a.openThread(api.MockupScope(id), fmt.Sprintf("%s · mockup #%d", e.Mockup.LeadName, id))
		} else {
			a.activeMockup = a.vm.TimelineMockup()
			a.openThread(api.ModificationScope(id), fmt.Sprintf("revision #%d", id))
		}
		return
	}
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "open":
		id, err := strconv.ParseInt(cmd.Args, 10, 64)
		if err != nil {
			a.vm.Flash.Warn("usage: :open <mockup-id>")
			return
		}
		a.openTimelineMockupThread(id)
	case "mod":
		id, err := strconv.ParseInt(cmd.Args, 10, 64)
		if err != nil {
			a.vm.Flash.Warn("usage: :mod <modification-id>")
			return
		}
		a.openThread(api.ModificationScope(id), fmt.Sprintf("revision #%d", id))
	case "attach":
		if cmd.Args == "" {
			a.vm.Flash.Warn("usage: :attach <path>")
			return
		}
		if err := a.vm.AttachFile(cmd.Args); err != nil {
			a.vm.Flash.Err(err)
			return
		}
		a.compBar.SetAttachmentCount(len(a.vm.Draft.Attachments()))
		a.vm.Flash.Info("Attachment staged")
	case "queue":
		a.vm.Draft.SetText(a.compBar.GetText())
		if err := a.vm.QueueDraft(); err != nil {
			a.vm.Flash.Err(err)
			return
		}
		a.compBar.SetText("")
		a.compBar.SetAttachmentCount(0)
		a.vm.Flash.Info("Draft queued for background send")
	case "retry":
		n, err := a.vm.RetryFailed()
		if err != nil {
			a.vm.Flash.Err(err)
			return
		}
		a.vm.Flash.Info(fmt.Sprintf("Requeued %d failed sends", n))
	case "help", "h":
		a.pages.Push("help")
	case "quit", "q":
		a.Stop()
	default:
		a.vm.Flash.Warn("Unknown command: " + cmd.Name)
	}
}

// openTimelineMockupThread resolves a mockup by id, then opens its thread.
func (a *App) openTimelineMockupThread(id int64) {
	go func() {
		for _, m := range a.vm.Mockups() {
			if m.ID == id {
				mm := m
				a.app.QueueUpdateDraw(func() { a.openMockupThread(&mm) })
				return
			}
		}
		a.vm.Flash.Warn(fmt.Sprintf("Unknown mockup #%d", id))
		a.redraw()
	}()
}

func (a *App) reloadMockups() {
	if err := a.vm.LoadMockups(a.ctx); err != nil {
		a.vm.Flash.Err(fmt.Errorf("load mockups: %w", err))
	}
	a.redraw()
}

func (a *App) hintsFor(page string) []ui.MenuHint {
	hints := []ui.MenuHint{
		{Key: "?", Description: "Help"},
		{Key: ":", Description: "Command"},
		{Key: "Esc", Description: "Back"},
	}
	switch page {
	case "mockups":
		hints = append(hints,
			ui.MenuHint{Key: "Enter", Description: "Open thread"},
			ui.MenuHint{Key: "t", Description: "Timeline"},
			ui.MenuHint{Key: "/", Description: "Filter"},
		)
	case "thread":
		hints = append(hints,
			ui.MenuHint{Key: "i", Description: "Compose"},
			ui.MenuHint{Key: "t", Description: "Timeline"},
		)
	case "timeline":
		hints = append(hints,
			ui.MenuHint{Key: "Enter", Description: "Expand"},
			ui.MenuHint{Key: "c", Description: "Open thread"},
		)
	}
	return hints
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.watchBus()
	a.startRefreshLoop()
	go a.reloadMockups()

	err := a.app.Run()
	a.cancel()
	if a.onQuit != nil {
		a.onQuit()
	}
	return err
}

// watchBus mirrors bus events into the UI: connection state changes drive
// the reconnect indicator, send acks and failures flash the status bar.
func (a *App) watchBus() {
	connCh, unsubConn := a.bus.Subscribe("conn.", 16)
	msgCh, unsubMsg := a.bus.Subscribe("message.", 64)

	go func() {
		defer unsubConn()
		defer unsubMsg()
		for {
			select {
			case evt := <-connCh:
				// Redraw only; the status bar reads the machine directly,
				// so no state is shared with this goroutine.
				if _, ok := evt.Payload.(status.StateChange); ok {
					a.redraw()
				}
			case evt := <-msgCh:
				switch evt.Kind {
				case "message.send_ack":
					a.vm.Flash.Info("Queued message sent")
				case "message.send_failed":
					if p, ok := evt.Payload.(map[string]string); ok {
						a.vm.Flash.Err(fmt.Errorf("background send failed: %s", p["error"]))
					}
				case "message.upserted":
					// Cache mirror only; the live view already merged it.
					continue
				}
				a.redraw()
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(2 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.redraw()
			case <-a.vm.RefreshCh():
				a.redraw()
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

// redraw re-renders the visible page and the frame from the view model.
func (a *App) redraw() {
	a.app.QueueUpdateDraw(func() {
		switch a.pages.Current() {
		case "mockups":
			a.mockupList.Update(a.vm.Mockups())
		case "thread":
			a.msgView.Update(a.vm.Groups())
		case "timeline":
			tl, sel := a.vm.Timeline()
			a.timelineV.Update(tl, sel)
		}

		queued, failed := a.vm.OutboxCounts()
		conn := a.machine.Current()
		a.statusBar.SetConn(conn)
		a.statusBar.SetOutbox(queued, failed)
		a.statusBar.SetFlash(a.vm.Flash.Get())
		a.flash.Update(a.vm.Flash.GetMessage())
		a.info.Update(&ui.WorkspaceData{
			Workspace: a.workspace,
			Host:      a.host,
			Conn:      string(conn),
			Mockups:   len(a.vm.Mockups()),
			Queued:    queued,
			Uptime:    time.Since(a.started),
		})
	})
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.vm.CloseThread()
	a.app.Stop()
}
