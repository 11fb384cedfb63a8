package views

import (
	"fmt"

	"github.com/pvictorino/leadline/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

func (hv *HelpView) render() {
	kc := fmt.Sprintf("#%06x", hv.theme.MenuKeyColor.Hex())

	help := fmt.Sprintf(`
  [::b]Global Keys[-:-:-]

  [%s]:[-:-:-]    Command mode        [%s]Esc[-:-:-]   Cancel / Go back
  [%s]/[-:-:-]    Filter mode         [%s]?[-:-:-]     Help
  [%s]q[-:-:-]    Quit                [%s]Ctrl-C[-:-:-] Quit immediately

  [::b]Mockup List[-:-:-]

  [%s]Enter[-:-:-]  Open thread        [%s]t[-:-:-]     Open timeline
  [%s]/[-:-:-]      Filter by lead     [%s]r[-:-:-]     Reload list

  [::b]Thread[-:-:-]

  [%s]i[-:-:-]    Focus composer      [%s]t[-:-:-]     Open timeline
  [%s]Esc[-:-:-]  Exit composer       [%s]Enter[-:-:-] Send (in composer)
  [%s]Up/PgUp[-:-:-] at top loads older history

  [::b]Timeline[-:-:-]

  [%s]Enter[-:-:-]  Expand / collapse entry
  [%s]c[-:-:-]      Open the entry's thread

  [::b]Commands (: mode)[-:-:-]

  [%s]:open <mockup-id>[-:-:-]   Open a mockup thread by id
  [%s]:mod <mod-id>[-:-:-]       Open a modification thread by id
  [%s]:attach <path>[-:-:-]      Stage an image on the draft
  [%s]:queue[-:-:-]              Queue the draft for background send
  [%s]:retry[-:-:-]              Requeue failed outbox entries
  [%s]:help[-:-:-] / [%s]:h[-:-:-]       Show this help
  [%s]:quit[-:-:-] / [%s]:q[-:-:-]       Quit application
`,
		kc, kc, kc, kc, kc, kc,
		kc, kc, kc, kc,
		kc, kc, kc, kc, kc,
		kc, kc,
		kc, kc, kc, kc, kc, kc, kc, kc, kc,
	)

	_, _ = fmt.Fprint(hv, help)
}
