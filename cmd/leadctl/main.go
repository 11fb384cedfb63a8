package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/bus"
	"github.com/pvictorino/leadline/internal/composer"
	"github.com/pvictorino/leadline/internal/config"
	"github.com/pvictorino/leadline/internal/logging"
	"github.com/pvictorino/leadline/internal/timeline"
	"github.com/pvictorino/leadline/internal/workspace"
	"go.uber.org/zap"
)

func main() {
	apiFlag := flag.String("api", "", "API base URL (overrides config)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	verboseFlag := flag.Bool("verbose", false, "log requests to stderr and the workspace log")
	flag.Parse()

	cfg, err := config.Load(workspace.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read %s: %v\n", workspace.ConfigPath(), err)
		os.Exit(1)
	}
	if *apiFlag != "" {
		cfg.APIBaseURL = *apiFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verboseFlag {
		ws := workspace.Resolve("")
		logger, err = logging.New(workspace.LogPath(ws), ws)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot open log: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()
	}

	c, err := api.New(cfg.APIBaseURL, cfg.Token, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "mockups":
		cmdMockups(ctx, c, *jsonFlag)
	case "timeline":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: leadctl timeline <mockup-id>")
			os.Exit(1)
		}
		cmdTimeline(ctx, c, parseID(args[1]), *jsonFlag)
	case "messages":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: leadctl messages <mockup/id | modification/id>")
			os.Exit(1)
		}
		cmdMessages(ctx, c, parseScope(args[1]), *jsonFlag)
	case "send":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: leadctl send <mockup/id | modification/id> <text> [image...]")
			os.Exit(1)
		}
		cmdSend(ctx, c, cfg, logger, parseScope(args[1]), args[2], args[3:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: leadctl [--api <url>] [--json] [--verbose] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  mockups                      List mockups")
	fmt.Fprintln(os.Stderr, "  timeline <id>                Show a mockup's revision timeline")
	fmt.Fprintln(os.Stderr, "  messages <scope>             Show the newest messages of a thread")
	fmt.Fprintln(os.Stderr, "  send <scope> <text> [img..]  Send a message to a thread")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "scope is mockup/<id> or modification/<id>")
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid id %q\n", s)
		os.Exit(1)
	}
	return id
}

func parseScope(s string) api.Scope {
	kind, rawID, ok := strings.Cut(s, "/")
	if !ok {
		fmt.Fprintf(os.Stderr, "error: invalid scope %q, want mockup/<id> or modification/<id>\n", s)
		os.Exit(1)
	}
	id := parseID(rawID)
	switch kind {
	case "mockup":
		return api.MockupScope(id)
	case "modification":
		return api.ModificationScope(id)
	default:
		fmt.Fprintf(os.Stderr, "error: invalid scope kind %q\n", kind)
		os.Exit(1)
		return api.Scope{}
	}
}

func cmdMockups(ctx context.Context, c *api.Client, jsonOut bool) {
	var all []api.Mockup
	cursor := ""
	for {
		page, err := c.ListMockups(ctx, cursor)
		if err != nil {
			fatal(err)
		}
		all = append(all, page.Results...)
		if page.Next == nil || *page.Next == "" {
			break
		}
		cursor = *page.Next
	}

	if jsonOut {
		outputJSON(all)
		return
	}
	if len(all) == 0 {
		fmt.Println("No mockups found.")
		return
	}
	for _, m := range all {
		fmt.Printf("%-6d %-30s %-10s %s\n", m.ID, m.LeadName, m.RequestStatus, m.RequestedAt.Local().Format("2006-01-02"))
	}
}

func cmdTimeline(ctx context.Context, c *api.Client, mockupID int64, jsonOut bool) {
	mockup, err := c.GetMockup(ctx, mockupID)
	if err != nil {
		fatal(err)
	}
	mods, err := c.ListModifications(ctx, mockupID)
	if err != nil {
		fatal(err)
	}
	tl := timeline.Build(mockup, mods)

	if jsonOut {
		type row struct {
			ID     int64  `json:"id"`
			Kind   string `json:"kind"`
			Status string `json:"status"`
			Date   string `json:"requested_date"`
		}
		var rows []row
		for _, e := range tl.Entries {
			kind := "modification"
			if e.Kind == timeline.KindMockup {
				kind = "mockup"
			}
			rows = append(rows, row{
				ID:     e.ID(),
				Kind:   kind,
				Status: string(e.Status()),
				Date:   e.RequestedAt().Format(time.RFC3339),
			})
		}
		outputJSON(map[string]any{
			"display_status":           tl.DisplayStatus(),
			"can_request_modification": tl.CanRequestModification(),
			"entries":                  rows,
		})
		return
	}

	fmt.Printf("Mockup #%d (%s)\n", mockup.ID, mockup.LeadName)
	fmt.Printf("Status: %s", tl.DisplayStatus())
	if tl.CanRequestModification() {
		fmt.Print(" (changes open)")
	}
	fmt.Println()
	for _, e := range tl.Entries {
		kind := "revision"
		if e.Kind == timeline.KindMockup {
			kind = "mockup"
		}
		fmt.Printf("  %-12s #%-6d %-10s %s\n", kind, e.ID(), e.Status(), e.RequestedAt().Local().Format("2006-01-02 15:04"))
	}
}

func cmdMessages(ctx context.Context, c *api.Client, scope api.Scope, jsonOut bool) {
	page, err := c.ListMessages(ctx, scope, "")
	if err != nil {
		fatal(err)
	}

	if jsonOut {
		outputJSON(page.Results)
		return
	}
	// Server order is newest first; print oldest first like the TUI.
	for i := len(page.Results) - 1; i >= 0; i-- {
		m := page.Results[i]
		fmt.Printf("[%s] user %d: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), m.SenderID, m.Text)
		for _, img := range m.Images {
			fmt.Printf("    [image] %s\n", img.URL)
		}
	}
	if page.Next != nil && *page.Next != "" {
		fmt.Println("(older history available)")
	}
}

func cmdSend(ctx context.Context, c *api.Client, cfg *config.Config, logger *zap.Logger, scope api.Scope, text string, images []string) {
	comp := composer.New(c, bus.New(), cfg.SenderID, logger)
	draft := &composer.Draft{}
	draft.SetText(text)
	for _, path := range images {
		a, err := composer.NewFileAttachment(path)
		if err != nil {
			fatal(err)
		}
		draft.Attach(a)
	}

	msg, err := comp.Submit(ctx, scope, draft)
	if err != nil {
		fatal(err)
	}
	if msg == nil {
		fmt.Println("Nothing to send.")
		return
	}
	fmt.Printf("Sent message #%d\n", msg.ID)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
