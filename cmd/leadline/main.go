package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pvictorino/leadline/internal/app"
	"github.com/pvictorino/leadline/internal/config"
	"github.com/pvictorino/leadline/internal/lock"
	"github.com/pvictorino/leadline/internal/workspace"
	"go.uber.org/fx"
)

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace name (overrides config default)")
	apiFlag := flag.String("api", "", "API base URL (overrides config)")
	flag.Parse()

	name := workspace.Resolve(*workspaceFlag)
	if err := workspace.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

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

	fxApp := fx.New(
		fx.NopLogger,
		app.Module(app.Params{Workspace: name, Config: cfg}),
	)

	fxApp.Run()

	if err := fxApp.Err(); err != nil {
		var held *lock.LockHeldError
		if errors.As(err, &held) {
			fmt.Fprintf(os.Stderr, "error: workspace %q is already in use (pid %d)\n", name, held.PID)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
