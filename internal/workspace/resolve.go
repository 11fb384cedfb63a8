package workspace

import "github.com/pvictorino/leadline/internal/config"

const DefaultWorkspaceName = "default"

// Resolve determines the active workspace name using precedence:
// 1. flagOverride (--workspace flag)
// 2. config.toml default_workspace
// 3. "default"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultWorkspace != "" {
		return cfg.DefaultWorkspace
	}
	return DefaultWorkspaceName
}
