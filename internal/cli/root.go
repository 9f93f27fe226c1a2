// Package cli implements the sidekick CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/sidekick/internal/config"
	"github.com/rcliao/sidekick/internal/memory"
)

// Version is the sidekick release version.
const Version = "0.1.0"

var (
	configPath    string
	workspaceFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:     "sidekick",
	Short:   "Personal assistant agent with persistent memory",
	Long:    "A personal assistant agent: chat channels in, language model out, with memory that survives restarts.",
	Version: Version,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./config.yaml or ~/.config/sidekick/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace directory (default: ~/.sidekick)")

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if workspaceFlag != "" {
		cfg.WorkspaceDir = workspaceFlag
	}
	return cfg
}

func openStore(cfg *config.Config) memory.Store {
	s, err := memory.New(cfg.Memory.Backend, cfg.WorkspaceDir)
	if err != nil {
		exitErr("open memory store", err)
	}
	return s
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
