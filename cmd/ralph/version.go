package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ralph-run/ralph/internal/cliresolve"
	"github.com/ralph-run/ralph/internal/config"
)

// buildVersion is overridden at link time via -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

const minSupportedAgentVersion = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print ralph's version and check the resolved agent CLI's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("ralph %s\n", buildVersion)

		snap, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not load config to resolve agent command: %v\n", err)
			return nil
		}

		resolved, err := cliresolve.Resolve(snap.ClaudeCmd, os.Getenv("RALPH_CLAUDE_CMD"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not resolve agent command: %v\n", err)
			return nil
		}

		fmt.Printf("agent CLI: %s\n", resolved.Path)
		if err := resolved.CheckVersion(cmd.Context(), minSupportedAgentVersion); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
