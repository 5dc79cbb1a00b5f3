package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath    string
	workspacePath string
	ledgerPath    string
)

var rootCmd = &cobra.Command{
	Use:   "ralph",
	Short: "Run an autonomous coding-agent build loop",
	Long: `ralph drives a coding-agent CLI through a durable, progress-document-backed
build loop: reload, spawn, parse, relay, merge, persist, commit, repeat.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ralph.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&workspacePath, "workspace", ".", "workspace root containing the progress document and VCS tree")
	rootCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", ".ralph/ledger.db", "path to the token ledger database")
}

// Execute runs the root command and returns the process exit code, matching
// this module's contract: 0 on any Done(_), 1 on Failed(_), 130 on a
// cooperative cancel via Ctrl-C.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if code, ok := exitCodeFor(err); ok {
			if code != 0 {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			return code
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
