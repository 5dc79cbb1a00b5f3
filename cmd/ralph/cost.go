package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ralph-run/ralph/internal/ledger"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show accumulated token usage for this workspace",
	Long:  `Display the token ledger totals recorded across every past run of this workspace.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := ledger.Open(ledgerPath)
		if err != nil {
			return &exitError{code: 1, err: fmt.Errorf("opening ledger: %w", err)}
		}
		defer led.Close()

		totals, err := led.Totals(cmd.Context(), workspacePath)
		if err != nil {
			return &exitError{code: 1, err: fmt.Errorf("reading ledger totals: %w", err)}
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Fprintf(os.Stdout, "\n%s\n\n", cyan("=== Token Ledger ==="))
		fmt.Printf("  Input:                %d\n", totals.Input)
		fmt.Printf("  Output:               %d\n", totals.Output)
		fmt.Printf("  Cache creation input: %d\n", totals.CacheCreationInput)
		fmt.Printf("  Cache read input:     %d\n", totals.CacheReadInput)
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(costCmd)
}
