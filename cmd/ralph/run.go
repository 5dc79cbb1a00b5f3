package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ralph-run/ralph/internal/cliresolve"
	"github.com/ralph-run/ralph/internal/config"
	"github.com/ralph-run/ralph/internal/iteration"
	"github.com/ralph-run/ralph/internal/ledger"
	"github.com/ralph-run/ralph/internal/loopctl"
	"github.com/ralph-run/ralph/internal/relay"
	"github.com/ralph-run/ralph/internal/vcs"
	"github.com/ralph-run/ralph/internal/worklock"
)

const progressFileName = "PROGRESS.md"

var (
	dryRunFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the build loop until completion, cancellation, or failure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuildLoop(cmd.Context(), false)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run exactly one iteration and stop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuildLoop(cmd.Context(), true)
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "log what would happen without spawning the agent")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
}

func runBuildLoop(parent context.Context, onceMode bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	snap, err := config.Load(configPath)
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("loading config: %w", err)}
	}

	resolved, err := cliresolve.Resolve(snap.ClaudeCmd, os.Getenv("RALPH_CLAUDE_CMD"))
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("resolving agent command: %w", err)}
	}

	progressPath := filepath.Join(workspacePath, progressFileName)
	if _, err := os.Stat(progressPath); err != nil {
		return &exitError{code: 1, err: fmt.Errorf("progress document not found at %s: %w", progressPath, err)}
	}

	lock, err := worklock.Acquire(workspacePath)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	defer lock.Release()

	var adapter vcs.Adapter
	if backend, err := vcs.Detect(workspacePath); err == nil {
		adapter, _ = vcs.New(backend, workspacePath)
	}

	var prompter relay.Prompter
	termPrompter, err := relay.NewTerminalPrompter()
	if err == nil {
		defer termPrompter.Close()
		prompter = termPrompter
	}

	rc := &iteration.Context{
		WorkspacePath:   workspacePath,
		ProgressPath:    progressPath,
		Config:          snap,
		Resolved:        resolved,
		VCS:             adapter,
		OnceMode:        onceMode,
		DryRun:          dryRunFlag,
		SkipPermissions: snap.SkipPermissions,
	}

	engine := iteration.NewEngine(prompter, nil)

	var led *ledger.Ledger
	if l, err := ledger.Open(ledgerPath); err == nil {
		led = l
		defer led.Close()
	}

	controller := loopctl.New(engine, rc, os.Stdout)
	outcome, err := controller.Run(ctx)

	if led != nil {
		_ = led.RecordIteration(context.Background(), ledger.RunRecord{
			RunID:          uuid.NewString(),
			WorkspacePath:  workspacePath,
			Iteration:      outcome.IterationsRun,
			Outcome:        string(outcome.Reason),
			TasksCompleted: outcome.TasksCompleted,
			Usage:          rc.AccumulatedTokens,
			RecordedAt:     time.Now(),
		})
	}

	if err != nil {
		return &exitError{code: 1, err: err}
	}

	if outcome.Reason == iteration.ReasonCancelled && ctx.Err() != nil {
		return &exitError{code: 130, err: fmt.Errorf("cancelled")}
	}

	return nil
}
