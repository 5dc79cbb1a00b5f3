package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

// TerminalPrompter collects answers interactively over a readline-driven
// terminal session, mirroring the prompt styling used elsewhere in the
// codebase's interactive surfaces.
type TerminalPrompter struct {
	rl *readline.Instance
}

// NewTerminalPrompter creates a readline instance with history disabled;
// question-answer exchanges are one-offs and don't belong in shell history.
func NewTerminalPrompter() (*TerminalPrompter, error) {
	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 cyan("> "),
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return nil, fmt.Errorf("relay: create readline: %w", err)
	}
	return &TerminalPrompter{rl: rl}, nil
}

// Close releases the underlying terminal resources.
func (p *TerminalPrompter) Close() error {
	return p.rl.Close()
}

// Prompt renders the agent's questions and reads a single line of answer
// text back. Multiple questions are numbered and answered together as one
// free-form response, since the agent is given the whole transcript back.
func (p *TerminalPrompter) Prompt(ctx context.Context, questions []string) (string, error) {
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	fmt.Println()
	fmt.Println(yellow("Agent is asking:"))
	for i, q := range questions {
		if len(questions) > 1 {
			fmt.Printf("  %d. %s\n", i+1, q)
		} else {
			fmt.Printf("  %s\n", q)
		}
	}
	fmt.Println()

	done := make(chan struct{})
	var line string
	var readErr error
	go func() {
		defer close(done)
		line, readErr = p.rl.Readline()
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-done:
	}

	if readErr != nil {
		if readErr == readline.ErrInterrupt {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("relay: readline: %w", readErr)
	}
	return strings.TrimSpace(line), nil
}
