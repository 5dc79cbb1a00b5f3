// Package config loads the iteration engine's configuration surface from a
// YAML file on disk into an immutable Snapshot.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PromptMode selects which prompt body the iteration engine sends.
type PromptMode string

const (
	PromptBasic PromptMode = "basic"
	PromptGsd   PromptMode = "gsd"
)

// defaultMaxIterations caps a run at 20 iterations when the config omits
// max_iterations, enough for a typical feature loop without letting a
// stuck agent burn tokens indefinitely.
const defaultMaxIterations = 20

// Snapshot is the immutable configuration surface for one build loop run.
// Callers must treat it as read-only after Load returns.
type Snapshot struct {
	MaxIterations     uint32        `yaml:"max_iterations"`
	IterationTimeout  time.Duration `yaml:"-"`
	IterationTimeoutS uint32        `yaml:"iteration_timeout_secs"`
	TimeoutRetries    uint32        `yaml:"timeout_retries"`
	ClaudeCmd         string        `yaml:"claude_cmd"`
	PromptMode        PromptMode    `yaml:"prompt_mode"`
	PromptBuildBody   string        `yaml:"prompt_build_body"`
	PromptPlanBody    string        `yaml:"prompt_plan_body"`
	TUIEnabled        bool          `yaml:"tui_enabled"`
	SkipPermissions   bool          `yaml:"skip_permissions"`
	QuestionRoundCap  int           `yaml:"question_round_cap"`
}

// Load reads a YAML config file into a Snapshot, filling in documented
// defaults for any field the file omits.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	snap := defaults()
	if err := yaml.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	snap.IterationTimeout = time.Duration(snap.IterationTimeoutS) * time.Second

	if snap.PromptMode == "" {
		snap.PromptMode = PromptBasic
	}
	if snap.QuestionRoundCap <= 0 {
		snap.QuestionRoundCap = 3
	}

	return snap, nil
}

func defaults() *Snapshot {
	return &Snapshot{
		MaxIterations:    defaultMaxIterations,
		PromptMode:       PromptBasic,
		QuestionRoundCap: 3,
	}
}
