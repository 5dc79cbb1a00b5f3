package iteration

import (
	"context"
	"time"

	"github.com/ralph-run/ralph/internal/stream"
	"github.com/ralph-run/ralph/internal/subprocess"
)

// DefaultRunner spawns the real agent CLI in streaming mode, decoding each
// stdout line through the stream parser and folding the result into an
// aggregated response.
type DefaultRunner struct{}

// Run implements AgentRunner.
func (DefaultRunner) Run(ctx context.Context, spec AgentSpec) (stream.Response, error) {
	parser := stream.NewParser()
	agg := stream.NewAggregator()

	subSpec := subprocess.Spec{
		Command:    spec.Path,
		Args:       spec.Args,
		WorkingDir: spec.WorkingDir,
		Timeout:    time.Duration(spec.TimeoutSec) * time.Second,
	}

	err := subprocess.RunStreaming(ctx, subSpec, func(line subprocess.OutputLine) {
		if line.Stream != subprocess.Stdout {
			return
		}
		for _, ev := range parser.ParseLine([]byte(line.Text)) {
			agg.Consume(ev)
		}
	})

	return agg.Response(), err
}
