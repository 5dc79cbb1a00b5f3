package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderBanner_ContainsMessage(t *testing.T) {
	var buf bytes.Buffer
	RenderBanner(&buf, "iteration 1")
	require.True(t, strings.Contains(buf.String(), "iteration 1"))
}

func TestRenderIterationSummary_ContainsMessage(t *testing.T) {
	var buf bytes.Buffer
	RenderIterationSummary(&buf, "completed 2 task(s)")
	require.True(t, strings.Contains(buf.String(), "completed 2 task(s)"))
}

func TestRenderStaleWarning_ContainsMessage(t *testing.T) {
	var buf bytes.Buffer
	RenderStaleWarning(&buf, "no structured questions seen")
	require.True(t, strings.Contains(buf.String(), "no structured questions seen"))
}

func TestRenderOutcome_ContainsMessage(t *testing.T) {
	var buf bytes.Buffer
	RenderOutcome(&buf, "done: declared")
	require.True(t, strings.Contains(buf.String(), "done: declared"))
}
