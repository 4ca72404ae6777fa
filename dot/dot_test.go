package dot_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/dot"
	"pipelined.dev/audiograph/host/offline"
	"pipelined.dev/audiograph/unit"
)

func TestEngine(t *testing.T) {
	ctx, err := audiograph.NewContext()
	require.NoError(t, err)
	e := audiograph.NewEngine(ctx, offline.New(ctx.Format()))
	assert.Equal(t, "digraph G {\n  rankdir=LR;\n  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n\n\n}\n", dot.Engine(e))

	osc := audiograph.NewProcessor(ctx, unit.NewSine(440, 1))
	m := audiograph.NewMixer(ctx, osc)
	require.NoError(t, e.SetOutput(m))

	expected := fmt.Sprintf(`digraph G {
  rankdir=LR;
  node [shape=box, style="rounded,filled", fillcolor=white];

  %[1]q [label="sine", style="rounded,filled,dashed"];
  %[2]q [label="mixer", shape=invtrapezium];
  "output" [shape=doublecircle];

  %[1]q -> %[2]q [label="0"];
  %[2]q -> "output" [label="0"];
}
`, osc.ID(), m.ID())
	assert.Equal(t, expected, dot.Engine(e))
}

func TestRenderSVG(t *testing.T) {
	svg, err := dot.RenderSVG(context.Background(), "digraph G { a -> b; }")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	_, err = dot.RenderSVG(context.Background(), "digraph G { a -> ")
	assert.Error(t, err)
}
