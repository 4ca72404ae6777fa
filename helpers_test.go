package audiograph_test

import (
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/host/offline"
	"pipelined.dev/audiograph/mock"
)

// newContext returns context which names mixer units mixer1, mixer2...
func newContext(t *testing.T, options ...audiograph.Option) *audiograph.Context {
	t.Helper()
	var mixers int
	options = append([]audiograph.Option{
		audiograph.WithMixerUnit(func() audiograph.Unit {
			mixers++
			return mock.NewUnit(fmt.Sprintf("mixer%d", mixers))
		}),
	}, options...)
	ctx, err := audiograph.NewContext(options...)
	require.NoError(t, err)
	return ctx
}

func newMock(t *testing.T) (*audiograph.Context, *mock.Host, *audiograph.Engine) {
	t.Helper()
	ctx := newContext(t)
	h := mock.NewHost()
	return ctx, h, audiograph.NewEngine(ctx, h)
}

func newOffline(t *testing.T, options ...audiograph.Option) (*audiograph.Context, *offline.Host, *audiograph.Engine) {
	t.Helper()
	ctx, err := audiograph.NewContext(options...)
	require.NoError(t, err)
	h := offline.New(ctx.Format())
	return ctx, h, audiograph.NewEngine(ctx, h)
}

func proc(ctx *audiograph.Context, name string, inputs ...audiograph.Node) *audiograph.Processor {
	return audiograph.NewProcessor(ctx, mock.NewUnit(name), inputs...)
}

// links returns live connections as source->destination:bus.
func links(e *audiograph.Engine) []string {
	var result []string
	for _, l := range e.Links() {
		destination := "output"
		if l.Destination != nil {
			destination = l.Destination.Name()
		}
		result = append(result, fmt.Sprintf("%s->%s:%d", l.Source.Name(), destination, l.Bus))
	}
	return result
}

func verify(t *testing.T, e *audiograph.Engine) {
	t.Helper()
	if err := e.Verify(); err != nil {
		t.Fatalf("%v\nlive links:\n%s", err, spew.Sdump(links(e)))
	}
}

// assertCalls compares recorded host calls and clears them.
func assertCalls(t *testing.T, expected string, h *mock.Host) {
	t.Helper()
	actual := h.Log()
	h.Calls = nil
	if actual == expected {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	require.NoError(t, err)
	t.Errorf("unexpected host calls:\n%s", diff)
}
