package audiograph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/mock"
	"pipelined.dev/audiograph/unit"
)

var (
	_ audiograph.HasInputs   = (*audiograph.Mixer)(nil)
	_ audiograph.Startable   = (*audiograph.Mixer)(nil)
	_ audiograph.Startable   = (*audiograph.Processor)(nil)
	_ audiograph.FormatAware = (*audiograph.Processor)(nil)
)

type plain struct{}

func (plain) Name() string { return "plain" }

func TestProcessor(t *testing.T) {
	ctx := newContext(t)
	osc := proc(ctx, "osc")
	fx := proc(ctx, "fx", osc, nil, osc)

	assert.Equal(t, "fx", fx.Name())
	assert.Equal(t, []audiograph.Node{osc}, fx.Inputs())
	assert.NotEqual(t, osc.ID(), fx.ID())
	assert.Nil(t, fx.Engine())
	assert.Equal(t, ctx.Format(), fx.Format())
	assert.Equal(t, "fx", fx.Unit().Name())

	// inputs are returned as copy.
	inputs := fx.Inputs()
	inputs[0] = nil
	assert.Equal(t, []audiograph.Node{osc}, fx.Inputs())
}

func TestStartedFlag(t *testing.T) {
	ctx := newContext(t)
	tests := []struct {
		name    string
		unit    audiograph.Unit
		started bool
	}{
		{
			name:    "active switch",
			unit:    mock.NewUnit("osc"),
			started: true,
		},
		{
			name:    "inactive switch",
			unit:    unit.NewSine(440, 1),
			started: false,
		},
		{
			name:    "no switch",
			unit:    plain{},
			started: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			n := audiograph.NewProcessor(ctx, test.unit)
			assert.Equal(t, test.started, n.IsStarted())
			n.Stop()
			assert.False(t, n.IsStarted())
			n.Start()
			assert.True(t, n.IsStarted())
		})
	}
}

func TestStartedFlagPushed(t *testing.T) {
	ctx, _, e := newMock(t)
	u := mock.NewUnit("osc")
	osc := audiograph.NewProcessor(ctx, u)
	m := audiograph.NewMixer(ctx, osc)

	osc.Stop()
	assert.True(t, u.Active())
	assert.NoError(t, e.SetOutput(m))
	assert.False(t, u.Active())

	osc.Start()
	assert.True(t, u.Active())
}
