package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/config"
	"pipelined.dev/audiograph/unit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const tomlGraph = `
output = "main"

[format]
sample_rate = 48000
channels = 1

[[node]]
name = "osc"
unit = "sine"
frequency = 440
amplitude = 0.5

[[node]]
name = "verb"
unit = "gain"
level = 0.3
inputs = ["osc"]
started = false

[[mixer]]
name = "main"
inputs = ["osc", "verb"]
`

const yamlGraph = `
output: verb
nodes:
  - name: osc
    unit: sine
    frequency: 220
    amplitude: 1
  - name: verb
    unit: gain
    level: 1
    inputs: [osc]
`

func TestDecode(t *testing.T) {
	c, err := config.Decode([]byte(tomlGraph), ".toml")
	require.NoError(t, err)
	assert.Equal(t, audiograph.Format{SampleRate: 48000, Channels: 1}, c.Format.Format())
	assert.Len(t, c.Nodes, 2)
	assert.Equal(t, []string{"osc", "verb"}, c.Mixers[0].Inputs)
	require.NotNil(t, c.Nodes[1].Started)
	assert.False(t, *c.Nodes[1].Started)

	c, err = config.Decode([]byte(yamlGraph), ".yml")
	require.NoError(t, err)
	assert.Equal(t, audiograph.DefaultFormat, c.Format.Format())
	assert.Equal(t, "verb", c.Output)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		ext   string
		err   error
		check func(*testing.T, error)
	}{
		{
			name: "extension",
			data: tomlGraph,
			ext:  ".json",
			err:  config.ErrUnknownFormat,
		},
		{
			name: "duplicate",
			data: "output = \"a\"\n[[node]]\nname = \"a\"\nunit = \"sine\"\n[[mixer]]\nname = \"a\"\n",
			ext:  ".toml",
			err:  config.ErrDuplicateName,
		},
		{
			name: "unknown input",
			data: "output = \"m\"\n[[mixer]]\nname = \"m\"\ninputs = [\"x\"]\n",
			ext:  ".toml",
			err:  config.ErrUnknownNode,
		},
		{
			name: "unknown output",
			data: "output: x\nmixers:\n  - name: m\n",
			ext:  ".yaml",
			err:  config.ErrUnknownNode,
		},
		{
			name: "validation",
			data: "output: a\nnodes:\n  - name: a\n    unit: reverb\n",
			ext:  ".yaml",
			check: func(t *testing.T, err error) {
				var ve validator.ValidationErrors
				assert.ErrorAs(t, err, &ve)
			},
		},
		{
			name: "unknown key",
			data: "output = \"a\"\ncolor = \"red\"\n",
			ext:  ".toml",
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := config.Decode([]byte(test.data), test.ext)
			if test.check != nil {
				test.check(t, err)
				return
			}
			assert.ErrorIs(t, err, test.err)
		})
	}
}

func TestBuild(t *testing.T) {
	c, err := config.Decode([]byte(tomlGraph), ".toml")
	require.NoError(t, err)
	ctx, err := audiograph.NewContext(audiograph.WithFormat(c.Format.Format()))
	require.NoError(t, err)

	g, err := c.Build(ctx)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 3)
	main, ok := g.Output.(*audiograph.Mixer)
	require.True(t, ok)
	assert.Equal(t, []audiograph.Node{g.Nodes["osc"], g.Nodes["verb"]}, main.Connections())
	assert.Equal(t, []audiograph.Node{g.Nodes["osc"]}, g.Nodes["verb"].Inputs())

	osc := g.Nodes["osc"].(*audiograph.Processor)
	assert.True(t, osc.IsStarted())
	assert.IsType(t, &unit.Sine{}, osc.Unit())
	assert.False(t, g.Nodes["verb"].(*audiograph.Processor).IsStarted())
	assert.Equal(t, c.Format.Format(), osc.Format())
}

func TestBuildCycle(t *testing.T) {
	c := &config.Config{
		Output: "a",
		Mixers: []config.MixerConfig{
			{Name: "a", Inputs: []string{"b"}},
			{Name: "b", Inputs: []string{"a"}},
		},
	}
	ctx, err := audiograph.NewContext()
	require.NoError(t, err)
	_, err = c.Build(ctx)
	assert.ErrorIs(t, err, audiograph.ErrCycle)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlGraph), 0o644))
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "verb", c.Output)

	_, err = config.Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlGraph), 0o644))

	w, err := config.NewWatcher(path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	configs := make(chan *config.Config, 16)
	done := make(chan error)
	go func() {
		done <- w.Run(ctx, func(c *config.Config, err error) {
			if err != nil {
				return
			}
			select {
			case configs <- c:
			default:
			}
		})
	}()

	// other files in directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
	updated := tomlGraph + "\n[[node]]\nname = \"noise\"\nunit = \"silence\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	timeout := time.After(5 * time.Second)
	for found := false; !found; {
		select {
		case c := <-configs:
			found = len(c.Nodes) == 3
		case <-timeout:
			t.Fatal("config was not reloaded")
		}
	}
	cancel()
	assert.NoError(t, <-done)
}
