// Package cli implements the audiograph command-line interface.
package cli

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/config"
	"pipelined.dev/audiograph/host/portaudio"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/metric"
)

// HostFunc creates host which plays the graph.
type HostFunc func(format audiograph.Format, bufferSize int) audiograph.Host

// CLI holds shared state for all commands.
type CLI struct {
	Logger *logrus.Logger
	Out    io.Writer
	// NewHost is used by play command.
	NewHost HostFunc
}

// New creates a new CLI which plays with portaudio.
func New(out, errOut io.Writer) *CLI {
	l := log.GetLogger()
	l.SetOutput(errOut)
	return &CLI{
		Logger: l,
		Out:    out,
		NewHost: func(format audiograph.Format, bufferSize int) audiograph.Host {
			return portaudio.New(format, bufferSize, l)
		},
	}
}

// RootCommand creates the root command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "audiograph",
		Short:        "audiograph renders and plays audio node graphs",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.Logger.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.playCommand())
	return root
}

// graph is the config built in its own context.
type graph struct {
	config *config.Config
	ctx    *audiograph.Context
	metric *metric.Metric
	*config.Graph
}

func (c *CLI) load(path string) (*graph, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return c.build(cfg)
}

func (c *CLI) build(cfg *config.Config) (*graph, error) {
	m := metric.New(prometheus.NewRegistry())
	ctx, err := audiograph.NewContext(
		audiograph.WithFormat(cfg.Format.Format()),
		audiograph.WithLogger(c.Logger),
		audiograph.WithMetric(m),
	)
	if err != nil {
		return nil, err
	}
	g, err := cfg.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return &graph{
		config: cfg,
		ctx:    ctx,
		metric: m,
		Graph:  g,
	}, nil
}

func (g *graph) fields() logrus.Fields {
	fields := logrus.Fields{}
	for k, v := range g.metric.Get() {
		fields[k] = v
	}
	return fields
}
