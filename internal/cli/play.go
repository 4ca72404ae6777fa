package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/config"
)

func (c *CLI) playCommand() *cobra.Command {
	var (
		duration   time.Duration
		bufferSize int
		watch      bool
	)
	cmd := &cobra.Command{
		Use:   "play <graph>",
		Short: "Play graph with default output device",
		Long: `Play graph with default output device until interrupted or duration
elapsed. With --watch the graph file is reloaded on every change and the new
graph replaces the engine output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.load(args[0])
			if err != nil {
				return err
			}
			return c.play(cmd.Context(), args[0], g, duration, bufferSize, watch)
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "play duration, zero plays until interrupted")
	cmd.Flags().IntVar(&bufferSize, "buffer", 512, "buffer size in frames")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload graph file on change")
	return cmd
}

func (c *CLI) play(ctx context.Context, path string, g *graph, duration time.Duration, bufferSize int, watch bool) error {
	engine := audiograph.NewEngine(g.ctx, c.NewHost(g.ctx.Format(), bufferSize))
	if err := engine.SetOutput(g.Output); err != nil {
		return err
	}
	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Stop()

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}
	eg, ctx := errgroup.WithContext(ctx)
	reloads := make(chan *config.Config)
	if watch {
		w, err := config.NewWatcher(path)
		if err != nil {
			return err
		}
		eg.Go(func() error {
			return w.Run(ctx, func(cfg *config.Config, err error) {
				if err != nil {
					c.Logger.WithError(err).Warn("play: reload failed")
					return
				}
				select {
				case reloads <- cfg:
				case <-ctx.Done():
				}
			})
		})
	}
	// engine is mutated only in this goroutine.
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg := <-reloads:
				if err := c.reload(engine, g, cfg); err != nil {
					c.Logger.WithError(err).Warn("play: reload failed")
				}
			}
		}
	})
	c.Logger.Info("play: playing ", path)
	err := eg.Wait()
	c.Logger.WithFields(g.fields()).Debug("play: done")
	return err
}

// reload builds new graph in the same context and assigns it as the
// engine output. If the graph can't be built, format and output are
// left untouched. If the engine rejects the new graph, previous format
// is set back and previous output is assigned again.
func (c *CLI) reload(engine *audiograph.Engine, g *graph, cfg *config.Config) error {
	format := g.ctx.Format()
	if err := g.ctx.SetFormat(cfg.Format.Format()); err != nil {
		return err
	}
	next, err := cfg.Build(g.ctx)
	if err != nil {
		_ = g.ctx.SetFormat(format)
		return err
	}
	if err := engine.SetOutput(next.Output); err != nil {
		_ = g.ctx.SetFormat(format)
		if restoreErr := engine.SetOutput(g.Output); restoreErr != nil {
			return fmt.Errorf("%w, restore previous graph: %v", err, restoreErr)
		}
		return err
	}
	g.config, g.Graph = cfg, next
	c.Logger.Info("play: reloaded ", len(next.Nodes), " nodes")
	return nil
}
