package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/host/offline"
	"pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/wav"
)

func (c *CLI) renderCommand() *cobra.Command {
	var (
		out        string
		duration   time.Duration
		bufferSize int
		bitDepth   int
	)
	cmd := &cobra.Command{
		Use:   "render <graph>",
		Short: "Render graph into wav file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.load(args[0])
			if err != nil {
				return err
			}
			return c.render(g, out, duration, bufferSize, signal.BitDepth(bitDepth))
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "out.wav", "output wav file")
	cmd.Flags().DurationVarP(&duration, "duration", "d", time.Second, "rendered duration")
	cmd.Flags().IntVar(&bufferSize, "buffer", 512, "buffer size in frames")
	cmd.Flags().IntVar(&bitDepth, "bits", 16, "bit depth: 16 or 32")
	return cmd
}

func (c *CLI) render(g *graph, path string, duration time.Duration, bufferSize int, bitDepth signal.BitDepth) error {
	if bufferSize <= 0 {
		return fmt.Errorf("invalid buffer size: %d", bufferSize)
	}
	format := g.ctx.Format()
	host := offline.New(format)
	engine := audiograph.NewEngine(g.ctx, host)
	if err := engine.SetOutput(g.Output); err != nil {
		return err
	}
	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Stop()

	w, err := wav.Create(path, int(format.SampleRate), format.Channels, bitDepth)
	if err != nil {
		return err
	}
	frames := signal.SamplesOf(format.SampleRate, duration)
	buf := signal.Float64Buffer(format.Channels, bufferSize)
	for rendered := 0; rendered < frames; rendered += buf.Size() {
		if left := frames - rendered; left < buf.Size() {
			buf = signal.Float64Buffer(format.Channels, left)
		}
		if err := host.RenderInto(buf); err != nil {
			w.Close()
			return err
		}
		if err := w.Write(buf); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	c.Logger.WithFields(g.fields()).Debug("render: done")
	fmt.Fprintf(c.Out, "rendered %v (%d frames) to %s\n", signal.DurationOf(format.SampleRate, int64(frames)), frames, path)
	return nil
}
