package cli

import (
	"github.com/spf13/cobra"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/dot"
	"pipelined.dev/audiograph/host/offline"
)

func (c *CLI) dotCommand() *cobra.Command {
	var svg bool
	cmd := &cobra.Command{
		Use:   "dot <graph>",
		Short: "Print live topology of the graph in DOT or SVG format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.load(args[0])
			if err != nil {
				return err
			}
			engine := audiograph.NewEngine(g.ctx, offline.New(g.ctx.Format()))
			if err := engine.SetOutput(g.Output); err != nil {
				return err
			}
			if err := engine.Verify(); err != nil {
				return err
			}
			graph := dot.Engine(engine)
			if !svg {
				_, err := c.Out.Write([]byte(graph))
				return err
			}
			data, err := dot.RenderSVG(cmd.Context(), graph)
			if err != nil {
				return err
			}
			_, err = c.Out.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&svg, "svg", false, "render SVG instead of DOT")
	return cmd
}
