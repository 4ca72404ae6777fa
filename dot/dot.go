// Package dot exports live engine topology in Graphviz DOT format.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"pipelined.dev/audiograph"
)

const output = "output"

// Engine converts live topology of the engine to DOT. Nodes are
// identified by their ids and labeled with unit names, edges are labeled
// with destination bus. Stopped nodes are dashed.
func Engine(e *audiograph.Engine) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	for _, n := range e.Nodes() {
		attrs := []string{fmt.Sprintf("label=%q", n.Name())}
		if s, ok := n.(audiograph.Startable); ok && !s.IsStarted() {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"")
		}
		if _, ok := n.(audiograph.HasInputs); ok {
			attrs = append(attrs, "shape=invtrapezium")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID(), strings.Join(attrs, ", "))
	}
	links := e.Links()
	if len(links) > 0 {
		fmt.Fprintf(&buf, "  %q [shape=doublecircle];\n", output)
	}

	buf.WriteString("\n")
	for _, l := range links {
		destination := output
		if l.Destination != nil {
			destination = l.Destination.ID()
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", l.Source.ID(), destination, l.Bus)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders DOT graph to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
