package audiograph

import (
	"fmt"
	"sort"
)

// Engine owns the live topology of the host. It keeps the set of
// attached units equal to the set of nodes reachable from its output.
// Engine is not safe for concurrent use: all mutations of the engine
// and its live nodes must happen in a single goroutine.
type Engine struct {
	ctx  *Context
	host Host

	output    Node   // assigned output.
	mainMixer *Mixer // root of the graph, connected to host output.
	wrapper   *Mixer // mixer created by engine for non-mixer outputs.

	// live maps node id to its attachment.
	live map[string]*attachment
	// order contains ids of live nodes, inputs before consumers.
	order []string
	// root is connected to the host output.
	root *node
}

// attachment is the registry entry of live node.
type attachment struct {
	node  Node
	buses map[int]string // bus to source node id
}

// Link is a live connection between two nodes.
type Link struct {
	Source Node
	// Destination is nil if source is connected to host output.
	Destination Node
	Bus         int
}

// NewEngine creates a new engine for provided host.
func NewEngine(ctx *Context, host Host) *Engine {
	return &Engine{
		ctx:  ctx,
		host: host,
		live: make(map[string]*attachment),
	}
}

// Output returns assigned output node.
func (e *Engine) Output() Node {
	return e.output
}

// MainMixer returns the mixer connected to the host output. It is
// either the assigned output or the mixer created by engine to wrap it.
func (e *Engine) MainMixer() *Mixer {
	return e.mainMixer
}

// SetOutput assigns the output node and reconciles live topology. If
// node is not a mixer, it's wrapped with mixer owned by engine. If host
// is running, it's restarted.
//
// The wrapper returned by MainMixer stays owned by engine when it's
// assigned back: it becomes the main mixer again, Output reports the
// node it wraps and the next non-mixer output replaces its inputs.
func (e *Engine) SetOutput(n Node) error {
	if n == nil {
		if e.mainMixer == nil {
			return nil
		}
		e.ctx.log.Debug("engine: clear output")
		e.output = nil
		e.mainMixer = nil
		return e.reconcile(true)
	}
	if e.output != nil && same(n, e.output) {
		return nil
	}
	if e.mainMixer != nil && n.base() == e.mainMixer.base() {
		return nil
	}
	if _, err := e.walk(n); err != nil {
		return err
	}
	output := n
	switch m, ok := n.(*Mixer); {
	case e.wrapper != nil && n.base() == e.wrapper.base():
		e.mainMixer = e.wrapper
		if len(e.wrapper.inputs) == 1 {
			output = e.wrapper.inputs[0]
		}
	case ok:
		e.mainMixer = m
	default:
		if e.wrapper == nil {
			e.wrapper = NewMixer(e.ctx)
		} else if err := e.wrapper.check("set output", e.wrapper, n); err != nil {
			return err
		}
		e.wrapper.inputs = []Node{n}
		e.mainMixer = e.wrapper
	}
	e.ctx.log.Debug("engine: output ", nodeName(output), " main mixer ", nodeName(e.mainMixer))
	e.output = output
	return e.reconcile(true)
}

// Start starts the host.
func (e *Engine) Start() error {
	if e.host.IsRunning() {
		return nil
	}
	if err := e.host.Start(); err != nil {
		return &EngineStartError{Err: err}
	}
	e.ctx.log.Debug("engine: started")
	return nil
}

// Stop stops the host.
func (e *Engine) Stop() {
	e.host.Stop()
	e.ctx.log.Debug("engine: stopped")
}

// IsRunning returns true if host is running.
func (e *Engine) IsRunning() bool {
	return e.host.IsRunning()
}

// Live returns true if node is attached to this engine.
func (e *Engine) Live(n Node) bool {
	if n == nil {
		return false
	}
	_, ok := e.live[n.ID()]
	return ok && n.Engine() == e
}

// Nodes returns live nodes, inputs before their consumers.
func (e *Engine) Nodes() []Node {
	nodes := make([]Node, 0, len(e.order))
	for _, id := range e.order {
		nodes = append(nodes, e.live[id].node)
	}
	return nodes
}

// Links returns live connections, including connection to the host
// output.
func (e *Engine) Links() []Link {
	var links []Link
	for _, id := range e.order {
		a := e.live[id]
		for _, bus := range a.sortedBuses() {
			links = append(links, Link{
				Source:      e.live[a.buses[bus]].node,
				Destination: a.node,
				Bus:         bus,
			})
		}
	}
	if e.root != nil {
		links = append(links, Link{Source: e.live[e.root.id].node})
	}
	return links
}

// Verify checks that live topology is exactly the graph reachable from
// the output: every reachable node is attached to this engine, every
// input is connected once to its bus and nothing else is attached.
func (e *Engine) Verify() error {
	var order []Node
	if e.mainMixer != nil {
		var err error
		if order, err = e.walk(e.mainMixer); err != nil {
			return err
		}
	}
	if len(order) != len(e.live) {
		return fmt.Errorf("%w: %d nodes attached, %d reachable", ErrTopology, len(e.live), len(order))
	}
	for _, n := range order {
		a, ok := e.live[n.ID()]
		if !ok {
			return fmt.Errorf("%w: %s is not attached", ErrTopology, nodeName(n))
		}
		if n.Engine() != e {
			return fmt.Errorf("%w: %s refers to another engine", ErrTopology, nodeName(n))
		}
		b := n.base()
		if len(a.buses) != len(b.inputs) {
			return fmt.Errorf("%w: %s has %d connections, %d inputs", ErrTopology, nodeName(n), len(a.buses), len(b.inputs))
		}
		sources := make(map[string]int, len(b.inputs))
		for bus, in := range b.inputs {
			if a.buses[bus] != in.ID() {
				return fmt.Errorf("%w: %s bus %d is not connected to %s", ErrTopology, nodeName(n), bus, nodeName(in))
			}
			if prev, ok := sources[in.ID()]; ok {
				return fmt.Errorf("%w: %s is connected to %s buses %d and %d", ErrTopology, nodeName(in), nodeName(n), prev, bus)
			}
			sources[in.ID()] = bus
		}
	}
	switch {
	case e.mainMixer == nil && e.root != nil:
		return fmt.Errorf("%w: host output is connected without main mixer", ErrTopology)
	case e.mainMixer != nil && e.root != e.mainMixer.base():
		return fmt.Errorf("%w: main mixer is not connected to host output", ErrTopology)
	}
	return nil
}

// detach removes node from every live consumer and reconciles.
func (e *Engine) detach(n *node) error {
	for _, id := range e.order {
		b := e.live[id].node.base()
		if i := b.indexOf(n); i != -1 {
			b.removeAt(i)
		}
	}
	outputChanged := false
	if (e.output != nil && e.output.base() == n) || (e.mainMixer != nil && e.mainMixer.base() == n) {
		e.output = nil
		e.mainMixer = nil
		outputChanged = true
	}
	e.ctx.log.Debug("engine: detach ", n.unit.Name(), "-", n.id)
	return e.reconcile(outputChanged)
}

func (a *attachment) sortedBuses() []int {
	buses := make([]int, 0, len(a.buses))
	for bus := range a.buses {
		buses = append(buses, bus)
	}
	sort.Ints(buses)
	return buses
}
