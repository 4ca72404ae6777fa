package audiograph

import (
	"github.com/rs/xid"

	"pipelined.dev/audiograph/unit"
)

type (
	// Node is a single processing unit of the graph with ordered inputs.
	// Input at position i is connected to the bus i of the node unit.
	Node interface {
		ID() string
		Name() string
		Unit() Unit
		Inputs() []Node
		// Engine returns the engine node is attached to or nil if node
		// is inert.
		Engine() *Engine
		// Detach removes node from the live graph. Node keeps its own
		// inputs and can be attached again.
		Detach() error
		FormatAware
		base() *node
	}

	// HasInputs is implemented by nodes with mutable fan-in.
	HasInputs interface {
		Node
		AddInput(Node) error
		RemoveInput(Node) error
		RemoveInputAt(int) error
		Input(int) (Node, error)
		Connections() []Node
	}

	// Startable is implemented by nodes which can be started and
	// stopped without detaching.
	Startable interface {
		Start()
		Stop()
		IsStarted() bool
	}

	// FormatAware is implemented by nodes with known output format.
	FormatAware interface {
		Format() Format
	}

	// Processor is a node that processes signal of inputs provided at
	// construction, for example oscillator without inputs or reverb with
	// a single input.
	Processor struct {
		node
	}
)

// node is the common state of all node variants.
type node struct {
	id      string
	ctx     *Context
	unit    Unit
	inputs  []Node
	engine  *Engine
	started bool
	format  Format
}

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

func newNode(ctx *Context, u Unit, inputs []Node) node {
	n := node{
		id:      newUID(),
		ctx:     ctx,
		unit:    u,
		format:  ctx.Format(),
		started: true,
	}
	if s, ok := u.(unit.Switch); ok {
		n.started = s.Active()
	}
	for _, in := range inputs {
		if in != nil && n.index(in) == -1 {
			n.inputs = append(n.inputs, in)
		}
	}
	return n
}

// NewProcessor returns a new node for provided unit. Repeated inputs
// are connected once.
func NewProcessor(ctx *Context, u Unit, inputs ...Node) *Processor {
	return &Processor{
		node: newNode(ctx, u, inputs),
	}
}

func (n *node) base() *node {
	return n
}

// ID returns unique id of the node.
func (n *node) ID() string {
	return n.id
}

// Name returns the name of underlying unit.
func (n *node) Name() string {
	return n.unit.Name()
}

// Unit returns underlying unit.
func (n *node) Unit() Unit {
	return n.unit
}

// Inputs returns a copy of node inputs.
func (n *node) Inputs() []Node {
	return append([]Node(nil), n.inputs...)
}

// Engine returns the engine node is attached to.
func (n *node) Engine() *Engine {
	return n.engine
}

// Format returns the format node was created or last attached with.
func (n *node) Format() Format {
	return n.format
}

// Start marks node as started. If node is attached, unit is started
// immediately, otherwise it will be started when attached.
func (n *node) Start() {
	n.setStarted(true)
}

// Stop marks node as stopped.
func (n *node) Stop() {
	n.setStarted(false)
}

// IsStarted returns true if node should process signal.
func (n *node) IsStarted() bool {
	return n.started
}

// Detach removes node from every live consumer and reconciles its
// engine. Inputs which are not reachable anymore are detached as well.
func (n *node) Detach() error {
	if n.engine == nil {
		return nil
	}
	return n.engine.detach(n)
}

func (n *node) setStarted(v bool) {
	n.started = v
	if n.engine != nil {
		n.push()
	}
}

// push applies started flag to the unit.
func (n *node) push() {
	if s, ok := n.unit.(unit.Switch); ok {
		s.SetActive(n.started)
	}
}

func (n *node) index(in Node) int {
	return n.indexOf(in.base())
}

func (n *node) indexOf(b *node) int {
	for i := range n.inputs {
		if n.inputs[i].base() == b {
			return i
		}
	}
	return -1
}

func (n *node) removeAt(i int) {
	n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
}

// reconcile triggers reconciliation if node is live.
func (n *node) reconcile() error {
	if n.engine == nil {
		return nil
	}
	return n.engine.reconcile(false)
}

// check returns structural error if in cannot become input of n.
func (n *node) check(op string, self, in Node) error {
	if in.base() == n {
		return &StructuralError{Op: op, Node: self, Reason: ErrSelfInput}
	}
	visited := make(map[*node]struct{})
	var walk func(Node) error
	walk = func(c Node) error {
		b := c.base()
		if _, ok := visited[b]; ok {
			return nil
		}
		visited[b] = struct{}{}
		if b == n {
			return &StructuralError{Op: op, Node: in, Reason: ErrCycle}
		}
		if n.engine != nil && b.engine != nil && b.engine != n.engine {
			return &StructuralError{Op: op, Node: c, Reason: ErrForeignEngine}
		}
		for _, i := range b.inputs {
			if err := walk(i); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(in)
}

// same returns true if both values refer to the same node.
func same(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.base() == b.base()
}
