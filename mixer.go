package audiograph

// Mixer sums up multiple inputs into a single output. Inputs are
// deduplicated by identity and keep the order they were first added,
// input at position i is routed to the bus i of mixer unit.
type Mixer struct {
	node
}

// NewMixer returns a new mixer with provided inputs. Unit is allocated
// by context.
func NewMixer(ctx *Context, inputs ...Node) *Mixer {
	return &Mixer{
		node: newNode(ctx, ctx.mixerFn(), inputs),
	}
}

// AddInput adds node to the mixer. Adding the node that is already an
// input is no-op. If mixer is live, the engine is reconciled before
// return.
func (m *Mixer) AddInput(in Node) error {
	if in == nil {
		return &StructuralError{Op: "add input", Node: m, Reason: ErrNilNode}
	}
	if m.index(in) != -1 {
		return nil
	}
	if err := m.check("add input", m, in); err != nil {
		return err
	}
	m.inputs = append(m.inputs, in)
	m.ctx.log.Debug("mixer ", nodeName(m), " add input ", nodeName(in))
	return m.reconcile()
}

// RemoveInput removes node from the mixer. Removing the node that is
// not an input is no-op.
func (m *Mixer) RemoveInput(in Node) error {
	if in == nil {
		return nil
	}
	i := m.index(in)
	if i == -1 {
		return nil
	}
	return m.RemoveInputAt(i)
}

// RemoveInputAt removes the input at provided position.
func (m *Mixer) RemoveInputAt(i int) error {
	if i < 0 || i >= len(m.inputs) {
		return &IndexOutOfRangeError{Index: i, Len: len(m.inputs)}
	}
	m.ctx.log.Debug("mixer ", nodeName(m), " remove input ", nodeName(m.inputs[i]))
	m.removeAt(i)
	return m.reconcile()
}

// Input returns the input at provided position.
func (m *Mixer) Input(i int) (Node, error) {
	if i < 0 || i >= len(m.inputs) {
		return nil, &IndexOutOfRangeError{Index: i, Len: len(m.inputs)}
	}
	return m.inputs[i], nil
}

// Connections returns current inputs of the mixer.
func (m *Mixer) Connections() []Node {
	return m.Inputs()
}
