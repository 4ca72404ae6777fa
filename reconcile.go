package audiograph

import (
	"fmt"

	"pipelined.dev/audiograph/metric"
)

// reconcile brings host topology in line with the graph reachable from
// the main mixer. Host calls are issued in the following order:
//
//	stop host if output changed while running;
//	disconnect buses of kept nodes which sources changed;
//	detach nodes which are not reachable anymore, consumers first;
//	attach new nodes and connect buses, inputs first;
//	connect main mixer to the host output;
//	start host if it was stopped.
//
// Host errors don't interrupt reconciliation: registry records only
// successful calls, so next reconciliation retries the rest. Node which
// failed to detach keeps its inputs attached, so every recorded
// connection refers to a live source.
func (e *Engine) reconcile(outputChanged bool) error {
	var order []Node
	if e.mainMixer != nil {
		var err error
		if order, err = e.walk(e.mainMixer); err != nil {
			return err
		}
	}
	desired := make(map[string]Node, len(order))
	for _, n := range order {
		desired[n.ID()] = n
	}

	restart := outputChanged && e.host.IsRunning()
	if restart {
		e.ctx.log.Debug("engine: stop for output change")
		e.host.Stop()
	}

	var errs execErrors
	// disconnect changed buses of kept nodes.
	for _, id := range e.order {
		n, ok := desired[id]
		if !ok {
			continue
		}
		a, b := e.live[id], n.base()
		for _, bus := range a.sortedBuses() {
			if bus < len(b.inputs) && b.inputs[bus].ID() == a.buses[bus] {
				continue
			}
			if err := e.host.Disconnect(b.unit, bus); err != nil {
				errs = append(errs, fmt.Errorf("disconnect %s bus %d: %w", nodeName(n), bus, err))
				continue
			}
			e.ctx.log.Debug("engine: disconnect ", nodeName(n), " bus ", bus)
			e.ctx.metric.Op(metric.DisconnectCounter)
			delete(a.buses, bus)
		}
	}
	if e.root != nil && (e.mainMixer == nil || e.root != e.mainMixer.base()) {
		if err := e.host.Disconnect(e.host.OutputUnit(), 0); err != nil {
			errs = append(errs, fmt.Errorf("disconnect output: %w", err))
		} else {
			e.ctx.metric.Op(metric.DisconnectCounter)
			e.root = nil
		}
	}

	// detach stale nodes, consumers first. Sources of connections which
	// stay on the host are kept until their consumers are detached.
	kept := make(map[string]struct{})
	var keep func(id string)
	keep = func(id string) {
		a, ok := e.live[id]
		if !ok {
			return
		}
		if _, ok := kept[id]; ok {
			return
		}
		kept[id] = struct{}{}
		for _, src := range a.buses {
			keep(src)
		}
		for _, in := range a.node.base().inputs {
			keep(in.ID())
		}
	}
	for id := range desired {
		keep(id)
	}
	if e.root != nil {
		keep(e.root.id)
	}
	var failed []string
	current := e.sorted(e.order)
	for i := len(current) - 1; i >= 0; i-- {
		id := current[i]
		if _, ok := desired[id]; ok {
			continue
		}
		a := e.live[id]
		if _, ok := kept[id]; ok {
			failed = append([]string{id}, failed...)
			continue
		}
		if err := e.host.Detach(a.node.Unit()); err != nil {
			errs = append(errs, fmt.Errorf("detach %s: %w", nodeName(a.node), err))
			failed = append([]string{id}, failed...)
			keep(id)
			continue
		}
		e.ctx.log.Debug("engine: detach ", nodeName(a.node))
		e.ctx.metric.Op(metric.DetachCounter)
		delete(e.live, id)
		a.node.base().engine = nil
	}

	// attach new nodes and connect their inputs, inputs first.
	live := make([]string, 0, len(failed)+len(order))
	live = append(live, failed...)
	for _, n := range order {
		b := n.base()
		a, ok := e.live[b.id]
		if !ok {
			b.format = e.ctx.format
			if err := e.host.Attach(b.unit); err != nil {
				errs = append(errs, fmt.Errorf("attach %s: %w", nodeName(n), err))
				continue
			}
			e.ctx.log.Debug("engine: attach ", nodeName(n), " ", b.format)
			e.ctx.metric.Op(metric.AttachCounter)
			a = &attachment{
				node:  n,
				buses: make(map[int]string, len(b.inputs)),
			}
			e.live[b.id] = a
			b.engine = e
			b.push()
		}
		live = append(live, b.id)
		for bus, in := range b.inputs {
			if src, ok := a.buses[bus]; ok && src == in.ID() {
				continue
			}
			if _, ok := e.live[in.ID()]; !ok {
				continue
			}
			if err := e.host.Connect(in.Unit(), b.unit, bus, in.Format()); err != nil {
				errs = append(errs, fmt.Errorf("connect %s to %s bus %d: %w", nodeName(in), nodeName(n), bus, err))
				continue
			}
			e.ctx.log.Debug("engine: connect ", nodeName(in), " to ", nodeName(n), " bus ", bus)
			e.ctx.metric.Op(metric.ConnectCounter)
			a.buses[bus] = in.ID()
		}
	}
	if e.mainMixer != nil && e.root == nil && e.mainMixer.engine == e {
		if err := e.host.Connect(e.mainMixer.unit, e.host.OutputUnit(), 0, e.mainMixer.format); err != nil {
			errs = append(errs, fmt.Errorf("connect %s to output: %w", nodeName(e.mainMixer), err))
		} else {
			e.ctx.log.Debug("engine: connect ", nodeName(e.mainMixer), " to output")
			e.ctx.metric.Op(metric.ConnectCounter)
			e.root = e.mainMixer.base()
		}
	}
	e.order = e.sorted(live)
	e.ctx.metric.Reconciled(len(e.live))

	if restart {
		if err := e.host.Start(); err != nil {
			errs = append(errs, &EngineStartError{Err: err})
		} else {
			e.ctx.log.Debug("engine: restarted")
			e.ctx.metric.Restarted()
		}
	}
	return errs.ret()
}

// sorted orders live ids so that sources of connections and inputs come
// before their consumers. Ids which are not live are dropped.
func (e *Engine) sorted(ids []string) []string {
	visited := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	var visit func(id string)
	visit = func(id string) {
		a, ok := e.live[id]
		if !ok {
			return
		}
		if _, ok := visited[id]; ok {
			return
		}
		visited[id] = struct{}{}
		for _, bus := range a.sortedBuses() {
			visit(a.buses[bus])
		}
		for _, in := range a.node.base().inputs {
			visit(in.ID())
		}
		result = append(result, id)
	}
	for _, id := range ids {
		visit(id)
	}
	return result
}

// walk returns nodes reachable from root, inputs before consumers.
// Structural error is returned if graph has a cycle or any node is
// attached to another engine.
func (e *Engine) walk(root Node) ([]Node, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*node]int)
	var order []Node
	var dfs func(Node) error
	dfs = func(n Node) error {
		b := n.base()
		switch color[b] {
		case gray:
			return &StructuralError{Op: "walk", Node: n, Reason: ErrCycle}
		case black:
			return nil
		}
		if b.engine != nil && b.engine != e {
			return &StructuralError{Op: "attach", Node: n, Reason: ErrForeignEngine}
		}
		color[b] = gray
		for _, in := range b.inputs {
			if err := dfs(in); err != nil {
				return err
			}
		}
		color[b] = black
		order = append(order, n)
		return nil
	}
	if err := dfs(root); err != nil {
		return nil, err
	}
	return order, nil
}
