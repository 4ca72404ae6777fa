/*
Package audiograph manages a dynamic graph of audio nodes on top of a
host rendering engine.

Concept

The host engine renders audio in its own goroutine and exposes a small set
of topology primitives: attach, detach, connect and disconnect. This
package keeps a graph of nodes and makes sure the host topology always
matches the part of the graph which is reachable from the engine output:

    Node - wraps a single processing unit and its ordered inputs;
    Mixer - a node with mutable, deduplicated inputs;
    Engine - owns the output and reconciles the host topology.

It implies the following constraints:

    graph has no cycles;
    the same edge exists at most once;
    node is attached to a single engine at a time;
    attached node has all its inputs attached to the same engine.

Building the graph

Nodes are created with explicit context which carries the current format,
logger and metrics:

    ctx, err := audiograph.NewContext(audiograph.WithFormat(format))
    osc := audiograph.NewProcessor(ctx, unit.NewSine(440, 0.5))
    verb := audiograph.NewProcessor(ctx, unit.NewGain(0.5), osc)
    mixer := audiograph.NewMixer(ctx, osc, verb)

Reconciliation

Once graph is built, one node is assigned as the output of the engine:

    engine := audiograph.NewEngine(ctx, host)
    err := engine.SetOutput(mixer)
    err = engine.Start()

If assigned node is not a mixer, engine wraps it with its own main mixer.
Every mutation of the live graph, such as mixer.AddInput or node.Detach,
reconciles the host topology before return. Only changed edges are
updated. Host is restarted only when the output is reassigned while it is
running, interior changes are applied live.
*/
package audiograph
