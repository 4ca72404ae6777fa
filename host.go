package audiograph

// Unit is the underlying processing unit of a node. Units are
// constructed and destroyed by their own components, graph only passes
// them to the host.
type Unit interface {
	Name() string
}

// Host is the rendering engine the graph is reconciled with. It
// executes the audio callbacks and must make attach, detach, connect
// and disconnect safe with respect to its render goroutine.
type Host interface {
	// Attach makes unit known to the host.
	Attach(Unit) error
	// Detach removes unit and all its connections from the host.
	Detach(Unit) error
	// Connect routes output of source into bus of destination.
	Connect(source, destination Unit, bus int, format Format) error
	// Disconnect removes the input connection of destination bus.
	Disconnect(destination Unit, bus int) error
	// OutputUnit returns pre-attached unit that renders to hardware.
	OutputUnit() Unit
	// Start starts rendering. It may block while hardware is
	// initialized.
	Start() error
	// Stop stops rendering.
	Stop()
	// IsRunning returns true if host is rendering.
	IsRunning() bool
}
