// Package offline provides a host which renders the graph on demand
// instead of hardware callbacks. It tracks the topology the same way
// native engines do and rejects invalid routing with errors.
package offline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-audio/audio"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/unit"
)

var (
	// ErrAlreadyAttached is returned when attached unit is attached again.
	ErrAlreadyAttached = errors.New("unit is already attached")
	// ErrNotAttached is returned when operation addresses unit which
	// is not attached.
	ErrNotAttached = errors.New("unit is not attached")
	// ErrBusInUse is returned when destination bus already has a
	// connection.
	ErrBusInUse = errors.New("bus is in use")
	// ErrInvalidBus is returned for negative bus index.
	ErrInvalidBus = errors.New("invalid bus")
	// ErrDuplicateConnection is returned when source is already
	// connected to another bus of the same destination.
	ErrDuplicateConnection = errors.New("duplicate connection")
	// ErrFormatMismatch is returned when connection format doesn't
	// match other inputs of destination or the host output format.
	ErrFormatMismatch = errors.New("format mismatch")
	// ErrOutputUnit is returned when output unit is detached.
	ErrOutputUnit = errors.New("output unit cannot be detached")
	// ErrNotRunning is returned when host renders while stopped.
	ErrNotRunning = errors.New("host is not running")
)

// Output is the unit which receives the final signal.
type Output struct{}

// Name implements audiograph.Unit.
func (*Output) Name() string {
	return "output"
}

// Render sums all inputs.
func (*Output) Render(_ float64, in []signal.Float64, out signal.Float64) {
	for i := range in {
		out.Add(in[i])
	}
}

type connection struct {
	source audiograph.Unit
	format audiograph.Format
}

// Host keeps attached units and their connections. All methods are
// safe for concurrent use, so rendering can happen in a separate
// goroutine.
type Host struct {
	mu      sync.Mutex
	format  audiograph.Format
	output  *Output
	units   map[audiograph.Unit]map[int]connection
	running bool
	starts  int
	stops   int
}

// New returns a stopped host with pre-attached output unit.
func New(format audiograph.Format) *Host {
	output := &Output{}
	return &Host{
		format: format,
		output: output,
		units: map[audiograph.Unit]map[int]connection{
			output: {},
		},
	}
}

// Format returns format of the output.
func (h *Host) Format() audiograph.Format {
	return h.format
}

// OutputUnit returns the pre-attached output unit.
func (h *Host) OutputUnit() audiograph.Unit {
	return h.output
}

// Attach makes unit known to the host.
func (h *Host) Attach(u audiograph.Unit) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.units[u]; ok {
		return fmt.Errorf("attach %s: %w", u.Name(), ErrAlreadyAttached)
	}
	h.units[u] = make(map[int]connection)
	return nil
}

// Detach removes unit and every connection it participates in.
func (h *Host) Detach(u audiograph.Unit) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if u == audiograph.Unit(h.output) {
		return ErrOutputUnit
	}
	if _, ok := h.units[u]; !ok {
		return fmt.Errorf("detach %s: %w", u.Name(), ErrNotAttached)
	}
	delete(h.units, u)
	for _, buses := range h.units {
		for bus, c := range buses {
			if c.source == u {
				delete(buses, bus)
			}
		}
	}
	return nil
}

// Connect routes source into the bus of destination.
func (h *Host) Connect(source, destination audiograph.Unit, bus int, format audiograph.Format) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.units[source]; !ok {
		return fmt.Errorf("connect %s: %w", source.Name(), ErrNotAttached)
	}
	buses, ok := h.units[destination]
	if !ok {
		return fmt.Errorf("connect to %s: %w", destination.Name(), ErrNotAttached)
	}
	if bus < 0 {
		return fmt.Errorf("connect to %s bus %d: %w", destination.Name(), bus, ErrInvalidBus)
	}
	if c, ok := buses[bus]; ok {
		return fmt.Errorf("connect to %s bus %d used by %s: %w", destination.Name(), bus, c.source.Name(), ErrBusInUse)
	}
	for b, c := range buses {
		if c.source == source {
			return fmt.Errorf("connect %s to %s bus %d, already on bus %d: %w", source.Name(), destination.Name(), bus, b, ErrDuplicateConnection)
		}
		if c.format.SampleRate != format.SampleRate {
			return fmt.Errorf("connect %s %v to %s with %v on bus %d: %w", source.Name(), format, destination.Name(), c.format, b, ErrFormatMismatch)
		}
	}
	if destination == audiograph.Unit(h.output) && format != h.format {
		return fmt.Errorf("connect %s %v to output %v: %w", source.Name(), format, h.format, ErrFormatMismatch)
	}
	buses[bus] = connection{
		source: source,
		format: format,
	}
	return nil
}

// Disconnect removes connection of destination bus. Disconnecting an
// empty bus is no-op.
func (h *Host) Disconnect(destination audiograph.Unit, bus int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	buses, ok := h.units[destination]
	if !ok {
		return fmt.Errorf("disconnect %s: %w", destination.Name(), ErrNotAttached)
	}
	delete(buses, bus)
	return nil
}

// Start starts rendering.
func (h *Host) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = true
	h.starts++
	return nil
}

// Stop stops rendering.
func (h *Host) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	h.stops++
}

// IsRunning returns true if host is started.
func (h *Host) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Attached returns true if unit is attached.
func (h *Host) Attached(u audiograph.Unit) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.units[u]
	return ok
}

// Units returns number of attached units, output unit excluded.
func (h *Host) Units() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.units) - 1
}

// InputCount returns number of connected buses of the unit.
func (h *Host) InputCount(u audiograph.Unit) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.units[u])
}

// OutputCount returns number of connections the unit is a source of.
func (h *Host) OutputCount(u audiograph.Unit) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	var count int
	for _, buses := range h.units {
		for _, c := range buses {
			if c.source == u {
				count++
			}
		}
	}
	return count
}

// Source returns unit connected to the bus of destination.
func (h *Host) Source(destination audiograph.Unit, bus int) (audiograph.Unit, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.units[destination][bus]
	return c.source, ok
}

// Starts returns how many times host was started.
func (h *Host) Starts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.starts
}

// Stops returns how many times running host was stopped.
func (h *Host) Stops() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stops
}

// Render pulls frames from the output unit and returns interleaved
// buffer.
func (h *Host) Render(frames int) (*audio.FloatBuffer, error) {
	out := signal.Float64Buffer(h.format.Channels, frames)
	if err := h.RenderInto(out); err != nil {
		return nil, err
	}
	return &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: h.format.Channels,
			SampleRate:  int(h.format.SampleRate),
		},
		Data: out.Interleave(),
	}, nil
}

// RenderInto pulls a single cycle into the buffer. Every unit is
// rendered once per cycle, even if it has multiple consumers.
func (h *Host) RenderInto(out signal.Float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return ErrNotRunning
	}
	c := cycle{
		host:     h,
		channels: out.NumChannels(),
		frames:   out.Size(),
		rendered: make(map[audiograph.Unit]signal.Float64),
	}
	out.Clear()
	out.Add(c.render(h.output))
	return nil
}

// cycle caches buffers of units rendered in a single pull.
type cycle struct {
	host     *Host
	channels int
	frames   int
	rendered map[audiograph.Unit]signal.Float64
}

func (c *cycle) render(u audiograph.Unit) signal.Float64 {
	if b, ok := c.rendered[u]; ok {
		return b
	}
	out := signal.Float64Buffer(c.channels, c.frames)
	// guard from cycles.
	c.rendered[u] = out

	r, ok := u.(unit.Renderer)
	if !ok {
		return out
	}
	if s, ok := u.(unit.Switch); ok && !s.Active() {
		return out
	}
	buses := c.host.units[u]
	indices := make([]int, 0, len(buses))
	for bus := range buses {
		indices = append(indices, bus)
	}
	sort.Ints(indices)
	in := make([]signal.Float64, 0, len(indices))
	for _, bus := range indices {
		in = append(in, c.render(buses[bus].source))
	}
	r.Render(c.host.format.SampleRate, in, out)
	return out
}
