// Package unit provides reference processing units which can be rendered
// by the offline and portaudio hosts.
package unit

import (
	"math"
	"sync/atomic"

	"pipelined.dev/audiograph/signal"
)

type (
	// Renderer is implemented by units which produce signal. Inputs are
	// ordered by bus. Out buffer is zeroed before the call.
	Renderer interface {
		Render(sampleRate float64, in []signal.Float64, out signal.Float64)
	}

	// Switch is implemented by units which can be started and stopped
	// while attached. Stopped units produce silence.
	Switch interface {
		SetActive(bool)
		Active() bool
	}
)

// toggle is safe to change from control goroutine while host is
// rendering.
type toggle struct {
	active atomic.Bool
}

// SetActive starts or stops the unit.
func (t *toggle) SetActive(v bool) {
	t.active.Store(v)
}

// Active returns true if unit is started.
func (t *toggle) Active() bool {
	return t.active.Load()
}

// Sine generates sine wave. It's stopped after construction.
type Sine struct {
	toggle
	frequency float64
	amplitude float64
	phase     float64
}

// NewSine returns new sine generator.
func NewSine(frequency, amplitude float64) *Sine {
	return &Sine{
		frequency: frequency,
		amplitude: amplitude,
	}
}

// Name implements audiograph.Unit.
func (*Sine) Name() string {
	return "sine"
}

// Frequency returns frequency of generated signal.
func (s *Sine) Frequency() float64 {
	return s.frequency
}

// Render writes next buffer of sine to all channels.
func (s *Sine) Render(sampleRate float64, _ []signal.Float64, out signal.Float64) {
	step := 2 * math.Pi * s.frequency / sampleRate
	for i := 0; i < out.Size(); i++ {
		v := s.amplitude * math.Sin(s.phase)
		for c := range out {
			out[c][i] = v
		}
		s.phase = math.Mod(s.phase+step, 2*math.Pi)
	}
}

// Gain sums inputs and scales the result. It's started after
// construction.
type Gain struct {
	toggle
	level float64
}

// NewGain returns new gain with provided level.
func NewGain(level float64) *Gain {
	g := &Gain{level: level}
	g.SetActive(true)
	return g
}

// Name implements audiograph.Unit.
func (*Gain) Name() string {
	return "gain"
}

// Render sums inputs into out and applies the level.
func (g *Gain) Render(_ float64, in []signal.Float64, out signal.Float64) {
	for i := range in {
		out.Add(in[i])
	}
	out.Scale(g.level)
}

// Mixer sums inputs. It's started after construction.
type Mixer struct {
	toggle
}

// NewMixer returns new mixer unit.
func NewMixer() *Mixer {
	m := &Mixer{}
	m.SetActive(true)
	return m
}

// Name implements audiograph.Unit.
func (*Mixer) Name() string {
	return "mixer"
}

// Render sums inputs into out.
func (m *Mixer) Render(_ float64, in []signal.Float64, out signal.Float64) {
	for i := range in {
		out.Add(in[i])
	}
}

// Silence produces no signal. It's started after construction.
type Silence struct {
	toggle
}

// NewSilence returns new silence unit.
func NewSilence() *Silence {
	s := &Silence{}
	s.SetActive(true)
	return s
}

// Name implements audiograph.Unit.
func (*Silence) Name() string {
	return "silence"
}

// Render leaves out zeroed.
func (*Silence) Render(float64, []signal.Float64, signal.Float64) {}
