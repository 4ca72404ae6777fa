package audiograph

import (
	"fmt"

	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/metric"
	"pipelined.dev/audiograph/unit"
)

// Format describes the signal produced by node.
type Format struct {
	SampleRate float64
	Channels   int
}

// DefaultFormat is used by context if no format option provided.
var DefaultFormat = Format{
	SampleRate: 44100,
	Channels:   2,
}

// Validate returns ErrInvalidFormat if sample rate or channels are not
// positive.
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels < 1 {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, f)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%vHz/%dch", f.SampleRate, f.Channels)
}

// Logger is a global interface for graph loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

// Context holds the state shared by nodes and engines: current format,
// logger, metrics and mixer unit allocator. Nodes and engines are
// created with explicit context.
type Context struct {
	format  Format
	log     Logger
	metric  *metric.Metric
	mixerFn func() Unit
}

// Option provides a way to set functional parameters to context.
type Option func(c *Context) error

// NewContext creates a new context and applies provided options.
func NewContext(options ...Option) (*Context, error) {
	c := &Context{
		format: DefaultFormat,
		log:    log.Silent(),
		mixerFn: func() Unit {
			return unit.NewMixer()
		},
	}
	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithFormat sets initial format.
func WithFormat(f Format) Option {
	return func(c *Context) error {
		if err := f.Validate(); err != nil {
			return err
		}
		c.format = f
		return nil
	}
}

// WithLogger sets logger to context. If this option is not provided,
// silent logger is used.
func WithLogger(logger Logger) Option {
	return func(c *Context) error {
		c.log = logger
		return nil
	}
}

// WithMetric enables metrics for engines of this context.
func WithMetric(m *metric.Metric) Option {
	return func(c *Context) error {
		c.metric = m
		return nil
	}
}

// WithMixerUnit sets allocator of units used by mixers.
func WithMixerUnit(fn func() Unit) Option {
	return func(c *Context) error {
		c.mixerFn = fn
		return nil
	}
}

// Format returns current format.
func (c *Context) Format() Format {
	return c.format
}

// SetFormat changes the format. It only affects nodes created or
// attached after the change.
func (c *Context) SetFormat(f Format) error {
	if err := f.Validate(); err != nil {
		return err
	}
	c.log.Debug("format: ", c.format, " -> ", f)
	c.format = f
	return nil
}
