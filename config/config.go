// Package config describes graphs in TOML or YAML files.
//
// A graph file lists processing nodes and mixers by name and refers to
// inputs by those names:
//
//	output = "main"
//
//	[format]
//	sample_rate = 44100
//	channels = 2
//
//	[[node]]
//	name = "osc"
//	unit = "sine"
//	frequency = 440
//	amplitude = 0.5
//
//	[[mixer]]
//	name = "main"
//	inputs = ["osc"]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/unit"
)

var (
	// ErrUnknownFormat is returned for files with unsupported extension.
	ErrUnknownFormat = errors.New("unknown config format")
	// ErrDuplicateName is returned when two nodes share a name.
	ErrDuplicateName = errors.New("duplicate node name")
	// ErrUnknownNode is returned when input or output refers to
	// undefined node.
	ErrUnknownNode = errors.New("unknown node")
)

var validate = validator.New()

type (
	// Config is the graph description.
	Config struct {
		Format FormatConfig  `toml:"format" yaml:"format"`
		Nodes  []NodeConfig  `toml:"node" yaml:"nodes" validate:"dive"`
		Mixers []MixerConfig `toml:"mixer" yaml:"mixers" validate:"dive"`
		Output string        `toml:"output" yaml:"output" validate:"required"`
	}

	// FormatConfig is the format of the context graph is built with.
	FormatConfig struct {
		SampleRate float64 `toml:"sample_rate" yaml:"sample_rate" validate:"gt=0"`
		Channels   int     `toml:"channels" yaml:"channels" validate:"min=1,max=8"`
	}

	// NodeConfig describes processing node.
	NodeConfig struct {
		Name      string   `toml:"name" yaml:"name" validate:"required"`
		Unit      string   `toml:"unit" yaml:"unit" validate:"required,oneof=sine gain silence"`
		Frequency float64  `toml:"frequency" yaml:"frequency" validate:"gte=0"`
		Amplitude float64  `toml:"amplitude" yaml:"amplitude" validate:"gte=0,lte=1"`
		Level     float64  `toml:"level" yaml:"level" validate:"gte=0"`
		Inputs    []string `toml:"inputs" yaml:"inputs"`
		// Started defaults to true.
		Started *bool `toml:"started" yaml:"started"`
	}

	// MixerConfig describes mixer.
	MixerConfig struct {
		Name   string   `toml:"name" yaml:"name" validate:"required"`
		Inputs []string `toml:"inputs" yaml:"inputs"`
	}

	// Graph is the built graph.
	Graph struct {
		Nodes  map[string]audiograph.Node
		Output audiograph.Node
	}
)

// Format returns the context format.
func (f FormatConfig) Format() audiograph.Format {
	return audiograph.Format{
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
	}
}

// Load reads and validates config file. Format is chosen by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode parses and validates config. Ext is one of .toml, .yaml or
// .yml. Missing format is set to the default one.
func Decode(data []byte, ext string) (*Config, error) {
	var c Config
	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&c)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys: %v", undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if c.Format == (FormatConfig{}) {
		c.Format = FormatConfig{
			SampleRate: audiograph.DefaultFormat.SampleRate,
			Channels:   audiograph.DefaultFormat.Channels,
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field values, name uniqueness and references.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	inputs := make(map[string][]string, len(c.Nodes)+len(c.Mixers))
	for _, n := range c.Nodes {
		if _, ok := inputs[n.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateName, n.Name)
		}
		inputs[n.Name] = n.Inputs
	}
	for _, m := range c.Mixers {
		if _, ok := inputs[m.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateName, m.Name)
		}
		inputs[m.Name] = m.Inputs
	}
	for name, in := range inputs {
		for _, i := range in {
			if _, ok := inputs[i]; !ok {
				return fmt.Errorf("%w: %s input %s", ErrUnknownNode, name, i)
			}
		}
	}
	if _, ok := inputs[c.Output]; !ok {
		return fmt.Errorf("%w: output %s", ErrUnknownNode, c.Output)
	}
	return nil
}

// Build creates nodes of the config with provided context. Nodes are
// inert until output is assigned to an engine.
func (c *Config) Build(ctx *audiograph.Context) (*Graph, error) {
	nodes := make(map[string]NodeConfig, len(c.Nodes))
	for _, n := range c.Nodes {
		nodes[n.Name] = n
	}
	mixers := make(map[string]MixerConfig, len(c.Mixers))
	for _, m := range c.Mixers {
		mixers[m.Name] = m
	}

	g := &Graph{
		Nodes: make(map[string]audiograph.Node, len(nodes)+len(mixers)),
	}
	building := make(map[string]struct{})
	var build func(name string) (audiograph.Node, error)
	build = func(name string) (audiograph.Node, error) {
		if n, ok := g.Nodes[name]; ok {
			return n, nil
		}
		if _, ok := building[name]; ok {
			return nil, fmt.Errorf("%s: %w", name, audiograph.ErrCycle)
		}
		building[name] = struct{}{}
		defer delete(building, name)

		var names []string
		if m, ok := mixers[name]; ok {
			names = m.Inputs
		} else if n, ok := nodes[name]; ok {
			names = n.Inputs
		} else {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
		}
		inputs := make([]audiograph.Node, 0, len(names))
		for _, in := range names {
			node, err := build(in)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, node)
		}

		var result audiograph.Node
		if _, ok := mixers[name]; ok {
			result = audiograph.NewMixer(ctx, inputs...)
		} else {
			p := audiograph.NewProcessor(ctx, newUnit(nodes[name]), inputs...)
			if cfg := nodes[name]; cfg.Started == nil || *cfg.Started {
				p.Start()
			} else {
				p.Stop()
			}
			result = p
		}
		g.Nodes[name] = result
		return result, nil
	}

	for _, n := range c.Nodes {
		if _, err := build(n.Name); err != nil {
			return nil, err
		}
	}
	for _, m := range c.Mixers {
		if _, err := build(m.Name); err != nil {
			return nil, err
		}
	}
	output, ok := g.Nodes[c.Output]
	if !ok {
		return nil, fmt.Errorf("%w: output %s", ErrUnknownNode, c.Output)
	}
	g.Output = output
	return g, nil
}

func newUnit(c NodeConfig) audiograph.Unit {
	switch c.Unit {
	case "sine":
		return unit.NewSine(c.Frequency, c.Amplitude)
	case "gain":
		return unit.NewGain(c.Level)
	default:
		return unit.NewSilence()
	}
}
