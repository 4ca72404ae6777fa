// Package mock provides a host which records topology calls and allows
// to inject errors into them.
package mock

import (
	"fmt"
	"strings"

	"pipelined.dev/audiograph"
)

// Unit is a named unit with start switch.
type Unit struct {
	name   string
	active bool
}

// NewUnit returns new started unit.
func NewUnit(name string) *Unit {
	return &Unit{
		name:   name,
		active: true,
	}
}

// Name implements audiograph.Unit.
func (u *Unit) Name() string {
	return u.name
}

// SetActive implements unit.Switch.
func (u *Unit) SetActive(v bool) {
	u.active = v
}

// Active implements unit.Switch.
func (u *Unit) Active() bool {
	return u.active
}

// Host records every call with unit names:
//
//	attach osc
//	connect osc->mixer:0
//	disconnect mixer:0
//	detach osc
//	start
//	stop
//
// Errors are returned for calls which have a matching entry in Errors.
// Failed calls are recorded as well.
type Host struct {
	Calls []string
	// Errors maps call record to error it returns.
	Errors map[string]error
	// ErrorOnStart is returned by Start.
	ErrorOnStart error
	Starts       int
	Stops        int

	output  *Unit
	running bool
}

// NewHost returns a stopped host.
func NewHost() *Host {
	return &Host{
		Errors: make(map[string]error),
		output: NewUnit("output"),
	}
}

// Fail sets error for the call record.
func (h *Host) Fail(call string, err error) {
	h.Errors[call] = err
}

// Reset clears recorded calls and errors.
func (h *Host) Reset() {
	h.Calls = nil
	h.Errors = make(map[string]error)
	h.ErrorOnStart = nil
}

// Log returns recorded calls, one per line.
func (h *Host) Log() string {
	if len(h.Calls) == 0 {
		return ""
	}
	return strings.Join(h.Calls, "\n") + "\n"
}

func (h *Host) record(call string) error {
	h.Calls = append(h.Calls, call)
	return h.Errors[call]
}

// Attach implements audiograph.Host.
func (h *Host) Attach(u audiograph.Unit) error {
	return h.record("attach " + u.Name())
}

// Detach implements audiograph.Host.
func (h *Host) Detach(u audiograph.Unit) error {
	return h.record("detach " + u.Name())
}

// Connect implements audiograph.Host.
func (h *Host) Connect(source, destination audiograph.Unit, bus int, _ audiograph.Format) error {
	return h.record(fmt.Sprintf("connect %s->%s:%d", source.Name(), destination.Name(), bus))
}

// Disconnect implements audiograph.Host.
func (h *Host) Disconnect(destination audiograph.Unit, bus int) error {
	return h.record(fmt.Sprintf("disconnect %s:%d", destination.Name(), bus))
}

// OutputUnit implements audiograph.Host.
func (h *Host) OutputUnit() audiograph.Unit {
	return h.output
}

// Start implements audiograph.Host.
func (h *Host) Start() error {
	h.Calls = append(h.Calls, "start")
	if h.ErrorOnStart != nil {
		return h.ErrorOnStart
	}
	h.running = true
	h.Starts++
	return nil
}

// Stop implements audiograph.Host.
func (h *Host) Stop() {
	h.Calls = append(h.Calls, "stop")
	if h.running {
		h.Stops++
	}
	h.running = false
}

// IsRunning implements audiograph.Host.
func (h *Host) IsRunning() bool {
	return h.running
}
