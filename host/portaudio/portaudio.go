// Package portaudio provides a host which plays the graph with default
// output device.
package portaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/host/offline"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/signal"
)

// DefaultBufferSize is used if buffer size is not positive.
const DefaultBufferSize = 512

// outputStream is the opened portaudio stream.
type outputStream interface {
	Start() error
	Stop() error
	Close() error
}

// Host keeps topology the same way offline host does and renders it in
// portaudio callback.
type Host struct {
	*offline.Host
	bufferSize int
	log        logrus.FieldLogger
	terminate  func() error

	mu     sync.Mutex
	stream outputStream
	buf    signal.Float64
}

// New returns new stopped host. Errors of Stop are reported to the
// logger, silent logger is used if it's nil.
func New(format audiograph.Format, bufferSize int, logger logrus.FieldLogger) *Host {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = log.Silent()
	}
	return &Host{
		Host:       offline.New(format),
		bufferSize: bufferSize,
		log:        logger,
		terminate:  portaudio.Terminate,
	}
}

// Start initializes portaudio and opens default output stream.
func (h *Host) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stream != nil {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio initialize: %w", err)
	}
	format := h.Format()
	h.buf = signal.Float64Buffer(format.Channels, h.bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, format.Channels, format.SampleRate, h.bufferSize, h.callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio open stream: %w", err)
	}
	// callback renders only while topology is running.
	h.Host.Start()
	if err := stream.Start(); err != nil {
		h.Host.Stop()
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio start stream: %w", err)
	}
	h.stream = stream
	return nil
}

// Stop stops the stream and terminates portaudio.
func (h *Host) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stream == nil {
		return
	}
	if err := h.close(); err != nil {
		h.log.WithError(err).Warn("portaudio: stop")
	}
	h.stream = nil
	h.Host.Stop()
}

// close stops and closes the stream and terminates portaudio. Every
// step is done even if previous one failed.
func (h *Host) close() error {
	var errs []error
	if err := h.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop stream: %w", err))
	}
	if err := h.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close stream: %w", err))
	}
	if err := h.terminate(); err != nil {
		errs = append(errs, fmt.Errorf("terminate: %w", err))
	}
	return errors.Join(errs...)
}

func (h *Host) callback(out []float32) {
	channels := h.buf.NumChannels()
	if frames := len(out) / channels; frames != h.buf.Size() {
		h.buf = signal.Float64Buffer(channels, frames)
	}
	if err := h.RenderInto(h.buf); err != nil {
		h.buf.Clear()
	}
	h.buf.InterleaveFloat32(out)
}
