// Package wav writes rendered signal into wav files.
package wav

import (
	"errors"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/audiograph/signal"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")

// pcm is the wav audio format for integer samples.
const pcm = 1

// Writer encodes non-interleaved buffers.
type Writer struct {
	bitDepth signal.BitDepth
	encoder  *wav.Encoder
	buf      *audio.IntBuffer
	closer   io.Closer
}

// NewWriter returns writer which encodes into w.
func NewWriter(w io.WriteSeeker, sampleRate, numChannels int, bitDepth signal.BitDepth) (*Writer, error) {
	if bitDepth != signal.BitDepth16 && bitDepth != signal.BitDepth32 {
		return nil, ErrUnsupportedBitDepth
	}
	return &Writer{
		bitDepth: bitDepth,
		encoder:  wav.NewEncoder(w, sampleRate, int(bitDepth), numChannels, pcm),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: numChannels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Create creates the file and returns writer for it. File is closed
// with the writer.
func Create(path string, sampleRate, numChannels int, bitDepth signal.BitDepth) (*Writer, error) {
	if bitDepth != signal.BitDepth16 && bitDepth != signal.BitDepth32 {
		return nil, ErrUnsupportedBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, sampleRate, numChannels, bitDepth)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Write encodes the buffer.
func (w *Writer) Write(b signal.Float64) error {
	w.buf.Data = b.AsInterInt(w.bitDepth)
	return w.encoder.Write(w.buf)
}

// Close flushes encoder and closes the file if writer owns it.
func (w *Writer) Close() error {
	if err := w.encoder.Close(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
