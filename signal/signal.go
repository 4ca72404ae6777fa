// Package signal contains buffers exchanged by units and hosts. Buffers
// are non-interleaved, conversion helpers produce interleaved output
// for devices and encoders.
package signal

import (
	"math"
	"time"
)

// Float64 is a non-interleaved float64 signal.
type Float64 [][]float64

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth of integer samples.
type BitDepth int

// multiplier is the scale of float to int conversion.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate float64, samples int64) time.Duration {
	return time.Duration(float64(samples) / sampleRate * float64(time.Second))
}

// SamplesOf returns number of samples required to fill duration at this
// sample rate.
func SamplesOf(sampleRate float64, d time.Duration) int {
	return int(math.Round(d.Seconds() * sampleRate))
}

// AsInterInt converts float64 signal to interleaved int.
func (floats Float64) AsInterInt(bitDepth BitDepth) []int {
	var numChannels int
	if numChannels = len(floats); numChannels == 0 {
		return nil
	}

	multiplier := float64(bitDepth.multiplier())

	ints := make([]int, len(floats[0])*numChannels)

	for j := range floats {
		for i := range floats[j] {
			ints[i*numChannels+j] = int(floats[j][i] * multiplier)
		}
	}
	return ints
}

// Interleave returns interleaved copy of the signal.
func (floats Float64) Interleave() []float64 {
	numChannels := floats.NumChannels()
	result := make([]float64, floats.Size()*numChannels)
	for j := range floats {
		for i := range floats[j] {
			result[i*numChannels+j] = floats[j][i]
		}
	}
	return result
}

// InterleaveFloat32 writes interleaved signal into out. Samples that
// don't fit into out are dropped.
func (floats Float64) InterleaveFloat32(out []float32) {
	numChannels := floats.NumChannels()
	for j := range floats {
		for i := range floats[j] {
			if pos := i*numChannels + j; pos < len(out) {
				out[pos] = float32(floats[j][i])
			}
		}
	}
}

// Float64Buffer allocates silent buffer.
func Float64Buffer(numChannels int, bufferSize int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, bufferSize)
	}
	return result
}

// NumChannels returns number of channels.
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples per channel.
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Add sums source into the buffer. Channels and samples that don't
// exist in the buffer are ignored.
func (floats Float64) Add(source Float64) {
	for i := range floats {
		if i >= len(source) {
			return
		}
		for j := range floats[i] {
			if j >= len(source[i]) {
				break
			}
			floats[i][j] += source[i][j]
		}
	}
}

// Scale multiplies all samples by the factor.
func (floats Float64) Scale(factor float64) {
	for i := range floats {
		for j := range floats[i] {
			floats[i][j] *= factor
		}
	}
}

// Clear sets all samples to zero.
func (floats Float64) Clear() {
	for i := range floats {
		for j := range floats[i] {
			floats[i][j] = 0
		}
	}
}
