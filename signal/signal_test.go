package signal_test

import (
	"math"
	"testing"
	"time"

	"pipelined.dev/audiograph/signal"
	"github.com/stretchr/testify/assert"
)

func TestFloat64AsInterInt(t *testing.T) {
	tests := []struct {
		floats   [][]float64
		bitDepth signal.BitDepth
		expected []int
	}{
		{
			floats: [][]float64{
				{1, 1, 1, 1, 1, 1, 1, 1},
				{2, 2, 2, 2, 2, 2, 2, 2},
			},
			expected: []int{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2},
		},
		{
			floats: [][]float64{
				{1, 1, 1, 1, 1, 1, 1, 1},
				{2, 2, 2, 2, 2, 2},
			},
			expected: []int{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 0, 1, 0},
		},
		{
			floats: [][]float64{
				{1},
				{2},
			},
			bitDepth: signal.BitDepth16,
			expected: []int{1 * (math.MaxInt16 - 1), 2 * (math.MaxInt16 - 1)},
		},
		{
			floats:   nil,
			expected: nil,
		},
		{
			floats:   [][]float64{},
			expected: nil,
		},
		{
			floats: [][]float64{
				{},
				{},
			},
			expected: []int{},
		},
		{
			floats: [][]float64{
				{1},
				{2},
				{3},
				{4},
				{5},
			},
			expected: []int{1, 2, 3, 4, 5},
		},
	}

	for _, test := range tests {
		floats := signal.Float64(test.floats)
		ints := floats.AsInterInt(test.bitDepth)
		assert.Equal(t, len(test.expected), len(ints))
		for i := range test.expected {
			assert.Equal(t, test.expected[i], ints[i])
		}
	}
}

func TestInterleave(t *testing.T) {
	tests := []struct {
		floats   signal.Float64
		expected []float64
	}{
		{
			floats:   signal.Float64{{1, 3, 5}, {2, 4, 6}},
			expected: []float64{1, 2, 3, 4, 5, 6},
		},
		{
			floats:   signal.Float64{{1, 2, 3}},
			expected: []float64{1, 2, 3},
		},
		{
			floats:   nil,
			expected: []float64{},
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.floats.Interleave())
	}
}

func TestInterleaveFloat32(t *testing.T) {
	floats := signal.Float64{{0.5, 0.25}, {-0.5, -0.25}}
	out := make([]float32, 3)
	floats.InterleaveFloat32(out)
	assert.Equal(t, []float32{0.5, -0.5, 0.25}, out)
}

func TestAdd(t *testing.T) {
	floats := signal.Float64Buffer(2, 3)
	floats.Add(signal.Float64{{1, 1, 1}, {2, 2}})
	floats.Add(signal.Float64{{1, 1, 1, 1}})
	assert.Equal(t, signal.Float64{{2, 2, 2}, {2, 2, 0}}, floats)

	floats.Scale(0.5)
	assert.Equal(t, signal.Float64{{1, 1, 1}, {1, 1, 0}}, floats)

	floats.Clear()
	assert.Equal(t, signal.Float64Buffer(2, 3), floats)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(48000, 24000))
	assert.Equal(t, 4410, signal.SamplesOf(44100, 100*time.Millisecond))
	assert.Equal(t, 0, signal.SamplesOf(44100, 0))
}
