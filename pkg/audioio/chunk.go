package audioio

import (
	"encoding/binary"
	"time"
)

// Chunk represents a chunk of audio data.
// Samples are interleaved per frame when Channels > 1.
type Chunk struct {
	// Samples contains PCM16 audio samples (little-endian on the wire).
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Bytes returns the raw little-endian bytes of the chunk.
func (c *Chunk) Bytes() []byte {
	buf := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// FromBytes populates the chunk from raw PCM16 little-endian bytes.
func (c *Chunk) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = make([]int16, len(data)/2)
	for i := range c.Samples {
		c.Samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
}

// Float32 returns the samples as floats in [-1, 1).
func (c *Chunk) Float32() []float32 {
	out := make([]float32, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// FromFloat32 builds a chunk by quantizing float samples in [-1, 1].
func FromFloat32(samples []float32, sampleRate, channels int) Chunk {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = quantize(s)
	}
	return Chunk{Samples: out, SampleRate: sampleRate, Channels: channels}
}

// Duration returns the playback duration of this chunk.
func (c *Chunk) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(float64(frames) / float64(c.SampleRate) * float64(time.Second))
}
