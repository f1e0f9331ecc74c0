package audioio

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// EncodeFloat32 quantizes float samples in [-1, 1] to 16-bit signed
// integers (multiply by 32768, truncate) and serializes them
// little-endian. This is the outbound half of the wire codec;
// DecodeFloat32 is its near-inverse with a per-sample round-trip error
// of at most one quantization step (1/32768).
func EncodeFloat32(samples []float32) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(quantize(s)))
	}
	return buf
}

// DecodeFloat32 deserializes little-endian PCM16 bytes into float
// samples, dividing each integer by 32768.
func DecodeFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples
}

func quantize(s float32) int16 {
	v := int32(s * 32768)
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// PCMMimeType returns the mime tag for raw PCM16 at the given rate,
// e.g. "audio/pcm;rate=16000".
func PCMMimeType(rate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", rate)
}

// PCMRate extracts the sample rate from a PCM mime tag. The second
// return value is false when the tag is not PCM or carries no usable
// rate parameter.
func PCMRate(mimeType string) (int, bool) {
	base, params, _ := strings.Cut(mimeType, ";")
	if strings.TrimSpace(base) != "audio/pcm" {
		return 0, false
	}
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || k != "rate" {
			continue
		}
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return 0, false
		}
		return rate, true
	}
	return 0, false
}
