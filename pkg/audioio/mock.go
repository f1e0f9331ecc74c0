package audioio

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MockSource is a mock audio source for testing.
// It generates synthetic audio (silence or sine wave).
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan Chunk
	stopCh   chan struct{}

	chunksRead atomic.Int64

	// Synthetic audio generation
	phase     float64
	frequency float64 // Hz, 0 = silence
	amplitude float64 // 0.0 to 1.0
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave configures the mock to generate a sine wave.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// NewMockSource creates a new mock audio source.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MockSource{
		cfg:       cfg,
		logger:    logger,
		streamCh:  make(chan Chunk, 10),
		stopCh:    make(chan struct{}),
		frequency: 0, // Silence by default
		amplitude: 0.5,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start begins generating audio.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.running {
		return nil
	}

	m.running = true
	m.stopCh = make(chan struct{})
	m.streamCh = make(chan Chunk, 10)

	go m.generateLoop(ctx, m.stopCh, m.streamCh)

	m.logger.Debug("mock audio source started",
		"sample_rate", m.cfg.SampleRate,
		"frequency", m.frequency,
	)

	return nil
}

// generateLoop owns its stream channel: closing it here, not in Stop,
// means no send can race a close. Channels are passed in so a stopped
// and restarted source never crosses generations.
func (m *MockSource) generateLoop(ctx context.Context, stopCh chan struct{}, streamCh chan Chunk) {
	defer close(streamCh)

	ticker := time.NewTicker(m.cfg.FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			chunk := m.generateChunk()
			select {
			case streamCh <- chunk:
				m.chunksRead.Add(1)
			default:
				// Buffer full, drop chunk (overrun)
				m.logger.Debug("mock source: buffer full, dropping chunk")
			}
		}
	}
}

func (m *MockSource) generateChunk() Chunk {
	frameSize := m.cfg.FrameSize()
	samples := make([]int16, frameSize*m.cfg.Channels)

	if m.frequency > 0 {
		// Generate sine wave
		for i := 0; i < frameSize; i++ {
			sample := m.amplitude * math.Sin(2*math.Pi*m.frequency*m.phase/float64(m.cfg.SampleRate))
			sampleInt := int16(sample * 32767)

			for ch := 0; ch < m.cfg.Channels; ch++ {
				samples[i*m.cfg.Channels+ch] = sampleInt
			}

			m.phase++
			if m.phase >= float64(m.cfg.SampleRate) {
				m.phase = 0
			}
		}
	}
	// else: samples are already zero (silence)

	return Chunk{
		Samples:    samples,
		SampleRate: m.cfg.SampleRate,
		Channels:   m.cfg.Channels,
	}
}

// Stop halts audio generation.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	m.running = false
	close(m.stopCh)

	m.logger.Debug("mock audio source stopped")

	return nil
}

// Read reads the next audio chunk.
func (m *MockSource) Read(ctx context.Context) (Chunk, error) {
	select {
	case <-ctx.Done():
		return Chunk{}, ctx.Err()
	case chunk, ok := <-m.streamCh:
		if !ok {
			return Chunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Stream returns the audio chunk channel.
func (m *MockSource) Stream() <-chan Chunk {
	return m.streamCh
}

// Config returns the audio configuration.
func (m *MockSource) Config() Config {
	return m.cfg
}

// Name returns "mock".
func (m *MockSource) Name() string {
	return "mock"
}

// Close releases resources.
func (m *MockSource) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.Stop()
	return nil
}

// ChunksRead returns the number of chunks generated so far.
func (m *MockSource) ChunksRead() int64 {
	return m.chunksRead.Load()
}

// Ensure MockSource implements Source.
var _ Source = (*MockSource)(nil)

// MockSink is a mock audio sink for testing.
// It retains written chunks so tests can inspect them.
type MockSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	buffer  []Chunk

	chunksWritten atomic.Int64
	clears        atomic.Int64
}

// NewMockSink creates a new mock audio sink.
func NewMockSink(cfg Config, logger *slog.Logger) *MockSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &MockSink{
		cfg:    cfg,
		logger: logger,
		buffer: make([]Chunk, 0, 100),
	}
}

// Start begins accepting audio.
func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}

	m.running = true
	m.logger.Debug("mock audio sink started")

	return nil
}

// Stop halts audio acceptance.
func (m *MockSink) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false
	m.logger.Debug("mock audio sink stopped")

	return nil
}

// Write accepts an audio chunk.
func (m *MockSink) Write(ctx context.Context, chunk Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || !m.running {
		return io.ErrClosedPipe
	}

	m.buffer = append(m.buffer, chunk)
	m.chunksWritten.Add(1)

	return nil
}

// Clear discards buffered audio.
func (m *MockSink) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffer = m.buffer[:0]
	m.clears.Add(1)
	m.logger.Debug("mock audio sink cleared")

	return nil
}

// Config returns the audio configuration.
func (m *MockSink) Config() Config {
	return m.cfg
}

// Name returns "mock".
func (m *MockSink) Name() string {
	return "mock"
}

// Close releases resources.
func (m *MockSink) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.Stop()
	return nil
}

// Written returns a copy of the chunks written since the last Clear.
func (m *MockSink) Written() []Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Chunk, len(m.buffer))
	copy(out, m.buffer)
	return out
}

// ChunksWritten returns the total number of chunks written.
func (m *MockSink) ChunksWritten() int64 {
	return m.chunksWritten.Load()
}

// Clears returns how many times Clear was called.
func (m *MockSink) Clears() int64 {
	return m.clears.Load()
}

// Ensure MockSink implements Sink.
var _ Sink = (*MockSink)(nil)
