package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoSource captures microphone audio through the miniaudio library.
// The system default capture device is used; per-device selection is
// handled by the OS mixer.
type MalgoSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	running  bool
	closed   bool
	streamCh chan Chunk
}

// NewMalgoSource creates a miniaudio-backed audio source.
func NewMalgoSource(cfg Config, logger *slog.Logger) (*MalgoSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audioio: init malgo context: %w", err)
	}

	return &MalgoSource{
		cfg:      cfg,
		logger:   logger,
		ctx:      mctx,
		streamCh: make(chan Chunk, 16),
	}, nil
}

// Start opens the capture device and begins delivering chunks.
func (s *MalgoSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(s.cfg.Channels)
	deviceConfig.SampleRate = uint32(s.cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(s.cfg.FrameSize())

	s.streamCh = make(chan Chunk, 16)
	streamCh := s.streamCh

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, frameCount uint32) {
			var chunk Chunk
			chunk.FromBytes(data, s.cfg.SampleRate, s.cfg.Channels)
			select {
			case streamCh <- chunk:
			default:
				// Consumer too slow; drop the frame rather than block
				// the device callback.
			}
		},
	}

	device, err := malgo.InitDevice(s.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("audioio: open capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("audioio: start capture device: %w", err)
	}

	s.device = device
	s.running = true

	s.logger.Info("capture device started",
		"backend", "malgo",
		"sample_rate", s.cfg.SampleRate,
		"channels", s.cfg.Channels,
	)

	return nil
}

// Stop halts capture and releases the device.
func (s *MalgoSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	if s.device != nil {
		s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}
	close(s.streamCh)

	s.logger.Info("capture device stopped", "backend", "malgo")

	return nil
}

// Read reads the next audio chunk.
func (s *MalgoSource) Read(ctx context.Context) (Chunk, error) {
	select {
	case <-ctx.Done():
		return Chunk{}, ctx.Err()
	case chunk, ok := <-s.streamCh:
		if !ok {
			return Chunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Stream returns the audio chunk channel.
func (s *MalgoSource) Stream() <-chan Chunk {
	return s.streamCh
}

// Config returns the audio configuration.
func (s *MalgoSource) Config() Config {
	return s.cfg
}

// Name returns "malgo".
func (s *MalgoSource) Name() string {
	return "malgo"
}

// Close releases the device and the miniaudio context.
func (s *MalgoSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		s.ctx.Uninit()
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}

var _ Source = (*MalgoSource)(nil)

// MalgoSink plays audio through the miniaudio library. Written chunks
// feed an internal byte queue drained by the device callback; underruns
// play silence.
type MalgoSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running bool
	closed  bool

	bufMu sync.Mutex
	buf   []byte
}

// NewMalgoSink creates a miniaudio-backed audio sink.
func NewMalgoSink(cfg Config, logger *slog.Logger) (*MalgoSink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audioio: init malgo context: %w", err)
	}

	return &MalgoSink{
		cfg:    cfg,
		logger: logger,
		ctx:    mctx,
	}, nil
}

// Start opens the playback device.
func (s *MalgoSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(s.cfg.Channels)
	deviceConfig.SampleRate = uint32(s.cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(s.cfg.FrameSize())

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			s.bufMu.Lock()
			n := copy(out, s.buf)
			s.buf = s.buf[n:]
			s.bufMu.Unlock()
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
		},
	}

	device, err := malgo.InitDevice(s.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("audioio: open playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("audioio: start playback device: %w", err)
	}

	s.device = device
	s.running = true

	s.logger.Info("playback device started",
		"backend", "malgo",
		"sample_rate", s.cfg.SampleRate,
		"channels", s.cfg.Channels,
	)

	return nil
}

// Stop halts playback and releases the device.
func (s *MalgoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	if s.device != nil {
		s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}

	s.bufMu.Lock()
	s.buf = nil
	s.bufMu.Unlock()

	s.logger.Info("playback device stopped", "backend", "malgo")

	return nil
}

// Write queues a chunk for playback.
func (s *MalgoSink) Write(ctx context.Context, chunk Chunk) error {
	s.mu.Lock()
	if s.closed || !s.running {
		s.mu.Unlock()
		return io.ErrClosedPipe
	}
	s.mu.Unlock()

	data := chunk.Bytes()
	s.bufMu.Lock()
	s.buf = append(s.buf, data...)
	s.bufMu.Unlock()

	return nil
}

// Clear discards all queued audio immediately.
func (s *MalgoSink) Clear() error {
	s.bufMu.Lock()
	s.buf = nil
	s.bufMu.Unlock()
	return nil
}

// Config returns the audio configuration.
func (s *MalgoSink) Config() Config {
	return s.cfg
}

// Name returns "malgo".
func (s *MalgoSink) Name() string {
	return "malgo"
}

// Close releases the device and the miniaudio context.
func (s *MalgoSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		s.ctx.Uninit()
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}

var _ Sink = (*MalgoSink)(nil)
