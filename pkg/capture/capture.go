// Package capture pumps microphone audio into a live session. It owns
// the source lifecycle: starting it, draining its stream, encoding
// each chunk to wire PCM16, and handing the bytes to a sender.
package capture

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Iggysmallz/houseofmeraal/pkg/audioio"
)

// Sender receives encoded PCM16 frames. Satisfied by live.Connection.
type Sender interface {
	SendAudio(data []byte) error
}

// Pipeline streams capture frames from a source to a sender.
type Pipeline struct {
	source audioio.Source
	sender Sender
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewPipeline wires a source to a sender. A nil logger means
// slog.Default().
func NewPipeline(source audioio.Source, sender Sender, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source: source,
		sender: sender,
		logger: logger,
	}
}

// Start opens the source and begins pumping frames. Calling Start on a
// running pipeline is a no-op.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.done = make(chan struct{})
	p.mu.Unlock()

	if err := p.source.Start(ctx); err != nil {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return err
	}

	go p.pump(p.done)

	p.logger.Debug("capture pipeline started",
		"device", p.source.Name(),
		"sample_rate", p.source.Config().SampleRate,
	)
	return nil
}

func (p *Pipeline) pump(done chan struct{}) {
	defer close(done)

	for chunk := range p.source.Stream() {
		data := audioio.EncodeFloat32(chunk.Float32())
		if err := p.sender.SendAudio(data); err != nil {
			// A full pre-open queue or a closed session ends capture;
			// the controller decides whether to surface it.
			p.logger.Warn("capture send failed", "error", err)
			return
		}
	}
}

// Stop halts capture and waits for the pump to exit. Idempotent.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	done := p.done
	p.mu.Unlock()

	err := p.source.Stop()
	if done != nil {
		<-done
	}

	p.logger.Debug("capture pipeline stopped")
	return err
}

// Running reports whether the pipeline is pumping frames.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
