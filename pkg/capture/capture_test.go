package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Iggysmallz/houseofmeraal/pkg/audioio"
)

type recordingSender struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (r *recordingSender) SendAudio(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, data)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recordingSender) frame(i int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[i]
}

func testSourceConfig() audioio.Config {
	cfg := audioio.CaptureConfig()
	cfg.FrameDuration = 5 * time.Millisecond
	return cfg
}

func TestPipeline_PumpsEncodedFrames(t *testing.T) {
	source := audioio.NewMockSource(testSourceConfig(), nil,
		audioio.WithSineWave(440, 0.5))
	sender := &recordingSender{}
	p := NewPipeline(source, sender, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for sender.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out; only %d frames sent", sender.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	srcCfg := source.Config()
	wantBytes := srcCfg.FrameBytes()
	if got := len(sender.frame(0)); got != wantBytes {
		t.Errorf("frame size: got %d bytes, want %d", got, wantBytes)
	}

	// A sine frame must not be all zeros.
	allZero := true
	for _, b := range sender.frame(0) {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Error("expected non-silent encoded frame")
	}
}

func TestPipeline_StopIdempotent(t *testing.T) {
	source := audioio.NewMockSource(testSourceConfig(), nil)
	p := NewPipeline(source, &recordingSender{}, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if p.Running() {
		t.Error("pipeline still reports running after Stop")
	}
}

func TestPipeline_StartTwiceNoOp(t *testing.T) {
	source := audioio.NewMockSource(testSourceConfig(), nil)
	p := NewPipeline(source, &recordingSender{}, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
}

func TestPipeline_SendFailureEndsPump(t *testing.T) {
	source := audioio.NewMockSource(testSourceConfig(), nil)
	sender := &recordingSender{err: errors.New("session closed")}
	p := NewPipeline(source, sender, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	time.Sleep(50 * time.Millisecond)
	if sender.count() != 0 {
		t.Errorf("frames recorded despite send errors: %d", sender.count())
	}
}
