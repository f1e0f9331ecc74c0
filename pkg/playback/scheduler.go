// Package playback schedules decoded model audio for gapless output.
// Chunks arrive in bursts from the network; each one is assigned a
// start time flush against the end of the previous chunk so the sink
// receives a continuous stream, and an interruption flush discards
// everything not yet handed over.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Iggysmallz/houseofmeraal/pkg/audioio"
)

// ErrSchedulerClosed is returned when enqueueing after Close.
var ErrSchedulerClosed = errors.New("playback: scheduler closed")

// Segment is one scheduled chunk of model audio.
type Segment struct {
	Chunk audioio.Chunk
	Start time.Time
	End   time.Time
}

// Scheduler lines up audio chunks back to back on a shared timeline.
// The invariant is that segments never overlap: each chunk starts at
// the later of now and the previous chunk's end.
type Scheduler struct {
	sink   audioio.Sink
	clock  Clock
	logger *slog.Logger

	mu        sync.Mutex
	nextStart time.Time
	pending   map[*Segment]Timer
	closed    bool
}

// NewScheduler creates a scheduler writing to sink. A nil clock means
// wall time; a nil logger means slog.Default().
func NewScheduler(sink audioio.Sink, clock Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = NewClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sink:    sink,
		clock:   clock,
		logger:  logger,
		pending: make(map[*Segment]Timer),
	}
}

// Enqueue schedules one chunk. It returns the segment with its
// assigned start and end times.
func (s *Scheduler) Enqueue(chunk audioio.Chunk) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSchedulerClosed
	}

	now := s.clock.Now()
	start := s.nextStart
	if start.Before(now) {
		start = now
	}

	seg := &Segment{
		Chunk: chunk,
		Start: start,
		End:   start.Add(chunk.Duration()),
	}
	s.nextStart = seg.End

	s.pending[seg] = s.clock.AfterFunc(start.Sub(now), func() {
		s.release(seg)
	})

	return seg, nil
}

// release hands a segment to the sink at its scheduled start.
func (s *Scheduler) release(seg *Segment) {
	s.mu.Lock()
	if _, ok := s.pending[seg]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, seg)
	s.mu.Unlock()

	if err := s.sink.Write(context.Background(), seg.Chunk); err != nil {
		s.logger.Warn("playback write failed", "error", err)
	}
}

// Flush cancels every pending segment, clears the sink's buffered
// audio, and resets the timeline to now. Used on interruption.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	dropped := len(s.pending)
	for seg, timer := range s.pending {
		timer.Stop()
		delete(s.pending, seg)
	}
	s.nextStart = s.clock.Now()
	s.mu.Unlock()

	if err := s.sink.Clear(); err != nil {
		s.logger.Warn("playback clear failed", "error", err)
	}
	if dropped > 0 {
		s.logger.Debug("playback flushed", "dropped_segments", dropped)
	}
}

// Pending returns the number of segments not yet released to the sink.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Idle reports whether the timeline has fully drained: nothing pending
// and the last scheduled segment has ended.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) == 0 && !s.clock.Now().Before(s.nextStart)
}

// Close flushes and rejects further enqueues.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Flush()
}
