// Package session is the composition root of the voice assistant. The
// Controller wires capture, the live connection, playback scheduling,
// transcription, and the chat history together, and exposes the
// external API: StartLive, StopLive, SendText.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Iggysmallz/houseofmeraal/pkg/audioio"
	"github.com/Iggysmallz/houseofmeraal/pkg/capture"
	"github.com/Iggysmallz/houseofmeraal/pkg/chat"
	"github.com/Iggysmallz/houseofmeraal/pkg/inference"
	"github.com/Iggysmallz/houseofmeraal/pkg/live"
	"github.com/Iggysmallz/houseofmeraal/pkg/playback"
	"github.com/Iggysmallz/houseofmeraal/pkg/transcript"
)

// LiveConn is the slice of live.Connection the controller drives.
type LiveConn interface {
	Connect(ctx context.Context) error
	SendAudio(data []byte) error
	SendText(text string) error
	Close() error
	Events() <-chan live.Event
}

// Controller owns at most one live session at a time and the chat
// history both the voice and text paths write into.
type Controller struct {
	cfg      Config
	logger   *slog.Logger
	history  *chat.History
	provider inference.Provider

	mu         sync.Mutex
	generation uint64
	starting   bool
	sess       *liveSession
	lastErr    *SessionError

	errCh chan *SessionError
}

// liveSession bundles the per-session resources so teardown releases
// them exactly once.
type liveSession struct {
	gen      uint64
	conn     LiveConn
	pipeline *capture.Pipeline
	sched    *playback.Scheduler
	source   audioio.Source
	sink     audioio.Sink
	agg      *transcript.Aggregator

	msgMu      sync.Mutex
	modelMsgID string

	stopOnce sync.Once
	done     chan struct{}
}

// NewController builds a controller. The initial message, when
// configured, becomes the first model message of the history.
func NewController(cfg Config, logger *slog.Logger) (*Controller, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	provider := cfg.Provider
	if provider == nil && cfg.APIKey != "" {
		var err error
		provider, err = inference.NewGemini(
			inference.WithAPIKey(cfg.APIKey),
			inference.WithModel(cfg.TextModel),
			inference.WithSystemInstruction(cfg.SystemInstruction),
			inference.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("session: building text provider: %w", err)
		}
	}

	c := &Controller{
		cfg:      cfg,
		logger:   logger,
		history:  chat.NewHistory(),
		provider: provider,
		errCh:    make(chan *SessionError, 8),
	}

	if cfg.InitialMessage != "" {
		c.history.Append(chat.RoleModel, cfg.InitialMessage, false)
	}

	return c, nil
}

// History returns the shared chat history.
func (c *Controller) History() *chat.History {
	return c.history
}

// Errors returns the error banner channel. Slow consumers lose old
// banners, never new ones.
func (c *Controller) Errors() <-chan *SessionError {
	return c.errCh
}

// LastError returns the most recent error, or nil.
func (c *Controller) LastError() *SessionError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError dismisses the current error banner.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

// Active reports whether a live session is up.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// StartLive begins a duplex voice session. Calling it while a session
// is active is a no-op. A placeholder streaming model message appears
// immediately; on failure its text is replaced with the error so it is
// never left hanging.
func (c *Controller) StartLive(ctx context.Context) error {
	// Claim the session slot before building anything so a concurrent
	// StartLive cannot construct a second set of devices and leak the
	// first. The claim is released on failure or replaced by the
	// session itself on success.
	c.mu.Lock()
	if c.sess != nil || c.starting {
		c.mu.Unlock()
		c.logger.Debug("live session already active")
		return nil
	}
	c.starting = true
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	placeholderID := c.history.Append(chat.RoleModel, listeningText, true)

	fail := func(serr *SessionError) error {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		c.history.Update(placeholderID, func(m *chat.Message) {
			m.Text = "Error: " + serr.Message
			m.Streaming = false
		})
		c.reportError(serr)
		return serr
	}

	if c.cfg.APIKey == "" {
		return fail(&SessionError{
			Kind:    KindCredential,
			Message: "no API key configured",
		})
	}

	captureCfg := audioio.CaptureConfig()
	captureCfg.Backend = c.cfg.AudioBackend
	source, err := c.cfg.NewSource(captureCfg, c.logger)
	if err != nil {
		return fail(newSessionError(KindDevice, false, err))
	}

	playbackCfg := audioio.PlaybackConfig()
	playbackCfg.Backend = c.cfg.AudioBackend
	sink, err := c.cfg.NewSink(playbackCfg, c.logger)
	if err != nil {
		source.Close()
		return fail(newSessionError(KindDevice, false, err))
	}
	if err := sink.Start(ctx); err != nil {
		source.Close()
		sink.Close()
		return fail(newSessionError(KindDevice, false, err))
	}

	liveCfg := live.DefaultConfig()
	liveCfg.APIKey = c.cfg.APIKey
	liveCfg.Model = c.cfg.LiveModel
	liveCfg.Voice = c.cfg.Voice
	liveCfg.SystemInstruction = c.cfg.SystemInstruction

	conn, err := c.cfg.NewConn(liveCfg, c.logger)
	if err != nil {
		source.Close()
		sink.Close()
		kind := KindProtocol
		if errors.Is(err, live.ErrMissingAPIKey) {
			kind = KindCredential
		}
		return fail(newSessionError(kind, false, err))
	}

	s := &liveSession{
		gen:        gen,
		conn:       conn,
		pipeline:   capture.NewPipeline(source, conn, c.logger),
		sched:      playback.NewScheduler(sink, c.cfg.Clock, c.logger),
		source:     source,
		sink:       sink,
		agg:        transcript.NewAggregator(),
		modelMsgID: placeholderID,
		done:       make(chan struct{}),
	}

	c.mu.Lock()
	c.sess = s
	c.starting = false
	c.mu.Unlock()

	if err := s.conn.Connect(ctx); err != nil {
		c.teardown(s)
		return fail(newSessionError(KindNetwork, false, err))
	}

	go c.eventLoop(s)

	c.logger.Info("live session starting", "model", c.cfg.LiveModel, "voice", c.cfg.Voice)
	return nil
}

// StopLive tears the live session down. Idempotent; a no-op when no
// session is active. Once it returns, events from the old session are
// discarded.
func (c *Controller) StopLive() {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return
	}

	c.teardown(s)
	c.freezeStreaming(s)
	c.logger.Info("live session stopped")
}

// teardown releases a session's resources exactly once and detaches
// it from the controller so later events are discarded.
func (c *Controller) teardown(s *liveSession) {
	s.stopOnce.Do(func() {
		c.mu.Lock()
		if c.sess == s {
			c.sess = nil
		}
		c.mu.Unlock()

		if err := s.pipeline.Stop(); err != nil {
			c.logger.Warn("stopping capture", "error", err)
		}
		if err := s.conn.Close(); err != nil {
			c.logger.Warn("closing connection", "error", err)
		}
		s.sched.Close()
		if err := s.sink.Close(); err != nil {
			c.logger.Warn("closing sink", "error", err)
		}
		if err := s.source.Close(); err != nil {
			c.logger.Warn("closing source", "error", err)
		}
	})
}

// freezeStreaming finalizes a dangling streaming message at teardown.
func (c *Controller) freezeStreaming(s *liveSession) {
	s.msgMu.Lock()
	id := s.modelMsgID
	s.modelMsgID = ""
	s.msgMu.Unlock()
	if id != "" {
		c.history.Freeze(id)
	}
}

// current reports whether s is still the controller's active session.
func (c *Controller) current(s *liveSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess == s
}

// eventLoop consumes the connection's ordered event stream until it
// closes. Events arriving after teardown are discarded.
func (c *Controller) eventLoop(s *liveSession) {
	defer close(s.done)

	for ev := range s.conn.Events() {
		if !c.current(s) {
			continue
		}
		switch ev.Type {
		case live.EventOpen:
			if err := s.pipeline.Start(context.Background()); err != nil {
				c.failLive(s, newSessionError(KindDevice, false, err))
			}

		case live.EventAudio:
			samples := audioio.DecodeFloat32(ev.Data)
			chunk := audioio.FromFloat32(samples, ev.SampleRate, 1)
			if _, err := s.sched.Enqueue(chunk); err != nil {
				c.logger.Debug("dropping audio chunk", "error", err)
			}

		case live.EventTranscript:
			c.applyTranscript(s, ev)

		case live.EventInterrupted:
			s.sched.Flush()
			s.agg.ResetModel()
			c.logger.Debug("model turn interrupted; playback flushed")

		case live.EventTurnComplete:
			s.agg.Reset()
			s.msgMu.Lock()
			id := s.modelMsgID
			s.modelMsgID = ""
			s.msgMu.Unlock()
			if id != "" {
				c.history.Freeze(id)
			}

		case live.EventError:
			c.failLive(s, newSessionError(KindNetwork, false, ev.Err))

		case live.EventClosed:
			c.logger.Debug("live connection closed")
		}
	}
}

// applyTranscript reflects a transcription delta into the history.
// Model deltas accumulate and rewrite the streaming message in place;
// a fresh streaming message is created lazily after each turn.
func (c *Controller) applyTranscript(s *liveSession, ev live.Event) {
	if ev.Source == live.TranscriptInput {
		s.agg.AddUser(ev.Text)
		return
	}

	text := s.agg.AddModel(ev.Text)

	s.msgMu.Lock()
	id := s.modelMsgID
	if id == "" {
		id = c.history.Append(chat.RoleModel, text, true)
		s.modelMsgID = id
		s.msgMu.Unlock()
		return
	}
	s.msgMu.Unlock()

	c.history.SetText(id, text)
}

// failLive surfaces a mid-session failure in-band and as a structured
// error, then tears the session down. An in-progress streaming message
// is overwritten rather than left hanging.
func (c *Controller) failLive(s *liveSession, serr *SessionError) {
	c.reportError(serr)

	text := "Oops! Something went wrong with the voice assistant: " + serr.Message

	s.msgMu.Lock()
	id := s.modelMsgID
	s.modelMsgID = ""
	s.msgMu.Unlock()

	if id != "" {
		c.history.Update(id, func(m *chat.Message) {
			m.Text = text
			m.Streaming = false
		})
	} else {
		c.history.Append(chat.RoleModel, text, false)
	}

	c.teardown(s)
}

// SendText runs a single-turn, non-live exchange: append the user
// message, ask the provider, append the reply. Failures land in the
// history as a model message as well as in the error banner. Empty
// input after trimming is a no-op.
func (c *Controller) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	history := c.frozenTurns()
	c.history.Append(chat.RoleUser, text, false)

	if c.provider == nil {
		serr := &SessionError{Kind: KindCredential, Message: "no API key configured"}
		c.history.Append(chat.RoleModel, "Error: "+serr.Message, false)
		c.reportError(serr)
		return serr
	}

	resp, err := c.provider.Generate(ctx, &inference.Request{
		History: history,
		Prompt:  text,
	})
	if err != nil {
		serr := newSessionError(KindNetwork, true, err)
		c.history.Append(chat.RoleModel, "Error: "+serr.Message, false)
		c.reportError(serr)
		return serr
	}

	c.history.Append(chat.RoleModel, resp.Text, false)
	return nil
}

// frozenTurns converts completed history messages to provider turns.
func (c *Controller) frozenTurns() []inference.Turn {
	msgs := c.history.Messages()
	turns := make([]inference.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Streaming || m.Text == "" {
			continue
		}
		role := inference.RoleUser
		if m.Role == chat.RoleModel {
			role = inference.RoleModel
		}
		turns = append(turns, inference.Turn{Role: role, Text: m.Text})
	}
	return turns
}

func (c *Controller) reportError(serr *SessionError) {
	c.mu.Lock()
	c.lastErr = serr
	c.mu.Unlock()

	c.logger.Error("session error",
		"kind", serr.Kind,
		"recoverable", serr.Recoverable,
		"message", serr.Message,
	)

	for {
		select {
		case c.errCh <- serr:
			return
		default:
			select {
			case <-c.errCh:
			default:
			}
		}
	}
}

// Close stops any live session and releases the text provider.
func (c *Controller) Close() error {
	c.StopLive()
	if c.provider != nil {
		return c.provider.Close()
	}
	return nil
}
