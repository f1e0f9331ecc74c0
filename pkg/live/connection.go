// Package live implements the bidirectional session against the
// Gemini Live API (BidiGenerateContent over WebSocket). It owns the
// connection lifecycle state machine and delivers inbound traffic as
// tagged events on a single ordered channel.
package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Iggysmallz/houseofmeraal/pkg/audioio"
)

const dialHandshakeTimeout = 10 * time.Second

// Connection is a single live session. Lifecycle:
//
//	Idle -> Connecting -> Open -> Closing -> Closed
//
// with Error reachable from Connecting and Open. Sends issued while
// Connecting land in a bounded FIFO queue and are flushed, in order,
// the moment the remote acknowledges setup.
type Connection struct {
	cfg    Config
	logger *slog.Logger

	mu           sync.Mutex
	state        State
	ws           *websocket.Conn
	errCause     error
	interrupted  bool
	connectTimer *time.Timer

	// wsMu serializes data writes; it is held across the open-drain so
	// sends issued right after the Open transition cannot overtake
	// queued ones.
	wsMu sync.Mutex

	queue  *sendQueue
	events chan Event
}

// NewConnection creates an unconnected live session.
// Fails with ErrMissingAPIKey when no credential is configured.
func NewConnection(cfg Config, logger *slog.Logger) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Connection{
		cfg:    cfg,
		logger: logger,
		queue:  newSendQueue(cfg.SendQueueSize),
		events: make(chan Event, cfg.EventBuffer),
	}, nil
}

// Events returns the ordered inbound event channel. It is closed once
// the connection reaches a terminal state and no more events follow.
func (c *Connection) Events() <-chan Event {
	return c.events
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Interrupted reports whether the current model turn was interrupted.
// The flag clears on the next turn boundary.
func (c *Connection) Interrupted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interrupted
}

// Connect dials the endpoint and sends the session setup. The Open
// transition happens asynchronously when the remote acknowledges; it
// is reported as EventOpen. Connect may only be called once.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = StateConnecting
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: dialHandshakeTimeout}
	url := fmt.Sprintf("%s?key=%s", c.cfg.Endpoint, c.cfg.APIKey)

	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateError
		c.errCause = err
		c.mu.Unlock()
		close(c.events)
		return fmt.Errorf("live: dial: %w", err)
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		ws.Close()
		close(c.events)
		return ErrNotConnected
	}
	c.ws = ws
	c.mu.Unlock()

	if err := c.writeJSON(clientMessage{Setup: c.setupPayload()}); err != nil {
		c.mu.Lock()
		c.state = StateError
		c.errCause = err
		c.mu.Unlock()
		ws.Close()
		close(c.events)
		return fmt.Errorf("live: send setup: %w", err)
	}

	c.mu.Lock()
	c.connectTimer = time.AfterFunc(c.cfg.ConnectTimeout, c.onConnectTimeout)
	c.mu.Unlock()

	go c.readLoop()

	c.logger.Debug("live session dialed", "model", c.cfg.Model)

	return nil
}

func (c *Connection) setupPayload() *setupPayload {
	sp := &setupPayload{
		Model: c.cfg.Model,
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: &voiceConfig{
					PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: c.cfg.Voice},
				},
			},
		},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
	if c.cfg.SystemInstruction != "" {
		sp.SystemInstruction = &content{Parts: []part{{Text: c.cfg.SystemInstruction}}}
	}
	return sp
}

// SendAudio sends one encoded PCM16 chunk. Valid once Open; while
// Connecting the chunk is queued and flushed after the Open transition.
func (c *Connection) SendAudio(data []byte) error {
	return c.send(clientMessage{
		RealtimeInput: &realtimeInput{
			MediaChunks: []inlineData{{
				MIMEType: audioio.PCMMimeType(c.cfg.InputSampleRate),
				Data:     base64.StdEncoding.EncodeToString(data),
			}},
		},
	})
}

// SendText sends a text turn into the live session. Queued while
// Connecting, like SendAudio.
func (c *Connection) SendText(text string) error {
	return c.send(clientMessage{
		RealtimeInput: &realtimeInput{Text: text},
	})
}

func (c *Connection) send(msg clientMessage) error {
	c.mu.Lock()
	switch c.state {
	case StateOpen:
		c.mu.Unlock()
		return c.writeJSON(msg)
	case StateConnecting:
		defer c.mu.Unlock()
		return c.queue.push(msg)
	default:
		c.mu.Unlock()
		return ErrNotConnected
	}
}

func (c *Connection) writeJSON(msg clientMessage) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		return ErrNotConnected
	}
	return c.ws.WriteJSON(msg)
}

// Close shuts the connection down. Idempotent: closing an idle or
// already-closed connection is a no-op.
func (c *Connection) Close() error {
	c.mu.Lock()
	switch c.state {
	case StateIdle, StateClosing, StateClosed:
		c.mu.Unlock()
		return nil
	case StateError:
		c.stopConnectTimerLocked()
		c.state = StateClosed
		ws := c.ws
		c.mu.Unlock()
		if ws != nil {
			ws.Close()
		}
		return nil
	default: // Connecting, Open
		c.stopConnectTimerLocked()
		c.state = StateClosing
		ws := c.ws
		c.mu.Unlock()
		if ws == nil {
			return nil
		}
		deadline := time.Now().Add(time.Second)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		return ws.Close()
	}
}

func (c *Connection) onConnectTimeout() {
	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		return
	}
	c.state = StateError
	c.errCause = ErrConnectTimeout
	ws := c.ws
	c.mu.Unlock()

	// Tearing down the socket unblocks the read loop, which reports
	// the stored cause.
	if ws != nil {
		ws.Close()
	}
}

func (c *Connection) stopConnectTimerLocked() {
	if c.connectTimer != nil {
		c.connectTimer.Stop()
		c.connectTimer = nil
	}
}

// readLoop consumes the socket until a terminal state, translating
// wire messages into events. It owns closing the event channel.
func (c *Connection) readLoop() {
	defer close(c.events)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("live: malformed server message", "error", err)
			continue
		}

		if msg.SetupComplete != nil {
			c.handleOpen()
			continue
		}
		if msg.ServerContent != nil {
			c.handleServerContent(msg.ServerContent)
		}
	}
}

func (c *Connection) handleOpen() {
	c.wsMu.Lock()
	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		c.wsMu.Unlock()
		return
	}
	c.state = StateOpen
	c.stopConnectTimerLocked()
	pending := c.queue.drain()
	ws := c.ws
	c.mu.Unlock()

	for i, msg := range pending {
		if err := ws.WriteJSON(msg); err != nil {
			c.wsMu.Unlock()
			c.failDrain(err, len(pending)-i)
			return
		}
	}
	c.wsMu.Unlock()

	c.logger.Info("live session open", "queued_sends", len(pending))
	c.events <- Event{Type: EventOpen}
}

// failDrain moves the connection to Error when flushing the pre-Open
// queue fails. Queued sends are never silently dropped: the undelivered
// tail is reported as the session's terminal error, surfaced by the
// read loop once the socket teardown unblocks it.
func (c *Connection) failDrain(err error, undelivered int) {
	c.mu.Lock()
	c.state = StateError
	c.errCause = fmt.Errorf("live: flushing queue, %d sends undelivered: %w", undelivered, err)
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		ws.Close()
	}
}

func (c *Connection) handleServerContent(sc *serverContent) {
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MIMEType, "audio/pcm") {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil || len(data) == 0 {
				c.logger.Debug("live: undecodable audio part", "error", err)
				continue
			}
			rate, ok := audioio.PCMRate(p.InlineData.MIMEType)
			if !ok {
				rate = c.cfg.OutputSampleRate
			}
			c.events <- Event{Type: EventAudio, Data: data, SampleRate: rate}
		}
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		c.events <- Event{Type: EventTranscript, Text: sc.InputTranscription.Text, Source: TranscriptInput}
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		c.events <- Event{Type: EventTranscript, Text: sc.OutputTranscription.Text, Source: TranscriptOutput}
	}

	if sc.Interrupted {
		c.mu.Lock()
		c.interrupted = true
		c.mu.Unlock()
		c.events <- Event{Type: EventInterrupted}
	}
	if sc.TurnComplete {
		c.mu.Lock()
		c.interrupted = false
		c.mu.Unlock()
		c.events <- Event{Type: EventTurnComplete}
	}
}

func (c *Connection) handleReadError(err error) {
	c.mu.Lock()
	c.stopConnectTimerLocked()
	switch c.state {
	case StateClosing, StateClosed:
		c.state = StateClosed
		c.mu.Unlock()
		c.logger.Debug("live session closed")
		c.events <- Event{Type: EventClosed}
	case StateError:
		cause := c.errCause
		c.mu.Unlock()
		if cause == nil {
			cause = err
		}
		c.events <- Event{Type: EventError, Err: cause}
	default:
		c.state = StateError
		c.errCause = err
		c.mu.Unlock()
		c.events <- Event{Type: EventError, Err: fmt.Errorf("live: transport: %w", err)}
	}
}
