package live

// EventType identifies an inbound connection event.
type EventType int

const (
	// EventOpen fires once when the remote acknowledges session setup.
	EventOpen EventType = iota
	// EventAudio carries a decoded synthesized-audio payload.
	EventAudio
	// EventTranscript carries an incremental transcript delta.
	EventTranscript
	// EventTurnComplete marks the end of a model turn.
	EventTurnComplete
	// EventInterrupted signals the user spoke over model playback.
	EventInterrupted
	// EventClosed marks a clean shutdown of the connection.
	EventClosed
	// EventError marks a transport or protocol failure.
	EventError
)

// String returns a human-readable event type.
func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventAudio:
		return "audio"
	case EventTranscript:
		return "transcript"
	case EventTurnComplete:
		return "turn_complete"
	case EventInterrupted:
		return "interrupted"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// TranscriptSource identifies which party a transcript delta belongs to.
type TranscriptSource int

const (
	// TranscriptInput is speech-to-text of the local speaker.
	TranscriptInput TranscriptSource = iota
	// TranscriptOutput is speech-to-text of the model's audio.
	TranscriptOutput
)

// Event is a tagged variant delivered on the connection's ordered
// event channel. Only the fields relevant to Type are populated.
type Event struct {
	Type EventType

	// Data holds raw PCM16 audio for EventAudio.
	Data []byte
	// SampleRate is the audio sample rate for EventAudio.
	SampleRate int

	// Text holds the transcript delta for EventTranscript.
	Text string
	// Source identifies the transcript party for EventTranscript.
	Source TranscriptSource

	// Err holds the failure for EventError.
	Err error
}
