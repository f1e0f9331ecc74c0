// Package hub provides a thread-safe websocket broadcast hub using
// the channel-based fan-out pattern. The chat gateway uses it to push
// history snapshots and error banners to every connected UI client.
package hub

// Message is a pre-encoded payload to broadcast to clients.
type Message struct {
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON bytes.
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}
