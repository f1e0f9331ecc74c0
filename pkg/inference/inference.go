// Package inference provides single-turn text generation for the chat
// surface. The live session handles voice; this package serves typed
// messages, where the client wants one complete reply rather than a
// media stream.
//
// Example usage:
//
//	provider, _ := inference.NewGemini(
//	    inference.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    inference.WithSystemInstruction(persona),
//	)
//	defer provider.Close()
//
//	resp, _ := provider.Generate(ctx, &inference.Request{
//	    History: msgs,
//	    Prompt:  "Do you do alterations?",
//	})
package inference

import "context"

// Provider generates one complete reply per request.
type Provider interface {
	// Generate produces a reply to the prompt, conditioned on history.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Health checks provider connectivity and credential validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Role identifies who authored a turn.
type Role string

const (
	// RoleUser marks turns written by the person chatting.
	RoleUser Role = "user"

	// RoleModel marks turns written by the model.
	RoleModel Role = "model"
)

// Turn is one prior exchange in the conversation.
type Turn struct {
	Role Role
	Text string
}

// Request is a single-turn generation request.
type Request struct {
	// History is the conversation so far, oldest first.
	History []Turn

	// Prompt is the new user message to answer.
	Prompt string

	// Model overrides the configured model when non-empty.
	Model string
}

// Response is a completed generation.
type Response struct {
	// Text is the model's reply.
	Text string

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Model is the model that produced the reply.
	Model string

	// LatencyMs is the wall time the request took.
	LatencyMs int64
}
