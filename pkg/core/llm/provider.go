package llm

import (
	"context"
)

// Document is an input attachment forwarded to the model. Text-bearing
// formats (HTML, XLSX, CSV) are flattened to Text upstream; opaque formats
// (PDF, images) carry raw Data and are sent as inline blobs where the
// provider supports it.
type Document struct {
	Filename string
	MIMEType string
	Text     string
	Data     []byte
}

// Request is one generation call: a system instruction, a user prompt, and
// optional document attachments (only the document-facing passes send any).
type Request struct {
	System          string
	Prompt          string
	Documents       []Document
	Model           string
	Temperature     float64
	MaxOutputTokens int
}

// Completion is the raw model output plus token usage counters.
// Providers that do not report usage return zero counts.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider is the interface for all LLM providers.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Completion, error)
}
