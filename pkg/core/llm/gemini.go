package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google's Gemini models
// using the official GenAI SDK. Gemini is the only provider that accepts
// inline document blobs, so the document-facing passes should route here.
type GeminiProvider struct {
	Model string // e.g. "gemini-2.0-flash-exp"
}

var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Name() string { return "gemini" }

// Generate sends a generateContent request to the Gemini API.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}
	if req.Model != "" {
		model = req.Model
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: req.System},
			},
		}
	}

	// Build user content: prompt text first, then any attachments.
	// Text-bearing documents go in as labeled text parts; binary documents
	// (PDF, images) as inline blobs for multimodal understanding.
	parts := []*genai.Part{{Text: req.Prompt}}
	for _, doc := range req.Documents {
		if doc.Text != "" {
			parts = append(parts, &genai.Part{
				Text: fmt.Sprintf("=== DOCUMENT: %s ===\n%s", doc.Filename, doc.Text),
			})
			continue
		}
		if len(doc.Data) > 0 {
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{
					MIMEType: doc.MIMEType,
					Data:     doc.Data,
				},
			})
		}
	}
	contents := []*genai.Content{{Parts: parts, Role: genai.RoleUser}}

	result, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	completion := &Completion{Text: result.Text()}
	if result.UsageMetadata != nil {
		completion.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		completion.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}

	return completion, nil
}
