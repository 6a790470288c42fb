package llm

import "context"

// DocumentExtractor turns a document into a JSON answer following systemPrompt.
// Implementations return the model's raw text; callers parse it.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, systemPrompt, documentText string) (string, error)
}

// DocumentExtractorFunc adapts a function to DocumentExtractor.
type DocumentExtractorFunc func(ctx context.Context, systemPrompt, documentText string) (string, error)

func (f DocumentExtractorFunc) ExtractDocument(ctx context.Context, systemPrompt, documentText string) (string, error) {
	return f(ctx, systemPrompt, documentText)
}
