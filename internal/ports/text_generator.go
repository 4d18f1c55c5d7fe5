package ports

import "context"

// Contract for an LLM text-generation backend.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
