package ports

import "context"

// TextCompletion is the optional language-model capability. It is injected
// into planning collaborators only; the insight agent and evaluator never
// depend on it, and every consumer must carry a deterministic fallback for a
// nil or failing client.
type TextCompletion interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}
