package rerank

import "context"

// ChatClient sends one prompt to a chat completion model and returns the raw text.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
