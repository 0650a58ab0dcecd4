// Package client defines the narrow contract the pipeline consumes from
// model-inference backends. Backends are swappable black boxes; the
// pipeline only depends on their input/output shapes.
package client

import "context"

// ModelClient is implemented by chat backends (Ollama, llama.cpp).
type ModelClient interface {
	// QueryImage sends a prompt together with a base64-encoded image and
	// returns the raw model response.
	QueryImage(ctx context.Context, model, prompt, imgB64 string) (string, error)

	// Generate sends a text-only prompt and returns the raw model response.
	Generate(ctx context.Context, model, prompt string) (string, error)
}
