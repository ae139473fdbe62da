// Package llm submits a page image to a vision-capable model and turns the
// answer into a models.Candidate.
//
// Providers:
//   - OllamaExtractor: local Ollama /api/generate (default)
//   - OpenAIExtractor: any OpenAI-compatible chat completion endpoint
//   - DocumentAIExtractor: Google Document AI invoice parser
//
// Model answers are parsed leniently by ParseModelResponse. Text that holds
// no JSON object becomes a raw text candidate instead of an error, so the
// rest of the pipeline can still build a degraded record.
package llm

import (
	"context"
	"errors"
	"net"
	"net/url"

	"taxdoc/pkg/models"
)

// Extractor turns one base64 encoded page image into a candidate record.
type Extractor interface {
	Extract(ctx context.Context, imagePayload, prompt, model string) (*models.Candidate, error)
}

// classifyTransportError maps an HTTP client error onto the package sentinels.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrInferenceTimeout
	}
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		return context.Canceled
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrInferenceTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrInferenceTimeout
	}

	// Connection refused, DNS and dial failures, resets and EOF before the
	// response headers all mean the endpoint produced no answer.
	return ErrInferenceUnreachable
}
