package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"taxdoc/internal/command"
	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

const (
	// DefaultOllamaTimeout leaves room for slow local inference on large pages.
	DefaultOllamaTimeout = 180 * time.Second

	// DefaultTemperature favors deterministic answers.
	DefaultTemperature = 0.1

	// maxErrorBody caps how much of a failed response is kept.
	maxErrorBody = 2048
)

// OllamaConfig configures an OllamaExtractor.
type OllamaConfig struct {
	BaseURL     string // e.g. http://localhost:11434
	Timeout     time.Duration
	Temperature float64
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaExtractor calls the Ollama generate endpoint with one image.
type OllamaExtractor struct {
	config OllamaConfig
	client *http.Client
	log    zerolog.Logger
}

// NewOllamaExtractor creates an extractor with its own HTTP client.
func NewOllamaExtractor(config OllamaConfig) *OllamaExtractor {
	if config.Timeout <= 0 {
		config.Timeout = DefaultOllamaTimeout
	}
	return NewOllamaExtractorWithClient(config, &http.Client{Timeout: config.Timeout})
}

// NewOllamaExtractorWithClient creates an extractor with an explicit HTTP client (for testing).
func NewOllamaExtractorWithClient(config OllamaConfig, client *http.Client) *OllamaExtractor {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &OllamaExtractor{
		config: config,
		client: client,
		log:    logger.WithComponent("ollama"),
	}
}

// Extract submits the image and prompt in a single non-streaming request.
func (o *OllamaExtractor) Extract(ctx context.Context, imagePayload, prompt, model string) (*models.Candidate, error) {
	const op = "Extract"

	if imagePayload == "" {
		return nil, WrapExtractionError(op, ErrInvalidInput, "empty image payload")
	}

	body, err := json.Marshal(generateRequest{
		Model:   model,
		Prompt:  prompt,
		Images:  []string{imagePayload},
		Stream:  false,
		Options: generateOptions{Temperature: o.config.Temperature},
	})
	if err != nil {
		return nil, WrapExtractionError(op, err, "failed to encode request")
	}

	url := o.config.BaseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapExtractionError(op, err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	o.log.Debug().
		Str("url", url).
		Str("model", model).
		Int("payload_bytes", len(imagePayload)).
		Msg("Sending generate request")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		mapped := classifyTransportError(ctx, err)
		o.log.Error().
			Err(err).
			Str("url", url).
			Dur("elapsed", time.Since(start)).
			Msg("Inference request failed")
		return nil, WrapExtractionError(op, mapped, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapExtractionError(op, classifyTransportError(ctx, err), "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		o.log.Error().
			Int("status", resp.StatusCode).
			Str("body", command.Truncate(string(data), 512)).
			Msg("Inference endpoint returned an error status")
		return nil, &RequestFailedError{
			StatusCode: resp.StatusCode,
			Body:       command.Truncate(string(data), maxErrorBody),
		}
	}

	var envelope generateResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, WrapExtractionError(op, ErrInvalidResponse, fmt.Sprintf("decode envelope: %v", err))
	}

	candidate := ParseModelResponse(envelope.Response)

	if candidate.Kind == models.CandidateRawText {
		o.log.Warn().
			Str("model", model).
			Str("response", command.Truncate(envelope.Response, 512)).
			Msg("Model response is not JSON, keeping raw text")
	} else {
		o.log.Info().
			Str("model", model).
			Dur("elapsed", time.Since(start)).
			Int("fields", len(candidate.Fields)).
			Msg("Inference completed")
	}

	return candidate, nil
}
