package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

// OpenAIConfig configures an OpenAIExtractor.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // empty means api.openai.com
	Model       string // used when Extract is called without a model
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// OpenAIExtractor asks an OpenAI-compatible chat completion endpoint to read
// the page image.
type OpenAIExtractor struct {
	client *openai.Client
	config OpenAIConfig
	log    zerolog.Logger
}

// NewOpenAIExtractor creates an extractor for the configured endpoint.
func NewOpenAIExtractor(config OpenAIConfig) (*OpenAIExtractor, error) {
	const op = "NewOpenAIExtractor"

	if config.APIKey == "" {
		return nil, WrapExtractionError(op, ErrMissingCredentials, "OPENAI_API_KEY environment variable is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultOllamaTimeout
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return NewOpenAIExtractorWithClient(openai.NewClientWithConfig(clientConfig), config), nil
}

// NewOpenAIExtractorWithClient creates an extractor with an explicit client (for testing).
func NewOpenAIExtractorWithClient(client *openai.Client, config OpenAIConfig) *OpenAIExtractor {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 2000
	}
	return &OpenAIExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("openai"),
	}
}

// Extract sends the prompt and the page as an image data URL.
func (o *OpenAIExtractor) Extract(ctx context.Context, imagePayload, prompt, model string) (*models.Candidate, error) {
	const op = "Extract"

	if imagePayload == "" {
		return nil, WrapExtractionError(op, ErrInvalidInput, "empty image payload")
	}
	if model == "" {
		model = o.config.Model
	}

	o.log.Debug().
		Str("model", model).
		Int("prompt_length", len(prompt)).
		Float32("temperature", o.config.Temperature).
		Msg("Sending completion request")

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: o.config.Temperature,
		MaxTokens:   o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/png;base64," + imagePayload,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		o.log.Error().Err(err).Str("model", model).Msg("Completion request failed")
		return nil, o.mapError(ctx, op, err)
	}

	if len(resp.Choices) == 0 {
		return nil, WrapExtractionError(op, ErrInvalidResponse, "no response choices")
	}

	content := resp.Choices[0].Message.Content
	candidate := ParseModelResponse(content)

	o.log.Info().
		Str("model", model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Bool("json", candidate.Kind == models.CandidateJSON).
		Msg("Completion received")

	return candidate, nil
}

// mapError converts go-openai errors to the package sentinels.
func (o *OpenAIExtractor) mapError(ctx context.Context, op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &RequestFailedError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &RequestFailedError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return WrapExtractionError(op, classifyTransportError(ctx, err), err.Error())
}
