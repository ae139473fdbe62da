package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxdoc/pkg/models"
)

func newOpenAITestExtractor(t *testing.T, handler http.HandlerFunc) *OpenAIExtractor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIExtractorWithClient(openai.NewClientWithConfig(cfg), OpenAIConfig{Temperature: 0.1})
}

func TestOpenAIExtractSendsImageDataURL(t *testing.T) {
	var body map[string]any
	extractor := newOpenAITestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"vendor_name\": \"Acme\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	})

	candidate, err := extractor.Extract(context.Background(), "aW1hZ2U=", "extract", "")
	require.NoError(t, err)
	assert.Equal(t, models.CandidateJSON, candidate.Kind)
	assert.Equal(t, "Acme", candidate.Fields["vendor_name"])

	assert.Equal(t, "gpt-4o-mini", body["model"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "extract", parts[0].(map[string]any)["text"])
	imageURL := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,aW1hZ2U=", imageURL["url"])
}

func TestOpenAIExtractAPIError(t *testing.T) {
	extractor := newOpenAITestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests"}}`))
	})

	_, err := extractor.Extract(context.Background(), "aW1hZ2U=", "extract", "gpt-4o")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInferenceRequestFailed)

	var reqErr *RequestFailedError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusTooManyRequests, reqErr.StatusCode)
}

func TestNewOpenAIExtractorRequiresKey(t *testing.T) {
	_, err := NewOpenAIExtractor(OpenAIConfig{})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
