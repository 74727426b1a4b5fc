package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/clinsop/pkg/llm"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{
			name:   "valid config",
			config: map[string]any{"api_key": "test-key"},
		},
		{
			name: "custom models",
			config: map[string]any{
				"api_key":     "test-key",
				"embed_model": "text-embedding-3-large",
				"chat_model":  "gpt-4o",
				"timeout":     30 * time.Second,
			},
		},
		{
			name:    "missing api key",
			config:  map[string]any{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ProviderName, p.Name())
		})
	}
}

func TestEmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// return data out of order, the client must reorder by index
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object": "embedding", "embedding": [0.3, 0.4], "index": 1},
				{"object": "embedding", "embedding": [0.1, 0.2], "index": 0}
			],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	p := NewProviderWithConfig(&Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		EmbedModel: "text-embedding-3-small",
		Timeout:    5 * time.Second,
	})

	embeddings, err := p.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0])
	assert.Equal(t, []float32{0.3, 0.4}, embeddings[1])
}

func TestEmbedEmptyInput(t *testing.T) {
	p := NewProviderWithConfig(DefaultConfig())

	embeddings, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestGenerateSerializesZeroTemperature(t *testing.T) {
	var rawBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		rawBody, _ = io.ReadAll(r.Body)

		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Scrub for 20 seconds."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 50, "completion_tokens": 8, "total_tokens": 58}
		}`))
	}))
	defer srv.Close()

	p := NewProviderWithConfig(&Config{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		ChatModel:   "gpt-4o",
		Timeout:     5 * time.Second,
		Temperature: 0,
	})

	resp, err := p.Generate(context.Background(), "How long should I scrub?", "You are a Clinical SOP Assistant.")
	require.NoError(t, err)
	assert.Equal(t, "Scrub for 20 seconds.", resp.Content)
	require.NotNil(t, resp.TokenUsage)
	assert.Equal(t, 58, resp.TokenUsage.TotalTokens)

	// temperature 0 must be present on the wire, not omitted
	var body map[string]any
	require.NoError(t, json.Unmarshal(rawBody, &body))
	temp, ok := body["temperature"]
	require.True(t, ok, "temperature missing from request body")
	assert.Equal(t, float64(0), temp)

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "choices": []}`))
	}))
	defer srv.Close()

	p := NewProviderWithConfig(&Config{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		ChatModel: "gpt-4o",
		Timeout:   5 * time.Second,
	})

	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestRegistryIntegration(t *testing.T) {
	p, err := llm.NewEmbeddingProvider(ProviderName, map[string]any{"api_key": "test-key"})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, p.Name())

	c, err := llm.NewChatProvider(ProviderName, map[string]any{"api_key": "test-key"})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, c.Name())
}
