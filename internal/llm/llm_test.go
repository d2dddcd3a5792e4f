package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/postbot/internal/llm"
)

func TestOllama_Generate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"model":"llama3.2:latest","response":"  Shipping beats polishing.  \n","done":true}`))
	}))
	defer server.Close()

	gen := llm.NewOllama(llm.WithOllamaURL(server.URL + "/"))
	text, err := gen.Generate(context.Background(), "write something")
	require.NoError(t, err)

	assert.Equal(t, "Shipping beats polishing.", text)
	assert.Equal(t, map[string]any{
		"model":  llm.DefaultOllamaModel,
		"prompt": "write something",
		"stream": false,
	}, got)
}

func TestOllama_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "model missing", status: http.StatusNotFound, body: `{"error":"model 'nope' not found"}`},
		{name: "non json failure", status: http.StatusBadGateway, body: "bad gateway"},
		{name: "empty response", status: http.StatusOK, body: `{"response":"   "}`},
		{name: "garbage", status: http.StatusOK, body: "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			gen := llm.NewOllama(llm.WithOllamaURL(server.URL), llm.WithOllamaModel("nope"))
			_, err := gen.Generate(context.Background(), "prompt")
			assert.Error(t, err)
		})
	}
}

func TestOllama_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":""}`))
	}))
	defer server.Close()

	_, err := llm.NewOllama(llm.WithOllamaURL(server.URL)).Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestNewAnthropic_RequiresAPIKey(t *testing.T) {
	_, err := llm.NewAnthropic(llm.AnthropicConfig{})
	assert.Error(t, err)
}

func TestAnthropic_Generate(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "Naming things is the final boss."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 9}
		}`))
	}))
	defer server.Close()

	gen, err := llm.NewAnthropic(llm.AnthropicConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-test",
		Options: []option.RequestOption{option.WithMaxRetries(0)},
	})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "write something")
	require.NoError(t, err)
	assert.Equal(t, "Naming things is the final boss.", text)

	assert.Equal(t, "claude-test", got.Model)
	assert.Positive(t, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	require.Len(t, got.Messages[0].Content, 1)
	assert.Equal(t, "write something", got.Messages[0].Content[0].Text)
}

func TestAnthropic_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	gen, err := llm.NewAnthropic(llm.AnthropicConfig{
		APIKey:  "bad-key",
		BaseURL: server.URL,
		Options: []option.RequestOption{option.WithMaxRetries(0)},
	})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "write something")
	assert.Error(t, err)
}
