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
)

const (
	// DefaultOllamaURL is the address of a local Ollama server.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultOllamaModel is the model used when none is configured.
	DefaultOllamaModel = "llama3.2:latest"
)

// OllamaOption configures an Ollama generator.
type OllamaOption func(*Ollama)

// WithOllamaURL overrides the server address.
func WithOllamaURL(baseURL string) OllamaOption {
	return func(o *Ollama) {
		o.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithOllamaModel selects the model.
func WithOllamaModel(model string) OllamaOption {
	return func(o *Ollama) {
		o.model = model
	}
}

// WithOllamaHTTPClient replaces the HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(o *Ollama) {
		o.client = client
	}
}

// Ollama generates text with the Ollama /api/generate endpoint.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// Compile-time check to ensure Ollama implements Generator
var _ Generator = (*Ollama)(nil)

// NewOllama creates an Ollama generator.
func NewOllama(opts ...OllamaOption) *Ollama {
	o := &Ollama{
		baseURL: DefaultOllamaURL,
		model:   DefaultOllamaModel,
		// Local models can be slow on first load
		client: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Generate sends prompt as a single non-streaming generation request.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{Model: o.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}

	var out ollamaResponse
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, out.Error)
	}

	return completion(out.Response)
}
