// Package ollama is a minimal HTTP client for a local Ollama server,
// covering the two endpoints the engine uses: embeddings and generation.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

// Client abstracts the model server so predictors can be tested with mocks.
type Client interface {
	Embed(text string) (*EmbedResponse, error)
	Generate(prompt string) (*GenerateResponse, error)
}

type HTTPClient struct {
	Model          string
	EmbeddingModel string
	BaseURL        string
	Client         *http.Client
}

func NewHTTPClient(model, embeddingModel string) *HTTPClient {
	return &HTTPClient{
		Model:          model,
		EmbeddingModel: embeddingModel,
		BaseURL:        "http://localhost:11434",
		Client:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) Embed(text string) (*EmbedResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reqBody, err := json.Marshal(map[string]string{
		"model":  c.EmbeddingModel,
		"prompt": text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed request returned %d: %s", resp.StatusCode, body)
	}

	var out EmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	return &out, nil
}

func (c *HTTPClient) Generate(prompt string) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reqBody, err := json.Marshal(map[string]any{
		"model":  c.Model,
		"prompt": prompt,
		"stream": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("generate request returned %d: %s", resp.StatusCode, body)
	}

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}
	return &out, nil
}
