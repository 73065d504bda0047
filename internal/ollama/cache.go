package ollama

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingClient memoizes Embed calls through an LRU cache. Context strings
// repeat heavily between keystrokes, so the same text is embedded once.
// Generate calls pass through untouched.
type CachingClient struct {
	inner Client
	cache *lru.Cache[string, []float32]
}

func NewCachingClient(inner Client, size int) (*CachingClient, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachingClient{inner: inner, cache: cache}, nil
}

func (c *CachingClient) Embed(text string) (*EmbedResponse, error) {
	if vec, ok := c.cache.Get(text); ok {
		return &EmbedResponse{Embedding: vec}, nil
	}
	resp, err := c.inner.Embed(text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, resp.Embedding)
	return resp, nil
}

func (c *CachingClient) Generate(prompt string) (*GenerateResponse, error) {
	return c.inner.Generate(prompt)
}
