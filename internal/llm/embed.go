package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zonewatch/docreport/internal/domain"
)

// EmbeddingRequest represents a request to generate embeddings.
type EmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// EmbeddingResponse represents the embeddings API response.
type EmbeddingResponse struct {
	Data  []EmbeddingData `json:"data"`
	Model string          `json:"model"`
	Error *responseError  `json:"error,omitempty"`
}

// EmbeddingData contains one embedding vector.
type EmbeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// Embed generates embedding vectors for the given texts, one per input, in
// input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(EmbeddingRequest{
		Input: texts,
		Model: c.cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, domain.APIError("marshal embedding request", err)
	}

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, "POST",
			c.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.APIError("read embedding response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.APIError(
			fmt.Sprintf("embeddings API returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed EmbeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, domain.APIError("unmarshal embedding response", err)
	}
	if parsed.Error != nil {
		return nil, domain.APIError("embeddings API error: "+parsed.Error.Message, nil)
	}
	if len(parsed.Data) != len(texts) {
		return nil, domain.APIError(
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(parsed.Data)), nil)
	}

	// The API may return vectors out of order; place each by its index.
	vectors := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, domain.APIError(fmt.Sprintf("embedding index %d out of range", d.Index), nil)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
