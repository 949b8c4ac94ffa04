// Package llm talks to the OpenRouter API: chat completions for image
// captioning and report generation, and the embeddings endpoint for the
// question answering index.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zonewatch/docreport/internal/config"
	"github.com/zonewatch/docreport/internal/domain"
)

// Client handles communication with the OpenRouter API.
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	retry      RetryConfig
	log        zerolog.Logger
}

// Message represents a chat message.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content (text or image).
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message.
type ImageURL struct {
	URL string `json:"url"`
}

// Request represents the chat completion request structure.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Response represents the chat completion response structure.
type Response struct {
	ID      string         `json:"id"`
	Choices []Choice       `json:"choices"`
	Error   *responseError `json:"error,omitempty"`
}

// Choice represents a single completion choice.
type Choice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatMessage is the assistant message of a non-streaming completion.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseError represents an error object returned by the API.
type responseError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewClient creates a new LLM client.
func NewClient(cfg config.LLMConfig, log zerolog.Logger) *Client {
	retry := DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      retry,
		log:        log,
	}
}

// Caption describes one extracted image in a short sentence. The index is
// the acceptance index the image will be labeled with.
func (c *Client) Caption(ctx context.Context, imageData []byte, index int) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(imageData),
		base64.StdEncoding.EncodeToString(imageData))

	msg := Message{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: captionPrompt(index)},
			{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
		},
	}

	caption, err := c.complete(ctx, []Message{msg})
	if err != nil {
		return "", domain.CaptionError(fmt.Sprintf("caption image %d", index), err)
	}
	if strings.TrimSpace(caption) == "" {
		return "", domain.CaptionError(fmt.Sprintf("empty caption for image %d", index), nil)
	}
	return strings.TrimSpace(caption), nil
}

// Summarize turns the document text and the image listing into constrained
// report markup. An empty instruction requests a general summary; otherwise
// the model follows the instruction against the document content.
func (c *Client) Summarize(ctx context.Context, text, imageListing, instruction string) (string, error) {
	msg := Message{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: summarizePrompt(text, imageListing, instruction)},
		},
	}

	markup, err := c.complete(ctx, []Message{msg})
	if err != nil {
		return "", domain.SummarizationError("generate report", err)
	}
	if strings.TrimSpace(markup) == "" {
		return "", domain.SummarizationError("model returned empty report", nil)
	}
	return markup, nil
}

// Respond answers a free-form prompt with a plain text completion. Used by
// the chat command, where prompts are assembled by the caller.
func (c *Client) Respond(ctx context.Context, prompt string) (string, error) {
	msg := Message{
		Role:    "user",
		Content: []ContentPart{{Type: "text", Text: prompt}},
	}
	return c.complete(ctx, []Message{msg})
}

// complete sends one non-streaming chat completion and returns the assistant
// message content.
func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(Request{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", domain.APIError("marshal request", err)
	}

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, "POST",
			c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.APIError("read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.APIError(
			fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed Response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", domain.APIError("unmarshal response", err)
	}
	if parsed.Error != nil {
		return "", domain.APIError("API error: "+parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return "", domain.APIError("response has no choices", nil)
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("HTTP-Referer", "https://github.com/zonewatch/docreport")
	req.Header.Set("X-Title", "DocReport")
}
