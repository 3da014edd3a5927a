package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"visionpipe/internal/media"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	apiVersion         = "2022-04-07"
)

// Client wraps the natural language understanding HTTP API used to extract
// entities, concepts, and emotion from transcripts.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a language understanding client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type analyzeRequest struct {
	Text     string         `json:"text"`
	Features map[string]any `json:"features"`
}

type analyzeResponse struct {
	Entities []struct {
		Text      string  `json:"text"`
		Relevance float64 `json:"relevance"`
	} `json:"entities"`
	Concepts []struct {
		Text      string  `json:"text"`
		Relevance float64 `json:"relevance"`
	} `json:"concepts"`
	Emotion struct {
		Document struct {
			Emotion map[string]float64 `json:"emotion"`
		} `json:"document"`
	} `json:"emotion"`
}

// Entities extracts named entities with their relevance.
func (c *Client) Entities(ctx context.Context, text string) ([]media.TextItem, error) {
	parsed, err := c.analyze(ctx, text, "entities")
	if err != nil {
		return nil, err
	}
	items := make([]media.TextItem, 0, len(parsed.Entities))
	for _, entity := range parsed.Entities {
		items = append(items, media.TextItem{Text: entity.Text, Relevance: entity.Relevance})
	}
	return items, nil
}

// Concepts extracts abstract concepts with their relevance.
func (c *Client) Concepts(ctx context.Context, text string) ([]media.TextItem, error) {
	parsed, err := c.analyze(ctx, text, "concepts")
	if err != nil {
		return nil, err
	}
	items := make([]media.TextItem, 0, len(parsed.Concepts))
	for _, concept := range parsed.Concepts {
		items = append(items, media.TextItem{Text: concept.Text, Relevance: concept.Relevance})
	}
	return items, nil
}

// Emotion scores the dominant document emotions.
func (c *Client) Emotion(ctx context.Context, text string) (map[string]float64, error) {
	parsed, err := c.analyze(ctx, text, "emotion")
	if err != nil {
		return nil, err
	}
	return parsed.Emotion.Document.Emotion, nil
}

func (c *Client) analyze(ctx context.Context, text, feature string) (*analyzeResponse, error) {
	if c.baseURL == "" {
		return nil, errors.New("text analysis: url required")
	}
	if c.apiKey == "" {
		return nil, errors.New("text analysis: api key required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text analysis: empty text")
	}

	payload, err := json.Marshal(analyzeRequest{
		Text:     text,
		Features: map[string]any{feature: map[string]any{}},
	})
	if err != nil {
		return nil, fmt.Errorf("text analysis: encode request: %w", err)
	}

	endpoint := c.baseURL + "/v1/analyze?version=" + apiVersion
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("text analysis: request: %w", err)
	}
	req.SetBasicAuth("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("text analysis: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("text analysis: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("text analysis: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var parsed analyzeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("text analysis: decode response: %w", err)
	}
	return &parsed, nil
}
