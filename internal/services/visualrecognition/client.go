package visualrecognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"visionpipe/internal/media"
)

const defaultHTTPTimeout = 60 * time.Second

// Client wraps the visual recognition HTTP API used for face detection and
// image classification.
type Client struct {
	baseURL    string
	apiKey     string
	version    string
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

// NewClient constructs a visual recognition client.
func NewClient(baseURL, apiKey, version string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		version:    strings.TrimSpace(version),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type facesResponse struct {
	Images []struct {
		Faces []media.Face `json:"faces"`
	} `json:"images"`
}

type classifyResponse struct {
	Images []struct {
		Classifiers []struct {
			Classes []media.Keyword `json:"classes"`
		} `json:"classifiers"`
	} `json:"images"`
}

// DetectFaces posts the image content to the face detection endpoint. The
// returned faces are ordered left to right by bounding box.
func (c *Client) DetectFaces(ctx context.Context, image io.Reader) ([]media.Face, error) {
	var parsed facesResponse
	if err := c.post(ctx, "/v3/detect_faces", image, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Images) == 0 {
		return nil, nil
	}
	faces := parsed.Images[0].Faces
	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].Location.Left < faces[j].Location.Left
	})
	return faces, nil
}

// Classify posts the image content to the classifier endpoint and returns
// the detected keywords.
func (c *Client) Classify(ctx context.Context, image io.Reader) ([]media.Keyword, error) {
	var parsed classifyResponse
	if err := c.post(ctx, "/v3/classify", image, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Images) == 0 || len(parsed.Images[0].Classifiers) == 0 {
		return nil, nil
	}
	return parsed.Images[0].Classifiers[0].Classes, nil
}

func (c *Client) post(ctx context.Context, path string, image io.Reader, out any) error {
	if c.baseURL == "" {
		return errors.New("visual recognition: url required")
	}
	if c.apiKey == "" {
		return errors.New("visual recognition: api key required")
	}
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("version", c.version)
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, image)
	if err != nil {
		return fmt.Errorf("visual recognition: request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("visual recognition: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("visual recognition: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("visual recognition: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("visual recognition: decode response: %w", err)
	}
	return nil
}
