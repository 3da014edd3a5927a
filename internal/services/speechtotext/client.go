package speechtotext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPTimeout = 60 * time.Second

// Client wraps the asynchronous speech recognition HTTP API. Recognition
// jobs are submitted with a callback URL; results arrive later via the
// registered callback.
type Client struct {
	baseURL    string
	username   string
	password   string
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

// NewClient constructs a speech recognition client.
func NewClient(baseURL, username, password string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Submission describes one recognition job.
type Submission struct {
	// CallbackURL receives the recognition results.
	CallbackURL string
	// UserToken is echoed back in the callback and identifies the audio
	// document the results belong to.
	UserToken string
	// LanguageModel optionally selects a non-default recognition model.
	LanguageModel string
	// ResultsTTLMinutes asks the service to drop stored results after this
	// delay.
	ResultsTTLMinutes int
}

// Submit posts the audio content as an asynchronous recognition job.
func (c *Client) Submit(ctx context.Context, audio io.Reader, sub Submission) error {
	if c.baseURL == "" {
		return errors.New("speech to text: url required")
	}
	if sub.CallbackURL == "" || sub.UserToken == "" {
		return errors.New("speech to text: callback url and user token required")
	}

	query := url.Values{}
	query.Set("callback_url", sub.CallbackURL)
	query.Set("user_token", sub.UserToken)
	query.Set("timestamps", "true")
	query.Set("word_alternatives_threshold", "0.9")
	query.Set("continuous", "true")
	query.Set("smart_formatting", "true")
	query.Set("events", "recognitions.started,recognitions.completed_with_results,recognitions.failed")
	if sub.ResultsTTLMinutes > 0 {
		query.Set("results_ttl", strconv.Itoa(sub.ResultsTTLMinutes))
	}
	if sub.LanguageModel != "" {
		query.Set("model", sub.LanguageModel)
	}
	endpoint := c.baseURL + "/v1/recognitions?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, audio)
	if err != nil {
		return fmt.Errorf("speech to text: request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "audio/ogg;codecs=opus")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech to text: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("speech to text: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("speech to text: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
