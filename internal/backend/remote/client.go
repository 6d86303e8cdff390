// Package remote implements service.Service against an HTTP API
// exposing /todos CRUD endpoints.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tasklist/internal/service"
)

// Client implements service.Service over HTTP.
// Each call issues exactly one request: no retries, no batching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.log = l
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type createRequest struct {
	Title string `json:"title"`
}

// List implements service.Service.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if _, err := c.do(ctx, http.MethodGet, "/todos", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// Create implements service.Service.
func (c *Client) Create(ctx context.Context, title string) (service.Task, error) {
	title, err := service.NormalizeTitle(title)
	if err != nil {
		return service.Task{}, err
	}

	var task service.Task
	ok, err := c.do(ctx, http.MethodPost, "/todos", createRequest{Title: title}, &task)
	if err != nil {
		return service.Task{}, err
	}
	if !ok {
		return service.Task{}, fmt.Errorf("create: %w", service.ErrEmptyResponse)
	}
	return task, nil
}

// Update implements service.Service.
func (c *Client) Update(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	var task service.Task
	ok, err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), patch, &task)
	if err != nil {
		return service.Task{}, err
	}
	if !ok {
		return service.Task{}, fmt.Errorf("update: %w", service.ErrEmptyResponse)
	}
	return task, nil
}

// Delete implements service.Service.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
	return err
}

// do sends one request and decodes the JSON response into out.
// It reports false when the response carried no payload (204 or empty body).
func (c *Client) do(ctx context.Context, method, path string, body, out any) (bool, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, err
		}
		reqBody = bytes.NewReader(data)
	}

	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":      method,
		"url":         reqURL,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return false, &service.RequestError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(text),
		}
	}

	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return true, nil
}
