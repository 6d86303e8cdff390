// Package googletasks implements the service.Service interface using Google Tasks API.
// Tasks live in the user's default task list.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasklist/internal/config"
	"tasklist/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks fetched per request.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"

	// createdPrefix marks the notes line holding the creation time,
	// which the API does not expose itself.
	createdPrefix = "created: "
)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc    *tasks.Service
	listID string
	now    func() time.Time
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := LoadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, err
	}

	// Create HTTP client with a token source that auto-refreshes
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	return NewWithHTTPClient(ctx, httpClient)
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// Extra options (e.g. option.WithEndpoint) are passed to the API service.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, listID: DefaultListID, now: time.Now}, nil
}

// LoadOAuthConfig reads the OAuth client credentials from the config directory.
func LoadOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return oauthConfig, nil
}

// LoadToken reads a stored OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}
	return &token, nil
}

// SaveToken saves an OAuth token to a file with mode 0600.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// List implements service.Service.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	result := []service.Task{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, item := range resp.Items {
				result = append(result, toTask(item))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// Create implements service.Service.
func (c *Client) Create(ctx context.Context, title string) (service.Task, error) {
	title, err := service.NormalizeTitle(title)
	if err != nil {
		return service.Task{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	created := c.now().UTC().Format(time.RFC3339Nano)
	item, err := c.svc.Tasks.Insert(c.listID, &tasks.Task{
		Title:  title,
		Status: statusNeedsAction,
		Notes:  createdPrefix + created,
	}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return toTask(item), nil
}

// Update implements service.Service.
func (c *Client) Update(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	body := &tasks.Task{}
	if patch.Title != nil {
		title, err := service.NormalizeTitle(*patch.Title)
		if err != nil {
			return service.Task{}, err
		}
		body.Title = title
	}
	if patch.Completed != nil {
		if *patch.Completed {
			body.Status = statusCompleted
		} else {
			// Reopening requires clearing the completion date.
			body.Status = statusNeedsAction
			body.NullFields = []string{"Completed"}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	item, err := c.svc.Tasks.Patch(c.listID, id, body).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return toTask(item), nil
}

// Delete implements service.Service.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do()
	if err != nil {
		err = wrapError(err)
		if errors.Is(err, service.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// toTask maps an API task to service.Task.
func toTask(item *tasks.Task) service.Task {
	updated, _ := time.Parse(time.RFC3339, item.Updated)
	created := updated
	for _, line := range strings.Split(item.Notes, "\n") {
		if ts, ok := strings.CutPrefix(strings.TrimSpace(line), createdPrefix); ok {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				created = t
			}
			break
		}
	}
	if updated.Before(created) {
		updated = created
	}
	return service.Task{
		ID:        item.Id,
		Title:     item.Title,
		Completed: item.Status == statusCompleted,
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("token expired or revoked (run: tasklist login)")
		case http.StatusNotFound:
			return service.ErrNotFound
		}
		return &service.RequestError{
			StatusCode: apiErr.Code,
			Body:       apiErr.Message,
		}
	}

	return err
}
