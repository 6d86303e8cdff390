package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrEmptyTitle is returned when a title is empty after trimming.
	ErrEmptyTitle = errors.New("title must not be empty")

	// ErrNotFound is returned when the target task does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrEmptyResponse is returned when a backend answers without the task it
	// was expected to return.
	ErrEmptyResponse = errors.New("empty response")
)

// RequestError is returned for a non-success HTTP response.
type RequestError struct {
	StatusCode int
	Status     string // e.g. "500 Internal Server Error"
	Body       string
}

func (e *RequestError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return "request failed: " + status
	}
	return fmt.Sprintf("request failed: %s %s", status, body)
}

// Is makes a 404 response match ErrNotFound.
func (e *RequestError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// NormalizeTitle trims a title and rejects empty results.
func NormalizeTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	return trimmed, nil
}
