package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tasklist/internal/backend/local"
	"tasklist/internal/backend/remote"
	"tasklist/internal/logging"
	"tasklist/internal/service"
	"tasklist/internal/testutil"
)

func newTestServer(t *testing.T, svc service.Service) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(svc, logging.Discard()))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

// TestRemoteClientRoundTrip drives the server with the remote backend,
// so both ends of the protocol are checked together.
func TestRemoteClientRoundTrip(t *testing.T) {
	ts := newTestServer(t, local.New(local.NewFileStore(t.TempDir())))
	c := remote.New(ts.URL)
	ctx := context.Background()

	tasks, err := c.List(ctx)
	if err != nil || len(tasks) != 0 {
		t.Fatalf("expected empty list, got %+v, %v", tasks, err)
	}

	created, err := c.Create(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Title != "Buy milk" {
		t.Fatalf("unexpected task: %+v", created)
	}

	updated, err := c.Update(ctx, created.ID, service.SetCompleted(true))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed || updated.Title != "Buy milk" {
		t.Errorf("unexpected task after update: %+v", updated)
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("second delete should succeed, got %v", err)
	}

	_, err = c.Update(ctx, created.ID, service.SetTitle("x"))
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	ts := newTestServer(t, testutil.NewFakeService())

	status, body := do(t, http.MethodPost, ts.URL+"/todos", `{"title":"   "}`)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", status, body)
	}

	status, _ = do(t, http.MethodPost, ts.URL+"/todos", `not json`)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", status)
	}
}

func TestBackendFailure(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListErr = errors.New("disk on fire")
	ts := newTestServer(t, svc)

	status, body := do(t, http.MethodGet, ts.URL+"/todos", "")
	if status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", status)
	}
	if !strings.Contains(body, "disk on fire") {
		t.Errorf("expected error text in body, got %s", body)
	}
}

func TestDelete_NoContent(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "one", false)
	ts := newTestServer(t, svc)

	status, body := do(t, http.MethodDelete, ts.URL+"/todos/a", "")
	if status != http.StatusNoContent || body != "" {
		t.Errorf("expected empty 204, got %d %q", status, body)
	}
	if len(svc.Stored()) != 0 {
		t.Error("expected task deleted")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, testutil.NewFakeService())

	if status, _ := do(t, http.MethodGet, ts.URL+"/health", ""); status != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", status)
	}
	do(t, http.MethodGet, ts.URL+"/todos", "")

	status, body := do(t, http.MethodGet, ts.URL+"/metrics", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", status)
	}
	if !strings.Contains(body, `http_requests_total{method="GET",route="/todos",status="200"} 1`) {
		t.Errorf("expected request counter in metrics, got:\n%s", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, testutil.NewFakeService())

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/todos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}

// blockingLister holds List open until release is closed or its ctx ends.
type blockingLister struct {
	*testutil.FakeService
	started chan struct{}
	release chan struct{}
}

func (b *blockingLister) List(ctx context.Context) ([]service.Task, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return b.FakeService.List(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestListSurvivesFirstCallerCancel(t *testing.T) {
	svc := &blockingLister{
		FakeService: testutil.NewFakeService(),
		started:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
	svc.AddTask("a", "Buy milk", false)
	h := New(svc, logging.Discard())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		req := httptest.NewRequest(http.MethodGet, "/todos", nil).WithContext(firstCtx)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}()

	select {
	case <-svc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("list was not called")
	}

	second := httptest.NewRecorder()
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/todos", nil))
	}()

	// Let the second request join the in-flight read, then drop the first.
	time.Sleep(50 * time.Millisecond)
	cancelFirst()
	<-firstDone
	close(svc.release)

	select {
	case <-secondDone:
	case <-time.After(5 * time.Second):
		t.Fatal("second request did not complete")
	}
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", second.Code, second.Body.String())
	}
	if !strings.Contains(second.Body.String(), "Buy milk") {
		t.Errorf("unexpected body: %s", second.Body.String())
	}
}
