package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"tasklist/internal/service"
)

// memStore is an in-memory Store.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.data[key], nil
}

func (m *memStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// fakeClock returns a clock that advances by one second on every call.
func fakeClock() func() time.Time {
	t := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestClient(store Store, opts ...Option) *Client {
	opts = append([]Option{WithClock(fakeClock()), WithIDGenerator(seqIDs())}, opts...)
	return New(store, opts...)
}

func TestList_EmptyStore(t *testing.T) {
	c := newTestClient(newMemStore())

	tasks, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestList_MalformedDataReadsEmpty(t *testing.T) {
	for _, raw := range []string{"{not json", `{"id":"x"}`, "null", "   "} {
		store := newMemStore()
		store.data[DefaultKey] = []byte(raw)

		var logBuf bytes.Buffer
		log := logrus.New()
		log.SetOutput(&logBuf)

		c := newTestClient(store, WithLogger(log))
		tasks, err := c.List(context.Background())
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if len(tasks) != 0 {
			t.Errorf("%q: expected empty collection, got %d tasks", raw, len(tasks))
		}
		malformed := raw == "{not json" || raw == `{"id":"x"}`
		if malformed && !strings.Contains(logBuf.String(), "malformed") {
			t.Errorf("%q: expected malformed warning, got %q", raw, logBuf.String())
		}
	}
}

func TestList_StoreError(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	c := newTestClient(store)

	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected error from failing store")
	}
}

func TestCreate(t *testing.T) {
	store := newMemStore()
	c := newTestClient(store)

	task, err := c.Create(context.Background(), "  Buy milk  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "id-1" || task.Title != "Buy milk" || task.Completed {
		t.Errorf("unexpected task: %+v", task)
	}
	if !task.CreatedAt.Equal(task.UpdatedAt) {
		t.Errorf("expected createdAt == updatedAt, got %v / %v", task.CreatedAt, task.UpdatedAt)
	}

	tasks, _ := c.List(context.Background())
	if len(tasks) != 1 || tasks[0].ID != task.ID || !tasks[0].UpdatedAt.Equal(task.UpdatedAt) {
		t.Errorf("expected persisted task, got %+v", tasks)
	}
}

func TestCreate_EmptyTitle(t *testing.T) {
	store := newMemStore()
	c := newTestClient(store)

	_, err := c.Create(context.Background(), "   ")
	if !errors.Is(err, service.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if _, ok := store.data[DefaultKey]; ok {
		t.Error("expected nothing written")
	}
}

func TestCreate_DefaultIDsAreUnique(t *testing.T) {
	c := New(newMemStore())
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		task, err := c.Create(context.Background(), fmt.Sprintf("task %d", i))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[task.ID] {
			t.Fatalf("duplicate id %s", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestUpdate_MergesFields(t *testing.T) {
	c := newTestClient(newMemStore())
	ctx := context.Background()

	created, _ := c.Create(ctx, "Buy milk")

	toggled, err := c.Update(ctx, created.ID, service.SetCompleted(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !toggled.Completed || toggled.Title != "Buy milk" {
		t.Errorf("unexpected task after toggle: %+v", toggled)
	}
	if !toggled.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("expected updatedAt to advance")
	}
	if !toggled.CreatedAt.Equal(created.CreatedAt) || toggled.ID != created.ID {
		t.Errorf("id/createdAt changed: %+v", toggled)
	}

	renamed, err := c.Update(ctx, created.ID, service.SetTitle(" Buy oat milk "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renamed.Title != "Buy oat milk" || !renamed.Completed {
		t.Errorf("unexpected task after rename: %+v", renamed)
	}
}

func TestUpdate_ClockStepBackKeepsUpdatedAt(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Hour), base.Add(time.Minute)}
	clock := func() time.Time {
		now := times[0]
		if len(times) > 1 {
			times = times[1:]
		}
		return now
	}
	c := newTestClient(newMemStore(), WithClock(clock))
	ctx := context.Background()

	created, _ := c.Create(ctx, "Buy milk")
	first, err := c.Update(ctx, created.ID, service.SetCompleted(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Update(ctx, created.ID, service.SetCompleted(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Errorf("updatedAt moved backwards: %s -> %s", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	c := newTestClient(newMemStore())

	_, err := c.Update(context.Background(), "missing", service.SetCompleted(true))
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_EmptyTitleRejected(t *testing.T) {
	c := newTestClient(newMemStore())
	ctx := context.Background()
	created, _ := c.Create(ctx, "Buy milk")

	_, err := c.Update(ctx, created.ID, service.SetTitle("  "))
	if !errors.Is(err, service.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}

	tasks, _ := c.List(ctx)
	if tasks[0].Title != "Buy milk" {
		t.Errorf("title should be unchanged, got %q", tasks[0].Title)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	c := newTestClient(newMemStore())
	ctx := context.Background()

	a, _ := c.Create(ctx, "a")
	b, _ := c.Create(ctx, "b")

	if err := c.Delete(ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Delete(ctx, a.ID); err != nil {
		t.Fatalf("second delete should succeed, got %v", err)
	}
	if err := c.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("delete of unknown id should succeed, got %v", err)
	}

	tasks, _ := c.List(ctx)
	if len(tasks) != 1 || tasks[0].ID != b.ID {
		t.Errorf("expected only %s left, got %+v", b.ID, tasks)
	}
}

func TestWriteFailureIsReturned(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("disk full")
	c := newTestClient(store)

	if _, err := c.Create(context.Background(), "Buy milk"); err == nil {
		t.Fatal("expected write error")
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := newTestClient(NewFileStore(dir), WithKey("roundtrip"))
	ctx := context.Background()

	var want []service.Task
	for i := 0; i < 5; i++ {
		task, err := c.Create(ctx, fmt.Sprintf("task %d", i))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if i%2 == 0 {
			task, _ = c.Update(ctx, task.ID, service.SetCompleted(true))
		}
		want = append(want, task)
	}

	// A fresh client sees the same collection.
	got, err := New(NewFileStore(dir), WithKey("roundtrip")).List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := func(ts []service.Task) {
		sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
	}
	byID(want)
	byID(got)

	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Title != want[i].Title || got[i].Completed != want[i].Completed ||
			!got[i].CreatedAt.Equal(want[i].CreatedAt) || !got[i].UpdatedAt.Equal(want[i].UpdatedAt) {
			t.Errorf("task %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "roundtrip.json")); err != nil {
		t.Errorf("expected storage file: %v", err)
	}
}
