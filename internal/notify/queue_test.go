package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls int
	shown []Notification
	times []time.Time
	fail  map[int]bool // call index -> Show error
}

func (r *recordingNotifier) Show(_ context.Context, n Notification) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.calls
	r.calls++
	if r.fail[idx] {
		return "", errors.New("display unavailable")
	}
	r.shown = append(r.shown, n)
	r.times = append(r.times, time.Now())
	return "id", nil
}

func (r *recordingNotifier) GetAll(context.Context) ([]string, error) { return nil, nil }
func (r *recordingNotifier) Clear(context.Context, string) error      { return nil }

func (r *recordingNotifier) snapshot() ([]Notification, []time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.shown...), append([]time.Time(nil), r.times...)
}

func waitForShown(t *testing.T, r *recordingNotifier, want int) []time.Time {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		shown, times := r.snapshot()
		if len(shown) >= want {
			return times
		}
		time.Sleep(5 * time.Millisecond)
	}
	shown, _ := r.snapshot()
	t.Fatalf("shown = %d, want %d", len(shown), want)
	return nil
}

func TestQueueSpacing(t *testing.T) {
	rec := &recordingNotifier{}
	q := NewQueue(rec, nil, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue([]Notification{
		{Title: "a", Message: "1"},
		{Title: "b", Message: "2"},
		{Title: "c", Message: "3"},
	})

	times := waitForShown(t, rec, 3)
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < 30*time.Millisecond {
			t.Fatalf("gap %d = %v, want >= 30ms", i, gap)
		}
	}
}

func TestQueueDisabled(t *testing.T) {
	rec := &recordingNotifier{}
	q := NewQueue(rec, func() bool { return false }, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue([]Notification{{Title: "a"}, {Title: "b"}})

	time.Sleep(100 * time.Millisecond)
	if shown, _ := rec.snapshot(); len(shown) != 0 {
		t.Fatalf("shown = %d, want 0", len(shown))
	}
}

func TestQueueContinuesAfterShowError(t *testing.T) {
	rec := &recordingNotifier{fail: map[int]bool{0: true}}
	q := NewQueue(rec, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue([]Notification{{Title: "a"}, {Title: "b"}})

	waitForShown(t, rec, 1)
	shown, _ := rec.snapshot()
	if shown[0].Title != "b" {
		t.Fatalf("shown[0] = %q, want b", shown[0].Title)
	}
}

func TestQueueEmptyBatch(t *testing.T) {
	q := NewQueue(&recordingNotifier{}, nil, time.Millisecond)
	q.Enqueue(nil) // must not block or panic
}

func TestClearAll(t *testing.T) {
	n := &clearingNotifier{ids: []string{"a", "b", "c"}}
	if err := ClearAll(context.Background(), n); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if len(n.cleared) != 3 {
		t.Fatalf("cleared = %v", n.cleared)
	}
}

type clearingNotifier struct {
	ids     []string
	cleared []string
}

func (c *clearingNotifier) Show(context.Context, Notification) (string, error) { return "", nil }
func (c *clearingNotifier) GetAll(context.Context) ([]string, error)           { return c.ids, nil }
func (c *clearingNotifier) Clear(_ context.Context, id string) error {
	c.cleared = append(c.cleared, id)
	return nil
}
