package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/queue"
	"github.com/moyoez/cutqueue/types"
)

func newTestPoller(t *testing.T, backend *fakeBackend) (*Poller, *queue.Store, *fakeNotifier) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	store := queue.NewStore()
	notifier := &fakeNotifier{}
	p := NewPoller(ctx, store, backend, notifier, 10*time.Millisecond)
	t.Cleanup(func() {
		cancel()
		<-p.Done()
	})
	return p, store, notifier
}

func waitDone(t *testing.T, p *Poller) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollerAppliesRecordsAndStops(t *testing.T) {
	backend := &fakeBackend{}
	p, s, _ := newTestPoller(t, backend)
	a := uploadedItem(t, s, "a.png", "s1")
	b := uploadedItem(t, s, "bb.png", "s2")
	backend.pollFn = func(ids []string) (normalize.Payload, error) {
		return mustPayload(t, `{"batch_download_url":"/zip/top","items":[
			{"id":"s1","status":"completed","processed_url":"/p/s1.png","batch_download_url":"/zip/rec"},
			{"id":"s2","status":"error","errors":[{"message":"bad input"}]}
		]}`), nil
	}

	p.Start()
	waitDone(t, p)

	gotA := mustFind(t, s, a.ClientID)
	if gotA.Status != types.StatusProcessed || gotA.Progress != 100 || gotA.ProcessedURL != "/p/s1.png" {
		t.Errorf("unexpected a %+v", gotA)
	}
	gotB := mustFind(t, s, b.ClientID)
	if gotB.Status != types.StatusFailed || gotB.Message != "bad input" {
		t.Errorf("unexpected b %+v", gotB)
	}
	if s.BatchDownloadURL() != "/zip/top" {
		t.Errorf("top-level batch url should win, got %q", s.BatchDownloadURL())
	}
	if p.Running() {
		t.Error("poller should stop once nothing is pollable")
	}
}

func TestPollerLastRecordBatchURLWins(t *testing.T) {
	backend := &fakeBackend{}
	p, s, _ := newTestPoller(t, backend)
	uploadedItem(t, s, "a.png", "s1")
	backend.pollFn = func([]string) (normalize.Payload, error) {
		return mustPayload(t, `[{"id":"s1","batch_download_url":"/zip/1"},{"id":"nope","batch_download_url":"/zip/2"}]`), nil
	}
	if _, err := p.PollNow(context.Background()); err != nil {
		t.Fatalf("PollNow: %v", err)
	}
	if s.BatchDownloadURL() != "/zip/2" {
		t.Errorf("batch url = %q", s.BatchDownloadURL())
	}
}

func TestPollerNoPollableMakesNoRequest(t *testing.T) {
	backend := &fakeBackend{}
	p, s, _ := newTestPoller(t, backend)
	enqueue(t, s, "queued.png", nil)

	p.Start()
	waitDone(t, p)
	if backend.polls() != 0 {
		t.Errorf("polls = %d, want 0", backend.polls())
	}
}

func TestPollerErrorsForceFailed(t *testing.T) {
	backend := &fakeBackend{pollFn: func([]string) (normalize.Payload, error) {
		return mustPayload(t, `{"id":"s1","status":"processing","progress":0.8,"errors":["model crashed"]}`), nil
	}}
	p, s, _ := newTestPoller(t, backend)
	a := uploadedItem(t, s, "a.png", "s1")

	if _, err := p.PollNow(context.Background()); err != nil {
		t.Fatalf("PollNow: %v", err)
	}
	got := mustFind(t, s, a.ClientID)
	if got.Status != types.StatusFailed || got.Message != "model crashed" {
		t.Errorf("unexpected item %+v", got)
	}
}

func TestPollerErrorFlagForcesFailed(t *testing.T) {
	backend := &fakeBackend{pollFn: func([]string) (normalize.Payload, error) {
		return mustPayload(t, `{"id":"s1","status":"processing","error":true}`), nil
	}}
	p, s, _ := newTestPoller(t, backend)
	a := uploadedItem(t, s, "a.png", "s1")

	if _, err := p.PollNow(context.Background()); err != nil {
		t.Fatalf("PollNow: %v", err)
	}
	got := mustFind(t, s, a.ClientID)
	if got.Status != types.StatusFailed || got.Message != "processing failed" {
		t.Errorf("unexpected item %+v", got)
	}
}

func TestPollerMatchesByClientIDFallback(t *testing.T) {
	backend := &fakeBackend{}
	p, s, _ := newTestPoller(t, backend)
	a := uploadedItem(t, s, "a.png", "s1")
	backend.pollFn = func([]string) (normalize.Payload, error) {
		return mustPayload(t, `{"data":[{"id":"`+a.ClientID+`","status":"processing","progress":40}]}`), nil
	}

	if _, err := p.PollNow(context.Background()); err != nil {
		t.Fatalf("PollNow: %v", err)
	}
	got := mustFind(t, s, a.ClientID)
	if got.Status != types.StatusProcessing || got.Progress != 40 || got.ServerID != "s1" {
		t.Errorf("unexpected item %+v", got)
	}
}

func TestPollerFailureNotifiesOncePerOutage(t *testing.T) {
	fail := true
	backend := &fakeBackend{}
	backend.pollFn = func([]string) (normalize.Payload, error) {
		if fail {
			return normalize.Payload{}, errors.New("connection refused")
		}
		return mustPayload(t, `[]`), nil
	}
	p, s, notifier := newTestPoller(t, backend)
	a := uploadedItem(t, s, "a.png", "s1")
	before := mustFind(t, s, a.ClientID)

	for i := 0; i < 3; i++ {
		if _, err := p.PollNow(context.Background()); !errors.Is(err, ErrPollFailed) {
			t.Fatalf("expected ErrPollFailed, got %v", err)
		}
	}
	if n := notifier.ofType(types.NotifyTypePollFailed); len(n) != 1 {
		t.Fatalf("expected one notification per outage, got %d", len(n))
	}
	if s.Advisory() == "" {
		t.Error("expected an advisory during the outage")
	}
	if after := mustFind(t, s, a.ClientID); !reflect.DeepEqual(before, after) {
		t.Errorf("poll failure changed the item: %+v -> %+v", before, after)
	}

	fail = false
	if _, err := p.PollNow(context.Background()); err != nil {
		t.Fatalf("PollNow: %v", err)
	}
	if s.Advisory() != "" {
		t.Error("advisory should clear after recovery")
	}
	fail = true
	_, _ = p.PollNow(context.Background())
	if n := notifier.ofType(types.NotifyTypePollFailed); len(n) != 2 {
		t.Errorf("expected a new notification after recovery, got %d", len(n))
	}
}

func TestPollerIdempotent(t *testing.T) {
	backend := &fakeBackend{pollFn: func([]string) (normalize.Payload, error) {
		return mustPayload(t, `{"result":[{"id":"s1","status":"in_progress","progress":0.42,"message":"denoising"}]}`), nil
	}}
	p, s, _ := newTestPoller(t, backend)
	a := uploadedItem(t, s, "a.png", "s1")

	_, _ = p.PollNow(context.Background())
	first := mustFind(t, s, a.ClientID)
	_, _ = p.PollNow(context.Background())
	second := mustFind(t, s, a.ClientID)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second identical poll changed the item: %+v -> %+v", first, second)
	}
	if first.Progress != 42 || first.Message != "denoising" {
		t.Errorf("unexpected item %+v", first)
	}
}

func TestPollerSingleFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	backend := &fakeBackend{pollFn: func([]string) (normalize.Payload, error) {
		entered <- struct{}{}
		<-release
		return mustPayload(t, `[]`), nil
	}}
	p, s, _ := newTestPoller(t, backend)
	uploadedItem(t, s, "a.png", "s1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.PollNow(context.Background())
	}()
	<-entered

	ran, err := p.PollNow(context.Background())
	if ran || err != nil {
		t.Errorf("overlapping pass should be skipped, got ran=%v err=%v", ran, err)
	}
	close(release)
	<-done
	if backend.polls() != 1 {
		t.Errorf("polls = %d, want 1", backend.polls())
	}
}

func TestPollerStartIsNoOpWhileRunning(t *testing.T) {
	backend := &fakeBackend{}
	p, s, _ := newTestPoller(t, backend)
	uploadedItem(t, s, "a.png", "s1")

	p.Start()
	first := p.Done()
	p.Start()
	if p.Done() != first {
		t.Error("second Start should not spawn a new loop")
	}
	p.Stop()
	waitDone(t, p)
	if p.Running() {
		t.Error("poller should be stopped")
	}
}

func TestPollerKeepsRunningThroughFailures(t *testing.T) {
	backend := &fakeBackend{}
	p, s, notifier := newTestPoller(t, backend)
	a := uploadedItem(t, s, "a.png", "s1")
	backend.pollFn = func([]string) (normalize.Payload, error) {
		return normalize.Payload{}, errors.New("connection refused")
	}

	p.Start()
	deadline := time.Now().Add(2 * time.Second)
	for backend.polls() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if backend.polls() < 2 {
		t.Fatalf("expected repeated passes, got %d", backend.polls())
	}
	if !p.Running() {
		t.Error("a failed poll must not stop the loop")
	}
	if n := notifier.ofType(types.NotifyTypePollFailed); len(n) != 1 {
		t.Errorf("expected one notification for the outage, got %d", len(n))
	}
	if got := mustFind(t, s, a.ClientID); got.Status != types.StatusUploaded {
		t.Errorf("a failed poll must not touch items, got %s", got.Status)
	}
}
