package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/queue"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

const genericPollFailure = "Lost contact with the processing service. Retrying."

// StatusBackend is the part of Backend the poller needs.
type StatusBackend interface {
	PollStatus(ctx context.Context, ids []string) (normalize.Payload, error)
}

// Poller reconciles pollable items with the service at a fixed interval. It
// starts lazily, stops itself once nothing is pollable and never has more than
// one status request in flight.
//
// Lock order is Poller.mu before the store lock.
type Poller struct {
	ctx      context.Context
	store    *queue.Store
	backend  StatusBackend
	notifier Notifier
	interval time.Duration

	mu              sync.Mutex
	run             *pollRun
	last            *pollRun
	errorSuppressed bool

	inFlight atomic.Bool
}

type pollRun struct {
	stop chan struct{}
	done chan struct{}
}

// NewPoller creates a stopped poller. Cancelling ctx stops it for good.
func NewPoller(ctx context.Context, store *queue.Store, backend StatusBackend, notifier Notifier, interval time.Duration) *Poller {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if interval <= 0 {
		interval = tool.DefaultPollInterval
	}
	return &Poller{
		ctx:      ctx,
		store:    store,
		backend:  backend,
		notifier: notifier,
		interval: interval,
	}
}

// Start runs a pass immediately and then one per interval. It is a no-op while running.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.run != nil || p.ctx.Err() != nil {
		return
	}
	run := &pollRun{stop: make(chan struct{}), done: make(chan struct{})}
	p.run = run
	p.last = run
	tool.DefaultLogger.Debugf("Poller started, interval %v", p.interval)
	go p.loop(run)
}

// Stop halts the loop. A pass already in flight completes but its successor does not run.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.haltLocked(p.run)
}

// Running reports whether the loop is scheduled.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run != nil
}

// Done returns a channel closed once the most recently started loop has
// exited. It is already closed when the poller never ran.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return p.last.done
}

// PollNow runs one pass outside the schedule. It returns false without a
// request when another pass is in flight.
func (p *Poller) PollNow(ctx context.Context) (bool, error) {
	return p.pass(ctx, nil)
}

func (p *Poller) loop(run *pollRun) {
	defer close(run.done)

	if _, err := p.pass(p.ctx, run); err != nil {
		tool.DefaultLogger.Debugf("Poll pass: %v", err)
	}
	if !p.isCurrent(run) {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			p.mu.Lock()
			p.haltLocked(run)
			p.mu.Unlock()
			return
		case <-run.stop:
			return
		case <-ticker.C:
			// passes run on this goroutine, so ticks fired during one are dropped
			if _, err := p.pass(p.ctx, run); err != nil {
				tool.DefaultLogger.Debugf("Poll pass: %v", err)
			}
			if !p.isCurrent(run) {
				return
			}
		}
	}
}

func (p *Poller) isCurrent(run *pollRun) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run == run
}

// haltLocked stops run if it is still the active one.
func (p *Poller) haltLocked(run *pollRun) {
	if run == nil || p.run != run {
		return
	}
	close(run.stop)
	p.run = nil
	p.errorSuppressed = false
	tool.DefaultLogger.Debugf("Poller stopped")
}

// stopIfIdleLocked ends the active run when nothing is pollable. The store is
// read under p.mu so a concurrent Start either sees the run stopped or the
// pass sees the new pollable item.
func (p *Poller) stopIfIdleLocked() bool {
	if len(p.store.PollableIDs()) > 0 {
		return false
	}
	p.haltLocked(p.run)
	return true
}

// pass reports whether a status request was made.
func (p *Poller) pass(ctx context.Context, run *pollRun) (bool, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return false, nil
	}
	defer p.inFlight.Store(false)

	p.mu.Lock()
	if run != nil && p.run != run {
		p.mu.Unlock()
		return false, nil
	}
	ids := p.store.PollableIDs()
	if len(ids) == 0 {
		p.haltLocked(p.run)
		p.mu.Unlock()
		return false, nil
	}
	p.mu.Unlock()

	payload, err := p.backend.PollStatus(ctx, ids)
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		p.reportFailure(err)
		return true, fmt.Errorf("%w: %v", ErrPollFailed, err)
	}

	p.mu.Lock()
	recovered := p.errorSuppressed
	p.errorSuppressed = false
	p.mu.Unlock()
	if recovered {
		p.store.SetAdvisory("")
		tool.DefaultLogger.Infof("Status polling recovered")
	}

	p.apply(payload)

	p.mu.Lock()
	p.stopIfIdleLocked()
	p.mu.Unlock()
	return true, nil
}

func (p *Poller) apply(payload normalize.Payload) {
	applied := 0
	for _, rec := range payload.Records {
		u := normalize.FromRecord(rec)
		if u.ServerID == "" {
			continue
		}
		item, ok := p.store.Lookup(u.ServerID)
		if !ok {
			tool.DefaultLogger.Debugf("Status for unknown item %s ignored", u.ServerID)
			continue
		}
		if _, err := p.store.ApplyServerUpdate(item.ClientID, u); err != nil {
			tool.DefaultLogger.Debugf("Status for %s not applied: %v", u.ServerID, err)
			continue
		}
		applied++
	}
	if url := payload.BatchDownloadURL(); url != "" {
		p.store.SetBatchDownloadURL(url)
	}
	tool.DefaultLogger.Debugf("Poll pass applied %d of %d records (%s)", applied, len(payload.Records), payload.Shape)
}

func (p *Poller) reportFailure(err error) {
	p.mu.Lock()
	first := !p.errorSuppressed
	p.errorSuppressed = true
	p.mu.Unlock()

	tool.DefaultLogger.Warnf("Status poll failed: %v", err)
	if !first {
		return
	}
	message := failureText(err, genericPollFailure)
	p.store.SetAdvisory(message)
	p.notifier.Notify(types.Notification{
		Type:    types.NotifyTypePollFailed,
		Title:   "Status update failed",
		Message: message,
		Data:    map[string]any{"error": err.Error()},
		IsError: true,
	})
}
