package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/queue"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// Backend is the remote image-processing service.
type Backend interface {
	Upload(ctx context.Context, name string, data io.Reader) (normalize.Payload, error)
	RequestProcessing(ctx context.Context, ids []string) (normalize.Payload, error)
	PollStatus(ctx context.Context, ids []string) (normalize.Payload, error)
}

// Notifier presents user-visible events.
type Notifier interface {
	Notify(n types.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(types.Notification) {}

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	PollInterval time.Duration
	// Validate is the intake policy; nil accepts everything.
	Validate func(info types.FileInfo) error
	Notifier Notifier
}

// Engine drives items through upload, processing and reconciliation.
type Engine struct {
	store    *queue.Store
	backend  Backend
	notifier Notifier
	validate func(info types.FileInfo) error
	poller   *Poller

	ctx     context.Context
	cancel  context.CancelFunc
	uploads sync.WaitGroup

	closeOnce sync.Once
}

// NewEngine wires an engine around store and backend.
func NewEngine(store *queue.Store, backend Backend, opts Options) *Engine {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = tool.DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:    store,
		backend:  backend,
		notifier: opts.Notifier,
		validate: opts.Validate,
		poller:   NewPoller(ctx, store, backend, opts.Notifier, opts.PollInterval),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (e *Engine) Store() *queue.Store {
	return e.store
}

func (e *Engine) Poller() *Poller {
	return e.poller
}

// Add validates and enqueues a file, then starts its upload in the background.
// The engine owns payload and preview from here on: a rejected file has both
// released before Add returns.
func (e *Engine) Add(info types.FileInfo, payload io.ReadCloser, preview queue.Preview) (queue.Item, error) {
	reject := func(err error) (queue.Item, error) {
		closeQuietly(payload)
		if preview != nil {
			if relErr := preview.Release(); relErr != nil {
				tool.DefaultLogger.Warnf("Failed to release preview of rejected %s: %v", info.FileName, relErr)
			}
		}
		e.notifier.Notify(types.Notification{
			Type:    types.NotifyTypeItemRejected,
			Title:   "File not added",
			Message: err.Error(),
			Data:    map[string]any{"name": info.FileName},
			IsError: true,
		})
		return queue.Item{}, err
	}

	if e.validate != nil {
		if err := e.validate(info); err != nil {
			return reject(fmt.Errorf("%w: %v", queue.ErrValidation, err))
		}
	}
	item, err := e.store.Enqueue(queue.Candidate{
		Name:         info.FileName,
		SizeBytes:    info.Size,
		LastModified: time.UnixMilli(info.LastModified),
		Payload:      payload,
		Preview:      preview,
	})
	if err != nil {
		return reject(err)
	}

	e.uploads.Add(1)
	go func() {
		defer e.uploads.Done()
		if err := e.Upload(e.ctx, item.ClientID); err != nil {
			tool.DefaultLogger.Warnf("Upload of %s: %v", item.Name, err)
		}
	}()
	return item, nil
}

// Remove drops a settled item so the same file can be enqueued again.
func (e *Engine) Remove(clientID string) error {
	return e.store.Remove(clientID)
}

// Wait blocks until every upload started so far has finished.
func (e *Engine) Wait() {
	e.uploads.Wait()
}

// Close stops the poller, waits for in-flight uploads to give up and releases
// every preview still owned by an item.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		e.poller.Stop()
		e.uploads.Wait()
		<-e.poller.Done()
		e.store.Close()
		tool.DefaultLogger.Debugf("Engine closed")
	})
}

func closeQuietly(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		tool.DefaultLogger.Warnf("Failed to close payload: %v", err)
	}
}
