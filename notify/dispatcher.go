package notify

import (
	"errors"
	"maps"
	"sync"

	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// NotifyHub broadcasts notifications to connected websocket clients.
type NotifyHub interface {
	Broadcast(notification *types.Notification)
}

// Recorder keeps notifications for later retrieval, e.g. a recent feed.
type Recorder interface {
	Record(notification types.Notification)
}

// Dispatcher fans a notification out to the log, the unix socket listener,
// the websocket hub and a recorder. Every sink is optional.
type Dispatcher struct {
	mu         sync.RWMutex
	socketPath string
	useSocket  bool
	hub        NotifyHub
	recorder   Recorder

	socketMissingLogged bool
}

// NewDispatcher creates a dispatcher. An empty socketPath uses DefaultUnixSocketPath.
func NewDispatcher(socketPath string, useSocket bool) *Dispatcher {
	if socketPath == "" {
		socketPath = DefaultUnixSocketPath
	}
	return &Dispatcher{socketPath: socketPath, useSocket: useSocket}
}

// SetHub sets the websocket hub, nil disables it.
func (d *Dispatcher) SetHub(hub NotifyHub) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hub = hub
}

// SetRecorder sets the recorder, nil disables it.
func (d *Dispatcher) SetRecorder(r Recorder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recorder = r
}

// Notify delivers n to every configured sink. Socket delivery runs in its own
// goroutine so a slow listener never stalls the caller.
func (d *Dispatcher) Notify(n types.Notification) {
	if n.Data != nil {
		n.Data = maps.Clone(n.Data)
	}
	if n.IsError {
		tool.DefaultLogger.Warnf("[Notify] %s: %s", n.Title, n.Message)
	} else {
		tool.DefaultLogger.Infof("[Notify] %s: %s", n.Title, n.Message)
	}

	d.mu.RLock()
	hub, recorder, useSocket, socketPath := d.hub, d.recorder, d.useSocket, d.socketPath
	d.mu.RUnlock()

	if recorder != nil {
		recorder.Record(n)
	}
	if hub != nil {
		hub.Broadcast(&n)
	}
	if useSocket {
		socketCopy := n
		if n.Data != nil {
			socketCopy.Data = maps.Clone(n.Data)
		}
		go d.sendSocket(&socketCopy, socketPath)
	}
}

func (d *Dispatcher) sendSocket(n *types.Notification, socketPath string) {
	err := SendNotification(n, socketPath)
	if err == nil {
		return
	}
	if errors.Is(err, ErrSocketNotFound) {
		d.mu.Lock()
		logged := d.socketMissingLogged
		d.socketMissingLogged = true
		d.mu.Unlock()
		if !logged {
			tool.DefaultLogger.Debugf("[Notify] %v, socket sink idle", err)
		}
		return
	}
	tool.DefaultLogger.Errorf("[Notify] Failed to send %s notification: %v", n.Type, err)
}
