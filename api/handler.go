package api

import (
	"sync"

	"github.com/moyoez/cutqueue/api/controllers"
	"github.com/moyoez/cutqueue/api/models"
	"github.com/moyoez/cutqueue/types"
)

// QueueChangeHandler pushes the rendered queue to websocket clients whenever
// the store changes. Pushes are coalesced: while one is being sent, further
// changes collapse into a single follow-up push.
type QueueChangeHandler struct {
	mu      sync.Mutex
	running bool
	dirty   bool
	push    func()
}

// NewQueueChangeHandler returns a handler pushing through the hub set in models.
func NewQueueChangeHandler() *QueueChangeHandler {
	return &QueueChangeHandler{push: pushQueue}
}

// OnChange is installed as the store change hook.
func (h *QueueChangeHandler) OnChange() {
	h.mu.Lock()
	if h.running {
		h.dirty = true
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go func() {
		for {
			h.push()
			h.mu.Lock()
			if !h.dirty {
				h.running = false
				h.mu.Unlock()
				return
			}
			h.dirty = false
			h.mu.Unlock()
		}
	}()
}

func pushQueue() {
	hub := models.GetNotifyHub()
	e := models.GetEngine()
	if hub == nil || e == nil || hub.Len() == 0 {
		return
	}
	hub.Broadcast(&types.Notification{
		Type: types.NotifyTypeQueueChanged,
		Data: map[string]any{"queue": controllers.BuildQueueView(e)},
	})
}
