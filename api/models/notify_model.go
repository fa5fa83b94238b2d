package models

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/moyoez/cutqueue/api/notifyhub"
	"github.com/moyoez/cutqueue/types"
)

// NotificationTTL is how long a notification stays in the recent feed.
const NotificationTTL = 10 * time.Minute

// MaxFeedEntries caps the recent feed returned to clients.
const MaxFeedEntries = 50

// FeedEntry is a recorded notification.
type FeedEntry struct {
	Seq        uint64             `json:"seq"`
	ReceivedAt time.Time          `json:"receivedAt"`
	Notice     types.Notification `json:"notification"`
}

// Feed records notifications for clients that poll instead of holding a websocket.
// Implements notify.Recorder.
type Feed struct {
	seq     atomic.Uint64
	entries *ttlworker.Cache[uint64, FeedEntry]
}

// NewFeed creates a feed whose entries expire after ttl.
func NewFeed(ttl time.Duration) *Feed {
	return &Feed{entries: ttlworker.NewCache[uint64, FeedEntry](ttl)}
}

// Record stores n as the newest entry.
func (f *Feed) Record(n types.Notification) {
	seq := f.seq.Add(1)
	f.entries.Set(seq, FeedEntry{Seq: seq, ReceivedAt: time.Now(), Notice: n})
}

// Since returns live entries newer than after, oldest first, at most MaxFeedEntries.
func (f *Feed) Since(after uint64) []FeedEntry {
	var out []FeedEntry
	_ = f.entries.Range(func(seq uint64, entry FeedEntry) error {
		if seq > after {
			out = append(out, entry)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b FeedEntry) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})
	if len(out) > MaxFeedEntries {
		out = out[len(out)-MaxFeedEntries:]
	}
	return out
}

var (
	notifyOptMu sync.RWMutex
	notifyHub   *notifyhub.Hub
	feed        = NewFeed(NotificationTTL)
)

// SetNotifyHub sets the hub for WebSocket notification broadcast (nil disables the route).
func SetNotifyHub(h *notifyhub.Hub) {
	notifyOptMu.Lock()
	defer notifyOptMu.Unlock()
	notifyHub = h
}

// GetNotifyHub returns the notify WebSocket hub, or nil if not set.
func GetNotifyHub() *notifyhub.Hub {
	notifyOptMu.RLock()
	defer notifyOptMu.RUnlock()
	return notifyHub
}

// GetFeed returns the process-wide recent notification feed.
func GetFeed() *Feed {
	return feed
}
