package queue

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// Store is the in-memory source of truth for tracked items and the batch download link.
type Store struct {
	mu               sync.RWMutex
	items            []*Item
	byClient         map[string]*Item
	byServer         map[string]*Item
	identities       map[identity]string
	batchDownloadURL string
	advisory         string
	seq              uint64
	closed           bool
	onChange         func()
	now              func() time.Time
	newID            func() string
}

// NewStore creates an empty queue store.
func NewStore() *Store {
	return &Store{
		byClient:   make(map[string]*Item),
		byServer:   make(map[string]*Item),
		identities: make(map[identity]string),
		now:        time.Now,
		newID:      tool.GenerateRandomUUID,
	}
}

// SetChangeHook registers fn to run after every mutation. fn runs without the
// store lock held and may read the store.
func (s *Store) SetChangeHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Store) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Enqueue builds a queued item from candidate. Duplicates are rejected with
// ErrDuplicateItem and leave the store untouched.
func (s *Store) Enqueue(c Candidate) (Item, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Item{}, ErrClosed
	}
	key := identityOf(c.Name, c.SizeBytes, c.LastModified)
	if existing, ok := s.identities[key]; ok {
		s.mu.Unlock()
		return Item{}, fmt.Errorf("%w: %s matches queued item %s", ErrDuplicateItem, c.Name, existing)
	}
	s.seq++
	item := &Item{
		ClientID:     s.newID(),
		Name:         c.Name,
		SizeBytes:    c.SizeBytes,
		LastModified: c.LastModified,
		Status:       types.StatusQueued,
		CreatedAt:    s.now(),
		seq:          s.seq,
		payload:      c.Payload,
		preview:      c.Preview,
	}
	if c.Preview != nil {
		item.OriginalURL = c.Preview.URL()
	}
	s.items = append(s.items, item)
	s.byClient[item.ClientID] = item
	s.identities[key] = item.ClientID
	view := item.view()
	s.mu.Unlock()

	tool.DefaultLogger.Debugf("Enqueued %s as %s", view.Name, view.ClientID)
	s.changed()
	return view, nil
}

// Remove drops a settled item and releases whatever it still owns.
func (s *Store) Remove(clientID string) error {
	s.mu.Lock()
	item, ok := s.byClient[clientID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if item.Status == types.StatusUploading || item.Status == types.StatusProcessing {
		s.mu.Unlock()
		return ErrItemBusy
	}
	s.items = slices.DeleteFunc(s.items, func(it *Item) bool { return it == item })
	delete(s.byClient, clientID)
	if item.ServerID != "" {
		delete(s.byServer, item.ServerID)
	}
	delete(s.identities, identityOf(item.Name, item.SizeBytes, item.LastModified))
	payload, preview := item.payload, item.preview
	item.payload, item.preview = nil, nil
	s.mu.Unlock()

	closePayload(payload, clientID)
	releasePreview(preview, clientID)
	s.changed()
	return nil
}

// Find looks an item up by client identifier.
func (s *Store) Find(clientID string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.byClient[clientID]
	if !ok {
		return Item{}, false
	}
	return item.view(), true
}

// FindByServerID looks an item up by server identifier.
func (s *Store) FindByServerID(serverID string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.byServer[serverID]
	if !ok {
		return Item{}, false
	}
	return item.view(), true
}

// Lookup resolves id as a server identifier first, then as a client identifier.
func (s *Store) Lookup(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.lookupLocked(id)
	if item == nil {
		return Item{}, false
	}
	return item.view(), true
}

func (s *Store) lookupLocked(id string) *Item {
	if id == "" {
		return nil
	}
	if item, ok := s.byServer[id]; ok {
		return item
	}
	return s.byClient[id]
}

// Items returns copies of all items ordered by creation time.
func (s *Store) Items() []Item {
	s.mu.RLock()
	out := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.view())
	}
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b Item) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.seq < b.seq {
			return -1
		}
		if a.seq > b.seq {
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of tracked items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// PollableIDs returns the server identifiers of every pollable item, in insertion order.
func (s *Store) PollableIDs() []string {
	return s.serverIDsWhere(IsPollable)
}

// EligibleIDs returns the server identifiers of every item a processing request may include.
func (s *Store) EligibleIDs() []string {
	return s.serverIDsWhere(CanRequestProcessing)
}

// ProcessedIDs returns the server identifiers of processed items.
func (s *Store) ProcessedIDs() []string {
	return s.serverIDsWhere(func(item Item) bool {
		return item.ServerID != "" && item.Status == types.StatusProcessed
	})
}

func (s *Store) serverIDsWhere(pred func(Item) bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, item := range s.items {
		if pred(*item) {
			ids = append(ids, item.ServerID)
		}
	}
	return ids
}

// BatchDownloadURL returns the server supplied batch archive location, if any.
func (s *Store) BatchDownloadURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batchDownloadURL
}

// SetBatchDownloadURL adopts url. Empty values are ignored; the link is never
// cleared automatically.
func (s *Store) SetBatchDownloadURL(url string) {
	if url == "" {
		return
	}
	s.mu.Lock()
	if s.batchDownloadURL == url {
		s.mu.Unlock()
		return
	}
	s.batchDownloadURL = url
	s.mu.Unlock()
	s.changed()
}

// Advisory returns the queue-wide advisory message.
func (s *Store) Advisory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.advisory
}

// SetAdvisory replaces the queue-wide advisory message; "" clears it.
func (s *Store) SetAdvisory(msg string) {
	s.mu.Lock()
	if s.advisory == msg {
		s.mu.Unlock()
		return
	}
	s.advisory = msg
	s.mu.Unlock()
	s.changed()
}

// Preview returns the local preview still owned by an item.
func (s *Store) Preview(clientID string) (Preview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.byClient[clientID]
	if !ok || item.preview == nil {
		return nil, false
	}
	return item.preview, true
}

// Close releases every payload and preview still owned by an item. Further
// enqueues fail with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	type owned struct {
		clientID string
		payload  io.ReadCloser
		preview  Preview
	}
	var release []owned
	for _, item := range s.items {
		if item.payload != nil || item.preview != nil {
			release = append(release, owned{item.ClientID, item.payload, item.preview})
			item.payload, item.preview = nil, nil
		}
	}
	s.mu.Unlock()

	for _, o := range release {
		closePayload(o.payload, o.clientID)
		releasePreview(o.preview, o.clientID)
	}
	if len(release) > 0 {
		tool.DefaultLogger.Debugf("Released resources of %d items on close", len(release))
	}
}

func closePayload(payload io.ReadCloser, clientID string) {
	if payload == nil {
		return
	}
	if err := payload.Close(); err != nil {
		tool.DefaultLogger.Warnf("Failed to close upload payload of %s: %v", clientID, err)
	}
}

func releasePreview(preview Preview, clientID string) {
	if preview == nil {
		return
	}
	if err := preview.Release(); err != nil {
		tool.DefaultLogger.Warnf("Failed to release preview of %s: %v", clientID, err)
	}
}
