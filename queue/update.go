package queue

import (
	"io"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/types"
)

// mutate runs fn on the item under the store lock and fires the change hook.
func (s *Store) mutate(clientID string, fn func(item *Item) error) (Item, error) {
	s.mu.Lock()
	item, ok := s.byClient[clientID]
	if !ok {
		s.mu.Unlock()
		return Item{}, ErrNotFound
	}
	if err := fn(item); err != nil {
		s.mu.Unlock()
		return Item{}, err
	}
	item.enforce()
	view := item.view()
	s.mu.Unlock()
	s.changed()
	return view, nil
}

// MarkUploading moves an item into the uploading state.
func (s *Store) MarkUploading(clientID string) (Item, error) {
	return s.mutate(clientID, func(item *Item) error {
		if item.Status == types.StatusUploading {
			return ErrItemBusy
		}
		item.Status = types.StatusUploading
		item.Progress = 0
		item.Message = ""
		return nil
	})
}

// TakePayload hands the upload payload over to the caller, who must close it.
func (s *Store) TakePayload(clientID string) (io.ReadCloser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.byClient[clientID]
	if !ok || item.payload == nil {
		return nil, false
	}
	payload := item.payload
	item.payload = nil
	return payload, true
}

// MarkFailed records a terminal local failure such as a failed upload.
func (s *Store) MarkFailed(clientID, message string) (Item, error) {
	return s.mutate(clientID, func(item *Item) error {
		item.Status = types.StatusFailed
		item.Progress = 0
		item.Message = message
		return nil
	})
}

// ApplyServerUpdate merges a normalized server record into an item.
//
// Absent fields never clear existing values. An errors list or error field forces
// failed and overwrites the message; otherwise an explicit message replaces it.
// A processed item always reports 100 and gives up its local preview once the
// server supplies a different original location.
func (s *Store) ApplyServerUpdate(clientID string, u normalize.Update) (Item, error) {
	var superseded Preview
	view, err := s.mutate(clientID, func(item *Item) error {
		if item.ServerID == "" && u.ServerID != "" {
			if _, taken := s.byServer[u.ServerID]; !taken {
				item.ServerID = u.ServerID
				s.byServer[u.ServerID] = item
			}
		}
		if u.Status != "" {
			item.Status = u.Status
		}
		if u.HasProgress {
			item.Progress = u.Progress
		}
		switch {
		case u.HasError:
			item.Status = types.StatusFailed
			item.Message = u.ErrorText
		case u.HasMessage:
			item.Message = u.Message
		}
		setIfPresent(&item.OriginalURL, u.OriginalURL)
		setIfPresent(&item.ProcessedURL, u.ProcessedURL)
		setIfPresent(&item.DownloadOriginalURL, u.DownloadOriginalURL)
		setIfPresent(&item.DownloadProcessedURL, u.DownloadProcessedURL)

		if item.Status == types.StatusProcessed {
			item.Progress = 100
			if item.preview != nil && item.OriginalURL != "" && item.OriginalURL != item.preview.URL() {
				superseded = item.preview
				item.preview = nil
			}
		}
		return nil
	})
	if superseded != nil {
		releasePreview(superseded, clientID)
	}
	return view, err
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
