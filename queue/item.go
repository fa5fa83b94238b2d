package queue

import (
	"io"
	"time"

	"github.com/moyoez/cutqueue/types"
)

// Item is one tracked file. Values handed out by the Store are copies; the
// payload and preview stay owned by the Store's internal item.
type Item struct {
	ClientID     string       `json:"clientId"`
	ServerID     string       `json:"serverId,omitempty"`
	Name         string       `json:"name"`
	SizeBytes    int64        `json:"sizeBytes"`
	LastModified time.Time    `json:"lastModified"`
	Status       types.Status `json:"status"`
	Progress     int          `json:"progress"`
	Message      string       `json:"message"`

	OriginalURL          string `json:"originalUrl,omitempty"`
	ProcessedURL         string `json:"processedUrl,omitempty"`
	DownloadOriginalURL  string `json:"downloadOriginalUrl,omitempty"`
	DownloadProcessedURL string `json:"downloadProcessedUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	seq     uint64
	payload io.ReadCloser
	preview Preview
}

// Candidate is a file offered for intake.
type Candidate struct {
	Name         string
	SizeBytes    int64
	LastModified time.Time
	// Payload is the upload body. Ownership moves to the item on successful
	// enqueue; on rejection the caller keeps it.
	Payload io.ReadCloser
	// Preview is an optional locally created preview, owned like Payload.
	Preview Preview
}

// Preview is a locally created display resource for an item. It is released
// once the server provides its own original location, or when the store closes.
type Preview interface {
	URL() string
	Release() error
}

type identity struct {
	name     string
	size     int64
	modified int64
}

func identityOf(name string, size int64, modified time.Time) identity {
	// browsers report lastModified in milliseconds
	return identity{name: name, size: size, modified: modified.UnixMilli()}
}

func (it *Item) view() Item {
	out := *it
	out.payload = nil
	out.preview = nil
	return out
}

// enforce keeps the progress invariants after every mutation.
func (it *Item) enforce() {
	if it.Progress < 0 {
		it.Progress = 0
	}
	if it.Progress > 100 {
		it.Progress = 100
	}
	if it.Status == types.StatusProcessed {
		it.Progress = 100
	}
}
