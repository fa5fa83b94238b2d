package normalize

import (
	"strings"

	"github.com/moyoez/cutqueue/types"
)

// Update is the canonical form of one server record, ready to be merged into an item.
// Zero values mean "absent": they never clear existing item fields.
type Update struct {
	ServerID string
	Status   types.Status

	Progress    int
	HasProgress bool

	Message    string
	HasMessage bool

	// ErrorText is set when the record carries an errors list or an error field.
	ErrorText string
	HasError  bool

	OriginalURL          string
	ProcessedURL         string
	DownloadOriginalURL  string
	DownloadProcessedURL string
	BatchDownloadURL     string
}

// FromRecord normalizes a status record.
func FromRecord(rec Record) Update {
	u := Update{
		ServerID:             rec.ID(),
		OriginalURL:          rec.String(OriginalURLKeys...),
		ProcessedURL:         rec.String(ProcessedURLKeys...),
		DownloadOriginalURL:  rec.String(DownloadOriginalKeys...),
		DownloadProcessedURL: rec.String(DownloadProcessedKey...),
		BatchDownloadURL:     rec.String(BatchURLKeys...),
	}
	if raw, ok := rec.First(StatusKeys...); ok {
		if status, ok := Status(raw); ok {
			u.Status = status
		}
	}
	if raw, ok := rec.First(ProgressKeys...); ok {
		u.Progress, u.HasProgress = Progress(raw)
	}
	if msg, ok := rec.First(MessageKeys...); ok {
		if s, isString := msg.(string); isString {
			u.Message, u.HasMessage = strings.TrimSpace(s), true
		}
	}
	if errs := rec.Errors(); len(errs) > 0 {
		u.ErrorText = strings.Join(errs, "; ")
		u.HasError = true
	}
	return u
}

// ForUpload normalizes an upload response. The identifier falls back to fallbackID,
// a missing status means uploaded and a missing progress means 100.
func ForUpload(rec Record, fallbackID string) Update {
	u := FromRecord(rec)
	if u.ServerID == "" {
		u.ServerID = fallbackID
	}
	if u.Status == "" {
		u.Status = types.StatusUploaded
	}
	if !u.HasProgress {
		u.Progress, u.HasProgress = 100, true
	}
	if u.Status == types.StatusProcessed {
		u.Progress = 100
	}
	return u
}
