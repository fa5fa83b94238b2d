package types

// Status is the lifecycle state of a tracked item.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusUploading  Status = "uploading"
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// IsSettled reports whether no further server-driven transition is expected.
func (s Status) IsSettled() bool {
	return s == StatusProcessed || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}
