package types

const (
	NotifyTypeInfo                = "info"
	NotifyTypeItemRejected        = "item_rejected"
	NotifyTypeUploadSucceeded     = "upload_succeeded"
	NotifyTypeUploadFailed        = "upload_failed"
	NotifyTypeProcessingRequested = "processing_requested"
	NotifyTypeProcessingFailed    = "processing_failed"
	NotifyTypePollFailed          = "poll_failed"
	NotifyTypeQueueChanged        = "queue_changed"
)

// Notification represents a user-visible event emitted by the engine.
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "upload_succeeded"
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
	IsError bool           `json:"isError,omitempty"` // Rendered as an error toast
}
