package queue

import "github.com/moyoez/cutqueue/types"

// CanRequestProcessing reports whether a processing request may include the item.
func CanRequestProcessing(item Item) bool {
	if item.ServerID == "" {
		return false
	}
	return item.Status == types.StatusUploaded || item.Status == types.StatusFailed
}

// IsPollable reports whether the poller still has to reconcile the item.
func IsPollable(item Item) bool {
	if item.ServerID == "" {
		return false
	}
	switch item.Status {
	case types.StatusUploading, types.StatusUploaded, types.StatusProcessing:
		return true
	default:
		return false
	}
}
