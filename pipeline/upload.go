package pipeline

import (
	"context"
	"fmt"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

const genericUploadFailure = "Upload failed. Check the connection to the processing service."

// Upload sends one queued item to the service and records the outcome. It is
// not retried; a failed item has to be removed and enqueued again.
func (e *Engine) Upload(ctx context.Context, clientID string) error {
	item, err := e.store.MarkUploading(clientID)
	if err != nil {
		return fmt.Errorf("failed to start upload: %w", err)
	}
	payload, ok := e.store.TakePayload(clientID)
	if !ok {
		e.failUpload(item.Name, clientID, "No file data to upload")
		return fmt.Errorf("%w: %s has no payload", ErrUploadFailed, item.Name)
	}

	tool.DefaultLogger.Debugf("Uploading %s (%s, %d bytes)", item.Name, clientID, item.SizeBytes)
	resp, err := e.backend.Upload(ctx, item.Name, payload)
	closeQuietly(payload)
	if err != nil {
		e.failUpload(item.Name, clientID, failureText(err, genericUploadFailure))
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	fallback := item.ServerID
	if fallback == "" {
		fallback = clientID
	}
	updated, err := e.store.ApplyServerUpdate(clientID, normalize.ForUpload(resp.First(), fallback))
	if err != nil {
		// removed while the request was in flight
		return fmt.Errorf("failed to record upload of %s: %w", item.Name, err)
	}
	e.poller.Start()

	if updated.Status == types.StatusFailed {
		e.notifier.Notify(types.Notification{
			Type:    types.NotifyTypeUploadFailed,
			Title:   "Upload failed",
			Message: fmt.Sprintf("%s: %s", updated.Name, updated.Message),
			Data:    itemData(updated.ClientID, updated.ServerID, updated.Name),
			IsError: true,
		})
		return fmt.Errorf("%w: %s", ErrUploadFailed, updated.Message)
	}
	e.notifier.Notify(types.Notification{
		Type:    types.NotifyTypeUploadSucceeded,
		Title:   "Upload complete",
		Message: fmt.Sprintf("%s uploaded", updated.Name),
		Data:    itemData(updated.ClientID, updated.ServerID, updated.Name),
	})
	return nil
}

func (e *Engine) failUpload(name, clientID, message string) {
	if _, err := e.store.MarkFailed(clientID, message); err != nil {
		tool.DefaultLogger.Warnf("Failed to mark %s failed: %v", clientID, err)
	}
	e.poller.Start()
	e.notifier.Notify(types.Notification{
		Type:    types.NotifyTypeUploadFailed,
		Title:   "Upload failed",
		Message: fmt.Sprintf("%s: %s", name, message),
		Data:    itemData(clientID, "", name),
		IsError: true,
	})
}

func itemData(clientID, serverID, name string) map[string]any {
	data := map[string]any{"clientId": clientID, "name": name}
	if serverID != "" {
		data["serverId"] = serverID
	}
	return data
}
