package pipeline

import (
	"context"
	"fmt"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/types"
)

const genericProcessingFailure = "Processing request failed."

// Process asks the service to process the listed items in one batch. ids may be
// server or client identifiers; items not eligible for processing are skipped.
//
// The items move to processing before the request is sent, in the same step
// that checks their eligibility, so concurrent calls never batch an item twice.
// If the request fails every item gets its prior status and message back, and
// the returned error wraps ErrProcessingRequest.
func (e *Engine) Process(ctx context.Context, ids []string, displayName string) error {
	tx, items := e.store.BeginProcessing(ids)
	if len(items) == 0 {
		return fmt.Errorf("%w: no eligible items", ErrProcessingRequest)
	}
	serverIDs := make([]string, 0, len(items))
	for _, item := range items {
		serverIDs = append(serverIDs, item.ServerID)
	}
	e.poller.Start()

	payload, err := e.backend.RequestProcessing(ctx, serverIDs)
	if err != nil {
		tx.Rollback()
		message := failureText(err, genericProcessingFailure)
		e.store.SetAdvisory(message)
		e.notifier.Notify(types.Notification{
			Type:    types.NotifyTypeProcessingFailed,
			Title:   "Processing request failed",
			Message: message,
			Data:    map[string]any{"ids": serverIDs, "error": err.Error()},
			IsError: true,
		})
		return fmt.Errorf("%w: %v", ErrProcessingRequest, err)
	}
	tx.Commit()

	if url := payload.BatchDownloadURL(); url != "" {
		e.store.SetBatchDownloadURL(url)
	}
	e.store.SetAdvisory("")

	var message string
	if len(serverIDs) == 1 {
		name := displayName
		if name == "" {
			name = items[0].Name
		}
		message = fmt.Sprintf("%s sent for processing", name)
	} else {
		message = fmt.Sprintf("%d images sent for processing", len(serverIDs))
	}
	data := map[string]any{"ids": serverIDs}
	if serverMsg := payload.First().String(normalize.MessageKeys...); serverMsg != "" {
		data["serverMessage"] = serverMsg
	}
	e.notifier.Notify(types.Notification{
		Type:    types.NotifyTypeProcessingRequested,
		Title:   "Processing requested",
		Message: message,
		Data:    data,
	})
	return nil
}
