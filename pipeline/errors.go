package pipeline

import (
	"errors"
	"fmt"

	"github.com/moyoez/cutqueue/transfer"
)

var (
	// ErrUploadFailed marks an item whose upload did not succeed; the item is failed
	// until it is removed and enqueued again.
	ErrUploadFailed = errors.New("upload failed")
	// ErrProcessingRequest marks a rejected processing batch; its items were rolled back.
	ErrProcessingRequest = errors.New("processing request failed")
	// ErrPollFailed marks a status pass that did not reach the service. Item state is unchanged.
	ErrPollFailed = errors.New("status poll failed")
)

// failureText is the user-facing text for err: the service's own words when it
// answered, generic otherwise.
func failureText(err error, generic string) string {
	var respErr *transfer.ResponseError
	if errors.As(err, &respErr) {
		if respErr.Message != "" {
			return respErr.Message
		}
		return fmt.Sprintf("%s (%s)", generic, respErr.Status)
	}
	return generic
}
