package normalize

import (
	"strings"

	"github.com/moyoez/cutqueue/types"
)

var statusAliases = map[string]types.Status{
	"queued":      types.StatusUploaded,
	"waiting":     types.StatusUploaded,
	"pending":     types.StatusUploaded,
	"uploading":   types.StatusUploading,
	"uploaded":    types.StatusUploaded,
	"ready":       types.StatusUploaded,
	"processing":  types.StatusProcessing,
	"in_progress": types.StatusProcessing,
	"processed":   types.StatusProcessed,
	"completed":   types.StatusProcessed,
	"complete":    types.StatusProcessed,
	"success":     types.StatusProcessed,
	"done":        types.StatusProcessed,
	"failed":      types.StatusFailed,
	"error":       types.StatusFailed,
	"errored":     types.StatusFailed,
}

// Status maps a server status label onto the canonical vocabulary.
// "queued" from the server means the file is stored and waiting, so it maps to uploaded.
// Unknown labels pass through lower-cased. The second result is false when raw is
// absent or blank.
func Status(raw any) (types.Status, bool) {
	label := strings.ToLower(strings.TrimSpace(asString(raw)))
	if label == "" {
		return "", false
	}
	if status, ok := statusAliases[label]; ok {
		return status, true
	}
	return types.Status(label), true
}
