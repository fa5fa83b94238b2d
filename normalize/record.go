package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Field aliases accepted from the remote service. Order matters: the first
// non-empty value wins.
var (
	IDKeys               = []string{"id", "server_id", "serverId", "file_id", "fileId", "image_id", "imageId", "job_id", "jobId", "uuid"}
	StatusKeys           = []string{"status", "state", "stage"}
	ProgressKeys         = []string{"progress", "percent", "percentage"}
	MessageKeys          = []string{"message", "detail"}
	OriginalURLKeys      = []string{"original_url", "originalUrl", "preview_url", "previewUrl"}
	ProcessedURLKeys     = []string{"processed_url", "processedUrl", "result_url", "resultUrl", "output_url"}
	DownloadOriginalKeys = []string{"download_original_url", "downloadOriginalUrl"}
	DownloadProcessedKey = []string{"download_processed_url", "downloadProcessedUrl", "download_url", "downloadUrl"}
	BatchURLKeys         = []string{"batch_download_url", "batchDownloadUrl", "zip_url", "zipUrl", "archive_url", "archiveUrl"}
)

// Record is a single loosely typed object returned by the remote service.
type Record map[string]any

// First returns the first key in keys whose value is present, together with that value.
func (r Record) First(keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := r[key]; ok && v != nil {
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

// String returns the first non-empty value under keys rendered as a string.
func (r Record) String(keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(asString(r[key])); s != "" {
			return s
		}
	}
	return ""
}

// ID returns the record identifier, or "" when none is recognizable.
func (r Record) ID() string {
	return r.String(IDKeys...)
}

// Errors collects error texts from an "errors" list and a single "error" field.
// Entries may be plain strings or objects carrying message/msg/detail.
func (r Record) Errors() []string {
	var out []string
	if list, ok := r["errors"].([]any); ok {
		for _, entry := range list {
			if text := errorEntryText(entry); text != "" {
				out = append(out, text)
			}
		}
	}
	if text := errorEntryText(r["error"]); text != "" {
		out = append(out, text)
	}
	return out
}

const genericErrorText = "processing failed"

func errorEntryText(entry any) string {
	switch v := entry.(type) {
	case nil:
		return ""
	case bool:
		// a bare flag: true is an error without text, false is no error
		if v {
			return genericErrorText
		}
		return ""
	case map[string]any:
		return Record(v).String("message", "msg", "detail", "error")
	default:
		return strings.TrimSpace(asString(v))
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
