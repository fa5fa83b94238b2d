package normalize

import (
	"strings"
	"unicode/utf8"
)

// maxMessageLen bounds server text copied into an item message.
const maxMessageLen = 512

// MessageFromBody extracts a human readable failure text from a non-success
// response body. JSON bodies with detail/error/message are unwrapped, FastAPI
// validation lists included; anything else is used as plain text.
func MessageFromBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" || !utf8.ValidString(text) {
		return ""
	}
	if v, err := Decode(body); err == nil {
		if obj, ok := v.(map[string]any); ok {
			rec := Record(obj)
			if list, ok := rec["detail"].([]any); ok {
				var parts []string
				for _, entry := range list {
					if s := errorEntryText(entry); s != "" {
						parts = append(parts, s)
					}
				}
				if len(parts) > 0 {
					return truncate(strings.Join(parts, "; "))
				}
			}
			if s := rec.String("detail", "error", "message"); s != "" {
				return truncate(s)
			}
			if errs := rec.Errors(); len(errs) > 0 {
				return truncate(strings.Join(errs, "; "))
			}
		}
		if s, ok := v.(string); ok {
			return truncate(strings.TrimSpace(s))
		}
	}
	return truncate(text)
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
