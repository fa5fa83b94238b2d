package normalize

import (
	"testing"

	"github.com/moyoez/cutqueue/types"
)

func TestStatusTable(t *testing.T) {
	cases := map[string]types.Status{
		"queued":      types.StatusUploaded,
		"waiting":     types.StatusUploaded,
		"PENDING":     types.StatusUploaded,
		"uploading":   types.StatusUploading,
		"ready":       types.StatusUploaded,
		"uploaded":    types.StatusUploaded,
		"in_progress": types.StatusProcessing,
		"Processing":  types.StatusProcessing,
		"completed":   types.StatusProcessed,
		"complete":    types.StatusProcessed,
		"success":     types.StatusProcessed,
		"done":        types.StatusProcessed,
		"processed":   types.StatusProcessed,
		"error":       types.StatusFailed,
		"errored":     types.StatusFailed,
		"failed":      types.StatusFailed,
		" Archived ":  types.Status("archived"),
	}
	for raw, want := range cases {
		got, ok := Status(raw)
		if !ok || got != want {
			t.Errorf("Status(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	if _, ok := Status(""); ok {
		t.Error("empty status should be reported as absent")
	}
	if _, ok := Status(nil); ok {
		t.Error("nil status should be reported as absent")
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{0.42, 42, true},
		{75.0, 75, true},
		{75, 75, true},
		{1.0, 100, true},
		{0.0, 0, true},
		{150.0, 100, true},
		{-3.0, 0, true},
		{"0.5", 50, true},
		{"bad", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, ok := Progress(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Progress(%v) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestResolveShapes(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		shape   Shape
		records int
	}{
		{"bare array", `[{"id":"a"},{"id":"b"}]`, ShapeArray, 2},
		{"items wrapper", `{"items":[{"id":"a"}]}`, ShapeWrapped, 1},
		{"data wrapper", `{"data":[{"id":"a"},{"id":"b"},{"id":"c"}]}`, ShapeWrapped, 3},
		{"result object", `{"result":{"id":"a"}}`, ShapeWrapped, 1},
		{"images wrapper", `{"job_id":"j","images":[{"image_id":"a"}]}`, ShapeWrapped, 1},
		{"single record", `{"id":"a","status":"done"}`, ShapeSingle, 1},
		{"empty body", ``, ShapeEmpty, 0},
		{"scalar", `"ok"`, ShapeEmpty, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse([]byte(tc.body))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if p.Shape != tc.shape {
				t.Errorf("shape = %s, want %s", p.Shape, tc.shape)
			}
			if len(p.Records) != tc.records {
				t.Errorf("records = %d, want %d", len(p.Records), tc.records)
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestBatchDownloadURLPrecedence(t *testing.T) {
	p, _ := Parse([]byte(`{"items":[{"id":"a","zip_url":"/first.zip"},{"id":"b","batch_download_url":"/second.zip"}]}`))
	if got := p.BatchDownloadURL(); got != "/second.zip" {
		t.Errorf("last record should win, got %q", got)
	}

	p, _ = Parse([]byte(`{"batchDownloadUrl":"/top.zip","items":[{"id":"a","zip_url":"/first.zip"}]}`))
	if got := p.BatchDownloadURL(); got != "/top.zip" {
		t.Errorf("top-level location should win, got %q", got)
	}
}

func TestFromRecordErrorsForceFailure(t *testing.T) {
	rec := Record{"id": "abc", "status": "processing", "progress": 0.8, "errors": []any{"model crashed", map[string]any{"msg": "oom"}}}
	u := FromRecord(rec)
	if !u.HasError {
		t.Fatal("expected error flag")
	}
	if u.ErrorText != "model crashed; oom" {
		t.Errorf("ErrorText = %q", u.ErrorText)
	}
	if u.Progress != 80 || !u.HasProgress {
		t.Errorf("progress = %d", u.Progress)
	}
}

func TestFromRecordIgnoresFalseError(t *testing.T) {
	u := FromRecord(Record{"id": 12, "error": false, "errors": []any{}})
	if u.HasError {
		t.Error("error=false and an empty list must not flag an error")
	}
	if u.ServerID != "12" {
		t.Errorf("numeric ids should be rendered, got %q", u.ServerID)
	}
}

func TestFromRecordTrueErrorFlagForcesFailure(t *testing.T) {
	u := FromRecord(Record{"id": "abc", "status": "processing", "error": true})
	if !u.HasError {
		t.Fatal("error=true must flag an error")
	}
	if u.ErrorText != "processing failed" {
		t.Errorf("ErrorText = %q", u.ErrorText)
	}
}

func TestForUploadDefaults(t *testing.T) {
	u := ForUpload(Record{"file_id": "srv-1"}, "client-1")
	if u.ServerID != "srv-1" || u.Status != types.StatusUploaded || u.Progress != 100 {
		t.Errorf("unexpected defaults: %+v", u)
	}

	u = ForUpload(Record{"status": "completed", "progress": 0.3}, "client-1")
	if u.ServerID != "client-1" {
		t.Errorf("fallback id not used: %q", u.ServerID)
	}
	if u.Status != types.StatusProcessed || u.Progress != 100 {
		t.Errorf("processed upload must report 100, got %+v", u)
	}
}

func TestMessageFromBody(t *testing.T) {
	cases := map[string]string{
		`{"detail":"Unsupported file type for: a.txt"}`: "Unsupported file type for: a.txt",
		`{"error":"quota exceeded"}`:                    "quota exceeded",
		`{"detail":[{"loc":["body","files"],"msg":"field required"}]}`: "field required",
		"Internal Server Error\n":                                      "Internal Server Error",
		"":                                                             "",
	}
	for body, want := range cases {
		if got := MessageFromBody([]byte(body)); got != want {
			t.Errorf("MessageFromBody(%q) = %q, want %q", body, got, want)
		}
	}
}
