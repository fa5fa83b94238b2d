package transfer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(types.AppConfig{
		Backend:           srv.URL + "/",
		UploadPath:        "/api/upload",
		ProcessPath:       "/api/process",
		StatusPath:        "/api/status",
		BatchDownloadPath: "/api/download/batch",
		ItemDownloadPath:  "/api/download/{id}/{variant}",
		HealthPath:        "/health",
	}, srv.Client())
}

func TestUploadSendsMultipartFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile(UploadField)
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "photo.jpg" {
			t.Errorf("filename = %q", header.Filename)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("data = %q", data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc123","status":"uploaded","progress":100}`))
	})

	payload, err := client.Upload(context.Background(), "photo.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	u := normalize.ForUpload(payload.First(), "client-1")
	if u.ServerID != "abc123" || u.Status != types.StatusUploaded || u.Progress != 100 {
		t.Errorf("unexpected update %+v", u)
	}
}

func TestUploadFailureCarriesServerText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"File is not an image"}`))
	})

	_, err := client.Upload(context.Background(), "notes.txt", strings.NewReader("text"))
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
	if respErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", respErr.StatusCode)
	}
	if respErr.Error() != "File is not an image" {
		t.Errorf("message = %q", respErr.Error())
	}
}

func TestRequestProcessingSendsIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body types.ProcessRequest
		data, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(data, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if strings.Join(body.IDs, ",") != "a,b" {
			t.Errorf("ids = %v", body.IDs)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		_, _ = w.Write([]byte(`{"message":"queued","batch_download_url":"/api/download/batch?ids=a,b"}`))
	})

	payload, err := client.RequestProcessing(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("RequestProcessing: %v", err)
	}
	if got := payload.BatchDownloadURL(); got != "/api/download/batch?ids=a,b" {
		t.Errorf("batch url = %q", got)
	}
}

func TestRequestProcessingRejectsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.RequestProcessing(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty ids")
	}
}

func TestPollStatusQueryAndShapes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "s1,s2" {
			t.Errorf("ids query = %q", got)
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"s1","status":"done"},{"id":"s2","state":"in_progress","progress":0.5}]}`))
	})

	payload, err := client.PollStatus(context.Background(), []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("PollStatus: %v", err)
	}
	if payload.Shape != normalize.ShapeWrapped || len(payload.Records) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	second := normalize.FromRecord(payload.Records[1])
	if second.Status != types.StatusProcessing || second.Progress != 50 {
		t.Errorf("unexpected update %+v", second)
	}
}

func TestPollStatusNonJSONSuccessIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	payload, err := client.PollStatus(context.Background(), []string{"s1"})
	if err != nil {
		t.Fatalf("PollStatus: %v", err)
	}
	if payload.Shape != normalize.ShapeEmpty {
		t.Errorf("shape = %v", payload.Shape)
	}
}

func TestHealth(t *testing.T) {
	healthy := true
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	healthy = false
	if err := client.Health(context.Background()); err == nil {
		t.Fatal("expected unhealthy error")
	}
}

func TestDownloadURLs(t *testing.T) {
	client := NewClient(types.AppConfig{
		Backend:           "http://svc:8000",
		BatchDownloadPath: "/api/download/batch",
		ItemDownloadPath:  "/api/download/{id}/{variant}",
	}, nil)

	got, err := client.BatchDownloadURL("", []string{"a", "b"})
	if err != nil {
		t.Fatalf("BatchDownloadURL: %v", err)
	}
	if got != "http://svc:8000/api/download/batch?ids=a%2Cb" {
		t.Errorf("derived batch url = %q", got)
	}
	if got, _ := client.BatchDownloadURL("/zips/1.zip", nil); got != "http://svc:8000/zips/1.zip" {
		t.Errorf("server batch url = %q", got)
	}
	if _, err := client.BatchDownloadURL("", nil); err == nil {
		t.Error("expected error without processed ids")
	}
	if got, _ := client.ItemDownloadURL("", "x1", "processed"); got != "http://svc:8000/api/download/x1/processed" {
		t.Errorf("item url = %q", got)
	}
	if got, _ := client.ItemDownloadURL("https://cdn/x.png", "x1", "processed"); got != "https://cdn/x.png" {
		t.Errorf("server item url = %q", got)
	}
}

func TestDownloadWritesFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("png-data"))
	})
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cat.png"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, err := client.Download(context.Background(), client.Backend()+"/file", dir, "cat.png")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(path) != "cat-2.png" {
		t.Errorf("path = %s", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "png-data" {
		t.Errorf("content = %q", data)
	}
}
