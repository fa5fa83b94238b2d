package tool

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moyoez/cutqueue/types"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct{ name, declared, want string }{
		{"cat.png", "", "image/png"},
		{"cat.PNG", "application/octet-stream", "image/png"},
		{"cat.bin", "image/jpeg; charset=binary", "image/jpeg"},
		{"noext", "", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := DetectFileType(tt.name, tt.declared); got != tt.want {
			t.Errorf("DetectFileType(%q, %q) = %q, want %q", tt.name, tt.declared, got, tt.want)
		}
	}
}

func TestValidateFileInfo(t *testing.T) {
	allowed := []string{"image/png", "image/jpeg"}
	tests := []struct {
		name    string
		info    types.FileInfo
		allowed []string
		max     int64
		wantErr bool
	}{
		{"ok", types.FileInfo{FileName: "a.png", Size: 10, FileType: "image/png"}, allowed, 100, false},
		{"missing name", types.FileInfo{Size: 10, FileType: "image/png"}, allowed, 100, true},
		{"empty", types.FileInfo{FileName: "a.png", FileType: "image/png"}, allowed, 100, true},
		{"too big", types.FileInfo{FileName: "a.png", Size: 101, FileType: "image/png"}, allowed, 100, true},
		{"no limit", types.FileInfo{FileName: "a.png", Size: 1 << 30, FileType: "image/png"}, allowed, 0, false},
		{"not allowed", types.FileInfo{FileName: "a.gif", Size: 10, FileType: "image/gif"}, allowed, 100, true},
		{"any image", types.FileInfo{FileName: "a.gif", Size: 10, FileType: "image/gif"}, nil, 100, false},
		{"not an image", types.FileInfo{FileName: "a.txt", Size: 10, FileType: "text/plain"}, nil, 100, true},
		{"case", types.FileInfo{FileName: "a.png", Size: 10, FileType: "IMAGE/PNG"}, allowed, 100, false},
	}
	for _, tt := range tests {
		err := ValidateFileInfo(tt.info, tt.allowed, tt.max)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestGetFileInfoFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := GetFileInfoFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.FileName != "cat.png" || info.Size != 9 || info.FileType != "image/png" || info.LastModified == 0 {
		t.Errorf("Unexpected info %+v", info)
	}
	if _, err := GetFileInfoFromPath(dir); err == nil {
		t.Error("Expected an error for a directory")
	}
}

func TestSafeFileName(t *testing.T) {
	tests := map[string]string{
		"cat.png":          "cat.png",
		"../../etc/passwd": "passwd",
		`C:\pics\dog.jpg`:  "dog.jpg",
		"my photo (1).png": "my_photo__1_.png",
		"..":               "file",
		".hidden":          "hidden",
	}
	for in, want := range tests {
		if got := SafeFileName(in); got != want {
			t.Errorf("SafeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNextAvailablePath(t *testing.T) {
	dir := t.TempDir()
	if got := NextAvailablePath(dir, "cat.png"); got != filepath.Join(dir, "cat.png") {
		t.Errorf("got %q", got)
	}
	for _, name := range []string{"cat.png", "cat-2.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := NextAvailablePath(dir, "cat.png"); got != filepath.Join(dir, "cat-3.png") {
		t.Errorf("got %q", got)
	}
}

func TestCopyWithContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var dst bytes.Buffer
	if _, err := CopyWithContext(ctx, &dst, strings.NewReader("data")); err == nil {
		t.Error("Expected the cancelled context to stop the copy")
	}
}

func TestFilePreview(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFilePreview(context.Background(), dir, "../My Cat.PNG", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(p.Path()) != dir {
		t.Errorf("Preview written outside %s: %s", dir, p.Path())
	}
	base := filepath.Base(p.Path())
	if !strings.HasPrefix(base, PreviewFilePrefix) || !strings.HasSuffix(base, ".png") {
		t.Errorf("Unexpected preview name %q", base)
	}
	if p.URL() != PreviewRoutePrefix+base {
		t.Errorf("Unexpected preview URL %q", p.URL())
	}
	data, err := os.ReadFile(p.Path())
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("Preview content = %q, %v", data, err)
	}

	if err := p.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p.Path()); !os.IsNotExist(err) {
		t.Error("Expected the preview file to be removed")
	}
	if err := p.Release(); err != nil {
		t.Errorf("Second release should be a no-op, got %v", err)
	}
}
