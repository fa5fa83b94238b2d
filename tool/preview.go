package tool

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PreviewRoutePrefix is where the local API serves preview files from.
const PreviewRoutePrefix = "/api/self/v1/previews/"

// FilePreview is a temp-file copy of an intake file, shown until the
// processing service supplies its own original location.
type FilePreview struct {
	path string
	url  string

	once sync.Once
	err  error
}

// PreviewFilePrefix starts the name of every preview file.
const PreviewFilePrefix = "preview-"

// PreviewDir returns dir, or the default preview folder under the OS temp dir when dir is empty.
func PreviewDir(dir string) string {
	if dir == "" {
		return filepath.Join(os.TempDir(), "cutqueue-previews")
	}
	return dir
}

// NewFilePreview copies r into a new file under dir. An empty dir uses PreviewDir.
func NewFilePreview(ctx context.Context, dir, name string, r io.Reader) (*FilePreview, error) {
	dir = PreviewDir(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create preview dir: %v", err)
	}
	ext := strings.ToLower(filepath.Ext(SafeFileName(name)))
	file, err := os.CreateTemp(dir, PreviewFilePrefix+GenerateShortID()+"-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview file: %v", err)
	}
	if _, err := CopyWithContext(ctx, file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, fmt.Errorf("failed to write preview file: %v", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return nil, fmt.Errorf("failed to close preview file: %v", err)
	}
	base := filepath.Base(file.Name())
	return &FilePreview{
		path: file.Name(),
		url:  PreviewRoutePrefix + base,
	}, nil
}

func (p *FilePreview) URL() string {
	return p.url
}

// Path is the preview file on disk.
func (p *FilePreview) Path() string {
	return p.path
}

// Release removes the preview file. Calling it more than once is a no-op.
func (p *FilePreview) Release() error {
	p.once.Do(func() {
		if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
			p.err = fmt.Errorf("failed to remove preview file: %v", err)
			return
		}
		DefaultLogger.Debugf("Released preview %s", p.path)
	})
	return p.err
}
