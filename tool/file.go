package tool

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/moyoez/cutqueue/types"
)

// GetFileInfoFromPath reads the intake metadata of a local file.
func GetFileInfoFromPath(filePath string) (types.FileInfo, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return types.FileInfo{}, fmt.Errorf("failed to stat file: %v", err)
	}
	if fileInfo.IsDir() {
		return types.FileInfo{}, fmt.Errorf("path is a directory, not a file")
	}
	return types.FileInfo{
		FileName:     filepath.Base(filePath),
		Size:         fileInfo.Size(),
		FileType:     DetectFileType(filePath, ""),
		LastModified: fileInfo.ModTime().UnixMilli(),
	}, nil
}

// DetectFileType prefers the declared content type and falls back to the extension.
func DetectFileType(fileName, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
			return mediaType
		}
	}
	fileType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if fileType == "" {
		return "application/octet-stream"
	}
	if mediaType, _, err := mime.ParseMediaType(fileType); err == nil {
		return mediaType
	}
	return fileType
}

// ValidateFileInfo is the intake policy: a non-empty file of an allowed image
// type no larger than maxBytes. maxBytes <= 0 disables the size limit and an
// empty allowed list accepts any image/* type.
func ValidateFileInfo(info types.FileInfo, allowed []string, maxBytes int64) error {
	if strings.TrimSpace(info.FileName) == "" {
		return fmt.Errorf("fileName is required")
	}
	if info.Size <= 0 {
		return fmt.Errorf("%s is empty", info.FileName)
	}
	if maxBytes > 0 && info.Size > maxBytes {
		return fmt.Errorf("%s is %d bytes, limit is %d", info.FileName, info.Size, maxBytes)
	}
	fileType := strings.ToLower(info.FileType)
	if len(allowed) == 0 {
		if !strings.HasPrefix(fileType, "image/") {
			return fmt.Errorf("unsupported file type for %s: %s", info.FileName, info.FileType)
		}
		return nil
	}
	if !slices.ContainsFunc(allowed, func(t string) bool { return strings.EqualFold(t, fileType) }) {
		return fmt.Errorf("unsupported file type for %s: %s", info.FileName, info.FileType)
	}
	return nil
}
