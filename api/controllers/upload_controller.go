package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/cutqueue/api/models"
	"github.com/moyoez/cutqueue/pipeline"
	"github.com/moyoez/cutqueue/queue"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// UserItemsAdd accepts one or more files as multipart form data and queues
// them for upload. Files go in "files" (or "file"); optional "lastModified"
// values (unix milliseconds) are matched to files by position.
// POST /api/self/v1/items
func UserItemsAdd(c *gin.Context) {
	e := requireEngine(c)
	if e == nil {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid multipart form: "+err.Error()))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required form field: files"))
		return
	}
	lastModified := form.Value["lastModified"]

	b := models.GetURLBuilder()
	added := make([]ItemView, 0, len(files))
	rejected := make(map[string]string)
	for i, fh := range files {
		info := types.FileInfo{
			FileName:     filepath.Base(strings.ReplaceAll(fh.Filename, "\\", "/")),
			Size:         fh.Size,
			FileType:     tool.DetectFileType(fh.Filename, fh.Header.Get("Content-Type")),
			LastModified: time.Now().UnixMilli(),
		}
		if i < len(lastModified) {
			if ms, err := strconv.ParseInt(strings.TrimSpace(lastModified[i]), 10, 64); err == nil && ms > 0 {
				info.LastModified = ms
			}
		}
		item, err := intakeFile(c.Request.Context(), e, info, fh)
		if err != nil {
			rejected[info.FileName] = rejectionText(err)
			continue
		}
		added = append(added, newItemView(item, b))
	}

	if len(added) == 0 {
		status := http.StatusBadRequest
		if allDuplicates(rejected) {
			status = http.StatusConflict
		}
		c.JSON(status, tool.FastReturnErrorWithData("no files were added", map[string]any{"rejected": rejected}))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnPartial(added, rejected))
}

// intakeFile copies the upload into a preview file and hands the engine a
// fresh handle on it as the upload payload.
func intakeFile(ctx context.Context, e *pipeline.Engine, info types.FileInfo, fh *multipart.FileHeader) (queue.Item, error) {
	src, err := fh.Open()
	if err != nil {
		return queue.Item{}, fmt.Errorf("failed to open form file: %v", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close form file: %v", err)
		}
	}()

	preview, err := tool.NewFilePreview(ctx, models.GetDefaultPreviewFolder(), info.FileName, src)
	if err != nil {
		return queue.Item{}, err
	}
	payload, err := os.Open(preview.Path())
	if err != nil {
		_ = preview.Release()
		return queue.Item{}, fmt.Errorf("failed to reopen preview file: %v", err)
	}
	return e.Add(info, payload, preview)
}

const duplicateText = "already in the queue"

func rejectionText(err error) string {
	switch {
	case errors.Is(err, queue.ErrDuplicateItem):
		return duplicateText
	case errors.Is(err, queue.ErrValidation):
		return strings.TrimPrefix(err.Error(), queue.ErrValidation.Error()+": ")
	default:
		return err.Error()
	}
}

func allDuplicates(rejected map[string]string) bool {
	if len(rejected) == 0 {
		return false
	}
	for _, reason := range rejected {
		if reason != duplicateText {
			return false
		}
	}
	return true
}
