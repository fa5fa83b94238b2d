package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/cutqueue/api/models"
	"github.com/moyoez/cutqueue/pipeline"
	"github.com/moyoez/cutqueue/queue"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// ItemView is an item as the local UI renders it.
type ItemView struct {
	queue.Item
	CanProcess           bool   `json:"canProcess"`
	Pollable             bool   `json:"pollable"`
	PreviewURL           string `json:"previewUrl,omitempty"`
	ProcessedPreviewURL  string `json:"processedPreviewUrl,omitempty"`
	OriginalDownloadURL  string `json:"originalDownloadUrl,omitempty"`
	ProcessedDownloadURL string `json:"processedDownloadUrl,omitempty"`
}

// QueueView is the GET /items response.
type QueueView struct {
	Items            []ItemView `json:"items"`
	BatchDownloadUrl string     `json:"batchDownloadUrl,omitempty"`
	Advisory         string     `json:"advisory,omitempty"`
}

func newItemView(item queue.Item, b models.URLBuilder) ItemView {
	v := ItemView{
		Item:       item,
		CanProcess: queue.CanRequestProcessing(item),
		Pollable:   queue.IsPollable(item),
	}
	if b == nil {
		v.PreviewURL = item.OriginalURL
		return v
	}
	base := b.Backend() + "/"
	if strings.HasPrefix(item.OriginalURL, tool.PreviewRoutePrefix) {
		v.PreviewURL = item.OriginalURL
	} else {
		v.PreviewURL = tool.ResolveURL(base, item.OriginalURL)
	}
	v.ProcessedPreviewURL = tool.ResolveURL(base, item.ProcessedURL)
	if item.ServerID != "" {
		v.OriginalDownloadURL, _ = b.ItemDownloadURL(item.DownloadOriginalURL, item.ServerID, tool.VariantOriginal)
		if item.Status == types.StatusProcessed {
			v.ProcessedDownloadURL, _ = b.ItemDownloadURL(item.DownloadProcessedURL, item.ServerID, tool.VariantProcessed)
		}
	}
	return v
}

// BuildQueueView renders the whole queue. Also pushed to websocket clients on change.
func BuildQueueView(e *pipeline.Engine) QueueView {
	b := models.GetURLBuilder()
	store := e.Store()
	items := store.Items()
	view := QueueView{
		Items:    make([]ItemView, 0, len(items)),
		Advisory: store.Advisory(),
	}
	for _, item := range items {
		view.Items = append(view.Items, newItemView(item, b))
	}
	if url := store.BatchDownloadURL(); url != "" {
		view.BatchDownloadUrl = url
		if b != nil {
			view.BatchDownloadUrl = tool.ResolveURL(b.Backend()+"/", url)
		}
	}
	return view
}

func requireEngine(c *gin.Context) *pipeline.Engine {
	e := models.GetEngine()
	if e == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("engine not ready"))
		return nil
	}
	return e
}

// UserItemsList returns every tracked item in display order.
// GET /api/self/v1/items
func UserItemsList(c *gin.Context) {
	e := requireEngine(c)
	if e == nil {
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(BuildQueueView(e)))
}

// UserItemDelete drops a settled item, e.g. a failed upload before it is added again.
// DELETE /api/self/v1/items/:clientId
func UserItemDelete(c *gin.Context) {
	e := requireEngine(c)
	if e == nil {
		return
	}
	err := e.Remove(c.Param("clientId"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tool.FastReturnSuccess())
	case errors.Is(err, queue.ErrNotFound):
		c.JSON(http.StatusNotFound, tool.FastReturnError("item not found"))
	case errors.Is(err, queue.ErrItemBusy):
		c.JSON(http.StatusConflict, tool.FastReturnError("item has a request in flight"))
	default:
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
	}
}

// UserProcess requests processing of the listed items, or of every eligible
// item when the list is empty.
// POST /api/self/v1/process
func UserProcess(c *gin.Context) {
	e := requireEngine(c)
	if e == nil {
		return
	}
	var req types.UserProcessRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
			return
		}
	}

	store := e.Store()
	ids := req.IDs
	if len(ids) == 0 {
		ids = store.EligibleIDs()
	}
	var eligible []string
	for _, id := range ids {
		if item, ok := store.Lookup(id); ok && queue.CanRequestProcessing(item) {
			eligible = append(eligible, item.ServerID)
		}
	}
	if len(eligible) == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("no items are eligible for processing"))
		return
	}

	// a client hanging up must not turn a sent request into a rollback
	ctx := context.WithoutCancel(c.Request.Context())
	if err := e.Process(ctx, eligible, req.DisplayName); err != nil {
		tool.DefaultLogger.Warnf("Processing request failed: %v", err)
		c.JSON(http.StatusBadGateway, tool.FastReturnError(err.Error()))
		return
	}

	resp := types.UserProcessResponse{Requested: len(eligible)}
	if url := store.BatchDownloadURL(); url != "" {
		if b := models.GetURLBuilder(); b != nil {
			url = tool.ResolveURL(b.Backend()+"/", url)
		}
		resp.BatchDownloadUrl = url
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(resp))
}
