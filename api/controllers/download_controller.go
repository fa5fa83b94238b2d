package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/cutqueue/api/models"
	"github.com/moyoez/cutqueue/pipeline"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// resolveBatchDownloadURL returns the server supplied archive location, or one
// derived from the processed items.
func resolveBatchDownloadURL(e *pipeline.Engine) (string, error) {
	b := models.GetURLBuilder()
	if b == nil {
		return "", errNoBackend
	}
	store := e.Store()
	return b.BatchDownloadURL(store.BatchDownloadURL(), store.ProcessedIDs())
}

// UserBatchDownload redirects to the batch archive. With ?format=json the
// location is returned instead.
// GET /api/self/v1/batch-download
func UserBatchDownload(c *gin.Context) {
	e := requireEngine(c)
	if e == nil {
		return
	}
	url, err := resolveBatchDownloadURL(e)
	if err != nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError(err.Error()))
		return
	}
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{"url": url}))
		return
	}
	c.Redirect(http.StatusFound, url)
}

// UserItemDownload redirects to one variant of an item.
// GET /api/self/v1/items/:clientId/download?variant=original|processed
func UserItemDownload(c *gin.Context) {
	e := requireEngine(c)
	if e == nil {
		return
	}
	item, ok := e.Store().Lookup(c.Param("clientId"))
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("item not found"))
		return
	}
	if item.ServerID == "" {
		c.JSON(http.StatusConflict, tool.FastReturnError("item is not uploaded yet"))
		return
	}
	b := models.GetURLBuilder()
	if b == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError(errNoBackend.Error()))
		return
	}

	variant := c.DefaultQuery("variant", tool.VariantProcessed)
	var serverURL string
	switch variant {
	case tool.VariantProcessed:
		if item.Status != types.StatusProcessed {
			c.JSON(http.StatusConflict, tool.FastReturnError("item is not processed yet"))
			return
		}
		serverURL = item.DownloadProcessedURL
	case tool.VariantOriginal:
		serverURL = item.DownloadOriginalURL
	default:
		c.JSON(http.StatusBadRequest, tool.FastReturnError("variant must be original or processed"))
		return
	}
	url, err := b.ItemDownloadURL(serverURL, item.ServerID, variant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
		return
	}
	c.Redirect(http.StatusFound, url)
}
