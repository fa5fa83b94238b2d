package controllers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/cutqueue/api/models"
	"github.com/moyoez/cutqueue/tool"
)

// UserItemPreview shows an item: the local preview while the item still owns
// one, the server's original afterwards.
// GET /api/self/v1/items/:clientId/preview
func UserItemPreview(c *gin.Context) {
	e := requireEngine(c)
	if e == nil {
		return
	}
	item, ok := e.Store().Lookup(c.Param("clientId"))
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("item not found"))
		return
	}
	if preview, ok := e.Store().Preview(item.ClientID); ok {
		if fp, isFile := preview.(*tool.FilePreview); isFile {
			c.File(fp.Path())
			return
		}
	}
	if item.OriginalURL == "" || strings.HasPrefix(item.OriginalURL, tool.PreviewRoutePrefix) {
		c.JSON(http.StatusNotFound, tool.FastReturnError("no preview available"))
		return
	}
	url := item.OriginalURL
	if b := models.GetURLBuilder(); b != nil {
		url = tool.ResolveURL(b.Backend()+"/", url)
	}
	c.Redirect(http.StatusFound, url)
}

// UserPreviewFile serves a preview file by name.
// GET /api/self/v1/previews/:name
func UserPreviewFile(c *gin.Context) {
	name := c.Param("name")
	if name != filepath.Base(name) || !strings.HasPrefix(name, tool.PreviewFilePrefix) {
		c.JSON(http.StatusNotFound, tool.FastReturnError("preview not found"))
		return
	}
	c.File(filepath.Join(tool.PreviewDir(models.GetDefaultPreviewFolder()), name))
}
