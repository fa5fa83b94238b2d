package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/cutqueue/api/models"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// UserStatus returns engine status for the web UI.
// GET /api/self/v1/status
func UserStatus(c *gin.Context) {
	resp := types.StatusResponse{
		Running:         true,
		NotifyWSEnabled: models.GetNotifyHub() != nil,
	}
	if b := models.GetURLBuilder(); b != nil {
		resp.Backend = b.Backend()
	}
	if e := models.GetEngine(); e != nil {
		store := e.Store()
		resp.Items = store.Len()
		resp.Pollable = len(store.PollableIDs())
		resp.PollerRunning = e.Poller().Running()
		resp.Advisory = store.Advisory()
		resp.BatchDownloadUrl = store.BatchDownloadURL()
	}
	c.JSON(http.StatusOK, resp)
}

// UserConfigGet returns the effective config.
// GET /api/self/v1/config
func UserConfigGet(c *gin.Context) {
	c.JSON(http.StatusOK, tool.GetCurrentConfig())
}
