package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/cutqueue/api/models"
	"github.com/moyoez/cutqueue/tool"
)

// UserNotifications returns recent notifications newer than ?after=<seq>.
// GET /api/self/v1/notifications
func UserNotifications(c *gin.Context) {
	var after uint64
	if raw := c.Query("after"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("after must be a sequence number"))
			return
		}
		after = n
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(models.GetFeed().Since(after)))
}
