package tool

import (
	"maps"

	"github.com/gin-gonic/gin"
)

// FastReturnError is the error body every local API handler answers with.
func FastReturnError(msg string) gin.H {
	return gin.H{
		"error": msg,
	}
}

func FastReturnSuccess() gin.H {
	return gin.H{
		"status": "ok",
	}
}

func FastReturnSuccessWithData(data any) gin.H {
	return gin.H{
		"data": data,
	}
}

// FastReturnErrorWithData adds extra fields, e.g. the rejected file names of an intake batch.
func FastReturnErrorWithData(msg string, data map[string]any) gin.H {
	resp := gin.H{
		"error": msg,
	}
	maps.Copy(resp, data)
	return resp
}

// FastReturnPartial reports a multi-item request in which some entries were rejected.
func FastReturnPartial(data any, rejected map[string]string) gin.H {
	resp := gin.H{
		"data": data,
	}
	if len(rejected) > 0 {
		resp["rejected"] = rejected
	}
	return resp
}
