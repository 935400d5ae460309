package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/discussion-host/pkg/host"
)

// HandleGetState GET /api/v1/state
func HandleGetState(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, app.State())
	}
}

// HandleHost POST /api/v1/pages/host
func HandleHost(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Host(); err != nil {
			flowErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, app.State())
	}
}

// HandleBack POST /api/v1/pages/back
func HandleBack(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := app.Back(); err != nil {
			flowErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, app.State())
	}
}
