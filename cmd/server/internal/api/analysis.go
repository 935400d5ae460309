package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/discussion-host/pkg/conclusion"
	"github.com/houzhh15/discussion-host/pkg/host"
)

// HandleAnalyze POST /api/v1/analysis
//
// Blocks until the first completion signal. The upload itself is bound to
// the room, so a client disconnect does not cancel it.
func HandleAnalyze(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := app.Analyze(c.Request.Context())
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"page":   app.Page(),
			"result": res,
		})
	}
}

// HandleAnalysisReport GET /api/v1/analysis/report
func HandleAnalysisReport(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := app.Conclusion()
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		now := time.Now()
		var buf bytes.Buffer
		if err := v.AnalysisReport(&buf, now); err != nil {
			errorResponse(c, http.StatusInternalServerError, "failed to render report")
			return
		}
		attachment(c, conclusion.AnalysisReportFileName(now), buf.Bytes())
	}
}

// HandleGetConclusion GET /api/v1/conclusion
func HandleGetConclusion(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := app.Conclusion()
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, v.Summarize())
	}
}

// HandleConclusionReport GET /api/v1/conclusion/report
func HandleConclusionReport(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := app.Conclusion()
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		var buf bytes.Buffer
		if err := v.Report(&buf); err != nil {
			errorResponse(c, http.StatusInternalServerError, "failed to render report")
			return
		}
		attachment(c, v.ReportFileName(), buf.Bytes())
	}
}
