package api

import (
	"github.com/gin-gonic/gin"

	"github.com/houzhh15/discussion-host/pkg/host"
)

// RegisterRoutes mounts the host console API under /api/v1.
func RegisterRoutes(r gin.IRouter, app *host.App) {
	v1 := r.Group("/api/v1")

	v1.GET("/state", HandleGetState(app))
	v1.POST("/pages/host", HandleHost(app))
	v1.POST("/pages/back", HandleBack(app))

	v1.POST("/meetings", HandleCreateMeeting(app))
	v1.GET("/meetings/current/share", HandleShareMeeting(app))
	v1.POST("/meetings/current/copy", HandleCopyInvite(app))
	v1.GET("/meetings/current/report", HandleMeetingReport(app))
	v1.POST("/meetings/current/start", HandleStartMeeting(app))

	v1.POST("/recording/start", HandleStartRecording(app))
	v1.POST("/recording/pause", HandlePauseRecording(app))
	v1.POST("/recording/resume", HandleResumeRecording(app))
	v1.POST("/recording/stop", HandleStopRecording(app))
	v1.GET("/recording/audio", HandleDownloadAudio(app))

	v1.POST("/analysis", HandleAnalyze(app))
	v1.GET("/analysis/report", HandleAnalysisReport(app))
	v1.GET("/conclusion", HandleGetConclusion(app))
	v1.GET("/conclusion/report", HandleConclusionReport(app))
}
