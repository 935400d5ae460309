package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/discussion-host/pkg/host"
	"github.com/houzhh15/discussion-host/pkg/room"
)

// roomAction 在当前会议室上执行录音操作并返回会议室快照
func roomAction(app *host.App, action func(c *gin.Context, r *room.Room) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := app.Room()
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		if err := action(c, r); err != nil {
			flowErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, r.Snapshot())
	}
}

// HandleStartRecording POST /api/v1/recording/start
func HandleStartRecording(app *host.App) gin.HandlerFunc {
	return roomAction(app, func(c *gin.Context, r *room.Room) error {
		return r.StartRecording(c.Request.Context())
	})
}

// HandlePauseRecording POST /api/v1/recording/pause
func HandlePauseRecording(app *host.App) gin.HandlerFunc {
	return roomAction(app, func(_ *gin.Context, r *room.Room) error {
		return r.PauseRecording()
	})
}

// HandleResumeRecording POST /api/v1/recording/resume
func HandleResumeRecording(app *host.App) gin.HandlerFunc {
	return roomAction(app, func(_ *gin.Context, r *room.Room) error {
		return r.ResumeRecording()
	})
}

// HandleStopRecording POST /api/v1/recording/stop
func HandleStopRecording(app *host.App) gin.HandlerFunc {
	return roomAction(app, func(_ *gin.Context, r *room.Room) error {
		_, err := r.StopRecording()
		return err
	})
}

// HandleDownloadAudio GET /api/v1/recording/audio
func HandleDownloadAudio(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := app.Room()
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		a := r.Artifact()
		if a == nil {
			errorResponse(c, http.StatusNotFound, "no recording available")
			return
		}
		c.Header("Content-Type", a.MIMEType())
		c.FileAttachment(a.Path, a.FileName())
	}
}
