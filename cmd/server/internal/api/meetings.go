package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/discussion-host/pkg/host"
	"github.com/houzhh15/discussion-host/pkg/meeting"
)

// CreateMeetingRequest is the setup form. Duration is either a preset or
// custom text; Participants is clamped to the allowed range.
type CreateMeetingRequest struct {
	Topic        string                 `json:"topic"`
	Duration     meeting.DurationChoice `json:"duration"`
	Participants int                    `json:"participants"`
	Models       []string               `json:"models"`
}

// Config resolves the form into a meeting config.
func (r CreateMeetingRequest) Config() meeting.Config {
	participants := r.Participants
	if participants == 0 {
		participants = meeting.DefaultParticipants
	}
	return meeting.Config{
		Topic:        r.Topic,
		Duration:     meeting.ResolveDuration(r.Duration),
		Participants: participants,
		Models:       r.Models,
	}
}

// HandleCreateMeeting POST /api/v1/meetings
func HandleCreateMeeting(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateMeetingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body: "+err.Error())
			return
		}
		m, err := app.CreateMeeting(c.Request.Context(), req.Config())
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"meeting": m,
			"share":   meeting.Share(m.Config, m.Handle),
		})
	}
}

// HandleShareMeeting GET /api/v1/meetings/current/share
func HandleShareMeeting(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		links, err := app.Share()
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, links)
	}
}

// HandleCopyInvite POST /api/v1/meetings/current/copy
func HandleCopyInvite(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.CopyInvite(); err != nil {
			flowErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"copied": true})
	}
}

// HandleMeetingReport GET /api/v1/meetings/current/report
func HandleMeetingReport(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, body, err := app.MeetingReport()
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		attachment(c, name, []byte(body))
	}
}

// HandleStartMeeting POST /api/v1/meetings/current/start
func HandleStartMeeting(app *host.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := app.StartMeeting()
		if err != nil {
			flowErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, r.Snapshot())
	}
}
