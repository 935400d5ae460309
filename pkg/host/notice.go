package host

import (
	"errors"

	"github.com/houzhh15/discussion-host/pkg/analysis"
	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/pages"
	"github.com/houzhh15/discussion-host/pkg/recording"
)

// Notice 将流程错误映射为展示给用户的提示
func Notice(err error) string {
	var httpErr *analysis.HTTPError
	var parseErr *analysis.ParseError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, recording.ErrPermissionDenied):
		return "Unable to access microphone. Please check permissions."
	case errors.Is(err, recording.ErrInvalidTransition):
		return "That recording action is not available right now"
	case errors.Is(err, pages.ErrInvalidTransition):
		return "That action is not available on this page"
	case errors.Is(err, ErrNoMeeting):
		return "Please set up a meeting first"
	case errors.Is(err, ErrNoRoom):
		return "Please start the meeting first"
	case errors.Is(err, ErrNoResult):
		return "No analysis result yet"
	case errors.Is(err, analysis.ErrNoArtifact),
		errors.Is(err, analysis.ErrInFlight),
		errors.Is(err, analysis.ErrTransport),
		errors.As(err, &httpErr),
		errors.As(err, &parseErr):
		return analysis.Notice(err)
	case errors.Is(err, meeting.ErrEmptyTopic),
		errors.Is(err, meeting.ErrInvalidDuration),
		errors.Is(err, meeting.ErrSetupInFlight),
		errors.Is(err, meeting.ErrCreateFailed):
		return meeting.Notice(err)
	default:
		return err.Error()
	}
}
