package api

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/discussion-host/pkg/analysis"
	"github.com/houzhh15/discussion-host/pkg/host"
	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/pages"
	"github.com/houzhh15/discussion-host/pkg/recording"
)

// errorResponse 返回错误响应
func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"error": message,
	})
}

// errorResponseWithDetail 返回带详情的错误响应
func errorResponseWithDetail(c *gin.Context, code int, message string, detail interface{}) {
	c.JSON(code, gin.H{
		"error":  message,
		"detail": detail,
	})
}

// badRequestResponse 返回 400 响应
func badRequestResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, message)
}

// flowErrorResponse 将业务流程错误映射为 HTTP 状态码，error 字段为用户提示
func flowErrorResponse(c *gin.Context, err error) {
	_ = c.Error(err)
	errorResponseWithDetail(c, statusFor(err), host.Notice(err), err.Error())
}

// statusFor 业务错误 -> HTTP 状态码
func statusFor(err error) int {
	var httpErr *analysis.HTTPError
	var parseErr *analysis.ParseError
	switch {
	case errors.Is(err, meeting.ErrEmptyTopic),
		errors.Is(err, meeting.ErrInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, pages.ErrInvalidTransition),
		errors.Is(err, recording.ErrInvalidTransition),
		errors.Is(err, host.ErrNoMeeting),
		errors.Is(err, host.ErrNoRoom),
		errors.Is(err, host.ErrNoResult),
		errors.Is(err, analysis.ErrNoArtifact),
		errors.Is(err, analysis.ErrInFlight),
		errors.Is(err, meeting.ErrSetupInFlight):
		return http.StatusConflict
	case errors.Is(err, recording.ErrPermissionDenied):
		return http.StatusServiceUnavailable
	case errors.Is(err, analysis.ErrTransport),
		errors.Is(err, meeting.ErrCreateFailed),
		errors.As(err, &httpErr),
		errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// attachment 以附件形式返回纯文本。文件名含引号或非 ASCII 字符时按
// RFC 2231 编码，无法编码时退回固定文件名。
func attachment(c *gin.Context, name string, body []byte) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if disposition == "" {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": "report.txt"})
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}
