package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrNoArtifact 没有录音，上传前即返回
	ErrNoArtifact = errors.New("no recording available to analyze")
	// ErrTransport 无法连接或读取分析服务
	ErrTransport = errors.New("analysis service unreachable")
	// ErrInFlight 已有分析请求在进行中
	ErrInFlight = errors.New("analysis already in progress")
)

// HTTPError 分析服务的非 2xx 响应
type HTTPError struct {
	StatusCode int
	// Message 服务端错误文本原文
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("analysis failed (HTTP %d): %s", e.StatusCode, e.Message)
}

// ParseError 服务返回 2xx 但 output 不是合法的分析结果
type ParseError struct {
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse the analysis: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Notice 将提交错误映射为展示给用户的提示
func Notice(err error) string {
	var httpErr *HTTPError
	var parseErr *ParseError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoArtifact):
		return "No recording available to analyze"
	case errors.Is(err, ErrInFlight):
		return "Analysis is already in progress"
	case errors.As(err, &httpErr):
		return "Analysis failed: " + httpErr.Message
	case errors.As(err, &parseErr):
		return "Failed to parse the analysis from the server."
	default:
		return "Analysis error, please check the backend status."
	}
}

// outcome 提交错误的指标标签
func outcome(err error) string {
	var httpErr *HTTPError
	var parseErr *ParseError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoArtifact):
		return "no_artifact"
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	default:
		return "transport_error"
	}
}
