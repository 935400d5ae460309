package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/houzhh15/discussion-host/pkg/logger"
	"github.com/houzhh15/discussion-host/pkg/metrics"
	"github.com/houzhh15/discussion-host/pkg/recording"
)

const (
	// DefaultEndpoint 分析服务的运行接口
	DefaultEndpoint = "http://localhost:4000/run-analysis"
	// UploadField 与 UploadFileName 描述 multipart 文件字段
	UploadField    = "audio"
	UploadFileName = "student_audio.wav"
)

type runResponse struct {
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Client 将录音上传到分析服务
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient 创建分析客户端，endpoint 为空时使用 DefaultEndpoint。
// HTTP 客户端不设超时：长讨论的分析可能需要数分钟，请求持续到完成或 ctx 结束。
func NewClient(endpoint string, log *slog.Logger) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		log:        logger.OrDiscard(log).With("component", "analysis"),
	}
}

// Endpoint 返回配置的运行接口
func (c *Client) Endpoint() string { return c.endpoint }

// Submit 上传录音并返回解析后的分析结果。
//
// 错误：
//   - ErrNoArtifact：artifact 为 nil，不发请求
//   - ErrTransport（包装）：无法连接服务
//   - *HTTPError：非 2xx 响应，携带服务端错误文本
//   - *ParseError：2xx 响应的 output 不是合法 Result
func (c *Client) Submit(ctx context.Context, artifact *recording.Artifact) (res *Result, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAnalysisSubmission(outcome(err))
		if !errors.Is(err, ErrNoArtifact) {
			metrics.RecordAnalysisDuration(time.Since(start).Seconds())
		}
	}()

	if artifact == nil {
		return nil, ErrNoArtifact
	}

	body, contentType, err := encodeUpload(artifact)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create analysis request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	c.log.Info("submitting recording", "endpoint", c.endpoint, "bytes", artifact.Size)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	var rr runResponse
	decodeErr := json.Unmarshal(data, &rr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := rr.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		c.log.Error("analysis failed", "status", resp.StatusCode, "error", msg)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &ParseError{Raw: string(data), Cause: decodeErr}
	}

	res, err = parseOutput(rr.Output)
	if err != nil {
		c.log.Error("analysis output is not valid JSON", "error", err)
		return nil, err
	}
	c.log.Info("analysis complete", "conclusions", len(res.Conclusions), "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

func encodeUpload(artifact *recording.Artifact) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(UploadField, UploadFileName)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := artifact.WriteTo(part); err != nil {
		return nil, "", fmt.Errorf("copy recording: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// parseOutput 接受内含结果的 JSON 字符串（服务约定）或内联对象
func parseOutput(raw json.RawMessage) (*Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ParseError{Raw: string(raw), Cause: fmt.Errorf("response has no output")}
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, &ParseError{Raw: string(raw), Cause: err}
		}
		return ParseResult(s)
	}
	return ParseResult(string(trimmed))
}
