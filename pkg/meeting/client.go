package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CreatePath 会议创建接口相对于 API 基地址的路径
const CreatePath = "/api/meetings"

// ErrCreateFailed 涵盖所有会议创建失败：传输错误、非 2xx 响应与无法解析的响应体
var ErrCreateFailed = errors.New("could not set up the meeting")

// Handle 已创建会议的标识
type Handle struct {
	MeetingID  string `json:"meeting_id"`
	InviteLink string `json:"invite_link"`
}

// InviteLink 生成会议的可分享加入链接
func InviteLink(origin, meetingID string) string {
	return strings.TrimRight(origin, "/") + "/join/" + meetingID
}

type createRequest struct {
	Topic        string   `json:"topic"`
	Duration     int      `json:"duration"`
	Participants int      `json:"participants"`
	Models       []string `json:"models,omitempty"`
}

type createResponse struct {
	MeetingID string `json:"meetingId"`
}

// Client 会议创建服务客户端
type Client struct {
	// BaseURL 提供 /api/meetings 的服务地址
	BaseURL string
	// Origin 邀请链接的来源地址，默认为 BaseURL
	Origin     string
	HTTPClient *http.Client
}

// NewClient 创建客户端。请求本身不设超时，由调用方的 context 约束。
func NewClient(baseURL, origin string) *Client {
	if origin == "" {
		origin = baseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Origin:     origin,
		HTTPClient: &http.Client{},
	}
}

// Create 为 cfg 发出且只发出一次创建请求
func (c *Client) Create(ctx context.Context, cfg Config) (*Handle, error) {
	body, err := json.Marshal(createRequest{
		Topic:        cfg.Topic,
		Duration:     cfg.Duration,
		Participants: cfg.Participants,
		Models:       cfg.Models,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrCreateFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+CreatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrCreateFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrCreateFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrCreateFailed, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out createResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCreateFailed, err)
	}
	if out.MeetingID == "" {
		return nil, fmt.Errorf("%w: response has no meetingId", ErrCreateFailed)
	}

	return &Handle{
		MeetingID:  out.MeetingID,
		InviteLink: InviteLink(c.Origin, out.MeetingID),
	}, nil
}
