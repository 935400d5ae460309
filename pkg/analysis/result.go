// Package analysis 将讨论录音提交给分析服务，并以 HTTP 响应或实时通知通道
// 中先到达的信号完成本次分析。
package analysis

import (
	"encoding/json"
	"strings"
)

// Result 一次讨论的结构化分析结果。
//
// Conclusions 为空表示服务没有得出明确结论。
type Result struct {
	Summary               string   `json:"summary"`
	KeyPoints             []string `json:"keyPoints"`
	CommonThemes          []string `json:"commonThemes"`
	Conclusions           []string `json:"conclusions"`
	Sentiment             string   `json:"sentiment"`
	ParticipationAnalysis string   `json:"participationAnalysis"`
	ConfidenceScore       *float64 `json:"confidenceScore,omitempty"`
	Reasoning             string   `json:"reasoning,omitempty"`
	DecisionOptions       []string `json:"decisionOptions,omitempty"`
}

// Confidence 返回限制在 [0,1] 的置信度，缺失时为 0
func (r *Result) Confidence() float64 {
	if r == nil || r.ConfidenceScore == nil {
		return 0
	}
	c := *r.ConfidenceScore
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// ParseResult 解码 JSON 格式的 Result。模型有时会用 markdown 代码块包裹 JSON，
// 解码前先去掉代码块标记。
func ParseResult(raw string) (*Result, error) {
	text := stripCodeFence(raw)
	var r Result
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, &ParseError{Raw: raw, Cause: err}
	}
	return &r, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
