// Package meeting 会议设置流程：表单校验、会议创建请求、邀请链接生成与分享。
package meeting

import (
	"errors"
	"strconv"
	"strings"
)

// 会议参数默认值与边界
const (
	DefaultDuration     = 30
	DefaultParticipants = 5
	MinParticipants     = 2
	MaxParticipants     = 50
)

// DurationPresets 可选的会议时长（分钟）
var DurationPresets = []int{5, 10, 30, 60}

var (
	// ErrEmptyTopic 主题为空（只含空白也算）
	ErrEmptyTopic = errors.New("please enter a discussion topic")
	// ErrInvalidDuration 时长不是正整数
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
)

// Config 提交的设置表单，会议创建后不再修改
type Config struct {
	Topic        string   `json:"topic" yaml:"topic"`
	Duration     int      `json:"duration" yaml:"duration"`
	Participants int      `json:"participants" yaml:"participants"`
	Models       []string `json:"models,omitempty" yaml:"models,omitempty"`
}

// Validate 在任何网络请求之前校验表单
func (c Config) Validate() error {
	if strings.TrimSpace(c.Topic) == "" {
		return ErrEmptyTopic
	}
	if c.Duration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// DurationChoice 时长选择器状态：预设值，或带自由文本的 "custom" 选项
type DurationChoice struct {
	Preset     int    `json:"preset,omitempty"`
	Custom     bool   `json:"custom,omitempty"`
	CustomText string `json:"custom_text,omitempty"`
}

// ResolveDuration 返回最终时长（分钟）。自定义值不是正整数或未选择预设时，
// 使用 DefaultDuration。
func ResolveDuration(choice DurationChoice) int {
	if choice.Custom {
		if n, ok := parseLeadingInt(choice.CustomText); ok && n > 0 {
			return n
		}
		return DefaultDuration
	}
	if choice.Preset > 0 {
		return choice.Preset
	}
	return DefaultDuration
}

// parseLeadingInt 读取可选符号加数字，忽略其后的文本，"45 min" 读作 45
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ClampParticipants 将参与人数限制在 [MinParticipants, MaxParticipants]
func ClampParticipants(n int) int {
	if n < MinParticipants {
		return MinParticipants
	}
	if n > MaxParticipants {
		return MaxParticipants
	}
	return n
}

// NormalizeModels 去除首尾空白并丢弃空值与重复项，选择顺序无意义
func NormalizeModels(models []string) []string {
	if len(models) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
