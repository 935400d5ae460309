package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config 统一配置结构
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Meeting   MeetingConfig
	Analysis  AnalysisConfig
	Realtime  RealtimeConfig
	Recording RecordingConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env  string // dev, staging, production
	Port string
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	File   string // 可选，滚动日志文件路径
}

// MeetingConfig 会议创建服务配置
type MeetingConfig struct {
	APIBaseURL        string
	InviteOrigin      string
	DiscordWebhookURL string
	DiscordSilent     bool
}

// AnalysisConfig 音频分析服务配置
type AnalysisConfig struct {
	Endpoint string
}

// RealtimeConfig 实时通知通道配置（两项都为空时关闭）
type RealtimeConfig struct {
	ProjectURL string
	APIKey     string
}

// RecordingConfig 录音配置
type RecordingConfig struct {
	Dir         string
	FFmpegPath  string
	InputFormat string
	Device      string
}

// LoadConfig 从环境变量加载配置。envFile 非空时先加载 .env 文件，
// 已存在的环境变量不会被覆盖。
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("ENV", "dev"),
			Port: getEnv("PORT", "8000"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			File:   getEnv("LOG_FILE", ""),
		},
		Meeting: MeetingConfig{
			APIBaseURL:        getEnv("MEETING_API_URL", "http://localhost:8000"),
			InviteOrigin:      getEnv("INVITE_ORIGIN", "http://localhost:3000"),
			DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
			DiscordSilent:     parseBool(getEnv("DISCORD_SILENT", "false")),
		},
		Analysis: AnalysisConfig{
			Endpoint: getEnv("ANALYSIS_ENDPOINT", "http://localhost:4000/run-analysis"),
		},
		Realtime: RealtimeConfig{
			ProjectURL: getEnv("SUPABASE_URL", ""),
			APIKey:     getEnv("SUPABASE_ANON_KEY", ""),
		},
		Recording: RecordingConfig{
			Dir:         getEnv("RECORDINGS_DIR", "./recordings"),
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			InputFormat: getEnv("AUDIO_INPUT_FORMAT", ""),
			Device:      getEnv("AUDIO_DEVICE", ""),
		},
	}
	return cfg, nil
}

// ValidateConfig 验证配置的有效性
func ValidateConfig(cfg *Config) error {
	var errors []string

	// 1. 端口验证
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	// 2. 日志级别验证
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	// 3. 日志格式验证
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	// 4. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	// 5. 外部服务地址验证
	for _, u := range []struct{ key, value string }{
		{"MEETING_API_URL", cfg.Meeting.APIBaseURL},
		{"INVITE_ORIGIN", cfg.Meeting.InviteOrigin},
		{"ANALYSIS_ENDPOINT", cfg.Analysis.Endpoint},
	} {
		if !isHTTPURL(u.value) {
			errors = append(errors, fmt.Sprintf("invalid %s: %q (must be an http(s) URL)", u.key, u.value))
		}
	}

	// 6. 实时通道必须同时配置地址与密钥
	if (cfg.Realtime.ProjectURL == "") != (cfg.Realtime.APIKey == "") {
		errors = append(errors, "SUPABASE_URL and SUPABASE_ANON_KEY must be set together")
	} else if cfg.Realtime.ProjectURL != "" && !isHTTPURL(cfg.Realtime.ProjectURL) {
		errors = append(errors, fmt.Sprintf("invalid SUPABASE_URL: %q (must be an http(s) URL)", cfg.Realtime.ProjectURL))
	}

	// 7. Discord webhook 验证
	if cfg.Meeting.DiscordWebhookURL != "" && !strings.Contains(cfg.Meeting.DiscordWebhookURL, "/webhooks/") {
		errors = append(errors, "invalid DISCORD_WEBHOOK_URL: expected .../api/webhooks/<id>/<token>")
	}

	// 8. 录音目录
	if strings.TrimSpace(cfg.Recording.Dir) == "" {
		errors = append(errors, "RECORDINGS_DIR must not be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment 判断是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// RealtimeEnabled 是否启用实时通知通道
func (c *Config) RealtimeEnabled() bool {
	return c.Realtime.ProjectURL != "" && c.Realtime.APIKey != ""
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Logging:
    - Level: %s
    - Format: %s
    - File: %s
  Meeting:
    - API: %s
    - Invite Origin: %s
    - Discord Webhook: %s
  Analysis:
    - Endpoint: %s
  Realtime:
    - Project URL: %s
    - API Key: %s
  Recording:
    - Dir: %s
    - FFmpeg: %s`,
		c.Server.Env,
		c.Server.Port,
		c.Log.Level,
		c.Log.Format,
		orNotSet(c.Log.File),
		c.Meeting.APIBaseURL,
		c.Meeting.InviteOrigin,
		maskSecret(c.Meeting.DiscordWebhookURL),
		c.Analysis.Endpoint,
		orNotSet(c.Realtime.ProjectURL),
		maskSecret(c.Realtime.APIKey),
		c.Recording.Dir,
		c.Recording.FFmpegPath,
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func orNotSet(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
