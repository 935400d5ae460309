package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config 保存 CLI 全局配置
type Config struct {
	MeetingAPIURL     string `yaml:"meeting_api_url" json:"meeting_api_url"`
	InviteOrigin      string `yaml:"invite_origin" json:"invite_origin"`
	DiscordWebhookURL string `yaml:"discord_webhook_url" json:"-"`
	DiscordSilent     bool   `yaml:"discord_silent" json:"discord_silent"`
	AnalysisEndpoint  string `yaml:"analysis_endpoint" json:"analysis_endpoint"`
	RealtimeURL       string `yaml:"realtime_url" json:"realtime_url"`
	RealtimeKey       string `yaml:"realtime_key" json:"-"`
	RecordingDir      string `yaml:"recording_dir" json:"recording_dir"`
	DownloadDir       string `yaml:"download_dir" json:"download_dir"`
	FFmpegPath        string `yaml:"ffmpeg_path" json:"ffmpeg_path"`
	InputFormat       string `yaml:"input_format" json:"input_format"`
	Device            string `yaml:"device" json:"device"`
	LogLevel          string `yaml:"log_level" json:"log_level"`
	Output            string `yaml:"-" json:"-"`
}

// envBindings 环境变量 -> 配置字段
var envBindings = []struct {
	key string
	set func(*Config, string)
}{
	{"DH_MEETING_API_URL", func(c *Config, v string) { c.MeetingAPIURL = v }},
	{"DH_INVITE_ORIGIN", func(c *Config, v string) { c.InviteOrigin = v }},
	{"DH_DISCORD_WEBHOOK_URL", func(c *Config, v string) { c.DiscordWebhookURL = v }},
	{"DH_DISCORD_SILENT", func(c *Config, v string) { c.DiscordSilent, _ = strconv.ParseBool(v) }},
	{"DH_ANALYSIS_ENDPOINT", func(c *Config, v string) { c.AnalysisEndpoint = v }},
	{"DH_REALTIME_URL", func(c *Config, v string) { c.RealtimeURL = v }},
	{"DH_REALTIME_KEY", func(c *Config, v string) { c.RealtimeKey = v }},
	{"DH_RECORDING_DIR", func(c *Config, v string) { c.RecordingDir = v }},
	{"DH_DOWNLOAD_DIR", func(c *Config, v string) { c.DownloadDir = v }},
	{"DH_FFMPEG_PATH", func(c *Config, v string) { c.FFmpegPath = v }},
	{"DH_LOG_LEVEL", func(c *Config, v string) { c.LogLevel = v }},
}

// flagBindings 命令行标志 -> 配置字段
var flagBindings = []struct {
	flag string
	set  func(*Config, string)
}{
	{"meeting-api", func(c *Config, v string) { c.MeetingAPIURL = v }},
	{"invite-origin", func(c *Config, v string) { c.InviteOrigin = v }},
	{"analysis-endpoint", func(c *Config, v string) { c.AnalysisEndpoint = v }},
	{"download-dir", func(c *Config, v string) { c.DownloadDir = v }},
	{"log-level", func(c *Config, v string) { c.LogLevel = v }},
	{"output", func(c *Config, v string) { c.Output = v }},
}

// LoadConfig 从命令行标志、环境变量、配置文件加载配置（优先级从高到低）
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{}

	// --env-file 中的变量不会覆盖已有环境变量
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	// 尝试从配置文件读取基础值
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = defaultConfigPath()
	}
	if err := loadConfigFile(path, cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖配置文件
	for _, b := range envBindings {
		if v := os.Getenv(b.key); v != "" {
			b.set(cfg, v)
		}
	}

	// 命令行标志覆盖环境变量
	for _, b := range flagBindings {
		if v, _ := cmd.Flags().GetString(b.flag); v != "" {
			b.set(cfg, v)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults 默认值
func applyDefaults(cfg *Config) {
	if cfg.MeetingAPIURL == "" {
		cfg.MeetingAPIURL = "http://localhost:8000"
	}
	if cfg.AnalysisEndpoint == "" {
		cfg.AnalysisEndpoint = "http://localhost:4000/run-analysis"
	}
	if cfg.RecordingDir == "" {
		cfg.RecordingDir = filepath.Join(os.TempDir(), "discussion-host")
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "."
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.Output == "" {
		cfg.Output = "text"
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".discussion-host", "config.yaml")
}

// loadConfigFile 读取 yaml 配置；文件不存在时忽略
func loadConfigFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// addGlobalFlags 为 root 命令添加全局标志
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "配置文件 (默认: ~/.discussion-host/config.yaml)")
	cmd.PersistentFlags().String("env-file", "", "加载 .env 文件，不覆盖已有环境变量")
	cmd.PersistentFlags().String("meeting-api", "", "会议创建服务地址 (env: DH_MEETING_API_URL, 默认: http://localhost:8000)")
	cmd.PersistentFlags().String("invite-origin", "", "邀请链接前缀 (env: DH_INVITE_ORIGIN, 默认同 meeting-api)")
	cmd.PersistentFlags().String("analysis-endpoint", "", "分析服务地址 (env: DH_ANALYSIS_ENDPOINT)")
	cmd.PersistentFlags().String("download-dir", "", "报告与录音下载目录 (env: DH_DOWNLOAD_DIR, 默认: 当前目录)")
	cmd.PersistentFlags().String("log-level", "", "日志级别: debug/info/warn/error (默认: warn)")
	cmd.PersistentFlags().StringP("output", "o", "", "输出格式: json / text (默认: text)")
}
