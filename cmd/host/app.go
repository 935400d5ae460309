package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/houzhh15/discussion-host/pkg/host"
	"github.com/houzhh15/discussion-host/pkg/logger"
	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/recording"
)

// capturerOverride 替换默认的 ffmpeg 录音（测试使用）
var capturerOverride recording.Capturer

// newLogger CLI 日志写到 stderr，默认只输出告警
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	l, err := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Environment: "dev"}, w)
	if err != nil {
		l, _ = logger.NewWithWriter(logger.Config{Level: "warn", Environment: "dev"}, w)
	}
	return l
}

func newCapturer(cfg *Config) recording.Capturer {
	if capturerOverride != nil {
		return capturerOverride
	}
	return recording.NewFFmpegCapturer(recording.FFmpegConfig{
		BinaryPath:  cfg.FFmpegPath,
		InputFormat: cfg.InputFormat,
		Device:      cfg.Device,
	})
}

// buildApp 组装完整的主持流程；剪贴板不可用时经终端 OSC 52 复制
func buildApp(ctx context.Context, cfg *Config, log *slog.Logger, term io.Writer) (*host.App, error) {
	return host.Build(ctx, host.Options{
		MeetingAPIURL:      cfg.MeetingAPIURL,
		InviteOrigin:       cfg.InviteOrigin,
		DiscordWebhookURL:  cfg.DiscordWebhookURL,
		DiscordSilent:      cfg.DiscordSilent,
		AnalysisEndpoint:   cfg.AnalysisEndpoint,
		RealtimeProjectURL: cfg.RealtimeURL,
		RealtimeAPIKey:     cfg.RealtimeKey,
		RecordingDir:       cfg.RecordingDir,
		Capturer:           newCapturer(cfg),
		Clipboard:          meeting.SystemClipboard,
		ClipboardFallback:  meeting.OSC52Clipboard(term),
		Logger:             log,
	})
}
