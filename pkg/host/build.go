package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/houzhh15/discussion-host/pkg/analysis"
	"github.com/houzhh15/discussion-host/pkg/logger"
	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/recording"
	"github.com/houzhh15/discussion-host/pkg/room"
)

// Options CLI 与服务端共用的外部协作方配置
type Options struct {
	MeetingAPIURL     string
	InviteOrigin      string
	DiscordWebhookURL string
	DiscordSilent     bool

	AnalysisEndpoint string

	// RealtimeProjectURL 与 RealtimeAPIKey 同时设置时启用实时通道
	RealtimeProjectURL string
	RealtimeAPIKey     string

	RecordingDir string
	FFmpeg       recording.FFmpegConfig
	// Capturer 替换默认的 ffmpeg 采集器
	Capturer recording.Capturer

	Clipboard         meeting.ClipboardFunc
	ClipboardFallback meeting.ClipboardFunc

	Logger *slog.Logger
}

// Build 装配外部协作方，返回绑定 ctx 的 App
func Build(ctx context.Context, opts Options) (*App, error) {
	log := logger.OrDiscard(opts.Logger)

	var announcer meeting.Announcer
	if opts.DiscordWebhookURL != "" {
		a, err := meeting.NewDiscordAnnouncer(opts.DiscordWebhookURL, opts.DiscordSilent, log)
		if err != nil {
			return nil, fmt.Errorf("discord announcer: %w", err)
		}
		announcer = a
	}

	var subscriber analysis.Subscriber
	if opts.RealtimeProjectURL != "" && opts.RealtimeAPIKey != "" {
		wsURL, err := analysis.RealtimeURL(opts.RealtimeProjectURL, opts.RealtimeAPIKey)
		if err != nil {
			return nil, err
		}
		subscriber = analysis.NewRealtimeClient(analysis.RealtimeConfig{
			URL:    wsURL,
			APIKey: opts.RealtimeAPIKey,
			Logger: log,
		})
	}

	capturer := opts.Capturer
	if capturer == nil {
		capturer = recording.NewFFmpegCapturer(opts.FFmpeg)
	}

	setup := meeting.NewSetup(meeting.NewClient(opts.MeetingAPIURL, opts.InviteOrigin), announcer, log)
	copier := meeting.NewCopier(opts.Clipboard, opts.ClipboardFallback, log)
	analyzer := analysis.NewClient(opts.AnalysisEndpoint, log)

	newRoom := func(m meeting.Meeting) *room.Room {
		return room.New(room.Config{
			Meeting:      m,
			Capturer:     capturer,
			RecordingDir: opts.RecordingDir,
			Analyzer:     analyzer,
			Subscriber:   subscriber,
			Logger:       log.With("component", "room"),
		})
	}

	log.Info("host ready",
		"meeting_api", opts.MeetingAPIURL,
		"analysis_endpoint", analyzer.Endpoint(),
		"realtime", subscriber != nil,
		"discord", announcer != nil)
	return New(ctx, setup, copier, newRoom, log), nil
}
