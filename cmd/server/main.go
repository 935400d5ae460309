// Command server runs the discussion host console: the meeting setup,
// meeting room and conclusion flow exposed as a JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/houzhh15/discussion-host/cmd/server/internal/api"
	"github.com/houzhh15/discussion-host/cmd/server/internal/config"
	"github.com/houzhh15/discussion-host/cmd/server/internal/health"
	"github.com/houzhh15/discussion-host/cmd/server/internal/middleware"
	"github.com/houzhh15/discussion-host/pkg/host"
	"github.com/houzhh15/discussion-host/pkg/logger"
	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/recording"
)

const (
	serviceName    = "discussion-host-console"
	serviceVersion = "1.0.0"
)

func main() {
	envFile := flag.String("envFile", ".env", "load environment variables from this file if it exists; existing variables win")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logEnv := cfg.Server.Env
	if cfg.Log.Format == "json" {
		logEnv = "prod"
	}
	logInstance, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: logEnv,
		WithSource:  cfg.IsDevelopment(),
		FilePath:    cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "web-server")

	// Validate configuration
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)
	appLogger.Debug(cfg.PrintConfig())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := host.Build(ctx, host.Options{
		MeetingAPIURL:      cfg.Meeting.APIBaseURL,
		InviteOrigin:       cfg.Meeting.InviteOrigin,
		DiscordWebhookURL:  cfg.Meeting.DiscordWebhookURL,
		DiscordSilent:      cfg.Meeting.DiscordSilent,
		AnalysisEndpoint:   cfg.Analysis.Endpoint,
		RealtimeProjectURL: cfg.Realtime.ProjectURL,
		RealtimeAPIKey:     cfg.Realtime.APIKey,
		RecordingDir:       cfg.Recording.Dir,
		FFmpeg: recording.FFmpegConfig{
			BinaryPath:  cfg.Recording.FFmpegPath,
			InputFormat: cfg.Recording.InputFormat,
			Device:      cfg.Recording.Device,
		},
		Clipboard: meeting.SystemClipboard,
		Logger:    logInstance,
	})
	if err != nil {
		appLogger.Error("host init failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	checker := health.NewChecker([]health.Probe{
		health.DirProbe{ServiceName: "recordings_dir", Dir: cfg.Recording.Dir},
		health.BinaryProbe{ServiceName: "ffmpeg", Path: cfg.Recording.FFmpegPath},
		health.HTTPProbe{ServiceName: "analysis_service", URL: cfg.Analysis.Endpoint},
		health.HTTPProbe{ServiceName: "meeting_api", URL: cfg.Meeting.APIBaseURL + meeting.CreatePath},
	}, time.Minute, 3, logInstance)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	startTime := time.Now()
	r.GET("/health", api.HandleHealth(serviceName, serviceVersion, cfg.Server.Env, startTime))
	r.GET("/api/v1/health", api.HandleHealth(serviceName, serviceVersion, cfg.Server.Env, startTime))
	r.GET("/readiness", api.HandleReadiness(checker))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api.RegisterRoutes(r, app)

	srv := &http.Server{
		Addr:              cfg.GetServerAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g := run.Group{}

	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT))

	g.Add(func() error {
		appLogger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}, func(error) {
		appLogger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("server forced to shutdown", "error", err)
		}
	})

	healthCtx, healthCancel := context.WithCancel(ctx)
	g.Add(func() error {
		return checker.Run(healthCtx)
	}, func(error) {
		healthCancel()
	})

	err = g.Run()
	var sigErr run.SignalError
	if err != nil && !errors.As(err, &sigErr) {
		appLogger.Error("server stopped", "error", err)
		app.Close()
		os.Exit(1)
	}
	if err != nil {
		appLogger.Info("shutdown signal received", "signal", sigErr.Signal.String())
	}
	appLogger.Info("server shutdown complete")
}
