package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/recording"
	"github.com/houzhh15/discussion-host/pkg/room"
	"github.com/houzhh15/discussion-host/pkg/timer"
)

// recordTick 录音时钟周期（测试可缩短）
var recordTick = time.Second

func newRecordCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "record",
		Short: "录制讨论，直到倒计时结束或按 Ctrl-C，并保存 WAV 文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			minutes, _ := cmd.Flags().GetInt("duration")
			if minutes <= 0 {
				minutes = meeting.DefaultDuration
			}
			log := newLogger(cfg, cmd.ErrOrStderr())

			rm := room.New(room.Config{
				Meeting:      meeting.Meeting{Config: meeting.Config{Topic: "recording", Duration: minutes}},
				Capturer:     newCapturer(cfg),
				RecordingDir: cfg.RecordingDir,
				Tick:         recordTick,
				Logger:       log,
			})

			artifact, err := recordUntilDone(cmd.Context(), rm, cmd.ErrOrStderr())
			if err != nil {
				return userError(err)
			}
			if artifact == nil {
				return fmt.Errorf("no audio was captured")
			}
			path, err := artifact.Save(cfg.DownloadDir)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, struct {
				Path     string  `json:"path"`
				Size     int64   `json:"size"`
				Duration float64 `json:"duration_sec"`
			}{path, artifact.Size, artifact.Duration().Seconds()}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Recording saved to %s (%s)\n", path, timer.FormatClock(int(artifact.Duration().Seconds())))
				return err
			})
		},
	}
	c.Flags().Int("duration", meeting.DefaultDuration, "倒计时（分钟），到时自动停止")
	return c
}

// recordUntilDone 在房间内录音，直到倒计时归零（房间自动停止）或 ctx 取消
func recordUntilDone(ctx context.Context, rm *room.Room, status io.Writer) (*recording.Artifact, error) {
	if err := rm.Mount(ctx); err != nil {
		return nil, err
	}
	defer rm.Unmount()

	if err := rm.StartRecording(ctx); err != nil {
		return nil, err
	}

	printCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	printing := make(chan struct{})
	go func() {
		defer close(printing)
		_ = timer.Run(printCtx, recordTick, func() {
			snap := rm.Snapshot()
			fmt.Fprintf(status, "\r● REC %s  remaining %s ", snap.Recording.Clock, snap.TimeRemaining)
		})
	}()

	timeUp := false
	select {
	case <-rm.TimeUp():
		timeUp = true
	case <-ctx.Done():
	}
	cancel()
	<-printing

	fmt.Fprintln(status)
	if timeUp {
		fmt.Fprintln(status, "Time is up")
	}
	// 倒计时已停止时返回既有录音
	return rm.StopRecording()
}
