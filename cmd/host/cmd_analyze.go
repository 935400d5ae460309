package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/houzhh15/discussion-host/pkg/analysis"
	"github.com/houzhh15/discussion-host/pkg/conclusion"
	"github.com/houzhh15/discussion-host/pkg/recording"
)

func newAnalyzeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "analyze <recording.wav>",
		Short: "提交录音进行分析并输出结论",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			artifact, err := artifactFromFile(args[0])
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd.ErrOrStderr())

			fmt.Fprintln(cmd.ErrOrStderr(), "Analyzing...")
			res, err := analysis.NewClient(cfg.AnalysisEndpoint, log).Submit(cmd.Context(), artifact)
			if err != nil {
				return userError(err)
			}

			participants, _ := cmd.Flags().GetInt("participants")
			duration, _ := cmd.Flags().GetInt("duration")
			view := conclusion.View{
				Topic:        mustGetString(cmd, "topic"),
				Participants: participants,
				Duration:     duration,
				Result:       res,
			}
			if err := printOutput(cmd.OutOrStdout(), cfg.Output, view.Summarize(), view.Render); err != nil {
				return err
			}

			if report, _ := cmd.Flags().GetBool("report"); report {
				return saveReports(cmd.ErrOrStderr(), cfg.DownloadDir, view, time.Now())
			}
			return nil
		},
	}
	c.Flags().String("topic", "", "讨论主题（用于结论与报告）")
	c.Flags().Int("participants", 0, "参与人数（用于报告）")
	c.Flags().Int("duration", 0, "会议时长（分钟，用于报告）")
	c.Flags().Bool("report", false, "下载结论报告与分析报告到 download-dir")
	return c
}

// artifactFromFile 将已有 WAV 文件作为待分析录音
func artifactFromFile(path string) (*recording.Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, analysis.ErrNoArtifact
	}
	return &recording.Artifact{
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// saveReports 下载结论报告与会议室分析报告
func saveReports(status io.Writer, dir string, view conclusion.View, now time.Time) error {
	var report, analysisReport bytes.Buffer
	if err := view.Report(&report); err != nil {
		return err
	}
	if err := view.AnalysisReport(&analysisReport, now); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		body []byte
	}{
		{view.ReportFileName(), report.Bytes()},
		{conclusion.AnalysisReportFileName(now), analysisReport.Bytes()},
	} {
		path, err := writeDownload(dir, f.name, f.body)
		if err != nil {
			return err
		}
		fmt.Fprintf(status, "Report saved to %s\n", path)
	}
	return nil
}
