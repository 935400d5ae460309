package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/houzhh15/discussion-host/pkg/meeting"
)

// addMeetingFlags 会议表单标志
func addMeetingFlags(c *cobra.Command) {
	c.Flags().String("topic", "", "讨论主题（必选）")
	c.Flags().Int("duration", meeting.DefaultDuration, fmt.Sprintf("会议时长（分钟），可选预设: %v", meeting.DurationPresets))
	c.Flags().String("custom-duration", "", "自定义时长文本，例如 \"45\"；非正整数时回退为默认值")
	c.Flags().Int("participants", meeting.DefaultParticipants, fmt.Sprintf("参与人数 (%d-%d)", meeting.MinParticipants, meeting.MaxParticipants))
	c.Flags().StringSlice("model", nil, "参与讨论的 AI 模型，可重复")
}

// meetingConfigFromFlags 由标志构造会议表单
func meetingConfigFromFlags(cmd *cobra.Command) meeting.Config {
	choice := meeting.DurationChoice{}
	if cmd.Flags().Changed("custom-duration") {
		choice.Custom = true
		choice.CustomText, _ = cmd.Flags().GetString("custom-duration")
	} else {
		choice.Preset, _ = cmd.Flags().GetInt("duration")
	}
	participants, _ := cmd.Flags().GetInt("participants")
	models, _ := cmd.Flags().GetStringSlice("model")
	return meeting.Config{
		Topic:        mustGetString(cmd, "topic"),
		Duration:     meeting.ResolveDuration(choice),
		Participants: participants,
		Models:       models,
	}
}

func newSetupCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "setup",
		Short: "创建讨论会议并输出邀请链接",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			log := newLogger(cfg, cmd.ErrOrStderr())
			app, err := buildApp(cmd.Context(), cfg, log, out)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Host(); err != nil {
				return userError(err)
			}
			m, err := app.CreateMeeting(cmd.Context(), meetingConfigFromFlags(cmd))
			if err != nil {
				return userError(err)
			}
			share, err := app.Share()
			if err != nil {
				return userError(err)
			}

			if err := printOutput(out, cfg.Output, struct {
				Meeting *meeting.Meeting   `json:"meeting"`
				Share   meeting.ShareLinks `json:"share"`
			}{m, share}, func(w io.Writer) error {
				return printMeeting(w, *m, share)
			}); err != nil {
				return err
			}

			if copyFlag, _ := cmd.Flags().GetBool("copy"); copyFlag {
				if err := app.CopyInvite(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "copy invite link: %v\n", err)
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), "Invite link copied")
				}
			}
			if report, _ := cmd.Flags().GetBool("report"); report {
				name, body, err := app.MeetingReport()
				if err != nil {
					return userError(err)
				}
				path, err := writeDownload(cfg.DownloadDir, name, []byte(body))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Meeting report saved to %s\n", path)
			}
			return nil
		},
	}
	addMeetingFlags(c)
	c.Flags().Bool("copy", false, "复制邀请链接到剪贴板")
	c.Flags().Bool("report", false, "下载会议报告到 download-dir")
	_ = c.MarkFlagRequired("topic")
	return c
}

func newShareCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "share",
		Short: "输出已有会议的分享链接（邮件、WhatsApp、二维码）",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			mc := meetingConfigFromFlags(cmd)
			mc.Participants = meeting.ClampParticipants(mc.Participants)
			origin := cfg.InviteOrigin
			if origin == "" {
				origin = cfg.MeetingAPIURL
			}
			id := mustGetString(cmd, "meeting-id")
			m := meeting.Meeting{
				Config:    mc,
				Handle:    meeting.Handle{MeetingID: id, InviteLink: meeting.InviteLink(origin, id)},
				CreatedAt: time.Now(),
			}
			share := meeting.Share(m.Config, m.Handle)
			return printOutput(cmd.OutOrStdout(), cfg.Output, share, func(w io.Writer) error {
				return printMeeting(w, m, share)
			})
		},
	}
	addMeetingFlags(c)
	c.Flags().String("meeting-id", "", "会议ID（必选）")
	_ = c.MarkFlagRequired("meeting-id")
	_ = c.MarkFlagRequired("topic")
	return c
}

func printMeeting(w io.Writer, m meeting.Meeting, share meeting.ShareLinks) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting ID:   %s\n", m.Handle.MeetingID)
	fmt.Fprintf(&b, "Topic:        %s\n", m.Config.Topic)
	fmt.Fprintf(&b, "Duration:     %d minutes\n", m.Config.Duration)
	fmt.Fprintf(&b, "Participants: %d\n", m.Config.Participants)
	if len(m.Config.Models) > 0 {
		fmt.Fprintf(&b, "Models:       %s\n", strings.Join(m.Config.Models, ", "))
	}
	fmt.Fprintf(&b, "\nInvite link:  %s\n", share.InviteLink)
	fmt.Fprintf(&b, "Email:        %s\n", share.Email)
	fmt.Fprintf(&b, "WhatsApp:     %s\n", share.WhatsApp)
	fmt.Fprintf(&b, "QR code:      %s\n", share.QRCode)
	_, err := io.WriteString(w, b.String())
	return err
}

// mustGetString 获取必选的字符串标志
func mustGetString(cmd *cobra.Command, flag string) string {
	v, _ := cmd.Flags().GetString(flag)
	return v
}
