package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/houzhh15/discussion-host/pkg/host"
	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/pages"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "交互式主持整场讨论（设置、录音、分析、结论）",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			app, err := buildApp(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()), out)
			if err != nil {
				return err
			}
			defer app.Close()

			s := &session{
				ctx: cmd.Context(),
				app: app,
				cfg: cfg,
				in:  bufio.NewScanner(cmd.InOrStdin()),
				out: out,
			}
			return s.loop()
		},
	}
}

// session 交互式命令循环
type session struct {
	ctx context.Context
	app *host.App
	cfg *Config
	in  *bufio.Scanner
	out io.Writer
}

type command struct {
	name string
	help string
	run  func(s *session) error
}

func commandTable() []command {
	return []command{
		{"host", "open the meeting setup", func(s *session) error { return s.app.Host() }},
		{"setup", "fill in the setup form and create the meeting", (*session).setup},
		{"share", "show the share links", (*session).share},
		{"copy", "copy the invite link", (*session).copyInvite},
		{"report", "download the meeting report", (*session).meetingReport},
		{"start", "enter the meeting room", func(s *session) error { _, err := s.app.StartMeeting(); return err }},
		{"rec", "start recording", func(s *session) error { return s.app.StartRecording(s.ctx) }},
		{"pause", "pause or resume recording", (*session).togglePause},
		{"stop", "stop recording", func(s *session) error { _, err := s.app.StopRecording(); return err }},
		{"audio", "download the raw recording", (*session).downloadAudio},
		{"analyze", "submit the recording for analysis", (*session).analyze},
		{"conclusion", "show the conclusion page", (*session).conclusion},
		{"export", "download the conclusion and analysis reports", (*session).export},
		{"back", "go back one page", func(s *session) error { _, err := s.app.Back(); return err }},
		{"status", "show the current page", (*session).status},
		{"help", "list commands", (*session).help},
	}
}

func (s *session) loop() error {
	fmt.Fprintln(s.out, "Discussion host. Type 'help' for commands, 'quit' to exit.")
	for {
		fmt.Fprintf(s.out, "[%s]> ", s.app.Page())
		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		name := strings.ToLower(line)
		if name == "" {
			continue
		}
		if name == "quit" || name == "exit" {
			return nil
		}
		cmd, found := lookup(name)
		if !found {
			fmt.Fprintf(s.out, "unknown command %q\n", name)
			continue
		}
		if err := cmd.run(s); err != nil {
			fmt.Fprintf(s.out, "! %s\n", host.Notice(err))
		}
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commandTable() {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (s *session) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *session) prompt(label, def string) string {
	if def != "" {
		fmt.Fprintf(s.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(s.out, "%s: ", label)
	}
	v, _ := s.readLine()
	if v == "" {
		return def
	}
	return v
}

func (s *session) setup() error {
	if s.app.Page() != pages.Setup {
		return pages.ErrInvalidTransition
	}
	topic := s.prompt("Discussion topic", "")
	durationText := s.prompt(fmt.Sprintf("Duration in minutes %v or custom", meeting.DurationPresets), fmt.Sprint(meeting.DefaultDuration))
	participantsText := s.prompt(fmt.Sprintf("Participants (%d-%d)", meeting.MinParticipants, meeting.MaxParticipants), fmt.Sprint(meeting.DefaultParticipants))
	modelsText := s.prompt("AI models (comma separated, optional)", "")

	var participants int
	if _, err := fmt.Sscan(participantsText, &participants); err != nil {
		participants = meeting.DefaultParticipants
	}
	cfg := meeting.Config{
		Topic:        topic,
		Duration:     meeting.ResolveDuration(meeting.DurationChoice{Custom: true, CustomText: durationText}),
		Participants: participants,
		Models:       strings.Split(modelsText, ","),
	}

	fmt.Fprintln(s.out, "Setting up...")
	if _, err := s.app.CreateMeeting(s.ctx, cfg); err != nil {
		return err
	}
	return s.share()
}

func (s *session) share() error {
	m, err := s.app.Meeting()
	if err != nil {
		return err
	}
	links, err := s.app.Share()
	if err != nil {
		return err
	}
	return printMeeting(s.out, *m, links)
}

func (s *session) copyInvite() error {
	if err := s.app.CopyInvite(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Invite link copied")
	return nil
}

func (s *session) meetingReport() error {
	name, body, err := s.app.MeetingReport()
	if err != nil {
		return err
	}
	return s.saved(writeDownload(s.cfg.DownloadDir, name, []byte(body)))
}

func (s *session) togglePause() error {
	r, err := s.app.Room()
	if err != nil {
		return err
	}
	return r.TogglePause()
}

func (s *session) downloadAudio() error {
	r, err := s.app.Room()
	if err != nil {
		return err
	}
	a := r.Artifact()
	if a == nil {
		fmt.Fprintln(s.out, "No recording yet")
		return nil
	}
	return s.saved(a.Save(s.cfg.DownloadDir))
}

func (s *session) analyze() error {
	fmt.Fprintln(s.out, "Analyzing...")
	res, err := s.app.Analyze(s.ctx)
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Fprintln(s.out, "Analysis finished. Type 'conclusion' once the result has arrived")
		return nil
	}
	return s.conclusion()
}

func (s *session) conclusion() error {
	if s.app.Page() != pages.Conclusion {
		if err := s.app.ShowConclusion(); err != nil {
			return err
		}
	}
	v, err := s.app.Conclusion()
	if err != nil {
		return err
	}
	return v.Render(s.out)
}

func (s *session) export() error {
	v, err := s.app.Conclusion()
	if err != nil {
		return err
	}
	return saveReports(s.out, s.cfg.DownloadDir, v, time.Now())
}

func (s *session) status() error {
	st := s.app.State()
	fmt.Fprintf(s.out, "Page: %s\n", st.Page)
	if st.Meeting != nil {
		fmt.Fprintf(s.out, "Meeting: %s (%s)\n", st.Meeting.Config.Topic, st.Meeting.Handle.InviteLink)
	}
	if st.Room != nil {
		rec := st.Room.Recording
		fmt.Fprintf(s.out, "Time remaining: %s  Recording: %s %s\n", st.Room.TimeRemaining, rec.State, rec.Clock)
		if st.Room.TimeUp {
			fmt.Fprintln(s.out, "Time is up")
		}
		if st.Room.Analyzing {
			fmt.Fprintln(s.out, "Analyzing...")
		}
	}
	return nil
}

func (s *session) help() error {
	for _, c := range commandTable() {
		fmt.Fprintf(s.out, "  %-11s %s\n", c.name, c.help)
	}
	fmt.Fprintf(s.out, "  %-11s %s\n", "quit", "exit")
	return nil
}

func (s *session) saved(path string, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved to %s\n", path)
	return nil
}
