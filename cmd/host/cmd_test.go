package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/recording"
	"github.com/houzhh15/discussion-host/pkg/room"
)

type fakeStream struct {
	out  chan []byte
	once sync.Once
}

func (s *fakeStream) Chunks() <-chan []byte { return s.out }
func (s *fakeStream) Pause() error          { return nil }
func (s *fakeStream) Resume() error         { return nil }
func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.out) })
	return nil
}

type fakeCapturer struct{}

func (fakeCapturer) Open(ctx context.Context) (recording.Stream, error) {
	s := &fakeStream{out: make(chan []byte, 1)}
	s.out <- []byte{1, 0, 2, 0, 3, 0, 4, 0}
	return s, nil
}

const analysisOutput = `{"summary":"Phased rollout agreed","keyPoints":["Budget"],"commonThemes":["Cost"],` +
	`"conclusions":["Proceed with Plan A"],"sentiment":"positive","participationAnalysis":"balanced",` +
	`"confidenceScore":0.8,"reasoning":"Most participants agreed"}`

func newServices(t *testing.T) (meetingURL, analysisURL string) {
	t.Helper()
	meetings := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/meetings", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"meetingId": "m-1"})
	}))
	t.Cleanup(meetings.Close)

	analyzer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("audio")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.Close()
		_ = json.NewEncoder(w).Encode(map[string]string{"output": analysisOutput})
	}))
	t.Cleanup(analyzer.Close)
	return meetings.URL, analyzer.URL + "/run-analysis"
}

type cliResult struct {
	out, err string
	runErr   error
}

func execute(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	clearDHEnv(t)
	base := []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, base...))
	runErr := root.ExecuteContext(context.Background())
	return cliResult{out: out.String(), err: errOut.String(), runErr: runErr}
}

func TestSetupCmd(t *testing.T) {
	meetingURL, _ := newServices(t)
	dir := t.TempDir()

	res := execute(t, "", "setup",
		"--topic", "Hiring plan",
		"--custom-duration", "45 min",
		"--participants", "80",
		"--report",
		"--meeting-api", meetingURL,
		"--invite-origin", "https://option.ai",
		"--download-dir", dir)
	require.NoError(t, res.runErr, res.err)

	assert.Contains(t, res.out, "Meeting ID:   m-1")
	assert.Contains(t, res.out, "Duration:     45 minutes")
	assert.Contains(t, res.out, "Participants: 50")
	assert.Contains(t, res.out, "Invite link:  https://option.ai/join/m-1")
	assert.FileExists(t, filepath.Join(dir, "meeting-m-1.txt"))
}

func TestSetupCmd_EmptyTopic(t *testing.T) {
	meetingURL, _ := newServices(t)
	res := execute(t, "", "setup", "--topic", "   ", "--meeting-api", meetingURL)
	require.Error(t, res.runErr)
	assert.Equal(t, "Please enter a discussion topic", res.runErr.Error())
}

func TestShareCmd_JSON(t *testing.T) {
	res := execute(t, "", "share",
		"--meeting-id", "abc",
		"--topic", "Q3 roadmap",
		"--invite-origin", "https://option.ai",
		"-o", "json")
	require.NoError(t, res.runErr, res.err)

	var links map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.out), &links))
	assert.Equal(t, "https://option.ai/join/abc", links["invite_link"])
	assert.True(t, strings.HasPrefix(links["email"], "mailto:?subject=Join%20Discussion%3A%20Q3%20roadmap"))
}

func TestAnalyzeCmd(t *testing.T) {
	_, analysisURL := newServices(t)
	dir := t.TempDir()
	wav := filepath.Join(dir, "discussion.wav")
	require.NoError(t, os.WriteFile(wav, []byte("RIFF....WAVE"), 0o600))

	res := execute(t, "", "analyze", wav,
		"--topic", "Hiring plan",
		"--participants", "4",
		"--duration", "10",
		"--report",
		"--analysis-endpoint", analysisURL,
		"--download-dir", dir)
	require.NoError(t, res.runErr, res.err)

	assert.Contains(t, res.out, "Final Conclusion\n  Proceed with Plan A")
	assert.Contains(t, res.out, "Confidence Score: 80%")
	assert.FileExists(t, filepath.Join(dir, "Option.ai_Report_Hiring_plan.txt"))
}

func TestAnalyzeCmd_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
	}))
	defer srv.Close()
	wav := filepath.Join(t.TempDir(), "discussion.wav")
	require.NoError(t, os.WriteFile(wav, []byte("RIFF"), 0o600))

	res := execute(t, "", "analyze", wav, "--analysis-endpoint", srv.URL)
	require.Error(t, res.runErr)
	assert.Equal(t, "Analysis failed: model overloaded", res.runErr.Error())
}

func newRecordRoom(t *testing.T, minutes int) *room.Room {
	t.Helper()
	return room.New(room.Config{
		Meeting:      meeting.Meeting{Config: meeting.Config{Topic: "recording", Duration: minutes}},
		Capturer:     fakeCapturer{},
		RecordingDir: t.TempDir(),
		Tick:         recordTick,
	})
}

func TestRecordUntilDone_StopsWhenTimeIsUp(t *testing.T) {
	old := recordTick
	recordTick = time.Millisecond
	t.Cleanup(func() { recordTick = old })

	rm := newRecordRoom(t, 1)
	var status bytes.Buffer
	a, err := recordUntilDone(context.Background(), rm, &status)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Same(t, a, rm.Artifact(), "the room's auto-stop produced the artifact")
	assert.Equal(t, recording.StateStopped, rm.Snapshot().Recording.State)
	assert.True(t, rm.Snapshot().TimeUp)
	assert.Contains(t, status.String(), "Time is up")
}

func TestRecordUntilDone_StopsOnCancel(t *testing.T) {
	rm := newRecordRoom(t, 60)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var status bytes.Buffer
	a, err := recordUntilDone(ctx, rm, &status)
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.False(t, rm.Snapshot().TimeUp)
	assert.NotContains(t, status.String(), "Time is up")
}

func TestRunCmd_InteractiveFlow(t *testing.T) {
	capturerOverride = fakeCapturer{}
	t.Cleanup(func() { capturerOverride = nil })

	meetingURL, analysisURL := newServices(t)
	dir := t.TempDir()

	script := strings.Join([]string{
		"start", // no meeting yet
		"host",
		"setup",
		"Hiring plan", // topic
		"10",          // duration
		"4",           // participants
		"",            // models
		"start",
		"rec",
		"pause",
		"stop",
		"audio",
		"analyze",
		"export",
		"back",
		"status",
		"quit",
	}, "\n") + "\n"

	res := execute(t, script, "run",
		"--meeting-api", meetingURL,
		"--invite-origin", "https://option.ai",
		"--analysis-endpoint", analysisURL,
		"--download-dir", dir)
	require.NoError(t, res.runErr, res.err)

	assert.Contains(t, res.out, "! Please set up a meeting first")
	assert.Contains(t, res.out, "Invite link:  https://option.ai/join/m-1")
	assert.Contains(t, res.out, "Proceed with Plan A")
	assert.Contains(t, res.out, "Page: meeting")
	assert.Contains(t, res.out, "Recording: stopped")
	assert.FileExists(t, filepath.Join(dir, "Option.ai_Report_Hiring_plan.txt"))

	matches, err := filepath.Glob(filepath.Join(dir, "discussion-*.wav"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
