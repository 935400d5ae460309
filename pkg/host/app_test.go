package host

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/discussion-host/pkg/analysis"
	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/pages"
	"github.com/houzhh15/discussion-host/pkg/recording"
	"github.com/houzhh15/discussion-host/pkg/room"
)

type fakeCreator struct {
	err   error
	calls int
}

func (f *fakeCreator) Create(ctx context.Context, cfg meeting.Config) (*meeting.Handle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &meeting.Handle{MeetingID: "m-7", InviteLink: meeting.InviteLink("https://option.ai", "m-7")}, nil
}

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
	s.out <- []byte{1, 0, 2, 0}
	return s, nil
}

type fakeAnalyzer struct {
	result *analysis.Result
	err    error
}

func (f fakeAnalyzer) Submit(ctx context.Context, a *recording.Artifact) (*analysis.Result, error) {
	return f.result, f.err
}

func newTestApp(t *testing.T, creator meeting.Creator, analyzer room.Analyzer) (*App, *[]string) {
	t.Helper()
	var copied []string
	copier := meeting.NewCopier(func(s string) error { copied = append(copied, s); return nil }, nil, nil)
	dir := t.TempDir()
	app := New(context.Background(), meeting.NewSetup(creator, nil, nil), copier, func(m meeting.Meeting) *room.Room {
		return room.New(room.Config{Meeting: m, Capturer: fakeCapturer{}, RecordingDir: dir, Analyzer: analyzer})
	}, nil)
	t.Cleanup(app.Close)
	return app, &copied
}

var validConfig = meeting.Config{Topic: "Hiring plan", Duration: 10, Participants: 5}

func TestFullFlow(t *testing.T) {
	result := &analysis.Result{Summary: "s", Conclusions: []string{"Proceed with Plan A"}}
	app, copied := newTestApp(t, &fakeCreator{}, fakeAnalyzer{result: result})
	ctx := context.Background()

	assert.Equal(t, pages.Landing, app.Page())
	require.NoError(t, app.Host())
	assert.Equal(t, pages.Setup, app.Page())

	m, err := app.CreateMeeting(ctx, validConfig)
	require.NoError(t, err)
	assert.Equal(t, "https://option.ai/join/m-7", m.Handle.InviteLink)

	require.NoError(t, app.CopyInvite())
	assert.Equal(t, []string{"https://option.ai/join/m-7"}, *copied)
	assert.True(t, app.State().Copied)

	name, body, err := app.MeetingReport()
	require.NoError(t, err)
	assert.Equal(t, "meeting-m-7.txt", name)
	assert.Contains(t, body, "Topic: Hiring plan")

	_, err = app.StartMeeting()
	require.NoError(t, err)
	assert.Equal(t, pages.Meeting, app.Page())

	require.NoError(t, app.StartRecording(ctx))
	a, err := app.StopRecording()
	require.NoError(t, err)
	require.NotNil(t, a)

	res, err := app.Analyze(ctx)
	require.NoError(t, err)
	assert.Same(t, result, res)
	assert.Equal(t, pages.Conclusion, app.Page())

	st := app.State()
	require.NotNil(t, st.Conclusion)
	assert.Equal(t, "Proceed with Plan A", st.Conclusion.FinalOutcome)

	v, err := app.Conclusion()
	require.NoError(t, err)
	assert.Equal(t, "Hiring plan", v.Topic)

	// conclusion -> meeting keeps the room and the result
	p, err := app.Back()
	require.NoError(t, err)
	assert.Equal(t, pages.Meeting, p)
	require.NoError(t, app.ShowConclusion())
	_, err = app.Back()
	require.NoError(t, err)

	// meeting -> setup discards the meeting and the recording
	p, err = app.Back()
	require.NoError(t, err)
	assert.Equal(t, pages.Setup, p)
	_, err = app.Meeting()
	assert.ErrorIs(t, err, ErrNoMeeting)
	_, err = app.Room()
	assert.ErrorIs(t, err, ErrNoRoom)
	assert.Nil(t, app.State().Room)
}

func TestCreateMeetingOnlyOnSetupPage(t *testing.T) {
	creator := &fakeCreator{}
	app, _ := newTestApp(t, creator, nil)

	_, err := app.CreateMeeting(context.Background(), validConfig)
	require.ErrorIs(t, err, pages.ErrInvalidTransition)
	assert.Equal(t, 0, creator.calls)
}

func TestCreateMeetingFailureKeepsState(t *testing.T) {
	creator := &fakeCreator{}
	app, _ := newTestApp(t, creator, nil)
	require.NoError(t, app.Host())

	_, err := app.CreateMeeting(context.Background(), validConfig)
	require.NoError(t, err)

	creator.err = meeting.ErrCreateFailed
	_, err = app.CreateMeeting(context.Background(), meeting.Config{Topic: "Other", Duration: 5, Participants: 3})
	require.ErrorIs(t, err, meeting.ErrCreateFailed)

	m, err := app.Meeting()
	require.NoError(t, err)
	assert.Equal(t, "Hiring plan", m.Config.Topic)
}

func TestStartMeetingNeedsMeeting(t *testing.T) {
	app, _ := newTestApp(t, &fakeCreator{}, nil)
	require.NoError(t, app.Host())

	_, err := app.StartMeeting()
	require.ErrorIs(t, err, ErrNoMeeting)
	assert.Equal(t, pages.Setup, app.Page())
}

func TestBackToLandingClearsMeeting(t *testing.T) {
	app, _ := newTestApp(t, &fakeCreator{}, nil)
	require.NoError(t, app.Host())
	_, err := app.CreateMeeting(context.Background(), validConfig)
	require.NoError(t, err)

	_, err = app.Back()
	require.NoError(t, err)
	assert.Equal(t, pages.Landing, app.Page())
	_, err = app.Meeting()
	assert.ErrorIs(t, err, ErrNoMeeting)
}

func TestAnalyzeFailureStaysInRoom(t *testing.T) {
	app, _ := newTestApp(t, &fakeCreator{}, fakeAnalyzer{err: &analysis.ParseError{Cause: errors.New("bad")}})
	require.NoError(t, app.Host())
	_, err := app.CreateMeeting(context.Background(), validConfig)
	require.NoError(t, err)
	_, err = app.StartMeeting()
	require.NoError(t, err)

	_, err = app.Analyze(context.Background())
	require.ErrorIs(t, err, analysis.ErrNoArtifact)

	require.NoError(t, app.StartRecording(context.Background()))
	_, err = app.StopRecording()
	require.NoError(t, err)

	_, err = app.Analyze(context.Background())
	assert.Equal(t, "Failed to parse the analysis from the server.", Notice(err))
	assert.Equal(t, pages.Meeting, app.Page())
	assert.ErrorIs(t, app.ShowConclusion(), ErrNoResult)
}

func TestAnalyzeWithoutResultStaysInRoom(t *testing.T) {
	app, _ := newTestApp(t, &fakeCreator{}, fakeAnalyzer{})
	require.NoError(t, app.Host())
	_, err := app.CreateMeeting(context.Background(), validConfig)
	require.NoError(t, err)
	_, err = app.StartMeeting()
	require.NoError(t, err)
	require.NoError(t, app.StartRecording(context.Background()))
	_, err = app.StopRecording()
	require.NoError(t, err)

	res, err := app.Analyze(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, pages.Meeting, app.Page())
	st := app.State()
	require.NotNil(t, st.Room)
	assert.False(t, st.Room.Analyzing)
}

func TestNotice(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{recording.ErrPermissionDenied, "Unable to access microphone. Please check permissions."},
		{meeting.ErrEmptyTopic, "Please enter a discussion topic"},
		{meeting.ErrCreateFailed, "Could not set up the meeting. Please try again."},
		{analysis.ErrNoArtifact, "No recording available to analyze"},
		{&analysis.HTTPError{StatusCode: 500, Message: "oops"}, "Analysis failed: oops"},
		{analysis.ErrTransport, "Analysis error, please check the backend status."},
		{ErrNoMeeting, "Please set up a meeting first"},
		{pages.ErrInvalidTransition, "That action is not available on this page"},
		{errors.New("something else"), "something else"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Notice(tt.err))
	}
}
