package recording

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCapturer hands out fakeStreams and records how often it was opened.
type fakeCapturer struct {
	err    error
	opened atomic.Int32
	stream *fakeStream
}

func (c *fakeCapturer) Open(ctx context.Context) (Stream, error) {
	c.opened.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	c.stream = &fakeStream{out: make(chan []byte, 16)}
	return c.stream, nil
}

type fakeStream struct {
	mu     sync.Mutex
	out    chan []byte
	paused bool
	closed bool
	closes int
}

func (s *fakeStream) Chunks() <-chan []byte { return s.out }

func (s *fakeStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *fakeStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	if !s.closed {
		s.closed = true
		close(s.out)
	}
	return nil
}

// emit behaves like the device: paused streams deliver nothing.
func (s *fakeStream) emit(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.closed {
		return
	}
	s.out <- b
}

func newTestSession(t *testing.T, c Capturer) *Session {
	t.Helper()
	return NewSession(SessionConfig{
		Capturer: c,
		Dir:      t.TempDir(),
		Now:      func() time.Time { return time.UnixMilli(1000) },
	})
}

func TestSessionLifecycle(t *testing.T) {
	c := &fakeCapturer{}
	s := newTestSession(t, c)
	ctx := context.Background()

	require.Equal(t, StateIdle, s.State())
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, StateRecording, s.State())

	c.stream.emit(pcm(1, 2))
	s.Tick()
	s.Tick()
	assert.Equal(t, 2, s.Elapsed())

	require.NoError(t, s.Pause())
	assert.Equal(t, StatePaused, s.State())
	c.stream.emit(pcm(9, 9))
	s.Tick()
	assert.Equal(t, 2, s.Elapsed(), "elapsed must freeze while paused")

	require.NoError(t, s.Resume())
	c.stream.emit(pcm(3))
	s.Tick()
	assert.Equal(t, 3, s.Elapsed(), "elapsed continues from frozen value")

	a, err := s.Stop()
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, StateStopped, s.State())
	assert.Equal(t, 3, a.Samples)
	assert.Equal(t, 1, c.stream.closes, "device released once")

	s.Tick()
	assert.Equal(t, 3, s.Elapsed(), "elapsed must not advance after stop")

	snap := s.Snapshot()
	assert.Equal(t, StateStopped, snap.State)
	assert.Equal(t, "00:03", snap.Clock)
	assert.Equal(t, int64(6), snap.CapturedBytes)
	assert.Same(t, a, snap.Artifact)
}

func TestSessionStopIsIdempotent(t *testing.T) {
	c := &fakeCapturer{}
	s := newTestSession(t, c)

	a, err := s.Stop()
	require.NoError(t, err)
	assert.Nil(t, a, "stop from idle is a no-op")
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Start(context.Background()))
	c.stream.emit(pcm(5))
	first, err := s.Stop()
	require.NoError(t, err)

	second, err := s.Stop()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.stream.closes)
}

func TestSessionStopWithoutChunksHasNoArtifact(t *testing.T) {
	c := &fakeCapturer{}
	s := newTestSession(t, c)

	require.NoError(t, s.Start(context.Background()))
	a, err := s.Stop()
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.Nil(t, s.Artifact())
	assert.Equal(t, StateStopped, s.State())
}

func TestSessionPermissionDeniedStaysIdle(t *testing.T) {
	c := &fakeCapturer{err: errors.Join(ErrPermissionDenied, errors.New("no device"))}
	s := newTestSession(t, c)

	err := s.Start(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Artifact())
}

func TestSessionWithoutCapturer(t *testing.T) {
	s := newTestSession(t, nil)
	require.ErrorIs(t, s.Start(context.Background()), ErrPermissionDenied)
	assert.Equal(t, StateIdle, s.State())
}

func TestSessionPauseResumeNoOps(t *testing.T) {
	c := &fakeCapturer{}
	s := newTestSession(t, c)

	assert.NoError(t, s.Pause())
	assert.NoError(t, s.Resume())
	assert.NoError(t, s.TogglePause())
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Resume(), "resume while recording is a no-op")
	assert.Equal(t, StateRecording, s.State())

	require.NoError(t, s.TogglePause())
	assert.Equal(t, StatePaused, s.State())
	require.NoError(t, s.TogglePause())
	assert.Equal(t, StateRecording, s.State())
}

func TestSessionStartTwiceRejected(t *testing.T) {
	c := &fakeCapturer{}
	s := newTestSession(t, c)

	require.NoError(t, s.Start(context.Background()))
	require.ErrorIs(t, s.Start(context.Background()), ErrInvalidTransition)
	assert.Equal(t, int32(1), c.opened.Load(), "device is never re-acquired while held")
}

func TestSessionRelease(t *testing.T) {
	c := &fakeCapturer{}
	s := newTestSession(t, c)

	s.Release()
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Pause())
	s.Release()
	assert.Equal(t, StateStopped, s.State())
	assert.Equal(t, 1, c.stream.closes)
}

// blockingCapturer holds Open until release is closed or ctx is done.
type blockingCapturer struct {
	opening    chan struct{}
	release    chan struct{}
	openAnyway bool
	stream     *fakeStream
}

func newBlockingCapturer() *blockingCapturer {
	return &blockingCapturer{opening: make(chan struct{}), release: make(chan struct{})}
}

func (c *blockingCapturer) Open(ctx context.Context) (Stream, error) {
	close(c.opening)
	select {
	case <-c.release:
	case <-ctx.Done():
		if !c.openAnyway {
			return nil, ctx.Err()
		}
	}
	c.stream = &fakeStream{out: make(chan []byte, 16)}
	return c.stream, nil
}

func TestSessionStartDoesNotBlockReaders(t *testing.T) {
	c := newBlockingCapturer()
	s := newTestSession(t, c)

	started := make(chan error, 1)
	go func() { started <- s.Start(context.Background()) }()
	<-c.opening

	snaps := make(chan Snapshot, 1)
	go func() { snaps <- s.Snapshot() }()
	select {
	case snap := <-snaps:
		assert.Equal(t, StateIdle, snap.State)
	case <-time.After(time.Second):
		t.Fatal("snapshot blocked while the device was opening")
	}
	require.ErrorIs(t, s.Start(context.Background()), ErrInvalidTransition, "second start while opening")

	close(c.release)
	require.NoError(t, <-started)
	assert.Equal(t, StateRecording, s.State())
}

func TestSessionStartCancelledIsPermissionDenied(t *testing.T) {
	c := newBlockingCapturer()
	s := newTestSession(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan error, 1)
	go func() { started <- s.Start(ctx) }()
	<-c.opening
	cancel()

	err := <-started
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateIdle, s.State())

	// a later start is allowed again
	c2 := &fakeCapturer{}
	s.capturer = c2
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateRecording, s.State())
}

func TestSessionReleaseDuringStartClosesDevice(t *testing.T) {
	c := newBlockingCapturer()
	c.openAnyway = true
	s := newTestSession(t, c)

	started := make(chan error, 1)
	go func() { started <- s.Start(context.Background()) }()
	<-c.opening
	s.Release()

	require.ErrorIs(t, <-started, ErrPermissionDenied)
	assert.Equal(t, StateIdle, s.State())
	require.NotNil(t, c.stream)
	assert.Equal(t, 1, c.stream.closes, "a device opened after release is closed again")
}
