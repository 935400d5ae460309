package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// chunkBytes is 100ms of 16 kHz mono s16le audio.
	chunkBytes            = SampleRate / 10 * BitDepth / 8 * NumChannels
	defaultStartupTimeout = 3 * time.Second
)

// FFmpegConfig configures the ffmpeg microphone capturer.
type FFmpegConfig struct {
	// BinaryPath defaults to "ffmpeg" on PATH.
	BinaryPath string
	// InputFormat is the ffmpeg demuxer for the platform audio API
	// (avfoundation, pulse, alsa, dshow). Empty selects the platform default.
	InputFormat string
	// Device is the input device name. Empty selects the platform default.
	Device string
	// StartupTimeout bounds the wait for the first audio block.
	StartupTimeout time.Duration
}

// FFmpegCapturer captures the default microphone through an ffmpeg child
// process that streams raw PCM to stdout.
type FFmpegCapturer struct {
	cfg FFmpegConfig
}

// NewFFmpegCapturer creates a capturer with platform defaults filled in.
func NewFFmpegCapturer(cfg FFmpegConfig) *FFmpegCapturer {
	if strings.TrimSpace(cfg.BinaryPath) == "" {
		cfg.BinaryPath = "ffmpeg"
	}
	if cfg.InputFormat == "" || cfg.Device == "" {
		format, device := platformInput(runtime.GOOS)
		if cfg.InputFormat == "" {
			cfg.InputFormat = format
		}
		if cfg.Device == "" {
			cfg.Device = device
		}
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	return &FFmpegCapturer{cfg: cfg}
}

func platformInput(goos string) (format, device string) {
	switch goos {
	case "darwin":
		return "avfoundation", ":default"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}

// Args returns the ffmpeg arguments used to open the microphone.
func (c *FFmpegCapturer) Args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", c.cfg.InputFormat,
		"-i", c.cfg.Device,
		"-ac", fmt.Sprint(NumChannels),
		"-ar", fmt.Sprint(SampleRate),
		"-f", "s16le",
		"-",
	}
}

// Open starts ffmpeg and waits until the first audio block arrives. Every
// startup failure, including ctx being cancelled first, is reported as
// ErrPermissionDenied.
func (c *FFmpegCapturer) Open(ctx context.Context) (Stream, error) {
	if _, err := exec.LookPath(c.cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found (%s)", ErrPermissionDenied, c.cfg.BinaryPath)
	}

	cmd := exec.Command(c.cfg.BinaryPath, c.Args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", ErrPermissionDenied, err)
	}

	s := &ffmpegStream{
		cmd:    cmd,
		out:    make(chan []byte, 64),
		first:  make(chan struct{}),
		done:   make(chan struct{}),
		stderr: stderr,
	}
	go s.readLoop(stdout)

	timer := time.NewTimer(c.cfg.StartupTimeout)
	defer timer.Stop()

	select {
	case <-s.first:
		return s, nil
	case <-s.done:
		_ = s.Close()
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, s.stderr.summary())
	case <-timer.C:
		_ = s.Close()
		return nil, fmt.Errorf("%w: no audio within %s", ErrPermissionDenied, c.cfg.StartupTimeout)
	case <-ctx.Done():
		_ = s.Close()
		return nil, fmt.Errorf("%w: start cancelled: %w", ErrPermissionDenied, ctx.Err())
	}
}

type ffmpegStream struct {
	cmd       *exec.Cmd
	out       chan []byte
	first     chan struct{}
	firstOnce sync.Once
	done      chan struct{}
	paused    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	stderr    *lockedBuffer
}

func (s *ffmpegStream) readLoop(r io.Reader) {
	defer close(s.done)
	defer close(s.out)

	buf := make([]byte, chunkBytes)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			s.firstOnce.Do(func() { close(s.first) })
			if !s.paused.Load() {
				block := make([]byte, n)
				copy(block, buf[:n])
				s.out <- block
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *ffmpegStream) Chunks() <-chan []byte { return s.out }

func (s *ffmpegStream) Pause() error {
	s.paused.Store(true)
	return nil
}

func (s *ffmpegStream) Resume() error {
	s.paused.Store(false)
	return nil
}

// Close kills ffmpeg, waits for the reader to drain and releases the device.
// Safe to call more than once.
func (s *ffmpegStream) Close() error {
	s.closeOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-s.done
		if err := s.cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				s.closeErr = fmt.Errorf("ffmpeg wait: %w", err)
			}
		}
	})
	return s.closeErr
}

// lockedBuffer collects ffmpeg stderr for error reporting.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) summary() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg := strings.TrimSpace(b.buf.String())
	if msg == "" {
		return "ffmpeg exited before producing audio"
	}
	if len(msg) > 300 {
		msg = msg[len(msg)-300:]
	}
	return msg
}
