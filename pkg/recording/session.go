package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/houzhh15/discussion-host/pkg/logger"
	"github.com/houzhh15/discussion-host/pkg/timer"
)

// Snapshot 会话的只读展示视图
type Snapshot struct {
	State         State     `json:"state"`
	Elapsed       int       `json:"elapsed_sec"`
	Clock         string    `json:"clock"`
	CapturedBytes int64     `json:"captured_bytes"`
	Artifact      *Artifact `json:"artifact,omitempty"`
}

// SessionConfig 会话配置
type SessionConfig struct {
	Capturer Capturer
	// Dir 录音文件输出目录，默认 os.TempDir()
	Dir    string
	Logger *slog.Logger
	// Now 用于录音文件命名，默认 time.Now
	Now func() time.Time
}

// Session 每次会议室访问对应一次录音。
//
// 不变量：
//   - 只有处于 recording 状态时 elapsed 才增长
//   - 只有 stopped 且至少采集到一个数据块时 Artifact 才非 nil
//
// 并发安全：所有方法均可并发调用，Tick 与 Stop 通常由定时器 goroutine 调用。
type Session struct {
	capturer Capturer
	dir      string
	log      *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State
	// cancelStart 非空表示 Open 正在锁外进行
	cancelStart context.CancelFunc
	stream      Stream
	collected   chan [][]byte
	artifact    *Artifact
	captured    atomic.Int64
	elapsed     *timer.Counter
}

// NewSession 创建空闲会话
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		capturer: cfg.Capturer,
		dir:      cfg.Dir,
		log:      logger.OrDiscard(cfg.Logger),
		now:      cfg.Now,
		state:    StateIdle,
	}
	if s.dir == "" {
		s.dir = os.TempDir()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.elapsed = timer.NewCounter(func() bool { return s.State() == StateRecording })
	return s
}

// State 返回当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start 获取麦克风并开始采集数据块，权限失败时会话保持 idle。
//
// 打开设备（ffmpeg 启动可能耗时数秒）在锁外进行，期间 State、Snapshot 不受阻塞；
// 并发的第二次 Start 被拒绝，Release 会取消正在进行的打开。
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancelStart != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: start already in progress", ErrInvalidTransition)
	}
	next, err := Next(s.state, EventStart)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.capturer == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no capture device configured", ErrPermissionDenied)
	}
	openCtx, cancel := context.WithCancel(ctx)
	s.cancelStart = cancel
	s.mu.Unlock()

	stream, err := s.capturer.Open(openCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelStart = nil
	cancelled := openCtx.Err()
	cancel()

	if err == nil && cancelled != nil {
		_ = stream.Close()
		err = cancelled
	}
	if err != nil {
		if !errors.Is(err, ErrPermissionDenied) {
			err = fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		}
		s.log.Warn("microphone unavailable", "error", err)
		return err
	}

	s.stream = stream
	s.state = next
	s.captured.Store(0)
	s.elapsed.Reset()
	s.collected = make(chan [][]byte, 1)
	go s.collect(stream.Chunks(), s.collected)

	s.log.Info("recording started")
	return nil
}

func (s *Session) collect(in <-chan []byte, out chan<- [][]byte) {
	var chunks [][]byte
	for c := range in {
		if len(c) == 0 {
			continue
		}
		chunks = append(chunks, c)
		s.captured.Add(int64(len(c)))
	}
	out <- chunks
}

// Pause 暂停录音，非 recording 状态时为空操作
func (s *Session) Pause() error {
	return s.toggle(EventPause)
}

// Resume 继续录音，非 paused 状态时为空操作
func (s *Session) Resume() error {
	return s.toggle(EventResume)
}

// TogglePause 在 recording 与 paused 之间切换，其他状态为空操作
func (s *Session) TogglePause() error {
	switch s.State() {
	case StateRecording:
		return s.Pause()
	case StatePaused:
		return s.Resume()
	}
	return nil
}

func (s *Session) toggle(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Next(s.state, e)
	if err != nil {
		return nil
	}
	if e == EventPause {
		err = s.stream.Pause()
	} else {
		err = s.stream.Resume()
	}
	if err != nil {
		return fmt.Errorf("%s stream: %w", e, err)
	}
	s.state = next
	s.log.Info("recording "+string(next), "elapsed_sec", s.elapsed.Elapsed())
	return nil
}

// Stop 结束录音、释放麦克风并生成录音文件。
// 非 recording/paused 状态调用为空操作，返回已有的录音文件（如有）。
func (s *Session) Stop() (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Next(s.state, EventStop)
	if err != nil {
		return s.artifact, nil
	}
	s.state = next

	closeErr := s.stream.Close()
	chunks := <-s.collected
	s.stream = nil
	s.collected = nil

	createdAt := s.now()
	path := filepath.Join(s.dir, fmt.Sprintf("discussion-%d.wav", createdAt.UnixMilli()))
	artifact, err := assemble(path, chunks, createdAt)
	if err != nil {
		return nil, err
	}
	s.artifact = artifact

	s.log.Info("recording stopped", "elapsed_sec", s.elapsed.Elapsed(), "chunks", len(chunks))
	if closeErr != nil {
		s.log.Warn("microphone release reported an error", "error", closeErr)
	}
	return artifact, nil
}

// Tick 录音中时已录时长加一秒
func (s *Session) Tick() {
	s.elapsed.Tick()
}

// Elapsed 返回已录秒数
func (s *Session) Elapsed() int {
	return s.elapsed.Elapsed()
}

// Artifact 返回已生成的录音文件，没有则为 nil
func (s *Session) Artifact() *Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

// Snapshot 返回会话的展示视图
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := s.elapsed.Elapsed()
	return Snapshot{
		State:         s.state,
		Elapsed:       elapsed,
		Clock:         timer.FormatClock(elapsed),
		CapturedBytes: s.captured.Load(),
		Artifact:      s.artifact,
	}
}

// Release 停止进行中的录音并取消仍在打开设备的 Start，
// 页面卸载时调用，确保设备不会被一直占用。
func (s *Session) Release() {
	s.mu.Lock()
	if s.cancelStart != nil {
		s.cancelStart()
	}
	s.mu.Unlock()

	if s.State().Active() {
		if _, err := s.Stop(); err != nil {
			s.log.Warn("release recording", "error", err)
		}
	}
}
