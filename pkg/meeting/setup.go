package meeting

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/houzhh15/discussion-host/pkg/logger"
	"github.com/houzhh15/discussion-host/pkg/metrics"
)

// ErrSetupInFlight 上一次提交仍在等待创建接口时再次提交
var ErrSetupInFlight = errors.New("meeting setup already in progress")

// Creator 创建会议，*Client 实现该接口
type Creator interface {
	Create(ctx context.Context, cfg Config) (*Handle, error)
}

// Announcer 将新会议发布到应用之外
type Announcer interface {
	Announce(ctx context.Context, cfg Config, h Handle)
}

// Meeting 已创建的会议：不可变的配置加上会议标识
type Meeting struct {
	Config    Config    `json:"config"`
	Handle    Handle    `json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}

// Setup 会议设置流程，同一时间只允许一次提交
type Setup struct {
	creator   Creator
	announcer Announcer
	log       *slog.Logger
	now       func() time.Time

	inflight *semaphore.Weighted
	wg       sync.WaitGroup
}

// NewSetup 创建设置流程，announcer 可为 nil
func NewSetup(creator Creator, announcer Announcer, log *slog.Logger) *Setup {
	return &Setup{
		creator:   creator,
		announcer: announcer,
		log:       logger.OrDiscard(log).With("component", "setup"),
		now:       time.Now,
		inflight:  semaphore.NewWeighted(1),
	}
}

// Submit 校验 cfg 并发出一次创建请求。任何失败都不返回会议，也不重试。
func (s *Setup) Submit(ctx context.Context, cfg Config) (*Meeting, error) {
	cfg.Participants = ClampParticipants(cfg.Participants)
	cfg.Models = NormalizeModels(cfg.Models)

	if err := cfg.Validate(); err != nil {
		metrics.RecordMeetingCreation("rejected")
		return nil, err
	}

	if !s.inflight.TryAcquire(1) {
		return nil, ErrSetupInFlight
	}
	defer s.inflight.Release(1)

	h, err := s.creator.Create(ctx, cfg)
	if err != nil {
		metrics.RecordMeetingCreation("failed")
		s.log.Error("meeting creation failed", "topic", cfg.Topic, "error", err)
		return nil, err
	}
	metrics.RecordMeetingCreation("success")
	s.log.Info("meeting created", "meeting_id", h.MeetingID, "duration", cfg.Duration, "participants", cfg.Participants)

	m := &Meeting{Config: cfg, Handle: *h, CreatedAt: s.now()}
	if s.announcer != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.announcer.Announce(context.WithoutCancel(ctx), m.Config, m.Handle)
		}()
	}
	return m, nil
}

// Wait 等待未完成的通知发布结束
func (s *Setup) Wait() {
	s.wg.Wait()
}

// Notice 将设置错误映射为展示给用户的提示
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyTopic):
		return "Please enter a discussion topic"
	case errors.Is(err, ErrInvalidDuration):
		return "Please enter a valid duration"
	case errors.Is(err, ErrSetupInFlight):
		return "Meeting setup is already in progress"
	default:
		return "Could not set up the meeting. Please try again."
	}
}
