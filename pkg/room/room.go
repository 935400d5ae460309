// Package room 会议室：一次录音会话、到时自动停止录音的会议倒计时，
// 以及对录音结果的分析提交。
package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/houzhh15/discussion-host/pkg/analysis"
	"github.com/houzhh15/discussion-host/pkg/conclusion"
	"github.com/houzhh15/discussion-host/pkg/logger"
	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/metrics"
	"github.com/houzhh15/discussion-host/pkg/recording"
	"github.com/houzhh15/discussion-host/pkg/timer"
)

// Analyzer 提交录音进行分析，*analysis.Client 实现该接口
type Analyzer interface {
	Submit(ctx context.Context, artifact *recording.Artifact) (*analysis.Result, error)
}

// Config 会议室配置
type Config struct {
	Meeting  meeting.Meeting
	Capturer recording.Capturer
	// RecordingDir WAV 录音输出目录
	RecordingDir string
	Analyzer     Analyzer
	// Subscriber 可选；为空时只有 HTTP 响应能完成分析
	Subscriber analysis.Subscriber
	// Tick 时钟周期，生产环境为 1 秒
	Tick   time.Duration
	Logger *slog.Logger
}

// Snapshot 会议室的展示视图
type Snapshot struct {
	MeetingID     string             `json:"meeting_id"`
	Topic         string             `json:"topic"`
	Participants  int                `json:"participants"`
	TimeRemaining string             `json:"time_remaining"`
	RemainingSec  int                `json:"remaining_sec"`
	TimeUp        bool               `json:"time_up"`
	Recording     recording.Snapshot `json:"recording"`
	Analyzing     bool               `json:"analyzing"`
	HasResult     bool               `json:"has_result"`
}

// Room 一次会议室访问。
//
// 并发安全：所有方法均可并发调用，时钟 tick 与实时通道的行在各自的 goroutine 中到达。
type Room struct {
	cfg       Config
	log       *slog.Logger
	session   *recording.Session
	countdown *timer.Countdown

	// stopMu 串行化用户停止与倒计时停止，保证只有一方执行状态转换
	stopMu sync.Mutex
	// timeUp 在倒计时归零且自动停止完成后关闭
	timeUp chan struct{}

	mu         sync.Mutex
	analyzing  bool
	completion *analysis.Completion
	result     *analysis.Result

	inflight *semaphore.Weighted

	lifeMu  sync.Mutex
	mounted bool
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
	sub     analysis.Subscription
}

// New 创建未挂载的会议室
func New(cfg Config) *Room {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	log := logger.OrDiscard(cfg.Logger).With("meeting_id", cfg.Meeting.Handle.MeetingID)
	r := &Room{
		cfg: cfg,
		log: log,
		session: recording.NewSession(recording.SessionConfig{
			Capturer: cfg.Capturer,
			Dir:      cfg.RecordingDir,
			Logger:   log.With("component", "recording"),
		}),
		inflight: semaphore.NewWeighted(1),
		timeUp:   make(chan struct{}),
		ctx:      context.Background(),
	}
	r.countdown = timer.NewCountdown(cfg.Meeting.Config.Duration*60, r.expire)
	return r
}

// Meeting 返回会议室所属的会议
func (r *Room) Meeting() meeting.Meeting {
	return r.cfg.Meeting
}

// Mount 启动两个时钟并打开实时订阅。订阅失败只记录日志，会议室照常工作。
func (r *Room) Mount(ctx context.Context) error {
	r.lifeMu.Lock()
	defer r.lifeMu.Unlock()
	if r.mounted {
		return fmt.Errorf("room %s already mounted", r.cfg.Meeting.Handle.MeetingID)
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	if r.cfg.Subscriber != nil {
		sub, err := r.cfg.Subscriber.Subscribe(gctx, r.onRow)
		if err != nil {
			r.log.Warn("realtime subscription unavailable", "error", err)
		} else {
			r.sub = sub
		}
	}

	g.Go(func() error { return timer.Run(gctx, r.cfg.Tick, r.countdown.Tick) })
	g.Go(func() error { return timer.Run(gctx, r.cfg.Tick, r.session.Tick) })

	r.ctx, r.cancel, r.group = gctx, cancel, g
	r.mounted = true
	logger.LogRoomEvent(r.log, "room", "mount", r.cfg.Meeting.Handle.MeetingID, 0, "")
	return nil
}

// Unmount 停止时钟、关闭实时订阅并释放麦克风。未挂载时调用也是安全的。
func (r *Room) Unmount() {
	r.lifeMu.Lock()
	defer r.lifeMu.Unlock()
	if !r.mounted {
		r.session.Release()
		return
	}

	r.cancel()
	if err := r.group.Wait(); err != nil {
		r.log.Warn("room clocks stopped with error", "error", err)
	}
	if r.sub != nil {
		if err := r.sub.Close(); err != nil {
			r.log.Warn("close realtime subscription", "error", err)
		}
		r.sub = nil
	}
	r.stopMu.Lock()
	r.session.Release()
	r.stopMu.Unlock()

	r.mounted = false
	logger.LogRoomEvent(r.log, "room", "unmount", r.cfg.Meeting.Handle.MeetingID, r.session.Elapsed(), "")
}

// StartRecording 获取麦克风并开始录音
func (r *Room) StartRecording(ctx context.Context) error {
	if err := r.session.Start(ctx); err != nil {
		if errors.Is(err, recording.ErrPermissionDenied) {
			logger.LogRoomEvent(r.log, "recording", "start", r.cfg.Meeting.Handle.MeetingID, 0, "PERMISSION_DENIED")
		}
		return err
	}
	logger.LogRoomEvent(r.log, "recording", "start", r.cfg.Meeting.Handle.MeetingID, 0, "")
	return nil
}

// PauseRecording 暂停录音
func (r *Room) PauseRecording() error { return r.session.Pause() }

// ResumeRecording 继续已暂停的录音
func (r *Room) ResumeRecording() error { return r.session.Resume() }

// TogglePause 在录音与暂停之间切换
func (r *Room) TogglePause() error { return r.session.TogglePause() }

// StopRecording 用户主动停止录音
func (r *Room) StopRecording() (*recording.Artifact, error) {
	return r.stop("user")
}

func (r *Room) stop(trigger string) (*recording.Artifact, error) {
	r.stopMu.Lock()
	defer r.stopMu.Unlock()

	if !r.session.State().Active() {
		return r.session.Artifact(), nil
	}
	a, err := r.session.Stop()
	elapsed := r.session.Elapsed()
	if err != nil {
		logger.LogRoomEvent(r.log, "recording", "stop", r.cfg.Meeting.Handle.MeetingID, elapsed, "ASSEMBLE_FAILED")
		return nil, err
	}
	metrics.RecordRecordingStopped(trigger, elapsed)
	logger.LogRoomEvent(r.log, "recording", "stop", r.cfg.Meeting.Handle.MeetingID, elapsed, "")
	return a, nil
}

// expire 倒计时归零时执行一次
func (r *Room) expire() {
	logger.LogRoomEvent(r.log, "countdown", "expire", r.cfg.Meeting.Handle.MeetingID, r.session.Elapsed(), "")
	if _, err := r.stop("countdown"); err != nil {
		r.log.Error("auto-stop failed", "error", err)
	}
	close(r.timeUp)
}

// TimeUp 在倒计时归零且录音（如有）已停止后关闭
func (r *Room) TimeUp() <-chan struct{} {
	return r.timeUp
}

// Artifact 返回已完成的录音，没有则为 nil
func (r *Room) Artifact() *recording.Artifact {
	return r.session.Artifact()
}

// Analyze 提交录音进行分析。HTTP 响应与实时通道的结果行谁先到达谁完成本次分析，
// 两种情况下 analyzing 标志都会被清除。
//
// 结果行不携带可用结果：由它完成时返回 nil Result，之后到达的 HTTP 结果
// 仍会被保存，供结论页读取。
func (r *Room) Analyze(ctx context.Context) (*analysis.Result, error) {
	artifact := r.session.Artifact()
	if artifact == nil {
		metrics.RecordAnalysisSubmission("no_artifact")
		return nil, analysis.ErrNoArtifact
	}
	if r.cfg.Analyzer == nil {
		return nil, fmt.Errorf("%w: no analysis endpoint configured", analysis.ErrTransport)
	}
	// 上传返回前一直占用，结果行先到也不允许重复提交
	if !r.inflight.TryAcquire(1) {
		return nil, analysis.ErrInFlight
	}

	c := analysis.NewCompletion()
	r.mu.Lock()
	r.analyzing = true
	r.completion = c
	r.mu.Unlock()
	logger.LogRoomEvent(r.log, "analysis", "submit", r.cfg.Meeting.Handle.MeetingID, r.session.Elapsed(), "")

	// 上传绑定房间生命周期而非调用方，发出后直到完成或房间卸载
	r.lifeMu.Lock()
	uploadCtx := r.ctx
	r.lifeMu.Unlock()
	go func() {
		res, err := r.cfg.Analyzer.Submit(uploadCtx, artifact)
		r.inflight.Release(1)
		o := analysis.Outcome{Source: analysis.SourceHTTP, Result: res, Err: err}
		if c.Resolve(o) {
			r.finish(c, o)
			return
		}
		if err != nil {
			r.log.Warn("analysis response failed after realtime completion", "error", err)
			return
		}
		r.storeResult(res)
	}()

	o, err := c.Wait(ctx)
	if err != nil {
		return nil, err
	}
	r.finish(c, o)
	return o.Result, o.Err
}

func (r *Room) finish(c *analysis.Completion, o analysis.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completion != c {
		return
	}
	r.completion = nil
	r.analyzing = false
	if o.Result != nil {
		r.result = o.Result
	}

	code := ""
	if o.Err != nil {
		code = "ANALYSIS_FAILED"
	}
	logger.LogRoomEvent(r.log, "analysis", string(o.Source), r.cfg.Meeting.Handle.MeetingID, r.session.Elapsed(), code)
}

// storeResult 保存实时通道完成后才到达的 HTTP 结果
func (r *Room) storeResult(res *analysis.Result) {
	if res == nil {
		return
	}
	r.mu.Lock()
	r.result = res
	r.mu.Unlock()
	r.log.Info("analysis result stored after realtime completion")
}

// onRow 只看 action 标签，不读取 payload
func (r *Room) onRow(row analysis.Row) {
	if !row.IsResult() {
		return
	}
	r.mu.Lock()
	c := r.completion
	r.mu.Unlock()
	if c == nil {
		r.log.Info("result row without a pending analysis")
		return
	}
	if c.ResolveRow(row) {
		o, _ := c.Outcome()
		r.finish(c, o)
	}
}

// Analyzing 是否有分析请求尚未完成
func (r *Room) Analyzing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.analyzing
}

// Result 返回最近一次分析结果，没有则为 nil
func (r *Room) Result() *analysis.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// ConclusionView 用最近一次结果构建结论页
func (r *Room) ConclusionView() conclusion.View {
	cfg := r.cfg.Meeting.Config
	return conclusion.View{
		Topic:        cfg.Topic,
		Participants: cfg.Participants,
		Duration:     cfg.Duration,
		Result:       r.Result(),
	}
}

// Tick 两个时钟各前进一步，供不调用 Mount 直接驱动时使用
func (r *Room) Tick() {
	r.countdown.Tick()
	r.session.Tick()
}

// Snapshot 返回会议室的展示视图
func (r *Room) Snapshot() Snapshot {
	remaining := r.countdown.Remaining()
	r.mu.Lock()
	analyzing, hasResult := r.analyzing, r.result != nil
	r.mu.Unlock()
	return Snapshot{
		MeetingID:     r.cfg.Meeting.Handle.MeetingID,
		Topic:         r.cfg.Meeting.Config.Topic,
		Participants:  r.cfg.Meeting.Config.Participants,
		TimeRemaining: timer.FormatClock(remaining),
		RemainingSec:  remaining,
		TimeUp:        r.countdown.Expired(),
		Recording:     r.session.Snapshot(),
		Analyzing:     analyzing,
		HasResult:     hasResult,
	}
}
