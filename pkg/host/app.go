// Package host 保存整个应用状态：页面路由、正在设置的会议、会议室及其分析结果。
// CLI 与 HTTP 控制台驱动的是同一个 App。
package host

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/houzhh15/discussion-host/pkg/analysis"
	"github.com/houzhh15/discussion-host/pkg/conclusion"
	"github.com/houzhh15/discussion-host/pkg/logger"
	"github.com/houzhh15/discussion-host/pkg/meeting"
	"github.com/houzhh15/discussion-host/pkg/pages"
	"github.com/houzhh15/discussion-host/pkg/recording"
	"github.com/houzhh15/discussion-host/pkg/room"
)

var (
	ErrNoMeeting = errors.New("no meeting has been set up")
	ErrNoRoom    = errors.New("not in a meeting room")
	ErrNoResult  = errors.New("no analysis result yet")
)

// RoomFactory 为已创建的会议构建会议室
type RoomFactory func(m meeting.Meeting) *room.Room

// State 应用的展示视图
type State struct {
	Page       pages.Page          `json:"page"`
	Meeting    *meeting.Meeting    `json:"meeting,omitempty"`
	Share      *meeting.ShareLinks `json:"share,omitempty"`
	Copied     bool                `json:"copied"`
	Room       *room.Snapshot      `json:"room,omitempty"`
	Conclusion *conclusion.Summary `json:"conclusion,omitempty"`
}

// App 应用实例，用 New 创建，用 Close 释放
type App struct {
	ctx     context.Context
	setup   *meeting.Setup
	copier  *meeting.Copier
	newRoom RoomFactory
	log     *slog.Logger
	now     func() time.Time

	router *pages.Router

	mu      sync.Mutex
	meeting *meeting.Meeting
	room    *room.Room
}

// New 创建停留在首页的 App，ctx 约束其挂载的所有会议室的生命周期
func New(ctx context.Context, setup *meeting.Setup, copier *meeting.Copier, newRoom RoomFactory, log *slog.Logger) *App {
	a := &App{
		ctx:     ctx,
		setup:   setup,
		copier:  copier,
		newRoom: newRoom,
		log:     logger.OrDiscard(log).With("component", "host"),
		now:     time.Now,
		router:  pages.NewRouter(),
	}
	a.router.OnLeave(pages.Meeting, a.leaveMeeting)
	a.router.OnLeave(pages.Setup, a.leaveSetup)
	return a
}

func (a *App) leaveMeeting(_, to pages.Page) {
	if to != pages.Setup {
		return
	}
	a.mu.Lock()
	r := a.room
	a.room = nil
	a.meeting = nil
	a.mu.Unlock()
	if r != nil {
		r.Unmount()
	}
}

func (a *App) leaveSetup(_, to pages.Page) {
	if to != pages.Landing {
		return
	}
	a.mu.Lock()
	a.meeting = nil
	a.mu.Unlock()
}

// Page 返回当前页面
func (a *App) Page() pages.Page {
	return a.router.Current()
}

// Host 打开会议设置页
func (a *App) Host() error {
	_, err := a.router.Dispatch(pages.ActionHost)
	return err
}

// Back 返回上一页。离开会议室会丢弃会议及其录音。
func (a *App) Back() (pages.Page, error) {
	return a.router.Dispatch(pages.ActionBack)
}

// CreateMeeting 提交设置表单，仅在设置页可用；失败时保持原状态
func (a *App) CreateMeeting(ctx context.Context, cfg meeting.Config) (*meeting.Meeting, error) {
	if p := a.router.Current(); p != pages.Setup {
		return nil, pages.ErrInvalidTransition
	}
	m, err := a.setup.Submit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.meeting = m
	a.mu.Unlock()
	return m, nil
}

// Meeting 返回当前会议
func (a *App) Meeting() (*meeting.Meeting, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.meeting == nil {
		return nil, ErrNoMeeting
	}
	m := *a.meeting
	return &m, nil
}

// Share 返回当前会议的分享目标
func (a *App) Share() (meeting.ShareLinks, error) {
	m, err := a.Meeting()
	if err != nil {
		return meeting.ShareLinks{}, err
	}
	return meeting.Share(m.Config, m.Handle), nil
}

// CopyInvite 复制邀请链接到剪贴板
func (a *App) CopyInvite() error {
	m, err := a.Meeting()
	if err != nil {
		return err
	}
	return a.copier.Copy(m.Handle.InviteLink)
}

// MeetingReport 生成会议报告及其文件名
func (a *App) MeetingReport() (name, body string, err error) {
	m, err := a.Meeting()
	if err != nil {
		return "", "", err
	}
	return meeting.ReportFileName(m.Handle), meeting.Report(m.Config, m.Handle, a.now()), nil
}

// StartMeeting 进入并挂载会议室
func (a *App) StartMeeting() (*room.Room, error) {
	m, err := a.Meeting()
	if err != nil {
		return nil, err
	}
	if _, err := pages.Next(a.router.Current(), pages.ActionStartMeeting); err != nil {
		return nil, err
	}

	r := a.newRoom(*m)
	if err := r.Mount(a.ctx); err != nil {
		return nil, err
	}
	if _, err := a.router.Dispatch(pages.ActionStartMeeting); err != nil {
		r.Unmount()
		return nil, err
	}
	a.mu.Lock()
	a.room = r
	a.mu.Unlock()
	a.log.Info("meeting room entered", "meeting_id", m.Handle.MeetingID)
	return r, nil
}

// Room 返回已挂载的会议室
func (a *App) Room() (*room.Room, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.room == nil {
		return nil, ErrNoRoom
	}
	return a.room, nil
}

// StartRecording 在会议室中开始录音
func (a *App) StartRecording(ctx context.Context) error {
	r, err := a.Room()
	if err != nil {
		return err
	}
	return r.StartRecording(ctx)
}

// StopRecording 停止会议室录音
func (a *App) StopRecording() (*recording.Artifact, error) {
	r, err := a.Room()
	if err != nil {
		return nil, err
	}
	return r.StopRecording()
}

// Analyze 提交会议室录音；用户仍在会议室且拿到结果时切换到结论页。
// 仅由实时通道完成的分析不带结果，页面保持不变。
func (a *App) Analyze(ctx context.Context) (*analysis.Result, error) {
	r, err := a.Room()
	if err != nil {
		return nil, err
	}
	res, err := r.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	if res != nil && a.router.Current() == pages.Meeting {
		if _, err := a.router.Dispatch(pages.ActionShowConclusion); err != nil {
			a.log.Warn("show conclusion", "error", err)
		}
	}
	return res, nil
}

// ShowConclusion 打开最近一次结果的结论页
func (a *App) ShowConclusion() error {
	r, err := a.Room()
	if err != nil {
		return err
	}
	if r.Result() == nil {
		return ErrNoResult
	}
	_, err = a.router.Dispatch(pages.ActionShowConclusion)
	return err
}

// Conclusion 返回最近一次结果的结论视图
func (a *App) Conclusion() (conclusion.View, error) {
	r, err := a.Room()
	if err != nil {
		return conclusion.View{}, err
	}
	v := r.ConclusionView()
	if v.Result == nil {
		return conclusion.View{}, ErrNoResult
	}
	return v, nil
}

// State 返回当前页面的展示视图
func (a *App) State() State {
	s := State{Page: a.router.Current(), Copied: a.copier != nil && a.copier.Copied()}

	a.mu.Lock()
	m, r := a.meeting, a.room
	a.mu.Unlock()

	if m != nil {
		mc := *m
		share := meeting.Share(mc.Config, mc.Handle)
		s.Meeting, s.Share = &mc, &share
	}
	if r != nil {
		snap := r.Snapshot()
		s.Room = &snap
		if s.Page == pages.Conclusion {
			sum := r.ConclusionView().Summarize()
			s.Conclusion = &sum
		}
	}
	return s
}

// Close 卸载会议室（如有）
func (a *App) Close() {
	a.mu.Lock()
	r := a.room
	a.room = nil
	a.mu.Unlock()
	if r != nil {
		r.Unmount()
	}
	a.setup.Wait()
}
