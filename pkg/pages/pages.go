// Package pages 页面路由：四个互斥页面及页面间跳转的动作。
package pages

import (
	"errors"
	"fmt"
	"sync"
)

// Page 应用的一个页面
type Page string

const (
	Landing    Page = "landing"
	Setup      Page = "setup"
	Meeting    Page = "meeting"
	Conclusion Page = "conclusion"
)

// Action 导航请求
type Action string

const (
	ActionHost           Action = "host"
	ActionBack           Action = "back"
	ActionStartMeeting   Action = "start_meeting"
	ActionShowConclusion Action = "show_conclusion"
)

// ErrInvalidTransition 当前页面不允许该动作
var ErrInvalidTransition = errors.New("invalid page transition")

type edge struct {
	from   Page
	action Action
}

var transitions = map[edge]Page{
	{Landing, ActionHost}:           Setup,
	{Setup, ActionBack}:             Landing,
	{Setup, ActionStartMeeting}:     Meeting,
	{Meeting, ActionBack}:           Setup,
	{Meeting, ActionShowConclusion}: Conclusion,
	{Conclusion, ActionBack}:        Meeting,
}

// Next 返回从 p 执行 a 后到达的页面
func Next(p Page, a Action) (Page, error) {
	if to, ok := transitions[edge{p, a}]; ok {
		return to, nil
	}
	return p, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, a, p)
}

// LeaveFunc 离开页面时执行，to 为目标页面
type LeaveFunc func(from, to Page)

// Router 保存当前页面，从 Landing 开始，重启后不恢复
type Router struct {
	mu      sync.Mutex
	current Page
	onLeave map[Page][]LeaveFunc
}

// NewRouter 返回停在首页的路由
func NewRouter() *Router {
	return &Router{current: Landing, onLeave: make(map[Page][]LeaveFunc)}
}

// Current 返回当前页面
func (r *Router) Current() Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// OnLeave 注册离开 p 时执行的 fn
func (r *Router) OnLeave(p Page, fn LeaveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLeave[p] = append(r.onLeave[p], fn)
}

// Dispatch 执行 a 并运行旧页面的离开钩子。钩子在页面切换之后、路由锁之外执行。
func (r *Router) Dispatch(a Action) (Page, error) {
	r.mu.Lock()
	from := r.current
	to, err := Next(from, a)
	if err != nil {
		r.mu.Unlock()
		return from, err
	}
	r.current = to
	hooks := append([]LeaveFunc(nil), r.onLeave[from]...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(from, to)
	}
	return to, nil
}
