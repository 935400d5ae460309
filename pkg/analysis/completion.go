package analysis

import (
	"context"
	"sync"

	"github.com/houzhh15/discussion-host/pkg/metrics"
)

// Source 完成分析的信号来源
type Source string

const (
	SourceHTTP     Source = "http"
	SourceRealtime Source = "realtime"
)

// Outcome Completion 的最终结果
type Outcome struct {
	Source Source
	Result *Result
	Err    error
}

// Completion 一次分析操作的唯一结果。HTTP 响应与实时通道都会尝试完成它，
// 先到者生效，之后的尝试均为空操作。
type Completion struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

// NewCompletion 返回未完成的 Completion
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Resolve 在尚未完成时写入结果，返回本次调用是否生效
func (c *Completion) Resolve(o Outcome) bool {
	won := false
	c.once.Do(func() {
		c.outcome = o
		won = true
		close(c.done)
	})
	if won {
		metrics.RecordAnalysisCompletion(string(o.Source))
	}
	return won
}

// Done 完成后关闭
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Outcome 返回结果及是否已完成
func (c *Completion) Outcome() (Outcome, bool) {
	select {
	case <-c.done:
		return c.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait 阻塞直到完成或 ctx 结束
func (c *Completion) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-c.done:
		return c.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// ResolveRow 用实时通道的行完成分析。任何结果行都生效，但从不读取其 payload，
// 因此 Outcome 不带 Result。
func (c *Completion) ResolveRow(row Row) bool {
	if !row.IsResult() {
		return false
	}
	return c.Resolve(Outcome{Source: SourceRealtime})
}
