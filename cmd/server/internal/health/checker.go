// Package health periodically probes the collaborators the host console
// depends on (meeting API, analysis service, ffmpeg) and exposes their
// status for the readiness endpoint.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/houzhh15/discussion-host/pkg/logger"
)

// Probe checks one dependency.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// ServiceStatus is the current health state of one dependency.
type ServiceStatus struct {
	Name             string    `json:"name"`
	IsHealthy        bool      `json:"is_healthy"`
	LastCheckTime    time.Time `json:"last_check_time"`
	ConsecutiveFails int       `json:"consecutive_fails"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// Checker runs its probes on an interval. A probe is marked unhealthy
// after failThreshold consecutive failures and healthy again on the first
// success.
//
// Thread-safety: Status and Statuses are safe for concurrent use with Run.
type Checker struct {
	probes        []Probe
	checkInterval time.Duration
	checkTimeout  time.Duration
	failThreshold int
	log           *slog.Logger

	mu     sync.RWMutex
	status map[string]*ServiceStatus
}

// NewChecker creates a Checker. Every probe starts healthy.
func NewChecker(probes []Probe, checkInterval time.Duration, failThreshold int, log *slog.Logger) *Checker {
	if failThreshold < 1 {
		failThreshold = 1
	}
	c := &Checker{
		probes:        probes,
		checkInterval: checkInterval,
		checkTimeout:  10 * time.Second,
		failThreshold: failThreshold,
		log:           logger.OrDiscard(log).With("component", "health"),
		status:        make(map[string]*ServiceStatus, len(probes)),
	}
	now := time.Now()
	for _, p := range probes {
		c.status[p.Name()] = &ServiceStatus{Name: p.Name(), IsHealthy: true, LastCheckTime: now}
	}
	return c
}

// Run checks immediately, then on every interval until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()

	c.CheckAll(ctx)
	for {
		select {
		case <-ticker.C:
			c.CheckAll(ctx)
		case <-ctx.Done():
			c.log.Info("health checker stopped")
			return nil
		}
	}
}

// CheckAll runs every probe once.
func (c *Checker) CheckAll(ctx context.Context) {
	for _, p := range c.probes {
		c.performCheck(ctx, p)
	}
}

func (c *Checker) performCheck(ctx context.Context, p Probe) {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	err := p.Check(checkCtx)

	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.status[p.Name()]
	st.LastCheckTime = time.Now()
	if err == nil {
		if !st.IsHealthy {
			c.log.Info("dependency recovered", "service", p.Name())
		}
		st.IsHealthy = true
		st.ConsecutiveFails = 0
		st.ErrorMessage = ""
		return
	}

	st.ConsecutiveFails++
	st.ErrorMessage = fmt.Sprintf("health check failed: %v", err)
	if st.ConsecutiveFails >= c.failThreshold {
		if st.IsHealthy {
			c.log.Error("dependency marked unhealthy", "service", p.Name(), "fails", st.ConsecutiveFails, "error", err)
		}
		st.IsHealthy = false
		return
	}
	c.log.Warn("health check failed", "service", p.Name(), "fails", st.ConsecutiveFails, "threshold", c.failThreshold, "error", err)
}

// Status returns a copy of one dependency's status.
func (c *Checker) Status(name string) (ServiceStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.status[name]
	if !ok {
		return ServiceStatus{}, false
	}
	return *st, true
}

// Statuses returns a copy of every status in probe order.
func (c *Checker) Statuses() []ServiceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ServiceStatus, 0, len(c.probes))
	for _, p := range c.probes {
		out = append(out, *c.status[p.Name()])
	}
	return out
}
