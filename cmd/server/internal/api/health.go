package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/discussion-host/cmd/server/internal/health"
)

// HealthCheckResponse represents the response from the health check endpoint
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
	Env       string    `json:"env"`
}

// ReadinessCheckResponse represents the response from the readiness check endpoint
type ReadinessCheckResponse struct {
	Ready     bool             `json:"ready"`
	Checks    []ReadinessCheck `json:"checks"`
	Timestamp time.Time        `json:"timestamp"`
}

// ReadinessCheck represents a single readiness check
type ReadinessCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "fail"
	Error  string `json:"error,omitempty"`
}

// HandleHealth GET /health (liveness)
func HandleHealth(service, version, env string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthCheckResponse{
			Status:    "healthy",
			Service:   service,
			Version:   version,
			Uptime:    time.Since(startTime).String(),
			Timestamp: time.Now(),
			Env:       env,
		})
	}
}

// HandleReadiness GET /readiness
//
// Reports the last probe results of the dependency checker; it does not
// probe on request.
func HandleReadiness(checker *health.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := checker.Statuses()
		checks := make([]ReadinessCheck, 0, len(statuses))
		allReady := true
		for _, st := range statuses {
			check := ReadinessCheck{Name: st.Name, Status: "ok"}
			if !st.IsHealthy {
				check.Status = "fail"
				check.Error = st.ErrorMessage
				allReady = false
			}
			checks = append(checks, check)
		}

		httpStatus := http.StatusOK
		if !allReady {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, ReadinessCheckResponse{
			Ready:     allReady,
			Checks:    checks,
			Timestamp: time.Now(),
		})
	}
}
