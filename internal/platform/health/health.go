// Package health aggregates liveness and readiness checks for the feed
// watcher's ops endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Status reports the aggregate outcome of the registered checks.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the result of one named probe.
type Check struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Message string        `json:"message,omitempty"`
	Latency time.Duration `json:"latency_ms"`
}

// Response is the readiness payload.
type Response struct {
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Service   string            `json:"service,omitempty"`
	Checks    map[string]*Check `json:"checks,omitempty"`
	Uptime    time.Duration     `json:"uptime_seconds,omitempty"`
}

// Checker probes one dependency.
type Checker func(ctx context.Context) error

// Handler runs the registered checks and serves the probe endpoints.
type Handler struct {
	mu        sync.RWMutex
	checks    map[string]Checker
	service   string
	version   string
	startTime time.Time
}

// NewHandler creates a health handler for the named service.
func NewHandler(service, version string) *Handler {
	return &Handler{
		checks:    make(map[string]Checker),
		service:   service,
		version:   version,
		startTime: time.Now(),
	}
}

// AddCheck registers a named probe.
func (h *Handler) AddCheck(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = checker
}

// Check runs all probes concurrently and aggregates the result.
func (h *Handler) Check(ctx context.Context) *Response {
	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := &Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Version:   h.version,
		Service:   h.service,
		Checks:    make(map[string]*Check),
		Uptime:    time.Since(h.startTime),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range h.checks {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			start := time.Now()
			err := checker(ctx)

			check := &Check{
				Name:    name,
				Status:  StatusHealthy,
				Latency: time.Since(start) / time.Millisecond,
			}
			if err != nil {
				check.Status = StatusUnhealthy
				check.Message = err.Error()
			}

			mu.Lock()
			resp.Checks[name] = check
			if check.Status == StatusUnhealthy {
				resp.Status = StatusUnhealthy
			}
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()
	return resp
}

// LivenessHandler answers as long as the process is up.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}

// ReadinessHandler runs the registered probes and reports 503 when any fails.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := h.Check(ctx)

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == StatusHealthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}

// BoolChecker adapts a connectivity flag, such as the push channel state,
// into a probe.
func BoolChecker(name string, fn func() bool) Checker {
	return func(ctx context.Context) error {
		if !fn() {
			return fmt.Errorf("%s is down", name)
		}
		return nil
	}
}

// HTTPChecker probes an HTTP endpoint, typically the sync API base URL.
func HTTPChecker(url string, timeout time.Duration) Checker {
	return func(ctx context.Context) error {
		client := &http.Client{Timeout: timeout}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("unhealthy status code %d", resp.StatusCode)
		}
		return nil
	}
}
