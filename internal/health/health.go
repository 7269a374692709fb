// Package health serves liveness and readiness probes.
//
//   - /healthz: liveness; 200 whenever the process can serve HTTP.
//   - /readyz: readiness; 200 when every required [Checker] passes. Optional
//     checkers that fail mark the response "degraded" without failing it.
//
// Responses are JSON objects with a top-level "status" ("ok", "degraded" or
// "fail") and a "checks" map with the outcome of each named checker.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single readiness check.
const DefaultCheckTimeout = 5 * time.Second

// Checker is a named readiness check.
type Checker struct {
	// Name labels the check in the JSON response (e.g. "asr", "cache").
	Name string

	// Check returns nil when the dependency is healthy. It must respect
	// context cancellation.
	Check func(ctx context.Context) error

	// Optional checks degrade the service instead of failing readiness.
	// The transcript cache is optional; evaluation works without it.
	Optional bool
}

type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the probe endpoints. The checker list is fixed at
// construction time.
type Handler struct {
	checkers []Checker
	timeout  time.Duration
}

// New creates a [Handler] that runs checkers concurrently on each /readyz
// request.
func New(checkers ...Checker) *Handler {
	return &Handler{
		checkers: append([]Checker(nil), checkers...),
		timeout:  DefaultCheckTimeout,
	}
}

// Healthz always answers 200 OK.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz runs every checker with a deadline derived from the request
// context and answers 200 unless a required checker fails.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res, status := h.evaluate(r.Context())
	writeJSON(w, status, res)
}

func (h *Handler) evaluate(ctx context.Context) (result, int) {
	var (
		mu       sync.Mutex
		checks   = make(map[string]string, len(h.checkers))
		failed   bool
		degraded bool
		g        errgroup.Group
	)
	for _, c := range h.checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			err := c.Check(cctx)
			cancel()

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				checks[c.Name] = "ok"
			case c.Optional:
				checks[c.Name] = "degraded: " + err.Error()
				degraded = true
			default:
				checks[c.Name] = "fail: " + err.Error()
				failed = true
			}
			return nil
		})
	}
	_ = g.Wait()

	res := result{Status: "ok", Checks: checks}
	switch {
	case failed:
		res.Status = "fail"
		return res, http.StatusServiceUnavailable
	case degraded:
		res.Status = "degraded"
	}
	return res, http.StatusOK
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
