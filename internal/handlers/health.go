package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"medassist/internal/contextutil"
	"medassist/internal/vectorstore"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ModelChecker verifies that the generation model is being served.
type ModelChecker interface {
	Check(ctx context.Context) error
}

// dependency is one checked backend. A failing critical dependency makes the service unhealthy;
// any other failure only degrades it.
type dependency struct {
	name     string
	critical bool
	check    func(ctx context.Context) error
}

// HealthHandler checks the vector store, database and model server concurrently.
type HealthHandler struct {
	dependencies       []dependency
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. db and model may be nil to skip those checks.
//
// The vector store and database are critical. An unreachable generation model
// only degrades the status, since analyze requests still return the fallback report.
func NewHealthHandler(vectorStore vectorstore.VectorStore, db Pinger, model ModelChecker, collectionName string) *HealthHandler {
	deps := []dependency{{
		name:     "vector_store",
		critical: true,
		check: func(ctx context.Context) error {
			exists, err := vectorStore.CollectionExists(ctx, collectionName)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("collection %q does not exist", collectionName)
			}
			return nil
		},
	}}
	if db != nil {
		deps = append(deps, dependency{name: "database", critical: true, check: db.PingContext})
	}
	if model != nil {
		deps = append(deps, dependency{name: "llm", check: model.Check})
	}

	return &HealthHandler{
		dependencies:       deps,
		healthCheckTimeout: 5 * time.Second,
	}
}

// CheckResult is the outcome of probing one dependency.
type CheckResult struct {
	Status    string `json:"status"` // "ok" or "error"
	LatencyMS int64  `json:"latency_ms"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]CheckResult `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	errs := make([]error, len(h.dependencies))
	latencies := make([]time.Duration, len(h.dependencies))
	var g errgroup.Group
	for i, dep := range h.dependencies {
		g.Go(func() error {
			start := time.Now()
			errs[i] = dep.check(checkCtx)
			latencies[i] = time.Since(start)
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]CheckResult, len(h.dependencies))
	var issues []string
	critical := false
	for i, dep := range h.dependencies {
		result := CheckResult{Status: "ok", LatencyMS: latencies[i].Milliseconds()}
		if errs[i] != nil {
			logger.WarnContext(ctx, "health check failed", "dependency", dep.name, "error", errs[i])
			result.Status = "error"
			issues = append(issues, dep.name+"_unavailable")
			critical = critical || dep.critical
		}
		checks[dep.name] = result
	}

	status := "healthy"
	httpStatus := http.StatusOK
	switch {
	case critical:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case len(issues) > 0:
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
