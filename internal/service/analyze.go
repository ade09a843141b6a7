package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_analyze_deps.go -package=mocks medassist/internal/service ReportAssembler,HistoryLog
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_analyze_service.go -package=mocks medassist/internal/service AnalyzeService

import (
	"context"
	"strings"

	"medassist/internal/contextutil"
	"medassist/internal/history"
	"medassist/internal/rag"
)

const (
	MinTopK = 1
	MaxTopK = 20
)

// ReportAssembler runs the retrieval and generation pipeline for one query.
type ReportAssembler interface {
	Assemble(ctx context.Context, query string, temperature float64, topK int) rag.Report
}

// HistoryLog stores analyze exchanges per session.
type HistoryLog interface {
	Append(ctx context.Context, sessionID, query string, report rag.Report) history.Entry
	Recent(ctx context.Context, sessionID string, n int) []history.Entry
	Clear(ctx context.Context, sessionID string)
}

// AnalyzeRequest is an analyze request in the domain layer.
// Nil Temperature or TopK means the configured default.
type AnalyzeRequest struct {
	Query       string
	Temperature *float64
	TopK        *int
}

// AnalyzeService answers queries and keeps the per-session history.
type AnalyzeService interface {
	// Analyze builds the report for req, records it in the session history and returns the entry.
	Analyze(ctx context.Context, sessionID string, req AnalyzeRequest) (history.Entry, error)
	// History returns the most recent entries of the session, oldest first.
	History(ctx context.Context, sessionID string) []history.Entry
	// ClearHistory empties the session history.
	ClearHistory(ctx context.Context, sessionID string)
}

type analyzeService struct {
	assembler          ReportAssembler
	history            HistoryLog
	defaultTemperature float64
	defaultTopK        int
}

// NewAnalyzeService creates a new AnalyzeService.
func NewAnalyzeService(assembler ReportAssembler, historyLog HistoryLog, defaultTemperature float64, defaultTopK int) AnalyzeService {
	return &analyzeService{
		assembler:          assembler,
		history:            historyLog,
		defaultTemperature: ClampTemperature(defaultTemperature),
		defaultTopK:        ClampTopK(defaultTopK),
	}
}

// Analyze validates and normalizes req, then runs the pipeline.
func (s *analyzeService) Analyze(ctx context.Context, sessionID string, req AnalyzeRequest) (history.Entry, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		logger.WarnContext(ctx, "empty query in analyze request")
		return history.Entry{}, &ValidationError{
			Field:   "query",
			Message: "cannot be empty",
		}
	}

	temperature := s.defaultTemperature
	if req.Temperature != nil {
		temperature = ClampTemperature(*req.Temperature)
	}
	topK := s.defaultTopK
	if req.TopK != nil {
		topK = ClampTopK(*req.TopK)
	}

	report := rag.WithFallback(s.assembler.Assemble(ctx, query, temperature, topK))
	entry := s.history.Append(ctx, sessionID, query, report)

	logger.InfoContext(ctx, "analyze request processed",
		"route", report.Route,
		"temperature", temperature,
		"top_k", topK,
		"entry_id", entry.ID,
	)
	return entry, nil
}

func (s *analyzeService) History(ctx context.Context, sessionID string) []history.Entry {
	return s.history.Recent(ctx, sessionID, history.DisplayLimit)
}

func (s *analyzeService) ClearHistory(ctx context.Context, sessionID string) {
	s.history.Clear(ctx, sessionID)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "history cleared")
}

// ClampTemperature limits t to [0, 1].
func ClampTemperature(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// ClampTopK limits k to [MinTopK, MaxTopK].
func ClampTopK(k int) int {
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}
