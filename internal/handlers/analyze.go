package handlers

import (
	"encoding/json"
	"net/http"

	"medassist/internal/contextutil"
	"medassist/internal/rag"
	"medassist/internal/render"
	"medassist/internal/service"
)

// AnalyzeHandler handles HTTP requests for medical queries.
type AnalyzeHandler struct {
	analyzeService service.AnalyzeService
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(analyzeService service.AnalyzeService) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzeService: analyzeService,
	}
}

// AnalyzeRequest represents the HTTP request payload for analyze.
type AnalyzeRequest struct {
	Query       string   `json:"query"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
}

// AnalyzeResponse represents the HTTP response payload for analyze.
type AnalyzeResponse struct {
	Success bool       `json:"success"`
	ID      string     `json:"id"`
	Query   string     `json:"query"`
	Result  rag.Report `json:"result"`

	// Present only with ?format=html.
	SymptomAnalysisHTML string `json:"symptom_analysis_html,omitempty"`
	RAGSummaryHTML      string `json:"rag_summary_html,omitempty"`
}

// ServeHTTP runs the query through the pipeline and records it in the session history.
// Use ?format=html to also receive the generated text rendered from Markdown.
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.analyzeService.Analyze(ctx, contextutil.SessionIDFromContext(ctx), service.AnalyzeRequest{
		Query:       req.Query,
		Temperature: req.Temperature,
		TopK:        req.TopK,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process query")
		return
	}

	resp := AnalyzeResponse{
		Success: true,
		ID:      entry.ID,
		Query:   entry.Query,
		Result:  entry.Result,
	}

	if r.URL.Query().Get("format") == "html" {
		if resp.SymptomAnalysisHTML, err = render.Markdown(entry.Result.SymptomAnalysis); err != nil {
			logger.WarnContext(ctx, "failed to render symptom analysis", "error", err)
		}
		if resp.RAGSummaryHTML, err = render.Markdown(entry.Result.RAGSummary); err != nil {
			logger.WarnContext(ctx, "failed to render summary", "error", err)
		}
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}
