package handlers

import (
	"net/http"

	"medassist/internal/contextutil"
	"medassist/internal/history"
	"medassist/internal/service"
)

// HistoryHandler serves the session's recent analyze history.
type HistoryHandler struct {
	analyzeService service.AnalyzeService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(analyzeService service.AnalyzeService) *HistoryHandler {
	return &HistoryHandler{analyzeService: analyzeService}
}

// HistoryResponse represents the history payload.
type HistoryResponse struct {
	Success bool            `json:"success"`
	History []history.Entry `json:"history"`
}

// ServeHTTP returns the last entries of the caller's session, oldest first.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	entries := h.analyzeService.History(ctx, contextutil.SessionIDFromContext(ctx))
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(ctx, w, http.StatusOK, HistoryResponse{Success: true, History: entries})
}

// ClearHistoryHandler empties the session's history.
type ClearHistoryHandler struct {
	analyzeService service.AnalyzeService
}

// NewClearHistoryHandler creates a new ClearHistoryHandler.
func NewClearHistoryHandler(analyzeService service.AnalyzeService) *ClearHistoryHandler {
	return &ClearHistoryHandler{analyzeService: analyzeService}
}

// MessageResponse is a success flag with a human-readable message.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *ClearHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	h.analyzeService.ClearHistory(ctx, contextutil.SessionIDFromContext(ctx))
	writeJSON(ctx, w, http.StatusOK, MessageResponse{Success: true, Message: "History cleared"})
}
