package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"medassist/internal/contextutil"
	"medassist/internal/indexer"
	"medassist/internal/service"
)

// UploadHandler handles PDF uploads.
type UploadHandler struct {
	uploadService service.UploadService
	maxBytes      int64
}

// NewUploadHandler creates a new UploadHandler accepting files up to maxBytes.
func NewUploadHandler(uploadService service.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
	}
}

// UploadResponse represents the HTTP response payload for uploads.
type UploadResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	IndexedChunkCount int    `json:"indexed_chunk_count"`
	DocumentID        string `json:"document_id,omitempty"`
	Duplicate         bool   `json:"duplicate,omitempty"`

	TokenStats *indexer.ChunkTokenStats `json:"token_stats,omitempty"`
}

// ServeHTTP reads the multipart "file" field and indexes it.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.WarnContext(ctx, "upload too large", "limit_bytes", h.maxBytes)
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d MB limit", h.maxBytes>>20))
			return
		}
		logger.WarnContext(ctx, "no file in upload", "error", err)
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if header.Size > h.maxBytes {
		logger.WarnContext(ctx, "upload too large", "size", header.Size, "limit_bytes", h.maxBytes)
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d MB limit", h.maxBytes>>20))
		return
	}

	result, err := h.uploadService.Upload(ctx, header.Filename, file)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to index document")
		return
	}

	message := fmt.Sprintf("Indexed %s (%d chunks)", result.Filename, result.IndexedChunkCount)
	if result.Duplicate {
		message = fmt.Sprintf("%s is already indexed (%d chunks)", result.Filename, result.IndexedChunkCount)
	}

	writeJSON(ctx, w, http.StatusOK, UploadResponse{
		Success:           true,
		Message:           message,
		IndexedChunkCount: result.IndexedChunkCount,
		DocumentID:        result.DocumentID,
		Duplicate:         result.Duplicate,
		TokenStats:        result.TokenStats,
	})
}
