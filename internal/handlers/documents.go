package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medassist/internal/contextutil"
	"medassist/internal/service"
	"medassist/internal/vectorstore"
)

// CollectionInspector reports vector collection statistics.
type CollectionInspector interface {
	GetCollectionInfo(ctx context.Context, collection string) (*vectorstore.CollectionInfo, error)
}

// DocumentsHandler lists indexed documents.
type DocumentsHandler struct {
	documentService service.DocumentService
	collections     CollectionInspector
	collectionName  string
}

// NewDocumentsHandler creates a new DocumentsHandler. collections may be nil.
func NewDocumentsHandler(documentService service.DocumentService, collections CollectionInspector, collectionName string) *DocumentsHandler {
	return &DocumentsHandler{
		documentService: documentService,
		collections:     collections,
		collectionName:  collectionName,
	}
}

// DocumentResponse describes one indexed document.
type DocumentResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	PageCount  int       `json:"page_count"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// CollectionResponse describes the vector collection backing the documents.
type CollectionResponse struct {
	Name        string `json:"name"`
	VectorSize  int    `json:"vector_size"`
	PointsCount int    `json:"points_count"`
	Status      string `json:"status"`
}

// DocumentsResponse represents the document listing payload.
type DocumentsResponse struct {
	Success    bool                `json:"success"`
	Documents  []DocumentResponse  `json:"documents"`
	Collection *CollectionResponse `json:"collection,omitempty"`
}

// ServeHTTP returns the indexed documents, newest first.
func (h *DocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	docs, err := h.documentService.List(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list documents")
		return
	}

	resp := DocumentsResponse{
		Success:   true,
		Documents: make([]DocumentResponse, len(docs)),
	}
	for i, doc := range docs {
		resp.Documents[i] = DocumentResponse{
			ID:         doc.ID,
			Filename:   doc.Filename,
			PageCount:  doc.PageCount,
			ChunkCount: doc.ChunkCount,
			CreatedAt:  doc.CreatedAt,
		}
	}

	if h.collections != nil {
		info, err := h.collections.GetCollectionInfo(ctx, h.collectionName)
		if err != nil {
			logger.WarnContext(ctx, "failed to get collection info", "collection", h.collectionName, "error", err)
		} else {
			resp.Collection = &CollectionResponse{
				Name:        h.collectionName,
				VectorSize:  info.VectorSize,
				PointsCount: info.PointsCount,
				Status:      info.Status,
			}
		}
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

// DeleteDocumentHandler removes one indexed document.
type DeleteDocumentHandler struct {
	documentService service.DocumentService
}

// NewDeleteDocumentHandler creates a new DeleteDocumentHandler.
func NewDeleteDocumentHandler(documentService service.DocumentService) *DeleteDocumentHandler {
	return &DeleteDocumentHandler{documentService: documentService}
}

// ServeHTTP deletes the document named by the {id} route parameter.
func (h *DeleteDocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := h.documentService.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(ctx, w, err, "Failed to delete document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, MessageResponse{Success: true, Message: "Document deleted"})
}
