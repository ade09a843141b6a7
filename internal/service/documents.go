package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks medassist/internal/service DocumentLister,DocumentService

import (
	"context"
	"errors"
	"os"

	"medassist/internal/contextutil"
	"medassist/internal/storage"
)

// DocumentLister reads the indexed document catalogue.
type DocumentLister interface {
	List(ctx context.Context) ([]storage.DocumentRecord, error)
}

// DocumentService lists and removes indexed documents.
type DocumentService interface {
	List(ctx context.Context) ([]storage.DocumentRecord, error)
	// Delete removes the document's chunks, vectors and stored file.
	Delete(ctx context.Context, documentID string) error
}

type documentService struct {
	documents DocumentLister
	indexer   DocumentIndexer
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(documents DocumentLister, idx DocumentIndexer) DocumentService {
	return &documentService{
		documents: documents,
		indexer:   idx,
	}
}

func (s *documentService) List(ctx context.Context) ([]storage.DocumentRecord, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list documents", "error", err)
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

func (s *documentService) Delete(ctx context.Context, documentID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if documentID == "" {
		return &ValidationError{Field: "id", Message: "cannot be empty"}
	}

	doc, err := s.indexer.DeleteDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		logger.ErrorContext(ctx, "failed to delete document", "document_id", documentID, "error", err)
		return ExternalError(err, "failed to delete document")
	}

	if doc.StoredPath != "" {
		if err := os.Remove(doc.StoredPath); err != nil && !os.IsNotExist(err) {
			logger.WarnContext(ctx, "failed to remove stored file", "path", doc.StoredPath, "error", err)
		}
	}
	return nil
}
