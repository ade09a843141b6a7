package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_indexer.go -package=mocks medassist/internal/service DocumentIndexer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_upload_service.go -package=mocks medassist/internal/service UploadService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"medassist/internal/contextutil"
	"medassist/internal/indexer"
	"medassist/internal/storage"
)

// DocumentIndexer turns stored PDFs into searchable chunks.
type DocumentIndexer interface {
	IndexPDF(ctx context.Context, path, filename string) (*indexer.IndexResult, error)
	DeleteDocument(ctx context.Context, documentID string) (*storage.DocumentRecord, error)
}

// UploadResult describes an accepted upload.
type UploadResult struct {
	DocumentID        string
	Filename          string
	IndexedChunkCount int
	Duplicate         bool
	// TokenStats is nil when nothing new was indexed.
	TokenStats *indexer.ChunkTokenStats
}

// UploadService accepts PDF uploads and indexes them.
type UploadService interface {
	// Upload stores the PDF read from r and indexes it.
	Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error)
}

type uploadService struct {
	indexer   DocumentIndexer
	uploadDir string
}

// NewUploadService creates a new UploadService storing files under uploadDir.
func NewUploadService(idx DocumentIndexer, uploadDir string) UploadService {
	return &uploadService{
		indexer:   idx,
		uploadDir: uploadDir,
	}
}

// Upload validates the filename, saves the content under a generated name and indexes it.
// The saved file is removed again when nothing new was indexed.
func (s *uploadService) Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return UploadResult{}, &ValidationError{Field: "file", Message: "no file selected"}
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		logger.WarnContext(ctx, "rejected upload with unsupported type", "filename", name)
		return UploadResult{}, &ValidationError{Field: "file", Message: "only PDF files are allowed"}
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return UploadResult{}, WrapError(err, "failed to create upload directory")
	}
	path := filepath.Join(s.uploadDir, uuid.New().String()+".pdf")
	if err := saveFile(path, r); err != nil {
		_ = os.Remove(path)
		return UploadResult{}, WrapError(err, "failed to save upload")
	}

	result, err := s.indexer.IndexPDF(ctx, path, name)
	if err != nil {
		removeUpload(ctx, path)
		if errors.Is(err, indexer.ErrNoText) {
			logger.WarnContext(ctx, "upload has no extractable text", "filename", name)
			return UploadResult{}, fmt.Errorf("%w: %s", ErrNoExtractableText, name)
		}
		logger.ErrorContext(ctx, "failed to index upload", "filename", name, "error", err)
		return UploadResult{}, ExternalError(err, "failed to index document")
	}

	if result.Duplicate || result.Chunks == 0 {
		removeUpload(ctx, path)
	}

	logger.InfoContext(ctx, "upload processed",
		"filename", name,
		"document_id", result.DocumentID,
		"chunks", result.Chunks,
		"duplicate", result.Duplicate,
	)
	upload := UploadResult{
		DocumentID:        result.DocumentID,
		Filename:          name,
		IndexedChunkCount: result.Chunks,
		Duplicate:         result.Duplicate,
	}
	if !result.Duplicate && result.Chunks > 0 {
		stats := result.TokenStats
		upload.TokenStats = &stats
	}
	return upload, nil
}

func saveFile(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func removeUpload(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to remove upload", "path", path, "error", err)
	}
}
