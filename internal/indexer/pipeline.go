package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"medassist/internal/contextutil"
	"medassist/internal/llm"
	"medassist/internal/rag"
	"medassist/internal/storage"
	"medassist/internal/vectorstore"
)

// Pipeline orchestrates the indexing of PDF files into SQLite and the vector store,
// and serves similarity search over what it indexed.
type Pipeline struct {
	documents   storage.DocumentStore
	chunks      storage.ChunkStore
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	splitter    *Splitter
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	documents storage.DocumentStore,
	chunks storage.ChunkStore,
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	splitter *Splitter,
) *Pipeline {
	if splitter == nil {
		splitter = NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	}
	return &Pipeline{
		documents:   documents,
		chunks:      chunks,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		splitter:    splitter,
	}
}

// IndexPDF extracts, chunks, embeds and stores the PDF at path under filename.
// Content already indexed (same SHA256) is not indexed again.
// Returns an error wrapping ErrNoText when the PDF has no extractable text.
func (p *Pipeline) IndexPDF(ctx context.Context, path, filename string) (*IndexResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	hashHex := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := p.documents.GetByHash(ctx, hashHex)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil {
		logger.InfoContext(ctx, "skipping already indexed document", "filename", filename, "document_id", existing.ID)
		return duplicateResult(existing), nil
	}

	pages, err := ExtractPDF(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filename, err)
	}

	chunks, err := p.splitter.SplitPages(filename, pages)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk %s: %w", filename, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("failed to chunk %s: %w", filename, ErrNoText)
	}

	doc := &storage.DocumentRecord{
		ID:         uuid.New().String(),
		Filename:   filename,
		StoredPath: path,
		Hash:       hashHex,
		PageCount:  len(pages),
	}
	if err := p.documents.Insert(ctx, doc); err != nil {
		// A concurrent upload of the same content won the insert.
		if errors.Is(err, storage.ErrDuplicate) {
			winner, getErr := p.documents.GetByHash(ctx, hashHex)
			if getErr == nil {
				logger.InfoContext(ctx, "document indexed concurrently", "filename", filename, "document_id", winner.ID)
				return duplicateResult(winner), nil
			}
		}
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	added, err := p.Add(ctx, doc.ID, chunks)
	if err != nil {
		if delErr := p.documents.Delete(ctx, doc.ID); delErr != nil {
			logger.WarnContext(ctx, "failed to remove partially indexed document", "document_id", doc.ID, "error", delErr)
		}
		return nil, err
	}

	if err := p.documents.UpdateCounts(ctx, doc.ID, len(pages), added); err != nil {
		return nil, fmt.Errorf("failed to update document counts: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	logger.InfoContext(ctx, "indexed document", "filename", filename, "pages", len(pages), "chunks", added)
	return &IndexResult{
		DocumentID: doc.ID,
		Filename:   filename,
		Pages:      len(pages),
		Chunks:     added,
		TokenStats: tokenStatsFor(texts),
	}, nil
}

func duplicateResult(doc *storage.DocumentRecord) *IndexResult {
	return &IndexResult{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Pages:      doc.PageCount,
		Chunks:     doc.ChunkCount,
		Duplicate:  true,
	}
}

// Add embeds chunks and stores them for documentID in SQLite and the vector store.
// It returns the number of chunks stored. On failure the chunk rows and any
// vectors already written are removed again.
func (p *Pipeline) Add(ctx context.Context, documentID string, chunks []rag.Chunk) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		return 0, nil
	}

	chunkTexts := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunkTexts[i] = chunk.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, chunkTexts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	records := make([]*storage.ChunkRecord, len(chunks))
	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		chunkID := uuid.New().String()

		records[i] = &storage.ChunkRecord{
			ID:          chunkID,
			DocumentID:  documentID,
			ChunkIndex:  i,
			SourceLabel: chunk.SourceLabel,
			Text:        chunk.Text,
		}

		points[i] = vectorstore.Point{
			ID:  chunkID,
			Vec: embeddings[i],
			Meta: map[string]any{
				vectorstore.PayloadDocumentID:  documentID,
				vectorstore.PayloadSourceLabel: chunk.SourceLabel,
				vectorstore.PayloadChunkIndex:  i,
			},
		}
	}

	if err := p.chunks.InsertBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to insert chunks: %w", err)
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		// Upserts are batched, so earlier batches may already be stored.
		ids := make([]string, len(records))
		for i, record := range records {
			ids[i] = record.ID
		}
		if delErr := p.vectorStore.Delete(ctx, p.collection, ids); delErr != nil {
			logger.WarnContext(ctx, "failed to roll back vectors", "document_id", documentID, "error", delErr)
		}
		if delErr := p.chunks.DeleteByDocument(ctx, documentID); delErr != nil {
			logger.WarnContext(ctx, "failed to roll back chunk rows", "document_id", documentID, "error", delErr)
		}
		return 0, fmt.Errorf("failed to upsert vectors: %w", err)
	}

	return len(chunks), nil
}

// SimilaritySearch returns up to k chunks most similar to query, best first.
// Vector hits whose chunk row no longer exists are skipped.
func (p *Pipeline) SimilaritySearch(ctx context.Context, query string, k int) ([]rag.Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	embeddings, err := p.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(embeddings))
	}

	results, err := p.vectorStore.Search(ctx, p.collection, embeddings[0], k, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(results))
	for i, result := range results {
		ids[i] = result.PointID
	}
	records, err := p.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	// Keep the vector store's ranking.
	chunks := make([]rag.Chunk, 0, len(results))
	for _, id := range ids {
		record, ok := records[id]
		if !ok {
			logger.WarnContext(ctx, "vector hit without chunk row", "point_id", id)
			continue
		}
		chunks = append(chunks, rag.Chunk{Text: record.Text, SourceLabel: record.SourceLabel})
	}

	return chunks, nil
}

// DeleteDocument removes a document's vectors, chunk rows and record.
// Returns storage.ErrNotFound if the document does not exist.
func (p *Pipeline) DeleteDocument(ctx context.Context, documentID string) (*storage.DocumentRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := p.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	ids, err := p.chunks.ListIDsByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk IDs: %w", err)
	}
	if len(ids) > 0 {
		if err := p.vectorStore.Delete(ctx, p.collection, ids); err != nil {
			return nil, fmt.Errorf("failed to delete vectors: %w", err)
		}
	}

	if err := p.documents.Delete(ctx, documentID); err != nil {
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}

	logger.InfoContext(ctx, "deleted document", "document_id", documentID, "chunks", len(ids))
	return doc, nil
}
