package rag

// Chunk is a bounded unit of document text stored for retrieval.
type Chunk struct {
	// Text is the chunk content as produced by ingestion.
	Text string `json:"text"`
	// SourceLabel identifies where the text came from (e.g. "report.pdf p.3" or a URL).
	SourceLabel string `json:"source_label"`
}

// EvidenceSet is the ordered, duplicate-free list of chunks retrieved for one query.
// Order is retrieval rank, most relevant first.
type EvidenceSet []Chunk

// Texts returns the chunk texts in order.
func (e EvidenceSet) Texts() []string {
	texts := make([]string, len(e))
	for i, chunk := range e {
		texts[i] = chunk.Text
	}
	return texts
}

// Route decides which generation paths run for a query.
type Route string

const (
	// RouteKnowledge runs only the knowledge summary.
	RouteKnowledge Route = "knowledge"
	// RouteSymptoms runs only the symptom analysis. The keyword router never produces it.
	RouteSymptoms Route = "symptoms"
	// RouteBoth runs the knowledge summary and the symptom analysis.
	RouteBoth Route = "both"
)

// Report is the merged result of one analyze request.
type Report struct {
	// Route is the route the query was classified into.
	Route Route `json:"route"`
	// SymptomAnalysis is the structured symptom analysis. Empty when not computed.
	SymptomAnalysis string `json:"symptom_analysis,omitempty"`
	// RAGSummary is the evidence-grounded knowledge answer. Empty when absent.
	RAGSummary string `json:"rag_summary,omitempty"`
	// Evidence holds the first EvidencePreviewLimit characters of each evidence chunk, in rank order.
	Evidence []string `json:"evidence"`
}

// WebResult is a single page returned by the web-search collaborator.
type WebResult struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}
