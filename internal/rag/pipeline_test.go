package rag_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"medassist/internal/rag"
	"medassist/internal/rag/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const testTimeout = 2 * time.Second

// isSummaryPrompt distinguishes the two prompt kinds sent to the generator.
func isSummaryPrompt(prompt string) bool {
	return strings.HasPrefix(prompt, "You are a medical knowledge assistant.")
}

func newAssembler(store rag.VectorSearcher, gen rag.Generator, opts ...rag.SummarizerOption) *rag.Assembler {
	retriever := rag.NewRetriever(store)
	return rag.NewAssembler(
		rag.NewRouter(nil),
		rag.NewSummarizer(retriever, gen, testTimeout, opts...),
		rag.NewSymptomAnalyzer(gen, testTimeout),
	)
}

func TestRetriever_Retrieve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	retriever := rag.NewRetriever(store)

	t.Run("deduplicates store results", func(t *testing.T) {
		store.EXPECT().
			SimilaritySearch(gomock.Any(), "fever", 4).
			Return([]rag.Chunk{{Text: "a"}, {Text: "b"}, {Text: "a "}}, nil)

		got, err := retriever.Retrieve(context.Background(), "fever", 4)
		if err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
		if len(got) != 2 || got[0].Text != "a" || got[1].Text != "b" {
			t.Errorf("Retrieve() = %#v, want [a b]", got)
		}
	})

	t.Run("store failure is reported", func(t *testing.T) {
		store.EXPECT().
			SimilaritySearch(gomock.Any(), "fever", 3).
			Return(nil, errors.New("connection refused"))

		got, err := retriever.Retrieve(context.Background(), "fever", 3)
		if err == nil {
			t.Fatal("Retrieve() expected error, got nil")
		}
		if len(got) != 0 {
			t.Errorf("Retrieve() returned %d chunks on failure", len(got))
		}
	})

	t.Run("k below one rejected without calling the store", func(t *testing.T) {
		if _, err := retriever.Retrieve(context.Background(), "fever", 0); err == nil {
			t.Fatal("Retrieve() with k=0 expected error")
		}
	})
}

func TestSummarizer_NoEvidenceSkipsGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	gen := mocks.NewMockGenerator(ctrl) // no expectations: any Generate call fails the test

	store.EXPECT().SimilaritySearch(gomock.Any(), gomock.Any(), 8).Return([]rag.Chunk{}, nil)

	summarizer := rag.NewSummarizer(rag.NewRetriever(store), gen, testTimeout)
	summary, evidence := summarizer.Summarize(context.Background(), "What causes diabetes?", 8, 0.2)

	if summary != "" {
		t.Errorf("Summarize() summary = %q, want absent", summary)
	}
	if evidence == nil || len(evidence) != 0 {
		t.Errorf("Summarize() evidence = %#v, want empty set", evidence)
	}
}

func TestSummarizer_StoreFailureIsNonFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	gen := mocks.NewMockGenerator(ctrl)
	web := mocks.NewMockWebSearcher(ctrl)

	store.EXPECT().SimilaritySearch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("index missing"))
	web.EXPECT().Search(gomock.Any(), "hypertension", 3).Return([]rag.WebResult{
		{URL: "https://example.org/htn", Content: "Hypertension is persistently elevated blood pressure."},
	}, nil)

	var prompt string
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), 0.3, gomock.Any()).
		DoAndReturn(func(_ context.Context, p string, _ float64, _ int) (string, error) {
			prompt = p
			return "web-grounded answer", nil
		})

	summarizer := rag.NewSummarizer(rag.NewRetriever(store), gen, testTimeout, rag.WithWebSearch(web, 3))
	summary, evidence := summarizer.Summarize(context.Background(), "hypertension", 5, 0.3)

	if summary != "web-grounded answer" {
		t.Errorf("Summarize() summary = %q", summary)
	}
	if len(evidence) != 0 {
		t.Errorf("Summarize() evidence should only hold vector store chunks, got %d", len(evidence))
	}
	if !strings.Contains(prompt, rag.LabelWebSearch) || !strings.Contains(prompt, "https://example.org/htn") {
		t.Errorf("prompt should carry labeled web evidence with its URL, got:\n%s", prompt)
	}
	if strings.Contains(prompt, rag.LabelKnowledgeBase) {
		t.Error("prompt should not label an empty knowledge base source")
	}
}

func TestSummarizer_ComposesBothSources(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	gen := mocks.NewMockGenerator(ctrl)
	web := mocks.NewMockWebSearcher(ctrl)

	store.EXPECT().SimilaritySearch(gomock.Any(), gomock.Any(), 2).Return([]rag.Chunk{{Text: "kb passage"}}, nil)
	web.EXPECT().Search(gomock.Any(), gomock.Any(), 2).Return([]rag.WebResult{
		{URL: "https://a.example", Content: "page a"},
		{URL: "https://b.example", Content: "   "},
	}, errors.New("one page failed"))

	var prompt string
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p string, _ float64, maxTokens int) (string, error) {
			prompt = p
			if maxTokens <= 0 {
				t.Errorf("summary generation should pass an output length hint, got %d", maxTokens)
			}
			return "combined", nil
		})

	summarizer := rag.NewSummarizer(rag.NewRetriever(store), gen, testTimeout, rag.WithWebSearch(web, 2))
	summary, evidence := summarizer.Summarize(context.Background(), "q", 2, 0.5)

	if summary != "combined" {
		t.Errorf("Summarize() summary = %q, want combined", summary)
	}
	if len(evidence) != 1 || evidence[0].Text != "kb passage" {
		t.Errorf("Summarize() evidence = %#v", evidence)
	}
	kbAt := strings.Index(prompt, rag.LabelKnowledgeBase)
	webAt := strings.Index(prompt, rag.LabelWebSearch)
	if kbAt < 0 || webAt < 0 || kbAt > webAt {
		t.Errorf("prompt should contain knowledge base block before web block:\n%s", prompt)
	}
	if !strings.Contains(prompt, rag.SourceSeparator) {
		t.Error("prompt should separate sources with the source separator")
	}
	if strings.Contains(prompt, "https://b.example") {
		t.Error("blank web pages should be dropped")
	}
}

func TestSummarizer_GenerationFailureKeepsEvidence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	gen := mocks.NewMockGenerator(ctrl)

	store.EXPECT().SimilaritySearch(gomock.Any(), gomock.Any(), gomock.Any()).Return([]rag.Chunk{{Text: "x"}, {Text: "y"}}, nil)
	gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("503"))

	summarizer := rag.NewSummarizer(rag.NewRetriever(store), gen, testTimeout)
	summary, evidence := summarizer.Summarize(context.Background(), "q", 5, 0.2)

	if summary != "" {
		t.Errorf("Summarize() summary = %q, want absent", summary)
	}
	if len(evidence) != 2 {
		t.Errorf("Summarize() evidence len = %d, want 2", len(evidence))
	}
}

func TestSummarizer_GenerationTimeoutKeepsEvidence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	gen := mocks.NewMockGenerator(ctrl)

	store.EXPECT().SimilaritySearch(gomock.Any(), gomock.Any(), gomock.Any()).Return([]rag.Chunk{{Text: "x"}, {Text: "y"}}, nil)
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ float64, _ int) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	summarizer := rag.NewSummarizer(rag.NewRetriever(store), gen, 20*time.Millisecond)

	start := time.Now()
	summary, evidence := summarizer.Summarize(context.Background(), "q", 5, 0.2)
	elapsed := time.Since(start)

	if summary != "" {
		t.Errorf("Summarize() summary = %q, want absent", summary)
	}
	if len(evidence) != 2 {
		t.Errorf("Summarize() evidence len = %d, want 2", len(evidence))
	}
	if elapsed > time.Second {
		t.Errorf("Summarize() took %v, want it bounded by the generation timeout", elapsed)
	}
}

func TestAssembler_GenerationTimeoutFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	gen := mocks.NewMockGenerator(ctrl)

	store.EXPECT().SimilaritySearch(gomock.Any(), gomock.Any(), gomock.Any()).Return([]rag.Chunk{{Text: "fever evidence"}}, nil)
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ float64, _ int) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}).
		Times(2)

	assembler := rag.NewAssembler(
		rag.NewRouter(nil),
		rag.NewSummarizer(rag.NewRetriever(store), gen, 20*time.Millisecond),
		rag.NewSymptomAnalyzer(gen, 20*time.Millisecond),
	)

	report := rag.WithFallback(assembler.Assemble(context.Background(), "I have a fever", 0.2, 5))
	if report.RAGSummary != rag.FallbackMessage {
		t.Errorf("RAGSummary = %q, want fallback message", report.RAGSummary)
	}
	if report.Route != rag.RouteKnowledge {
		t.Errorf("Route = %v, want %v", report.Route, rag.RouteKnowledge)
	}
}

func TestSymptomAnalyzer_Analyze(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)

	t.Run("context-aware prompt", func(t *testing.T) {
		gen.EXPECT().
			Generate(gomock.Any(), gomock.Any(), 0.4, gomock.Any()).
			DoAndReturn(func(_ context.Context, p string, _ float64, _ int) (string, error) {
				for _, section := range []string{"Possible conditions", "Severity assessment", "Recommended actions", "Warning signs", "Self-care tips", "When to seek medical help"} {
					if !strings.Contains(p, section) {
						t.Errorf("prompt missing section %q", section)
					}
				}
				if !strings.Contains(p, "hemoglobin 9.1") {
					t.Error("prompt should include the supplied context")
				}
				if !strings.Contains(p, "not in the provided documents") {
					t.Error("prompt should ask the model to state when information is absent")
				}
				return "analysis", nil
			})

		analyzer := rag.NewSymptomAnalyzer(gen, testTimeout)
		if got := analyzer.Analyze(context.Background(), "what does my report say", "hemoglobin 9.1", 0.4); got != "analysis" {
			t.Errorf("Analyze() = %q, want analysis", got)
		}
	})

	t.Run("no context omits document instructions", func(t *testing.T) {
		gen.EXPECT().
			Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p string, _ float64, _ int) (string, error) {
				if strings.Contains(p, "uploaded documents") {
					t.Error("prompt without context should not mention uploaded documents")
				}
				return "plain analysis", nil
			})

		analyzer := rag.NewSymptomAnalyzer(gen, testTimeout)
		if got := analyzer.Analyze(context.Background(), "I have a cough", "", 0.2); got != "plain analysis" {
			t.Errorf("Analyze() = %q", got)
		}
	})

	t.Run("failure returns fixed text", func(t *testing.T) {
		gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("boom"))

		analyzer := rag.NewSymptomAnalyzer(gen, testTimeout)
		if got := analyzer.Analyze(context.Background(), "I have a cough", "", 0.2); got != rag.SymptomFailureText {
			t.Errorf("Analyze() = %q, want failure text", got)
		}
	})

	t.Run("timeout is a recoverable failure", func(t *testing.T) {
		gen.EXPECT().
			Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ string, _ float64, _ int) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			})

		analyzer := rag.NewSymptomAnalyzer(gen, 20*time.Millisecond)
		start := time.Now()
		if got := analyzer.Analyze(context.Background(), "I have a cough", "", 0.2); got != rag.SymptomFailureText {
			t.Errorf("Analyze() = %q, want failure text", got)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("Analyze() took %v, want it bounded by the generation timeout", elapsed)
		}
	})
}

func TestAssembler_SymptomQueryWithDuplicateEvidence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	gen := mocks.NewMockGenerator(ctrl)

	store.EXPECT().
		SimilaritySearch(gomock.Any(), "I have fever and body pain", 3).
		Return([]rag.Chunk{
			{Text: "Fever above 39C warrants evaluation.", SourceLabel: "guide.pdf p.1"},
			{Text: "Body aches often accompany viral illness.", SourceLabel: "guide.pdf p.2"},
			{Text: "Fever above 39C warrants evaluation.", SourceLabel: "guide.pdf p.9"},
		}, nil)

	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), 0.2, gomock.Any()).
		Times(2).
		DoAndReturn(func(_ context.Context, p string, _ float64, _ int) (string, error) {
			if isSummaryPrompt(p) {
				return "knowledge summary", nil
			}
			if !strings.Contains(p, "Body aches often accompany viral illness.") {
				t.Error("symptom prompt should receive the retrieved evidence as context")
			}
			return "symptom analysis", nil
		})

	report := newAssembler(store, gen).Assemble(context.Background(), "I have fever and body pain", 0.2, 3)

	if report.Route != rag.RouteBoth {
		t.Errorf("Route = %v, want both", report.Route)
	}
	if report.RAGSummary != "knowledge summary" {
		t.Errorf("RAGSummary = %q", report.RAGSummary)
	}
	if report.SymptomAnalysis != "symptom analysis" {
		t.Errorf("SymptomAnalysis = %q", report.SymptomAnalysis)
	}
	if len(report.Evidence) != 2 {
		t.Fatalf("Evidence len = %d, want 2", len(report.Evidence))
	}
	if report.Evidence[0] != "Fever above 39C warrants evaluation." {
		t.Errorf("Evidence[0] = %q, want rank order preserved", report.Evidence[0])
	}
}

func TestAssembler_KnowledgeQueryWithoutEvidenceFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	gen := mocks.NewMockGenerator(ctrl)

	store.EXPECT().SimilaritySearch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	report := newAssembler(store, gen).Assemble(context.Background(), "What causes diabetes?", 0.2, 8)

	if report.Route != rag.RouteKnowledge {
		t.Errorf("Route = %v, want knowledge", report.Route)
	}
	if report.RAGSummary != "" || report.SymptomAnalysis != "" {
		t.Errorf("expected no generated text, got %#v", report)
	}

	final := rag.WithFallback(report)
	if final.Route != rag.RouteKnowledge || final.RAGSummary != rag.FallbackMessage {
		t.Errorf("WithFallback() = %#v, want fallback report", final)
	}
}

func TestAssembler_AllGenerationFailsFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorSearcher(ctrl)
	gen := mocks.NewMockGenerator(ctrl)

	store.EXPECT().SimilaritySearch(gomock.Any(), gomock.Any(), gomock.Any()).Return([]rag.Chunk{{Text: "ctx"}}, nil)
	gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(2).Return("", errors.New("quota exceeded"))

	report := newAssembler(store, gen).Assemble(context.Background(), "I have a headache", 0.2, 4)

	if report.SymptomAnalysis != rag.SymptomFailureText {
		t.Errorf("SymptomAnalysis = %q, want failure text", report.SymptomAnalysis)
	}

	final := rag.WithFallback(report)
	if final.Route != rag.RouteKnowledge {
		t.Errorf("Route = %v, want knowledge", final.Route)
	}
	if final.RAGSummary != rag.FallbackMessage {
		t.Errorf("RAGSummary = %q, want fallback message", final.RAGSummary)
	}
}
