package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/mock/gomock"

	"medassist/internal/history"
	"medassist/internal/rag"
	"medassist/internal/service"
	"medassist/internal/service/mocks"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testContext() context.Context {
	return context.Background()
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestAnalyzeService_Analyze(t *testing.T) {
	usable := rag.Report{Route: rag.RouteBoth, SymptomAnalysis: "rest and fluids", RAGSummary: "fever is...", Evidence: []string{"e1"}}
	empty := rag.Report{Route: rag.RouteKnowledge, Evidence: []string{"e1"}}

	tests := []struct {
		name            string
		req             service.AnalyzeRequest
		wantQuery       string
		wantTemperature float64
		wantTopK        int
		assembled       rag.Report
		wantReport      rag.Report
		wantErr         bool
	}{
		{
			name:            "defaults applied",
			req:             service.AnalyzeRequest{Query: "I have a fever"},
			wantQuery:       "I have a fever",
			wantTemperature: 0.2,
			wantTopK:        8,
			assembled:       usable,
			wantReport:      usable,
		},
		{
			name:            "query trimmed and values passed through",
			req:             service.AnalyzeRequest{Query: "  What is asthma?\n", Temperature: floatPtr(0.7), TopK: intPtr(3)},
			wantQuery:       "What is asthma?",
			wantTemperature: 0.7,
			wantTopK:        3,
			assembled:       usable,
			wantReport:      usable,
		},
		{
			name:            "out of range values clamped",
			req:             service.AnalyzeRequest{Query: "cough", Temperature: floatPtr(2.5), TopK: intPtr(100)},
			wantQuery:       "cough",
			wantTemperature: 1,
			wantTopK:        20,
			assembled:       usable,
			wantReport:      usable,
		},
		{
			name:            "negative values clamped",
			req:             service.AnalyzeRequest{Query: "cough", Temperature: floatPtr(-1), TopK: intPtr(0)},
			wantQuery:       "cough",
			wantTemperature: 0,
			wantTopK:        1,
			assembled:       usable,
			wantReport:      usable,
		},
		{
			name:            "report without text replaced by fallback",
			req:             service.AnalyzeRequest{Query: "What causes diabetes?"},
			wantQuery:       "What causes diabetes?",
			wantTemperature: 0.2,
			wantTopK:        8,
			assembled:       empty,
			wantReport:      rag.Report{Route: rag.RouteKnowledge, RAGSummary: rag.FallbackMessage, Evidence: []string{}},
		},
		{
			name:    "blank query rejected",
			req:     service.AnalyzeRequest{Query: "   "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			assembler := mocks.NewMockReportAssembler(ctrl)
			historyLog := mocks.NewMockHistoryLog(ctrl)
			svc := service.NewAnalyzeService(assembler, historyLog, 0.2, 8)

			if !tt.wantErr {
				assembler.EXPECT().
					Assemble(gomock.Any(), tt.wantQuery, tt.wantTemperature, tt.wantTopK).
					Return(tt.assembled)
				historyLog.EXPECT().
					Append(gomock.Any(), "session-1", tt.wantQuery, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, query string, report rag.Report) history.Entry {
						return history.Entry{ID: "entry-1", Query: query, Result: report}
					})
			}

			entry, err := svc.Analyze(testContext(), "session-1", tt.req)
			if tt.wantErr {
				var validationErr *service.ValidationError
				if !errors.As(err, &validationErr) || validationErr.Field != "query" {
					t.Fatalf("Analyze() error = %v, want ValidationError on query", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Analyze() unexpected error = %v", err)
			}
			if entry.ID != "entry-1" {
				t.Errorf("Analyze() entry ID = %q, want %q", entry.ID, "entry-1")
			}
			if entry.Result.Route != tt.wantReport.Route ||
				entry.Result.RAGSummary != tt.wantReport.RAGSummary ||
				entry.Result.SymptomAnalysis != tt.wantReport.SymptomAnalysis ||
				len(entry.Result.Evidence) != len(tt.wantReport.Evidence) {
				t.Errorf("Analyze() report = %+v, want %+v", entry.Result, tt.wantReport)
			}
		})
	}
}

func TestAnalyzeService_DefaultsClamped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	assembler := mocks.NewMockReportAssembler(ctrl)
	historyLog := mocks.NewMockHistoryLog(ctrl)
	svc := service.NewAnalyzeService(assembler, historyLog, 3, 0)

	assembler.EXPECT().Assemble(gomock.Any(), "fever", 1.0, 1).Return(rag.Report{Route: rag.RouteBoth, SymptomAnalysis: "a", Evidence: []string{}})
	historyLog.EXPECT().Append(gomock.Any(), "s", "fever", gomock.Any()).Return(history.Entry{ID: "x"})

	if _, err := svc.Analyze(testContext(), "s", service.AnalyzeRequest{Query: "fever"}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
}

func TestAnalyzeService_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	historyLog := mocks.NewMockHistoryLog(ctrl)
	svc := service.NewAnalyzeService(mocks.NewMockReportAssembler(ctrl), historyLog, 0.2, 8)

	want := []history.Entry{{ID: "a"}, {ID: "b"}}
	historyLog.EXPECT().Recent(gomock.Any(), "s1", history.DisplayLimit).Return(want)
	historyLog.EXPECT().Clear(gomock.Any(), "s1")

	got := svc.History(testContext(), "s1")
	if len(got) != 2 || got[0].ID != "a" {
		t.Errorf("History() = %+v, want %+v", got, want)
	}
	svc.ClearHistory(testContext(), "s1")
}

func TestClampTopK(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1}, {0, 1}, {1, 1}, {8, 8}, {20, 20}, {21, 20},
	}
	for _, tt := range tests {
		if got := service.ClampTopK(tt.in); got != tt.want {
			t.Errorf("ClampTopK(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampTemperature(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.1, 0}, {0, 0}, {0.35, 0.35}, {1, 1}, {1.01, 1},
	}
	for _, tt := range tests {
		if got := service.ClampTemperature(tt.in); got != tt.want {
			t.Errorf("ClampTemperature(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
