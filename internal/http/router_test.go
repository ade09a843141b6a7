package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"medassist/internal/history"
	"medassist/internal/rag"
	"medassist/internal/service"
	svcmocks "medassist/internal/service/mocks"
	"medassist/internal/storage"
	vsmocks "medassist/internal/vectorstore/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type routerMocks struct {
	analyze   *svcmocks.MockAnalyzeService
	upload    *svcmocks.MockUploadService
	documents *svcmocks.MockDocumentService
	store     *vsmocks.MockVectorStore
}

func newTestRouter(t *testing.T) (http.Handler, routerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := routerMocks{
		analyze:   svcmocks.NewMockAnalyzeService(ctrl),
		upload:    svcmocks.NewMockUploadService(ctrl),
		documents: svcmocks.NewMockDocumentService(ctrl),
		store:     vsmocks.NewMockVectorStore(ctrl),
	}
	router := NewRouter(&Deps{
		AnalyzeService:  m.analyze,
		UploadService:   m.upload,
		DocumentService: m.documents,
		VectorStore:     m.store,
		CollectionName:  "medical_docs",
		MaxUploadBytes:  16 << 20,
	})
	return router, m
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setup      func(routerMocks)
		wantStatus int
	}{
		{
			name:   "POST /api/analyze",
			method: http.MethodPost,
			path:   "/api/analyze",
			body:   `{"query":"I have a fever"}`,
			setup: func(m routerMocks) {
				m.analyze.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(history.Entry{ID: "e1", Result: rag.Report{Route: rag.RouteBoth, Evidence: []string{}}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /api/analyze method not allowed",
			method:     http.MethodGet,
			path:       "/api/analyze",
			setup:      func(routerMocks) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "GET /api/history",
			method: http.MethodGet,
			path:   "/api/history",
			setup: func(m routerMocks) {
				m.analyze.EXPECT().History(gomock.Any(), gomock.Any()).Return([]history.Entry{})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "POST /api/clear-history",
			method: http.MethodPost,
			path:   "/api/clear-history",
			setup: func(m routerMocks) {
				m.analyze.EXPECT().ClearHistory(gomock.Any(), gomock.Any())
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /api/upload without multipart body",
			method:     http.MethodPost,
			path:       "/api/upload",
			setup:      func(routerMocks) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "GET /api/health",
			method: http.MethodGet,
			path:   "/api/health",
			setup: func(m routerMocks) {
				m.store.EXPECT().CollectionExists(gomock.Any(), "medical_docs").Return(true, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "GET /api/documents",
			method: http.MethodGet,
			path:   "/api/documents",
			setup: func(m routerMocks) {
				m.documents.EXPECT().List(gomock.Any()).Return([]storage.DocumentRecord{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "DELETE /api/documents/{id}",
			method: http.MethodDelete,
			path:   "/api/documents/abc",
			setup: func(m routerMocks) {
				m.documents.EXPECT().Delete(gomock.Any(), "abc").Return(service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/unknown",
			setup:      func(routerMocks) {},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newTestRouter(t)
			tt.setup(m)

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_SessionScopedToHistoryRoutes(t *testing.T) {
	router, m := newTestRouter(t)

	var first, second string
	gomock.InOrder(
		m.analyze.EXPECT().History(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) []history.Entry {
			first = id
			return nil
		}),
		m.analyze.EXPECT().History(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) []history.Entry {
			second = id
			return nil
		}),
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("first request should set a session cookie, got %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.AddCookie(cookies[0])
	router.ServeHTTP(httptest.NewRecorder(), req)

	if first == "" || first != second {
		t.Errorf("session IDs = %q, %q, want the same non-empty ID", first, second)
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, m := newTestRouter(t)
	m.store.EXPECT().CollectionExists(gomock.Any(), gomock.Any()).Return(true, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Router should apply CORS middleware")
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("health checks should not create sessions")
	}
}
