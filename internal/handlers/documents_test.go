package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"medassist/internal/service"
	"medassist/internal/service/mocks"
	"medassist/internal/storage"
	"medassist/internal/vectorstore"
)

type fakeInspector struct {
	info *vectorstore.CollectionInfo
	err  error
}

func (f fakeInspector) GetCollectionInfo(context.Context, string) (*vectorstore.CollectionInfo, error) {
	return f.info, f.err
}

func TestDocumentsHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		inspector      CollectionInspector
		listErr        error
		wantStatus     int
		wantCollection bool
	}{
		{
			name:           "with collection info",
			inspector:      fakeInspector{info: &vectorstore.CollectionInfo{VectorSize: 768, PointsCount: 42, Status: "green"}},
			wantStatus:     http.StatusOK,
			wantCollection: true,
		},
		{
			name:       "collection info failure is not fatal",
			inspector:  fakeInspector{err: errors.New("unreachable")},
			wantStatus: http.StatusOK,
		},
		{
			name:       "no inspector",
			wantStatus: http.StatusOK,
		},
		{
			name:       "list failure",
			listErr:    errors.New("database is locked"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockDocumentService(ctrl)
			if tt.listErr != nil {
				svc.EXPECT().List(gomock.Any()).Return(nil, tt.listErr)
			} else {
				svc.EXPECT().List(gomock.Any()).Return([]storage.DocumentRecord{{ID: "d1", Filename: "a.pdf", PageCount: 3, ChunkCount: 9}}, nil)
			}

			handler := NewDocumentsHandler(svc, tt.inspector, "medical_docs")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp DocumentsResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Documents) != 1 || resp.Documents[0].ChunkCount != 9 {
				t.Errorf("documents = %+v", resp.Documents)
			}
			if (resp.Collection != nil) != tt.wantCollection {
				t.Errorf("collection = %+v, want present = %v", resp.Collection, tt.wantCollection)
			}
			if tt.wantCollection && resp.Collection.PointsCount != 42 {
				t.Errorf("points_count = %d", resp.Collection.PointsCount)
			}
		})
	}
}

func TestDeleteDocumentHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"deleted", nil, http.StatusOK},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"failure", errors.New("qdrant down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockDocumentService(ctrl)
			svc.EXPECT().Delete(gomock.Any(), "d1").Return(tt.err)

			r := chi.NewRouter()
			r.Method(http.MethodDelete, "/api/documents/{id}", NewDeleteDocumentHandler(svc))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/documents/d1", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
