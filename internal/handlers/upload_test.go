package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"medassist/internal/indexer"
	"medassist/internal/service"
	"medassist/internal/service/mocks"
)

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(content)
	} else {
		_ = mw.WriteField("other", "value")
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return body, mw.FormDataContentType()
}

func TestUploadHandler_ServeHTTP(t *testing.T) {
	pdf := []byte("%PDF-1.4 test")

	tests := []struct {
		name          string
		field         string
		filename      string
		content       []byte
		maxBytes      int64
		mockSetup     func(*mocks.MockUploadService)
		wantStatus    int
		checkResponse func(*testing.T, UploadResponse)
	}{
		{
			name:     "indexed",
			field:    "file",
			filename: "guidelines.pdf",
			content:  pdf,
			maxBytes: 16 << 20,
			mockSetup: func(m *mocks.MockUploadService) {
				m.EXPECT().Upload(gomock.Any(), "guidelines.pdf", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, r io.Reader) (service.UploadResult, error) {
						got, _ := io.ReadAll(r)
						if !bytes.Equal(got, pdf) {
							t.Errorf("service received %q", got)
						}
						return service.UploadResult{
							DocumentID:        "d1",
							Filename:          "guidelines.pdf",
							IndexedChunkCount: 7,
							TokenStats:        &indexer.ChunkTokenStats{Min: 12, Max: 240, Mean: 150.25, P95: 238},
						}, nil
					})
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp UploadResponse) {
				if !resp.Success || resp.IndexedChunkCount != 7 || resp.DocumentID != "d1" || resp.Message == "" {
					t.Errorf("response = %+v", resp)
				}
				if resp.TokenStats == nil || resp.TokenStats.Max != 240 || resp.TokenStats.P95 != 238 {
					t.Errorf("token_stats = %+v, want max 240 p95 238", resp.TokenStats)
				}
			},
		},
		{
			name:     "duplicate",
			field:    "file",
			filename: "guidelines.pdf",
			content:  pdf,
			maxBytes: 16 << 20,
			mockSetup: func(m *mocks.MockUploadService) {
				m.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.UploadResult{DocumentID: "d1", Filename: "guidelines.pdf", IndexedChunkCount: 7, Duplicate: true}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp UploadResponse) {
				if !resp.Duplicate {
					t.Error("duplicate flag should be set")
				}
				if resp.TokenStats != nil {
					t.Errorf("token_stats = %+v, want omitted for duplicates", resp.TokenStats)
				}
			},
		},
		{
			name:       "no file field",
			maxBytes:   16 << 20,
			mockSetup:  func(*mocks.MockUploadService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "file larger than limit",
			field:      "file",
			filename:   "big.pdf",
			content:    bytes.Repeat([]byte("x"), 100),
			maxBytes:   10,
			mockSetup:  func(*mocks.MockUploadService) {},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:     "wrong type",
			field:    "file",
			filename: "notes.txt",
			content:  []byte("hello"),
			maxBytes: 16 << 20,
			mockSetup: func(m *mocks.MockUploadService) {
				m.EXPECT().Upload(gomock.Any(), "notes.txt", gomock.Any()).
					Return(service.UploadResult{}, &service.ValidationError{Field: "file", Message: "only PDF files are allowed"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:     "no extractable text",
			field:    "file",
			filename: "scan.pdf",
			content:  pdf,
			maxBytes: 16 << 20,
			mockSetup: func(m *mocks.MockUploadService) {
				m.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.UploadResult{}, fmt.Errorf("%w: scan.pdf", service.ErrNoExtractableText))
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:     "indexing failure",
			field:    "file",
			filename: "guidelines.pdf",
			content:  pdf,
			maxBytes: 16 << 20,
			mockSetup: func(m *mocks.MockUploadService) {
				m.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.UploadResult{}, errors.New("embedding server down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockUploadService(ctrl)
			tt.mockSetup(svc)
			handler := NewUploadHandler(svc, tt.maxBytes)

			body, contentType := multipartBody(t, tt.field, tt.filename, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.checkResponse != nil {
				var resp UploadResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestUploadHandler_MethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewUploadHandler(mocks.NewMockUploadService(ctrl), 1<<20)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/upload", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
