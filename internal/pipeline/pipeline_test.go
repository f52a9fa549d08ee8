// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/ocr-engine/internal/mistral"
	"github.com/pdiddy/ocr-engine/pkg/types"
)

// fakeService records calls and fails on demand, so tests can observe the
// staged-file lifecycle without a network.
type fakeService struct {
	uploadErr  error
	signedErr  error
	processErr error
	deleteErr  error

	uploads   int
	deletes   []string
	processed []mistral.DocumentRef
	result    *types.OCRResult
}

func (f *fakeService) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	return "file-123", nil
}

func (f *fakeService) SignedURL(ctx context.Context, fileID string) (string, error) {
	if f.signedErr != nil {
		return "", f.signedErr
	}
	return "https://signed.example/" + fileID, nil
}

func (f *fakeService) Process(ctx context.Context, doc mistral.DocumentRef, includeImages bool) (*types.OCRResult, error) {
	f.processed = append(f.processed, doc)
	if f.processErr != nil {
		return nil, f.processErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &types.OCRResult{Pages: []types.Page{{Markdown: "# hello"}}}, nil
}

func (f *fakeService) Delete(ctx context.Context, fileID string) error {
	f.deletes = append(f.deletes, fileID)
	return f.deleteErr
}

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessPDFDeletesStagedFile(t *testing.T) {
	tests := []struct {
		name        string
		svc         *fakeService
		wantErr     bool
		wantKind    types.ErrorKind
		wantDeletes int
	}{
		{
			name:        "success",
			svc:         &fakeService{},
			wantDeletes: 1,
		},
		{
			name:        "signed URL failure still deletes",
			svc:         &fakeService{signedErr: errors.New("expired handle")},
			wantErr:     true,
			wantKind:    types.ErrRemoteService,
			wantDeletes: 1,
		},
		{
			name:        "OCR failure still deletes",
			svc:         &fakeService{processErr: errors.New("service unavailable")},
			wantErr:     true,
			wantKind:    types.ErrRemoteService,
			wantDeletes: 1,
		},
		{
			name:        "upload failure leaves nothing to delete",
			svc:         &fakeService{uploadErr: errors.New("payload rejected")},
			wantErr:     true,
			wantKind:    types.ErrRemoteService,
			wantDeletes: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "doc.pdf", []byte("%PDF-1.4 fake"))
			p := New(tt.svc, false, &bytes.Buffer{})

			_, err := p.ProcessFile(context.Background(), types.SourceFile{Path: path, Kind: types.FilePDF})

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if tt.wantKind != "" && types.KindOf(err) != tt.wantKind {
				t.Errorf("error kind = %q, want %q", types.KindOf(err), tt.wantKind)
			}
			if len(tt.svc.deletes) != tt.wantDeletes {
				t.Errorf("delete calls = %d, want %d", len(tt.svc.deletes), tt.wantDeletes)
			}
		})
	}
}

func TestProcessPDFDeleteFailureIsWarningOnly(t *testing.T) {
	svc := &fakeService{deleteErr: errors.New("already gone")}
	path := writeTempFile(t, "doc.pdf", []byte("%PDF-1.4 fake"))

	var log bytes.Buffer
	p := New(svc, false, &log)

	result, err := p.ProcessFile(context.Background(), types.SourceFile{Path: path, Kind: types.FilePDF})
	if err != nil {
		t.Fatalf("delete failure must not change the outcome: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if !strings.Contains(log.String(), "warning: could not delete uploaded file file-123") {
		t.Errorf("expected a cleanup warning, got %q", log.String())
	}
}

func TestProcessPDFUnreadableFile(t *testing.T) {
	svc := &fakeService{}
	p := New(svc, false, &bytes.Buffer{})

	_, err := p.ProcessFile(context.Background(), types.SourceFile{
		Path: filepath.Join(t.TempDir(), "missing.pdf"),
		Kind: types.FilePDF,
	})
	if types.KindOf(err) != types.ErrLocalIO {
		t.Fatalf("error kind = %q, want %q", types.KindOf(err), types.ErrLocalIO)
	}
	if svc.uploads != 0 || len(svc.deletes) != 0 {
		t.Errorf("no service calls expected for an unreadable file")
	}
}

func TestProcessPDFUsesSignedURL(t *testing.T) {
	svc := &fakeService{}
	path := writeTempFile(t, "doc.pdf", []byte("%PDF-1.4 fake"))
	p := New(svc, true, &bytes.Buffer{})

	if _, err := p.ProcessFile(context.Background(), types.SourceFile{Path: path, Kind: types.FilePDF}); err != nil {
		t.Fatal(err)
	}

	if len(svc.processed) != 1 {
		t.Fatalf("process calls = %d, want 1", len(svc.processed))
	}
	doc := svc.processed[0]
	if doc.Type != "document_url" {
		t.Errorf("document type = %q, want document_url", doc.Type)
	}
	if doc.DocumentURL != "https://signed.example/file-123" {
		t.Errorf("document URL = %q", doc.DocumentURL)
	}
}

func TestProcessImageSendsDataURL(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		wantPrefix string
	}{
		{"png", "scan.png", "data:image/png;base64,"},
		{"webp falls back to table", "scan.webp", "data:image/webp;base64,"},
		{"unknown extension defaults to jpeg", "scan.zzz", "data:image/jpeg;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			path := writeTempFile(t, tt.fileName, []byte{0x89, 0x50, 0x4e, 0x47})
			p := New(svc, false, &bytes.Buffer{})

			if _, err := p.ProcessFile(context.Background(), types.SourceFile{Path: path, Kind: types.FileImage}); err != nil {
				t.Fatal(err)
			}

			if len(svc.processed) != 1 {
				t.Fatalf("process calls = %d, want 1", len(svc.processed))
			}
			doc := svc.processed[0]
			if doc.Type != "image_url" {
				t.Errorf("document type = %q, want image_url", doc.Type)
			}
			if !strings.HasPrefix(doc.ImageURL, tt.wantPrefix) {
				t.Errorf("data URL %q does not start with %q", doc.ImageURL[:min(len(doc.ImageURL), 40)], tt.wantPrefix)
			}
			if svc.uploads != 0 || len(svc.deletes) != 0 {
				t.Error("images must not be staged or deleted")
			}
		})
	}
}

func TestProcessImageEmptyFile(t *testing.T) {
	svc := &fakeService{}
	path := writeTempFile(t, "empty.png", nil)
	p := New(svc, false, &bytes.Buffer{})

	_, err := p.ProcessFile(context.Background(), types.SourceFile{Path: path, Kind: types.FileImage})
	if types.KindOf(err) != types.ErrLocalIO {
		t.Fatalf("error kind = %q, want %q", types.KindOf(err), types.ErrLocalIO)
	}
	if len(svc.processed) != 0 {
		t.Error("empty image must not reach the service")
	}
}

func TestProcessImageRemoteFailure(t *testing.T) {
	svc := &fakeService{processErr: errors.New("bad request")}
	path := writeTempFile(t, "scan.jpg", []byte("jpeg bytes"))
	p := New(svc, false, &bytes.Buffer{})

	_, err := p.ProcessFile(context.Background(), types.SourceFile{Path: path, Kind: types.FileImage})
	if types.KindOf(err) != types.ErrRemoteService {
		t.Fatalf("error kind = %q, want %q", types.KindOf(err), types.ErrRemoteService)
	}
}
