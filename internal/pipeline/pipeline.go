// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one source file through the remote OCR service.
//
// PDFs are staged with the service, referenced through a signed URL, and
// the staged file is deleted on every exit path once the upload succeeds.
// Images are sent inline as base64 data URLs and need no cleanup.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/ocr-engine/internal/mistral"
	"github.com/pdiddy/ocr-engine/pkg/types"
)

// Service is the remote OCR surface the pipeline depends on.
// *mistral.Client implements it; tests supply a fake.
type Service interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
	SignedURL(ctx context.Context, fileID string) (string, error)
	Process(ctx context.Context, doc mistral.DocumentRef, includeImages bool) (*types.OCRResult, error)
	Delete(ctx context.Context, fileID string) error
}

// Processor converts single files through the OCR service. The service
// handle is shared read-only across files; one Processor serves a whole
// batch run.
type Processor struct {
	svc           Service
	includeImages bool
	log           io.Writer
}

// New creates a Processor. includeImages requests base64 image payloads
// for PDF pages. Warnings (failed cleanup) go to log.
func New(svc Service, includeImages bool, log io.Writer) *Processor {
	return &Processor{svc: svc, includeImages: includeImages, log: log}
}

// ProcessFile runs one source file through OCR and returns the result.
// Errors carry a types.ErrorKind: local read failures are ErrLocalIO,
// everything involving the service is ErrRemoteService.
func (p *Processor) ProcessFile(ctx context.Context, file types.SourceFile) (*types.OCRResult, error) {
	switch file.Kind {
	case types.FilePDF:
		return p.processPDF(ctx, file)
	case types.FileImage:
		return p.processImage(ctx, file)
	default:
		return nil, types.NewFileError(file.Path, types.ErrLocalIO, fmt.Errorf("unknown file kind %q", file.Kind))
	}
}

// processPDF stages the file, mints a signed URL, and runs OCR against it.
// Once the upload succeeds the staged file is deleted exactly once, after
// the OCR call resolves, whatever happens in between. Deletion failure is
// logged and never changes the outcome.
func (p *Processor) processPDF(ctx context.Context, file types.SourceFile) (result *types.OCRResult, err error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, types.NewFileError(file.Path, types.ErrLocalIO, fmt.Errorf("reading PDF: %w", err))
	}

	fileID, err := p.svc.Upload(ctx, filepath.Base(file.Path), data)
	if err != nil {
		return nil, types.NewFileError(file.Path, types.ErrRemoteService, err)
	}
	defer func() {
		if delErr := p.svc.Delete(ctx, fileID); delErr != nil {
			fmt.Fprintf(p.log, "warning: could not delete uploaded file %s: %v\n", fileID, delErr)
		}
	}()

	url, err := p.svc.SignedURL(ctx, fileID)
	if err != nil {
		return nil, types.NewFileError(file.Path, types.ErrRemoteService, err)
	}

	result, err = p.svc.Process(ctx, mistral.DocumentURLRef(url), p.includeImages)
	if err != nil {
		return nil, types.NewFileError(file.Path, types.ErrRemoteService, err)
	}
	return result, nil
}

// processImage encodes the file as a data URL and runs OCR directly.
// Nothing is staged, so there is nothing to clean up.
func (p *Processor) processImage(ctx context.Context, file types.SourceFile) (*types.OCRResult, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, types.NewFileError(file.Path, types.ErrLocalIO, fmt.Errorf("reading image: %w", err))
	}
	if len(data) == 0 {
		return nil, types.NewFileError(file.Path, types.ErrLocalIO, fmt.Errorf("read 0 bytes from image"))
	}

	result, err := p.svc.Process(ctx, mistral.ImageURLRef(imageDataURL(file.Path, data)), false)
	if err != nil {
		return nil, types.NewFileError(file.Path, types.ErrRemoteService, err)
	}
	return result, nil
}

// mimeFallback resolves supported image extensions when the system MIME
// database does not know them (.webp is commonly unregistered).
var mimeFallback = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// imageDataURL builds a data:<mime>;base64,<payload> URL for an image.
// MIME resolution order: system database, extension fallback table,
// image/jpeg as the last resort.
func imageDataURL(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = mimeFallback[ext]
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
