// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data model shared across the conversion pipeline:
// source files, OCR results, per-file outcomes, and run summaries.
package types

// FileKind classifies a source file by its extension. PDFs are uploaded to
// the OCR service and referenced by a signed URL; images are sent inline as
// base64 data URLs.
type FileKind string

const (
	FilePDF   FileKind = "pdf"
	FileImage FileKind = "image"
)

// SourceFile is a candidate file discovered in the input directory.
type SourceFile struct {
	// Path is the filesystem path to the file.
	Path string `json:"path" yaml:"path"`

	// Kind is derived from the file extension at discovery time.
	Kind FileKind `json:"kind" yaml:"kind"`
}

// PageImage is one embedded image returned by the OCR service for a page.
// The payload is base64 without a data-URL prefix.
type PageImage struct {
	ID     string `json:"id" yaml:"id"`
	Base64 string `json:"image_base64" yaml:"image_base64"`
}

// Page is one unit of OCR output. Markdown may reference images through
// placeholders of the form ![id](id), resolved against Images.
type Page struct {
	Index    int         `json:"index" yaml:"index"`
	Markdown string      `json:"markdown" yaml:"markdown"`
	Images   []PageImage `json:"images,omitempty" yaml:"images,omitempty"`
}

// OCRResult is the ordered per-page output of one OCR invocation. Zero
// pages is a valid result and synthesizes to empty Markdown.
type OCRResult struct {
	Pages []Page `json:"pages" yaml:"pages"`
}

// Outcome is the final state of one source file after a pipeline run.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// RunSummary accumulates per-file outcomes across one batch run.
// Processed + Skipped + Errors always equals the number of candidates.
type RunSummary struct {
	Processed int `json:"processed" yaml:"processed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Errors    int `json:"errors" yaml:"errors"`
}

// Total returns the number of candidate files considered.
func (s RunSummary) Total() int {
	return s.Processed + s.Skipped + s.Errors
}

// HasErrors reports whether any file failed during the run.
func (s RunSummary) HasErrors() bool {
	return s.Errors > 0
}
