package types

import "time"

// HTTPConfig holds shared HTTP settings for the OCR API client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. OCR calls on large PDFs can
	// take a while, so the default is generous.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ocr-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OCRConfig holds settings for the remote OCR invocation.
type OCRConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the Mistral API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the OCR model identifier sent with every call.
	Model string `json:"model" yaml:"model"`

	// IncludeImages requests base64 image payloads for PDF pages so they
	// can be embedded into the output Markdown.
	IncludeImages bool `json:"include_images" yaml:"include_images"`
}

// DefaultExtensions is the supported set of input file extensions.
// Markdown files are never candidates regardless of this set.
var DefaultExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".webp"}

// BatchConfig holds settings for one batch run over a directory.
type BatchConfig struct {
	OCRConfig `yaml:",inline"`

	// Extensions restricts discovery to these file extensions.
	// Empty means DefaultExtensions.
	Extensions []string `json:"extensions" yaml:"extensions"`

	// WriteMetadata controls whether a YAML conversion record is written
	// under .ocr-engine/metadata/ for each converted file.
	WriteMetadata bool `json:"write_metadata" yaml:"write_metadata"`

	// SelfPath is the resolved path of the running executable; a candidate
	// matching it is skipped. Empty disables the check.
	SelfPath string `json:"-" yaml:"-"`
}
