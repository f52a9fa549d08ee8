// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ocr-engine/pkg/types"
)

// metadataDir is the dot-directory for conversion records, kept out of the
// candidate set by its extension-less hidden path.
const metadataDir = ".ocr-engine/metadata"

// conversionRecord is the YAML sidecar written for each converted file.
type conversionRecord struct {
	Source         string         `yaml:"source"`
	Kind           types.FileKind `yaml:"kind"`
	Pages          int            `yaml:"pages"`
	Model          string         `yaml:"model"`
	EmbeddedImages bool           `yaml:"embedded_images"`
	ConvertedAt    string         `yaml:"converted_at"`
}

// writeMetadata records what was converted, with which model, and when.
func (o *Orchestrator) writeMetadata(f types.SourceFile, result *types.OCRResult, embedded bool, base string) error {
	dir := filepath.Join(filepath.Dir(f.Path), metadataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	rec := conversionRecord{
		Source:         f.Path,
		Kind:           f.Kind,
		Pages:          len(result.Pages),
		Model:          o.cfg.Model,
		EmbeddedImages: embedded,
		ConvertedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, base+".yaml"), data, 0o644)
}
