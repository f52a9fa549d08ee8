// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/ocr-engine/pkg/types"
)

// Discover lists the regular files in dir whose extension is in the
// supported set. Markdown files are never candidates, so the tool's own
// output cannot feed back into a later run. The result is in directory
// enumeration order (sorted by name).
func Discover(dir string, extensions []string) ([]types.SourceFile, error) {
	if len(extensions) == 0 {
		extensions = types.DefaultExtensions
	}
	supported := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		supported[strings.ToLower(ext)] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing directory %s: %w", dir, err)
	}

	var files []types.SourceFile
	for _, entry := range entries {
		if entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".md" || !supported[ext] {
			continue
		}
		kind := types.FileImage
		if ext == ".pdf" {
			kind = types.FilePDF
		}
		files = append(files, types.SourceFile{
			Path: filepath.Join(dir, entry.Name()),
			Kind: kind,
		})
	}
	return files, nil
}
