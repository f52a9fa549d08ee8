// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown assembles OCR pages into a single Markdown document.
package markdown

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/ocr-engine/pkg/types"
)

// PageSeparator joins per-page Markdown: two page breaks bracketing a
// horizontal rule. Downstream consumers rely on this exact sequence to
// find page boundaries, so it must not change.
const PageSeparator = "\n\n---\n\n"

// Synthesize turns an OCR result into one Markdown string. A nil or
// zero-page result yields the empty string. When embedImages is true,
// image placeholders on each page are replaced with inline data URLs.
// Warnings about unusable image entries go to warn.
func Synthesize(result *types.OCRResult, embedImages bool, warn io.Writer) string {
	if result == nil || len(result.Pages) == 0 {
		return ""
	}

	parts := make([]string, 0, len(result.Pages))
	for _, page := range result.Pages {
		text := page.Markdown
		if embedImages && len(page.Images) > 0 {
			text = embedPageImages(text, page, warn)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, PageSeparator)
}

// embedPageImages replaces every literal ![id](id) placeholder with an
// inline base64 image reference. Substitution is exact string replacement
// keyed by image id, so a reference like ![id](other) is left alone.
// Entries missing an id or payload are skipped with a warning.
func embedPageImages(text string, page types.Page, warn io.Writer) string {
	for _, img := range page.Images {
		if img.ID == "" || img.Base64 == "" {
			fmt.Fprintf(warn, "warning: page %d has an image entry without id or payload, leaving placeholder\n", page.Index)
			continue
		}
		placeholder := fmt.Sprintf("![%s](%s)", img.ID, img.ID)
		replacement := fmt.Sprintf("![%s](data:image/png;base64,%s)", img.ID, img.Base64)
		text = strings.ReplaceAll(text, placeholder, replacement)
	}
	return text
}
