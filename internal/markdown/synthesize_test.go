// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdiddy/ocr-engine/pkg/types"
)

func TestSynthesizeJoinsPagesWithSeparator(t *testing.T) {
	result := &types.OCRResult{Pages: []types.Page{
		{Index: 0, Markdown: "page1"},
		{Index: 1, Markdown: "page2"},
		{Index: 2, Markdown: "page3"},
	}}

	got := Synthesize(result, false, &bytes.Buffer{})
	want := "page1\n\n---\n\npage2\n\n---\n\npage3"
	if got != want {
		t.Errorf("Synthesize() = %q, want %q", got, want)
	}
}

func TestSynthesizeEmpty(t *testing.T) {
	tests := []struct {
		name   string
		result *types.OCRResult
	}{
		{"nil result", nil},
		{"zero pages", &types.OCRResult{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Synthesize(tt.result, true, &bytes.Buffer{}); got != "" {
				t.Errorf("Synthesize() = %q, want empty string", got)
			}
		})
	}
}

func TestSynthesizeSinglePageHasNoSeparator(t *testing.T) {
	result := &types.OCRResult{Pages: []types.Page{{Markdown: "only page"}}}
	got := Synthesize(result, false, &bytes.Buffer{})
	if got != "only page" {
		t.Errorf("Synthesize() = %q, want %q", got, "only page")
	}
}

func TestSynthesizeEmbedsImages(t *testing.T) {
	result := &types.OCRResult{Pages: []types.Page{
		{
			Index:    0,
			Markdown: "Intro ![fig1](fig1) and an unrelated ![fig1](other) link.",
			Images:   []types.PageImage{{ID: "fig1", Base64: "QQ=="}},
		},
	}}

	got := Synthesize(result, true, &bytes.Buffer{})

	if !strings.Contains(got, "![fig1](data:image/png;base64,QQ==)") {
		t.Errorf("placeholder not substituted: %q", got)
	}
	if !strings.Contains(got, "![fig1](other)") {
		t.Errorf("unrelated reference was altered: %q", got)
	}
	if strings.Contains(got, "![fig1](fig1)") {
		t.Errorf("literal placeholder survived substitution: %q", got)
	}
}

func TestSynthesizeEmbedDisabledLeavesPlaceholders(t *testing.T) {
	result := &types.OCRResult{Pages: []types.Page{
		{Markdown: "![fig1](fig1)", Images: []types.PageImage{{ID: "fig1", Base64: "QQ=="}}},
	}}

	got := Synthesize(result, false, &bytes.Buffer{})
	if got != "![fig1](fig1)" {
		t.Errorf("Synthesize() = %q, want untouched placeholder", got)
	}
}

func TestSynthesizeSkipsUnusableImageEntries(t *testing.T) {
	tests := []struct {
		name  string
		image types.PageImage
	}{
		{"missing id", types.PageImage{ID: "", Base64: "QQ=="}},
		{"missing payload", types.PageImage{ID: "fig1", Base64: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &types.OCRResult{Pages: []types.Page{
				{Index: 3, Markdown: "![fig1](fig1)", Images: []types.PageImage{tt.image}},
			}}

			var warn bytes.Buffer
			got := Synthesize(result, true, &warn)

			if got != "![fig1](fig1)" {
				t.Errorf("Synthesize() = %q, want untouched placeholder", got)
			}
			if !strings.Contains(warn.String(), "warning:") {
				t.Errorf("expected a warning, got %q", warn.String())
			}
		})
	}
}

func TestSynthesizeRepeatedPlaceholder(t *testing.T) {
	result := &types.OCRResult{Pages: []types.Page{
		{
			Markdown: "![img](img) then again ![img](img)",
			Images:   []types.PageImage{{ID: "img", Base64: "Zm9v"}},
		},
	}}

	got := Synthesize(result, true, &bytes.Buffer{})
	if strings.Count(got, "data:image/png;base64,Zm9v") != 2 {
		t.Errorf("expected both occurrences substituted: %q", got)
	}
}
