// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch discovers candidate files in a directory and drives the
// per-file OCR pipeline over them, writing one Markdown file per input.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/ocr-engine/internal/markdown"
	"github.com/pdiddy/ocr-engine/pkg/types"
)

// Pipeline converts one source file through the OCR service.
// *pipeline.Processor implements it; tests supply a fake.
type Pipeline interface {
	ProcessFile(ctx context.Context, file types.SourceFile) (*types.OCRResult, error)
}

// Ledger records run history. Attachment is optional and every call is
// best-effort from the orchestrator's point of view.
type Ledger interface {
	BeginRun(ctx context.Context, startedAt time.Time) (int64, error)
	RecordFile(ctx context.Context, runID int64, name string, outcome types.Outcome, detail string) error
	FinishRun(ctx context.Context, runID int64, summary types.RunSummary) error
}

// Orchestrator runs one batch over a directory: discovery, skip rules,
// pipeline dispatch, Markdown synthesis, and output writes, fully
// sequential in enumeration order.
type Orchestrator struct {
	pipeline Pipeline
	cfg      types.BatchConfig
	ledger   Ledger
	out      io.Writer
}

// New creates an Orchestrator. Per-file status lines and the final summary
// go to out.
func New(p Pipeline, cfg types.BatchConfig, out io.Writer) *Orchestrator {
	return &Orchestrator{pipeline: p, cfg: cfg, out: out}
}

// AttachLedger enables run-history recording.
func (o *Orchestrator) AttachLedger(l Ledger) {
	o.ledger = l
}

// Run processes every candidate file in dir. A directory that cannot be
// listed is the only error; per-file failures are counted in the summary
// and the loop continues. An empty candidate set is reported and returns a
// zero summary.
func (o *Orchestrator) Run(ctx context.Context, dir string) (types.RunSummary, error) {
	files, err := Discover(dir, o.cfg.Extensions)
	if err != nil {
		return types.RunSummary{}, err
	}
	if len(files) == 0 {
		fmt.Fprintf(o.out, "no supported files found in %s\n", dir)
		return types.RunSummary{}, nil
	}

	var runID int64
	if o.ledger != nil {
		runID, err = o.ledger.BeginRun(ctx, time.Now().UTC())
		if err != nil {
			fmt.Fprintf(o.out, "warning: run ledger unavailable: %v\n", err)
			o.ledger = nil
		}
	}

	var summary types.RunSummary
	for _, f := range files {
		outcome, detail := o.processOne(ctx, f)
		switch outcome {
		case types.OutcomeProcessed:
			summary.Processed++
		case types.OutcomeSkipped:
			summary.Skipped++
		case types.OutcomeFailed:
			summary.Errors++
		}
		if o.ledger != nil {
			if err := o.ledger.RecordFile(ctx, runID, filepath.Base(f.Path), outcome, detail); err != nil {
				fmt.Fprintf(o.out, "warning: recording outcome for %s: %v\n", filepath.Base(f.Path), err)
			}
		}
	}

	fmt.Fprintf(o.out, "\nBatch summary: %d processed, %d skipped, %d failed (total: %d)\n",
		summary.Processed, summary.Skipped, summary.Errors, summary.Total())

	if o.ledger != nil {
		if err := o.ledger.FinishRun(ctx, runID, summary); err != nil {
			fmt.Fprintf(o.out, "warning: closing run ledger entry: %v\n", err)
		}
	}
	return summary, nil
}

// processOne takes a single candidate through the skip checks, the
// pipeline, and the output write. Skipped files never reach the network.
// The returned detail explains skips and failures for the ledger.
func (o *Orchestrator) processOne(ctx context.Context, f types.SourceFile) (types.Outcome, string) {
	name := filepath.Base(f.Path)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	outPath := filepath.Join(filepath.Dir(f.Path), base+".md")

	if _, err := os.Stat(outPath); err == nil {
		fmt.Fprintf(o.out, "skipped: %s (output exists)\n", name)
		return types.OutcomeSkipped, "output exists"
	}
	if o.cfg.SelfPath != "" && samePath(f.Path, o.cfg.SelfPath) {
		fmt.Fprintf(o.out, "skipped: %s (own executable)\n", name)
		return types.OutcomeSkipped, "own executable"
	}

	fmt.Fprintf(o.out, "processing: %s\n", name)

	result, err := o.pipeline.ProcessFile(ctx, f)
	if err != nil {
		fmt.Fprintf(o.out, "failed:  %s (%v)\n", name, err)
		return types.OutcomeFailed, err.Error()
	}

	embed := f.Kind == types.FilePDF && o.cfg.IncludeImages
	content := markdown.Synthesize(result, embed, o.out)

	if err := writeIfAbsent(outPath, content); err != nil {
		werr := types.NewFileError(outPath, types.ErrWrite, err)
		fmt.Fprintf(o.out, "failed:  %s (%v)\n", name, werr)
		return types.OutcomeFailed, werr.Error()
	}

	if o.cfg.WriteMetadata {
		if err := o.writeMetadata(f, result, embed, base); err != nil {
			fmt.Fprintf(o.out, "warning: metadata record for %s: %v\n", name, err)
		}
	}

	fmt.Fprintf(o.out, "converted: %s (%d pages)\n", name, len(result.Pages))
	return types.OutcomeProcessed, ""
}

// writeIfAbsent creates path with content only if no file exists there.
// O_EXCL makes the existence check and the write a single step.
func writeIfAbsent(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(content)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// samePath reports whether two paths resolve to the same file, following
// symlinks where possible.
func samePath(a, b string) bool {
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		ra = a
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		rb = b
	}
	aa, err := filepath.Abs(ra)
	if err != nil {
		aa = ra
	}
	ab, err := filepath.Abs(rb)
	if err != nil {
		ab = rb
	}
	return aa == ab
}
