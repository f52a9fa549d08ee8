package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ocr-engine/internal/batch"
	"github.com/pdiddy/ocr-engine/internal/ledger"
	"github.com/pdiddy/ocr-engine/internal/mistral"
	"github.com/pdiddy/ocr-engine/internal/pipeline"
	"github.com/pdiddy/ocr-engine/internal/secrets"
	"github.com/pdiddy/ocr-engine/pkg/types"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultUserAgent = "ocr-engine/0.1"
	defaultSecrets   = ".secrets/"
)

// ledgerFile is the run-history database path relative to the scanned directory.
const ledgerFile = ".ocr-engine/history.db"

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Convert all PDFs and images in a directory to Markdown",
	Long: `Run scans a directory (default: the current one) for supported files
(.pdf, .png, .jpg, .jpeg, .webp), sends each through Mistral OCR, and
writes one .md file per input. Inputs whose .md output already exists are
skipped without any network call. The exit status is non-zero when any
file fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	runCmd.Flags().Bool("include-images", false, "embed base64 images from PDF pages into the Markdown")
	runCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 120s)")
	runCmd.Flags().String("model", "", "OCR model identifier (default "+mistral.DefaultModel+")")
	runCmd.Flags().Bool("no-ledger", false, "do not record this run in the history database")
	runCmd.Flags().Bool("no-metadata", false, "do not write YAML conversion records")

	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	apiKey, err := secrets.APIKey(defaultSecrets)
	if err != nil {
		return err
	}

	cfg := batchConfig(cmd)
	client, err := mistral.New(apiKey, cfg.OCRConfig)
	if err != nil {
		return fmt.Errorf("initializing Mistral client: %w", err)
	}

	proc := pipeline.New(client, cfg.IncludeImages, os.Stdout)
	orch := batch.New(proc, cfg, os.Stdout)

	if noLedger, _ := cmd.Flags().GetBool("no-ledger"); !noLedger {
		store, err := ledger.Open(filepath.Join(dir, ledgerFile))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: run history disabled: %v\n", err)
		} else {
			defer store.Close()
			orch.AttachLedger(store)
		}
	}

	summary, err := orch.Run(cmd.Context(), dir)
	if err != nil {
		return err
	}
	if summary.HasErrors() {
		return fmt.Errorf("%d file(s) failed conversion", summary.Errors)
	}
	return nil
}

// batchConfig assembles the run configuration from flags, falling back to
// viper (config file and OCR_ENGINE_* environment) for unset flags.
func batchConfig(cmd *cobra.Command) types.BatchConfig {
	includeImages, _ := cmd.Flags().GetBool("include-images")
	if !cmd.Flags().Changed("include-images") {
		includeImages = viper.GetBool("include_images")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("model")
	}
	if model == "" {
		model = mistral.DefaultModel
	}
	noMetadata, _ := cmd.Flags().GetBool("no-metadata")

	cfg := types.BatchConfig{
		OCRConfig: types.OCRConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: defaultUserAgent,
			},
			Model:         model,
			IncludeImages: includeImages,
		},
		Extensions:    types.DefaultExtensions,
		WriteMetadata: !noMetadata,
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, rerr := filepath.EvalSymlinks(exe); rerr == nil {
			cfg.SelfPath = resolved
		} else {
			cfg.SelfPath = exe
		}
	}
	return cfg
}
