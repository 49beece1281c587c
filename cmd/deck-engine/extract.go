package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deck-engine/internal/backend"
	"github.com/pdiddy/deck-engine/internal/errorlog"
	"github.com/pdiddy/deck-engine/internal/extract"
	"github.com/pdiddy/deck-engine/internal/fsutil"
	"github.com/pdiddy/deck-engine/internal/pdfpage"
	"github.com/pdiddy/deck-engine/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract flashcards from sanitized slide PDFs",
	Long: `Extract sends each PDF in the slides directory to the generation backend
with the named prompt and writes the validated card list as a JSON
intermediate. Extracted slides move to slides/DONE; failed ones move to the
error directory with an error-log entry.

The claude backend embeds the PDF in the request and splits oversized
documents into page segments; the gemini backend uploads the whole file
first and references it in a separate generation call.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringP("backend", "b", "", "extraction backend: claude or gemini (default gemini)")
	extractCmd.Flags().StringP("prompt", "p", pipeline.DefaultPrompt, "prompt name from the prompts directory")
	extractCmd.Flags().StringP("tag", "t", "", "prefix for the per-document tag appended to each card")
	extractCmd.Flags().String("model", "", "model identifier (default per backend)")
	extractCmd.Flags().String("prompts-dir", "", "directory of prompt text files (default \"prompts\")")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	resolveBackend(cmd, &cfg)
	if v, _ := cmd.Flags().GetString("prompts-dir"); v != "" {
		cfg.Extraction.PromptsDir = v
	}
	prompt, _ := cmd.Flags().GetString("prompt")
	tag, _ := cmd.Flags().GetString("tag")

	if err := ensureDirs(cfg); err != nil {
		return err
	}

	b, err := backend.New(cfg.Extraction, pdfpage.PDFCPUReader{}, os.Stdout)
	if err != nil {
		return err
	}
	elog := errorlog.New(cfg.Dirs.Error)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Per-document failures are reported in the summary line; only a
	// stage-level failure (bad prompt, unreadable queue) sets a non-zero exit.
	_, failed, err := extract.Run(ctx, b, prompt, cfg.Extraction, cfg.Dirs, tag, elog, os.Stdout)
	if err != nil {
		return err
	}

	// Same routing the full pipeline performs after its extract stage.
	failedSet := make(map[string]bool, len(failed))
	for _, name := range failed {
		failedSet[name] = true
	}
	names, err := fsutil.ListFiles(cfg.Dirs.Slides, ".pdf")
	if err != nil {
		return err
	}
	for _, name := range names {
		dst := cfg.Dirs.SlidesDone()
		if failedSet[name] {
			dst = cfg.Dirs.Error
		}
		if err := fsutil.Move(filepath.Join(cfg.Dirs.Slides, name), fsutil.UniquePath(dst, name)); err != nil {
			fmt.Fprintf(os.Stdout, "[extract] warning: %v\n", err)
		}
	}

	return nil
}
