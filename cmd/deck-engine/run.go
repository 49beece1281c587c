package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deck-engine/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: sanitize, extract, convert, merge",
	Long: `Run processes every PDF in the raw intake directory end to end: sanitize
file names (and compress oversized PDFs), extract flashcards with the chosen
backend, convert the JSON intermediates to CSV decks, and optionally merge
them into one master deck.

Documents that fail a stage are moved to the error directory and logged;
the run continues with the remaining documents. Ctrl-C stops the run at the
next document boundary.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringP("backend", "b", "", "extraction backend: claude or gemini (default gemini)")
	runCmd.Flags().StringP("prompt", "p", pipeline.DefaultPrompt, "prompt name from the prompts directory")
	runCmd.Flags().StringP("tag", "t", "", "prefix for the per-document tag appended to each card")
	runCmd.Flags().StringP("merge", "m", "", "merge per-document CSVs into one deck with this base name")
	runCmd.Flags().Lookup("merge").NoOptDefVal = "_MASTERDECK"
	runCmd.Flags().String("model", "", "model identifier (default per backend)")
	runCmd.Flags().Bool("skip-sanitize", false, "start at the extract stage; raw intake is left untouched")
	runCmd.Flags().Bool("no-cleanup", false, "keep JSON intermediates and merged-away CSVs")
	runCmd.Flags().String("prompts-dir", "", "directory of prompt text files (default \"prompts\")")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	resolveBackend(cmd, &cfg)
	if v, _ := cmd.Flags().GetString("prompts-dir"); v != "" {
		cfg.Extraction.PromptsDir = v
	}

	prompt, _ := cmd.Flags().GetString("prompt")
	tag, _ := cmd.Flags().GetString("tag")
	skipSanitize, _ := cmd.Flags().GetBool("skip-sanitize")
	noCleanup, _ := cmd.Flags().GetBool("no-cleanup")

	opts := pipeline.Options{
		PromptName:   prompt,
		TagPrefix:    tag,
		SkipSanitize: skipSanitize,
		Cleanup:      !noCleanup,
	}
	if cmd.Flags().Changed("merge") {
		target, _ := cmd.Flags().GetString("merge")
		opts.MergeOutput = &target
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The run completes with a summary even when documents failed; only an
	// interrupt or a stage-level failure sets a non-zero exit.
	_, err := pipeline.Run(ctx, cfg, opts, os.Stdout)
	return err
}
