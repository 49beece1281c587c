package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deck-engine/internal/compress"
	"github.com/pdiddy/deck-engine/internal/errorlog"
	"github.com/pdiddy/deck-engine/internal/sanitize"
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize",
	Short: "Sanitize raw intake PDFs into the slides directory",
	Long: `Sanitize copies PDFs from the raw intake directory to the slides directory
under filesystem-safe names: Turkish characters are transliterated, other
diacritics stripped, spaces and unsafe characters replaced. PDFs over the
size threshold are compressed with Ghostscript on the way through; a PDF
that exceeds the threshold and cannot be compressed goes to the error
directory instead.`,
	RunE: runSanitize,
}

func init() {
	sanitizeCmd.Flags().Int64("compress-threshold", 0, "compress PDFs larger than this many bytes (default 50 MiB)")

	rootCmd.AddCommand(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	if v, _ := cmd.Flags().GetInt64("compress-threshold"); v > 0 {
		cfg.Sanitize.CompressThresholdBytes = v
	}

	if err := ensureDirs(cfg); err != nil {
		return err
	}
	elog := errorlog.New(cfg.Dirs.Error)

	// Per-file failures are reported in the summary line and errors.log;
	// they do not set a non-zero exit.
	_, err := sanitize.Run(cfg.Dirs, cfg.Sanitize, compress.NewGhostscript(), elog, os.Stdout)
	return err
}
