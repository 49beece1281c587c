package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deck-engine/internal/convert"
	"github.com/pdiddy/deck-engine/internal/errorlog"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert JSON card intermediates to pipe-delimited CSVs",
	Long: `Convert reads each JSON intermediate from the json directory, re-validates
its card records against the schema, and writes one pipe-delimited CSV per
document to the csv directory. Intermediates are left in place so they can
be re-converted; the full pipeline's cleanup removes them.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	if err := ensureDirs(cfg); err != nil {
		return err
	}
	elog := errorlog.New(cfg.Dirs.Error)

	// Per-file failures are reported in the summary line and errors.log;
	// they do not set a non-zero exit.
	_, err := convert.Run(cfg.Dirs, elog, os.Stdout)
	return err
}
