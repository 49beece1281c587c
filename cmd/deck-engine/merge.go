package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deck-engine/internal/deck"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [output-name]",
	Short: "Merge per-document CSVs into one master deck",
	Long: `Merge concatenates the per-document CSVs in the csv directory into one
deck, ordered by modification time. Existing master decks matching the
target name are excluded from the inputs, and the output goes to the first
unused of name.csv, name_2.csv, name_3.csv so nothing is overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	if err := ensureDirs(cfg); err != nil {
		return err
	}

	output := cfg.Merge.Output
	if len(args) > 0 {
		output = args[0]
	}

	result, err := deck.Merge(cfg.Dirs.CSV, output, os.Stdout)
	if err != nil {
		return err
	}
	if result.Merged > 0 {
		fmt.Printf("Merged %d deck(s) into %s\n", result.Merged, result.OutputPath)
	}
	return nil
}
