package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deck-engine/internal/prompts"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List available extraction prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig(cmd)
		if v, _ := cmd.Flags().GetString("prompts-dir"); v != "" {
			cfg.Extraction.PromptsDir = v
		}

		names, err := prompts.List(cfg.Extraction.PromptsDir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Printf("No prompts found in %s\n", cfg.Extraction.PromptsDir)
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	promptsCmd.Flags().String("prompts-dir", "", "directory of prompt text files (default \"prompts\")")

	rootCmd.AddCommand(promptsCmd)
}
