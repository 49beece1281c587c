package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deck-engine/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recent pipeline runs from the run journal",
	Long: `Journal prints recent pipeline runs recorded in the SQLite run journal:
when each run started and finished, which backend and prompt it used, and
its outcome. The journal is a record of past runs, not pipeline state;
deleting it loses history but affects nothing else.`,
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().Int("limit", 10, "maximum number of runs to list")

	rootCmd.AddCommand(journalCmd)
}

func runJournal(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	limit, _ := cmd.Flags().GetInt("limit")

	if _, err := os.Stat(cfg.Journal.Path); err != nil {
		return fmt.Errorf("no journal at %s", cfg.Journal.Path)
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tFINISHED\tBACKEND\tPROMPT\tOUTCOME")
	for _, r := range runs {
		finished := "-"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), finished, r.Backend, r.Prompt, r.Outcome)
	}
	return w.Flush()
}
