package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"econdata-collector/config"
	"econdata-collector/storage"
)

var flagHistoryLimit int

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent collection runs from the local run log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		runlog, err := storage.OpenRunLog(cfg.RunlogPath)
		if err != nil {
			return err
		}
		defer runlog.Close()

		entries, err := runlog.History(flagHistoryLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no runs recorded yet")
			return nil
		}

		for _, e := range entries {
			status := "ok"
			switch {
			case e.Error != "":
				status = "error"
			case e.Failed > 0:
				status = "partial"
			}
			fmt.Printf("%s  %-12s %-8s %3d/%3d targets  %5d record(s)  %8s  %s\n",
				e.CreatedAt.Format(time.RFC3339), e.DataSource, status,
				e.Succeeded, e.Attempted, e.Records,
				e.Elapsed.Truncate(time.Millisecond), e.RunID)
		}
		return nil
	},
}
