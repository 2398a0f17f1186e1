package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"exoml-server/core/repository"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear the prediction history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the most recent predictions",
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored prediction",
	RunE:  runHistoryClear,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", repository.DefaultHistoryLimit, "number of predictions to show")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func openHistory() (*repository.DB, *repository.PredictionRepository, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db, repository.NewPredictionRepository(db), nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	db, repo, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repo.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tMODEL\tDATASET\tPROBABILITY\tLABEL")
	for _, rec := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.4f\t%s\n",
			rec.ID,
			rec.CreatedAt.Local().Format(time.DateTime),
			rec.Model,
			rec.Dataset,
			rec.Probability,
			rec.Label)
	}
	return tw.Flush()
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	db, repo, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	deleted, err := repo.ClearAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d predictions\n", deleted)
	return nil
}
