package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/muaviaUsmani/maintreminder/internal/logger"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent evaluation runs recorded by the daemon",
	RunE:  showHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func showHistory(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, logger.LogSourceCLI)
	if err != nil {
		return err
	}
	defer a.close()

	client, err := connectWithRetry(ctx, a.cfg.RedisURL, 1, a.log)
	if err != nil {
		return err
	}
	defer client.Close()

	runs, err := a.runHistory(client).Recent(ctx, historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tRUN\tTRIGGER\tSTATE\tDUE\tOVERDUE\tDURATION\tERROR")
	for _, r := range runs {
		trigger := r.TriggerID
		if trigger == "" {
			trigger = "manual"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			formatTime(r.StartedAt), r.RunID, trigger, r.State, r.Due, r.Overdue, r.Duration, r.Error)
	}
	return w.Flush()
}
