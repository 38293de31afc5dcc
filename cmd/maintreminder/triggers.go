package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/muaviaUsmani/maintreminder/internal/evaluator"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
)

var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "List stored triggers and their last run",
	RunE:  listTriggers,
}

func init() {
	rootCmd.AddCommand(triggersCmd)
}

func listTriggers(cmd *cobra.Command, args []string) error {
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

	store, err := a.triggerStore(client)
	if err != nil {
		return err
	}
	triggers, err := store.List(ctx, evaluator.EntryPoint)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDAY\tHOUR\tLAST RUN\tRUNS\tLAST ERROR")
	for _, t := range triggers {
		state, err := store.State(ctx, t.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%02d:00\t%s\t%d\t%s\n",
			t.ID, t.Weekday, t.Hour, formatTime(state.LastRun), state.RunCount, state.LastError)
	}
	return w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
