package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muaviaUsmani/maintreminder/internal/evaluator"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
	"github.com/muaviaUsmani/maintreminder/internal/scheduler"
)

var disableSchedule bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Replace the stored triggers with the configured days and hours",
	RunE:  replaceSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&disableSchedule, "disable", false, "remove every trigger instead of applying the schedule")
	rootCmd.AddCommand(scheduleCmd)
}

func replaceSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, logger.LogSourceCLI)
	if err != nil {
		return err
	}
	defer a.close()

	return a.reporter.Guard(ctx, true, func(ctx context.Context) error {
		triggers, err := a.applySchedule(ctx)
		if err != nil {
			return err
		}
		for _, t := range triggers {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%02d:00\n", t.ID, t.Weekday, t.Hour)
		}
		return nil
	})
}

// applySchedule validates the configuration and replaces the triggers
func (a *app) applySchedule(ctx context.Context) ([]scheduler.Trigger, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	var days []time.Weekday
	hours := a.cfg.Schedule.Hours
	if !disableSchedule {
		var err error
		if days, err = a.cfg.Weekdays(); err != nil {
			return nil, err
		}
	}

	client, err := connectWithRetry(ctx, a.cfg.RedisURL, 5, a.log)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	store, err := a.triggerStore(client)
	if err != nil {
		return nil, err
	}
	manager, err := scheduler.NewManager(store, evaluator.EntryPoint, a.log)
	if err != nil {
		return nil, err
	}
	return manager.Apply(ctx, days, hours)
}
