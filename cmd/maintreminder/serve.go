package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muaviaUsmani/maintreminder/internal/config"
	"github.com/muaviaUsmani/maintreminder/internal/evaluator"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
	"github.com/muaviaUsmani/maintreminder/internal/metrics"
	"github.com/muaviaUsmani/maintreminder/internal/scheduler"
)

var applyOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the trigger daemon, evaluating the log whenever a trigger fires",
	RunE:  serve,
}

func init() {
	serveCmd.Flags().BoolVar(&applyOnStart, "apply", true, "replace the stored triggers with the configured schedule before serving")
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, logger.LogSourceDaemon)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.Validate(); err != nil {
		return a.reporter.Report(ctx, err, true)
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return a.reporter.Report(ctx, err, true)
	}

	client, err := connectWithRetry(ctx, a.cfg.RedisURL, 5, a.log)
	if err != nil {
		a.log.Error("Failed to connect to Redis", "error", err)
		return err
	}
	defer client.Close()
	a.log.Info("Successfully connected to Redis")

	store, err := a.triggerStore(client)
	if err != nil {
		return err
	}

	if applyOnStart {
		days, err := a.cfg.Weekdays()
		if err != nil {
			return a.reporter.Report(ctx, err, true)
		}
		manager, err := scheduler.NewManager(store, evaluator.EntryPoint, a.log)
		if err != nil {
			return err
		}
		if _, err := manager.Apply(ctx, days, a.cfg.Schedule.Hours); err != nil {
			return a.reporter.Report(ctx, err, true)
		}
	}

	// Each fire reads the configuration again; the startup copy only
	// decides the schedule and the runner's timezone
	invoke := evaluator.ReloadingInvoker(func() (*config.Config, error) {
		return config.Load(cfgPath)
	}, evaluator.Deps{
		History: a.runHistory(client),
		Logger:  a.log,
	})
	runner, err := scheduler.NewRunner(store, evaluator.EntryPoint, invoke,
		scheduler.WithInterval(a.cfg.Runner.Interval),
		scheduler.WithLockTTL(a.cfg.Runner.LockTTL),
		scheduler.WithLocation(loc),
		scheduler.WithRunnerLogger(a.log))
	if err != nil {
		return err
	}

	runner.Start(ctx)

	m := metrics.GetMetrics()
	a.log.Info("Shutdown complete",
		"runs_started", m.RunsStarted,
		"runs_failed", m.RunsFailed,
		"items_due", m.ItemsDue,
		"items_overdue", m.ItemsOverdue,
		"uptime", m.Uptime.String())
	return nil
}
