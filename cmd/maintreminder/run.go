package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muaviaUsmani/maintreminder/internal/evaluator"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
)

var recordRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate the maintenance log now and send a reminder if anything is due",
	RunE:  runEvaluation,
}

func init() {
	runCmd.Flags().BoolVar(&recordRun, "record", false, "store the run in the Redis run history")
	rootCmd.AddCommand(runCmd)
}

func runEvaluation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, logger.LogSourceRun)
	if err != nil {
		return err
	}
	defer a.close()

	deps := evaluator.Deps{
		Transport: a.transport,
		Logger:    a.log,
	}
	if recordRun {
		client, err := connectWithRetry(ctx, a.cfg.RedisURL, 1, a.log)
		if err != nil {
			return a.reporter.Report(ctx, err, true)
		}
		defer client.Close()
		deps.History = a.runHistory(client)
	}

	res, err := evaluator.New(a.cfg, deps).Run(ctx)
	if err != nil {
		return err
	}

	a.log.Info("Evaluation finished", "run_id", res.RunID, "state", string(res.Final()))
	return nil
}
