package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/muaviaUsmani/maintreminder/internal/config"
	"github.com/muaviaUsmani/maintreminder/internal/evaluator"
	"github.com/muaviaUsmani/maintreminder/internal/history"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
	"github.com/muaviaUsmani/maintreminder/internal/notify"
	"github.com/muaviaUsmani/maintreminder/internal/reporter"
	"github.com/muaviaUsmani/maintreminder/internal/scheduler"
	"github.com/muaviaUsmani/maintreminder/internal/serialization"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "maintreminder",
	Short:         "Maintenance log reminder service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML)")
}

// app holds what every command needs
type app struct {
	cfg       *config.Config
	log       logger.Logger
	transport notify.Transport
	reporter  *reporter.Reporter
}

// bootstrap loads configuration and builds the logger, transport and
// reporter. A load failure is reported through whatever could be built.
func bootstrap(ctx context.Context, source logger.LogSource) (*app, error) {
	cfg, loadErr := config.Load(cfgPath)

	logCfg := cfg.Logging
	if logCfg == nil || logCfg.Validate() != nil {
		logCfg = logger.DefaultConfig()
	}
	ml, err := logger.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, err
	}
	logger.SetDefault(ml)
	log := ml.WithSource(source)

	a := &app{cfg: cfg, log: log}

	// Build the transport even from a partial config so load failures can
	// still be reported
	a.transport, err = evaluator.BuildTransport(ctx, cfg, log)
	if err != nil && loadErr == nil {
		loadErr = err
	}
	a.reporter = reporter.New(cfg, a.transport, log)

	if loadErr != nil {
		err := a.reporter.Report(ctx, loadErr, true)
		ml.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if err := a.log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
	}
}

// connectWithRetry opens the Redis client, retrying the first ping with
// exponential backoff
func connectWithRetry(ctx context.Context, redisURL string, maxRetries int, log logger.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}

		// 2^attempt seconds, capped at 30s
		delay := time.Duration(1<<uint(attempt)) * time.Second
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}

		log.Warn("Failed to connect to Redis, retrying",
			"attempt", attempt+1,
			"max_attempts", maxRetries,
			"error", err,
			"retry_in", delay)

		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", maxRetries, err)
}

// triggerStore builds the Redis trigger store from configuration
func (a *app) triggerStore(client *redis.Client) (*scheduler.RedisStore, error) {
	format, err := serialization.ParseFormat(a.cfg.Runner.RecordFormat)
	if err != nil {
		return nil, err
	}
	return scheduler.NewRedisStore(client,
		scheduler.WithCodec(serialization.NewCodec(format)),
		scheduler.WithKeyPrefix(a.cfg.Runner.KeyPrefix),
		scheduler.WithLogger(a.log),
	), nil
}

// runHistory builds the Redis run history from configuration
func (a *app) runHistory(client *redis.Client) *history.RedisBackend {
	return history.NewRedisBackend(client, a.cfg.Runner.KeyPrefix,
		a.cfg.Runner.HistorySuccessTTL, a.cfg.Runner.HistoryFailureTTL)
}
