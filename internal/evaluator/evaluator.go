// Package evaluator runs one reminder evaluation from configuration to
// sent notification.
package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/muaviaUsmani/maintreminder/internal/config"
	"github.com/muaviaUsmani/maintreminder/internal/datemath"
	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
	"github.com/muaviaUsmani/maintreminder/internal/history"
	"github.com/muaviaUsmani/maintreminder/internal/item"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
	"github.com/muaviaUsmani/maintreminder/internal/metrics"
	"github.com/muaviaUsmani/maintreminder/internal/notify"
	"github.com/muaviaUsmani/maintreminder/internal/reporter"
	"github.com/muaviaUsmani/maintreminder/internal/scanner"
	"github.com/muaviaUsmani/maintreminder/internal/scheduler"
	"github.com/muaviaUsmani/maintreminder/internal/source"
)

// EntryPoint names the evaluation entry point in the trigger store
const EntryPoint = "run-evaluation"

// State is a step of an evaluation run
type State string

const (
	StateStart         State = "start"
	StateConfigLoaded  State = "config_loaded"
	StateScanned       State = "scanned"
	StateComposed      State = "composed"
	StateSent          State = "sent"
	StateNothingToSend State = "nothing_to_send"
	StateIdle          State = "idle"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Result describes a finished run
type Result struct {
	RunID string
	// States lists every state the run passed through, in order
	States  []State
	Scan    *scanner.Result
	Message *notify.Message
}

// Final returns the terminal state
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return StateStart
	}
	return r.States[len(r.States)-1]
}

// Deps are the collaborators of an evaluator. Nil fields get defaults:
// the source is built from the config, the clock is real, metrics go to
// the global collector, runs are not recorded and logs are discarded.
type Deps struct {
	Source    source.Source
	Transport notify.Transport
	Clock     datemath.Clock
	Metrics   *metrics.Collector
	History   history.Backend
	Logger    logger.Logger
}

// Evaluator runs evaluations for one configuration
type Evaluator struct {
	cfg       *config.Config
	source    source.Source
	transport notify.Transport
	reporter  *reporter.Reporter
	clock     datemath.Clock
	metrics   *metrics.Collector
	history   history.Backend
	log       logger.Logger
}

// New creates an evaluator. cfg is validated on every run, not here.
func New(cfg *config.Config, deps Deps) *Evaluator {
	log := deps.Logger
	if log == nil {
		log = &logger.NoOpLogger{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = datemath.RealClock{}
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.Default()
	}

	return &Evaluator{
		cfg:       cfg,
		source:    deps.Source,
		transport: deps.Transport,
		reporter:  reporter.New(cfg, deps.Transport, log),
		clock:     clock,
		metrics:   m,
		history:   deps.History,
		log:       log.WithComponent(logger.ComponentEvaluator),
	}
}

// Run performs one evaluation. Any failure is routed through the reporter
// exactly once and returned; the result is always non-nil.
func (e *Evaluator) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.New().String()}
	ctx = logger.WithRunID(ctx, res.RunID)
	started := e.clock.Now()

	e.metrics.RecordRunStarted()
	e.enter(ctx, res, StateStart)

	err := e.reporter.Guard(ctx, true, func(ctx context.Context) error {
		return e.run(ctx, res)
	})
	duration := e.clock.Now().Sub(started)

	if err != nil {
		e.enter(ctx, res, StateFailed)
		kind, _ := apperrors.KindOf(err)
		e.metrics.RecordRunFailed(string(kind), duration)
		e.record(ctx, res, started, duration, err)
		return res, err
	}

	outcome := metrics.OutcomeSent
	if res.Message == nil {
		outcome = metrics.OutcomeNothingToSend
	}
	e.metrics.RecordRunCompleted(outcome, duration)
	e.enter(ctx, res, StateDone)
	e.record(ctx, res, started, duration, nil)

	return res, nil
}

// record stores the run summary. A history failure never fails the run.
func (e *Evaluator) record(ctx context.Context, res *Result, started time.Time, duration time.Duration, runErr error) {
	if e.history == nil {
		return
	}

	run := &history.Run{
		RunID:     res.RunID,
		TriggerID: logger.TriggerID(ctx),
		State:     string(res.Final()),
		StartedAt: started,
		Duration:  duration,
	}
	if res.Scan != nil {
		run.Due = len(res.Scan.Due)
		run.Overdue = len(res.Scan.Overdue)
	}
	if runErr != nil {
		run.Error = runErr.Error()
		kind, ok := apperrors.KindOf(runErr)
		if !ok {
			kind = "unknown"
		}
		run.ErrorKind = string(kind)
	}

	if err := e.history.Store(ctx, run); err != nil {
		e.log.WarnContext(ctx, "Failed to record run history", "error", err)
	}
}

// Invoker adapts Run for the trigger runner
func (e *Evaluator) Invoker() scheduler.Invoker {
	return func(ctx context.Context, t scheduler.Trigger) error {
		_, err := e.Run(ctx)
		return err
	}
}

// Loader returns the configuration for one invocation
type Loader func() (*config.Config, error)

// ReloadingInvoker loads the configuration afresh on every fire and runs a
// new evaluator on it. When deps.Transport is nil the transport is built
// from each loaded configuration. A load failure is reported and returned.
func ReloadingInvoker(load Loader, deps Deps) scheduler.Invoker {
	log := deps.Logger
	if log == nil {
		log = &logger.NoOpLogger{}
	}

	return func(ctx context.Context, t scheduler.Trigger) error {
		cfg, loadErr := load()
		if cfg == nil {
			cfg = config.DefaultConfig()
		}

		fire := deps
		if fire.Transport == nil {
			transport, err := BuildTransport(ctx, cfg, log)
			if err != nil && loadErr == nil {
				loadErr = err
			}
			fire.Transport = transport
		}

		if loadErr != nil {
			return reporter.New(cfg, fire.Transport, log).Report(ctx, loadErr, true)
		}

		_, err := New(cfg, fire).Run(ctx)
		return err
	}
}

func (e *Evaluator) run(ctx context.Context, res *Result) error {
	if e.cfg == nil {
		return apperrors.Configurationf("load config", "no configuration")
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	loc, err := e.cfg.Location()
	if err != nil {
		return apperrors.Configuration("load timezone", err)
	}
	e.enter(ctx, res, StateConfigLoaded)

	src := e.source
	if src == nil {
		src, err = BuildSource(ctx, e.cfg)
		if err != nil {
			return err
		}
	}

	table, err := src.Fetch(ctx)
	if err != nil {
		return err
	}
	e.log.DebugContext(ctx, "Sheet fetched", "source", src.Name(), "rows", len(table.Rows))

	scan, err := scanner.New(e.log).Scan(table.Header, table.Rows, scanner.Options{
		Columns: scanner.Columns{
			Task:     e.cfg.Columns.Task,
			DueDate:  e.cfg.Columns.DueDate,
			Archived: e.cfg.Columns.Archived,
		},
		Thresholds: item.Thresholds{
			DueDays:     e.cfg.Thresholds.DueDays,
			OverdueDays: e.cfg.Thresholds.OverdueDays,
		},
		EmptyRowLimit: e.cfg.Scan.EmptyRowLimit,
		Now:           e.clock.Now().In(loc),
		Location:      loc,
	})
	if err != nil {
		return err
	}
	res.Scan = scan
	e.metrics.RecordScan(len(scan.Due), len(scan.Overdue), scan.Archived, scan.Skipped)
	e.enter(ctx, res, StateScanned)

	msg, ok := NewComposer(e.cfg).Compose(scan.Due, scan.Overdue, e.cfg.Sheet.URL)
	if !ok {
		e.log.InfoContext(ctx, "Nothing due, no notification sent")
		e.enter(ctx, res, StateNothingToSend)
		e.enter(ctx, res, StateIdle)
		return nil
	}
	res.Message = msg
	e.enter(ctx, res, StateComposed)

	if e.transport == nil {
		return apperrors.Configurationf("send", "no notification transport configured")
	}
	if err := e.transport.Send(ctx, e.cfg.Recipient, msg.Subject, msg.Body); err != nil {
		if _, classified := apperrors.KindOf(err); !classified {
			err = apperrors.Transport("send", err)
		}
		return err
	}
	e.enter(ctx, res, StateSent)

	return nil
}

func (e *Evaluator) enter(ctx context.Context, res *Result, s State) {
	from := res.Final()
	res.States = append(res.States, s)
	if s == StateStart {
		e.log.DebugContext(ctx, "Evaluation started")
		return
	}
	e.log.InfoContext(ctx, fmt.Sprintf("Evaluation %s", s), "from", string(from))
}
