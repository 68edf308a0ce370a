package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/okian/recomodel/internal/config"
	"github.com/okian/recomodel/internal/domain/lifecycle"
	"github.com/okian/recomodel/internal/domain/model"
	"github.com/okian/recomodel/pkg/logger"
	"github.com/okian/recomodel/pkg/metrics"
)

// Exit statuses.
const (
	ExitOK    = 0
	ExitUsage = 1
)

// Command outcomes recorded in metrics.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
	outcomeError    = "error"
	outcomeUsage    = "usage"
)

const retrainedMessage = "Model retrained with real interactions"

// Service is what the runner needs from the model lifecycle.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Initialize(ctx context.Context, t lifecycle.Targets) (lifecycle.Report, error)
	Retrain(ctx context.Context, t lifecycle.Targets) (lifecycle.Report, error)
	Recommend(ctx context.Context, actorID string, k int) ([]model.Recommendation, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// Factory builds a Service once configuration is resolved.
type Factory func(cfg *config.Config, log logger.Logger) Service

// Runner executes one invocation.
type Runner struct {
	factory Factory
	stdout  io.Writer
	stderr  io.Writer
	log     logger.Logger
	runID   string
}

// Option configures a Runner.
type Option func(*Runner)

// WithStdout sets where the JSON result goes.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.stdout = w
		}
	}
}

// WithStderr sets where usage text and diagnostics go.
func WithStderr(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.stderr = w
		}
	}
}

// WithLogger uses l instead of initializing the global logger from config.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRunID tags every diagnostic line of this invocation.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// New creates a Runner that builds its Service with factory.
func New(factory Factory, opts ...Option) *Runner {
	r := &Runner{
		factory: factory,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type outcome struct {
	command string
	result  string
	code    int
	cfg     *config.Config
	log     logger.Logger
}

// Run executes args and returns the process exit status. Exactly one JSON
// document is written to stdout.
func (r *Runner) Run(ctx context.Context, args []string) int {
	out := r.run(ctx, args)

	metrics.RecordCommand(out.command, out.result)
	if out.cfg != nil && out.cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(out.cfg.MetricsTextfile); err != nil && out.log != nil {
			out.log.Warn(ctx, "writing metrics textfile failed", logger.Error(err))
		}
	}
	return out.code
}

func (r *Runner) run(ctx context.Context, args []string) outcome {
	inv, err := Parse(ctx, args)
	if err != nil {
		r.emit(errorResponse{Error: err.Error()})
		return outcome{command: "invalid", result: outcomeUsage, code: ExitUsage}
	}
	name := inv.Command.Name()

	if _, ok := inv.Command.(Help); ok {
		_, _ = io.WriteString(r.stderr, Usage)
		r.emit(helpResponse{Success: true, Commands: Commands})
		return outcome{command: name, result: outcomeOK, code: ExitOK}
	}

	cfg, err := config.Load(ctx, inv.Overrides)
	if err != nil {
		r.emit(failureResponse{Error: fmt.Sprintf("Configuration error: %v", err)})
		return outcome{command: name, result: outcomeUsage, code: ExitUsage}
	}

	log := r.diagnostics(cfg).With(logger.String("command", name))
	if r.runID != "" {
		log = log.With(logger.String("run_id", r.runID))
	}
	out := outcome{command: name, cfg: cfg, log: log}

	svc := r.factory(cfg, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "starting service failed", logger.Error(err))
		r.emit(failureResponse{Error: fmt.Sprintf("Startup error: %v", err)})
		out.result, out.code = outcomeUsage, ExitUsage
		return out
	}
	defer svc.Stop(ctx)

	out.result, out.code = r.dispatch(ctx, cfg, svc, inv)
	return out
}

func (r *Runner) dispatch(ctx context.Context, cfg *config.Config, svc Service, inv Invocation) (string, int) {
	if _, ok := inv.Command.(Retrain); ok {
		report, err := svc.Retrain(ctx, inv.Targets)
		if err != nil {
			return r.lifecycleFailure(report, err, "Error retraining")
		}
		r.emit(retrainResponse{
			Success:          true,
			Message:          retrainedMessage,
			InteractionCount: report.InteractionCount,
			Stats:            report.Stats,
		})
		return outcomeOK, ExitOK
	}

	report, err := svc.Initialize(ctx, inv.Targets)
	if err != nil {
		return r.lifecycleFailure(report, err, "Initialization error")
	}

	switch cmd := inv.Command.(type) {
	case Initialize:
		r.emit(initializeResponse{
			Success:          true,
			InteractionCount: report.InteractionCount,
			Reused:           report.Decision == lifecycle.DecisionReuse,
			Stats:            report.Stats,
		})
	case Recommend:
		k := cmd.K
		if k == 0 {
			k = cfg.DefaultK
		}
		k = min(k, cfg.MaxK)
		recs, err := svc.Recommend(ctx, cmd.ActorID, k)
		if err != nil {
			r.emit(errorResponse{Error: err.Error()})
			return outcomeError, ExitUsage
		}
		r.emit(recommendResponse{Success: true, UserID: cmd.ActorID, Recommendations: recs})
	case Stats:
		st, err := svc.Stats(ctx)
		if err != nil {
			r.emit(errorResponse{Error: err.Error()})
			return outcomeError, ExitUsage
		}
		r.emit(statsResponse{Success: true, Stats: st})
	}
	return outcomeOK, ExitOK
}

// lifecycleFailure renders a failed initialize or retrain. Both are
// recoverable for the caller and exit 0.
func (r *Runner) lifecycleFailure(report lifecycle.Report, err error, prefix string) (string, int) {
	var sig *lifecycle.InsufficientSignalError
	if errors.As(err, &sig) {
		count := sig.Count
		r.emit(failureResponse{Error: sig.Error(), InteractionCount: &count})
		return outcomeRejected, ExitOK
	}
	count := report.InteractionCount
	r.emit(failureResponse{Error: fmt.Sprintf("%s: %v", prefix, err), InteractionCount: &count})
	return outcomeFailed, ExitOK
}

func (r *Runner) emit(v any) {
	if err := render(r.stdout, v); err != nil {
		_, _ = fmt.Fprintf(r.stderr, "%v\n", err)
	}
}

// diagnostics returns the injected logger or initializes the global one on
// stderr from cfg.
func (r *Runner) diagnostics(cfg *config.Config) logger.Logger {
	if r.log != nil {
		return r.log
	}
	if err := logger.Init(logger.WithWriter(r.stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return logger.New(r.stderr, logger.FormatText, slog.LevelInfo)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	return logger.Get()
}
