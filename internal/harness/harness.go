// Package harness runs journeys. Each journey gets its own browser session;
// failures are captured with a screenshot, the page history and the
// interaction that broke, and every result goes to the reporting sink.
package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
	"github.com/xkilldash9x/sauce-e2e/internal/journeys"
	"github.com/xkilldash9x/sauce-e2e/internal/reporting"
)

const artifactTimeout = 10 * time.Second

// SessionFactory starts a browser session. *browser.Manager implements it.
type SessionFactory interface {
	NewSession(ctx context.Context) (*session.Session, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithJourneyTimeout bounds each journey. Zero means no bound beyond the
// caller's context.
func WithJourneyTimeout(d time.Duration) Option {
	return func(r *Runner) { r.journeyTimeout = d }
}

// Runner executes journeys against sessions from a factory.
type Runner struct {
	cfg      config.Interface
	sessions SessionFactory
	sink     reporting.Sink
	logger   *zap.Logger

	runID          string
	journeyTimeout time.Duration
}

func NewRunner(cfg config.Interface, sessions SessionFactory, sink reporting.Sink, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		sessions: sessions,
		sink:     sink,
		logger:   logger.Named("harness"),
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) RunID() string { return r.runID }

// Run executes one journey in a fresh session and records the result. The
// session is closed whatever the outcome.
func (r *Runner) Run(ctx context.Context, j journeys.Journey) reporting.Result {
	res := reporting.Result{
		ID:          uuid.NewString(),
		RunID:       r.runID,
		Journey:     j.Name,
		Description: j.Description,
		Browser:     r.cfg.Browser().Name,
		StartedAt:   time.Now(),
	}
	log := r.logger.With(zap.String("journey", j.Name), zap.String("run_id", r.runID))

	if err := ctx.Err(); err != nil {
		res.Status = reporting.StatusSkipped
		res.Message = fmt.Sprintf("not started: %v", err)
		r.record(ctx, log, res)
		return res
	}

	log.Info("Journey starting.", zap.String("description", j.Description))
	s, err := r.sessions.NewSession(ctx)
	if err != nil {
		res.Status = reporting.StatusError
		res.Message = err.Error()
		res.Duration = time.Since(res.StartedAt)
		log.Error("Could not start a browser session.", zap.Error(err))
		r.record(ctx, log, res)
		return res
	}
	res.SessionID = s.ID()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), artifactTimeout)
		defer cancel()
		if err := s.Close(closeCtx); err != nil {
			log.Warn("Session did not close cleanly.", zap.Error(err))
		}
	}()

	jctx := ctx
	if r.journeyTimeout > 0 {
		var cancel context.CancelFunc
		jctx, cancel = context.WithTimeout(ctx, r.journeyTimeout)
		defer cancel()
	}

	err = r.execute(jctx, j, &journeys.Env{
		Session:     s,
		Credentials: r.cfg.Credentials(),
		Logger:      log,
	})
	res.Duration = time.Since(res.StartedAt)
	res.Steps = steps(s)
	classify(&res, err)

	if res.Failed() {
		r.captureFailure(ctx, s, &res, err)
		log.Error("Journey failed.",
			zap.String("status", string(res.Status)),
			zap.String("page", res.Page),
			zap.String("locator", res.Locator),
			zap.Error(err))
	} else {
		log.Info("Journey finished.", zap.String("status", string(res.Status)), zap.Duration("duration", res.Duration))
	}

	r.record(ctx, log, res)
	return res
}

// execute runs the journey body, turning a panic into an error so one bad
// journey cannot take the suite down.
func (r *Runner) execute(ctx context.Context, j journeys.Journey, env *journeys.Env) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("journey panicked: %v\n%s", p, debug.Stack())
		}
	}()
	return j.Run(ctx, env)
}

func classify(res *reporting.Result, err error) {
	var assertion *journeys.AssertionError
	switch {
	case err == nil:
		res.Status = reporting.StatusPassed
		return
	case errors.Is(err, journeys.ErrSkipped):
		res.Status = reporting.StatusSkipped
	case errors.As(err, &assertion):
		res.Status = reporting.StatusFailed
	default:
		res.Status = reporting.StatusError
	}
	res.Message = err.Error()
}

// captureFailure fills in where the journey broke. It uses a context that
// survives cancellation of the journey so a timeout still yields artifacts.
func (r *Runner) captureFailure(ctx context.Context, s *session.Session, res *reporting.Result, err error) {
	if de, ok := dom.AsError(err); ok {
		res.Page = de.Page
		res.Op = de.Op
		res.Locator = de.Locator.String()
	} else {
		res.Page = s.Current().String()
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), artifactTimeout)
	defer cancel()

	if url, err := s.CurrentURL(actx); err == nil {
		res.URL = url
	}
	if !r.cfg.Report().Screenshots {
		return
	}
	png, err := s.Screenshot(actx)
	if err != nil {
		r.logger.Warn("Failed to capture screenshot.", zap.String("journey", res.Journey), zap.Error(err))
		return
	}
	res.ScreenshotPNG = png
}

func steps(s *session.Session) []reporting.Step {
	history := s.History()
	if len(history) == 0 {
		return nil
	}
	out := make([]reporting.Step, len(history))
	for i, h := range history {
		out[i] = reporting.Step{
			From:     h.From.String(),
			Action:   string(h.Action),
			To:       h.To.String(),
			Rejected: h.Rejected,
			Message:  h.Message,
			At:       h.At,
		}
	}
	return out
}

func (r *Runner) record(ctx context.Context, log *zap.Logger, res reporting.Result) {
	if err := r.sink.Record(context.WithoutCancel(ctx), res); err != nil {
		log.Error("Failed to record result.", zap.Error(err))
	}
}

// Summary tallies a suite run.
type Summary struct {
	RunID   string
	Results []reporting.Result
	Passed  int
	Failed  int
	Errored int
	Skipped int
	Elapsed time.Duration
}

// OK reports whether no journey failed or errored.
func (s Summary) OK() bool { return s.Failed == 0 && s.Errored == 0 }

func (s *Summary) add(res reporting.Result) {
	switch res.Status {
	case reporting.StatusPassed:
		s.Passed++
	case reporting.StatusFailed:
		s.Failed++
	case reporting.StatusError:
		s.Errored++
	case reporting.StatusSkipped:
		s.Skipped++
	}
}

// RunAll runs the journeys with at most concurrency of them in flight, each
// in its own session. Results keep the order of js. A failing journey does
// not stop the others; cancelling ctx skips the ones not yet started.
func (r *Runner) RunAll(ctx context.Context, js []journeys.Journey, concurrency int) Summary {
	if concurrency <= 0 {
		concurrency = 1
	}
	start := time.Now()
	results := make([]reporting.Result, len(js))

	r.logger.Info("Starting suite.",
		zap.String("run_id", r.runID),
		zap.Int("journeys", len(js)),
		zap.Int("concurrency", concurrency))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, j := range js {
		g.Go(func() error {
			results[i] = r.Run(ctx, j)
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{RunID: r.runID, Results: results, Elapsed: time.Since(start)}
	for _, res := range results {
		sum.add(res)
	}
	r.logger.Info("Suite finished.",
		zap.Int("passed", sum.Passed),
		zap.Int("failed", sum.Failed),
		zap.Int("errored", sum.Errored),
		zap.Int("skipped", sum.Skipped),
		zap.Duration("elapsed", sum.Elapsed))
	return sum
}
