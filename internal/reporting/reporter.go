// Package reporting records journey results: a JSON-lines log, a JUnit XML
// document and screenshot artifacts for failures.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

const (
	JSONLinesFile  = "results.jsonl"
	JUnitFile      = "junit.xml"
	ScreenshotsDir = "screenshots"
	suiteName      = "sauce-e2e"
)

// Sink receives results. Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, r Result) error
	Close() error
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithSink adds a sink that receives every result after the built-in
// outputs. The reporter closes it.
func WithSink(s Sink) Option {
	return func(r *Reporter) { r.sinks = append(r.sinks, s) }
}

// WithClock overrides the time source used to name screenshots.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// Reporter fans a result out to the configured outputs. Record calls are
// serialized so screenshot names and file writes never interleave.
type Reporter struct {
	mu          sync.Mutex
	dir         string
	screenshots bool
	sinks       []Sink
	files       []io.Closer
	logger      *zap.Logger
	now         func() time.Time
	closed      bool
}

var _ Sink = (*Reporter)(nil)

// New creates the report directory and opens the outputs enabled in cfg.
func New(cfg config.ReportConfig, env Environment, logger *zap.Logger, opts ...Option) (*Reporter, error) {
	r := &Reporter{
		dir:         cfg.Dir,
		screenshots: cfg.Screenshots,
		logger:      logger.Named("reporter"),
		now:         time.Now,
	}

	if cfg.JSONL || cfg.JUnit || cfg.Screenshots {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create report directory %s: %w", cfg.Dir, err)
		}
	}
	if cfg.JSONL {
		f, err := r.create(JSONLinesFile)
		if err != nil {
			return nil, err
		}
		r.sinks = append(r.sinks, NewJSONLines(f))
	}
	if cfg.JUnit {
		f, err := r.create(JUnitFile)
		if err != nil {
			r.closeFiles()
			return nil, err
		}
		r.sinks = append(r.sinks, NewJUnit(f, suiteName, env))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Reporter) create(name string) (*os.File, error) {
	path := filepath.Join(r.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	r.files = append(r.files, f)
	return f, nil
}

// Record saves the screenshot, if any, and hands the result to every sink.
// A failing sink does not stop the others.
func (r *Reporter) Record(ctx context.Context, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("reporter is closed")
	}

	if len(res.ScreenshotPNG) > 0 && r.screenshots {
		path, err := r.saveScreenshot(res)
		if err != nil {
			r.logger.Error("Failed to save screenshot.", zap.String("journey", res.Journey), zap.Error(err))
		} else {
			res.Screenshot = path
			r.logger.Info("Screenshot saved.", zap.String("journey", res.Journey), zap.String("path", path))
		}
	}
	res.ScreenshotPNG = nil

	var errs []error
	for _, s := range r.sinks {
		if err := s.Record(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// ScreenshotName builds "<journey>_<timestamp>.png" with path separators and
// other unsafe characters replaced.
func ScreenshotName(journey string, at time.Time) string {
	return unsafeName.ReplaceAllString(journey, "_") + "_" + at.Format("20060102_150405.000") + ".png"
}

func (r *Reporter) saveScreenshot(res Result) (string, error) {
	dir := filepath.Join(r.dir, ScreenshotsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ScreenshotName(res.Journey, r.now()))
	if err := os.WriteFile(path, res.ScreenshotPNG, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Close flushes every sink, then closes the files the reporter opened.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.closeFiles(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Reporter) closeFiles() error {
	var errs []error
	for _, f := range r.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.files = nil
	return errors.Join(errs...)
}

// Discard is a sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, Result) error { return nil }
func (discard) Close() error                         { return nil }
