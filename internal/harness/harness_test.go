package harness_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom/domtest"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
	"github.com/xkilldash9x/sauce-e2e/internal/harness"
	"github.com/xkilldash9x/sauce-e2e/internal/journeys"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/reporting"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLauncher struct {
	mu      sync.Mutex
	drivers []*domtest.Driver
	err     error
}

func (f *fakeLauncher) launch(context.Context, config.BrowserConfig, time.Duration) (dom.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d := domtest.NewDriver()
	d.SetURL("https://www.saucedemo.com/cart.html")
	f.drivers = append(f.drivers, d)
	return d, nil
}

func (f *fakeLauncher) launched() []*domtest.Driver {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domtest.Driver(nil), f.drivers...)
}

type memorySink struct {
	mu      sync.Mutex
	results []reporting.Result
}

func (s *memorySink) Record(_ context.Context, r reporting.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) all() []reporting.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reporting.Result(nil), s.results...)
}

type fixture struct {
	cfg      *config.Config
	launcher *fakeLauncher
	manager  *browser.Manager
	sink     *memorySink
	runner   *harness.Runner
}

func newFixture(t *testing.T, opts ...harness.Option) *fixture {
	t.Helper()
	f := &fixture{
		cfg:      config.NewDefaultConfig(),
		launcher: &fakeLauncher{},
		sink:     &memorySink{},
	}
	logger := zaptest.NewLogger(t)
	f.manager = browser.NewManager(f.cfg, logger, browser.WithLauncher(f.launcher.launch))
	t.Cleanup(func() { require.NoError(t, f.manager.Shutdown(context.Background())) })
	f.runner = harness.NewRunner(f.cfg, f.manager, f.sink, logger, append([]harness.Option{harness.WithRunID("run-1")}, opts...)...)
	return f
}

func journey(name string, run func(context.Context, *journeys.Env) error) journeys.Journey {
	return journeys.Journey{Name: name, Description: "test journey " + name, Run: run}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("passing journey", func(t *testing.T) {
		f := newFixture(t)
		var sessionID string
		res := f.runner.Run(ctx, journey("login/standard", func(_ context.Context, env *journeys.Env) error {
			sessionID = env.Session.ID()
			assert.Equal(t, "standard_user", env.Credentials.StandardUser)
			_, err := env.Session.Track(navigation.LoggedOut, navigation.Login)
			return err
		}))

		assert.Equal(t, reporting.StatusPassed, res.Status)
		assert.Equal(t, "run-1", res.RunID)
		assert.Equal(t, sessionID, res.SessionID)
		assert.Equal(t, "chrome", res.Browser)
		assert.Equal(t, "test journey login/standard", res.Description)
		assert.NotEmpty(t, res.ID)
		assert.Empty(t, res.Message)
		assert.Nil(t, res.ScreenshotPNG)
		require.Len(t, res.Steps, 1)
		assert.Equal(t, reporting.Step{From: "LoggedOut", Action: "login", To: "Inventory", At: res.Steps[0].At}, res.Steps[0])

		require.Len(t, f.launcher.launched(), 1)
		assert.True(t, f.launcher.launched()[0].Closed(), "session is closed after the journey")
		assert.Empty(t, f.manager.Active())
		require.Len(t, f.sink.all(), 1)
		assert.Equal(t, res.ID, f.sink.all()[0].ID)
	})

	t.Run("assertion failure captures artifacts", func(t *testing.T) {
		f := newFixture(t)
		res := f.runner.Run(ctx, journey("inventory/count", func(_ context.Context, env *journeys.Env) error {
			if _, err := env.Session.Track(navigation.LoggedOut, navigation.Login); err != nil {
				return err
			}
			return &journeys.AssertionError{Message: "inventory size: want 6, got 5"}
		}))

		assert.Equal(t, reporting.StatusFailed, res.Status)
		assert.Equal(t, "assertion failed: inventory size: want 6, got 5", res.Message)
		assert.Equal(t, "Inventory", res.Page)
		assert.Empty(t, res.Locator)
		assert.Equal(t, "https://www.saucedemo.com/cart.html", res.URL)
		assert.Equal(t, []byte("\x89PNG fake"), res.ScreenshotPNG)
	})

	t.Run("interaction error carries page and locator", func(t *testing.T) {
		f := newFixture(t)
		loc := dom.ID("checkout")
		res := f.runner.Run(ctx, journey("checkout/complete", func(context.Context, *journeys.Env) error {
			return errors.Join(errors.New("context"), &dom.Error{Kind: dom.ErrWaitTimeout, Page: "Cart", Op: "click", Locator: loc})
		}))

		assert.Equal(t, reporting.StatusError, res.Status)
		assert.Equal(t, "Cart", res.Page)
		assert.Equal(t, "click", res.Op)
		assert.Equal(t, loc.String(), res.Locator)
		assert.Contains(t, res.Message, "timed out waiting for element")
	})

	t.Run("skip", func(t *testing.T) {
		f := newFixture(t)
		res := f.runner.Run(ctx, journey("login/problem-user", func(context.Context, *journeys.Env) error {
			return journeys.Skip("no account")
		}))
		assert.Equal(t, reporting.StatusSkipped, res.Status)
		assert.Contains(t, res.Message, "no account")
		assert.Nil(t, res.ScreenshotPNG)
	})

	t.Run("panic becomes an error", func(t *testing.T) {
		f := newFixture(t)
		res := f.runner.Run(ctx, journey("e2e/scenario", func(context.Context, *journeys.Env) error {
			panic("element table corrupted")
		}))
		assert.Equal(t, reporting.StatusError, res.Status)
		assert.Contains(t, res.Message, "journey panicked")
		assert.True(t, f.launcher.launched()[0].Closed())
	})

	t.Run("browser launch failure", func(t *testing.T) {
		f := newFixture(t)
		f.launcher.err = errors.New("chrome not found")
		called := false
		res := f.runner.Run(ctx, journey("login/standard", func(context.Context, *journeys.Env) error {
			called = true
			return nil
		}))
		assert.False(t, called)
		assert.Equal(t, reporting.StatusError, res.Status)
		assert.Contains(t, res.Message, "chrome not found")
		assert.Empty(t, res.SessionID)
		assert.Len(t, f.sink.all(), 1)
	})

	t.Run("cancelled context skips without a browser", func(t *testing.T) {
		f := newFixture(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		res := f.runner.Run(cctx, journey("login/standard", func(context.Context, *journeys.Env) error { return nil }))
		assert.Equal(t, reporting.StatusSkipped, res.Status)
		assert.Contains(t, res.Message, "not started")
		assert.Empty(t, f.launcher.launched())
		assert.Len(t, f.sink.all(), 1)
	})

	t.Run("journey timeout still yields a screenshot", func(t *testing.T) {
		f := newFixture(t, harness.WithJourneyTimeout(20*time.Millisecond))
		res := f.runner.Run(ctx, journey("checkout/cancel", func(ctx context.Context, _ *journeys.Env) error {
			<-ctx.Done()
			return ctx.Err()
		}))
		assert.Equal(t, reporting.StatusError, res.Status)
		assert.Contains(t, res.Message, context.DeadlineExceeded.Error())
		assert.NotEmpty(t, res.ScreenshotPNG)
		assert.Equal(t, "LoggedOut", res.Page)
	})

	t.Run("screenshots disabled", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.ReportCfg.Screenshots = false
		res := f.runner.Run(ctx, journey("inventory/count", func(context.Context, *journeys.Env) error {
			return &journeys.AssertionError{Message: "nope"}
		}))
		assert.Equal(t, reporting.StatusFailed, res.Status)
		assert.Nil(t, res.ScreenshotPNG)
		assert.NotEmpty(t, res.URL)
	})
}

func TestRunAll(t *testing.T) {
	f := newFixture(t)
	var inFlight, peak atomic.Int32

	run := func(fail bool) func(context.Context, *journeys.Env) error {
		return func(context.Context, *journeys.Env) error {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			if fail {
				return &journeys.AssertionError{Message: "boom"}
			}
			return nil
		}
	}

	js := []journeys.Journey{
		journey("a/1", run(false)),
		journey("a/2", run(true)),
		journey("a/3", run(false)),
		journey("a/4", run(false)),
		journey("a/5", func(context.Context, *journeys.Env) error { return journeys.Skip("later") }),
		journey("a/6", run(false)),
	}
	sum := f.runner.RunAll(context.Background(), js, 2)

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, "run-1", sum.RunID)
	require.Len(t, sum.Results, len(js))
	for i, res := range sum.Results {
		assert.Equal(t, js[i].Name, res.Journey, "results keep journey order")
	}
	assert.Equal(t, 4, sum.Passed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 0, sum.Errored)
	assert.Equal(t, 1, sum.Skipped)
	assert.False(t, sum.OK())
	assert.Positive(t, sum.Elapsed)

	assert.Len(t, f.launcher.launched(), len(js))
	for _, d := range f.launcher.launched() {
		assert.True(t, d.Closed())
	}
	assert.Len(t, f.sink.all(), len(js))
}

func TestRunAllCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	js := []journeys.Journey{
		journey("a/1", func(context.Context, *journeys.Env) error {
			cancel()
			return nil
		}),
		journey("a/2", func(context.Context, *journeys.Env) error { return nil }),
		journey("a/3", func(context.Context, *journeys.Env) error { return nil }),
	}
	sum := f.runner.RunAll(ctx, js, 1)

	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 2, sum.Skipped)
	assert.True(t, sum.OK())
	assert.Len(t, f.launcher.launched(), 1)
}

func TestRunIDGenerated(t *testing.T) {
	cfg := config.NewDefaultConfig()
	logger := zaptest.NewLogger(t)
	a := harness.NewRunner(cfg, browser.NewManager(cfg, logger), reporting.Discard, logger)
	b := harness.NewRunner(cfg, browser.NewManager(cfg, logger), reporting.Discard, logger)
	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}
