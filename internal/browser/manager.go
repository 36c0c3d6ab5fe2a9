// Package browser launches browsers for journeys and tracks the sessions
// bound to them.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/cdp"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/pw"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

// ErrShutdown is returned by NewSession once Shutdown has started.
var ErrShutdown = errors.New("browser manager is shut down")

const closeGracePeriod = 10 * time.Second

// LaunchFunc starts one browser and returns a driver bound to it.
type LaunchFunc func(ctx context.Context, cfg config.BrowserConfig, navTimeout time.Duration) (dom.Driver, error)

// Option customizes a Manager.
type Option func(*Manager)

// WithLauncher replaces the engine routing, mainly for tests.
func WithLauncher(fn LaunchFunc) Option {
	return func(m *Manager) { m.launch = fn }
}

// WithPlaywrightInstall downloads missing Playwright browsers before the
// first non-Chrome launch.
func WithPlaywrightInstall(install bool) Option {
	return func(m *Manager) { m.installPW = install }
}

// Manager creates one browser session per journey and keeps track of the
// live ones so Shutdown can wait for them.
type Manager struct {
	cfg    config.Interface
	logger *zap.Logger
	launch LaunchFunc

	installPW  bool
	pwOnce     sync.Once
	playwright *pw.Launcher

	sessions     map[string]*session.Session
	mu           sync.RWMutex
	wg           sync.WaitGroup
	shuttingDown bool
}

// NewManager creates a manager. No browser is started until NewSession.
func NewManager(cfg config.Interface, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*session.Session),
	}
	m.launch = m.launchDriver
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// launchDriver routes Chrome to the CDP driver and every other engine to
// Playwright.
func (m *Manager) launchDriver(ctx context.Context, cfg config.BrowserConfig, navTimeout time.Duration) (dom.Driver, error) {
	switch cfg.Name {
	case config.BrowserChrome:
		return cdp.Launch(ctx, cfg, navTimeout, m.logger)
	case config.BrowserFirefox, config.BrowserEdge, config.BrowserSafari:
		m.pwOnce.Do(func() {
			m.playwright = pw.NewLauncher(m.logger, m.installPW)
		})
		return m.playwright.Launch(ctx, cfg, navTimeout)
	default:
		return nil, fmt.Errorf("unsupported browser %q", cfg.Name)
	}
}

// NewSession launches a browser and wraps it in a session. The caller must
// Close the session.
func (m *Manager) NewSession(ctx context.Context) (*session.Session, error) {
	m.mu.Lock()
	if m.shuttingDown {
		m.mu.Unlock()
		return nil, ErrShutdown
	}
	// Registered before launching so Shutdown waits for in-flight launches.
	m.wg.Add(1)
	m.mu.Unlock()

	bcfg := m.cfg.Browser()
	timeouts := m.cfg.Timeouts()

	drv, err := m.launch(ctx, bcfg, timeouts.Navigation)
	if err != nil {
		m.wg.Done()
		return nil, fmt.Errorf("failed to launch %s: %w", bcfg.Name, err)
	}

	s := session.New(drv, m.logger, session.Options{
		BaseURL:           m.cfg.App().BaseURL,
		Browser:           bcfg.Name,
		NavigationTimeout: timeouts.Navigation,
		Interaction: dom.Options{
			Timeout:      timeouts.Element,
			PollInterval: timeouts.PollInterval,
			Settle:       timeouts.Settle,
		},
	})
	s.SetOnClose(func() {
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", s.ID()))
	})

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("New session created.", zap.String("session_id", s.ID()), zap.String("browser", bcfg.Name))
	return s, nil
}

// Active returns the number of open sessions.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every open session, waits for them within ctx, and stops
// the Playwright driver if one was started.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	m.mu.Lock()
	m.shuttingDown = true
	open := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		go func(s *session.Session) {
			closeCtx, cancel := context.WithTimeout(context.Background(), closeGracePeriod)
			defer cancel()
			if err := s.Close(closeCtx); err != nil {
				m.logger.Warn("Error during session close in shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		m.logger.Info("All sessions closed gracefully.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close.", zap.Error(ctx.Err()))
		shutdownErr = fmt.Errorf("waiting for sessions: %w", ctx.Err())
	}

	// Synchronizes with a launch that created the Playwright launcher.
	m.pwOnce.Do(func() {})
	if m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			m.logger.Error("Failed to stop Playwright driver.", zap.Error(err))
			shutdownErr = errors.Join(shutdownErr, err)
		}
	}

	m.logger.Info("Browser manager shutdown complete.")
	return shutdownErr
}
