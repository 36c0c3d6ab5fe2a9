// internal/browser/pw/launcher.go
package pw

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

const (
	installTimeout  = 5 * time.Minute
	launchTimeoutMs = 60000
)

// Launcher owns the Playwright driver process. The driver is started on first
// use and shared; every Launch opens a fresh browser on top of it.
type Launcher struct {
	logger *zap.Logger
	// Install downloads missing browsers before the first launch.
	install bool

	initOnce sync.Once
	initErr  error
	pw       *playwright.Playwright
}

// NewLauncher creates a launcher. Initialization is deferred until the first Launch.
func NewLauncher(logger *zap.Logger, install bool) *Launcher {
	return &Launcher{logger: logger.Named("playwright"), install: install}
}

// engineFor maps a configured browser name to a Playwright engine and channel.
func engineFor(pw *playwright.Playwright, name string) (playwright.BrowserType, string, error) {
	switch name {
	case config.BrowserFirefox:
		return pw.Firefox, "", nil
	case config.BrowserSafari:
		return pw.WebKit, "", nil
	case config.BrowserEdge:
		return pw.Chromium, "msedge", nil
	case config.BrowserChrome:
		return pw.Chromium, "chrome", nil
	default:
		return nil, "", fmt.Errorf("unsupported browser %q", name)
	}
}

// installName is the Playwright download name for a configured browser.
func installName(name string) string {
	switch name {
	case config.BrowserFirefox:
		return "firefox"
	case config.BrowserSafari:
		return "webkit"
	default:
		return "chromium"
	}
}

func (l *Launcher) initialize(ctx context.Context, browser string) error {
	l.initOnce.Do(func() {
		l.logger.Info("Starting Playwright driver...")
		if l.install {
			if err := l.ensureInstallation(ctx, installName(browser)); err != nil {
				l.initErr = err
				return
			}
		}
		pw, err := playwright.Run()
		if err != nil {
			l.initErr = fmt.Errorf("failed to start playwright driver: %w", err)
			return
		}
		l.pw = pw
	})
	return l.initErr
}

func (l *Launcher) ensureInstallation(ctx context.Context, browser string) error {
	l.logger.Info("Verifying Playwright browser installation...", zap.String("browser", browser))
	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	// Install blocks with no context support.
	errCh := make(chan error, 1)
	go func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{browser}}); err != nil {
			errCh <- fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for Playwright installation: %w", installCtx.Err())
	}
}

func launchOptions(cfg config.BrowserConfig, channel string) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Timeout:  playwright.Float(launchTimeoutMs),
	}
	if channel != "" {
		opts.Channel = playwright.String(channel)
	}
	if cfg.ExecPath != "" {
		opts.ExecutablePath = playwright.String(cfg.ExecPath)
	}

	// Chromium-only flags; Firefox and WebKit reject them.
	if cfg.Name == config.BrowserChrome || cfg.Name == config.BrowserEdge {
		opts.Args = append([]string{
			"--disable-gpu",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		}, cfg.Args...)
	} else {
		opts.Args = cfg.Args
	}
	return opts
}

// Launch starts a new browser and opens one page in a fresh context.
func (l *Launcher) Launch(ctx context.Context, cfg config.BrowserConfig, navTimeout time.Duration) (*Driver, error) {
	if err := l.initialize(ctx, cfg.Name); err != nil {
		return nil, err
	}
	engine, channel, err := engineFor(l.pw, cfg.Name)
	if err != nil {
		return nil, err
	}

	browser, err := engine.Launch(launchOptions(cfg, channel))
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", cfg.Name, err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: cfg.WindowWidth, Height: cfg.WindowHeight}
	}
	bctx, err := browser.NewContext(ctxOpts)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	l.logger.Debug("Browser launched",
		zap.String("browser", cfg.Name),
		zap.String("version", browser.Version()),
		zap.Bool("headless", cfg.Headless))

	return &Driver{
		browser:    browser,
		bctx:       bctx,
		page:       page,
		logger:     l.logger,
		navTimeout: navTimeout,
	}, nil
}

// Stop shuts the Playwright driver down. Browsers should be closed first.
func (l *Launcher) Stop() error {
	if l.pw == nil {
		return nil
	}
	if err := l.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright driver: %w", err)
	}
	return nil
}
