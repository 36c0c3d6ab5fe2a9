// Package session binds one browser to one journey and tracks which page of
// the shop it is on.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
)

// ErrClosed is returned by operations on a session that has been closed,
// including element actions made through its interactor.
var ErrClosed = dom.ErrClosed

// Options configures a Session.
type Options struct {
	BaseURL string
	// Browser is the configured engine name, reported with results.
	Browser string
	// NavigationTimeout bounds Open.
	NavigationTimeout time.Duration
	Interaction       dom.Options
}

// Session represents a single browser bound to a single journey.
type Session struct {
	id         string
	driver     dom.Driver
	interactor *dom.Interactor
	logger     *zap.Logger
	opts       Options

	mu      sync.Mutex
	current navigation.State
	history []navigation.Step
	closed  bool

	onClose   func()
	closeOnce sync.Once
	closeErr  error
}

// New wraps an already launched driver. The session starts LoggedOut; call
// Open before using any page.
func New(driver dom.Driver, logger *zap.Logger, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	id := uuid.New().String()
	log := logger.Named("session").With(zap.String("session_id", id), zap.String("browser", opts.Browser))
	s := &Session{
		id:      id,
		driver:  driver,
		logger:  log,
		opts:    opts,
		current: navigation.LoggedOut,
	}
	s.interactor = dom.NewInteractor(guarded{Driver: driver, s: s}, log, opts.Interaction)
	return s
}

// guarded refuses lookups and navigation once its session is closed.
type guarded struct {
	dom.Driver
	s *Session
}

func (g guarded) FindAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	if err := g.s.Err(); err != nil {
		return nil, err
	}
	return g.Driver.FindAll(ctx, loc)
}

func (g guarded) Navigate(ctx context.Context, url string) error {
	if err := g.s.Err(); err != nil {
		return err
	}
	return g.Driver.Navigate(ctx, url)
}

func (s *Session) ID() string          { return s.id }
func (s *Session) Browser() string     { return s.opts.Browser }
func (s *Session) BaseURL() string     { return s.opts.BaseURL }
func (s *Session) Logger() *zap.Logger { return s.logger }

// Driver exposes the underlying browser for callers that need raw access.
func (s *Session) Driver() dom.Driver { return s.driver }

// Interactor returns the interaction layer labelled with page.
func (s *Session) Interactor(page string) *dom.Interactor {
	return s.interactor.On(page)
}

// SetOnClose registers a callback run once when the session closes.
func (s *Session) SetOnClose(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = callback
}

// Err returns ErrClosed once the session has been closed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Open loads the base URL and resets the page identity to LoggedOut. History
// is kept across reopens.
func (s *Session) Open(ctx context.Context) error {
	if err := s.Err(); err != nil {
		return err
	}
	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
	defer cancel()

	s.logger.Info("Opening application.", zap.String("url", s.opts.BaseURL))
	if err := s.driver.Navigate(navCtx, s.opts.BaseURL); err != nil {
		return fmt.Errorf("failed to open %s: %w", s.opts.BaseURL, err)
	}

	s.mu.Lock()
	s.current = navigation.LoggedOut
	s.mu.Unlock()
	return nil
}

// Current returns the page the session believes it is on.
func (s *Session) Current() navigation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Track validates action from the given page against the transition table and
// records the move. A from that disagrees with the tracked page is logged and
// trusted, since the caller holds the page value it acted on.
func (s *Session) Track(from navigation.State, action navigation.Action) (navigation.State, error) {
	to, err := navigation.Next(from, action)
	if err != nil {
		return from, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return from, ErrClosed
	}
	if s.current != from {
		s.logger.Warn("Acting from a page that is no longer current.",
			zap.Stringer("from", from),
			zap.Stringer("current", s.current),
			zap.String("action", string(action)))
	}
	s.current = to
	s.history = append(s.history, navigation.Step{From: from, Action: action, To: to, At: time.Now()})
	s.logger.Debug("Transition.", zap.Stringer("from", from), zap.String("action", string(action)), zap.Stringer("to", to))
	return to, nil
}

// Reject records an action the application refused; the page stays on from.
func (s *Session) Reject(from navigation.State, action navigation.Action, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = from
	s.history = append(s.history, navigation.Step{
		From: from, Action: action, To: from,
		Rejected: true, Message: message, At: time.Now(),
	})
	s.logger.Debug("Transition rejected.", zap.Stringer("page", from), zap.String("action", string(action)), zap.String("message", message))
}

// History returns a copy of every recorded step.
func (s *Session) History() []navigation.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]navigation.Step(nil), s.history...)
}

// Screenshot captures the current viewport.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	return s.driver.Screenshot(ctx)
}

// CurrentURL reports the browser's location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := s.Err(); err != nil {
		return "", err
	}
	return s.driver.CurrentURL(ctx)
}

// Close shuts the browser down. It is safe to call more than once; later
// calls return the first result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		onClose := s.onClose
		steps := len(s.history)
		s.mu.Unlock()

		s.logger.Info("Closing session.", zap.Int("steps", steps))
		if err := s.driver.Close(ctx); err != nil {
			s.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		if onClose != nil {
			onClose()
		}
	})
	return s.closeErr
}
