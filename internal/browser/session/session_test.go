package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom/domtest"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
)

func newTestSession(t *testing.T) (*Session, *domtest.Driver) {
	t.Helper()
	drv := domtest.NewDriver()
	s := New(drv, zaptest.NewLogger(t), Options{
		BaseURL: "https://shop.test/v1/",
		Browser: "chrome",
		Interaction: dom.Options{
			Timeout:      200 * time.Millisecond,
			PollInterval: 10 * time.Millisecond,
			Settle:       -1,
		},
	})
	return s, drv
}

func TestNewSession(t *testing.T) {
	s, _ := newTestSession(t)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "chrome", s.Browser())
	assert.Equal(t, "https://shop.test/v1/", s.BaseURL())
	assert.Equal(t, navigation.LoggedOut, s.Current())
	assert.Empty(t, s.History())
	assert.Equal(t, "login", s.Interactor("login").Page())
	assert.Equal(t, 200*time.Millisecond, s.Interactor("login").Options().Timeout)

	other, _ := newTestSession(t)
	assert.NotEqual(t, s.ID(), other.ID())
}

func TestOpen(t *testing.T) {
	s, drv := newTestSession(t)
	_, err := s.Track(navigation.LoggedOut, navigation.Login)
	require.NoError(t, err)

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, []string{"https://shop.test/v1/"}, drv.Navigations())
	assert.Equal(t, navigation.LoggedOut, s.Current())
	assert.Len(t, s.History(), 1, "history survives a reopen")

	url, err := s.CurrentURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/v1/", url)
}

func TestOpenCanceled(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Open(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTrack(t *testing.T) {
	s, _ := newTestSession(t)

	to, err := s.Track(navigation.LoggedOut, navigation.Login)
	require.NoError(t, err)
	assert.Equal(t, navigation.Inventory, to)

	to, err = s.Track(navigation.Inventory, navigation.GoToCart)
	require.NoError(t, err)
	assert.Equal(t, navigation.Cart, to)
	assert.Equal(t, navigation.Cart, s.Current())

	_, err = s.Track(navigation.Cart, navigation.Finish)
	require.ErrorIs(t, err, navigation.ErrIllegalTransition)
	assert.Equal(t, navigation.Cart, s.Current(), "illegal actions leave the page unchanged")

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "LoggedOut --login--> Inventory", history[0].String())
	assert.Equal(t, "Inventory --go_to_cart--> Cart", history[1].String())
}

func TestTrackFromStalePageWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := New(domtest.NewDriver(), zap.New(core), Options{})

	_, err := s.Track(navigation.Cart, navigation.Checkout)
	require.NoError(t, err)
	assert.Equal(t, navigation.CheckoutStepOne, s.Current())
	assert.Equal(t, 1, logs.FilterMessage("Acting from a page that is no longer current.").Len())
}

func TestReject(t *testing.T) {
	s, _ := newTestSession(t)
	s.Reject(navigation.LoggedOut, navigation.Login, "Epic sadface: Sorry, this user has been locked out.")

	assert.Equal(t, navigation.LoggedOut, s.Current())
	history := s.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Rejected)
	assert.Equal(t, navigation.LoggedOut, history[0].To)
	assert.Contains(t, history[0].Message, "locked out")
}

func TestClose(t *testing.T) {
	s, drv := newTestSession(t)
	calls := 0
	s.SetOnClose(func() { calls++ })

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.True(t, drv.Closed())
	assert.Equal(t, 1, calls)

	assert.ErrorIs(t, s.Err(), ErrClosed)
	assert.ErrorIs(t, s.Open(context.Background()), ErrClosed)
	_, err := s.Screenshot(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.CurrentURL(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Track(navigation.LoggedOut, navigation.Login)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestInteractorAfterClose(t *testing.T) {
	s, drv := newTestSession(t)
	button := dom.ID("add-to-cart")
	el := domtest.NewElement("Add to cart")
	drv.Put(button, el)
	ui := s.Interactor("inventory")
	require.True(t, ui.IsVisible(context.Background(), button))

	require.NoError(t, s.Close(context.Background()))

	start := time.Now()
	err := ui.Click(context.Background(), button)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NotErrorIs(t, err, dom.ErrWaitTimeout)
	assert.Less(t, time.Since(start), 200*time.Millisecond, "a closed session must not wait out the timeout")
	assert.Equal(t, 0, el.Clicks())

	assert.ErrorIs(t, ui.SetText(context.Background(), button, "x"), ErrClosed)
	_, err = ui.ReadText(context.Background(), button)
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, ui.IsVisible(context.Background(), button))
	assert.Zero(t, ui.Count(context.Background(), button))
}

func TestConcurrentClose(t *testing.T) {
	s, _ := newTestSession(t)
	var calls int
	var mu sync.Mutex
	s.SetOnClose(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Close(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestScreenshot(t *testing.T) {
	s, drv := newTestSession(t)
	drv.Shot = []byte("png-bytes")
	shot, err := s.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), shot)
}
