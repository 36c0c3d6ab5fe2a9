package pw

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

func TestSelector(t *testing.T) {
	assert.Equal(t, "css=.inventory_item", selector(dom.Class("inventory_item")))
	assert.Equal(t, `css=[id="user-name"]`, selector(dom.ID("user-name")))
	assert.Equal(t, "xpath=//h3[@data-test='error']", selector(dom.XPath("//h3[@data-test='error']")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantStale bool
	}{
		{"detached", errors.New("Element is not attached to the DOM"), true},
		{"disposed", errors.New("JSHandle is disposed"), true},
		{"navigation", errors.New("Execution context was destroyed, most likely because of a navigation"), true},
		{"timeout", errors.New("Timeout 30000ms exceeded"), false},
		{"already stale", dom.ErrStaleElement, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.wantStale, errors.Is(got, dom.ErrStaleElement))
		})
	}
	assert.NoError(t, classify(nil))
}

func TestEngineFor(t *testing.T) {
	pw := &playwright.Playwright{}
	for name, wantChannel := range map[string]string{
		config.BrowserChrome:  "chrome",
		config.BrowserEdge:    "msedge",
		config.BrowserFirefox: "",
		config.BrowserSafari:  "",
	} {
		_, channel, err := engineFor(pw, name)
		require.NoError(t, err, name)
		assert.Equal(t, wantChannel, channel, name)
	}

	_, _, err := engineFor(pw, "opera")
	assert.Error(t, err)
}

func TestInstallName(t *testing.T) {
	assert.Equal(t, "firefox", installName(config.BrowserFirefox))
	assert.Equal(t, "webkit", installName(config.BrowserSafari))
	assert.Equal(t, "chromium", installName(config.BrowserEdge))
}

func TestLaunchOptions(t *testing.T) {
	t.Run("chromium family gets stability flags", func(t *testing.T) {
		opts := launchOptions(config.BrowserConfig{
			Name:     config.BrowserEdge,
			Headless: true,
			Args:     []string{"--lang=en-US"},
		}, "msedge")
		assert.True(t, *opts.Headless)
		assert.Equal(t, "msedge", *opts.Channel)
		assert.Equal(t, []string{"--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage", "--lang=en-US"}, opts.Args)
		assert.Nil(t, opts.ExecutablePath)
	})

	t.Run("firefox passes args through", func(t *testing.T) {
		opts := launchOptions(config.BrowserConfig{
			Name:     config.BrowserFirefox,
			ExecPath: "/opt/firefox/firefox",
			Args:     []string{"-private"},
		}, "")
		assert.False(t, *opts.Headless)
		assert.Nil(t, opts.Channel)
		assert.Equal(t, "/opt/firefox/firefox", *opts.ExecutablePath)
		assert.Equal(t, []string{"-private"}, opts.Args)
	})
}

func TestWithContext(t *testing.T) {
	v, err := withContext(context.Background(), func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	release := make(chan struct{})
	defer close(release)
	_, err = withContext(ctx, func() (int, error) {
		<-release
		return 0, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
