// internal/browser/cdp/driver_test.go
package cdp_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/cdp"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

const fixtureHTML = `<!DOCTYPE html>
<html><body>
<div class="inventory_item"><div class="inventory_item_name">Sauce Labs Backpack</div><button class="add">ADD TO CART</button></div>
<div class="inventory_item"><div class="inventory_item_name">Sauce Labs Bike Light</div><button class="add">ADD TO CART</button></div>
<span class="shopping_cart_badge" style="display:none">0</span>
<input id="user-name" type="text" value="prefilled">
<button id="late" disabled>LATE</button>
<select class="product_sort_container">
  <option value="az">Name (A to Z)</option>
  <option value="hilo">Price (high to low)</option>
</select>
<div id="sorted"></div>
<div id="echo"></div>
<div id="covered-wrap" style="position:relative">
  <button id="covered">COVERED</button>
  <div style="position:absolute;top:0;left:0;width:400px;height:60px;background:#fff"></div>
</div>
<script>
  let count = 0;
  document.querySelectorAll("button.add").forEach(function(b) {
    b.addEventListener("click", function() {
      count++;
      const badge = document.querySelector(".shopping_cart_badge");
      badge.textContent = String(count);
      badge.style.display = "inline";
      b.textContent = "REMOVE";
    });
  });
  document.getElementById("user-name").addEventListener("input", function(e) {
    document.getElementById("echo").textContent = "[" + e.target.value + "]";
  });
  setTimeout(function() { document.getElementById("late").disabled = false; }, 150);
  document.querySelector(".product_sort_container").addEventListener("change", function(e) {
    document.getElementById("sorted").textContent = e.target.value;
  });
</script>
</body></html>`

func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome/Chromium binary found on PATH")
}

type fixture struct {
	driver *cdp.Driver
	url    string
	ctx    context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()
	requireChrome(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, fixtureHTML)
	}))
	t.Cleanup(server.Close)

	// Use the test deadline if available, leaving a buffer for cleanup.
	timeout := 60 * time.Second
	if deadline, ok := t.Deadline(); ok {
		timeout = time.Until(deadline) - 5*time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)

	cfg := config.NewDefaultConfig().Browser()
	d, err := cdp.Launch(ctx, cfg, 20*time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		assert.NoError(t, d.Close(closeCtx))
	})

	require.NoError(t, d.Navigate(ctx, server.URL))
	return &fixture{driver: d, url: server.URL, ctx: ctx}
}

func TestDriverFindAll(t *testing.T) {
	f := setup(t)

	names, err := f.driver.FindAll(f.ctx, dom.Class("inventory_item_name"))
	require.NoError(t, err)
	require.Len(t, names, 2)
	text, err := names[1].Text(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sauce Labs Bike Light", text)

	byXPath, err := f.driver.FindAll(f.ctx, dom.XPath(
		fmt.Sprintf("//div[@class='inventory_item'][.//div[normalize-space(.)=%s]]//button", dom.XPathLiteral("Sauce Labs Backpack"))))
	require.NoError(t, err)
	require.Len(t, byXPath, 1)

	none, err := f.driver.FindAll(f.ctx, dom.ID("does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.driver.FindAll(f.ctx, dom.CSS("[[["))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, dom.ErrStaleElement))

	u, err := f.driver.CurrentURL(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.url+"/", u)
}

func TestDriverElementState(t *testing.T) {
	f := setup(t)

	state := func(loc dom.Locator) dom.State {
		els, err := f.driver.FindAll(f.ctx, loc)
		require.NoError(t, err)
		require.NotEmpty(t, els)
		st, err := els[0].State(f.ctx)
		require.NoError(t, err)
		return st
	}

	assert.True(t, state(dom.ID("user-name")).Clickable())
	assert.False(t, state(dom.Class("shopping_cart_badge")).Visible())
	assert.True(t, state(dom.ID("covered")).Obscured)
}

func TestDriverWithInteractor(t *testing.T) {
	f := setup(t)
	i := dom.NewInteractor(f.driver, zaptest.NewLogger(t), dom.Options{
		Timeout:      5 * time.Second,
		PollInterval: 50 * time.Millisecond,
		Settle:       -1,
	}).On("Fixture")

	t.Run("click updates the badge", func(t *testing.T) {
		require.NoError(t, i.Click(f.ctx, dom.XPath("(//button[@class='add'])[1]")))
		badge, err := i.ReadText(f.ctx, dom.Class("shopping_cart_badge"))
		require.NoError(t, err)
		assert.Equal(t, "1", badge)
	})

	t.Run("waits for a control to become enabled", func(t *testing.T) {
		require.NoError(t, i.Click(f.ctx, dom.ID("late")))
	})

	t.Run("set text replaces the value", func(t *testing.T) {
		require.NoError(t, i.SetText(f.ctx, dom.ID("user-name"), "standard_user"))
		echo, err := i.ReadText(f.ctx, dom.ID("echo"))
		require.NoError(t, err)
		assert.Equal(t, "[standard_user]", echo)
	})

	t.Run("select fires change", func(t *testing.T) {
		require.NoError(t, i.SelectValue(f.ctx, dom.Class("product_sort_container"), "hilo"))
		got, err := i.ReadText(f.ctx, dom.ID("sorted"))
		require.NoError(t, err)
		assert.Equal(t, "hilo", got)

		err = i.SelectValue(f.ctx, dom.Class("product_sort_container"), "nope")
		assert.ErrorIs(t, err, dom.ErrInteractionFailed)
	})

	t.Run("obscured control times out", func(t *testing.T) {
		short := dom.NewInteractor(f.driver, zaptest.NewLogger(t), dom.Options{Timeout: 300 * time.Millisecond, PollInterval: 50 * time.Millisecond})
		err := short.Click(f.ctx, dom.ID("covered"))
		assert.ErrorIs(t, err, dom.ErrWaitTimeout)
	})
}

func TestDriverStaleAfterNavigation(t *testing.T) {
	f := setup(t)

	els, err := f.driver.FindAll(f.ctx, dom.ID("user-name"))
	require.NoError(t, err)
	require.Len(t, els, 1)

	require.NoError(t, f.driver.Navigate(f.ctx, f.url))

	_, err = els[0].Text(f.ctx)
	assert.ErrorIs(t, err, dom.ErrStaleElement)
}

func TestDriverScreenshot(t *testing.T) {
	f := setup(t)
	png, err := f.driver.Screenshot(f.ctx)
	require.NoError(t, err)
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
