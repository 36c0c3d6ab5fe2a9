// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sauce-e2e/internal/harness"
	"github.com/xkilldash9x/sauce-e2e/internal/reporting"
)

// execute runs a fresh command tree and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	t.Cleanup(a.close)

	rootCmd := newRootCmd(a)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a config file that keeps logs and reports inside the
// test's temp dir.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "logger:\n  log_file: " + filepath.Join(dir, "sauce.log") + "\n" +
		"report:\n  dir: " + filepath.Join(dir, "out") + "\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sauce-e2e dev")

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestList(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		out, err := execute(t, "list")
		require.NoError(t, err)
		assert.Contains(t, out, "login/standard")
		assert.Contains(t, out, "checkout/complete")
		assert.Contains(t, out, "e2e/scenario")
	})

	t.Run("group", func(t *testing.T) {
		out, err := execute(t, "list", "checkout")
		require.NoError(t, err)
		assert.Contains(t, out, "checkout/cancel")
		assert.NotContains(t, out, "login/standard")
	})

	t.Run("no match", func(t *testing.T) {
		_, err := execute(t, "list", "nothing/here")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no journey matches")
	})
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "LoggedOut")
	assert.Contains(t, out, "CheckoutComplete")
}

func TestConfigLoading(t *testing.T) {
	t.Run("explicit config file must exist", func(t *testing.T) {
		_, err := execute(t, "history", "login/standard", "--env-file", "", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("invalid config file value", func(t *testing.T) {
		cfg := writeConfig(t, "browser:\n  name: netscape\n")
		_, err := execute(t, "history", "login/standard", "--env-file", "", "--config", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.name")
	})

	t.Run("bad env file", func(t *testing.T) {
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("SAUCE_APP_NAME='unterminated\n"), 0o600))
		_, err := execute(t, "history", "login/standard", "--env-file", envFile, "--config", writeConfig(t, ""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading env file")
	})
}

func TestRunFlagValidation(t *testing.T) {
	cfg := writeConfig(t, "")

	t.Run("unknown browser", func(t *testing.T) {
		_, err := execute(t, "run", "--env-file", "", "--config", cfg, "--browser", "netscape")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "netscape")
	})

	t.Run("relative base url", func(t *testing.T) {
		_, err := execute(t, "run", "--env-file", "", "--config", cfg, "--base-url", "saucedemo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "app.base_url")
	})

	t.Run("zero concurrency", func(t *testing.T) {
		_, err := execute(t, "run", "--env-file", "", "--config", cfg, "--concurrency", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.concurrency")
	})

	t.Run("positional arguments rejected", func(t *testing.T) {
		_, err := execute(t, "run", "--env-file", "", "--config", cfg, "login")
		require.Error(t, err)
	})
}

func TestHistory(t *testing.T) {
	cfg := writeConfig(t, "")

	t.Run("store not configured", func(t *testing.T) {
		_, err := execute(t, "history", "login/standard", "--env-file", "", "--config", cfg)
		assert.ErrorIs(t, err, ErrNoStore)
	})

	t.Run("unknown journey", func(t *testing.T) {
		_, err := execute(t, "history", "login/nope", "--env-file", "", "--config", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown journey "login/nope"`)
	})

	t.Run("bad limit", func(t *testing.T) {
		_, err := execute(t, "history", "login/standard", "-n", "0", "--env-file", "", "--config", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--limit")
	})
}

func TestPrintSummary(t *testing.T) {
	sum := harness.Summary{
		RunID: "run-7",
		Results: []reporting.Result{
			{Journey: "login/standard", Status: reporting.StatusPassed, Duration: 1200 * time.Millisecond},
			{Journey: "checkout/complete", Status: reporting.StatusFailed, Message: "assertion failed: total mismatch", Duration: time.Second},
			{Journey: "login/problem-user", Status: reporting.StatusSkipped, Message: "skipped: no account"},
		},
		Passed:  1,
		Failed:  1,
		Skipped: 1,
		Elapsed: 2500 * time.Millisecond,
	}

	var out bytes.Buffer
	printSummary(&out, sum)
	text := out.String()

	assert.Regexp(t, `passed\s+login/standard`, text)
	assert.Contains(t, text, "1.2s")
	assert.Contains(t, text, "assertion failed: total mismatch")
	assert.Contains(t, text, "skipped: no account")
	assert.Contains(t, text, "1 passed, 1 failed, 0 errored, 1 skipped in 2.5s (run run-7)")
	assert.NotContains(t, text, "\x1b[", "no escape codes when not writing to a terminal")
}
