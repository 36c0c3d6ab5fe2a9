//go:build e2e

package e2e

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
	"github.com/xkilldash9x/sauce-e2e/internal/harness"
	"github.com/xkilldash9x/sauce-e2e/internal/journeys"
	"github.com/xkilldash9x/sauce-e2e/internal/reporting"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.SetEnvPrefix("SAUCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestJourneys(t *testing.T) {
	cfg := loadConfig(t)
	logger := zaptest.NewLogger(t)

	patterns := []string{}
	if p := os.Getenv("SAUCE_JOURNEYS"); p != "" {
		patterns = strings.Split(p, ",")
	}
	selected, err := journeys.Select(patterns...)
	require.NoError(t, err)

	rep, err := reporting.New(cfg.Report(), reporting.EnvironmentFrom(cfg), logger)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, rep.Close()) })

	mgr := browser.NewManager(cfg, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		require.NoError(t, mgr.Shutdown(ctx))
	})

	runner := harness.NewRunner(cfg, mgr, rep, logger, harness.WithJourneyTimeout(5*time.Minute))
	sum := runner.RunAll(context.Background(), selected, cfg.Browser().Concurrency)

	for _, res := range sum.Results {
		t.Run(res.Journey, func(t *testing.T) {
			for _, s := range res.Steps {
				t.Logf("%s --%s--> %s %s", s.From, s.Action, s.To, s.Message)
			}
			switch res.Status {
			case reporting.StatusSkipped:
				t.Skip(res.Message)
			case reporting.StatusFailed, reporting.StatusError:
				t.Fatalf("%s on %s (%s): %s", res.Status, res.Page, res.URL, res.Message)
			}
		})
	}
	t.Logf("run %s: %d passed, %d failed, %d errored, %d skipped in %s",
		sum.RunID, sum.Passed, sum.Failed, sum.Errored, sum.Skipped, sum.Elapsed)
}
