package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/harness"
	"github.com/xkilldash9x/sauce-e2e/internal/journeys"
	"github.com/xkilldash9x/sauce-e2e/internal/reporting"
	"github.com/xkilldash9x/sauce-e2e/internal/store"
)

// ErrJourneysFailed is returned by run when at least one journey failed or
// errored.
var ErrJourneysFailed = errors.New("journeys failed")

const shutdownTimeout = 30 * time.Second

type runOptions struct {
	journeys    []string
	browser     string
	headless    bool
	baseURL     string
	concurrency int
	timeout     time.Duration
	install     bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run journeys against the application",
		Long: `Run selected journeys, each in its own browser session, and write the
JSON-lines log, JUnit XML and failure screenshots to the report directory.
Exits non-zero when any journey fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyRunFlags(cmd, a, opts); err != nil {
				return err
			}
			return runJourneys(cmd.Context(), cmd.OutOrStdout(), a, opts)
		},
	}

	flags := runCmd.Flags()
	flags.StringSliceVarP(&opts.journeys, "journey", "j", nil, "journey names, groups or globs to run (default all)")
	flags.StringVarP(&opts.browser, "browser", "b", "", "browser to use: chrome, firefox, edge or safari")
	flags.BoolVar(&opts.headless, "headless", true, "run the browser without a window")
	flags.StringVar(&opts.baseURL, "base-url", "", "application URL")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "journeys to run in parallel")
	flags.DurationVar(&opts.timeout, "journey-timeout", 5*time.Minute, "upper bound for a single journey, 0 for none")
	flags.BoolVar(&opts.install, "install-browsers", false, "download missing Playwright browsers before launching")
	return runCmd
}

// applyRunFlags overrides configuration with the flags the user actually
// set, then validates the result.
func applyRunFlags(cmd *cobra.Command, a *app, opts *runOptions) error {
	flags := cmd.Flags()
	if flags.Changed("browser") {
		a.cfg.SetBrowserName(opts.browser)
	}
	if flags.Changed("headless") {
		a.cfg.SetBrowserHeadless(opts.headless)
	}
	if flags.Changed("base-url") {
		a.cfg.SetBaseURL(opts.baseURL)
	}
	if flags.Changed("concurrency") {
		a.cfg.SetBrowserConcurrency(opts.concurrency)
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func runJourneys(ctx context.Context, out io.Writer, a *app, opts *runOptions) (err error) {
	cfg, logger := a.cfg, a.logger

	selected, err := journeys.Select(opts.journeys...)
	if err != nil {
		return err
	}

	var sinks []reporting.Option
	var st *store.Store
	if cfg.Store().Enabled {
		if st, err = store.Connect(ctx, cfg.Store().URL, logger); err != nil {
			return fmt.Errorf("failed to connect result store: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return err
		}
		sinks = append(sinks, reporting.WithSink(st))
	}

	rep, err := reporting.New(cfg.Report(), reporting.EnvironmentFrom(cfg), logger, sinks...)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return err
	}
	defer func() {
		if cerr := rep.Close(); cerr != nil {
			logger.Error("Failed to finalize reports.", zap.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}()

	mgr := browser.NewManager(cfg, logger, browser.WithPlaywrightInstall(opts.install))
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if serr := mgr.Shutdown(sctx); serr != nil {
			logger.Warn("Browser manager did not shut down cleanly.", zap.Error(serr))
		}
	}()

	runner := harness.NewRunner(cfg, mgr, rep, logger, harness.WithJourneyTimeout(opts.timeout))
	sum := runner.RunAll(ctx, selected, cfg.Browser().Concurrency)

	printSummary(out, sum)
	if !sum.OK() {
		return fmt.Errorf("%w: %d failed, %d errored of %d", ErrJourneysFailed, sum.Failed, sum.Errored, len(sum.Results))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}

// printSummary writes one line per journey followed by the totals. Colors
// are dropped automatically when out is not a terminal.
func printSummary(out io.Writer, sum harness.Summary) {
	r := lipgloss.NewRenderer(out)
	styles := map[reporting.Status]lipgloss.Style{
		reporting.StatusPassed:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}),
		reporting.StatusFailed:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).Bold(true),
		reporting.StatusError:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).Bold(true),
		reporting.StatusSkipped: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFAA00"}),
	}
	dim := r.NewStyle().Faint(true)

	for _, res := range sum.Results {
		label := fmt.Sprintf("%-7s", res.Status)
		fmt.Fprintf(out, "%s %-32s %s\n", styles[res.Status].Render(label), res.Journey, dim.Render(res.Duration.Round(time.Millisecond).String()))
		if res.Failed() || res.Status == reporting.StatusSkipped {
			fmt.Fprintf(out, "        %s\n", res.Message)
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed, %d errored, %d skipped in %s (run %s)\n",
		sum.Passed, sum.Failed, sum.Errored, sum.Skipped, sum.Elapsed.Round(time.Millisecond), sum.RunID)
}
