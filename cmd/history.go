package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/sauce-e2e/internal/journeys"
	"github.com/xkilldash9x/sauce-e2e/internal/store"
)

// ErrNoStore is returned by history when no database URL is configured.
var ErrNoStore = errors.New("result store is not configured (set store.url or SAUCE_STORE_URL)")

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	historyCmd := &cobra.Command{
		Use:   "history <journey>",
		Short: "Show recent recorded results of a journey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			if _, ok := journeys.Lookup(args[0]); !ok {
				return fmt.Errorf("unknown journey %q", args[0])
			}
			url := a.cfg.Store().URL
			if url == "" {
				return ErrNoStore
			}

			ctx := cmd.Context()
			st, err := store.Connect(ctx, url, a.logger)
			if err != nil {
				return fmt.Errorf("failed to connect result store: %w", err)
			}
			defer st.Close()

			results, err := st.Recent(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no recorded results for %s\n", args[0])
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tSTATUS\tDURATION\tBROWSER\tRUN\tMESSAGE")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.Status, r.Duration.Round(time.Millisecond),
					r.Browser, r.RunID, r.Message)
			}
			return tw.Flush()
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of results to show")
	return historyCmd
}
