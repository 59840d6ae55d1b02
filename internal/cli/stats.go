package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lutefd/pokerlog/internal/domain/stats"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals over completed sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			overview, err := a.tracker.Overview(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			f := overview.Formatted
			_, _ = fmt.Fprintf(out, "Sessions:     %d\n", overview.Stats.TotalSessions)
			_, _ = fmt.Fprintf(out, "Profit:       %s\n", f.TotalProfit)
			_, _ = fmt.Fprintf(out, "Hours:        %s\n", f.TotalHours)
			_, _ = fmt.Fprintf(out, "Hourly:       %s\n", f.AvgHourlyRate)
			_, _ = fmt.Fprintf(out, "Win rate:     %s\n", f.WinRate)
			_, _ = fmt.Fprintf(out, "Biggest win:  %s\n", f.BiggestWin)
			_, _ = fmt.Fprintf(out, "Biggest loss: %s\n", f.BiggestLoss)
			_, _ = fmt.Fprintf(out, "Avg profit:   %s\n", f.AvgProfit)

			if live := overview.LiveSession; live != nil {
				now := time.Now()
				_, _ = fmt.Fprintf(out, "\nLive: %s %s for %s, running %s (%s)\n",
					live.GameType, stakes(*live), stats.FormatDuration(live.Elapsed(now)),
					stats.FormatCurrency(live.RunningProfit()), stats.FormatHourlyRate(stats.HourlyRate(*live, now)))
			}
			return nil
		},
	}
}
