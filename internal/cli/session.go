package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lutefd/pokerlog/internal/domain/sessions"
	"github.com/lutefd/pokerlog/internal/domain/stats"
)

const timeLayout = "2006-01-02 15:04"

type sessionFlags struct {
	game     string
	sb, bb   float64
	buyIn    float64
	table    string
	location string
	notes    string
}

func (f *sessionFlags) bind(cmd *cobra.Command) {
	draft := sessions.Draft()
	cmd.Flags().StringVar(&f.game, "game", string(draft.GameType), "game type: \"NL Hold'em\" or \"Pot Limit Omaha\"")
	cmd.Flags().Float64Var(&f.sb, "sb", draft.SmallBlind, "small blind")
	cmd.Flags().Float64Var(&f.bb, "bb", draft.BigBlind, "big blind")
	cmd.Flags().Float64Var(&f.buyIn, "buy-in", 0, "total buy-in")
	cmd.Flags().StringVar(&f.table, "table", string(draft.TableSize), "table size, e.g. 6-max")
	cmd.Flags().StringVar(&f.location, "location", "", "where the session was played")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
}

func (f *sessionFlags) session() sessions.Session {
	s := sessions.Draft()
	s.GameType = sessions.GameType(f.game)
	s.SmallBlind = f.sb
	s.BigBlind = f.bb
	s.BuyIn = f.buyIn
	s.TableSize = sessions.TableSize(f.table)
	s.Location = f.location
	s.Notes = f.notes
	return s
}

func newStartCmd(opts *options) *cobra.Command {
	var flags sessionFlags
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a live session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			live, err := a.tracker.StartLiveSession(cmd.Context(), a.userID, flags.session())
			if errors.Is(err, sessions.ErrLiveSessionExists) {
				return fmt.Errorf("a live session is already running; end it with: pokerlog end --cash-out N")
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "started %s %s at %s (%s)\n",
				live.GameType, stakes(live), live.StartTime.Local().Format(timeLayout), live.ID)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newEndCmd(opts *options) *cobra.Command {
	var cashOut float64
	cmd := &cobra.Command{
		Use:   "end",
		Short: "End the live session with a cash-out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			live, found, err := a.tracker.LiveSession(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no live session; start one with: pokerlog start")
			}
			ended, err := a.tracker.EndSession(cmd.Context(), a.userID, live.ID, cashOut)
			if err != nil {
				return err
			}
			profit, _ := ended.Profit()
			elapsed := ended.EndTime.Sub(ended.StartTime)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ended %s: %s over %s\n",
				ended.ID, stats.FormatCurrency(profit), stats.FormatDuration(elapsed))
			return nil
		},
	}
	cmd.Flags().Float64Var(&cashOut, "cash-out", 0, "amount cashed out")
	_ = cmd.MarkFlagRequired("cash-out")
	return cmd
}

func newAddCmd(opts *options) *cobra.Command {
	var flags sessionFlags
	var cashOut float64
	var start, end string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a completed session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startTime, err := parseTime(start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			endTime, err := parseTime(end)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			s := flags.session()
			s.StartTime = startTime
			completed, err := sessions.NewCompletedSession(s, endTime, cashOut)
			if err != nil {
				return err
			}
			created, err := a.tracker.AddSession(cmd.Context(), a.userID, completed)
			if err != nil {
				return err
			}
			profit, _ := created.Profit()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s\n", created.ID, stats.FormatCurrency(profit))
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().Float64Var(&cashOut, "cash-out", 0, "amount cashed out")
	cmd.Flags().StringVar(&start, "start", "", "start time, \"2006-01-02 15:04\" or RFC3339")
	cmd.Flags().StringVar(&end, "end", "", "end time, \"2006-01-02 15:04\" or RFC3339")
	_ = cmd.MarkFlagRequired("cash-out")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.tracker.ListSessions(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
				return nil
			}
			now := time.Now()
			for _, s := range items {
				printSession(cmd.OutOrStdout(), s, now)
			}
			return nil
		},
	}
}

func printSession(w io.Writer, s sessions.Session, now time.Time) {
	result := "live"
	if profit, ok := s.Profit(); ok {
		result = stats.FormatCurrency(profit)
	}
	_, _ = fmt.Fprintf(w, "%s  %-16s %-8s %-7s %-9s %8s  %s\n",
		s.StartTime.Local().Format(timeLayout), s.GameType, stakes(s), s.TableSize,
		s.Status, result, stats.FormatDuration(s.Elapsed(now)))
}

func stakes(s sessions.Session) string {
	return fmt.Sprintf("%g/%g", s.SmallBlind, s.BigBlind)
}

func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(timeLayout, value, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
