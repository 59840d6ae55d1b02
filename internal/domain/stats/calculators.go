package stats

import (
	"time"

	"github.com/lutefd/pokerlog/internal/domain/sessions"
)

const msPerHour = 1000 * 60 * 60

// Calculate folds the completed sessions of items into a SessionStats. Live
// and malformed sessions are skipped. A zero total duration yields an hourly
// rate of 0.
func Calculate(items []sessions.Session) SessionStats {
	var (
		count           int
		totalProfit     float64
		totalDurationMs int64
		winning         int
		biggestWin      float64
		biggestLoss     float64
	)

	for _, s := range items {
		if !s.IsCompleted() {
			continue
		}
		count++

		profit := *s.CashOut - s.BuyIn
		totalProfit += profit
		totalDurationMs += DurationMs(s.StartTime, *s.EndTime)

		if profit > 0 {
			winning++
			biggestWin = max(biggestWin, profit)
		} else if profit < 0 {
			biggestLoss = min(biggestLoss, profit)
		}
	}

	if count == 0 {
		return SessionStats{}
	}

	totalHours := float64(totalDurationMs) / msPerHour
	return SessionStats{
		TotalSessions: count,
		TotalProfit:   totalProfit,
		TotalHours:    totalHours,
		AvgProfit:     totalProfit / float64(count),
		AvgHourlyRate: ratePerHour(totalProfit, totalHours),
		BiggestWin:    biggestWin,
		BiggestLoss:   biggestLoss,
		WinRate:       float64(winning) / float64(count) * 100,
	}
}

// HourlyRate is the running profit of a single session per elapsed hour.
// Live sessions are measured up to now.
func HourlyRate(s sessions.Session, now time.Time) float64 {
	hours := float64(s.Elapsed(now).Milliseconds()) / msPerHour
	return ratePerHour(s.RunningProfit(), hours)
}

func DurationMs(start, end time.Time) int64 {
	return end.Sub(start).Milliseconds()
}

func ratePerHour(profit, hours float64) float64 {
	if hours == 0 {
		return 0
	}
	return profit / hours
}
