package stats

import (
	"math"
	"testing"
	"time"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "currency positive", got: FormatCurrency(50), want: "+50$"},
		{name: "currency negative", got: FormatCurrency(-30), want: "-30$"},
		{name: "currency zero", got: FormatCurrency(0), want: "+0$"},
		{name: "currency tie rounds away from zero", got: FormatCurrency(2.5), want: "+3$"},
		{name: "currency negative tie", got: FormatCurrency(-2.5), want: "-3$"},
		{name: "currency small negative keeps sign", got: FormatCurrency(-0.4), want: "-0$"},
		{name: "currency NaN", got: FormatCurrency(math.NaN()), want: "NaN$"},
		{name: "currency below exponent threshold", got: FormatCurrency(9.99e20), want: "+999000000000000000000$"},
		{name: "currency exponent form", got: FormatCurrency(1e21), want: "+1e+21$"},
		{name: "currency negative exponent form", got: FormatCurrency(-1.5e22), want: "-1.5e+22$"},
		{name: "hourly", got: FormatHourlyRate(50), want: "+50.00$/h"},
		{name: "hourly negative", got: FormatHourlyRate(-12.3456), want: "-12.35$/h"},
		{name: "hourly binary below half", got: FormatHourlyRate(1.005), want: "+1.00$/h"},
		{name: "hourly exact tie", got: FormatHourlyRate(0.125), want: "+0.13$/h"},
		{name: "hourly repeating", got: FormatHourlyRate(20.0 / 3.0), want: "+6.67$/h"},
		{name: "hourly infinity", got: FormatHourlyRate(math.Inf(1)), want: "+Infinity$/h"},
		{name: "hourly exponent form ignores digits", got: FormatHourlyRate(2.5e21), want: "+2.5e+21$/h"},
		{name: "percent", got: FormatPercent(200.0 / 3.0), want: "66.7%"},
		{name: "percent tie", got: FormatPercent(0.25), want: "0.3%"},
		{name: "percent whole", got: FormatPercent(100), want: "100.0%"},
		{name: "hours", got: FormatHours(3), want: "3.0"},
		{name: "hours fraction", got: FormatHours(0.04), want: "0.0"},
		{name: "duration", got: FormatDuration(2*time.Hour + 5*time.Minute + 59*time.Second), want: "2h 5m"},
		{name: "duration zero", got: FormatDuration(0), want: "0h 0m"},
		{name: "duration negative", got: FormatDuration(-time.Second), want: "-1h -1m"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, tc.got)
			}
		})
	}
}

func TestSessionStatsFormat(t *testing.T) {
	got := SessionStats{
		TotalSessions: 2,
		TotalProfit:   20,
		TotalHours:    3,
		AvgProfit:     10,
		AvgHourlyRate: 20.0 / 3.0,
		BiggestWin:    50,
		BiggestLoss:   -30,
		WinRate:       50,
	}.Format()

	want := FormattedStats{
		TotalProfit:   "+20$",
		TotalHours:    "3.0",
		AvgProfit:     "+10$",
		AvgHourlyRate: "+6.67$/h",
		BiggestWin:    "+50$",
		BiggestLoss:   "-30$",
		WinRate:       "50.0%",
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
