package stats

// SessionStats summarizes the completed sessions of a collection. It is
// derived on demand and never stored.
type SessionStats struct {
	TotalSessions int     `json:"totalSessions"`
	TotalProfit   float64 `json:"totalProfit"`
	TotalHours    float64 `json:"totalHours"`
	AvgProfit     float64 `json:"avgProfit"`
	AvgHourlyRate float64 `json:"avgHourlyRate"`
	BiggestWin    float64 `json:"biggestWin"`
	BiggestLoss   float64 `json:"biggestLoss"`
	WinRate       float64 `json:"winRate"`
}

// FormattedStats carries the display strings for a SessionStats.
type FormattedStats struct {
	TotalProfit   string `json:"totalProfit"`
	TotalHours    string `json:"totalHours"`
	AvgProfit     string `json:"avgProfit"`
	AvgHourlyRate string `json:"avgHourlyRate"`
	BiggestWin    string `json:"biggestWin"`
	BiggestLoss   string `json:"biggestLoss"`
	WinRate       string `json:"winRate"`
}

func (s SessionStats) Format() FormattedStats {
	return FormattedStats{
		TotalProfit:   FormatCurrency(s.TotalProfit),
		TotalHours:    FormatHours(s.TotalHours),
		AvgProfit:     FormatCurrency(s.AvgProfit),
		AvgHourlyRate: FormatHourlyRate(s.AvgHourlyRate),
		BiggestWin:    FormatCurrency(s.BiggestWin),
		BiggestLoss:   FormatCurrency(s.BiggestLoss),
		WinRate:       FormatPercent(s.WinRate),
	}
}
