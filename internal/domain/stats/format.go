package stats

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// FormatCurrency renders whole dollars with an explicit sign: "+50$", "-30$".
func FormatCurrency(amount float64) string {
	return signPrefix(amount) + toFixed(amount, 0) + "$"
}

// FormatHourlyRate renders a rate with cents: "+12.50$/h".
func FormatHourlyRate(rate float64) string {
	return signPrefix(rate) + toFixed(rate, 2) + "$/h"
}

func FormatPercent(v float64) string {
	return toFixed(v, 1) + "%"
}

func FormatHours(hours float64) string {
	return toFixed(hours, 1)
}

// FormatDuration renders floored hours and minutes: "2h 5m".
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%dh %dm", floorDiv(ms, msPerHour), floorDiv(ms%msPerHour, 1000*60))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func signPrefix(v float64) string {
	if v >= 0 {
		return "+"
	}
	return ""
}

// toFixed matches Number.prototype.toFixed: exact halves round away from
// zero, negative values keep their sign even when they round to zero, and
// magnitudes of 1e21 or more fall back to exponent notation.
func toFixed(x float64, digits int) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	}

	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}
	if x >= 1e21 {
		return sign + strconv.FormatFloat(x, 'e', -1, 64)
	}

	if n, ok := halfwayCeil(x, digits); ok {
		return sign + placeDecimal(n.String(), digits)
	}
	return sign + strconv.FormatFloat(x, 'f', digits, 64)
}

// halfwayCeil reports whether x*10^digits lies exactly halfway between two
// integers, returning the upper one. FormatFloat rounds those to even.
func halfwayCeil(x float64, digits int) (*big.Int, bool) {
	scaled := new(big.Float).SetPrec(256).SetFloat64(x)
	scale := new(big.Float).SetPrec(256).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil))
	scaled.Mul(scaled, scale)

	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(scaled, new(big.Float).SetPrec(256).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) != 0 {
		return nil, false
	}
	return whole.Add(whole, big.NewInt(1)), true
}

func placeDecimal(digitsStr string, digits int) string {
	if digits == 0 {
		return digitsStr
	}
	if len(digitsStr) <= digits {
		digitsStr = strings.Repeat("0", digits-len(digitsStr)+1) + digitsStr
	}
	cut := len(digitsStr) - digits
	return digitsStr[:cut] + "." + digitsStr[cut:]
}
