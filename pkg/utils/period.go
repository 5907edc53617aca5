// Package utils provides small shared helpers: XBRL period-date math and
// numeric parsing for terminal-supplied values.
package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodEndLayout is the canonical dataset representation of a closing
// date, e.g. "20211231".
const PeriodEndLayout = "20060102"

// ErrIntradayInstant is returned when a context end-instant does not fall
// on midnight. XBRL end-instants are exclusive day boundaries; anything
// else would silently shift the derived closing date.
var ErrIntradayInstant = fmt.Errorf("period end-instant is not a midnight day boundary")

// PeriodEndFromInstant derives the filing's true closing date from an XBRL
// period end-instant. End-instants are exclusive: an instant of
// 2022-01-01T00:00:00 means the period closed on 2021-12-31.
func PeriodEndFromInstant(endInstant time.Time) (string, error) {
	if endInstant.Hour() != 0 || endInstant.Minute() != 0 || endInstant.Second() != 0 || endInstant.Nanosecond() != 0 {
		return "", ErrIntradayInstant
	}
	return endInstant.AddDate(0, 0, -1).Format(PeriodEndLayout), nil
}

// PriorPeriodEnd shifts a YYYYMMDD closing date back one year, keeping
// month and day. Used to request prior-period balance figures.
func PriorPeriodEnd(periodEnd string) (string, error) {
	if len(periodEnd) != 8 {
		return "", fmt.Errorf("invalid period end %q", periodEnd)
	}
	year, err := strconv.Atoi(periodEnd[:4])
	if err != nil {
		return "", fmt.Errorf("invalid period end %q: %w", periodEnd, err)
	}
	return strconv.Itoa(year-1) + periodEnd[4:], nil
}

// PeriodYear returns the four-digit year of a YYYYMMDD closing date.
func PeriodYear(periodEnd string) string {
	if len(periodEnd) < 4 {
		return periodEnd
	}
	return periodEnd[:4]
}

// ParseTerminalFloat parses a numeric value as returned by the terminal.
// Placeholders and empty strings report ok=false rather than an error so
// that analyzers can simply drop unenriched rows.
func ParseTerminalFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "nan") {
		return 0, false
	}
	// Terminal exports occasionally carry thousands separators.
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatPct renders a percentage with the two-decimal rounding used across
// the dataset.
func FormatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
