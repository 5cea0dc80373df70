package services

import (
	"fmt"
	"strconv"
	"time"
)

// rocYearOffset converts a Republic of China year to the common era.
const rocYearOffset = 1911

// ParseROCDate parses a numeric ROC date such as "1121015" (民國112年10月15日)
// or "990101". A 7-character string has a 3-digit year, anything else a
// 2-digit year. Empty, short or out-of-range input reports false.
func ParseROCDate(s string) (time.Time, bool) {
	if len(s) < 6 {
		return time.Time{}, false
	}

	yearLen := 2
	if len(s) == 7 {
		yearLen = 3
	}

	year, err := strconv.Atoi(s[:yearLen])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(s[yearLen : yearLen+2])
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(s[yearLen+2:])
	if err != nil {
		return time.Time{}, false
	}

	year += rocYearOffset
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject it
	if d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// FormatROCDate renders t as "yyy/MM/dd" in the ROC calendar.
func FormatROCDate(t time.Time) string {
	return fmt.Sprintf("%d/%02d/%02d", t.Year()-rocYearOffset, int(t.Month()), t.Day())
}
