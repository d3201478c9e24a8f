package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	unitDurationRegex  = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)
	clockDurationRegex = regexp.MustCompile(`^(\d{1,3}):(\d{2})(?::(\d{2}))?$`)
	isoDateRegex       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	dmyDateRegex       = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	daysAgoRegex       = regexp.MustCompile(`^(\d+)\s*(?:day|days)\s+ago$`)
)

// ParseDuration parses an amount of time into seconds
// Supported formats:
// - unit form (e.g., "1h20m", "45m", "2h", "90s")
// - clock form (e.g., "1:30" for 1h30m, "0:45:10")
func ParseDuration(input string) (int64, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return 0, nil
	}

	if m := clockDurationRegex.FindStringSubmatch(input); m != nil {
		h, _ := strconv.ParseInt(m[1], 10, 64)
		mins, _ := strconv.ParseInt(m[2], 10, 64)
		var sec int64
		if m[3] != "" {
			sec, _ = strconv.ParseInt(m[3], 10, 64)
		}
		if mins > 59 || sec > 59 {
			return 0, fmt.Errorf("minutes and seconds must be below 60")
		}
		return h*3600 + mins*60 + sec, nil
	}

	m := unitDurationRegex.FindStringSubmatch(input)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, fmt.Errorf("invalid duration %q. Use: 1h20m, 45m, 2h or 1:30", input)
	}
	var total int64
	for i, mult := range []int64{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in %q", input)
		}
		total += n * mult
	}
	return total, nil
}

// IsDuration reports whether a token parses as a duration
func IsDuration(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	_, err := ParseDuration(token)
	return err == nil
}

// ParseDate resolves a date scope to YYYY-MM-DD
// Supported formats:
// - "today", "yesterday"
// - yyyy-mm-dd (e.g., "2025-11-02")
// - dd/mm/yyyy (e.g., "02/11/2025")
// - X days ago (e.g., "3 days ago")
func ParseDate(input string, now time.Time) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch input {
	case "", "today":
		return FormatDate(today), nil
	case "yesterday":
		return FormatDate(today.AddDate(0, 0, -1)), nil
	}

	if m := isoDateRegex.FindStringSubmatch(input); m != nil {
		return buildDate(m[1], m[2], m[3], now.Location())
	}
	if m := dmyDateRegex.FindStringSubmatch(input); m != nil {
		return buildDate(m[3], m[2], m[1], now.Location())
	}
	if m := daysAgoRegex.FindStringSubmatch(input); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > 3650 {
			return "", fmt.Errorf("days must be between 0 and 3650")
		}
		return FormatDate(today.AddDate(0, 0, -n)), nil
	}

	return "", fmt.Errorf("invalid date format. Use: today, yesterday, yyyy-mm-dd, dd/mm/yyyy or X days ago")
}

// FormatDate renders the date scope key used by the store
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func buildDate(y, m, d string, loc *time.Location) (string, error) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)

	if month < 1 || month > 12 {
		return "", fmt.Errorf("month must be between 1 and 12")
	}
	if day < 1 || day > 31 {
		return "", fmt.Errorf("day must be between 1 and 31")
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// Check if date is valid (handles leap years, etc.)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return "", fmt.Errorf("invalid date")
	}
	return FormatDate(date), nil
}
