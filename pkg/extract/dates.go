package extract

import (
	"fmt"
	"regexp"
	"time"

	"github.com/rbenz/gazette/internal/models"
)

// The register prints dates as "<day> <month name> <year>" with Arabic month
// names, including the Maghrebi form for August.
var arabicMonths = map[string]time.Month{
	"يناير":  time.January,
	"فبراير": time.February,
	"مارس":   time.March,
	"أبريل":  time.April,
	"مايو":   time.May,
	"يونيو":  time.June,
	"يوليو":  time.July,
	"غشت":    time.August,
	"سبتمبر": time.September,
	"أكتوبر": time.October,
	"نوفمبر": time.November,
	"ديسمبر": time.December,
}

// datePattern captures the "في <day> <month> <year>" phrase used on both the
// title row and the issue-reference row.
var datePattern = regexp.MustCompile(`في (\d+) ([^\s]+) (\d+)`)

// parseDate extracts the first register-style date from s. The year may be
// overridden (issue dates take their year from the result link, not the row
// text). A date that cannot be parsed yields the sentinel; a bad date never
// fails the record.
func parseDate(s string, yearOverride int) time.Time {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return models.SentinelDate
	}
	month, ok := arabicMonths[m[2]]
	if !ok {
		return models.SentinelDate
	}
	day := atoi(m[1])
	year := atoi(m[3])
	if yearOverride != 0 {
		year = yearOverride
	}
	if day < 1 || day > 31 || year == 0 {
		return models.SentinelDate
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0
	}
	return n
}
