package calendar

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDuration is used when a duration is absent, unrecognised or zero.
const DefaultDuration = 2 * time.Hour

// durationPattern matches a quantity followed by a unit, e.g. "2 hours", "90MIN", "1hr".
// Only the first match counts, so "1 hr 30 min" is one hour.
var durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(hour|minute|hr|min)`)

// ParseDuration reads a free-text duration. It never fails: anything it cannot use yields
// DefaultDuration.
func ParseDuration(text string) time.Duration {
	match := durationPattern.FindStringSubmatch(text)
	if match == nil {
		return DefaultDuration
	}

	quantity, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || quantity <= 0 {
		return DefaultDuration
	}

	unit := time.Minute
	token := strings.ToLower(match[2])
	if strings.Contains(token, "hour") || strings.Contains(token, "hr") {
		unit = time.Hour
	}
	if quantity > math.MaxInt64/int64(unit) {
		return DefaultDuration
	}
	return time.Duration(quantity) * unit
}
