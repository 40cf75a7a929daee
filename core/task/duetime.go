package task

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var errBadDueTime = errors.New("invalid due time")

// ParseDueTime parses a 12-hour clock string of the exact form "HH:MM AM" /
// "HH:MM PM" (zero-padded, 01-12) and returns the 24-hour clock equivalent.
// Anything else is an error; callers decide whether that is fatal (form
// validation) or means "skip" (deadline scanning).
func ParseDueTime(s string) (hour, minute int, err error) {
	parts := strings.Split(s, " ")
	if len(parts) != 2 {
		return 0, 0, errBadDueTime
	}
	clock, marker := parts[0], parts[1]
	if marker != "AM" && marker != "PM" {
		return 0, 0, errBadDueTime
	}

	clockParts := strings.Split(clock, ":")
	if len(clockParts) != 2 || len(clockParts[0]) != 2 || len(clockParts[1]) != 2 {
		return 0, 0, errBadDueTime
	}

	hour, err = strconv.Atoi(clockParts[0])
	if err != nil {
		return 0, 0, errBadDueTime
	}
	minute, err = strconv.Atoi(clockParts[1])
	if err != nil {
		return 0, 0, errBadDueTime
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, 0, errBadDueTime
	}

	// 12-hour -> 24-hour
	if marker == "PM" && hour < 12 {
		hour += 12
	}
	if marker == "AM" && hour == 12 {
		hour = 0
	}
	return hour, minute, nil
}
