package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockRegex = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{1,2}(?:\.\d+)?)$`)

// ParseOffset parses a position on the session timeline into seconds.
// Supported formats:
// - plain seconds (e.g., "83.5")
// - Go durations (e.g., "83.5s", "1m23.5s", "250ms")
// - clock notation (e.g., "1:23.5", "0:01:23.5")
func ParseOffset(input string) (float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("empty time")
	}

	// Plain seconds first
	if v, err := strconv.ParseFloat(input, 64); err == nil {
		return checkOffset(v)
	}

	if d, err := time.ParseDuration(input); err == nil {
		return checkOffset(d.Seconds())
	}

	if v, err := parseClock(input); err == nil {
		return checkOffset(v)
	}

	return 0, fmt.Errorf("invalid time %q. Use: 83.5, 83.5s, 1m23s or 1:23.5", input)
}

// parseClock parses [h:]mm:ss[.fff]
func parseClock(input string) (float64, error) {
	matches := clockRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return 0, fmt.Errorf("invalid clock format")
	}

	hours := 0
	if matches[1] != "" {
		hours, _ = strconv.Atoi(matches[1])
	}
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.ParseFloat(matches[3], 64)

	if matches[1] != "" && minutes > 59 {
		return 0, fmt.Errorf("minutes must be between 0 and 59")
	}
	if seconds >= 60 {
		return 0, fmt.Errorf("seconds must be below 60")
	}

	return float64(hours*3600+minutes*60) + seconds, nil
}

func checkOffset(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("time must be a finite number")
	}
	if v < 0 {
		return 0, fmt.Errorf("time cannot be negative")
	}
	return v, nil
}

// FormatOffset renders seconds as m:ss.fff for display.
func FormatOffset(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
