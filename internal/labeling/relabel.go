package labeling

import (
	"fmt"
	"strings"
)

// Relabel writes true/false into the label column of every row with a
// parsable timestamp, according to labeled(t - base) where base is the first
// parsable timestamp. Rows without a parsable timestamp are left untouched.
// A log without a timestamp column is not modified. Running Relabel twice
// with the same predicate yields identical files.
func Relabel(path string, labeled func(relative float64) bool) error {
	l, err := readLog(path)
	if err != nil {
		return fmt.Errorf("read motion log: %w", err)
	}
	if l == nil || l.tsIdx < 0 {
		return nil
	}

	base, found := 0.0, false
	for i := 1; i < len(l.lines); i++ {
		if ts, ok := l.timestamp(i); ok {
			base, found = ts, true
			break
		}
	}

	for i := 1; i < len(l.lines); i++ {
		if !found || strings.TrimSpace(l.lines[i]) == "" {
			continue
		}
		ts, ok := l.timestamp(i)
		if !ok {
			continue
		}
		l.setLabel(i, labeled(max(0, ts-base)))
	}

	return writeAtomic(path, l.String())
}

// StampAll sets the label column of every data row to value, adding the
// column to the header if it is missing.
func StampAll(path string, value bool) error {
	l, err := readLog(path)
	if err != nil {
		return fmt.Errorf("read motion log: %w", err)
	}
	if l == nil {
		return nil
	}
	for i := 1; i < len(l.lines); i++ {
		if strings.TrimSpace(l.lines[i]) == "" {
			continue
		}
		l.setLabel(i, value)
	}
	return writeAtomic(path, l.String())
}

// Span returns the time between the first and last parsable timestamps of a
// motion log.
func Span(path string) (float64, error) {
	l, err := readLog(path)
	if err != nil {
		return 0, fmt.Errorf("read motion log: %w", err)
	}
	if l == nil || l.tsIdx < 0 {
		return 0, nil
	}

	first, last, seen := 0.0, 0.0, false
	for i := 1; i < len(l.lines); i++ {
		ts, ok := l.timestamp(i)
		if !ok {
			continue
		}
		if !seen {
			first, seen = ts, true
		}
		last = ts
	}
	return max(0, last-first), nil
}
