package labeling

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/balkashynov/bitelog/internal/motion"
)

// logText is a motion log split into lines, with the label column ensured.
type logText struct {
	lines    []string
	labelIdx int
	tsIdx    int
}

func readLog(path string) (*logText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	if strings.TrimSpace(lines[0]) == "" {
		return nil, nil
	}

	header := strings.Split(lines[0], ",")
	l := &logText{lines: lines, labelIdx: -1, tsIdx: -1}
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case motion.ColLabel:
			if l.labelIdx < 0 {
				l.labelIdx = i
			}
		case motion.ColTimestamp:
			if l.tsIdx < 0 {
				l.tsIdx = i
			}
		}
	}
	if l.labelIdx < 0 {
		header = append(header, motion.ColLabel)
		l.labelIdx = len(header) - 1
		lines[0] = strings.Join(header, ",")
	}
	return l, nil
}

// timestamp parses the timestamp column of line i.
func (l *logText) timestamp(i int) (float64, bool) {
	cols := strings.Split(l.lines[i], ",")
	if l.tsIdx < 0 || l.tsIdx >= len(cols) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cols[l.tsIdx]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// setLabel writes v into the label column of line i, padding short rows.
func (l *logText) setLabel(i int, v bool) {
	cols := strings.Split(l.lines[i], ",")
	for len(cols) <= l.labelIdx {
		cols = append(cols, "")
	}
	cols[l.labelIdx] = strconv.FormatBool(v)
	l.lines[i] = strings.Join(cols, ",")
}

func (l *logText) String() string {
	return strings.Join(l.lines, "\n")
}

// writeAtomic replaces path with content via a temp file in the same directory.
func writeAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
