package motion

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/balkashynov/bitelog/internal/models"
)

// Column names of the motion log.
const (
	ColTimestamp = "timestamp"
	ColLabel     = "label"
)

// Header is the header row written to every new motion log.
var Header = []string{ColTimestamp, "dtNs", "ax", "ay", "az", "gx", "gy", "gz"}

// HeaderLine returns the header as it appears in the file, newline included.
func HeaderLine() string {
	return strings.Join(Header, ",") + "\n"
}

// ClampOffset converts a window-relative delta to the fixed-point offset.
// Negative deltas become 0 and anything past the uint32 range saturates.
func ClampOffset(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	if int64(d) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(d)
}

// FormatRow renders one log row without a trailing newline.
func FormatRow(row models.LogRow) string {
	var b strings.Builder
	b.WriteString(strconv.FormatFloat(row.Timestamp, 'f', 9, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(uint64(row.TimeOffsetNanos), 10))
	for _, v := range []float64{row.Accel.X, row.Accel.Y, row.Accel.Z, row.Gyro.X, row.Gyro.Y, row.Gyro.Z} {
		b.WriteByte(',')
		b.WriteString(ftoa(v))
	}
	if row.Label != nil {
		b.WriteByte(',')
		b.WriteString(strconv.FormatBool(*row.Label))
	}
	return b.String()
}

// UnixSeconds converts a host-clock time to fractional seconds.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
