package motion

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/balkashynov/bitelog/internal/models"
)

// DefaultFlushInterval is the batching cadence.
const DefaultFlushInterval = 10 * time.Millisecond

// LogSink is the durable target of a batcher. *os.File satisfies it.
type LogSink interface {
	io.Writer
	Sync() error
	Stat() (os.FileInfo, error)
}

// Batcher buffers motion samples and appends them to a log on a fixed cadence.
// Ingest and Flush are mutually exclusive on the buffer.
type Batcher struct {
	mu          sync.Mutex
	sink        LogSink
	buf         []models.MotionSample
	windowStart time.Time
	flushed     int

	logger  *slog.Logger
	onError func(error)
	stop    chan struct{}
	done   chan struct{}
}

// NewBatcher creates a batcher writing to sink.
func NewBatcher(sink LogSink, logger *slog.Logger) *Batcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batcher{sink: sink, logger: logger}
}

// OnError registers fn to receive cadence flush failures.
func (b *Batcher) OnError(fn func(error)) {
	b.mu.Lock()
	b.onError = fn
	b.mu.Unlock()
}

// Ingest appends a sample to the open window. The first sample of a window
// fixes the window start; later samples are stamped relative to it.
func (b *Batcher) Ingest(s models.RawSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buf) == 0 {
		b.windowStart = s.Timestamp
	}
	b.buf = append(b.buf, models.MotionSample{
		TimeOffsetNanos: ClampOffset(s.Timestamp.Sub(b.windowStart)),
		Accel:           s.Accel,
		Gyro:            s.Gyro,
	})
}

// Buffered returns the number of samples waiting for the next flush.
func (b *Batcher) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Flushed returns the number of rows written so far.
func (b *Batcher) Flushed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushed
}

// Flush writes the buffered window to the sink in one durable write.
// The header is written only when the sink is empty. An empty buffer is a no-op.
func (b *Batcher) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buf) == 0 {
		return nil
	}

	var out strings.Builder
	info, err := b.sink.Stat()
	if err != nil {
		return fmt.Errorf("stat motion log: %w", err)
	}
	if info.Size() == 0 {
		out.WriteString(HeaderLine())
	}

	base := UnixSeconds(b.windowStart)
	for _, s := range b.buf {
		out.WriteString(FormatRow(models.LogRow{
			Timestamp:       base + float64(s.TimeOffsetNanos)/1e9,
			TimeOffsetNanos: s.TimeOffsetNanos,
			Accel:           s.Accel,
			Gyro:            s.Gyro,
		}))
		out.WriteByte('\n')
	}

	if _, err := io.WriteString(b.sink, out.String()); err != nil {
		return fmt.Errorf("write motion log: %w", err)
	}
	if err := b.sink.Sync(); err != nil {
		return fmt.Errorf("sync motion log: %w", err)
	}

	b.flushed += len(b.buf)
	b.buf = b.buf[:0]
	b.windowStart = time.Time{}
	return nil
}

// Start runs Flush every interval until Stop is called.
func (b *Batcher) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	b.mu.Lock()
	if b.stop != nil {
		b.mu.Unlock()
		return
	}
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	stop, done := b.stop, b.done
	b.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := b.Flush(); err != nil {
					b.logger.Warn("motion flush failed", "err", err)
					b.mu.Lock()
					fn := b.onError
					b.mu.Unlock()
					if fn != nil {
						fn(err)
					}
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop cancels the cadence, waits for an in-flight flush and then flushes
// whatever is still buffered.
func (b *Batcher) Stop() error {
	b.mu.Lock()
	stop, done := b.stop, b.done
	b.stop, b.done = nil, nil
	b.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return b.Flush()
}
