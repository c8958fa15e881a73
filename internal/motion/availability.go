package motion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/balkashynov/bitelog/internal/models"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultProbeTimeout = 1500 * time.Millisecond
)

// MonitorOptions configures a Monitor. Zero values fall back to the defaults.
type MonitorOptions struct {
	PollInterval time.Duration
	ProbeTimeout time.Duration
	// Recording reports whether a capture is in progress; the readiness
	// probe refuses to run while it returns true.
	Recording func() bool
	Logger    *slog.Logger
}

// Monitor tracks motion hardware availability by polling the source and by
// accepting live status reports from a running recording.
type Monitor struct {
	src  Source
	opts MonitorOptions

	mu        sync.Mutex
	known     bool
	available bool
	onChange  func(available bool)
}

// NewMonitor creates a monitor for src.
func NewMonitor(src Source, opts MonitorOptions) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Monitor{src: src, opts: opts}
}

// OnChange registers the transition callback. It is called outside the
// monitor's lock, once per actual change of availability.
func (m *Monitor) OnChange(fn func(available bool)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Available returns the last observed availability.
func (m *Monitor) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Report feeds an observation into the monitor.
func (m *Monitor) Report(available bool) {
	m.mu.Lock()
	if m.known && m.available == available {
		m.mu.Unlock()
		return
	}
	m.known = true
	m.available = available
	fn := m.onChange
	m.mu.Unlock()

	m.opts.Logger.Debug("motion availability changed", "available", available)
	if fn != nil {
		fn(available)
	}
}

// Run polls the source until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.Report(m.src.Available())

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Report(m.src.Available())
		}
	}
}

// CheckReadiness starts a temporary listener on the source and reports
// whether a sample arrives within the probe timeout. It always reports false
// while a recording is active.
func (m *Monitor) CheckReadiness(ctx context.Context) bool {
	if m.opts.Recording != nil && m.opts.Recording() {
		return false
	}

	got := make(chan struct{}, 1)
	err := m.src.Start(func(models.RawSample) {
		select {
		case got <- struct{}{}:
		default:
		}
	}, nil)
	if err != nil {
		m.opts.Logger.Debug("readiness probe could not start", "err", err)
		return false
	}
	defer m.src.Stop()

	timer := time.NewTimer(m.opts.ProbeTimeout)
	defer timer.Stop()

	select {
	case <-got:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
