package hardware

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/balkashynov/bitelog/internal/capture"
	"github.com/balkashynov/bitelog/internal/models"
	"github.com/balkashynov/bitelog/internal/motion"
)

// SimMotion simulates headphone motion sensors. Availability can be toggled
// at runtime to exercise connection loss.
type SimMotion struct {
	Hz int

	mu        sync.Mutex
	available bool
	onSample  motion.SampleHandler
	onStatus  motion.StatusHandler
	stop      chan struct{}
	done      chan struct{}
}

// NewSimMotion returns an available simulated source sampling at hz.
func NewSimMotion(hz int) *SimMotion {
	if hz <= 0 {
		hz = 100
	}
	return &SimMotion{Hz: hz, available: true}
}

func (m *SimMotion) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// SetAvailable connects or disconnects the simulated device. A running
// source reports the change through its status handler.
func (m *SimMotion) SetAvailable(available bool) {
	m.mu.Lock()
	changed := m.available != available
	m.available = available
	status := m.onStatus
	running := m.stop != nil
	m.mu.Unlock()

	slog.Debug("[SIM] Motion availability", "available", available)
	if changed && running && status != nil {
		status(available)
	}
}

func (m *SimMotion) Start(onSample motion.SampleHandler, onStatus motion.StatusHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return capture.ErrDeviceUnavailable
	}
	if m.stop != nil {
		return nil
	}
	m.onSample = onSample
	m.onStatus = onStatus
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run(m.stop, m.done)
	return nil
}

func (m *SimMotion) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.onSample, m.onStatus = nil, nil
	m.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (m *SimMotion) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / time.Duration(m.Hz))
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			h := m.onSample
			ok := m.available
			m.mu.Unlock()
			if h == nil || !ok {
				continue
			}
			h(synthSample(now, now.Sub(start).Seconds()))
		}
	}
}

// synthSample produces a slow head-nod pattern on top of gravity.
func synthSample(now time.Time, t float64) models.RawSample {
	nod := math.Sin(2 * math.Pi * 0.5 * t)
	return models.RawSample{
		Timestamp: now,
		Accel:     models.Vec3{X: 0.02 * nod, Y: -0.98, Z: 0.05 * nod},
		Gyro:      models.Vec3{X: 0.3 * nod, Y: 0.01, Z: -0.02},
	}
}
