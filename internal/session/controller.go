// Package session runs recording sessions: naming, folders, pause/resume on
// motion loss, and the labelled/shared bookkeeping of finished sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/balkashynov/bitelog/internal/capture"
	"github.com/balkashynov/bitelog/internal/labeling"
	"github.com/balkashynov/bitelog/internal/metadata"
	"github.com/balkashynov/bitelog/internal/models"
	"github.com/balkashynov/bitelog/internal/motion"
)

var (
	ErrNotResumable    = errors.New("no paused session to resume")
	ErrAlreadyRunning  = errors.New("a recording is already in progress")
	ErrSessionNotFound = errors.New("session not found")
)

// Phase is the caller-facing recording state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhasePaused
	PhaseResumable
)

func (p Phase) String() string {
	switch p {
	case PhaseRecording:
		return "recording"
	case PhasePaused:
		return "paused"
	case PhaseResumable:
		return "resumable"
	default:
		return "idle"
	}
}

// Result describes a finished session.
type Result struct {
	Name string
	capture.Recording
}

// Alert is a non-fatal problem worth showing to the user.
type Alert struct {
	Time    time.Time
	Message string
	Err     error
}

// Snapshot is the state exposed to a UI.
type Snapshot struct {
	Phase     Phase
	Category  models.Category
	Session   string
	Available bool
	Accel     models.Vec3
	Status    string
	Frames    int64
	Dropped   int64
}

// Options configures a Controller.
type Options struct {
	Dir             string
	VideoExt        string
	FlushInterval   time.Duration
	PollInterval    time.Duration
	ProbeTimeout    time.Duration
	DefaultCategory models.Category
	Markers         labeling.MarkerStore
	Logger          *slog.Logger
	Now             func() time.Time
}

// Controller is the top-level orchestrator for recording sessions.
type Controller struct {
	engine  *capture.Engine
	monitor *motion.Monitor
	meta    *metadata.Store
	opts    Options
	logger  *slog.Logger

	alerts chan Alert

	mu             sync.Mutex
	category       models.Category
	current        string
	finishing      bool
	paused         bool
	pausedCategory models.Category
	resumeEligible bool
	status         string
	accel          models.Vec3
	last           *Result
}

// New builds a controller and its capture engine. src may be nil.
func New(camera capture.Camera, src motion.Source, newWriter capture.WriterFactory, meta *metadata.Store, opts Options) *Controller {
	if opts.VideoExt == "" {
		opts.VideoExt = ".mjpeg"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		meta:     meta,
		opts:     opts,
		logger:   logger,
		alerts:   make(chan Alert, 16),
		category: opts.DefaultCategory,
		status:   "Ready",
	}

	var monitor *motion.Monitor
	c.engine = capture.NewEngine(camera, src, newWriter, capture.Options{
		FlushInterval: opts.FlushInterval,
		PostProcess:   c.postProcess,
		OnSample:      c.onSample,
		OnMotionStatus: func(connected bool) {
			if monitor != nil {
				monitor.Report(connected)
			}
		},
		OnFlushError: func(err error) {
			c.alert("motion log flush failed", err)
		},
		Logger: logger,
	})

	if src != nil {
		monitor = motion.NewMonitor(src, motion.MonitorOptions{
			PollInterval: opts.PollInterval,
			ProbeTimeout: opts.ProbeTimeout,
			Recording:    c.engine.Recording,
			Logger:       logger,
		})
		monitor.OnChange(c.availabilityChanged)
	}
	c.monitor = monitor
	return c
}

// Engine exposes the capture engine.
func (c *Controller) Engine() *capture.Engine { return c.engine }

// Alerts delivers non-fatal problems. Alerts are dropped when nobody reads.
func (c *Controller) Alerts() <-chan Alert { return c.alerts }

// Run watches motion availability until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	if c.monitor == nil {
		<-ctx.Done()
		return
	}
	c.monitor.Run(ctx)
}

// CheckReadiness probes the motion hardware once. It is false while recording.
func (c *Controller) CheckReadiness(ctx context.Context) bool {
	if c.monitor == nil {
		return false
	}
	return c.monitor.CheckReadiness(ctx)
}

// SetCategory selects the category for the next recording.
func (c *Controller) SetCategory(cat models.Category) {
	c.mu.Lock()
	c.category = cat
	c.mu.Unlock()
}

// Category returns the category of the next recording.
func (c *Controller) Category() models.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// StartPreview starts the camera.
func (c *Controller) StartPreview() error {
	return c.engine.StartPreview()
}

// Start begins a new session with the selected category and returns its name.
func (c *Controller) Start() (string, error) {
	c.mu.Lock()
	cat := c.category
	c.mu.Unlock()
	return c.start(cat)
}

// Resume starts a new session with the category of the paused one. It is
// only valid after motion came back during a pause.
func (c *Controller) Resume() (string, error) {
	c.mu.Lock()
	if !c.paused || !c.resumeEligible {
		c.mu.Unlock()
		return "", ErrNotResumable
	}
	cat := c.pausedCategory
	c.category = cat
	c.mu.Unlock()
	return c.start(cat)
}

func (c *Controller) start(cat models.Category) (string, error) {
	c.mu.Lock()
	busy := c.finishing
	c.mu.Unlock()
	if busy || c.engine.Recording() {
		return "", ErrAlreadyRunning
	}

	id := models.SessionIdentity{Category: cat, CreatedAt: c.opts.Now()}
	name := id.Name()
	folder := filepath.Join(c.opts.Dir, name)

	_, statErr := os.Stat(folder)
	created := os.IsNotExist(statErr)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("%w: create session folder: %v", capture.ErrIOFailure, err)
	}

	target := filepath.Join(folder, name+c.opts.VideoExt)
	if err := c.engine.StartRecording(target, cat); err != nil {
		if created {
			os.RemoveAll(folder)
		}
		return "", err
	}

	c.mu.Lock()
	c.current = name
	c.paused = false
	c.resumeEligible = false
	c.status = "Recording " + name
	c.mu.Unlock()

	c.logger.Info("session started", "session", name, "category", cat.String())
	return name, nil
}

// Stop ends the current session. It returns false if nothing was recording.
// onDone runs after the session's files are finalized and its metadata is set.
func (c *Controller) Stop(onDone func(Result)) bool {
	name, claimed := c.beginFinish()
	if !claimed && name != "" {
		return false
	}
	ok := c.engine.Stop(func(rec capture.Recording) {
		c.finished(name, rec, onDone)
	})
	if !ok && claimed {
		c.abortFinish()
	}
	return ok
}

// beginFinish marks the session as finalizing so the phase stays
// PhaseRecording until finished has run.
// It reports false when there is no session or another stop owns it.
func (c *Controller) beginFinish() (name string, claimed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == "" || c.finishing {
		return c.current, false
	}
	c.finishing = true
	c.status = "Saving " + c.current
	return c.current, true
}

func (c *Controller) abortFinish() {
	c.mu.Lock()
	c.finishing = false
	c.mu.Unlock()
}

// StopAndWait stops the current session and blocks until it is finalized.
func (c *Controller) StopAndWait() (Result, bool) {
	done := make(chan Result, 1)
	if !c.Stop(func(r Result) { done <- r }) {
		return Result{}, false
	}
	return <-done, true
}

// Discard leaves the paused state without resuming.
func (c *Controller) Discard() {
	c.mu.Lock()
	c.paused = false
	c.resumeEligible = false
	c.status = "Ready"
	c.mu.Unlock()
	c.engine.ClearPause()
}

// Shutdown stops any recording, waits for it, and stops the camera.
func (c *Controller) Shutdown() {
	c.StopAndWait()
	c.engine.Shutdown()
}

// Last returns the most recently finished session.
func (c *Controller) Last() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Result{}, false
	}
	return *c.last, true
}

// Snapshot returns the state for display.
func (c *Controller) Snapshot() Snapshot {
	frames, dropped := c.engine.Stats()
	recording := c.engine.Recording()
	available := false
	if c.monitor != nil {
		available = c.monitor.Available()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Category:  c.category,
		Session:   c.current,
		Available: available,
		Accel:     c.accel,
		Status:    c.status,
		Frames:    frames,
		Dropped:   dropped,
	}
	switch {
	case recording || c.finishing:
		s.Phase = PhaseRecording
	case c.paused && c.resumeEligible:
		s.Phase = PhaseResumable
	case c.paused:
		s.Phase = PhasePaused
	default:
		s.Phase = PhaseIdle
	}
	return s
}

func (c *Controller) onSample(s models.RawSample) {
	c.mu.Lock()
	c.accel = s.Accel
	c.mu.Unlock()
}

// availabilityChanged may be called from a hardware callback, so the pause
// runs on its own goroutine.
func (c *Controller) availabilityChanged(available bool) {
	if !available {
		c.mu.Lock()
		if c.paused {
			c.resumeEligible = false
			c.status = "Motion lost, recording paused"
		}
		c.mu.Unlock()
		if !c.engine.Recording() {
			return
		}
		go func() {
			name, claimed := c.beginFinish()
			if !claimed {
				return
			}
			if !c.engine.Pause(func(rec capture.Recording) {
				c.finished(name, rec, nil)
			}) {
				c.abortFinish()
			}
		}()
		return
	}

	c.mu.Lock()
	notify := c.paused && !c.resumeEligible
	if c.paused {
		c.resumeEligible = true
		c.status = "Motion reconnected, resume available"
	}
	c.mu.Unlock()
	if notify {
		c.alert("motion reconnected, resume available", nil)
	}
}

// postProcess runs before the log file is handed back. Not-eating sessions
// are false everywhere, so their log is stamped at once.
func (c *Controller) postProcess(rec capture.Recording) error {
	if rec.LogPath == "" || rec.Category.RequiresLabeling() {
		return nil
	}
	if err := labeling.StampAll(rec.LogPath, false); err != nil {
		c.alert("label stamping failed", err)
		return err
	}
	return nil
}

func (c *Controller) finished(name string, rec capture.Recording, onDone func(Result)) {
	result := Result{Name: name, Recording: rec}

	if err := c.meta.SetLabelled(!rec.Category.RequiresLabeling(), name); err != nil {
		c.logger.Warn("save session metadata failed", "session", name, "err", err)
		c.alert("could not save session metadata", err)
	}
	if rec.Err != nil {
		c.alert("video finalization failed", rec.Err)
	}

	c.mu.Lock()
	c.last = &result
	c.current = ""
	c.finishing = false
	if rec.Paused {
		c.paused = true
		c.pausedCategory = rec.Category
		c.resumeEligible = c.monitor != nil && c.monitor.Available()
		c.status = "Motion lost, recording paused"
	} else {
		c.status = "Saved " + name
	}
	c.mu.Unlock()

	if rec.Paused {
		c.alert("motion lost, recording paused", nil)
	}
	c.logger.Info("session finished", "session", name, "paused", rec.Paused,
		"frames", rec.Frames, "dropped", rec.Dropped)

	if onDone != nil {
		onDone(result)
	}
}

func (c *Controller) alert(msg string, err error) {
	if err != nil {
		c.logger.Warn(msg, "err", err)
	}
	select {
	case c.alerts <- Alert{Time: c.opts.Now(), Message: msg, Err: err}:
	default:
	}
}
