package capture

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/balkashynov/bitelog/internal/models"
	"github.com/balkashynov/bitelog/internal/motion"
)

// State is the capture engine state.
type State int

const (
	StateIdle State = iota
	StateConfiguringPreview
	StatePreviewing
	StateRecording
	StateFinishing
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateConfiguringPreview:
		return "configuring"
	case StatePreviewing:
		return "previewing"
	case StateRecording:
		return "recording"
	case StateFinishing:
		return "finishing"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// LogPathFor returns the motion log path that accompanies a video target.
func LogPathFor(target string) string {
	return strings.TrimSuffix(target, filepath.Ext(target)) + ".csv"
}

// Recording describes a finished recording.
type Recording struct {
	VideoPath string
	LogPath   string // empty when no motion was captured
	Category  models.Category
	Paused    bool // ended by motion loss rather than by the user
	Frames    int64
	Dropped   int64
	Cancelled bool
	Err       error // finalization error, if any
}

// Options tunes an Engine.
type Options struct {
	FlushInterval time.Duration
	// PostProcess runs after the log is closed and before onDone.
	// Its error is logged and otherwise ignored.
	PostProcess func(Recording) error
	// OnSample sees every ingested motion sample, e.g. for live display.
	OnSample func(models.RawSample)
	// OnMotionStatus receives live connection reports from the motion source.
	OnMotionStatus func(connected bool)
	// OnFlushError receives motion log flush failures, including the final one.
	OnFlushError func(error)
	Logger       *slog.Logger
}

// Engine owns the camera session, the video writer and the motion batcher
// for the recording in progress.
type Engine struct {
	camera    Camera
	motion    motion.Source
	newWriter WriterFactory
	opts      Options
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	configured bool

	// current is read by the frame callback without taking mu.
	current   atomic.Pointer[activeRecording]
	recording atomic.Bool
}

type activeRecording struct {
	target   string
	logPath  string
	category models.Category

	log     *os.File
	batcher *motion.Batcher
	writer  VideoWriter

	frames     chan Frame
	quit       chan struct{}
	workerDone chan struct{}

	appended atomic.Int64
	dropped  atomic.Int64
}

// NewEngine creates an engine. src may be nil when there is no motion hardware.
func NewEngine(camera Camera, src motion.Source, newWriter WriterFactory, opts Options) *Engine {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = motion.DefaultFlushInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		camera:    camera,
		motion:    src,
		newWriter: newWriter,
		opts:      opts,
		logger:    logger,
	}
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Recording reports whether a recording is in progress.
func (e *Engine) Recording() bool {
	return e.recording.Load()
}

// Stats returns appended and dropped frame counts of the active recording.
func (e *Engine) Stats() (frames, dropped int64) {
	rec := e.current.Load()
	if rec == nil {
		return 0, 0
	}
	return rec.appended.Load(), rec.dropped.Load()
}

// Configure builds the camera session once. Later calls are no-ops.
func (e *Engine) Configure() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.configureLocked()
}

func (e *Engine) configureLocked() error {
	if e.configured {
		return nil
	}
	prev := e.state
	e.state = StateConfiguringPreview
	if err := e.camera.Configure(); err != nil {
		e.state = prev
		return fmt.Errorf("configure camera: %w", err)
	}
	e.camera.SetFrameHandler(e.handleFrame)
	e.configured = true
	e.state = prev
	return nil
}

// StartPreview starts the camera session. Safe to call repeatedly.
func (e *Engine) StartPreview() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.configureLocked(); err != nil {
		return err
	}
	if !e.camera.Running() {
		if err := e.camera.Start(); err != nil {
			return fmt.Errorf("start camera: %w", err)
		}
	}
	if e.state == StateIdle {
		e.state = StatePreviewing
	}
	return nil
}

// StopPreview stops the camera session without touching recording state.
// The camera is stopped outside mu since Stop may wait on a frame callback.
func (e *Engine) StopPreview() {
	if e.camera.Running() {
		e.camera.Stop()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePreviewing && !e.camera.Running() {
		e.state = StateIdle
	}
}

// StartRecording begins writing target and its motion log. It is valid
// while previewing or paused; on failure the state is left unchanged.
func (e *Engine) StartRecording(target string, category models.Category) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePreviewing && e.state != StatePaused {
		return fmt.Errorf("%w: cannot start recording while %s", ErrInvalidState, e.state)
	}

	rec := &activeRecording{
		target:     target,
		logPath:    LogPathFor(target),
		category:   category,
		frames:     make(chan Frame),
		quit:       make(chan struct{}),
		workerDone: make(chan struct{}),
	}

	logFile, err := os.Create(rec.logPath)
	if err != nil {
		return fmt.Errorf("%w: create motion log: %v", ErrIOFailure, err)
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		logFile.Close()
		os.Remove(rec.logPath)
		return fmt.Errorf("%w: replace video file: %v", ErrIOFailure, err)
	}
	writer, err := e.newWriter(target)
	if err != nil {
		logFile.Close()
		os.Remove(rec.logPath)
		return fmt.Errorf("%w: %v", ErrWriterSetupFailed, err)
	}
	rec.writer = writer
	rec.log = logFile
	rec.batcher = motion.NewBatcher(logFile, e.logger)
	rec.batcher.OnError(e.opts.OnFlushError)

	if err := e.startMotion(rec); err != nil {
		e.logger.Warn("motion unavailable, recording video only", "path", target, "err", err)
		logFile.Close()
		os.Remove(rec.logPath)
		rec.log, rec.batcher, rec.logPath = nil, nil, ""
	} else {
		rec.batcher.Start(e.opts.FlushInterval)
	}

	go rec.writeLoop()

	e.current.Store(rec)
	e.state = StateRecording
	e.recording.Store(true)
	e.logger.Info("recording started", "path", target, "category", category.String())
	return nil
}

func (e *Engine) startMotion(rec *activeRecording) error {
	if e.motion == nil {
		return ErrDeviceUnavailable
	}
	onSample := e.opts.OnSample
	return e.motion.Start(func(s models.RawSample) {
		rec.batcher.Ingest(s)
		if onSample != nil {
			onSample(s)
		}
	}, e.opts.OnMotionStatus)
}

// handleFrame hands a frame to the writer goroutine if it is idle and drops
// it otherwise.
func (e *Engine) handleFrame(f Frame) {
	if !e.recording.Load() {
		return
	}
	rec := e.current.Load()
	if rec == nil {
		return
	}

	select {
	case rec.frames <- f:
	default:
		rec.dropped.Add(1)
	}
}

func (r *activeRecording) writeLoop() {
	defer close(r.workerDone)
	for {
		select {
		case f := <-r.frames:
			if !r.writer.Ready() {
				r.dropped.Add(1)
				continue
			}
			if err := r.writer.Append(f); err != nil {
				r.dropped.Add(1)
				continue
			}
			r.appended.Add(1)
		case <-r.quit:
			return
		}
	}
}

// Stop ends the recording. Only the first call while recording has any
// effect; it returns false otherwise. onDone runs once finalization is over.
// The camera keeps running.
func (e *Engine) Stop(onDone func(Recording)) bool {
	return e.finish(false, onDone)
}

// Pause runs the stop sequence for an involuntary motion loss and leaves the
// engine in StatePaused so recording can start again.
func (e *Engine) Pause(onDone func(Recording)) bool {
	return e.finish(true, onDone)
}

func (e *Engine) finish(paused bool, onDone func(Recording)) bool {
	if !e.recording.CompareAndSwap(true, false) {
		return false
	}

	rec := e.current.Load()
	e.mu.Lock()
	e.state = StateFinishing
	e.mu.Unlock()

	if rec.batcher != nil {
		e.motion.Stop()
		if err := rec.batcher.Stop(); err != nil {
			e.logger.Warn("final motion flush failed", "path", rec.logPath, "err", err)
			if e.opts.OnFlushError != nil {
				e.opts.OnFlushError(err)
			}
		}
	}

	close(rec.quit)
	<-rec.workerDone

	result := Recording{
		VideoPath: rec.target,
		LogPath:   rec.logPath,
		Category:  rec.category,
		Paused:    paused,
	}

	complete := func(err error) {
		if rec.log != nil {
			if cerr := rec.log.Close(); cerr != nil {
				e.logger.Warn("close motion log", "path", rec.logPath, "err", cerr)
			}
		}
		result.Err = err
		result.Frames = rec.appended.Load()
		result.Dropped = rec.dropped.Load()

		if e.opts.PostProcess != nil {
			if perr := e.opts.PostProcess(result); perr != nil {
				e.logger.Warn("post-process failed", "path", rec.logPath, "err", perr)
			}
		}

		e.current.Store(nil)
		e.mu.Lock()
		switch {
		case paused:
			e.state = StatePaused
		case e.camera.Running():
			e.state = StatePreviewing
		default:
			e.state = StateIdle
		}
		e.mu.Unlock()

		e.logger.Info("recording finished", "path", rec.target, "frames", result.Frames,
			"dropped", result.Dropped, "paused", paused)
		if onDone != nil {
			onDone(result)
		}
	}

	if rec.writer.Status() == WriterWriting {
		rec.writer.MarkInputFinished()
		rec.writer.Finish(complete)
	} else {
		rec.writer.Cancel()
		result.Cancelled = true
		complete(nil)
	}
	return true
}

// Shutdown stops an active recording, waits for it to finalize, and stops the camera.
func (e *Engine) Shutdown() {
	done := make(chan struct{})
	if e.Stop(func(Recording) { close(done) }) {
		<-done
	}
	e.StopPreview()
}

// ClearPause leaves StatePaused without recording again.
func (e *Engine) ClearPause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return
	}
	if e.camera.Running() {
		e.state = StatePreviewing
	} else {
		e.state = StateIdle
	}
}
