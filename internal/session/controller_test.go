package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/balkashynov/bitelog/internal/capture"
	"github.com/balkashynov/bitelog/internal/hardware"
	"github.com/balkashynov/bitelog/internal/metadata"
	"github.com/balkashynov/bitelog/internal/models"
)

func steppingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type harness struct {
	ctrl   *Controller
	motion *hardware.SimMotion
	meta   *metadata.Store
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	meta, err := metadata.NewStore(&metadata.MemoryBackend{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	src := hardware.NewSimMotion(200)
	ctrl := New(hardware.NewSimCamera(100), src, capture.NewFrameFileWriter, meta, Options{
		Dir:          dir,
		VideoExt:     ".mjpeg",
		PollInterval: 20 * time.Millisecond,
		Now:          steppingClock(),
	})
	if err := ctrl.StartPreview(); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}
	t.Cleanup(ctrl.Shutdown)
	return &harness{ctrl: ctrl, motion: src, meta: meta, dir: dir}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNotEatingSessionIsStampedAndLabelled(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetCategory(models.CategoryNotEating)

	name, err := h.ctrl.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(name, "Not-eating-2026") {
		t.Errorf("name = %s", name)
	}
	time.Sleep(150 * time.Millisecond)

	var calls atomic.Int32
	done := make(chan Result, 2)
	onDone := func(r Result) {
		calls.Add(1)
		done <- r
	}
	if !h.ctrl.Stop(onDone) {
		t.Fatal("first Stop returned false")
	}
	if h.ctrl.Stop(onDone) {
		t.Error("second Stop should be a no-op")
	}

	res := <-done
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("onDone ran %d times", calls.Load())
	}
	if res.Name != name || res.LogPath == "" {
		t.Fatalf("result = %+v", res)
	}

	data, err := os.ReadFile(res.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[0] != "timestamp,dtNs,ax,ay,az,gx,gy,gz,label" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) < 2 {
		t.Fatal("no samples recorded")
	}
	for _, line := range lines[1:] {
		if !strings.HasSuffix(line, ",false") {
			t.Fatalf("row not stamped: %q", line)
		}
	}

	entry, ok := h.meta.Get(name)
	if !ok || !entry.Labelled || entry.Shared {
		t.Errorf("metadata = %+v, %v", entry, ok)
	}
	if _, err := os.Stat(filepath.Join(h.dir, name, name+".mjpeg")); err != nil {
		t.Errorf("video missing: %v", err)
	}
}

func TestEatingSessionNeedsLabeling(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetCategory(models.CategoryEating)

	name, err := h.ctrl.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := h.ctrl.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start err = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	res, ok := h.ctrl.StopAndWait()
	if !ok {
		t.Fatal("StopAndWait returned false")
	}
	data, _ := os.ReadFile(res.LogPath)
	if strings.Contains(string(data), "label") {
		t.Error("eating log should not be stamped")
	}
	if entry, _ := h.meta.Get(name); entry.Labelled {
		t.Error("eating session marked labelled")
	}
	if last, ok := h.ctrl.Last(); !ok || last.Name != name {
		t.Errorf("Last = %+v, %v", last, ok)
	}
}

func TestMotionLossPausesThenResumes(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.ctrl.Run(ctx)

	h.ctrl.SetCategory(models.CategoryEating)
	first, err := h.ctrl.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(80 * time.Millisecond)

	h.motion.SetAvailable(false)
	waitFor(t, "pause", func() bool { return h.ctrl.Snapshot().Phase == PhasePaused })

	last, _ := h.ctrl.Last()
	if last.Name != first || !last.Paused {
		t.Errorf("paused result = %+v", last)
	}
	if _, err := h.ctrl.Resume(); !errors.Is(err, ErrNotResumable) {
		t.Errorf("Resume before reconnect err = %v", err)
	}

	h.ctrl.SetCategory(models.CategoryNotEating)
	h.motion.SetAvailable(true)
	waitFor(t, "resume eligibility", func() bool { return h.ctrl.Snapshot().Phase == PhaseResumable })
	if h.ctrl.Engine().Recording() {
		t.Fatal("recording resumed without confirmation")
	}

	second, err := h.ctrl.Resume()
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if second == first || !strings.HasPrefix(second, "Eating-") {
		t.Errorf("resumed session = %s (first %s)", second, first)
	}
	if snap := h.ctrl.Snapshot(); snap.Phase != PhaseRecording || snap.Session != second {
		t.Errorf("snapshot = %+v", snap)
	}
	h.ctrl.StopAndWait()
}

func TestCheckReadinessRefusedWhileRecording(t *testing.T) {
	h := newHarness(t)
	if !h.ctrl.CheckReadiness(context.Background()) {
		t.Error("idle readiness probe failed")
	}
	if _, err := h.ctrl.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h.ctrl.CheckReadiness(context.Background()) {
		t.Error("probe should refuse while recording")
	}
	h.ctrl.StopAndWait()
}

// slowWriter delays finalization so the gap between stop and finish is visible.
type slowWriter struct {
	capture.VideoWriter
}

func (w slowWriter) Finish(done func(error)) {
	go func() {
		time.Sleep(100 * time.Millisecond)
		w.VideoWriter.Finish(done)
	}()
}

func TestPhaseStaysRecordingUntilFinalized(t *testing.T) {
	meta, _ := metadata.NewStore(&metadata.MemoryBackend{})
	ctrl := New(hardware.NewSimCamera(100), hardware.NewSimMotion(200),
		func(path string) (capture.VideoWriter, error) {
			w, err := capture.NewFrameFileWriter(path)
			if err != nil {
				return nil, err
			}
			return slowWriter{w}, nil
		}, meta, Options{Dir: t.TempDir(), Now: steppingClock()})
	if err := ctrl.StartPreview(); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}
	t.Cleanup(ctrl.Shutdown)

	if _, err := ctrl.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if !ctrl.Stop(nil) {
		t.Fatal("Stop returned false")
	}
	if ctrl.Engine().Recording() {
		t.Fatal("engine still recording after Stop")
	}
	if snap := ctrl.Snapshot(); snap.Phase != PhaseRecording {
		t.Errorf("phase = %s while finalizing, want recording", snap.Phase)
	}
	if _, err := ctrl.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Start while finalizing err = %v, want ErrAlreadyRunning", err)
	}

	waitFor(t, "idle phase", func() bool { return ctrl.Snapshot().Phase == PhaseIdle })
	if _, ok := ctrl.Last(); !ok {
		t.Error("phase went idle before the session was finished")
	}
}
