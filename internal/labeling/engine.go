package labeling

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// MarkerStore persists a session's markers between editing sessions.
type MarkerStore interface {
	LoadMarkers(session string) ([]Marker, error)
	SaveMarkers(session string, markers []Marker) error
}

// Options configures an Engine.
type Options struct {
	// LogPath is the motion log relabeled after every mutation. Empty disables relabeling.
	LogPath string
	// Duration bounds MoveMarker. Zero or negative disables the upper bound.
	Duration float64
	Store    MarkerStore
	Logger   *slog.Logger
	// OnError receives persist and relabel failures. They never fail the mutation.
	OnError func(error)
}

// Engine holds the marker list of one session and keeps the bound log's
// label column in step with it.
type Engine struct {
	session string
	opts    Options
	logger  *slog.Logger

	mu       sync.Mutex
	markers  []Marker
	segments []Segment
	selected string
}

// NewEngine loads the session's markers from the store, if any.
func NewEngine(session string, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		session: session,
		opts:    opts,
		logger:  logger.With("session", session),
	}
	if opts.Store != nil {
		markers, err := opts.Store.LoadMarkers(session)
		if err != nil {
			return nil, err
		}
		e.markers = Normalize(markers)
		e.segments = Segments(e.markers)
	}
	return e, nil
}

// Session returns the session the engine edits.
func (e *Engine) Session() string { return e.session }

// Duration returns the upper bound used by MoveMarker.
func (e *Engine) Duration() float64 { return e.opts.Duration }

// AddMarker inserts a marker at t and returns it with its assigned kind.
func (e *Engine) AddMarker(t float64) Marker {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()
	e.markers = append(e.markers, Marker{ID: id, Time: t})
	e.commit()

	m, _ := e.find(id)
	return m
}

// MoveMarker moves marker id to t, clamped to the session duration.
// It reports false if no such marker exists.
func (e *Engine) MoveMarker(id string, t float64) (Marker, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.index(id)
	if idx < 0 {
		return Marker{}, false
	}
	e.markers[idx].Time = e.clamp(t)
	e.commit()

	m, _ := e.find(id)
	return m, true
}

// DeleteMarker removes marker id and clears the selection if it pointed at it.
func (e *Engine) DeleteMarker(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.index(id)
	if idx < 0 {
		return false
	}
	e.markers = append(e.markers[:idx], e.markers[idx+1:]...)
	if e.selected == id {
		e.selected = ""
	}
	e.commit()
	return true
}

// Select marks id as the selected marker. An unknown id clears the selection.
func (e *Engine) Select(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index(id) < 0 {
		e.selected = ""
		return
	}
	e.selected = id
}

// Selected returns the selected marker id, or "".
func (e *Engine) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// SegmentAt reports whether t lies inside a closed segment.
func (e *Engine) SegmentAt(t float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return LabeledAt(e.segments, t)
}

// NextMarkerKind returns the kind a marker added at t is expected to get.
func (e *Engine) NextMarkerKind(t float64) Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return NextKind(e.markers, t)
}

// HasUnclosedSegment reports a trailing start without a matching end.
func (e *Engine) HasUnclosedSegment() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return HasUnclosed(e.markers)
}

// Markers returns a copy of the normalized marker list.
func (e *Engine) Markers() []Marker {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Marker, len(e.markers))
	copy(out, e.markers)
	return out
}

// Segments returns a copy of the derived segments.
func (e *Engine) Segments() []Segment {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Segment, len(e.segments))
	copy(out, e.segments)
	return out
}

// Apply relabels the bound log with the current segments.
func (e *Engine) Apply() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.relabel()
}

func (e *Engine) clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if e.opts.Duration > 0 && t > e.opts.Duration {
		return e.opts.Duration
	}
	return t
}

func (e *Engine) index(id string) int {
	for i, m := range e.markers {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) find(id string) (Marker, bool) {
	if i := e.index(id); i >= 0 {
		return e.markers[i], true
	}
	return Marker{}, false
}

// commit re-normalizes, recomputes segments, persists and relabels. Called
// with mu held.
func (e *Engine) commit() {
	e.markers = Normalize(e.markers)
	e.segments = Segments(e.markers)

	if e.opts.Store != nil {
		if err := e.opts.Store.SaveMarkers(e.session, e.markers); err != nil {
			e.report("persist markers failed", err)
		}
	}
	if err := e.relabel(); err != nil {
		e.report("relabel failed", err)
	}
}

func (e *Engine) relabel() error {
	if e.opts.LogPath == "" {
		return nil
	}
	segs := e.segments
	return Relabel(e.opts.LogPath, func(t float64) bool {
		return LabeledAt(segs, t)
	})
}

func (e *Engine) report(msg string, err error) {
	e.logger.Warn(msg, "err", err)
	if e.opts.OnError != nil {
		e.opts.OnError(err)
	}
}
