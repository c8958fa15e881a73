// Package labeling turns user-placed time markers into labeled segments and
// writes those labels into a motion log.
package labeling

import (
	"fmt"
	"sort"
)

// Kind is the role of a marker. It is derived from the marker's rank and is
// never set independently.
type Kind int

const (
	SegmentStart Kind = iota
	SegmentEnd
)

func (k Kind) String() string {
	if k == SegmentEnd {
		return "end"
	}
	return "start"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "start":
		return SegmentStart, nil
	case "end":
		return SegmentEnd, nil
	}
	return SegmentStart, fmt.Errorf("unknown marker kind %q", s)
}

// Marker is a time point on the session timeline, in seconds.
type Marker struct {
	ID   string
	Time float64
	Kind Kind
}

// Segment is a closed interval [Start, End) derived from a start/end pair.
type Segment struct {
	Start  float64
	End    float64
	Active bool
}

// Contains reports whether t falls inside the segment.
func (s Segment) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// Normalize returns the markers sorted by time with kinds reassigned by
// position: even ranks start a segment, odd ranks end it. Markers with equal
// times keep their relative order.
func Normalize(markers []Marker) []Marker {
	out := make([]Marker, len(markers))
	copy(out, markers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	for i := range out {
		out[i].Kind = kindForRank(i)
	}
	return out
}

func kindForRank(i int) Kind {
	if i%2 == 0 {
		return SegmentStart
	}
	return SegmentEnd
}

// Segments derives the closed segments of a normalized marker list. A start
// only forms a segment with an immediately following end at a strictly
// greater time.
func Segments(markers []Marker) []Segment {
	var segs []Segment
	for i := 0; i+1 < len(markers); i += 2 {
		start, end := markers[i], markers[i+1]
		if start.Kind != SegmentStart || end.Kind != SegmentEnd {
			continue
		}
		if end.Time > start.Time {
			segs = append(segs, Segment{Start: start.Time, End: end.Time, Active: true})
		}
	}
	return segs
}

// LabeledAt reports whether t lies inside any of segs.
func LabeledAt(segs []Segment, t float64) bool {
	for _, s := range segs {
		if s.Contains(t) {
			return true
		}
	}
	return false
}

// NextKind returns the kind a marker placed at t would get, counting only
// the markers strictly before t. With ties at t this can differ from the kind
// the marker ends up with after Normalize, which places new markers after
// existing ones of equal time.
func NextKind(markers []Marker, t float64) Kind {
	before := 0
	for _, m := range markers {
		if m.Time < t {
			before++
		}
	}
	return kindForRank(before)
}

// HasUnclosed reports whether the markers, once normalized, end in a
// dangling start. Normalize keeps every marker and assigns kinds by rank, so
// this holds exactly when the count is odd, whatever the input order or kinds.
func HasUnclosed(markers []Marker) bool {
	return len(markers)%2 == 1
}
