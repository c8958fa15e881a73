package labeling

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLog(t *testing.T, rows int, spacing float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("timestamp,dtNs,ax,ay,az,gx,gy,gz\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%.9f,%d,0.1,0.2,0.3,0,0,0\n", float64(i)*spacing, i*10)
	}
	path := filepath.Join(t.TempDir(), "Eating-20260101-120000.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var rows [][]string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		rows = append(rows, strings.Split(line, ","))
	}
	return rows
}

func TestNormalizeSortsAndAlternates(t *testing.T) {
	in := []Marker{
		{ID: "c", Time: 7, Kind: SegmentStart},
		{ID: "a", Time: 1, Kind: SegmentEnd},
		{ID: "d", Time: 9, Kind: SegmentStart},
		{ID: "b", Time: 3, Kind: SegmentStart},
	}
	out := Normalize(in)

	wantIDs := []string{"a", "b", "c", "d"}
	for i, m := range out {
		if m.ID != wantIDs[i] {
			t.Errorf("out[%d].ID = %s, want %s", i, m.ID, wantIDs[i])
		}
		want := SegmentStart
		if i%2 == 1 {
			want = SegmentEnd
		}
		if m.Kind != want {
			t.Errorf("out[%d].Kind = %s, want %s", i, m.Kind, want)
		}
	}
	if in[0].ID != "c" {
		t.Error("Normalize modified its input")
	}
}

func TestSegmentsRequireStrictlyGreaterEnd(t *testing.T) {
	markers := Normalize([]Marker{
		{ID: "a", Time: 1},
		{ID: "b", Time: 1},
		{ID: "c", Time: 4},
		{ID: "d", Time: 6},
		{ID: "e", Time: 8},
	})
	segs := Segments(markers)
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1: %+v", len(segs), segs)
	}
	if segs[0].Start != 4 || segs[0].End != 6 {
		t.Errorf("segment = %+v, want [4,6)", segs[0])
	}
	if !HasUnclosed(markers) {
		t.Error("trailing start should be unclosed")
	}
}

func TestHasUnclosedIgnoresOrderAndKinds(t *testing.T) {
	raw := []Marker{
		{ID: "a", Time: 9, Kind: SegmentEnd},
		{ID: "b", Time: 1, Kind: SegmentEnd},
		{ID: "c", Time: 5, Kind: SegmentStart},
	}
	normalized := Normalize(raw)
	if normalized[2].Kind != SegmentStart {
		t.Fatalf("last normalized kind = %s, want start", normalized[2].Kind)
	}
	if !HasUnclosed(raw) || !HasUnclosed(normalized) {
		t.Error("three markers should leave a start unclosed")
	}
	if HasUnclosed(raw[:2]) {
		t.Error("two markers should close their segment")
	}
	if HasUnclosed(nil) {
		t.Error("no markers should not be unclosed")
	}
}

func TestLabeledAt(t *testing.T) {
	segs := []Segment{{Start: 2, End: 5, Active: true}, {Start: 7, End: 8, Active: true}}
	tests := []struct {
		t    float64
		want bool
	}{
		{0, false},
		{1.999, false},
		{2, true},
		{4.999, true},
		{5, false},
		{6, false},
		{7.5, true},
		{8, false},
		{100, false},
	}
	for _, tt := range tests {
		if got := LabeledAt(segs, tt.t); got != tt.want {
			t.Errorf("LabeledAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	if LabeledAt(nil, 3) {
		t.Error("empty segment list should label nothing")
	}
}

func TestNextKindCountsMarkersBefore(t *testing.T) {
	markers := Normalize([]Marker{{ID: "a", Time: 2}, {ID: "b", Time: 5}})
	tests := []struct {
		t    float64
		want Kind
	}{
		{1, SegmentStart},
		{3, SegmentEnd},
		{6, SegmentStart},
		{5, SegmentEnd},
	}
	for _, tt := range tests {
		if got := NextKind(markers, tt.t); got != tt.want {
			t.Errorf("NextKind(%v) = %s, want %s", tt.t, got, tt.want)
		}
	}
}

func TestRelabelScenario(t *testing.T) {
	path := writeLog(t, 100, 0.1)
	segs := []Segment{{Start: 2.0, End: 5.0, Active: true}}

	err := Relabel(path, func(rel float64) bool { return LabeledAt(segs, rel) })
	if err != nil {
		t.Fatalf("Relabel: %v", err)
	}

	rows := readRows(t, path)
	if got := strings.Join(rows[0], ","); got != "timestamp,dtNs,ax,ay,az,gx,gy,gz,label" {
		t.Fatalf("header = %q", got)
	}
	if len(rows) != 101 {
		t.Fatalf("got %d rows, want 101", len(rows))
	}
	for i, row := range rows[1:] {
		want := "false"
		if i >= 20 && i < 50 {
			want = "true"
		}
		if row[8] != want {
			t.Errorf("row %d (%s) label = %s, want %s", i, row[0], row[8], want)
		}
	}
}

func TestRelabelIsIdempotent(t *testing.T) {
	path := writeLog(t, 40, 0.1)
	labeled := func(rel float64) bool { return rel >= 1 && rel < 2 }

	if err := Relabel(path, labeled); err != nil {
		t.Fatalf("first Relabel: %v", err)
	}
	first, _ := os.ReadFile(path)
	if err := Relabel(path, labeled); err != nil {
		t.Fatalf("second Relabel: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Error("second pass changed the file")
	}
	if strings.Count(string(second), "label") != 1 {
		t.Error("label column duplicated")
	}
}

func TestRelabelUsesFirstParsableTimestampAsBase(t *testing.T) {
	content := "timestamp,dtNs,ax,ay,az,gx,gy,gz\r\n" +
		"bogus,0,0,0,0,0,0,0\r\n" +
		"100.000000000,0,0,0,0,0,0,0\r\n" +
		"101.500000000,0\r\n" +
		"103.000000000,0,0,0,0,0,0,0\r\n"
	path := filepath.Join(t.TempDir(), "log.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Relabel(path, func(rel float64) bool { return rel >= 1 && rel < 2 })
	if err != nil {
		t.Fatalf("Relabel: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "\r") {
		t.Error("carriage returns survived")
	}
	want := "timestamp,dtNs,ax,ay,az,gx,gy,gz,label\n" +
		"bogus,0,0,0,0,0,0,0\n" +
		"100.000000000,0,0,0,0,0,0,0,false\n" +
		"101.500000000,0,,,,,,,true\n" +
		"103.000000000,0,0,0,0,0,0,0,false\n"
	if string(data) != want {
		t.Errorf("got:\n%s\nwant:\n%s", data, want)
	}
}

func TestRelabelWithoutTimestampColumnIsNoop(t *testing.T) {
	content := "a,b\n1,2\n"
	path := filepath.Join(t.TempDir(), "log.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Relabel(path, func(float64) bool { return true }); err != nil {
		t.Fatalf("Relabel: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != content {
		t.Errorf("file changed: %q", data)
	}
}

func TestStampAllFalse(t *testing.T) {
	path := writeLog(t, 50, 0.01)

	if err := StampAll(path, false); err != nil {
		t.Fatalf("StampAll: %v", err)
	}
	if err := StampAll(path, false); err != nil {
		t.Fatalf("second StampAll: %v", err)
	}

	rows := readRows(t, path)
	if len(rows) != 51 {
		t.Fatalf("got %d rows, want 51", len(rows))
	}
	if rows[0][len(rows[0])-1] != "label" || strings.Count(strings.Join(rows[0], ","), "label") != 1 {
		t.Errorf("header = %v", rows[0])
	}
	for i, row := range rows[1:] {
		if row[8] != "false" || len(row) != 9 {
			t.Errorf("row %d = %v", i, row)
		}
	}
}

func TestSpan(t *testing.T) {
	path := writeLog(t, 11, 0.5)
	got, err := Span(path)
	if err != nil {
		t.Fatalf("Span: %v", err)
	}
	if got != 5 {
		t.Errorf("Span = %v, want 5", got)
	}
}

type memStore struct {
	saved   map[string][]Marker
	saveErr error
}

func (s *memStore) LoadMarkers(session string) ([]Marker, error) {
	return s.saved[session], nil
}

func (s *memStore) SaveMarkers(session string, markers []Marker) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.saved == nil {
		s.saved = map[string][]Marker{}
	}
	s.saved[session] = append([]Marker(nil), markers...)
	return nil
}

func TestEngineMutationsRelabelAndPersist(t *testing.T) {
	path := writeLog(t, 100, 0.1)
	store := &memStore{}
	e, err := NewEngine("Eating-20260101-120000", Options{LogPath: path, Duration: 9.9, Store: store})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	end := e.AddMarker(5.0)
	if end.Kind != SegmentStart {
		t.Errorf("first marker kind = %s", end.Kind)
	}
	if !e.HasUnclosedSegment() {
		t.Error("expected unclosed segment")
	}
	if e.NextMarkerKind(2.0) != SegmentStart {
		t.Error("NextMarkerKind(2.0) should be start")
	}
	start := e.AddMarker(2.0)
	if start.Kind != SegmentStart {
		t.Errorf("marker at 2.0 kind = %s, want start", start.Kind)
	}
	if e.HasUnclosedSegment() {
		t.Error("segment should be closed")
	}
	if !e.SegmentAt(3) || e.SegmentAt(5) {
		t.Error("SegmentAt does not match [2,5)")
	}
	if len(store.saved[e.Session()]) != 2 {
		t.Errorf("store has %d markers, want 2", len(store.saved[e.Session()]))
	}

	rows := readRows(t, path)
	if rows[21][8] != "true" || rows[51][8] != "false" {
		t.Errorf("labels after add: row 20=%s row 50=%s", rows[21][8], rows[51][8])
	}

	moved, ok := e.MoveMarker(end.ID, 50)
	if !ok || moved.Time != 9.9 {
		t.Errorf("MoveMarker clamp = %v, %v", moved.Time, ok)
	}
	moved, _ = e.MoveMarker(start.ID, -3)
	if moved.Time != 0 {
		t.Errorf("MoveMarker low clamp = %v", moved.Time)
	}
	rows = readRows(t, path)
	if rows[1][8] != "true" || rows[99][8] != "true" {
		t.Errorf("labels after move: first=%s row98=%s", rows[1][8], rows[99][8])
	}

	e.Select(end.ID)
	if !e.DeleteMarker(end.ID) {
		t.Fatal("DeleteMarker returned false")
	}
	if e.Selected() != "" {
		t.Error("selection not cleared")
	}
	if len(e.Segments()) != 0 {
		t.Error("segments should be empty after delete")
	}
	rows = readRows(t, path)
	for i, row := range rows[1:] {
		if row[8] != "false" {
			t.Fatalf("row %d label = %s after delete", i, row[8])
		}
	}
}

func TestEngineReloadsFromStore(t *testing.T) {
	store := &memStore{saved: map[string][]Marker{
		"s": {{ID: "x", Time: 4}, {ID: "y", Time: 1}},
	}}
	e, err := NewEngine("s", Options{Store: store})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	m := e.Markers()
	if len(m) != 2 || m[0].ID != "y" || m[1].Kind != SegmentEnd {
		t.Errorf("markers = %+v", m)
	}
	if !e.SegmentAt(2) {
		t.Error("reloaded segment missing")
	}
}

func TestEngineNoUpperClampWithoutDuration(t *testing.T) {
	e, _ := NewEngine("s", Options{})
	m := e.AddMarker(1)
	moved, _ := e.MoveMarker(m.ID, 500)
	if moved.Time != 500 {
		t.Errorf("Time = %v, want 500", moved.Time)
	}
}

func TestEnginePersistFailureIsNonFatal(t *testing.T) {
	var reported []error
	store := &memStore{saveErr: errors.New("disk full")}
	e, _ := NewEngine("s", Options{
		Store:   store,
		OnError: func(err error) { reported = append(reported, err) },
	})

	m := e.AddMarker(1)
	if m.ID == "" {
		t.Fatal("marker not added")
	}
	if len(e.Markers()) != 1 {
		t.Error("mutation lost on persist failure")
	}
	if len(reported) != 1 {
		t.Errorf("reported %d errors, want 1", len(reported))
	}
}
