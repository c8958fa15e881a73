package capture

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFrameFileWriterFinish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mjpeg")
	w, err := NewFrameFileWriter(path)
	if err != nil {
		t.Fatalf("NewFrameFileWriter: %v", err)
	}

	ts := time.Unix(1700000000, 5)
	if err := w.Append(Frame{Data: []byte("abc"), Timestamp: ts}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	w.MarkInputFinished()
	if w.Ready() {
		t.Error("writer should not be ready after input finished")
	}

	done := make(chan error, 1)
	w.Finish(func(err error) { done <- err })
	if err := <-done; err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if w.Status() != WriterCompleted {
		t.Errorf("status = %s, want completed", w.Status())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) != 15 {
		t.Fatalf("file size = %d, want 15", len(data))
	}
	if got := int64(binary.BigEndian.Uint64(data[:8])); got != ts.UnixNano() {
		t.Errorf("timestamp = %d, want %d", got, ts.UnixNano())
	}
	if string(data[12:]) != "abc" {
		t.Errorf("payload = %q", data[12:])
	}
}

func TestFrameFileWriterCancelRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mjpeg")
	w, err := NewFrameFileWriter(path)
	if err != nil {
		t.Fatalf("NewFrameFileWriter: %v", err)
	}
	w.Cancel()

	if w.Status() != WriterCancelled {
		t.Errorf("status = %s, want cancelled", w.Status())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cancelled file should be removed")
	}
}
