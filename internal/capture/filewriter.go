package capture

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// FrameFileWriter stores frames in a simple length-prefixed container:
// 8 bytes of big-endian unix nanos, 4 bytes of payload length, then the payload.
type FrameFileWriter struct {
	mu       sync.Mutex
	path     string
	f        *os.File
	w        *bufio.Writer
	status   WriterStatus
	finished bool
}

// NewFrameFileWriter creates the target file, replacing any existing one.
func NewFrameFileWriter(path string) (VideoWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create video file: %w", err)
	}
	return &FrameFileWriter{
		path:   path,
		f:      f,
		w:      bufio.NewWriterSize(f, 256*1024),
		status: WriterWriting,
	}, nil
}

func (w *FrameFileWriter) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status == WriterWriting && !w.finished
}

func (w *FrameFileWriter) Append(fr Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status != WriterWriting || w.finished {
		return fmt.Errorf("append to %s writer", w.status)
	}

	var hdr [12]byte
	binary.BigEndian.PutUint64(hdr[:8], uint64(fr.Timestamp.UnixNano()))
	binary.BigEndian.PutUint32(hdr[8:], uint32(len(fr.Data)))
	if _, err := w.w.Write(hdr[:]); err != nil {
		w.status = WriterFailed
		return err
	}
	if _, err := w.w.Write(fr.Data); err != nil {
		w.status = WriterFailed
		return err
	}
	return nil
}

func (w *FrameFileWriter) Status() WriterStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *FrameFileWriter) MarkInputFinished() {
	w.mu.Lock()
	w.finished = true
	w.mu.Unlock()
}

func (w *FrameFileWriter) Finish(done func(error)) {
	go func() {
		w.mu.Lock()
		err := w.w.Flush()
		if err == nil {
			err = w.f.Sync()
		}
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			w.status = WriterFailed
		} else {
			w.status = WriterCompleted
		}
		w.mu.Unlock()

		if done != nil {
			done(err)
		}
	}()
}

func (w *FrameFileWriter) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == WriterCompleted || w.status == WriterCancelled {
		return
	}
	_ = w.f.Close()
	_ = os.Remove(w.path)
	w.status = WriterCancelled
}
