package capture

import "time"

// Frame is one encoded video frame as delivered by a camera.
type Frame struct {
	Data      []byte
	Timestamp time.Time
}

// Camera is the video acquisition hardware session.
type Camera interface {
	// Configure attaches the video input and output. It returns
	// ErrDeviceUnavailable or ErrPermissionDenied when that is not possible.
	Configure() error
	Start() error
	Stop()
	Running() bool
	// SetFrameHandler installs the frame callback. The camera may call it
	// from any goroutine, concurrently with everything else.
	SetFrameHandler(func(Frame))
}

// WriterStatus mirrors the lifecycle of a video writer.
type WriterStatus int

const (
	WriterUnknown WriterStatus = iota
	WriterWriting
	WriterCompleted
	WriterFailed
	WriterCancelled
)

func (s WriterStatus) String() string {
	switch s {
	case WriterWriting:
		return "writing"
	case WriterCompleted:
		return "completed"
	case WriterFailed:
		return "failed"
	case WriterCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// VideoWriter encodes frames to a file.
type VideoWriter interface {
	// Ready reports whether the writer can take another frame right now.
	Ready() bool
	Append(Frame) error
	Status() WriterStatus
	MarkInputFinished()
	// Finish completes the file asynchronously and calls done when finished.
	Finish(done func(error))
	// Cancel abandons the file.
	Cancel()
}

// WriterFactory creates a writer for the given target path.
type WriterFactory func(path string) (VideoWriter, error)
