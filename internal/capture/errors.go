package capture

import "errors"

var (
	// ErrDeviceUnavailable means no camera or motion hardware could be used.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrPermissionDenied means capture authorization was refused.
	ErrPermissionDenied = errors.New("capture permission denied")
	// ErrWriterSetupFailed means the video writer could not be created or attached.
	ErrWriterSetupFailed = errors.New("video writer setup failed")
	// ErrIOFailure covers file create, write and replace failures.
	ErrIOFailure = errors.New("file i/o failure")
	// ErrInvalidState is returned when a transition is not allowed from the current state.
	ErrInvalidState = errors.New("invalid capture state")
)
