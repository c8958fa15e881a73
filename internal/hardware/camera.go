package hardware

import (
	"encoding/binary"
	"log/slog"
	"sync"
	"time"

	"github.com/balkashynov/bitelog/internal/capture"
)

// SimCamera simulates a camera that produces frames at a fixed rate.
type SimCamera struct {
	FPS      int
	Disabled bool // Configure fails with ErrDeviceUnavailable
	Denied   bool // Configure fails with ErrPermissionDenied

	mu      sync.Mutex
	handler func(capture.Frame)
	stop    chan struct{}
	done    chan struct{}
	seq     uint32
}

// NewSimCamera returns a simulated camera running at fps.
func NewSimCamera(fps int) *SimCamera {
	if fps <= 0 {
		fps = 30
	}
	return &SimCamera{FPS: fps}
}

func (c *SimCamera) Configure() error {
	switch {
	case c.Denied:
		return capture.ErrPermissionDenied
	case c.Disabled:
		return capture.ErrDeviceUnavailable
	}
	slog.Debug("[SIM] Camera configured", "fps", c.FPS)
	return nil
}

func (c *SimCamera) SetFrameHandler(h func(capture.Frame)) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *SimCamera) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *SimCamera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return nil
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.stop, c.done)
	return nil
}

func (c *SimCamera) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (c *SimCamera) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / time.Duration(c.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			h := c.handler
			c.seq++
			seq := c.seq
			c.mu.Unlock()
			if h != nil {
				h(capture.Frame{Data: fakeJPEG(seq), Timestamp: now})
			}
		}
	}
}

// fakeJPEG returns a tiny payload framed by JPEG start/end markers.
func fakeJPEG(seq uint32) []byte {
	b := make([]byte, 8)
	b[0], b[1] = 0xFF, 0xD8
	binary.BigEndian.PutUint32(b[2:6], seq)
	b[6], b[7] = 0xFF, 0xD9
	return b
}
