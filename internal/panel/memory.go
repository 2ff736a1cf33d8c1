package panel

import (
	"image"
	"sync"
)

// Memory keeps the last frame in memory. It is used headless and in tests.
type Memory struct {
	mu     sync.Mutex
	bounds image.Rectangle
	last   image.Image
	frames int
	err    error
	closed bool
}

// NewMemory returns a memory panel; a non-positive size defaults to 320x320.
func NewMemory(width, height int) *Memory {
	if width <= 0 || height <= 0 {
		width, height = 320, 320
	}
	return &Memory{bounds: image.Rect(0, 0, width, height)}
}

func (m *Memory) Bounds() image.Rectangle {
	return m.bounds
}

func (m *Memory) Show(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.last = img
	m.frames++
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Last returns the most recently shown frame, or nil.
func (m *Memory) Last() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Frames returns how many frames were shown.
func (m *Memory) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// FailWith makes subsequent Show calls return err; nil restores them.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
