package mocks

import (
	"image"
	"sync"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// FrameSink is a mock implementation of ports.FrameSink.
type FrameSink struct {
	mu sync.RWMutex

	enabled bool

	SaveRawFrameFunc func(index int, data []byte) error

	RawFrames       map[int][]byte
	AnnotatedFrames map[int]image.Image
	Masks           map[int]image.Image
	SessionJSON     []byte
}

// NewFrameSink creates a new mock FrameSink.
func NewFrameSink(enabled bool) *FrameSink {
	return &FrameSink{
		enabled:         enabled,
		RawFrames:       make(map[int][]byte),
		AnnotatedFrames: make(map[int]image.Image),
		Masks:           make(map[int]image.Image),
	}
}

func (m *FrameSink) Enabled() bool {
	return m.enabled
}

func (m *FrameSink) SaveRawFrame(index int, data []byte) error {
	if m.SaveRawFrameFunc != nil {
		return m.SaveRawFrameFunc(index, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RawFrames[index] = data
	return nil
}

func (m *FrameSink) SaveAnnotatedFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnnotatedFrames[index] = img
	return nil
}

func (m *FrameSink) SaveMask(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Masks[index] = img
	return nil
}

func (m *FrameSink) SaveSessionJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionJSON = data
	return nil
}

var _ ports.FrameSink = (*FrameSink)(nil)
