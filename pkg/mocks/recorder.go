package mocks

import (
	"github.com/Adc-alt/espcam/pkg/ports"
)

// VideoRecorder is a mock implementation of ports.VideoRecorder.
type VideoRecorder struct {
	BeginFunc    func(width, height int, fps float64) error
	AddFrameFunc func(data []byte, timestampMs int) error
	EndFunc      func() ([]byte, error)

	// Recorded calls for verification
	BeginCalls    []BeginCall
	AddFrameCalls []AddFrameCall
	EndCalled     bool
}

// BeginCall records a call to Begin.
type BeginCall struct {
	Width  int
	Height int
	FPS    float64
}

// AddFrameCall records a call to AddFrame.
type AddFrameCall struct {
	Size        int
	TimestampMs int
}

func (m *VideoRecorder) Begin(width, height int, fps float64) error {
	m.BeginCalls = append(m.BeginCalls, BeginCall{Width: width, Height: height, FPS: fps})
	if m.BeginFunc != nil {
		return m.BeginFunc(width, height, fps)
	}
	return nil
}

func (m *VideoRecorder) AddFrame(data []byte, timestampMs int) error {
	m.AddFrameCalls = append(m.AddFrameCalls, AddFrameCall{Size: len(data), TimestampMs: timestampMs})
	if m.AddFrameFunc != nil {
		return m.AddFrameFunc(data, timestampMs)
	}
	return nil
}

func (m *VideoRecorder) End() ([]byte, error) {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	// Minimal ftyp box
	return []byte{0x00, 0x00, 0x00, 0x08, 'f', 't', 'y', 'p'}, nil
}

var _ ports.VideoRecorder = (*VideoRecorder)(nil)
