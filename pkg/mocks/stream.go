package mocks

import (
	"bytes"
	"context"
	"io"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// StreamSource is a mock implementation of ports.StreamSource.
type StreamSource struct {
	OpenFunc func(ctx context.Context) (io.ReadCloser, error)
	Name     string

	// Data is served by the default Open.
	Data []byte

	OpenCalls int
}

// NewStreamSource creates a mock source serving data.
func NewStreamSource(data []byte) *StreamSource {
	return &StreamSource{Data: data, Name: "mock://stream"}
}

func (m *StreamSource) Open(ctx context.Context) (io.ReadCloser, error) {
	m.OpenCalls++
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx)
	}
	return io.NopCloser(bytes.NewReader(m.Data)), nil
}

func (m *StreamSource) Describe() string {
	return m.Name
}

var _ ports.StreamSource = (*StreamSource)(nil)

// Publisher is a mock implementation of ports.Publisher.
type Publisher struct {
	Frames []ports.PublishedFrame
}

func (m *Publisher) Publish(frame ports.PublishedFrame) {
	m.Frames = append(m.Frames, frame)
}

var _ ports.Publisher = (*Publisher)(nil)
