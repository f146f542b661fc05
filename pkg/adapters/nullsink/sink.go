// Package nullsink provides a frame sink that discards everything.
package nullsink

import (
	"image"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// Sink is a no-op implementation of ports.FrameSink, used when debug
// output is off.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false so callers can skip encoding work.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveRawFrame(index int, data []byte) error           { return nil }
func (s *Sink) SaveAnnotatedFrame(index int, img image.Image) error { return nil }
func (s *Sink) SaveMask(index int, img image.Image) error           { return nil }
func (s *Sink) SaveSessionJSON(data []byte) error                   { return nil }

var _ ports.FrameSink = (*Sink)(nil)
