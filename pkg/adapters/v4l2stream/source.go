// Package v4l2stream captures MJPEG from a local V4L2 webcam.
//
// Frames read from the device are written back to back into a pipe, so the
// session sees the same kind of byte stream an ESP32 camera serves. This
// makes it possible to try the detector without camera hardware on the
// network.
package v4l2stream

import (
	"errors"
	"fmt"
	"time"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// ErrUnsupportedPlatform is returned by Open on systems without V4L2.
var ErrUnsupportedPlatform = errors.New("v4l2stream: V4L2 capture is only supported on linux")

// ErrNoMJPEG is returned when the device cannot produce MJPEG frames.
var ErrNoMJPEG = errors.New("v4l2stream: device does not support MJPEG")

// pixelFormatMJPEG is the V4L2 fourcc 'MJPG'.
const pixelFormatMJPEG = uint32('M') | uint32('J')<<8 | uint32('P')<<16 | uint32('G')<<24

// Options configures the capture.
type Options struct {
	Width       int           // Requested frame width (default: 640)
	Height      int           // Requested frame height (default: 480)
	FrameWait   time.Duration // Poll interval while waiting for a frame (default: 1s)
	BufferCount int           // Driver buffers (default: 4)
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		Width:       640,
		Height:      480,
		FrameWait:   time.Second,
		BufferCount: 4,
	}
}

// Source implements ports.StreamSource over a V4L2 device.
type Source struct {
	device string
	opts   Options
	logger ports.Logger
}

// New creates a source for a device such as /dev/video0.
func New(device string, opts Options, logger ports.Logger) *Source {
	def := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.FrameWait <= 0 {
		opts.FrameWait = def.FrameWait
	}
	if opts.BufferCount <= 0 {
		opts.BufferCount = def.BufferCount
	}
	return &Source{device: device, opts: opts, logger: logger.WithComponent("v4l2")}
}

// Describe returns the device path.
func (s *Source) Describe() string {
	return "v4l2://" + s.device
}

var _ ports.StreamSource = (*Source)(nil)

// FrameSize is a frame size offered by a device. Step values of zero mean a
// discrete size.
type FrameSize struct {
	MinWidth, MaxWidth, StepWidth    int
	MinHeight, MaxHeight, StepHeight int
}

// chooseSize picks the supported size closest in area to the requested one.
// Stepwise ranges are clamped to the request.
func chooseSize(sizes []FrameSize, width, height int) (int, int, error) {
	if len(sizes) == 0 {
		return 0, 0, fmt.Errorf("%w: no frame sizes", ErrNoMJPEG)
	}

	want := width * height
	bestW, bestH, bestDiff := 0, 0, -1
	for _, s := range sizes {
		w, h := s.MaxWidth, s.MaxHeight
		if s.StepWidth > 0 && s.StepHeight > 0 {
			w = snap(width, s.MinWidth, s.MaxWidth, s.StepWidth)
			h = snap(height, s.MinHeight, s.MaxHeight, s.StepHeight)
		}
		diff := w*h - want
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			bestW, bestH, bestDiff = w, h, diff
		}
	}
	return bestW, bestH, nil
}

func snap(v, lo, hi, step int) int {
	v = min(max(v, lo), hi)
	return lo + (v-lo)/step*step
}
