package ports

import (
	"image"
)

// FrameSink stores per-frame debug output.
type FrameSink interface {
	// Enabled returns true if output is stored. The session skips encoding
	// work for a disabled sink.
	Enabled() bool

	// SaveRawFrame saves an extracted JPEG frame as received.
	SaveRawFrame(index int, data []byte) error

	// SaveAnnotatedFrame saves a frame with detections drawn on it.
	SaveAnnotatedFrame(index int, img image.Image) error

	// SaveMask saves the binary colour mask of a frame.
	SaveMask(index int, img image.Image) error

	// SaveSessionJSON saves the session result.
	SaveSessionJSON(data []byte) error
}
