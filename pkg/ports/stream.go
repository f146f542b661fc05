package ports

import (
	"context"
	"io"
)

// StreamSource opens a raw MJPEG byte stream.
//
// The returned body is an unbounded byte stream; frame boundaries are found
// by the caller. Closing the body releases the connection or device.
type StreamSource interface {
	// Open starts the stream. Cancelling ctx aborts both the open and any
	// later reads from the body.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Describe returns a human readable name for logs and summaries,
	// such as the stream URL or the device path.
	Describe() string
}
