//go:build !linux

package v4l2stream

import (
	"context"
	"io"
)

// Open always fails on systems without V4L2.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	return nil, ErrUnsupportedPlatform
}
