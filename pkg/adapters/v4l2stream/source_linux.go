//go:build linux

package v4l2stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/blackjack/webcam"
)

// Open opens the device, negotiates MJPEG and starts a capture goroutine.
// The goroutine stops when ctx is cancelled or the returned body is closed.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	cam, err := webcam.Open(s.device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.device, err)
	}

	if err := s.configure(cam); err != nil {
		cam.Close()
		return nil, err
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("start streaming: %w", err)
	}

	pr, pw := io.Pipe()
	go s.capture(ctx, cam, pw)
	return pr, nil
}

func (s *Source) configure(cam *webcam.Webcam) error {
	formats := cam.GetSupportedFormats()
	if _, ok := formats[webcam.PixelFormat(pixelFormatMJPEG)]; !ok {
		return fmt.Errorf("%w: %s", ErrNoMJPEG, s.device)
	}

	var sizes []FrameSize
	for _, fs := range cam.GetSupportedFrameSizes(webcam.PixelFormat(pixelFormatMJPEG)) {
		sizes = append(sizes, FrameSize{
			MinWidth: int(fs.MinWidth), MaxWidth: int(fs.MaxWidth), StepWidth: int(fs.StepWidth),
			MinHeight: int(fs.MinHeight), MaxHeight: int(fs.MaxHeight), StepHeight: int(fs.StepHeight),
		})
	}
	width, height, err := chooseSize(sizes, s.opts.Width, s.opts.Height)
	if err != nil {
		return err
	}

	format, w, h, err := cam.SetImageFormat(webcam.PixelFormat(pixelFormatMJPEG), uint32(width), uint32(height))
	if err != nil {
		return fmt.Errorf("set image format: %w", err)
	}
	if uint32(format) != pixelFormatMJPEG {
		return fmt.Errorf("%w: driver selected %s", ErrNoMJPEG, formats[format])
	}
	if err := cam.SetBufferCount(uint32(s.opts.BufferCount)); err != nil {
		return fmt.Errorf("set buffer count: %w", err)
	}

	s.logger.Info("Capturing %s at %dx%d", s.device, w, h)
	return nil
}

// capture copies frames into pw until ctx is done or the reader goes away.
func (s *Source) capture(ctx context.Context, cam *webcam.Webcam, pw *io.PipeWriter) {
	defer cam.Close()
	defer cam.StopStreaming()

	timeout := uint32(max(s.opts.FrameWait.Seconds(), 1))
	for {
		if err := ctx.Err(); err != nil {
			pw.CloseWithError(err)
			return
		}

		err := cam.WaitForFrame(timeout)
		var te *webcam.Timeout
		switch {
		case err == nil:
		case errors.As(err, &te):
			s.logger.Debug("Timed out waiting for a frame")
			continue
		default:
			pw.CloseWithError(fmt.Errorf("wait for frame: %w", err))
			return
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			pw.CloseWithError(fmt.Errorf("read frame: %w", err))
			return
		}
		if len(frame) == 0 {
			continue
		}

		// ReadFrame reuses the driver buffer; Write copies into the reader's
		// buffer before returning.
		if _, err := pw.Write(frame); err != nil {
			// Reader closed
			return
		}
	}
}
