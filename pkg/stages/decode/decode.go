// Package decode implements the JPEG decoding stage.
package decode

import (
	"context"
	"fmt"

	"github.com/Adc-alt/espcam/pkg/pipeline"
	"github.com/Adc-alt/espcam/pkg/ports"
)

// Stage decodes extracted JPEG frames.
type Stage struct {
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new decode stage.
func NewStage(renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		logger:   logger.WithComponent("decode"),
	}
}

// Execute decodes one frame. A corrupt frame returns an error and the
// caller moves on to the next one.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	result := pipeline.DecodeResult{}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if len(input.Data) == 0 {
		return result, fmt.Errorf("frame %d: empty data", input.Sequence)
	}

	img, err := s.renderer.DecodeImage(input.Data, ports.FormatJPEG)
	if err != nil {
		return result, fmt.Errorf("decode frame %d: %w", input.Sequence, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return result, fmt.Errorf("decode frame %d: empty image", input.Sequence)
	}

	if input.MaxWidth > 0 && width > input.MaxWidth {
		scaledHeight := max(height*input.MaxWidth/width, 1)
		s.logger.Debug("Scaling frame %d from %dx%d to %dx%d", input.Sequence, width, height, input.MaxWidth, scaledHeight)
		img = s.renderer.ResizeImage(img, input.MaxWidth, scaledHeight)
		width, height = input.MaxWidth, scaledHeight
		result.Scaled = true
	}

	result.Image = img
	result.Width = width
	result.Height = height
	return result, nil
}
