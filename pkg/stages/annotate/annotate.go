// Package annotate draws detections onto frames.
package annotate

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adc-alt/espcam/pkg/pipeline"
	"github.com/Adc-alt/espcam/pkg/ports"
)

// Layout constants in pixels.
const (
	labelOffset  = 10 // label baseline above the box
	overlayX     = 10
	overlayY     = 30 // first overlay line baseline
	overlayLineH = 20
)

// Stage draws boxes, labels and the HSV overlay, then encodes the frame.
type Stage struct {
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new annotate stage.
func NewStage(renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		logger:   logger.WithComponent("annotate"),
	}
}

// Execute annotates one frame.
func (s *Stage) Execute(ctx context.Context, input pipeline.AnnotateInput) (pipeline.AnnotateResult, error) {
	result := pipeline.AnnotateResult{}

	if input.Image == nil {
		return result, errors.New("no image to annotate")
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	theme := input.Theme
	if theme.BoxColor == nil {
		theme = pipeline.DefaultAnnotateTheme()
	}
	label := input.Label
	quality := input.Quality
	if quality <= 0 || quality > 100 {
		quality = pipeline.DefaultQuality
	}

	canvas := s.renderer.CreateCanvas(input.Image)
	origin := input.Image.Bounds().Min

	labelStyle := ports.TextStyle{Color: theme.LabelColor, Align: ports.AlignLeft}
	_, textHeight := canvas.MeasureText("H", labelStyle)

	for _, obj := range input.Objects {
		box := obj.Box.Sub(origin)
		canvas.DrawRectStroke(box.Min.X, box.Min.Y, box.Dx(), box.Dy(), theme.BoxColor, theme.StrokeWidth)

		if label != "" {
			// Keep the label inside the frame for boxes touching the top edge.
			y := max(box.Min.Y-labelOffset, int(textHeight))
			canvas.DrawText(label, box.Min.X, y, labelStyle)
		}
	}

	if theme.ShowRange {
		overlay := ports.TextStyle{Color: theme.TextColor, Align: ports.AlignLeft}
		for i, line := range RangeLines(input.Range) {
			canvas.DrawText(line, overlayX, overlayY+i*overlayLineH, overlay)
		}
	}

	img := canvas.ToImage()
	data, err := s.renderer.EncodeImage(img, ports.FormatJPEG, quality)
	if err != nil {
		return result, fmt.Errorf("encode annotated frame: %w", err)
	}

	s.logger.Debug("Annotated %d objects, %d bytes", len(input.Objects), len(data))

	result.Image = img
	result.JPEG = data
	return result, nil
}

// RangeLines returns the overlay text for an HSV range.
func RangeLines(r pipeline.HSVRange) []string {
	return []string{
		fmt.Sprintf("H: %d-%d", r.HMin, r.HMax),
		fmt.Sprintf("S: %d-%d", r.SMin, r.SMax),
		fmt.Sprintf("V: %d-%d", r.VMin, r.VMax),
	}
}
