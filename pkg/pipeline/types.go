package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// =============================================================================
// Decode Stage Types
// =============================================================================

// DecodeInput contains one extracted JPEG frame.
type DecodeInput struct {
	Sequence int    // Frame number within the session, starting at 1
	Data     []byte // JPEG bytes from SOI through EOI
	MaxWidth int    // Downscale wider frames to this width; 0 keeps the size
}

// DecodeResult contains the decoded frame.
type DecodeResult struct {
	Image  image.Image
	Width  int
	Height int
	Scaled bool // Image was downscaled to MaxWidth
}

// =============================================================================
// Detect Stage Types
// =============================================================================

// HSV channel limits on the 8-bit OpenCV scale.
const (
	MaxHue        = 179
	MaxSaturation = 255
	MaxValue      = 255
)

// ErrInvalidRange is returned when an HSV range is outside the channel limits.
var ErrInvalidRange = errors.New("invalid HSV range")

// HSVRange is an inclusive colour range. Hue wraps around when HMin > HMax.
type HSVRange struct {
	HMin int `yaml:"h_min" json:"hMin"`
	HMax int `yaml:"h_max" json:"hMax"`
	SMin int `yaml:"s_min" json:"sMin"`
	SMax int `yaml:"s_max" json:"sMax"`
	VMin int `yaml:"v_min" json:"vMin"`
	VMax int `yaml:"v_max" json:"vMax"`
}

// DefaultHSVRange returns the range for orange objects.
func DefaultHSVRange() HSVRange {
	return HSVRange{
		HMin: 10, HMax: 25,
		SMin: 120, SMax: 255,
		VMin: 120, VMax: 255,
	}
}

// Validate checks every bound against the channel limits. Saturation and
// value ranges must not be inverted.
func (r HSVRange) Validate() error {
	check := func(name string, v, limit int) error {
		if v < 0 || v > limit {
			return fmt.Errorf("%w: %s=%d outside 0-%d", ErrInvalidRange, name, v, limit)
		}
		return nil
	}
	for _, c := range []struct {
		name  string
		v     int
		limit int
	}{
		{"h_min", r.HMin, MaxHue}, {"h_max", r.HMax, MaxHue},
		{"s_min", r.SMin, MaxSaturation}, {"s_max", r.SMax, MaxSaturation},
		{"v_min", r.VMin, MaxValue}, {"v_max", r.VMax, MaxValue},
	} {
		if err := check(c.name, c.v, c.limit); err != nil {
			return err
		}
	}
	if r.SMin > r.SMax {
		return fmt.Errorf("%w: s_min %d > s_max %d", ErrInvalidRange, r.SMin, r.SMax)
	}
	if r.VMin > r.VMax {
		return fmt.Errorf("%w: v_min %d > v_max %d", ErrInvalidRange, r.VMin, r.VMax)
	}
	return nil
}

// Contains reports whether an HSV triple lies inside the range.
func (r HSVRange) Contains(h, s, v int) bool {
	if s < r.SMin || s > r.SMax || v < r.VMin || v > r.VMax {
		return false
	}
	if r.HMin <= r.HMax {
		return h >= r.HMin && h <= r.HMax
	}
	return h >= r.HMin || h <= r.HMax
}

// Detection is one connected region of matching pixels.
type Detection struct {
	Box  image.Rectangle // Bounding box, Max exclusive
	Area int             // Number of matching pixels
}

// DetectInput contains parameters for colour detection.
type DetectInput struct {
	Image   image.Image
	Range   HSVRange
	MinArea int // Regions must be strictly larger than this (default: 500)
}

// DefaultMinArea is the smallest region area that is ignored.
const DefaultMinArea = 500

// DetectResult contains the colour mask and the detected regions.
type DetectResult struct {
	Mask    *image.Gray // 255 where the pixel matched, same bounds as the input
	Objects []Detection // Sorted by area, largest first
	Matched int         // Matching pixels, including those in small regions
}

// =============================================================================
// Annotate Stage Types
// =============================================================================

// AnnotateInput contains the frame and detections to draw.
type AnnotateInput struct {
	Image   image.Image
	Objects []Detection
	Range   HSVRange
	Label   string // Drawn above each box (default: "Naranja")
	Theme   AnnotateTheme
	Quality int // JPEG quality of the result (default: 85)
}

// DefaultLabel is the text drawn above each detection.
const DefaultLabel = "Naranja"

// DefaultQuality is the JPEG quality of annotated frames.
const DefaultQuality = 85

// AnnotateTheme defines annotation styling.
type AnnotateTheme struct {
	BoxColor    color.Color
	LabelColor  color.Color
	TextColor   color.Color // HSV overlay
	StrokeWidth float64
	ShowRange   bool // Draw the HSV overlay
}

// DefaultAnnotateTheme returns an orange box theme with a white overlay.
func DefaultAnnotateTheme() AnnotateTheme {
	return AnnotateTheme{
		BoxColor:    color.RGBA{R: 255, G: 165, B: 0, A: 255},
		LabelColor:  color.RGBA{R: 255, G: 165, B: 0, A: 255},
		TextColor:   color.White,
		StrokeWidth: 2,
		ShowRange:   true,
	}
}

// AnnotateResult contains the annotated frame.
type AnnotateResult struct {
	Image image.Image
	JPEG  []byte
}
