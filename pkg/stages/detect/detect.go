// Package detect implements colour detection on decoded frames.
//
// Pixels are converted to HSV on the 8-bit OpenCV scale (H 0-179, S and V
// 0-255) and compared against an inclusive range. Matching pixels form a
// binary mask whose 8-connected regions become detections.
package detect

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/Adc-alt/espcam/pkg/pipeline"
	"github.com/Adc-alt/espcam/pkg/ports"
)

// maskOn is the mask value of a matching pixel.
const maskOn = 0xFF

// Stage thresholds frames and finds coloured regions.
type Stage struct {
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new detect stage. The mask is built in horizontal
// bands by numWorkers goroutines; zero or less uses one per CPU.
func NewStage(logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		logger:     logger.WithComponent("detect"),
		numWorkers: numWorkers,
	}
}

// Execute builds the mask and extracts the regions larger than MinArea.
func (s *Stage) Execute(ctx context.Context, input pipeline.DetectInput) (pipeline.DetectResult, error) {
	result := pipeline.DetectResult{}

	if input.Image == nil {
		return result, errors.New("no image to detect")
	}
	if err := input.Range.Validate(); err != nil {
		return result, err
	}

	mask, err := s.threshold(ctx, input.Image, input.Range)
	if err != nil {
		return result, err
	}

	objects, matched := findRegions(mask, max(input.MinArea, 0))

	s.logger.Debug("Detected %d objects (%d matching pixels)", len(objects), matched)

	result.Mask = mask
	result.Objects = objects
	result.Matched = matched
	return result, nil
}

// threshold computes the mask using a band per worker.
func (s *Stage) threshold(ctx context.Context, img image.Image, r pipeline.HSVRange) (*image.Gray, error) {
	bounds := img.Bounds()
	mask := image.NewGray(bounds)

	rows := bounds.Dy()
	if rows == 0 {
		return mask, nil
	}
	workers := min(s.numWorkers, rows)
	band := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	for y0 := bounds.Min.Y; y0 < bounds.Max.Y; y0 += band {
		y1 := min(y0+band, bounds.Max.Y)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			thresholdRows(img, mask, r, y0, y1)
		}(y0, y1)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mask, nil
}

// thresholdRows fills mask rows [y0, y1). Each call touches only its own
// rows of the mask.
func thresholdRows(img image.Image, mask *image.Gray, r pipeline.HSVRange, y0, y1 int) {
	bounds := img.Bounds()

	set := func(x, y int, red, green, blue uint8) {
		h, sat, v := RGBToHSV(red, green, blue)
		if r.Contains(h, sat, v) {
			mask.Pix[mask.PixOffset(x, y)] = maskOn
		}
	}

	switch src := img.(type) {
	case *image.YCbCr:
		for y := y0; y < y1; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				yi := src.YOffset(x, y)
				ci := src.COffset(x, y)
				red, green, blue := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				set(x, y, red, green, blue)
			}
		}
	case *image.RGBA:
		for y := y0; y < y1; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				i := src.PixOffset(x, y)
				set(x, y, src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			}
		}
	default:
		for y := y0; y < y1; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				cr, cg, cb, _ := img.At(x, y).RGBA()
				set(x, y, uint8(cr>>8), uint8(cg>>8), uint8(cb>>8))
			}
		}
	}
}

// RGBToHSV converts an 8-bit RGB colour to HSV with hue halved to 0-179,
// rounding like OpenCV's COLOR_RGB2HSV.
func RGBToHSV(r, g, b uint8) (h, s, v int) {
	ri, gi, bi := int(r), int(g), int(b)
	hi := max(ri, gi, bi)
	lo := min(ri, gi, bi)
	diff := hi - lo

	v = hi
	if hi == 0 {
		return 0, 0, v
	}
	s = (255*diff + hi/2) / hi
	if diff == 0 {
		return 0, s, v
	}

	var deg float64
	switch hi {
	case ri:
		deg = 60 * float64(gi-bi) / float64(diff)
	case gi:
		deg = 120 + 60*float64(bi-ri)/float64(diff)
	default:
		deg = 240 + 60*float64(ri-gi)/float64(diff)
	}
	if deg < 0 {
		deg += 360
	}
	h = int(math.Round(deg / 2))
	if h >= 180 {
		h -= 180
	}
	return h, s, v
}

// findRegions labels 8-connected regions of the mask and returns those with
// an area strictly greater than minArea, largest first. matched counts every
// mask pixel.
func findRegions(mask *image.Gray, minArea int) ([]pipeline.Detection, int) {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, 0
	}

	visited := make([]bool, w*h)
	stack := make([]int, 0, 64)
	matched := 0
	var objects []pipeline.Detection

	on := func(i int) bool {
		x, y := i%w, i/w
		return mask.Pix[mask.PixOffset(b.Min.X+x, b.Min.Y+y)] == maskOn
	}

	for start := 0; start < w*h; start++ {
		if visited[start] || !on(start) {
			continue
		}

		visited[start] = true
		stack = append(stack[:0], start)
		area := 0
		minX, minY, maxX, maxY := w, h, -1, -1

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w

			area++
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w || (dx == 0 && dy == 0) {
						continue
					}
					n := ny*w + nx
					if !visited[n] && on(n) {
						visited[n] = true
						stack = append(stack, n)
					}
				}
			}
		}

		matched += area
		if area > minArea {
			objects = append(objects, pipeline.Detection{
				Box:  image.Rect(b.Min.X+minX, b.Min.Y+minY, b.Min.X+maxX+1, b.Min.Y+maxY+1),
				Area: area,
			})
		}
	}

	// Ties keep scan order (top-left first).
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].Area > objects[j].Area
	})

	return objects, matched
}
