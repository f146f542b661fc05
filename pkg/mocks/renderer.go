// Package mocks provides mock implementations of the ports for testing.
package mocks

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	mu sync.Mutex

	CreateCanvasFunc func(img image.Image) ports.Canvas
	DecodeImageFunc  func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image

	// Recorded calls for verification
	Canvases         []*Canvas
	DecodeImageCalls []DecodeImageCall
	EncodeImageCalls []EncodeImageCall
	ResizeImageCalls []ResizeImageCall
}

// DecodeImageCall records a call to DecodeImage.
type DecodeImageCall struct {
	Size   int
	Format ports.ImageFormat
}

// EncodeImageCall records a call to EncodeImage.
type EncodeImageCall struct {
	Format  ports.ImageFormat
	Quality int
}

// ResizeImageCall records a call to ResizeImage.
type ResizeImageCall struct {
	Width  int
	Height int
}

func (m *Renderer) CreateCanvas(img image.Image) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(img)
	}
	c := NewCanvas(img)
	m.mu.Lock()
	m.Canvases = append(m.Canvases, c)
	m.mu.Unlock()
	return c
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	m.mu.Lock()
	m.DecodeImageCalls = append(m.DecodeImageCalls, DecodeImageCall{Size: len(data), Format: format})
	m.mu.Unlock()
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	m.mu.Lock()
	m.EncodeImageCalls = append(m.EncodeImageCalls, EncodeImageCall{Format: format, Quality: quality})
	m.mu.Unlock()
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	// Minimal marker-delimited payload
	return []byte{0xFF, 0xD8, 0xFF, 0xD9}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	m.mu.Lock()
	m.ResizeImageCalls = append(m.ResizeImageCalls, ResizeImageCall{Width: width, Height: height})
	m.mu.Unlock()
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas that records draw calls.
type Canvas struct {
	img *image.RGBA

	Rects   []RectCall
	Strokes []RectCall
	Texts   []TextCall
}

// RectCall records a rectangle draw.
type RectCall struct {
	X, Y, W, H int
	Color      color.Color
	Width      float64
}

// TextCall records a text draw.
type TextCall struct {
	Text  string
	X, Y  int
	Style ports.TextStyle
}

// NewCanvas creates a mock canvas holding a copy of img.
func NewCanvas(img image.Image) *Canvas {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Canvas{img: dst}
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {
	m.Rects = append(m.Rects, RectCall{X: x, Y: y, W: w, H: h, Color: c})
}

func (m *Canvas) DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64) {
	m.Strokes = append(m.Strokes, RectCall{X: x, Y: y, W: w, H: h, Color: c, Width: strokeWidth})
}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Texts = append(m.Texts, TextCall{Text: text, X: x, Y: y, Style: style})
}

// MeasureText assumes a 7x13 bitmap face.
func (m *Canvas) MeasureText(text string, style ports.TextStyle) (width, height float64) {
	return float64(7 * len(text)), 13
}

func (m *Canvas) ToImage() image.Image {
	return m.img
}

var _ ports.Canvas = (*Canvas)(nil)
