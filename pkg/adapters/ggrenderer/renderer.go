// Package ggrenderer implements ports.Renderer with the gg drawing library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// Renderer implements ports.Renderer using gg for drawing and the standard
// codecs for JPEG and PNG. It is safe for concurrent use.
type Renderer struct {
	png *png.Encoder
}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{
		// Masks are written for every frame in debug mode.
		png: &png.Encoder{
			CompressionLevel: png.BestSpeed,
			BufferPool:       &encoderBuffers{},
		},
	}
}

// CreateCanvas creates a canvas holding a copy of img. The source image is
// never modified, so the decoded frame can still be used for the mask.
func (r *Renderer) CreateCanvas(img image.Image) ports.Canvas {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(basicfont.Face7x13)
	return &Canvas{dc: dc}
}

// DecodeImage decodes a frame. Errors carry the size of the input, which
// tells a truncated frame from a corrupt one in the logs.
func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch format {
	case ports.FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case ports.FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s (%d bytes): %w", format, len(data), err)
	}
	return img, nil
}

// EncodeImage encodes an image. JPEG quality is clamped to 1-100.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: min(max(quality, 1), 100)}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := r.png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage scales an image with approximate bilinear interpolation. It
// runs on every frame before detection, where speed matters more than the
// quality of a Catmull-Rom kernel.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// encoderBuffers implements png.EncoderBufferPool on a sync.Pool.
type encoderBuffers struct {
	pool sync.Pool
}

func (p *encoderBuffers) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *encoderBuffers) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc       *gg.Context
	fontPath string
}

// DrawRect draws a filled rectangle.
func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

// DrawRectStroke draws a rectangle outline.
func (c *Canvas) DrawRectStroke(x, y, w, h int, col color.Color, strokeWidth float64) {
	if strokeWidth <= 0 {
		strokeWidth = 1
	}
	c.dc.SetColor(col)
	c.dc.SetLineWidth(strokeWidth)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Stroke()
}

// DrawText draws text with its baseline at y.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	c.setFont(style)
	if style.Color != nil {
		c.dc.SetColor(style.Color)
	}

	ax := 0.0
	switch style.Align {
	case ports.AlignCenter:
		ax = 0.5
	case ports.AlignRight:
		ax = 1.0
	}

	c.dc.DrawStringAnchored(text, float64(x), float64(y), ax, 0)
}

// MeasureText returns the width and height of the text.
func (c *Canvas) MeasureText(text string, style ports.TextStyle) (width, height float64) {
	c.setFont(style)
	return c.dc.MeasureString(text)
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// setFont switches to a TrueType face when one is configured, falling back
// to the built-in bitmap face if it cannot be loaded.
func (c *Canvas) setFont(style ports.TextStyle) {
	if style.FontPath == c.fontPath {
		return
	}
	c.fontPath = style.FontPath
	if style.FontPath != "" && style.FontSize > 0 {
		if err := c.dc.LoadFontFace(style.FontPath, style.FontSize); err == nil {
			return
		}
	}
	c.dc.SetFontFace(basicfont.Face7x13)
}

var _ ports.Canvas = (*Canvas)(nil)
