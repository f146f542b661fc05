package ggrenderer

import (
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/Adc-alt/espcam/pkg/ports"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()
	src := solid(100, 60, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	canvas := r.CreateCanvas(src)
	img := canvas.ToImage()

	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 60 {
		t.Errorf("expected 100x60, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	got := color.RGBAModel.Convert(img.At(50, 30)).(color.RGBA)
	if got.R != 10 || got.G != 20 || got.B != 30 {
		t.Errorf("expected source pixels copied, got %+v", got)
	}
}

func TestRenderer_CanvasDoesNotModifySource(t *testing.T) {
	r := New()
	src := solid(20, 20, color.Black)

	canvas := r.CreateCanvas(src)
	canvas.DrawRect(0, 0, 20, 20, color.White)

	if c := src.RGBAAt(10, 10); c.R != 0 {
		t.Errorf("expected source to stay black, got %+v", c)
	}
}

func TestCanvas_DrawRectStroke(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(solid(50, 50, color.Black))

	orange := color.RGBA{R: 255, G: 165, B: 0, A: 255}
	canvas.DrawRectStroke(10, 10, 20, 20, orange, 2)
	img := canvas.ToImage()

	edge := color.RGBAModel.Convert(img.At(10, 20)).(color.RGBA)
	if edge.R < 200 {
		t.Errorf("expected orange edge, got %+v", edge)
	}
	inside := color.RGBAModel.Convert(img.At(20, 20)).(color.RGBA)
	if inside.R != 0 {
		t.Errorf("expected untouched interior, got %+v", inside)
	}
}

func TestCanvas_DrawText(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(solid(120, 40, color.Black))

	style := ports.TextStyle{Color: color.White}
	w, h := canvas.MeasureText("Naranja", style)
	if w <= 0 || h <= 0 {
		t.Fatalf("expected positive text size, got %vx%v", w, h)
	}

	canvas.DrawText("Naranja", 5, 25, style)
	img := canvas.ToImage()

	lit := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 120; x++ {
			if c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA); c.R > 128 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("expected text pixels to be drawn")
	}
}

func TestCanvas_MissingFontFallsBack(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(solid(60, 20, color.Black))

	style := ports.TextStyle{FontPath: "/nonexistent/font.ttf", FontSize: 14, Color: color.White}
	w, _ := canvas.MeasureText("abc", style)
	if w != 21 {
		t.Errorf("expected bitmap face width 21, got %v", w)
	}
}

func TestRenderer_EncodeDecodeJPEG(t *testing.T) {
	r := New()
	img := solid(50, 50, color.RGBA{R: 255, A: 255})

	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("expected JPEG start marker")
	}

	decoded, err := r.DecodeImage(data, ports.FormatJPEG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if decoded.Bounds().Dx() != 50 || decoded.Bounds().Dy() != 50 {
		t.Errorf("expected 50x50, got %dx%d", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}

func TestRenderer_EncodeDecodePNG(t *testing.T) {
	r := New()
	img := image.NewGray(image.Rect(0, 0, 30, 30))

	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, err := r.DecodeImage(data, ports.FormatPNG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if decoded.Bounds().Dx() != 30 {
		t.Errorf("expected width 30, got %d", decoded.Bounds().Dx())
	}
}

func TestRenderer_DecodeCorrupt(t *testing.T) {
	r := New()

	_, err := r.DecodeImage([]byte{0xFF, 0xD8, 0x00, 0xFF, 0xD9}, ports.FormatJPEG)
	if err == nil {
		t.Fatal("expected error for corrupt JPEG")
	}
	if !strings.Contains(err.Error(), "5 bytes") {
		t.Errorf("expected frame size in error, got %v", err)
	}
}

func TestRenderer_EncodeJPEGClampsQuality(t *testing.T) {
	r := New()
	img := solid(16, 16, color.White)

	for _, q := range []int{-5, 0, 101} {
		if _, err := r.EncodeImage(img, ports.FormatJPEG, q); err != nil {
			t.Errorf("quality %d: unexpected error %v", q, err)
		}
	}
}

func TestRenderer_EncodePNGConcurrent(t *testing.T) {
	r := New()
	mask := image.NewGray(image.Rect(0, 0, 64, 48))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.EncodeImage(mask, ports.FormatPNG, 0); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestRenderer_UnsupportedFormat(t *testing.T) {
	r := New()

	if _, err := r.EncodeImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), ports.ImageFormat(99), 0); err == nil {
		t.Error("expected error for unsupported encode format")
	}
	if _, err := r.DecodeImage([]byte{0x00}, ports.ImageFormat(99)); err == nil {
		t.Error("expected error for unsupported decode format")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()

	resized := r.ResizeImage(solid(640, 480, color.White), 320, 240)
	if resized.Bounds().Dx() != 320 || resized.Bounds().Dy() != 240 {
		t.Errorf("expected 320x240, got %dx%d", resized.Bounds().Dx(), resized.Bounds().Dy())
	}
}
