package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/Adc-alt/espcam/pkg/mocks"
	"github.com/Adc-alt/espcam/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.Renderer{})

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveRawFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte{0xFF, 0xD8, 0x01, 0xFF, 0xD9}
	if err := sink.SaveRawFrame(12, data); err != nil {
		t.Fatalf("SaveRawFrame failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "frames", "raw", "frame-000012.jpg")
	saved, ok := fs.File(expectedPath)
	if !ok {
		t.Fatalf("expected file at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected raw bytes unchanged, got %x", saved)
	}
}

func TestSink_SaveAnnotatedFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveAnnotatedFrame(3, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("SaveAnnotatedFrame failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "frames", "annotated", "frame-000003.jpg")
	if _, ok := fs.File(expectedPath); !ok {
		t.Errorf("expected file at %s", expectedPath)
	}
	if renderer.EncodeImageCalls[0].Format != ports.FormatJPEG {
		t.Error("expected JPEG encoding")
	}
}

func TestSink_SaveMask(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveMask(1, image.NewGray(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("SaveMask failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "frames", "mask", "frame-000001.png")
	if _, ok := fs.File(expectedPath); !ok {
		t.Errorf("expected file at %s", expectedPath)
	}
	if renderer.EncodeImageCalls[0].Format != ports.FormatPNG {
		t.Error("expected PNG encoding")
	}
}

func TestSink_SaveSessionJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte(`{"framesExtracted": 3}`)
	if err := sink.SaveSessionJSON(data); err != nil {
		t.Fatalf("SaveSessionJSON failed: %v", err)
	}

	saved, ok := fs.File(filepath.Join(testBaseDir, "session.json"))
	if !ok || string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_CreatesDirectoryOnce(t *testing.T) {
	fs := mocks.NewFileSystem()
	mkdirs := 0
	fs.MkdirAllFunc = func(path string) error {
		mkdirs++
		return nil
	}
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	for i := 1; i <= 5; i++ {
		if err := sink.SaveRawFrame(i, []byte{0xFF, 0xD8, 0xFF, 0xD9}); err != nil {
			t.Fatalf("SaveRawFrame failed: %v", err)
		}
	}
	if mkdirs != 1 {
		t.Errorf("expected 1 MkdirAll call, got %d", mkdirs)
	}
	if written := fs.Written(); len(written) != 5 || written[4] != filepath.Join(testBaseDir, "frames", "raw", "frame-000005.jpg") {
		t.Errorf("unexpected writes %v", written)
	}
}

func TestSink_EncodeError(t *testing.T) {
	encodeErr := errors.New("encode failed")
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, encodeErr
		},
	}
	sink := New(testBaseDir, mocks.NewFileSystem(), renderer)

	err := sink.SaveMask(1, image.NewGray(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, encodeErr) {
		t.Errorf("expected wrapped encode error, got %v", err)
	}
}
