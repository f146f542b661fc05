package v4l2stream

import (
	"context"
	"errors"
	"testing"

	"github.com/Adc-alt/espcam/pkg/adapters/logger"
)

func TestPixelFormatMJPEG(t *testing.T) {
	if pixelFormatMJPEG != 0x47504A4D {
		t.Errorf("expected fourcc 0x47504A4D, got %#x", pixelFormatMJPEG)
	}
}

func TestChooseSize(t *testing.T) {
	discrete := []FrameSize{
		{MinWidth: 320, MaxWidth: 320, MinHeight: 240, MaxHeight: 240},
		{MinWidth: 640, MaxWidth: 640, MinHeight: 480, MaxHeight: 480},
		{MinWidth: 1280, MaxWidth: 1280, MinHeight: 720, MaxHeight: 720},
	}

	tests := []struct {
		name          string
		sizes         []FrameSize
		width, height int
		expW, expH    int
	}{
		{"exact", discrete, 640, 480, 640, 480},
		{"closest area", discrete, 800, 600, 640, 480},
		{"large", discrete, 1920, 1080, 1280, 720},
		{"stepwise clamps", []FrameSize{{MinWidth: 160, MaxWidth: 1280, StepWidth: 16, MinHeight: 120, MaxHeight: 960, StepHeight: 8}}, 650, 490, 640, 488},
		{"stepwise max", []FrameSize{{MinWidth: 160, MaxWidth: 640, StepWidth: 16, MinHeight: 120, MaxHeight: 480, StepHeight: 8}}, 4000, 3000, 640, 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := chooseSize(tt.sizes, tt.width, tt.height)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w != tt.expW || h != tt.expH {
				t.Errorf("expected %dx%d, got %dx%d", tt.expW, tt.expH, w, h)
			}
		})
	}
}

func TestChooseSize_NoSizes(t *testing.T) {
	if _, _, err := chooseSize(nil, 640, 480); !errors.Is(err, ErrNoMJPEG) {
		t.Errorf("expected ErrNoMJPEG, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New("/dev/video9", Options{}, logger.NewNoop())

	if s.opts != DefaultOptions() {
		t.Errorf("expected defaults, got %+v", s.opts)
	}
	if s.Describe() != "v4l2:///dev/video9" {
		t.Errorf("unexpected description %q", s.Describe())
	}
}

func TestOpen_MissingDevice(t *testing.T) {
	s := New("/dev/does-not-exist", DefaultOptions(), logger.NewNoop())

	if _, err := s.Open(context.Background()); err == nil {
		t.Error("expected error for missing device")
	}
}
