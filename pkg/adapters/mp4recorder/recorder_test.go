package mp4recorder

import (
	"bytes"
	"errors"
	"testing"
)

func jpegStub(payload byte) []byte {
	return []byte{0xFF, 0xD8, payload, payload, 0xFF, 0xD9}
}

func TestRecorder_RoundTrip(t *testing.T) {
	r := New()
	if err := r.Begin(320, 240, 10); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	frames := []struct {
		data []byte
		ts   int
	}{
		{jpegStub(1), 0},
		{jpegStub(2), 120},
		{jpegStub(3), 200},
	}
	for _, f := range frames {
		if err := r.AddFrame(f.data, f.ts); err != nil {
			t.Fatalf("AddFrame failed: %v", err)
		}
	}
	if r.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", r.Frames())
	}

	data, err := r.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if len(data) < 8 || string(data[4:8]) != "ftyp" {
		t.Fatalf("expected ftyp box first")
	}

	info, err := ReadFile(data)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if info.Codec != "jpeg" {
		t.Errorf("expected jpeg sample entry, got %q", info.Codec)
	}
	if len(info.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(info.Samples))
	}

	expectedDur := []int{120, 80, 100}
	for i, s := range info.Samples {
		if !bytes.Equal(s.Data, frames[i].data) {
			t.Errorf("sample %d: data mismatch", i)
		}
		if s.TimestampMs != frames[i].ts {
			t.Errorf("sample %d: expected ts %d, got %d", i, frames[i].ts, s.TimestampMs)
		}
		if s.DurationMs != expectedDur[i] {
			t.Errorf("sample %d: expected duration %d, got %d", i, expectedDur[i], s.DurationMs)
		}
	}
	if info.DurationMs != 300 {
		t.Errorf("expected total duration 300, got %d", info.DurationMs)
	}
}

func TestRecorder_TimestampsClamped(t *testing.T) {
	r := New()
	_ = r.Begin(16, 16, 25)
	_ = r.AddFrame(jpegStub(1), 100)
	_ = r.AddFrame(jpegStub(2), 50)
	_ = r.AddFrame(jpegStub(3), 100)

	data, err := r.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	info, err := ReadFile(data)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if len(info.Samples) != 3 || info.Samples[0].TimestampMs != 0 {
		t.Fatalf("expected 3 samples starting at 0ms, got %+v", info.Samples)
	}
	// Samples sharing a timestamp get the minimum 1ms duration.
	prev := -1
	for i, s := range info.Samples {
		if s.TimestampMs <= prev {
			t.Errorf("sample %d: timestamps must increase, got %d after %d", i, s.TimestampMs, prev)
		}
		if s.DurationMs < 1 {
			t.Errorf("sample %d: expected positive duration, got %d", i, s.DurationMs)
		}
		prev = s.TimestampMs
	}
}

func TestRecorder_TimestampsRelativeToFirstFrame(t *testing.T) {
	r := New()
	if err := r.Begin(160, 120, 10); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for i, ts := range []int{2500, 2600, 2700} {
		if err := r.AddFrame(jpegStub(byte(i)), ts); err != nil {
			t.Fatalf("AddFrame failed: %v", err)
		}
	}

	data, err := r.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	info, err := ReadFile(data)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	want := []int{0, 100, 200}
	for i, s := range info.Samples {
		if s.TimestampMs != want[i] {
			t.Errorf("sample %d: expected ts %d, got %d", i, want[i], s.TimestampMs)
		}
	}
	// 300ms of content: two 100ms gaps plus 1000/fps for the last frame.
	if info.DurationMs != 300 {
		t.Errorf("expected duration 300, got %d", info.DurationMs)
	}
}

func TestRecorder_BeginResetsOrigin(t *testing.T) {
	r := New()
	_ = r.Begin(16, 16, 10)
	_ = r.AddFrame(jpegStub(1), 5000)
	if _, err := r.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	_ = r.Begin(16, 16, 10)
	_ = r.AddFrame(jpegStub(2), 200)
	_ = r.AddFrame(jpegStub(3), 300)
	data, err := r.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	info, err := ReadFile(data)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if info.Samples[0].TimestampMs != 0 || info.Samples[1].TimestampMs != 100 {
		t.Errorf("expected samples at 0 and 100ms, got %+v", info.Samples)
	}
}

func TestRecorder_NotStarted(t *testing.T) {
	r := New()

	if err := r.AddFrame(jpegStub(1), 0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted from AddFrame, got %v", err)
	}
	if _, err := r.End(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted from End, got %v", err)
	}
}

func TestRecorder_NoFrames(t *testing.T) {
	r := New()
	_ = r.Begin(16, 16, 10)

	if _, err := r.End(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
	// End resets the recorder.
	if err := r.AddFrame(jpegStub(1), 0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted after End, got %v", err)
	}
}

func TestRecorder_InvalidSize(t *testing.T) {
	r := New()

	for _, size := range [][2]int{{0, 10}, {10, -1}, {70000, 10}} {
		if err := r.Begin(size[0], size[1], 10); err == nil {
			t.Errorf("expected error for size %dx%d", size[0], size[1])
		}
	}
}

func TestRecorder_EmptyFrame(t *testing.T) {
	r := New()
	_ = r.Begin(16, 16, 10)

	if err := r.AddFrame(nil, 0); err == nil {
		t.Error("expected error for empty frame")
	}
}

func TestReadFile_Garbage(t *testing.T) {
	if _, err := ReadFile([]byte("not an mp4 file")); err == nil {
		t.Error("expected error for garbage input")
	}
}
