package summarizer

import (
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_WithSession(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	summary := NewBuilder().
		WithSession("abc", "http://192.168.4.1/stream", start, end, "eof").
		Build()

	if summary.Session.ID != "abc" {
		t.Errorf("expected ID 'abc', got '%s'", summary.Session.ID)
	}
	if summary.Session.Source != "http://192.168.4.1/stream" {
		t.Errorf("unexpected source '%s'", summary.Session.Source)
	}
	if summary.Session.DurationMs() != 90000 {
		t.Errorf("expected 90000 ms, got %d", summary.Session.DurationMs())
	}
	if summary.Session.StopReason != "eof" {
		t.Errorf("expected stop reason 'eof', got '%s'", summary.Session.StopReason)
	}
}

func TestSessionInfo_DurationMs_Unset(t *testing.T) {
	s := SessionInfo{StartedAt: time.Now()}
	if s.DurationMs() != 0 {
		t.Errorf("expected 0 for an unfinished session, got %d", s.DurationMs())
	}
}

func TestBuilder_WithStream(t *testing.T) {
	stream := StreamInfo{
		FramesExtracted: 120,
		FramesDecoded:   118,
		DecodeErrors:    2,
		BytesRead:       4 << 20,
		FrameWidth:      640,
		FrameHeight:     480,
		AverageFPS:      9.5,
	}

	summary := NewBuilder().WithStream(stream).Build()

	if summary.Stream != stream {
		t.Errorf("expected %+v, got %+v", stream, summary.Stream)
	}
}

func TestBuilder_WithDetection(t *testing.T) {
	summary := NewBuilder().
		WithDetection(DetectionInfo{
			Label:       "Naranja",
			Hue:         ChannelRange{Min: 10, Max: 25},
			MinArea:     500,
			Detections:  42,
			StageErrors: map[string]int{"detect": 1},
		}).
		Build()

	if summary.Detection.Hue.Max != 25 {
		t.Errorf("expected hue max 25, got %d", summary.Detection.Hue.Max)
	}
	if summary.Detection.Detections != 42 {
		t.Errorf("expected 42 detections, got %d", summary.Detection.Detections)
	}
	if summary.Detection.StageErrors["detect"] != 1 {
		t.Errorf("expected 1 detect error, got %v", summary.Detection.StageErrors)
	}
}

func TestBuilder_WithRecording(t *testing.T) {
	summary := NewBuilder().
		WithRecording(RecordingInfo{Path: "out.mp4", Frames: 100, FPS: 10, FileSize: 2048}).
		Build()

	if summary.Recording.Path != "out.mp4" || summary.Recording.Frames != 100 {
		t.Errorf("unexpected recording info: %+v", summary.Recording)
	}
}

func TestBuilder_Chaining(t *testing.T) {
	start := time.Now()
	summary := NewBuilder().
		WithSession("id", "file://capture.mjpeg", start, start.Add(time.Second), "max_frames").
		WithStream(StreamInfo{FramesExtracted: 10}).
		WithDetection(DetectionInfo{Detections: 3}).
		WithRecording(RecordingInfo{Path: "a.mp4"}).
		Build()

	if summary.Session.ID != "id" || summary.Stream.FramesExtracted != 10 ||
		summary.Detection.Detections != 3 || summary.Recording.Path != "a.mp4" {
		t.Errorf("chained values not kept: %+v", summary)
	}
}
