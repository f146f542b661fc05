package summarizer

import "time"

// Summary contains all data collected during a capture session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	Session   SessionInfo
	Stream    StreamInfo
	Detection DetectionInfo
	Recording RecordingInfo
}

// SessionInfo identifies the session.
type SessionInfo struct {
	ID         string
	Source     string
	StartedAt  time.Time
	EndedAt    time.Time
	StopReason string
}

// DurationMs returns the session length in milliseconds.
func (s SessionInfo) DurationMs() int64 {
	if s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt).Milliseconds()
}

// StreamInfo contains extraction results.
type StreamInfo struct {
	FramesExtracted int
	FramesDecoded   int
	DecodeErrors    int
	BytesRead       int64
	BytesDiscarded  int64
	FrameWidth      int
	FrameHeight     int
	AverageFPS      float64
}

// ChannelRange is an inclusive colour channel range.
type ChannelRange struct {
	Min int
	Max int
}

// DetectionInfo contains the detection settings and totals.
type DetectionInfo struct {
	Label      string
	Hue        ChannelRange
	Saturation ChannelRange
	Value      ChannelRange
	MinArea    int

	Detections        int
	FramesWithObjects int
	MaxObjects        int
	StageErrors       map[string]int
}

// RecordingInfo describes the MP4 output. Path is empty when nothing was
// recorded.
type RecordingInfo struct {
	Path     string
	Frames   int
	FPS      float64
	FileSize int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSession sets session information.
func (b *Builder) WithSession(id, source string, startedAt, endedAt time.Time, stopReason string) *Builder {
	b.summary.Session = SessionInfo{
		ID:         id,
		Source:     source,
		StartedAt:  startedAt,
		EndedAt:    endedAt,
		StopReason: stopReason,
	}
	return b
}

// WithStream sets extraction results.
func (b *Builder) WithStream(stream StreamInfo) *Builder {
	b.summary.Stream = stream
	return b
}

// WithDetection sets detection settings and totals.
func (b *Builder) WithDetection(detection DetectionInfo) *Builder {
	b.summary.Detection = detection
	return b
}

// WithRecording sets recording output information.
func (b *Builder) WithRecording(recording RecordingInfo) *Builder {
	b.summary.Recording = recording
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
