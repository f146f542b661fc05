// Package orchestrator runs a capture session: it reads frames from a
// stream and passes each one through the decode, detect and annotate stages.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Adc-alt/espcam/pkg/mjpeg"
	"github.com/Adc-alt/espcam/pkg/pipeline"
	"github.com/Adc-alt/espcam/pkg/ports"
)

// ErrNoFrames is returned when the stream ended before any frame was
// extracted.
var ErrNoFrames = errors.New("stream ended before the first frame")

// Stop reasons reported in RunResult.
const (
	StopEOF       = "eof"
	StopCancelled = "cancelled"
	StopMaxFrames = "max_frames"
	StopDuration  = "duration"
	StopError     = "error"
)

// Per-stage error keys in RunResult.StageErrors.
const (
	stageDetect   = "detect"
	stageAnnotate = "annotate"
	stageSink     = "sink"
	stagePublish  = "publish"
	stageRecord   = "record"
)

// DefaultProgressEvery is the number of frames between progress messages.
const DefaultProgressEvery = 30

// Config contains all configuration for a session.
type Config struct {
	// Stream
	ChunkSize     int
	MaxBufferSize int

	// Processing
	MaxWidth int // Downscale wider frames before detection; 0 keeps the size
	Range    pipeline.HSVRange
	MinArea  int
	Label    string
	Theme    pipeline.AnnotateTheme
	Quality  int

	// Preview
	PublishMask bool // Encode the mask as JPEG for each published frame

	// Recording
	RecordPath string
	RecordFPS  float64

	// Limits
	MaxFrames int
	Duration  time.Duration

	ProgressEvery int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	opts := mjpeg.DefaultOptions()
	return Config{
		ChunkSize:     opts.ChunkSize,
		MaxBufferSize: opts.MaxBufferSize,

		Range:   pipeline.DefaultHSVRange(),
		MinArea: pipeline.DefaultMinArea,
		Label:   pipeline.DefaultLabel,
		Theme:   pipeline.DefaultAnnotateTheme(),
		Quality: pipeline.DefaultQuality,

		RecordFPS: 10,

		ProgressEvery: DefaultProgressEvery,
	}
}

// Orchestrator coordinates the stream and the per-frame stages.
type Orchestrator struct {
	source        ports.StreamSource
	decodeStage   pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult]
	detectStage   pipeline.Stage[pipeline.DetectInput, pipeline.DetectResult]
	annotateStage pipeline.Stage[pipeline.AnnotateInput, pipeline.AnnotateResult]
	renderer      ports.Renderer
	recorder      ports.VideoRecorder // nil disables recording
	publisher     ports.Publisher     // nil disables publishing
	fs            ports.FileSystem
	sink          ports.FrameSink
	logger        ports.Logger

	now func() time.Time
}

// New creates a new Orchestrator. recorder and publisher may be nil.
func New(
	source ports.StreamSource,
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult],
	detectStage pipeline.Stage[pipeline.DetectInput, pipeline.DetectResult],
	annotateStage pipeline.Stage[pipeline.AnnotateInput, pipeline.AnnotateResult],
	renderer ports.Renderer,
	recorder ports.VideoRecorder,
	publisher ports.Publisher,
	fs ports.FileSystem,
	sink ports.FrameSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		source:        source,
		decodeStage:   decodeStage,
		detectStage:   detectStage,
		annotateStage: annotateStage,
		renderer:      renderer,
		recorder:      recorder,
		publisher:     publisher,
		fs:            fs,
		sink:          sink,
		logger:        logger.WithComponent("session"),
		now:           time.Now,
	}
}

// WithClock replaces the wall clock used for timestamps.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// session holds the mutable state of one Run.
type session struct {
	config    Config
	start     time.Time
	result    RunResult
	recording bool
	recordOff bool // Begin failed; stop trying
}

// Run reads the stream until it ends, the context is cancelled or a limit
// is reached. Per-frame failures are logged and counted. Cancellation is a
// clean stop and returns no error.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = DefaultProgressEvery
	}

	s := &session{
		config: config,
		start:  o.now(),
		result: RunResult{
			SessionID:   uuid.NewString(),
			Source:      o.source.Describe(),
			StageErrors: make(map[string]int),
		},
	}
	s.result.StartedAt = s.start

	runCtx := ctx
	if config.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, config.Duration)
		defer cancel()
	}

	o.logger.Info("Session %s started", s.result.SessionID)
	o.logger.Info("Reading %s", s.result.Source)

	body, err := o.source.Open(runCtx)
	if err != nil {
		o.logger.Error("Failed to open stream: %v", err)
		return RunResult{}, fmt.Errorf("open stream: %w", err)
	}
	defer body.Close()

	// Unblock a pending read when the session is cancelled.
	stopClose := context.AfterFunc(runCtx, func() { body.Close() })
	defer stopClose()

	reader := mjpeg.NewReader(body, mjpeg.Options{
		ChunkSize:     config.ChunkSize,
		MaxBufferSize: config.MaxBufferSize,
	})

	var runErr error
	for {
		if runCtx.Err() != nil {
			s.result.StopReason = stopReason(ctx)
			break
		}

		frame, err := reader.Next()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.result.StopReason = StopEOF
			case runCtx.Err() != nil:
				s.result.StopReason = stopReason(ctx)
			default:
				s.result.StopReason = StopError
				runErr = err
				o.logger.Error("Stream failed: %v", err)
			}
			break
		}

		o.processFrame(runCtx, s, frame)

		if config.MaxFrames > 0 && s.result.FramesExtracted >= config.MaxFrames {
			s.result.StopReason = StopMaxFrames
			break
		}
	}

	stats := reader.Stats()
	s.result.BytesRead = reader.BytesRead()
	s.result.BytesDiscarded = stats.BytesDiscarded

	if err := o.finish(s); err != nil && runErr == nil {
		runErr = err
	}

	o.logger.Info("Session ended (%s) after %d frames", s.result.StopReason, s.result.FramesExtracted)

	if runErr != nil {
		return s.result, runErr
	}
	if s.result.StopReason == StopEOF && s.result.FramesExtracted == 0 {
		return s.result, ErrNoFrames
	}
	return s.result, nil
}

// stopReason tells a caller cancellation apart from the session deadline.
func stopReason(parent context.Context) string {
	if parent.Err() != nil {
		return StopCancelled
	}
	return StopDuration
}

func (o *Orchestrator) processFrame(ctx context.Context, s *session, frame mjpeg.Frame) {
	r := &s.result
	r.FramesExtracted++
	seq := r.FramesExtracted
	ts := int(o.now().Sub(s.start).Milliseconds())

	if seq%s.config.ProgressEvery == 0 {
		o.logger.Info("Processed %d frames", seq)
	}

	if o.sink.Enabled() {
		if err := o.sink.SaveRawFrame(seq, frame); err != nil {
			o.stageFailed(s, stageSink, seq, err)
		}
	}

	decoded, err := o.decodeStage.Execute(ctx, pipeline.DecodeInput{
		Sequence: seq,
		Data:     frame,
		MaxWidth: s.config.MaxWidth,
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.DecodeErrors++
		o.logger.Warn("Skipping frame %d: %v", seq, err)
		return
	}
	r.FramesDecoded++

	if r.FrameWidth == 0 {
		r.FrameWidth, r.FrameHeight = decoded.Width, decoded.Height
		if w, h, err := mjpeg.ProbeSize(frame); err == nil {
			r.FrameWidth, r.FrameHeight = w, h
		}
		o.logger.Info("First frame: %dx%d", r.FrameWidth, r.FrameHeight)
	}

	detected, err := o.detectStage.Execute(ctx, pipeline.DetectInput{
		Image:   decoded.Image,
		Range:   s.config.Range,
		MinArea: s.config.MinArea,
	})
	if err != nil {
		if ctx.Err() == nil {
			o.stageFailed(s, stageDetect, seq, err)
		}
		return
	}

	n := len(detected.Objects)
	r.Detections += n
	if n > 0 {
		r.FramesWithObjects++
	}
	if n > r.MaxObjects {
		r.MaxObjects = n
	}

	annotated, err := o.annotateStage.Execute(ctx, pipeline.AnnotateInput{
		Image:   decoded.Image,
		Objects: detected.Objects,
		Range:   s.config.Range,
		Label:   s.config.Label,
		Theme:   s.config.Theme,
		Quality: s.config.Quality,
	})
	if err != nil {
		if ctx.Err() == nil {
			o.stageFailed(s, stageAnnotate, seq, err)
		}
		return
	}

	if o.sink.Enabled() {
		if err := o.sink.SaveAnnotatedFrame(seq, annotated.Image); err != nil {
			o.stageFailed(s, stageSink, seq, err)
		}
		if err := o.sink.SaveMask(seq, detected.Mask); err != nil {
			o.stageFailed(s, stageSink, seq, err)
		}
	}

	if o.publisher != nil {
		o.publish(s, seq, ts, annotated.JPEG, detected)
	}

	if o.recorder != nil && s.config.RecordPath != "" {
		o.record(s, seq, ts, decoded, annotated.JPEG)
	}
}

func (o *Orchestrator) publish(s *session, seq, ts int, jpeg []byte, detected pipeline.DetectResult) {
	frame := ports.PublishedFrame{
		Sequence:    seq,
		TimestampMs: ts,
		JPEG:        jpeg,
	}
	for _, d := range detected.Objects {
		frame.Objects = append(frame.Objects, d.Box)
	}

	if s.config.PublishMask && detected.Mask != nil {
		mask, err := o.renderer.EncodeImage(detected.Mask, ports.FormatJPEG, s.config.Quality)
		if err != nil {
			o.stageFailed(s, stagePublish, seq, err)
		} else {
			frame.Mask = mask
		}
	}

	o.publisher.Publish(frame)
}

// record begins the recorder with the first decoded frame's size.
func (o *Orchestrator) record(s *session, seq, ts int, decoded pipeline.DecodeResult, jpeg []byte) {
	if s.recordOff {
		return
	}
	if !s.recording {
		if err := o.recorder.Begin(decoded.Width, decoded.Height, s.config.RecordFPS); err != nil {
			s.recordOff = true
			o.stageFailed(s, stageRecord, seq, err)
			return
		}
		s.recording = true
		o.logger.Info("Recording %dx%d to %s", decoded.Width, decoded.Height, s.config.RecordPath)
	}
	if err := o.recorder.AddFrame(jpeg, ts); err != nil {
		o.stageFailed(s, stageRecord, seq, err)
		return
	}
	s.result.RecordedFrames++
}

func (o *Orchestrator) stageFailed(s *session, stage string, seq int, err error) {
	s.result.StageErrors[stage]++
	o.logger.Warn("Frame %d: %s failed: %v", seq, stage, err)
}

// finish closes the recording and saves the session JSON.
func (o *Orchestrator) finish(s *session) error {
	r := &s.result
	r.EndedAt = o.now()
	r.DurationMs = r.EndedAt.Sub(r.StartedAt).Milliseconds()
	if r.DurationMs > 0 {
		r.AverageFPS = float64(r.FramesExtracted) * 1000 / float64(r.DurationMs)
	}

	var err error
	if s.recording {
		err = o.writeRecording(s)
	}

	if o.sink.Enabled() {
		if data, jsonErr := json.MarshalIndent(r, "", "  "); jsonErr == nil {
			if sinkErr := o.sink.SaveSessionJSON(data); sinkErr != nil {
				o.logger.Warn("Failed to save session JSON: %v", sinkErr)
			}
		}
	}
	return err
}

func (o *Orchestrator) writeRecording(s *session) error {
	data, err := o.recorder.End()
	if err != nil {
		o.logger.Error("Failed to finish recording: %v", err)
		return fmt.Errorf("finish recording: %w", err)
	}
	if err := o.fs.WriteFile(s.config.RecordPath, data); err != nil {
		o.logger.Error("Failed to write output: %v", err)
		return fmt.Errorf("write recording: %w", err)
	}
	s.result.RecordingPath = s.config.RecordPath
	s.result.RecordingSize = int64(len(data))
	o.logger.Info("Recording saved: %s (%d bytes)", s.config.RecordPath, len(data))
	return nil
}

// RunResult contains the results of a session for summary generation.
type RunResult struct {
	SessionID string    `json:"sessionId"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`

	DurationMs int64   `json:"durationMs"`
	AverageFPS float64 `json:"averageFps"`
	StopReason string  `json:"stopReason"`

	// Stream
	FramesExtracted int   `json:"framesExtracted"`
	FramesDecoded   int   `json:"framesDecoded"`
	DecodeErrors    int   `json:"decodeErrors"`
	BytesRead       int64 `json:"bytesRead"`
	BytesDiscarded  int64 `json:"bytesDiscarded"`
	FrameWidth      int   `json:"frameWidth"`
	FrameHeight     int   `json:"frameHeight"`

	// Detection
	Detections        int            `json:"detections"`
	FramesWithObjects int            `json:"framesWithObjects"`
	MaxObjects        int            `json:"maxObjects"`
	StageErrors       map[string]int `json:"stageErrors"`

	// Recording
	RecordingPath  string `json:"recordingPath,omitempty"`
	RecordingSize  int64  `json:"recordingSize,omitempty"`
	RecordedFrames int    `json:"recordedFrames,omitempty"`
}
