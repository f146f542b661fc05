// Package mp4recorder records JPEG frames into a fragmented MP4 file.
//
// Frames are stored as-is in a single Motion JPEG track (sample entry
// "jpeg"), so recording costs no re-encoding. Every sample is a sync sample
// and the track timescale is milliseconds.
package mp4recorder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/Adc-alt/espcam/pkg/ports"
)

const (
	timescale  = 1000
	trackID    = 1
	sampleName = "jpeg"
	defaultFPS = 10.0
)

var (
	// ErrNotStarted is returned when frames are added before Begin.
	ErrNotStarted = errors.New("mp4recorder: recording not started")
	// ErrNoFrames is returned by End when no frame was added.
	ErrNoFrames = errors.New("mp4recorder: no frames recorded")
)

type sample struct {
	data        []byte
	timestampMs int
}

// Recorder implements ports.VideoRecorder.
type Recorder struct {
	width   int
	height  int
	fps     float64
	started bool
	origin  int // Timestamp of the first frame; the recording starts there
	samples []sample
	bytes   int64
}

// New creates a new Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Begin starts a new recording and discards any previous samples.
func (r *Recorder) Begin(width, height int, fps float64) error {
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if fps <= 0 {
		fps = defaultFPS
	}

	r.width = width
	r.height = height
	r.fps = fps
	r.samples = nil
	r.bytes = 0
	r.origin = 0
	r.started = true
	return nil
}

// AddFrame appends a JPEG frame. The first frame is shown at time zero and
// later timestamps are relative to it. Timestamps going backwards are
// clamped to the previous one.
func (r *Recorder) AddFrame(data []byte, timestampMs int) error {
	if !r.started {
		return ErrNotStarted
	}
	if len(data) == 0 {
		return errors.New("empty frame")
	}

	if len(r.samples) == 0 {
		r.origin = timestampMs
	}
	ts := max(timestampMs-r.origin, 0)
	if n := len(r.samples); n > 0 {
		ts = max(ts, r.samples[n-1].timestampMs)
	}

	r.samples = append(r.samples, sample{data: data, timestampMs: ts})
	r.bytes += int64(len(data))
	return nil
}

// Frames returns the number of frames added since Begin.
func (r *Recorder) Frames() int {
	return len(r.samples)
}

// End builds the MP4 file and resets the recorder.
func (r *Recorder) End() ([]byte, error) {
	if !r.started {
		return nil, ErrNotStarted
	}
	defer func() {
		r.started = false
		r.samples = nil
	}()

	if len(r.samples) == 0 {
		return nil, ErrNoFrames
	}
	return r.buildMP4()
}

func (r *Recorder) buildMP4() ([]byte, error) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "und")

	trak := init.Moov.Trak
	entry := mp4.CreateVisualSampleEntryBox(sampleName, uint16(r.width), uint16(r.height), nil)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
	trak.Tkhd.Width = mp4.Fixed32(r.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(r.height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	lastDur := max(uint32(timescale/r.fps), 1)
	for i, s := range r.samples {
		dur := lastDur
		if i < len(r.samples)-1 {
			dur = max(uint32(r.samples[i+1].timestampMs-s.timestampMs), 1)
		}

		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: mp4.SyncSampleFlags,
				Size:  uint32(len(s.data)),
				Dur:   dur,
			},
			DecodeTime: uint64(s.timestampMs),
			Data:       s.data,
		})
	}

	var buf bytes.Buffer
	buf.Grow(int(r.bytes) + 4096)

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso6", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}

	return buf.Bytes(), nil
}

var _ ports.VideoRecorder = (*Recorder)(nil)
