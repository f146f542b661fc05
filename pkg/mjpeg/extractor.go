package mjpeg

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrBufferOverflow is returned when the pending bytes exceed
// Options.MaxBufferSize without completing a frame.
var ErrBufferOverflow = errors.New("mjpeg: frame buffer overflow")

// Options configures an Extractor or a Reader.
type Options struct {
	// ChunkSize is the read size used by Reader (default: 1024).
	ChunkSize int
	// MaxBufferSize caps the bytes held for a single unterminated frame.
	// Zero means unlimited.
	MaxBufferSize int
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		ChunkSize:     1024,
		MaxBufferSize: 0,
	}
}

// Stats contains extractor counters.
type Stats struct {
	Frames         int64 // Frames emitted
	BytesIngested  int64 // Bytes passed to Ingest
	BytesDiscarded int64 // Garbage before a start marker plus residue dropped by Reset or overflow
}

// Extractor turns arbitrary chunks of an MJPEG stream into complete frames.
//
// A frame is emitted when the buffer holds a start marker followed by an end
// marker. Everything up to and including the end marker is then dropped,
// including bytes before the start marker. The extractor is not safe for
// concurrent use; use one per connection.
type Extractor struct {
	buf  []byte
	head int // offset of the first unconsumed byte in buf

	// Offsets already searched without a match. A search resumes one byte
	// before these so a marker split across chunks is still found.
	startScan int
	endScan   int

	maxBuffer int
	stats     Stats
}

// NewExtractor creates an Extractor with an empty buffer.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{
		maxBuffer: opts.MaxBufferSize,
	}
}

// Ingest appends chunk to the buffer and returns every frame completed by it,
// in stream order. An empty chunk is a no-op.
//
// When MaxBufferSize is set and the remaining bytes exceed it, the buffer is
// dropped and ErrBufferOverflow is returned together with any frames
// extracted before the check.
func (x *Extractor) Ingest(chunk []byte) ([]Frame, error) {
	if len(chunk) == 0 {
		return nil, nil
	}

	x.buf = append(x.buf, chunk...)
	x.stats.BytesIngested += int64(len(chunk))

	var frames []Frame
	for {
		frame, ok := x.next()
		if !ok {
			break
		}
		frames = append(frames, frame)
	}
	x.compact()

	if x.maxBuffer > 0 && len(x.buf) > x.maxBuffer {
		pending := len(x.buf)
		x.Reset()
		return frames, fmt.Errorf("%w: %d bytes pending, limit %d", ErrBufferOverflow, pending, x.maxBuffer)
	}

	return frames, nil
}

// Buffered returns the number of bytes held for an incomplete frame.
func (x *Extractor) Buffered() int {
	return len(x.buf) - x.head
}

// Stats returns a snapshot of the extractor counters.
func (x *Extractor) Stats() Stats {
	return x.stats
}

// Reset drops any buffered bytes and releases the buffer.
func (x *Extractor) Reset() {
	x.stats.BytesDiscarded += int64(x.Buffered())
	x.buf = nil
	x.head = 0
	x.startScan = 0
	x.endScan = 0
}

// next extracts one frame from the unconsumed part of the buffer.
func (x *Extractor) next() (Frame, bool) {
	s := x.findStart()
	if s < 0 {
		return nil, false
	}
	e := x.findEnd(s)
	if e < 0 {
		return nil, false
	}

	end := e + markerLen
	frame := make(Frame, end-s)
	copy(frame, x.buf[s:end])

	x.stats.Frames++
	x.stats.BytesDiscarded += int64(s - x.head)

	x.head = end
	x.startScan = end
	x.endScan = end
	return frame, true
}

// findStart returns the absolute offset of the first start marker, or -1.
func (x *Extractor) findStart() int {
	from := max(x.head, x.startScan)
	i := bytes.Index(x.buf[from:], startMarker)
	if i < 0 {
		x.startScan = max(from, len(x.buf)-1)
		return -1
	}
	x.startScan = from + i
	return x.startScan
}

// findEnd returns the absolute offset of the first end marker after the
// start marker at s, or -1. An end marker before s can never close a frame.
func (x *Extractor) findEnd(s int) int {
	from := max(s+markerLen, x.endScan)
	i := bytes.Index(x.buf[from:], endMarker)
	if i < 0 {
		x.endScan = max(from, len(x.buf)-1)
		return -1
	}
	return from + i
}

// compact moves the unconsumed bytes to the front of the buffer.
func (x *Extractor) compact() {
	if x.head == 0 {
		return
	}
	n := copy(x.buf, x.buf[x.head:])
	clear(x.buf[n:])
	x.buf = x.buf[:n]

	x.startScan = max(x.startScan-x.head, 0)
	x.endScan = max(x.endScan-x.head, 0)
	x.head = 0
}
