package mjpeg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
)

// Reader pulls chunks from an io.Reader and returns complete frames.
type Reader struct {
	src       io.Reader
	extractor *Extractor
	chunk     []byte
	pending   []Frame
	bytesRead int64
	err       error
}

// NewReader creates a Reader over src. Chunks are read only when no
// extracted frame is waiting.
func NewReader(src io.Reader, opts Options) *Reader {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultOptions().ChunkSize
	}
	return &Reader{
		src:       src,
		extractor: NewExtractor(opts),
		chunk:     make([]byte, size),
	}
}

// Next returns the next complete frame.
// It returns io.EOF once the source is exhausted; any partial frame still
// buffered at that point is discarded. Other source errors are wrapped.
func (r *Reader) Next() (Frame, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		r.fill()
	}

	frame := r.pending[0]
	r.pending[0] = nil
	r.pending = r.pending[1:]
	return frame, nil
}

// Frames returns an iterator over the remaining frames. Iteration stops at
// io.EOF; any other error is yielded once as the last element.
func (r *Reader) Frames() iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			frame, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(frame, err) || err != nil {
				return
			}
		}
	}
}

// BytesRead returns the number of bytes read from the source.
func (r *Reader) BytesRead() int64 {
	return r.bytesRead
}

// Stats returns the underlying extractor counters.
func (r *Reader) Stats() Stats {
	return r.extractor.Stats()
}

// Buffered returns the number of bytes held for an incomplete frame.
func (r *Reader) Buffered() int {
	return r.extractor.Buffered()
}

func (r *Reader) fill() {
	n, err := r.src.Read(r.chunk)
	if n > 0 {
		r.bytesRead += int64(n)
		frames, ingestErr := r.extractor.Ingest(r.chunk[:n])
		r.pending = append(r.pending, frames...)
		if ingestErr != nil {
			r.err = ingestErr
			return
		}
	}

	if err == nil {
		return
	}
	r.extractor.Reset()
	if errors.Is(err, io.EOF) {
		r.err = io.EOF
		return
	}
	r.err = fmt.Errorf("read stream: %w", err)
}

// SplitFunc is a bufio.SplitFunc that yields complete JPEG frames using the
// same rule as Extractor. Bytes before a start marker are skipped and a
// trailing partial frame is dropped at EOF. The returned token aliases the
// scanner buffer.
//
//	scanner := bufio.NewScanner(file)
//	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
//	scanner.Split(mjpeg.SplitFunc)
func SplitFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	s := bytes.Index(data, startMarker)
	if s < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep the last byte, it may be the first half of a marker
		if len(data) > 1 {
			return len(data) - 1, nil, nil
		}
		return 0, nil, nil
	}

	e := bytes.Index(data[s+markerLen:], endMarker)
	if e < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Drop leading garbage and request more data
		return s, nil, nil
	}

	end := s + markerLen + e + markerLen
	return end, data[s:end], nil
}
