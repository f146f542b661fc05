// Package filestream replays a recorded MJPEG capture as a stream source.
//
// Any file containing concatenated JPEG images works: a raw dump of the
// camera's HTTP body, or frames joined with cat.
package filestream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// Options configures replay.
type Options struct {
	Loop       bool          // Restart from the beginning at end of file
	ChunkSize  int           // Bytes per Read (default: 4096)
	ChunkDelay time.Duration // Pause after each chunk to mimic a live camera
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{ChunkSize: 4096}
}

// Source implements ports.StreamSource over a file.
type Source struct {
	path string
	fs   ports.FileSystem
	opts Options
}

// New creates a source that replays path.
func New(path string, fs ports.FileSystem, opts Options) *Source {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultOptions().ChunkSize
	}
	return &Source{path: path, fs: fs, opts: opts}
}

// Open loads the file and returns a reader over its contents.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 && s.opts.Loop {
		return nil, fmt.Errorf("cannot loop empty file %s", s.path)
	}
	return &replay{ctx: ctx, data: data, opts: s.opts}, nil
}

// Describe returns the file path.
func (s *Source) Describe() string {
	return "file://" + s.path
}

var _ ports.StreamSource = (*Source)(nil)

var errClosed = errors.New("filestream: read from closed stream")

type replay struct {
	ctx  context.Context
	data []byte
	pos  int
	opts Options

	mu     sync.Mutex
	closed bool
}

func (r *replay) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, errClosed
	}
	if r.pos >= len(r.data) {
		if !r.opts.Loop {
			r.mu.Unlock()
			return 0, io.EOF
		}
		r.pos = 0
	}
	n := copy(p[:min(len(p), r.opts.ChunkSize)], r.data[r.pos:])
	r.pos += n
	r.mu.Unlock()

	if r.opts.ChunkDelay > 0 {
		timer := time.NewTimer(r.opts.ChunkDelay)
		defer timer.Stop()
		select {
		case <-r.ctx.Done():
			return n, r.ctx.Err()
		case <-timer.C:
		}
	}
	return n, nil
}

func (r *replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.data = nil
	return nil
}
