// Package filesink stores per-frame debug output as image files.
//
// Layout under the base directory:
//
//	frames/raw/frame-000001.jpg        extracted frames, byte for byte
//	frames/annotated/frame-000001.jpg  frames with detections drawn
//	frames/mask/frame-000001.png       binary colour masks
//	session.json                       session result
package filesink

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/Adc-alt/espcam/pkg/ports"
)

const annotatedQuality = 90

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer

	mu      sync.Mutex
	created map[string]bool
}

// New creates a new file sink rooted at baseDir.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		created:  make(map[string]bool),
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveRawFrame saves an extracted frame unchanged.
func (s *Sink) SaveRawFrame(index int, data []byte) error {
	path, err := s.framePath("raw", index, ports.FormatJPEG)
	if err != nil {
		return err
	}
	return s.fs.WriteFile(path, data)
}

// SaveAnnotatedFrame saves an annotated frame as JPEG.
func (s *Sink) SaveAnnotatedFrame(index int, img image.Image) error {
	return s.saveImage("annotated", index, img, ports.FormatJPEG)
}

// SaveMask saves a mask as PNG, which keeps it binary.
func (s *Sink) SaveMask(index int, img image.Image) error {
	return s.saveImage("mask", index, img, ports.FormatPNG)
}

// SaveSessionJSON saves the session result.
func (s *Sink) SaveSessionJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "session.json")
	return s.fs.WriteFile(path, data)
}

func (s *Sink) saveImage(kind string, index int, img image.Image, format ports.ImageFormat) error {
	path, err := s.framePath(kind, index, format)
	if err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, format, annotatedQuality)
	if err != nil {
		return fmt.Errorf("encode %s frame %d: %w", kind, index, err)
	}
	return s.fs.WriteFile(path, data)
}

// framePath returns the file path for a frame, creating its directory on
// first use.
func (s *Sink) framePath(kind string, index int, format ports.ImageFormat) (string, error) {
	dir := filepath.Join(s.baseDir, "frames", kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created[dir] {
		if err := s.fs.MkdirAll(dir); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
		s.created[dir] = true
	}
	return filepath.Join(dir, fmt.Sprintf("frame-%06d.%s", index, format)), nil
}

var _ ports.FrameSink = (*Sink)(nil)
