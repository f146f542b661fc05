// Package mjpeg extracts JPEG frames from a Motion-JPEG byte stream.
//
// An MJPEG stream as served by ESP32 cameras is a sequence of JPEG images
// concatenated in the response body. Frame boundaries are found only by
// scanning for the JPEG Start-Of-Image and End-Of-Image markers; multipart
// headers and Content-Length values are ignored.
package mjpeg

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// JPEG marker codes. The parser handles the 0xFF prefix.
const (
	markerPrefix byte = 0xFF
	markerSOI    byte = 0xD8
	markerEOI    byte = 0xD9
	markerSOS    byte = 0xDA
	markerDHT    byte = 0xC4
	markerJPG    byte = 0xC8
	markerDAC    byte = 0xCC
	markerSOF0   byte = 0xC0
	markerSOF15  byte = 0xCF
	markerRST0   byte = 0xD0
	markerRST7   byte = 0xD7
	markerTEM    byte = 0x01
)

var (
	startMarker = []byte{markerPrefix, markerSOI}
	endMarker   = []byte{markerPrefix, markerEOI}
)

// markerLen is the size of both frame markers.
const markerLen = 2

// ErrNoFrameHeader is returned by ProbeSize when no SOFn segment precedes
// the scan data.
var ErrNoFrameHeader = errors.New("mjpeg: no frame header")

// Frame is one complete JPEG image, from SOI through EOI inclusive.
// A Frame returned by this package is never shared with the extractor.
type Frame []byte

// Valid reports whether f starts with SOI and ends with EOI.
func (f Frame) Valid() bool {
	n := len(f)
	return n >= 2*markerLen &&
		f[0] == markerPrefix && f[1] == markerSOI &&
		f[n-2] == markerPrefix && f[n-1] == markerEOI
}

// ProbeSize reads the image dimensions from the first SOFn segment without
// decoding the image.
func ProbeSize(f Frame) (width, height int, err error) {
	if len(f) < markerLen || f[0] != markerPrefix || f[1] != markerSOI {
		return 0, 0, fmt.Errorf("%w: missing start of image", ErrNoFrameHeader)
	}

	i := markerLen
	for i+markerLen <= len(f) {
		if f[i] != markerPrefix {
			return 0, 0, fmt.Errorf("%w: expected marker at offset %d", ErrNoFrameHeader, i)
		}
		marker := f[i+1]

		switch {
		case marker == markerPrefix:
			// Fill byte
			i++
			continue
		case marker == markerEOI || marker == markerSOS:
			return 0, 0, ErrNoFrameHeader
		case marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7):
			// Standalone markers carry no length
			i += markerLen
			continue
		}

		if i+4 > len(f) {
			break
		}
		length := int(binary.BigEndian.Uint16(f[i+2:]))

		if isStartOfFrame(marker) {
			// FF Cn | length(2) | precision(1) | height(2) | width(2)
			if i+9 > len(f) {
				break
			}
			height = int(binary.BigEndian.Uint16(f[i+5:]))
			width = int(binary.BigEndian.Uint16(f[i+7:]))
			return width, height, nil
		}

		i += markerLen + length
	}

	return 0, 0, fmt.Errorf("%w: truncated segment", ErrNoFrameHeader)
}

func isStartOfFrame(marker byte) bool {
	if marker < markerSOF0 || marker > markerSOF15 {
		return false
	}
	return marker != markerDHT && marker != markerJPG && marker != markerDAC
}
