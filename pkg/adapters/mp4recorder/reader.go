package mp4recorder

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Sample is one frame read back from a recording.
type Sample struct {
	Data        []byte
	TimestampMs int
	DurationMs  int
}

// Info describes a recording.
type Info struct {
	Width      int
	Height     int
	Codec      string // Sample entry type, "jpeg" for this package
	Samples    []Sample
	DurationMs int
}

// ReadFile parses a fragmented MP4 produced by Recorder.
func ReadFile(data []byte) (*Info, error) {
	file, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if !file.IsFragmented() || file.Init == nil || file.Init.Moov == nil {
		return nil, fmt.Errorf("not a fragmented MP4")
	}

	moov := file.Init.Moov
	var trak *mp4.TrakBox
	for _, t := range moov.Traks {
		if t.Mdia != nil && t.Mdia.Hdlr != nil && t.Mdia.Hdlr.HandlerType == "vide" {
			trak = t
			break
		}
	}
	if trak == nil {
		return nil, fmt.Errorf("no video track found")
	}

	info := &Info{
		Width:  int(trak.Tkhd.Width >> 16),
		Height: int(trak.Tkhd.Height >> 16),
	}
	if stsd := trak.Mdia.Minf.Stbl.Stsd; stsd != nil && len(stsd.Children) > 0 {
		info.Codec = stsd.Children[0].Type()
	}

	ts := uint64(timescale)
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
		ts = uint64(trak.Mdia.Mdhd.Timescale)
	}

	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trak.Tkhd.TrackID {
				trex = t
				break
			}
		}
	}

	for _, seg := range file.Segments {
		for _, frag := range seg.Fragments {
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return nil, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				info.Samples = append(info.Samples, Sample{
					Data:        s.Data,
					TimestampMs: int(s.DecodeTime * 1000 / ts),
					DurationMs:  int(uint64(s.Dur) * 1000 / ts),
				})
			}
		}
	}

	if n := len(info.Samples); n > 0 {
		last := info.Samples[n-1]
		info.DurationMs = last.TimestampMs + last.DurationMs
	}
	return info, nil
}
