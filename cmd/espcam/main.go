// Package main provides the CLI entry point for espcam.
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/Adc-alt/espcam/pkg/adapters/filesink"
	"github.com/Adc-alt/espcam/pkg/adapters/filestream"
	"github.com/Adc-alt/espcam/pkg/adapters/ggrenderer"
	"github.com/Adc-alt/espcam/pkg/adapters/httpstream"
	"github.com/Adc-alt/espcam/pkg/adapters/logger"
	"github.com/Adc-alt/espcam/pkg/adapters/mp4recorder"
	"github.com/Adc-alt/espcam/pkg/adapters/nullsink"
	"github.com/Adc-alt/espcam/pkg/adapters/osfilesystem"
	"github.com/Adc-alt/espcam/pkg/adapters/preview"
	"github.com/Adc-alt/espcam/pkg/adapters/v4l2stream"
	"github.com/Adc-alt/espcam/pkg/config"
	"github.com/Adc-alt/espcam/pkg/mjpeg"
	"github.com/Adc-alt/espcam/pkg/orchestrator"
	"github.com/Adc-alt/espcam/pkg/ports"
	"github.com/Adc-alt/espcam/pkg/stages/annotate"
	"github.com/Adc-alt/espcam/pkg/stages/decode"
	"github.com/Adc-alt/espcam/pkg/stages/detect"
	"github.com/Adc-alt/espcam/pkg/summarizer"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	View    ViewCmd    `cmd:"" default:"withargs" help:"Read a camera stream and highlight orange objects."`
	Extract ExtractCmd `cmd:"" help:"Split an MJPEG capture into JPEG files."`
	Probe   ProbeCmd   `cmd:"" help:"Describe an MJPEG capture or a recorded MP4."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// ViewCmd defines the view subcommand.
type ViewCmd struct {
	// Config file
	Config string `short:"c" type:"existingfile" group:"Input" help:"YAML configuration file."`

	// Source
	Host   *string `group:"Input" xor:"source" help:"ESP32 host or IP (default: $ESP32_HOST, then 192.168.4.1)."`
	URL    *string `group:"Input" xor:"source" help:"Full stream URL."`
	File   string  `group:"Input" xor:"source" type:"existingfile" help:"Replay an MJPEG capture file."`
	Device string  `group:"Input" xor:"source" help:"Read a V4L2 device such as /dev/video0 (Linux)."`
	Loop   bool    `group:"Input" help:"Replay --file forever."`

	ReplayDelay time.Duration `group:"Input" help:"Pause between chunks of --file to mimic a live camera (e.g. 2ms)."`

	// Stream
	Timeout   *time.Duration `group:"Stream" help:"Time to wait for the stream to respond (default: 15s)."`
	ChunkSize *int           `group:"Stream" help:"Bytes per read (default: 1024)."`
	MaxBuffer *int           `group:"Stream" help:"Maximum bytes held for one unfinished frame (0 = unlimited)."`

	// Detection
	Hue      *string `group:"Detection" help:"Hue range min-max, 0-179 (default: 10-25)."`
	Sat      *string `group:"Detection" help:"Saturation range min-max, 0-255 (default: 120-255)."`
	Val      *string `group:"Detection" help:"Value range min-max, 0-255 (default: 120-255)."`
	MinArea  *int    `group:"Detection" help:"Ignore regions with this many pixels or fewer (default: 500)."`
	MaxWidth *int    `group:"Detection" help:"Downscale wider frames before detection (0 = keep size)."`
	Workers  int     `group:"Detection" help:"Detection workers (default: number of CPUs)."`

	// Annotation
	Label     *string `group:"Annotation" help:"Text drawn above each object (default: Naranja)."`
	BoxColor  *string `group:"Annotation" help:"Box colour (hex, e.g. #ffa500)."`
	NoOverlay bool    `group:"Annotation" help:"Do not draw the HSV range overlay."`
	Quality   *int    `short:"q" group:"Annotation" help:"JPEG quality of annotated frames (default: 85)."`

	// Outputs
	Record      *string  `short:"r" group:"Output" help:"Record annotated frames to an MP4 file."`
	FPS         *float64 `group:"Output" help:"Frame rate for the last recorded frame (default: 10)."`
	Preview     *string  `short:"p" group:"Output" help:"Serve a live preview on this address (e.g. :8080)."`
	PreviewMask bool     `group:"Output" help:"Also serve the colour mask at /mask.jpg."`
	Summary     *string  `short:"s" group:"Output" help:"Write a session summary to file (Markdown format)."`

	// Limits
	MaxFrames *int           `short:"n" group:"Limits" help:"Stop after this many frames."`
	Duration  *time.Duration `short:"t" group:"Limits" help:"Stop after this long (e.g. 30s)."`

	// Debug
	Debug    bool    `short:"d" group:"Debug" help:"Save raw, annotated and mask frames."`
	DebugDir *string `group:"Debug" help:"Directory for debug output (default: ./debug)."`

	// Logging
	LogLevel   string `short:"l" default:"info" enum:"debug,info,warn,error" group:"Logging" help:"Log level (debug, info, warn, error)."`
	Quiet      bool   `short:"Q" group:"Logging" help:"Suppress all log output."`
	Timestamps bool   `group:"Logging" help:"Prefix log lines with the time."`
}

// ExtractCmd defines the extract subcommand.
type ExtractCmd struct {
	Input        string `arg:"" type:"existingfile" help:"MJPEG capture file."`
	Output       string `short:"o" default:"frames" help:"Output directory."`
	MaxFrameSize int    `default:"16777216" help:"Largest frame in bytes."`
}

// ProbeCmd defines the probe subcommand.
type ProbeCmd struct {
	Input string `arg:"" type:"existingfile" help:"MJPEG capture or MP4 file."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("espcam"),
		kong.Description(l10n.T("Extract frames from an ESP32 camera stream and highlight orange objects")),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

const previewShutdownTimeout = 3 * time.Second

// shutdowner is the part of preview.Server used at exit.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// stopPreview shuts the preview server down, logging any failure.
func stopPreview(server shutdowner, timeout time.Duration, log ports.Logger) {
	ctx, stop := context.WithTimeout(context.Background(), timeout)
	defer stop()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("Failed to stop preview server: %v", err)
	}
}

// Run executes the view command.
func (cmd *ViewCmd) Run() error {
	cfg, err := cmd.buildConfig()
	if err != nil {
		return err
	}

	var log ports.Logger
	if cmd.Quiet {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cmd.LogLevel)).WithTimestamps(cmd.Timestamps)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	source := cmd.buildSource(cfg, fs, log)

	var sink ports.FrameSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	var recorder ports.VideoRecorder
	if cfg.RecordPath != "" {
		recorder = mp4recorder.New()
	}

	var publisher ports.Publisher
	if cfg.Preview != "" {
		server := preview.New(preview.Options{
			Addr:          cfg.Preview,
			Title:         "espcam",
			NotifySystemd: true,
		}, log)
		if err := server.Start(ctx); err != nil {
			return err
		}
		defer stopPreview(server, previewShutdownTimeout, log)
		publisher = server
	}

	orch := orchestrator.New(
		source,
		decode.NewStage(renderer, log),
		detect.NewStage(log, cfg.Workers),
		annotate.NewStage(renderer, log),
		renderer,
		recorder,
		publisher,
		fs,
		sink,
		log,
	)

	result, runErr := orch.Run(ctx, cfg.ToOrchestratorConfig())

	if cfg.SummaryPath != "" && result.SessionID != "" {
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := writer.Write(cfg.SummaryPath, buildSummary(result, cfg)); err != nil {
			log.Error("Failed to write summary: %v", err)
		} else {
			log.Info("Summary saved to %s", cfg.SummaryPath)
		}
	}

	if runErr != nil {
		return runErr
	}

	log.Info("Stream finished")
	return nil
}

// buildConfig layers the config file, then flags, over the defaults.
func (cmd *ViewCmd) buildConfig() (config.Config, error) {
	cfg := config.Defaults()
	if cmd.Config != "" {
		loaded, err := config.LoadFromFile(cmd.Config)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Host != nil {
		cfg.Host = *cmd.Host
		cfg.URL = ""
	}
	if cmd.URL != nil {
		cfg.URL = *cmd.URL
	}
	if cmd.Timeout != nil {
		cfg.Timeout = *cmd.Timeout
	}
	if cmd.ChunkSize != nil {
		cfg.ChunkSize = *cmd.ChunkSize
	}
	if cmd.MaxBuffer != nil {
		cfg.MaxBufferSize = *cmd.MaxBuffer
	}

	ranges := []struct {
		flag     *string
		min, max *int
	}{
		{cmd.Hue, &cfg.HSV.HMin, &cfg.HSV.HMax},
		{cmd.Sat, &cfg.HSV.SMin, &cfg.HSV.SMax},
		{cmd.Val, &cfg.HSV.VMin, &cfg.HSV.VMax},
	}
	for _, r := range ranges {
		if r.flag == nil {
			continue
		}
		lo, hi, err := config.ParseRange(*r.flag)
		if err != nil {
			return cfg, err
		}
		*r.min, *r.max = lo, hi
	}

	if cmd.MinArea != nil {
		cfg.MinArea = *cmd.MinArea
	}
	if cmd.MaxWidth != nil {
		cfg.MaxWidth = *cmd.MaxWidth
	}
	if cmd.Workers > 0 {
		cfg.Workers = cmd.Workers
	}
	if cmd.Label != nil {
		cfg.Label = *cmd.Label
	}
	if cmd.BoxColor != nil {
		cfg.Theme.BoxColor = *cmd.BoxColor
		cfg.Theme.LabelColor = *cmd.BoxColor
	}
	if cmd.NoOverlay {
		cfg.ShowRange = false
	}
	if cmd.Quality != nil {
		cfg.Quality = *cmd.Quality
	}

	if cmd.Record != nil {
		cfg.RecordPath = *cmd.Record
	}
	if cmd.FPS != nil {
		cfg.RecordFPS = *cmd.FPS
	}
	if cmd.Preview != nil {
		cfg.Preview = *cmd.Preview
	}
	if cmd.PreviewMask {
		cfg.PreviewMask = true
	}
	if cmd.Summary != nil {
		cfg.SummaryPath = *cmd.Summary
	}
	if cmd.MaxFrames != nil {
		cfg.MaxFrames = *cmd.MaxFrames
	}
	if cmd.Duration != nil {
		cfg.Duration = *cmd.Duration
	}
	if cmd.Debug {
		cfg.Debug = true
	}
	if cmd.DebugDir != nil {
		cfg.DebugDir = *cmd.DebugDir
	}

	return cfg, cfg.Validate()
}

func (cmd *ViewCmd) buildSource(cfg config.Config, fs ports.FileSystem, log ports.Logger) ports.StreamSource {
	switch {
	case cmd.File != "":
		opts := filestream.DefaultOptions()
		opts.Loop = cmd.Loop
		opts.ChunkDelay = cmd.ReplayDelay
		return filestream.New(cmd.File, fs, opts)
	case cmd.Device != "":
		return v4l2stream.New(cmd.Device, v4l2stream.DefaultOptions(), log)
	default:
		opts := httpstream.DefaultOptions()
		opts.HeaderTimeout = cfg.Timeout
		opts.UserAgent = "espcam/" + version
		return httpstream.New(cfg.StreamURL(), opts)
	}
}

func buildSummary(r orchestrator.RunResult, cfg config.Config) *summarizer.Summary {
	b := summarizer.NewBuilder().
		WithSession(r.SessionID, r.Source, r.StartedAt, r.EndedAt, r.StopReason).
		WithStream(summarizer.StreamInfo{
			FramesExtracted: r.FramesExtracted,
			FramesDecoded:   r.FramesDecoded,
			DecodeErrors:    r.DecodeErrors,
			BytesRead:       r.BytesRead,
			BytesDiscarded:  r.BytesDiscarded,
			FrameWidth:      r.FrameWidth,
			FrameHeight:     r.FrameHeight,
			AverageFPS:      r.AverageFPS,
		}).
		WithDetection(summarizer.DetectionInfo{
			Label:             cfg.Label,
			Hue:               summarizer.ChannelRange{Min: cfg.HSV.HMin, Max: cfg.HSV.HMax},
			Saturation:        summarizer.ChannelRange{Min: cfg.HSV.SMin, Max: cfg.HSV.SMax},
			Value:             summarizer.ChannelRange{Min: cfg.HSV.VMin, Max: cfg.HSV.VMax},
			MinArea:           cfg.MinArea,
			Detections:        r.Detections,
			FramesWithObjects: r.FramesWithObjects,
			MaxObjects:        r.MaxObjects,
			StageErrors:       r.StageErrors,
		})

	if r.RecordingPath != "" {
		b.WithRecording(summarizer.RecordingInfo{
			Path:     r.RecordingPath,
			Frames:   r.RecordedFrames,
			FPS:      cfg.RecordFPS,
			FileSize: r.RecordingSize,
		})
	}
	return b.Build()
}

// Run executes the extract command.
func (cmd *ExtractCmd) Run() error {
	f, err := os.Open(cmd.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	fs := osfilesystem.New()
	if err := fs.MkdirAll(cmd.Output); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	n, err := extractFrames(f, cmd.MaxFrameSize, func(index int, frame []byte) error {
		return fs.WriteFile(filepath.Join(cmd.Output, fmt.Sprintf("frame-%06d.jpg", index)), frame)
	})
	if err != nil {
		return err
	}

	fmt.Println(l10n.F("Extracted %d frames to %s", n, cmd.Output))
	return nil
}

// extractFrames calls save for each frame in r, numbered from 1.
func extractFrames(r io.Reader, maxFrameSize int, save func(index int, frame []byte) error) (int, error) {
	initial := 64 * 1024
	if maxFrameSize < initial {
		initial = maxFrameSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initial), maxFrameSize)
	scanner.Split(mjpeg.SplitFunc)

	n := 0
	for scanner.Scan() {
		n++
		if err := save(n, scanner.Bytes()); err != nil {
			return n, fmt.Errorf("save frame %d: %w", n, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("read input: %w", err)
	}
	return n, nil
}

// Run executes the probe command.
func (cmd *ProbeCmd) Run() error {
	data, err := os.ReadFile(cmd.Input)
	if err != nil {
		return err
	}

	if isMP4(data) {
		info, err := mp4recorder.ReadFile(data)
		if err != nil {
			return err
		}
		fmt.Println(l10n.F("MP4 video: %s, %dx%d", info.Codec, info.Width, info.Height))
		fmt.Println(l10n.F("Frames: %d, Duration: %dms", len(info.Samples), info.DurationMs))
		return nil
	}

	report, err := probeStream(bytes.NewReader(data))
	if err != nil {
		return err
	}
	fmt.Println(l10n.F("MJPEG stream: %d frames in %d bytes (%d discarded)", report.Frames, report.Bytes, report.Discarded))
	if report.Width > 0 {
		fmt.Println(l10n.F("First frame: %dx%d", report.Width, report.Height))
	}
	return nil
}

// streamReport describes an MJPEG capture.
type streamReport struct {
	Frames    int
	Bytes     int64
	Discarded int64
	Width     int
	Height    int
}

func probeStream(r io.Reader) (streamReport, error) {
	reader := mjpeg.NewReader(r, mjpeg.DefaultOptions())

	var report streamReport
	for frame, err := range reader.Frames() {
		if err != nil {
			return report, err
		}
		report.Frames++
		if report.Frames == 1 {
			if w, h, err := mjpeg.ProbeSize(frame); err == nil {
				report.Width, report.Height = w, h
			}
		}
	}

	report.Bytes = reader.BytesRead()
	report.Discarded = reader.Stats().BytesDiscarded
	if report.Frames == 0 {
		return report, orchestrator.ErrNoFrames
	}
	return report, nil
}

// isMP4 checks for an ftyp box at the start of the file.
func isMP4(data []byte) bool {
	return len(data) >= 8 && string(data[4:8]) == "ftyp"
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("espcam version %s", version))
	return nil
}

