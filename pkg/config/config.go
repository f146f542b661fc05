// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Adc-alt/espcam/pkg/adapters/httpstream"
	"github.com/Adc-alt/espcam/pkg/mjpeg"
	"github.com/Adc-alt/espcam/pkg/orchestrator"
	"github.com/Adc-alt/espcam/pkg/pipeline"
)

// HostEnv names the environment variable that supplies the camera host.
const HostEnv = "ESP32_HOST"

// Config represents the full configuration for espcam.
type Config struct {
	// Stream
	Host          string        `yaml:"host"`
	URL           string        `yaml:"url"` // Overrides host when set
	Timeout       time.Duration `yaml:"timeout"`
	ChunkSize     int           `yaml:"chunk_size"`
	MaxBufferSize int           `yaml:"max_buffer"`

	// Detection
	HSV      pipeline.HSVRange `yaml:"hsv"`
	MinArea  int               `yaml:"min_area"`
	MaxWidth int               `yaml:"max_width"`
	Workers  int               `yaml:"workers"`

	// Annotation
	Label     string      `yaml:"label"`
	Theme     ThemeConfig `yaml:"theme"`
	ShowRange bool        `yaml:"show_range"`
	Quality   int         `yaml:"quality"`

	// Outputs
	Debug       bool    `yaml:"debug"`
	DebugDir    string  `yaml:"debug_dir"`
	RecordPath  string  `yaml:"record"`
	RecordFPS   float64 `yaml:"record_fps"`
	Preview     string  `yaml:"preview"` // Listen address; empty disables the preview
	PreviewMask bool    `yaml:"preview_mask"`
	SummaryPath string  `yaml:"summary"`

	// Limits
	MaxFrames int           `yaml:"max_frames"`
	Duration  time.Duration `yaml:"duration"`
}

// ThemeConfig represents annotation colours as hex strings.
type ThemeConfig struct {
	BoxColor   string `yaml:"box_color"`
	LabelColor string `yaml:"label_color"`
	TextColor  string `yaml:"text_color"`
}

// Defaults returns a Config with default values. The host comes from
// ESP32_HOST when it is set.
func Defaults() Config {
	host := os.Getenv(HostEnv)
	if host == "" {
		host = httpstream.DefaultHost
	}
	opts := mjpeg.DefaultOptions()

	return Config{
		Host:          host,
		Timeout:       httpstream.DefaultHeaderTimeout,
		ChunkSize:     opts.ChunkSize,
		MaxBufferSize: opts.MaxBufferSize,

		HSV:     pipeline.DefaultHSVRange(),
		MinArea: pipeline.DefaultMinArea,

		Label: pipeline.DefaultLabel,
		Theme: ThemeConfig{
			BoxColor:   "#ffa500",
			LabelColor: "#ffa500",
			TextColor:  "#ffffff",
		},
		ShowRange: true,
		Quality:   pipeline.DefaultQuality,

		DebugDir:  "./debug",
		RecordFPS: 10,
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if err := c.HSV.Validate(); err != nil {
		return err
	}
	if c.MinArea < 0 {
		return fmt.Errorf("min_area must not be negative: %d", c.MinArea)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100: %d", c.Quality)
	}
	if c.ChunkSize < 0 || c.MaxBufferSize < 0 {
		return fmt.Errorf("chunk_size and max_buffer must not be negative")
	}
	for _, hex := range []string{c.Theme.BoxColor, c.Theme.LabelColor, c.Theme.TextColor} {
		if _, err := ParseColor(hex); err != nil {
			return err
		}
	}
	return nil
}

// StreamURL returns the stream URL, built from the host unless a URL is set.
func (c Config) StreamURL() string {
	if c.URL != "" {
		return c.URL
	}
	return httpstream.URLForHost(c.Host)
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: want #rrggbb", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// ParseRange parses an inclusive channel range such as "10-25".
func ParseRange(s string) (lo, hi int, err error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range %q: want min-max", s)
	}
	if lo, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if hi, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: %w", s, err)
	}
	return lo, hi, nil
}

// AnnotateTheme converts the hex colours. Invalid colours fall back to the
// defaults; Validate reports them.
func (c Config) AnnotateTheme() pipeline.AnnotateTheme {
	theme := pipeline.DefaultAnnotateTheme()
	if col, err := ParseColor(c.Theme.BoxColor); err == nil {
		theme.BoxColor = col
	}
	if col, err := ParseColor(c.Theme.LabelColor); err == nil {
		theme.LabelColor = col
	}
	if col, err := ParseColor(c.Theme.TextColor); err == nil {
		theme.TextColor = col
	}
	theme.ShowRange = c.ShowRange
	return theme
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	cfg := orchestrator.DefaultConfig()

	cfg.ChunkSize = c.ChunkSize
	cfg.MaxBufferSize = c.MaxBufferSize

	cfg.MaxWidth = c.MaxWidth
	cfg.Range = c.HSV
	cfg.MinArea = c.MinArea
	cfg.Label = c.Label
	cfg.Theme = c.AnnotateTheme()
	cfg.Quality = c.Quality

	cfg.PublishMask = c.Preview != "" && c.PreviewMask

	cfg.RecordPath = c.RecordPath
	cfg.RecordFPS = c.RecordFPS

	cfg.MaxFrames = c.MaxFrames
	cfg.Duration = c.Duration

	return cfg
}
