package summarizer

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as Markdown tables.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates headings and row labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion adds the program version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = v
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.translate

	fmt.Fprintf(&b, "# %s\n\n", t("Stream Summary"))

	f.section(&b, "Session", [][2]string{
		{"Session ID", s.Session.ID},
		{"Source", s.Session.Source},
		{"Started", formatTime(s.Session.StartedAt)},
		{"Duration", formatDuration(s.Session.DurationMs())},
		{"Stop Reason", t(stopReasonLabel(s.Session.StopReason))},
	})

	frameSize := t("N/A")
	if s.Stream.FrameWidth > 0 && s.Stream.FrameHeight > 0 {
		frameSize = fmt.Sprintf("%dx%d", s.Stream.FrameWidth, s.Stream.FrameHeight)
	}
	f.section(&b, "Stream", [][2]string{
		{"Frames Extracted", fmt.Sprintf("%d", s.Stream.FramesExtracted)},
		{"Frames Decoded", fmt.Sprintf("%d", s.Stream.FramesDecoded)},
		{"Decode Errors", fmt.Sprintf("%d", s.Stream.DecodeErrors)},
		{"Frame Size", frameSize},
		{"Average FPS", fmt.Sprintf("%.2f", s.Stream.AverageFPS)},
		{"Bytes Read", formatBytes(s.Stream.BytesRead)},
		{"Bytes Discarded", formatBytes(s.Stream.BytesDiscarded)},
	})

	d := s.Detection
	f.section(&b, "Detection", [][2]string{
		{"Label", d.Label},
		{"Hue", formatRange(d.Hue)},
		{"Saturation", formatRange(d.Saturation)},
		{"Value", formatRange(d.Value)},
		{"Min Area", fmt.Sprintf("%d px", d.MinArea)},
		{"Detections", fmt.Sprintf("%d", d.Detections)},
		{"Frames With Objects", fmt.Sprintf("%d", d.FramesWithObjects)},
		{"Max Objects Per Frame", fmt.Sprintf("%d", d.MaxObjects)},
		{"Stage Errors", f.formatStageErrors(d.StageErrors)},
	})

	if s.Recording.Path != "" {
		f.section(&b, "Recording", [][2]string{
			{"File", s.Recording.Path},
			{"Frames", fmt.Sprintf("%d", s.Recording.Frames)},
			{"FPS", fmt.Sprintf("%g", s.Recording.FPS)},
			{"File Size", formatBytes(s.Recording.FileSize)},
		})
	}

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), formatTime(s.GeneratedAt))
	if f.version != "" {
		footer += fmt.Sprintf(" (espcam %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) section(b *strings.Builder, title string, rows [][2]string) {
	t := f.translate
	fmt.Fprintf(b, "## %s\n\n", t(title))
	fmt.Fprintf(b, "| %s | %s |\n", t("Item"), t("Value"))
	b.WriteString("|------|-------|\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", t(row[0]), escapeCell(row[1]))
	}
	b.WriteString("\n")
}

func (f *MarkdownFormatter) formatStageErrors(errs map[string]int) string {
	keys := make([]string, 0, len(errs))
	for k, n := range errs {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return f.translate("None")
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, errs[k])
	}
	return strings.Join(parts, ", ")
}

func stopReasonLabel(reason string) string {
	switch reason {
	case "eof":
		return "End of stream"
	case "cancelled":
		return "Interrupted"
	case "max_frames":
		return "Frame limit reached"
	case "duration":
		return "Time limit reached"
	case "error":
		return "Stream error"
	case "":
		return "N/A"
	default:
		return reason
	}
}

func formatRange(r ChannelRange) string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC3339)
}

func formatDuration(ms int64) string {
	return fmt.Sprintf("%.1f s", float64(ms)/1000)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// formatBytes formats bytes with binary units.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMG"[exp])
}
