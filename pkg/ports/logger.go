// Package ports defines the interfaces between the session loop and the
// outside world: logging, files, camera streams, drawing and outputs.
package ports

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for per-frame details emitted by components.
	LevelDebug LogLevel = iota
	// LevelInfo is for session progress.
	LevelInfo
	// LevelWarn is for frames that were skipped.
	LevelWarn
	// LevelError is for failures that end the session.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a level name. Unknown names map to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "quiet", "silent":
		return LevelQuiet
	default:
		return LevelInfo
	}
}

// Logger abstracts logging with translatable messages.
//
// The msg parameter is a printf format that doubles as the translation key,
// so callers must pass constant formats and keep values in args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the
	// component name, e.g. "detect" or "preview".
	WithComponent(component string) Logger
}
