package adapter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/splice/internal/domain"
)

// projectToken in a log file path is replaced by the project's name, giving
// each project its own log
const projectToken = "{project}"

// SetupLogger opens the configured log file and returns a logger tagged with
// the project it was started for
func SetupLogger(cfg *LoggingConfig, project string) (*slog.Logger, error) {
	logPath, err := ExpandHome(cfg.File)
	if err != nil {
		return nil, err
	}
	logPath = strings.ReplaceAll(logPath, projectToken, projectName(project))

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return newLogger(logFile, cfg).With("project", projectName(project)), nil
}

func newLogger(w io.Writer, cfg *LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLogLevel(cfg.Level),
		ReplaceAttr: millisAttr,
	}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// millisAttr renders integer attributes named like "beginMs" as timeline
// clock values, e.g. "0:05.250"
func millisAttr(_ []string, a slog.Attr) slog.Attr {
	if !strings.HasSuffix(a.Key, "Ms") {
		return a
	}
	switch a.Value.Kind() {
	case slog.KindInt64:
		return slog.String(a.Key, domain.FormatMillis(a.Value.Int64()))
	case slog.KindUint64:
		return slog.String(a.Key, domain.FormatMillis(int64(a.Value.Uint64())))
	}
	return a
}

// projectName reduces a project path to a file-name-safe label
func projectName(project string) string {
	name := filepath.Base(filepath.Clean(project))
	if project == "" || name == "." || name == string(filepath.Separator) {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSuffix(strings.ToUpper(level), "ING"))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NullLogger returns a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
