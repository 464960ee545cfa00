package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mywatercloset/api/pkg/config"
)

type levelStyle struct {
	icon  string
	color string
}

var levelStyles = map[log.Level]levelStyle{
	log.DebugLevel: {icon: "🐛", color: "#7E57C2"},
	log.InfoLevel:  {icon: "🚻", color: "#1E88E5"},
	log.WarnLevel:  {icon: "⚠️", color: "#F9A825"},
	log.ErrorLevel: {icon: "❌", color: "#E53935"},
}

// Attribute keys that are highlighted in text output.
var highlightedKeys = map[string]log.Level{
	"error":     log.ErrorLevel,
	"bookingID": log.InfoLevel,
	"eventID":   log.InfoLevel,
	"status":    log.InfoLevel,
	"to":        log.InfoLevel,
	"handler":   log.DebugLevel,
	"service":   log.DebugLevel,
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(cfg *config.Log) *slog.Logger {
	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(styles())
	return slog.New(logger)
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	for level, ls := range levelStyles {
		s.Levels[level] = lipgloss.NewStyle().
			SetString(ls.icon).
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color(ls.color))
	}
	for key, level := range highlightedKeys {
		s.Keys[key] = lipgloss.NewStyle().Foreground(lipgloss.Color(levelStyles[level].color))
		s.Values[key] = lipgloss.NewStyle().Bold(true)
	}
	return s
}
