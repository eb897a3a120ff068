// Package logging builds the diagnostic logger shared by the CLI and the web shell.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// ParseLevel maps trace, debug, info, warn and error to pterm levels.
// "disabled" and "off" silence the logger.
func ParseLevel(s string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return pterm.LogLevelTrace, nil
	case "debug":
		return pterm.LogLevelDebug, nil
	case "", "info":
		return pterm.LogLevelInfo, nil
	case "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	case "disabled", "off":
		return pterm.LogLevelDisabled, nil
	default:
		return pterm.LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger writing to w at the given level. format is
// "colorful" for terminals or "json" for machine consumption.
func New(level, format string, w io.Writer) (*pterm.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var formatter pterm.LogFormatter
	switch format {
	case "", "colorful":
		formatter = pterm.LogFormatterColorful
	case "json":
		formatter = pterm.LogFormatterJSON
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return pterm.DefaultLogger.
		WithLevel(lvl).
		WithFormatter(formatter).
		WithWriter(w), nil
}

// Discard returns a logger that drops everything.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithWriter(io.Discard).WithLevel(pterm.LogLevelDisabled)
}
