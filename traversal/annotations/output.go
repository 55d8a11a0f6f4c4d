package annotations

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}

	// Auto-detect color support
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
	}
}

// Handle implements the Handler interface - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case ApplyInvoked:
		return fmt.Sprintf("%s Apply: pipeline %v on %v with %v strategies",
			latency, event.Data["pipeline"], event.Data["engine"], event.Data["strategy.count"])

	case StrategyOrder:
		return fmt.Sprintf("%s Strategy order: %v", latency, event.Data["order"])

	case StrategyApplied:
		return fmt.Sprintf("%s %s %v on pipeline %v",
			latency,
			f.colorize("✓", color.FgGreen),
			event.Data["strategy"],
			event.Data["pipeline"])

	case StrategySkipped:
		return fmt.Sprintf("%s %s %v skipped: %v",
			latency,
			f.colorize("−", color.FgYellow),
			event.Data["strategy"],
			event.Data["reason"])

	case RuleUnsupported:
		return fmt.Sprintf("%s %s %v did not fire at step %v: %v",
			latency,
			f.colorize("−", color.FgYellow),
			event.Data["strategy"],
			event.Data["step"],
			event.Data["reason"])

	case PipelineFrozen:
		return fmt.Sprintf("%s Pipeline %v frozen", latency, event.Data["pipeline"])

	case ApplyComplete:
		success, _ := event.Data["success"].(bool)
		if !success {
			return fmt.Sprintf("%s %s Apply failed: %v",
				latency,
				f.colorize("✗", color.FgRed),
				event.Data["error"])
		}
		return fmt.Sprintf("%s %s Apply done, %v steps after rewriting.",
			latency,
			f.colorize("===", color.FgGreen),
			event.Data["step.count"])

	case ErrorInvariant, ErrorConfiguration:
		return fmt.Sprintf("%s %s %v",
			latency,
			f.colorize("✗", color.FgRed),
			event.Data["error"])

	default:
		// Generic format for unknown events
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

// formatLatency formats a duration as [XXXms] or [XXXµs] with color coding.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	// Use microseconds for sub-millisecond durations
	if d < time.Millisecond {
		us := d.Microseconds()
		s := fmt.Sprintf("[%dµs]", us)
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)

	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorize applies color if enabled.
func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// ConsoleHandler creates a handler that prints formatted events to stderr.
func ConsoleHandler() Handler {
	formatter := NewOutputFormatter(os.Stderr)
	return formatter.Handle
}

// isTerminal checks if the file descriptor is a terminal.
// This is a simplified version - in production you'd use a proper terminal detection library.
func isTerminal(fd uintptr) bool {
	return fd == uintptr(1) || fd == uintptr(2) // stdout or stderr
}
