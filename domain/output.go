package domain

import (
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
)

// ParseOutputFormat validates a format string from the CLI or config.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV:
		return OutputFormat(s), nil
	}
	return "", NewUnsupportedFormatError(s)
}

// ReportWriter abstracts writing formatted reports to a destination
// (a file path or an already-open writer).
//
// Implementations live in the service layer.
type ReportWriter interface {
	// Write writes formatted content using the provided writeFunc. If
	// outputPath is non-empty the implementation creates/truncates the
	// file at that path and passes it to writeFunc; otherwise it
	// passes the given writer.
	Write(writer io.Writer, outputPath string, writeFunc func(io.Writer) error) error
}

// ProgressManager manages progress tracking for a scan
type ProgressManager interface {
	// Initialize sets up progress tracking with the maximum value
	Initialize(maxValue int)

	// Start starts the progress bar
	Start()

	// Update updates the progress
	Update(processed, total int)

	// Complete marks the progress as completed
	Complete(success bool)

	// SetWriter sets the output writer for progress bars
	SetWriter(writer io.Writer)

	// IsInteractive returns true if progress bars should be shown
	IsInteractive() bool

	// Close cleans up any resources
	Close()
}
