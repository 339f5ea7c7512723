package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/pydup/domain"
)

// FileReportWriter writes reports to files or provided writers.
type FileReportWriter struct {
	status io.Writer // where to print status messages (typically stderr)
}

// NewFileReportWriter creates a new FileReportWriter.
func NewFileReportWriter(status io.Writer) *FileReportWriter {
	if status == nil {
		status = os.Stderr
	}
	return &FileReportWriter{status: status}
}

// Write implements domain.ReportWriter.
func (w *FileReportWriter) Write(writer io.Writer, outputPath string, writeFunc func(io.Writer) error) error {
	var out io.Writer

	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return domain.NewOutputError(fmt.Sprintf("failed to create output file: %s", outputPath), err)
		}
		defer file.Close()
		out = file
	} else {
		out = writer
	}

	if err := writeFunc(out); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}

	if outputPath != "" {
		absPath, err := filepath.Abs(outputPath)
		if err != nil {
			absPath = outputPath
		}
		fmt.Fprintf(w.status, "Report written: %s\n", absPath)
	}

	return nil
}
