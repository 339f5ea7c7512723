package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/pydup/domain"
)

// DupUseCase orchestrates a duplication scan: validation, detection,
// formatting, and report writing.
type DupUseCase struct {
	service   domain.DupService
	formatter domain.DupFormatter
	writer    domain.ReportWriter
}

// NewDupUseCase creates a new dup use case with the given dependencies
func NewDupUseCase(
	service domain.DupService,
	formatter domain.DupFormatter,
	writer domain.ReportWriter,
) *DupUseCase {
	return &DupUseCase{
		service:   service,
		formatter: formatter,
		writer:    writer,
	}
}

// Execute runs a duplication scan for the request's paths.
func (uc *DupUseCase) Execute(ctx context.Context, req *domain.DupRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if req.OutputWriter == nil && req.OutputPath == "" {
		return domain.NewInvalidInputError("no output destination specified", nil)
	}

	response, err := uc.service.Detect(ctx, req)
	if err != nil {
		return fmt.Errorf("duplication detection failed: %w", err)
	}

	return uc.writer.Write(req.OutputWriter, req.OutputPath, func(w io.Writer) error {
		return uc.formatter.Format(response, req.OutputFormat, w)
	})
}

// ExecuteWithFiles runs a duplication scan on specific files.
func (uc *DupUseCase) ExecuteWithFiles(ctx context.Context, filePaths []string, req *domain.DupRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	response, err := uc.service.DetectInFiles(ctx, filePaths, req)
	if err != nil {
		return fmt.Errorf("duplication detection failed: %w", err)
	}

	return uc.writer.Write(req.OutputWriter, req.OutputPath, func(w io.Writer) error {
		return uc.formatter.Format(response, req.OutputFormat, w)
	})
}
