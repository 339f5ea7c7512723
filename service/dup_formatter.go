package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ludo-technologies/pydup/domain"
)

// DupFormatterImpl implements the domain.DupFormatter interface
type DupFormatterImpl struct {
	// ShowDetails includes every group member in text output instead
	// of the first few.
	ShowDetails bool
}

// NewDupFormatter creates a new duplication result formatter
func NewDupFormatter(showDetails bool) *DupFormatterImpl {
	return &DupFormatterImpl{ShowDetails: showDetails}
}

// Format formats a response according to the specified format
func (f *DupFormatterImpl) Format(response *domain.DupResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatText:
		return f.formatAsText(response, writer)
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.formatAsCSV(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

const textMemberLimit = 5

func (f *DupFormatterImpl) formatAsText(response *domain.DupResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "Duplication Scan Results\n")
	fmt.Fprintf(writer, "========================\n\n")

	if stats := response.Statistics; stats != nil {
		fmt.Fprintf(writer, "Summary:\n")
		fmt.Fprintf(writer, "  Files analyzed: %d\n", stats.FilesAnalyzed)
		if stats.FilesFailed > 0 {
			fmt.Fprintf(writer, "  Files failed: %d\n", stats.FilesFailed)
		}
		fmt.Fprintf(writer, "  Functions fingerprinted: %d\n", stats.TotalUnits)
		fmt.Fprintf(writer, "  Duplicate function groups: %d\n", stats.UnitGroupCount)
		fmt.Fprintf(writer, "  Duplicate block groups: %d\n", stats.BlockGroupCount)
		fmt.Fprintf(writer, "  Duplicate segment groups: %d\n", stats.SegmentGroups)
		fmt.Fprintf(writer, "  Scan duration: %dms\n\n", response.Duration)
	}

	if len(response.UnitGroups) == 0 && len(response.BlockGroups) == 0 && len(response.SegmentGroups) == 0 {
		fmt.Fprintf(writer, "No duplication found.\n")
		f.printWarnings(response, writer)
		return nil
	}

	if len(response.UnitGroups) > 0 {
		fmt.Fprintf(writer, "Duplicate Functions:\n")
		fmt.Fprintf(writer, "--------------------\n")
		for i, g := range response.UnitGroups {
			fmt.Fprintf(writer, "Group %d (%d functions, bucket %s):\n", i+1, g.Size(), g.LOCBucket)
			for j, u := range g.Units {
				if !f.ShowDetails && j >= textMemberLimit {
					fmt.Fprintf(writer, "  ... and %d more\n", g.Size()-textMemberLimit)
					break
				}
				fmt.Fprintf(writer, "  %s:%d-%d  %s (%d loc)\n", u.FilePath, u.StartLine, u.EndLine, u.Qualname, u.LOC)
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(response.BlockGroups) > 0 {
		fmt.Fprintf(writer, "Duplicate Blocks:\n")
		fmt.Fprintf(writer, "-----------------\n")
		for i, g := range response.BlockGroups {
			fmt.Fprintf(writer, "Group %d (%d blocks of %d statements):\n", i+1, g.Size(), g.Blocks[0].Size)
			for j, b := range g.Blocks {
				if !f.ShowDetails && j >= textMemberLimit {
					fmt.Fprintf(writer, "  ... and %d more\n", g.Size()-textMemberLimit)
					break
				}
				fmt.Fprintf(writer, "  %s:%d-%d  in %s\n", b.FilePath, b.StartLine, b.EndLine, b.Qualname)
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(response.SegmentGroups) > 0 {
		fmt.Fprintf(writer, "Duplicate Segments:\n")
		fmt.Fprintf(writer, "-------------------\n")
		for i, g := range response.SegmentGroups {
			fmt.Fprintf(writer, "Group %d (%d exact, %d reordered):\n", i+1, len(g.Exact), len(g.Reordered))
			printed := 0
			for _, seg := range g.Exact {
				if !f.ShowDetails && printed >= textMemberLimit {
					break
				}
				fmt.Fprintf(writer, "  %s:%d-%d  in %s\n", seg.FilePath, seg.StartLine, seg.EndLine, seg.Qualname)
				printed++
			}
			for _, seg := range g.Reordered {
				if !f.ShowDetails && printed >= textMemberLimit {
					break
				}
				fmt.Fprintf(writer, "  %s:%d-%d  in %s (reordered)\n", seg.FilePath, seg.StartLine, seg.EndLine, seg.Qualname)
				printed++
			}
			if rest := g.Size() - printed; !f.ShowDetails && rest > 0 {
				fmt.Fprintf(writer, "  ... and %d more\n", rest)
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	f.printWarnings(response, writer)
	return nil
}

func (f *DupFormatterImpl) printWarnings(response *domain.DupResponse, writer io.Writer) {
	if len(response.Warnings) == 0 {
		return
	}
	fmt.Fprintf(writer, "Warnings:\n")
	for _, w := range response.Warnings {
		fmt.Fprintf(writer, "  %s\n", w)
	}
}

// formatAsCSV flattens all group members into rows with a kind column.
func (f *DupFormatterImpl) formatAsCSV(response *domain.DupResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	header := []string{"kind", "group", "qualname", "file_path", "start_line", "end_line", "detail"}
	if err := w.Write(header); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}

	for i, g := range response.UnitGroups {
		for _, u := range g.Units {
			row := []string{"function", strconv.Itoa(i + 1), u.Qualname, u.FilePath,
				strconv.Itoa(u.StartLine), strconv.Itoa(u.EndLine), u.LOCBucket}
			if err := w.Write(row); err != nil {
				return domain.NewOutputError("failed to write CSV row", err)
			}
		}
	}
	for i, g := range response.BlockGroups {
		for _, b := range g.Blocks {
			row := []string{"block", strconv.Itoa(i + 1), b.Qualname, b.FilePath,
				strconv.Itoa(b.StartLine), strconv.Itoa(b.EndLine), strconv.Itoa(b.Size)}
			if err := w.Write(row); err != nil {
				return domain.NewOutputError("failed to write CSV row", err)
			}
		}
	}
	for i, g := range response.SegmentGroups {
		for _, seg := range g.Exact {
			row := []string{"segment", strconv.Itoa(i + 1), seg.Qualname, seg.FilePath,
				strconv.Itoa(seg.StartLine), strconv.Itoa(seg.EndLine), "exact"}
			if err := w.Write(row); err != nil {
				return domain.NewOutputError("failed to write CSV row", err)
			}
		}
		for _, seg := range g.Reordered {
			row := []string{"segment", strconv.Itoa(i + 1), seg.Qualname, seg.FilePath,
				strconv.Itoa(seg.StartLine), strconv.Itoa(seg.EndLine), "reordered"}
			if err := w.Write(row); err != nil {
				return domain.NewOutputError("failed to write CSV row", err)
			}
		}
	}

	return w.Error()
}
