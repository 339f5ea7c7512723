package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ludo-technologies/pydup/app"
	"github.com/ludo-technologies/pydup/domain"
	"github.com/ludo-technologies/pydup/internal/config"
	"github.com/ludo-technologies/pydup/service"
)

// ScanCommand handles the duplication scan CLI command
type ScanCommand struct {
	// Input parameters
	recursive       bool
	configFile      string
	includePatterns []string
	excludePatterns []string

	// Extraction thresholds
	minLOC    int
	minStmt   int
	blockSize int
	maxBlocks int

	// Normalization toggles
	keepDocstrings  bool
	keepAnnotations bool
	keepNames       bool
	keepAttributes  bool
	keepConstants   bool

	// Output options
	format       string
	outputPath   string
	showDetails  bool
	minGroupSize int
	noProgress   bool
}

// NewScanCmd creates the Cobra command for duplication scanning
func NewScanCmd() *cobra.Command {
	c := &ScanCommand{}

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan Python code for architectural duplication",
		Long: `Scan Python files for duplicated functions, statement blocks and
reordered statement segments.

Functions are fingerprinted by their normalized syntax tree combined
with a control-flow fingerprint, so two functions match only when both
their statement structure and their control flow agree. Blocks are
fixed-size statement windows; segments additionally match when the
same statements appear in a different order.

Examples:
  # Scan the current directory
  pydup scan .

  # Scan with a larger block window, JSON output
  pydup scan --block-size 6 --format json src/

  # Keep identifier names significant
  pydup scan --keep-names src/

  # Write a report file
  pydup scan -o report.yaml --format yaml src/`,
		RunE: c.run,
	}

	flags := cmd.Flags()
	flags.BoolVarP(&c.recursive, "recursive", "r", true, "Recursively scan directories")
	flags.StringVarP(&c.configFile, "config", "c", "", "Path to configuration file")
	flags.StringSliceVar(&c.includePatterns, "include", nil, "File patterns to include")
	flags.StringSliceVar(&c.excludePatterns, "exclude", nil, "File patterns to exclude")

	flags.IntVar(&c.minLOC, "min-loc", domain.DefaultMinLOC, "Minimum function length in lines")
	flags.IntVar(&c.minStmt, "min-stmt", domain.DefaultMinStmt, "Minimum function statement count")
	flags.IntVar(&c.blockSize, "block-size", domain.DefaultBlockSize, "Statements per block window")
	flags.IntVar(&c.maxBlocks, "max-blocks", domain.DefaultMaxBlocks, "Maximum block windows per function")

	flags.BoolVar(&c.keepDocstrings, "keep-docstrings", false, "Treat docstrings as significant")
	flags.BoolVar(&c.keepAnnotations, "keep-annotations", false, "Treat type annotations as significant")
	flags.BoolVar(&c.keepNames, "keep-names", false, "Treat identifier names as significant")
	flags.BoolVar(&c.keepAttributes, "keep-attributes", false, "Treat attribute names as significant")
	flags.BoolVar(&c.keepConstants, "keep-constants", false, "Treat constant values as significant")

	flags.StringVarP(&c.format, "format", "f", "text", "Output format: text, json, yaml, csv")
	flags.StringVarP(&c.outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	flags.BoolVarP(&c.showDetails, "details", "d", false, "List every group member")
	flags.IntVar(&c.minGroupSize, "min-group-size", domain.DefaultMinGroupSize, "Minimum members for a reported group")
	flags.BoolVar(&c.noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func (c *ScanCommand) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	req, err := c.buildRequest(cmd, args)
	if err != nil {
		return err
	}

	svc := service.NewDupService()
	svc.SetCache(service.NewExtractionCache())
	if !req.NoProgress {
		svc.SetProgressManager(service.NewProgressManager())
	}

	uc := app.NewDupUseCase(
		svc,
		service.NewDupFormatter(req.ShowDetails),
		service.NewFileReportWriter(os.Stderr),
	)

	return uc.Execute(cmd.Context(), req)
}

// buildRequest merges configuration sources with CLI flags. Explicitly
// set flags win over config file values, which win over defaults.
func (c *ScanCommand) buildRequest(cmd *cobra.Command, paths []string) (*domain.DupRequest, error) {
	cfg, err := config.LoadConfig(c.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	req := cfg.ToRequest(paths)
	if err := c.applyFlags(cmd.Flags(), req); err != nil {
		return nil, err
	}

	req.OutputPath = c.outputPath
	req.OutputWriter = cmd.OutOrStdout()
	req.ConfigPath = c.configFile

	return req, nil
}

// applyFlags overlays explicitly set flags onto a config-derived
// request.
func (c *ScanCommand) applyFlags(flags *pflag.FlagSet, req *domain.DupRequest) error {
	if flags.Changed("recursive") {
		req.Recursive = c.recursive
	}
	if flags.Changed("include") {
		req.IncludePatterns = c.includePatterns
	}
	if flags.Changed("exclude") {
		req.ExcludePatterns = c.excludePatterns
	}
	if flags.Changed("min-loc") {
		req.MinLOC = c.minLOC
	}
	if flags.Changed("min-stmt") {
		req.MinStmt = c.minStmt
	}
	if flags.Changed("block-size") {
		req.BlockSize = c.blockSize
	}
	if flags.Changed("max-blocks") {
		req.MaxBlocks = c.maxBlocks
	}
	if flags.Changed("keep-docstrings") {
		req.IgnoreDocstrings = !c.keepDocstrings
	}
	if flags.Changed("keep-annotations") {
		req.IgnoreTypeAnnotations = !c.keepAnnotations
	}
	if flags.Changed("keep-names") {
		req.NormalizeNames = !c.keepNames
	}
	if flags.Changed("keep-attributes") {
		req.NormalizeAttributes = !c.keepAttributes
	}
	if flags.Changed("keep-constants") {
		req.NormalizeConstants = !c.keepConstants
	}
	if flags.Changed("format") {
		format, err := domain.ParseOutputFormat(c.format)
		if err != nil {
			return err
		}
		req.OutputFormat = format
	}
	if flags.Changed("details") {
		req.ShowDetails = c.showDetails
	}
	if flags.Changed("min-group-size") {
		req.MinGroupSize = c.minGroupSize
	}
	if flags.Changed("no-progress") {
		req.NoProgress = c.noProgress
	}
	return nil
}
