package domain

import (
	"context"
	"fmt"
	"io"
)

// Unit represents one fingerprinted function or method. Units are
// plain immutable records; they carry no references back to the AST or
// CFG they came from, so they serialize and cross worker boundaries
// freely.
type Unit struct {
	Qualname    string `json:"qualname" yaml:"qualname" csv:"qualname"`
	FilePath    string `json:"file_path" yaml:"file_path" csv:"file_path"`
	StartLine   int    `json:"start_line" yaml:"start_line" csv:"start_line"`
	EndLine     int    `json:"end_line" yaml:"end_line" csv:"end_line"`
	LOC         int    `json:"loc" yaml:"loc" csv:"loc"`
	StmtCount   int    `json:"stmt_count" yaml:"stmt_count" csv:"stmt_count"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint" csv:"fingerprint"`
	LOCBucket   string `json:"loc_bucket" yaml:"loc_bucket" csv:"loc_bucket"`
}

// String returns string representation of Unit
func (u *Unit) String() string {
	return fmt.Sprintf("%s (%s:%d-%d)", u.Qualname, u.FilePath, u.StartLine, u.EndLine)
}

// BlockUnit represents one fixed-size window of consecutive statements
// inside a function body, hashed by its per-statement normalized hashes.
type BlockUnit struct {
	BlockHash string `json:"block_hash" yaml:"block_hash" csv:"block_hash"`
	FilePath  string `json:"file_path" yaml:"file_path" csv:"file_path"`
	Qualname  string `json:"qualname" yaml:"qualname" csv:"qualname"`
	StartLine int    `json:"start_line" yaml:"start_line" csv:"start_line"`
	EndLine   int    `json:"end_line" yaml:"end_line" csv:"end_line"`
	Size      int    `json:"size" yaml:"size" csv:"size"`
}

// SegmentUnit is a sliding statement window tracked with both an
// order-sensitive hash and an order-insensitive signature. Grouping
// matches by signature first, then refines by hash.
type SegmentUnit struct {
	SegmentHash string `json:"segment_hash" yaml:"segment_hash" csv:"segment_hash"`
	SegmentSig  string `json:"segment_sig" yaml:"segment_sig" csv:"segment_sig"`
	FilePath    string `json:"file_path" yaml:"file_path" csv:"file_path"`
	Qualname    string `json:"qualname" yaml:"qualname" csv:"qualname"`
	StartLine   int    `json:"start_line" yaml:"start_line" csv:"start_line"`
	EndLine     int    `json:"end_line" yaml:"end_line" csv:"end_line"`
	Size        int    `json:"size" yaml:"size" csv:"size"`
}

// FileExtraction holds everything extracted from a single file.
type FileExtraction struct {
	FilePath string         `json:"file_path" yaml:"file_path"`
	Units    []*Unit        `json:"units" yaml:"units"`
	Blocks   []*BlockUnit   `json:"blocks" yaml:"blocks"`
	Segments []*SegmentUnit `json:"segments" yaml:"segments"`
}

// UnitGroup is a set of functions sharing one fingerprint.
type UnitGroup struct {
	Fingerprint string  `json:"fingerprint" yaml:"fingerprint"`
	LOCBucket   string  `json:"loc_bucket" yaml:"loc_bucket"`
	Units       []*Unit `json:"units" yaml:"units"`
}

// Size returns the number of members in the group
func (g *UnitGroup) Size() int { return len(g.Units) }

// BlockGroup is a set of statement blocks sharing one block hash.
type BlockGroup struct {
	BlockHash string       `json:"block_hash" yaml:"block_hash"`
	Blocks    []*BlockUnit `json:"blocks" yaml:"blocks"`
}

// Size returns the number of members in the group
func (g *BlockGroup) Size() int { return len(g.Blocks) }

// SegmentGroup is a set of segments with equal signatures, refined by
// exact order: Exact holds the members whose order-sensitive hash also
// matches the group leader, Reordered holds signature-only matches.
type SegmentGroup struct {
	SegmentSig string         `json:"segment_sig" yaml:"segment_sig"`
	Exact      []*SegmentUnit `json:"exact" yaml:"exact"`
	Reordered  []*SegmentUnit `json:"reordered" yaml:"reordered"`
}

// Size returns the number of members in the group
func (g *SegmentGroup) Size() int { return len(g.Exact) + len(g.Reordered) }

// DupStatistics summarizes a scan
type DupStatistics struct {
	FilesAnalyzed    int            `json:"files_analyzed" yaml:"files_analyzed"`
	FilesFailed      int            `json:"files_failed" yaml:"files_failed"`
	TotalUnits       int            `json:"total_units" yaml:"total_units"`
	TotalBlocks      int            `json:"total_blocks" yaml:"total_blocks"`
	TotalSegments    int            `json:"total_segments" yaml:"total_segments"`
	DuplicateUnits   int            `json:"duplicate_units" yaml:"duplicate_units"`
	UnitGroupCount   int            `json:"unit_group_count" yaml:"unit_group_count"`
	BlockGroupCount  int            `json:"block_group_count" yaml:"block_group_count"`
	SegmentGroups    int            `json:"segment_group_count" yaml:"segment_group_count"`
	UnitsByLOCBucket map[string]int `json:"units_by_loc_bucket" yaml:"units_by_loc_bucket"`
}

// NewDupStatistics creates an empty statistics instance
func NewDupStatistics() *DupStatistics {
	return &DupStatistics{
		UnitsByLOCBucket: make(map[string]int),
	}
}

// DupRequest represents a request for duplication detection
type DupRequest struct {
	// Input parameters
	Paths           []string `json:"paths"`
	Recursive       bool     `json:"recursive"`
	IncludePatterns []string `json:"include_patterns"`
	ExcludePatterns []string `json:"exclude_patterns"`

	// Extraction thresholds
	MinLOC    int `json:"min_loc"`
	MinStmt   int `json:"min_stmt"`
	BlockSize int `json:"block_size"`
	MaxBlocks int `json:"max_blocks"`

	// Normalization toggles
	IgnoreDocstrings      bool `json:"ignore_docstrings"`
	IgnoreTypeAnnotations bool `json:"ignore_type_annotations"`
	NormalizeNames        bool `json:"normalize_names"`
	NormalizeAttributes   bool `json:"normalize_attributes"`
	NormalizeConstants    bool `json:"normalize_constants"`

	// Output configuration
	OutputFormat OutputFormat `json:"output_format"`
	OutputWriter io.Writer    `json:"-"`
	OutputPath   string       `json:"output_path"`
	ShowDetails  bool         `json:"show_details"`
	MinGroupSize int          `json:"min_group_size"`
	NoProgress   bool         `json:"no_progress"`

	// Configuration file
	ConfigPath string `json:"config_path"`
}

// DupResponse represents the results of a duplication scan
type DupResponse struct {
	UnitGroups    []*UnitGroup    `json:"unit_groups" yaml:"unit_groups"`
	BlockGroups   []*BlockGroup   `json:"block_groups" yaml:"block_groups"`
	SegmentGroups []*SegmentGroup `json:"segment_groups" yaml:"segment_groups"`
	Statistics    *DupStatistics  `json:"statistics" yaml:"statistics"`

	// Metadata
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration    int64    `json:"duration_ms" yaml:"duration_ms"`
	GeneratedAt string   `json:"generated_at" yaml:"generated_at"`
}

// DupService defines the interface for duplication detection services
type DupService interface {
	// Detect performs duplication detection on the given request
	Detect(ctx context.Context, req *DupRequest) (*DupResponse, error)

	// DetectInFiles performs duplication detection on specific files
	DetectInFiles(ctx context.Context, filePaths []string, req *DupRequest) (*DupResponse, error)
}

// DupFormatter defines the interface for formatting scan results
type DupFormatter interface {
	// Format formats a response according to the specified format
	Format(response *DupResponse, format OutputFormat, writer io.Writer) error
}

// FileReader abstracts source file collection and reading
type FileReader interface {
	// CollectPythonFiles gathers Python files under the given paths
	CollectPythonFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// IsValidPythonFile checks by extension
	IsValidPythonFile(path string) bool
}

// Validate validates a dup request
func (req *DupRequest) Validate() error {
	if len(req.Paths) == 0 {
		return NewValidationError("paths cannot be empty")
	}
	if req.MinLOC < 1 {
		return NewValidationError("min_loc must be >= 1")
	}
	if req.MinStmt < 1 {
		return NewValidationError("min_stmt must be >= 1")
	}
	if req.BlockSize < 2 {
		return NewValidationError("block_size must be >= 2")
	}
	if req.MaxBlocks < 1 {
		return NewValidationError("max_blocks must be >= 1")
	}
	if req.MinGroupSize < 2 {
		return NewValidationError("min_group_size must be >= 2")
	}
	switch req.OutputFormat {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV:
	default:
		return NewUnsupportedFormatError(string(req.OutputFormat))
	}
	return nil
}

// DefaultDupRequest returns a request populated with default settings
func DefaultDupRequest() *DupRequest {
	return &DupRequest{
		Paths:                 []string{"."},
		Recursive:             true,
		IncludePatterns:       []string{"**/*.py"},
		ExcludePatterns:       DefaultExcludePatterns(),
		MinLOC:                DefaultMinLOC,
		MinStmt:               DefaultMinStmt,
		BlockSize:             DefaultBlockSize,
		MaxBlocks:             DefaultMaxBlocks,
		IgnoreDocstrings:      true,
		IgnoreTypeAnnotations: true,
		NormalizeNames:        true,
		NormalizeAttributes:   true,
		NormalizeConstants:    true,
		OutputFormat:          OutputFormatText,
		MinGroupSize:          DefaultMinGroupSize,
	}
}
