package domain

// Extraction defaults. The thresholds below filter out trivially small
// functions whose duplication is noise rather than architecture.
const (
	// DefaultMinLOC is the minimum line count for a function to be
	// fingerprinted as a unit.
	DefaultMinLOC = 5

	// DefaultMinStmt is the minimum number of statements for a
	// function to be fingerprinted as a unit.
	DefaultMinStmt = 3

	// DefaultBlockSize is the number of consecutive statements hashed
	// into one block window.
	DefaultBlockSize = 4

	// DefaultMaxBlocks caps accepted block windows per function so a
	// single enormous function cannot dominate the report.
	DefaultMaxBlocks = 50

	// DefaultMinGroupSize is the minimum number of members before a
	// group is reported.
	DefaultMinGroupSize = 2
)

// LOCBucketBreakpoints are the coarse size-class boundaries used for
// the loc_bucket label on units. Functions are only grouped against
// peers in the same bucket downstream.
var LOCBucketBreakpoints = []int{20, 50, 100}

// LOCBucketLabel returns the bucket label for a line count.
func LOCBucketLabel(loc int) string {
	switch {
	case loc < 20:
		return "0-19"
	case loc < 50:
		return "20-49"
	case loc < 100:
		return "50-99"
	default:
		return "100+"
	}
}

// DefaultExcludePatterns returns glob patterns for paths skipped
// during file collection.
func DefaultExcludePatterns() []string {
	return []string{
		"**/.git/**",
		"**/.venv/**",
		"**/venv/**",
		"**/node_modules/**",
		"**/__pycache__/**",
		"**/.tox/**",
		"**/build/**",
		"**/dist/**",
	}
}
