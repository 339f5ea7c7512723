package analyzer

import (
	"sort"
	"strings"

	"github.com/ludo-technologies/pydup/domain"
	"github.com/ludo-technologies/pydup/internal/parser"
)

// ExtractionConfig controls unit and block extraction.
type ExtractionConfig struct {
	MinLOC        int
	MinStmt       int
	BlockSize     int
	MaxBlocks     int
	Normalization NormalizationConfig
}

// DefaultExtractionConfig returns the extraction settings used by scan
// unless overridden.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		MinLOC:        domain.DefaultMinLOC,
		MinStmt:       domain.DefaultMinStmt,
		BlockSize:     domain.DefaultBlockSize,
		MaxBlocks:     domain.DefaultMaxBlocks,
		Normalization: DefaultNormalizationConfig(),
	}
}

// Extractor turns a parsed module into fingerprinted units, blocks and
// segments. Extraction normalizes the tree in place; callers must not
// reuse the module afterwards.
//
// An extractor holds no mutable state across calls and is safe to
// share between goroutines as long as each call gets its own tree.
type Extractor struct {
	config ExtractionConfig
}

// NewExtractor creates an extractor with the given configuration.
func NewExtractor(config ExtractionConfig) *Extractor {
	if config.BlockSize < 2 {
		config.BlockSize = domain.DefaultBlockSize
	}
	if config.MaxBlocks < 1 {
		config.MaxBlocks = domain.DefaultMaxBlocks
	}
	return &Extractor{config: config}
}

// ExtractFile extracts every function and method defined in a module.
func (e *Extractor) ExtractFile(filePath string, module *parser.Node) *domain.FileExtraction {
	result := &domain.FileExtraction{FilePath: filePath}
	if module == nil {
		return result
	}
	for _, fn := range collectFunctions(module) {
		e.extractFunction(filePath, fn.qualname, fn.node, result)
	}
	return result
}

type functionEntry struct {
	qualname string
	node     *parser.Node
}

// collectFunctions walks a module and returns its function and method
// definitions with dotted qualified names, outer definitions first.
// Definitions nested in conditionals or try blocks are found too.
func collectFunctions(module *parser.Node) []functionEntry {
	var out []functionEntry
	var walk func(stmts []*parser.Node, prefix string)
	walk = func(stmts []*parser.Node, prefix string) {
		for _, s := range stmts {
			if s == nil {
				continue
			}
			switch s.Type {
			case parser.NodeFunctionDef, parser.NodeAsyncFunctionDef:
				qual := qualify(prefix, s.Name)
				out = append(out, functionEntry{qualname: qual, node: s})
				walk(s.Body, qual)
			case parser.NodeClassDef:
				walk(s.Body, qualify(prefix, s.Name))
			default:
				walk(s.Body, prefix)
				walk(s.Orelse, prefix)
				walk(s.Finalbody, prefix)
				walk(s.Handlers, prefix)
			}
		}
	}
	walk(module.Body, "")
	return out
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func (e *Extractor) extractFunction(filePath, qualname string, fn *parser.Node, result *domain.FileExtraction) {
	loc := fn.Location.EndLine - fn.Location.StartLine + 1
	if fn.Location.StartLine == 0 || fn.Location.EndLine == 0 || loc < 1 {
		// missing position metadata, skip rather than guess
		return
	}

	nz := NewNormalizer(e.config.Normalization)
	body := nz.PrepareBody(fn)
	if len(body) == 0 {
		return
	}

	// annotations must not contribute raise edges when ignored
	nz.StripAnnotations(body)
	cfg := NewCFGBuilder().Build(qualname, body)
	body = nz.NormalizeFunctionBody(fn)

	stmtCount := countStatements(body)
	if loc >= e.config.MinLOC && stmtCount >= e.config.MinStmt {
		fingerprint := HashString(DumpList(body) + "\n" + FingerprintCFG(cfg))
		result.Units = append(result.Units, &domain.Unit{
			Qualname:    qualname,
			FilePath:    filePath,
			StartLine:   fn.Location.StartLine,
			EndLine:     fn.Location.EndLine,
			LOC:         loc,
			StmtCount:   stmtCount,
			Fingerprint: fingerprint,
			LOCBucket:   domain.LOCBucketLabel(loc),
		})
	}

	// Constructor boilerplate dominates false positives in block-level
	// matching, so __init__ is skipped here but still fingerprinted as
	// a unit above.
	if baseName(qualname) == "__init__" {
		return
	}

	hashes := make([]string, len(body))
	for i, stmt := range body {
		hashes[i] = HashString(Dump(stmt))
	}
	blocks, segments := e.extractWindows(filePath, qualname, body, hashes)
	result.Blocks = append(result.Blocks, blocks...)
	result.Segments = append(result.Segments, segments...)
}

// extractWindows slides a window of BlockSize consecutive top-level
// statements over the body. Windows must start at least
// max(BlockSize/2, 3) lines after the previously accepted window's
// start so heavily overlapping windows do not flood the report, and
// stop once MaxBlocks windows were accepted.
func (e *Extractor) extractWindows(filePath, qualname string, body []*parser.Node, hashes []string) ([]*domain.BlockUnit, []*domain.SegmentUnit) {
	size := e.config.BlockSize
	if len(body) < size {
		return nil, nil
	}

	minGap := size / 2
	if minGap < 3 {
		minGap = 3
	}

	var blocks []*domain.BlockUnit
	var segments []*domain.SegmentUnit
	lastStart := 0
	accepted := 0

	for i := 0; i+size <= len(body); i++ {
		first, last := body[i], body[i+size-1]
		startLine := first.Location.StartLine
		endLine := last.Location.EndLine
		if startLine == 0 || endLine == 0 {
			continue
		}
		if accepted > 0 && startLine-lastStart < minGap {
			continue
		}

		window := hashes[i : i+size]
		blockHash := strings.Join(window, "|")
		blocks = append(blocks, &domain.BlockUnit{
			BlockHash: blockHash,
			FilePath:  filePath,
			Qualname:  qualname,
			StartLine: startLine,
			EndLine:   endLine,
			Size:      size,
		})
		segments = append(segments, &domain.SegmentUnit{
			SegmentHash: blockHash,
			SegmentSig:  segmentSignature(window),
			FilePath:    filePath,
			Qualname:    qualname,
			StartLine:   startLine,
			EndLine:     endLine,
			Size:        size,
		})

		accepted++
		lastStart = startLine
		if accepted >= e.config.MaxBlocks {
			break
		}
	}
	return blocks, segments
}

// segmentSignature encodes a window's statement-hash multiset without
// order, so reordered segments share a signature while their
// order-sensitive hashes still differ.
func segmentSignature(window []string) string {
	sorted := make([]string, len(window))
	copy(sorted, window)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// countStatements counts statements recursively, nested suites
// included, so a compact dense function is not filtered as trivial.
func countStatements(stmts []*parser.Node) int {
	n := 0
	for _, s := range stmts {
		if s == nil {
			continue
		}
		if s.IsStatement() {
			n++
		}
		n += countStatements(s.Body)
		n += countStatements(s.Orelse)
		n += countStatements(s.Finalbody)
		n += countStatements(s.Handlers)
	}
	return n
}

func baseName(qualname string) string {
	if i := strings.LastIndex(qualname, "."); i >= 0 {
		return qualname[i+1:]
	}
	return qualname
}
