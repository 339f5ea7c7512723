package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/ludo-technologies/pydup/domain"
	"github.com/ludo-technologies/pydup/internal/analyzer"
	"github.com/ludo-technologies/pydup/internal/parser"
)

// DefaultParseTimeout bounds a single file's parse so one pathological
// input cannot hang a scan.
const DefaultParseTimeout = 30 * time.Second

// workerMultiplier over NumCPU; parsing mixes I/O with CGO calls.
const workerMultiplier = 2

// DupServiceImpl implements the DupService interface
type DupServiceImpl struct {
	fileReader domain.FileReader
	progress   domain.ProgressManager
	cache      *ExtractionCache
}

// NewDupService creates a duplication detection service.
func NewDupService() *DupServiceImpl {
	return &DupServiceImpl{
		fileReader: NewFileReader(),
		progress:   NewNoopProgressManager(),
	}
}

// SetProgressManager replaces the progress manager.
func (s *DupServiceImpl) SetProgressManager(pm domain.ProgressManager) {
	if pm != nil {
		s.progress = pm
	}
}

// SetCache attaches an extraction cache shared across scans.
func (s *DupServiceImpl) SetCache(cache *ExtractionCache) {
	s.cache = cache
}

// Detect performs duplication detection on the given request
func (s *DupServiceImpl) Detect(ctx context.Context, req *domain.DupRequest) (*domain.DupResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	files, err := s.fileReader.CollectPythonFiles(req.Paths, req.Recursive, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no Python files found in the specified paths", nil)
	}

	return s.DetectInFiles(ctx, files, req)
}

// DetectInFiles performs duplication detection on specific files
func (s *DupServiceImpl) DetectInFiles(ctx context.Context, filePaths []string, req *domain.DupRequest) (*domain.DupResponse, error) {
	start := time.Now()

	extractions, warnings := s.extractAll(ctx, filePaths, req)
	if err := ctx.Err(); err != nil {
		return nil, domain.NewAnalysisError("scan cancelled", err)
	}

	resp := s.aggregate(extractions, warnings, req)
	resp.Duration = time.Since(start).Milliseconds()
	resp.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return resp, nil
}

// extractAll runs per-file extraction in parallel. Each goroutine gets
// its own parser because tree-sitter parsers are not goroutine-safe.
func (s *DupServiceImpl) extractAll(ctx context.Context, filePaths []string, req *domain.DupRequest) ([]*domain.FileExtraction, []string) {
	config := analyzer.ExtractionConfig{
		MinLOC:    req.MinLOC,
		MinStmt:   req.MinStmt,
		BlockSize: req.BlockSize,
		MaxBlocks: req.MaxBlocks,
		Normalization: analyzer.NormalizationConfig{
			IgnoreDocstrings:      req.IgnoreDocstrings,
			IgnoreTypeAnnotations: req.IgnoreTypeAnnotations,
			NormalizeNames:        req.NormalizeNames,
			NormalizeAttributes:   req.NormalizeAttributes,
			NormalizeConstants:    req.NormalizeConstants,
		},
	}
	extractor := analyzer.NewExtractor(config)

	results := make([]*domain.FileExtraction, len(filePaths))
	var warnings []string
	var mu sync.Mutex

	s.progress.Initialize(len(filePaths))
	s.progress.Start()
	defer s.progress.Complete(true)

	processed := 0
	p := pool.New().WithMaxGoroutines(runtime.NumCPU() * workerMultiplier)
	for i, filePath := range filePaths {
		i, filePath := i, filePath
		p.Go(func() {
			extraction, err := s.extractFile(ctx, extractor, filePath)

			mu.Lock()
			defer mu.Unlock()
			processed++
			s.progress.Update(processed, len(filePaths))
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", filePath, err))
				return
			}
			results[i] = extraction
		})
	}
	p.Wait()

	out := make([]*domain.FileExtraction, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.Strings(warnings)
	return out, warnings
}

func (s *DupServiceImpl) extractFile(ctx context.Context, extractor *analyzer.Extractor, filePath string) (*domain.FileExtraction, error) {
	content, err := s.fileReader.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	sig := ContentSignature(content)
	if s.cache != nil {
		if cached, ok := s.cache.Get(filePath, sig); ok {
			return cached, nil
		}
	}

	parseCtx, cancel := context.WithTimeout(ctx, DefaultParseTimeout)
	defer cancel()

	module, err := parser.New().Parse(parseCtx, content)
	if err != nil {
		return nil, domain.NewParseError(filePath, err)
	}

	extraction := extractor.ExtractFile(filePath, module)
	if s.cache != nil {
		s.cache.Put(filePath, sig, extraction)
	}
	return extraction, nil
}

// aggregate groups extraction output by fingerprint, block hash, and
// segment signature, keeping only groups with at least MinGroupSize
// members.
func (s *DupServiceImpl) aggregate(extractions []*domain.FileExtraction, warnings []string, req *domain.DupRequest) *domain.DupResponse {
	stats := domain.NewDupStatistics()
	stats.FilesAnalyzed = len(extractions)
	stats.FilesFailed = len(warnings)

	var units []*domain.Unit
	var blocks []*domain.BlockUnit
	var segments []*domain.SegmentUnit
	for _, e := range extractions {
		units = append(units, e.Units...)
		blocks = append(blocks, e.Blocks...)
		segments = append(segments, e.Segments...)
	}
	stats.TotalUnits = len(units)
	stats.TotalBlocks = len(blocks)
	stats.TotalSegments = len(segments)
	for _, u := range units {
		stats.UnitsByLOCBucket[u.LOCBucket]++
	}

	minSize := req.MinGroupSize
	if minSize < 2 {
		minSize = 2
	}

	unitGroups := groupUnits(units, minSize)
	blockGroups := groupBlocks(blocks, minSize)
	segmentGroups := groupSegments(segments, minSize)

	stats.UnitGroupCount = len(unitGroups)
	stats.BlockGroupCount = len(blockGroups)
	stats.SegmentGroups = len(segmentGroups)
	for _, g := range unitGroups {
		stats.DuplicateUnits += g.Size()
	}

	return &domain.DupResponse{
		UnitGroups:    unitGroups,
		BlockGroups:   blockGroups,
		SegmentGroups: segmentGroups,
		Statistics:    stats,
		Warnings:      warnings,
	}
}

func groupUnits(units []*domain.Unit, minSize int) []*domain.UnitGroup {
	sort.Slice(units, func(i, j int) bool {
		if units[i].FilePath != units[j].FilePath {
			return units[i].FilePath < units[j].FilePath
		}
		return units[i].StartLine < units[j].StartLine
	})

	byFingerprint := make(map[string][]*domain.Unit)
	for _, u := range units {
		byFingerprint[u.Fingerprint] = append(byFingerprint[u.Fingerprint], u)
	}

	var groups []*domain.UnitGroup
	for fp, members := range byFingerprint {
		if len(members) < minSize {
			continue
		}
		groups = append(groups, &domain.UnitGroup{
			Fingerprint: fp,
			LOCBucket:   members[0].LOCBucket,
			Units:       members,
		})
	}
	sortGroups(groups, func(g *domain.UnitGroup) (int, string) { return g.Size(), g.Fingerprint })
	return groups
}

func groupBlocks(blocks []*domain.BlockUnit, minSize int) []*domain.BlockGroup {
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].FilePath != blocks[j].FilePath {
			return blocks[i].FilePath < blocks[j].FilePath
		}
		return blocks[i].StartLine < blocks[j].StartLine
	})

	byHash := make(map[string][]*domain.BlockUnit)
	for _, b := range blocks {
		byHash[b.BlockHash] = append(byHash[b.BlockHash], b)
	}

	var groups []*domain.BlockGroup
	for hash, members := range byHash {
		if len(members) < minSize {
			continue
		}
		groups = append(groups, &domain.BlockGroup{
			BlockHash: hash,
			Blocks:    members,
		})
	}
	sortGroups(groups, func(g *domain.BlockGroup) (int, string) { return g.Size(), g.BlockHash })
	return groups
}

// groupSegments groups by the order-insensitive signature first, then
// splits each group into exact-order matches against the first member
// and reordered matches.
func groupSegments(segments []*domain.SegmentUnit, minSize int) []*domain.SegmentGroup {
	sort.Slice(segments, func(i, j int) bool {
		if segments[i].FilePath != segments[j].FilePath {
			return segments[i].FilePath < segments[j].FilePath
		}
		return segments[i].StartLine < segments[j].StartLine
	})

	bySig := make(map[string][]*domain.SegmentUnit)
	for _, seg := range segments {
		bySig[seg.SegmentSig] = append(bySig[seg.SegmentSig], seg)
	}

	var groups []*domain.SegmentGroup
	for sig, members := range bySig {
		if len(members) < minSize {
			continue
		}
		group := &domain.SegmentGroup{SegmentSig: sig}
		leader := members[0].SegmentHash
		for _, m := range members {
			if m.SegmentHash == leader {
				group.Exact = append(group.Exact, m)
			} else {
				group.Reordered = append(group.Reordered, m)
			}
		}
		groups = append(groups, group)
	}
	sortGroups(groups, func(g *domain.SegmentGroup) (int, string) { return g.Size(), g.SegmentSig })
	return groups
}

// sortGroups orders groups by size descending, then key ascending so
// output is deterministic run to run.
func sortGroups[T any](groups []T, key func(T) (int, string)) {
	sort.Slice(groups, func(i, j int) bool {
		si, ki := key(groups[i])
		sj, kj := key(groups[j])
		if si != sj {
			return si > sj
		}
		return ki < kj
	})
}
