package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDupRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DupRequest)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(r *DupRequest) {},
		},
		{
			name:    "empty paths",
			mutate:  func(r *DupRequest) { r.Paths = nil },
			wantErr: "paths",
		},
		{
			name:    "min_loc too small",
			mutate:  func(r *DupRequest) { r.MinLOC = 0 },
			wantErr: "min_loc",
		},
		{
			name:    "min_stmt too small",
			mutate:  func(r *DupRequest) { r.MinStmt = 0 },
			wantErr: "min_stmt",
		},
		{
			name:    "block_size too small",
			mutate:  func(r *DupRequest) { r.BlockSize = 1 },
			wantErr: "block_size",
		},
		{
			name:    "max_blocks too small",
			mutate:  func(r *DupRequest) { r.MaxBlocks = 0 },
			wantErr: "max_blocks",
		},
		{
			name:    "min_group_size too small",
			mutate:  func(r *DupRequest) { r.MinGroupSize = 1 },
			wantErr: "min_group_size",
		},
		{
			name:    "unsupported format",
			mutate:  func(r *DupRequest) { r.OutputFormat = OutputFormat("xml") },
			wantErr: "xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := DefaultDupRequest()
			tt.mutate(req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGroupSizes(t *testing.T) {
	ug := &UnitGroup{Units: []*Unit{{}, {}}}
	assert.Equal(t, 2, ug.Size())

	bg := &BlockGroup{Blocks: []*BlockUnit{{}, {}, {}}}
	assert.Equal(t, 3, bg.Size())

	sg := &SegmentGroup{
		Exact:     []*SegmentUnit{{}, {}},
		Reordered: []*SegmentUnit{{}},
	}
	assert.Equal(t, 3, sg.Size())
}

func TestUnitString(t *testing.T) {
	u := &Unit{
		Qualname:  "Repo.fetch",
		FilePath:  "src/repo.py",
		StartLine: 10,
		EndLine:   25,
	}
	assert.Equal(t, "Repo.fetch (src/repo.py:10-25)", u.String())
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"text", "json", "yaml", "csv"} {
		format, err := ParseOutputFormat(s)
		assert.NoError(t, err)
		assert.Equal(t, OutputFormat(s), format)
	}

	_, err := ParseOutputFormat("html")
	assert.Error(t, err)
}
