package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pydup/domain"
)

func sampleResponse() *domain.DupResponse {
	stats := domain.NewDupStatistics()
	stats.FilesAnalyzed = 2
	stats.TotalUnits = 4
	stats.UnitGroupCount = 1
	stats.DuplicateUnits = 2

	return &domain.DupResponse{
		UnitGroups: []*domain.UnitGroup{
			{
				Fingerprint: "fp1",
				LOCBucket:   "0-19",
				Units: []*domain.Unit{
					{Qualname: "first", FilePath: "a.py", StartLine: 1, EndLine: 6, LOC: 6, Fingerprint: "fp1", LOCBucket: "0-19"},
					{Qualname: "second", FilePath: "b.py", StartLine: 10, EndLine: 15, LOC: 6, Fingerprint: "fp1", LOCBucket: "0-19"},
				},
			},
		},
		BlockGroups: []*domain.BlockGroup{
			{
				BlockHash: "h1|h2|h3|h4",
				Blocks: []*domain.BlockUnit{
					{BlockHash: "h1|h2|h3|h4", FilePath: "a.py", Qualname: "first", StartLine: 2, EndLine: 5, Size: 4},
					{BlockHash: "h1|h2|h3|h4", FilePath: "b.py", Qualname: "second", StartLine: 11, EndLine: 14, Size: 4},
				},
			},
		},
		SegmentGroups: []*domain.SegmentGroup{
			{
				SegmentSig: "h1|h2|h3|h4",
				Exact: []*domain.SegmentUnit{
					{SegmentHash: "h1|h2|h3|h4", SegmentSig: "h1|h2|h3|h4", FilePath: "a.py", Qualname: "first", StartLine: 2, EndLine: 5, Size: 4},
				},
				Reordered: []*domain.SegmentUnit{
					{SegmentHash: "h4|h3|h2|h1", SegmentSig: "h1|h2|h3|h4", FilePath: "b.py", Qualname: "second", StartLine: 11, EndLine: 14, Size: 4},
				},
			},
		},
		Statistics: stats,
		Warnings:   []string{"c.py: parse failed"},
	}
}

func TestDupFormatter(t *testing.T) {
	t.Run("TextOutput", func(t *testing.T) {
		var buf bytes.Buffer
		f := NewDupFormatter(false)
		require.NoError(t, f.Format(sampleResponse(), domain.OutputFormatText, &buf))

		out := buf.String()
		assert.Contains(t, out, "Files analyzed: 2")
		assert.Contains(t, out, "Duplicate Functions:")
		assert.Contains(t, out, "a.py:1-6")
		assert.Contains(t, out, "(reordered)")
		assert.Contains(t, out, "c.py: parse failed")
	})

	t.Run("TextMemberLimit", func(t *testing.T) {
		resp := sampleResponse()
		group := resp.UnitGroups[0]
		for i := 0; i < 7; i++ {
			group.Units = append(group.Units, &domain.Unit{
				Qualname: "extra", FilePath: "x.py", Fingerprint: "fp1", LOCBucket: "0-19",
			})
		}

		var buf bytes.Buffer
		require.NoError(t, NewDupFormatter(false).Format(resp, domain.OutputFormatText, &buf))
		assert.Contains(t, buf.String(), "... and 4 more")

		buf.Reset()
		require.NoError(t, NewDupFormatter(true).Format(resp, domain.OutputFormatText, &buf))
		assert.NotContains(t, buf.String(), "more\n")
	})

	t.Run("NoDuplication", func(t *testing.T) {
		resp := &domain.DupResponse{Statistics: domain.NewDupStatistics()}
		var buf bytes.Buffer
		require.NoError(t, NewDupFormatter(false).Format(resp, domain.OutputFormatText, &buf))
		assert.Contains(t, buf.String(), "No duplication found.")
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewDupFormatter(false).Format(sampleResponse(), domain.OutputFormatJSON, &buf))

		var decoded domain.DupResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded.UnitGroups, 1)
		assert.Equal(t, "fp1", decoded.UnitGroups[0].Fingerprint)
		assert.Equal(t, 2, decoded.Statistics.FilesAnalyzed)
	})

	t.Run("YAMLOutput", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewDupFormatter(false).Format(sampleResponse(), domain.OutputFormatYAML, &buf))
		assert.Contains(t, buf.String(), "unit_groups:")
	})

	t.Run("CSVOutput", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewDupFormatter(false).Format(sampleResponse(), domain.OutputFormatCSV, &buf))

		records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
		require.NoError(t, err)
		require.NotEmpty(t, records)
		assert.Equal(t, []string{"kind", "group", "qualname", "file_path", "start_line", "end_line", "detail"}, records[0])

		kinds := map[string]int{}
		for _, rec := range records[1:] {
			kinds[rec[0]]++
		}
		assert.Equal(t, 2, kinds["function"])
		assert.Equal(t, 2, kinds["block"])
		assert.Equal(t, 2, kinds["segment"])
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewDupFormatter(false).Format(sampleResponse(), domain.OutputFormat("html"), &buf)
		assert.Error(t, err)
	})
}
