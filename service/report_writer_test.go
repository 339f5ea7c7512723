package service

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReportWriter(t *testing.T) {
	t.Run("WritesToProvidedWriter", func(t *testing.T) {
		var out, status bytes.Buffer
		w := NewFileReportWriter(&status)

		err := w.Write(&out, "", func(dst io.Writer) error {
			_, err := dst.Write([]byte("report body"))
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "report body", out.String())
		assert.Empty(t, status.String())
	})

	t.Run("WritesToFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")
		var status bytes.Buffer
		w := NewFileReportWriter(&status)

		err := w.Write(nil, path, func(dst io.Writer) error {
			_, err := dst.Write([]byte("file body"))
			return err
		})
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "file body", string(content))
		assert.Contains(t, status.String(), "Report written:")
	})

	t.Run("UncreatableFile", func(t *testing.T) {
		w := NewFileReportWriter(io.Discard)
		err := w.Write(nil, filepath.Join(t.TempDir(), "no", "such", "dir", "r.txt"), func(io.Writer) error {
			return nil
		})
		assert.Error(t, err)
	})
}
