package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// buildPydupBinary compiles the CLI into a temp directory and returns
// the binary path.
func buildPydupBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "pydup")

	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/pydup")
	cmd.Dir = projectRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build pydup binary: %v\n%s", err, out)
	}

	return binaryPath
}

func createTestPythonFile(t *testing.T, dir, filename, content string) {
	t.Helper()

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filename, err)
	}
}
